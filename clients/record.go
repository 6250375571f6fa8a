package clients

import (
	"time"

	"wanwatch/models"
)

// unsetDuration marks the inactive side of the online/offline pair.
const unsetDuration = time.Duration(-1)

// OnlineStatusChanges tracks when a client entered its current state and
// for how long it has stayed there. Exactly one of OnlineFor/OfflineFor is
// active at any time; a state flip resets the other side's timestamps and
// re-seeds its duration to unset. Fired-at markers are set by the trigger
// engine, use the zero time as "not fired this episode", and re-arm here:
// being in one state clears the opposite direction's marker, so each fresh
// episode can fire again.
type OnlineStatusChanges struct {
	FirstSeenOnline  time.Time
	LastSeenOnline   time.Time
	FirstSeenOffline time.Time
	LastSeenOffline  time.Time

	OnlineFor  time.Duration
	OfflineFor time.Duration

	OnlineActionFiredAt  time.Time
	OfflineActionFiredAt time.Time
}

func newOnlineStatusChanges() OnlineStatusChanges {
	return OnlineStatusChanges{
		OnlineFor:  unsetDuration,
		OfflineFor: unsetDuration,
	}
}

// advance moves the two-state machine. online is the post-arbitration
// state for this cycle.
func (s *OnlineStatusChanges) advance(online bool, now time.Time) {
	if online {
		if s.FirstSeenOnline.IsZero() {
			s.FirstSeenOnline = now
		}
		s.LastSeenOnline = now
		s.OnlineFor = now.Sub(s.FirstSeenOnline)

		s.FirstSeenOffline = time.Time{}
		s.LastSeenOffline = time.Time{}
		s.OfflineFor = unsetDuration
		s.OfflineActionFiredAt = time.Time{}
		return
	}

	if s.FirstSeenOffline.IsZero() {
		s.FirstSeenOffline = now
	}
	s.LastSeenOffline = now
	s.OfflineFor = now.Sub(s.FirstSeenOffline)

	s.FirstSeenOnline = time.Time{}
	s.LastSeenOnline = time.Time{}
	s.OnlineFor = unsetDuration
	s.OnlineActionFiredAt = time.Time{}
}

// ClientRecord is the reconciled view of one device across every hardware
// source that reports it, keyed by canonical MAC.
type ClientRecord struct {
	MAC        models.MAC
	IP         models.Ip
	Kind       models.ConnectionKind
	Vendor     string
	Name       string
	Nickname   string
	Substitute string
	DeviceType int

	RSSI             int
	WifiRx           uint64
	WifiTx           uint64
	WifiConnectedFor time.Duration

	// OnlineByRouter is the corrected router view; Online is the final
	// state after oracle arbitration.
	OnlineByRouter bool
	Online         bool

	// HardwareSources holds the devices reporting this client in the
	// current cycle.
	HardwareSources map[models.HardwareID]struct{}

	Status OnlineStatusChanges
}

func newClientRecord(mac models.MAC) *ClientRecord {
	return &ClientRecord{
		MAC:             mac,
		HardwareSources: make(map[models.HardwareID]struct{}),
		Status:          newOnlineStatusChanges(),
	}
}

// applyRaw merges one hardware source's row into the record. Non-empty
// fields from the newer snapshot win; the reporting source accumulates.
// Router online flags from multiple sources within a cycle OR together.
func (c *ClientRecord) applyRaw(hw models.HardwareID, rc models.RawClient, kind models.ConnectionKind, online bool) {
	c.HardwareSources[hw] = struct{}{}

	if rc.IP != "" {
		c.IP = rc.IP
	}
	c.Kind = kind
	if rc.Vendor != "" {
		c.Vendor = rc.Vendor
	}
	if rc.Name != "" {
		c.Name = rc.Name
	}
	if rc.Nickname != "" {
		c.Nickname = rc.Nickname
	}
	if rc.DeviceType != 0 {
		c.DeviceType = rc.DeviceType
	}
	if rc.RSSI != 0 {
		c.RSSI = rc.RSSI
	}
	if rc.WifiRxBytes != 0 {
		c.WifiRx = rc.WifiRxBytes
	}
	if rc.WifiTxBytes != 0 {
		c.WifiTx = rc.WifiTxBytes
	}
	if rc.WifiClockTime != "" {
		c.WifiConnectedFor = models.ParseClockDuration(rc.WifiClockTime)
	}

	c.OnlineByRouter = c.OnlineByRouter || online
}

// DisplayName resolves what the client is called in messages and listings:
// configured substitute first, then nickname, name, vendor, and finally
// the MAC itself.
func (c *ClientRecord) DisplayName() string {
	if c.Substitute != "" {
		return c.Substitute
	}
	if c.Nickname != "" {
		return c.Nickname
	}
	if c.Name != "" {
		return c.Name
	}
	if c.Vendor != "" {
		return c.Vendor
	}
	return string(c.MAC)
}
