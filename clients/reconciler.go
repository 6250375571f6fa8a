package clients

import (
	"sort"
	"time"

	"go.uber.org/zap"
	"wanwatch/models"
)

// HardwareCounts tallies one hardware device's client table from the
// corrected router-reported online flags, before oracle arbitration.
type HardwareCounts struct {
	Online      int `json:"online"`
	Offline     int `json:"offline"`
	WiredOnline int `json:"wiredOnline"`
	WifiOnline  int `json:"wifiOnline"`
}

// Reconciler owns the client registry. Each cycle the polling loop calls
// BeginCycle, Merge per hardware device, ApplyOverrides, Arbitrate and
// AdvanceDurations, in that order. Records persist across cycles so that
// online/offline durations accumulate.
type Reconciler struct {
	logger  *zap.SugaredLogger
	records map[models.MAC]*ClientRecord
	counts  map[models.HardwareID]HardwareCounts
}

func NewReconciler(logger *zap.SugaredLogger) *Reconciler {
	return &Reconciler{
		logger:  logger,
		records: make(map[models.MAC]*ClientRecord),
		counts:  make(map[models.HardwareID]HardwareCounts),
	}
}

// BeginCycle resets the per-cycle state: which sources report each client
// and what the router currently says. Durations and identity fields are
// kept.
func (r *Reconciler) BeginCycle() {
	r.counts = make(map[models.HardwareID]HardwareCounts)
	for _, rec := range r.records {
		rec.HardwareSources = make(map[models.HardwareID]struct{})
		rec.OnlineByRouter = false
	}
}

// Merge folds one hardware device's raw client table into the registry.
// Keys that are not strict MAC addresses are discarded; the rest are
// canonicalised, so the same device reported by several sources lands on
// one record.
func (r *Reconciler) Merge(hw models.HardwareID, raw map[string]models.RawClient) HardwareCounts {
	var counts HardwareCounts

	for key, rc := range raw {
		if !models.ValidMAC(key) {
			r.logger.Debugf("Discarding client key %q from %v: not a MAC address", key, hw)
			continue
		}
		mac := models.NewMAC(key)

		kind := correctConnectionKind(models.ConnectionKindFromCode(rc.WirelessCode), rc)
		online := correctOnlineStatus(rc.IsOnline, rc)

		rec, ok := r.records[mac]
		if !ok {
			rec = newClientRecord(mac)
			r.records[mac] = rec
		}
		rec.applyRaw(hw, rc, kind, online)

		if online {
			counts.Online++
			if kind == models.KindWired {
				counts.WiredOnline++
			} else if kind.IsWireless() {
				counts.WifiOnline++
			}
		} else {
			counts.Offline++
		}
	}

	r.counts[hw] = counts
	return counts
}

// ApplyOverrides applies configured substitute names and forced connection
// kinds. Runs after merge and before duration advancement; it never
// constitutes a state transition.
func (r *Reconciler) ApplyOverrides(subs []models.SubstituteName, forced map[models.MAC]models.ConnectionKind) {
	for _, rec := range r.records {
		for _, s := range subs {
			if (s.MAC != "" && models.MAC(s.MAC) == rec.MAC) ||
				(s.IP != "" && models.Ip(s.IP) == rec.IP) {
				rec.Substitute = s.Name
				break
			}
		}
		if k, ok := forced[rec.MAC]; ok {
			rec.Kind = k
		}
	}
}

// Arbitrate sets the final online state. With no oracle entries this cycle
// the corrected router view stands for every client. When the oracle
// reports, its view overrides the router entirely: a client is online iff
// its MAC or IP appears in the entries.
func (r *Reconciler) Arbitrate(entries []models.ReliablePresenceEntry) {
	if len(entries) == 0 {
		for _, rec := range r.records {
			rec.Online = rec.OnlineByRouter
		}
		return
	}

	byMAC := make(map[models.MAC]models.ReliablePresenceEntry, len(entries))
	byIP := make(map[models.Ip]models.ReliablePresenceEntry, len(entries))
	for _, e := range entries {
		if e.MAC != "" {
			byMAC[e.MAC] = e
		}
		if e.IP != "" {
			byIP[e.IP] = e
		}
	}

	for _, rec := range r.records {
		e, ok := byMAC[rec.MAC]
		if !ok {
			e, ok = byIP[rec.IP]
		}
		rec.Online = ok
		if ok && rec.Kind.IsWireless() && e.SeenFor > rec.WifiConnectedFor {
			// Routers report falsely short wifi sessions after a silent
			// reconnect; the oracle's longer view wins.
			rec.WifiConnectedFor = e.SeenFor
		}
	}
}

// AdvanceDurations moves every client's two-state machine to now.
func (r *Reconciler) AdvanceDurations(now time.Time) {
	for _, rec := range r.records {
		rec.Status.advance(rec.Online, now)
	}
}

// Records returns the registry sorted by MAC for stable output.
func (r *Reconciler) Records() []*ClientRecord {
	out := make([]*ClientRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MAC < out[j].MAC })
	return out
}

// Record returns one client by canonical MAC, or nil.
func (r *Reconciler) Record(mac models.MAC) *ClientRecord {
	return r.records[mac]
}

// Counts returns the per-hardware tallies from the last cycle.
func (r *Reconciler) Counts() map[models.HardwareID]HardwareCounts {
	out := make(map[models.HardwareID]HardwareCounts, len(r.counts))
	for hw, c := range r.counts {
		out[hw] = c
	}
	return out
}

// ClientView is the JSON-friendly published snapshot of one record.
type ClientView struct {
	MAC         models.MAC          `json:"mac"`
	IP          models.Ip           `json:"ip,omitempty"`
	Name        string              `json:"name"`
	Kind        string              `json:"kind"`
	Vendor      string              `json:"vendor,omitempty"`
	Online      bool                `json:"online"`
	RSSI        int                 `json:"rssi,omitempty"`
	OnlineFor   float64             `json:"onlineForSeconds"`
	OfflineFor  float64             `json:"offlineForSeconds"`
	WifiSession float64             `json:"wifiSessionSeconds,omitempty"`
	Sources     []models.HardwareID `json:"sources"`
	ByRouter    bool                `json:"onlineByRouter"`
}

// Snapshot publishes the registry for rendering and the web API.
func (r *Reconciler) Snapshot() []ClientView {
	records := r.Records()
	out := make([]ClientView, 0, len(records))
	for _, rec := range records {
		sources := make([]models.HardwareID, 0, len(rec.HardwareSources))
		for hw := range rec.HardwareSources {
			sources = append(sources, hw)
		}
		sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

		v := ClientView{
			MAC:      rec.MAC,
			IP:       rec.IP,
			Name:     rec.DisplayName(),
			Kind:     rec.Kind.String(),
			Vendor:   rec.Vendor,
			Online:   rec.Online,
			RSSI:     rec.RSSI,
			Sources:  sources,
			ByRouter: rec.OnlineByRouter,
		}
		if rec.Status.OnlineFor >= 0 {
			v.OnlineFor = rec.Status.OnlineFor.Seconds()
		} else {
			v.OnlineFor = -1
		}
		if rec.Status.OfflineFor >= 0 {
			v.OfflineFor = rec.Status.OfflineFor.Seconds()
		} else {
			v.OfflineFor = -1
		}
		v.WifiSession = rec.WifiConnectedFor.Seconds()
		out = append(out, v)
	}
	return out
}
