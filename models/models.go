package models

import (
	"time"
)

type Ip string
type MAC string
type ProviderID string
type AdapterID string
type HardwareID string

// AdapterSample is one polling cycle's raw counter reading for a single
// interface on the gateway or an access point. Counters are the device's
// own and may reset at any time.
type AdapterSample struct {
	Adapter   AdapterID
	IP        Ip
	IsDdns    bool
	RxBytes   uint64
	TxBytes   uint64
	RxPackets uint64
	TxPackets uint64
	RxDropped uint64
	TxDropped uint64
}

// ConnectionKind is how a client is attached to the network, decoded from
// the gateway's wireless-link code.
type ConnectionKind int

const (
	KindUnknown ConnectionKind = iota
	KindWired
	KindWifi24_5
	KindWifi6
	KindGuestWifi
)

// connectionKinds maps the raw isWL code to a ConnectionKind. Codes
// outside the table decode to KindUnknown.
var connectionKinds = map[int]ConnectionKind{
	0: KindWired,
	1: KindWifi24_5,
	2: KindWifi6,
	3: KindGuestWifi,
}

func ConnectionKindFromCode(code int) ConnectionKind {
	if k, ok := connectionKinds[code]; ok {
		return k
	}
	return KindUnknown
}

func (k ConnectionKind) String() string {
	switch k {
	case KindWired:
		return "wired"
	case KindWifi24_5:
		return "wifi-2.4/5"
	case KindWifi6:
		return "wifi-6"
	case KindGuestWifi:
		return "guest-wifi"
	default:
		return "unknown"
	}
}

// IsWireless reports whether the kind is any of the wifi attachments.
func (k ConnectionKind) IsWireless() bool {
	return k == KindWifi24_5 || k == KindWifi6 || k == KindGuestWifi
}

// RawClient is one row of a hardware device's client table, as delivered
// by a ClientSnapshotSource. Missing fields arrive as zero values.
type RawClient struct {
	IP            Ip
	WirelessCode  int
	Vendor        string
	Name          string
	Nickname      string
	DeviceType    int
	IsOnline      bool
	RSSI          int
	WifiRxBytes   uint64
	WifiTxBytes   uint64
	WifiClockTime string // wl association time as "H:M:S", empty when not associated
}

// ActionRule binds a client identity pattern to online/offline timeout
// actions. Rules are ordered; for each client the first match wins, with
// MAC matches taking priority over IP matches over name matches.
type ActionRule struct {
	MatchMAC  string `yaml:"mac,omitempty"`
	MatchIP   string `yaml:"ip,omitempty"`
	MatchName string `yaml:"name,omitempty"`

	OnlineTimeout time.Duration `yaml:"onlineTimeout"`
	OnlineMessage string        `yaml:"onlineMessage"`
	OnlineLock    bool          `yaml:"onlineLock"`

	OfflineTimeout time.Duration `yaml:"offlineTimeout"`
	OfflineMessage string        `yaml:"offlineMessage"`
	OfflineLock    bool          `yaml:"offlineLock"`

	ClarifyByPing bool            `yaml:"clarifyByPing"`
	ForceKind     *ConnectionKind `yaml:"forceKind,omitempty"`
}

// SubstituteName overrides the display name of a client matched by MAC or
// IP.
type SubstituteName struct {
	MAC  string `yaml:"mac,omitempty"`
	IP   string `yaml:"ip,omitempty"`
	Name string `yaml:"name"`
}

// ReliablePresenceEntry is one device reported by the presence oracle.
// SeenFor is how long the oracle has continuously observed the device.
type ReliablePresenceEntry struct {
	MAC     MAC
	IP      Ip
	SeenFor time.Duration
}

type ActionDirection string

const (
	ActionOnline  ActionDirection = "online"
	ActionOffline ActionDirection = "offline"
)

// ActionEvent is one fired trigger, consumed once by the notifier.
type ActionEvent struct {
	MAC           MAC
	Name          string
	Direction     ActionDirection
	Message       string
	LockRequested bool
}
