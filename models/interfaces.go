package models

import "context"

// AdapterSnapshotSource delivers one cycle's interface counter readings.
type AdapterSnapshotSource interface {
	Read(ctx context.Context) ([]AdapterSample, error)
}

// ClientSnapshotSource delivers the raw client table of one hardware
// device, keyed by the device's notion of a MAC (unvalidated).
type ClientSnapshotSource interface {
	Hardware() []HardwareID
	Read(ctx context.Context, hw HardwareID) (map[string]RawClient, error)
}

// ReliablePresenceSource is the optional presence oracle. A nil entry
// slice with no error means "no override this cycle".
type ReliablePresenceSource interface {
	Query(ctx context.Context) ([]ReliablePresenceEntry, error)
}

// Pinger double-checks a client that looks offline before an offline
// action fires.
type Pinger interface {
	Ping(ip Ip) bool
}
