package traffic

import (
	"wanwatch/models"
)

// ProviderAccount is the counter bookkeeping for one provider (a WAN or
// VPN uplink bound to one gateway adapter), or the synthetic TOTAL.
// Accounts are created at initialisation from the first successful adapter
// read and live for the whole process.
type ProviderAccount struct {
	Provider models.ProviderID
	Adapter  models.AdapterID

	RxCurrent  uint64
	RxPrevious uint64
	RxAtStart  uint64
	TxCurrent  uint64
	TxPrevious uint64
	TxAtStart  uint64

	// Accumulated totals are maintained by this process and survive
	// device counter resets; they never decrease.
	RxAccumulated uint64
	TxAccumulated uint64

	IP     models.Ip
	IsDdns bool
	// IPChangeCount is seeded at -1 so the first assignment (empty string
	// to a real address) brings it to 0 without counting as a change.
	IPChangeCount int

	// Idle cycle counters never reset for the lifetime of the process.
	IdleRxCycles int
	IdleTxCycles int

	Offline bool
}

func newProviderAccount(provider models.ProviderID, adapter models.AdapterID, s models.AdapterSample) *ProviderAccount {
	return &ProviderAccount{
		Provider:      provider,
		Adapter:       adapter,
		RxCurrent:     s.RxBytes,
		RxPrevious:    s.RxBytes,
		RxAtStart:     s.RxBytes,
		TxCurrent:     s.TxBytes,
		TxPrevious:    s.TxBytes,
		TxAtStart:     s.TxBytes,
		IPChangeCount: -1,
	}
}

// counterDelta returns the bytes consumed between two readings of a raw
// device counter. A reading lower than the previous one means the counter
// was reset (reboot or wrap); the new absolute value is then the best
// available estimate of bytes since the reset, and the lifetime totals
// stay monotonic.
func counterDelta(current, previous uint64) uint64 {
	if current < previous {
		return current
	}
	return current - previous
}

// applySample shifts current to previous, reads the new counters and
// accumulates the reset-safe deltas. It returns the deltas for speed
// computation.
func (a *ProviderAccount) applySample(s models.AdapterSample) (rxDelta, txDelta uint64) {
	a.RxPrevious, a.TxPrevious = a.RxCurrent, a.TxCurrent
	a.RxCurrent, a.TxCurrent = s.RxBytes, s.TxBytes

	rxDelta = counterDelta(a.RxCurrent, a.RxPrevious)
	txDelta = counterDelta(a.TxCurrent, a.TxPrevious)

	a.RxAccumulated += rxDelta
	a.TxAccumulated += txDelta
	return rxDelta, txDelta
}

// trackIP records the sample's address and reports whether it counts as a
// real change to consumers. The seed assignment does not.
func (a *ProviderAccount) trackIP(ip models.Ip, isDdns bool) bool {
	changed := false
	if a.IP != ip {
		a.IPChangeCount++
		changed = a.IPChangeCount > 0
	}
	a.IP = ip
	a.IsDdns = isDdns
	return changed
}
