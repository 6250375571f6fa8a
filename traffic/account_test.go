package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"wanwatch/models"
)

func TestCounterDelta(t *testing.T) {
	assert.Equal(t, uint64(500), counterDelta(1500, 1000), "normal delta")
	assert.Equal(t, uint64(0), counterDelta(1000, 1000), "no movement")
	// A lower reading means the device counter was reset; the new absolute
	// value is the delta.
	assert.Equal(t, uint64(50), counterDelta(50, 5000), "reset delta")
	assert.Equal(t, uint64(0), counterDelta(0, 5000), "reset to zero")
}

func TestApplySampleAccumulatesAcrossReset(t *testing.T) {
	a := newProviderAccount("wan1", "eth0", models.AdapterSample{RxBytes: 1000, TxBytes: 2000})
	assert.Equal(t, uint64(1000), a.RxAtStart)
	assert.Equal(t, uint64(0), a.RxAccumulated)

	rx, tx := a.applySample(models.AdapterSample{RxBytes: 1500, TxBytes: 2100})
	assert.Equal(t, uint64(500), rx)
	assert.Equal(t, uint64(100), tx)
	assert.Equal(t, uint64(500), a.RxAccumulated)
	assert.Equal(t, uint64(1000), a.RxPrevious)
	assert.Equal(t, uint64(1500), a.RxCurrent)

	// Simulated reboot: counter drops from 1500 to 50. The accumulator
	// must grow by 50, not shrink by 1450.
	rx, _ = a.applySample(models.AdapterSample{RxBytes: 50, TxBytes: 2200})
	assert.Equal(t, uint64(50), rx)
	assert.Equal(t, uint64(550), a.RxAccumulated)
}

func TestApplySampleMonotonicAccumulators(t *testing.T) {
	a := newProviderAccount("wan1", "eth0", models.AdapterSample{RxBytes: 100, TxBytes: 100})
	readings := []uint64{200, 50, 0, 10, 9, 100000, 3}
	prevAccum := a.RxAccumulated
	for _, r := range readings {
		a.applySample(models.AdapterSample{RxBytes: r, TxBytes: r})
		assert.GreaterOrEqual(t, a.RxAccumulated, prevAccum, "accumulator decreased at reading %d", r)
		prevAccum = a.RxAccumulated
	}
}

func TestTrackIP(t *testing.T) {
	a := newProviderAccount("wan1", "eth0", models.AdapterSample{})
	assert.Equal(t, -1, a.IPChangeCount)

	// First assignment is the seed, not a change.
	changed := a.trackIP("81.2.3.4", false)
	assert.False(t, changed)
	assert.Equal(t, 0, a.IPChangeCount)
	assert.Equal(t, models.Ip("81.2.3.4"), a.IP)

	// Same address again: nothing happens.
	changed = a.trackIP("81.2.3.4", false)
	assert.False(t, changed)
	assert.Equal(t, 0, a.IPChangeCount)

	// A real change.
	changed = a.trackIP("81.2.3.5", true)
	assert.True(t, changed)
	assert.Equal(t, 1, a.IPChangeCount)
	assert.True(t, a.IsDdns)
}
