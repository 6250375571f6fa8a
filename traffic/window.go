package traffic

import (
	"math"
)

// RollingWindow keeps the most recent speed samples for one direction of
// one provider, plus the stats derived from them. The window is a bounded
// FIFO: once capacity is reached the oldest sample is evicted first.
type RollingWindow struct {
	capacity int
	samples  []float64

	Sum float64
	Min float64
	Max float64
	Avg float64

	// Previous-cycle values, kept so renderers can draw trend arrows.
	PrevSum float64
	PrevMin float64
	PrevMax float64
	PrevAvg float64

	// Lifetime extrema across all samples ever pushed.
	GlobalMin float64
	GlobalMax float64
	GlobalAvg float64

	PrevGlobalMin float64
	PrevGlobalMax float64
	PrevGlobalAvg float64
}

func NewRollingWindow(capacity int) *RollingWindow {
	if capacity < 1 {
		capacity = 1
	}
	return &RollingWindow{
		capacity:  capacity,
		GlobalMin: math.Inf(1),
	}
}

// Push appends one speed sample, evicts beyond capacity and recomputes the
// window and lifetime stats. The recompute is O(window); windows are tens
// of entries at most.
func (w *RollingWindow) Push(speed float64) {
	w.PrevSum, w.PrevMin, w.PrevMax, w.PrevAvg = w.Sum, w.Min, w.Max, w.Avg
	w.PrevGlobalMin, w.PrevGlobalMax, w.PrevGlobalAvg = w.GlobalMin, w.GlobalMax, w.GlobalAvg

	w.samples = append(w.samples, speed)
	for len(w.samples) > w.capacity {
		w.samples = w.samples[1:]
	}

	w.recompute()
	w.updateGlobal()
}

func (w *RollingWindow) recompute() {
	w.Sum, w.Min, w.Max = 0, 0, 0
	if len(w.samples) == 0 {
		w.Avg = 0
		return
	}
	w.Min = math.Inf(1)
	for _, s := range w.samples {
		w.Sum += s
		if s < w.Min {
			w.Min = s
		}
		if s > w.Max {
			w.Max = s
		}
	}
	w.Avg = w.Sum / float64(len(w.samples))
}

// updateGlobal folds the current window extremes into the lifetime ones.
// GlobalAvg is the midpoint of the lifetime extremes, not a time-weighted
// average; the midpoint is what the stats consumers expect.
func (w *RollingWindow) updateGlobal() {
	if w.Max > w.GlobalMax {
		w.GlobalMax = w.Max
	}
	if w.Min < w.GlobalMin {
		w.GlobalMin = w.Min
	}
	w.GlobalAvg = (w.GlobalMin + w.GlobalMax) / 2
}

func (w *RollingWindow) Len() int {
	return len(w.samples)
}

func (w *RollingWindow) Capacity() int {
	return w.capacity
}
