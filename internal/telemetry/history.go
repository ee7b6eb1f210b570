// Package telemetry collects per-tick samples for plotting and for the
// optional Prometheus endpoint.
package telemetry

import (
	"math"

	"github.com/krinkin/pid-simulation/internal/sim"
)

const (
	// DefaultMaxPoints bounds the in-memory history.
	DefaultMaxPoints = 300
	// DefaultTimeWindow is the span of the plotted window in seconds.
	DefaultTimeWindow = 10.0
)

// History is a bounded, time-ordered sample buffer. It implements
// sim.Observer; the driver appends exactly once per tick and History
// evicts from the front once full. Not safe for concurrent use, matching
// the driver's single-threaded model.
type History struct {
	maxPoints  int
	timeWindow float64
	samples    []sim.Sample
}

func NewHistory(maxPoints int, timeWindow float64) *History {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	if timeWindow <= 0 {
		timeWindow = DefaultTimeWindow
	}
	return &History{
		maxPoints:  maxPoints,
		timeWindow: timeWindow,
		samples:    make([]sim.Sample, 0, maxPoints),
	}
}

func (h *History) OnSample(s sim.Sample) {
	if len(h.samples) == h.maxPoints {
		copy(h.samples, h.samples[1:])
		h.samples = h.samples[:len(h.samples)-1]
	}
	h.samples = append(h.samples, s)
}

// Reset drops all history, e.g. on the reset-graphs action.
func (h *History) Reset() {
	h.samples = h.samples[:0]
}

func (h *History) Len() int {
	return len(h.samples)
}

// Latest returns the most recent sample, or false when empty.
func (h *History) Latest() (sim.Sample, bool) {
	if len(h.samples) == 0 {
		return sim.Sample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// Window returns the retained samples inside the sliding time window,
// newest last. The returned slice aliases internal storage and is only
// valid until the next OnSample.
func (h *History) Window() []sim.Sample {
	if len(h.samples) == 0 {
		return nil
	}
	cutoff := h.samples[len(h.samples)-1].Time - h.timeWindow
	lo := 0
	for lo < len(h.samples) && h.samples[lo].Time < cutoff {
		lo++
	}
	return h.samples[lo:]
}

// Series extracts one field from the windowed samples.
type Series func(sim.Sample) float64

func (h *History) Values(f Series) []float64 {
	window := h.Window()
	out := make([]float64, len(window))
	for i, s := range window {
		out[i] = f(s)
	}
	return out
}

// Bounds returns the min and max of a field over the window, for
// auto-scaling. Returns (0, 0) when empty.
func (h *History) Bounds(f Series) (lo, hi float64) {
	window := h.Window()
	if len(window) == 0 {
		return 0, 0
	}
	lo, hi = f(window[0]), f(window[0])
	for _, s := range window[1:] {
		v := f(s)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// Field extractors for the plotted series.
var (
	ErrorSeries    Series = func(s sim.Sample) float64 { return s.Error }
	OutputSeries   Series = func(s sim.Sample) float64 { return s.Output }
	PSeries        Series = func(s sim.Sample) float64 { return s.P }
	ISeries        Series = func(s sim.Sample) float64 { return s.I }
	DSeries        Series = func(s sim.Sample) float64 { return s.D }
	PositionSeries Series = func(s sim.Sample) float64 { return s.Position }
)
