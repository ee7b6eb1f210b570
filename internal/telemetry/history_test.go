package telemetry

import (
	"testing"

	"github.com/krinkin/pid-simulation/internal/sim"
)

func fill(h *History, n int, dt float64) {
	for i := 0; i < n; i++ {
		h.OnSample(sim.Sample{
			Time:  float64(i+1) * dt,
			Error: float64(i),
		})
	}
}

func TestHistory_Eviction(t *testing.T) {
	h := NewHistory(10, 100)
	fill(h, 25, 0.1)

	if h.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", h.Len())
	}

	latest, ok := h.Latest()
	if !ok {
		t.Fatal("Latest() reported empty")
	}
	if latest.Error != 24 {
		t.Errorf("latest sample error = %f, want 24 (newest kept)", latest.Error)
	}

	window := h.Window()
	if window[0].Error != 15 {
		t.Errorf("oldest retained error = %f, want 15 (oldest evicted)", window[0].Error)
	}
}

func TestHistory_TimeWindow(t *testing.T) {
	h := NewHistory(1000, 2.0)
	fill(h, 100, 0.125) // samples span 0.125s .. 12.5s

	window := h.Window()
	for _, s := range window {
		if s.Time < 12.5-2.0 {
			t.Errorf("sample at t=%f is outside the 2s window", s.Time)
		}
	}
	if len(window) == 0 {
		t.Fatal("window is empty")
	}
	if last := window[len(window)-1]; last.Time != 12.5 {
		t.Errorf("newest windowed sample at t=%f, want 12.5", last.Time)
	}
}

func TestHistory_Reset(t *testing.T) {
	h := NewHistory(10, 10)
	fill(h, 5, 0.1)

	h.Reset()

	if h.Len() != 0 {
		t.Errorf("Len() = %d after reset, want 0", h.Len())
	}
	if _, ok := h.Latest(); ok {
		t.Error("Latest() returned a sample after reset")
	}
}

func TestHistory_ValuesAndBounds(t *testing.T) {
	h := NewHistory(100, 100)
	h.OnSample(sim.Sample{Time: 0.1, Output: -30})
	h.OnSample(sim.Sample{Time: 0.2, Output: 80})
	h.OnSample(sim.Sample{Time: 0.3, Output: 5})

	vals := h.Values(OutputSeries)
	if len(vals) != 3 || vals[0] != -30 || vals[2] != 5 {
		t.Errorf("Values() = %v", vals)
	}

	lo, hi := h.Bounds(OutputSeries)
	if lo != -30 || hi != 80 {
		t.Errorf("Bounds() = (%f, %f), want (-30, 80)", lo, hi)
	}
}

func TestHistory_EmptyBounds(t *testing.T) {
	h := NewHistory(10, 10)
	lo, hi := h.Bounds(ErrorSeries)
	if lo != 0 || hi != 0 {
		t.Errorf("Bounds() on empty = (%f, %f), want (0, 0)", lo, hi)
	}
	if h.Window() != nil {
		t.Error("Window() on empty should be nil")
	}
}

func TestCollector_Gauges(t *testing.T) {
	c := NewCollector()
	c.OnSample(sim.Sample{
		Time: 1.5, Error: -42, Output: 33, P: 1, I: 2, D: 3,
		Position: 642, Velocity: -7,
	})

	families, err := c.Gather().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	got := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			got[mf.GetName()] = m.GetGauge().GetValue()
		}
	}

	want := map[string]float64{
		"pidsim_error":             -42,
		"pidsim_control_output":    33,
		"pidsim_term_proportional": 1,
		"pidsim_term_integral":     2,
		"pidsim_term_derivative":   3,
		"pidsim_platform_position": 642,
		"pidsim_platform_velocity": -7,
		"pidsim_elapsed_seconds":   1.5,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s = %f, want %f", name, got[name], v)
		}
	}
}
