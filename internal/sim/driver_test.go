package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/krinkin/pid-simulation/internal/control"
)

type recordingObserver struct {
	samples []Sample
	resets  int
}

func (r *recordingObserver) OnSample(s Sample) { r.samples = append(r.samples, s) }
func (r *recordingObserver) Reset()            { r.samples = nil; r.resets++ }

func newTestDriver(t *testing.T, params Params) *Driver {
	t.Helper()
	d, err := NewDriver(params)
	if err != nil {
		t.Fatalf("NewDriver: %v", err)
	}
	return d
}

func TestNewDriver_RejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero mass", func(p *Params) { p.Mass = 0 }},
		{"negative mass", func(p *Params) { p.Mass = -2 }},
		{"zero speed", func(p *Params) { p.Speed = 0 }},
		{"negative speed", func(p *Params) { p.Speed = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			tt.mutate(&params)
			if _, err := NewDriver(params); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}
}

func TestDriver_StepEmitsOrderedSamples(t *testing.T) {
	d := newTestDriver(t, DefaultParams())
	obs := &recordingObserver{}
	d.AddObserver(obs)

	d.PlacePlatform(WorldCenter + 100)
	for i := 0; i < 50; i++ {
		d.Step()
	}

	if len(obs.samples) != 50 {
		t.Fatalf("expected 50 samples, got %d", len(obs.samples))
	}
	for i := 1; i < len(obs.samples); i++ {
		if obs.samples[i].Time <= obs.samples[i-1].Time {
			t.Fatalf("sample %d time %f not after %f", i, obs.samples[i].Time, obs.samples[i-1].Time)
		}
	}
}

func TestDriver_SpeedScalesDt(t *testing.T) {
	params := DefaultParams()
	params.Speed = 1.0
	slow := newTestDriver(t, params)
	params.Speed = 3.0
	fast := newTestDriver(t, params)

	slow.Step()
	fast.Step()

	if math.Abs(slow.Elapsed()-BaseDt) > 1e-12 {
		t.Errorf("speed 1 elapsed = %f, want %f", slow.Elapsed(), BaseDt)
	}
	if math.Abs(fast.Elapsed()-3*BaseDt) > 1e-12 {
		t.Errorf("speed 3 elapsed = %f, want %f", fast.Elapsed(), 3*BaseDt)
	}
}

func TestDriver_ApplyChanges(t *testing.T) {
	d := newTestDriver(t, DefaultParams())

	err := d.Apply(
		GainChange{Term: TermP, Value: 5.0},
		GainChange{Term: TermI, Value: 0.5},
		GainChange{Term: TermD, Value: 2.0},
		MassChange{Value: 2.5},
		WindChange{Value: -12},
		SpeedChange{Value: 1.0},
		SetpointChange{Value: 700},
		EnabledChange{Term: TermI, On: false},
	)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	p := d.Params()
	if p.Kp != 5.0 || p.Ki != 0.5 || p.Kd != 2.0 {
		t.Errorf("gains not applied: %+v", p)
	}
	if p.Mass != 2.5 || p.Wind != -12 || p.Speed != 1.0 || p.Setpoint != 700 {
		t.Errorf("params not applied: %+v", p)
	}
	if p.Enabled.I || !p.Enabled.P || !p.Enabled.D {
		t.Errorf("mask not applied: %+v", p.Enabled)
	}
	if d.Platform().Mass() != 2.5 {
		t.Errorf("platform mass = %f, want 2.5", d.Platform().Mass())
	}
	if d.Platform().Wind() != -12.0 {
		t.Errorf("platform wind = %f, want -12", d.Platform().Wind())
	}
}

func TestDriver_ApplyRejectsInvalid(t *testing.T) {
	d := newTestDriver(t, DefaultParams())

	tests := []struct {
		name   string
		change Change
	}{
		{"zero mass", MassChange{Value: 0}},
		{"negative mass", MassChange{Value: -1}},
		{"zero speed", SpeedChange{Value: 0}},
		{"negative speed", SpeedChange{Value: -0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := d.Apply(tt.change); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("expected ErrInvalidParameter, got %v", err)
			}
		})
	}

	p := d.Params()
	if p.Mass != 1.0 || p.Speed != 2.2 {
		t.Errorf("rejected changes mutated params: %+v", p)
	}
}

func TestDriver_Reset(t *testing.T) {
	d := newTestDriver(t, DefaultParams())
	obs := &recordingObserver{}
	d.AddObserver(obs)

	d.Apply(GainChange{Term: TermP, Value: 7.0})
	d.PlacePlatform(100)
	for i := 0; i < 30; i++ {
		d.Step()
	}

	d.Reset()

	if d.Elapsed() != 0 {
		t.Errorf("elapsed = %f after reset", d.Elapsed())
	}
	if pos := d.Platform().Position(); pos != WorldCenter {
		t.Errorf("position = %f after reset, want %f", pos, WorldCenter)
	}
	if st := d.Controller().Snapshot(); st != (control.State{}) {
		t.Errorf("controller state not cleared: %+v", st)
	}
	if obs.resets != 1 || len(obs.samples) != 0 {
		t.Errorf("observer history not cleared: resets=%d samples=%d", obs.resets, len(obs.samples))
	}
	if d.Params().Kp != 7.0 {
		t.Errorf("reset must not touch gains, kp = %f", d.Params().Kp)
	}
}

func TestDriver_PlacePlatform(t *testing.T) {
	d := newTestDriver(t, DefaultParams())
	for i := 0; i < 10; i++ {
		d.Step()
	}

	d.PlacePlatform(950)

	if pos := d.Platform().Position(); pos != 950 {
		t.Errorf("position = %f, want 950", pos)
	}
	if v := d.Platform().Velocity(); v != 0 {
		t.Errorf("velocity = %f after placement, want 0", v)
	}
}

func TestDriver_RunValidatesConfig(t *testing.T) {
	d := newTestDriver(t, DefaultParams())

	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1}},
		{"negative dt", Config{Dt: -0.01, Duration: 1}},
		{"zero duration", Config{Dt: 0.01, Duration: 0}},
		{"negative duration", Config{Dt: 0.01, Duration: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.Run(context.Background(), tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDriver_RunHonorsContext(t *testing.T) {
	d := newTestDriver(t, DefaultParams())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := d.Run(ctx, Config{Dt: 1.0 / 60.0, Duration: 10})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(result.Samples) != 0 {
		t.Errorf("expected no samples after immediate cancel, got %d", len(result.Samples))
	}
}

func TestDriver_ConvergenceSmoke(t *testing.T) {
	params := DefaultParams()
	params.Kp = 5.0
	params.Ki = 0.5
	params.Kd = 2.0
	params.Mass = 1.0
	params.Wind = 0
	params.Setpoint = 0
	d := newTestDriver(t, params)
	d.PlacePlatform(300)

	result, err := d.Run(context.Background(), Config{Dt: 1.0 / 60.0, Duration: 20})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	final := result.Samples[len(result.Samples)-1]
	if math.Abs(final.Error) >= 50 {
		t.Errorf("final |error| = %f, want < 50 (started at 300)", math.Abs(final.Error))
	}
}

func TestDriver_DisabledIntegralStaysZeroOverRun(t *testing.T) {
	params := DefaultParams()
	params.Setpoint = 0
	params.Enabled = control.Mask{P: true, I: false, D: true}
	d := newTestDriver(t, params)
	d.PlacePlatform(300)

	if _, err := d.Run(context.Background(), Config{Dt: 1.0 / 60.0, Duration: 10}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if integ := d.Controller().Snapshot().Integral; integ != 0 {
		t.Errorf("integral = %f with I disabled for the whole run", integ)
	}
}

func TestDriver_SaturatedByWind(t *testing.T) {
	params := DefaultParams()
	params.Kp = 5.0
	params.Ki = 0.5
	params.Kd = 2.0
	// Wind beyond what the clamped output can counter.
	params.Wind = 2 * control.OutputLimit
	d := newTestDriver(t, params)

	result, err := d.Run(context.Background(), Config{Dt: 1.0 / 60.0, Duration: 30})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	for i, s := range result.Samples {
		if math.Abs(s.Output) > control.OutputLimit {
			t.Fatalf("sample %d output %f exceeds limit", i, s.Output)
		}
	}

	final := result.Samples[len(result.Samples)-1]
	if math.Abs(final.Error) < 1 {
		t.Errorf("expected steady nonzero error under overpowering wind, got %f", final.Error)
	}
}

func TestDriver_MetricsObserved(t *testing.T) {
	d := newTestDriver(t, DefaultParams())
	m := &countingMetric{}
	d.AddMetric(m)

	result, err := d.Run(context.Background(), Config{Dt: 0.1, Duration: 1.0})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if m.count != 10 {
		t.Errorf("expected 10 observations, got %d", m.count)
	}
	if _, ok := result.Metrics["count"]; !ok {
		t.Error("metric missing from result")
	}
}

type countingMetric struct {
	count int
}

func (c *countingMetric) Name() string { return "count" }
func (c *countingMetric) Observe(s Sample) { c.count++ }
func (c *countingMetric) Value() float64 { return float64(c.count) }
func (c *countingMetric) Reset() { c.count = 0 }
