// Package sim couples the PID controller to the platform dynamics in a
// fixed-timestep loop and fans telemetry out to observers.
package sim

import (
	"context"
	"fmt"

	"github.com/krinkin/pid-simulation/internal/control"
	"github.com/krinkin/pid-simulation/internal/physics"
)

const (
	// BaseDt is the unscaled timestep; the speed multiplier stretches it.
	BaseDt = 1.0 / 60.0

	// WorldWidth spans the platform's track; the setpoint and starting
	// position default to its center.
	WorldWidth  = 1200.0
	WorldCenter = WorldWidth / 2
	platformY   = 400.0
)

// DefaultParams mirrors the initial control-panel values.
func DefaultParams() Params {
	return Params{
		Kp:       3.345,
		Ki:       0.014,
		Kd:       3.486,
		Enabled:  control.AllEnabled(),
		Mass:     1.0,
		Wind:     0.0,
		Speed:    2.2,
		Setpoint: WorldCenter,
	}
}

// Driver owns one controller and one platform and advances them in
// lockstep. It is single-threaded: Apply, Step, and Reset must all be
// called from the same goroutine, between ticks.
type Driver struct {
	pid      *control.PID
	platform *physics.Platform
	params   Params

	elapsed   float64
	observers []Observer
	metrics   []Metric
}

func NewDriver(params Params) (*Driver, error) {
	if params.Mass <= 0 {
		return nil, fmt.Errorf("%w: mass %f must be positive", ErrInvalidParameter, params.Mass)
	}
	if params.Speed <= 0 {
		return nil, fmt.Errorf("%w: speed %f must be positive", ErrInvalidParameter, params.Speed)
	}

	platform := physics.NewPlatform(WorldCenter, platformY, params.Mass)
	platform.SetWind(params.Wind)

	return &Driver{
		pid:      control.NewPID(params.Kp, params.Ki, params.Kd),
		platform: platform,
		params:   params,
	}, nil
}

func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }
func (d *Driver) AddMetric(m Metric)     { d.metrics = append(d.metrics, m) }

// Params returns the current parameter set.
func (d *Driver) Params() Params { return d.params }

// Elapsed returns accumulated simulation time.
func (d *Driver) Elapsed() float64 { return d.elapsed }

// Platform exposes the platform for rendering. Callers must not mutate it.
func (d *Driver) Platform() *physics.Platform { return d.platform }

// Controller exposes the PID controller for term visualization.
func (d *Driver) Controller() *control.PID { return d.pid }

// Apply runs each change in order, stopping at the first invalid one.
// Changes take effect before the next Step.
func (d *Driver) Apply(changes ...Change) error {
	for _, c := range changes {
		if err := c.apply(d); err != nil {
			return err
		}
	}
	return nil
}

// Step advances the simulation by one tick: error, control force, platform
// integration, time accrual, telemetry.
func (d *Driver) Step() Sample {
	return d.step(BaseDt * d.params.Speed)
}

func (d *Driver) step(dt float64) Sample {
	out := d.pid.Update(d.params.Setpoint, d.platform.Position(), dt, d.params.Enabled)

	d.platform.ApplyForce(out.Total)
	d.platform.Update(dt)
	d.elapsed += dt

	sample := Sample{
		Time:     d.elapsed,
		Error:    out.Error,
		Output:   out.Total,
		P:        out.P,
		I:        out.I,
		D:        out.D,
		Position: d.platform.Position(),
		Velocity: d.platform.Velocity(),
	}

	for _, m := range d.metrics {
		m.Observe(sample)
	}
	for _, o := range d.observers {
		o.OnSample(sample)
	}

	return sample
}

// PlacePlatform teleports the platform to x, e.g. from a pointer click.
func (d *Driver) PlacePlatform(x float64) {
	d.platform.SetPosition(x)
}

// Reset re-centers the platform, clears the controller state, zeroes the
// simulation clock, and resets every observer and metric that keeps
// history. Parameters are left as the user set them.
func (d *Driver) Reset() {
	d.platform.SetPosition(WorldCenter)
	d.pid.Reset()
	d.elapsed = 0

	for _, m := range d.metrics {
		m.Reset()
	}
	for _, o := range d.observers {
		if r, ok := o.(Resetter); ok {
			r.Reset()
		}
	}
}

// Run executes a fixed-step batch simulation. The speed multiplier is not
// applied: cfg.Dt is used as-is, so results are reproducible regardless of
// the interactive speed setting.
func (d *Driver) Run(ctx context.Context, cfg Config) (*Result, error) {
	if cfg.Dt <= 0 {
		return nil, fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}

	steps := int(cfg.Duration / cfg.Dt)
	result := &Result{
		Samples: make([]Sample, 0, steps),
		Metrics: make(map[string]float64),
	}

	for _, m := range d.metrics {
		m.Reset()
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		result.Samples = append(result.Samples, d.step(cfg.Dt))
	}

	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}
