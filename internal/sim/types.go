package sim

import (
	"errors"
	"fmt"

	"github.com/krinkin/pid-simulation/internal/control"
)

// ErrInvalidParameter is returned when a parameter change would put the
// simulation into an undefined state.
var ErrInvalidParameter = errors.New("invalid parameter")

// Term names one of the three PID terms in parameter changes.
type Term int

const (
	TermP Term = iota
	TermI
	TermD
)

func (t Term) String() string {
	switch t {
	case TermP:
		return "kp"
	case TermI:
		return "ki"
	case TermD:
		return "kd"
	}
	return fmt.Sprintf("term(%d)", int(t))
}

// Params is the full set of user-tunable simulation parameters. The driver
// holds the authoritative copy; the UI edits it only through Changes.
type Params struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Enabled  control.Mask
	Mass     float64
	Wind     float64
	Speed    float64
	Setpoint float64
}

// Change is one discrete parameter edit. The set of variants is closed:
// each validates itself against the driver before anything is mutated.
type Change interface {
	apply(d *Driver) error
}

type GainChange struct {
	Term  Term
	Value float64
}

func (c GainChange) apply(d *Driver) error {
	switch c.Term {
	case TermP:
		d.params.Kp = c.Value
	case TermI:
		d.params.Ki = c.Value
	case TermD:
		d.params.Kd = c.Value
	default:
		return fmt.Errorf("%w: unknown gain term %d", ErrInvalidParameter, int(c.Term))
	}
	d.pid.SetGains(d.params.Kp, d.params.Ki, d.params.Kd)
	return nil
}

type EnabledChange struct {
	Term Term
	On   bool
}

func (c EnabledChange) apply(d *Driver) error {
	switch c.Term {
	case TermP:
		d.params.Enabled.P = c.On
	case TermI:
		d.params.Enabled.I = c.On
	case TermD:
		d.params.Enabled.D = c.On
	default:
		return fmt.Errorf("%w: unknown enable term %d", ErrInvalidParameter, int(c.Term))
	}
	return nil
}

type MassChange struct {
	Value float64
}

func (c MassChange) apply(d *Driver) error {
	if c.Value <= 0 {
		return fmt.Errorf("%w: mass %f must be positive", ErrInvalidParameter, c.Value)
	}
	d.params.Mass = c.Value
	return d.platform.SetMass(c.Value)
}

type WindChange struct {
	Value float64
}

func (c WindChange) apply(d *Driver) error {
	d.params.Wind = c.Value
	d.platform.SetWind(c.Value)
	return nil
}

type SpeedChange struct {
	Value float64
}

func (c SpeedChange) apply(d *Driver) error {
	if c.Value <= 0 {
		return fmt.Errorf("%w: speed %f must be positive", ErrInvalidParameter, c.Value)
	}
	d.params.Speed = c.Value
	return nil
}

type SetpointChange struct {
	Value float64
}

func (c SetpointChange) apply(d *Driver) error {
	d.params.Setpoint = c.Value
	return nil
}

// Sample is one telemetry record, emitted once per tick in time order.
type Sample struct {
	Time     float64
	Error    float64
	Output   float64
	P        float64
	I        float64
	D        float64
	Position float64
	Velocity float64
}

// Observer receives each telemetry sample as it is produced. Observers
// must not retain and mutate the sample.
type Observer interface {
	OnSample(s Sample)
}

// Resetter is implemented by observers whose accumulated history should be
// cleared on a simulation reset.
type Resetter interface {
	Reset()
}

// Metric accumulates a scalar over a run.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Config drives a batch (headless) run.
type Config struct {
	Dt       float64
	Duration float64
}

// Result collects the output of a batch run.
type Result struct {
	Samples []Sample
	Metrics map[string]float64
}
