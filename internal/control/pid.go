package control

const (
	// IntegralLimit bounds the accumulated integral (anti-windup).
	IntegralLimit = 1000.0
	// OutputLimit bounds the total control force.
	OutputLimit = 100.0
)

// Mask selects which PID terms contribute to the output.
type Mask struct {
	P bool
	I bool
	D bool
}

// AllEnabled returns a mask with every term active.
func AllEnabled() Mask {
	return Mask{P: true, I: true, D: true}
}

// State is a snapshot of the controller internals after an Update.
type State struct {
	Error      float64
	Integral   float64
	Derivative float64
	LastError  float64
	Output     float64
}

// Output is the result of a single Update call.
type Output struct {
	Total float64
	P     float64
	I     float64
	D     float64
	Error float64
}

type PID struct {
	Kp float64
	Ki float64
	Kd float64

	state State
}

func NewPID(kp, ki, kd float64) *PID {
	return &PID{Kp: kp, Ki: ki, Kd: kd}
}

// Update advances the controller by one timestep and returns the clamped
// control output along with the individual term contributions.
//
// Disabled terms contribute zero. A disabled integral term is frozen, not
// decayed: accumulation and clamping are skipped entirely so the prior
// value survives until the term is re-enabled. The previous error is
// recorded unconditionally so a re-enabled derivative term does not see a
// stale reference.
func (p *PID) Update(setpoint, measured, dt float64, enabled Mask) Output {
	p.state.Error = setpoint - measured

	var pTerm float64
	if enabled.P {
		pTerm = p.Kp * p.state.Error
	}

	var iTerm float64
	if enabled.I {
		p.state.Integral += p.state.Error * dt
		p.state.Integral = clamp(p.state.Integral, -IntegralLimit, IntegralLimit)
		iTerm = p.Ki * p.state.Integral
	}

	var dTerm float64
	if enabled.D && dt > 0 {
		p.state.Derivative = (p.state.Error - p.state.LastError) / dt
		dTerm = p.Kd * p.state.Derivative
	} else {
		p.state.Derivative = 0
	}

	p.state.Output = clamp(pTerm+iTerm+dTerm, -OutputLimit, OutputLimit)
	p.state.LastError = p.state.Error

	return Output{
		Total: p.state.Output,
		P:     pTerm,
		I:     iTerm,
		D:     dTerm,
		Error: p.state.Error,
	}
}

// Reset zeroes the controller state. Gains are untouched.
func (p *PID) Reset() {
	p.state = State{}
}

// SetGains replaces all three gains, effective on the next Update.
func (p *PID) SetGains(kp, ki, kd float64) {
	p.Kp = kp
	p.Ki = ki
	p.Kd = kd
}

// Components recomputes the term values from the current gains and state.
// It reflects gain changes made since the last Update and ignores any
// enabled mask; callers that want masked components zero them out.
func (p *PID) Components() (pTerm, iTerm, dTerm float64) {
	return p.Kp * p.state.Error, p.Ki * p.state.Integral, p.Kd * p.state.Derivative
}

// Snapshot returns a copy of the internal state.
func (p *PID) Snapshot() State {
	return p.state
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
