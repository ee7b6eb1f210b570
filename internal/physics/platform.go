package physics

import (
	"fmt"
	"math"
)

const (
	// DampingCoeff scales the velocity-proportional drag.
	DampingCoeff = 0.1
	// DeadbandThreshold is the net force below which static friction holds.
	DeadbandThreshold = 5.0
	// StopSpeed is the velocity under which a platform inside the deadband
	// halts completely instead of coasting.
	StopSpeed = 0.5
	// BrakeCoeff replaces the normal damping while coasting inside the
	// deadband.
	BrakeCoeff = 0.5

	// DefaultWidth and DefaultHeight are display dimensions only.
	DefaultWidth  = 100.0
	DefaultHeight = 20.0
)

type Platform struct {
	// Y, Width and Height are display-only; the dynamics are 1D in x.
	Y      float64
	Width  float64
	Height float64

	position     float64
	mass         float64
	velocity     float64
	acceleration float64
	wind         float64
}

func NewPlatform(x, y, mass float64) *Platform {
	return &Platform{
		Y:        y,
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		position: x,
		mass:     mass,
	}
}

// ApplyForce converts a horizontal force into this tick's acceleration.
// The acceleration is consumed by the next Update call.
func (p *Platform) ApplyForce(force float64) {
	p.acceleration = force / p.mass
}

// Update advances the platform by one timestep.
//
// The deadband check runs on the net of control and wind force. Inside the
// deadband a slow platform stops dead and a fast one is braked hard; both
// regimes are re-evaluated from scratch every tick.
func (p *Platform) Update(dt float64) {
	controlForce := p.acceleration * p.mass
	windAccel := p.wind / p.mass
	dampingAccel := -DampingCoeff * p.velocity

	totalForce := controlForce + p.wind

	if math.Abs(totalForce) < DeadbandThreshold {
		if math.Abs(p.velocity) < StopSpeed {
			p.velocity = 0
			p.acceleration = 0
			return
		}
		dampingAccel = -BrakeCoeff * p.velocity
	}

	totalAccel := p.acceleration + windAccel + dampingAccel
	p.velocity += totalAccel * dt
	p.position += p.velocity * dt

	p.acceleration = 0
}

// SetPosition teleports the platform, discarding any motion.
func (p *Platform) SetPosition(x float64) {
	p.position = x
	p.velocity = 0
	p.acceleration = 0
}

func (p *Platform) Position() float64 { return p.position }
func (p *Platform) Velocity() float64 { return p.velocity }
func (p *Platform) Mass() float64     { return p.mass }
func (p *Platform) Wind() float64     { return p.wind }

// SetMass rejects non-positive masses; a zero mass would divide the next
// ApplyForce and a negative one inverts the dynamics.
func (p *Platform) SetMass(mass float64) error {
	if mass <= 0 {
		return fmt.Errorf("mass must be positive, got %f", mass)
	}
	p.mass = mass
	return nil
}

// SetWind sets the constant external disturbance force. Sign sets direction.
func (p *Platform) SetWind(force float64) {
	p.wind = force
}
