package physics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dt = 1.0 / 60.0

func TestPlatform_DeadbandAtRest(t *testing.T) {
	cases := []struct {
		name  string
		force float64
	}{
		{"small positive", 4.9},
		{"small negative", -4.9},
		{"zero", 0},
		{"tiny", 0.01},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPlatform(600, 400, 1.0)
			p.ApplyForce(tc.force)
			p.Update(dt)

			assert.Equal(t, 0.0, p.Velocity())
			assert.Equal(t, 600.0, p.Position(), "platform must not move inside the deadband")
		})
	}
}

func TestPlatform_ForceAboveDeadbandMoves(t *testing.T) {
	p := NewPlatform(0, 0, 1.0)

	prevPos, prevVel := p.Position(), p.Velocity()
	for i := 0; i < 120; i++ {
		p.ApplyForce(20)
		p.Update(dt)

		require.Greater(t, p.Velocity(), prevVel, "velocity must rise while force is applied (tick %d)", i)
		require.Greater(t, p.Position(), prevPos, "position must advance while force is applied (tick %d)", i)
		prevPos, prevVel = p.Position(), p.Velocity()
	}

	// Terminal velocity under damping is force/damping.
	assert.Less(t, p.Velocity(), 20.0/DampingCoeff)
}

func TestPlatform_AccelerationConsumedPerTick(t *testing.T) {
	p := NewPlatform(0, 0, 1.0)
	p.ApplyForce(20)
	p.Update(dt)
	v1 := p.Velocity()

	// No new force: the platform only coasts against damping.
	p.Update(dt)
	assert.Less(t, p.Velocity(), v1)
}

func TestPlatform_DeadbandBrakesCoastingPlatform(t *testing.T) {
	p := NewPlatform(0, 0, 1.0)
	for i := 0; i < 60; i++ {
		p.ApplyForce(50)
		p.Update(dt)
	}
	require.Greater(t, p.Velocity(), StopSpeed)

	// Force removed: net force is inside the deadband, heavy braking applies.
	vBefore := p.Velocity()
	p.Update(dt)
	vAfter := p.Velocity()

	normalDecay := vBefore * DampingCoeff * dt
	assert.Greater(t, vBefore-vAfter, normalDecay, "deadband braking must exceed normal damping")

	// Eventually the platform drops under StopSpeed and halts exactly.
	for i := 0; i < 1000 && p.Velocity() != 0; i++ {
		p.Update(dt)
	}
	assert.Equal(t, 0.0, p.Velocity())
}

func TestPlatform_WindAloneMovesPlatform(t *testing.T) {
	p := NewPlatform(0, 0, 1.0)
	p.SetWind(10)

	for i := 0; i < 60; i++ {
		p.Update(dt)
	}

	assert.Greater(t, p.Position(), 0.0)
	assert.Greater(t, p.Velocity(), 0.0)
}

func TestPlatform_WindInsideDeadbandHoldsStill(t *testing.T) {
	p := NewPlatform(100, 0, 1.0)
	p.SetWind(3)

	for i := 0; i < 120; i++ {
		p.Update(dt)
	}

	assert.Equal(t, 100.0, p.Position())
	assert.Equal(t, 0.0, p.Velocity())
}

func TestPlatform_SetPosition(t *testing.T) {
	p := NewPlatform(0, 0, 2.0)
	for i := 0; i < 30; i++ {
		p.ApplyForce(40)
		p.Update(dt)
	}
	require.NotZero(t, p.Velocity())

	p.SetPosition(250)

	assert.Equal(t, 250.0, p.Position())
	assert.Equal(t, 0.0, p.Velocity())

	// A fresh small force after the teleport still obeys the deadband.
	p.ApplyForce(2)
	p.Update(dt)
	assert.Equal(t, 250.0, p.Position())
}

func TestPlatform_SetMass(t *testing.T) {
	p := NewPlatform(0, 0, 1.0)

	require.NoError(t, p.SetMass(4.0))
	assert.Equal(t, 4.0, p.Mass())

	assert.Error(t, p.SetMass(0))
	assert.Error(t, p.SetMass(-1.5))
	assert.Equal(t, 4.0, p.Mass(), "rejected mass must not be applied")
}

func TestPlatform_HeavierMassAcceleratesSlower(t *testing.T) {
	light := NewPlatform(0, 0, 1.0)
	heavy := NewPlatform(0, 0, 5.0)

	for i := 0; i < 60; i++ {
		light.ApplyForce(30)
		light.Update(dt)
		heavy.ApplyForce(30)
		heavy.Update(dt)
	}

	assert.Greater(t, light.Velocity(), heavy.Velocity())
}
