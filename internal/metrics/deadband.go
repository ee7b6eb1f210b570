package metrics

import (
	"math"

	"github.com/krinkin/pid-simulation/internal/sim"
)

// DeadbandOccupancy reports the fraction of ticks the platform sat stalled
// away from the setpoint: zero velocity while the error persists. A high
// value means the controller is trapped in the static-friction dead zone.
type DeadbandOccupancy struct {
	errorThreshold float64
	stalled        int
	samples        int
}

func NewDeadbandOccupancy(errorThreshold float64) *DeadbandOccupancy {
	return &DeadbandOccupancy{errorThreshold: errorThreshold}
}

func (d *DeadbandOccupancy) Name() string {
	return "deadband_occupancy"
}

func (d *DeadbandOccupancy) Observe(s sim.Sample) {
	d.samples++
	if s.Velocity == 0 && math.Abs(s.Error) > d.errorThreshold {
		d.stalled++
	}
}

func (d *DeadbandOccupancy) Value() float64 {
	if d.samples == 0 {
		return 0
	}
	return float64(d.stalled) / float64(d.samples)
}

func (d *DeadbandOccupancy) Reset() {
	d.stalled = 0
	d.samples = 0
}
