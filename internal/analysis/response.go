package analysis

import (
	"math"

	"github.com/krinkin/pid-simulation/internal/sim"
)

// Overshoot returns how far the platform swung past the setpoint,
// as a fraction of the initial error. 0 means it never crossed.
func Overshoot(samples []sim.Sample) float64 {
	if len(samples) == 0 {
		return 0
	}

	initial := samples[0].Error
	if initial == 0 {
		return 0
	}

	worst := 0.0
	for _, s := range samples {
		// Error with the opposite sign of the initial error means the
		// platform is on the far side of the setpoint.
		if s.Error*initial < 0 {
			over := math.Abs(s.Error) / math.Abs(initial)
			if over > worst {
				worst = over
			}
		}
	}
	return worst
}

// SettlingTime returns the time after which the error stays within the
// band for the rest of the run, or -1 if it never settles.
func SettlingTime(samples []sim.Sample, band float64) float64 {
	settledAt := -1.0
	for _, s := range samples {
		if math.Abs(s.Error) <= band {
			if settledAt < 0 {
				settledAt = s.Time
			}
		} else {
			settledAt = -1
		}
	}
	return settledAt
}
