package metrics

import (
	"math"

	"github.com/krinkin/pid-simulation/internal/sim"
)

// Settling reports the fraction of ticks spent with |error| below the
// threshold. 1.0 means the platform held the setpoint for the whole run.
type Settling struct {
	threshold float64
	settled   int
	samples   int
}

func NewSettling(threshold float64) *Settling {
	return &Settling{threshold: threshold}
}

func (s *Settling) Name() string {
	return "settling"
}

func (s *Settling) Observe(sample sim.Sample) {
	s.samples++
	if math.Abs(sample.Error) < s.threshold {
		s.settled++
	}
}

func (s *Settling) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.settled) / float64(s.samples)
}

func (s *Settling) Reset() {
	s.settled = 0
	s.samples = 0
}
