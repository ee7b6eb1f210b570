// Package automation runs scripted batches of simulations, mainly
// parameter sweeps for tuning the controller against the platform.
package automation

import (
	"context"
	"fmt"

	"github.com/krinkin/pid-simulation/internal/analysis"
	"github.com/krinkin/pid-simulation/internal/metrics"
	"github.com/krinkin/pid-simulation/internal/sim"
)

// Sweep describes a run series over one parameter range. Base supplies
// every parameter not being swept.
type Sweep struct {
	Param      string // kp, ki, kd, mass or wind
	Min        float64
	Max        float64
	Steps      int
	Base       sim.Params
	Start      float64 // initial platform position
	Run        sim.Config
	SettleBand float64
}

// SweepPoint is the outcome of one run in the series.
type SweepPoint struct {
	Value         float64
	FinalError    float64
	ControlEffort float64
	Overshoot     float64
	SettlingTime  float64 // -1 when the run never settled
}

func (s *Sweep) apply(params *sim.Params, v float64) error {
	switch s.Param {
	case "kp":
		params.Kp = v
	case "ki":
		params.Ki = v
	case "kd":
		params.Kd = v
	case "mass":
		params.Mass = v
	case "wind":
		params.Wind = v
	default:
		return fmt.Errorf("%w: unknown sweep parameter %q", sim.ErrInvalidParameter, s.Param)
	}
	return nil
}

// Execute runs the series sequentially, one fresh driver per value.
func (s *Sweep) Execute(ctx context.Context) ([]SweepPoint, error) {
	if s.Steps < 2 {
		return nil, fmt.Errorf("%w: sweep needs at least 2 steps, got %d", sim.ErrInvalidParameter, s.Steps)
	}

	step := (s.Max - s.Min) / float64(s.Steps-1)
	points := make([]SweepPoint, 0, s.Steps)

	for i := 0; i < s.Steps; i++ {
		value := s.Min + float64(i)*step

		params := s.Base
		if err := s.apply(&params, value); err != nil {
			return nil, err
		}

		driver, err := sim.NewDriver(params)
		if err != nil {
			return nil, fmt.Errorf("sweep %s=%g: %w", s.Param, value, err)
		}
		driver.PlacePlatform(s.Start)

		effort := metrics.NewControlEffort()
		driver.AddMetric(effort)

		result, err := driver.Run(ctx, s.Run)
		if err != nil {
			return nil, fmt.Errorf("sweep %s=%g: %w", s.Param, value, err)
		}

		point := SweepPoint{
			Value:         value,
			ControlEffort: effort.Value(),
			Overshoot:     analysis.Overshoot(result.Samples),
			SettlingTime:  analysis.SettlingTime(result.Samples, s.SettleBand),
		}
		if n := len(result.Samples); n > 0 {
			point.FinalError = result.Samples[n-1].Error
		}

		points = append(points, point)
	}

	return points, nil
}
