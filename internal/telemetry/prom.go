package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krinkin/pid-simulation/internal/sim"
)

// Collector publishes the live simulation state as Prometheus gauges. It
// implements sim.Observer so it can sit next to the plotting history on
// the same driver.
type Collector struct {
	reg *prometheus.Registry

	err        prometheus.Gauge
	output     prometheus.Gauge
	pTerm      prometheus.Gauge
	iTerm      prometheus.Gauge
	dTerm      prometheus.Gauge
	position   prometheus.Gauge
	velocity   prometheus.Gauge
	simSeconds prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		err: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidsim_error",
			Help: "Distance between setpoint and platform position",
		}),
		output: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidsim_control_output",
			Help: "Total clamped control force",
		}),
		pTerm: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidsim_term_proportional",
			Help: "Proportional term contribution",
		}),
		iTerm: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidsim_term_integral",
			Help: "Integral term contribution",
		}),
		dTerm: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidsim_term_derivative",
			Help: "Derivative term contribution",
		}),
		position: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidsim_platform_position",
			Help: "Platform x position",
		}),
		velocity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidsim_platform_velocity",
			Help: "Platform velocity",
		}),
		simSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pidsim_elapsed_seconds",
			Help: "Accumulated simulation time",
		}),
	}

	c.reg.MustRegister(c.err, c.output, c.pTerm, c.iTerm, c.dTerm,
		c.position, c.velocity, c.simSeconds)

	return c
}

func (c *Collector) OnSample(s sim.Sample) {
	c.err.Set(s.Error)
	c.output.Set(s.Output)
	c.pTerm.Set(s.P)
	c.iTerm.Set(s.I)
	c.dTerm.Set(s.D)
	c.position.Set(s.Position)
	c.velocity.Set(s.Velocity)
	c.simSeconds.Set(s.Time)
}

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Gather exposes the registry for tests.
func (c *Collector) Gather() prometheus.Gatherer {
	return c.reg
}
