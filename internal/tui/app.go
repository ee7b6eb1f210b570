// Package tui is the interactive terminal frontend: live platform view,
// tunable control panel, and scrolling telemetry graphs.
package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/krinkin/pid-simulation/internal/sim"
	"github.com/krinkin/pid-simulation/internal/telemetry"
)

const (
	frameInterval = 16 * time.Millisecond

	minZoom = 0.25
	maxZoom = 16.0
)

// param describes one adjustable entry in the control panel. Changes flow
// through the driver's validation; the panel itself only clamps to the
// slider range.
type param struct {
	name string
	min  float64
	max  float64
	step float64
	get  func(sim.Params) float64
	set  func(float64) sim.Change
}

var panelParams = []param{
	{"kp", 0, 10, 0.1,
		func(p sim.Params) float64 { return p.Kp },
		func(v float64) sim.Change { return sim.GainChange{Term: sim.TermP, Value: v} }},
	{"ki", 0, 3, 0.01,
		func(p sim.Params) float64 { return p.Ki },
		func(v float64) sim.Change { return sim.GainChange{Term: sim.TermI, Value: v} }},
	{"kd", 0, 5, 0.05,
		func(p sim.Params) float64 { return p.Kd },
		func(v float64) sim.Change { return sim.GainChange{Term: sim.TermD, Value: v} }},
	{"mass", 0.1, 10, 0.1,
		func(p sim.Params) float64 { return p.Mass },
		func(v float64) sim.Change { return sim.MassChange{Value: v} }},
	{"wind", -50, 50, 1,
		func(p sim.Params) float64 { return p.Wind },
		func(v float64) sim.Change { return sim.WindChange{Value: v} }},
	{"speed", 0.5, 5, 0.1,
		func(p sim.Params) float64 { return p.Speed },
		func(v float64) sim.Change { return sim.SpeedChange{Value: v} }},
	{"target", 0, sim.WorldWidth, 10,
		func(p sim.Params) float64 { return p.Setpoint },
		func(v float64) sim.Change { return sim.SetpointChange{Value: v} }},
}

type model struct {
	driver  *sim.Driver
	history *telemetry.History

	paused  bool
	cursor  int
	editing bool
	editBuf string
	status  string

	// Graph scaling: zoom shrinks or stretches the fixed ranges;
	// autoScale fits the panes to the windowed data instead.
	zoom      float64
	autoScale bool

	width  int
	height int
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Run starts the interactive simulator with the given starting parameters.
func Run(params sim.Params, maxPoints int, timeWindow float64) error {
	driver, err := sim.NewDriver(params)
	if err != nil {
		return err
	}

	history := telemetry.NewHistory(maxPoints, timeWindow)
	driver.AddObserver(history)

	m := model{
		driver:  driver,
		history: history,
		zoom:    1.0,
		width:   100,
		height:  40,
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

func (m model) Init() tea.Cmd { return tick() }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if !m.paused {
			m.driver.Step()
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleEditKey(msg), nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.paused = !m.paused
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(panelParams)-1 {
			m.cursor++
		}
	case "left", "h":
		m = m.adjust(-1)
	case "right", "l":
		m = m.adjust(+1)
	case "enter":
		m.editing = true
		m.editBuf = fmt.Sprintf("%.3f", panelParams[m.cursor].get(m.driver.Params()))
	case "1":
		m = m.toggle(sim.TermP)
	case "2":
		m = m.toggle(sim.TermI)
	case "3":
		m = m.toggle(sim.TermD)
	case "g":
		m.history.Reset()
		m.status = "graphs cleared"
	case "r":
		m.driver.Reset()
		m.status = "simulation reset"
	case "+", "=":
		if m.zoom < maxZoom {
			m.zoom *= 2
		}
		m.autoScale = false
	case "-", "_":
		if m.zoom > minZoom {
			m.zoom /= 2
		}
		m.autoScale = false
	case "a":
		m.autoScale = !m.autoScale
	}
	return m, nil
}

func (m model) handleEditKey(msg tea.KeyMsg) model {
	switch msg.String() {
	case "enter":
		var v float64
		if _, err := fmt.Sscanf(m.editBuf, "%f", &v); err != nil {
			m.status = "not a number: " + m.editBuf
		} else {
			m = m.setParam(panelParams[m.cursor], v)
		}
		m.editing = false
		m.editBuf = ""
	case "esc":
		m.editing = false
		m.editBuf = ""
	case "backspace":
		if len(m.editBuf) > 0 {
			m.editBuf = m.editBuf[:len(m.editBuf)-1]
		}
	default:
		s := msg.String()
		if len(s) == 1 {
			c := s[0]
			if (c >= '0' && c <= '9') || c == '.' || c == '-' {
				m.editBuf += s
			}
		}
	}
	return m
}

func (m model) handleMouse(msg tea.MouseMsg) model {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m
	}
	top, left, width := m.canvasGeom()
	if msg.Y < top || msg.Y >= top+canvasHeight {
		return m
	}
	col := msg.X - left
	if col < 0 || col >= width {
		return m
	}

	x := float64(col) / float64(width-1) * sim.WorldWidth
	m.driver.PlacePlatform(x)
	m.status = fmt.Sprintf("platform placed at %.0f", x)
	return m
}

func (m model) adjust(dir float64) model {
	p := panelParams[m.cursor]
	return m.setParam(p, p.get(m.driver.Params())+dir*p.step)
}

func (m model) setParam(p param, v float64) model {
	if v < p.min {
		v = p.min
	}
	if v > p.max {
		v = p.max
	}
	if err := m.driver.Apply(p.set(v)); err != nil {
		m.status = err.Error()
		return m
	}
	m.status = fmt.Sprintf("%s = %.3f", p.name, v)
	return m
}

func (m model) toggle(term sim.Term) model {
	enabled := m.driver.Params().Enabled
	var on bool
	switch term {
	case sim.TermP:
		on = !enabled.P
	case sim.TermI:
		on = !enabled.I
	case sim.TermD:
		on = !enabled.D
	}
	if err := m.driver.Apply(sim.EnabledChange{Term: term, On: on}); err != nil {
		m.status = err.Error()
		return m
	}
	m.status = fmt.Sprintf("%s %s", term, onOff(on))
	return m
}

func onOff(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
