package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/krinkin/pid-simulation/internal/sim"
	"github.com/krinkin/pid-simulation/internal/telemetry"
)

const (
	canvasHeight = 7
	canvasTop    = 2 // title line + status line above the canvas
	canvasLeft   = 3
	graphHeight  = 6
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func (m model) canvasGeom() (top, left, width int) {
	width = m.width - 2*canvasLeft
	if width < 40 {
		width = 40
	}
	return canvasTop, canvasLeft, width
}

func (m model) View() string {
	var b strings.Builder

	state := green.Render("● running")
	if m.paused {
		state = yellow.Render("○ paused")
	}
	b.WriteString(fmt.Sprintf(" %s  %s  %s\n",
		cyan.Render("pidsim"), state,
		dim.Render(fmt.Sprintf("t=%.1fs", m.driver.Elapsed()))))
	b.WriteString(" " + m.statusLine() + "\n")

	m.renderCanvas(&b)
	m.renderReadout(&b)
	m.renderPanel(&b)
	m.renderGraphs(&b)

	b.WriteString("\n" + dim.Render(" ↑↓ select  ←→ adjust  enter edit  1/2/3 toggle P/I/D  click place"))
	b.WriteString("\n" + dim.Render(" space pause  r reset  g clear graphs  ± zoom  a auto-scale  q quit") + "\n")

	return b.String()
}

func (m model) statusLine() string {
	if m.status == "" {
		return dimmer.Render("─")
	}
	return dim.Render(m.status)
}

// renderCanvas draws the track: setpoint marker, center line, platform.
func (m model) renderCanvas(b *strings.Builder) {
	_, _, width := m.canvasGeom()
	pad := strings.Repeat(" ", canvasLeft)

	toCol := func(x float64) int {
		col := int(x / sim.WorldWidth * float64(width-1))
		if col < 0 {
			col = 0
		}
		if col >= width {
			col = width - 1
		}
		return col
	}

	platform := m.driver.Platform()
	platCol := toCol(platform.Position())
	targetCol := toCol(m.driver.Params().Setpoint)
	halfSpan := toCol(platform.Width/2) - toCol(0)

	for row := 0; row < canvasHeight; row++ {
		line := make([]rune, width)
		for i := range line {
			line[i] = ' '
		}

		switch {
		case row == canvasHeight/2:
			// Platform row.
			for c := platCol - halfSpan; c <= platCol+halfSpan; c++ {
				if c >= 0 && c < width {
					line[c] = '█'
				}
			}
			if line[targetCol] == ' ' {
				line[targetCol] = '┊'
			}
		case row == canvasHeight-1:
			for i := range line {
				line[i] = '─'
			}
			line[targetCol] = '┴'
		default:
			line[targetCol] = '┊'
		}

		b.WriteString(pad + dimString(string(line), row) + "\n")
	}
}

// dimString fades the track floor, leaving the platform row bright.
func dimString(s string, row int) string {
	if row == canvasHeight/2 {
		return white.Render(s)
	}
	return dimmer.Render(s)
}

func (m model) renderReadout(b *strings.Builder) {
	platform := m.driver.Platform()
	st := m.driver.Controller().Snapshot()
	pTerm, iTerm, dTerm := m.driver.Controller().Components()

	// Readout mirrors the enable mask the way the graphs do: disabled
	// terms show as zero even though the frozen state is retained.
	enabled := m.driver.Params().Enabled
	if !enabled.P {
		pTerm = 0
	}
	if !enabled.I {
		iTerm = 0
	}
	if !enabled.D {
		dTerm = 0
	}

	b.WriteString(fmt.Sprintf(" %s%s  %s%s  %s%s\n",
		dim.Render("pos="), white.Render(fmt.Sprintf("%8.2f", platform.Position())),
		dim.Render("vel="), white.Render(fmt.Sprintf("%7.2f", platform.Velocity())),
		dim.Render("err="), white.Render(fmt.Sprintf("%8.2f", st.Error))))
	b.WriteString(fmt.Sprintf(" %s%s  %s%s  %s%s  %s%s\n",
		dim.Render("out="), magenta.Render(fmt.Sprintf("%7.2f", st.Output)),
		green.Render("P="), white.Render(fmt.Sprintf("%7.2f", pTerm)),
		red.Render("I="), white.Render(fmt.Sprintf("%7.2f", iTerm)),
		cyan.Render("D="), white.Render(fmt.Sprintf("%7.2f", dTerm))))
}

func (m model) renderPanel(b *strings.Builder) {
	b.WriteString("\n")
	params := m.driver.Params()

	for i, p := range panelParams {
		val := fmt.Sprintf("%8.3f", p.get(params))
		if m.editing && i == m.cursor {
			val = fmt.Sprintf("%8s", m.editBuf+"▋")
		}

		label := fmt.Sprintf("%-7s", p.name)
		suffix := ""
		switch p.name {
		case "kp":
			suffix = m.toggleBadge(params.Enabled.P)
		case "ki":
			suffix = m.toggleBadge(params.Enabled.I)
		case "kd":
			suffix = m.toggleBadge(params.Enabled.D)
		}

		if i == m.cursor {
			b.WriteString("  " + cyan.Render("▸ ") + white.Render(label) + magenta.Render(val) + suffix + "\n")
		} else {
			b.WriteString("    " + dim.Render(label) + dim.Render(val) + suffix + "\n")
		}
	}
}

func (m model) toggleBadge(on bool) string {
	if on {
		return "  " + green.Render("[x]")
	}
	return "  " + dimmer.Render("[ ]")
}

func (m model) renderGraphs(b *strings.Builder) {
	if m.history.Len() < 2 {
		b.WriteString("\n" + dimmer.Render("  collecting samples...") + "\n")
		return
	}

	_, _, width := m.canvasGeom()
	graphWidth := width - 10
	if graphWidth < 30 {
		graphWidth = 30
	}

	b.WriteString("\n" + m.plotPane("error", m.history.Values(telemetry.ErrorSeries),
		errorScale, graphWidth) + "\n")
	b.WriteString("\n" + m.plotPane("output", m.history.Values(telemetry.OutputSeries),
		outputScale, graphWidth) + "\n")
}

const (
	errorScale  = 600.0
	outputScale = 600.0
)

func (m model) plotPane(label string, data []float64, fixedRange float64, width int) string {
	opts := []asciigraph.Option{
		asciigraph.Height(graphHeight),
		asciigraph.Width(width),
	}
	if !m.autoScale {
		bound := fixedRange / m.zoom
		opts = append(opts, asciigraph.LowerBound(-bound), asciigraph.UpperBound(bound))
	}

	scale := "auto"
	if !m.autoScale {
		scale = fmt.Sprintf("±%.0f", fixedRange/m.zoom)
	}
	header := fmt.Sprintf("  %s %s", cyan.Render(label), dim.Render("("+scale+")"))

	return header + "\n" + asciigraph.Plot(data, opts...)
}
