// Package export renders recorded telemetry to PNG charts: an error pane
// over a control-output pane with the P/I/D component breakdown.
package export

import (
	"bufio"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/krinkin/pid-simulation/internal/sim"
)

// Fixed axis ranges matching the live graph panes.
const (
	ErrorRange  = 600.0
	OutputRange = 600.0
)

// Options controls chart rendering.
type Options struct {
	// AutoScale fits the y axes to the data instead of the fixed ranges.
	AutoScale bool
}

// WriteChart renders the sample series to a two-pane PNG at path.
func WriteChart(path string, samples []sim.Sample, opts Options) error {
	if len(samples) < 2 {
		return fmt.Errorf("need at least 2 samples to chart, got %d", len(samples))
	}

	errPane, err := errorPane(samples, opts)
	if err != nil {
		return err
	}
	outPane, err := outputPane(samples, opts)
	if err != nil {
		return err
	}

	const w, h = 8 * vg.Inch, 8 * vg.Inch
	canvas := vgimg.New(w, h)
	dc := draw.New(canvas)

	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: vg.Millimeter * 2}
	errPane.Draw(tiles.At(dc, 0, 0))
	outPane.Draw(tiles.At(dc, 0, 1))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	defer bw.Flush()

	png := vgimg.PngCanvas{Canvas: canvas}
	if _, err := png.WriteTo(bw); err != nil {
		return fmt.Errorf("write chart %s: %w", path, err)
	}
	return nil
}

func errorPane(samples []sim.Sample, opts Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Error"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Error"
	p.Add(plotter.NewGrid())

	line, err := seriesLine(samples, func(s sim.Sample) float64 { return s.Error })
	if err != nil {
		return nil, err
	}
	line.Color = color.RGBA{B: 255, A: 255}
	p.Add(line)
	p.Legend.Add("error", line)

	if !opts.AutoScale {
		p.Y.Min, p.Y.Max = -ErrorRange, ErrorRange
	}
	return p, nil
}

func outputPane(samples []sim.Sample, opts Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Control Output"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Force"
	p.Add(plotter.NewGrid())

	series := []struct {
		name  string
		color color.RGBA
		field func(sim.Sample) float64
	}{
		{"total", color.RGBA{A: 255}, func(s sim.Sample) float64 { return s.Output }},
		{"P", color.RGBA{G: 160, A: 255}, func(s sim.Sample) float64 { return s.P }},
		{"I", color.RGBA{R: 255, A: 255}, func(s sim.Sample) float64 { return s.I }},
		{"D", color.RGBA{B: 255, A: 255}, func(s sim.Sample) float64 { return s.D }},
	}

	for _, sp := range series {
		line, err := seriesLine(samples, sp.field)
		if err != nil {
			return nil, err
		}
		line.Color = sp.color
		p.Add(line)
		p.Legend.Add(sp.name, line)
	}

	if !opts.AutoScale {
		p.Y.Min, p.Y.Max = -OutputRange, OutputRange
	}
	return p, nil
}

func seriesLine(samples []sim.Sample, field func(sim.Sample) float64) (*plotter.Line, error) {
	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = s.Time
		pts[i].Y = field(s)
	}
	return plotter.NewLine(pts)
}
