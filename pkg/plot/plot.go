// Package plot renders metric series as line charts, for loss curves
// and other per-epoch training diagnostics.
package plot

import (
	"bytes"
	"errors"
	"fmt"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNoValues is returned when a chart is requested for an empty
// series.
var ErrNoValues = errors.New("plot: no values to plot")

// Config controls chart layout. The zero XLabel defaults to "Epoch";
// the title renders as "<Title> over <XLabel>".
type Config struct {
	Title  string
	XLabel string
	YLabel string
}

// Save renders values as a line chart against their 1-based index and
// writes it to filename. The image format follows the file extension;
// png is the usual choice.
func Save(values []float64, title, ylabel, filename string) error {
	p, err := build(values, Config{Title: title, YLabel: ylabel})
	if err != nil {
		return err
	}
	return p.Save(10*vg.Inch, 6*vg.Inch, filename)
}

// Render draws values as a line chart and returns the encoded PNG.
func Render(values []float64, cfg Config) ([]byte, error) {
	p, err := build(values, cfg)
	if err != nil {
		return nil, err
	}
	wt, err := p.WriterTo(10*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func build(values []float64, cfg Config) (*gplot.Plot, error) {
	if len(values) == 0 {
		return nil, ErrNoValues
	}
	if cfg.XLabel == "" {
		cfg.XLabel = "Epoch"
	}

	p := gplot.New()
	p.Title.Text = fmt.Sprintf("%s over %s", cfg.Title, cfg.XLabel)
	p.X.Label.Text = cfg.XLabel
	p.Y.Label.Text = cfg.YLabel
	p.Add(plotter.NewGrid())

	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i].X = float64(i + 1)
		xys[i].Y = v
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return nil, err
	}
	p.Add(line)
	return p, nil
}
