// internal/result/plot.go
package result

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNothingToPlot indicates no row has a positive power
var ErrNothingToPlot = errors.New("no detected thresholds to plot")

const (
	PlotTitle  = "Threshold Power vs Frequency"
	PlotXLabel = "Frequency (Hz)"
	PlotYLabel = "Power (Amplitude²)"
)

// PlotFileName returns the PNG file name for a session ending at the given CSV base name.
func PlotFileName(base string) string {
	return base + ".png"
}

// plotPoints keeps rows with positive power; log axes cannot place zero.
func plotPoints(rows []Row) plotter.XYs {
	pts := make(plotter.XYs, 0, len(rows))
	for _, r := range rows {
		if r.Power > 0 && r.Frequency > 0 {
			pts = append(pts, plotter.XY{X: r.Frequency, Y: r.Power})
		}
	}
	return pts
}

// NewPlot builds the log-log power-vs-frequency plot.
func NewPlot(rows []Row) (*plot.Plot, error) {
	pts := plotPoints(rows)
	if len(pts) == 0 {
		return nil, ErrNothingToPlot
	}

	p := plot.New()
	p.Title.Text = PlotTitle
	p.X.Label.Text = PlotXLabel
	p.Y.Label.Text = PlotYLabel
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Add(plotter.NewGrid())

	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("plot points: %w", err)
	}
	p.Add(line, points)

	// Pad the ranges multiplicatively so a single point stays on a positive axis.
	minX, maxX, minY, maxY := pts[0].X, pts[0].X, pts[0].Y, pts[0].Y
	for _, pt := range pts[1:] {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}
	p.X.Min, p.X.Max = minX/1.25, maxX*1.25
	p.Y.Min, p.Y.Max = minY/2, maxY*2

	return p, nil
}

// WritePlot renders the plot to path; the extension picks the image format.
func WritePlot(path string, rows []Row) error {
	p, err := NewPlot(rows)
	if err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}
