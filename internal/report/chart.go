package report

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/lane-drift/internal/pipeline"
)

// Default chart size.
const (
	ChartWidth  = 14 * vg.Inch
	ChartHeight = 6 * vg.Inch
)

// WriteChart plots the lateral offset against frame index as a PNG. Frames
// without an offset leave gaps in the line and are marked on the zero
// axis.
func WriteChart(w io.Writer, run *pipeline.Run, width, height vg.Length) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Lateral offset, run %s", run.ID)
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Offset (m)"
	p.Add(plotter.NewGrid())

	var failed plotter.XYs
	var segment plotter.XYs
	flush := func() error {
		if len(segment) == 0 {
			return nil
		}
		line, err := plotter.NewLine(segment)
		if err != nil {
			return fmt.Errorf("failed to build offset line: %w", err)
		}
		line.Width = vg.Points(1)
		p.Add(line)
		segment = nil
		return nil
	}

	for _, res := range run.Frames {
		x := float64(res.Frame.Index)
		if res.OK() {
			segment = append(segment, plotter.XY{X: x, Y: res.Offset})
			continue
		}
		failed = append(failed, plotter.XY{X: x, Y: 0})
		if err := flush(); err != nil {
			return err
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if len(failed) > 0 {
		scatter, err := plotter.NewScatter(failed)
		if err != nil {
			return fmt.Errorf("failed to build failure markers: %w", err)
		}
		scatter.Radius = vg.Points(2)
		p.Add(scatter)
		p.Legend.Add("no offset", scatter)
		p.Legend.Top = true
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
