package tracking

import (
	"bytes"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/regpipe/pkg/errors"
)

// PlotArtifact is the artifact name used for ResidualPlot output.
const PlotArtifact = "predicted_vs_actual.png"

// ResidualPlot renders predicted against actual values as a PNG scatter
// with the y = x reference line.
func ResidualPlot(yTrue, yPred []float64) ([]byte, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewModelError("tracking.ResidualPlot", "empty data", errors.ErrEmptyData)
	}
	if len(yTrue) != len(yPred) {
		return nil, errors.NewDimensionError("tracking.ResidualPlot", len(yTrue), len(yPred), 0)
	}

	pts := make(plotter.XYs, len(yTrue))
	lo, hi := yTrue[0], yTrue[0]
	for i := range yTrue {
		pts[i].X = yTrue[i]
		pts[i].Y = yPred[i]
		lo = min(lo, yTrue[i], yPred[i])
		hi = max(hi, yTrue[i], yPred[i])
	}

	p := plot.New()
	p.Title.Text = "Predicted vs actual"
	p.X.Label.Text = "actual"
	p.Y.Label.Text = "predicted"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, errors.Wrap(err, "residual plot")
	}
	ref := plotter.NewFunction(func(x float64) float64 { return x })
	ref.XMin, ref.XMax = lo, hi
	ref.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(scatter, ref, plotter.NewGrid())

	wt, err := p.WriterTo(5*vg.Inch, 5*vg.Inch, "png")
	if err != nil {
		return nil, errors.Wrap(err, "residual plot")
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "residual plot")
	}
	return buf.Bytes(), nil
}
