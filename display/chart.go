// Package display renders decoded telemetry as charts, gnuplot files and animations.
package display

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.viam.com/benchlog/config"
	"go.viam.com/benchlog/logging"
	"go.viam.com/benchlog/telemetry"
)

const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 5 * vg.Inch
)

// FieldError is returned when a record does not carry a requested field.
type FieldError struct {
	Field  string
	Record int
}

func (err *FieldError) Error() string {
	return fmt.Sprintf("record %d has no field %q", err.Record, err.Field)
}

// Lookup returns `path` for every record of `seq`.
func Lookup(seq telemetry.Sequence, path string) ([]float64, error) {
	ret := make([]float64, len(seq))
	for idx, record := range seq {
		value, ok := record.Lookup(path)
		if !ok {
			return nil, &FieldError{Field: path, Record: idx}
		}
		ret[idx] = value
	}
	return ret, nil
}

// Times returns each record's timestamp.
func Times(seq telemetry.Sequence) []float64 {
	ret := make([]float64, len(seq))
	for idx, record := range seq {
		ret[idx] = record.Time
	}
	return ret
}

// Values evaluates `series` over `seq`: the field, minus `Subtract` when set, scaled, then
// differentiated against record time `Derivative` times.
func Values(seq telemetry.Sequence, series config.Series) ([]float64, error) {
	values, err := Lookup(seq, series.Field)
	if err != nil {
		return nil, err
	}
	if series.Subtract != "" {
		subtrahend, err := Lookup(seq, series.Subtract)
		if err != nil {
			return nil, err
		}
		floats.Sub(values, subtrahend)
	}
	if series.Scale != 0 && series.Scale != 1 {
		floats.Scale(series.Scale, values)
	}

	times := Times(seq)
	for order := 0; order < series.Derivative; order++ {
		values = Differentiate(times, values)
	}
	return values, nil
}

// Differentiate returns the backward difference quotient of `values` against `times`. The first
// point, and points where time did not advance, repeat the previous rate.
func Differentiate(times, values []float64) []float64 {
	ret := make([]float64, len(values))
	for idx := 1; idx < len(values); idx++ {
		dt := times[idx] - times[idx-1]
		if dt == 0 {
			ret[idx] = ret[idx-1]
			continue
		}
		ret[idx] = (values[idx] - values[idx-1]) / dt
	}
	if len(ret) > 1 {
		ret[0] = ret[1]
	}
	return ret
}

// Palette returns `num` visually distinct colors, evenly spaced around the hue circle.
func Palette(num int) []color.Color {
	ret := make([]color.Color, num)
	for idx := range ret {
		ret[idx] = colorful.Hsv(float64(idx)*360/float64(num), 0.75, 0.8)
	}
	return ret
}

// finitePoints drops pairs where either coordinate is NaN or infinite, which gonum/plot rejects.
func finitePoints(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(xs))
	for idx := range xs {
		if math.IsNaN(xs[idx]) || math.IsInf(xs[idx], 0) || math.IsNaN(ys[idx]) || math.IsInf(ys[idx], 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[idx], Y: ys[idx]})
	}
	return pts
}

// NewPlot builds the gonum plot for `chart` without saving it.
func NewPlot(seq telemetry.Sequence, chart config.Chart) (*plot.Plot, error) {
	if len(seq) == 0 {
		return nil, errors.New("no records to plot")
	}

	plt := plot.New()
	plt.Title.Text = chart.Title
	plt.Y.Label.Text = chart.YLabel
	plt.X.Label.Text = chart.XLabel
	if plt.X.Label.Text == "" {
		if chart.Kind == config.ChartKindXY {
			plt.X.Label.Text = chart.XField
		} else {
			plt.X.Label.Text = "time (s)"
		}
	}
	plt.Add(plotter.NewGrid())
	plt.Legend.Top = true

	palette := Palette(len(chart.Series))
	for idx, series := range chart.Series {
		ys, err := Values(seq, series)
		if err != nil {
			return nil, errors.Wrapf(err, "chart %q", chart.Name)
		}

		xs := Times(seq)
		if chart.Kind == config.ChartKindXY {
			xField := series.X
			if xField == "" {
				xField = chart.XField
			}
			if xs, err = Lookup(seq, xField); err != nil {
				return nil, errors.Wrapf(err, "chart %q", chart.Name)
			}
		}

		line, err := plotter.NewLine(finitePoints(xs, ys))
		if err != nil {
			return nil, errors.Wrapf(err, "chart %q series %q", chart.Name, series.Label)
		}
		line.Color = palette[idx]
		line.Width = vg.Points(1.5)
		plt.Add(line)
		plt.Legend.Add(series.Label, line)
	}
	return plt, nil
}

// RenderChart draws `chart` and saves it to `path`. The image format follows the extension.
func RenderChart(seq telemetry.Sequence, chart config.Chart, path string) error {
	plt, err := NewPlot(seq, chart)
	if err != nil {
		return err
	}
	return errors.Wrapf(plt.Save(chartWidth, chartHeight, path), "error saving chart %q", chart.Name)
}

// RenderProfile draws every chart into `dir` as "<name>.png". A chart that cannot be drawn, for
// example because the records lack one of its fields, is skipped. The returned error combines
// every skipped chart's error.
func RenderProfile(
	seq telemetry.Sequence,
	charts []config.Chart,
	dir string,
	logger logging.Logger,
) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	var (
		written []string
		errs    error
	)
	for _, chart := range charts {
		path := filepath.Join(dir, chart.Name+".png")
		if err := RenderChart(seq, chart, path); err != nil {
			logger.Warnw("Skipping chart", "chart", chart.Name, "error", err)
			errs = multierr.Append(errs, err)
			continue
		}
		logger.Debugw("Rendered chart", "chart", chart.Name, "path", path)
		written = append(written, path)
	}
	return written, errs
}
