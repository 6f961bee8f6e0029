package display

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/benchlog/config"
	"go.viam.com/benchlog/logging"
	"go.viam.com/benchlog/telemetry"
)

// straightLine returns records moving at 2 units/s along x while the target moves at 3 units/s.
func straightLine(num int) telemetry.Sequence {
	seq := make(telemetry.Sequence, num)
	for idx := range seq {
		tm := float64(idx) * 0.5
		seq[idx] = &telemetry.Record{
			Time: tm,
			Readings: []telemetry.Reading{
				{Name: "translational_position", Value: 2 * tm},
				{Name: "translational_target", Value: 3 * tm},
				{Name: "robot_dt", Value: 0.5},
				{Name: "x", Value: 2 * tm},
				{Name: "y", Value: 1},
				{Name: "a", Value: 0},
			},
			Slots: []telemetry.Slot{{
				Name: "controller",
				Controller: &telemetry.Controller{
					Family:   telemetry.SubControllerFamily,
					Kind:     telemetry.KindPID,
					Readings: []telemetry.Reading{{Name: "up", Value: 4095}, {Name: "ui", Value: 0}, {Name: "ud", Value: 0}},
				},
			}},
		}
	}
	return seq
}

func TestValues(t *testing.T) {
	seq := straightLine(5)

	values, err := Values(seq, config.Series{Field: "translational_position"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values, test.ShouldResemble, []float64{0, 1, 2, 3, 4})

	values, err = Values(seq, config.Series{Field: "translational_target", Subtract: "translational_position", Scale: 10})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, values, test.ShouldResemble, []float64{0, 5, 10, 15, 20})

	speed, err := Values(seq, config.Series{Field: "translational_position", Derivative: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, speed, test.ShouldResemble, []float64{2, 2, 2, 2, 2})

	accel, err := Values(seq, config.Series{Field: "translational_position", Derivative: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, accel, test.ShouldResemble, []float64{0, 0, 0, 0, 0})

	up, err := Values(seq, config.Series{Field: "controller.up", Scale: ControllerScale})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, up[0], test.ShouldAlmostEqual, 1.0)

	_, err = Values(seq, config.Series{Field: "controller.inner.up"})
	var fieldErr *FieldError
	test.That(t, errors.As(err, &fieldErr), test.ShouldBeTrue)
	test.That(t, fieldErr.Record, test.ShouldEqual, 0)
	test.That(t, fieldErr.Field, test.ShouldEqual, "controller.inner.up")
}

func TestDifferentiateRepeatedTime(t *testing.T) {
	rates := Differentiate([]float64{0, 1, 1, 2}, []float64{0, 2, 5, 6})
	test.That(t, rates, test.ShouldResemble, []float64{2, 2, 2, 1})
	test.That(t, Differentiate(nil, nil), test.ShouldBeEmpty)
}

func TestPalette(t *testing.T) {
	colors := Palette(3)
	test.That(t, len(colors), test.ShouldEqual, 3)
	test.That(t, colors[0], test.ShouldNotResemble, colors[1])
}

func TestRenderChart(t *testing.T) {
	seq := straightLine(20)
	dir := t.TempDir()

	chart := config.Chart{
		Name: "tracking", Title: "Tracking", Kind: config.ChartKindLine,
		Series: []config.Series{{Label: "target", Field: "translational_target", Scale: 1}},
	}
	path := filepath.Join(dir, "tracking.png")
	test.That(t, RenderChart(seq, chart, path), test.ShouldBeNil)
	info, err := os.Stat(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Size(), test.ShouldBeGreaterThan, 0)

	test.That(t, RenderChart(nil, chart, path), test.ShouldNotBeNil)
}

func TestRenderProfileSkipsMissingFields(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	seq := straightLine(10)
	charts := []config.Chart{
		{Name: "ok", Title: "ok", Kind: config.ChartKindLine, Series: []config.Series{{Label: "dt", Field: "robot_dt"}}},
		{Name: "missing", Title: "missing", Kind: config.ChartKindLine, Series: []config.Series{{Label: "nope", Field: "nope"}}},
		{
			Name: "path", Title: "path", Kind: config.ChartKindXY, XField: "x",
			Series: []config.Series{{Label: "y", Field: "y"}},
		},
	}

	written, err := RenderProfile(seq, charts, filepath.Join(t.TempDir(), "charts"), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "nope")
	test.That(t, len(written), test.ShouldEqual, 2)
	test.That(t, filepath.Base(written[0]), test.ShouldEqual, "ok.png")
	test.That(t, filepath.Base(written[1]), test.ShouldEqual, "path.png")
	test.That(t, logs.FilterMessage("Skipping chart").Len(), test.ShouldEqual, 1)
}
