package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/benchlog/logging"
)

func TestFromReaderValidate(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := FromReader("somepath", strings.NewReader(""), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "EOF")

	_, err = FromReader("somepath", strings.NewReader(`{"profiles": 1}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unmarshal")

	_, err = FromReader("somepath", strings.NewReader(`{"cloud": {}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown field")

	conf, err := FromReader("somepath", strings.NewReader(`{}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf, test.ShouldResemble, &Config{ConfigFilePath: "somepath"})

	_, err = FromReader("somepath", strings.NewReader(`{"profiles": {"speed_forward": []}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no charts")

	_, err = FromReader("somepath", strings.NewReader(`{"profiles": {"speed_forward": [{}]}}`), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "profiles.speed_forward.0")
	test.That(t, err.Error(), test.ShouldContainSubstring, `"name" is required`)
}

func TestChartValidate(t *testing.T) {
	for _, tc := range []struct {
		name  string
		chart Chart
		err   string
	}{
		{
			"defaults",
			Chart{Name: "speed", Series: []Series{{Field: "estimated_speed"}}},
			"",
		},
		{
			"missing series",
			Chart{Name: "speed"},
			`"series" is required`,
		},
		{
			"missing field",
			Chart{Name: "speed", Series: []Series{{Label: "speed"}}},
			`"field" is required`,
		},
		{
			"xy without x",
			Chart{Name: "path", Kind: ChartKindXY, Series: []Series{{Field: "y"}}},
			`"x_field" is required`,
		},
		{
			"xy with series x",
			Chart{Name: "path", Kind: ChartKindXY, Series: []Series{{Field: "y", X: "x"}}},
			"",
		},
		{
			"bad derivative",
			Chart{Name: "accel", Series: []Series{{Field: "translational_position", Derivative: 3}}},
			"derivative must be between 0 and 2",
		},
		{
			"bad kind",
			Chart{Name: "path", Kind: "pie", Series: []Series{{Field: "y"}}},
			`unknown chart kind "pie"`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.chart.Validate("chart")
			if tc.err == "" {
				test.That(t, err, test.ShouldBeNil)
				return
			}
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		})
	}

	chart := Chart{Name: "speed", Series: []Series{{Field: "estimated_speed"}, {Field: "ud", Scale: 0.5}}}
	test.That(t, chart.Validate("chart"), test.ShouldBeNil)
	test.That(t, chart.Title, test.ShouldEqual, "speed")
	test.That(t, chart.Kind, test.ShouldEqual, ChartKindLine)
	test.That(t, chart.Series[0].Label, test.ShouldEqual, "estimated_speed")
	test.That(t, chart.Series[0].Scale, test.ShouldEqual, 1.0)
	test.That(t, chart.Series[1].Scale, test.ShouldEqual, 0.5)
}

func TestAnimationValidate(t *testing.T) {
	anim := Animation{FPS: 10}
	test.That(t, anim.Validate("animation"), test.ShouldBeNil)
	test.That(t, anim.FPS, test.ShouldEqual, 10)
	test.That(t, anim.Width, test.ShouldEqual, DefaultAnimation.Width)
	test.That(t, anim.Every, test.ShouldEqual, DefaultAnimation.Every)

	anim = Animation{Every: -1}
	test.That(t, anim.Validate("animation"), test.ShouldNotBeNil)
}

func TestReadExpandsEnvironment(t *testing.T) {
	t.Setenv("BENCHLOG_SCALE", "0.25")
	path := filepath.Join(t.TempDir(), "profiles.json")
	contents := `{
		"profiles": {
			"benchmark_angle_v0_2": [
				{
					"name": "controller",
					"title": "Controller",
					"series": [{"label": "up", "field": "controller.up", "scale": ${BENCHLOG_SCALE}}]
				}
			]
		},
		"animation": {"fps": 12}
	}`
	test.That(t, os.WriteFile(path, []byte(contents), 0o600), test.ShouldBeNil)

	conf, err := Read(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.ConfigFilePath, test.ShouldEqual, path)

	charts, ok := conf.Charts("benchmark_angle_v0_2")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, len(charts), test.ShouldEqual, 1)
	test.That(t, charts[0].Series[0].Scale, test.ShouldEqual, 0.25)
	test.That(t, conf.Animation.FPS, test.ShouldEqual, 12)
	test.That(t, conf.Animation.Height, test.ShouldEqual, DefaultAnimation.Height)

	_, ok = conf.Charts("speed_forward")
	test.That(t, ok, test.ShouldBeFalse)

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
