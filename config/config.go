// Package config defines the chart profile file read by the benchlog CLI.
package config

import (
	"fmt"

	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// ChartKind selects how a chart's series are plotted.
type ChartKind string

const (
	// ChartKindLine plots each series against record time.
	ChartKindLine ChartKind = "line"
	// ChartKindXY plots each series against the chart's `x_field`.
	ChartKindXY ChartKind = "xy"
)

// Config is the top-level profile file.
type Config struct {
	ConfigFilePath string `json:"-"`

	// Profiles maps a layout name (e.g: "benchmark_angle_v0_2") to the charts drawn for it.
	Profiles  map[string][]Chart `json:"profiles,omitempty"`
	Animation *Animation         `json:"animation,omitempty"`
}

// Series is one plotted field.
type Series struct {
	Label string `json:"label"`
	// Field is a record path, e.g: "robot_dt" or "controller.inner.up".
	Field string `json:"field"`
	// X overrides the chart's `x_field` for this series on xy charts.
	X string `json:"x,omitempty"`
	// Subtract, when set, is a path whose value is subtracted from `Field`'s.
	Subtract string `json:"subtract,omitempty"`
	// Scale multiplies every value. Zero means 1.
	Scale float64 `json:"scale,omitempty"`
	// Derivative is how many times the series is differentiated against time, at most 2.
	Derivative int `json:"derivative,omitempty"`
}

// MaxDerivative is the highest supported `Series.Derivative`.
const MaxDerivative = 2

// Chart is one image.
type Chart struct {
	Name   string    `json:"name"`
	Title  string    `json:"title"`
	XLabel string    `json:"x_label,omitempty"`
	YLabel string    `json:"y_label,omitempty"`
	Kind   ChartKind `json:"kind,omitempty"`
	XField string    `json:"x_field,omitempty"`
	Series []Series  `json:"series"`
}

// Animation controls the robot trajectory animation.
type Animation struct {
	FPS         int     `json:"fps,omitempty"`
	Width       int     `json:"width,omitempty"`
	Height      int     `json:"height,omitempty"`
	RobotRadius float64 `json:"robot_radius,omitempty"`
	// Every draws one frame per `Every` records.
	Every int `json:"every,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate() error {
	for layout, charts := range conf.Profiles {
		if len(charts) == 0 {
			return utils.NewConfigValidationError(fmt.Sprintf("profiles.%s", layout), errors.New("no charts"))
		}
		for idx := range charts {
			if err := charts[idx].Validate(fmt.Sprintf("profiles.%s.%d", layout, idx)); err != nil {
				return err
			}
		}
	}
	if conf.Animation != nil {
		if err := conf.Animation.Validate("animation"); err != nil {
			return err
		}
	}
	return nil
}

// Charts returns the charts configured for `layout`.
func (conf *Config) Charts(layout string) ([]Chart, bool) {
	charts, ok := conf.Profiles[layout]
	return charts, ok
}

// Validate ensures all parts of the chart are valid. An empty kind becomes `ChartKindLine`.
func (chart *Chart) Validate(path string) error {
	if chart.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if chart.Title == "" {
		chart.Title = chart.Name
	}

	if len(chart.Series) == 0 {
		return utils.NewConfigValidationFieldRequiredError(path, "series")
	}

	switch chart.Kind {
	case "":
		chart.Kind = ChartKindLine
	case ChartKindLine:
	case ChartKindXY:
		for _, series := range chart.Series {
			if chart.XField == "" && series.X == "" {
				return utils.NewConfigValidationFieldRequiredError(path, "x_field")
			}
		}
	default:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown chart kind %q", chart.Kind))
	}

	for idx := range chart.Series {
		series := &chart.Series[idx]
		if series.Field == "" {
			return utils.NewConfigValidationFieldRequiredError(fmt.Sprintf("%s.series.%d", path, idx), "field")
		}
		if series.Derivative < 0 || series.Derivative > MaxDerivative {
			return utils.NewConfigValidationError(fmt.Sprintf("%s.series.%d", path, idx),
				errors.Errorf("derivative must be between 0 and %d", MaxDerivative))
		}
		if series.Label == "" {
			series.Label = series.Field
		}
		if series.Scale == 0 {
			series.Scale = 1
		}
	}
	return nil
}

// Validate ensures the animation settings are usable, filling in defaults.
func (anim *Animation) Validate(path string) error {
	if anim.FPS < 0 || anim.Width < 0 || anim.Height < 0 || anim.Every < 0 || anim.RobotRadius < 0 {
		return utils.NewConfigValidationError(path, errors.New("values must not be negative"))
	}
	if anim.FPS == 0 {
		anim.FPS = DefaultAnimation.FPS
	}
	if anim.Width == 0 {
		anim.Width = DefaultAnimation.Width
	}
	if anim.Height == 0 {
		anim.Height = DefaultAnimation.Height
	}
	if anim.RobotRadius == 0 {
		anim.RobotRadius = DefaultAnimation.RobotRadius
	}
	if anim.Every == 0 {
		anim.Every = DefaultAnimation.Every
	}
	return nil
}

// DefaultAnimation is used when the config has no animation section.
var DefaultAnimation = Animation{
	FPS:         25,
	Width:       800,
	Height:      800,
	RobotRadius: 0.1,
	Every:       10,
}
