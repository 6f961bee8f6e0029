package display

import (
	"strings"

	"github.com/samber/lo"

	"go.viam.com/benchlog/config"
	"go.viam.com/benchlog/telemetry"
)

// ControllerScale converts controller contributions from PWM counts to a duty fraction.
const ControllerScale = 1.0 / 4095

func line(name, title, yLabel string, series ...config.Series) config.Chart {
	return config.Chart{Name: name, Title: title, YLabel: yLabel, Kind: config.ChartKindLine, Series: series}
}

func field(label, path string) config.Series {
	return config.Series{Label: label, Field: path, Scale: 1}
}

func difference(label, path, subtract string) config.Series {
	return config.Series{Label: label, Field: path, Subtract: subtract, Scale: 1}
}

func derivative(label, path string, order int) config.Series {
	return config.Series{Label: label, Field: path, Scale: 1, Derivative: order}
}

// catalog lists every built-in chart. `DefaultProfile` keeps those whose fields a log carries.
var catalog = []config.Chart{
	line("translational_tracking", "Translational tracking", "position (mm)",
		field("target", "translational_target"), field("position", "translational_position")),
	line("rotational_tracking", "Rotational tracking", "heading (deg)",
		field("target", "rotational_target_deg"), field("position", "rotational_position_deg")),
	line("rotational_tracking_v0_2", "Rotational tracking", "heading",
		field("target", "rotational_target"), field("position", "rotational_position")),
	line("position_target", "Position and target", "position",
		field("target", "target"), field("position", "position")),
	line("error", "Error", "error (mm)", field("error", "error")),
	line("current_error", "Current error", "|error|", field("current_error", "current_error")),
	line("combined_errors", "Distance and angle error", "error",
		field("distance (mm)", "current_error_distance"), field("angle (deg)", "current_error_angle")),
	line("heading_error", "Heading error", "error (deg)",
		difference("target - position", "rotational_target_deg", "rotational_position_deg")),
	line("translational_speed", "Translational speed", "speed (mm/s)",
		derivative("d position / dt", "translational_position", 1)),
	line("translational_acceleration", "Translational acceleration", "acceleration (mm/s²)",
		derivative("d² position / dt²", "translational_position", 2)),
	line("rotational_speed", "Rotational speed", "speed (deg/s)",
		derivative("d heading / dt", "rotational_position_deg", 1)),
	line("rotational_speed_comparison", "Rotational speed estimates", "speed (deg/s)",
		field("ramp", "ramp_speed_deg"), field("estimated", "estimated_speed_deg"),
		field("other estimate", "other_estimated_speed_deg")),
	line("ramp_vs_estimated_deg", "Ramp and estimated speed", "speed (deg/s)",
		field("ramp", "ramp_speed_deg"), field("estimated", "estimated_speed_deg")),
	line("ramp_vs_estimated", "Ramp and estimated speed", "speed",
		field("ramp", "ramp_speed"), field("estimated", "estimated_speed")),
	line("speed_error", "Speed error", "ramp - estimated",
		difference("ramp - estimated", "ramp_speed", "estimated_speed")),
	line("translational_speed_comparison", "Translational speed estimates", "speed (mm/s)",
		field("ramp", "translational_ramp_speed"), field("estimated", "translational_estimated_speed")),
	line("rotational_speed_estimates", "Rotational speed estimates", "speed",
		field("ramp", "rotational_ramp_speed"), field("estimated", "rotational_estimated_speed")),
	line("pwm", "PWM", "pwm", field("left", "left_pwm"), field("right", "right_pwm")),
	line("motors", "Motor commands", "pwm", field("left", "left_motor"), field("right", "right_motor")),
	line("pid_distance", "PID contributions", "contribution",
		field("up", "up"), field("ui", "ui"), field("ud", "ud")),
	line("feed_forward_distance", "Feed-forward contribution", "contribution", field("uff", "uff")),
	line("pid_angle", "Angle PID contributions", "contribution",
		field("up", "up_angle"), field("ui", "ui_angle"), field("ud", "ud_angle")),
	line("robot_dt", "Control period", "robot_dt (s)", field("robot_dt", telemetry.DeltaTimeField)),
	line("heading", "Heading", "a", field("a", "a")),
	{
		Name: "xy_trajectory", Title: "Trajectory", XLabel: "x", YLabel: "y", Kind: config.ChartKindXY,
		Series: []config.Series{
			{Label: "actual", Field: "y", X: "x", Scale: 1},
			{Label: "target", Field: "target_y", X: "target_x", Scale: 1},
		},
	},
	{
		Name: "trajectory", Title: "Trajectory", XLabel: "x", YLabel: "y", Kind: config.ChartKindXY,
		XField: "current_x",
		Series: []config.Series{{Label: "position", Field: "current_y", Scale: 1}},
	},
	{
		Name: "position_trajectory", Title: "Trajectory", XLabel: "x", YLabel: "y", Kind: config.ChartKindXY,
		XField: "current_position_x",
		Series: []config.Series{{Label: "position", Field: "current_position_y", Scale: 1}},
	},
}

// requiredPaths lists every record path a chart reads.
func requiredPaths(chart config.Chart) []string {
	ret := []string{}
	if chart.Kind == config.ChartKindXY && chart.XField != "" {
		ret = append(ret, chart.XField)
	}
	for _, series := range chart.Series {
		ret = append(ret, series.Field)
		if series.Subtract != "" {
			ret = append(ret, series.Subtract)
		}
		if series.X != "" {
			ret = append(ret, series.X)
		}
	}
	return ret
}

// DefaultProfile picks the built-in charts that fit the fields of `seq`'s first record, plus one
// chart per controller slot with every contribution of that slot, scaled by `ControllerScale`.
func DefaultProfile(seq telemetry.Sequence) []config.Chart {
	if len(seq) == 0 {
		return nil
	}
	paths := seq.Paths()

	ret := lo.Filter(catalog, func(chart config.Chart, _ int) bool {
		return lo.Every(paths, requiredPaths(chart))
	})

	for _, slot := range seq[0].Slots {
		prefix := slot.Name + "."
		contributions := lo.Filter(paths, func(path string, _ int) bool {
			return strings.HasPrefix(path, prefix)
		})
		if len(contributions) == 0 {
			continue
		}
		ret = append(ret, config.Chart{
			Name:   slot.Name,
			Title:  slot.Name + " (" + slot.Controller.Kind.String() + ")",
			YLabel: "duty",
			Kind:   config.ChartKindLine,
			Series: lo.Map(contributions, func(path string, _ int) config.Series {
				return config.Series{Label: strings.TrimPrefix(path, prefix), Field: path, Scale: ControllerScale}
			}),
		})
	}
	return ret
}

// ProfileFor returns the charts for a session: the config's profile for the layout when there is
// one, else `DefaultProfile`.
func ProfileFor(conf *config.Config, layoutName string, seq telemetry.Sequence) []config.Chart {
	if conf != nil {
		if charts, ok := conf.Charts(layoutName); ok {
			return charts
		}
	}
	return DefaultProfile(seq)
}
