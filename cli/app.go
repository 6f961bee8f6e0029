// Package cli contains the benchlog command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/benchlog/control"
)

const (
	flagConfig   = "config"
	flagDebug    = "debug"
	flagUntagged = "untagged"

	flagFilter    = "filter"
	flagLimit     = "limit"
	flagOut       = "out"
	flagChart     = "chart"
	flagMP4       = "mp4"
	flagFPS       = "fps"
	flagEvery     = "every"
	flagHideRobot = "hide-robot"
	flagSignal    = "signal"
	flagMinFreq   = "min-freq"
	flagLockIn    = "lock-in"
	flagPWM       = "pwm"
	flagW1        = "w1"
	flagW2        = "w2"
	flagW3        = "w3"
	flagBandwidth = "bandwidth"

	speedForwardLayout = "speed_forward"
)

func untaggedFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  flagUntagged,
		Usage: "decode a headerless capture with the named layout, e.g: speed_forward",
	}
}

// NewApp returns a new app with the benchlog commands, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	defaults := control.DefaultTuning()
	return &cli.App{
		Name:            "benchlog",
		Usage:           "decode and view motion-control benchmark logs",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load chart profiles from `FILE`",
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "inspect",
				Usage:     "print the version, layout and per-field statistics of a log",
				ArgsUsage: "<log file>",
				Flags:     []cli.Flag{untaggedFlag()},
				Action:    InspectAction,
			},
			{
				Name:      "fields",
				Usage:     "list the field paths of a log's records",
				ArgsUsage: "<log file>",
				Flags: []cli.Flag{
					untaggedFlag(),
					&cli.StringFlag{
						Name:  flagFilter,
						Usage: "only list paths containing `TEXT`",
					},
				},
				Action: FieldsAction,
			},
			{
				Name:      "dump",
				Usage:     "print decoded records as a table",
				ArgsUsage: "<log file>",
				Flags: []cli.Flag{
					untaggedFlag(),
					&cli.IntFlag{
						Name:  flagLimit,
						Usage: "print at most `N` records, 0 for all",
					},
				},
				Action: DumpAction,
			},
			{
				Name:      "plot",
				Usage:     "render the charts of a log's profile as PNG files",
				ArgsUsage: "<log file>",
				Flags: []cli.Flag{
					untaggedFlag(),
					&cli.PathFlag{
						Name:  flagOut,
						Value: ".",
						Usage: "output `DIR`",
					},
					&cli.StringSliceFlag{
						Name:  flagChart,
						Usage: "only render the named charts",
					},
				},
				Action: PlotAction,
			},
			{
				Name:      "gnuplot",
				Usage:     "write per-field data files and a gnuplot script",
				ArgsUsage: "<log file>",
				Flags: []cli.Flag{
					untaggedFlag(),
					&cli.PathFlag{
						Name:  flagOut,
						Usage: "output `DIR`, a temporary directory when unset",
					},
				},
				Action: GnuplotAction,
			},
			{
				Name:      "animate",
				Usage:     "animate the robot's trajectory",
				ArgsUsage: "<log file>",
				Flags: []cli.Flag{
					untaggedFlag(),
					&cli.PathFlag{
						Name:     flagOut,
						Required: true,
						Usage:    "output `FILE`",
					},
					&cli.BoolFlag{
						Name:  flagMP4,
						Usage: "encode an mp4 with ffmpeg instead of a gif",
					},
					&cli.IntFlag{
						Name:  flagFPS,
						Usage: "frames per second",
					},
					&cli.IntFlag{
						Name:  flagEvery,
						Usage: "draw a frame every `N` records",
					},
					&cli.BoolFlag{
						Name:  flagHideRobot,
						Usage: "only draw the trajectory",
					},
				},
				Action: AnimateAction,
			},
			{
				Name:      "fft",
				Usage:     "find the dominant oscillation of a field or of the difference of two fields",
				ArgsUsage: "<log file>",
				Flags: []cli.Flag{
					untaggedFlag(),
					&cli.StringFlag{
						Name:     flagSignal,
						Required: true,
						Usage:    "field path, or `A-B` for the difference of two paths",
					},
					&cli.Float64Flag{
						Name:  flagMinFreq,
						Usage: "ignore frequencies below `HZ`",
					},
					&cli.BoolFlag{
						Name:  flagLockIn,
						Usage: "also measure the oscillation amplitude by lock-in demodulation",
					},
				},
				Action: FFTAction,
			},
			{
				Name:      "tune",
				Usage:     "fit a first order model to a speed step and place the PID poles",
				ArgsUsage: "<log file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagUntagged,
						Value: speedForwardLayout,
						Usage: "layout of the headerless capture",
					},
					&cli.Float64Flag{Name: flagPWM, Value: defaults.PWM, Usage: "pwm of the recorded step"},
					&cli.Float64Flag{Name: flagW1, Value: defaults.W1, Usage: "first closed loop pole, rad/s"},
					&cli.Float64Flag{Name: flagW2, Value: defaults.W2, Usage: "second closed loop pole, rad/s"},
					&cli.Float64Flag{Name: flagW3, Value: defaults.W3, Usage: "third closed loop pole, rad/s"},
					&cli.Float64Flag{Name: flagBandwidth, Value: defaults.Bandwidth, Usage: "speed estimator bandwidth, rad/s"},
				},
				Action: TuneAction,
			},
		},
	}
}
