package cli

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/benchlog/analysis"
	"go.viam.com/benchlog/config"
	"go.viam.com/benchlog/control"
	"go.viam.com/benchlog/display"
)

// parseSignal turns "A" or "A-B" into a series.
func parseSignal(signal string) (config.Series, error) {
	field, subtract, found := strings.Cut(signal, "-")
	field = strings.TrimSpace(field)
	subtract = strings.TrimSpace(subtract)
	if field == "" || (found && subtract == "") {
		return config.Series{}, errors.Errorf("invalid signal %q, expected A or A-B", signal)
	}
	return config.Series{Label: signal, Field: field, Subtract: subtract, Scale: 1}, nil
}

// FFTAction prints the dominant frequency of a signal and, with --lock-in, its amplitude.
func FFTAction(c *cli.Context) error {
	logger := newLogger(c)
	series, err := parseSignal(c.String(flagSignal))
	if err != nil {
		return err
	}
	session, err := loadSession(c, logger)
	if err != nil {
		return err
	}

	values, err := display.Values(session.Records, series)
	if err != nil {
		return err
	}
	period, err := analysis.MeanPeriod(session.Records)
	if err != nil {
		return err
	}
	spectrum, err := analysis.ComputeSpectrum(values, period)
	if err != nil {
		return err
	}
	freq, magnitude, err := spectrum.DominantFrequency(c.Float64(flagMinFreq))
	if err != nil {
		return err
	}
	logger.Debugw("Computed spectrum", "bins", len(spectrum.Freqs), "period", period)

	out := table.NewWriter()
	out.AppendRows([]table.Row{
		{"Signal", series.Label},
		{"Samples", len(values)},
		{"Sample rate (Hz)", formatFloat(1 / period)},
		{"Dominant frequency (Hz)", formatFloat(freq)},
		{"Magnitude", formatFloat(magnitude)},
	})

	if c.Bool(flagLockIn) {
		envelope, err := analysis.LockInAmplitude(display.Times(session.Records), values, freq)
		if err != nil {
			return err
		}
		amplitude, err := analysis.GaussianWeightedMean(envelope)
		if err != nil {
			return err
		}
		out.AppendRow(table.Row{"Amplitude", formatFloat(amplitude)})
	}
	printf(c.App.Writer, "%s", out.Render())
	return nil
}

// TuneAction fits a first order model to a recorded speed step and prints the PID gains placing
// the closed loop poles at --w1, --w2 and --w3.
func TuneAction(c *cli.Context) error {
	logger := newLogger(c)
	session, err := loadSession(c, logger)
	if err != nil {
		return err
	}

	tuning := control.Tuning{
		PWM:       c.Float64(flagPWM),
		W1:        c.Float64(flagW1),
		W2:        c.Float64(flagW2),
		W3:        c.Float64(flagW3),
		Bandwidth: c.Float64(flagBandwidth),
	}
	step, err := control.AnalyzeSpeedStep(session.Records, tuning, logger)
	if err != nil {
		return err
	}

	out := table.NewWriter()
	out.AppendRows([]table.Row{
		{"Records", len(session.Records)},
		{"A", formatFloat(step.Model.A)},
		{"tau (s)", formatFloat(step.Model.Tau)},
		{"c/m", formatFloat(1 / step.Model.Tau)},
		{"mu/m", formatFloat(step.Model.A / step.Model.Tau / tuning.PWM)},
		{"Final estimated speed", formatFloat(step.Estimated[len(step.Estimated)-1])},
	})
	out.AppendSeparator()
	out.AppendRows([]table.Row{
		{"Kp", formatFloat(step.Gains.Kp)},
		{"Ki", formatFloat(step.Gains.Ki)},
		{"Kd", formatFloat(step.Gains.Kd)},
	})
	printf(c.App.Writer, "%s", out.Render())
	return nil
}
