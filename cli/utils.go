package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/benchlog/config"
	"go.viam.com/benchlog/logging"
	"go.viam.com/benchlog/telemetry"
)

// printf prints a message with a newline to the given writer.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a warning prefixed message to the given writer.
func warningf(w io.Writer, format string, a ...interface{}) {
	pterm.Warning.WithWriter(w).Printfln(format, a...)
}

// successf prints a success prefixed message to the given writer.
func successf(w io.Writer, format string, a ...interface{}) {
	pterm.Success.WithWriter(w).Printfln(format, a...)
}

// newLogger returns a logger writing to the app's error writer. Only warnings are shown unless
// --debug is set.
func newLogger(c *cli.Context) logging.Logger {
	logger := logging.NewBlankLogger("benchlog")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	} else {
		logger.SetLevel(logging.WARN)
	}
	return logger
}

// loadConfig reads the --config file, if any.
func loadConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	path := c.Path(flagConfig)
	if path == "" {
		return &config.Config{}, nil
	}
	return config.Read(path, logger)
}

// loadSession decodes the log named by the first argument. A log that fails part way through is
// still returned with a warning as long as at least one record was decoded.
func loadSession(c *cli.Context, logger logging.Logger) (*telemetry.Session, error) {
	path := c.Args().First()
	if path == "" {
		return nil, errors.New("no log file given")
	}

	var (
		session *telemetry.Session
		err     error
	)
	if name := c.String(flagUntagged); name != "" {
		session, err = loadUntagged(c, path, name, logger)
	} else {
		session, err = telemetry.LoadFile(c.Context, path, logger)
	}
	if err == nil {
		return session, nil
	}
	if session == nil || len(session.Records) == 0 {
		return nil, err
	}
	warningf(c.App.ErrWriter, "stopped decoding after %d records: %v", len(session.Records), err)
	return session, nil
}

func loadUntagged(c *cli.Context, path, name string, logger logging.Logger) (_ *telemetry.Session, err error) {
	layout, err := telemetry.UntaggedLayout(name)
	if err != nil {
		return nil, err
	}
	//nolint:gosec
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening log %q", path)
	}
	defer func() {
		err = multierr.Combine(err, file.Close())
	}()
	return telemetry.LoadUntagged(c.Context, file, layout, logger.Sublogger(path))
}
