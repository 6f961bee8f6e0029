package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormatStr is the time layout used by the console and test appenders.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

// Appender is an output for log entries. This is a subset of the `zapcore.Core` interface, so
// zap cores (e.g: the test observer) can be added directly.
type Appender interface {
	// Write submits a structured log entry to the appender for logging.
	Write(zapcore.Entry, []zapcore.Field) error
	// Sync is for signaling that any buffered logs to `Write` should be flushed. E.g: at shutdown.
	Sync() error
}

// ConsoleAppender writes tab separated log lines to an `io.Writer`.
type ConsoleAppender struct {
	io.Writer
}

// NewStdoutAppender creates a new appender that logs to stdout.
func NewStdoutAppender() ConsoleAppender {
	return ConsoleAppender{os.Stdout}
}

// NewWriterAppender creates a new appender that logs to the input writer.
func NewWriterAppender(writer io.Writer) ConsoleAppender {
	return ConsoleAppender{writer}
}

// Write outputs the log entry as a single line.
func (appender ConsoleAppender) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	columns, err := entryColumns(entry, fields)
	if _, writeErr := fmt.Fprintln(appender.Writer, strings.Join(columns, "\t")); writeErr != nil {
		return writeErr
	}
	return err
}

// Sync is a no-op.
func (appender ConsoleAppender) Sync() error {
	return nil
}

// entryColumns renders the time, level, logger name, caller, message and fields of an entry. The
// fields column is omitted when there are no fields. On an encoding error the columns rendered so
// far are returned alongside the error.
func entryColumns(entry zapcore.Entry, fields []zapcore.Field) ([]string, error) {
	const maxLength = 6
	columns := make([]string, 0, maxLength)
	columns = append(columns, entry.Time.Format(DefaultTimeFormatStr))
	columns = append(columns, strings.ToUpper(entry.Level.String()))
	columns = append(columns, entry.LoggerName)
	if entry.Caller.Defined {
		columns = append(columns, callerToString(&entry.Caller))
	}
	columns = append(columns, entry.Message)
	if len(fields) == 0 {
		return columns, nil
	}

	// Use zap's json encoder which will encode our slice of fields in-order. Call it with an empty
	// Entry object such that only the fields become "map-ified".
	jsonEncoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{SkipLineEnding: true})
	buf, err := jsonEncoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		return columns, err
	}
	return append(columns, string(buf.Bytes())), nil
}

// callerToString returns "<package dir>/<file>:<line>".
func callerToString(caller *zapcore.EntryCaller) string {
	return caller.TrimmedPath()
}
