package cli

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/benchlog/analysis"
	"go.viam.com/benchlog/telemetry"
)

const missingValue = "-"

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'g', 6, 64)
}

// InspectAction prints a log's header, layout and field statistics.
func InspectAction(c *cli.Context) error {
	logger := newLogger(c)
	session, err := loadSession(c, logger)
	if err != nil {
		return err
	}

	layout := session.Layout
	recordLength := strconv.Itoa(layout.MinLength())
	if fixed, ok := layout.FixedLength(); ok {
		recordLength = strconv.Itoa(fixed)
	} else {
		recordLength = "at least " + recordLength
	}

	info := table.NewWriter()
	info.AppendRows([]table.Row{
		{"Version", session.Tag.String()},
		{"Layout", layout.Name()},
		{"Fields", len(layout.Fields())},
		{"Record bytes", recordLength},
		{"State", session.State.String()},
		{"Records", len(session.Records)},
		{"Time reconstructed", session.TimeReconstructed},
	})

	summary, err := analysis.Summarize(session.Records)
	if err != nil {
		printf(c.App.Writer, "%s", info.Render())
		return nil
	}
	info.AppendRows([]table.Row{
		{"Duration (s)", formatFloat(summary.Duration)},
		{"Mean period (s)", formatFloat(summary.MeanPeriod)},
		{"Sample rate (Hz)", formatFloat(summary.SampleRate)},
	})
	printf(c.App.Writer, "%s", info.Render())

	fields := table.NewWriter()
	fields.AppendHeader(table.Row{"Field", "Samples", "Min", "Max", "Mean", "Std dev"})
	for _, field := range summary.Fields {
		fields.AppendRow(table.Row{
			field.Name, field.Samples,
			formatFloat(field.Min), formatFloat(field.Max), formatFloat(field.Mean), formatFloat(field.StdDev),
		})
	}
	printf(c.App.Writer, "%s", fields.Render())
	return nil
}

// FieldsAction lists the flattened field paths of a log's first record, or the layout's fields
// when the log has no records.
func FieldsAction(c *cli.Context) error {
	logger := newLogger(c)
	session, err := loadSession(c, logger)
	if err != nil {
		return err
	}

	paths := session.Records.Paths()
	if len(paths) == 0 {
		paths = session.Layout.Fields()
	}
	if filter := c.String(flagFilter); filter != "" {
		paths = lo.Filter(paths, func(path string, _ int) bool {
			return strings.Contains(path, filter)
		})
	}
	for _, path := range paths {
		printf(c.App.Writer, "%s", path)
	}
	return nil
}

// DumpAction prints records as table rows, one column per field path.
func DumpAction(c *cli.Context) error {
	logger := newLogger(c)
	session, err := loadSession(c, logger)
	if err != nil {
		return err
	}

	limit := c.Int(flagLimit)
	if limit < 0 {
		return errors.Errorf("--%s must not be negative", flagLimit)
	}
	records := session.Records
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	paths := records.Paths()
	header := table.Row{"#", telemetry.TimePath}
	for _, path := range paths {
		header = append(header, path)
	}

	out := table.NewWriter()
	out.AppendHeader(header)
	for idx, record := range records {
		row := table.Row{idx, formatFloat(record.Time)}
		row = append(row, lo.Map(paths, func(path string, _ int) interface{} {
			value, ok := record.Lookup(path)
			if !ok {
				return missingValue
			}
			return formatFloat(value)
		})...)
		out.AppendRow(row)
	}
	printf(c.App.Writer, "%s", out.Render())
	return nil
}
