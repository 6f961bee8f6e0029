package display

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/benchlog/telemetry"
)

// GnuplotWriter organizes all of the output for `gnuplot` to create a graph from decoded records.
// Notably:
//   - Each graph consists of all the readings for an individual field. There is one file per field
//     and each file contains all of the (time, value) points to graph.
//   - There is additionally one "top-level" file. This is the file to call `gnuplot` against. This
//     file contains all layout/styling information. This file will additionally have one line per
//     graph. Each of these lines will contain the OS file path for the above filenames.
//   - Each graph will have the same bounds on the X (Time) axis. Scanning vertically through the
//     graphs at the same horizontal position will show readings as of a common point in time.
type GnuplotWriter struct {
	// fieldFiles contain the actual data points to be graphed. A "top level" gnuplot will
	// reference them.
	fieldFiles map[string]*os.File
	// order is the order fields were first seen in, which is also the graph order.
	order []string

	dir string
}

// NewGnuplotWriter writes into `dir`. An empty `dir` creates a fresh temporary directory.
func NewGnuplotWriter(dir string) (*GnuplotWriter, error) {
	if dir == "" {
		tempdir, err := os.MkdirTemp("", "benchlog_gnuplot")
		if err != nil {
			return nil, err
		}
		dir = tempdir
	} else if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}

	return &GnuplotWriter{
		fieldFiles: make(map[string]*os.File),
		dir:        dir,
	}, nil
}

// Dir is the directory the writer puts files in.
func (gpw *GnuplotWriter) Dir() string {
	return gpw.dir
}

func (gpw *GnuplotWriter) getDatafile(fieldName string) (io.Writer, error) {
	if datafile, created := gpw.fieldFiles[fieldName]; created {
		return datafile, nil
	}

	datafile, err := os.CreateTemp(gpw.dir, "field")
	if err != nil {
		return nil, err
	}
	gpw.fieldFiles[fieldName] = datafile
	gpw.order = append(gpw.order, fieldName)

	return datafile, nil
}

func (gpw *GnuplotWriter) addPoint(time float64, fieldName string, value float64) error {
	datafile, err := gpw.getDatafile(fieldName)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(datafile, "%v %v\n", time, value)
	return err
}

// AddRecord appends every flattened reading of `record` to its field's data file.
func (gpw *GnuplotWriter) AddRecord(record *telemetry.Record) error {
	for _, reading := range record.Flatten() {
		if err := gpw.addPoint(record.Time, reading.Name, reading.Value); err != nil {
			return err
		}
	}
	return nil
}

// Fields returns the field names written so far, sorted.
func (gpw *GnuplotWriter) Fields() []string {
	ret := append([]string(nil), gpw.order...)
	sort.Strings(ret)
	return ret
}

// RenderAndClose writes out the "top-level" file, closes all file handles and returns the
// top-level file's path.
func (gpw *GnuplotWriter) RenderAndClose() (_ string, err error) {
	defer func() {
		err = multierr.Combine(err, closeAll(gpw))
	}()
	if len(gpw.order) == 0 {
		return "", errors.New("no fields to plot")
	}

	gnuFile, err := os.CreateTemp(gpw.dir, "main")
	if err != nil {
		return "", err
	}
	defer utils.UncheckedErrorFunc(gnuFile.Close)

	var script strings.Builder
	fmt.Fprintf(&script, "set term png size %d, %d\n", 1000, 200*len(gpw.order))
	fmt.Fprintf(&script, "set output '%s.png'\n", gnuFile.Name())
	fmt.Fprintf(&script, "set multiplot layout %v,1 margins 0.05,0.9, 0.05,0.9 spacing screen 0, char 5\n", len(gpw.order))
	script.WriteString("set xlabel 'Time (s)'\n")

	for _, fieldName := range gpw.order {
		fmt.Fprintf(&script, "plot '%v' using 1:2 with lines linestyle 7 lw 4 title '%v'\n",
			gpw.fieldFiles[fieldName].Name(), strings.ReplaceAll(fieldName, "_", "\\_"))
	}
	if _, err := io.WriteString(gnuFile, script.String()); err != nil {
		return "", err
	}
	return gnuFile.Name(), nil
}

// WriteGnuplot writes every record of `seq` and returns the top-level gnuplot file.
func WriteGnuplot(seq telemetry.Sequence, dir string) (string, error) {
	gpw, err := NewGnuplotWriter(dir)
	if err != nil {
		return "", err
	}
	for _, record := range seq {
		if err := gpw.AddRecord(record); err != nil {
			utils.UncheckedError(closeAll(gpw))
			return "", err
		}
	}
	return gpw.RenderAndClose()
}

func closeAll(gpw *GnuplotWriter) error {
	var err error
	for _, file := range gpw.fieldFiles {
		err = multierr.Combine(err, file.Close())
	}
	return err
}
