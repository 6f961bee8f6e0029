package cli

import (
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/benchlog/control"
)

// writeLog writes a log with an optional version header, one row of doubles per record, then
// `trailing` raw bytes.
func writeLog(t *testing.T, header []uint64, rows [][]float64, trailing ...byte) string {
	t.Helper()
	var buf bytes.Buffer
	for _, version := range header {
		//nolint:errcheck
		binary.Write(&buf, binary.BigEndian, version)
	}
	for _, row := range rows {
		for _, value := range row {
			//nolint:errcheck
			binary.Write(&buf, binary.BigEndian, math.Float64bits(value))
		}
	}
	buf.Write(trailing)

	path := filepath.Join(t.TempDir(), "log.bin")
	test.That(t, os.WriteFile(path, buf.Bytes(), 0o600), test.ShouldBeNil)
	return path
}

// distanceRows returns legacy distance records (version 1) whose position oscillates at `freq`
// Hz, sampled every 10ms, with no absolute time.
func distanceRows(num int, freq float64) [][]float64 {
	rows := make([][]float64, num)
	for idx := range rows {
		tm := float64(idx+1) * 0.01
		position := math.Sin(2 * math.Pi * freq * tm)
		// current_error, error, dt, robot_dt, translational_position, translational_target
		rows[idx] = []float64{1 - position, 1 - position, 0, 0.01, position, 1}
	}
	return rows
}

// trajectoryRows returns legacy distance-angle records (version 2) along a diagonal.
func trajectoryRows(num int) [][]float64 {
	rows := make([][]float64, num)
	for idx := range rows {
		tm := float64(idx+1) * 0.1
		rows[idx] = []float64{0, 0, tm, 0.1, 0, 0, tm, tm, 45, 45, tm, tm}
	}
	return rows
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut)
	err := app.Run(append([]string{"benchlog"}, args...))
	return out.String(), errOut.String(), err
}

func TestInspectAction(t *testing.T) {
	path := writeLog(t, []uint64{1}, distanceRows(5, 1))

	out, errOut, err := run(t, "inspect", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut, test.ShouldBeEmpty)
	test.That(t, out, test.ShouldContainSubstring, "benchmark_legacy_distance")
	test.That(t, out, test.ShouldContainSubstring, "done")
	test.That(t, out, test.ShouldContainSubstring, "translational_target")
	test.That(t, out, test.ShouldContainSubstring, "Sample rate (Hz)")
}

func TestInspectPartialLog(t *testing.T) {
	path := writeLog(t, []uint64{1}, distanceRows(5, 1), 1, 2, 3)

	out, errOut, err := run(t, "inspect", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "failed")
	test.That(t, errOut, test.ShouldContainSubstring, "stopped decoding after 5 records")
}

func TestInspectErrors(t *testing.T) {
	_, _, err := run(t, "inspect")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no log file given")

	// A truncated header decodes nothing.
	path := filepath.Join(t.TempDir(), "short.bin")
	test.That(t, os.WriteFile(path, []byte{0, 0, 0, 1}, 0o600), test.ShouldBeNil)
	_, _, err = run(t, "inspect", path)
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = run(t, "inspect", writeLog(t, []uint64{99}, nil))
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = run(t, "inspect", "--untagged", "nope", writeLog(t, nil, nil))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFieldsAction(t *testing.T) {
	path := writeLog(t, []uint64{1}, distanceRows(2, 1))

	out, _, err := run(t, "fields", "--filter", "translational", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.Split(strings.TrimSpace(out), "\n"), test.ShouldResemble,
		[]string{"translational_position", "translational_target"})

	// An empty log lists the layout's fields.
	out, _, err = run(t, "fields", writeLog(t, []uint64{1}, nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(strings.Split(strings.TrimSpace(out), "\n")), test.ShouldEqual, 6)
}

func TestDumpAction(t *testing.T) {
	path := writeLog(t, []uint64{1}, distanceRows(5, 1))

	out, _, err := run(t, "dump", "--limit", "2", path)
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Borders, header, separator and two rows.
	test.That(t, len(lines), test.ShouldEqual, 6)
	test.That(t, strings.ToLower(lines[1]), test.ShouldContainSubstring, "robot_dt")
	test.That(t, strings.ToLower(lines[1]), test.ShouldContainSubstring, "time")

	_, _, err = run(t, "dump", "--limit", "-1", path)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestFFTAction(t *testing.T) {
	path := writeLog(t, []uint64{1}, distanceRows(200, 5))

	out, _, err := run(t, "fft", "--signal", "translational_target-translational_position", "--lock-in", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "Dominant frequency (Hz)")
	test.That(t, out, test.ShouldContainSubstring, "| 5 ")
	test.That(t, out, test.ShouldContainSubstring, "Amplitude")

	_, _, err = run(t, "fft", "--signal", "missing", path)
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = run(t, "fft", path)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParseSignal(t *testing.T) {
	series, err := parseSignal("a")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, series.Field, test.ShouldEqual, "a")
	test.That(t, series.Subtract, test.ShouldBeEmpty)

	series, err = parseSignal("target - position")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, series.Field, test.ShouldEqual, "target")
	test.That(t, series.Subtract, test.ShouldEqual, "position")

	for _, bad := range []string{"", "-b", "a-"} {
		_, err = parseSignal(bad)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestTuneAction(t *testing.T) {
	model := control.FirstOrderModel{A: 1.5, Tau: 0.4}
	rows := make([][]float64, 300)
	var position float64
	for idx := range rows {
		if idx > 0 {
			position += model.Eval(float64(idx+1)*0.01) * 0.01
		}
		// estimated_speed, curvilinear_position, robot_dt
		rows[idx] = []float64{0, position, 0.01}
	}
	path := writeLog(t, nil, rows)

	out, _, err := run(t, "tune", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "tau (s)")
	test.That(t, out, test.ShouldContainSubstring, "Kp")
	test.That(t, out, test.ShouldContainSubstring, "Kd")

	_, _, err = run(t, "tune", "--pwm", "0", path)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPlotAction(t *testing.T) {
	path := writeLog(t, []uint64{1}, distanceRows(20, 1))
	dir := t.TempDir()

	out, _, err := run(t, "plot", "--out", dir, "--chart", "robot_dt", "--chart", "error", path)
	test.That(t, err, test.ShouldBeNil)
	written := strings.Split(strings.TrimSpace(out), "\n")
	test.That(t, written, test.ShouldResemble, []string{
		filepath.Join(dir, "error.png"),
		filepath.Join(dir, "robot_dt.png"),
	})
	for _, png := range written {
		_, err := os.Stat(png)
		test.That(t, err, test.ShouldBeNil)
	}

	_, _, err = run(t, "plot", "--out", dir, "--chart", "nope", path)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "nope")
}

func TestPlotActionConfig(t *testing.T) {
	path := writeLog(t, []uint64{1}, distanceRows(20, 1))
	dir := t.TempDir()

	confPath := filepath.Join(t.TempDir(), "charts.json")
	conf := `{"profiles": {"benchmark_legacy_distance": [
		{"name": "period", "series": [{"field": "robot_dt"}]}
	]}}`
	test.That(t, os.WriteFile(confPath, []byte(conf), 0o600), test.ShouldBeNil)

	out, _, err := run(t, "--config", confPath, "plot", "--out", dir, path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.TrimSpace(out), test.ShouldEqual, filepath.Join(dir, "period.png"))

	test.That(t, os.WriteFile(confPath, []byte(`{"profiles": {"x": []}}`), 0o600), test.ShouldBeNil)
	_, _, err = run(t, "--config", confPath, "plot", "--out", dir, path)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestGnuplotAction(t *testing.T) {
	path := writeLog(t, []uint64{1}, distanceRows(4, 1))
	dir := t.TempDir()

	out, _, err := run(t, "gnuplot", "--out", dir, path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "gnuplot "+dir)

	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	// One data file per field plus the script.
	test.That(t, len(entries), test.ShouldEqual, 7)
}

func TestAnimateAction(t *testing.T) {
	path := writeLog(t, []uint64{2}, trajectoryRows(12))
	gifPath := filepath.Join(t.TempDir(), "run.gif")

	out, _, err := run(t, "animate", "--out", gifPath, "--every", "5", "--fps", "10", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "wrote 4 frames")
	_, err = os.Stat(gifPath)
	test.That(t, err, test.ShouldBeNil)

	// The legacy distance layout has no position.
	_, _, err = run(t, "animate", "--out", gifPath, writeLog(t, []uint64{1}, distanceRows(3, 1)))
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = run(t, "animate", "--out", gifPath, "--fps", "-1", path)
	test.That(t, err, test.ShouldNotBeNil)
}
