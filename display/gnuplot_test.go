package display

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestWriteGnuplot(t *testing.T) {
	dir := t.TempDir()
	seq := straightLine(4)

	mainFile, err := WriteGnuplot(seq, dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, filepath.Dir(mainFile), test.ShouldEqual, dir)

	script, err := os.ReadFile(mainFile)
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(string(script)), "\n")

	plotLines := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "plot ") {
			plotLines++
		}
	}
	// Six scalars plus three controller contributions.
	test.That(t, plotLines, test.ShouldEqual, 9)
	test.That(t, string(script), test.ShouldContainSubstring, `controller.up`)
	test.That(t, string(script), test.ShouldContainSubstring, `robot\_dt`)

	// Every data file has one "time value" line per record.
	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(entries), test.ShouldEqual, 10)
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if path == mainFile {
			continue
		}
		data, err := os.ReadFile(path)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, len(strings.Split(strings.TrimSpace(string(data)), "\n")), test.ShouldEqual, 4)
	}
}

func TestGnuplotWriterFields(t *testing.T) {
	gpw, err := NewGnuplotWriter(t.TempDir())
	test.That(t, err, test.ShouldBeNil)
	for _, record := range straightLine(2) {
		test.That(t, gpw.AddRecord(record), test.ShouldBeNil)
	}
	test.That(t, gpw.Fields(), test.ShouldResemble, []string{
		"a", "controller.ud", "controller.ui", "controller.up", "robot_dt",
		"translational_position", "translational_target", "x", "y",
	})
	_, err = gpw.RenderAndClose()
	test.That(t, err, test.ShouldBeNil)
}

func TestWriteGnuplotEmpty(t *testing.T) {
	_, err := WriteGnuplot(nil, t.TempDir())
	test.That(t, err, test.ShouldNotBeNil)
}
