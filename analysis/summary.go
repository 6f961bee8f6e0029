package analysis

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.viam.com/benchlog/telemetry"
)

// FieldSummary describes one flattened field over a session.
type FieldSummary struct {
	Name    string
	Samples int
	Min     float64
	Max     float64
	Mean    float64
	StdDev  float64
}

// Summary describes a decoded session.
type Summary struct {
	Records int
	// Duration is the time between the first and last record, in seconds.
	Duration float64
	// MeanPeriod and PeriodStdDev describe `robot_dt`. Both are 0 when the layout has no `robot_dt`.
	MeanPeriod   float64
	PeriodStdDev float64
	// SampleRate is 1 / MeanPeriod in Hz, or 0.
	SampleRate float64
	Fields     []FieldSummary
}

// Column returns `path` for every record that has it.
func Column(seq telemetry.Sequence, path string) []float64 {
	ret := make([]float64, 0, len(seq))
	for _, record := range seq {
		if value, ok := record.Lookup(path); ok {
			ret = append(ret, value)
		}
	}
	return ret
}

// MeanPeriod returns the average `robot_dt` of `seq`.
func MeanPeriod(seq telemetry.Sequence) (float64, error) {
	periods := Column(seq, telemetry.DeltaTimeField)
	if len(periods) == 0 {
		return 0, errors.Errorf("records have no %s field", telemetry.DeltaTimeField)
	}
	return stats.Mean(periods)
}

// Summarize computes per-session and per-field statistics. Fields are those of the first record,
// in record order. Records whose controller variant lacks a field are left out of that field's
// statistics.
func Summarize(seq telemetry.Sequence) (Summary, error) {
	if len(seq) == 0 {
		return Summary{}, errors.New("no records to summarize")
	}

	ret := Summary{
		Records:  len(seq),
		Duration: seq[len(seq)-1].Time - seq[0].Time,
	}

	if periods := Column(seq, telemetry.DeltaTimeField); len(periods) > 0 {
		var err error
		if ret.MeanPeriod, err = stats.Mean(periods); err != nil {
			return Summary{}, err
		}
		if ret.PeriodStdDev, err = stats.StandardDeviation(periods); err != nil {
			return Summary{}, err
		}
		if ret.MeanPeriod > 0 {
			ret.SampleRate = 1 / ret.MeanPeriod
		}
	}

	for _, path := range seq.Paths() {
		column := Column(seq, path)
		field, err := summarizeField(path, column)
		if err != nil {
			return Summary{}, errors.Wrapf(err, "field %s", path)
		}
		ret.Fields = append(ret.Fields, field)
	}
	return ret, nil
}

func summarizeField(name string, column stats.Float64Data) (FieldSummary, error) {
	ret := FieldSummary{Name: name, Samples: column.Len()}
	var err error
	if ret.Min, err = column.Min(); err != nil {
		return FieldSummary{}, err
	}
	if ret.Max, err = column.Max(); err != nil {
		return FieldSummary{}, err
	}
	if ret.Mean, err = column.Mean(); err != nil {
		return FieldSummary{}, err
	}
	if ret.StdDev, err = column.StandardDeviation(); err != nil {
		return FieldSummary{}, err
	}
	return ret, nil
}
