package telemetry

import "strings"

const (
	// TimeField is the absolute timestamp field, in seconds.
	TimeField = "dt"
	// DeltaTimeField is the per-tick duration field, in seconds.
	DeltaTimeField = "robot_dt"
	// TimePath addresses `Record.Time` in `Record.Lookup`.
	TimePath = "time"
)

// Reading is a field name paired with its decoded value.
type Reading struct {
	Name  string
	Value float64
}

// Slot is a named controller slot of a record.
type Slot struct {
	Name       string
	Controller *Controller
}

// Record is one decoded record. `Readings` and `Slots` are in wire order. `Time` is the record's
// timestamp: the `dt` field when the layout carries it, else 0 until `ReconstructTime` assigns
// it along with any `dt` reading.
type Record struct {
	Time     float64
	Readings []Reading
	Slots    []Slot
}

// Get returns the value of a scalar field.
func (record *Record) Get(name string) (float64, bool) {
	return getReading(record.Readings, name)
}

// Slot returns the controller decoded for the named slot.
func (record *Record) Slot(name string) (*Controller, bool) {
	for _, slot := range record.Slots {
		if slot.Name == name {
			return slot.Controller, true
		}
	}
	return nil, false
}

// Lookup resolves a dot-delimited path. "time" is the record timestamp, a bare name is a scalar
// field and "<slot>[.inner]*.<field>" walks into a controller. E.g: "controller.inner.up".
func (record *Record) Lookup(path string) (float64, bool) {
	if path == TimePath {
		return record.Time, true
	}

	parts := strings.Split(path, ".")
	if len(parts) == 1 {
		return record.Get(path)
	}

	ctrl, ok := record.Slot(parts[0])
	if !ok {
		return 0, false
	}
	for _, part := range parts[1 : len(parts)-1] {
		if part != "inner" || ctrl.Inner == nil {
			return 0, false
		}
		ctrl = ctrl.Inner
	}
	return ctrl.Get(parts[len(parts)-1])
}

// Flatten returns every scalar in the record with fully qualified names: scalar fields first,
// then each slot's contributions.
func (record *Record) Flatten() []Reading {
	ret := make([]Reading, 0, len(record.Readings))
	ret = append(ret, record.Readings...)
	for _, slot := range record.Slots {
		if slot.Controller != nil {
			ret = slot.Controller.flatten(slot.Name, ret)
		}
	}
	return ret
}

// Sequence is the ordered list of records of one session, in file order.
type Sequence []*Record

// Paths returns the flattened field names of the first record. Records of a session share a
// layout, but controller variants may differ between records, so this is a best-effort listing.
func (seq Sequence) Paths() []string {
	if len(seq) == 0 {
		return nil
	}
	flat := seq[0].Flatten()
	ret := make([]string, len(flat))
	for idx, reading := range flat {
		ret[idx] = reading.Name
	}
	return ret
}

func getReading(readings []Reading, name string) (float64, bool) {
	for _, reading := range readings {
		if reading.Name == name {
			return reading.Value, true
		}
	}
	return 0, false
}
