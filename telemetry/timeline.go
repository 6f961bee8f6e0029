package telemetry

// ReconstructTime rebuilds record times for layouts without an absolute timestamp. When every
// record's `Time` is exactly zero, each `Time` is set to the running sum of `robot_dt` up to and
// including that record, and true is returned. Otherwise the sequence is left untouched. A
// record carrying a `dt` reading has it set to the same value.
//
// Records without a `robot_dt` field count as a zero delta. Calling it again on its own output
// is a no-op unless every delta was zero.
func ReconstructTime(seq Sequence) bool {
	if len(seq) == 0 {
		return false
	}
	for _, record := range seq {
		if record.Time != 0 {
			return false
		}
	}

	var elapsed float64
	for _, record := range seq {
		delta, _ := record.Get(DeltaTimeField)
		elapsed += delta
		record.Time = elapsed
		for idx := range record.Readings {
			if record.Readings[idx].Name == TimeField {
				record.Readings[idx].Value = elapsed
			}
		}
	}
	return true
}
