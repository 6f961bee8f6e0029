package telemetry

import (
	"bytes"
	"encoding/binary"
	"math"
)

// logBuilder writes log bytes the way the firmware does.
type logBuilder struct {
	buf bytes.Buffer
}

func (builder *logBuilder) header(version uint64, subTags ...byte) *logBuilder {
	//nolint:errcheck
	binary.Write(&builder.buf, binary.BigEndian, version)
	builder.buf.Write(subTags)
	return builder
}

func (builder *logBuilder) floats(values ...float64) *logBuilder {
	for _, value := range values {
		//nolint:errcheck
		binary.Write(&builder.buf, binary.BigEndian, math.Float64bits(value))
	}
	return builder
}

func (builder *logBuilder) kinds(kinds ...ControllerKind) *logBuilder {
	for _, kind := range kinds {
		builder.buf.WriteByte(byte(kind))
	}
	return builder
}

func (builder *logBuilder) raw(data ...byte) *logBuilder {
	builder.buf.Write(data)
	return builder
}

func (builder *logBuilder) bytes() []byte {
	return builder.buf.Bytes()
}

// allTags enumerates every version tag the registry can resolve.
func allTags() []VersionTag {
	var ret []VersionTag
	for _, version := range RegisteredVersions() {
		switch {
		case version == 4:
			for sv := uint8(1); sv <= 3; sv++ {
				ret = append(ret, NewVersionTag(version, sv, 0))
			}
		case CarriesSubsubversion(version):
			for sv := uint8(0); sv <= 3; sv++ {
				for ssv := uint8(0); ssv <= 3; ssv++ {
					ret = append(ret, NewVersionTag(version, sv, ssv))
				}
			}
		default:
			ret = append(ret, NewVersionTag(version, 0, 0))
		}
	}
	return ret
}

// sampleValue returns a distinct, awkward float per position so misaligned decodes are visible.
func sampleValue(idx int) float64 {
	switch idx % 4 {
	case 0:
		return float64(idx) + 0.1
	case 1:
		return -math.Pi * float64(idx)
	case 2:
		return math.SmallestNonzeroFloat64 * float64(idx)
	default:
		return 1e300 / float64(idx)
	}
}

// synthesize packs one record for `layout`. Every slot holds a feed-forward around a PID. It
// returns the bytes and the readings `Flatten` should produce.
func synthesize(layout *Layout) ([]byte, []Reading) {
	builder := &logBuilder{}
	var scalarReadings, slotReadings []Reading
	next := 0
	value := func() float64 {
		next++
		return sampleValue(next)
	}

	for _, elem := range layout.wire {
		if !elem.isSlot() {
			val := value()
			builder.floats(val)
			scalarReadings = append(scalarReadings, Reading{Name: elem.name, Value: val})
			continue
		}

		builder.kinds(KindFeedForward, KindPID)
		for _, field := range []string{"inner.up", "inner.ui", "inner.ud", "uff"} {
			val := value()
			builder.floats(val)
			slotReadings = append(slotReadings, Reading{Name: elem.name + "." + field, Value: val})
		}
	}
	return builder.bytes(), append(scalarReadings, slotReadings...)
}

func bitsOf(readings []Reading) map[string]uint64 {
	ret := make(map[string]uint64, len(readings))
	for _, reading := range readings {
		ret[reading.Name] = math.Float64bits(reading.Value)
	}
	return ret
}
