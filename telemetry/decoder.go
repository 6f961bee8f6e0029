package telemetry

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// cursor reads one record's worth of wire elements and remembers how far into the record it
// is, so a short read can report how many bytes the record had.
type cursor struct {
	reader io.Reader
	tag    VersionTag
	read   int
	buf    [8]byte
}

// next returns the next `size` bytes of the record. `io.EOF` is only returned when nothing of
// the record was read yet. A partial read is a *LengthError.
func (cur *cursor) next(size int) ([]byte, error) {
	n, err := io.ReadFull(cur.reader, cur.buf[:size])
	before := cur.read
	cur.read += n
	switch {
	case err == nil:
		return cur.buf[:size], nil
	case errors.Is(err, io.EOF) && before == 0:
		return nil, io.EOF
	case errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF):
		return nil, &LengthError{Record: -1, Need: before + size, Got: cur.read}
	default:
		return nil, errors.Wrap(err, "error reading record")
	}
}

func (cur *cursor) float() (float64, error) {
	raw, err := cur.next(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(raw)), nil
}

func (cur *cursor) discriminant() (byte, error) {
	raw, err := cur.next(1)
	if err != nil {
		return 0, err
	}
	return raw[0], nil
}

// Decode decodes a single record from `data`. Bytes past the end of the record are ignored.
func (layout *Layout) Decode(data []byte) (*Record, error) {
	if need := layout.MinLength(); len(data) < need {
		return nil, &LengthError{Record: -1, Need: need, Got: len(data)}
	}
	return layout.decode(&cursor{reader: bytes.NewReader(data), tag: layout.tag})
}

// DecodeFrom reads and decodes the next record of a stream. It returns `io.EOF`, unwrapped,
// when the stream ends exactly at a record boundary and a *LengthError when it ends inside a
// record.
func (layout *Layout) DecodeFrom(reader io.Reader) (*Record, error) {
	if layout.fixedLen < 0 {
		return layout.decode(&cursor{reader: reader, tag: layout.tag})
	}

	// Fixed records are read as one chunk so a short chunk is reported against the full record
	// length.
	chunk := make([]byte, layout.fixedLen)
	n, err := io.ReadFull(reader, chunk)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return nil, &LengthError{Record: -1, Need: layout.fixedLen, Got: n}
	default:
		return nil, errors.Wrap(err, "error reading record")
	}
	return layout.decode(&cursor{reader: bytes.NewReader(chunk), tag: layout.tag})
}

func (layout *Layout) decode(cur *cursor) (*Record, error) {
	record := &Record{Readings: make([]Reading, 0, len(layout.wire))}
	for _, elem := range layout.wire {
		if elem.isSlot() {
			ctrl, err := decodeController(cur, elem.family, 1)
			if err != nil {
				return nil, err
			}
			record.Slots = append(record.Slots, Slot{Name: elem.name, Controller: ctrl})
			continue
		}

		value, err := cur.float()
		if err != nil {
			return nil, err
		}
		record.Readings = append(record.Readings, Reading{Name: elem.name, Value: value})
	}

	if dt, ok := record.Get(TimeField); ok {
		record.Time = dt
	}
	return record, nil
}

// DecodeController decodes one discriminant-prefixed controller of `family` from `data`.
func DecodeController(family *Family, data []byte) (*Controller, error) {
	ctrl, err := decodeController(&cursor{reader: bytes.NewReader(data)}, family, 1)
	if errors.Is(err, io.EOF) {
		return nil, &LengthError{Record: -1, Need: 1, Got: 0}
	}
	return ctrl, err
}

// decodeController reads a discriminant byte, then the variant's inner controller when it has
// one, then the variant's own fields.
func decodeController(cur *cursor, family *Family, depth int) (*Controller, error) {
	if depth > MaxControllerDepth {
		return nil, newSchemaError(cur.tag, "%s nesting exceeds depth %d", family.name, MaxControllerDepth)
	}

	discriminant, err := cur.discriminant()
	if err != nil {
		return nil, err
	}
	vari, ok := family.variant(discriminant)
	if !ok {
		return nil, newSchemaError(cur.tag, "unknown %s discriminant %d", family.name, discriminant)
	}

	ctrl := &Controller{Family: family, Kind: vari.kind}
	if vari.inner {
		if ctrl.Inner, err = decodeController(cur, family, depth+1); err != nil {
			return nil, err
		}
	}
	if len(vari.fields) > 0 {
		ctrl.Readings = make([]Reading, 0, len(vari.fields))
	}
	for _, name := range vari.fields {
		value, err := cur.float()
		if err != nil {
			return nil, err
		}
		ctrl.Readings = append(ctrl.Readings, Reading{Name: name, Value: value})
	}
	return ctrl, nil
}
