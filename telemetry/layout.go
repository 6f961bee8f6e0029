package telemetry

import (
	"fmt"
	"math/bits"
)

// VersionTag is the header of a log file. The sub-tags are only meaningful when their `Has*`
// flag is set, which depends on the version (see `CarriesSubversion`).
type VersionTag struct {
	Version          uint64
	Subversion       uint8
	Subsubversion    uint8
	HasSubversion    bool
	HasSubsubversion bool
}

// NewVersionTag builds the tag a file with the given bytes would carry, dropping sub-tags the
// version does not use.
func NewVersionTag(version uint64, subversion, subsubversion uint8) VersionTag {
	tag := VersionTag{Version: version}
	if CarriesSubversion(version) {
		tag.HasSubversion = true
		tag.Subversion = subversion
	}
	if CarriesSubsubversion(version) {
		tag.HasSubsubversion = true
		tag.Subsubversion = subsubversion
	}
	return tag
}

// String returns e.g: "12", "4.2" or "10.2.3".
func (tag VersionTag) String() string {
	switch {
	case tag.HasSubsubversion:
		return fmt.Sprintf("%d.%d.%d", tag.Version, tag.Subversion, tag.Subsubversion)
	case tag.HasSubversion:
		return fmt.Sprintf("%d.%d", tag.Version, tag.Subversion)
	default:
		return fmt.Sprintf("%d", tag.Version)
	}
}

// FieldMask is a bit-set over a layout's declared elements. Bit `i` set means declared element
// `i` is present on the wire.
type FieldMask uint64

// FullMask returns a mask with the low `numFields` bits set.
func FullMask(numFields int) FieldMask {
	if numFields >= 64 {
		return ^FieldMask(0)
	}
	return FieldMask(1)<<numFields - 1
}

// Has returns whether the bit for declared element `idx` is set.
func (mask FieldMask) Has(idx int) bool {
	return mask&(FieldMask(1)<<idx) != 0
}

// Count returns the number of present elements.
func (mask FieldMask) Count() int {
	return bits.OnesCount64(uint64(mask))
}

// Without clears the bits for the input declared element indexes.
func (mask FieldMask) Without(idxs ...int) FieldMask {
	for _, idx := range idxs {
		mask &^= FieldMask(1) << idx
	}
	return mask
}

// element is either a scalar (`family == nil`) or a controller slot.
type element struct {
	name   string
	family *Family
}

func (elem element) isSlot() bool {
	return elem.family != nil
}

func scalars(names ...string) []element {
	ret := make([]element, len(names))
	for idx, name := range names {
		ret[idx] = element{name: name}
	}
	return ret
}

func slot(name string, family *Family) element {
	return element{name: name, family: family}
}

// concat joins element groups into a fresh slice.
func concat(groups ...[]element) []element {
	var ret []element
	for _, group := range groups {
		ret = append(ret, group...)
	}
	return ret
}

// Layout describes the shape of every record in one session. Layouts are immutable.
type Layout struct {
	name     string
	tag      VersionTag
	declared []element
	mask     FieldMask
	// wire is `declared` filtered by `mask`, in declaration order.
	wire []element
	// fixedLen is the record size in bytes, or -1 when the layout has controller slots.
	fixedLen int
}

func newLayout(name string, tag VersionTag, declared []element, mask FieldMask) *Layout {
	layout := &Layout{
		name:     name,
		tag:      tag,
		declared: declared,
		mask:     mask,
		fixedLen: 0,
	}
	for idx, elem := range declared {
		if !mask.Has(idx) {
			continue
		}
		layout.wire = append(layout.wire, elem)
		if elem.isSlot() {
			layout.fixedLen = -1
		} else if layout.fixedLen >= 0 {
			layout.fixedLen += 8
		}
	}
	return layout
}

// Name is the layout's registered name, e.g: "benchmark_angle_v0_2".
func (layout *Layout) Name() string {
	return layout.name
}

// Tag is the version tag the layout was resolved for.
func (layout *Layout) Tag() VersionTag {
	return layout.tag
}

// Mask is the present-field mask over `DeclaredFields`.
func (layout *Layout) Mask() FieldMask {
	return layout.mask
}

// DeclaredFields returns the maximal element list, present or not.
func (layout *Layout) DeclaredFields() []string {
	return elementNames(layout.declared)
}

// Fields returns the names of the elements present on the wire, in wire order. Controller slots
// are included by name.
func (layout *Layout) Fields() []string {
	return elementNames(layout.wire)
}

// FixedLength returns the record size in bytes. The second return value is false for layouts
// with controller slots, whose size depends on the discriminants read.
func (layout *Layout) FixedLength() (int, bool) {
	if layout.fixedLen < 0 {
		return 0, false
	}
	return layout.fixedLen, true
}

// MinLength is the smallest possible record size: every scalar plus one discriminant byte per
// slot.
func (layout *Layout) MinLength() int {
	ret := 0
	for _, elem := range layout.wire {
		if elem.isSlot() {
			ret++
		} else {
			ret += 8
		}
	}
	return ret
}

// Nested returns whether records carry controller slots.
func (layout *Layout) Nested() bool {
	return layout.fixedLen < 0
}

func (layout *Layout) String() string {
	return fmt.Sprintf("%s (version %v)", layout.name, layout.tag)
}

func elementNames(elems []element) []string {
	ret := make([]string, len(elems))
	for idx, elem := range elems {
		ret[idx] = elem.name
	}
	return ret
}
