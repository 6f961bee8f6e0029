// Package telemetry decodes the binary benchmark logs written by the motion-control firmware.
//
// A log file is a short header followed by back-to-back records. Using a pseudo EBNF notation:
//
//	file = version [subversion [subsubversion]] record*
//
//	version       : uint64, big-endian
//	subversion    : uint8, only for versions that carry one (see `CarriesSubversion`)
//	subsubversion : uint8, only for versions that carry one (see `CarriesSubsubversion`)
//
//	record  = element*
//	element = scalar | slot
//	scalar  : float64, big-endian IEEE-754
//	slot    = discriminant variant_element*
//	discriminant : uint8 selecting a controller variant
//	variant_element = scalar | slot
//
// The version tag selects a `Layout`, the ordered list of elements every record in the file
// follows. There are four kinds of layouts:
//
//   - Fixed: a list of scalars. Every record is `8 * len(fields)` bytes.
//   - Subversion tables: the subversion byte indexes into a short list of fixed layouts.
//   - Bitmask layouts: a maximal ("declared") list of scalars plus a `FieldMask` computed from
//     the subversion and subsubversion (see `GenerateBitMask`). Only fields whose bit is set are
//     written, in declaration order. Nothing is written for an absent field, so the record is
//     `8 * popcount(mask)` bytes.
//   - Nested layouts: scalars interleaved with controller slots. Each slot starts with a one byte
//     discriminant naming which controller variant follows. A feed-forward variant wraps another
//     controller of the same family, which brings its own discriminant byte. For example, a
//     feed-forward controller around a PID controller is written as:
//
//	0000 0100 0000 0001 <64bit up> <64bit ui> <64bit ud> <64bit uff>
//	^ feed-forward     ^ pid
//
// There is no checksum or framing. A single lost byte misaligns every following field, so the
// decoder is strict: a record is decoded entirely or not at all, and the first malformed record
// ends the load. `Load` returns the records decoded before the failure along with the error.
//
// Some layouts do not carry an absolute timestamp (`dt`). When every record of a session has a
// zero timestamp, the loader rebuilds one as the running sum of the per-tick `robot_dt` field
// (see `ReconstructTime`).
package telemetry
