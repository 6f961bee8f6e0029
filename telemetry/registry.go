package telemetry

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// entry resolves a version tag to a layout.
type entry interface {
	resolve(tag VersionTag) (*Layout, error)
}

type fixedEntry struct {
	name     string
	elements []element
}

func (fixed fixedEntry) resolve(tag VersionTag) (*Layout, error) {
	return newLayout(fixed.name, tag, fixed.elements, FullMask(len(fixed.elements))), nil
}

// subversionTable is indexed by subversion. Nil entries are unregistered subversions.
type subversionTable []*fixedEntry

func (table subversionTable) resolve(tag VersionTag) (*Layout, error) {
	if int(tag.Subversion) >= len(table) || table[tag.Subversion] == nil {
		return nil, newSchemaError(tag, "unregistered subversion %d", tag.Subversion)
	}
	return table[tag.Subversion].resolve(tag)
}

type bitmaskEntry struct {
	rule *bitmaskRule
}

func (bitmask bitmaskEntry) resolve(tag VersionTag) (*Layout, error) {
	return bitmask.rule.layout(tag), nil
}

// Field groups shared by several layouts.
var (
	benchmarkPrelude = scalars("current_error", "error", "dt", "robot_dt")

	distancePrelude = concat(benchmarkPrelude, scalars("translational_position", "translational_target"))

	distancePWM = concat(distancePrelude, scalars("left_pwm", "right_pwm"))

	pidContributions = scalars("up", "ui", "ud")

	anglePrelude = concat(benchmarkPrelude, scalars("rotational_target_deg", "rotational_position_deg"))
)

// versions is indexed by version id. The order matches the firmware's benchmark enumeration.
var versions = [...]entry{
	0: fixedEntry{"benchmark_legacy_angle", anglePrelude},
	1: fixedEntry{"benchmark_legacy_distance", distancePrelude},
	2: fixedEntry{"benchmark_legacy_distance_angle", scalars(
		"summed_error", "error", "dt", "robot_dt",
		"current_error_angle", "current_error_distance",
		"translational_position", "translational_target",
		"rotational_position_deg", "rotational_target_deg",
		"current_x", "current_y",
	)},
	3: fixedEntry{"benchmark_angle_v0_1", concat(anglePrelude, scalars(
		"ramp_speed_deg", "estimated_speed_deg", "other_estimated_speed_deg",
	))},
	4: subversionTable{
		nil,
		{"benchmark_distance_v0_1_pid", concat(distancePWM, pidContributions)},
		{"benchmark_distance_v0_1_pid_speed_feed_forward", concat(distancePWM, pidContributions, scalars("uff"))},
		{"benchmark_distance_v0_1_base", distancePWM},
	},
	5: fixedEntry{"benchmark_distance_angle_v0_1", concat(
		scalars(
			"current_error", "error", "dt", "robot_dt",
			"current_error_angle", "current_error_distance",
			"translational_position", "translational_target",
			"translational_ramp_speed", "translational_estimated_speed", "translational_other_estimated_speed",
			"rotational_position", "rotational_target",
			"rotational_ramp_speed", "rotational_estimated_speed", "rotational_other_estimated_speed",
			"current_position_x", "current_position_y",
			"left_motor", "right_motor",
		),
		[]element{
			slot("controller_distance", SubControllerFamily),
			slot("controller_angle", SubControllerFamily),
		},
	)},
	6: bitmaskEntry{bitmaskRules[6]},
	7: fixedEntry{"z_n_legacy_distance", distancePWM},
	8: fixedEntry{"z_n_legacy_angle_speed", scalars(
		"rotational_position_deg", "rotational_target_deg", "ramp_speed_deg", "estimated_speed_deg",
		"robot_dt", "left_pwm", "right_pwm",
	)},
	9: fixedEntry{"z_n_legacy_distance_speed", scalars(
		"translational_position", "translational_target", "ramp_speed", "estimated_speed",
		"robot_dt", "left_pwm", "right_pwm",
	)},
	10: bitmaskEntry{bitmaskRules[10]},
	11: bitmaskEntry{bitmaskRules[11]},
	12: fixedEntry{"benchmark_angle_v0_2", concat(
		benchmarkPrelude,
		scalars(
			"rotational_target", "rotational_position",
			"rotational_ramp_speed", "rotational_estimated_speed", "rotational_other_estimated_speed",
			"left_motor", "right_motor",
		),
		[]element{slot("controller", SubControllerFamily)},
	)},
	13: fixedEntry{"benchmark_distance_v0_2", concat(
		benchmarkPrelude,
		scalars(
			"translational_position", "translational_target",
			"translational_ramp_speed", "translational_estimated_speed", "translational_other_estimated_speed",
			"left_motor", "right_motor",
		),
		[]element{slot("controller", SubControllerFamily)},
		scalars(
			"rotational_position", "rotational_target",
			"current_position_x", "current_position_y", "current_position_angle",
		),
	)},
	14: fixedEntry{"universal_benchmark_v0_1", concat(
		scalars(
			"current_error", "error", "dt", "robot_dt",
			"current_error_angle", "current_error_distance",
			"translational_position", "translational_target",
			"translational_ramp_speed", "translational_estimated_speed", "translational_other_estimated_speed",
			"rotational_position", "rotational_target",
			"rotational_ramp_speed", "rotational_estimated_speed", "rotational_other_estimated_speed",
			"current_position_x", "current_position_y", "current_position_angle",
			"target_position_x", "target_position_y", "target_position_angle",
			"left_motor", "right_motor",
		),
		[]element{slot("controller", ControllerFamily)},
	)},
}

// untagged are layouts for captures written without a version header.
var untagged = map[string]fixedEntry{
	"speed_forward": {"speed_forward", scalars("estimated_speed", "curvilinear_position", "robot_dt")},
}

var (
	subversioned    = map[uint64]struct{}{4: {}, 10: {}, 11: {}}
	subsubversioned = map[uint64]struct{}{10: {}, 11: {}}
)

// CarriesSubversion returns whether files of this version have a subversion byte.
func CarriesSubversion(version uint64) bool {
	_, ok := subversioned[version]
	return ok
}

// CarriesSubsubversion returns whether files of this version have a subsubversion byte.
func CarriesSubsubversion(version uint64) bool {
	_, ok := subsubversioned[version]
	return ok
}

// RegisteredVersions returns the known version ids in ascending order.
func RegisteredVersions() []uint64 {
	ret := make([]uint64, 0, len(versions))
	for version, ent := range versions {
		if ent != nil {
			ret = append(ret, uint64(version))
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

// Registry resolves version tags to layouts and hands out one `*Layout` per tag.
type Registry struct {
	mu      sync.Mutex
	layouts map[VersionTag]*Layout
}

// NewRegistry returns an empty registry over the built-in version table.
func NewRegistry() *Registry {
	return &Registry{layouts: make(map[VersionTag]*Layout)}
}

var defaultRegistry = NewRegistry()

// Resolve returns the layout for `tag` from the default registry.
func Resolve(tag VersionTag) (*Layout, error) {
	return defaultRegistry.Resolve(tag)
}

// Resolve returns the layout for `tag`, or a *SchemaError for an unregistered version or
// subversion.
func (reg *Registry) Resolve(tag VersionTag) (*Layout, error) {
	if tag.HasSubversion != CarriesSubversion(tag.Version) ||
		tag.HasSubsubversion != CarriesSubsubversion(tag.Version) {
		return nil, newSchemaError(tag, "sub-tags do not match version %d", tag.Version)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if layout, ok := reg.layouts[tag]; ok {
		return layout, nil
	}

	if tag.Version >= uint64(len(versions)) || versions[tag.Version] == nil {
		return nil, newSchemaError(tag, "unregistered version %d", tag.Version)
	}
	layout, err := versions[tag.Version].resolve(tag)
	if err != nil {
		return nil, err
	}
	reg.layouts[tag] = layout
	return layout, nil
}

// UntaggedLayout returns a layout for headerless captures by name, e.g: "speed_forward".
func UntaggedLayout(name string) (*Layout, error) {
	fixed, ok := untagged[name]
	if !ok {
		return nil, errors.Errorf("unknown untagged layout %q", name)
	}
	return fixed.resolve(VersionTag{})
}
