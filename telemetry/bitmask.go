package telemetry

// noBit marks a bitmask layout without a conditional field for that tag.
const noBit = -1

// bitmaskRule is a parametric layout: a declared field list, the fields always present, and at
// most one extra field toggled by the subversion and one toggled by the subsubversion.
type bitmaskRule struct {
	name             string
	declared         []string
	base             FieldMask
	subversionBit    int
	subsubversionBit int
}

// isTrigger reports whether a sub-tag value switches its conditional field on.
func isTrigger(value uint8) bool {
	return value == 2 || value == 3
}

func (rule *bitmaskRule) mask(subversion, subsubversion uint8) FieldMask {
	mask := rule.base
	if rule.subversionBit != noBit && isTrigger(subversion) {
		mask |= FieldMask(1) << rule.subversionBit
	}
	if rule.subsubversionBit != noBit && isTrigger(subsubversion) {
		mask |= FieldMask(1) << rule.subsubversionBit
	}
	return mask
}

func (rule *bitmaskRule) layout(tag VersionTag) *Layout {
	return newLayout(rule.name, tag, scalars(rule.declared...), rule.mask(tag.Subversion, tag.Subsubversion))
}

// zieglerNicholsAngleFields are the Ziegler-Nichols angle capture fields. `dt` is declared but
// never written, the loader rebuilds it from `robot_dt`.
var zieglerNicholsAngleFields = []string{
	"position", "target", "ramp_speed", "estimated_speed", "robot_dt", "left_pwm", "right_pwm", "dt",
}

// legacyCurveFields are the curve benchmark fields. The feed-forward terms follow the PID terms of
// both loops, each written only when its sub-tag turns feed-forward on.
var legacyCurveFields = []string{
	"current_error", "error", "dt", "robot_dt",
	"translational_position", "translational_target",
	"left_pwm", "right_pwm",
	"x", "y", "a", "target_x", "target_y",
	"up", "ui", "ud",
	"up_angle", "ui_angle", "ud_angle",
	"uff", "uff_angle",
}

var curveV01Fields = []string{
	"current_error", "error", "dt", "robot_dt",
	"translational_position", "translational_target",
	"translational_ramp_speed", "translational_estimated_speed", "translational_other_estimated_speed",
	"rotational_position_deg", "rotational_target_deg",
	"left_pwm", "right_pwm",
	"x", "y", "a", "target_x", "target_y",
	"up", "ui", "ud",
	"up_angle", "ui_angle", "ud_angle",
	"uff", "uff_angle",
}

// bitmaskRules is keyed by version.
var bitmaskRules = map[uint64]*bitmaskRule{
	6: {
		name:             "z_n_legacy_angle",
		declared:         zieglerNicholsAngleFields,
		base:             FullMask(7),
		subversionBit:    noBit,
		subsubversionBit: noBit,
	},
	10: {
		name:             "benchmark_legacy_curve",
		declared:         legacyCurveFields,
		base:             FullMask(len(legacyCurveFields)).Without(19, 20),
		subversionBit:    19,
		subsubversionBit: 20,
	},
	11: {
		name:     "benchmark_curve_v0_1",
		declared: curveV01Fields,
		// The other speed estimate is declared but this file family never writes it.
		base:             FullMask(len(curveV01Fields)).Without(8, 24, 25),
		subversionBit:    24,
		subsubversionBit: 25,
	},
}

// GenerateBitMask returns the present-field mask of a bitmask layout version for the given
// sub-tags. It is a pure function of its inputs. Versions 10 and 11 gain one field per sub-tag
// set to 2 or 3. Version 6 carries no sub-tags and always returns the same mask.
func GenerateBitMask(version uint64, subversion, subsubversion uint8) (FieldMask, error) {
	rule, ok := bitmaskRules[version]
	if !ok {
		return 0, newSchemaError(NewVersionTag(version, subversion, subsubversion),
			"version %d does not use a bitmask layout", version)
	}
	return rule.mask(subversion, subsubversion), nil
}

// RecordLength returns the byte length of a record under `mask`.
func RecordLength(mask FieldMask) int {
	return 8 * mask.Count()
}
