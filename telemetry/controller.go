package telemetry

import "fmt"

// MaxControllerDepth bounds how many feed-forward wrappers the decoder follows. Real logs nest at
// most a couple of levels, deeper input is treated as corrupt.
const MaxControllerDepth = 16

// ControllerKind is the discriminant byte written before a controller.
type ControllerKind uint8

const (
	// KindNone is a controller slot with no contributions.
	KindNone ControllerKind = iota
	// KindPID carries the proportional, integral and derivative contributions.
	KindPID
	// KindPIDSpeedFeedForward is a PID plus a speed feed-forward contribution.
	KindPIDSpeedFeedForward
	// KindPIDFilteredD is a PID whose derivative is filtered, plus the unfiltered derivative.
	KindPIDFilteredD
	// KindFeedForward wraps an inner controller of the same family and adds a feed-forward term.
	KindFeedForward
)

// variant is the static description of one controller kind.
type variant struct {
	kind ControllerKind
	name string
	// inner is true when the variant starts with a nested controller.
	inner  bool
	fields []string
}

// controllerVariants is indexed by discriminant byte.
var controllerVariants = [...]variant{
	KindNone:                {kind: KindNone, name: "none"},
	KindPID:                 {kind: KindPID, name: "pid", fields: []string{"up", "ui", "ud"}},
	KindPIDSpeedFeedForward: {kind: KindPIDSpeedFeedForward, name: "pid_speed_feed_forward", fields: []string{"up", "ui", "ud", "uff"}},
	KindPIDFilteredD:        {kind: KindPIDFilteredD, name: "pid_filtered_d", fields: []string{"up", "ui", "ud", "raw_ud"}},
	KindFeedForward:         {kind: KindFeedForward, name: "feed_forward", inner: true, fields: []string{"uff"}},
}

func (kind ControllerKind) String() string {
	if int(kind) < len(controllerVariants) {
		return controllerVariants[kind].name
	}
	return fmt.Sprintf("unknown(%d)", uint8(kind))
}

// Family is a set of controller variants that may nest inside one another. The firmware writes
// two families with the same shapes: top-level controllers (universal benchmark) and
// sub-controllers (per-axis benchmarks). They are kept apart so a file can never mix them.
type Family struct {
	name     string
	variants []variant
}

var (
	// ControllerFamily is the family used by the universal benchmark's single controller slot.
	ControllerFamily = &Family{name: "controller", variants: controllerVariants[:]}
	// SubControllerFamily is the family used by the per-axis benchmark controller slots.
	SubControllerFamily = &Family{name: "sub_controller", variants: controllerVariants[:]}
)

// Name returns the family name.
func (family *Family) Name() string {
	return family.name
}

func (family *Family) variant(discriminant byte) (variant, bool) {
	if int(discriminant) >= len(family.variants) {
		return variant{}, false
	}
	return family.variants[discriminant], true
}

// Controller is a decoded controller contribution breakdown. `Inner` is set only for
// `KindFeedForward`.
type Controller struct {
	Family   *Family
	Kind     ControllerKind
	Readings []Reading
	Inner    *Controller
}

// Get returns the named contribution of this controller, not looking into `Inner`.
func (ctrl *Controller) Get(name string) (float64, bool) {
	return getReading(ctrl.Readings, name)
}

// Depth is 1 for a controller without an inner controller.
func (ctrl *Controller) Depth() int {
	depth := 1
	for inner := ctrl.Inner; inner != nil; inner = inner.Inner {
		depth++
	}
	return depth
}

// flatten appends "<prefix>.<field>" readings, and "<prefix>.inner.<field>" for nested ones.
func (ctrl *Controller) flatten(prefix string, ret []Reading) []Reading {
	if ctrl.Inner != nil {
		ret = ctrl.Inner.flatten(prefix+".inner", ret)
	}
	for _, reading := range ctrl.Readings {
		ret = append(ret, Reading{Name: prefix + "." + reading.Name, Value: reading.Value})
	}
	return ret
}
