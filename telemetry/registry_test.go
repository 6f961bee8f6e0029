package telemetry

import (
	"sync"
	"testing"

	"go.viam.com/test"
)

func TestRegisteredVersions(t *testing.T) {
	versions := RegisteredVersions()
	test.That(t, len(versions), test.ShouldEqual, 15)
	for idx, version := range versions {
		test.That(t, version, test.ShouldEqual, uint64(idx))
	}
}

func TestCarriesSubTags(t *testing.T) {
	for version := uint64(0); version < 16; version++ {
		expectedSub := version == 4 || version == 10 || version == 11
		expectedSubSub := version == 10 || version == 11
		test.That(t, CarriesSubversion(version), test.ShouldEqual, expectedSub)
		test.That(t, CarriesSubsubversion(version), test.ShouldEqual, expectedSubSub)
	}
}

func TestResolveEveryTag(t *testing.T) {
	for _, tag := range allTags() {
		layout, err := Resolve(tag)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, layout.Tag(), test.ShouldResemble, tag)
		test.That(t, len(layout.Fields()), test.ShouldBeGreaterThan, 0)
		test.That(t, layout.MinLength(), test.ShouldBeGreaterThan, 0)
	}
}

func TestResolveUnregistered(t *testing.T) {
	for _, tc := range []struct {
		name string
		tag  VersionTag
	}{
		{"unknown version", NewVersionTag(15, 0, 0)},
		{"huge version", NewVersionTag(1<<40, 0, 0)},
		{"subversion zero", NewVersionTag(4, 0, 0)},
		{"subversion past table", NewVersionTag(4, 4, 0)},
		{"missing sub-tag", VersionTag{Version: 10}},
		{"extra sub-tag", VersionTag{Version: 12, HasSubversion: true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			layout, err := Resolve(tc.tag)
			test.That(t, layout, test.ShouldBeNil)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, IsSchemaError(err), test.ShouldBeTrue)
		})
	}
}

func TestResolveMemoizes(t *testing.T) {
	reg := NewRegistry()
	tag := NewVersionTag(11, 2, 3)

	var wg sync.WaitGroup
	layouts := make([]*Layout, 8)
	errs := make([]error, 8)
	for idx := range layouts {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			layouts[idx], errs[idx] = reg.Resolve(tag)
		}(idx)
	}
	wg.Wait()

	for idx, layout := range layouts {
		test.That(t, errs[idx], test.ShouldBeNil)
		test.That(t, layout, test.ShouldEqual, layouts[0])
	}
}

func TestSubversionTable(t *testing.T) {
	pid, err := Resolve(NewVersionTag(4, 1, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pid.Fields()[8:], test.ShouldResemble, []string{"up", "ui", "ud"})

	speedFF, err := Resolve(NewVersionTag(4, 2, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, speedFF.Fields()[8:], test.ShouldResemble, []string{"up", "ui", "ud", "uff"})

	base, err := Resolve(NewVersionTag(4, 3, 0))
	test.That(t, err, test.ShouldBeNil)
	length, fixed := base.FixedLength()
	test.That(t, fixed, test.ShouldBeTrue)
	test.That(t, length, test.ShouldEqual, 64)
}

func TestNestedLayouts(t *testing.T) {
	layout, err := Resolve(NewVersionTag(13, 0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, layout.Nested(), test.ShouldBeTrue)
	_, fixed := layout.FixedLength()
	test.That(t, fixed, test.ShouldBeFalse)

	fields := layout.Fields()
	test.That(t, len(fields), test.ShouldEqual, 17)
	test.That(t, fields[11], test.ShouldEqual, "controller")
	test.That(t, fields[16], test.ShouldEqual, "current_position_angle")
	test.That(t, layout.MinLength(), test.ShouldEqual, 16*8+1)

	universal, err := Resolve(NewVersionTag(14, 0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, universal.wire[24].family, test.ShouldEqual, ControllerFamily)

	distanceAngle, err := Resolve(NewVersionTag(5, 0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, distanceAngle.Fields()[20:], test.ShouldResemble, []string{"controller_distance", "controller_angle"})
	test.That(t, distanceAngle.wire[20].family, test.ShouldEqual, SubControllerFamily)
}

func TestZieglerNicholsAngleLayout(t *testing.T) {
	layout, err := Resolve(NewVersionTag(6, 0, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, layout.DeclaredFields(), test.ShouldContain, TimeField)
	test.That(t, layout.Fields(), test.ShouldNotContain, TimeField)
	length, fixed := layout.FixedLength()
	test.That(t, fixed, test.ShouldBeTrue)
	test.That(t, length, test.ShouldEqual, 56)
}

func TestUntaggedLayout(t *testing.T) {
	layout, err := UntaggedLayout("speed_forward")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, layout.Fields(), test.ShouldResemble, []string{"estimated_speed", "curvilinear_position", "robot_dt"})

	_, err = UntaggedLayout("nope")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "nope")
}

func TestVersionTagString(t *testing.T) {
	test.That(t, NewVersionTag(12, 7, 7).String(), test.ShouldEqual, "12")
	test.That(t, NewVersionTag(4, 2, 7).String(), test.ShouldEqual, "4.2")
	test.That(t, NewVersionTag(10, 2, 3).String(), test.ShouldEqual, "10.2.3")
}
