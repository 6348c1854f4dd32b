package utils

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestClamp(t *testing.T) {
	test.That(t, ClampF64(-1, 0, 1), test.ShouldEqual, 0.)
	test.That(t, ClampF64(2, 0, 1), test.ShouldEqual, 1.)
	test.That(t, ClampF64(.5, 0, 1), test.ShouldEqual, .5)
	test.That(t, ClampInt(-5, 0, 10), test.ShouldEqual, 0)
	test.That(t, ClampInt(50, 0, 10), test.ShouldEqual, 10)
	test.That(t, ClampInt(7, 0, 10), test.ShouldEqual, 7)
}

func TestRoundToUint8(t *testing.T) {
	test.That(t, RoundToUint8(-3), test.ShouldEqual, uint8(0))
	test.That(t, RoundToUint8(254.5), test.ShouldEqual, uint8(255))
	test.That(t, RoundToUint8(300), test.ShouldEqual, uint8(255))
	test.That(t, RoundToUint8(10.49), test.ShouldEqual, uint8(10))
}

func TestIsFinite(t *testing.T) {
	test.That(t, IsFinite(1), test.ShouldBeTrue)
	test.That(t, IsFinite(math.NaN()), test.ShouldBeFalse)
	test.That(t, IsFinite(math.Inf(-1)), test.ShouldBeFalse)
	test.That(t, Float64AlmostEqual(1, 1.0001, 1e-3), test.ShouldBeTrue)
}

func TestSafeJoinDir(t *testing.T) {
	p, err := SafeJoinDir("/tmp/frames", "rgb_00001.ppm")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldEqual, "/tmp/frames/rgb_00001.ppm")

	_, err = SafeJoinDir("/tmp/frames", "../etc/passwd")
	test.That(t, err, test.ShouldNotBeNil)
}
