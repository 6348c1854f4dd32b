package rimage

import (
	"testing"

	"go.viam.com/test"
)

func TestBuildRamp(t *testing.T) {
	ramp := BuildRamp(4)
	test.That(t, ramp.Gamma(), test.ShouldEqual, 4.)
	test.That(t, ramp.Len(), test.ShouldEqual, RampSize)

	// band 0 fades white to red
	test.That(t, ramp.At(0), test.ShouldResemble, Color{255, 255, 255})
	test.That(t, ramp.At(500), test.ShouldResemble, Color{255, 223, 223})
	// band 1 runs red to yellow
	test.That(t, ramp.At(900), test.ShouldResemble, Color{255, 87, 0})
	// band 4 runs cyan to blue
	test.That(t, ramp.At(1200), test.ShouldResemble, Color{0, 255 - 62, 255})
	// past the sixth band everything is black
	test.That(t, ramp.At(1310), test.ShouldResemble, Color{})
	test.That(t, ramp.At(2047), test.ShouldResemble, Color{})

	// out of range indices clamp
	test.That(t, ramp.At(-5), test.ShouldResemble, ramp.At(0))
	test.That(t, ramp.At(1<<20), test.ShouldResemble, ramp.At(RampSize-1))
}

func TestRampForGammaCaches(t *testing.T) {
	a := RampForGamma(3)
	b := RampForGamma(3)
	test.That(t, a, test.ShouldEqual, b)
	test.That(t, RampForGamma(5), test.ShouldNotEqual, a)
	test.That(t, *a, test.ShouldResemble, *BuildRamp(3))
}

func TestColorizeWithRamp(t *testing.T) {
	ramp := RampForGamma(4)
	dm, err := NewDepthMapFromData(3, 1, []uint16{0, 900, 5000})
	test.That(t, err, test.ShouldBeNil)

	// unscaled: samples index the ramp directly
	img, err := ColorizeWithRamp(dm, 0, 0, ramp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.GetXY(0, 0), test.ShouldResemble, ramp.At(0))
	test.That(t, img.GetXY(1, 0), test.ShouldResemble, Color{255, 87, 0})
	test.That(t, img.GetXY(2, 0), test.ShouldResemble, ramp.At(RampSize-1))

	// scaled: [400, 800] widens to [300, 1000] and stretches over the table
	dm, err = NewDepthMapFromData(3, 1, []uint16{300, 1000, 100})
	test.That(t, err, test.ShouldBeNil)
	img, err = ColorizeWithRamp(dm, 800, 400, ramp)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.GetXY(0, 0), test.ShouldResemble, Color{255, 255, 255})
	test.That(t, img.GetXY(1, 0), test.ShouldResemble, ramp.At(RampSize-1))
	test.That(t, img.GetXY(2, 0), test.ShouldResemble, Color{255, 255, 255})

	_, err = ColorizeWithRamp(nil, 0, 1, ramp)
	test.That(t, IsEmptyFrameError(err), test.ShouldBeTrue)
	_, err = ColorizeWithRamp(dm, 0, 1, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
