package calibration

import (
	"testing"

	"go.viam.com/test"

	"go.sandcal.dev/sandcal/rimage"
	"go.sandcal.dev/sandcal/testutils"
)

func TestSuggestDepthRange(t *testing.T) {
	// samples 1..100 in a 10x10 frame, plus a hole of zeros that must be ignored
	dm := testutils.DepthMapFunc(10, 10, func(x, y int) uint16 { return uint16(y*10 + x + 1) })
	withHoles := testutils.DepthMapFunc(10, 11, func(x, y int) uint16 {
		if y == 10 {
			return 0
		}
		return uint16(y*10 + x + 1)
	})
	for _, m := range []*rimage.DepthMap{dm, withHoles} {
		lo, hi, err := SuggestDepthRange(m, 5, 95)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, lo, test.ShouldEqual, 5)
		test.That(t, hi, test.ShouldEqual, 95)
	}

	_, _, err := SuggestDepthRange(dm, 50, 10)
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = SuggestDepthRange(rimage.NewEmptyDepthMap(4, 4), 5, 95)
	test.That(t, err, test.ShouldNotBeNil)
	_, _, err = SuggestDepthRange(nil, 5, 95)
	test.That(t, rimage.IsEmptyFrameError(err), test.ShouldBeTrue)
}

func TestComputeDepthStats(t *testing.T) {
	dm := testutils.DepthMapFunc(4, 1, func(x, _ int) uint16 { return []uint16{0, 100, 200, 300}[x] })
	s, err := ComputeDepthStats(dm)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s.Valid, test.ShouldEqual, 3)
	test.That(t, s.Min, test.ShouldEqual, 100.0)
	test.That(t, s.Max, test.ShouldEqual, 300.0)
	test.That(t, s.Mean, test.ShouldEqual, 200.0)
	test.That(t, s.Median, test.ShouldEqual, 200.0)
	test.That(t, s.StdDev, test.ShouldAlmostEqual, 81.6496, 1e-3)
}
