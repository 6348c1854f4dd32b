package calibration

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.sandcal.dev/sandcal/rimage/transform"
)

func TestDefaultControlPoints(t *testing.T) {
	cp := DefaultControlPoints(640, 480)
	test.That(t, cp.Box, test.ShouldResemble, transform.Quad{{X: 15, Y: 15}, {X: 635, Y: 15}, {X: 635, Y: 475}, {X: 15, Y: 475}})
	test.That(t, cp.Mire, test.ShouldResemble, cp.Box)
	test.That(t, cp.Depth, test.ShouldResemble, [2]r2.Point{{X: 55, Y: 235}, {X: 595, Y: 235}})

	half := DefaultControlPoints(320, 240)
	test.That(t, half.Box[2], test.ShouldResemble, r2.Point{X: 317.5, Y: 237.5})

	_, err := transform.EstimateHomography(half.Box, 320, 240, false)
	test.That(t, err, test.ShouldBeNil)
}

func TestParseControlGroup(t *testing.T) {
	for _, name := range []string{"box", "mire", "depth"} {
		g, err := ParseControlGroup(name)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, string(g), test.ShouldEqual, name)
	}
	_, err := ParseControlGroup("corner")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestControlPointsGet(t *testing.T) {
	cp := DefaultControlPoints(640, 480)
	pts := cp.Get(GroupDepth)
	test.That(t, pts, test.ShouldHaveLength, 2)
	pts[0] = r2.Point{}
	test.That(t, cp.Depth[0], test.ShouldResemble, r2.Point{X: 55, Y: 235})
	test.That(t, cp.Get(ControlGroup("x")), test.ShouldBeNil)
}
