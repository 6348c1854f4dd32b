package rimage

import (
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
)

func TestDrawMarkers(t *testing.T) {
	img := NewImage(64, 48)
	orig := img.Clone()
	out, err := DrawMarkers(img, []Marker{
		{Label: "1", Point: r2.Point{X: 15, Y: 15}, Color: Color{255, 0, 0}},
		{Point: r2.Point{X: 50, Y: 30}, Color: Color{0, 0, 255}},
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Width(), test.ShouldEqual, 64)
	test.That(t, out.Height(), test.ShouldEqual, 48)
	test.That(t, img.Equal(orig), test.ShouldBeTrue)
	test.That(t, out.Equal(img), test.ShouldBeFalse)

	// the outline is drawn, the inside is left alone
	test.That(t, out.GetXY(10, 15).R, test.ShouldBeGreaterThan, uint8(100))
	test.That(t, out.GetXY(15, 15), test.ShouldResemble, Color{})
	test.That(t, out.GetXY(45, 30).B, test.ShouldBeGreaterThan, uint8(100))

	_, err = DrawMarkers(nil, nil)
	test.That(t, IsEmptyFrameError(err), test.ShouldBeTrue)
}
