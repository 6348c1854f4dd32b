package rimage

import (
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestColorHex(t *testing.T) {
	c, err := NewColorFromHex("#0a64ff")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldResemble, Color{10, 100, 255})
	test.That(t, c.Hex(), test.ShouldEqual, "#0a64ff")

	_, err = NewColorFromHex("not a color")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestColorRGBA(t *testing.T) {
	r, g, b, a := Color{255, 0, 128}.RGBA()
	test.That(t, r, test.ShouldEqual, uint32(0xffff))
	test.That(t, g, test.ShouldEqual, uint32(0))
	test.That(t, b, test.ShouldEqual, uint32(0x8080))
	test.That(t, a, test.ShouldEqual, uint32(0xffff))

	test.That(t, NewColorFromColor(color.RGBA{1, 2, 3, 255}), test.ShouldResemble, Color{1, 2, 3})
	test.That(t, NewColorFromColor(color.Gray{77}), test.ShouldResemble, Color{77, 77, 77})
	test.That(t, NewColorFromColor(Color{4, 5, 6}), test.ShouldResemble, Color{4, 5, 6})
}

func TestColorBlend(t *testing.T) {
	test.That(t, Color{0, 100, 0}.Blend(.7, Color{}, .3), test.ShouldResemble, Color{0, 70, 0})
	test.That(t, Color{255, 255, 255}.Blend(.7, Color{255, 255, 255}, .3), test.ShouldResemble, Color{255, 255, 255})
	test.That(t, Color{10, 20, 30}.Blend(1, Color{250, 250, 250}, 1), test.ShouldResemble, Color{255, 255, 255})
	test.That(t, Color{1, 1, 1}.Blend(.5, Color{2, 2, 2}, .5), test.ShouldResemble, Color{2, 2, 2})
}
