package rimage

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// Color is an 8-bit RGB triple. It satisfies color.Color as an opaque color.
type Color struct {
	R, G, B uint8
}

// NewColor returns the color with the given channels.
func NewColor(r, g, b uint8) Color {
	return Color{r, g, b}
}

func (c Color) String() string {
	return fmt.Sprintf("%s (%d,%d,%d)", c.Hex(), c.R, c.G, c.B)
}

// Hex renders the color as #rrggbb.
func (c Color) Hex() string {
	return c.toColorful().Hex()
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	a = 0xffff
	return
}

func (c Color) toColorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Blend returns the per channel weighted sum a*c + b*other, rounded and saturated.
func (c Color) Blend(a float64, other Color, b float64) Color {
	return Color{
		R: blendChannel(c.R, a, other.R, b),
		G: blendChannel(c.G, a, other.G, b),
		B: blendChannel(c.B, a, other.B, b),
	}
}

func blendChannel(x uint8, a float64, y uint8, b float64) uint8 {
	v := a*float64(x) + b*float64(y) + .5
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// NewColorFromHex parses #rrggbb or #rgb.
func NewColorFromHex(hex string) (Color, error) {
	cc, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, errors.Wrapf(err, "couldn't parse hex %q", hex)
	}
	return NewColorFromColorful(cc), nil
}

// NewColorFromColorful clamps a colorful color into 8-bit channels.
func NewColorFromColorful(cc colorful.Color) Color {
	r, g, b := cc.Clamped().RGB255()
	return Color{r, g, b}
}

// NewColorFromColor converts any color.Color, dropping alpha.
func NewColorFromColor(c color.Color) Color {
	switch cc := c.(type) {
	case Color:
		return cc
	case color.RGBA:
		return Color{cc.R, cc.G, cc.B}
	case color.NRGBA:
		return Color{cc.R, cc.G, cc.B}
	}
	nrgba, ok := color.NRGBAModel.Convert(c).(color.NRGBA)
	if !ok {
		panic(fmt.Errorf("bad color %v", c))
	}
	return Color{nrgba.R, nrgba.G, nrgba.B}
}

// ColorModel converts any color to a Color.
var ColorModel = color.ModelFunc(func(c color.Color) color.Color {
	return NewColorFromColor(c)
})
