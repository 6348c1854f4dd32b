package rimage

import (
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/golang/geo/r2"
	"golang.org/x/image/font/gofont/goregular"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// MarkerSize is the side of the square drawn for a control point.
const MarkerSize = 10

// Marker is a labelled control point to draw on a preview image.
type Marker struct {
	Label string
	Point r2.Point
	Color Color
}

// DrawMarkers returns a copy of img with a square outline centred on every marker and its
// label beside it.
func DrawMarkers(img *Image, markers []Marker) (*Image, error) {
	if err := checkImage("DrawMarkers", img); err != nil {
		return nil, err
	}
	dc := gg.NewContextForImage(img.ToNRGBA())
	dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: 12}))
	for _, m := range markers {
		dc.SetColor(m.Color)
		dc.SetLineWidth(2)
		dc.DrawRectangle(m.Point.X-MarkerSize/2, m.Point.Y-MarkerSize/2, MarkerSize, MarkerSize)
		dc.Stroke()
		if m.Label != "" {
			dc.SetColor(color.White)
			dc.DrawString(m.Label, m.Point.X+MarkerSize, m.Point.Y-MarkerSize/2)
		}
	}
	return NewImageFromStdImage(dc.Image()), nil
}
