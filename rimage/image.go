package rimage

import (
	"image"
	"image/color"
	"image/draw"
)

// Image is an owned, packed 8-bit RGB buffer. Pixel (x, y) lives at Pix()[y*Stride()+3*x].
type Image struct {
	width, height int
	stride        int
	pix           []uint8
}

// NewImage returns a black image of the given size.
func NewImage(width, height int) *Image {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Image{
		width:  width,
		height: height,
		stride: 3 * width,
		pix:    make([]uint8, 3*width*height),
	}
}

// NewImageFromBuffer wraps pix, which must hold exactly width*height RGB triples. The image
// takes ownership of pix.
func NewImageFromBuffer(width, height int, pix []uint8) (*Image, error) {
	if width <= 0 || height <= 0 || pix == nil {
		return nil, NewEmptyFrameError("NewImageFromBuffer")
	}
	if len(pix) != 3*width*height {
		return nil, NewDimensionMismatchError("NewImageFromBuffer", len(pix)/3, 1, width*height, 1)
	}
	return &Image{width: width, height: height, stride: 3 * width, pix: pix}, nil
}

// NewImageFromStdImage copies any image.Image into an Image anchored at (0, 0).
func NewImageFromStdImage(img image.Image) *Image {
	if ri, ok := img.(*Image); ok {
		return ri.Clone()
	}
	bounds := img.Bounds()
	out := NewImage(bounds.Dx(), bounds.Dy())

	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
		bounds = nrgba.Bounds()
	}
	for y := 0; y < out.height; y++ {
		src := nrgba.Pix[nrgba.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		dst := out.pix[y*out.stride:]
		for x := 0; x < out.width; x++ {
			dst[3*x] = src[4*x]
			dst[3*x+1] = src[4*x+1]
			dst[3*x+2] = src[4*x+2]
		}
	}
	return out
}

// ColorModel implements image.Image.
func (i *Image) ColorModel() color.Model {
	return ColorModel
}

// Bounds implements image.Image.
func (i *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, i.width, i.height)
}

// At implements image.Image.
func (i *Image) At(x, y int) color.Color {
	if !i.In(x, y) {
		return Color{}
	}
	return i.GetXY(x, y)
}

// Width returns the horizontal pixel count.
func (i *Image) Width() int {
	return i.width
}

// Height returns the vertical pixel count.
func (i *Image) Height() int {
	return i.height
}

// Stride is the byte distance between vertically adjacent pixels.
func (i *Image) Stride() int {
	return i.stride
}

// Pix exposes the backing buffer.
func (i *Image) Pix() []uint8 {
	return i.pix
}

// In reports whether (x, y) is inside the image.
func (i *Image) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < i.width && y < i.height
}

func (i *Image) kxy(x, y int) int {
	return y*i.stride + 3*x
}

// GetXY returns the pixel at (x, y), which must be in bounds.
func (i *Image) GetXY(x, y int) Color {
	k := i.kxy(x, y)
	return Color{i.pix[k], i.pix[k+1], i.pix[k+2]}
}

// Get is GetXY for an image.Point.
func (i *Image) Get(p image.Point) Color {
	return i.GetXY(p.X, p.Y)
}

// SetXY writes the pixel at (x, y), which must be in bounds.
func (i *Image) SetXY(x, y int, c Color) {
	k := i.kxy(x, y)
	i.pix[k] = c.R
	i.pix[k+1] = c.G
	i.pix[k+2] = c.B
}

// Set implements draw.Image.
func (i *Image) Set(x, y int, c color.Color) {
	if !i.In(x, y) {
		return
	}
	i.SetXY(x, y, NewColorFromColor(c))
}

// Fill paints every pixel with c.
func (i *Image) Fill(c Color) {
	for k := 0; k+2 < len(i.pix); k += 3 {
		i.pix[k] = c.R
		i.pix[k+1] = c.G
		i.pix[k+2] = c.B
	}
}

// Clone returns a deep copy.
func (i *Image) Clone() *Image {
	pix := make([]uint8, len(i.pix))
	copy(pix, i.pix)
	return &Image{width: i.width, height: i.height, stride: i.stride, pix: pix}
}

// Equal reports whether both images have the same size and pixels.
func (i *Image) Equal(other *Image) bool {
	if i.width != other.width || i.height != other.height {
		return false
	}
	for y := 0; y < i.height; y++ {
		a := i.pix[y*i.stride : y*i.stride+3*i.width]
		b := other.pix[y*other.stride : y*other.stride+3*other.width]
		for k := range a {
			if a[k] != b[k] {
				return false
			}
		}
	}
	return true
}

// ToNRGBA converts to the standard library's NRGBA, for encoders.
func (i *Image) ToNRGBA() *image.NRGBA {
	out := image.NewNRGBA(i.Bounds())
	for y := 0; y < i.height; y++ {
		src := i.pix[y*i.stride:]
		dst := out.Pix[y*out.Stride:]
		for x := 0; x < i.width; x++ {
			dst[4*x] = src[3*x]
			dst[4*x+1] = src[3*x+1]
			dst[4*x+2] = src[3*x+2]
			dst[4*x+3] = 0xff
		}
	}
	return out
}
