package rimage

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// MaxDepth is the largest value a depth sample can hold.
const MaxDepth = 65535

// DepthMap is a width x height grid of unsigned 16-bit depth samples in row-major order.
// It reads as a Gray16 image.
type DepthMap struct {
	width  int
	height int

	data []uint16
}

// NewEmptyDepthMap returns a zeroed depth map.
func NewEmptyDepthMap(width, height int) *DepthMap {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]uint16, width*height),
	}
}

// NewDepthMapFromData wraps data, which must hold exactly width*height samples. The map takes
// ownership of data.
func NewDepthMapFromData(width, height int, data []uint16) (*DepthMap, error) {
	if width <= 0 || height <= 0 || data == nil {
		return nil, NewEmptyFrameError("NewDepthMapFromData")
	}
	if len(data) != width*height {
		return nil, NewDimensionMismatchError("NewDepthMapFromData", len(data), 1, width*height, 1)
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

// ConvertImageToDepthMap takes a gray image and reads its 16-bit luminance as depth.
func ConvertImageToDepthMap(img image.Image) (*DepthMap, error) {
	switch ii := img.(type) {
	case *DepthMap:
		return ii, nil
	case *image.Gray16:
		bounds := ii.Bounds()
		dm := NewEmptyDepthMap(bounds.Dx(), bounds.Dy())
		for y := 0; y < dm.height; y++ {
			for x := 0; x < dm.width; x++ {
				dm.data[y*dm.width+x] = ii.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y
			}
		}
		return dm, nil
	case *image.Gray:
		bounds := ii.Bounds()
		dm := NewEmptyDepthMap(bounds.Dx(), bounds.Dy())
		for y := 0; y < dm.height; y++ {
			for x := 0; x < dm.width; x++ {
				dm.data[y*dm.width+x] = uint16(ii.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return dm, nil
	default:
		return nil, errors.Errorf("don't know how to make DepthMap from %T", img)
	}
}

// Width returns the horizontal sample count.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical sample count.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Data exposes the row-major backing slice.
func (dm *DepthMap) Data() []uint16 {
	return dm.data
}

// Contains reports whether (x, y) is inside the map.
func (dm *DepthMap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

func (dm *DepthMap) kxy(x, y int) int {
	return y*dm.width + x
}

// GetDepth returns the sample at (x, y), which must be in bounds.
func (dm *DepthMap) GetDepth(x, y int) uint16 {
	return dm.data[dm.kxy(x, y)]
}

// Get is GetDepth for an image.Point.
func (dm *DepthMap) Get(p image.Point) uint16 {
	return dm.GetDepth(p.X, p.Y)
}

// Set writes the sample at (x, y), which must be in bounds.
func (dm *DepthMap) Set(x, y int, val uint16) {
	dm.data[dm.kxy(x, y)] = val
}

// MinMax returns the smallest and largest samples, ignoring zeros (no reading).
// Both are zero when the map holds no readings.
func (dm *DepthMap) MinMax() (uint16, uint16) {
	var min, max uint16 = MaxDepth, 0
	for _, z := range dm.data {
		if z == 0 {
			continue
		}
		if z < min {
			min = z
		}
		if z > max {
			max = z
		}
	}
	if max == 0 {
		return 0, 0
	}
	return min, max
}

// Clone returns a deep copy.
func (dm *DepthMap) Clone() *DepthMap {
	data := make([]uint16, len(dm.data))
	copy(data, dm.data)
	return &DepthMap{width: dm.width, height: dm.height, data: data}
}

// ColorModel implements image.Image.
func (dm *DepthMap) ColorModel() color.Model {
	return color.Gray16Model
}

// Bounds implements image.Image.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

// At implements image.Image.
func (dm *DepthMap) At(x, y int) color.Color {
	if !dm.Contains(x, y) {
		return color.Gray16{}
	}
	return color.Gray16{dm.GetDepth(x, y)}
}

// ToGray16 copies the map into a standard library Gray16 image, for encoders.
func (dm *DepthMap) ToGray16() *image.Gray16 {
	out := image.NewGray16(dm.Bounds())
	for y := 0; y < dm.height; y++ {
		for x := 0; x < dm.width; x++ {
			out.SetGray16(x, y, color.Gray16{dm.GetDepth(x, y)})
		}
	}
	return out
}
