package testutils

import (
	"go.sandcal.dev/sandcal/rimage"
)

// DepthMapFunc builds a width x height depth map whose samples are given by fn.
func DepthMapFunc(width, height int, fn func(x, y int) uint16) *rimage.DepthMap {
	dm := rimage.NewEmptyDepthMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dm.Set(x, y, fn(x, y))
		}
	}
	return dm
}

// UniformDepthMap is a depth map where every sample is d.
func UniformDepthMap(width, height int, d uint16) *rimage.DepthMap {
	return DepthMapFunc(width, height, func(_, _ int) uint16 { return d })
}

// GradientImage is a color image whose channels vary with the pixel position, so that any
// misplaced pixel is visible.
func GradientImage(width, height int) *rimage.Image {
	img := rimage.NewImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetXY(x, y, rimage.NewColor(uint8(x*7), uint8(y*11), uint8((x*y)%256)))
		}
	}
	return img
}
