package rimage

import (
	"image"
	"math"

	"go.sandcal.dev/sandcal/utils"
)

// Vec2D represents the gradient of an image at a point.
type Vec2D struct {
	X, Y float64
}

// Magnitude is the L2 norm of the gradient.
func (g Vec2D) Magnitude() float64 {
	return math.Hypot(g.X, g.Y)
}

// Direction is the angle of the gradient in [0, 2pi).
func (g Vec2D) Direction() float64 {
	dir := math.Atan2(g.Y, g.X)
	if dir < 0. {
		dir += 2. * math.Pi
	}
	return dir
}

// VectorField2D stores all the gradient vectors of the image
// allowing one to retrieve the gradient for any given (x,y) point.
type VectorField2D struct {
	width  int
	height int

	data         []Vec2D
	maxMagnitude float64
	minMagnitude float64
}

func (vf *VectorField2D) kxy(x, y int) int {
	return (y * vf.width) + x
}

// Width of the field.
func (vf *VectorField2D) Width() int {
	return vf.width
}

// Height of the field.
func (vf *VectorField2D) Height() int {
	return vf.height
}

// Get returns the gradient at p.
func (vf *VectorField2D) Get(p image.Point) Vec2D {
	return vf.data[vf.kxy(p.X, p.Y)]
}

// GetVec2D returns the gradient at (x, y).
func (vf *VectorField2D) GetVec2D(x, y int) Vec2D {
	return vf.data[vf.kxy(x, y)]
}

// MaxMagnitude is the largest magnitude in the field.
func (vf *VectorField2D) MaxMagnitude() float64 {
	return vf.maxMagnitude
}

// MinMagnitude is the smallest magnitude in the field.
func (vf *VectorField2D) MinMagnitude() float64 {
	return vf.minMagnitude
}

// MagnitudeField returns every magnitude in row-major order.
func (vf *VectorField2D) MagnitudeField() []float64 {
	out := make([]float64, len(vf.data))
	for i, v := range vf.data {
		out[i] = v.Magnitude()
	}
	return out
}

var (
	sobelX = [3][3]float64{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	sobelY = [3][3]float64{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}
)

// SobelGradient applies the 3x3 Sobel operators to a width x height scalar field read through
// at. Samples outside the field replicate the nearest edge sample, so the result has the same
// size as the input.
func SobelGradient(width, height int, at func(x, y int) float64) (*VectorField2D, error) {
	vf := &VectorField2D{
		width:  width,
		height: height,
		data:   make([]Vec2D, width*height),
	}
	err := utils.ParallelForEachRow(height, func(y int) {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for j := -1; j <= 1; j++ {
				yy := utils.ClampInt(y+j, 0, height-1)
				for i := -1; i <= 1; i++ {
					v := at(utils.ClampInt(x+i, 0, width-1), yy)
					gx += sobelX[j+1][i+1] * v
					gy += sobelY[j+1][i+1] * v
				}
			}
			vf.data[vf.kxy(x, y)] = Vec2D{gx, gy}
		}
	})
	if err != nil {
		return nil, err
	}

	vf.minMagnitude = math.Inf(1)
	for _, v := range vf.data {
		m := v.Magnitude()
		vf.maxMagnitude = math.Max(vf.maxMagnitude, m)
		vf.minMagnitude = math.Min(vf.minMagnitude, m)
	}
	if len(vf.data) == 0 {
		vf.minMagnitude = 0
	}
	return vf, nil
}

// DepthGradient is the Sobel gradient of the raw depth samples.
func DepthGradient(dm *DepthMap) (*VectorField2D, error) {
	return SobelGradient(dm.width, dm.height, func(x, y int) float64 {
		return float64(dm.data[y*dm.width+x])
	})
}

// GrayGradient is the Sobel gradient of a gray image's luminance.
func GrayGradient(img *image.Gray) (*VectorField2D, error) {
	bounds := img.Bounds()
	return SobelGradient(bounds.Dx(), bounds.Dy(), func(x, y int) float64 {
		return float64(img.Pix[img.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)])
	})
}
