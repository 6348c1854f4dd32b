package rimage

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// Default hysteresis thresholds, on the Sobel magnitude scale of an 8-bit image.
const (
	DefaultCannyLowThreshold  = 50.0
	DefaultCannyHighThreshold = 150.0
)

// CannyEdgeDetector marks thin edges with a Sobel gradient, non-maximum suppression and
// two-threshold hysteresis. Pixels above the high threshold seed edges that then grow through
// 8-connected pixels above the low threshold.
type CannyEdgeDetector struct {
	lowThreshold, highThreshold float64
}

// NewCannyEdgeDetector uses the default thresholds.
func NewCannyEdgeDetector() *CannyEdgeDetector {
	return &CannyEdgeDetector{DefaultCannyLowThreshold, DefaultCannyHighThreshold}
}

// NewCannyEdgeDetectorWithParameters lets you set the hysteresis thresholds.
func NewCannyEdgeDetectorWithParameters(low, high float64) (*CannyEdgeDetector, error) {
	if low < 0 || high < 0 || math.IsNaN(low) || math.IsNaN(high) {
		return nil, errors.Errorf("canny thresholds must be non-negative, got low=%v high=%v", low, high)
	}
	if low > high {
		return nil, errors.Errorf("canny low threshold %v is above high threshold %v", low, high)
	}
	return &CannyEdgeDetector{low, high}, nil
}

// Thresholds returns the low and high hysteresis thresholds.
func (cd *CannyEdgeDetector) Thresholds() (float64, float64) {
	return cd.lowThreshold, cd.highThreshold
}

// DetectEdges returns a gray image, the size of img, with edge pixels at 255 and all others 0.
func (cd *CannyEdgeDetector) DetectEdges(img *image.Gray) (*image.Gray, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))
	if width == 0 || height == 0 {
		return out, nil
	}

	grad, err := GrayGradient(img)
	if err != nil {
		return nil, err
	}
	nms := gradientNonMaximumSuppression(grad)
	copy(out.Pix, edgeHysteresis(nms, width, height, cd.lowThreshold, cd.highThreshold))
	return out, nil
}

// edgeHysteresis returns 255 for every pixel above high, and for every pixel above low that is
// 8-connected to one through other pixels above low. All other pixels are 0.
func edgeHysteresis(mags []float64, width, height int, low, high float64) []uint8 {
	const (
		notEdge = iota
		weak
		strong
	)
	state := make([]uint8, len(mags))
	out := make([]uint8, len(mags))
	stack := make([]int, 0, 64)
	for k, m := range mags {
		switch {
		case m > high:
			state[k] = strong
			stack = append(stack, k)
		case m > low:
			state[k] = weak
		default:
			state[k] = notEdge
		}
	}

	for len(stack) > 0 {
		k := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out[k] = 255
		x, y := k%width, k/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				nk := ny*width + nx
				if state[nk] == weak {
					state[nk] = strong
					stack = append(stack, nk)
				}
			}
		}
	}
	return out
}

// gradientNonMaximumSuppression keeps a magnitude only where it is a local maximum along the
// gradient direction, quantized to 0, 45, 90 or 135 degrees. Everything else becomes zero.
func gradientNonMaximumSuppression(grad *VectorField2D) []float64 {
	width, height := grad.Width(), grad.Height()
	mags := grad.MagnitudeField()
	out := make([]float64, len(mags))
	magAt := func(x, y int) float64 {
		if x < 0 || y < 0 || x >= width || y >= height {
			return 0
		}
		return mags[y*width+x]
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m := mags[y*width+x]
			if m == 0 {
				continue
			}
			// fold the direction onto [0, 180) degrees and pick the nearest of four axes
			deg := math.Mod(grad.GetVec2D(x, y).Direction()*180/math.Pi, 180)
			var dx, dy int
			switch {
			case deg < 22.5 || deg >= 157.5:
				dx, dy = 1, 0
			case deg < 67.5:
				dx, dy = 1, 1
			case deg < 112.5:
				dx, dy = 0, 1
			default:
				dx, dy = -1, 1
			}
			if m >= magAt(x+dx, y+dy) && m > magAt(x-dx, y-dy) {
				out[y*width+x] = m
			}
		}
	}
	return out
}
