package rimage

import (
	"image"

	"github.com/pkg/errors"

	"go.sandcal.dev/sandcal/utils"
)

// DefaultContourStep is the depth spacing between contour lines when none is configured.
const DefaultContourStep = 20

// ContourColor is painted over every contour pixel.
var ContourColor = Color{10, 10, 10}

// BandDepth maps every sample to (d mod step) * 255 / step. The result ramps up within each
// step of depth and drops back to zero on every multiple of step, so iso-depth boundaries
// become sharp steps in intensity.
func BandDepth(dm *DepthMap, step int) (*image.Gray, error) {
	if err := checkDepth("BandDepth", dm); err != nil {
		return nil, err
	}
	if step <= 0 {
		return nil, errors.Errorf("contour step must be positive, got %d", step)
	}
	out := image.NewGray(dm.Bounds())
	err := utils.ParallelForEachRow(dm.height, func(y int) {
		row := dm.data[y*dm.width : (y+1)*dm.width]
		dst := out.Pix[y*out.Stride:]
		for x, d := range row {
			dst[x] = uint8(int(d) % step * 255 / step)
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OverlayContours paints iso-depth contour lines, spaced step depth units apart, onto img in
// place using the default edge thresholds. It returns img.
func OverlayContours(img *Image, dm *DepthMap, step int) (*Image, error) {
	return OverlayContoursWithDetector(img, dm, step, NewCannyEdgeDetector())
}

// OverlayContoursWithThresholds is OverlayContours with explicit hysteresis thresholds.
func OverlayContoursWithThresholds(img *Image, dm *DepthMap, step int, low, high float64) (*Image, error) {
	detector, err := NewCannyEdgeDetectorWithParameters(low, high)
	if err != nil {
		return nil, err
	}
	return OverlayContoursWithDetector(img, dm, step, detector)
}

// OverlayContoursWithDetector is OverlayContours with a caller supplied edge detector.
// The edges depend only on dm, so overlaying twice gives the same image as overlaying once.
func OverlayContoursWithDetector(img *Image, dm *DepthMap, step int, detector *CannyEdgeDetector) (*Image, error) {
	if err := checkSameSize("OverlayContours", img, dm); err != nil {
		return nil, err
	}
	banded, err := BandDepth(dm, step)
	if err != nil {
		return nil, err
	}
	edges, err := detector.DetectEdges(banded)
	if err != nil {
		return nil, err
	}
	for y := 0; y < img.height; y++ {
		row := edges.Pix[y*edges.Stride : y*edges.Stride+img.width]
		for x, e := range row {
			if e != 0 {
				img.SetXY(x, y, ContourColor)
			}
		}
	}
	return img, nil
}
