package rimage

// Colors of the projector calibration pattern.
var (
	PatternRowColor    = Color{255, 0, 0}
	PatternColumnColor = Color{0, 255, 0}
	PatternCornerColor = Color{0, 0, 255}
)

// PatternSpacing is the distance between pattern lines, and the side of the corner square.
const PatternSpacing = 50

// CalibrationPattern draws the image shown on the projector while the mire points are placed:
// red rows and green columns every PatternSpacing pixels, mirrored around the centre, on black,
// with a blue square in the top-left corner so the orientation is unambiguous.
func CalibrationPattern(width, height int) (*Image, error) {
	if width <= 0 || height <= 0 {
		return nil, NewEmptyFrameError("CalibrationPattern")
	}
	img := NewImage(width, height)

	for h := height / 2; h > 0; h -= PatternSpacing {
		for x := 0; x < width; x++ {
			img.SetXY(x, h, PatternRowColor)
			img.SetXY(x, height-h-1, PatternRowColor)
		}
	}
	for w := width / 2; w > 0; w -= PatternSpacing {
		for y := 0; y < height; y++ {
			img.SetXY(w, y, PatternColumnColor)
			img.SetXY(width-w-1, y, PatternColumnColor)
		}
	}
	for y := 0; y < PatternSpacing && y < height; y++ {
		for x := 0; x < PatternSpacing && x < width; x++ {
			img.SetXY(x, y, PatternCornerColor)
		}
	}
	return img, nil
}
