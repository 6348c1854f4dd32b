package rimage

import (
	"sync"

	"github.com/lucasb-eyer/go-colorful"

	"go.sandcal.dev/sandcal/utils"
)

// Weights of the relief blend: output = BaseWeight*color + ShadeWeight*shade.
const (
	BaseWeight  = 0.7
	ShadeWeight = 0.3
)

var (
	bonePaletteOnce sync.Once
	bonePalette     [256]Color
)

// BonePalette is a 256 entry blue tinted gray ramp, 7/8 gray plus 1/8 of a reversed "hot"
// ramp, running from black to white.
func BonePalette() [256]Color {
	bonePaletteOnce.Do(func() {
		for i := range bonePalette {
			t := float64(i) / 255
			hotR := utils.ClampF64(8*t/3, 0, 1)
			hotG := utils.ClampF64(8*t/3-1, 0, 1)
			hotB := utils.ClampF64(4*t-3, 0, 1)
			bonePalette[i] = NewColorFromColorful(colorful.Color{
				R: (7*t + hotB) / 8,
				G: (7*t + hotG) / 8,
				B: (7*t + hotR) / 8,
			})
		}
	})
	return bonePalette
}

// ReliefMap returns the depth gradient magnitude stretched to [0, 255]. A flat map is all zero.
func ReliefMap(dm *DepthMap) ([]uint8, error) {
	if err := checkDepth("ReliefMap", dm); err != nil {
		return nil, err
	}
	grad, err := DepthGradient(dm)
	if err != nil {
		return nil, err
	}
	mags := grad.MagnitudeField()
	out := make([]uint8, len(mags))
	lo, hi := grad.MinMagnitude(), grad.MaxMagnitude()
	if hi-lo <= 0 {
		return out, nil
	}
	scale := 255 / (hi - lo)
	for i, m := range mags {
		out[i] = utils.RoundToUint8((m - lo) * scale)
	}
	return out, nil
}

// ApplyShading blends the bone shaded depth relief into img in place and returns img.
func ApplyShading(img *Image, dm *DepthMap) (*Image, error) {
	if err := checkSameSize("ApplyShading", img, dm); err != nil {
		return nil, err
	}
	relief, err := ReliefMap(dm)
	if err != nil {
		return nil, err
	}
	palette := BonePalette()
	err = utils.ParallelForEachRow(img.height, func(y int) {
		for x := 0; x < img.width; x++ {
			shade := palette[relief[y*img.width+x]]
			img.SetXY(x, y, img.GetXY(x, y).Blend(BaseWeight, shade, ShadeWeight))
		}
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}
