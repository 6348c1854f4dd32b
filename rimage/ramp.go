package rimage

import (
	"math"
	"sync"

	"github.com/pkg/errors"
)

// RampSize is the number of entries in a ColorRamp.
const RampSize = 2048

// DefaultRampGamma is the exponent used when none is configured.
const DefaultRampGamma = 4.0

// ColorRamp is a read-only lookup table from an index in [0, RampSize) to a color of a
// six band rainbow: white to red, red to yellow, yellow to green, green to cyan, cyan to blue
// and blue to black. The gamma exponent pushes more of the table toward the first bands.
// Indices whose scaled value lands past the sixth band are black.
type ColorRamp struct {
	gamma  float64
	colors [RampSize]Color
}

// BuildRamp computes the ramp for gamma.
func BuildRamp(gamma float64) *ColorRamp {
	ramp := &ColorRamp{gamma: gamma}
	for i := 0; i < RampSize; i++ {
		v := math.Pow(float64(i)/RampSize, gamma) * 6
		pval := int(v * 6 * 256)
		lb := uint8(pval & 0xff)

		var c Color
		switch pval >> 8 {
		case 0:
			c = Color{255, 255 - lb, 255 - lb}
		case 1:
			c = Color{255, lb, 0}
		case 2:
			c = Color{255 - lb, 255, 0}
		case 3:
			c = Color{0, 255, lb}
		case 4:
			c = Color{0, 255 - lb, 255}
		case 5:
			c = Color{0, 0, 255 - lb}
		default:
			// past the last band
		}
		ramp.colors[i] = c
	}
	return ramp
}

var (
	rampCacheMu sync.Mutex
	rampCache   = map[float64]*ColorRamp{}
)

// RampForGamma returns the shared ramp for gamma, building it on first use.
func RampForGamma(gamma float64) *ColorRamp {
	rampCacheMu.Lock()
	defer rampCacheMu.Unlock()
	if ramp, ok := rampCache[gamma]; ok {
		return ramp
	}
	ramp := BuildRamp(gamma)
	rampCache[gamma] = ramp
	return ramp
}

// Gamma returns the exponent the ramp was built with.
func (r *ColorRamp) Gamma() float64 {
	return r.gamma
}

// At returns the color for index i, clamped to the table.
func (r *ColorRamp) At(i int) Color {
	if i < 0 {
		i = 0
	} else if i >= RampSize {
		i = RampSize - 1
	}
	return r.colors[i]
}

// Len is RampSize.
func (r *ColorRamp) Len() int {
	return RampSize
}

// ColorizeWithRamp paints each sample through ramp. When both bounds are positive the range is
// first widened to [0.75*minDepth, 1.25*maxDepth] (capped to the ramp) and stretched over the
// whole table. Otherwise raw samples index the ramp directly.
func ColorizeWithRamp(dm *DepthMap, minDepth, maxDepth int, ramp *ColorRamp) (*Image, error) {
	if err := checkDepth("ColorizeWithRamp", dm); err != nil {
		return nil, err
	}
	if ramp == nil {
		return nil, errors.New("ColorizeWithRamp: nil ramp")
	}
	if minDepth > maxDepth {
		minDepth, maxDepth = maxDepth, minDepth
	}

	scale := minDepth > 0 && maxDepth > 0
	lo := clampToRamp(int(0.75 * float64(minDepth)))
	hi := clampToRamp(int(1.25 * float64(maxDepth)))
	if hi == lo {
		hi = lo + 1
	}

	out := NewImage(dm.width, dm.height)
	for k, d := range dm.data {
		idx := int(d)
		if scale {
			idx = (idx - lo) * RampSize / (hi - lo)
		}
		c := ramp.At(idx)
		out.pix[3*k] = c.R
		out.pix[3*k+1] = c.G
		out.pix[3*k+2] = c.B
	}
	return out, nil
}

func clampToRamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > RampSize-1 {
		return RampSize - 1
	}
	return v
}
