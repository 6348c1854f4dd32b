package rimage

import (
	"go.sandcal.dev/sandcal/utils"
)

// ElevationSpan is the half width of the elevation scale depth is normalized onto: the
// calibrated depth range always maps to [-ElevationSpan, +ElevationSpan].
const ElevationSpan = 220.0

type terrainBand struct {
	upTo  float64
	color Color
}

// terrainBands is ordered by ascending upper bound; an elevation selects the first band whose
// bound it does not exceed.
var terrainBands = []terrainBand{
	{-200, Color{0, 0, 0}},
	{-180, Color{51, 25, 0}},
	{-160, Color{102, 51, 0}},
	{-140, Color{139, 69, 19}},
	{-120, Color{160, 82, 45}},
	{-100, Color{204, 119, 34}},
	{-80, Color{194, 154, 108}},
	{-60, Color{237, 201, 175}},
	{-40, Color{144, 238, 144}},
	{-20, Color{34, 139, 34}},
	{0, Color{0, 100, 0}},
	{20, Color{154, 205, 50}},
	{40, Color{255, 255, 0}},
	{60, Color{255, 200, 0}},
	{100, Color{245, 245, 240}},
	{120, Color{255, 255, 255}},
	{140, Color{173, 216, 230}},
	{160, Color{70, 130, 180}},
	{180, Color{112, 128, 144}},
	{200, Color{128, 128, 128}},
}

// aboveTerrain is the catch-all color for elevations above the last band.
var aboveTerrain = Color{64, 64, 64}

// NormalizeHeight maps depth d onto the elevation scale for the range [minDepth, maxDepth].
// Reversed bounds are swapped. Equal bounds are widened to [minDepth, minDepth+1] for the
// division while d is still clamped to the original bounds, so every sample lands on
// -ElevationSpan.
func NormalizeHeight(d, minDepth, maxDepth int) float64 {
	if minDepth > maxDepth {
		minDepth, maxDepth = maxDepth, minDepth
	}
	clamped := utils.ClampInt(d, minDepth, maxDepth)
	span := float64(maxDepth) - float64(minDepth)
	if span == 0 {
		span = 1
	}
	return (float64(clamped)-float64(minDepth))/span*2*ElevationSpan - ElevationSpan
}

// TerrainBandIndex returns the index of the band height falls in. The catch-all band above
// the last bound has index TerrainBandCount()-1.
func TerrainBandIndex(height float64) int {
	for i, band := range terrainBands {
		if height <= band.upTo {
			return i
		}
	}
	return len(terrainBands)
}

// TerrainBandCount is the number of bands including the catch-all.
func TerrainBandCount() int {
	return len(terrainBands) + 1
}

// TerrainColor returns the band color for an elevation.
func TerrainColor(height float64) Color {
	idx := TerrainBandIndex(height)
	if idx == len(terrainBands) {
		return aboveTerrain
	}
	return terrainBands[idx].color
}

// Colorize paints each depth sample with the terrain color of its normalized elevation.
func Colorize(dm *DepthMap, minDepth, maxDepth int) (*Image, error) {
	if err := checkDepth("Colorize", dm); err != nil {
		return nil, err
	}
	if minDepth > maxDepth {
		minDepth, maxDepth = maxDepth, minDepth
	}

	// Samples only span [0, MaxDepth] and clamp onto the range ends, so a table over the part of
	// the range they can reach covers them all.
	lo, hi := utils.ClampInt(minDepth, 0, MaxDepth), utils.ClampInt(maxDepth, 0, MaxDepth)
	lut := make([]Color, hi-lo+1)
	for i := range lut {
		lut[i] = TerrainColor(NormalizeHeight(lo+i, minDepth, maxDepth))
	}

	out := NewImage(dm.width, dm.height)
	err := utils.ParallelForEachRow(dm.height, func(y int) {
		row := dm.data[y*dm.width : (y+1)*dm.width]
		dst := out.pix[y*out.stride:]
		for x, d := range row {
			c := lut[utils.ClampInt(int(d), lo, hi)-lo]
			dst[3*x] = c.R
			dst[3*x+1] = c.G
			dst[3*x+2] = c.B
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
