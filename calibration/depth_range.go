package calibration

import (
	"math"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"go.sandcal.dev/sandcal/rimage"
)

// DepthStats summarizes the valid (non-zero) samples of a depth map.
type DepthStats struct {
	Valid  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	StdDev float64
}

func validSamples(dm *rimage.DepthMap) (stats.Float64Data, error) {
	if dm == nil || dm.Width() <= 0 || dm.Height() <= 0 {
		return nil, rimage.NewEmptyFrameError("depth statistics")
	}
	data := make(stats.Float64Data, 0, len(dm.Data()))
	for _, d := range dm.Data() {
		if d != 0 {
			data = append(data, float64(d))
		}
	}
	if len(data) == 0 {
		return nil, errors.New("depth map has no valid samples")
	}
	return data, nil
}

// ComputeDepthStats returns statistics over the non-zero samples of dm.
func ComputeDepthStats(dm *rimage.DepthMap) (DepthStats, error) {
	data, err := validSamples(dm)
	if err != nil {
		return DepthStats{}, err
	}
	out := DepthStats{Valid: data.Len()}
	if out.Min, err = data.Min(); err != nil {
		return DepthStats{}, err
	}
	if out.Max, err = data.Max(); err != nil {
		return DepthStats{}, err
	}
	if out.Mean, err = data.Mean(); err != nil {
		return DepthStats{}, err
	}
	if out.Median, err = data.Median(); err != nil {
		return DepthStats{}, err
	}
	if out.StdDev, err = data.StandardDeviation(); err != nil {
		return DepthStats{}, err
	}
	return out, nil
}

// SuggestDepthRange proposes a depth range from the lowPct and highPct percentiles of the
// non-zero samples of dm, for when placing depth control points is impractical.
func SuggestDepthRange(dm *rimage.DepthMap, lowPct, highPct float64) (int, int, error) {
	if lowPct <= 0 || highPct > 100 || lowPct >= highPct {
		return 0, 0, errors.Errorf("percentiles must satisfy 0 < low < high <= 100, got %v and %v", lowPct, highPct)
	}
	data, err := validSamples(dm)
	if err != nil {
		return 0, 0, err
	}
	low, err := data.Percentile(lowPct)
	if err != nil {
		return 0, 0, err
	}
	high, err := data.Percentile(highPct)
	if err != nil {
		return 0, 0, err
	}
	return int(math.Floor(low)), int(math.Ceil(high)), nil
}
