package calibration

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.sandcal.dev/sandcal/rimage/transform"
)

// DefaultPresetFile is the preset file name used when none is configured.
const DefaultPresetFile = "calibration.json"

// Point is the persisted form of a control point.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// State is everything needed to rebuild a pipeline's working calibration without recomputing
// anything: both homographies, the depth range and the raw control points.
type State struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	H1       []float64 `json:"h1,omitempty"`
	H2       []float64 `json:"h2,omitempty"`
	MinDepth int       `json:"min_depth"`
	MaxDepth int       `json:"max_depth"`
	Box      []Point   `json:"box"`
	Mire     []Point   `json:"mire"`
	Depth    []Point   `json:"depth"`
	Mirror   bool      `json:"mirror"`
}

func toPoints(pts []r2.Point) []Point {
	return lo.Map(pts, func(pt r2.Point, _ int) Point { return Point{X: pt.X, Y: pt.Y} })
}

func fromPoints(pts []Point) []r2.Point {
	return lo.Map(pts, func(pt Point, _ int) r2.Point { return r2.Point{X: pt.X, Y: pt.Y} })
}

func homographyValues(h transform.Homography) []float64 {
	if h.IsZero() {
		return nil
	}
	return h.Values()
}

func parseHomography(name string, vals []float64) (transform.Homography, error) {
	if len(vals) == 0 {
		return transform.Homography{}, nil
	}
	h, err := transform.NewHomography(vals)
	if err != nil {
		return h, errors.Wrapf(err, "bad %s", name)
	}
	if _, err := h.Inverse(); err != nil {
		return transform.Homography{}, errors.Wrapf(err, "bad %s", name)
	}
	return h, nil
}

// SavePreset writes state as indented JSON. The file is replaced atomically so a watcher never
// sees a partial write.
func SavePreset(path string, state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "cannot save preset")
	}
	_, err = tmp.Write(append(data, '\n'))
	err = multierr.Combine(err, tmp.Close())
	if err != nil {
		return multierr.Combine(err, os.Remove(tmp.Name()))
	}
	return os.Rename(tmp.Name(), path)
}

// LoadPreset reads a state written by SavePreset.
func LoadPreset(path string) (State, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, errors.Wrap(err, "cannot load preset")
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, errors.Wrapf(err, "cannot parse preset %q", path)
	}
	return state, nil
}
