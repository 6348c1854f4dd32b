package cli

import (
	"strconv"
	"strings"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"go.sandcal.dev/sandcal/calibration"
	"go.sandcal.dev/sandcal/logging"
)

// parsePoints reads points written as "x,y;x,y;...".
func parsePoints(s string) ([]r2.Point, error) {
	var pts []r2.Point
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		xy := strings.Split(pair, ",")
		if len(xy) != 2 {
			return nil, errors.Errorf("point %q must be written as x,y", pair)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xy[0]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad x in %q", pair)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(xy[1]), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad y in %q", pair)
		}
		pts = append(pts, r2.Point{X: x, Y: y})
	}
	return pts, nil
}

// newPipeline builds a pipeline for frames of the given size and restores preset into it when
// set.
func newPipeline(width, height int, opts calibration.Options, preset string, logger logging.Logger) (*calibration.Pipeline, error) {
	p, err := calibration.NewPipeline(width, height, opts, logger.Sublogger("pipeline"))
	if err != nil {
		return nil, err
	}
	if preset == "" {
		return p, nil
	}
	state, err := calibration.LoadPreset(preset)
	if err != nil {
		return nil, err
	}
	if err := p.Restore(state); err != nil {
		return nil, errors.Wrapf(err, "cannot restore preset %q", preset)
	}
	return p, nil
}
