package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"go.sandcal.dev/sandcal/calibration"
	"go.sandcal.dev/sandcal/logging"
	"go.sandcal.dev/sandcal/rimage"
)

// RenderAction colorizes one recorded depth frame with an optional preset.
func RenderAction(c *cli.Context, logger logging.Logger) error {
	dm, err := rimage.ReadDepthMapFromFile(c.Path(frameFlagDepth))
	if err != nil {
		return err
	}
	opts := calibration.DefaultOptions()
	opts.Palette = calibration.Palette(c.String(renderFlagPalette))
	p, err := newPipeline(dm.Width(), dm.Height(), opts, c.Path(frameFlagPreset), logger)
	if err != nil {
		return err
	}

	switch {
	case c.Bool(renderFlagAutoRange):
		lo, hi, err := calibration.SuggestDepthRange(dm, c.Float64(rangeFlagLow), c.Float64(rangeFlagHigh))
		if err != nil {
			return err
		}
		if err := p.SetDepthRange(lo, hi); err != nil {
			return err
		}
	case c.IsSet(renderFlagMin) || c.IsSet(renderFlagMax):
		if err := p.SetDepthRange(c.Int(renderFlagMin), c.Int(renderFlagMax)); err != nil {
			return err
		}
	}

	img, err := p.ProcessDepthFrame(c.Context, dm, c.Bool(renderFlagSecondary))
	if err != nil {
		return err
	}
	if err := rimage.WriteImageToFile(c.Path(generalFlagOut), img); err != nil {
		return err
	}
	lo, hi := p.DepthRange()
	fmt.Fprintf(c.App.Writer, "wrote %s (depth range %d..%d)\n", c.Path(generalFlagOut), lo, hi)
	return nil
}
