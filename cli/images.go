package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"go.sandcal.dev/sandcal/calibration"
	"go.sandcal.dev/sandcal/logging"
	"go.sandcal.dev/sandcal/rimage"
)

// Marker colors of the preview, one per control group.
var (
	boxMarkerColor   = rimage.NewColor(255, 200, 0)
	mireMarkerColor  = rimage.NewColor(0, 200, 255)
	depthMarkerColor = rimage.NewColor(255, 0, 200)
)

// PatternAction writes the image projected while placing the mire points.
func PatternAction(c *cli.Context) error {
	img, err := rimage.CalibrationPattern(c.Int(generalFlagWidth), c.Int(generalFlagHeight))
	if err != nil {
		return err
	}
	if err := rimage.WriteImageToFile(c.Path(generalFlagOut), img); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", c.Path(generalFlagOut))
	return nil
}

// PreviewAction draws the box, mire and depth points over a camera image.
func PreviewAction(c *cli.Context) error {
	img, err := rimage.ReadImageFromFile(c.Path(frameFlagImage))
	if err != nil {
		return err
	}
	points := calibration.DefaultControlPoints(img.Width(), img.Height())
	if preset := c.Path(frameFlagPreset); preset != "" {
		state, err := calibration.LoadPreset(preset)
		if err != nil {
			return err
		}
		p, err := newPipeline(state.Width, state.Height, calibration.DefaultOptions(), "", logging.Global())
		if err != nil {
			return err
		}
		if err := p.Restore(state); err != nil {
			return err
		}
		points = p.ControlPoints()
	}

	var markers []rimage.Marker
	for _, g := range []struct {
		group calibration.ControlGroup
		color rimage.Color
	}{
		{calibration.GroupBox, boxMarkerColor},
		{calibration.GroupMire, mireMarkerColor},
		{calibration.GroupDepth, depthMarkerColor},
	} {
		for i, pt := range points.Get(g.group) {
			markers = append(markers, rimage.Marker{
				Label: fmt.Sprintf("%s %d", g.group, i),
				Point: pt,
				Color: g.color,
			})
		}
	}
	out, err := rimage.DrawMarkers(img, markers)
	if err != nil {
		return err
	}
	if err := rimage.WriteImageToFile(c.Path(generalFlagOut), out); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "wrote %s with %d markers\n", c.Path(generalFlagOut), len(markers))
	return nil
}
