package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"go.sandcal.dev/sandcal/calibration"
	"go.sandcal.dev/sandcal/logging"
	"go.sandcal.dev/sandcal/rimage/transform"
)

// EstimateAction computes both homographies from control points given on the command line and
// prints them.
func EstimateAction(c *cli.Context, logger logging.Logger) error {
	opts := calibration.DefaultOptions()
	opts.Mirror = c.Bool(estimateFlagMirror)
	p, err := newPipeline(c.Int(generalFlagWidth), c.Int(generalFlagHeight), opts, "", logger)
	if err != nil {
		return err
	}
	for _, g := range []struct {
		flag  string
		group calibration.ControlGroup
	}{
		{estimateFlagBox, calibration.GroupBox},
		{estimateFlagMire, calibration.GroupMire},
		{estimateFlagDepth, calibration.GroupDepth},
	} {
		if !c.IsSet(g.flag) {
			continue
		}
		pts, err := parsePoints(c.String(g.flag))
		if err != nil {
			return err
		}
		// a degenerate intermediate is fine, the final recompute reports it
		if err := p.MoveControlPoints(g.group, pts); err != nil && !transform.IsDegenerateConfigurationError(err) {
			return err
		}
	}
	if err := p.Recompute(); err != nil {
		return err
	}

	h1, h2 := p.Homographies()
	fmt.Fprint(c.App.Writer, homographyTable(h1, h2))
	if path := c.Path(estimateFlagSave); path != "" {
		if err := calibration.SavePreset(path, p.State()); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "saved preset %s\n", path)
	}
	return nil
}

// homographyTable prints the two matrices side by side, one row per matrix row.
func homographyTable(h1, h2 transform.Homography) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Row", "H1", "", "", "H2", "", ""})
	for r := 0; r < 3; r++ {
		row := table.Row{fmt.Sprintf("%d", r)}
		for _, h := range []transform.Homography{h1, h2} {
			for col := 0; col < 3; col++ {
				row = append(row, fmt.Sprintf("%.6g", h.At(r, col)))
			}
		}
		t.AppendRow(row)
	}
	return t.Render() + "\n"
}
