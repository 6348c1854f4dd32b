package cli

import (
	"fmt"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"go.sandcal.dev/sandcal/calibration"
	"go.sandcal.dev/sandcal/rimage"
)

// StatsAction prints the statistics of a depth frame and the range its percentiles suggest.
func StatsAction(c *cli.Context) error {
	dm, err := rimage.ReadDepthMapFromFile(c.Path(frameFlagDepth))
	if err != nil {
		return err
	}
	s, err := calibration.ComputeDepthStats(dm)
	if err != nil {
		return err
	}
	lo, hi, err := calibration.SuggestDepthRange(dm, c.Float64(rangeFlagLow), c.Float64(rangeFlagHigh))
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Statistic", "Value"})
	t.AppendRows([]table.Row{
		{"size", fmt.Sprintf("%dx%d", dm.Width(), dm.Height())},
		{"valid samples", s.Valid},
		{"min", s.Min},
		{"max", s.Max},
		{"mean", fmt.Sprintf("%.1f", s.Mean)},
		{"median", s.Median},
		{"std dev", fmt.Sprintf("%.1f", s.StdDev)},
		{"suggested range", fmt.Sprintf("%d..%d", lo, hi)},
	})
	fmt.Fprintln(c.App.Writer, t.Render())
	if bins := c.Int(histogramFlagBins); bins > 0 {
		return histogram.Fprint(c.App.Writer, histogram.Hist(bins, validDepths(dm)), histogram.Linear(40))
	}
	return nil
}

func validDepths(dm *rimage.DepthMap) []float64 {
	values := make([]float64, 0, len(dm.Data()))
	for _, d := range dm.Data() {
		if d != 0 {
			values = append(values, float64(d))
		}
	}
	return values
}

// HistogramAction plots the valid samples of a depth frame with the suggested range marked.
func HistogramAction(c *cli.Context) error {
	dm, err := rimage.ReadDepthMapFromFile(c.Path(frameFlagDepth))
	if err != nil {
		return err
	}
	lo, hi, err := calibration.SuggestDepthRange(dm, c.Float64(rangeFlagLow), c.Float64(rangeFlagHigh))
	if err != nil {
		return err
	}
	p, err := depthHistogram(dm, c.Int(histogramFlagBins), lo, hi)
	if err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, c.Path(generalFlagOut)); err != nil {
		return errors.Wrap(err, "cannot save histogram")
	}
	fmt.Fprintf(c.App.Writer, "wrote %s\n", c.Path(generalFlagOut))
	return nil
}

func depthHistogram(dm *rimage.DepthMap, bins, lo, hi int) (*plot.Plot, error) {
	if bins <= 0 {
		return nil, errors.Errorf("bins must be positive, got %d", bins)
	}
	values := plotter.Values(validDepths(dm))
	if len(values) == 0 {
		return nil, errors.New("depth map has no valid samples")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Depth distribution (%d valid samples)", len(values))
	p.X.Label.Text = "Depth"
	p.Y.Label.Text = "Samples"

	hist, err := plotter.NewHist(values, bins)
	if err != nil {
		return nil, err
	}
	p.Add(hist)

	_, _, _, ymax := hist.DataRange()
	for _, x := range []int{lo, hi} {
		line, err := plotter.NewLine(plotter.XYs{{X: float64(x), Y: 0}, {X: float64(x), Y: ymax}})
		if err != nil {
			return nil, err
		}
		line.Width = vg.Points(1)
		line.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(line)
	}
	return p, nil
}
