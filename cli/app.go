// Package cli contains all business logic needed by the sandcal command.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.sandcal.dev/sandcal/calibration"
	"go.sandcal.dev/sandcal/logging"
)

const (
	// Flags.
	generalFlagDebug  = "debug"
	generalFlagConfig = "config"
	generalFlagOut    = "out"
	generalFlagWidth  = "width"
	generalFlagHeight = "height"

	frameFlagDepth  = "depth"
	frameFlagImage  = "image"
	frameFlagPreset = "preset"

	renderFlagMin       = "min"
	renderFlagMax       = "max"
	renderFlagAutoRange = "auto-range"
	renderFlagPalette   = "palette"
	renderFlagSecondary = "secondary"

	rangeFlagLow  = "low-percentile"
	rangeFlagHigh = "high-percentile"

	estimateFlagBox    = "box"
	estimateFlagMire   = "mire"
	estimateFlagDepth  = "depth-points"
	estimateFlagMirror = "mirror"
	estimateFlagSave   = "save"

	runFlagCalibrateDepth = "calibrate-depth"
	runFlagSavePreset     = "save-preset"

	histogramFlagBins = "bins"
)

// NewApp returns the sandcal command line application writing to out.
func NewApp(out io.Writer) *cli.App {
	var logger logging.Logger

	percentileFlags := []cli.Flag{
		&cli.Float64Flag{
			Name:  rangeFlagLow,
			Value: 2,
			Usage: "lower percentile of the valid depth samples used for the range",
		},
		&cli.Float64Flag{
			Name:  rangeFlagHigh,
			Value: 98,
			Usage: "upper percentile of the valid depth samples used for the range",
		},
	}

	return &cli.App{
		Name:      "sandcal",
		Usage:     "calibrate and render an augmented reality sand table",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(generalFlagDebug) {
				logger = logging.NewDebugLogger("sandcal")
			} else {
				logger = logging.NewLogger("sandcal")
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run the calibration pipeline on a live or replayed source",
				UsageText: "sandcal run --config <file> [--out <dir>] [other options]",
				Flags: []cli.Flag{
					&cli.PathFlag{
						Name:     generalFlagConfig,
						Aliases:  []string{"c"},
						Required: true,
						Usage:    "load configuration from `FILE`",
					},
					&cli.PathFlag{
						Name:  generalFlagOut,
						Usage: "write every colorized frame into `DIR`",
					},
					&cli.BoolFlag{
						Name:  renderFlagSecondary,
						Usage: "render the projector output instead of the rectified view",
					},
					&cli.BoolFlag{
						Name:  runFlagCalibrateDepth,
						Usage: "calibrate the depth range on the first frame",
					},
					&cli.BoolFlag{
						Name:  runFlagSavePreset,
						Usage: "save the calibration to the preset file on exit",
					},
				},
				Action: func(c *cli.Context) error {
					return RunAction(c, logger)
				},
			},
			{
				Name:      "render",
				Usage:     "colorize a single depth frame",
				UsageText: "sandcal render --depth <file.png> --out <file.png> [other options]",
				Flags: append([]cli.Flag{
					&cli.PathFlag{Name: frameFlagDepth, Required: true, Usage: "16-bit depth `PNG`"},
					&cli.PathFlag{Name: generalFlagOut, Required: true, Usage: "output image `FILE`"},
					&cli.PathFlag{Name: frameFlagPreset, Usage: "restore the calibration from `FILE`"},
					&cli.IntFlag{Name: renderFlagMin, Usage: "nearest depth of the color range"},
					&cli.IntFlag{Name: renderFlagMax, Usage: "farthest depth of the color range"},
					&cli.BoolFlag{Name: renderFlagAutoRange, Usage: "pick the depth range from the frame percentiles"},
					&cli.StringFlag{
						Name:  renderFlagPalette,
						Value: string(calibration.PaletteTerrain),
						Usage: "terrain or rainbow",
					},
					&cli.BoolFlag{Name: renderFlagSecondary, Usage: "apply the projector homography too"},
				}, percentileFlags...),
				Action: func(c *cli.Context) error {
					return RenderAction(c, logger)
				},
			},
			{
				Name:      "estimate",
				Usage:     "estimate and print the homographies for a set of control points",
				UsageText: `sandcal estimate --width 640 --height 480 --box "x,y;x,y;x,y;x,y" [other options]`,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: generalFlagWidth, Value: 640},
					&cli.IntFlag{Name: generalFlagHeight, Value: 480},
					&cli.StringFlag{Name: estimateFlagBox, Usage: "four sandbox corners as x,y;x,y;x,y;x,y"},
					&cli.StringFlag{Name: estimateFlagMire, Usage: "four projected pattern corners as x,y;x,y;x,y;x,y"},
					&cli.StringFlag{Name: estimateFlagDepth, Usage: "near and far depth sample points as x,y;x,y"},
					&cli.BoolFlag{Name: estimateFlagMirror, Usage: "the projector mirrors the table"},
					&cli.PathFlag{Name: estimateFlagSave, Usage: "save the result as a preset `FILE`"},
				},
				Action: func(c *cli.Context) error {
					return EstimateAction(c, logger)
				},
			},
			{
				Name:  "pattern",
				Usage: "write the projector calibration pattern",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: generalFlagWidth, Value: 640},
					&cli.IntFlag{Name: generalFlagHeight, Value: 480},
					&cli.PathFlag{Name: generalFlagOut, Required: true, Usage: "output image `FILE`"},
				},
				Action: PatternAction,
			},
			{
				Name:  "preview",
				Usage: "draw the control points of a preset over a camera image",
				Flags: []cli.Flag{
					&cli.PathFlag{Name: frameFlagImage, Required: true, Usage: "camera image `FILE`"},
					&cli.PathFlag{Name: frameFlagPreset, Usage: "preset `FILE`, the default points are drawn without it"},
					&cli.PathFlag{Name: generalFlagOut, Required: true, Usage: "output image `FILE`"},
				},
				Action: PreviewAction,
			},
			{
				Name:  "stats",
				Usage: "print statistics and a suggested range for a depth frame",
				Flags: append([]cli.Flag{
					&cli.PathFlag{Name: frameFlagDepth, Required: true, Usage: "16-bit depth `PNG`"},
					&cli.IntFlag{Name: histogramFlagBins, Value: 12, Usage: "rows of the terminal histogram, 0 for none"},
				}, percentileFlags...),
				Action: StatsAction,
			},
			{
				Name:  "histogram",
				Usage: "plot the distribution of the valid samples of a depth frame",
				Flags: append([]cli.Flag{
					&cli.PathFlag{Name: frameFlagDepth, Required: true, Usage: "16-bit depth `PNG`"},
					&cli.PathFlag{Name: generalFlagOut, Required: true, Usage: "output plot `FILE` (png, svg or pdf)"},
					&cli.IntFlag{Name: histogramFlagBins, Value: 64},
				}, percentileFlags...),
				Action: HistogramAction,
			},
			{
				Name:   "schema",
				Usage:  "print the JSON schema of the configuration file",
				Action: SchemaAction,
			},
		},
	}
}
