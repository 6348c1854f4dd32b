package calibration

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.sandcal.dev/sandcal/rimage"
	"go.sandcal.dev/sandcal/utils"
)

// Palette selects how depth frames are turned into color.
type Palette string

const (
	// PaletteTerrain is the banded elevation palette with contours and relief shading.
	PaletteTerrain = Palette("terrain")
	// PaletteRainbow is the gamma ramp colorization.
	PaletteRainbow = Palette("rainbow")
)

// Options are the tunables of a Pipeline.
type Options struct {
	ContourStep          int           `json:"contour_step"`
	ContourLowThreshold  float64       `json:"contour_low_threshold"`
	ContourHighThreshold float64       `json:"contour_high_threshold"`
	Palette              Palette       `json:"palette"`
	RampGamma            float64       `json:"ramp_gamma"`
	Mirror               bool          `json:"mirror"`
	RecomputeDebounce    time.Duration `json:"recompute_debounce"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ContourStep:          rimage.DefaultContourStep,
		ContourLowThreshold:  rimage.DefaultCannyLowThreshold,
		ContourHighThreshold: rimage.DefaultCannyHighThreshold,
		Palette:              PaletteTerrain,
		RampGamma:            rimage.DefaultRampGamma,
	}
}

// DecodeOptions fills DefaultOptions from an attribute map keyed by the json field names.
// Durations may be given as strings ("150ms") or nanoseconds.
func DecodeOptions(attributes map[string]interface{}) (Options, error) {
	opts := DefaultOptions()
	if len(attributes) == 0 {
		return opts, nil
	}
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &opts,
		Metadata:         &md,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return opts, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return opts, errors.Wrap(err, "cannot parse pipeline attributes")
	}
	if len(md.Unused) > 0 {
		return opts, errors.Errorf("unknown pipeline attributes %v", md.Unused)
	}
	return opts, opts.Validate()
}

// Validate reports every invalid field at once.
func (o Options) Validate() error {
	var err error
	if o.ContourStep <= 0 {
		err = multierr.Append(err, errors.Errorf("contour_step must be positive, got %d", o.ContourStep))
	}
	if _, detErr := rimage.NewCannyEdgeDetectorWithParameters(o.ContourLowThreshold, o.ContourHighThreshold); detErr != nil {
		err = multierr.Append(err, detErr)
	}
	switch o.Palette {
	case PaletteTerrain, PaletteRainbow:
	default:
		err = multierr.Append(err, utils.NewUnknownNameError("palette", string(o.Palette),
			string(PaletteTerrain), string(PaletteRainbow)))
	}
	if o.RampGamma <= 0 || !utils.IsFinite(o.RampGamma) {
		err = multierr.Append(err, errors.Errorf("ramp_gamma must be positive, got %v", o.RampGamma))
	}
	if o.RecomputeDebounce < 0 {
		err = multierr.Append(err, errors.Errorf("recompute_debounce must not be negative, got %v", o.RecomputeDebounce))
	}
	return err
}
