package calibration

import (
	"testing"
	"time"

	"go.viam.com/test"
)

func TestDecodeOptions(t *testing.T) {
	opts, err := DecodeOptions(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts, test.ShouldResemble, DefaultOptions())

	opts, err = DecodeOptions(map[string]interface{}{
		"contour_step":       float64(35),
		"palette":            "rainbow",
		"ramp_gamma":         2.5,
		"mirror":             true,
		"recompute_debounce": "150ms",
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, opts.ContourStep, test.ShouldEqual, 35)
	test.That(t, opts.Palette, test.ShouldEqual, PaletteRainbow)
	test.That(t, opts.RampGamma, test.ShouldEqual, 2.5)
	test.That(t, opts.Mirror, test.ShouldBeTrue)
	test.That(t, opts.RecomputeDebounce, test.ShouldEqual, 150*time.Millisecond)
	test.That(t, opts.ContourLowThreshold, test.ShouldEqual, 50.0)
	test.That(t, opts.ContourHighThreshold, test.ShouldEqual, 150.0)

	_, err = DecodeOptions(map[string]interface{}{"contour_stepp": 3})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "contour_stepp")

	_, err = DecodeOptions(map[string]interface{}{"palette": "sepia"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "sepia")
}

func TestOptionsValidateCollectsAll(t *testing.T) {
	opts := Options{
		ContourStep:          0,
		ContourLowThreshold:  200,
		ContourHighThreshold: 100,
		Palette:              "",
		RampGamma:            -1,
		RecomputeDebounce:    -time.Second,
	}
	err := opts.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	for _, s := range []string{"contour_step", "low threshold", "palette", "ramp_gamma", "recompute_debounce"} {
		test.That(t, err.Error(), test.ShouldContainSubstring, s)
	}
	test.That(t, DefaultOptions().Validate(), test.ShouldBeNil)
}
