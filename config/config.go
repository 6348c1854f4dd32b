// Package config defines the sandcal configuration file.
package config

import (
	"time"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.sandcal.dev/sandcal/calibration"
	"go.sandcal.dev/sandcal/logging"
	"go.sandcal.dev/sandcal/utils"
)

// Source kinds.
const (
	SourceFake   = "fake"
	SourceReplay = "replay"
)

// Default frame geometry, the resolution of the depth cameras the table is built for.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Config describes a whole sandcal run: frame geometry, where frames come from, how the
// pipeline is tuned and where calibration presets live.
type Config struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// PresetFile is restored at startup when it exists and is written on save.
	PresetFile string `json:"preset_file,omitempty"`
	// WatchPreset reloads PresetFile whenever it changes on disk.
	WatchPreset bool `json:"watch_preset,omitempty"`

	Log      LogConfig              `json:"log"`
	Capture  CaptureConfig          `json:"capture"`
	Pipeline map[string]interface{} `json:"pipeline,omitempty"`

	// ConfigFilePath is where the config was read from, if anywhere.
	ConfigFilePath string `json:"-"`
}

// LogConfig selects the log level and an optional rotated log file.
type LogConfig struct {
	Level string `json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	File  string `json:"file,omitempty"`
}

// CaptureConfig selects the frame source.
type CaptureConfig struct {
	Source string `json:"source,omitempty" jsonschema:"enum=fake,enum=replay"`
	// DepthDir and RGBDir are read by the replay source.
	DepthDir string `json:"depth_dir,omitempty"`
	RGBDir   string `json:"rgb_dir,omitempty"`
	// FrameInterval is a duration string such as "33ms".
	FrameInterval string `json:"frame_interval,omitempty"`
	Loop          bool   `json:"loop,omitempty"`
	// Frames ends the fake source after that many frames.
	Frames int `json:"frames,omitempty"`
	// RecordDir receives a copy of every raw frame when set.
	RecordDir string `json:"record_dir,omitempty"`
}

// Interval parses FrameInterval. An empty interval is zero.
func (c CaptureConfig) Interval() (time.Duration, error) {
	if c.FrameInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.FrameInterval)
	if err != nil {
		return 0, errors.Wrap(err, "invalid frame_interval")
	}
	return d, nil
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	var err error
	if c.Width <= 0 || c.Height <= 0 {
		err = multierr.Append(err, errors.Errorf("%s: width and height must be positive, got %dx%d", path, c.Width, c.Height))
	}
	if _, lvlErr := logging.LevelFromString(c.Log.Level); lvlErr != nil {
		err = multierr.Append(err, errors.Wrapf(lvlErr, "%s.log", path))
	}
	err = multierr.Append(err, c.Capture.Validate(path+".capture"))
	if _, optErr := c.PipelineOptions(); optErr != nil {
		err = multierr.Append(err, errors.Wrapf(optErr, "%s.pipeline", path))
	}
	return err
}

// Validate checks the source selection and its attributes.
func (c CaptureConfig) Validate(path string) error {
	var err error
	switch c.Source {
	case SourceFake:
	case SourceReplay:
		if c.DepthDir == "" && c.RGBDir == "" {
			err = multierr.Append(err, errors.Errorf("%s: replay needs depth_dir or rgb_dir", path))
		}
	default:
		err = multierr.Append(err, errors.Wrap(
			utils.NewUnknownNameError("source", c.Source, SourceFake, SourceReplay), path))
	}
	if d, intErr := c.Interval(); intErr != nil {
		err = multierr.Append(err, errors.Wrap(intErr, path))
	} else if d < 0 {
		err = multierr.Append(err, errors.Errorf("%s: frame_interval must not be negative", path))
	}
	if c.Frames < 0 {
		err = multierr.Append(err, errors.Errorf("%s: frames must not be negative", path))
	}
	return err
}

// Ensure fills defaults and validates.
func (c *Config) Ensure() error {
	if c.Width == 0 && c.Height == 0 {
		c.Width, c.Height = DefaultWidth, DefaultHeight
	}
	if c.Capture.Source == "" {
		c.Capture.Source = SourceFake
	}
	if c.PresetFile == "" {
		c.PresetFile = calibration.DefaultPresetFile
	}
	return c.Validate("config")
}

// PipelineOptions decodes the pipeline attributes over the defaults.
func (c *Config) PipelineOptions() (calibration.Options, error) {
	return calibration.DecodeOptions(c.Pipeline)
}

// NewLogger builds the logger described by the log section.
func (c *Config) NewLogger(name string) (logging.Logger, error) {
	level, err := logging.LevelFromString(c.Log.Level)
	if err != nil {
		return nil, err
	}
	var logger logging.Logger
	if c.Log.File != "" {
		logger = logging.NewFileLogger(name, c.Log.File)
	} else {
		logger = logging.NewLogger(name)
	}
	logger.SetLevel(level)
	return logger, nil
}

// Schema describes the configuration file as JSON schema.
func Schema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
