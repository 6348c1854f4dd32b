package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/atomic"

	"go.sandcal.dev/sandcal/logging"
	"go.sandcal.dev/sandcal/rimage"
	"go.sandcal.dev/sandcal/utils"
)

// A Recorder writes every frame it is handed into a directory, in the layout a ReplaySource
// reads back. Its Record methods can be registered directly as session callbacks.
type Recorder struct {
	dir    string
	logger logging.Logger

	depthIdx atomic.Int64
	rgbIdx   atomic.Int64
}

// NewRecorder creates dir if needed and returns a recorder writing into it.
func NewRecorder(dir string, logger logging.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "cannot create recording directory %q", dir)
	}
	return &Recorder{dir: dir, logger: logger.Sublogger("recorder")}, nil
}

// Dir is where frames are written.
func (r *Recorder) Dir() string {
	return r.dir
}

// RecordDepth writes dm as the next dpt_NNNNN.png.
func (r *Recorder) RecordDepth(ctx context.Context, dm *rimage.DepthMap, ts time.Time) error {
	if dm == nil {
		return rimage.NewEmptyFrameError("record depth")
	}
	path, err := utils.SafeJoinDir(r.dir, fmt.Sprintf(DepthFramePattern, r.depthIdx.Inc()-1))
	if err != nil {
		return err
	}
	if err := rimage.WriteDepthMapToFile(path, dm); err != nil {
		return err
	}
	r.logger.Debugw("recorded depth frame", "path", path, "timestamp", ts)
	return nil
}

// RecordRGB writes img as the next rgb_NNNNN.ppm.
func (r *Recorder) RecordRGB(ctx context.Context, img *rimage.Image, ts time.Time) error {
	if img == nil {
		return rimage.NewEmptyFrameError("record rgb")
	}
	path, err := utils.SafeJoinDir(r.dir, fmt.Sprintf(RGBFramePattern, r.rgbIdx.Inc()-1))
	if err != nil {
		return err
	}
	if err := rimage.WriteImageToFile(path, img); err != nil {
		return err
	}
	r.logger.Debugw("recorded rgb frame", "path", path, "timestamp", ts)
	return nil
}

// Counts returns how many depth and color frames were written.
func (r *Recorder) Counts() (int64, int64) {
	return r.depthIdx.Load(), r.rgbIdx.Load()
}
