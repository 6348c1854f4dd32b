package capture

import (
	"context"
	"image"
	"io"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"go.sandcal.dev/sandcal/rimage"
)

// File name patterns of recorded frames.
const (
	DepthFramePattern = "dpt_%05d.png"
	RGBFramePattern   = "rgb_%05d.ppm"
)

// ReplayConfig describes a directory of recorded frames to play back.
type ReplayConfig struct {
	// DepthDir and RGBDir hold the dpt_*.png and rgb_*.ppm (or rgb_*.png) files. Either may be
	// empty to leave that stream out.
	DepthDir string
	RGBDir   string
	// Width and Height resize every frame when set.
	Width, Height int
	// Interval paces each stream. Zero replays as fast as frames are read.
	Interval time.Duration
	// Loop restarts a stream from its first frame instead of ending it.
	Loop  bool
	Clock clock.Clock
}

// ReplaySource plays back frames written by a Recorder.
type ReplaySource struct {
	cfg        ReplayConfig
	depthFiles []string
	rgbFiles   []string

	mu       sync.Mutex
	depthPos int
	rgbPos   int
	closed   bool
}

// NewReplaySource lists the recorded frames of cfg.
func NewReplaySource(cfg ReplayConfig) (*ReplaySource, error) {
	if cfg.DepthDir == "" && cfg.RGBDir == "" {
		return nil, errors.New("replay needs a depth or an rgb directory")
	}
	if (cfg.Width == 0) != (cfg.Height == 0) || cfg.Width < 0 || cfg.Height < 0 {
		return nil, errors.Errorf("replay size must be set for both dimensions, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	rs := &ReplaySource{cfg: cfg}
	var err error
	if cfg.DepthDir != "" {
		if rs.depthFiles, err = listFrames(cfg.DepthDir, "dpt_*.png"); err != nil {
			return nil, err
		}
	}
	if cfg.RGBDir != "" {
		if rs.rgbFiles, err = listFrames(cfg.RGBDir, "rgb_*.ppm", "rgb_*.png"); err != nil {
			return nil, err
		}
	}
	if len(rs.depthFiles) == 0 && len(rs.rgbFiles) == 0 {
		return nil, errors.Errorf("no recorded frames in %q or %q", cfg.DepthDir, cfg.RGBDir)
	}
	return rs, nil
}

func listFrames(dir string, patterns ...string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// FrameCounts returns how many depth and color frames were found.
func (rs *ReplaySource) FrameCounts() (int, int) {
	return len(rs.depthFiles), len(rs.rgbFiles)
}

// next returns the file the stream at pos should play next and advances pos.
func (rs *ReplaySource) next(files []string, pos *int) (string, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.closed {
		return "", errors.New("replay source is closed")
	}
	if len(files) == 0 {
		return "", ErrStreamUnavailable
	}
	if *pos >= len(files) {
		if !rs.cfg.Loop {
			return "", io.EOF
		}
		*pos = 0
	}
	f := files[*pos]
	*pos++
	return f, nil
}

func (rs *ReplaySource) wait(ctx context.Context) error {
	if rs.cfg.Interval <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-rs.cfg.Clock.After(rs.cfg.Interval):
		return nil
	}
}

// NextDepth reads the next recorded depth frame.
func (rs *ReplaySource) NextDepth(ctx context.Context) (*rimage.DepthMap, time.Time, error) {
	path, err := rs.next(rs.depthFiles, &rs.depthPos)
	if err != nil {
		return nil, time.Time{}, err
	}
	if err := rs.wait(ctx); err != nil {
		return nil, time.Time{}, err
	}
	dm, err := rimage.ReadDepthMapFromFile(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	if dm, err = rs.resizeDepth(dm); err != nil {
		return nil, time.Time{}, err
	}
	return dm, rs.cfg.Clock.Now(), nil
}

// NextRGB reads the next recorded color frame.
func (rs *ReplaySource) NextRGB(ctx context.Context) (*rimage.Image, time.Time, error) {
	path, err := rs.next(rs.rgbFiles, &rs.rgbPos)
	if err != nil {
		return nil, time.Time{}, err
	}
	if err := rs.wait(ctx); err != nil {
		return nil, time.Time{}, err
	}
	img, err := rimage.ReadImageFromFile(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	return rs.resizeRGB(img), rs.cfg.Clock.Now(), nil
}

// resizeDepth uses nearest neighbor so that no depth value is invented between two surfaces.
func (rs *ReplaySource) resizeDepth(dm *rimage.DepthMap) (*rimage.DepthMap, error) {
	if rs.cfg.Width == 0 || (dm.Width() == rs.cfg.Width && dm.Height() == rs.cfg.Height) {
		return dm, nil
	}
	resized := resize.Resize(uint(rs.cfg.Width), uint(rs.cfg.Height), dm.ToGray16(), resize.NearestNeighbor)
	return rimage.ConvertImageToDepthMap(resized)
}

func (rs *ReplaySource) resizeRGB(img *rimage.Image) *rimage.Image {
	if rs.cfg.Width == 0 || (img.Width() == rs.cfg.Width && img.Height() == rs.cfg.Height) {
		return img
	}
	dst := image.NewNRGBA(image.Rect(0, 0, rs.cfg.Width, rs.cfg.Height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img.ToNRGBA(), img.Bounds(), draw.Src, nil)
	return rimage.NewImageFromStdImage(dst)
}

// Close stops the source; further reads fail.
func (rs *ReplaySource) Close(ctx context.Context) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.closed = true
	return nil
}
