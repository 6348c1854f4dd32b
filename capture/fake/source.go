// Package fake implements a capture source that synthesizes a sand table: a sloped floor with a
// hill that drifts across it, seen by a depth camera looking straight down.
package fake

import (
	"context"
	"io"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.sandcal.dev/sandcal/rimage"
	"go.sandcal.dev/sandcal/utils"
)

const (
	initialWidth  = 640
	initialHeight = 480
)

// Config are the attributes of the fake source.
type Config struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
	// Frames ends each stream after that many frames. Zero never ends.
	Frames int `json:"frames,omitempty"`
	// Interval paces both streams.
	Interval time.Duration `json:"interval,omitempty"`
	// Floor is the depth of the table at its near edge; the hill rises Relief units above it.
	Floor  uint16 `json:"floor,omitempty"`
	Relief uint16 `json:"relief,omitempty"`
}

// Source is a synthetic capture source.
type Source struct {
	cfg   Config
	clock clock.Clock

	mu     sync.Mutex
	depthN int
	rgbN   int
	closed bool
}

// NewSource returns a fake source. A nil clock uses the wall clock.
func NewSource(cfg Config, clk clock.Clock) *Source {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = initialWidth, initialHeight
	}
	if cfg.Floor == 0 {
		cfg.Floor = 1200
	}
	if cfg.Relief == 0 {
		cfg.Relief = 300
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Source{cfg: cfg, clock: clk}
}

func (s *Source) take(n *int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errors.New("fake source is closed")
	}
	if s.cfg.Frames > 0 && *n >= s.cfg.Frames {
		return 0, io.EOF
	}
	i := *n
	*n++
	return i, nil
}

func (s *Source) wait(ctx context.Context) error {
	if s.cfg.Interval <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.clock.After(s.cfg.Interval):
		return nil
	}
}

// NextDepth returns frame i of the scene.
func (s *Source) NextDepth(ctx context.Context) (*rimage.DepthMap, time.Time, error) {
	i, err := s.take(&s.depthN)
	if err != nil {
		return nil, time.Time{}, err
	}
	if err := s.wait(ctx); err != nil {
		return nil, time.Time{}, err
	}
	return Scene(s.cfg, i), s.clock.Now(), nil
}

// NextRGB returns a color frame of the table: brighter where the sand is higher.
func (s *Source) NextRGB(ctx context.Context) (*rimage.Image, time.Time, error) {
	i, err := s.take(&s.rgbN)
	if err != nil {
		return nil, time.Time{}, err
	}
	if err := s.wait(ctx); err != nil {
		return nil, time.Time{}, err
	}
	dm := Scene(s.cfg, i)
	img := rimage.NewImage(dm.Width(), dm.Height())
	span := float64(s.cfg.Relief) + float64(s.cfg.Floor)/10
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			v := 1 - (float64(dm.GetDepth(x, y))-float64(s.cfg.Floor)+float64(s.cfg.Relief))/span
			img.SetXY(x, y, rimage.NewColor(
				utils.RoundToUint8(90+140*v),
				utils.RoundToUint8(70+140*v),
				utils.RoundToUint8(40+140*v),
			))
		}
	}
	return img, s.clock.Now(), nil
}

// Close ends both streams.
func (s *Source) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Scene renders frame i: the floor slopes down by a tenth of Floor towards the far edge and a
// gaussian hill of height Relief moves one pixel to the right per frame.
func Scene(cfg Config, i int) *rimage.DepthMap {
	w, h := cfg.Width, cfg.Height
	dm := rimage.NewEmptyDepthMap(w, h)
	cx := float64((w/3 + i) % w)
	cy := float64(h) / 2
	sigma := float64(min(w, h)) / 6
	for y := 0; y < h; y++ {
		floor := float64(cfg.Floor) + float64(cfg.Floor)/10*float64(y)/float64(h)
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			hill := float64(cfg.Relief) * math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma))
			dm.Set(x, y, uint16(utils.ClampF64(math.Round(floor-hill), 0, rimage.MaxDepth)))
		}
	}
	return dm
}
