package capture

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"go.sandcal.dev/sandcal/logging"
)

// Stats counts what a session did with the frames it received.
type Stats struct {
	DepthFrames   int64
	RGBFrames     int64
	DroppedFrames int64
}

// A Session owns the callback registrations for one source and drives both of its streams.
// Callbacks may be replaced while the session runs; each frame uses the callback registered
// when it arrived.
type Session struct {
	id     uuid.UUID
	src    Source
	logger logging.Logger

	mu      sync.Mutex
	onDepth DepthCallback
	onRGB   RGBCallback

	depthFrames atomic.Int64
	rgbFrames   atomic.Int64
	dropped     atomic.Int64

	// dropWarnings throttles drop warnings when a stream keeps failing.
	dropWarnings rate.Sometimes
}

// NewSession returns a session reading from src.
func NewSession(src Source, logger logging.Logger) *Session {
	id := uuid.New()
	return &Session{
		id:           id,
		src:          src,
		logger:       logger.Sublogger("session"),
		dropWarnings: rate.Sometimes{First: 10, Interval: time.Second},
	}
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// SetDepthCallback registers the depth frame handler. nil drops depth frames.
func (s *Session) SetDepthCallback(cb DepthCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDepth = cb
}

// SetRGBCallback registers the color frame handler. nil drops color frames.
func (s *Session) SetRGBCallback(cb RGBCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRGB = cb
}

func (s *Session) depthCallback() DepthCallback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onDepth
}

func (s *Session) rgbCallback() RGBCallback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.onRGB
}

// Stats returns the frame counters.
func (s *Session) Stats() Stats {
	return Stats{
		DepthFrames:   s.depthFrames.Load(),
		RGBFrames:     s.rgbFrames.Load(),
		DroppedFrames: s.dropped.Load(),
	}
}

// Run reads both streams until they end or ctx is done. A frame that a callback rejects, or
// whose timestamp does not move forward, is dropped and the stream goes on. Run returns nil
// once both streams ended or ctx was canceled, and the first source error otherwise.
func (s *Session) Run(ctx context.Context) error {
	s.logger.Infow("capture session started", "session", s.id.String())
	defer s.logger.Infow("capture session stopped", "session", s.id.String())

	errs, ctx := errgroup.WithContext(ctx)
	errs.Go(func() error {
		return s.stream(ctx, "depth", func(ctx context.Context) (time.Time, func(context.Context) error, error) {
			dm, ts, err := s.src.NextDepth(ctx)
			if err != nil {
				return ts, nil, err
			}
			s.depthFrames.Inc()
			cb := s.depthCallback()
			if cb == nil {
				return ts, nil, nil
			}
			return ts, func(ctx context.Context) error { return cb(ctx, dm, ts) }, nil
		})
	})
	errs.Go(func() error {
		return s.stream(ctx, "rgb", func(ctx context.Context) (time.Time, func(context.Context) error, error) {
			img, ts, err := s.src.NextRGB(ctx)
			if err != nil {
				return ts, nil, err
			}
			s.rgbFrames.Inc()
			cb := s.rgbCallback()
			if cb == nil {
				return ts, nil, nil
			}
			return ts, func(ctx context.Context) error { return cb(ctx, img, ts) }, nil
		})
	})
	return errs.Wait()
}

// stream pulls frames with next until the stream ends. next returns the frame timestamp and
// the call that hands the frame to its callback, if any.
func (s *Session) stream(
	ctx context.Context,
	name string,
	next func(ctx context.Context) (time.Time, func(context.Context) error, error),
) error {
	var last time.Time
	for {
		ts, deliver, err := next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF), errors.Is(err, ErrStreamUnavailable):
			s.logger.Debugw("stream ended", "session", s.id.String(), "stream", name, "reason", err)
			return nil
		case ctx.Err() != nil:
			return nil
		default:
			return errors.Wrapf(err, "%s stream", name)
		}
		if !last.IsZero() && !ts.After(last) {
			s.dropped.Inc()
			s.dropWarnings.Do(func() {
				s.logger.Warnw("dropping out of order frame", "session", s.id.String(), "stream", name, "timestamp", ts, "previous", last)
			})
			continue
		}
		last = ts
		if deliver == nil {
			continue
		}
		if err := deliver(ctx); err != nil {
			s.dropped.Inc()
			s.dropWarnings.Do(func() {
				s.logger.Warnw("dropping frame", "session", s.id.String(), "stream", name, "error", err)
			})
		}
	}
}

// Close closes the source.
func (s *Session) Close(ctx context.Context) error {
	return s.src.Close(ctx)
}
