// Package capture delivers depth and color frames from a source to registered callbacks.
package capture

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"go.sandcal.dev/sandcal/rimage"
)

// ErrStreamUnavailable is returned by sources that do not produce one of the two streams.
var ErrStreamUnavailable = errors.New("stream not available from this source")

// A Source produces depth and color frames. The two streams are independent: each method may
// be called from its own goroutine and they are not phase aligned. A source signals the end of
// a stream with io.EOF.
type Source interface {
	// NextDepth blocks until the next depth frame is available.
	NextDepth(ctx context.Context) (*rimage.DepthMap, time.Time, error)
	// NextRGB blocks until the next color frame is available.
	NextRGB(ctx context.Context) (*rimage.Image, time.Time, error)
	Close(ctx context.Context) error
}

// DepthCallback handles one depth frame. Returning an error drops the frame.
type DepthCallback func(ctx context.Context, dm *rimage.DepthMap, ts time.Time) error

// RGBCallback handles one color frame. Returning an error drops the frame.
type RGBCallback func(ctx context.Context, img *rimage.Image, ts time.Time) error
