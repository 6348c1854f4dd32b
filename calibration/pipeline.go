// Package calibration rectifies and colorizes depth sensor frames using homographies computed
// from user placed control points.
package calibration

import (
	"context"
	"math"
	"sync"

	"github.com/bep/debounce"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"
	"go.uber.org/atomic"

	"go.sandcal.dev/sandcal/logging"
	"go.sandcal.dev/sandcal/rimage"
	"go.sandcal.dev/sandcal/rimage/transform"
)

// RGBTransform is applied to every first stage rectified color frame before the second stage.
type RGBTransform func(ctx context.Context, img *rimage.Image) (*rimage.Image, error)

// SnapshotSink receives the first stage rectified depth map of a frame after RequestSnapshot.
// The map must not be modified.
type SnapshotSink func(dm *rimage.DepthMap)

// snapshot is the calibration a frame is processed with. It is never modified once stored;
// every change stores a new one so a frame always sees a matching H1, H2 and depth range.
type snapshot struct {
	h1, h2             transform.Homography
	minDepth, maxDepth int
	points             ControlPoints
	mirror             bool
}

// A Pipeline rectifies depth and color frames of a fixed size. Frame processing may run
// concurrently with calibration changes.
type Pipeline struct {
	width, height int
	opts          Options
	logger        logging.Logger
	detector      *rimage.CannyEdgeDetector
	ramp          *rimage.ColorRamp

	// mu serializes writers of current.
	mu      sync.Mutex
	current atomic.Pointer[snapshot]

	calibrateDepth    atomic.Bool
	snapshotRequested atomic.Bool
	rgbTransform      atomic.Pointer[RGBTransform]
	snapshotSink      atomic.Pointer[SnapshotSink]

	debounced func(func())
}

// NewPipeline returns a pipeline for width x height frames. It starts with the default
// control points and no rectification.
func NewPipeline(width, height int, opts Options, logger logging.Logger) (*Pipeline, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("pipeline frame size must be positive, got %dx%d", width, height)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	detector, err := rimage.NewCannyEdgeDetectorWithParameters(opts.ContourLowThreshold, opts.ContourHighThreshold)
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		width:    width,
		height:   height,
		opts:     opts,
		logger:   logger,
		detector: detector,
	}
	if opts.Palette == PaletteRainbow {
		p.ramp = rimage.RampForGamma(opts.RampGamma)
	}
	if opts.RecomputeDebounce > 0 {
		p.debounced = debounce.New(opts.RecomputeDebounce)
	}
	p.current.Store(&snapshot{points: DefaultControlPoints(width, height), mirror: opts.Mirror})
	return p, nil
}

// Size returns the frame size the pipeline works on.
func (p *Pipeline) Size() (int, int) {
	return p.width, p.height
}

// Homographies returns the first and second stage homographies as one consistent pair.
func (p *Pipeline) Homographies() (transform.Homography, transform.Homography) {
	snap := p.current.Load()
	return snap.h1, snap.h2
}

// DepthRange returns the current calibrated depth range.
func (p *Pipeline) DepthRange() (int, int) {
	snap := p.current.Load()
	return snap.minDepth, snap.maxDepth
}

// ControlPoints returns the current control points.
func (p *Pipeline) ControlPoints() ControlPoints {
	return p.current.Load().points
}

// Mirror reports whether the second stage is mirrored.
func (p *Pipeline) Mirror() bool {
	return p.current.Load().mirror
}

// update stores the result of fn applied to the current snapshot. fn gets a copy it may
// modify freely. Returning an error leaves the current snapshot in place.
func (p *Pipeline) update(fn func(next *snapshot) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := *p.current.Load()
	if err := fn(&next); err != nil {
		return err
	}
	p.current.Store(&next)
	return nil
}

// MoveControlPoints replaces the points of one group. Moving box or mire points recomputes
// both homographies, immediately or after the configured debounce. Malformed input is rejected
// without touching any state. If the moved points are degenerate they are still recorded but
// the previous homographies are kept and the error is returned.
func (p *Pipeline) MoveControlPoints(group ControlGroup, pts []r2.Point) error {
	err := p.update(func(next *snapshot) error {
		points, err := next.points.with(group, pts)
		if err != nil {
			return err
		}
		next.points = points
		return nil
	})
	if err != nil {
		return err
	}
	if group == GroupDepth {
		return nil
	}
	return p.scheduleRecompute()
}

// SetMirror switches the mirrored second stage on or off and recomputes the homographies.
func (p *Pipeline) SetMirror(mirror bool) error {
	changed := false
	_ = p.update(func(next *snapshot) error {
		changed = next.mirror != mirror
		next.mirror = mirror
		return nil
	})
	if !changed {
		return nil
	}
	return p.scheduleRecompute()
}

func (p *Pipeline) scheduleRecompute() error {
	if p.debounced == nil {
		return p.Recompute()
	}
	p.debounced(func() {
		if err := p.Recompute(); err != nil {
			p.logger.Warnw("keeping previous homographies", "error", err)
		}
	})
	return nil
}

// Recompute estimates H1 from the box quad and H2 from the mire quad, relative to H1, so that
// H2 applies to frames already rectified by H1. On failure both homographies are kept.
func (p *Pipeline) Recompute() error {
	return p.update(func(next *snapshot) error {
		h1, h2, err := p.estimate(next.points, next.mirror)
		if err != nil {
			return err
		}
		next.h1, next.h2 = h1, h2
		p.logger.Debugw("recomputed homographies", "h1", h1.String(), "h2", h2.String())
		return nil
	})
}

func (p *Pipeline) estimate(points ControlPoints, mirror bool) (transform.Homography, transform.Homography, error) {
	h1, err := transform.EstimateHomography(points.Box, p.width, p.height, false)
	if err != nil {
		return transform.Homography{}, transform.Homography{}, errors.Wrap(err, "box")
	}
	h2Raw, err := transform.EstimateHomography(points.Mire, p.width, p.height, mirror)
	if err != nil {
		return transform.Homography{}, transform.Homography{}, errors.Wrap(err, "mire")
	}
	h1Inv, err := h1.Inverse()
	if err != nil {
		return transform.Homography{}, transform.Homography{}, transform.NewDegenerateConfigurationError("box homography: %v", err)
	}
	return h1, h2Raw.Mul(h1Inv).Normalized(), nil
}

// CalibrateDepth makes the next depth frame set the depth range from the two depth points.
func (p *Pipeline) CalibrateDepth() {
	p.calibrateDepth.Store(true)
}

// SetDepthRange sets the depth range directly. The bounds may be given in either order.
func (p *Pipeline) SetDepthRange(minDepth, maxDepth int) error {
	if err := checkDepthRange(minDepth, maxDepth); err != nil {
		return err
	}
	if minDepth > maxDepth {
		minDepth, maxDepth = maxDepth, minDepth
	}
	return p.update(func(next *snapshot) error {
		next.minDepth, next.maxDepth = minDepth, maxDepth
		return nil
	})
}

func checkDepthRange(minDepth, maxDepth int) error {
	if minDepth < 0 || maxDepth < 0 || minDepth > rimage.MaxDepth || maxDepth > rimage.MaxDepth {
		return errors.Errorf("depth range [%d, %d] is outside [0, %d]", minDepth, maxDepth, rimage.MaxDepth)
	}
	return nil
}

// RequestSnapshot makes the next depth frame hand its rectified depth map to the sink.
func (p *Pipeline) RequestSnapshot() {
	p.snapshotRequested.Store(true)
}

// SetSnapshotSink registers where requested snapshots go. nil removes the sink.
func (p *Pipeline) SetSnapshotSink(sink SnapshotSink) {
	if sink == nil {
		p.snapshotSink.Store(nil)
		return
	}
	p.snapshotSink.Store(&sink)
}

// SetRGBTransform registers the hook applied to rectified color frames. nil removes it.
func (p *Pipeline) SetRGBTransform(fn RGBTransform) {
	if fn == nil {
		p.rgbTransform.Store(nil)
		return
	}
	p.rgbTransform.Store(&fn)
}

// State returns the persistable calibration.
func (p *Pipeline) State() State {
	snap := p.current.Load()
	return State{
		Width:    p.width,
		Height:   p.height,
		H1:       homographyValues(snap.h1),
		H2:       homographyValues(snap.h2),
		MinDepth: snap.minDepth,
		MaxDepth: snap.maxDepth,
		Box:      toPoints(snap.points.Box[:]),
		Mire:     toPoints(snap.points.Mire[:]),
		Depth:    toPoints(snap.points.Depth[:]),
		Mirror:   snap.mirror,
	}
}

// Restore replaces the whole calibration with state, without recomputing the homographies.
// A state with a singular homography or a depth range outside [0, rimage.MaxDepth] is rejected
// and the current calibration kept.
func (p *Pipeline) Restore(state State) error {
	if state.Width != p.width || state.Height != p.height {
		return rimage.NewDimensionMismatchError("restore calibration", state.Width, state.Height, p.width, p.height)
	}
	h1, err := parseHomography("h1", state.H1)
	if err != nil {
		return err
	}
	h2, err := parseHomography("h2", state.H2)
	if err != nil {
		return err
	}
	points := p.ControlPoints()
	for _, g := range []struct {
		group ControlGroup
		pts   []Point
	}{{GroupBox, state.Box}, {GroupMire, state.Mire}, {GroupDepth, state.Depth}} {
		if points, err = points.with(g.group, fromPoints(g.pts)); err != nil {
			return err
		}
	}
	minDepth, maxDepth := state.MinDepth, state.MaxDepth
	if err := checkDepthRange(minDepth, maxDepth); err != nil {
		return err
	}
	if minDepth > maxDepth {
		minDepth, maxDepth = maxDepth, minDepth
	}
	return p.update(func(next *snapshot) error {
		*next = snapshot{
			h1:       h1,
			h2:       h2,
			minDepth: minDepth,
			maxDepth: maxDepth,
			points:   points,
			mirror:   state.Mirror,
		}
		return nil
	})
}

func (p *Pipeline) checkFrame(op string, width, height int) error {
	if width <= 0 || height <= 0 {
		return rimage.NewEmptyFrameError(op)
	}
	if width != p.width || height != p.height {
		return rimage.NewDimensionMismatchError(op, width, height, p.width, p.height)
	}
	return nil
}

// ProcessDepthFrame rectifies raw with H1, colors it, and, when secondary is set, warps the
// result with H2 for the projector output.
func (p *Pipeline) ProcessDepthFrame(ctx context.Context, raw *rimage.DepthMap, secondary bool) (*rimage.Image, error) {
	ctx, span := trace.StartSpan(ctx, "calibration::Pipeline::ProcessDepthFrame")
	defer span.End()

	if raw == nil {
		return nil, rimage.NewEmptyFrameError("process depth frame")
	}
	if err := p.checkFrame("process depth frame", raw.Width(), raw.Height()); err != nil {
		return nil, err
	}
	snap := p.current.Load()

	rectified, err := transform.WarpDepth(raw, snap.h1)
	if err != nil {
		return nil, err
	}

	if p.calibrateDepth.CompareAndSwap(true, false) {
		snap, err = p.calibrateDepthRange(rectified, snap)
		if err != nil {
			p.logger.Warnw("depth calibration skipped", "error", err)
		}
	}
	if p.snapshotRequested.CompareAndSwap(true, false) {
		if sink := p.snapshotSink.Load(); sink != nil {
			(*sink)(rectified)
		} else {
			p.logger.Warnw("snapshot requested but no sink is registered")
		}
	}

	colored, err := p.colorize(ctx, rectified, snap.minDepth, snap.maxDepth)
	if err != nil {
		return nil, err
	}
	if !secondary {
		return colored, nil
	}
	return transform.Warp(colored, snap.h2)
}

// calibrateDepthRange samples rectified at both depth points and stores their min and max as
// the new range. The returned snapshot is the one the rest of the frame should use.
func (p *Pipeline) calibrateDepthRange(rectified *rimage.DepthMap, snap *snapshot) (*snapshot, error) {
	samples := make([]int, 0, 2)
	for i, pt := range snap.points.Depth {
		x, y := int(math.Round(pt.X)), int(math.Round(pt.Y))
		if !rectified.Contains(x, y) {
			return snap, NewInvalidControlPointsError(GroupDepth, "point %d (%v) is outside the frame", i, pt)
		}
		samples = append(samples, int(rectified.GetDepth(x, y)))
	}
	minDepth, maxDepth := samples[0], samples[1]
	if minDepth > maxDepth {
		minDepth, maxDepth = maxDepth, minDepth
	}
	if err := p.SetDepthRange(minDepth, maxDepth); err != nil {
		return snap, err
	}
	p.logger.Infow("depth calibration", "min_depth", minDepth, "max_depth", maxDepth)

	// keep this frame on the homographies it started with
	withRange := *snap
	withRange.minDepth, withRange.maxDepth = minDepth, maxDepth
	return &withRange, nil
}

func (p *Pipeline) colorize(ctx context.Context, dm *rimage.DepthMap, minDepth, maxDepth int) (*rimage.Image, error) {
	_, span := trace.StartSpan(ctx, "calibration::Pipeline::colorize")
	defer span.End()

	if p.opts.Palette == PaletteRainbow {
		return rimage.ColorizeWithRamp(dm, minDepth, maxDepth, p.ramp)
	}
	colored, err := rimage.Colorize(dm, minDepth, maxDepth)
	if err != nil {
		return nil, err
	}
	if colored, err = rimage.OverlayContoursWithDetector(colored, dm, p.opts.ContourStep, p.detector); err != nil {
		return nil, err
	}
	return rimage.ApplyShading(colored, dm)
}

// ProcessRGBFrame rectifies raw with H1, passes it through the registered RGBTransform, and,
// when secondary is set, warps the result with H2.
func (p *Pipeline) ProcessRGBFrame(ctx context.Context, raw *rimage.Image, secondary bool) (*rimage.Image, error) {
	ctx, span := trace.StartSpan(ctx, "calibration::Pipeline::ProcessRGBFrame")
	defer span.End()

	if raw == nil {
		return nil, rimage.NewEmptyFrameError("process rgb frame")
	}
	if err := p.checkFrame("process rgb frame", raw.Width(), raw.Height()); err != nil {
		return nil, err
	}
	snap := p.current.Load()

	rectified, err := transform.Warp(raw, snap.h1)
	if err != nil {
		return nil, err
	}
	transformed := rectified
	if fn := p.rgbTransform.Load(); fn != nil {
		if transformed, err = (*fn)(ctx, rectified); err != nil {
			return nil, errors.Wrap(err, "rgb transform")
		}
		if transformed == nil {
			return nil, rimage.NewEmptyFrameError("rgb transform")
		}
	}
	if !secondary {
		return transformed, nil
	}
	return transform.Warp(transformed, snap.h2)
}
