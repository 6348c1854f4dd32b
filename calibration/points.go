package calibration

import (
	"fmt"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.sandcal.dev/sandcal/rimage/transform"
	"go.sandcal.dev/sandcal/utils"
)

// ControlGroup names one set of control points.
type ControlGroup string

const (
	// GroupBox is the quad rectified by the first stage homography.
	GroupBox = ControlGroup("box")
	// GroupMire is the projector target quad used for the second stage homography.
	GroupMire = ControlGroup("mire")
	// GroupDepth is the pair of points sampled to calibrate the depth range.
	GroupDepth = ControlGroup("depth")
)

// ParseControlGroup returns the group with the given name.
func ParseControlGroup(name string) (ControlGroup, error) {
	switch g := ControlGroup(name); g {
	case GroupBox, GroupMire, GroupDepth:
		return g, nil
	default:
		return "", utils.NewUnknownNameError("control group", name, string(GroupBox), string(GroupMire), string(GroupDepth))
	}
}

// size is how many points the group holds.
func (g ControlGroup) size() int {
	if g == GroupDepth {
		return 2
	}
	return 4
}

// InvalidControlPointsError is returned for control point input that cannot be used at all,
// such as the wrong number of points or non-finite coordinates.
type InvalidControlPointsError struct {
	Group  ControlGroup
	Reason string
}

// NewInvalidControlPointsError returns an InvalidControlPointsError.
func NewInvalidControlPointsError(group ControlGroup, format string, args ...interface{}) error {
	return &InvalidControlPointsError{Group: group, Reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidControlPointsError) Error() string {
	return fmt.Sprintf("invalid %s control points: %s", e.Group, e.Reason)
}

// IsInvalidControlPointsError reports whether err is, or wraps, an InvalidControlPointsError.
func IsInvalidControlPointsError(err error) bool {
	var target *InvalidControlPointsError
	return errors.As(err, &target)
}

// ControlPoints holds every control point the pipeline knows about, in frame pixel coordinates.
type ControlPoints struct {
	Box   transform.Quad
	Mire  transform.Quad
	Depth [2]r2.Point
}

// defaultFrame is the frame size the default point layout was designed for.
var defaultFrame = r2.Point{X: 640, Y: 480}

// DefaultControlPoints lays the box and mire quads just inside the frame corners and the two
// depth points on the horizontal midline, scaled from a 640x480 layout.
func DefaultControlPoints(width, height int) ControlPoints {
	sx, sy := float64(width)/defaultFrame.X, float64(height)/defaultFrame.Y
	scale := func(pts ...r2.Point) []r2.Point {
		return lo.Map(pts, func(pt r2.Point, _ int) r2.Point {
			return r2.Point{X: pt.X * sx, Y: pt.Y * sy}
		})
	}
	quad := scale(r2.Point{X: 15, Y: 15}, r2.Point{X: 635, Y: 15}, r2.Point{X: 635, Y: 475}, r2.Point{X: 15, Y: 475})
	depth := scale(r2.Point{X: 55, Y: 235}, r2.Point{X: 595, Y: 235})

	var cp ControlPoints
	copy(cp.Box[:], quad)
	copy(cp.Mire[:], quad)
	copy(cp.Depth[:], depth)
	return cp
}

// Get returns a copy of the points of one group.
func (cp ControlPoints) Get(group ControlGroup) []r2.Point {
	switch group {
	case GroupBox:
		return append([]r2.Point(nil), cp.Box[:]...)
	case GroupMire:
		return append([]r2.Point(nil), cp.Mire[:]...)
	case GroupDepth:
		return append([]r2.Point(nil), cp.Depth[:]...)
	default:
		return nil
	}
}

// with returns a copy of cp where group is replaced by pts, after checking count and
// finiteness.
func (cp ControlPoints) with(group ControlGroup, pts []r2.Point) (ControlPoints, error) {
	if _, err := ParseControlGroup(string(group)); err != nil {
		return cp, NewInvalidControlPointsError(group, "%v", err)
	}
	if len(pts) != group.size() {
		return cp, NewInvalidControlPointsError(group, "expected %d points, got %d", group.size(), len(pts))
	}
	if i := lo.IndexOf(lo.Map(pts, func(pt r2.Point, _ int) bool {
		return utils.IsFinite(pt.X) && utils.IsFinite(pt.Y)
	}), false); i >= 0 {
		return cp, NewInvalidControlPointsError(group, "point %d is not finite (%v)", i, pts[i])
	}
	switch group {
	case GroupBox:
		copy(cp.Box[:], pts)
	case GroupMire:
		copy(cp.Mire[:], pts)
	case GroupDepth:
		copy(cp.Depth[:], pts)
	}
	return cp, nil
}
