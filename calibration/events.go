package calibration

import (
	"context"

	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
)

// EventKind says what happened to the calibration controls.
type EventKind int

const (
	// ControlPointsMoved carries the new points of one group.
	ControlPointsMoved EventKind = iota
	// MirrorToggled carries the new mirror setting.
	MirrorToggled
	// DepthCalibrationRequested asks the next depth frame to set the depth range.
	DepthCalibrationRequested
	// SnapshotRequested asks the next depth frame to go to the snapshot sink.
	SnapshotRequested
	// PresetLoaded carries a whole state to restore.
	PresetLoaded
)

func (k EventKind) String() string {
	switch k {
	case ControlPointsMoved:
		return "control_points_moved"
	case MirrorToggled:
		return "mirror_toggled"
	case DepthCalibrationRequested:
		return "depth_calibration_requested"
	case SnapshotRequested:
		return "snapshot_requested"
	case PresetLoaded:
		return "preset_loaded"
	default:
		return "unknown"
	}
}

// An Event is a change made through whatever front end drives the calibration.
type Event struct {
	Kind   EventKind
	Group  ControlGroup
	Points []r2.Point
	Mirror bool
	State  *State
}

// Handle applies one event.
func (p *Pipeline) Handle(ev Event) error {
	switch ev.Kind {
	case ControlPointsMoved:
		return p.MoveControlPoints(ev.Group, ev.Points)
	case MirrorToggled:
		return p.SetMirror(ev.Mirror)
	case DepthCalibrationRequested:
		p.CalibrateDepth()
		return nil
	case SnapshotRequested:
		p.RequestSnapshot()
		return nil
	case PresetLoaded:
		if ev.State == nil {
			return errors.New("preset event has no state")
		}
		return p.Restore(*ev.State)
	default:
		return errors.Errorf("unknown event kind %d", ev.Kind)
	}
}

// Run handles events until the channel is closed or ctx is done. A failing event is logged and
// leaves the calibration as it was.
func (p *Pipeline) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := p.Handle(ev); err != nil {
				p.logger.Warnw("calibration event rejected", "event", ev.Kind.String(), "error", err)
			}
		}
	}
}
