package rimage

import (
	"fmt"

	"github.com/pkg/errors"
)

// EmptyFrameError is returned when an operation is handed a nil or zero sized buffer.
type EmptyFrameError struct {
	Op string
}

// NewEmptyFrameError returns an EmptyFrameError for the named operation.
func NewEmptyFrameError(op string) error {
	return &EmptyFrameError{Op: op}
}

func (e *EmptyFrameError) Error() string {
	return fmt.Sprintf("%s: empty frame", e.Op)
}

// DimensionMismatchError is returned when two buffers (or a buffer and its declared size) that
// must agree in size do not.
type DimensionMismatchError struct {
	Op                            string
	Width, Height                 int
	ExpectedWidth, ExpectedHeight int
}

// NewDimensionMismatchError returns a DimensionMismatchError.
func NewDimensionMismatchError(op string, width, height, expectedWidth, expectedHeight int) error {
	return &DimensionMismatchError{op, width, height, expectedWidth, expectedHeight}
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: frame is %dx%d but %dx%d was expected",
		e.Op, e.Width, e.Height, e.ExpectedWidth, e.ExpectedHeight)
}

// IsEmptyFrameError reports whether err is, or wraps, an EmptyFrameError.
func IsEmptyFrameError(err error) bool {
	var target *EmptyFrameError
	return errors.As(err, &target)
}

// IsDimensionMismatchError reports whether err is, or wraps, a DimensionMismatchError.
func IsDimensionMismatchError(err error) bool {
	var target *DimensionMismatchError
	return errors.As(err, &target)
}

func checkImage(op string, img *Image) error {
	if img == nil || img.width <= 0 || img.height <= 0 {
		return NewEmptyFrameError(op)
	}
	return nil
}

func checkDepth(op string, dm *DepthMap) error {
	if dm == nil || dm.width <= 0 || dm.height <= 0 {
		return NewEmptyFrameError(op)
	}
	return nil
}

func checkSameSize(op string, img *Image, dm *DepthMap) error {
	if err := checkImage(op, img); err != nil {
		return err
	}
	if err := checkDepth(op, dm); err != nil {
		return err
	}
	if img.width != dm.width || img.height != dm.height {
		return NewDimensionMismatchError(op, dm.width, dm.height, img.width, img.height)
	}
	return nil
}
