package fake

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"go.viam.com/test"
)

func TestScene(t *testing.T) {
	cfg := Config{Width: 60, Height: 30, Floor: 1000, Relief: 300}
	dm := Scene(cfg, 0)
	test.That(t, dm.Width(), test.ShouldEqual, 60)
	test.That(t, dm.Height(), test.ShouldEqual, 30)

	// the hill top is the nearest sample
	lo, hi := dm.MinMax()
	test.That(t, dm.GetDepth(20, 15), test.ShouldEqual, lo)
	test.That(t, lo, test.ShouldEqual, uint16(750))
	test.That(t, hi, test.ShouldBeLessThanOrEqualTo, 1100)

	next := Scene(cfg, 1)
	test.That(t, next.GetDepth(21, 15), test.ShouldEqual, lo)
}

func TestSourceEndsAfterFrames(t *testing.T) {
	src := NewSource(Config{Width: 8, Height: 4, Frames: 2}, nil)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		dm, _, err := src.NextDepth(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, dm.Width(), test.ShouldEqual, 8)
		img, _, err := src.NextRGB(ctx)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, img.Height(), test.ShouldEqual, 4)
	}
	_, _, err := src.NextDepth(ctx)
	test.That(t, err, test.ShouldEqual, io.EOF)
	_, _, err = src.NextRGB(ctx)
	test.That(t, err, test.ShouldEqual, io.EOF)
}

func TestSourceDefaults(t *testing.T) {
	src := NewSource(Config{}, nil)
	dm, _, err := src.NextDepth(context.Background())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dm.Width(), test.ShouldEqual, initialWidth)
	test.That(t, dm.Height(), test.ShouldEqual, initialHeight)
	test.That(t, src.Close(context.Background()), test.ShouldBeNil)
	_, _, err = src.NextRGB(context.Background())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSourceTimestampsFollowClock(t *testing.T) {
	mock := clock.NewMock()
	src := NewSource(Config{Width: 4, Height: 4, Interval: time.Second}, mock)

	var stamps []time.Time
	for i := 0; i < 3; i++ {
		done := make(chan time.Time, 1)
		go func() {
			_, ts, err := src.NextDepth(context.Background())
			if err == nil {
				done <- ts
			}
			close(done)
		}()
		var ts time.Time
		for waiting := true; waiting; {
			select {
			case ts = <-done:
				waiting = false
			default:
				mock.Add(250 * time.Millisecond)
				time.Sleep(time.Millisecond)
			}
		}
		stamps = append(stamps, ts)
	}
	test.That(t, stamps[1].After(stamps[0]), test.ShouldBeTrue)
	test.That(t, stamps[2].After(stamps[1]), test.ShouldBeTrue)
}
