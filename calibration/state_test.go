package calibration

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"
	gtestutils "go.viam.com/utils/testutils"

	"go.sandcal.dev/sandcal/logging"
	"go.sandcal.dev/sandcal/rimage"
	"go.sandcal.dev/sandcal/testutils"
)

func calibratedPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p := newTestPipeline(t, DefaultOptions())
	test.That(t, p.MoveControlPoints(GroupBox, testBox), test.ShouldBeNil)
	test.That(t, p.MoveControlPoints(GroupMire, testMire), test.ShouldBeNil)
	test.That(t, p.MoveControlPoints(GroupDepth, []r2.Point{{X: 12, Y: 20}, {X: 40, Y: 30}}), test.ShouldBeNil)
	test.That(t, p.SetMirror(true), test.ShouldBeNil)
	test.That(t, p.SetDepthRange(310, 690), test.ShouldBeNil)
	return p
}

func TestStateRestore(t *testing.T) {
	src := calibratedPipeline(t)
	state := src.State()
	test.That(t, state.Width, test.ShouldEqual, 64)
	test.That(t, state.H1, test.ShouldHaveLength, 9)
	test.That(t, state.Box, test.ShouldHaveLength, 4)
	test.That(t, state.Depth, test.ShouldResemble, []Point{{12, 20}, {40, 30}})

	dst := newTestPipeline(t, DefaultOptions())
	test.That(t, dst.Restore(state), test.ShouldBeNil)
	h1, h2 := src.Homographies()
	rh1, rh2 := dst.Homographies()
	test.That(t, rh1, test.ShouldResemble, h1)
	test.That(t, rh2, test.ShouldResemble, h2)
	test.That(t, dst.ControlPoints(), test.ShouldResemble, src.ControlPoints())
	test.That(t, dst.Mirror(), test.ShouldBeTrue)
	minDepth, maxDepth := dst.DepthRange()
	test.That(t, minDepth, test.ShouldEqual, 310)
	test.That(t, maxDepth, test.ShouldEqual, 690)

	// restored pipelines process frames exactly like the original
	raw := rimage.NewEmptyDepthMap(64, 48)
	for i := range raw.Data() {
		raw.Data()[i] = uint16(300 + i%400)
	}
	a, err := src.ProcessDepthFrame(context.Background(), raw, true)
	test.That(t, err, test.ShouldBeNil)
	b, err := dst.ProcessDepthFrame(context.Background(), raw, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.Equal(b), test.ShouldBeTrue)
}

func TestRestoreRejects(t *testing.T) {
	p := calibratedPipeline(t)
	good := p.State()

	wrongSize := good
	wrongSize.Width = 640
	err := p.Restore(wrongSize)
	test.That(t, rimage.IsDimensionMismatchError(err), test.ShouldBeTrue)

	badH := good
	badH.H1 = []float64{1, 2, 3}
	test.That(t, p.Restore(badH), test.ShouldNotBeNil)

	singular := good
	singular.H2 = []float64{1, 1, 1, 1, 1, 1, 1, 1, 1}
	err = p.Restore(singular)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "h2")

	for _, r := range [][2]int{{-1, 900}, {700, rimage.MaxDepth + 1}, {-1 << 62, 1 << 62}} {
		badRange := good
		badRange.MinDepth, badRange.MaxDepth = r[0], r[1]
		test.That(t, p.Restore(badRange), test.ShouldNotBeNil)
	}
	lo, hi := p.DepthRange()
	test.That(t, lo, test.ShouldEqual, 310)
	test.That(t, hi, test.ShouldEqual, 690)
	_, err = p.ProcessDepthFrame(context.Background(), testutils.UniformDepthMap(64, 48, 500), false)
	test.That(t, err, test.ShouldBeNil)

	badPoints := good
	badPoints.Mire = badPoints.Mire[:2]
	err = p.Restore(badPoints)
	test.That(t, IsInvalidControlPointsError(err), test.ShouldBeTrue)

	test.That(t, p.State(), test.ShouldResemble, good)

	// an uncalibrated state restores to no rectification
	blank := newTestPipeline(t, DefaultOptions()).State()
	test.That(t, blank.H1, test.ShouldBeNil)
	test.That(t, p.Restore(blank), test.ShouldBeNil)
	h1, h2 := p.Homographies()
	test.That(t, h1.IsZero(), test.ShouldBeTrue)
	test.That(t, h2.IsZero(), test.ShouldBeTrue)
}

func TestPresetRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPresetFile)
	state := calibratedPipeline(t).State()

	test.That(t, SavePreset(path, state), test.ShouldBeNil)
	loaded, err := LoadPreset(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loaded, test.ShouldResemble, state)

	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, entries, test.ShouldHaveLength, 1)

	_, err = LoadPreset(filepath.Join(dir, "missing.json"))
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, os.WriteFile(path, []byte("{not json"), 0o600), test.ShouldBeNil)
	_, err = LoadPreset(path)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWatchPreset(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultPresetFile)
	state := calibratedPipeline(t).State()

	p := newTestPipeline(t, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var watchErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		watchErr = WatchPreset(ctx, path, p, logger)
	}()

	gtestutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, SavePreset(path, state), test.ShouldBeNil)
		test.That(tb, p.State(), test.ShouldResemble, state)
	})

	cancel()
	wg.Wait()
	test.That(t, watchErr, test.ShouldBeNil)
}
