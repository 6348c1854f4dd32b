package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"go.sandcal.dev/sandcal/calibration"
	"go.sandcal.dev/sandcal/capture/fake"
	"go.sandcal.dev/sandcal/rimage"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := NewApp(&out).Run(append([]string{"sandcal"}, args...))
	return out.String(), err
}

func writeScene(t *testing.T, dir string, w, h int) string {
	t.Helper()
	path := filepath.Join(dir, "scene.png")
	dm := fake.Scene(fake.Config{Width: w, Height: h, Floor: 1000, Relief: 300}, 0)
	test.That(t, rimage.WriteDepthMapToFile(path, dm), test.ShouldBeNil)
	return path
}

func TestParsePoints(t *testing.T) {
	pts, err := parsePoints("1,2; 3.5 , -4;")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pts, test.ShouldResemble, []r2.Point{{X: 1, Y: 2}, {X: 3.5, Y: -4}})

	_, err = parsePoints("1,2,3")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = parsePoints("a,2")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = parsePoints("1,b")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestEstimateCommand(t *testing.T) {
	preset := filepath.Join(t.TempDir(), "preset.json")
	out, err := runApp(t, "estimate",
		"--width", "64", "--height", "48",
		"--box", "4,3;58,5;61,44;2,42",
		"--mire", "6,6;56,4;60,40;5,45",
		"--depth-points", "10,20;50,20",
		"--mirror",
		"--save", preset,
	)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "H1")
	test.That(t, out, test.ShouldContainSubstring, "saved preset")

	state, err := calibration.LoadPreset(preset)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, state.Width, test.ShouldEqual, 64)
	test.That(t, state.Mirror, test.ShouldBeTrue)
	test.That(t, state.H1, test.ShouldHaveLength, 9)
	test.That(t, state.Depth, test.ShouldResemble, []calibration.Point{{X: 10, Y: 20}, {X: 50, Y: 20}})
}

func TestEstimateCommandRejects(t *testing.T) {
	_, err := runApp(t, "estimate", "--width", "64", "--height", "48", "--box", "0,0;10,10;20,20;30,30")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "degenerate")

	_, err = runApp(t, "estimate", "--box", "0,0;10,10")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, calibration.IsInvalidControlPointsError(err), test.ShouldBeTrue)
}

func TestPatternAndPreviewCommands(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "pattern.png")
	_, err := runApp(t, "pattern", "--width", "120", "--height", "90", "--out", pattern)
	test.That(t, err, test.ShouldBeNil)
	img, err := rimage.ReadImageFromFile(pattern)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.GetXY(0, 0), test.ShouldResemble, rimage.PatternCornerColor)

	preview := filepath.Join(dir, "preview.png")
	out, err := runApp(t, "preview", "--image", pattern, "--out", preview)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "with 10 markers")
	_, err = os.Stat(preview)
	test.That(t, err, test.ShouldBeNil)
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	depth := writeScene(t, dir, 40, 30)
	out := filepath.Join(dir, "render.png")

	stdout, err := runApp(t, "render", "--depth", depth, "--out", out, "--auto-range")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stdout, test.ShouldNotContainSubstring, "depth range 0..0")
	img, err := rimage.ReadImageFromFile(out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, img.Width(), test.ShouldEqual, 40)

	stdout, err = runApp(t, "render", "--depth", depth, "--out", out, "--min", "1100", "--max", "700", "--palette", "rainbow")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stdout, test.ShouldContainSubstring, "depth range 700..1100")

	_, err = runApp(t, "render", "--depth", depth, "--out", out, "--palette", "sepia")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestStatsAndHistogramCommands(t *testing.T) {
	dir := t.TempDir()
	depth := writeScene(t, dir, 40, 30)

	out, err := runApp(t, "stats", "--depth", depth)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "suggested range")
	test.That(t, out, test.ShouldContainSubstring, "40x30")

	plotPath := filepath.Join(dir, "hist.png")
	_, err = runApp(t, "histogram", "--depth", depth, "--out", plotPath, "--bins", "16")
	test.That(t, err, test.ShouldBeNil)
	_, err = os.Stat(plotPath)
	test.That(t, err, test.ShouldBeNil)

	_, err = runApp(t, "histogram", "--depth", depth, "--out", plotPath, "--bins", "0")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSchemaCommand(t *testing.T) {
	out, err := runApp(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	var schema map[string]interface{}
	test.That(t, json.Unmarshal([]byte(out), &schema), test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "watch_preset")
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sandcal.json")
	test.That(t, os.WriteFile(cfgPath, []byte(`{
		"width": 32,
		"height": 24,
		"capture": {"source": "fake", "frames": 3, "record_dir": "`+filepath.Join(dir, "rec")+`"}
	}`), 0o600), test.ShouldBeNil)
	outDir := filepath.Join(dir, "out")

	out, err := runApp(t, "run", "--config", cfgPath, "--out", outDir, "--calibrate-depth", "--save-preset")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "saved preset")

	for _, name := range []string{"depth_00002.png", "rgb_00002.png"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		test.That(t, err, test.ShouldBeNil)
	}
	_, err = os.Stat(filepath.Join(dir, "rec", "dpt_00002.png"))
	test.That(t, err, test.ShouldBeNil)

	state, err := calibration.LoadPreset(filepath.Join(dir, calibration.DefaultPresetFile))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, state.MaxDepth, test.ShouldBeGreaterThan, 0)

	// a second run restores the saved preset and replays what was recorded
	test.That(t, os.WriteFile(cfgPath, []byte(`{
		"width": 32,
		"height": 24,
		"capture": {"source": "replay", "depth_dir": "`+filepath.Join(dir, "rec")+`"}
	}`), 0o600), test.ShouldBeNil)
	out, err = runApp(t, "run", "--config", cfgPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "Depth range")
}
