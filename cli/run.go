package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/atomic"
	goutils "go.viam.com/utils"
	"golang.org/x/sync/errgroup"

	"go.sandcal.dev/sandcal/calibration"
	"go.sandcal.dev/sandcal/capture"
	"go.sandcal.dev/sandcal/capture/fake"
	"go.sandcal.dev/sandcal/config"
	"go.sandcal.dev/sandcal/logging"
	"go.sandcal.dev/sandcal/rimage"
	"go.sandcal.dev/sandcal/utils"
)

// runOptions are the command line switches of a run on top of the config file.
type runOptions struct {
	outDir         string
	secondary      bool
	calibrateDepth bool
}

// runner wires a frame source through a capture session into the calibration pipeline.
type runner struct {
	cfg      *config.Config
	opts     runOptions
	logger   logging.Logger
	pipeline *calibration.Pipeline
	session  *capture.Session
	recorder *capture.Recorder

	depthOut atomic.Int64
	rgbOut   atomic.Int64
}

// RunAction runs the pipeline described by a config file until its source ends or the process
// is interrupted.
func RunAction(c *cli.Context, logger logging.Logger) error {
	cfg, err := config.Read(c.Path(generalFlagConfig))
	if err != nil {
		return err
	}
	if !c.Bool(generalFlagDebug) {
		if logger, err = cfg.NewLogger("sandcal"); err != nil {
			return err
		}
		defer goutils.UncheckedErrorFunc(logger.Sync)
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := newRunner(cfg, runOptions{
		outDir:         c.Path(generalFlagOut),
		secondary:      c.Bool(renderFlagSecondary),
		calibrateDepth: c.Bool(runFlagCalibrateDepth),
	}, logger)
	if err != nil {
		return err
	}
	runErr := r.run(ctx)
	if c.Bool(runFlagSavePreset) {
		if err := calibration.SavePreset(cfg.PresetFile, r.pipeline.State()); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "saved preset %s\n", cfg.PresetFile)
	}
	fmt.Fprintln(c.App.Writer, r.summary())
	return runErr
}

func newRunner(cfg *config.Config, opts runOptions, logger logging.Logger) (*runner, error) {
	pipelineOpts, err := cfg.PipelineOptions()
	if err != nil {
		return nil, err
	}
	preset := ""
	if _, err := os.Stat(cfg.PresetFile); err == nil {
		preset = cfg.PresetFile
	}
	p, err := newPipeline(cfg.Width, cfg.Height, pipelineOpts, preset, logger)
	if err != nil {
		return nil, err
	}
	src, err := newSource(cfg)
	if err != nil {
		return nil, err
	}

	r := &runner{
		cfg:      cfg,
		opts:     opts,
		logger:   logger,
		pipeline: p,
		session:  capture.NewSession(src, logger),
	}
	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o750); err != nil {
			return nil, err
		}
	}
	if cfg.Capture.RecordDir != "" {
		if r.recorder, err = capture.NewRecorder(cfg.Capture.RecordDir, logger); err != nil {
			return nil, err
		}
	}
	if opts.calibrateDepth {
		p.CalibrateDepth()
	}
	p.SetSnapshotSink(r.writeSnapshot)
	r.session.SetDepthCallback(r.onDepth)
	r.session.SetRGBCallback(r.onRGB)
	return r, nil
}

func newSource(cfg *config.Config) (capture.Source, error) {
	interval, err := cfg.Capture.Interval()
	if err != nil {
		return nil, err
	}
	switch cfg.Capture.Source {
	case config.SourceReplay:
		return capture.NewReplaySource(capture.ReplayConfig{
			DepthDir: cfg.Capture.DepthDir,
			RGBDir:   cfg.Capture.RGBDir,
			Width:    cfg.Width,
			Height:   cfg.Height,
			Interval: interval,
			Loop:     cfg.Capture.Loop,
			Clock:    clock.New(),
		})
	case config.SourceFake:
		return fake.NewSource(fake.Config{
			Width:    cfg.Width,
			Height:   cfg.Height,
			Frames:   cfg.Capture.Frames,
			Interval: interval,
		}, clock.New()), nil
	}
	return nil, errors.Errorf("unknown source %q", cfg.Capture.Source)
}

// run drives the session, and the preset watcher when enabled, until the session ends.
func (r *runner) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() {
		if err := r.session.Close(context.Background()); err != nil {
			r.logger.Warnw("error closing source", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return r.session.Run(gctx)
	})
	if r.cfg.WatchPreset {
		g.Go(func() error {
			return calibration.WatchPreset(gctx, r.cfg.PresetFile, r.pipeline, r.logger)
		})
	}
	return g.Wait()
}

func (r *runner) onDepth(ctx context.Context, dm *rimage.DepthMap, ts time.Time) error {
	if r.recorder != nil {
		if err := r.recorder.RecordDepth(ctx, dm, ts); err != nil {
			r.logger.Warnw("cannot record depth frame", "error", err)
		}
	}
	img, err := r.pipeline.ProcessDepthFrame(ctx, dm, r.opts.secondary)
	if err != nil {
		return err
	}
	return r.writeFrame("depth_%05d.png", &r.depthOut, img)
}

func (r *runner) onRGB(ctx context.Context, img *rimage.Image, ts time.Time) error {
	if r.recorder != nil {
		if err := r.recorder.RecordRGB(ctx, img, ts); err != nil {
			r.logger.Warnw("cannot record rgb frame", "error", err)
		}
	}
	out, err := r.pipeline.ProcessRGBFrame(ctx, img, r.opts.secondary)
	if err != nil {
		return err
	}
	return r.writeFrame("rgb_%05d.png", &r.rgbOut, out)
}

func (r *runner) writeFrame(pattern string, counter *atomic.Int64, img *rimage.Image) error {
	n := counter.Inc() - 1
	if r.opts.outDir == "" {
		return nil
	}
	path, err := utils.SafeJoinDir(r.opts.outDir, fmt.Sprintf(pattern, n))
	if err != nil {
		return err
	}
	return rimage.WriteImageToFile(path, img)
}

func (r *runner) writeSnapshot(dm *rimage.DepthMap) {
	dir := r.opts.outDir
	if dir == "" {
		dir = filepath.Dir(r.cfg.PresetFile)
	}
	path := filepath.Join(dir, fmt.Sprintf("snapshot_%s.png", time.Now().UTC().Format("20060102T150405.000")))
	if err := rimage.WriteDepthMapToFile(path, dm); err != nil {
		r.logger.Errorw("cannot write depth snapshot", "error", err)
		return
	}
	r.logger.Infow("wrote depth snapshot", "path", path)
}

func (r *runner) summary() string {
	stats := r.session.Stats()
	lo, hi := r.pipeline.DepthRange()
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Session", "Depth frames", "RGB frames", "Dropped", "Rendered", "Depth range"})
	t.AppendRow(table.Row{
		r.session.ID().String(),
		stats.DepthFrames,
		stats.RGBFrames,
		stats.DroppedFrames,
		r.depthOut.Load() + r.rgbOut.Load(),
		fmt.Sprintf("%d..%d", lo, hi),
	})
	return t.Render()
}
