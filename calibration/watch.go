package calibration

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"go.sandcal.dev/sandcal/logging"
)

// WatchPreset restores the preset at path into p every time the file is written, until ctx is
// done. The parent directory is watched so presets replaced by rename are seen too. Presets
// that fail to load are logged and the running calibration is kept.
func WatchPreset(ctx context.Context, path string, p *Pipeline, logger logging.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Debugw("error closing preset watcher", "error", err)
		}
	}()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrapf(err, "cannot watch %q", filepath.Dir(abs))
	}
	logger.Infow("watching calibration preset", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			state, err := LoadPreset(abs)
			if err == nil {
				err = p.Restore(state)
			}
			if err != nil {
				logger.Warnw("ignoring calibration preset", "path", abs, "error", err)
				continue
			}
			logger.Infow("calibration preset reloaded", "path", abs)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("preset watcher error", "error", err)
		}
	}
}
