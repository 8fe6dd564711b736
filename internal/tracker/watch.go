package tracker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch runs once, then again after every new commit, until ctx is cancelled.
// Failed runs are logged and do not stop the loop. onRun, if set, sees each
// successful result.
func (t *Tracker) Watch(ctx context.Context, onRun func(*Result)) error {
	headLog, err := t.git.HeadLogPath(ctx)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(headLog)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(headLog), err)
	}
	t.logger.Info("watching for commits", "reflog", headLog, "debounce", t.debounce)

	t.runOnce(ctx, onRun)

	timer := time.NewTimer(t.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("watch stopped")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(headLog) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			t.logger.Debug("reflog changed", "op", ev.Op.String())
			timer.Reset(t.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			t.logger.Warn("watcher error", "err", err)
		case <-timer.C:
			t.runOnce(ctx, onRun)
		}
	}
}

func (t *Tracker) runOnce(ctx context.Context, onRun func(*Result)) {
	res, err := t.Run(ctx)
	if err != nil {
		if ctx.Err() == nil {
			t.logger.Error("run failed", "err", err)
		}
		return
	}
	if onRun != nil {
		onRun(res)
	}
}
