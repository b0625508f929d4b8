package commands

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rulebench/rulebench/internal/cli/output"
)

// debounceWindow coalesces editor save bursts into one re-run.
const debounceWindow = 250 * time.Millisecond

// watchAndRun runs once, then re-runs whenever one of the fixture files
// changes on disk. It returns when ctx is cancelled.
func watchAndRun(ctx context.Context, logger *slog.Logger, r *output.Renderer, files []string, runAll func(context.Context) (bool, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch directories rather than files: editors replace files on
	// save, which drops file-level watches.
	watched := make(map[string]bool)
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			abs = f
		}
		watched[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	rerun := func() {
		if failed, err := runAll(ctx); err != nil && ctx.Err() == nil {
			r.Warnf("run aborted: %v", err)
		} else if failed {
			r.Infof("watching for changes (last run had failures)")
		} else {
			r.Infof("watching for changes")
		}
	}
	rerun()

	var debounce *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pending:
			rerun()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				abs = event.Name
			}
			if !watched[abs] {
				continue
			}
			logger.Debug("fixture changed", slog.String("path", event.Name))
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", slog.Any("error", err))
		}
	}
}
