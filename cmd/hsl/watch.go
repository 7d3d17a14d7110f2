package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce collapses the burst of events an editor save produces.
const debounce = 100 * time.Millisecond

// watchScript calls run once, then again after every change to path,
// until ctx is done. The directory is watched rather than the file so that
// editors which replace the file on save keep triggering runs.
func watchScript(ctx context.Context, path string, log io.Writer, run func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch directory: %w", err)
	}

	report := func() {
		if err := run(); err != nil {
			var failed *scriptFailure
			if !errors.As(err, &failed) {
				FormatError(log, err, false)
			}
		}
		_, _ = fmt.Fprintf(log, "watching %s for changes\n", path)
	}
	report()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isChange(event, target) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			report()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_, _ = fmt.Fprintf(log, "watch error: %v\n", err)
		}
	}
}

// isChange reports whether event rewrote target.
func isChange(event fsnotify.Event, target string) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}
