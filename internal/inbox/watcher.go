// Package inbox watches a directory for Markdown files to stow.
package inbox

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/localshelf/internal/discovery"
)

// QuietPeriod is how long the inbox must stay unchanged before pending
// files are handed over as one batch.
const QuietPeriod = 500 * time.Millisecond

// Handler receives a batch of absolute file paths, sorted by name.
type Handler func(ctx context.Context, paths []string)

// Watch watches dir (not its subdirectories) until ctx is cancelled. Created,
// written and renamed-in .md files are collected and passed to handle once
// the directory has been quiet for QuietPeriod. Markdown files already in dir
// are handed over first, once the watch is registered. Handler calls are
// sequential.
func Watch(ctx context.Context, dir string, logger *slog.Logger, handle Handler) error {
	return watch(ctx, dir, logger, handle, QuietPeriod)
}

func watch(ctx context.Context, dir string, logger *slog.Logger, handle Handler, quiet time.Duration) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("inbox: resolve %s: %w", dir, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox: new watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(abs); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", abs, err)
	}
	logger.Info("inbox: watching", slog.String("dir", abs))

	// Sweep only after Add: a file dropped in between is then seen by one or the other.
	existing, err := discovery.Markdown(abs)
	if err != nil {
		return fmt.Errorf("inbox: sweep %s: %w", abs, err)
	}
	if len(existing) > 0 {
		logger.Debug("inbox: existing files found", slog.Int("files", len(existing)))
		handle(ctx, existing)
	}

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(quiet)
			fire = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(quiet)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("inbox: stopped")
			return nil

		case <-fire:
			batch := flush(pending)
			pending = make(map[string]struct{})
			if len(batch) == 0 {
				continue
			}
			logger.Debug("inbox: batch ready", slog.Int("files", len(batch)))
			handle(ctx, batch)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".md") {
				continue
			}
			pending[ev.Name] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// flush returns the pending paths that are still regular files.
func flush(pending map[string]struct{}) []string {
	out := make([]string, 0, len(pending))
	for p := range pending {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
