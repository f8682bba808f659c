package codemod

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// WatchOptions selects the files Watch reacts to. Patterns follow Discover.
type WatchOptions struct {
	Root    string
	Include []string
	Exclude []string
	// OnRun receives the summary of every run triggered by a change.
	OnRun func(*Summary)
}

// Watch converts matching files again each time they are written or
// created, until ctx is cancelled. Changes are debounced and converted as
// one run. Rewrites made by the runner itself settle after one pass because
// conversion of converted source changes nothing.
func (r *Runner) Watch(ctx context.Context, opts WatchOptions) error {
	include, exclude := opts.Include, opts.Exclude
	if include == nil {
		include = DefaultInclude
	}
	if exclude == nil {
		exclude = DefaultExclude
	}
	if err := validatePatterns(include); err != nil {
		return err
	}
	if err := validatePatterns(exclude); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	w := &watchLoop{runner: r, root: opts.Root, include: include, exclude: exclude, onRun: opts.OnRun, pending: make(map[string]bool)}
	if err := w.addDirs(watcher, opts.Root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", opts.Root, err)
	}
	r.logger.Info("watching for changes", "root", opts.Root)
	return w.loop(ctx, watcher)
}

type watchLoop struct {
	runner  *Runner
	root    string
	include []string
	exclude []string
	onRun   func(*Summary)

	mu      sync.Mutex
	pending map[string]bool
	running sync.Mutex
}

func (w *watchLoop) rel(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// addDirs adds dir and its subdirectories, skipping hidden and excluded ones.
func (w *watchLoop) addDirs(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(path); ok && rel != "." {
			if strings.HasPrefix(d.Name(), ".") || matchAny(w.exclude, rel) {
				return filepath.SkipDir
			}
		}
		return watcher.Add(path)
	})
}

func (w *watchLoop) wanted(path string) bool {
	rel, ok := w.rel(path)
	return ok && matchAny(w.include, rel) && !matchAny(w.exclude, rel)
}

func (w *watchLoop) loop(ctx context.Context, watcher *fsnotify.Watcher) error {
	logger := w.runner.logger
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addDirs(watcher, event.Name); err != nil {
						logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !w.wanted(event.Name) {
				continue
			}

			w.mu.Lock()
			w.pending[event.Name] = true
			w.mu.Unlock()

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(watchDebounce, func() {
				w.flush(ctx)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher error", "error", err)
		}
	}
}

// flush converts the files changed since the last flush.
func (w *watchLoop) flush(ctx context.Context) {
	w.running.Lock()
	defer w.running.Unlock()

	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	if len(paths) == 0 || ctx.Err() != nil {
		return
	}
	sort.Strings(paths)

	w.runner.logger.Debug("change detected, converting", "files", paths)
	sum, err := w.runner.Run(ctx, paths)
	if err != nil {
		w.runner.logger.Debug("run cancelled", "error", err)
		return
	}
	if w.onRun != nil {
		w.onRun(sum)
	}
}
