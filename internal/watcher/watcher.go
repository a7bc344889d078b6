// Package watcher reports debounced changes to a single file, such as the
// config file.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/intakehq/intake/internal/log"
)

// DefaultDebounce is how long the file must stay quiet before a change is
// reported.
const DefaultDebounce = 500 * time.Millisecond

// FileWatcher watches one file by path.
type FileWatcher struct {
	path     string
	debounce time.Duration
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *FileWatcher) {
		w.debounce = d
	}
}

// New resolves path and returns a watcher for it. Nothing is watched until
// Watch is called.
func New(path string, opts ...Option) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	w := &FileWatcher{path: abs, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Path is the absolute path being watched.
func (w *FileWatcher) Path() string {
	return w.path
}

// Watch starts watching until ctx is done. The file's directory is watched
// rather than the file, so a save that replaces the file is still seen.
// The returned channel buffers one pending signal and is never closed.
func (w *FileWatcher) Watch(ctx context.Context) (<-chan struct{}, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}

	changes := make(chan struct{}, 1)
	go w.run(ctx, fsw, changes)
	return changes, nil
}

func (w *FileWatcher) run(ctx context.Context, fsw *fsnotify.Watcher, changes chan<- struct{}) {
	defer func() { _ = fsw.Close() }()

	quiet := time.NewTimer(w.debounce)
	quiet.Stop()
	defer quiet.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if w.touches(event) {
				quiet.Reset(w.debounce)
			}

		case <-quiet.C:
			select {
			case changes <- struct{}{}:
			default:
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatConfig, "watching config file", err, "path", w.path)
		}
	}
}

// touches reports whether event may have changed the watched file's content.
func (w *FileWatcher) touches(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}
