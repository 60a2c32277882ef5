// Package watcher observes the subscription source file on disk and
// invalidates the in-memory snapshot when the file changes. Editors and
// export jobs often write a burst of events for a single save, so changes
// are debounced before the invalidation fires.
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when the configured debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// ChangeHandler is invoked after the debounce window closes. path is the
// file that triggered the final event.
type ChangeHandler func(ctx context.Context, path string)

// Watcher watches the directory containing the source file. Watching the
// directory rather than the file itself survives the rename-then-replace
// write pattern most spreadsheet tools use.
type Watcher struct {
	sourcePath string
	debounce   time.Duration
	onChange   ChangeHandler
	logger     *slog.Logger

	mu      sync.Mutex
	fs      *fsnotify.Watcher
	timer   *time.Timer
	stopped bool
}

// New creates a watcher for the given source file. The handler runs on the
// watcher goroutine; it must not block for long.
func New(sourcePath string, debounce time.Duration, onChange ChangeHandler, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(sourcePath)
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, err
	}

	return &Watcher{
		sourcePath: sourcePath,
		debounce:   debounce,
		onChange:   onChange,
		logger:     logger.With(slog.String("component", "watcher")),
		fs:         fs,
	}, nil
}

// Start runs the event loop until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) {
	w.logger.InfoContext(ctx, "source watcher started",
		slog.String("path", w.sourcePath),
		slog.Duration("debounce", w.debounce))

	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return

		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.DebugContext(ctx, "source file event",
				slog.String("op", event.Op.String()),
				slog.String("name", event.Name))
			w.schedule(ctx, event.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.WarnContext(ctx, "watcher error", slog.String("error", err.Error()))
		}
	}
}

// Stop closes the underlying watcher and cancels any pending debounce.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.fs.Close()
}

// relevant reports whether an event concerns the watched source file.
// Write, create, and rename all matter: create and rename cover atomic
// replacement of the file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
		return false
	}
	return strings.EqualFold(filepath.Clean(event.Name), filepath.Clean(w.sourcePath))
}

// schedule arms or re-arms the debounce timer for a change event.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		stopped := w.stopped
		w.mu.Unlock()
		if stopped {
			return
		}

		w.logger.InfoContext(ctx, "source file changed",
			slog.String("path", path))
		w.onChange(ctx, path)
	})
}
