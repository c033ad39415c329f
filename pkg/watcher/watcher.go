// Package watcher reports debounced changes to a single file.
package watcher

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 200 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets how long the file must stay quiet before a change
// is reported.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnError installs a callback for watcher errors. By default they are
// logged.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// Watcher watches one file. It watches the containing directory so that
// editors and tools that replace the file by rename are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	onError  func(error)

	changed chan struct{}

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	timer   *time.Timer
	started bool
	stopped bool
	done    chan struct{}
}

// NewWatcher creates a watcher for path. Call Start to begin watching.
func NewWatcher(path string, opts ...Option) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("watcher: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watcher: resolve %s: %w", path, err)
	}
	w := &Watcher{
		path:     abs,
		debounce: DefaultDebounce,
		changed:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.onError == nil {
		w.onError = func(err error) { log.Printf("warning: file watcher: %v", err) }
	}
	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching. Calling it again is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	if w.stopped {
		return errors.New("watcher: already stopped")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: create: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watcher: watch %s: %w", filepath.Dir(w.path), err)
	}
	w.fsw = fsw
	w.started = true
	go w.loop(fsw)
	return nil
}

// Stop ends watching and waits for the event loop to exit. It is safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	fsw, started := w.fsw, w.started
	w.mu.Unlock()

	if started {
		fsw.Close()
		<-w.done
	}
}

// Changed delivers one notification per debounced burst of changes. The
// channel holds at most one pending notification.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

func (w *Watcher) loop(fsw *fsnotify.Watcher) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
				ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				w.schedule()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}
	select {
	case w.changed <- struct{}{}:
	default:
	}
}
