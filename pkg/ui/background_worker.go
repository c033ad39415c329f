package ui

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/beadtree/pkg/analysis"
	"github.com/vanderheijden86/beadtree/pkg/loader"
	"github.com/vanderheijden86/beadtree/pkg/model"
	"github.com/vanderheijden86/beadtree/pkg/watcher"
)

// WorkerState represents the current state of the background worker.
type WorkerState int

const (
	// WorkerIdle means the worker is waiting for file changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the worker is building a new snapshot.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

// WorkerError wraps errors with phase and retry context.
type WorkerError struct {
	Phase   string    // "load" or "analyze"
	Cause   error     // The underlying error
	Time    time.Time // When the error occurred
	Retries int       // Consecutive failures including this one
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// BackgroundWorker reloads issues off the UI thread. It owns the file
// watchers, coalesces bursts of changes and skips reloads whose content
// hash has not changed.
type BackgroundWorker struct {
	// Configuration
	beadsPath     string
	sources       []loader.RepoSource
	debounceDelay time.Duration

	// State
	mu       sync.RWMutex
	state    WorkerState
	dirty    bool // a change came in while processing
	snapshot *DataSnapshot
	started  bool
	lastHash string

	// Error tracking
	lastError  *WorkerError
	errorCount int

	// Components
	watchers []*watcher.Watcher
	send     func(tea.Msg)

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// WorkerConfig configures the BackgroundWorker. Either BeadsPath (a single
// JSONL file) or Sources (several projects) names the data.
type WorkerConfig struct {
	BeadsPath     string
	Sources       []loader.RepoSource
	DebounceDelay time.Duration
	Program       *tea.Program
	// Send receives messages when Program is nil.
	Send func(tea.Msg)
}

// NewBackgroundWorker creates a new background worker.
func NewBackgroundWorker(cfg WorkerConfig) (*BackgroundWorker, error) {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = watcher.DefaultDebounce
	}

	w := &BackgroundWorker{
		beadsPath:     cfg.BeadsPath,
		sources:       cfg.Sources,
		debounceDelay: cfg.DebounceDelay,
		send:          cfg.Send,
		state:         WorkerIdle,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	if cfg.Program != nil {
		w.send = cfg.Program.Send
	}

	for _, path := range w.watchPaths() {
		fw, err := watcher.NewWatcher(path,
			watcher.WithDebounceDuration(cfg.DebounceDelay),
			watcher.WithOnError(func(err error) {
				log.Printf("warning: watching %s: %v", path, err)
			}),
		)
		if err != nil {
			cancel()
			return nil, err
		}
		w.watchers = append(w.watchers, fw)
	}

	return w, nil
}

// watchPaths returns the files whose changes trigger a reload. Projects
// without beads data are not watched.
func (w *BackgroundWorker) watchPaths() []string {
	if len(w.sources) == 0 {
		if w.beadsPath == "" {
			return nil
		}
		return []string{w.beadsPath}
	}
	var paths []string
	for _, src := range w.sources {
		path, err := loader.FindJSONLPath(filepath.Join(src.Path, loader.BeadsDirName))
		if err != nil {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

// Start begins watching for file changes and processing in the background.
// Start is idempotent.
func (w *BackgroundWorker) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if len(w.watchers) == 0 {
		// Nothing to watch; close done so Stop doesn't block.
		close(w.done)
		return nil
	}

	for _, fw := range w.watchers {
		if err := fw.Start(); err != nil {
			for _, started := range w.watchers {
				started.Stop()
			}
			close(w.done)
			return err
		}
	}
	go w.processLoop()
	return nil
}

// Stop halts the background worker and cleans up resources.
// Stop is idempotent.
func (w *BackgroundWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()

	for _, fw := range w.watchers {
		fw.Stop()
	}

	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
		}
	}
}

// TriggerRefresh reloads in the background. A refresh requested while one
// is running is folded into a single follow-up run.
func (w *BackgroundWorker) TriggerRefresh() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if w.state == WorkerProcessing {
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	go w.process()
}

// GetSnapshot returns the current snapshot (may be nil).
func (w *BackgroundWorker) GetSnapshot() *DataSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}

// State returns the current worker state.
func (w *BackgroundWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// processLoop fans in every watcher and processes on each change.
func (w *BackgroundWorker) processLoop() {
	defer close(w.done)

	changed := make(chan struct{}, 1)
	var wg sync.WaitGroup
	for _, fw := range w.watchers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-w.ctx.Done():
					return
				case <-fw.Changed():
					select {
					case changed <- struct{}{}:
					default:
					}
				}
			}
		}()
	}
	defer wg.Wait()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-changed:
			w.process()
		}
	}
}

// process builds a new snapshot and hands it to the UI.
func (w *BackgroundWorker) process() {
	w.mu.Lock()
	if w.state != WorkerIdle {
		if w.state == WorkerProcessing {
			w.dirty = true
		}
		w.mu.Unlock()
		return
	}
	w.state = WorkerProcessing
	w.dirty = false
	w.mu.Unlock()

	// nil when deduped or on error
	snapshot := w.buildSnapshot()

	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	if snapshot != nil {
		w.snapshot = snapshot
	}
	wasDirty := w.dirty
	w.state = WorkerIdle
	w.mu.Unlock()

	if snapshot != nil {
		w.notify(SnapshotReadyMsg{Snapshot: snapshot})
	}

	if wasDirty {
		go w.process()
	}
}

func (w *BackgroundWorker) notify(msg tea.Msg) {
	if w.send != nil {
		w.send(msg)
	}
}

// safeCompute executes fn and recovers from any panics.
func (w *BackgroundWorker) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{
				Phase: phase,
				Cause: err,
				Time:  time.Now(),
			}
		}
	}()
	return result
}

// recordError tracks an error; nil clears the streak.
func (w *BackgroundWorker) recordError(err *WorkerError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}

// LastError returns the most recent error (nil if last operation succeeded).
func (w *BackgroundWorker) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

func (w *BackgroundWorker) load() ([]model.Issue, error) {
	if len(w.sources) > 0 {
		return loader.LoadIssuesFromDirs(w.ctx, w.sources)
	}
	return loader.LoadIssuesFromFile(w.beadsPath)
}

func (w *BackgroundWorker) describeSource() string {
	if len(w.sources) > 0 {
		return fmt.Sprintf("%d repos", len(w.sources))
	}
	return w.beadsPath
}

// buildSnapshot loads issues and analyzes them. It runs on the worker
// goroutine and returns nil when nothing is configured, loading fails, or
// the content is unchanged.
func (w *BackgroundWorker) buildSnapshot() *DataSnapshot {
	if w.beadsPath == "" && len(w.sources) == 0 {
		return nil
	}

	start := time.Now()

	var issues []model.Issue
	loadErr := w.safeCompute("load", func() error {
		var err error
		issues, err = w.load()
		return err
	})
	if loadErr != nil {
		log.Printf("buildSnapshot: error loading %s: %v", w.describeSource(), loadErr)
		w.recordError(loadErr)
		w.notify(SnapshotErrorMsg{Err: loadErr, Recoverable: true})
		return nil
	}
	loadDuration := time.Since(start)

	hash := analysis.ComputeDataHash(issues)

	w.mu.RLock()
	lastHash := w.lastHash
	w.mu.RUnlock()

	if hash == lastHash && lastHash != "" {
		log.Printf("buildSnapshot: content unchanged (hash=%s), skipping rebuild", hashPrefix(hash))
		w.recordError(nil)
		return nil
	}

	var snapshot *DataSnapshot
	analyzeStart := time.Now()
	analyzeErr := w.safeCompute("analyze", func() error {
		snapshot = NewSnapshotBuilder(issues).Build()
		return nil
	})
	analyzeDuration := time.Since(analyzeStart)

	if analyzeErr != nil {
		log.Printf("buildSnapshot: analysis error: %v", analyzeErr)
		w.recordError(analyzeErr)
		w.notify(SnapshotErrorMsg{Err: analyzeErr, Recoverable: true})
		return nil
	}

	w.recordError(nil)

	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()

	snapshot.DataHash = hash

	log.Printf("buildSnapshot: loaded %d issues (load=%v, analyze=%v, total=%v, hash=%s)",
		len(issues), loadDuration, analyzeDuration, time.Since(start), hashPrefix(hash))

	return snapshot
}

// SnapshotReadyMsg is sent to the UI when a new snapshot is ready.
type SnapshotReadyMsg struct {
	Snapshot *DataSnapshot
}

// SnapshotErrorMsg is sent to the UI when snapshot building fails.
type SnapshotErrorMsg struct {
	Err         error
	Recoverable bool // True if we expect to recover on next file change
}

// WatchedPaths returns the files being watched.
func (w *BackgroundWorker) WatchedPaths() []string {
	paths := make([]string, 0, len(w.watchers))
	for _, fw := range w.watchers {
		paths = append(paths, fw.Path())
	}
	return paths
}

// LastHash returns the content hash from the last successful snapshot build.
func (w *BackgroundWorker) LastHash() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastHash
}

// hashPrefix returns up to 16 characters of hash for logging.
func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}

// ResetHash clears the stored content hash, forcing the next build to
// deliver a snapshot even if content is unchanged.
func (w *BackgroundWorker) ResetHash() {
	w.mu.Lock()
	w.lastHash = ""
	w.mu.Unlock()
}
