package config

import (
	"path/filepath"
	"sync"
	"time"

	pkgerrors "assetgraph/pkg/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches a base document file and signals when it is rewritten.
// Editors save atomically (write temp file, rename over the original), so
// the parent directory is watched too and rapid event bursts are debounced
// into a single reload signal.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration

	mu       sync.Mutex
	onChange []func(path string)
	stopCh   chan struct{}
	started  bool
}

// NewWatcher creates a watcher for the given file path
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	if path == "" {
		return nil, pkgerrors.NewValidation("watch path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to create file watcher")
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, pkgerrors.Wrap(err, "failed to watch "+path)
	}

	// Atomic saves replace the file by rename; those events arrive on the
	// directory, not the original path
	if err := fw.Add(filepath.Dir(path)); err != nil {
		logger.Warn("failed to watch parent directory", zap.Error(err))
	}

	return &Watcher{
		path:     path,
		watcher:  fw,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}, nil
}

// OnChange registers a callback invoked after the watched file settles
// following a write. Callbacks run on the watcher goroutine.
func (w *Watcher) OnChange(handler func(path string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Start begins delivering change signals
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	go w.watchLoop()
	w.logger.Info("watching base document", zap.String("path", w.path))
}

// Stop shuts the watcher down; no callbacks fire afterwards
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		w.watcher.Close()
		return
	}
	close(w.stopCh)
	w.watcher.Close()
	w.logger.Info("base document watcher stopped")
}

func (w *Watcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.fire)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) fire() {
	select {
	case <-w.stopCh:
		return
	default:
	}

	w.logger.Info("base document changed", zap.String("path", w.path))
	w.mu.Lock()
	handlers := append([]func(string){}, w.onChange...)
	w.mu.Unlock()
	for _, h := range handlers {
		h(w.path)
	}
}
