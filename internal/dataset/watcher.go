package dataset

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a dataset file into a Store when it changes on disk
type Watcher struct {
	path     string
	store    *Store
	logger   *zap.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	stopOnce sync.Once
}

// NewWatcher creates a watcher for path. Call Start to begin watching.
func NewWatcher(path string, store *Store, logger *zap.Logger, debounce time.Duration) *Watcher {
	return &Watcher{
		path:     path,
		store:    store,
		logger:   logger,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Reload loads the file and swaps it in. On failure the old dataset stays live.
func (w *Watcher) Reload() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	d, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("Dataset reload failed, keeping current dataset",
			zap.String("path", w.path),
			zap.Uint64("version", w.store.Version()),
			zap.Error(err))
		return err
	}

	previous := w.store.Current().Len()
	version := w.store.Swap(d)
	w.logger.Info("Dataset reloaded",
		zap.String("path", w.path),
		zap.Int("entries", d.Len()),
		zap.Int("previous_entries", previous),
		zap.Uint64("version", version))
	return nil
}

// Start watches the directory holding the dataset so that editors which
// replace the file by rename are picked up too.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create dataset watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return fmt.Errorf("failed to watch dataset directory: %w", err)
	}
	w.watcher = fw

	w.logger.Info("Watching dataset for changes", zap.String("path", w.path))
	go w.run()
	return nil
}

func (w *Watcher) run() {
	defer close(w.doneCh)

	target := filepath.Clean(w.path)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Writers often touch the file several times in a row.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			_ = w.Reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Dataset watcher error", zap.Error(err))
		case <-w.stopCh:
			return
		}
	}
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		if w.watcher == nil {
			return
		}
		close(w.stopCh)
		<-w.doneCh
		if err := w.watcher.Close(); err != nil {
			w.logger.Error("Failed to close dataset watcher", zap.Error(err))
		}
	})
}
