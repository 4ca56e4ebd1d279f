// Package watcher keeps the index in sync with the document root.
//
// Filesystem events only mark the index dirty; once a quiet debounce window
// has passed, a single incremental reindex runs. The reindex itself diffs by
// fingerprint, so bursts of events collapse into one cheap pass. If a
// reindex is already running the trigger stays pending and retries after the
// next tick.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/dshills/flowdex/internal/indexer"
)

// DefaultDebounce is the quiet window applied when none is configured.
const DefaultDebounce = 2 * time.Second

// tickInterval bounds how stale a pending trigger can go unchecked.
const tickInterval = 250 * time.Millisecond

// ReindexFunc runs one incremental reindex pass.
type ReindexFunc func(ctx context.Context) error

// Watcher watches the document root and schedules debounced reindexes.
type Watcher struct {
	root     string
	debounce time.Duration
	reindex  ReindexFunc
	logger   *zap.Logger

	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	dirty     bool
	lastEvent time.Time
}

// New creates a watcher over root. The reindex callback is invoked after
// each debounced batch of changes.
func New(root string, debounce time.Duration, reindex ReindexFunc, logger *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:     root,
		debounce: debounce,
		reindex:  reindex,
		logger:   logger,
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start registers the root tree and begins processing events.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}

	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)

	w.logger.Info("watching document root",
		zap.String("root", w.root),
		zap.Duration("debounce", w.debounce))
	return nil
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.fsw.Close()
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	return err
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-ticker.C:
			if w.takePending() {
				w.trigger(ctx)
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories need to be registered before their contents settle.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.logger.Warn("watch new directory", zap.String("path", event.Name), zap.Error(err))
			}
			w.markDirty()
			return
		}
	}

	if !strings.HasSuffix(event.Name, ".json") {
		return
	}
	if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) ||
		event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
		w.markDirty()
	}
}

func (w *Watcher) markDirty() {
	w.mu.Lock()
	w.dirty = true
	w.lastEvent = time.Now()
	w.mu.Unlock()
}

// takePending reports whether the debounce window has elapsed since the last
// event, consuming the dirty flag if so.
func (w *Watcher) takePending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty || time.Since(w.lastEvent) < w.debounce {
		return false
	}
	w.dirty = false
	return true
}

func (w *Watcher) trigger(ctx context.Context) {
	if err := w.reindex(ctx); err != nil {
		if errors.Is(err, indexer.ErrReindexInProgress) {
			// Another run holds the lock. Stay dirty so the next tick retries.
			w.markDirty()
			return
		}
		w.logger.Error("watch-triggered reindex failed", zap.Error(err))
	}
}

// addRecursive registers dir and every non-hidden subdirectory.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}
