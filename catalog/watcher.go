package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads a file-backed catalog into a Holder when the file changes.
// A reload that fails to parse or validate keeps the previous catalog.
type Watcher struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	holder  *Holder
	path    string
	log     *zap.Logger

	debounce time.Duration
	pending  bool
	lastSeen time.Time

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// NewWatcher prepares a watcher for path. Call Start to begin watching.
func NewWatcher(path string, holder *Holder, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		holder:   holder,
		path:     abs,
		log:      log,
		debounce: 200 * time.Millisecond,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start watches the file's directory, so editors that replace the file by
// rename are still seen. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.log.Info("watching menu file", zap.String("path", w.path))

	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	wasRunning := w.running
	w.running = false
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.log.Warn("closing menu watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("menu watcher error", zap.Error(err))
		case <-ticker.C:
			w.reloadIfSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	w.mu.Lock()
	w.pending = true
	w.lastSeen = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) reloadIfSettled(ctx context.Context) {
	w.mu.Lock()
	if !w.pending || time.Since(w.lastSeen) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	c, err := load(ctx, w.path, 0)
	if err != nil {
		w.log.Warn("menu reload failed, keeping previous menu", zap.String("path", w.path), zap.Error(err))
		return
	}
	w.holder.Set(c)
	w.log.Info("menu reloaded", zap.String("path", w.path))
}
