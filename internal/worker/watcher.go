package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
)

// Watcher triggers a scan shortly after a new file lands in the watched
// directory, so dropped files do not wait for the next polling tick.
// Bursts of events collapse into one trigger.
type Watcher struct {
	dir      string
	trigger  func(ctx context.Context) error
	debounce time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WatcherConfig holds configuration for the directory watcher.
type WatcherConfig struct {
	Dir      string
	Trigger  func(ctx context.Context) error
	Debounce time.Duration // Quiet period before triggering (default: 500ms)
	Logger   *slog.Logger
}

// NewWatcher creates a directory watcher.
func NewWatcher(cfg WatcherConfig) *Watcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		dir:      cfg.Dir,
		trigger:  cfg.Trigger,
		debounce: debounce,
		logger:   logger.With("component", "watcher"),
	}
}

// Start begins watching the directory, creating it if needed.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if w.trigger == nil {
		return fmt.Errorf("%w: watcher has no trigger", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create watched dir: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.fsw = fsw
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.run(ctx, fsw, w.stopCh, w.doneCh)

	w.logger.Info("watching directory", "dir", w.dir, "debounce", w.debounce)
	return nil
}

// Stop stops watching. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	close(w.stopCh)
	done := w.doneCh
	fsw := w.fsw
	w.mu.Unlock()

	<-done
	_ = fsw.Close()

	w.mu.Lock()
	w.running = false
	w.fsw = nil
	w.mu.Unlock()
}

// Running reports whether the watcher is active
func (w *Watcher) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	armed := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stopCh:
			timer.Stop()
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !triggersScan(event) {
				continue
			}
			w.logger.Debug("pending file event", "file", filepath.Base(event.Name), "op", event.Op.String())
			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			armed = true
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		case <-timer.C:
			armed = false
			if err := w.trigger(ctx); err != nil {
				w.logger.Warn("triggered scan failed", "error", err)
			}
		}
	}
}

// triggersScan reports whether an event can mean a new pending file.
// Removals and renames away only ever shrink the pending set.
func triggersScan(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Base(event.Name)
	if domain.IsProcessed(name) || strings.HasPrefix(name, ".") {
		return false
	}
	info, err := os.Stat(event.Name)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
