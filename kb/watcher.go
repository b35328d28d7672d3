package kb

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for further changes before
// reloading, so a multi-file save triggers one reload rather than several.
const DefaultDebounce = 200 * time.Millisecond

// Watcher reloads a Store when rule files change in its directories.
type Watcher struct {
	log      *slog.Logger
	store    *Store
	fsw      *fsnotify.Watcher
	debounce time.Duration

	mu    sync.Mutex
	dirty bool

	reloads chan uint64
}

// WatcherConfig configures a Watcher. Store is required.
type WatcherConfig struct {
	Store    *Store
	Debounce time.Duration
	Logger   *slog.Logger
}

// NewWatcher creates a watcher over the store's directories. Call Start to
// begin watching and Stop to release the inotify resources.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		log:      logger.With("component", "kb.watcher"),
		store:    cfg.Store,
		fsw:      fsw,
		debounce: debounce,
		reloads:  make(chan uint64, 16),
	}, nil
}

// Reloads delivers the generation of each snapshot the watcher publishes.
// Receives are optional; the channel is buffered and drops are harmless.
func (w *Watcher) Reloads() <-chan uint64 {
	return w.reloads
}

// Start adds the store's directories to the watch set and runs the event
// loop until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.store.Dirs() {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}

		w.log.Debug("watching rule directory", "dir", dir)
	}

	go w.run(ctx)

	return nil
}

// Stop closes the underlying filesystem watcher.
func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func (w *Watcher) run(ctx context.Context) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}

			if !strings.HasSuffix(event.Name, ".pl") {
				continue
			}

			w.mu.Lock()
			w.dirty = true
			w.mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}

			w.log.Error("watch error", "error", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	dirty := w.dirty
	w.dirty = false
	w.mu.Unlock()

	if !dirty {
		return
	}

	if err := w.store.Reload(); err != nil {
		w.log.Error("rule base reload failed", "error", err)

		return
	}

	generation := w.store.Snapshot().Generation
	w.log.Info("rule base reloaded", "generation", generation)

	select {
	case w.reloads <- generation:
	default:
	}
}
