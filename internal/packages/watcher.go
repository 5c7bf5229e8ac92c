package packages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher evicts manifest cache entries when files in the packages directory
// change. fsnotify is not recursive, so the base directory and every package
// directory are watched individually.
type Watcher struct {
	baseDir  string
	cache    *ManifestCache
	logger   interfaces.Logger
	debounce time.Duration
	onChange func(paths []string)

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	done    chan struct{}
	once    sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(logger interfaces.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce overrides the quiet period before evictions are applied.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithChangeHook is called with the flushed paths after each eviction batch.
func WithChangeHook(fn func(paths []string)) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// NewWatcher creates a watcher for baseDir. Call Start to begin watching.
func NewWatcher(baseDir string, cache *ManifestCache, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("packages watcher: %w", err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("packages watcher: resolve %s: %w", baseDir, err)
	}
	w := &Watcher{
		baseDir:  abs,
		cache:    cache,
		logger:   logging.NoOp(),
		debounce: defaultDebounce,
		watcher:  fsw,
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start registers the directories and runs the event loop until ctx is done
// or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.baseDir); err != nil {
		return fmt.Errorf("packages watcher: watch %s: %w", w.baseDir, err)
	}
	entries, err := os.ReadDir(w.baseDir)
	if err != nil {
		return fmt.Errorf("packages watcher: list %s: %w", w.baseDir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			w.addDir(filepath.Join(w.baseDir, entry.Name()))
		}
	}

	w.logger.Info("packages.watcher.started", "base_dir", w.baseDir)
	go w.loop(ctx)
	return nil
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}

func (w *Watcher) addDir(dir string) {
	if err := w.watcher.Add(dir); err != nil {
		w.logger.Warn("packages.watcher.add_failed", "dir", dir, "error", err)
	}
}

func (w *Watcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Close()
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("packages.watcher.error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create && filepath.Dir(event.Name) == w.baseDir {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addDir(event.Name)
		}
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[event.Name] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	for _, path := range paths {
		if w.cache != nil {
			w.cache.Evict(path)
			w.cache.EvictDir(path)
		}
	}
	w.logger.Debug("packages.watcher.evicted", "paths", len(paths))
	if w.onChange != nil {
		w.onChange(paths)
	}
}
