package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-birds/engine/flock"
)

// DefaultDebounce is how long the watcher waits after the last write before reloading.
const DefaultDebounce = 250 * time.Millisecond

// ErrWatcherStarted is returned by Start on a running watcher.
var ErrWatcherStarted = errors.New("config: watcher already started")

// FlockReceiver accepts hot-reloaded flock parameters. scene.Scene implements it.
type FlockReceiver interface {
	SetFlockParameters(params flock.Parameters) error
}

// Watcher reloads a config file when it changes and pushes the flock section into a receiver.
// Files that fail to load or validate are logged and ignored; the last good config stays current.
type Watcher interface {
	// Start begins watching. The watch ends when ctx is done or Stop is called.
	//
	// Parameters:
	//   - ctx: bounds the lifetime of the watch goroutine
	//
	// Returns:
	//   - error: error if the file's directory cannot be watched
	Start(ctx context.Context) error

	// Stop closes the underlying watcher and waits for the watch goroutine to exit.
	Stop() error

	// Current returns the last configuration that loaded and validated.
	Current() *Config

	// Reloads returns the number of successful reloads.
	Reloads() int
}

type watcher struct {
	mu       sync.Mutex
	path     string
	receiver FlockReceiver
	logger   *zap.Logger
	debounce time.Duration
	onReload func(*Config)

	fs      *fsnotify.Watcher
	current *Config
	reloads int
	done    chan struct{}
}

var _ Watcher = &watcher{}

// NewWatcher creates a Watcher for path seeded with the already loaded initial config.
//
// Parameters:
//   - path: the config file
//   - initial: the config currently in use
//   - receiver: receives validated flock parameters on every reload; may be nil
//   - options: WithWatcherLogger, WithDebounce, WithOnReload
//
// Returns:
//   - Watcher: the watcher, not yet started
//   - error: error if the fsnotify watcher cannot be created
func NewWatcher(path string, initial *Config, receiver FlockReceiver, options ...WatcherBuilderOption) (Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &watcher{
		path:     filepath.Clean(path),
		receiver: receiver,
		logger:   zap.NewNop(),
		debounce: DefaultDebounce,
		fs:       fs,
		current:  initial,
	}
	for _, option := range options {
		option(w)
	}
	return w, nil
}

func (w *watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done != nil {
		return ErrWatcherStarted
	}

	// Watch the directory; editors replace files by rename, which drops a file watch.
	dir := filepath.Dir(w.path)
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.done = make(chan struct{})
	w.logger.Info("watching config", zap.String("path", w.path), zap.Duration("debounce", w.debounce))

	go w.loop(ctx, w.done)
	return nil
}

func (w *watcher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	debounceTimer := time.NewTimer(w.debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.shouldProcessEvent(event) {
				w.logger.Debug("config change detected", zap.String("file", event.Name), zap.String("op", event.Op.String()))
				debounceTimer.Reset(w.debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error("config watcher error", zap.Error(err))

		case <-debounceTimer.C:
			w.reload()

		case <-ctx.Done():
			w.logger.Info("stopping config watcher")
			return
		}
	}
}

func (w *watcher) shouldProcessEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Clean(event.Name) == w.path
}

func (w *watcher) reload() {
	start := time.Now()
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Warn("ignoring config change", zap.Error(err))
		return
	}

	if w.receiver != nil {
		if err := w.receiver.SetFlockParameters(cfg.Flock); err != nil {
			w.logger.Error("failed to apply flock parameters", zap.Error(err))
			return
		}
	}

	w.mu.Lock()
	w.current = cfg
	w.reloads++
	onReload := w.onReload
	w.mu.Unlock()

	if onReload != nil {
		onReload(cfg)
	}
	w.logger.Info("config reloaded",
		zap.Duration("duration", time.Since(start)),
		zap.Float32("separation", cfg.Flock.Separation),
		zap.Float32("alignment", cfg.Flock.Alignment),
		zap.Float32("cohesion", cfg.Flock.Cohesion))
}

func (w *watcher) Stop() error {
	err := w.fs.Close()

	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done != nil {
		<-done
	}
	return err
}

func (w *watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}
