package config

import (
	"time"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-birds/common/logger"
)

// WatcherBuilderOption is a functional option for configuring a Watcher.
type WatcherBuilderOption func(w *watcher)

// WithWatcherLogger sets the logger. A nil logger keeps the no-op default.
//
// Parameters:
//   - l: the parent logger
//
// Returns:
//   - WatcherBuilderOption: a function that applies the logger option
func WithWatcherLogger(l *zap.Logger) WatcherBuilderOption {
	return func(w *watcher) {
		w.logger = logger.Named(l, "config")
	}
}

// WithDebounce sets how long to wait after the last change before reloading.
// Non-positive values keep DefaultDebounce.
func WithDebounce(d time.Duration) WatcherBuilderOption {
	return func(w *watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnReload registers a callback run after every successful reload.
func WithOnReload(fn func(*Config)) WatcherBuilderOption {
	return func(w *watcher) {
		w.onReload = fn
	}
}
