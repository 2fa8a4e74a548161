package profiler

import (
	"time"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-birds/common/logger"
)

// ProfilerBuilderOption is a functional option for configuring a Profiler.
type ProfilerBuilderOption func(p *Profiler)

// WithLogger sets the logger stats are reported to.
//
// Parameters:
//   - l: the parent logger; nil keeps the no-op default
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the logger option
func WithLogger(l *zap.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.logger = logger.Named(l, "profiler")
	}
}

// WithInterval sets how often stats are reported. Non-positive values keep one second.
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.interval = d
		}
	}
}
