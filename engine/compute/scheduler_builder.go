package compute

import (
	"go.uber.org/zap"
)

// SchedulerBuilderOption is a functional option applied to a scheduler during construction via NewScheduler.
type SchedulerBuilderOption func(*scheduler)

// WithLogger sets the logger used for initialization and capability reports.
//
// Parameters:
//   - logger: the zap logger; nil keeps the no-op default
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the logger option to a scheduler
func WithLogger(logger *zap.Logger) SchedulerBuilderOption {
	return func(s *scheduler) {
		if logger != nil {
			s.logger = logger.Named("compute")
		}
	}
}

// WithHalfFloatFallback lets Init fall back to float16 targets when the backend cannot
// write float32 targets but can write float16 ones.
//
// Parameters:
//   - enabled: true to allow the fallback
//
// Returns:
//   - SchedulerBuilderOption: a function that applies the fallback option to a scheduler
func WithHalfFloatFallback(enabled bool) SchedulerBuilderOption {
	return func(s *scheduler) {
		s.halfFloat = enabled
	}
}
