package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-birds/common/logger"
	"github.com/Carmen-Shannon/oxy-birds/engine/profiler"
	"github.com/Carmen-Shannon/oxy-birds/engine/scene"
	"github.com/Carmen-Shannon/oxy-birds/engine/window"
)

// EngineBuilderOption configures an engine in NewEngine.
type EngineBuilderOption func(*engine)

// WithWindow attaches a window. Without one the engine runs headless.
//
// Parameters:
//   - w: the window events are pumped from
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithScene registers a scene under key.
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}

// WithFrameLimit caps the frame rate. Zero or negative leaves the loop uncapped, which is the
// default; a windowed engine is then paced by the present mode.
//
// Parameters:
//   - fps: maximum frames per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.frameLimit = 0
		if fps > 0 {
			e.frameLimit = time.Duration(float64(time.Second) / fps)
		}
	}
}

// WithLogger sets the engine logger. The default profiler reports through it as well.
//
// Parameters:
//   - l: the parent logger; nil keeps the no-op default
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(l *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = logger.Named(l, "engine")
	}
}

// WithProfiling turns per-frame profiling on or off.
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profiling = enabled
	}
}

// WithProfiler replaces the default profiler.
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}
