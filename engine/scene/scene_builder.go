package scene

import (
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-birds/engine/compute"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithName sets the scene's identifier used in logs and errors.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *scene) {
		if name != "" {
			s.name = name
		}
	}
}

// WithLogger sets the logger shared by the scene and its scheduler.
//
// Parameters:
//   - logger: the zap logger; nil keeps the no-op default
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) SceneBuilderOption {
	return func(s *scene) {
		if logger != nil {
			s.logger = logger.Named("scene")
		}
	}
}

// WithBackend overrides the compute backend. The scene keeps the backend across Configure calls.
//
// Parameters:
//   - backend: the backend running the flock kernels
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithBackend(backend compute.Backend) SceneBuilderOption {
	return func(s *scene) {
		s.backend = backend
	}
}

// WithComputeWorkers sets the number of worker goroutines of the default CPU backend.
// Defaults to runtime.NumCPU()-1. Ignored when a renderer or WithBackend picks the backend.
//
// Parameters:
//   - n: the number of compute workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		s.computeWorkers = max(n, 1)
	}
}

// WithHalfFloatFallback lets the flock run on float16 targets when float32 targets are unsupported.
//
// Parameters:
//   - enabled: true to allow the fallback
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithHalfFloatFallback(enabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.halfFloat = enabled
	}
}

// WithSurfaceSize sets the initial surface size used for pointer mapping and the camera aspect.
//
// Parameters:
//   - width, height: surface size in pixels; non-positive sizes are ignored
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithSurfaceSize(width, height int) SceneBuilderOption {
	return func(s *scene) {
		if width > 0 && height > 0 {
			s.width, s.height = width, height
			s.cam.SetAspect(float32(width) / float32(height))
		}
	}
}
