// Package compute runs grid simulations as ping-pong passes over pairs of float textures.
//
// A Scheduler owns named variables. Each variable has a program, an ordered list of
// dependencies and two render targets. A tick runs every variable's program once over
// the whole grid: inputs are the current generation of each dependency and the output
// is the variable's alternate target. The generation flips only after every variable ran,
// so no pass observes a write made during the same tick.
//
// Execution is delegated to a Backend. The wgpu backend dispatches WGSL compute shaders
// into storage textures; the CPU backend runs Go kernels on a worker pool.
package compute

import (
	"errors"
)

var (
	// ErrVariableExists is returned by AddVariable for a duplicate name.
	ErrVariableExists = errors.New("compute: variable already exists")
	// ErrDependencyNotFound is returned by Init when a dependency is not registered with the scheduler.
	ErrDependencyNotFound = errors.New("compute: dependency not found")
	// ErrFloatTexturesUnsupported is returned by Init when the backend cannot render to float targets.
	ErrFloatTexturesUnsupported = errors.New("compute: float render targets unsupported")
	// ErrVertexTexturesUnsupported is returned by Init when the vertex stage cannot sample textures.
	ErrVertexTexturesUnsupported = errors.New("compute: vertex-stage texture sampling unsupported")
	// ErrNotInitialized is returned by Tick before a successful Init.
	ErrNotInitialized = errors.New("compute: scheduler not initialized")
	// ErrAlreadyInitialized is returned by Init and AddVariable once the scheduler is initialized.
	ErrAlreadyInitialized = errors.New("compute: scheduler already initialized")
	// ErrNoKernel is returned when a backend cannot run a program (no kernel or no source).
	ErrNoKernel = errors.New("compute: program has nothing to run on this backend")
	// ErrInvalidTexture is returned for initial textures whose size does not match the grid.
	ErrInvalidTexture = errors.New("compute: invalid texture")
)

// DataType is the texel storage type of a render target.
type DataType int

const (
	// DataTypeFloat32 stores 32-bit float RGBA texels.
	DataTypeFloat32 DataType = iota
	// DataTypeFloat16 stores half-float RGBA texels.
	DataTypeFloat16
)

func (d DataType) String() string {
	if d == DataTypeFloat16 {
		return "float16"
	}
	return "float32"
}

// WrapMode is how reads outside the grid resolve. Filtering is always nearest.
type WrapMode int

const (
	// WrapRepeat wraps coordinates around the grid.
	WrapRepeat WrapMode = iota
	// WrapClampToEdge clamps coordinates to the nearest edge texel.
	WrapClampToEdge
)

func (w WrapMode) String() string {
	if w == WrapClampToEdge {
		return "clamp_to_edge"
	}
	return "repeat"
}

// Capabilities reports what a backend can do. Init checks them before allocating anything.
type Capabilities struct {
	// FloatTargets is true when 32-bit float textures can be written by a pass.
	FloatTargets bool
	// HalfFloatTargets is true when 16-bit float textures can be written by a pass.
	HalfFloatTargets bool
	// VertexTextures is true when the vertex stage can read at least two textures.
	VertexTextures bool
}
