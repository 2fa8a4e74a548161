package compute

import (
	"github.com/Carmen-Shannon/oxy-birds/common"
)

// Target is one render target of a variable. It is owned by the backend that created it.
type Target interface {
	// Label is the debug label, "<variable>_<generation>".
	Label() string
	// Width returns the target width in texels.
	Width() uint32
	// Height returns the target height in texels.
	Height() uint32
}

// TargetSpec describes a target to allocate.
type TargetSpec struct {
	Label    string
	Width    uint32
	Height   uint32
	DataType DataType
	Wrap     WrapMode
	// Initial seeds the target. Nil leaves it zeroed.
	Initial *common.FloatTextureData
}

// TargetReader is implemented by backends whose targets can be copied back to the host.
type TargetReader interface {
	// ReadTarget copies the texels of t.
	//
	// Parameters:
	//   - t: a target created by the same backend
	//
	// Returns:
	//   - *common.FloatTextureData: a copy of the texels
	//   - error: an error if t does not belong to the backend
	ReadTarget(t Target) (*common.FloatTextureData, error)
}

// Binding pairs a dependency name with the target a pass reads it from.
type Binding struct {
	Name   string
	Target Target
}

// Pass is the per-tick snapshot handed to a backend for one variable. It is built for one
// dispatch and never retained by the scheduler.
type Pass struct {
	// Variable is the name of the variable being written.
	Variable string
	Program  *Program
	// Inputs are the current targets of the variable's dependencies, in dependency order.
	Inputs []Binding
	// Output is the variable's alternate target.
	Output Target
	// Uniforms is the marshalled uniform block for this tick, may be nil.
	Uniforms []byte
	Width    uint32
	Height   uint32
	DataType DataType
	Wrap     WrapMode
	// Generation is the generation the inputs are read from; the output belongs to 1-Generation.
	Generation int
}

// Input returns the target bound to the named dependency.
func (p *Pass) Input(name string) (Target, bool) {
	for _, b := range p.Inputs {
		if b.Name == name {
			return b.Target, true
		}
	}
	return nil, false
}

// Backend executes passes. Calls are made from one goroutine; Dispatch calls of a tick are
// bracketed by BeginTick and EndTick.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Capabilities reports float target and vertex texture support.
	Capabilities() Capabilities

	// CreateTarget allocates a target and seeds it from spec.Initial.
	//
	// Parameters:
	//   - spec: size, format, wrap mode and initial texels
	//
	// Returns:
	//   - Target: the allocated target
	//   - error: an error if allocation or upload fails
	CreateTarget(spec TargetSpec) (Target, error)

	// BeginTick opens a batch of dispatches.
	BeginTick() error

	// Dispatch runs pass.Program over the grid, writing pass.Output.
	Dispatch(pass *Pass) error

	// EndTick completes the batch. Outputs are visible to later reads once it returns.
	EndTick() error

	// ReleaseTarget frees a target and anything the backend cached for it.
	ReleaseTarget(t Target)

	// Release frees backend-owned resources. Targets must be released first.
	Release()
}
