// Package shader loads the flock's WGSL assets. NewShader expands the //@oxy: directives of a
// source, then reflects the entry point, bind group layouts and vertex buffers the renderer
// needs to build a pipeline.
package shader

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Stage is the pipeline stage a shader's entry point runs in.
type Stage int

const (
	StageCompute Stage = iota
	StageVertex
	StageFragment
)

// String returns the WGSL attribute name of the stage.
func (s Stage) String() string {
	switch s {
	case StageCompute:
		return "compute"
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

var (
	// ErrEmptySource is returned by NewShader when no WGSL source is given.
	ErrEmptySource = errors.New("shader: empty source")

	// ErrNoEntryPoint is returned by NewShader when the source has no entry point for the stage.
	ErrNoEntryPoint = errors.New("shader: no entry point")

	// ErrDirective is returned for a malformed //@oxy: directive.
	ErrDirective = errors.New("shader: bad directive")

	// ErrUnsupportedBinding is returned for a resource or type outside what the flock binds.
	ErrUnsupportedBinding = errors.New("shader: unsupported binding")
)

// Shader is a pre-processed and reflected WGSL stage.
type Shader interface {
	// Key returns the shader's label, also used for the GPU module.
	Key() string

	// Stage returns the stage of the entry point.
	Stage() Stage

	// Source returns the expanded WGSL handed to the GPU.
	Source() string

	// EntryPoint returns the name of the stage's entry function.
	EntryPoint() string

	// WorkgroupSize returns @workgroup_size for compute shaders and zeros otherwise.
	WorkgroupSize() [3]uint32

	// Layout returns the bind group layout of group, or an empty descriptor when the stage binds nothing there.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: entries sorted by binding
	Layout(group int) wgpu.BindGroupLayoutDescriptor

	// Layouts returns every bind group layout keyed by group index.
	Layouts() map[int]wgpu.BindGroupLayoutDescriptor

	// VertexBuffers returns the buffer layouts of the vertex entry point's struct inputs.
	VertexBuffers() []wgpu.VertexBufferLayout

	// Bindings returns the resources declared with directives, in source order.
	Bindings() []Binding
}

type shader struct {
	key           string
	stage         Stage
	source        string
	entryPoint    string
	workgroupSize [3]uint32
	layouts       map[int]wgpu.BindGroupLayoutDescriptor
	vertexBuffers []wgpu.VertexBufferLayout
	bindings      []Binding
}

var _ Shader = &shader{}

// NewShader expands and reflects a WGSL stage. Every directive must tag a declaration of a matching
// kind: a uniform buffer for //@oxy:uniform, a texture_2d input for input and simulation textures,
// and a storage texture for kernel outputs.
//
// Parameters:
//   - key: label of the shader
//   - stage: the stage whose entry point is reflected
//   - source: the WGSL source, usually an embedded asset
//
// Returns:
//   - Shader: the reflected shader
//   - error: ErrEmptySource, ErrDirective, ErrNoEntryPoint or ErrUnsupportedBinding
func NewShader(key string, stage Stage, source string) (Shader, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, key)
	}
	expanded, bindings, err := expand(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	r, err := reflectSource(key, stage, expanded)
	if err != nil {
		return nil, err
	}
	s := &shader{
		key:           key,
		stage:         stage,
		source:        expanded,
		entryPoint:    r.entryPoint,
		workgroupSize: r.workgroupSize,
		layouts:       r.layouts,
		vertexBuffers: r.vertexBuffers,
		bindings:      bindings,
	}
	for _, b := range bindings {
		if err := s.checkBinding(b); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// checkBinding matches a directive against the reflected entry at its slot.
func (s *shader) checkBinding(b Binding) error {
	var entry *wgpu.BindGroupLayoutEntry
	for i, e := range s.layouts[b.Group].Entries {
		if int(e.Binding) == b.Index {
			entry = &s.layouts[b.Group].Entries[i]
			break
		}
	}
	if entry == nil {
		return fmt.Errorf("%w: %s line %d: nothing declared at @group(%d) @binding(%d)", ErrDirective, s.key, b.Line, b.Group, b.Index)
	}
	var ok bool
	switch {
	case b.Kind == BindingUniform:
		ok = entry.Buffer.Type == wgpu.BufferBindingTypeUniform
	case b.Owner == OwnerOutput:
		ok = entry.StorageTexture.Format != wgpu.TextureFormatUndefined
	default:
		ok = entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined
	}
	if !ok {
		return fmt.Errorf("%w: %s line %d: declaration at @group(%d) @binding(%d) does not fit the directive", ErrDirective, s.key, b.Line, b.Group, b.Index)
	}
	return nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Stage() Stage {
	return s.stage
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workgroupSize
}

func (s *shader) Layout(group int) wgpu.BindGroupLayoutDescriptor {
	return s.layouts[group]
}

func (s *shader) Layouts() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.layouts
}

func (s *shader) VertexBuffers() []wgpu.VertexBufferLayout {
	return s.vertexBuffers
}

func (s *shader) Bindings() []Binding {
	return s.bindings
}
