// Package pipeline pairs reflected shaders with the fixed-function state the renderer needs to
// build a GPU pipeline: the bird render pipeline and one compute pipeline per simulation program.
package pipeline

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/shader"
)

// Kind tells render pipelines from compute pipelines.
type Kind int

const (
	KindCompute Kind = iota
	KindRender
)

// ErrMissingShader is returned by Validate when a stage the pipeline needs has no shader of that stage.
var ErrMissingShader = errors.New("pipeline: missing shader")

type pipeline struct {
	key  string
	kind Kind

	stages map[shader.Stage]shader.Shader

	cullMode   wgpu.CullMode
	depthWrite bool

	render  *wgpu.RenderPipeline
	compute *wgpu.ComputePipeline
}

// Pipeline holds the shaders and render state of one GPU pipeline. The renderer creates the GPU
// object at registration and stores it back with SetRender or SetCompute.
type Pipeline interface {
	// Key returns the cache key of the pipeline.
	Key() string

	// Kind returns whether this is a render or a compute pipeline.
	Kind() Kind

	// Shader returns the shader of a stage, or nil.
	Shader(stage shader.Stage) shader.Shader

	// Validate checks that every stage the kind needs holds a shader of that stage.
	//
	// Returns:
	//   - error: ErrMissingShader naming the stage, or nil
	Validate() error

	// Layouts merges the bind group layouts of all stages. Entries declared by several stages
	// keep one entry with the stages' visibilities combined.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: layouts keyed by group index
	Layouts() map[int]wgpu.BindGroupLayoutDescriptor

	// DispatchSize returns the workgroup counts covering a width x height grid.
	//
	// Parameters:
	//   - width, height: grid size in cells
	//
	// Returns:
	//   - [3]uint32: workgroup counts for x, y and z
	DispatchSize(width, height uint32) [3]uint32

	// CullMode returns the face culling of a render pipeline.
	CullMode() wgpu.CullMode

	// DepthWrite reports whether a render pipeline writes depth.
	DepthWrite() bool

	// Render returns the GPU render pipeline, nil until registered.
	Render() *wgpu.RenderPipeline

	// Compute returns the GPU compute pipeline, nil until registered.
	Compute() *wgpu.ComputePipeline

	SetRender(p *wgpu.RenderPipeline)
	SetCompute(p *wgpu.ComputePipeline)

	// Release frees the GPU pipeline, if any.
	Release()
}

var _ Pipeline = &pipeline{}

// NewRenderPipeline creates a render pipeline over a vertex and a fragment stage. Bird wings are
// single triangles seen from both sides, so culling defaults to none. Depth is written.
//
// Parameters:
//   - key: cache key of the pipeline
//   - vs, fs: the vertex and fragment shaders
//   - opts: render state options
//
// Returns:
//   - Pipeline: the unregistered pipeline
func NewRenderPipeline(key string, vs, fs shader.Shader, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		key:        key,
		kind:       KindRender,
		stages:     map[shader.Stage]shader.Shader{shader.StageVertex: vs, shader.StageFragment: fs},
		cullMode:   wgpu.CullModeNone,
		depthWrite: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewComputePipeline creates a compute pipeline over cs.
func NewComputePipeline(key string, cs shader.Shader) Pipeline {
	return &pipeline{
		key:    key,
		kind:   KindCompute,
		stages: map[shader.Stage]shader.Shader{shader.StageCompute: cs},
	}
}

func (p *pipeline) Key() string {
	return p.key
}

func (p *pipeline) Kind() Kind {
	return p.kind
}

func (p *pipeline) Shader(stage shader.Stage) shader.Shader {
	return p.stages[stage]
}

func (p *pipeline) Validate() error {
	need := []shader.Stage{shader.StageCompute}
	if p.kind == KindRender {
		need = []shader.Stage{shader.StageVertex, shader.StageFragment}
	}
	for _, stage := range need {
		s := p.stages[stage]
		if s == nil {
			return fmt.Errorf("%w: %s has no %s stage", ErrMissingShader, p.key, stage)
		}
		if s.Stage() != stage {
			return fmt.Errorf("%w: %s %s stage holds the %s shader %s", ErrMissingShader, p.key, stage, s.Stage(), s.Key())
		}
	}
	return nil
}

func (p *pipeline) Layouts() map[int]wgpu.BindGroupLayoutDescriptor {
	var all []map[int]wgpu.BindGroupLayoutDescriptor
	for _, stage := range []shader.Stage{shader.StageCompute, shader.StageVertex, shader.StageFragment} {
		if s := p.stages[stage]; s != nil {
			all = append(all, s.Layouts())
		}
	}
	return mergeLayouts(all...)
}

// mergeLayouts combines per-stage layouts without modifying them.
func mergeLayouts(stages ...map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, layouts := range stages {
		for _, group := range slices.Sorted(maps.Keys(layouts)) {
			desc := layouts[group]
			into, ok := merged[group]
			if !ok {
				merged[group] = wgpu.BindGroupLayoutDescriptor{Label: desc.Label, Entries: slices.Clone(desc.Entries)}
				continue
			}
			for _, e := range desc.Entries {
				i := slices.IndexFunc(into.Entries, func(x wgpu.BindGroupLayoutEntry) bool { return x.Binding == e.Binding })
				if i < 0 {
					into.Entries = append(into.Entries, e)
					continue
				}
				into.Entries[i].Visibility |= e.Visibility
			}
			slices.SortFunc(into.Entries, func(a, b wgpu.BindGroupLayoutEntry) int { return cmp.Compare(a.Binding, b.Binding) })
			merged[group] = into
		}
	}
	return merged
}

func (p *pipeline) DispatchSize(width, height uint32) [3]uint32 {
	size := [3]uint32{1, 1, 1}
	if cs := p.stages[shader.StageCompute]; cs != nil {
		size = cs.WorkgroupSize()
	}
	x, y := max(size[0], 1), max(size[1], 1)
	return [3]uint32{(width + x - 1) / x, (height + y - 1) / y, 1}
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) DepthWrite() bool {
	return p.depthWrite
}

func (p *pipeline) Render() *wgpu.RenderPipeline {
	return p.render
}

func (p *pipeline) Compute() *wgpu.ComputePipeline {
	return p.compute
}

func (p *pipeline) SetRender(rp *wgpu.RenderPipeline) {
	p.render = rp
}

func (p *pipeline) SetCompute(cp *wgpu.ComputePipeline) {
	p.compute = cp
}

func (p *pipeline) Release() {
	if p.render != nil {
		p.render.Release()
		p.render = nil
	}
	if p.compute != nil {
		p.compute.Release()
		p.compute = nil
	}
}
