package renderer

import (
	"fmt"
	"maps"
	"slices"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/shader"
)

// groupOrder lays reflected layouts out by group index. Unused groups below the highest one get
// an empty layout, since a pipeline layout cannot have holes.
func groupOrder(layouts map[int]wgpu.BindGroupLayoutDescriptor) []wgpu.BindGroupLayoutDescriptor {
	if len(layouts) == 0 {
		return nil
	}
	ordered := make([]wgpu.BindGroupLayoutDescriptor, slices.Max(slices.Collect(maps.Keys(layouts)))+1)
	for group, desc := range layouts {
		ordered[group] = desc
	}
	return ordered
}

// pipelineLayout creates the bind group layouts and the pipeline layout of p. Callers hold r.mu.
func (r *renderer) pipelineLayout(p pipeline.Pipeline) (*wgpu.PipelineLayout, error) {
	descs := groupOrder(p.Layouts())
	groups := make([]*wgpu.BindGroupLayout, len(descs))
	defer func() {
		for _, bgl := range groups {
			if bgl != nil {
				bgl.Release()
			}
		}
	}()
	for i := range descs {
		bgl, err := r.device.CreateBindGroupLayout(&descs[i])
		if err != nil {
			return nil, fmt.Errorf("group %d layout: %w", i, err)
		}
		groups[i] = bgl
	}
	return r.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Key(),
		BindGroupLayouts: groups,
	})
}

// module compiles a shader's expanded source. Callers hold r.mu.
func (r *renderer) module(s shader.Shader) (*wgpu.ShaderModule, error) {
	return r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          s.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: s.Source()},
	})
}

// createComputePipeline builds the GPU object of a validated compute pipeline. Callers hold r.mu.
func (r *renderer) createComputePipeline(p pipeline.Pipeline) error {
	cs := p.Shader(shader.StageCompute)
	mod, err := r.module(cs)
	if err != nil {
		return err
	}
	defer mod.Release()

	layout, err := r.pipelineLayout(p)
	if err != nil {
		return err
	}
	defer layout.Release()
	created, err := r.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   p.Key(),
		Layout:  layout,
		Compute: wgpu.ProgrammableStageDescriptor{Module: mod, EntryPoint: cs.EntryPoint()},
	})
	if err != nil {
		return err
	}
	p.SetCompute(created)
	return nil
}

// createRenderPipeline builds the GPU object of a validated render pipeline. Callers hold r.mu.
func (r *renderer) createRenderPipeline(p pipeline.Pipeline) error {
	vs, fs := p.Shader(shader.StageVertex), p.Shader(shader.StageFragment)
	vsMod, err := r.module(vs)
	if err != nil {
		return err
	}
	defer vsMod.Release()
	fsMod, err := r.module(fs)
	if err != nil {
		return err
	}
	defer fsMod.Release()

	layout, err := r.pipelineLayout(p)
	if err != nil {
		return err
	}
	defer layout.Release()
	created, err := r.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.Key(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vsMod,
			EntryPoint: vs.EntryPoint(),
			Buffers:    vs.VertexBuffers(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fsMod,
			EntryPoint: fs.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{{Format: r.surfaceFormat, WriteMask: wgpu.ColorWriteMaskAll}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  p.CullMode(),
		},
		Multisample: wgpu.MultisampleState{Count: uint32(r.sampleCount), Mask: 0xFFFFFFFF},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: p.DepthWrite(),
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return err
	}
	p.SetRender(created)
	return nil
}
