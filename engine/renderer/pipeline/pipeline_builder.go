package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// PipelineBuilderOption configures the render state of NewRenderPipeline.
type PipelineBuilderOption func(*pipeline)

// WithCullMode sets which triangle faces are culled.
//
// Parameters:
//   - mode: the cull mode
//
// Returns:
//   - PipelineBuilderOption: a function that sets the cull mode
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithDepthWrite sets whether fragments write the depth attachment. Depth is always tested.
func WithDepthWrite(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWrite = enabled
	}
}
