package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BindGroupProviderOption configures a provider in NewBindGroupProvider.
type BindGroupProviderOption func(*bindGroupProvider)

// WithView attaches a texture view owned by a simulation target.
//
// Parameters:
//   - binding: the binding index
//   - view: the texture view
//
// Returns:
//   - BindGroupProviderOption: a function that attaches the view
func WithView(binding int, view *wgpu.TextureView) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.views[binding] = view
	}
}
