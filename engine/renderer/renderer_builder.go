package renderer

import "github.com/cogentcore/webgpu/wgpu"

// RendererBuilderOption configures a renderer in NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets how frames reach the display. The default is PresentModeUncapped.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - RendererBuilderOption: a function that sets the present mode
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.presentMode = mode
	}
}

// WithMSAA sets the sample count of the bird pass. Counts other than MSAAOff and MSAA4x are
// ignored and the default MSAA4x stays.
//
// Parameters:
//   - count: MSAAOff or MSAA4x
//
// Returns:
//   - RendererBuilderOption: a function that sets the sample count
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		if count == MSAAOff || count == MSAA4x {
			r.sampleCount = count
		}
	}
}

// WithClearColor sets the background the bird pass clears to.
func WithClearColor(red, green, blue float64) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = wgpu.Color{R: red, G: green, B: blue, A: 1}
	}
}
