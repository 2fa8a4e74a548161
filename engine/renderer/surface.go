package renderer

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

// acquireDevice creates the instance, the surface and a device. Panics on failure.
func (r *renderer) acquireDevice(desc *wgpu.SurfaceDescriptor) {
	// wgpu surfaces must be driven from the thread that created them.
	runtime.LockOSThread()

	r.instance = wgpu.CreateInstance(nil)
	r.surface = r.instance.CreateSurface(desc)

	adapter, err := r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{CompatibleSurface: r.surface})
	if err != nil {
		panic(fmt.Errorf("renderer: request adapter: %w", err))
	}

	// camera, bird uniforms and simulation textures
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 4
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "oxy-birds",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		panic(fmt.Errorf("renderer: request device: %w", err))
	}

	r.adapter = adapter
	r.device = device
	r.queue = device.GetQueue()
}

func (r *renderer) Limits() wgpu.Limits {
	return r.adapter.GetLimits().Limits
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configure(width, height)
}

// configure sizes the surface and recreates the MSAA and depth attachments. Callers hold r.mu,
// except NewRenderer before the renderer is shared.
func (r *renderer) configure(width, height int) {
	caps := r.surface.GetCapabilities(r.adapter)
	r.surfaceFormat = caps.Formats[0]
	r.surface.Configure(r.adapter, r.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      r.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: r.presentMode.surfaceMode(),
		AlphaMode:   caps.AlphaModes[0],
	})

	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	r.msaa.release()
	r.depth.release()
	if r.sampleCount != MSAAOff {
		r.msaa = r.newAttachment("msaa", size, r.surfaceFormat)
	}
	r.depth = r.newAttachment("depth", size, depthFormat)
}

// newAttachment creates a render attachment at the renderer's sample count. Panics on failure.
func (r *renderer) newAttachment(label string, size wgpu.Extent3D, format wgpu.TextureFormat) attachment {
	texture, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageRenderAttachment,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   uint32(r.sampleCount),
	})
	if err != nil {
		panic(fmt.Errorf("renderer: %s attachment: %w", label, err))
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		panic(fmt.Errorf("renderer: %s attachment view: %w", label, err))
	}
	return attachment{texture: texture, view: view}
}

// passDescriptor describes the bird pass drawing into target. With MSAA the pass draws into the
// multisampled attachment and resolves into target.
func (r *renderer) passDescriptor(target *wgpu.TextureView) *wgpu.RenderPassDescriptor {
	color := wgpu.RenderPassColorAttachment{
		View:       target,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: r.clearColor,
	}
	if r.msaa.view != nil {
		color.View = r.msaa.view
		color.ResolveTarget = target
		color.StoreOp = wgpu.StoreOpDiscard
	}
	return &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1,
		},
	}
}
