// Package renderer owns the GPU device. It draws the bird mesh into the window surface and runs
// the simulation's compute passes on the same queue, so the textures a tick writes are the ones
// the following frame samples.
package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-birds/engine/window"
)

// PresentMode controls how finished frames reach the display.
type PresentMode int

const (
	// PresentModeVSync waits for the vertical blank, capping the frame rate at the refresh rate.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents immediately. Frames may tear.
	PresentModeUncapped
)

// surfaceMode maps the mode onto the surface configuration.
func (m PresentMode) surfaceMode() wgpu.PresentMode {
	if m == PresentModeVSync {
		return wgpu.PresentModeFifo
	}
	return wgpu.PresentModeImmediate
}

// MSAASampleCount is the sample count of the color and depth attachments. WebGPU guarantees
// 1 and 4 on every adapter.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
)

var (
	// ErrUnknownPipeline is returned when no pipeline of the needed kind is registered under a key.
	ErrUnknownPipeline = errors.New("renderer: pipeline not registered")

	// ErrNoComputeFrame is returned by DispatchCompute and EndComputeFrame outside BeginComputeFrame.
	ErrNoComputeFrame = errors.New("renderer: no compute frame in progress")

	// ErrNoFrame is returned by DrawCall outside BeginFrame and EndFrame.
	ErrNoFrame = errors.New("renderer: no frame in progress")

	// ErrFramePending is returned by BeginFrame while the previous frame is not presented.
	ErrFramePending = errors.New("renderer: previous frame not presented")

	// ErrUnsupportedFormat is returned by CreateStorageTarget for formats the simulation never writes.
	ErrUnsupportedFormat = errors.New("renderer: unsupported storage format")
)

// Renderer draws the flock and dispatches its compute passes.
//
// A frame of the engine loop is:
//  1. BeginComputeFrame, one DispatchCompute per simulation pass, EndComputeFrame
//  2. BeginFrame, DrawCall, EndFrame
//  3. Present
type Renderer interface {
	// Pipeline returns the registered pipeline under key, or nil.
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines validates each pipeline and creates its GPU object. Keys already
	// registered are skipped.
	//
	// Parameters:
	//   - pipelines: render or compute pipelines
	//
	// Returns:
	//   - error: pipeline.ErrMissingShader or a GPU creation error
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// ReleasePipeline frees the pipeline under key. Unknown keys are ignored.
	ReleasePipeline(key string)

	// Resize reconfigures the surface and the size-dependent attachments. Non-positive sizes are ignored.
	Resize(width, height int)

	// Limits returns the adapter limits.
	Limits() wgpu.Limits

	// CreateStorageTarget creates a 2D texture that compute passes write and the bird vertex stage
	// samples, optionally seeded with data.
	//
	// Parameters:
	//   - label: debug label
	//   - width, height: size in texels
	//   - format: rgba32float or rgba16float
	//   - data: row-major texels, or nil for a zeroed texture
	//
	// Returns:
	//   - *wgpu.Texture: the texture, released by the caller
	//   - *wgpu.TextureView: its default view, released by the caller
	//   - error: ErrUnsupportedFormat, a size mismatch or a GPU error
	CreateStorageTarget(label string, width, height uint32, format wgpu.TextureFormat, data []byte) (*wgpu.Texture, *wgpu.TextureView, error)

	// InitMesh uploads a non-indexed vertex buffer and stores it on provider.
	//
	// Parameters:
	//   - provider: receives the buffer and vertex count
	//   - vertexData: interleaved vertices
	//   - count: number of vertices in vertexData
	//
	// Returns:
	//   - error: an error for empty data or a failed upload
	InitMesh(provider bind_group_provider.BindGroupProvider, vertexData []byte, count uint32) error

	// InitBindGroup creates the uniform buffers and the bind group described by layout. Texture
	// bindings use the views already attached to provider.
	//
	// Parameters:
	//   - provider: holds the views and receives the buffers and the bind group
	//   - layout: a reflected bind group layout
	//
	// Returns:
	//   - error: an error naming a binding without a view, or a GPU error
	InitBindGroup(provider bind_group_provider.BindGroupProvider, layout wgpu.BindGroupLayoutDescriptor) error

	// WriteBuffers queues uniform uploads. Uploads to a binding without a buffer are skipped.
	WriteBuffers(uploads ...bind_group_provider.Upload)

	// BeginComputeFrame opens the encoder that batches a tick's compute passes into one submission.
	BeginComputeFrame() error

	// DispatchCompute encodes one compute pass with provider's bind group at group 0. Each pass
	// ends before the next begins, so later passes see earlier writes.
	//
	// Parameters:
	//   - key: a registered compute pipeline
	//   - provider: the pass's bind group
	//   - workgroups: workgroup counts for x, y and z
	//
	// Returns:
	//   - error: ErrUnknownPipeline or ErrNoComputeFrame
	DispatchCompute(key string, provider bind_group_provider.BindGroupProvider, workgroups [3]uint32) error

	// EndComputeFrame submits the batched compute passes.
	EndComputeFrame() error

	// BeginFrame acquires the surface texture and opens the render pass.
	BeginFrame() error

	// DrawCall draws mesh's vertices with groups bound in order, groups[i] at @group(i).
	//
	// Parameters:
	//   - key: a registered render pipeline
	//   - mesh: provider holding the vertex buffer
	//   - groups: bind groups in group order
	//
	// Returns:
	//   - error: ErrUnknownPipeline or ErrNoFrame
	DrawCall(key string, mesh bind_group_provider.BindGroupProvider, groups []bind_group_provider.BindGroupProvider) error

	// EndFrame closes the render pass and submits it.
	EndFrame()

	// Present shows the submitted frame and releases the surface texture.
	Present()
}

// attachment is a size-dependent render attachment recreated on Resize.
type attachment struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (a *attachment) release() {
	if a.view != nil {
		a.view.Release()
	}
	if a.texture != nil {
		a.texture.Release()
	}
	*a = attachment{}
}

// frame is the state between BeginFrame and Present.
type frame struct {
	surface *wgpu.Texture
	view    *wgpu.TextureView
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
}

type renderer struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   PresentMode
	sampleCount   MSAASampleCount
	clearColor    wgpu.Color
	msaa          attachment
	depth         attachment

	pipelines map[string]pipeline.Pipeline

	computeEncoder *wgpu.CommandEncoder
	frame          *frame
}

var _ Renderer = &renderer{}

// NewRenderer acquires a GPU device for the window's surface and configures the surface at the
// window size. It panics when no adapter or device is available.
//
// Parameters:
//   - w: the window providing the surface
//   - options: present mode, MSAA and clear color options
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(w window.Window, options ...RendererBuilderOption) Renderer {
	r := newRenderer(options...)
	r.acquireDevice(w.SurfaceDescriptor())
	r.configure(w.Width(), w.Height())
	return r
}

// newRenderer applies options to a renderer without a device.
func newRenderer(options ...RendererBuilderOption) *renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		presentMode: PresentModeUncapped,
		sampleCount: MSAA4x,
		clearColor:  wgpu.Color{R: 1, G: 1, B: 1, A: 1},
		pipelines:   make(map[string]pipeline.Pipeline),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelines[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range pipelines {
		if _, ok := r.pipelines[p.Key()]; ok {
			continue
		}
		if err := p.Validate(); err != nil {
			return err
		}
		var err error
		if p.Kind() == pipeline.KindCompute {
			err = r.createComputePipeline(p)
		} else {
			err = r.createRenderPipeline(p)
		}
		if err != nil {
			return fmt.Errorf("register pipeline %q: %w", p.Key(), err)
		}
		r.pipelines[p.Key()] = p
	}
	return nil
}

func (r *renderer) ReleasePipeline(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.pipelines[key]; ok {
		p.Release()
		delete(r.pipelines, key)
	}
}

// lookup returns the registered pipeline of kind under key. Callers hold r.mu.
func (r *renderer) lookup(key string, kind pipeline.Kind) (pipeline.Pipeline, error) {
	p, ok := r.pipelines[key]
	if !ok || p.Kind() != kind {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPipeline, key)
	}
	return p, nil
}
