// Package bind_group_provider holds the GPU objects behind one bind group: uniform buffers created
// by the renderer, texture views lent by simulation targets, and for the bird mesh its vertex buffer.
package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// Upload is a queued write of Data into the uniform buffer at Binding of Provider.
type Upload struct {
	Provider BindGroupProvider
	Binding  int
	Data     []byte
}

type bindGroupProvider struct {
	label string

	bindGroup *wgpu.BindGroup
	layout    *wgpu.BindGroupLayout
	buffers   map[int]*wgpu.Buffer
	// views belong to their simulation targets and are never released here.
	views map[int]*wgpu.TextureView

	vertexBuffer *wgpu.Buffer
	vertexCount  uint32
}

// BindGroupProvider is what the camera, the bird mesh and every simulation pass hand to the renderer.
//
// Usage pattern:
//  1. NewBindGroupProvider with a label, attaching texture views with WithView or AttachView
//  2. Renderer.InitBindGroup creates the uniform buffers and the bind group from a layout
//  3. Renderer.WriteBuffers uploads uniforms
//  4. BindGroup is set on draw and dispatch calls
//  5. Release
type BindGroupProvider interface {
	// Label returns the debug label also given to the GPU objects.
	Label() string

	// BindGroup returns the bind group, nil before InitBindGroup.
	BindGroup() *wgpu.BindGroup

	// SetBindGroup replaces the bind group, releasing the previous one.
	SetBindGroup(bg *wgpu.BindGroup)

	// Layout returns the bind group layout, nil before InitBindGroup.
	Layout() *wgpu.BindGroupLayout

	SetLayout(layout *wgpu.BindGroupLayout)

	// Buffer returns the uniform buffer at binding, or nil.
	Buffer(binding int) *wgpu.Buffer

	SetBuffer(binding int, buf *wgpu.Buffer)

	// TextureView returns the view attached at binding, or nil.
	TextureView(binding int) *wgpu.TextureView

	// AttachView binds a texture view owned by a simulation target.
	//
	// Parameters:
	//   - binding: the binding index
	//   - view: the view; Release leaves it alone
	AttachView(binding int, view *wgpu.TextureView)

	// Uses reports whether view is attached at any binding.
	Uses(view *wgpu.TextureView) bool

	// VertexBuffer returns the mesh vertex buffer, or nil.
	VertexBuffer() *wgpu.Buffer

	// VertexCount returns the number of vertices drawn from VertexBuffer.
	VertexCount() uint32

	// SetVertices stores the mesh vertex buffer and its vertex count.
	SetVertices(buf *wgpu.Buffer, count uint32)

	// Release frees the buffers, the bind group and the layout, and drops the attached views.
	Release()
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - label: debug label for the provider and its GPU objects
//   - options: views to attach up front
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:   label,
		buffers: make(map[int]*wgpu.Buffer),
		views:   make(map[int]*wgpu.TextureView),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) Layout() *wgpu.BindGroupLayout {
	return p.layout
}

func (p *bindGroupProvider) SetLayout(layout *wgpu.BindGroupLayout) {
	p.layout = layout
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	return p.views[binding]
}

func (p *bindGroupProvider) AttachView(binding int, view *wgpu.TextureView) {
	p.views[binding] = view
}

func (p *bindGroupProvider) Uses(view *wgpu.TextureView) bool {
	if view == nil {
		return false
	}
	for _, v := range p.views {
		if v == view {
			return true
		}
	}
	return false
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) VertexCount() uint32 {
	return p.vertexCount
}

func (p *bindGroupProvider) SetVertices(buf *wgpu.Buffer, count uint32) {
	p.vertexBuffer = buf
	p.vertexCount = count
}

func (p *bindGroupProvider) Release() {
	clear(p.views)
	for binding, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, binding)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.layout != nil {
		p.layout.Release()
		p.layout = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	p.vertexCount = 0
}
