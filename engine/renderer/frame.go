package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/pipeline"
)

func (r *renderer) BeginComputeFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	if r.computeEncoder != nil {
		r.computeEncoder.Release()
	}
	r.computeEncoder = encoder
	return nil
}

func (r *renderer) DispatchCompute(key string, provider bind_group_provider.BindGroupProvider, workgroups [3]uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.lookup(key, pipeline.KindCompute)
	if err != nil {
		return err
	}
	if r.computeEncoder == nil {
		return ErrNoComputeFrame
	}
	pass := r.computeEncoder.BeginComputePass(nil)
	pass.SetPipeline(p.Compute())
	pass.SetBindGroup(0, provider.BindGroup(), nil)
	pass.DispatchWorkgroups(workgroups[0], workgroups[1], workgroups[2])
	pass.End()
	return nil
}

func (r *renderer) EndComputeFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	encoder := r.computeEncoder
	if encoder == nil {
		return ErrNoComputeFrame
	}
	r.computeEncoder = nil
	defer encoder.Release()

	commands, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	defer commands.Release()
	r.queue.Submit(commands)
	return nil
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frame != nil {
		return ErrFramePending
	}
	surface, err := r.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surface.CreateView(nil)
	if err != nil {
		surface.Release()
		return err
	}
	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surface.Release()
		return err
	}
	r.frame = &frame{
		surface: surface,
		view:    view,
		encoder: encoder,
		pass:    encoder.BeginRenderPass(r.passDescriptor(view)),
	}
	return nil
}

func (r *renderer) DrawCall(key string, mesh bind_group_provider.BindGroupProvider, groups []bind_group_provider.BindGroupProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.lookup(key, pipeline.KindRender)
	if err != nil {
		return err
	}
	if r.frame == nil || r.frame.pass == nil {
		return ErrNoFrame
	}
	pass := r.frame.pass
	pass.SetPipeline(p.Render())
	for i, g := range groups {
		pass.SetBindGroup(uint32(i), g.BindGroup(), nil)
	}
	pass.SetVertexBuffer(0, mesh.VertexBuffer(), 0, wgpu.WholeSize)
	pass.Draw(mesh.VertexCount(), 1, 0, 0)
	return nil
}

func (r *renderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.frame
	if f == nil || f.pass == nil {
		return
	}
	f.pass.End()
	f.pass = nil
	defer func() {
		f.encoder.Release()
		f.encoder = nil
	}()

	commands, err := f.encoder.Finish(nil)
	if err != nil {
		// nothing to show; drop the surface texture so the next frame can begin
		f.view.Release()
		f.surface.Release()
		r.frame = nil
		return
	}
	defer commands.Release()
	r.queue.Submit(commands)
}

func (r *renderer) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.frame
	if f == nil || f.pass != nil {
		return
	}
	r.surface.Present()
	f.view.Release()
	f.surface.Release()
	r.frame = nil
}
