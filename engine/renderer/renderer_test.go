package renderer

import (
	"errors"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-birds/engine/flock"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/shader"
)

func TestOptions(t *testing.T) {
	r := newRenderer()
	assert.Equal(t, MSAA4x, r.sampleCount)
	assert.Equal(t, PresentModeUncapped, r.presentMode)
	assert.Equal(t, wgpu.Color{R: 1, G: 1, B: 1, A: 1}, r.clearColor)

	r = newRenderer(WithMSAA(MSAAOff), WithPresentMode(PresentModeVSync), WithClearColor(0.1, 0.2, 0.3))
	assert.Equal(t, MSAAOff, r.sampleCount)
	assert.Equal(t, wgpu.PresentModeFifo, r.presentMode.surfaceMode())
	assert.Equal(t, wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}, r.clearColor)

	r = newRenderer(WithMSAA(8))
	assert.Equal(t, MSAA4x, r.sampleCount)
	assert.Equal(t, wgpu.PresentModeImmediate, PresentModeUncapped.surfaceMode())
}

func TestTexelSize(t *testing.T) {
	size, err := texelSize(wgpu.TextureFormatRGBA32Float)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), size)

	size, err = texelSize(wgpu.TextureFormatRGBA16Float)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), size)

	_, err = texelSize(wgpu.TextureFormatRGBA8Unorm)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCreateStorageTargetRejectsBeforeTouchingDevice(t *testing.T) {
	r := newRenderer()
	_, _, err := r.CreateStorageTarget("depth", 4, 4, wgpu.TextureFormatDepth24Plus, nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, _, err = r.CreateStorageTarget("short", 4, 4, wgpu.TextureFormatRGBA32Float, make([]byte, 16))
	assert.ErrorContains(t, err, "want 256")
}

func TestGroupOrder(t *testing.T) {
	assert.Nil(t, groupOrder(nil))

	ordered := groupOrder(map[int]wgpu.BindGroupLayoutDescriptor{
		2: {Label: "simulation"},
		0: {Label: "camera"},
	})
	require.Len(t, ordered, 3)
	assert.Equal(t, "camera", ordered[0].Label)
	assert.Empty(t, ordered[1].Entries)
	assert.Equal(t, "simulation", ordered[2].Label)
}

func TestBindGroupEntries(t *testing.T) {
	layout := wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 48}},
		{Binding: 1, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeUnfilterableFloat}},
		{Binding: 3, StorageTexture: wgpu.StorageTextureBindingLayout{Format: wgpu.TextureFormatRGBA32Float}},
	}}
	input, output := &wgpu.TextureView{}, &wgpu.TextureView{}
	provider := bind_group_provider.NewBindGroupProvider("velocity",
		bind_group_provider.WithView(1, input),
		bind_group_provider.WithView(3, output),
	)

	var created []uint64
	buf := &wgpu.Buffer{}
	newBuffer := func(_ string, size uint64) (*wgpu.Buffer, error) {
		created = append(created, size)
		return buf, nil
	}

	entries, err := bindGroupEntries(provider, layout, newBuffer)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Same(t, buf, entries[0].Buffer)
	assert.Equal(t, uint64(wgpu.WholeSize), entries[0].Size)
	assert.Same(t, input, entries[1].TextureView)
	assert.Same(t, output, entries[2].TextureView)
	assert.Equal(t, []uint64{48}, created)

	// the provider keeps its buffer across calls
	_, err = bindGroupEntries(provider, layout, newBuffer)
	require.NoError(t, err)
	assert.Len(t, created, 1)
}

func TestBindGroupEntriesErrors(t *testing.T) {
	sampled := wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{
		{Binding: 2, Texture: wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeUnfilterableFloat}},
	}}
	_, err := bindGroupEntries(bind_group_provider.NewBindGroupProvider("bare"), sampled, nil)
	assert.ErrorContains(t, err, "binding 2 has no texture view")

	failing := wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: 16}},
	}}
	boom := errors.New("out of memory")
	_, err = bindGroupEntries(bind_group_provider.NewBindGroupProvider("camera"), failing,
		func(string, uint64) (*wgpu.Buffer, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	storage := wgpu.BindGroupLayoutDescriptor{Entries: []wgpu.BindGroupLayoutEntry{
		{Binding: 0, Buffer: wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}},
	}}
	_, err = bindGroupEntries(bind_group_provider.NewBindGroupProvider("storage"), storage, nil)
	assert.ErrorContains(t, err, "neither a texture nor a uniform buffer")
}

func TestPipelineCache(t *testing.T) {
	velocity, err := shader.NewShader("velocity", shader.StageCompute, flock.VelocitySource)
	require.NoError(t, err)

	r := newRenderer()
	assert.ErrorIs(t, r.RegisterPipelines(pipeline.NewComputePipeline("broken", nil)), pipeline.ErrMissingShader)
	assert.Nil(t, r.Pipeline("broken"))

	// registered keys are skipped without touching the device
	p := pipeline.NewComputePipeline("velocity", velocity)
	r.pipelines["velocity"] = p
	require.NoError(t, r.RegisterPipelines(pipeline.NewComputePipeline("velocity", velocity)))
	assert.Same(t, p, r.Pipeline("velocity"))

	provider := bind_group_provider.NewBindGroupProvider("pass")
	assert.ErrorIs(t, r.DispatchCompute("missing", provider, [3]uint32{1, 1, 1}), ErrUnknownPipeline)
	assert.ErrorIs(t, r.DispatchCompute("velocity", provider, [3]uint32{1, 1, 1}), ErrNoComputeFrame)
	assert.ErrorIs(t, r.DrawCall("velocity", provider, nil), ErrUnknownPipeline)
	assert.ErrorIs(t, r.EndComputeFrame(), ErrNoComputeFrame)

	r.ReleasePipeline("velocity")
	r.ReleasePipeline("velocity")
	assert.Nil(t, r.Pipeline("velocity"))
}

func TestFrameCallsOutsideFrame(t *testing.T) {
	vs := &stubShader{stage: shader.StageVertex}
	fs := &stubShader{stage: shader.StageFragment}
	r := newRenderer()
	r.pipelines["birds"] = pipeline.NewRenderPipeline("birds", vs, fs)

	mesh := bind_group_provider.NewBindGroupProvider("birds")
	assert.ErrorIs(t, r.DrawCall("birds", mesh, nil), ErrNoFrame)
	assert.NotPanics(t, r.EndFrame)
	assert.NotPanics(t, r.Present)
}

// stubShader stands in for a reflected stage in tests that never reach the device.
type stubShader struct {
	shader.Shader
	stage shader.Stage
}

func (s *stubShader) Stage() shader.Stage { return s.stage }
