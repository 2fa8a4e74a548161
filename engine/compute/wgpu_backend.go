package compute

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/x448/float16"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-birds/common"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/shader"
)

// GPUTarget is a target backed by a GPU texture. The bird vertex stage binds its View.
type GPUTarget interface {
	Target
	View() *wgpu.TextureView
}

// wgpuTarget is a storage texture render target.
type wgpuTarget struct {
	label   string
	width   uint32
	height  uint32
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func (t *wgpuTarget) Label() string           { return t.label }
func (t *wgpuTarget) Width() uint32           { return t.width }
func (t *wgpuTarget) Height() uint32          { return t.height }
func (t *wgpuTarget) View() *wgpu.TextureView { return t.view }

// wgpuProgram is the registered compute pipeline of one program.
type wgpuProgram struct {
	key             string
	pipeline        pipeline.Pipeline
	shader          shader.Shader
	uniformBindings []int
}

// wgpuBackend runs WGSL programs as compute passes through the renderer's device.
type wgpuBackend struct {
	r      renderer.Renderer
	logger *zap.Logger

	programs map[string]*wgpuProgram
	// bindings caches one bind group per output target; the inputs of a given output never change.
	bindings map[*wgpuTarget]bind_group_provider.BindGroupProvider
}

var (
	_ Backend   = &wgpuBackend{}
	_ GPUTarget = &wgpuTarget{}
)

// NewWGPUBackend creates a backend dispatching WGSL compute programs on r's device.
//
// Parameters:
//   - r: the renderer owning the GPU device
//   - logger: logger for pipeline creation; nil for none
//
// Returns:
//   - Backend: the wgpu backend; its targets implement GPUTarget
func NewWGPUBackend(r renderer.Renderer, logger *zap.Logger) Backend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &wgpuBackend{
		r:        r,
		logger:   logger.Named("compute.wgpu"),
		programs: make(map[string]*wgpuProgram),
		bindings: make(map[*wgpuTarget]bind_group_provider.BindGroupProvider),
	}
}

func (b *wgpuBackend) Name() string {
	return "wgpu"
}

// Capabilities derives support from the adapter limits. rgba32float and rgba16float are core
// storage formats, so float support reduces to the storage texture limit of a stage.
func (b *wgpuBackend) Capabilities() Capabilities {
	limits := b.r.Limits()
	storage := limits.MaxStorageTexturesPerShaderStage >= 1
	return Capabilities{
		FloatTargets:     storage,
		HalfFloatTargets: storage,
		VertexTextures:   limits.MaxSampledTexturesPerShaderStage >= 2,
	}
}

func (b *wgpuBackend) CreateTarget(spec TargetSpec) (Target, error) {
	format := wgpu.TextureFormatRGBA32Float
	if spec.DataType == DataTypeFloat16 {
		format = wgpu.TextureFormatRGBA16Float
	}

	var data []byte
	if spec.Initial != nil {
		data = encodeTexels(spec.Initial.Texels, spec.DataType)
	}

	tex, view, err := b.r.CreateStorageTarget(spec.Label, spec.Width, spec.Height, format, data)
	if err != nil {
		return nil, err
	}
	return &wgpuTarget{
		label:   spec.Label,
		width:   spec.Width,
		height:  spec.Height,
		texture: tex,
		view:    view,
	}, nil
}

func (b *wgpuBackend) BeginTick() error {
	return b.r.BeginComputeFrame()
}

func (b *wgpuBackend) Dispatch(pass *Pass) error {
	prog, err := b.program(pass)
	if err != nil {
		return err
	}

	out, ok := pass.Output.(*wgpuTarget)
	if !ok {
		return fmt.Errorf("%w: %s output is not a wgpu target", ErrInvalidTexture, pass.Variable)
	}

	provider, ok := b.bindings[out]
	if !ok {
		provider, err = b.bindGroup(prog, pass, out)
		if err != nil {
			return err
		}
		b.bindings[out] = provider
	}

	if len(pass.Uniforms) > 0 {
		uploads := make([]bind_group_provider.Upload, 0, len(prog.uniformBindings))
		for _, binding := range prog.uniformBindings {
			uploads = append(uploads, bind_group_provider.Upload{Provider: provider, Binding: binding, Data: pass.Uniforms})
		}
		b.r.WriteBuffers(uploads...)
	}

	return b.r.DispatchCompute(prog.key, provider, prog.pipeline.DispatchSize(pass.Width, pass.Height))
}

// program returns the compute pipeline for the pass's program, creating it on first use.
func (b *wgpuBackend) program(pass *Pass) (*wgpuProgram, error) {
	if pass.Program == nil || pass.Program.Source == "" {
		return nil, fmt.Errorf("%w: %s has no WGSL source", ErrNoKernel, pass.Variable)
	}
	key := "compute_" + pass.Program.Name + "_" + pass.DataType.String()
	if prog, ok := b.programs[key]; ok {
		return prog, nil
	}

	source := pass.Program.Source
	if pass.DataType == DataTypeFloat16 {
		source = strings.ReplaceAll(source, "rgba32float", "rgba16float")
	}

	s, err := shader.NewShader(key, shader.StageCompute, source)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", pass.Program.Name, err)
	}
	p := pipeline.NewComputePipeline(key, s)
	if err := b.r.RegisterPipelines(p); err != nil {
		return nil, err
	}

	prog := &wgpuProgram{key: key, pipeline: p, shader: s}
	for _, binding := range s.Bindings() {
		if binding.Kind == shader.BindingUniform && binding.Group == 0 {
			prog.uniformBindings = append(prog.uniformBindings, binding.Index)
		}
	}
	b.programs[key] = prog
	wg := s.WorkgroupSize()
	b.logger.Debug("compute pipeline created",
		zap.String("program", pass.Program.Name),
		zap.Uint32s("workgroup_size", wg[:]),
	)
	return prog, nil
}

// bindGroup builds the group 0 bind group of a pass from the program's texture directives.
func (b *wgpuBackend) bindGroup(prog *wgpuProgram, pass *Pass, out *wgpuTarget) (bind_group_provider.BindGroupProvider, error) {
	provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("%s_gen%d", pass.Variable, 1-pass.Generation))

	for _, binding := range prog.shader.Bindings() {
		if binding.Kind != shader.BindingTexture || binding.Group != 0 {
			continue
		}
		switch binding.Owner {
		case shader.OwnerInput:
			t, ok := pass.Input(binding.Variable)
			if !ok {
				provider.Release()
				return nil, fmt.Errorf("%w: %s reads %q which is not a dependency", ErrDependencyNotFound, pass.Variable, binding.Variable)
			}
			gt, ok := t.(*wgpuTarget)
			if !ok {
				provider.Release()
				return nil, fmt.Errorf("%w: %s input %s is not a wgpu target", ErrInvalidTexture, pass.Variable, binding.Variable)
			}
			provider.AttachView(binding.Index, gt.view)
		case shader.OwnerOutput:
			if binding.Variable != pass.Variable {
				provider.Release()
				return nil, fmt.Errorf("%s program writes %q", pass.Variable, binding.Variable)
			}
			provider.AttachView(binding.Index, out.view)
		}
	}

	if err := b.r.InitBindGroup(provider, prog.shader.Layout(0)); err != nil {
		provider.Release()
		return nil, fmt.Errorf("bind group for %s: %w", pass.Variable, err)
	}
	return provider, nil
}

func (b *wgpuBackend) EndTick() error {
	return b.r.EndComputeFrame()
}

func (b *wgpuBackend) ReleaseTarget(t Target) {
	gt, ok := t.(*wgpuTarget)
	if !ok {
		return
	}
	// Bind groups reference the target either as output or as an input view.
	for out, provider := range b.bindings {
		if out == gt || provider.Uses(gt.view) {
			provider.Release()
			delete(b.bindings, out)
		}
	}
	if gt.view != nil {
		gt.view.Release()
		gt.view = nil
	}
	if gt.texture != nil {
		gt.texture.Release()
		gt.texture = nil
	}
}

func (b *wgpuBackend) Release() {
	for out, provider := range b.bindings {
		provider.Release()
		delete(b.bindings, out)
	}
	for key := range b.programs {
		b.r.ReleasePipeline(key)
		delete(b.programs, key)
	}
}

// encodeTexels packs RGBA components as little-endian float32 or float16 bits.
func encodeTexels(texels []float32, dataType DataType) []byte {
	if dataType != DataTypeFloat16 {
		return common.SliceToBytes(texels)
	}
	out := make([]byte, len(texels)*2)
	for i, v := range texels {
		binary.LittleEndian.PutUint16(out[i*2:], float16.Fromfloat32(v).Bits())
	}
	return out
}
