package compute

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/x448/float16"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

// cpuTarget is a host-memory render target.
type cpuTarget struct {
	label    string
	data     *common.FloatTextureData
	dataType DataType
	wrap     WrapMode
}

func (t *cpuTarget) Label() string  { return t.label }
func (t *cpuTarget) Width() uint32  { return t.data.Width }
func (t *cpuTarget) Height() uint32 { return t.data.Height }

// cpuSampler reads a cpuTarget with its wrap mode.
type cpuSampler struct {
	t *cpuTarget
}

func (s cpuSampler) Width() int  { return int(s.t.data.Width) }
func (s cpuSampler) Height() int { return int(s.t.data.Height) }

func (s cpuSampler) Load(x, y int) [4]float32 {
	w, h := s.Width(), s.Height()
	switch s.t.wrap {
	case WrapClampToEdge:
		x = common.Clamp(x, 0, w-1)
		y = common.Clamp(y, 0, h-1)
	default:
		x = ((x % w) + w) % w
		y = ((y % h) + h) % h
	}
	return s.t.data.At(x, y)
}

// cpuInputs is the Inputs view of one pass.
type cpuInputs struct {
	pass *Pass
}

func (in cpuInputs) Sampler(name string) Sampler {
	t, ok := in.pass.Input(name)
	if !ok {
		return nil
	}
	return cpuSampler{t: t.(*cpuTarget)}
}

// cpuBackend runs Go kernels over host targets, fanning grid rows out across a worker pool.
type cpuBackend struct {
	pool        worker.DynamicWorkerPool
	workers     int
	queueSize   int
	idleTimeout time.Duration
	caps        Capabilities
	taskID      int
}

var (
	_ Backend      = &cpuBackend{}
	_ TargetReader = &cpuBackend{}
)

// NewCPUBackend creates a backend that runs each pass's Kernel on the host. It reports full
// capabilities unless overridden with WithCapabilities.
//
// Parameters:
//   - options: variadic list of CPUBackendOption functions
//
// Returns:
//   - Backend: the CPU backend; it also implements TargetReader
func NewCPUBackend(options ...CPUBackendOption) Backend {
	b := &cpuBackend{
		workers:     max(runtime.NumCPU()-1, 1),
		queueSize:   256,
		idleTimeout: time.Second,
		caps: Capabilities{
			FloatTargets:     true,
			HalfFloatTargets: true,
			VertexTextures:   true,
		},
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

func (b *cpuBackend) Name() string {
	return "cpu"
}

func (b *cpuBackend) Capabilities() Capabilities {
	return b.caps
}

func (b *cpuBackend) CreateTarget(spec TargetSpec) (Target, error) {
	if spec.Width == 0 || spec.Height == 0 {
		return nil, fmt.Errorf("%w: %s has zero size", ErrInvalidTexture, spec.Label)
	}
	t := &cpuTarget{
		label:    spec.Label,
		dataType: spec.DataType,
		wrap:     spec.Wrap,
	}
	if spec.Initial != nil {
		if spec.Initial.Width != spec.Width || spec.Initial.Height != spec.Height {
			return nil, fmt.Errorf("%w: %s seed size mismatch", ErrInvalidTexture, spec.Label)
		}
		t.data = spec.Initial.Clone()
	} else {
		t.data = common.NewFloatTextureData(spec.Width, spec.Height)
	}
	if t.dataType == DataTypeFloat16 {
		quantize(t.data.Texels)
	}
	return t, nil
}

// BeginTick starts the worker pool on the first tick after construction or Release.
func (b *cpuBackend) BeginTick() error {
	if b.pool == nil {
		b.pool = worker.NewDynamicWorkerPool(b.workers, b.queueSize, b.idleTimeout)
	}
	return nil
}

func (b *cpuBackend) Dispatch(pass *Pass) error {
	if pass.Program == nil || pass.Program.Kernel == nil {
		return fmt.Errorf("%w: %s has no kernel", ErrNoKernel, pass.Variable)
	}
	out, ok := pass.Output.(*cpuTarget)
	if !ok {
		return fmt.Errorf("%w: %s output is not a cpu target", ErrInvalidTexture, pass.Variable)
	}
	for _, in := range pass.Inputs {
		if _, ok := in.Target.(*cpuTarget); !ok {
			return fmt.Errorf("%w: %s input %s is not a cpu target", ErrInvalidTexture, pass.Variable, in.Name)
		}
	}

	if b.pool == nil {
		return fmt.Errorf("%s: dispatch outside a tick", pass.Variable)
	}

	kernel := pass.Program.Kernel
	inputs := cpuInputs{pass: pass}
	width, height := int(pass.Width), int(pass.Height)

	// Rows are split into roughly two chunks per worker; the WaitGroup is the barrier.
	chunk := max(height/(b.workers*2), 1)
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var errs []error
	for y0 := 0; y0 < height; y0 += chunk {
		y1 := min(y0+chunk, height)
		wg.Add(1)
		b.taskID++
		b.pool.SubmitTask(worker.Task{
			ID:      b.taskID,
			Payload: pass.Variable,
			Do: func() (res any, err error) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%s kernel panicked at rows %d-%d: %v", pass.Variable, y0, y1, r)
						errMu.Lock()
						errs = append(errs, err)
						errMu.Unlock()
					}
				}()
				for y := y0; y < y1; y++ {
					for x := 0; x < width; x++ {
						out.data.Set(x, y, kernel(inputs, x, y))
					}
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if out.dataType == DataTypeFloat16 {
		quantize(out.data.Texels)
	}
	return nil
}

func (b *cpuBackend) EndTick() error {
	return nil
}

func (b *cpuBackend) ReleaseTarget(t Target) {
	if ct, ok := t.(*cpuTarget); ok {
		ct.data = common.NewFloatTextureData(0, 0)
	}
}

func (b *cpuBackend) Release() {
	if b.pool != nil {
		b.pool.Stop()
		b.pool = nil
	}
}

func (b *cpuBackend) ReadTarget(t Target) (*common.FloatTextureData, error) {
	ct, ok := t.(*cpuTarget)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a cpu target", ErrInvalidTexture, t)
	}
	return ct.data.Clone(), nil
}

// quantize rounds every component to the nearest float16.
func quantize(texels []float32) {
	for i, v := range texels {
		texels[i] = float16.Fromfloat32(v).Float32()
	}
}
