package compute

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

// scheduler is the implementation of the Scheduler interface.
type scheduler struct {
	mu *sync.Mutex

	width, height uint32
	backend       Backend
	logger        *zap.Logger

	variables []*Variable
	byName    map[string]*Variable

	// current is the generation holding the latest output of every variable.
	current     int
	initialized bool
	dataType    DataType
	halfFloat   bool
	uniforms    []byte
	ticks       uint64

	// unknownTarget holds the first SetDependencies call on an unregistered variable.
	unknownTarget error
}

// Scheduler advances a set of ping-pong simulation variables one tick at a time.
//
// Usage pattern:
//  1. AddVariable for every simulated quantity, with its program and seed texture
//  2. SetDependencies to declare what each program reads
//  3. Init to check capabilities, validate dependencies and allocate targets
//  4. SetUniforms and Tick once per frame; read results with CurrentTarget
//  5. Release when done
type Scheduler interface {
	// AddVariable registers a variable. Variables run in registration order.
	//
	// Parameters:
	//   - name: unique variable name
	//   - program: the program writing this variable
	//   - initial: seed texture for both targets, or nil for zeros; must match the grid size
	//
	// Returns:
	//   - *Variable: the registered variable
	//   - error: ErrVariableExists, ErrInvalidTexture or ErrAlreadyInitialized
	AddVariable(name string, program Program, initial *common.FloatTextureData) (*Variable, error)

	// SetDependencies replaces the variables read by v's program. A variable may depend on
	// itself. Unregistered dependencies, and a nil or unregistered v, are reported by Init.
	//
	// Parameters:
	//   - v: the variable to configure
	//   - deps: dependencies in binding order
	SetDependencies(v *Variable, deps ...*Variable)

	// Variable looks up a registered variable by name.
	//
	// Parameters:
	//   - name: the variable name
	//
	// Returns:
	//   - *Variable: the variable, or nil
	Variable(name string) *Variable

	// Variables returns the registered variables in run order.
	Variables() []*Variable

	// Init checks backend capabilities before allocating anything, validates dependencies,
	// then allocates two targets per variable seeded with its initial texture.
	//
	// Returns:
	//   - error: a capability, dependency or allocation error; nothing stays allocated on error
	Init() error

	// SetUniforms sets the uniform block handed to every pass of the following ticks.
	//
	// Parameters:
	//   - data: the marshalled uniform block; copied
	SetUniforms(data []byte)

	// Tick runs every variable's program once. Each pass reads the current generation of its
	// dependencies and writes the variable's alternate target. The generation flips after all
	// passes succeed; on error it is left unchanged.
	//
	// Returns:
	//   - error: ErrNotInitialized or the first backend error
	Tick() error

	// CurrentTarget returns the target holding v's latest output.
	//
	// Parameters:
	//   - v: a registered variable
	//
	// Returns:
	//   - Target: the current target, or nil before Init
	CurrentTarget(v *Variable) Target

	// AlternateTarget returns the target v's next pass will write.
	//
	// Parameters:
	//   - v: a registered variable
	//
	// Returns:
	//   - Target: the alternate target, or nil before Init
	AlternateTarget(v *Variable) Target

	// Generation returns the index (0 or 1) of the current targets.
	Generation() int

	// Ticks returns the number of completed ticks since Init.
	Ticks() uint64

	// DataType returns the texel type chosen by Init.
	DataType() DataType

	// Size returns the grid width and height.
	Size() (width, height uint32)

	// Backend returns the backend executing the passes.
	Backend() Backend

	// Initialized reports whether Init succeeded and Release has not been called.
	Initialized() bool

	// Release frees every target and then the backend. The scheduler cannot be used afterwards.
	Release()
}

var _ Scheduler = &scheduler{}

// NewScheduler creates a scheduler for a width x height grid executing on backend.
//
// Parameters:
//   - width: grid width in cells
//   - height: grid height in cells
//   - backend: the backend that allocates targets and runs passes
//   - options: variadic list of SchedulerBuilderOption functions
//
// Returns:
//   - Scheduler: the new scheduler
func NewScheduler(width, height uint32, backend Backend, options ...SchedulerBuilderOption) Scheduler {
	s := &scheduler{
		mu:      &sync.Mutex{},
		width:   width,
		height:  height,
		backend: backend,
		logger:  zap.NewNop(),
		byName:  make(map[string]*Variable),
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("backend", backend.Name()))
	return s
}

func (s *scheduler) AddVariable(name string, program Program, initial *common.FloatTextureData) (*Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil, ErrAlreadyInitialized
	}
	if _, exists := s.byName[name]; exists {
		return nil, fmt.Errorf("%w: %q", ErrVariableExists, name)
	}
	if initial != nil {
		if initial.Width != s.width || initial.Height != s.height {
			return nil, fmt.Errorf("%w: %q seed is %dx%d, grid is %dx%d", ErrInvalidTexture, name, initial.Width, initial.Height, s.width, s.height)
		}
		if len(initial.Texels) != int(s.width)*int(s.height)*4 {
			return nil, fmt.Errorf("%w: %q seed has %d components", ErrInvalidTexture, name, len(initial.Texels))
		}
	}
	if program.Name == "" {
		program.Name = name
	}

	v := &Variable{
		name:    name,
		program: program,
		initial: initial,
		wrap:    WrapRepeat,
	}
	s.variables = append(s.variables, v)
	s.byName[name] = v
	return v, nil
}

func (s *scheduler) SetDependencies(v *Variable, deps ...*Variable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v == nil || s.byName[v.name] != v {
		if s.unknownTarget == nil {
			name := "<nil>"
			if v != nil {
				name = v.name
			}
			s.unknownTarget = fmt.Errorf("%w: dependencies set on unregistered %q", ErrDependencyNotFound, name)
		}
		return
	}
	v.dependencies = append([]*Variable(nil), deps...)
}

func (s *scheduler) Variable(name string) *Variable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byName[name]
}

func (s *scheduler) Variables() []*Variable {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Variable(nil), s.variables...)
}

func (s *scheduler) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return ErrAlreadyInitialized
	}

	dataType, err := s.checkCapabilities()
	if err != nil {
		s.logger.Error("simulation unavailable", zap.Error(err))
		return err
	}

	if s.unknownTarget != nil {
		return s.unknownTarget
	}
	for _, v := range s.variables {
		for _, dep := range v.dependencies {
			if dep == nil || s.byName[dep.name] != dep {
				name := "<nil>"
				if dep != nil {
					name = dep.name
				}
				return fmt.Errorf("%w: %q depends on %q", ErrDependencyNotFound, v.name, name)
			}
		}
	}

	for _, v := range s.variables {
		for gen := range v.targets {
			t, err := s.backend.CreateTarget(TargetSpec{
				Label:    fmt.Sprintf("%s_%d", v.name, gen),
				Width:    s.width,
				Height:   s.height,
				DataType: dataType,
				Wrap:     v.wrap,
				Initial:  v.initial,
			})
			if err != nil {
				s.releaseTargets()
				return fmt.Errorf("allocate %s target %d: %w", v.name, gen, err)
			}
			v.targets[gen] = t
		}
	}

	s.dataType = dataType
	s.current = 0
	s.ticks = 0
	s.initialized = true
	s.logger.Info("simulation initialized",
		zap.Uint32("width", s.width),
		zap.Uint32("height", s.height),
		zap.Int("variables", len(s.variables)),
		zap.Stringer("data_type", dataType),
	)
	return nil
}

// checkCapabilities picks the texel type. Callers hold s.mu.
func (s *scheduler) checkCapabilities() (DataType, error) {
	caps := s.backend.Capabilities()
	dataType := DataTypeFloat32
	if !caps.FloatTargets {
		if !s.halfFloat || !caps.HalfFloatTargets {
			return 0, ErrFloatTexturesUnsupported
		}
		dataType = DataTypeFloat16
		s.logger.Warn("float32 targets unsupported, using float16")
	}
	if !caps.VertexTextures {
		return 0, ErrVertexTexturesUnsupported
	}
	return dataType, nil
}

func (s *scheduler) SetUniforms(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uniforms = append(s.uniforms[:0], data...)
}

func (s *scheduler) Tick() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return ErrNotInitialized
	}

	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		TicksTotal.WithLabelValues(status).Inc()
	}()

	if err := s.backend.BeginTick(); err != nil {
		return fmt.Errorf("begin tick: %w", err)
	}

	next := 1 - s.current
	for _, v := range s.variables {
		pass := &Pass{
			Variable:   v.name,
			Program:    &v.program,
			Inputs:     make([]Binding, len(v.dependencies)),
			Output:     v.targets[next],
			Uniforms:   s.uniforms,
			Width:      s.width,
			Height:     s.height,
			DataType:   s.dataType,
			Wrap:       v.wrap,
			Generation: s.current,
		}
		for i, dep := range v.dependencies {
			pass.Inputs[i] = Binding{Name: dep.name, Target: dep.targets[s.current]}
		}

		start := time.Now()
		dispatchErr := s.backend.Dispatch(pass)
		PassDuration.WithLabelValues(v.name, s.backend.Name()).Observe(time.Since(start).Seconds())
		if dispatchErr != nil {
			return errors.Join(fmt.Errorf("dispatch %s: %w", v.name, dispatchErr), s.backend.EndTick())
		}
	}

	if err := s.backend.EndTick(); err != nil {
		return fmt.Errorf("end tick: %w", err)
	}

	s.current = next
	s.ticks++
	return nil
}

func (s *scheduler) CurrentTarget(v *Variable) Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return v.targets[s.current]
}

func (s *scheduler) AlternateTarget(v *Variable) Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	return v.targets[1-s.current]
}

func (s *scheduler) Generation() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *scheduler) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

func (s *scheduler) DataType() DataType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataType
}

func (s *scheduler) Size() (uint32, uint32) {
	return s.width, s.height
}

func (s *scheduler) Backend() Backend {
	return s.backend
}

func (s *scheduler) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func (s *scheduler) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseTargets()
	s.backend.Release()
	if s.initialized {
		s.logger.Info("simulation released", zap.Uint64("ticks", s.ticks))
	}
	s.initialized = false
}

// releaseTargets frees every allocated target. Callers hold s.mu.
func (s *scheduler) releaseTargets() {
	for _, v := range s.variables {
		for gen, t := range v.targets {
			if t != nil {
				s.backend.ReleaseTarget(t)
				v.targets[gen] = nil
			}
		}
	}
}
