// Package scene is the host facade of the flock. A Scene owns the simulation scheduler, the bird
// mesh and the GPU resources that draw it, and advances the flock one tick per displayed frame.
package scene

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-birds/common"
	"github.com/Carmen-Shannon/oxy-birds/engine/birds"
	"github.com/Carmen-Shannon/oxy-birds/engine/camera"
	"github.com/Carmen-Shannon/oxy-birds/engine/compute"
	"github.com/Carmen-Shannon/oxy-birds/engine/flock"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/shader"
)

const (
	// MaxDelta caps the simulated time between two ticks.
	MaxDelta = time.Second

	birdPipelineKey = "birds"
)

var (
	// ErrNotConfigured is returned by operations that need a flock before Configure succeeded.
	ErrNotConfigured = errors.New("scene: not configured")

	// ErrReadbackUnsupported is returned by Snapshot when the backend cannot read its targets on the host.
	ErrReadbackUnsupported = errors.New("scene: backend does not support readback")

	// ErrTargetNotSampleable is returned by Configure when the backend's targets cannot be bound by the renderer.
	ErrTargetNotSampleable = errors.New("scene: simulation targets cannot be sampled by the renderer")
)

// Scene is the flock facade. It is safe for concurrent use, but ticks never overlap:
// Advance holds the scene for the whole tick.
//
// Usage pattern:
//  1. NewScene with a camera and, for on-screen output, a renderer
//  2. Configure with the flock settings
//  3. per frame: Advance, then DrawCalls inside the renderer's frame
//  4. Dispose
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// Renderer returns the scene's renderer, or nil for a headless scene.
	Renderer() renderer.Renderer

	// Configure validates settings, then builds the bird mesh, seeds the simulation and initializes the
	// scheduler. A previous flock is released first. When the backend lacks a required capability the
	// scene stays unconfigured and the error says which capability is missing.
	//
	// Parameters:
	//   - settings: the flock settings
	//
	// Returns:
	//   - error: ErrInvalidSettings, a compute capability or configuration error, or a GPU error
	Configure(settings Settings) error

	// Configured reports whether a flock is ready to advance.
	Configured() bool

	// Settings returns the settings of the current flock, including live parameter changes.
	Settings() Settings

	// SetFlockParameters replaces the flocking distances used from the next tick on.
	//
	// Parameters:
	//   - params: the new flock parameters
	//
	// Returns:
	//   - error: flock.ErrInvalidParameters if params do not validate
	SetFlockParameters(params flock.Parameters) error

	// Advance runs one simulation tick. The first tick after Configure uses a zero delta; later
	// deltas are the time since the previous Advance, capped at MaxDelta. After the tick the
	// predator is parked far away until the next pointer input.
	//
	// Parameters:
	//   - now: the frame timestamp
	//
	// Returns:
	//   - error: ErrNotConfigured or the scheduler's tick error
	Advance(now time.Time) error

	// SetPaused stops or resumes the simulation. A paused Advance runs no tick and
	// the first tick after resuming measures its delta from the last paused Advance.
	SetPaused(paused bool)

	// Paused reports whether the simulation is paused.
	Paused() bool

	// SetPredator places the predator for the next tick.
	//
	// Parameters:
	//   - x, y: predator position in normalized device coordinates
	SetPredator(x, y float32)

	// SetPointer places the predator under a pointer for the next tick. See PointerToPredator.
	//
	// Parameters:
	//   - x, y: pointer position in pixels
	//   - touch: true for touch input
	SetPointer(x, y float32, touch bool)

	// Predator returns the predator position the next tick will use.
	Predator() [3]float32

	// Resize records the surface size used for pointer mapping and updates the camera aspect.
	// Non-positive sizes are ignored.
	//
	// Parameters:
	//   - width, height: surface size in pixels
	Resize(width, height int)

	// DrawCalls issues the bird draw call, sampling the scheduler's current generation.
	// Must be called within a BeginFrame/EndFrame block on the renderer.
	//
	// Returns:
	//   - error: an error if the scene has no renderer or a bind group is missing
	DrawCalls() error

	// Scheduler returns the simulation scheduler, or nil before Configure.
	Scheduler() compute.Scheduler

	// Geometry returns the bird mesh, or nil before Configure.
	Geometry() *birds.Geometry

	// Snapshot copies the current position and velocity textures to the host.
	//
	// Returns:
	//   - positions: the current position generation
	//   - velocities: the current velocity generation
	//   - error: ErrNotConfigured or ErrReadbackUnsupported
	Snapshot() (positions, velocities *common.FloatTextureData, err error)

	// WorldVertices transforms every mesh vertex by the current simulation state on the host,
	// giving the positions the bird vertex stage would produce before projection.
	//
	// Returns:
	//   - []common.Vec3: one world-space position per mesh vertex
	//   - error: an error from Snapshot
	WorldVertices() ([]common.Vec3, error)

	// Dispose releases the flock and every GPU resource the scene created. The scene can be
	// configured again afterwards.
	Dispose()
}

// birdGroups are the bind group slots declared by the bird vertex stage.
type birdGroups struct {
	camera, cameraBinding int
	bird, birdBinding     int
	simulation            int
	// roles maps each simulation variable to its binding in the simulation group.
	roles map[string]int
}

type scene struct {
	mu *sync.Mutex

	name   string
	cam    camera.Camera
	r      renderer.Renderer
	logger *zap.Logger

	backend        compute.Backend
	computeWorkers int
	halfFloat      bool

	settings   Settings
	configured bool
	geometry   *birds.Geometry
	sched      compute.Scheduler

	// uniforms is read by the host kernels from the worker pool while a tick runs.
	uniforms    atomic.Pointer[flock.GPUFlockUniforms]
	predator    [3]float32
	width       int
	height      int
	lastAdvance time.Time
	paused      bool
	elapsed     float32

	// GPU state, unused without a renderer.
	vertexShader   shader.Shader
	groups         birdGroups
	cameraReady    bool
	meshBGP        bind_group_provider.BindGroupProvider
	simulationBGPs [2]bind_group_provider.BindGroupProvider
	birdUniforms   *birds.GPUBirdUniforms
}

var _ Scene = &scene{}

// NewScene creates an unconfigured scene. Without a renderer the scene runs headless on the CPU
// compute backend; with one it defaults to the wgpu backend and draws through r.
//
// Parameters:
//   - cam: the camera; nil creates one with the default flock view
//   - r: the renderer, or nil for a headless scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(cam camera.Camera, r renderer.Renderer, options ...SceneBuilderOption) Scene {
	if cam == nil {
		cam = camera.NewCamera()
	}
	s := &scene{
		mu:       &sync.Mutex{},
		name:     "birds",
		cam:      cam,
		r:        r,
		logger:   zap.NewNop(),
		width:    1,
		height:   1,
		settings: DefaultSettings(),
	}
	for _, option := range options {
		option(s)
	}
	s.logger = s.logger.With(zap.String("scene", s.name))

	if s.backend == nil {
		if r != nil {
			s.backend = compute.NewWGPUBackend(r, s.logger)
		} else {
			var opts []compute.CPUBackendOption
			if s.computeWorkers > 0 {
				opts = append(opts, compute.WithWorkers(s.computeWorkers))
			}
			s.backend = compute.NewCPUBackend(opts...)
		}
	}
	s.predator = FarPredator(s.width, s.height)
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) Renderer() renderer.Renderer {
	return s.r
}

func (s *scene) Configure(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseFlock()

	seed := settings.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	colorizer, err := birds.NewColorizer(settings.ColorMode, settings.Color1, settings.Color2, rng)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	gridWidth := settings.GridWidth()
	geometry, err := birds.BuildGeometry(settings.AgentCount(), gridWidth, settings.WingSpan, colorizer)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}

	width := uint32(gridWidth)
	sched := compute.NewScheduler(width, width, s.backend,
		compute.WithLogger(s.logger),
		compute.WithHalfFloatFallback(s.halfFloat),
	)
	positions := flock.SeedPositions(gridWidth, rng)
	velocities := flock.SeedVelocities(gridWidth, rng)
	if _, _, err := registerFlock(sched, s.uniforms.Load, positions, velocities); err != nil {
		return err
	}
	if err := sched.Init(); err != nil {
		return fmt.Errorf("scene %q: %w", s.name, err)
	}

	s.sched = sched
	s.geometry = geometry
	s.settings = settings
	s.lastAdvance = time.Time{}
	s.elapsed = 0
	s.predator = FarPredator(s.width, s.height)
	s.uniforms.Store(flock.NewGPUFlockUniforms(settings.Flock, s.predator, 0, 0))

	if s.r != nil {
		if err := s.initRenderResources(); err != nil {
			s.releaseFlock()
			return fmt.Errorf("scene %q: %w", s.name, err)
		}
	}

	s.configured = true
	s.logger.Info("flock configured",
		zap.Int("birds", settings.AgentCount()),
		zap.Int("grid_width", gridWidth),
		zap.Stringer("color_mode", settings.ColorMode),
		zap.Stringer("data_type", sched.DataType()),
		zap.Uint64("seed", seed),
	)
	return nil
}

// initRenderResources creates the bird pipeline, the mesh and uniform buffers and one simulation
// bind group per generation. Callers hold s.mu and have initialized s.sched.
func (s *scene) initRenderResources() error {
	if s.vertexShader == nil {
		vs, err := shader.NewShader("birds_vs", shader.StageVertex, birds.VertexShaderSource)
		if err != nil {
			return err
		}
		fs, err := shader.NewShader("birds_fs", shader.StageFragment, birds.FragmentShaderSource)
		if err != nil {
			return err
		}
		p := pipeline.NewRenderPipeline(birdPipelineKey, vs, fs, pipeline.WithCullMode(wgpu.CullModeNone))
		if err := s.r.RegisterPipelines(p); err != nil {
			return err
		}
		s.vertexShader = vs
		s.groups = resolveBirdGroups(vs)
	}
	vs := s.vertexShader

	if !s.cameraReady {
		if err := s.r.InitBindGroup(s.cam.BindGroupProvider(), vs.Layout(s.groups.camera)); err != nil {
			return fmt.Errorf("camera bind group: %w", err)
		}
		s.cameraReady = true
	}
	s.writeCamera()

	s.meshBGP = bind_group_provider.NewBindGroupProvider("birds")
	if err := s.r.InitMesh(s.meshBGP, s.geometry.Bytes(), s.geometry.VertexCount()); err != nil {
		return fmt.Errorf("bird mesh: %w", err)
	}
	if err := s.r.InitBindGroup(s.meshBGP, vs.Layout(s.groups.bird)); err != nil {
		return fmt.Errorf("bird uniforms: %w", err)
	}
	s.birdUniforms = birds.NewGPUBirdUniforms()
	s.writeBirdUniforms()

	// Init leaves generation 0 current, so the alternate targets are generation 1.
	targetOf := [2]func(*compute.Variable) compute.Target{s.sched.CurrentTarget, s.sched.AlternateTarget}
	for gen := range s.simulationBGPs {
		provider := bind_group_provider.NewBindGroupProvider(fmt.Sprintf("simulation_gen%d", gen))
		s.simulationBGPs[gen] = provider
		for role, binding := range s.groups.roles {
			v := s.sched.Variable(role)
			if v == nil {
				return fmt.Errorf("%w: bird stage samples unknown variable %q", compute.ErrDependencyNotFound, role)
			}
			t, ok := targetOf[gen](v).(compute.GPUTarget)
			if !ok {
				return fmt.Errorf("%w: %s backend", ErrTargetNotSampleable, s.backend.Name())
			}
			provider.AttachView(binding, t.View())
		}
		if err := s.r.InitBindGroup(provider, vs.Layout(s.groups.simulation)); err != nil {
			return fmt.Errorf("simulation bind group %d: %w", gen, err)
		}
	}
	return nil
}

// resolveBirdGroups reads the bird vertex stage's slots from its directives.
func resolveBirdGroups(vs shader.Shader) birdGroups {
	groups := birdGroups{camera: 0, bird: 1, simulation: 2, roles: make(map[string]int)}
	for _, b := range vs.Bindings() {
		switch {
		case b.Kind == shader.BindingUniform && b.Block == shader.BlockCamera:
			groups.camera, groups.cameraBinding = b.Group, b.Index
		case b.Kind == shader.BindingUniform && b.Block == shader.BlockBird:
			groups.bird, groups.birdBinding = b.Group, b.Index
		case b.Kind == shader.BindingTexture && b.Owner == shader.OwnerSimulation:
			groups.simulation = b.Group
			groups.roles[b.Variable] = b.Index
		}
	}
	return groups
}

func (s *scene) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configured
}

func (s *scene) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *scene) SetFlockParameters(params flock.Parameters) error {
	if err := params.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Flock = params
	s.logger.Debug("flock parameters updated",
		zap.Float32("separation", params.Separation),
		zap.Float32("alignment", params.Alignment),
		zap.Float32("cohesion", params.Cohesion),
	)
	return nil
}

func (s *scene) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = paused
}

func (s *scene) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *scene) Advance(now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.configured {
		return ErrNotConfigured
	}

	if s.paused {
		s.lastAdvance = now
		return nil
	}

	var delta float32
	if !s.lastAdvance.IsZero() {
		delta = float32(common.Clamp(now.Sub(s.lastAdvance), 0, MaxDelta).Seconds())
	}
	s.lastAdvance = now
	s.elapsed += delta

	u := flock.NewGPUFlockUniforms(s.settings.Flock, s.predator, delta, s.elapsed)
	s.uniforms.Store(u)
	s.sched.SetUniforms(u.Marshal())
	if err := s.sched.Tick(); err != nil {
		return fmt.Errorf("scene %q: %w", s.name, err)
	}
	s.predator = FarPredator(s.width, s.height)

	if s.r != nil {
		s.birdUniforms.Time = s.elapsed
		s.birdUniforms.Delta = delta
		s.writeBirdUniforms()
		s.writeCamera()
	}
	return nil
}

func (s *scene) SetPredator(x, y float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predator = [3]float32{x, y, 0}
}

func (s *scene) SetPointer(x, y float32, touch bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.predator = PointerToPredator(x, y, s.width, s.height, touch)
}

func (s *scene) Predator() [3]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.predator
}

func (s *scene) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.width, s.height = width, height
	s.cam.SetAspect(float32(width) / float32(height))
	if s.r != nil && s.cameraReady {
		s.writeCamera()
	}
}

func (s *scene) DrawCalls() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.r == nil {
		return fmt.Errorf("scene %q has no renderer attached", s.name)
	}
	if !s.configured {
		return nil
	}

	bindGroups, err := s.groups.order(s.cam.BindGroupProvider(), s.meshBGP, s.simulationBGPs[s.sched.Generation()])
	if err != nil {
		return fmt.Errorf("scene %q: %w", s.name, err)
	}

	if err := s.r.DrawCall(birdPipelineKey, s.meshBGP, bindGroups); err != nil {
		return fmt.Errorf("draw call failed in scene %q: %w", s.name, err)
	}
	return nil
}

// order lays the three bird providers out so that index i is bound to @group(i).
func (g birdGroups) order(cam, bird, simulation bind_group_provider.BindGroupProvider) ([]bind_group_provider.BindGroupProvider, error) {
	slots := map[int]bind_group_provider.BindGroupProvider{g.camera: cam, g.bird: bird, g.simulation: simulation}
	if len(slots) != 3 {
		return nil, fmt.Errorf("bird groups overlap: camera %d, bird %d, simulation %d", g.camera, g.bird, g.simulation)
	}
	ordered := make([]bind_group_provider.BindGroupProvider, len(slots))
	for group, provider := range slots {
		if group < 0 || group >= len(ordered) {
			return nil, fmt.Errorf("bird group %d out of range", group)
		}
		ordered[group] = provider
	}
	return ordered, nil
}

func (s *scene) Scheduler() compute.Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched
}

func (s *scene) Geometry() *birds.Geometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.geometry
}

func (s *scene) Snapshot() (*common.FloatTextureData, *common.FloatTextureData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// snapshot reads both variables. Callers hold s.mu.
func (s *scene) snapshot() (*common.FloatTextureData, *common.FloatTextureData, error) {
	if !s.configured {
		return nil, nil, ErrNotConfigured
	}
	reader, ok := s.backend.(compute.TargetReader)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrReadbackUnsupported, s.backend.Name())
	}
	positions, err := reader.ReadTarget(s.sched.CurrentTarget(s.sched.Variable(flock.PositionVariable)))
	if err != nil {
		return nil, nil, err
	}
	velocities, err := reader.ReadTarget(s.sched.CurrentTarget(s.sched.Variable(flock.VelocityVariable)))
	if err != nil {
		return nil, nil, err
	}
	return positions, velocities, nil
}

func (s *scene) WorldVertices() ([]common.Vec3, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	positions, velocities, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	model := birds.NewGPUBirdUniforms().Model
	w, h := int(positions.Width), int(positions.Height)
	out := make([]common.Vec3, len(s.geometry.Vertices))
	for i, v := range s.geometry.Vertices {
		x, y := birds.ReferenceTexel(v.Reference, w, h)
		out[i] = birds.TransformVertex(v, positions.At(x, y), velocities.At(x, y), model)
	}
	return out, nil
}

func (s *scene) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseFlock()
	if s.r != nil && s.vertexShader != nil {
		s.r.ReleasePipeline(birdPipelineKey)
		s.vertexShader = nil
	}
	s.logger.Info("scene disposed")
}

// releaseFlock frees the scheduler and the per-flock GPU resources. Callers hold s.mu.
func (s *scene) releaseFlock() {
	s.configured = false
	for gen, provider := range s.simulationBGPs {
		if provider != nil {
			provider.Release()
			s.simulationBGPs[gen] = nil
		}
	}
	if s.meshBGP != nil {
		s.meshBGP.Release()
		s.meshBGP = nil
	}
	if s.sched != nil {
		s.sched.Release()
		s.sched = nil
	}
	s.geometry = nil
}

// writeCamera uploads the camera uniform. Callers hold s.mu.
func (s *scene) writeCamera() {
	s.r.WriteBuffers(bind_group_provider.Upload{
		Provider: s.cam.BindGroupProvider(),
		Binding:  s.groups.cameraBinding,
		Data:     s.cam.Uniform().Marshal(),
	})
}

// writeBirdUniforms uploads the bird uniform block. Callers hold s.mu.
func (s *scene) writeBirdUniforms() {
	s.r.WriteBuffers(bind_group_provider.Upload{
		Provider: s.meshBGP,
		Binding:  s.groups.birdBinding,
		Data:     s.birdUniforms.Marshal(),
	})
}
