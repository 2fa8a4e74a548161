package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Carmen-Shannon/oxy-birds/engine/renderer"
	"github.com/Carmen-Shannon/oxy-birds/engine/scene"
	"github.com/Carmen-Shannon/oxy-birds/engine/window"
)

func headlessScene(t *testing.T, name string) scene.Scene {
	t.Helper()
	s := scene.NewScene(nil, nil, scene.WithName(name), scene.WithComputeWorkers(2))
	t.Cleanup(s.Dispose)
	settings := scene.DefaultSettings()
	settings.Agents = 16
	require.NoError(t, s.Configure(settings))
	return s
}

func TestRunAdvancesConfiguredScenes(t *testing.T) {
	configured := headlessScene(t, "flock")
	idle := scene.NewScene(nil, nil, scene.WithName("idle"))
	t.Cleanup(idle.Dispose)

	e := NewEngine(WithScene(0, configured), WithScene(1, idle), WithProfiling(true))
	e.Run()
	require.Eventually(t, func() bool {
		return configured.Scheduler().Ticks() >= 3 && e.Frames() >= 3
	}, 5*time.Second, time.Millisecond)

	e.Quit()
	e.Quit()
	e.Wait()
	assert.False(t, idle.Configured())
}

func TestScenesAreOrderedByKey(t *testing.T) {
	e := NewEngine()
	a := scene.NewScene(nil, nil, scene.WithName("a"))
	b := scene.NewScene(nil, nil, scene.WithName("b"))
	e.AddScene(5, a)
	e.AddScene(-1, b)

	got := e.Scenes()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Name())
	assert.Same(t, a, got[1])

	e.RemoveScene(5)
	assert.Len(t, e.Scenes(), 1)
}

func TestResizeUpdatesSceneCameras(t *testing.T) {
	s := headlessScene(t, "flock")
	e := NewEngine(WithScene(0, s)).(*engine)

	e.resize(400, 200)
	assert.InDelta(t, 2.0, s.Camera().Aspect(), 1e-6)

	// Zero sizes are ignored.
	e.resize(0, 200)
	assert.InDelta(t, 2.0, s.Camera().Aspect(), 1e-6)
}

func TestWithFrameLimit(t *testing.T) {
	e := NewEngine(WithFrameLimit(50)).(*engine)
	assert.Equal(t, 20*time.Millisecond, e.frameLimit)

	e = NewEngine(WithFrameLimit(50), WithFrameLimit(-1)).(*engine)
	assert.Zero(t, e.frameLimit)
}

// frameRenderer records frame calls; the embedded interface covers the rest.
type frameRenderer struct {
	renderer.Renderer
	beginErr error
	ended    int
	presents int
}

func (r *frameRenderer) BeginFrame() error { return r.beginErr }
func (r *frameRenderer) EndFrame()         { r.ended++ }
func (r *frameRenderer) Present()          { r.presents++ }

type drawnScene struct {
	scene.Scene
	r     renderer.Renderer
	draws int
}

func (s *drawnScene) Name() string                { return "drawn" }
func (s *drawnScene) Renderer() renderer.Renderer { return s.r }
func (s *drawnScene) DrawCalls() error {
	s.draws++
	return nil
}

func TestDrawFrame(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := NewEngine(WithLogger(zap.New(core))).(*engine)

	r := &frameRenderer{}
	first, second := &drawnScene{r: r}, &drawnScene{}
	e.drawFrame([]scene.Scene{first, second})
	assert.Equal(t, 1, first.draws)
	assert.Equal(t, 1, second.draws)
	assert.Equal(t, 1, r.ended)
	assert.Equal(t, 1, r.presents)
	assert.Zero(t, logs.Len())

	r.beginErr = errors.New("surface lost")
	e.drawFrame([]scene.Scene{first, second})
	assert.Equal(t, 1, first.draws, "no draws without a frame")
	assert.Equal(t, 1, r.presents)

	entries := logs.FilterMessage("failed to begin frame").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "surface lost", entries[0].ContextMap()["error"])

	// Headless scenes have nothing to draw.
	e.drawFrame([]scene.Scene{second})
	assert.Equal(t, 1, second.draws)
}

// fakeWindow keeps the handlers the engine installs. Run returns at once, as if closed.
type fakeWindow struct {
	window.Window
	onResize       func(width, height int)
	onPointerMove  func(x, y float32)
	onPointerLeave func()
	runs           int
}

func (w *fakeWindow) Width() int                         { return 200 }
func (w *fakeWindow) Height() int                        { return 100 }
func (w *fakeWindow) OnResize(h func(width, height int)) { w.onResize = h }
func (w *fakeWindow) OnPointerMove(h func(x, y float32)) { w.onPointerMove = h }
func (w *fakeWindow) OnPointerLeave(h func())            { w.onPointerLeave = h }
func (w *fakeWindow) Run()                               { w.runs++ }

// inputScene records the input the engine forwards.
type inputScene struct {
	scene.Scene
	pointer  []float32
	predator [2]float32
	size     [2]int
}

func (s *inputScene) Configured() bool                { return false }
func (s *inputScene) Renderer() renderer.Renderer     { return nil }
func (s *inputScene) SetPointer(x, y float32, _ bool) { s.pointer = append(s.pointer, x, y) }
func (s *inputScene) SetPredator(x, y float32)        { s.predator = [2]float32{x, y} }
func (s *inputScene) Resize(width, height int)        { s.size = [2]int{width, height} }

func TestWindowEventsReachScenes(t *testing.T) {
	w := &fakeWindow{}
	s := &inputScene{}
	e := NewEngine(WithWindow(w), WithScene(0, s))
	require.NotNil(t, w.onResize)
	require.NotNil(t, w.onPointerMove)
	require.NotNil(t, w.onPointerLeave)

	w.onPointerMove(12, 34)
	assert.Equal(t, []float32{12, 34}, s.pointer)

	w.onPointerLeave()
	far := scene.FarPredator(200, 100)
	assert.Equal(t, [2]float32{far[0], far[1]}, s.predator)

	w.onResize(640, 480)
	assert.Equal(t, [2]int{640, 480}, s.size)

	// A closed window stops the loop before Run returns.
	e.Run()
	assert.Equal(t, 1, w.runs)
	e.Wait()
}

type panickingScene struct {
	scene.Scene
}

func (panickingScene) Configured() bool { panic("lost device") }

func TestFramePanicStopsEngine(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	e := NewEngine(WithLogger(zap.New(core)), WithScene(0, panickingScene{}))

	e.Run()
	e.Wait()
	assert.Zero(t, e.Frames())
	entries := logs.FilterMessage("frame loop recovered from panic").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "lost device", entries[0].ContextMap()["panic"])
}
