// Package engine drives the flock: it advances and draws every registered scene once per frame
// on its own goroutine while the caller's goroutine pumps window events.
package engine

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-birds/engine/profiler"
	"github.com/Carmen-Shannon/oxy-birds/engine/scene"
	"github.com/Carmen-Shannon/oxy-birds/engine/window"
)

// Engine runs the frame loop for a set of scenes.
type Engine interface {
	// Window returns the window, or nil for a headless engine.
	Window() window.Window

	// AddScene registers a scene under key, replacing any scene already there. Scenes are
	// advanced and drawn in ascending key order.
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene under key.
	RemoveScene(key int)

	// Scenes returns the registered scenes in ascending key order.
	Scenes() []scene.Scene

	// Frames returns the number of frames completed since Run.
	Frames() uint64

	// Run starts the frame loop. With a window it pumps window events until the window closes,
	// then stops the loop and waits for it. Headless it returns immediately.
	Run()

	// Quit stops the frame loop. Safe to call more than once.
	Quit()

	// Wait blocks until the frame loop has exited after Quit.
	Wait()
}

type engine struct {
	window   window.Window
	logger   *zap.Logger
	profiler *profiler.Profiler

	profiling  bool
	frameLimit time.Duration // 0 means uncapped

	scenesMu sync.RWMutex
	scenes   map[int]scene.Scene

	frames   atomic.Uint64
	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

var _ Engine = &engine{}

// NewEngine creates an engine. With a window, resizes and pointer events are forwarded to every
// registered scene.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the engine, not yet running
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		logger: zap.NewNop(),
		scenes: make(map[int]scene.Scene),
		quit:   make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))
	}

	if e.window != nil {
		e.window.OnResize(e.resize)
		e.window.OnPointerMove(func(x, y float32) {
			for _, s := range e.Scenes() {
				s.SetPointer(x, y, false)
			}
		})
		e.window.OnPointerLeave(func() {
			far := scene.FarPredator(e.window.Width(), e.window.Height())
			for _, s := range e.Scenes() {
				s.SetPredator(far[0], far[1])
			}
		})
	}
	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scenes() []scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()

	keys := make([]int, 0, len(e.scenes))
	for k := range e.scenes {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		out = append(out, e.scenes[k])
	}
	return out
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

func (e *engine) Run() {
	e.wg.Add(1)
	go e.loop()
	if e.window == nil {
		return
	}
	e.window.Run()
	e.Quit()
	e.wg.Wait()
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quit)
	})
}

func (e *engine) Wait() {
	e.wg.Wait()
}

// resize forwards a new surface size to every scene's renderer and camera.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	for _, s := range e.Scenes() {
		if r := s.Renderer(); r != nil {
			r.Resize(width, height)
		}
		s.Resize(width, height)
	}
	e.logger.Debug("surface resized", zap.Int("width", width), zap.Int("height", height))
}

// loop runs frames until Quit. A panic inside a frame is logged and stops the engine.
func (e *engine) loop() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("frame loop recovered from panic", zap.Any("panic", r), zap.Stack("stack"))
			e.Quit()
		}
	}()

	for {
		select {
		case <-e.quit:
			return
		default:
		}

		start := time.Now()
		e.frame(start)
		e.frames.Add(1)

		if e.frameLimit > 0 {
			if remaining := e.frameLimit - time.Since(start); remaining > 0 {
				select {
				case <-e.quit:
					return
				case <-time.After(remaining):
				}
			}
		}
	}
}

// frame advances every configured scene, then draws them together.
func (e *engine) frame(now time.Time) {
	var active []scene.Scene
	for _, s := range e.Scenes() {
		if s.Configured() {
			active = append(active, s)
		}
	}

	// Each Advance submits its own compute work.
	for _, s := range active {
		start := time.Now()
		if err := s.Advance(now); err != nil {
			e.logger.Error("failed to advance scene", zap.String("scene", s.Name()), zap.Error(err))
			continue
		}
		if e.profiling {
			e.profiler.ObserveAdvance(time.Since(start))
		}
	}

	e.drawFrame(active)

	if e.profiling {
		e.profiler.Tick()
	}
}

// drawFrame records every scene's draw calls into one render pass owned by the first
// scene's renderer. Headless scenes have no renderer and draw nothing.
func (e *engine) drawFrame(scenes []scene.Scene) {
	if len(scenes) == 0 {
		return
	}
	frameRenderer := scenes[0].Renderer()
	if frameRenderer == nil {
		return
	}
	if err := frameRenderer.BeginFrame(); err != nil {
		e.logger.Error("failed to begin frame", zap.Error(err))
		return
	}
	for _, s := range scenes {
		if err := s.DrawCalls(); err != nil {
			e.logger.Error("failed to draw scene", zap.String("scene", s.Name()), zap.Error(err))
		}
	}
	frameRenderer.EndFrame()
	frameRenderer.Present()
}
