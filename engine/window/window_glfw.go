package window

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// pollInterval bounds how long Run waits for an event before checking for close. Rendering runs
// on its own goroutine, so the event loop can sleep.
const pollInterval = 1.0 / 120

type glfwWindow struct {
	*events

	win *glfw.Window

	mu        sync.Mutex
	destroyed bool
}

var _ Window = &glfwWindow{}

// NewWindow creates and shows a GLFW window without an OpenGL context. GLFW requires the calling
// goroutine to stay on the main OS thread, so it is locked here; Run must be called from the
// same goroutine.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
func NewWindow(options ...WindowBuilderOption) Window {
	o := defaultWindowOptions()
	for _, opt := range options {
		opt(&o)
	}

	runtime.LockOSThread()
	if err := glfw.Init(); err != nil {
		panic(fmt.Sprintf("failed to initialize GLFW: %v", err))
	}
	// WebGPU owns presentation.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(o.width, o.height, o.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		panic(fmt.Sprintf("failed to create GLFW window: %v", err))
	}

	// The framebuffer size is what the surface is configured with; it differs from the window
	// size on high-DPI displays.
	fbWidth, fbHeight := win.GetFramebufferSize()
	w := &glfwWindow{events: newEvents(fbWidth, fbHeight), win: win}

	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resize(width, height)
	})
	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		// Cursor positions arrive in screen coordinates.
		winWidth, winHeight := win.GetSize()
		if winWidth > 0 && winHeight > 0 {
			x *= float64(w.Width()) / float64(winWidth)
			y *= float64(w.Height()) / float64(winHeight)
		}
		w.pointerMove(x, y)
	})
	win.SetCursorEnterCallback(func(_ *glfw.Window, entered bool) {
		if !entered {
			w.pointerLeave()
		}
	})
	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Press {
			w.keyPress(uint32(key))
		}
	})
	return w
}

func (w *glfwWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w.win)
}

func (w *glfwWindow) Run() {
	for !w.closed() && !w.win.ShouldClose() {
		glfw.WaitEventsTimeout(pollInterval)
	}
	w.close()
	w.destroy()
}

func (w *glfwWindow) Close() {
	w.close()
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.destroyed {
		// wakes WaitEventsTimeout; the only GLFW call allowed off the main thread
		glfw.PostEmptyEvent()
	}
}

// destroy releases the window on the main thread once Run is done with it.
func (w *glfwWindow) destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return
	}
	w.destroyed = true
	w.win.Destroy()
	glfw.Terminate()
}
