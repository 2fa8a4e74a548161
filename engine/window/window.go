// Package window owns the native window the flock is drawn into and turns its input into the
// handful of events the engine listens for.
package window

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

// Window is a native window with a WebGPU surface.
type Window interface {
	// SurfaceDescriptor returns the platform descriptor the renderer creates its surface from.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int

	// OnResize sets the handler for framebuffer size changes. Zero sizes from a minimized window
	// are not reported.
	OnResize(handler func(width, height int))

	// OnPointerMove sets the handler for cursor movement, in framebuffer pixels.
	OnPointerMove(handler func(x, y float32))

	// OnPointerLeave sets the handler for the cursor leaving the window.
	OnPointerLeave(handler func())

	// OnKey sets the handler for key presses. Escape closes the window and is not reported.
	OnKey(handler func(key uint32))

	// Run pumps window events on the calling goroutine until the window is closed, then destroys
	// it. It must run on the goroutine that created the window.
	Run()

	// Close asks Run to return. It is safe from any goroutine and may be called more than once.
	Close()
}

// events holds the window size and handlers, and dispatches input to them. Handlers run outside
// the lock so they may query the window.
type events struct {
	mu sync.Mutex

	width   int
	height  int
	closing bool

	onResize       func(width, height int)
	onPointerMove  func(x, y float32)
	onPointerLeave func()
	onKey          func(key uint32)
}

func newEvents(width, height int) *events {
	return &events{width: width, height: height}
}

func (e *events) Width() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.width
}

func (e *events) Height() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.height
}

func (e *events) OnResize(handler func(width, height int)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onResize = handler
}

func (e *events) OnPointerMove(handler func(x, y float32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onPointerMove = handler
}

func (e *events) OnPointerLeave(handler func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onPointerLeave = handler
}

func (e *events) OnKey(handler func(key uint32)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onKey = handler
}

func (e *events) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.mu.Lock()
	e.width, e.height = width, height
	handler := e.onResize
	e.mu.Unlock()
	if handler != nil {
		handler(width, height)
	}
}

func (e *events) pointerMove(x, y float64) {
	e.mu.Lock()
	handler := e.onPointerMove
	e.mu.Unlock()
	if handler != nil {
		handler(float32(x), float32(y))
	}
}

func (e *events) pointerLeave() {
	e.mu.Lock()
	handler := e.onPointerLeave
	e.mu.Unlock()
	if handler != nil {
		handler()
	}
}

func (e *events) keyPress(key uint32) {
	e.mu.Lock()
	if key == common.KeyEscape {
		e.closing = true
		e.mu.Unlock()
		return
	}
	handler := e.onKey
	e.mu.Unlock()
	if handler != nil {
		handler(key)
	}
}

func (e *events) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closing = true
}

func (e *events) closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closing
}
