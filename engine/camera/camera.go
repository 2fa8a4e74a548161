// Package camera holds the flock's fixed perspective view. Only the aspect ratio changes at run
// time, following the window size.
package camera

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-birds/common"
	"github.com/Carmen-Shannon/oxy-birds/engine/renderer/bind_group_provider"
)

var cameraCount atomic.Uint64

// Defaults of the flock view: a 75 degree perspective looking at the origin from z = 350.
const (
	DefaultFovDegrees float32 = 75
	DefaultNear       float32 = 1
	DefaultFar        float32 = 3000
	DefaultDistance   float32 = 350
)

// Camera looks at the origin from a fixed eye.
type Camera interface {
	// Eye returns the eye position.
	Eye() common.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns width / height.
	Aspect() float32

	// Clip returns the near and far clip distances.
	Clip() (near, far float32)

	// ViewProjection returns projection * view.
	ViewProjection() common.Mat4

	// Uniform returns the camera block uploaded to the bird vertex stage.
	Uniform() *GPUCameraUniform

	// BindGroupProvider returns the provider holding the camera's uniform buffer.
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetAspect updates the aspect ratio. Non-positive values are ignored so a minimized window
	// keeps the last projection.
	SetAspect(aspect float32)
}

type camera struct {
	mu *sync.Mutex

	eye    common.Vec3
	fov    float32
	aspect float32
	near   float32
	far    float32

	viewProjection common.Mat4
	provider       bind_group_provider.BindGroupProvider
}

var _ Camera = &camera{}

// NewCamera creates the flock camera with the default view, then applies options.
//
// Parameters:
//   - options: functional options overriding the defaults
//
// Returns:
//   - Camera: the camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &camera{
		mu:       &sync.Mutex{},
		eye:      common.Vec3{Z: DefaultDistance},
		fov:      DefaultFovDegrees * math32.Pi / 180,
		aspect:   1,
		near:     DefaultNear,
		far:      DefaultFar,
		provider: bind_group_provider.NewBindGroupProvider(fmt.Sprintf("camera_%d", cameraCount.Add(1)-1)),
	}
	for _, option := range options {
		option(c)
	}
	c.update()
	return c
}

func (c *camera) Eye() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye
}

func (c *camera) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *camera) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *camera) Clip() (near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near, c.far
}

func (c *camera) ViewProjection() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjection
}

func (c *camera) Uniform() *GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &GPUCameraUniform{
		ViewProj: c.viewProjection,
		Eye:      [3]float32{c.eye.X, c.eye.Y, c.eye.Z},
	}
}

func (c *camera) BindGroupProvider() bind_group_provider.BindGroupProvider {
	return c.provider
}

func (c *camera) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.update()
}

// update recomputes the view-projection. Callers hold c.mu.
func (c *camera) update() {
	view := common.LookAt(c.eye, common.Vec3{}, common.Vec3{Y: 1})
	c.viewProjection = common.Perspective(c.fov, c.aspect, c.near, c.far).Mul(view)
}
