package camera

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

// CameraBuilderOption configures a camera in NewCamera.
type CameraBuilderOption func(*camera)

// WithFov sets the vertical field of view in degrees.
func WithFov(degrees float32) CameraBuilderOption {
	return func(c *camera) {
		c.fov = degrees * math32.Pi / 180
	}
}

// WithAspect sets the initial width / height. Non-positive values keep the default of 1.
//
// Parameters:
//   - aspect: the aspect ratio
//
// Returns:
//   - CameraBuilderOption: a function that sets the aspect ratio
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *camera) {
		if aspect > 0 {
			c.aspect = aspect
		}
	}
}

// WithClip sets the near and far clip distances. Ranges that are not 0 < near < far are ignored.
//
// Parameters:
//   - near, far: clip distances
//
// Returns:
//   - CameraBuilderOption: a function that sets the clip range
func WithClip(near, far float32) CameraBuilderOption {
	return func(c *camera) {
		if near > 0 && far > near {
			c.near, c.far = near, far
		}
	}
}

// WithEye moves the eye. The camera keeps looking at the origin.
func WithEye(x, y, z float32) CameraBuilderOption {
	return func(c *camera) {
		c.eye = common.Vec3{X: x, Y: y, Z: z}
	}
}
