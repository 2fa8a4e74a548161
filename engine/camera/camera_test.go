package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, common.Vec3{Z: DefaultDistance}, c.Eye())
	assert.InDelta(t, 75*math32.Pi/180, c.Fov(), 1e-6)
	near, far := c.Clip()
	assert.Equal(t, DefaultNear, near)
	assert.Equal(t, DefaultFar, far)
	require.NotNil(t, c.BindGroupProvider())
	assert.NotEqual(t, c.BindGroupProvider().Label(), NewCamera().BindGroupProvider().Label())
}

func TestOptions(t *testing.T) {
	c := NewCamera(WithFov(90), WithAspect(2), WithClip(2, 20), WithEye(0, 10, 100))
	assert.InDelta(t, math32.Pi/2, c.Fov(), 1e-6)
	assert.Equal(t, float32(2), c.Aspect())
	near, far := c.Clip()
	assert.Equal(t, float32(2), near)
	assert.Equal(t, float32(20), far)
	assert.Equal(t, common.Vec3{Y: 10, Z: 100}, c.Eye())

	c = NewCamera(WithAspect(-1), WithClip(5, 1))
	assert.Equal(t, float32(1), c.Aspect())
	near, far = c.Clip()
	assert.Equal(t, DefaultNear, near)
	assert.Equal(t, DefaultFar, far)
}

func TestOriginProjectsToCenter(t *testing.T) {
	vp := NewCamera(WithAspect(16.0 / 9.0)).ViewProjection()

	// The origin transforms to the matrix's translation column.
	w := vp[15]
	require.InDelta(t, DefaultDistance, w, 1e-3)
	assert.InDelta(t, 0, vp[12]/w, 1e-6)
	assert.InDelta(t, 0, vp[13]/w, 1e-6)
	depth := vp[14] / w
	assert.Greater(t, depth, float32(0))
	assert.Less(t, depth, float32(1))
}

func TestSetAspect(t *testing.T) {
	c := NewCamera()
	before := c.ViewProjection()

	c.SetAspect(0)
	assert.Equal(t, float32(1), c.Aspect())
	assert.Equal(t, before, c.ViewProjection())

	c.SetAspect(2)
	after := c.ViewProjection()
	assert.InDelta(t, before[0]/2, after[0], 1e-6)
	assert.Equal(t, before[5], after[5])
}

func TestUniform(t *testing.T) {
	c := NewCamera(WithEye(1, 2, 3))
	u := c.Uniform()
	assert.Equal(t, c.ViewProjection(), u.ViewProj)
	assert.Equal(t, [3]float32{1, 2, 3}, u.Eye)
	assert.Equal(t, 80, u.Size())

	buf := u.Marshal()
	require.Len(t, buf, 80)
	assert.Equal(t, u.ViewProj[5], math.Float32frombits(binary.LittleEndian.Uint32(buf[20:])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[72:])))
	assert.Zero(t, binary.LittleEndian.Uint32(buf[76:]))
}
