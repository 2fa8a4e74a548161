package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorFromHex(t *testing.T) {
	c := ColorFromHex(0xff8000)
	assert.InDelta(t, 1.0, c.R, 1e-6)
	assert.InDelta(t, 128.0/255.0, c.G, 1e-6)
	assert.InDelta(t, 0.0, c.B, 1e-6)
	assert.Equal(t, uint32(0xff8000), c.Hex())
}

func TestColorLerpEndpoints(t *testing.T) {
	a, b := ColorFromHex(0x8bf329), ColorFromHex(0x298bf3)
	assert.Equal(t, a, a.Lerp(b, 0))
	got := a.Lerp(b, 1)
	assert.InDelta(t, b.R, got.R, 1e-6)
	assert.InDelta(t, b.G, got.G, 1e-6)
	assert.InDelta(t, b.B, got.B, 1e-6)
}

func TestValidateColor(t *testing.T) {
	require.NoError(t, ValidateColor(0))
	require.NoError(t, ValidateColor(MaxColor))
	assert.ErrorIs(t, ValidateColor(0x1000000), ErrColorOutOfRange)
}

func TestVec3NormalizeZero(t *testing.T) {
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
	n := Vec3{3, 0, 4}.Normalize()
	assert.InDelta(t, 1.0, n.Length(), 1e-6)
}

func TestMat3MulIdentity(t *testing.T) {
	id := Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
	m := Mat3{1, 2, 3, 4, 5, 6, 7, 8, 9}
	assert.Equal(t, m, id.Mul(m))
	assert.Equal(t, m, m.Mul(id))
	v := Vec3{1, 2, 3}
	assert.Equal(t, v, id.MulVec(v))
}

func TestRotationY(t *testing.T) {
	// +X rotates to -Z under a quarter turn about Y.
	got := RotationY(math32.Pi / 2).Upper().MulVec(Vec3{1, 0, 0})
	assert.InDelta(t, 0, got.X, 1e-6)
	assert.InDelta(t, 0, got.Y, 1e-6)
	assert.InDelta(t, -1, got.Z, 1e-6)
}

func TestMat4Mul(t *testing.T) {
	m := Mat4{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	assert.Equal(t, m, Identity4().Mul(m))
	assert.Equal(t, m, m.Mul(Identity4()))

	// rotations about the same axis compose by adding angles
	half := RotationY(math32.Pi / 4)
	full := half.Mul(half)
	want := RotationY(math32.Pi / 2)
	for i := range full {
		assert.InDelta(t, want[i], full[i], 1e-6, "element %d", i)
	}
}

func TestLookAtAndPerspective(t *testing.T) {
	view := LookAt(Vec3{0, 0, 350}, Vec3{}, Vec3{0, 1, 0})
	// the origin sits 350 units down the view's -Z axis
	assert.InDelta(t, -350, view[14], 1e-3)
	assert.InDelta(t, 1, view[0], 1e-6)

	proj := Perspective(math32.Pi/2, 2, 1, 100)
	assert.InDelta(t, 0.5, proj[0], 1e-6)
	assert.InDelta(t, 1, proj[5], 1e-6)
	assert.Equal(t, float32(-1), proj[11])
	assert.Zero(t, proj[15])

	// the near plane maps to depth 0 and the far plane to depth 1
	depth := func(z float32) float32 { return (proj[10]*z + proj[14]) / -z }
	assert.InDelta(t, 0, depth(-1), 1e-5)
	assert.InDelta(t, 1, depth(-100), 1e-5)
}

func TestClampAndCoalesce(t *testing.T) {
	assert.Equal(t, float32(1), Clamp(float32(1.5), 0, 1))
	assert.Equal(t, 0, Clamp(-3, 0, 10))
	assert.Equal(t, "b", Coalesce("", "b", "c"))
}

func TestFloatTextureData(t *testing.T) {
	tex := NewFloatTextureData(2, 2)
	tex.Set(1, 1, [4]float32{1, 2, 3, 4})
	assert.Equal(t, [4]float32{1, 2, 3, 4}, tex.At(1, 1))
	clone := tex.Clone()
	clone.Set(1, 1, [4]float32{})
	assert.Equal(t, [4]float32{1, 2, 3, 4}, tex.At(1, 1))
}
