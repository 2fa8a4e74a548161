package compute

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

// ramp returns a w×h texture whose red channel is the cell index.
func ramp(w, h uint32) *common.FloatTextureData {
	tex := common.NewFloatTextureData(w, h)
	for y := range int(h) {
		for x := range int(w) {
			tex.Set(x, y, [4]float32{float32(y*int(w) + x), 0, 0, 1})
		}
	}
	return tex
}

func TestCPUSamplerWrap(t *testing.T) {
	tests := []struct {
		name       string
		wrap       WrapMode
		x, y       int
		wantRedIdx float32
	}{
		{"repeat left", WrapRepeat, -1, 0, 3},
		{"repeat below", WrapRepeat, 0, -1, 12},
		{"repeat far", WrapRepeat, 9, 5, 5},
		{"clamp left", WrapClampToEdge, -1, 0, 0},
		{"clamp far", WrapClampToEdge, 9, 5, 15},
		{"inside", WrapClampToEdge, 2, 1, 6},
	}
	b := NewCPUBackend()
	defer b.Release()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := b.CreateTarget(TargetSpec{Label: "t", Width: 4, Height: 4, Wrap: tt.wrap, Initial: ramp(4, 4)})
			require.NoError(t, err)
			s := cpuSampler{t: target.(*cpuTarget)}
			assert.Equal(t, tt.wantRedIdx, s.Load(tt.x, tt.y)[0])
		})
	}
}

func TestCPUCreateTarget(t *testing.T) {
	b := NewCPUBackend()
	defer b.Release()

	_, err := b.CreateTarget(TargetSpec{Label: "zero", Width: 0, Height: 4})
	assert.ErrorIs(t, err, ErrInvalidTexture)

	_, err = b.CreateTarget(TargetSpec{Label: "bad seed", Width: 4, Height: 4, Initial: ramp(2, 2)})
	assert.ErrorIs(t, err, ErrInvalidTexture)

	seed := ramp(2, 2)
	target, err := b.CreateTarget(TargetSpec{Label: "seeded", Width: 2, Height: 2, Initial: seed})
	require.NoError(t, err)
	seed.Set(0, 0, [4]float32{99, 0, 0, 0})

	got, err := b.(TargetReader).ReadTarget(target)
	require.NoError(t, err)
	assert.Equal(t, float32(0), got.At(0, 0)[0], "targets own a copy of the seed")
}

func TestCPUHalfFloatQuantizes(t *testing.T) {
	b := NewCPUBackend(WithWorkers(1))
	defer b.Release()

	seed := common.NewFloatTextureData(1, 1)
	seed.Set(0, 0, [4]float32{0.1, 1000.3, -2.7, 1})
	target, err := b.CreateTarget(TargetSpec{Label: "half", Width: 1, Height: 1, DataType: DataTypeFloat16, Initial: seed})
	require.NoError(t, err)

	got, err := b.(TargetReader).ReadTarget(target)
	require.NoError(t, err)
	for i, v := range seed.Texels {
		assert.Equal(t, float16.Fromfloat32(v).Float32(), got.Texels[i])
	}
}

func TestCPUDispatchErrors(t *testing.T) {
	b := NewCPUBackend(WithWorkers(2))
	defer b.Release()
	require.NoError(t, b.BeginTick())

	out, err := b.CreateTarget(TargetSpec{Label: "out", Width: 4, Height: 4})
	require.NoError(t, err)

	err = b.Dispatch(&Pass{Variable: "v", Program: &Program{}, Output: out, Width: 4, Height: 4})
	assert.ErrorIs(t, err, ErrNoKernel)

	err = b.Dispatch(&Pass{
		Variable: "v",
		Program:  &Program{Kernel: func(Inputs, int, int) [4]float32 { return [4]float32{} }},
		Output:   &fakeTarget{},
		Width:    4,
		Height:   4,
	})
	assert.ErrorIs(t, err, ErrInvalidTexture)

	err = b.Dispatch(&Pass{
		Variable: "v",
		Program: &Program{Kernel: func(_ Inputs, x, y int) [4]float32 {
			if x == 3 && y == 3 {
				panic("boom")
			}
			return [4]float32{}
		}},
		Output: out,
		Width:  4,
		Height: 4,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	require.NoError(t, b.EndTick())

	_, err = b.(TargetReader).ReadTarget(&fakeTarget{})
	assert.ErrorIs(t, err, ErrInvalidTexture)
}

func TestCPUDispatchCoversEveryCell(t *testing.T) {
	for _, workers := range []int{1, 3, 8} {
		b := NewCPUBackend(WithWorkers(workers), WithQueueSize(4))
		require.NoError(t, b.BeginTick())

		out, err := b.CreateTarget(TargetSpec{Label: "out", Width: 5, Height: 7})
		require.NoError(t, err)
		err = b.Dispatch(&Pass{
			Variable: "v",
			Program: &Program{Kernel: func(_ Inputs, x, y int) [4]float32 {
				return [4]float32{float32(x), float32(y), 1, 1}
			}},
			Output: out,
			Width:  5,
			Height: 7,
		})
		require.NoError(t, err)

		got, err := b.(TargetReader).ReadTarget(out)
		require.NoError(t, err)
		for y := range 7 {
			for x := range 5 {
				assert.Equal(t, [4]float32{float32(x), float32(y), 1, 1}, got.At(x, y), "workers=%d", workers)
			}
		}
		b.Release()
	}
}

func TestEncodeTexels(t *testing.T) {
	texels := []float32{1, -2, 0.5, 0}

	full := encodeTexels(texels, DataTypeFloat32)
	assert.Len(t, full, 16)
	assert.Equal(t, []byte{0, 0, 0x80, 0x3f}, full[:4])

	half := encodeTexels(texels, DataTypeFloat16)
	assert.Equal(t, []byte{0x00, 0x3c, 0x00, 0xc0, 0x00, 0x38, 0x00, 0x00}, half)
}

func TestCapabilitiesFromOption(t *testing.T) {
	caps := Capabilities{HalfFloatTargets: true, VertexTextures: true}
	b := NewCPUBackend(WithCapabilities(caps))
	assert.Equal(t, caps, b.Capabilities())
	assert.Equal(t, "cpu", b.Name())
}
