package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProvider(t *testing.T) {
	p := NewBindGroupProvider("birds")
	assert.Equal(t, "birds", p.Label())
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.Buffer(0))
	assert.Zero(t, p.VertexCount())
}

func TestViewsAreDroppedNotReleased(t *testing.T) {
	// Views without a device are never released, so zero values are safe here.
	position, velocity := &wgpu.TextureView{}, &wgpu.TextureView{}
	p := NewBindGroupProvider("velocity_gen1", WithView(1, position))
	p.AttachView(2, velocity)

	assert.Same(t, position, p.TextureView(1))
	assert.True(t, p.Uses(velocity))
	assert.False(t, p.Uses(&wgpu.TextureView{}))
	assert.False(t, p.Uses(nil))

	p.Release()
	assert.False(t, p.Uses(position))
	assert.Nil(t, p.TextureView(2))
}
