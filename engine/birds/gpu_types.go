package birds

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

// GPUBirdVertexSource is the canonical WGSL definition of the bird VertexInput struct.
// Matches GPUBirdVertex layout exactly (36 bytes).
//
//go:embed assets/bird_vertex.wgsl
var GPUBirdVertexSource string

// GPUBirdUniformsSource is the canonical WGSL definition of the BirdUniforms struct.
// Matches GPUBirdUniforms layout exactly (80 bytes).
//
//go:embed assets/bird_uniforms.wgsl
var GPUBirdUniformsSource string

// VertexShaderSource is the bird transform stage.
//
//go:embed assets/bird_vs.wgsl
var VertexShaderSource string

// FragmentShaderSource is the bird depth shading stage.
//
//go:embed assets/bird_fs.wgsl
var FragmentShaderSource string

// GPUBirdVertex is one vertex of the bird mesh.
// Size: 36 bytes, tightly packed vertex attributes.
type GPUBirdVertex struct {
	Position   [3]float32 // offset  0: template position, already scaled
	Color      [3]float32 // offset 12: RGB color chosen at build time
	Reference  [2]float32 // offset 24: simulation texel coordinate in [0, 1)
	BirdVertex float32    // offset 32: role tag 0-8 within the bird
}

// Size returns the size of the GPUBirdVertex struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (36)
func (g *GPUBirdVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Role returns the vertex's role tag as an integer.
func (g *GPUBirdVertex) Role() int {
	return int(g.BirdVertex + 0.5)
}

// Marshal serializes the GPUBirdVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 36-byte buffer ready for GPU upload
func (g *GPUBirdVertex) Marshal() []byte {
	buf := make([]byte, g.Size())
	fields := [...]float32{
		g.Position[0], g.Position[1], g.Position[2],
		g.Color[0], g.Color[1], g.Color[2],
		g.Reference[0], g.Reference[1],
		g.BirdVertex,
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// GPUBirdUniforms is the per-frame uniform block of the bird vertex stage.
// Size: 80 bytes (WGSL aligned).
type GPUBirdUniforms struct {
	Model common.Mat4 // offset  0: mesh model matrix (mat4x4<f32>)
	Time  float32     // offset 64: seconds since the first tick
	Delta float32     // offset 68: seconds since the previous tick
	_pad  [2]float32  // offset 72: padding to 80 bytes
}

// NewGPUBirdUniforms creates the uniform block with the mesh's fixed model matrix.
func NewGPUBirdUniforms() *GPUBirdUniforms {
	return &GPUBirdUniforms{Model: ModelMatrix()}
}

// Size returns the size of the GPUBirdUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUBirdUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUBirdUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUBirdUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Model[i]))
	}
	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(g.Time))
	binary.LittleEndian.PutUint32(buf[68:], math.Float32bits(g.Delta))
	return buf
}

// ModelMatrix returns the bird mesh's model matrix, a quarter turn about Y.
func ModelMatrix() common.Mat4 {
	return common.RotationY(math32.Pi / 2)
}
