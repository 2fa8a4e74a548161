package flock

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUFlockUniformsSource is the canonical WGSL definition of the FlockUniforms struct.
// Matches GPUFlockUniforms layout exactly (48 bytes).
//
//go:embed assets/flock_uniforms.wgsl
var GPUFlockUniformsSource string

// VelocitySource is the WGSL velocity kernel.
//
//go:embed assets/velocity.wgsl
var VelocitySource string

// PositionSource is the WGSL position kernel.
//
//go:embed assets/position.wgsl
var PositionSource string

// GPUFlockUniforms is the per-tick uniform block shared by the velocity and position kernels.
// Size: 48 bytes (WGSL aligned).
type GPUFlockUniforms struct {
	Predator   [3]float32 // offset  0: predator in normalized device coordinates (vec3<f32>)
	Delta      float32    // offset 12: seconds since the previous tick
	Separation float32    // offset 16
	Alignment  float32    // offset 20
	Cohesion   float32    // offset 24
	Freedom    float32    // offset 28: carried, unused by the kernels
	Time       float32    // offset 32: seconds since the first tick
	Bounds     float32    // offset 36: predator scale
	_pad       [2]float32 // offset 40: padding to 48 bytes
}

// NewGPUFlockUniforms builds the uniform block for one tick.
//
// Parameters:
//   - params: the flock parameters
//   - predator: predator position in normalized device coordinates
//   - delta: seconds since the previous tick
//   - time: seconds since the first tick
//
// Returns:
//   - *GPUFlockUniforms: the populated uniform block
func NewGPUFlockUniforms(params Parameters, predator [3]float32, delta, time float32) *GPUFlockUniforms {
	return &GPUFlockUniforms{
		Predator:   predator,
		Delta:      delta,
		Separation: params.Separation,
		Alignment:  params.Alignment,
		Cohesion:   params.Cohesion,
		Freedom:    params.Freedom,
		Time:       time,
		Bounds:     Bounds,
	}
}

// Parameters returns the flock parameters carried by the uniform block.
func (g *GPUFlockUniforms) Parameters() Parameters {
	return Parameters{Separation: g.Separation, Alignment: g.Alignment, Cohesion: g.Cohesion, Freedom: g.Freedom}
}

// Size returns the size of the GPUFlockUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPUFlockUniforms) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUFlockUniforms struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUFlockUniforms) Marshal() []byte {
	buf := make([]byte, g.Size())
	fields := [...]float32{
		g.Predator[0], g.Predator[1], g.Predator[2], g.Delta,
		g.Separation, g.Alignment, g.Cohesion, g.Freedom,
		g.Time, g.Bounds,
	}
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
