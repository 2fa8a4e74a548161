package camera

import (
	_ "embed"
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

// GPUCameraUniformSource declares the WGSL CameraUniform block that GPUCameraUniform encodes.
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// GPUCameraUniform is the camera block of the bird vertex stage.
// Size: 80 bytes, the vec3 eye padded to 16.
type GPUCameraUniform struct {
	ViewProj common.Mat4 // offset  0: mat4x4<f32>
	Eye      [3]float32  // offset 64: vec3<f32>
	_        float32
}

// Size returns the encoded size in bytes.
func (g *GPUCameraUniform) Size() int {
	return binary.Size(g)
}

// Marshal encodes the block little-endian for upload.
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	// fixed-size struct into an exactly sized buffer
	if _, err := binary.Encode(buf, binary.LittleEndian, g); err != nil {
		panic(err)
	}
	return buf
}
