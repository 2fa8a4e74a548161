package birds

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-birds/common"
)

// FlapAmplitude is the wing tip height reached at the top of the flap.
const FlapAmplitude float32 = 5

// TransformVertex places one mesh vertex in world space. It mirrors bird_vs.wgsl.
//
// Parameters:
//   - vertex: the mesh vertex
//   - position: simulation position of the referenced cell (xyz, phase in w)
//   - velocity: simulation velocity of the referenced cell
//   - model: mesh model matrix
//
// Returns:
//   - common.Vec3: the world-space position
func TransformVertex(vertex GPUBirdVertex, position, velocity [4]float32, model common.Mat4) common.Vec3 {
	p := common.Vec3{X: vertex.Position[0], Y: vertex.Position[1], Z: vertex.Position[2]}
	if role := vertex.Role(); role == 4 || role == 7 {
		p.Y = math32.Sin(position[3]) * FlapAmplitude
	}
	p = model.Upper().MulVec(p)

	vel := common.Vec3{X: velocity[0], Y: velocity[1], Z: velocity[2]}.Normalize()
	vel.Z = -vel.Z
	xz := math32.Sqrt(vel.X*vel.X + vel.Z*vel.Z)
	x := math32.Sqrt(max(1-vel.Y*vel.Y, 0))

	cosry, sinry := float32(1), float32(0)
	if xz > 0 {
		cosry, sinry = vel.X/xz, vel.Z/xz
	}
	cosrz, sinrz := x, vel.Y

	maty := common.Mat3{
		cosry, 0, -sinry,
		0, 1, 0,
		sinry, 0, cosry,
	}
	matz := common.Mat3{
		cosrz, sinrz, 0,
		-sinrz, cosrz, 0,
		0, 0, 1,
	}
	return maty.Mul(matz).MulVec(p).Add(common.Vec3{X: position[0], Y: position[1], Z: position[2]})
}

// Shade returns the fragment color of a vertex color at world depth z.
// The result is not clamped.
func Shade(color [3]float32, z float32) [4]float32 {
	k := (1000 - z) / 1000
	return [4]float32{0.2 + k*color[0], 0.2 + k*color[1], 0.2 + k*color[2], 1}
}

// ReferenceTexel maps a vertex reference coordinate to its simulation cell, wrapping like a repeat sampler.
// It mirrors the texel helper of bird_vs.wgsl.
//
// Parameters:
//   - reference: the vertex reference coordinate
//   - width, height: simulation grid size
//
// Returns:
//   - x, y: the referenced cell
func ReferenceTexel(reference [2]float32, width, height int) (x, y int) {
	x = int(math32.Floor(reference[0]*float32(width)+1e-3)) % width
	y = int(math32.Floor(reference[1]*float32(height)+1e-3)) % height
	return x, y
}
