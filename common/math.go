package common

import "github.com/chewxy/math32"

// Mat4 is a 4x4 matrix in column-major order, the layout of WGSL's mat4x4<f32>.
type Mat4 [16]float32

// Identity4 returns the 4x4 identity.
func Identity4() Mat4 {
	return Mat4{0: 1, 5: 1, 10: 1, 15: 1}
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for c := range 4 {
		for r := range 4 {
			var sum float32
			for k := range 4 {
				sum += m[k*4+r] * o[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// Upper returns the rotation and scale block of m.
func (m Mat4) Upper() Mat3 {
	return Mat3{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
	}
}

// Perspective returns a right-handed projection mapping view depth onto the WebGPU clip range [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: width / height
//   - near, far: clip distances, 0 < near < far
//
// Returns:
//   - Mat4: the projection
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	return Mat4{
		0:  f / aspect,
		5:  f,
		10: far / (near - far),
		11: -1,
		14: near * far / (near - far),
	}
}

// LookAt returns the view matrix of an eye looking at center.
//
// Parameters:
//   - eye: camera position
//   - center: the point looked at
//   - up: world up, not parallel to center - eye
//
// Returns:
//   - Mat4: world to view transform
func LookAt(eye, center, up Vec3) Mat4 {
	z := eye.Sub(center).Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x)
	return Mat4{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1,
	}
}

// RotationY returns a rotation of angle radians about +Y.
func RotationY(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	m := Identity4()
	m[0], m[2] = c, -s
	m[8], m[10] = s, c
	return m
}
