// SPDX-License-Identifier: Unlicense OR MIT

package vecmath

import "math"

// Vec4 is a homogeneous 3D point or direction.
type Vec4 struct {
	X, Y, Z, W float32
}

// Mat4 is a column-major 4x4 matrix, matching the layout GPU uniform
// buffers expect.
type Mat4 [16]float32

// Identity4 returns the 4x4 identity matrix.
func Identity4() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns m*n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * n[col*4+k]
			}
			out[col*4+row] = sum
		}
	}
	return out
}

// MulVec4 returns m*v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		X: m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		Y: m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		Z: m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		W: m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// V4FromV3 builds a homogeneous point (w=1) or direction (w=0).
func V4FromV3(v Vec3, w float32) Vec4 {
	return Vec4{X: v.X, Y: v.Y, Z: v.Z, W: w}
}

// Vec3 drops the homogeneous component.
func (v Vec4) Vec3() Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// Translate builds a matrix that translates by v, for placing a
// shared, model-local DAG's geometry at a world position.
func Translate(v Vec3) Mat4 {
	m := Identity4()
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return m
}

// LookAt builds a right-handed view matrix for a camera at eye looking
// at center, with up as the world up direction.
func LookAt(eye, center, up Vec3) Mat4 {
	f := center.Sub(eye).Normalize()
	s := f.Cross(up).Normalize()
	u := s.Cross(f)
	return Mat4{
		s.X, u.X, -f.X, 0,
		s.Y, u.Y, -f.Y, 0,
		s.Z, u.Z, -f.Z, 0,
		-s.Dot(eye), -u.Dot(eye), f.Dot(eye), 1,
	}
}

// Perspective builds a right-handed perspective projection matrix.
// fovY is the vertical field of view in radians.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := float32(1 / math.Tan(float64(fovY)/2))
	nf := 1 / (near - far)
	return Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, (far + near) * nf, -1,
		0, 0, 2 * far * near * nf, 0,
	}
}
