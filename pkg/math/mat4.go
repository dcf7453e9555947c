package math

import "github.com/go-gl/mathgl/mgl32"

// Mat4 is a column-major 4x4 matrix, laid out the way OpenGL uploads it.
type Mat4 mgl32.Mat4

// Vec4 is a homogeneous coordinate.
type Vec4 [4]float32

func (m Mat4) mgl() mgl32.Mat4 { return mgl32.Mat4(m) }

// Identity returns the identity matrix.
func Identity() Mat4 { return Mat4(mgl32.Ident4()) }

// Perspective returns a right-handed perspective projection.
// fovY is in radians.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	return Mat4(mgl32.Perspective(fovY, aspect, near, far))
}

// Ortho returns an orthographic projection for the given view volume.
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	return Mat4(mgl32.Ortho(left, right, bottom, top, near, far))
}

// LookAt returns a view matrix looking from eye towards center.
func LookAt(eye, center, up Vec3) Mat4 {
	return Mat4(mgl32.LookAtV(eye.mgl(), center.mgl(), up.mgl()))
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 { return Mat4(mgl32.Translate3D(x, y, z)) }

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 { return Mat4(mgl32.Scale3D(x, y, z)) }

// RotateX returns a rotation of angle radians around the X axis.
func RotateX(angle float32) Mat4 { return Mat4(mgl32.HomogRotate3DX(angle)) }

// RotateY returns a rotation of angle radians around the Y axis.
func RotateY(angle float32) Mat4 { return Mat4(mgl32.HomogRotate3DY(angle)) }

// RotateZ returns a rotation of angle radians around the Z axis.
func RotateZ(angle float32) Mat4 { return Mat4(mgl32.HomogRotate3DZ(angle)) }

// RotateAxis returns a rotation of angle radians around a normalized axis.
func RotateAxis(axis [3]float32, angle float32) Mat4 {
	return Mat4(mgl32.HomogRotate3D(angle, mgl32.Vec3(axis)))
}

// FromMat3x3 embeds a column-major 3x3 matrix in the upper-left of a Mat4.
func FromMat3x3(m3 [9]float32) Mat4 { return Mat4(mgl32.Mat3(m3).Mat4()) }

// Mul returns m * other.
func (m Mat4) Mul(other Mat4) Mat4 { return Mat4(m.mgl().Mul4(other.mgl())) }

// MulVec4 returns m * v.
func (m Mat4) MulVec4(v Vec4) Vec4 { return Vec4(m.mgl().Mul4x1(mgl32.Vec4(v))) }

// TransformPoint transforms p as a point (w = 1). The result is divided by w
// unless w is 0 or 1.
func (m Mat4) TransformPoint(p [3]float32) [3]float32 {
	r := m.MulVec4(Vec4{p[0], p[1], p[2], 1})
	if r[3] != 0 && r[3] != 1 {
		return [3]float32{r[0] / r[3], r[1] / r[3], r[2] / r[3]}
	}
	return [3]float32{r[0], r[1], r[2]}
}

// TransformVec3 transforms v as a point.
func (m Mat4) TransformVec3(v Vec3) Vec3 {
	p := m.TransformPoint(v.Array())
	return Vec3{p[0], p[1], p[2]}
}

// Inverse returns the inverse of m, or the identity when m is singular.
func (m Mat4) Inverse() Mat4 {
	if m.mgl().Det() == 0 {
		return Identity()
	}
	return Mat4(m.mgl().Inv())
}
