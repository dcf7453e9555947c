package math

import "github.com/go-gl/mathgl/mgl32"

// Quat is a rotation quaternion with W as the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

func (q Quat) mgl() mgl32.Quat { return mgl32.Quat{W: q.W, V: mgl32.Vec3{q.X, q.Y, q.Z}} }

func quatFromMgl(q mgl32.Quat) Quat { return Quat{X: q.V[0], Y: q.V[1], Z: q.V[2], W: q.W} }

// QuatIdentity returns the quaternion of no rotation.
func QuatIdentity() Quat { return Quat{W: 1} }

// Normalize returns q scaled to unit length. Near-zero quaternions collapse
// to the identity.
func (q Quat) Normalize() Quat {
	if q.mgl().Len() < 1e-4 {
		return QuatIdentity()
	}
	return quatFromMgl(q.mgl().Normalize())
}

// Slerp interpolates from q to other along the shorter arc. t is in [0, 1].
func (q Quat) Slerp(other Quat, t float32) Quat {
	a, b := q.mgl(), other.mgl()
	if a.Dot(b) < 0 {
		b = b.Scale(-1)
	}
	return quatFromMgl(mgl32.QuatSlerp(a, b, t))
}

// ToMat4 returns the rotation matrix of the normalized quaternion.
func (q Quat) ToMat4() Mat4 { return Mat4(q.Normalize().mgl().Mat4()) }
