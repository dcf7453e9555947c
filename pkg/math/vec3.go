// Package math provides the vector, matrix and rotation types used by the
// preview scene. Matrix and quaternion arithmetic is delegated to mathgl; the
// wrappers keep the named-field vectors the model and camera code is written
// against.
package math

import "github.com/go-gl/mathgl/mgl32"

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) mgl() mgl32.Vec3 { return mgl32.Vec3{v.X, v.Y, v.Z} }

func fromMgl(v mgl32.Vec3) Vec3 { return Vec3{v[0], v[1], v[2]} }

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 { return fromMgl(v.mgl().Add(other.mgl())) }

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 { return fromMgl(v.mgl().Sub(other.mgl())) }

// Scale returns v * s.
func (v Vec3) Scale(s float32) Vec3 { return fromMgl(v.mgl().Mul(s)) }

// Dot returns the dot product.
func (v Vec3) Dot(other Vec3) float32 { return v.mgl().Dot(other.mgl()) }

// Cross returns the cross product.
func (v Vec3) Cross(other Vec3) Vec3 { return fromMgl(v.mgl().Cross(other.mgl())) }

// Length returns the magnitude.
func (v Vec3) Length() float32 { return v.mgl().Len() }

// Normalize returns a unit vector. The zero vector stays zero.
func (v Vec3) Normalize() Vec3 {
	if v.Length() == 0 {
		return Vec3{}
	}
	return fromMgl(v.mgl().Normalize())
}

// Distance returns the distance to another point.
func (v Vec3) Distance(other Vec3) float32 { return v.Sub(other).Length() }

// Neg returns -v.
func (v Vec3) Neg() Vec3 { return Vec3{-v.X, -v.Y, -v.Z} }

// Array returns the components as a [3]float32.
func (v Vec3) Array() [3]float32 { return [3]float32{v.X, v.Y, v.Z} }
