package math

import "math"

// Rotator is an orientation expressed as Euler angles in degrees.
// Pitch is elevation above the XZ plane, Yaw is rotation around the Y axis
// measured from +X towards +Z. Roll is carried but not used by look rotations.
type Rotator struct {
	Pitch, Yaw, Roll float32
}

// Rotation returns the rotator that points along v.
// A zero vector yields the zero rotator.
func (v Vec3) Rotation() Rotator {
	if v.X == 0 && v.Y == 0 && v.Z == 0 {
		return Rotator{}
	}
	horiz := math.Sqrt(float64(v.X*v.X + v.Z*v.Z))
	return Rotator{
		Pitch: float32(math.Atan2(float64(v.Y), horiz) * 180 / math.Pi),
		Yaw:   float32(math.Atan2(float64(v.Z), float64(v.X)) * 180 / math.Pi),
	}
}

// Vector returns the unit direction this rotator points along.
func (r Rotator) Vector() Vec3 {
	pitch := float64(r.Pitch) * math.Pi / 180
	yaw := float64(r.Yaw) * math.Pi / 180
	return Vec3{
		X: float32(math.Cos(pitch) * math.Cos(yaw)),
		Y: float32(math.Sin(pitch)),
		Z: float32(math.Cos(pitch) * math.Sin(yaw)),
	}
}
