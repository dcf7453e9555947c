// Package camera frames preview assets and builds the matrices used to
// capture them.
package camera

import (
	gomath "math"

	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

// FallbackRadius is the sphere radius framed when an asset has no usable
// bounds.
const FallbackRadius float32 = 50

// Framing is a camera placement derived from a bounding sphere radius.
type Framing struct {
	Radius     float32
	Position   math.Vec3
	Rotation   math.Rotator
	OrthoWidth float32
}

// FrameRadius places the camera on a fixed diagonal at (-1.5r, r, r), looking
// at the origin, with an orthographic view 2r wide.
func FrameRadius(r float32) Framing {
	pos := math.Vec3{X: -r * 1.5, Y: r, Z: r}
	return Framing{
		Radius:     r,
		Position:   pos,
		Rotation:   pos.Neg().Rotation(),
		OrthoWidth: r * 2,
	}
}

// FallbackFraming frames a sphere of FallbackRadius.
func FallbackFraming() Framing {
	return FrameRadius(FallbackRadius)
}

// Degenerate reports whether the radius cannot produce a view: zero,
// negative, NaN or infinite.
func (f Framing) Degenerate() bool {
	r := float64(f.Radius)
	return !(r > 0) || gomath.IsInf(r, 0)
}

// Distance returns the distance from the camera to the origin.
func (f Framing) Distance() float32 {
	return f.Position.Length()
}
