package camera

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

// Projection selects how the camera maps view space to clip space.
type Projection int

const (
	Perspective Projection = iota
	Orthographic
)

// String returns the projection name.
func (p Projection) String() string {
	switch p {
	case Perspective:
		return "perspective"
	case Orthographic:
		return "orthographic"
	default:
		return fmt.Sprintf("Projection(%d)", int(p))
	}
}

// Defaults for a new camera.
const (
	DefaultFOV  float32 = 70
	DefaultNear float32 = 1
	DefaultFar  float32 = 10000
)

// Camera is a capture camera placed by a Framing.
type Camera struct {
	Position   math.Vec3
	Rotation   math.Rotator
	Projection Projection
	FOV        float32 // horizontal, degrees
	OrthoWidth float32
	Near, Far  float32
}

// New creates a perspective camera at the origin looking down +X.
func New() *Camera {
	return &Camera{
		Projection: Perspective,
		FOV:        DefaultFOV,
		OrthoWidth: 2 * FallbackRadius,
		Near:       DefaultNear,
		Far:        DefaultFar,
	}
}

// minNear bounds the near plane away from zero.
const minNear float32 = 1e-4

// Apply moves the camera to f and fits the near and far planes so the whole
// framed sphere stays inside the depth range.
func (c *Camera) Apply(f Framing) {
	c.Position = f.Position
	c.Rotation = f.Rotation
	c.OrthoWidth = f.OrthoWidth

	// Small assets sit closer than DefaultNear; keep the near plane halfway
	// between the camera and the front of the sphere.
	c.Near = max(min(DefaultNear, (f.Distance()-f.Radius)/2), minNear)

	far := f.Distance() + 2*f.Radius
	if far < DefaultFar {
		far = DefaultFar
	}
	c.Far = far
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera) ViewMatrix() math.Mat4 {
	forward := c.Rotation.Vector()
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	// LookAt breaks down when looking straight up or down.
	if gomath.Abs(float64(forward.Y)) > 0.999 {
		up = math.Vec3{X: 0, Y: 0, Z: 1}
	}
	return math.LookAt(c.Position, c.Position.Add(forward), up)
}

// ProjectionMatrix returns the view-to-clip transform for a target with the
// given aspect ratio (width / height).
func (c *Camera) ProjectionMatrix(aspect float32) math.Mat4 {
	if aspect <= 0 {
		aspect = 1
	}
	if c.Projection == Orthographic {
		halfW := c.OrthoWidth / 2
		halfH := halfW / aspect
		return math.Ortho(-halfW, halfW, -halfH, halfH, c.Near, c.Far)
	}

	// FOV is horizontal; Perspective wants the vertical angle.
	hfov := float64(c.FOV) * gomath.Pi / 180
	vfov := 2 * gomath.Atan(gomath.Tan(hfov/2)/float64(aspect))
	return math.Perspective(float32(vfov), aspect, c.Near, c.Far)
}
