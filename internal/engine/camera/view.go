package camera

import (
	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

// View is a snapshot of the camera matrices used for one capture.
type View struct {
	Location      math.Vec3
	Matrix        math.Mat4
	Projection    math.Mat4
	Width, Height int
}

// NewView captures c for a target of w by h pixels.
func NewView(c *Camera, w, h int) View {
	aspect := float32(1)
	if w > 0 && h > 0 {
		aspect = float32(w) / float32(h)
	}
	return View{
		Location:   c.Position,
		Matrix:     c.ViewMatrix(),
		Projection: c.ProjectionMatrix(aspect),
		Width:      w,
		Height:     h,
	}
}

// ViewProj returns Projection * Matrix.
func (v View) ViewProj() math.Mat4 {
	return v.Projection.Mul(v.Matrix)
}

// Project maps a world position to pixel coordinates with a top-left origin.
// ok is false for points behind the camera.
func (v View) Project(world math.Vec3) (x, y float32, ok bool) {
	clip := v.ViewProj().MulVec4(math.Vec4{world.X, world.Y, world.Z, 1})
	if clip[3] <= 0 {
		return 0, 0, false
	}
	ndcX := clip[0] / clip[3]
	ndcY := clip[1] / clip[3]
	x = (ndcX + 1) / 2 * float32(v.Width)
	y = (1 - ndcY) / 2 * float32(v.Height)
	return x, y, true
}

// Deproject converts pixel coordinates to a world-space ray.
func (v View) Deproject(x, y float32) (origin, dir math.Vec3) {
	w, h := float32(v.Width), float32(v.Height)
	if w <= 0 || h <= 0 {
		return v.Location, math.Vec3{}
	}
	ndcX := 2*x/w - 1
	ndcY := 1 - 2*y/h

	inv := v.ViewProj().Inverse()
	near := unproject(inv, math.Vec4{ndcX, ndcY, -1, 1})
	far := unproject(inv, math.Vec4{ndcX, ndcY, 1, 1})
	return near, far.Sub(near).Normalize()
}

func unproject(inv math.Mat4, p math.Vec4) math.Vec3 {
	w := inv.MulVec4(p)
	if w[3] != 0 {
		w[0] /= w[3]
		w[1] /= w[3]
		w[2] /= w[3]
	}
	return math.Vec3{X: w[0], Y: w[1], Z: w[2]}
}
