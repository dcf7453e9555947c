// Package model builds renderable meshes from RSM models: base pose, posed
// node hierarchies and merged multi-piece collections.
package model

import "github.com/Faultbox/midgard-thumbnails/pkg/math"

// Vertex represents a model mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// TextureGroup groups triangles by texture index for batched rendering.
type TextureGroup struct {
	TextureIdx int
	StartIndex int32
	IndexCount int32
}

// Mesh holds the complete model mesh data ready for GPU upload.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Groups   []TextureGroup
	Bounds   Bounds
}

// TriangleCount returns the number of indexed triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Bounds holds the axis-aligned bounding box of the model.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// EmptyBounds returns inverted bounds that any point will expand.
func EmptyBounds() Bounds {
	return Bounds{
		Min: [3]float32{1e10, 1e10, 1e10},
		Max: [3]float32{-1e10, -1e10, -1e10},
	}
}

// IsEmpty reports whether no point has been added to the bounds.
func (b Bounds) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Origin returns the center of the box.
func (b Bounds) Origin() math.Vec3 {
	if b.IsEmpty() {
		return math.Vec3{}
	}
	return math.Vec3{
		X: (b.Min[0] + b.Max[0]) / 2,
		Y: (b.Min[1] + b.Max[1]) / 2,
		Z: (b.Min[2] + b.Max[2]) / 2,
	}
}

// Extent returns the half size of the box along each axis.
func (b Bounds) Extent() math.Vec3 {
	if b.IsEmpty() {
		return math.Vec3{}
	}
	return math.Vec3{
		X: (b.Max[0] - b.Min[0]) / 2,
		Y: (b.Max[1] - b.Min[1]) / 2,
		Z: (b.Max[2] - b.Min[2]) / 2,
	}
}

// SphereRadius returns the radius of the sphere that encloses the box,
// centered on Origin.
func (b Bounds) SphereRadius() float32 {
	return b.Extent().Length()
}

// Union returns the smallest bounds containing both b and other.
func (b Bounds) Union(other Bounds) Bounds {
	if other.IsEmpty() {
		return b
	}
	if b.IsEmpty() {
		return other
	}
	updateBounds(&b, other.Min)
	updateBounds(&b, other.Max)
	return b
}

// BuildOptions contains options for mesh building.
type BuildOptions struct {
	// ReverseWinding reverses triangle winding order (for negative scale models).
	ReverseWinding bool
	// ForceAllTwoSided treats all faces as two-sided regardless of face flag.
	ForceAllTwoSided bool
	// FlatShading keeps per-face normals instead of smoothing shared vertices.
	FlatShading bool
	// AnimTimeMs is the animation time in milliseconds for animated models.
	AnimTimeMs float32
}
