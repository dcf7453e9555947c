package model

import (
	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

// Transform returns a copy of m with every vertex moved by mat. Normals are
// rotated by the upper 3x3 and renormalized; bounds are recomputed.
func (m *Mesh) Transform(mat math.Mat4) *Mesh {
	out := &Mesh{
		Vertices: make([]Vertex, len(m.Vertices)),
		Indices:  append([]uint32(nil), m.Indices...),
		Groups:   append([]TextureGroup(nil), m.Groups...),
		Bounds:   EmptyBounds(),
	}
	origin := mat.TransformVec3(math.Vec3{})
	for i, v := range m.Vertices {
		pos := mat.TransformPoint(v.Position)
		n := mat.TransformVec3(math.Vec3{X: v.Normal[0], Y: v.Normal[1], Z: v.Normal[2]}).Sub(origin)
		out.Vertices[i] = Vertex{
			Position: pos,
			Normal:   n.Normalize().Array(),
			TexCoord: v.TexCoord,
		}
		updateBounds(&out.Bounds, pos)
	}
	return out
}

// Piece is one mesh placed into a merged collection.
type Piece struct {
	Mesh *Mesh
	// TextureOffset is added to every group's texture index so pieces can
	// share one texture table.
	TextureOffset int
}

// Merge concatenates pieces into one mesh. Groups keep their per-piece
// order; nil or empty pieces are skipped. Returns nil if nothing remains.
func Merge(pieces []Piece) *Mesh {
	out := &Mesh{Bounds: EmptyBounds()}
	for _, p := range pieces {
		if p.Mesh == nil || len(p.Mesh.Vertices) == 0 {
			continue
		}
		baseVertex := uint32(len(out.Vertices))
		baseIndex := int32(len(out.Indices))

		out.Vertices = append(out.Vertices, p.Mesh.Vertices...)
		for _, idx := range p.Mesh.Indices {
			out.Indices = append(out.Indices, idx+baseVertex)
		}
		for _, g := range p.Mesh.Groups {
			out.Groups = append(out.Groups, TextureGroup{
				TextureIdx: g.TextureIdx + p.TextureOffset,
				StartIndex: g.StartIndex + baseIndex,
				IndexCount: g.IndexCount,
			})
		}
		out.Bounds = out.Bounds.Union(p.Mesh.Bounds)
	}
	if len(out.Vertices) == 0 {
		return nil
	}
	return out
}
