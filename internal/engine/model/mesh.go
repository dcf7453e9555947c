package model

import (
	"maps"
	"slices"

	"github.com/Faultbox/midgard-thumbnails/pkg/formats"
	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

// BuildMesh flattens every node of rsm, posed at opts.AnimTimeMs, into one
// mesh grouped by texture. Returns nil when no face survives.
func BuildMesh(rsm *formats.RSM, opts BuildOptions) *Mesh {
	b := &meshBuilder{
		opts:   opts,
		groups: make(map[int][]uint32),
		bounds: EmptyBounds(),
	}
	p := newPose(rsm, opts.AnimTimeMs)
	for i := range rsm.Nodes {
		b.addNode(&rsm.Nodes[i], p.vertexMatrix(i))
	}
	return b.mesh()
}

type meshBuilder struct {
	opts     BuildOptions
	vertices []Vertex
	groups   map[int][]uint32 // global texture index -> triangle indices
	bounds   Bounds
}

func (b *meshBuilder) addNode(node *formats.RSMNode, m math.Mat4) {
	for _, face := range node.Faces {
		normal, ok := faceNormal(node, face)
		if !ok {
			continue
		}
		tex := 0
		if int(face.TextureID) < len(node.TextureIDs) {
			tex = int(node.TextureIDs[face.TextureID])
		}

		b.emit(tex, node, face, m, normal, b.opts.ReverseWinding)
		if face.TwoSide != 0 || b.opts.ForceAllTwoSided {
			b.emit(tex, node, face, m, normal.Neg(), !b.opts.ReverseWinding)
		}
	}
}

// faceNormal returns the unit normal of face in node space. Faces with out of
// range vertex ids or zero area are rejected.
func faceNormal(node *formats.RSMNode, face formats.RSMFace) (math.Vec3, bool) {
	var v [3]math.Vec3
	for i, id := range face.VertexIDs {
		if int(id) >= len(node.Vertices) {
			return math.Vec3{}, false
		}
		p := node.Vertices[id]
		v[i] = math.Vec3{X: p[0], Y: p[1], Z: p[2]}
	}
	n := v[1].Sub(v[0]).Cross(v[2].Sub(v[0]))
	if n.Length() < 1e-5 {
		return math.Vec3{}, false
	}
	return n.Normalize(), true
}

// emit appends one triangle of face, transformed by m and mirrored into the
// renderer's Y-up space, to texture group tex.
func (b *meshBuilder) emit(tex int, node *formats.RSMNode, face formats.RSMFace, m math.Mat4, normal math.Vec3, reverse bool) {
	order := [3]int{0, 1, 2}
	if reverse {
		order = [3]int{2, 1, 0}
	}
	base := uint32(len(b.vertices))
	for _, k := range order {
		pos := m.TransformPoint(node.Vertices[face.VertexIDs[k]])
		pos[1] = -pos[1]
		updateBounds(&b.bounds, pos)

		var uv [2]float32
		if id := int(face.TexCoordIDs[k]); id < len(node.TexCoords) {
			uv = [2]float32{node.TexCoords[id].U, node.TexCoords[id].V}
		}
		b.vertices = append(b.vertices, Vertex{Position: pos, Normal: normal.Array(), TexCoord: uv})
	}
	b.groups[tex] = append(b.groups[tex], base, base+1, base+2)
}

func (b *meshBuilder) mesh() *Mesh {
	if len(b.vertices) == 0 {
		return nil
	}
	m := &Mesh{Vertices: b.vertices, Bounds: b.bounds}
	// Texture order keeps repeated builds identical.
	for _, tex := range slices.Sorted(maps.Keys(b.groups)) {
		idx := b.groups[tex]
		m.Groups = append(m.Groups, TextureGroup{
			TextureIdx: tex,
			StartIndex: int32(len(m.Indices)),
			IndexCount: int32(len(idx)),
		})
		m.Indices = append(m.Indices, idx...)
	}
	if !b.opts.FlatShading {
		SmoothNormals(m.Vertices)
	}
	return m
}

// SmoothNormals replaces the normal of every vertex with the average normal
// of all vertices sharing its position (within 1e-3).
func SmoothNormals(vertices []Vertex) {
	const cell = 0.001
	shared := make(map[[3]int32][]int)
	for i, v := range vertices {
		key := [3]int32{
			int32(v.Position[0] / cell),
			int32(v.Position[1] / cell),
			int32(v.Position[2] / cell),
		}
		shared[key] = append(shared[key], i)
	}
	for _, idx := range shared {
		if len(idx) < 2 {
			continue
		}
		var sum math.Vec3
		for _, i := range idx {
			n := vertices[i].Normal
			sum = sum.Add(math.Vec3{X: n[0], Y: n[1], Z: n[2]})
		}
		avg := sum.Normalize()
		if avg == (math.Vec3{}) {
			avg = math.Vec3{Y: 1}
		}
		for _, i := range idx {
			vertices[i].Normal = avg.Array()
		}
	}
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := range p {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}
