// Package asset loads the three previewable asset kinds (static meshes,
// skeletal meshes and geometry collections) from GRF archives and directories.
package asset

import (
	"fmt"
	"image"

	"github.com/Faultbox/midgard-thumbnails/internal/engine/model"
)

// Kind identifies the asset variant.
type Kind int

const (
	KindStatic Kind = iota
	KindSkeletal
	KindCollection
)

// String returns the kind name used in refs and metric labels.
func (k Kind) String() string {
	switch k {
	case KindStatic:
		return "static"
	case KindSkeletal:
		return "skeletal"
	case KindCollection:
		return "collection"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Asset is a renderable asset. The set of implementations is closed:
// *StaticMesh, *SkeletalMesh and *GeometryCollection.
type Asset interface {
	Kind() Kind
	Name() string
	Bounds() model.Bounds
	Mesh() *model.Mesh
	// Textures is indexed by the mesh's TextureGroup.TextureIdx.
	Textures() []*image.RGBA

	isAsset()
}

type base struct {
	name     string
	mesh     *model.Mesh
	textures []*image.RGBA
}

func (b *base) Name() string            { return b.name }
func (b *base) Mesh() *model.Mesh       { return b.mesh }
func (b *base) Textures() []*image.RGBA { return b.textures }
func (b *base) isAsset()                {}

func (b *base) Bounds() model.Bounds {
	if b.mesh == nil {
		return model.EmptyBounds()
	}
	return b.mesh.Bounds
}

// StaticMesh is a model at its base pose.
type StaticMesh struct {
	base
}

// NewStaticMesh wraps a built mesh.
func NewStaticMesh(name string, mesh *model.Mesh, textures []*image.RGBA) *StaticMesh {
	return &StaticMesh{base{name: name, mesh: mesh, textures: textures}}
}

func (*StaticMesh) Kind() Kind { return KindStatic }

// SkeletalMesh is a model posed through its node hierarchy at a fixed time.
type SkeletalMesh struct {
	base
	skeleton *model.Skeleton
}

// NewSkeletalMesh wraps a posed mesh and its skeleton.
func NewSkeletalMesh(name string, mesh *model.Mesh, textures []*image.RGBA, sk *model.Skeleton) *SkeletalMesh {
	return &SkeletalMesh{
		base:     base{name: name, mesh: mesh, textures: textures},
		skeleton: sk,
	}
}

func (*SkeletalMesh) Kind() Kind { return KindSkeletal }

// Skeleton returns the posed bone hierarchy.
func (s *SkeletalMesh) Skeleton() *model.Skeleton { return s.skeleton }

// PoseMs returns the animation time the mesh was posed at.
func (s *SkeletalMesh) PoseMs() float32 {
	if s.skeleton == nil {
		return 0
	}
	return s.skeleton.TimeMs
}

// Piece is one placed model of a geometry collection.
type Piece struct {
	Model     string
	Triangles int
}

// GeometryCollection is several models merged into one mesh.
type GeometryCollection struct {
	base
	pieces []Piece
}

// NewGeometryCollection wraps a merged mesh.
func NewGeometryCollection(name string, mesh *model.Mesh, textures []*image.RGBA, pieces []Piece) *GeometryCollection {
	return &GeometryCollection{
		base:   base{name: name, mesh: mesh, textures: textures},
		pieces: pieces,
	}
}

func (*GeometryCollection) Kind() Kind { return KindCollection }

// Pieces returns the placed models in manifest order.
func (g *GeometryCollection) Pieces() []Piece { return g.pieces }

// IsNil reports whether a is nil or holds a nil variant pointer.
func IsNil(a Asset) bool {
	switch v := a.(type) {
	case nil:
		return true
	case *StaticMesh:
		return v == nil
	case *SkeletalMesh:
		return v == nil
	case *GeometryCollection:
		return v == nil
	}
	return false
}
