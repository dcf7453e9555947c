package model

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/midgard-thumbnails/pkg/formats"
	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

func identityNode(name, parent string, pos [3]float32) formats.RSMNode {
	return formats.RSMNode{
		Name:     name,
		Parent:   parent,
		Matrix:   [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Position: pos,
		Scale:    [3]float32{1, 1, 1},
	}
}

func triangleRSM() *formats.RSM {
	node := identityNode("root", "", [3]float32{})
	node.TextureIDs = []int32{0}
	node.Vertices = [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	node.TexCoords = []formats.RSMTexCoord{{U: 0, V: 0}, {U: 1, V: 0}, {U: 0, V: 1}}
	node.Faces = []formats.RSMFace{{
		VertexIDs:   [3]uint16{0, 1, 2},
		TexCoordIDs: [3]uint16{0, 1, 2},
	}}
	return &formats.RSM{
		Textures: []string{"a.bmp"},
		RootNode: "root",
		Nodes:    []formats.RSMNode{node},
	}
}

func approx(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-4
}

func TestBuildMesh_Triangle(t *testing.T) {
	mesh := BuildMesh(triangleRSM(), BuildOptions{})
	if mesh == nil {
		t.Fatal("BuildMesh() = nil")
	}
	if got := mesh.TriangleCount(); got != 1 {
		t.Errorf("TriangleCount() = %d, want 1", got)
	}
	wantMin := [3]float32{0, -1, 0}
	wantMax := [3]float32{1, 0, 0}
	if mesh.Bounds.Min != wantMin || mesh.Bounds.Max != wantMax {
		t.Errorf("Bounds = %v..%v, want %v..%v", mesh.Bounds.Min, mesh.Bounds.Max, wantMin, wantMax)
	}
}

func TestBuildMesh_TwoSided(t *testing.T) {
	mesh := BuildMesh(triangleRSM(), BuildOptions{ForceAllTwoSided: true, FlatShading: true})
	if mesh == nil {
		t.Fatal("BuildMesh() = nil")
	}
	if got := mesh.TriangleCount(); got != 2 {
		t.Errorf("TriangleCount() = %d, want 2", got)
	}
	front, back := mesh.Vertices[0].Normal, mesh.Vertices[3].Normal
	if !approx(front[2], -back[2]) {
		t.Errorf("back face normal %v is not the flipped front %v", back, front)
	}
}

func TestBuildMesh_Empty(t *testing.T) {
	if mesh := BuildMesh(&formats.RSM{}, BuildOptions{}); mesh != nil {
		t.Errorf("BuildMesh(empty) = %v, want nil", mesh)
	}
}

func TestBounds(t *testing.T) {
	b := Bounds{Min: [3]float32{-1, -2, -2}, Max: [3]float32{3, 2, 2}}

	if got, want := b.Origin(), (math.Vec3{X: 1}); got != want {
		t.Errorf("Origin() = %v, want %v", got, want)
	}
	if got, want := b.Extent(), (math.Vec3{X: 2, Y: 2, Z: 2}); got != want {
		t.Errorf("Extent() = %v, want %v", got, want)
	}
	if got := b.SphereRadius(); !approx(got, float32(gomath.Sqrt(12))) {
		t.Errorf("SphereRadius() = %v, want sqrt(12)", got)
	}
}

func TestBounds_Empty(t *testing.T) {
	b := EmptyBounds()
	if !b.IsEmpty() {
		t.Fatal("EmptyBounds().IsEmpty() = false")
	}
	if r := b.SphereRadius(); r != 0 {
		t.Errorf("SphereRadius() = %v, want 0", r)
	}

	other := Bounds{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 1, 1}}
	if got := b.Union(other); got != other {
		t.Errorf("Union() = %v, want %v", got, other)
	}
}

func TestMerge(t *testing.T) {
	a := BuildMesh(triangleRSM(), BuildOptions{})
	b := a.Transform(math.Translate(10, 0, 0))

	merged := Merge([]Piece{{Mesh: a}, {Mesh: nil}, {Mesh: b, TextureOffset: 1}})
	if merged == nil {
		t.Fatal("Merge() = nil")
	}
	if got := merged.TriangleCount(); got != 2 {
		t.Errorf("TriangleCount() = %d, want 2", got)
	}
	if len(merged.Groups) != 2 {
		t.Fatalf("len(Groups) = %d, want 2", len(merged.Groups))
	}
	g := merged.Groups[1]
	if g.TextureIdx != 1 || g.StartIndex != 3 {
		t.Errorf("second group = %+v, want TextureIdx 1 StartIndex 3", g)
	}
	if merged.Indices[3] != 3 {
		t.Errorf("second piece index = %d, want rebased to 3", merged.Indices[3])
	}
	if merged.Bounds.Max[0] != 11 || merged.Bounds.Min[0] != 0 {
		t.Errorf("Bounds X = %v..%v, want 0..11", merged.Bounds.Min[0], merged.Bounds.Max[0])
	}
}

func TestMerge_Nothing(t *testing.T) {
	if got := Merge([]Piece{{}}); got != nil {
		t.Errorf("Merge(empty) = %v, want nil", got)
	}
}

func TestBuildSkeleton(t *testing.T) {
	rsm := &formats.RSM{
		Nodes: []formats.RSMNode{
			identityNode("root", "", [3]float32{0, 2, 0}),
			identityNode("arm", "root", [3]float32{1, 0, 0}),
			identityNode("loop", "loop", [3]float32{}),
		},
	}

	sk := BuildSkeleton(rsm, 0)
	if sk.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", sk.Len())
	}
	if sk.Bones[0].Parent != -1 || sk.Bones[2].Parent != -1 {
		t.Errorf("root parents = %d, %d, want -1", sk.Bones[0].Parent, sk.Bones[2].Parent)
	}
	if sk.Bones[1].Parent != 0 {
		t.Errorf("arm parent = %d, want 0", sk.Bones[1].Parent)
	}
	want := [3]float32{1, -2, 0}
	if sk.Bones[1].Pivot != want {
		t.Errorf("arm pivot = %v, want %v", sk.Bones[1].Pivot, want)
	}
}

func TestSampleScale(t *testing.T) {
	keys := []formats.RSMScaleKeyframe{
		{Frame: 100, Scale: [3]float32{1, 1, 1}},
		{Frame: 200, Scale: [3]float32{3, 1, 1}},
	}
	tests := []struct {
		timeMs float32
		want   float32
	}{
		{0, 1},
		{100, 1},
		{150, 2},
		{200, 3},
		{900, 3},
	}
	for _, tt := range tests {
		if got := sampleScale(keys, tt.timeMs)[0]; !approx(got, tt.want) {
			t.Errorf("sampleScale(%v)[0] = %v, want %v", tt.timeMs, got, tt.want)
		}
	}
	if got := sampleScale(nil, 50); got != [3]float32{1, 1, 1} {
		t.Errorf("sampleScale(nil) = %v, want unit", got)
	}
}

func TestSampleRotation(t *testing.T) {
	s := float32(gomath.Sqrt(0.5))
	keys := []formats.RSMRotKeyframe{
		{Frame: 0, Quaternion: [4]float32{0, 0, 0, 1}},
		{Frame: 1000, Quaternion: [4]float32{0, s, 0, s}},
	}
	if got := sampleRotation(keys, 0); !approx(got.W, 1) || !approx(got.Y, 0) {
		t.Errorf("sampleRotation(0) = %v, want identity", got)
	}
	mid := sampleRotation(keys, 500)
	if want := float32(gomath.Cos(gomath.Pi / 8)); !approx(mid.W, want) {
		t.Errorf("sampleRotation(500).W = %v, want %v", mid.W, want)
	}
}

func TestPoseHierarchy(t *testing.T) {
	root := identityNode("root", "", [3]float32{0, 2, 0})
	root.Offset = [3]float32{5, 0, 0}
	child := identityNode("child", "root", [3]float32{1, 0, 0})
	rsm := &formats.RSM{Nodes: []formats.RSMNode{root, child}}

	p := newPose(rsm, 0)
	// Offset only moves the node's own vertices, not its children.
	if got := p.vertexMatrix(0).TransformPoint([3]float32{}); got != [3]float32{5, 2, 0} {
		t.Errorf("root vertex origin = %v, want [5 2 0]", got)
	}
	if got := p.vertexMatrix(1).TransformPoint([3]float32{}); got != [3]float32{1, 2, 0} {
		t.Errorf("child vertex origin = %v, want [1 2 0]", got)
	}
}

func TestPoseCycle(t *testing.T) {
	rsm := &formats.RSM{Nodes: []formats.RSMNode{
		identityNode("a", "b", [3]float32{1, 0, 0}),
		identityNode("b", "a", [3]float32{0, 1, 0}),
	}}
	p := newPose(rsm, 0)
	// Must terminate; the cut link contributes identity.
	got := p.hierarchy(0).TransformPoint([3]float32{})
	if got != [3]float32{1, 1, 0} {
		t.Errorf("cyclic hierarchy origin = %v, want [1 1 0]", got)
	}
}

func TestBuildSkeleton_Animated(t *testing.T) {
	rsm := triangleRSM()
	rsm.AnimLength = 1000
	rsm.Nodes[0].ScaleKeys = []formats.RSMScaleKeyframe{
		{Frame: 0, Scale: [3]float32{1, 1, 1}},
		{Frame: 1000, Scale: [3]float32{2, 2, 2}},
	}
	if sk := BuildSkeleton(rsm, 500); !sk.Animated || sk.TimeMs != 500 {
		t.Errorf("skeleton = %+v, want animated at 500ms", sk)
	}
}
