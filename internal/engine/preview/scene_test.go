package preview

import (
	"image"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/midgard-thumbnails/internal/asset"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/camera"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/lighting"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/model"
	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

type fakeBackend struct {
	width, height int

	resizes   int
	setMeshes int
	clears    int
	lightings int
	draws     int
	flushes   int
	destroys  int

	mesh          *model.Mesh
	lastView      camera.View
	lastTransform math.Mat4
}

func (f *fakeBackend) Resize(w, h int) {
	f.width, f.height = w, h
	f.resizes++
}

func (f *fakeBackend) Size() (int, int) { return f.width, f.height }

func (f *fakeBackend) SetMesh(m *model.Mesh, _ []*image.RGBA) {
	f.mesh = m
	f.setMeshes++
}

func (f *fakeBackend) ClearMesh() {
	f.mesh = nil
	f.clears++
}

func (f *fakeBackend) SetLighting(lighting.Rig) { f.lightings++ }

func (f *fakeBackend) Draw(v camera.View, t math.Mat4) {
	f.lastView, f.lastTransform = v, t
	f.draws++
}

func (f *fakeBackend) Flush() { f.flushes++ }

func (f *fakeBackend) ReadImage() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, f.width, f.height))
}

func (f *fakeBackend) Destroy() { f.destroys++ }

func boxMesh(min, max [3]float32) *model.Mesh {
	return &model.Mesh{
		Vertices: []model.Vertex{{Position: min}, {Position: max}, {Position: [3]float32{min[0], max[1], min[2]}}},
		Indices:  []uint32{0, 1, 2},
		Groups:   []model.TextureGroup{{IndexCount: 3}},
		Bounds:   model.Bounds{Min: min, Max: max},
	}
}

func newScene(t *testing.T) (*Scene, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	return New(fb, Options{Logger: zaptest.NewLogger(t)}), fb
}

func TestNew_Defaults(t *testing.T) {
	s, fb := newScene(t)
	if w, h := s.Size(); w != DefaultTargetSize || h != DefaultTargetSize {
		t.Errorf("Size() = %dx%d, want %dx%d", w, h, DefaultTargetSize, DefaultTargetSize)
	}
	if fb.resizes != 1 {
		t.Errorf("resizes = %d, want 1", fb.resizes)
	}
	if s.Projection() != camera.Perspective {
		t.Errorf("Projection() = %v, want perspective", s.Projection())
	}
	if s.RenderDirty() != 0 || s.LightingDirty() != 0 {
		t.Errorf("new scene dirty = %d/%d, want 0/0", s.RenderDirty(), s.LightingDirty())
	}
}

func TestCounter(t *testing.T) {
	var c Counter
	c.Mark(3)
	c.Mark(1)
	if c != 3 {
		t.Errorf("Mark(1) after Mark(3) = %d, want 3", c)
	}
	c.Step()
	c.Mark(2)
	if c != 2 {
		t.Errorf("counter = %d, want 2", c)
	}
	c.Step()
	c.Step()
	c.Step()
	if c.Dirty() || c != 0 {
		t.Errorf("counter = %d after draining, want 0", c)
	}
}

func TestBind_RecentersAndFrames(t *testing.T) {
	s, fb := newScene(t)
	a := asset.NewStaticMesh("box", boxMesh([3]float32{10, 0, 0}, [3]float32{14, 4, 4}), nil)

	s.Bind(a)

	if fb.setMeshes != 1 || fb.mesh != a.Mesh() {
		t.Fatalf("mesh not uploaded: setMeshes=%d", fb.setMeshes)
	}
	if s.RenderDirty() != DefaultDirtyFrames || s.LightingDirty() != DefaultDirtyFrames {
		t.Errorf("dirty = %d/%d, want %d/%d", s.RenderDirty(), s.LightingDirty(), DefaultDirtyFrames, DefaultDirtyFrames)
	}

	want := camera.FrameRadius(a.Bounds().SphereRadius()).Position
	if got := s.CameraLocation(); got != want {
		t.Errorf("CameraLocation() = %v, want %v", got, want)
	}

	s.AdvanceFrame(1.0 / 60)
	center := fb.lastTransform.TransformVec3(a.Bounds().Origin())
	if center.Length() > 1e-5 {
		t.Errorf("bounds origin drawn at %v, want scene origin", center)
	}
}

func TestBind_SameAssetIsNoop(t *testing.T) {
	s, fb := newScene(t)
	a := asset.NewStaticMesh("box", boxMesh([3]float32{0, 0, 0}, [3]float32{1, 1, 1}), nil)

	s.Bind(a)
	lighting := s.LightingDirty()
	s.AdvanceFrame(0.016)
	afterFrame := s.LightingDirty()

	s.Bind(a)
	if s.LightingDirty() != afterFrame {
		t.Errorf("rebind changed lighting dirty %d -> %d", afterFrame, s.LightingDirty())
	}
	if s.LightingDirty() > lighting {
		t.Errorf("lighting dirty %d above single-bind value %d", s.LightingDirty(), lighting)
	}
	if fb.setMeshes != 1 || fb.clears != 1 {
		t.Errorf("setMeshes=%d clears=%d, want 1/1", fb.setMeshes, fb.clears)
	}
}

func TestBind_ReplacesPrevious(t *testing.T) {
	s, fb := newScene(t)
	first := asset.NewStaticMesh("a", boxMesh([3]float32{}, [3]float32{1, 1, 1}), nil)
	second := asset.NewSkeletalMesh("b", boxMesh([3]float32{}, [3]float32{2, 2, 2}), nil, &model.Skeleton{})

	s.Bind(first)
	s.Bind(second)

	if s.Asset() != second || fb.mesh != second.Mesh() {
		t.Error("second bind did not replace the resident asset")
	}
	if fb.clears != 2 {
		t.Errorf("clears = %d, want 2", fb.clears)
	}

	s.Bind(nil)
	if s.Asset() != nil || fb.mesh != nil {
		t.Error("Bind(nil) should clear the scene")
	}
}

func TestBind_DegenerateUsesFallback(t *testing.T) {
	s, _ := newScene(t)
	point := asset.NewStaticMesh("dot", boxMesh([3]float32{5, 5, 5}, [3]float32{5, 5, 5}), nil)

	s.Bind(point)

	if got, want := s.CameraLocation(), camera.FallbackFraming().Position; got != want {
		t.Errorf("CameraLocation() = %v, want fallback %v", got, want)
	}
}

func TestResize(t *testing.T) {
	s, fb := newScene(t)

	s.Resize(DefaultTargetSize, DefaultTargetSize)
	if fb.resizes != 1 || s.RenderDirty() != 0 {
		t.Errorf("same-size resize: resizes=%d dirty=%d", fb.resizes, s.RenderDirty())
	}

	s.Resize(320, 200)
	if fb.resizes != 2 {
		t.Errorf("resizes = %d, want 2", fb.resizes)
	}
	if w, h := s.Size(); w != 320 || h != 200 {
		t.Errorf("Size() = %dx%d, want 320x200", w, h)
	}
	if s.RenderDirty() != DefaultDirtyFrames || s.LightingDirty() != DefaultDirtyFrames {
		t.Errorf("dirty after resize = %d/%d", s.RenderDirty(), s.LightingDirty())
	}
	if img := s.ExtractTexture(); img.Bounds().Dx() != 320 || img.Bounds().Dy() != 200 {
		t.Errorf("ExtractTexture() size = %v", img.Bounds())
	}
}

func TestAdvanceFrame_Settles(t *testing.T) {
	s, fb := newScene(t)
	s.Bind(asset.NewStaticMesh("box", boxMesh([3]float32{}, [3]float32{1, 1, 1}), nil))

	for i := 0; i < 12; i++ {
		s.AdvanceFrame(0.5)
	}

	if s.RenderDirty() != 0 || s.LightingDirty() != 0 {
		t.Errorf("dirty after settling = %d/%d", s.RenderDirty(), s.LightingDirty())
	}
	if fb.draws != DefaultDirtyFrames {
		t.Errorf("draws = %d, want %d (only while dirty)", fb.draws, DefaultDirtyFrames)
	}
	if fb.lightings != DefaultDirtyFrames {
		t.Errorf("lighting refreshes = %d, want %d", fb.lightings, DefaultDirtyFrames)
	}
	if fb.flushes != 12 || s.Frames() != 12 {
		t.Errorf("flushes=%d frames=%d, want 12", fb.flushes, s.Frames())
	}
	if s.Time() != 6 {
		t.Errorf("Time() = %v, want 6", s.Time())
	}
}

func TestAdvanceFrame_CollectionStaysDirty(t *testing.T) {
	s, fb := newScene(t)
	s.Bind(asset.NewGeometryCollection("set", boxMesh([3]float32{}, [3]float32{1, 1, 1}), nil, nil))

	for i := 0; i < 5; i++ {
		s.AdvanceFrame(0.1)
	}
	if !s.renderDirty.Dirty() {
		t.Error("collection scene should stay render dirty")
	}
	if fb.draws != 5 {
		t.Errorf("draws = %d, want 5", fb.draws)
	}
}

func TestProjectionAndFOV(t *testing.T) {
	s, _ := newScene(t)
	s.Bind(asset.NewStaticMesh("box", boxMesh([3]float32{-1, -1, -1}, [3]float32{1, 1, 1}), nil))
	s.AdvanceFrame(0)
	s.AdvanceFrame(0)

	s.SetProjection(camera.Orthographic)
	if s.Projection() != camera.Orthographic || s.RenderDirty() != DefaultDirtyFrames {
		t.Errorf("SetProjection: projection=%v dirty=%d", s.Projection(), s.RenderDirty())
	}

	s.SetFOV(0)
	s.SetFOV(200)
	if s.cam.FOV != camera.DefaultFOV {
		t.Errorf("invalid FOV accepted: %v", s.cam.FOV)
	}
	s.SetFOV(45)
	if s.cam.FOV != 45 {
		t.Errorf("FOV = %v, want 45", s.cam.FOV)
	}

	s.AdvanceFrame(0)
	x, y, ok := s.ProjectWorldToScreen(math.Vec3{})
	if !ok || x < 63.99 || x > 64.01 || y < 63.99 || y > 64.01 {
		t.Errorf("ProjectWorldToScreen(origin) = (%v, %v, %v), want (64, 64, true)", x, y, ok)
	}
	_, dir := s.DeprojectScreenToWorld(64, 64)
	toOrigin := s.CameraLocation().Neg().Normalize()
	if dir.Sub(toOrigin).Length() > 1e-3 {
		t.Errorf("DeprojectScreenToWorld(center) = %v, want %v", dir, toOrigin)
	}
}

func TestTeardown_Idempotent(t *testing.T) {
	s, fb := newScene(t)
	s.Bind(asset.NewStaticMesh("box", boxMesh([3]float32{}, [3]float32{1, 1, 1}), nil))

	s.Teardown()
	s.Teardown()

	if fb.destroys != 1 {
		t.Errorf("destroys = %d, want 1", fb.destroys)
	}
	if !s.Destroyed() || s.Asset() != nil {
		t.Error("scene still holds its asset after teardown")
	}

	s.AdvanceFrame(1)
	s.Bind(asset.NewStaticMesh("other", boxMesh([3]float32{}, [3]float32{1, 1, 1}), nil))
	if fb.flushes != 0 || fb.setMeshes != 1 {
		t.Errorf("torn down scene still used the backend: flushes=%d setMeshes=%d", fb.flushes, fb.setMeshes)
	}
}
