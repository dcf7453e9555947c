package thumbnail

import (
	"image"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/Faultbox/midgard-thumbnails/internal/asset"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/camera"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/lighting"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/model"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/preview"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/ticker"
	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

// memBackend is a preview.Backend that keeps everything in memory.
type memBackend struct {
	width, height int
	meshes        int
	draws         int
	destroyed     bool
}

func (b *memBackend) Resize(w, h int)                    { b.width, b.height = w, h }
func (b *memBackend) Size() (int, int)                   { return b.width, b.height }
func (b *memBackend) SetMesh(*model.Mesh, []*image.RGBA) { b.meshes++ }
func (b *memBackend) ClearMesh()                         {}
func (b *memBackend) SetLighting(lighting.Rig)           {}
func (b *memBackend) Draw(camera.View, math.Mat4)        { b.draws++ }
func (b *memBackend) Flush()                             {}
func (b *memBackend) Destroy()                           { b.destroyed = true }

func (b *memBackend) ReadImage() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, b.width, b.height))
}

func TestServiceWithPreviewScene(t *testing.T) {
	log := zaptest.NewLogger(t)
	var backends []*memBackend
	var scenes []*preview.Scene
	factory := func() (Scene, error) {
		b := &memBackend{}
		s := preview.New(b, preview.Options{Logger: log})
		backends = append(backends, b)
		scenes = append(scenes, s)
		return s, nil
	}

	svc := New(factory, Options{Logger: log, Order: OrderFIFO})
	tk := ticker.New()
	if err := svc.Start(tk); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	box := asset.NewStaticMesh("box", &model.Mesh{
		Vertices: []model.Vertex{{}, {}, {}},
		Indices:  []uint32{0, 1, 2},
		Bounds: model.Bounds{
			Min: [3]float32{-1, -1, -1},
			Max: [3]float32{1, 1, 1},
		},
	}, nil)

	var sizes [][2]int
	cb := func(img *image.RGBA) {
		sizes = append(sizes, [2]int{img.Bounds().Dx(), img.Bounds().Dy()})
	}
	for _, sz := range [][2]int{{64, 32}, {64, 32}} {
		if _, err := svc.Submit(box, cb, WithSize(sz[0], sz[1])); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	runUntilIdle(t, svc, tk)

	if len(scenes) != 1 {
		t.Fatalf("scenes created = %d, want 1", len(scenes))
	}
	if len(sizes) != 2 || sizes[0] != [2]int{64, 32} || sizes[1] != [2]int{64, 32} {
		t.Errorf("image sizes = %v", sizes)
	}
	if backends[0].meshes != 1 {
		t.Errorf("mesh uploads = %d, want 1 for the same asset", backends[0].meshes)
	}
	if scenes[0].Projection() != camera.Orthographic {
		t.Errorf("projection = %v, want orthographic", scenes[0].Projection())
	}
	if backends[0].draws == 0 {
		t.Error("scene never drew")
	}

	for i := 0; i < 10; i++ {
		tk.Tick(1)
	}
	if !backends[0].destroyed || !scenes[0].Destroyed() {
		t.Error("scene not torn down after the idle timeout")
	}
}
