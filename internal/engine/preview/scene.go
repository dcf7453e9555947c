// Package preview implements the offscreen scene assets are rendered in
// for thumbnails.
package preview

import (
	"image"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-thumbnails/internal/asset"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/camera"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/lighting"
	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

// DefaultTargetSize is the render target edge length of a new scene.
const DefaultTargetSize = 128

// Options configures a Scene.
type Options struct {
	// Width and Height are the initial render target size.
	Width, Height int
	// FOV is the perspective field of view in degrees.
	FOV    float32
	Rig    lighting.Rig
	Logger *zap.Logger
}

func (o *Options) setDefaults() {
	if o.Width <= 0 {
		o.Width = DefaultTargetSize
	}
	if o.Height <= 0 {
		o.Height = DefaultTargetSize
	}
	if o.FOV <= 0 {
		o.FOV = camera.DefaultFOV
	}
	if o.Rig == (lighting.Rig{}) {
		o.Rig = lighting.DefaultRig()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Scene is a hidden scene holding one camera, one asset and a light rig.
// It is not safe for concurrent use.
type Scene struct {
	backend Backend
	log     *zap.Logger
	cam     *camera.Camera
	rig     lighting.Rig

	asset  asset.Asset
	offset math.Vec3

	renderDirty   Counter
	lightingDirty Counter

	lightsReady bool
	playing     bool
	destroyed   bool

	time   float64
	frames uint64
	view   camera.View
}

// New creates a scene drawing through backend.
func New(backend Backend, opts Options) *Scene {
	opts.setDefaults()

	cam := camera.New()
	cam.FOV = opts.FOV
	cam.Apply(camera.FallbackFraming())

	s := &Scene{
		backend: backend,
		log:     opts.Logger.Named("preview"),
		cam:     cam,
		rig:     opts.Rig,
	}
	if w, h := backend.Size(); w != opts.Width || h != opts.Height {
		backend.Resize(opts.Width, opts.Height)
	}
	s.view = camera.NewView(s.cam, opts.Width, opts.Height)
	return s
}

// Bind makes a the resident asset, replacing the previous one. The asset is
// moved so its bounds origin sits at the scene origin and the camera is
// reframed around it. Binding the resident asset again does nothing; nil
// clears the scene.
func (s *Scene) Bind(a asset.Asset) {
	if s.destroyed || a == s.asset {
		return
	}

	s.backend.ClearMesh()
	s.asset = a
	s.offset = math.Vec3{}

	if a != nil {
		bounds := a.Bounds()
		s.offset = bounds.Origin().Neg()
		s.backend.SetMesh(a.Mesh(), a.Textures())

		framing := camera.FrameRadius(bounds.SphereRadius())
		if framing.Degenerate() {
			s.log.Warn("degenerate bounds, using fallback framing",
				zap.String("asset", a.Name()),
				zap.Float32("radius", framing.Radius),
			)
			framing = camera.FallbackFraming()
		}
		s.cam.Apply(framing)

		s.log.Debug("asset bound",
			zap.String("asset", a.Name()),
			zap.Stringer("kind", a.Kind()),
			zap.Float32("radius", framing.Radius),
		)
	}

	s.MarkRenderDirty(DefaultDirtyFrames)
	s.MarkLightingDirty(DefaultDirtyFrames)
}

// Asset returns the resident asset, or nil.
func (s *Scene) Asset() asset.Asset {
	return s.asset
}

// Resize changes the render target size. Unchanged sizes are ignored.
func (s *Scene) Resize(width, height int) {
	if s.destroyed {
		return
	}
	if w, h := s.backend.Size(); w == width && h == height {
		return
	}
	s.backend.Resize(width, height)
	s.MarkLightingDirty(DefaultDirtyFrames)
	s.MarkRenderDirty(DefaultDirtyFrames)
}

// Size returns the render target size.
func (s *Scene) Size() (width, height int) {
	return s.backend.Size()
}

// MarkRenderDirty requests at least frames more captured frames.
func (s *Scene) MarkRenderDirty(frames int) {
	s.renderDirty.Mark(frames)
}

// MarkLightingDirty requests at least frames more lighting refreshes.
func (s *Scene) MarkLightingDirty(frames int) {
	s.lightingDirty.Mark(frames)
}

// RenderDirty returns the remaining render settle frames.
func (s *Scene) RenderDirty() int { return int(s.renderDirty) }

// LightingDirty returns the remaining lighting settle frames.
func (s *Scene) LightingDirty() int { return int(s.lightingDirty) }

// AdvanceFrame runs exactly one frame: lighting setup on first use, a
// lighting refresh while lighting is dirty, the scene tick, the capture
// into the render target and the flush of queued GPU work.
func (s *Scene) AdvanceFrame(dt float64) {
	if s.destroyed {
		return
	}

	if !s.lightsReady {
		s.lightsReady = true
		s.MarkLightingDirty(DefaultDirtyFrames)
	}
	if !s.playing {
		s.playing = true
		s.log.Debug("scene started")
	}

	capture := s.renderDirty.Dirty() || s.lightingDirty.Dirty()

	if s.lightingDirty.Dirty() {
		s.backend.SetLighting(s.rig)
		s.lightingDirty.Step()
	}

	s.time += dt
	s.renderDirty.Step()
	// Collections are re-dirtied every frame.
	if s.asset != nil && s.asset.Kind() == asset.KindCollection {
		s.renderDirty.Mark(1)
	}

	w, h := s.backend.Size()
	s.view = camera.NewView(s.cam, w, h)
	if capture {
		s.backend.Draw(s.view, math.Translate(s.offset.X, s.offset.Y, s.offset.Z))
	}
	s.backend.Flush()
	s.frames++
}

// Frames returns the number of frames advanced.
func (s *Scene) Frames() uint64 { return s.frames }

// Time returns the accumulated scene time in seconds.
func (s *Scene) Time() float64 { return s.time }

// ExtractTexture copies the render target into a new image of the render
// target's size.
func (s *Scene) ExtractTexture() *image.RGBA {
	if s.destroyed {
		w, h := s.view.Width, s.view.Height
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return s.backend.ReadImage()
}

// SetProjection switches between perspective and orthographic capture.
func (s *Scene) SetProjection(p camera.Projection) {
	if s.cam.Projection == p {
		return
	}
	s.cam.Projection = p
	s.MarkRenderDirty(DefaultDirtyFrames)
}

// Projection returns the capture projection.
func (s *Scene) Projection() camera.Projection { return s.cam.Projection }

// SetFOV sets the perspective field of view in degrees.
func (s *Scene) SetFOV(deg float32) {
	if deg <= 0 || deg >= 180 || s.cam.FOV == deg {
		return
	}
	s.cam.FOV = deg
	s.MarkRenderDirty(DefaultDirtyFrames)
}

// CameraLocation returns the camera position in scene space.
func (s *Scene) CameraLocation() math.Vec3 {
	return s.cam.Position
}

// ProjectWorldToScreen maps a scene position to render target pixels using
// the last captured view.
func (s *Scene) ProjectWorldToScreen(p math.Vec3) (x, y float32, ok bool) {
	return s.view.Project(p)
}

// DeprojectScreenToWorld returns the ray through a render target pixel
// using the last captured view.
func (s *Scene) DeprojectScreenToWorld(x, y float32) (origin, dir math.Vec3) {
	return s.view.Deproject(x, y)
}

// Teardown releases the asset, lights and GPU objects. Calling it again
// does nothing.
func (s *Scene) Teardown() {
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.asset = nil
	s.backend.ClearMesh()
	s.backend.Destroy()
	s.lightsReady = false
	s.playing = false
	s.renderDirty = 0
	s.lightingDirty = 0
	s.log.Debug("scene torn down", zap.Uint64("frames", s.frames))
}

// Destroyed reports whether Teardown has run.
func (s *Scene) Destroyed() bool { return s.destroyed }
