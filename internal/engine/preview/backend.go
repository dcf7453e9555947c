package preview

import (
	"image"

	"github.com/Faultbox/midgard-thumbnails/internal/engine/camera"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/lighting"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/model"
	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

// Backend owns the GPU objects of a scene: the render target, the uploaded
// mesh and its textures. All methods are called from the goroutine that
// owns the graphics context.
type Backend interface {
	// Resize reallocates the render target.
	Resize(width, height int)
	Size() (width, height int)

	// SetMesh replaces the resident mesh. textures is indexed by
	// TextureGroup.TextureIdx; missing entries draw white.
	SetMesh(mesh *model.Mesh, textures []*image.RGBA)
	ClearMesh()

	// SetLighting uploads the light rig.
	SetLighting(rig lighting.Rig)

	// Draw clears the render target and draws the resident mesh with the
	// given view and model transform.
	Draw(view camera.View, transform math.Mat4)
	// Flush submits all queued GPU work.
	Flush()

	// ReadImage copies the render target, top row first.
	ReadImage() *image.RGBA

	// Destroy releases every GPU object. The backend is unusable afterwards.
	Destroy()
}
