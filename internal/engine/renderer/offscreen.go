package renderer

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-thumbnails/internal/engine/camera"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/framebuffer"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/lighting"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/model"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/preview"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/shader"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/texture"
	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

// vertexStride is the size of model.Vertex in bytes.
const vertexStride = 8 * 4

// Offscreen renders a single mesh into a framebuffer. It implements
// preview.Backend.
type Offscreen struct {
	log *zap.Logger
	fb  *framebuffer.Framebuffer

	program *shader.Program

	vao, vbo, ebo uint32
	groups        []model.TextureGroup
	textures      []uint32
	fallbackTex   uint32

	rig        lighting.Rig
	clearColor [4]float32
}

var _ preview.Backend = (*Offscreen)(nil)

// OffscreenOptions configures a new Offscreen.
type OffscreenOptions struct {
	Width, Height int
	// ClearColor is the RGBA background. The zero value is transparent.
	ClearColor [4]float32
	Logger     *zap.Logger
}

// NewOffscreen compiles the model shader and allocates the render target.
// The OpenGL context must be current and Init must have succeeded.
func NewOffscreen(opts OffscreenOptions) (*Offscreen, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	o := &Offscreen{
		log:        log.Named("renderer"),
		rig:        lighting.DefaultRig(),
		clearColor: opts.ClearColor,
	}

	fb, err := framebuffer.New(int32(opts.Width), int32(opts.Height))
	if err != nil {
		return nil, err
	}
	o.fb = fb

	o.program, err = shader.NewProgram(vertexShaderSource, fragmentShaderSource)
	if err != nil {
		o.Destroy()
		return nil, fmt.Errorf("compiling model shader: %w", err)
	}

	o.fallbackTex = uploadTexture(texture.White())

	w, h := fb.Size()
	o.log.Debug("offscreen target created", zap.Int32("width", w), zap.Int32("height", h))

	return o, nil
}

// Resize reallocates the render target.
func (o *Offscreen) Resize(width, height int) {
	o.fb.Resize(int32(width), int32(height))
}

// Size returns the render target dimensions.
func (o *Offscreen) Size() (width, height int) {
	w, h := o.fb.Size()
	return int(w), int(h)
}

// SetMesh uploads mesh and its textures, replacing any resident mesh.
func (o *Offscreen) SetMesh(mesh *model.Mesh, textures []*image.RGBA) {
	o.ClearMesh()
	if mesh == nil || len(mesh.Vertices) == 0 || len(mesh.Indices) == 0 {
		return
	}

	gl.GenVertexArrays(1, &o.vao)
	gl.BindVertexArray(o.vao)

	gl.GenBuffers(1, &o.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*vertexStride, gl.Ptr(mesh.Vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &o.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, o.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)

	// Position
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, vertexStride, 0)
	gl.EnableVertexAttribArray(0)
	// Normal
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, vertexStride, 12)
	gl.EnableVertexAttribArray(1)
	// TexCoord
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, vertexStride, 24)
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)

	o.groups = append(o.groups[:0], mesh.Groups...)
	o.textures = make([]uint32, len(textures))
	for i, img := range textures {
		if img != nil {
			o.textures[i] = uploadTexture(img)
		}
	}

	o.log.Debug("mesh uploaded",
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("triangles", mesh.TriangleCount()),
		zap.Int("textures", len(textures)),
	)
}

// ClearMesh releases the resident mesh and its textures.
func (o *Offscreen) ClearMesh() {
	if o.vao != 0 {
		gl.DeleteVertexArrays(1, &o.vao)
		o.vao = 0
	}
	if o.vbo != 0 {
		gl.DeleteBuffers(1, &o.vbo)
		o.vbo = 0
	}
	if o.ebo != 0 {
		gl.DeleteBuffers(1, &o.ebo)
		o.ebo = 0
	}
	for i := range o.textures {
		if o.textures[i] != 0 {
			gl.DeleteTextures(1, &o.textures[i])
		}
	}
	o.textures = nil
	o.groups = o.groups[:0]
}

// SetLighting stores the rig used by subsequent draws.
func (o *Offscreen) SetLighting(rig lighting.Rig) {
	o.rig = rig
}

// Draw clears the target and draws the resident mesh.
func (o *Offscreen) Draw(view camera.View, transform math.Mat4) {
	restore := o.fb.BindWithViewport()
	defer restore()

	c := o.clearColor
	o.fb.Clear(c[0], c[1], c[2], c[3])
	if o.vao == 0 {
		return
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Disable(gl.CULL_FACE)

	p := o.program
	p.Use()
	p.SetMat4("uModel", transform)
	p.SetMat4("uView", view.Matrix)
	p.SetMat4("uProjection", view.Projection)
	p.SetVec3("uLightDir", o.rig.LightDir())
	p.SetVec3("uAmbient", o.rig.Ambient())
	p.SetVec3("uDiffuse", o.rig.Diffuse())
	p.SetInt("uTexture", 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindVertexArray(o.vao)
	for _, group := range o.groups {
		gl.BindTexture(gl.TEXTURE_2D, o.textureFor(group.TextureIdx))
		gl.DrawElementsWithOffset(gl.TRIANGLES, group.IndexCount, gl.UNSIGNED_INT, uintptr(group.StartIndex*4))
	}
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

func (o *Offscreen) textureFor(idx int) uint32 {
	if idx >= 0 && idx < len(o.textures) && o.textures[idx] != 0 {
		return o.textures[idx]
	}
	return o.fallbackTex
}

// Flush blocks until queued GPU commands have completed.
func (o *Offscreen) Flush() {
	gl.Finish()
}

// ReadImage copies the render target, top row first.
func (o *Offscreen) ReadImage() *image.RGBA {
	return o.fb.ReadImage()
}

// Destroy releases every GPU object owned by o.
func (o *Offscreen) Destroy() {
	o.ClearMesh()
	if o.fallbackTex != 0 {
		gl.DeleteTextures(1, &o.fallbackTex)
		o.fallbackTex = 0
	}
	if o.program != nil {
		o.program.Delete()
		o.program = nil
	}
	if o.fb != nil {
		o.fb.Destroy()
		o.fb = nil
	}
}

// uploadTexture creates a mipmapped texture from img. Empty images upload
// as white.
func uploadTexture(img *image.RGBA) uint32 {
	if img == nil || img.Rect.Empty() || len(img.Pix) == 0 {
		img = texture.White()
	}
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
		int32(img.Rect.Dx()), int32(img.Rect.Dy()),
		0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return tex
}
