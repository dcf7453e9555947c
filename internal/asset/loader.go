package asset

import (
	"errors"
	"fmt"
	"image"
	gomath "math"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-thumbnails/internal/engine/model"
	"github.com/Faultbox/midgard-thumbnails/internal/engine/texture"
	"github.com/Faultbox/midgard-thumbnails/pkg/encoding"
	"github.com/Faultbox/midgard-thumbnails/pkg/formats"
)

// ErrEmptyModel is returned for models that produce no triangles.
var ErrEmptyModel = errors.New("model has no renderable faces")

const (
	modelDir   = "data/model/"
	textureDir = "data/texture/"
)

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// ForceTwoSided renders every face from both sides.
	ForceTwoSided bool
	Logger        *zap.Logger
}

// Loader builds assets from a Source. Loaded assets are cached by ref, so
// loading the same ref twice returns the same Asset. Not safe for
// concurrent use.
type Loader struct {
	src   Source
	opts  LoaderOptions
	log   *zap.Logger
	cache map[string]Asset
}

// NewLoader creates a loader reading from src.
func NewLoader(src Source, opts LoaderOptions) *Loader {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		src:   src,
		opts:  opts,
		log:   log.Named("asset"),
		cache: make(map[string]Asset),
	}
}

// Load parses ref and loads the asset it names.
func (l *Loader) Load(ref string) (Asset, error) {
	r, err := ParseRef(ref)
	if err != nil {
		return nil, err
	}
	return l.LoadRef(r)
}

// LoadRef loads the asset r names.
func (l *Loader) LoadRef(r Ref) (Asset, error) {
	key := r.String()
	if a, ok := l.cache[key]; ok {
		return a, nil
	}

	var (
		a   Asset
		err error
	)
	switch r.Kind {
	case KindStatic:
		a, err = l.LoadStatic(r.Path)
	case KindSkeletal:
		a, err = l.LoadSkeletal(r.Path, r.TimeMs)
	case KindCollection:
		a, err = l.LoadCollection(r.Path)
	default:
		err = fmt.Errorf("%w: unknown kind %v", ErrBadRef, r.Kind)
	}
	if err != nil {
		return nil, err
	}

	l.cache[key] = a
	l.log.Debug("asset loaded",
		zap.String("ref", key),
		zap.Int("triangles", a.Mesh().TriangleCount()),
		zap.Float32("radius", a.Bounds().SphereRadius()),
	)
	return a, nil
}

// LoadStatic loads an RSM model at its base pose.
func (l *Loader) LoadStatic(modelPath string) (*StaticMesh, error) {
	rsm, err := l.readModel(modelPath)
	if err != nil {
		return nil, err
	}
	mesh := model.BuildMesh(rsm, l.buildOptions(rsm, false, 0))
	if mesh == nil {
		return nil, fmt.Errorf("loading model %s: %w", modelPath, ErrEmptyModel)
	}
	return NewStaticMesh(modelName(modelPath), mesh, l.loadTextures(rsm)), nil
}

// LoadSkeletal loads an RSM model posed at timeMs. Times past the end of
// the animation wrap around.
func (l *Loader) LoadSkeletal(modelPath string, timeMs float32) (*SkeletalMesh, error) {
	rsm, err := l.readModel(modelPath)
	if err != nil {
		return nil, err
	}
	if rsm.AnimLength > 0 {
		timeMs = float32(gomath.Mod(float64(timeMs), float64(rsm.AnimLength)))
	}
	mesh := model.BuildMesh(rsm, l.buildOptions(rsm, false, timeMs))
	if mesh == nil {
		return nil, fmt.Errorf("loading model %s: %w", modelPath, ErrEmptyModel)
	}
	sk := model.BuildSkeleton(rsm, timeMs)
	return NewSkeletalMesh(modelName(modelPath), mesh, l.loadTextures(rsm), sk), nil
}

// LoadCollection loads a manifest and merges its pieces. Pieces that fail
// to load abort the whole collection.
func (l *Loader) LoadCollection(manifestPath string) (*GeometryCollection, error) {
	data, err := l.read(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("loading manifest %s: %w", manifestPath, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("loading manifest %s: %w", manifestPath, err)
	}

	var (
		parts    []model.Piece
		pieces   []Piece
		textures []*image.RGBA
	)
	for i, p := range m.Pieces {
		rsm, err := l.readModel(p.Model)
		if err != nil {
			return nil, fmt.Errorf("collection %s piece %d: %w", manifestPath, i, err)
		}
		mesh := model.BuildMesh(rsm, l.buildOptions(rsm, p.Mirrored(), 0))
		if mesh == nil {
			l.log.Warn("collection piece has no faces",
				zap.String("collection", manifestPath),
				zap.String("model", p.Model),
			)
			continue
		}
		parts = append(parts, model.Piece{
			Mesh:          mesh.Transform(p.Matrix()),
			TextureOffset: len(textures),
		})
		pieces = append(pieces, Piece{Model: p.Model, Triangles: mesh.TriangleCount()})
		textures = append(textures, l.loadTextures(rsm)...)
	}

	merged := model.Merge(parts)
	if merged == nil {
		return nil, fmt.Errorf("loading manifest %s: %w", manifestPath, ErrEmptyModel)
	}
	name := m.Name
	if name == "" {
		name = modelName(manifestPath)
	}
	return NewGeometryCollection(name, merged, textures, pieces), nil
}

func (l *Loader) buildOptions(rsm *formats.RSM, mirrored bool, timeMs float32) model.BuildOptions {
	return model.BuildOptions{
		ReverseWinding:   mirrored,
		ForceAllTwoSided: l.opts.ForceTwoSided,
		FlatShading:      rsm.Shading == formats.RSMShadingFlat,
		AnimTimeMs:       timeMs,
	}
}

func (l *Loader) readModel(modelPath string) (*formats.RSM, error) {
	data, err := l.read(modelPath)
	if errors.Is(err, ErrNotFound) && !strings.HasPrefix(strings.ToLower(modelPath), "data/") {
		data, err = l.read(modelDir + modelPath)
	}
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", modelPath, err)
	}
	rsm, err := formats.ParseRSM(data)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", modelPath, err)
	}
	return rsm, nil
}

// read reads absolute paths from disk and everything else from the source.
func (l *Loader) read(p string) ([]byte, error) {
	if filepath.IsAbs(p) {
		data, err := os.ReadFile(p)
		if err != nil && isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return data, err
	}
	data, err := l.src.Read(p)
	if err != nil && isNotFound(err) {
		// Archives store Korean names as EUC-KR.
		if name, ok := encoding.ArchiveName(p); ok {
			data, err = l.src.Read(name)
		}
	}
	if err != nil && isNotFound(err) && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p)
	}
	return data, err
}

// loadTextures decodes every texture the model references. Missing or
// undecodable textures become white.
func (l *Loader) loadTextures(rsm *formats.RSM) []*image.RGBA {
	textures := make([]*image.RGBA, len(rsm.Textures))
	for i, name := range rsm.Textures {
		data, err := l.src.Read(textureDir + name)
		if err == nil {
			textures[i], err = texture.Decode(data, name)
		}
		if err != nil {
			l.log.Debug("texture fallback", zap.String("texture", name), zap.Error(err))
			textures[i] = texture.White()
		}
	}
	return textures
}

func modelName(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return encoding.DisplayName(strings.TrimSuffix(path.Base(p), path.Ext(p)))
}
