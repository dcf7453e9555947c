package asset

import (
	"bytes"
	"errors"
	"fmt"
	gomath "math"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

// ErrEmptyCollection is returned for manifests without pieces.
var ErrEmptyCollection = errors.New("collection has no pieces")

// Manifest describes a geometry collection.
//
//	name: prontera_fountain
//	pieces:
//	  - model: prontera/fountain.rsm
//	  - model: prontera/statue.rsm
//	    position: [0, 12, 0]
//	    rotation: [0, 90, 0]
//	    scale: [0.5, 0.5, 0.5]
type Manifest struct {
	Name   string          `yaml:"name"`
	Pieces []ManifestPiece `yaml:"pieces"`
}

// ManifestPiece places one model. Rotation is in degrees, applied Y then X
// then Z. A zero scale means 1.
type ManifestPiece struct {
	Model    string     `yaml:"model"`
	Position [3]float32 `yaml:"position"`
	Rotation [3]float32 `yaml:"rotation"`
	Scale    [3]float32 `yaml:"scale"`
}

// ParseManifest decodes and validates a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(m.Pieces) == 0 {
		return nil, ErrEmptyCollection
	}
	for i := range m.Pieces {
		p := &m.Pieces[i]
		if p.Model == "" {
			return nil, fmt.Errorf("piece %d: missing model", i)
		}
		if p.Scale == ([3]float32{}) {
			p.Scale = [3]float32{1, 1, 1}
		}
	}
	return &m, nil
}

// Matrix returns the piece's placement transform.
func (p ManifestPiece) Matrix() math.Mat4 {
	const deg = gomath.Pi / 180
	m := math.Translate(p.Position[0], p.Position[1], p.Position[2])
	m = m.Mul(math.RotateY(p.Rotation[1] * deg))
	m = m.Mul(math.RotateX(p.Rotation[0] * deg))
	m = m.Mul(math.RotateZ(p.Rotation[2] * deg))
	return m.Mul(math.Scale(p.Scale[0], p.Scale[1], p.Scale[2]))
}

// Mirrored reports whether the scale flips handedness.
func (p ManifestPiece) Mirrored() bool {
	return p.Scale[0]*p.Scale[1]*p.Scale[2] < 0
}
