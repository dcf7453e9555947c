// Package lighting describes the fixed light rig used by the preview scene.
package lighting

import (
	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

// Shader scale factors. Intensities are kept in the units the rig is
// configured with; these map them to the 0-1 range the model shader expects.
const (
	diffuseScale float32 = 0.16
	ambientScale float32 = 0.25
)

// Directional is a light infinitely far away.
type Directional struct {
	// Rotation is the direction the light travels.
	Rotation  math.Rotator
	Intensity float32
	Color     [3]float32
}

// Sky is the ambient term: sky light scaled by the atmosphere tint.
type Sky struct {
	Intensity float32
	Tint      [3]float32
}

// Rig is the complete lighting state of a preview scene.
type Rig struct {
	Sun Directional
	Sky Sky
}

// DefaultRig returns a key light from above and behind the framed camera
// position, plus a neutral sky.
func DefaultRig() Rig {
	return Rig{
		Sun: Directional{
			Rotation:  math.Rotator{Pitch: -45},
			Intensity: 5,
			Color:     [3]float32{1, 1, 1},
		},
		Sky: Sky{
			Intensity: 2,
			Tint:      [3]float32{0.85, 0.9, 1},
		},
	}
}

// LightDir returns the unit vector pointing from the scene toward the light.
func (r Rig) LightDir() [3]float32 {
	return r.Sun.Rotation.Vector().Neg().Normalize().Array()
}

// Diffuse returns the shader diffuse color.
func (r Rig) Diffuse() [3]float32 {
	return scaled(r.Sun.Color, r.Sun.Intensity*diffuseScale)
}

// Ambient returns the shader ambient color.
func (r Rig) Ambient() [3]float32 {
	return scaled(r.Sky.Tint, r.Sky.Intensity*ambientScale)
}

func scaled(c [3]float32, s float32) [3]float32 {
	out := [3]float32{c[0] * s, c[1] * s, c[2] * s}
	for i := range out {
		if out[i] > 1 {
			out[i] = 1
		}
		if out[i] < 0 {
			out[i] = 0
		}
	}
	return out
}
