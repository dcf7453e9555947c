// Package formats reads and writes RSM (Resource Model) files, the 3D model
// format of Ragnarok Online. Versions 1.1 through 2.x of the classic node
// layout are supported.
package formats

import (
	"errors"
	"fmt"
)

// RSM errors.
var (
	ErrInvalidRSMMagic       = errors.New("rsm: bad magic, want GRSM")
	ErrUnsupportedRSMVersion = errors.New("rsm: unsupported version")
	ErrTruncatedRSMData      = errors.New("rsm: truncated data")
	ErrInvalidRSMCount       = errors.New("rsm: count out of range")
)

const rsmMagic = "GRSM"

// rsmNameLen is the fixed width of every name field, NUL padded.
const rsmNameLen = 40

// RSMVersion is the major.minor file version.
type RSMVersion struct {
	Major uint8
	Minor uint8
}

func (v RSMVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v >= major.minor.
func (v RSMVersion) AtLeast(major, minor uint8) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

func (v RSMVersion) supported() bool {
	return v.Major == 1 || v.Major == 2
}

// RSMShadingType selects how normals are generated.
type RSMShadingType int32

const (
	RSMShadingNone RSMShadingType = iota
	RSMShadingFlat
	RSMShadingSmooth
)

func (s RSMShadingType) String() string {
	switch s {
	case RSMShadingNone:
		return "None"
	case RSMShadingFlat:
		return "Flat"
	case RSMShadingSmooth:
		return "Smooth"
	}
	return fmt.Sprintf("Unknown(%d)", int32(s))
}

// RSMTexCoord is a texture coordinate. Color is present from 1.2 on and
// defaults to opaque white before that.
type RSMTexCoord struct {
	Color [4]uint8
	U, V  float32
}

// RSMFace is one triangle. TextureID indexes the owning node's TextureIDs.
type RSMFace struct {
	VertexIDs   [3]uint16
	TexCoordIDs [3]uint16
	TextureID   uint16
	Padding     uint16
	TwoSide     int32
	SmoothGroup int32 // 1.2+
}

// RSMPosKeyframe is a translation key, only stored before 1.5.
type RSMPosKeyframe struct {
	Frame    int32
	Position [3]float32
}

// RSMRotKeyframe is a rotation key; Quaternion is X, Y, Z, W.
type RSMRotKeyframe struct {
	Frame      int32
	Quaternion [4]float32
}

// RSMScaleKeyframe is a scale key, stored from 1.5 on.
type RSMScaleKeyframe struct {
	Frame int32
	Scale [3]float32
}

// RSMNode is one mesh of the model hierarchy. Parent names another node, or
// is empty for a root.
type RSMNode struct {
	Name       string
	Parent     string
	TextureIDs []int32 // indices into RSM.Textures

	Matrix   [9]float32 // column-major 3x3, applied to own vertices only
	Offset   [3]float32 // applied to own vertices only
	Position [3]float32
	RotAngle float32 // radians around RotAxis
	RotAxis  [3]float32
	Scale    [3]float32

	Vertices  [][3]float32
	TexCoords []RSMTexCoord
	Faces     []RSMFace

	PosKeys   []RSMPosKeyframe
	RotKeys   []RSMRotKeyframe
	ScaleKeys []RSMScaleKeyframe
}

// RSMVolumeBox is a collision box trailing the node list.
type RSMVolumeBox struct {
	Size     [3]float32
	Position [3]float32
	Rotation [3]float32
	Flag     int32 // 1.3+
}

// RSM is a decoded model file.
type RSM struct {
	Version     RSMVersion
	AnimLength  int32 // milliseconds
	Shading     RSMShadingType
	Alpha       float32 // 0..1, 1.4+
	Textures    []string
	RootNode    string
	Nodes       []RSMNode
	VolumeBoxes []RSMVolumeBox
}

// HasAnimation reports whether the model animates. A single key per track
// is a static pose.
func (rsm *RSM) HasAnimation() bool {
	if rsm.AnimLength <= 0 {
		return false
	}
	for i := range rsm.Nodes {
		n := &rsm.Nodes[i]
		if len(n.RotKeys) > 1 || len(n.PosKeys) > 1 || len(n.ScaleKeys) > 1 {
			return true
		}
	}
	return false
}
