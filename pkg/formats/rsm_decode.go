package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Upper bounds on counts read from the file, far above anything shipped.
const (
	maxRSMTextures = 1000
	maxRSMNodes    = 10000
	maxRSMElements = 100000
	maxRSMKeys     = 10000
	maxRSMBoxes    = 1000
)

// ParseRSM decodes an RSM file.
func ParseRSM(data []byte) (*RSM, error) {
	r := &rsmReader{data: data}

	magic := r.bytes(4)
	if r.err != nil {
		return nil, r.err
	}
	if string(magic) != rsmMagic {
		return nil, ErrInvalidRSMMagic
	}

	rsm := &RSM{Alpha: 1}
	rsm.Version = RSMVersion{Major: r.u8(), Minor: r.u8()}
	if r.err == nil && !rsm.Version.supported() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}
	v := rsm.Version

	rsm.AnimLength = r.i32()
	rsm.Shading = RSMShadingType(r.i32())
	if v.AtLeast(1, 4) {
		rsm.Alpha = float32(r.u8()) / 255
	}
	r.bytes(16) // reserved

	rsm.Textures = make([]string, r.count("textures", maxRSMTextures))
	for i := range rsm.Textures {
		rsm.Textures[i] = r.name()
	}
	rsm.RootNode = r.name()

	rsm.Nodes = make([]RSMNode, r.count("nodes", maxRSMNodes))
	for i := range rsm.Nodes {
		r.node(&rsm.Nodes[i], v)
		if r.err != nil {
			return nil, fmt.Errorf("node %d: %w", i, r.err)
		}
	}
	if r.err != nil {
		return nil, r.err
	}

	// Volume boxes are optional trailing data; a damaged tail is dropped.
	if len(r.data)-r.off >= 4 {
		boxes := r.volumeBoxes(v)
		if r.err == nil {
			rsm.VolumeBoxes = boxes
		}
	}
	return rsm, nil
}

// rsmReader is a little-endian cursor with a sticky error: once a read runs
// past the end every later read returns zero values.
type rsmReader struct {
	data []byte
	off  int
	err  error
}

func (r *rsmReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n > len(r.data)-r.off {
		r.err = ErrTruncatedRSMData
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *rsmReader) u8() uint8 {
	if b := r.bytes(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *rsmReader) u16() uint16 {
	if b := r.bytes(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *rsmReader) i32() int32 {
	if b := r.bytes(4); b != nil {
		return int32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func (r *rsmReader) f32() float32 {
	if b := r.bytes(4); b != nil {
		return math.Float32frombits(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func (r *rsmReader) vec3() [3]float32 {
	return [3]float32{r.f32(), r.f32(), r.f32()}
}

func (r *rsmReader) name() string {
	b := r.bytes(rsmNameLen)
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// count reads a length prefix and checks it against limit.
func (r *rsmReader) count(what string, limit int) int {
	n := r.i32()
	if r.err != nil {
		return 0
	}
	if n < 0 || int(n) > limit {
		r.err = fmt.Errorf("%w: %d %s", ErrInvalidRSMCount, n, what)
		return 0
	}
	return int(n)
}

func (r *rsmReader) node(n *RSMNode, v RSMVersion) {
	n.Name = r.name()
	n.Parent = r.name()

	if c := r.count("texture ids", maxRSMTextures); c > 0 {
		n.TextureIDs = make([]int32, c)
		for i := range n.TextureIDs {
			n.TextureIDs[i] = r.i32()
		}
	}

	for i := range n.Matrix {
		n.Matrix[i] = r.f32()
	}
	n.Offset = r.vec3()
	n.Position = r.vec3()
	n.RotAngle = r.f32()
	n.RotAxis = r.vec3()
	n.Scale = r.vec3()

	if c := r.count("vertices", maxRSMElements); c > 0 {
		n.Vertices = make([][3]float32, c)
		for i := range n.Vertices {
			n.Vertices[i] = r.vec3()
		}
	}

	if c := r.count("texcoords", maxRSMElements); c > 0 {
		n.TexCoords = make([]RSMTexCoord, c)
		for i := range n.TexCoords {
			tc := &n.TexCoords[i]
			tc.Color = [4]uint8{255, 255, 255, 255}
			if v.AtLeast(1, 2) {
				copy(tc.Color[:], r.bytes(4))
			}
			tc.U = r.f32()
			tc.V = r.f32()
		}
	}

	if c := r.count("faces", maxRSMElements); c > 0 {
		n.Faces = make([]RSMFace, c)
		for i := range n.Faces {
			f := &n.Faces[i]
			for k := range f.VertexIDs {
				f.VertexIDs[k] = r.u16()
			}
			for k := range f.TexCoordIDs {
				f.TexCoordIDs[k] = r.u16()
			}
			f.TextureID = r.u16()
			f.Padding = r.u16()
			f.TwoSide = r.i32()
			if v.AtLeast(1, 2) {
				f.SmoothGroup = r.i32()
			}
		}
	}

	if !v.AtLeast(1, 5) {
		if c := r.count("position keys", maxRSMKeys); c > 0 {
			n.PosKeys = make([]RSMPosKeyframe, c)
			for i := range n.PosKeys {
				n.PosKeys[i] = RSMPosKeyframe{Frame: r.i32(), Position: r.vec3()}
			}
		}
	}

	if c := r.count("rotation keys", maxRSMKeys); c > 0 {
		n.RotKeys = make([]RSMRotKeyframe, c)
		for i := range n.RotKeys {
			k := &n.RotKeys[i]
			k.Frame = r.i32()
			for j := range k.Quaternion {
				k.Quaternion[j] = r.f32()
			}
		}
	}

	if v.AtLeast(1, 5) {
		if c := r.count("scale keys", maxRSMKeys); c > 0 {
			n.ScaleKeys = make([]RSMScaleKeyframe, c)
			for i := range n.ScaleKeys {
				n.ScaleKeys[i] = RSMScaleKeyframe{Frame: r.i32(), Scale: r.vec3()}
			}
		}
	}
}

func (r *rsmReader) volumeBoxes(v RSMVersion) []RSMVolumeBox {
	c := r.count("volume boxes", maxRSMBoxes)
	if c == 0 {
		return nil
	}
	boxes := make([]RSMVolumeBox, c)
	for i := range boxes {
		b := &boxes[i]
		b.Size = r.vec3()
		b.Position = r.vec3()
		b.Rotation = r.vec3()
		if v.AtLeast(1, 3) {
			b.Flag = r.i32()
		}
	}
	return boxes
}
