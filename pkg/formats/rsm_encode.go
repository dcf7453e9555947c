package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MarshalBinary encodes the model in the layout ParseRSM reads for its
// version. Names longer than 39 bytes are rejected.
func (rsm *RSM) MarshalBinary() ([]byte, error) {
	v := rsm.Version
	if v.Major < 1 || v.Major > 2 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, v)
	}

	var buf bytes.Buffer
	w := func(data any) {
		binary.Write(&buf, binary.LittleEndian, data)
	}

	buf.WriteString("GRSM")
	w([2]uint8{v.Major, v.Minor})
	w(rsm.AnimLength)
	w(rsm.Shading)
	if v.AtLeast(1, 4) {
		w(uint8(rsm.Alpha * 255))
	}
	buf.Write(make([]byte, 16))

	w(int32(len(rsm.Textures)))
	for _, tex := range rsm.Textures {
		if err := writeString(&buf, tex, 40); err != nil {
			return nil, err
		}
	}
	if err := writeString(&buf, rsm.RootNode, 40); err != nil {
		return nil, err
	}

	w(int32(len(rsm.Nodes)))
	for i := range rsm.Nodes {
		if err := writeRSMNode(&buf, &rsm.Nodes[i], v); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
	}

	w(int32(len(rsm.VolumeBoxes)))
	for _, box := range rsm.VolumeBoxes {
		w(box.Size)
		w(box.Position)
		w(box.Rotation)
		if v.AtLeast(1, 3) {
			w(box.Flag)
		}
	}

	return buf.Bytes(), nil
}

func writeRSMNode(buf *bytes.Buffer, node *RSMNode, v RSMVersion) error {
	w := func(data any) {
		binary.Write(buf, binary.LittleEndian, data)
	}

	if err := writeString(buf, node.Name, 40); err != nil {
		return err
	}
	if err := writeString(buf, node.Parent, 40); err != nil {
		return err
	}

	w(int32(len(node.TextureIDs)))
	w(node.TextureIDs)
	w(node.Matrix)
	w(node.Offset)
	w(node.Position)
	w(node.RotAngle)
	w(node.RotAxis)
	w(node.Scale)

	w(int32(len(node.Vertices)))
	w(node.Vertices)

	w(int32(len(node.TexCoords)))
	for _, tc := range node.TexCoords {
		if v.AtLeast(1, 2) {
			w(tc.Color)
		}
		w(tc.U)
		w(tc.V)
	}

	w(int32(len(node.Faces)))
	for _, f := range node.Faces {
		w(f.VertexIDs)
		w(f.TexCoordIDs)
		w(f.TextureID)
		w(f.Padding)
		w(f.TwoSide)
		if v.AtLeast(1, 2) {
			w(f.SmoothGroup)
		}
	}

	if !v.AtLeast(1, 5) {
		w(int32(len(node.PosKeys)))
		for _, k := range node.PosKeys {
			w(k.Frame)
			w(k.Position)
		}
	}

	w(int32(len(node.RotKeys)))
	for _, k := range node.RotKeys {
		w(k.Frame)
		w(k.Quaternion)
	}

	if v.AtLeast(1, 5) {
		w(int32(len(node.ScaleKeys)))
		for _, k := range node.ScaleKeys {
			w(k.Frame)
			w(k.Scale)
		}
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string, length int) error {
	if len(s) >= length {
		return fmt.Errorf("name %q longer than %d bytes", s, length-1)
	}
	b := make([]byte, length)
	copy(b, s)
	buf.Write(b)
	return nil
}
