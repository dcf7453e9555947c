package model

import (
	"github.com/Faultbox/midgard-thumbnails/pkg/formats"
	"github.com/Faultbox/midgard-thumbnails/pkg/math"
)

// pose evaluates the node transforms of one model at a fixed animation time.
// Hierarchy matrices are memoized per node.
type pose struct {
	rsm    *formats.RSM
	timeMs float32
	index  map[string]int
	cache  []*math.Mat4
	active []bool
}

func newPose(rsm *formats.RSM, timeMs float32) *pose {
	p := &pose{
		rsm:    rsm,
		timeMs: timeMs,
		index:  make(map[string]int, len(rsm.Nodes)),
		cache:  make([]*math.Mat4, len(rsm.Nodes)),
		active: make([]bool, len(rsm.Nodes)),
	}
	for i := range rsm.Nodes {
		if _, dup := p.index[rsm.Nodes[i].Name]; !dup {
			p.index[rsm.Nodes[i].Name] = i
		}
	}
	return p
}

// parent returns the index of node i's parent, or -1 for roots. Nodes naming
// themselves or a missing node as parent are roots.
func (p *pose) parent(i int) int {
	node := &p.rsm.Nodes[i]
	if node.Parent == "" || node.Parent == node.Name {
		return -1
	}
	if j, ok := p.index[node.Parent]; ok {
		return j
	}
	return -1
}

// hierarchy returns the matrix node i passes down to its children:
// parent * translate(Position) * rotation * scale * keyframed scale.
func (p *pose) hierarchy(i int) math.Mat4 {
	if m := p.cache[i]; m != nil {
		return *m
	}
	if p.active[i] {
		// Cycle in the parent chain; cut it here.
		return math.Identity()
	}
	p.active[i] = true
	defer func() { p.active[i] = false }()

	m := p.local(&p.rsm.Nodes[i])
	if j := p.parent(i); j >= 0 {
		m = p.hierarchy(j).Mul(m)
	}
	p.cache[i] = &m
	return m
}

// vertexMatrix returns the transform applied to node i's own vertices. Offset
// and the node's 3x3 matrix are not inherited by children.
func (p *pose) vertexMatrix(i int) math.Mat4 {
	node := &p.rsm.Nodes[i]
	return p.hierarchy(i).
		Mul(math.Translate(node.Offset[0], node.Offset[1], node.Offset[2])).
		Mul(math.FromMat3x3(node.Matrix))
}

func (p *pose) local(node *formats.RSMNode) math.Mat4 {
	m := math.Translate(node.Position[0], node.Position[1], node.Position[2])

	// Keyframed rotation replaces the static axis-angle rotation.
	if len(node.RotKeys) > 0 {
		m = m.Mul(sampleRotation(node.RotKeys, p.timeMs).ToMat4())
	} else if node.RotAngle != 0 {
		axis := math.Vec3{X: node.RotAxis[0], Y: node.RotAxis[1], Z: node.RotAxis[2]}
		if axis.Length() > 1e-6 {
			m = m.Mul(math.RotateAxis(axis.Normalize().Array(), node.RotAngle))
		}
	}

	m = m.Mul(math.Scale(node.Scale[0], node.Scale[1], node.Scale[2]))
	if len(node.ScaleKeys) > 0 {
		s := sampleScale(node.ScaleKeys, p.timeMs)
		m = m.Mul(math.Scale(s[0], s[1], s[2]))
	}
	return m
}

// keySpan locates timeMs among n frames sorted ascending. It returns the
// indices of the surrounding keys and the blend factor between them; a == b
// when timeMs is outside the keyed range.
func keySpan(n int, frame func(int) int32, timeMs float32) (a, b int, t float32) {
	for b < n && float32(frame(b)) <= timeMs {
		b++
	}
	switch {
	case b == 0:
		return 0, 0, 0
	case b == n:
		return n - 1, n - 1, 0
	}
	a = b - 1
	if span := frame(b) - frame(a); span != 0 {
		t = (timeMs - float32(frame(a))) / float32(span)
	}
	return a, b, t
}

func quat(k formats.RSMRotKeyframe) math.Quat {
	q := k.Quaternion
	return math.Quat{X: q[0], Y: q[1], Z: q[2], W: q[3]}
}

func sampleRotation(keys []formats.RSMRotKeyframe, timeMs float32) math.Quat {
	if len(keys) == 0 {
		return math.QuatIdentity()
	}
	a, b, t := keySpan(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	if a == b {
		return quat(keys[a])
	}
	return quat(keys[a]).Slerp(quat(keys[b]), t)
}

func sampleScale(keys []formats.RSMScaleKeyframe, timeMs float32) [3]float32 {
	if len(keys) == 0 {
		return [3]float32{1, 1, 1}
	}
	a, b, t := keySpan(len(keys), func(i int) int32 { return keys[i].Frame }, timeMs)
	s0, s1 := keys[a].Scale, keys[b].Scale
	return [3]float32{
		s0[0] + t*(s1[0]-s0[0]),
		s0[1] + t*(s1[1]-s0[1]),
		s0[2] + t*(s1[2]-s0[2]),
	}
}
