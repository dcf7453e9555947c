package model

import (
	"github.com/Faultbox/midgard-thumbnails/pkg/formats"
)

// Bone is one node of a posed model hierarchy.
type Bone struct {
	Name   string
	Parent int // index into the skeleton, -1 for roots
	// Pivot is the node origin after posing, in mesh space.
	Pivot [3]float32
}

// Skeleton is the bone list of a model posed at a fixed time.
type Skeleton struct {
	Bones    []Bone
	TimeMs   float32
	Animated bool
}

// BuildSkeleton poses every node of rsm at timeMs and returns its bones in
// file order. Parents that are missing or self-referencing yield roots.
func BuildSkeleton(rsm *formats.RSM, timeMs float32) *Skeleton {
	p := newPose(rsm, timeMs)
	sk := &Skeleton{
		Bones:    make([]Bone, len(rsm.Nodes)),
		TimeMs:   timeMs,
		Animated: rsm.HasAnimation(),
	}
	for i := range rsm.Nodes {
		pivot := p.hierarchy(i).TransformPoint([3]float32{})
		pivot[1] = -pivot[1]
		sk.Bones[i] = Bone{
			Name:   rsm.Nodes[i].Name,
			Parent: p.parent(i),
			Pivot:  pivot,
		}
	}
	return sk
}

// Len returns the number of bones.
func (s *Skeleton) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bones)
}

// Offset moves every pivot by d.
func (s *Skeleton) Offset(d [3]float32) {
	for i := range s.Bones {
		p := &s.Bones[i].Pivot
		p[0] += d[0]
		p[1] += d[1]
		p[2] += d[2]
	}
}
