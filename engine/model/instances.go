package model

import (
	"github.com/Carmen-Shannon/oxy-materials/common"
)

// Instances is the per-instance model matrix list bound to vertex slot 1.
type Instances []GPUModelInstance

// Add appends an instance built from position, Euler rotation (radians) and scale.
//
// Parameters:
//   - pos: translation in world space
//   - rot: rotation angles in radians around each axis
//   - scale: scale factors along each axis
func (in *Instances) Add(pos, rot, scale common.Vec3) {
	var g GPUModelInstance
	common.BuildModelMatrix(g.Model[:], pos, rot, scale)
	*in = append(*in, g)
}

// AddAt appends an unrotated, unit scale instance at pos.
func (in *Instances) AddAt(pos common.Vec3) {
	in.Add(pos, common.Vec3{}, common.Vec3{1, 1, 1})
}

// Marshal concatenates the GPU bytes of every instance.
//
// Returns:
//   - []byte: len(in)*64 bytes, nil for an empty list
func (in Instances) Marshal() []byte {
	if len(in) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(in)*64)
	for i := range in {
		buf = append(buf, in[i].Marshal()...)
	}
	return buf
}
