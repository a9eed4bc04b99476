package camera

import "github.com/Carmen-Shannon/oxy-materials/common"

// Snapshot is an immutable copy of the camera state taken once per frame.
// The render side reads only snapshots so it never shares the live camera
// with the simulation tick.
type Snapshot struct {
	Position  common.Vec3
	Direction common.Vec3
	Yaw       float32 // radians
	Pitch     float32 // radians
	Fov       float32 // degrees
	Aspect    float32
	Near      float32
	Far       float32
	View      [16]float32
	Proj      [16]float32
}

// Uniform converts the snapshot into the GPU camera uniform record.
func (s Snapshot) Uniform() GPUCameraUniform {
	return GPUCameraUniform{
		View:     s.View,
		Proj:     s.Proj,
		Position: s.Position,
	}
}
