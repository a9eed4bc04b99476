package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPUCameraUniformSource is the WGSL CameraUniform struct shaders pull in with
// //@oxy:include camera.
//
//go:embed assets/camera_uniform.wgsl
var GPUCameraUniformSource string

// CameraUniformSize is the byte size of CameraUniform: two mat4x4<f32>, then a vec3<f32>
// padded to 16 bytes.
const CameraUniformSize = 144

// GPUCameraUniform is the host copy of CameraUniform, written once per frame from a Snapshot.
type GPUCameraUniform struct {
	View     [16]float32
	Proj     [16]float32
	Position [3]float32
}

// Size returns CameraUniformSize.
func (g *GPUCameraUniform) Size() int {
	return CameraUniformSize
}

// Marshal encodes the uniform in little-endian WGSL layout, zeroing the trailing pad.
//
// Returns:
//   - []byte: CameraUniformSize bytes
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, 0, CameraUniformSize)
	buf = appendFloats(buf, g.View[:]...)
	buf = appendFloats(buf, g.Proj[:]...)
	return appendFloats(buf, g.Position[0], g.Position[1], g.Position[2], 0)
}

func appendFloats(buf []byte, vals ...float32) []byte {
	for _, v := range vals {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}
