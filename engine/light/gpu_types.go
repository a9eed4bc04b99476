package light

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPULightSource is the canonical WGSL definition of the Light struct.
// Matches GPULight layout exactly (64 bytes).
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPULight is the GPU-aligned uniform for a single Phong light.
// Position.w is 0 for directional lights and 1 for point lights.
// Size: 64 bytes (four vec4<f32>).
type GPULight struct {
	Position [4]float32 // offset  0: xyz world position, w = light kind (16 bytes)
	Ambient  [4]float32 // offset 16 (16 bytes)
	Diffuse  [4]float32 // offset 32 (16 bytes)
	Specular [4]float32 // offset 48 (16 bytes)
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPULight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, 64)
	putVec4(buf[0:16], g.Position)
	putVec4(buf[16:32], g.Ambient)
	putVec4(buf[32:48], g.Diffuse)
	putVec4(buf[48:64], g.Specular)
	return buf
}

// GPUPointLightSource is the canonical WGSL definition of the PointLight struct.
// Matches GPUPointLight layout exactly (80 bytes, WGSL uniform aligned).
//
//go:embed assets/point_light.wgsl
var GPUPointLightSource string

// GPUPointLight is the GPU-aligned uniform for an attenuated point light.
// Size: 80 bytes. The vec3 position packs with the constant term; the
// 8-byte pad moves ambient onto its 16-byte boundary.
type GPUPointLight struct {
	Position  [3]float32 // offset  0 (12 bytes)
	Constant  float32    // offset 12 (4 bytes)
	Linear    float32    // offset 16 (4 bytes)
	Quadratic float32    // offset 20 (4 bytes)
	_         [2]float32 // offset 24: padding (8 bytes)
	Ambient   [4]float32 // offset 32 (16 bytes)
	Diffuse   [4]float32 // offset 48 (16 bytes)
	Specular  [4]float32 // offset 64 (16 bytes)
}

// Size returns the size of the GPUPointLight struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUPointLight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPointLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 80-byte buffer ready for GPU upload.
func (g *GPUPointLight) Marshal() []byte {
	buf := make([]byte, 80)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Constant))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Linear))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Quadratic))
	putVec4(buf[32:48], g.Ambient)
	putVec4(buf[48:64], g.Diffuse)
	putVec4(buf[64:80], g.Specular)
	return buf
}

// GPUPointLightInstanceSource is the canonical WGSL definition of the PointLightInstance struct.
//
//go:embed assets/point_light_instance.wgsl
var GPUPointLightInstanceSource string

// GPUPointLightInstance is the per-instance vertex record for instanced point-light geometry.
// Size: 112 bytes (instance step, locations 3-9).
type GPUPointLightInstance struct {
	Model    [16]float32 // offset  0: column-major model matrix (64 bytes)
	Ambient  [4]float32  // offset 64 (16 bytes)
	Diffuse  [4]float32  // offset 80 (16 bytes)
	Specular [4]float32  // offset 96 (16 bytes)
}

// Size returns the size of the GPUPointLightInstance struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUPointLightInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUPointLightInstance struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 112-byte buffer ready for GPU upload.
func (g *GPUPointLightInstance) Marshal() []byte {
	buf := make([]byte, 112)
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(buf[i*4:(i+1)*4], math.Float32bits(g.Model[i]))
	}
	putVec4(buf[64:80], g.Ambient)
	putVec4(buf[80:96], g.Diffuse)
	putVec4(buf[96:112], g.Specular)
	return buf
}

// MarshalInstances concatenates the GPU bytes of every point light instance.
func MarshalInstances(instances []GPUPointLightInstance) []byte {
	buf := make([]byte, 0, len(instances)*112)
	for i := range instances {
		buf = append(buf, instances[i].Marshal()...)
	}
	return buf
}

func putVec4(dst []byte, v [4]float32) {
	binary.LittleEndian.PutUint32(dst[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(dst[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(dst[8:12], math.Float32bits(v[2]))
	binary.LittleEndian.PutUint32(dst[12:16], math.Float32bits(v[3]))
}
