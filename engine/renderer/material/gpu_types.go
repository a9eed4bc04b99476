package material

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUMaterialParamsSource is the canonical WGSL definition of the MaterialParams struct.
// Matches GPUMaterialParams layout exactly (32 bytes).
//
//go:embed assets/material_params.wgsl
var GPUMaterialParamsSource string

// GPUMaterialParams is the GPU-aligned uniform for the lit and custom fragment shaders.
// Size: 32 bytes (vec4 + two f32 + vec2 padding).
type GPUMaterialParams struct {
	Specular  [4]float32 // offset  0: specular tint RGBA (16 bytes)
	Shininess float32    // offset 16: Phong exponent (4 bytes)
	MixOffset float32    // offset 20: base/mix texture blend factor (4 bytes)
	_         [2]float32 // offset 24: padding (8 bytes)
}

// Size returns the size of the GPUMaterialParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUMaterialParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUMaterialParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUMaterialParams) Marshal() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Specular[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Specular[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Specular[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Specular[3]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Shininess))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.MixOffset))
	return buf
}

// GPUColorSource is the canonical WGSL definition of the ColorUniform struct.
// Matches GPUColor layout exactly (16 bytes).
//
//go:embed assets/color.wgsl
var GPUColorSource string

// GPUColor is the flat color uniform used by light markers and 2D meshes.
// Size: 16 bytes (one vec4<f32>).
type GPUColor struct {
	Color [4]float32 // offset 0: RGBA color (16 bytes)
}

// Size returns the size of the GPUColor struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUColor) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUColor struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload.
func (g *GPUColor) Marshal() []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Color[3]))
	return buf
}
