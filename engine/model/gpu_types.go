package model

import (
	_ "embed"
	"encoding/binary"
	"unsafe"
)

// GPUVertexSource is the canonical WGSL definition of the VertexInput struct for lit and textured meshes.
// Matches GPUVertex layout exactly (32 bytes).
//
//go:embed assets/vertex.wgsl
var GPUVertexSource string

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Matches the WGSL VertexInput struct layout exactly (see GPUVertexSource).
// Size: 32 bytes (vertex step, locations 0-2).
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Normal   [3]float32 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord [2]float32 // offset 24: UV texture coordinate (8 bytes)
}

func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal returns the 32 bytes uploaded per vertex.
func (g *GPUVertex) Marshal() []byte {
	return appendFixed(make([]byte, 0, 32), g)
}

// GPUModelInstanceSource is the canonical WGSL definition of the ModelInstance struct.
// The model matrix is split into four vec4 columns because vertex attributes cannot be matrices.
//
//go:embed assets/model_instance.wgsl
var GPUModelInstanceSource string

// GPUModelInstance is the per-instance vertex record carrying a model matrix.
// Size: 64 bytes (instance step, locations 3-6).
type GPUModelInstance struct {
	Model [16]float32 // offset 0: column-major model-to-world matrix (64 bytes)
}

func (g *GPUModelInstance) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal returns the matrix as 64 little-endian bytes, column by column.
func (g *GPUModelInstance) Marshal() []byte {
	return appendFixed(make([]byte, 0, 64), g)
}

// GPUMesh2DVertexSource is the canonical WGSL definition of the Mesh2DVertexInput struct.
//
//go:embed assets/mesh2d_vertex.wgsl
var GPUMesh2DVertexSource string

// GPUMesh2DVertex is a flat colored 2D mesh vertex.
// Color is RGBA8 packed with PackColor, red in the lowest byte.
// Size: 16 bytes (vertex step, locations 0-1).
type GPUMesh2DVertex struct {
	Position [3]float32 // offset  0 (12 bytes)
	Color    uint32     // offset 12 (4 bytes)
}

func (g *GPUMesh2DVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

func (g *GPUMesh2DVertex) Marshal() []byte {
	return appendFixed(make([]byte, 0, 16), g)
}

// appendFixed appends the little-endian encoding of a fixed-size record. The GPU types
// here contain no padding, so the encoding equals their memory layout.
func appendFixed(buf []byte, record any) []byte {
	out, err := binary.Append(buf, binary.LittleEndian, record)
	if err != nil {
		panic(err)
	}
	return out
}

// PackColor packs normalized RGBA components into a single uint32 with red in
// the lowest byte, matching WGSL unpack4x8unorm. Components are clamped to [0, 1].
//
// Parameters:
//   - r, g, b, a: color components in [0, 1]
//
// Returns:
//   - uint32: the packed color
func PackColor(r, g, b, a float32) uint32 {
	return uint32(toByte(r)) | uint32(toByte(g))<<8 | uint32(toByte(b))<<16 | uint32(toByte(a))<<24
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// MarshalVertices encodes the vertices back to back.
func MarshalVertices(vertices []GPUVertex) []byte {
	if len(vertices) == 0 {
		return nil
	}
	return appendFixed(make([]byte, 0, len(vertices)*32), vertices)
}
