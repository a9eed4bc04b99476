package model

import (
	"encoding/binary"

	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/bind_group_provider"
)

// ModelBuilderOption configures a Model in NewModel.
type ModelBuilderOption func(*model)

// WithName sets the model name. The mesh provider is labelled after it.
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithVertices marshals lit 3D vertices (VertexInput, locations 0-2).
//
// Parameters:
//   - vertices: the vertices in draw order, or referenced by WithIndices
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithVertices(vertices []GPUVertex) ModelBuilderOption {
	return WithVertexData(MarshalVertices(vertices), len(vertices))
}

// WithMesh2DVertices marshals flat colored 2D vertices (Mesh2DVertexInput).
func WithMesh2DVertices(vertices []GPUMesh2DVertex) ModelBuilderOption {
	return WithVertexData(appendFixed(make([]byte, 0, len(vertices)*16), vertices), len(vertices))
}

// WithVertexData sets already marshalled vertex bytes, for layouts without a GPU type here.
//
// Parameters:
//   - data: the vertex bytes
//   - count: the number of vertices in data
//
// Returns:
//   - ModelBuilderOption: option function to apply
func WithVertexData(data []byte, count int) ModelBuilderOption {
	return func(m *model) {
		m.vertices = data
		m.vertexCount = count
	}
}

// WithIndices makes the model indexed with uint32 indices.
func WithIndices(indices []uint32) ModelBuilderOption {
	data := make([]byte, 0, len(indices)*4)
	for _, idx := range indices {
		data = binary.LittleEndian.AppendUint32(data, idx)
	}
	return func(m *model) {
		m.indices = data
		m.indexCount = len(indices)
	}
}

// WithMeshProvider shares or replaces the provider that receives the GPU buffers.
func WithMeshProvider(provider bind_group_provider.BindGroupProvider) ModelBuilderOption {
	return func(m *model) {
		m.mesh = provider
	}
}
