package model

import (
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/bind_group_provider"
)

type model struct {
	name        string
	vertices    []byte
	indices     []byte
	vertexCount int
	indexCount  int
	mesh        bind_group_provider.BindGroupProvider
}

// Model is CPU-side mesh data in GPU byte layout. The scene uploads it into the
// vertex and index buffers of its mesh provider the first time it is drawn.
type Model interface {
	Name() string

	// VertexData is the marshalled vertex buffer contents.
	VertexData() []byte
	// IndexData is the uint32 index buffer contents, nil when the mesh is not indexed.
	IndexData() []byte
	VertexCount() int
	IndexCount() int
	// Indexed reports whether draws go through DrawIndexed.
	Indexed() bool

	// MeshProvider holds the uploaded buffers and the instance buffer.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the provider, never nil
	MeshProvider() bind_group_provider.BindGroupProvider
	SetMeshProvider(provider bind_group_provider.BindGroupProvider)
}

var _ Model = &model{}

// NewModel applies the options and labels a fresh mesh provider "<name>_mesh" unless
// WithMeshProvider supplied one.
func NewModel(options ...ModelBuilderOption) Model {
	m := new(model)
	for _, apply := range options {
		apply(m)
	}
	if m.mesh == nil {
		m.mesh = bind_group_provider.NewBindGroupProvider(m.name+"_mesh",
			bind_group_provider.WithVertexCount(m.vertexCount),
			bind_group_provider.WithIndexCount(m.indexCount),
		)
	}
	return m
}

// NewCube builds the non-indexed 36-vertex cube model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - Model: the cube model
func NewCube(name string) Model {
	vertices := CubeVertices()
	return NewModel(
		WithName(name),
		WithVertices(vertices),
	)
}

func (m *model) Name() string { return m.name }
func (m *model) VertexData() []byte { return m.vertices }
func (m *model) IndexData() []byte { return m.indices }
func (m *model) VertexCount() int { return m.vertexCount }
func (m *model) IndexCount() int { return m.indexCount }
func (m *model) Indexed() bool { return len(m.indices) > 0 && m.indexCount > 0 }
func (m *model) MeshProvider() bind_group_provider.BindGroupProvider { return m.mesh }

func (m *model) SetMeshProvider(provider bind_group_provider.BindGroupProvider) {
	m.mesh = provider
}
