package model

import "slices"

// Mesh2D is an indexed, flat colored mesh drawn in the transparent 2D pass.
// Z orders meshes against each other: lower Z draws first.
type Mesh2D struct {
	Name     string
	Vertices []GPUMesh2DVertex
	Indices  []uint32
	Z        float32
}

// NewQuad2D builds a two-triangle quad of the given half extents centred on (x, y)
// with a single packed color.
//
// Parameters:
//   - name: the mesh name
//   - x, y: centre of the quad
//   - halfW, halfH: half extents
//   - z: draw order depth
//   - color: packed RGBA color (see PackColor)
//
// Returns:
//   - Mesh2D: the quad mesh
func NewQuad2D(name string, x, y, halfW, halfH, z float32, color uint32) Mesh2D {
	return Mesh2D{
		Name: name,
		Vertices: []GPUMesh2DVertex{
			{Position: [3]float32{x - halfW, y - halfH, z}, Color: color},
			{Position: [3]float32{x + halfW, y - halfH, z}, Color: color},
			{Position: [3]float32{x + halfW, y + halfH, z}, Color: color},
			{Position: [3]float32{x - halfW, y + halfH, z}, Color: color},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
		Z:       z,
	}
}

// Model converts the mesh to an indexed Model ready for upload.
//
// Returns:
//   - Model: the indexed model
func (m Mesh2D) Model() Model {
	return NewModel(
		WithName(m.Name),
		WithMesh2DVertices(m.Vertices),
		WithIndices(m.Indices),
	)
}

// SortByZ orders meshes back to front for alpha blending. The sort is stable so
// meshes sharing a Z keep their insertion order.
//
// Parameters:
//   - meshes: the meshes to sort in place
func SortByZ(meshes []Mesh2D) {
	slices.SortStableFunc(meshes, func(a, b Mesh2D) int {
		switch {
		case a.Z < b.Z:
			return -1
		case a.Z > b.Z:
			return 1
		default:
			return 0
		}
	})
}
