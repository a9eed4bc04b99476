package bind_group_provider

// BindGroupProviderOption configures a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithVertexCount presets the number of vertices drawn for a non-indexed mesh. The renderer
// overwrites it when the mesh buffers are uploaded.
//
// Parameters:
//   - count: the vertex count
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithVertexCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.mesh.vertexCount = count
	}
}

// WithIndexCount presets the number of indices drawn for an indexed mesh.
//
// Parameters:
//   - count: the index count, 0 for non-indexed meshes
//
// Returns:
//   - BindGroupProviderOption: option function to apply
func WithIndexCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.mesh.indexCount = count
	}
}

// WithInstanceCount presets the number of instances drawn from the instance buffer.
func WithInstanceCount(count int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		if count > 0 {
			p.mesh.instanceCount = count
		}
	}
}
