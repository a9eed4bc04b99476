package bind_group_provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewBindGroupProviderKeepsLabel(t *testing.T) {
	p := NewBindGroupProvider("camera_0")
	assert.Equal(t, "camera_0", p.Label())
	assert.False(t, p.Ready())
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.InstanceBuffer())
	assert.Empty(t, p.Bindings())
}

func TestCountOptions(t *testing.T) {
	p := NewBindGroupProvider("quad_mesh", WithVertexCount(4), WithIndexCount(6), WithInstanceCount(0))
	assert.Equal(t, 4, p.VertexCount())
	assert.Equal(t, 6, p.IndexCount())
	assert.Zero(t, p.InstanceCount())

	p = NewBindGroupProvider("crates_instances", WithInstanceCount(10))
	assert.Equal(t, 10, p.InstanceCount())
}

func TestCounts(t *testing.T) {
	p := NewBindGroupProvider("cube")
	p.SetMesh(nil, nil, 36, 6)
	p.SetInstanceCount(4)
	assert.Equal(t, 36, p.VertexCount())
	assert.Equal(t, 6, p.IndexCount())
	assert.Equal(t, 4, p.InstanceCount())

	p.Release()
	assert.Zero(t, p.VertexCount())
	assert.Zero(t, p.IndexCount())
	assert.Zero(t, p.InstanceCount())
}

func TestNilHandlesAreTolerated(t *testing.T) {
	p := NewBindGroupProvider("material")
	p.SetBuffer(0, nil)
	p.SetTextureView(2, nil)
	p.SetSampler(3, nil)
	assert.Equal(t, []int{0, 2, 3}, p.Bindings())
	assert.Nil(t, p.Buffer(0))
	assert.Nil(t, p.TextureView(1))

	// a binding holds one resource; setting a sampler replaces the view
	p.SetSampler(2, nil)
	assert.Equal(t, []int{0, 2, 3}, p.Bindings())

	assert.NotPanics(t, p.Release)
	assert.Empty(t, p.Bindings())
}
