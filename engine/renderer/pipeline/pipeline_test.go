package pipeline

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("cube")
	assert.Equal(t, "cube", p.PipelineKey())
	assert.Equal(t, OpaqueState(), p.State())
	assert.False(t, p.State().Blended())
	assert.Equal(t, wgpu.CompareFunctionLess, p.State().EffectiveCompare())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.State().Topology)
	assert.Nil(t, p.RenderPipeline())
}

func TestWith2D(t *testing.T) {
	s := NewPipeline("mesh2d", With2D()).State()
	assert.False(t, s.DepthTest)
	assert.False(t, s.DepthWrite)
	assert.True(t, s.Blended())
	assert.Equal(t, wgpu.CullModeBack, s.CullMode)
	assert.Equal(t, wgpu.CompareFunctionAlways, s.EffectiveCompare())
}

func TestOptionsApplyInOrder(t *testing.T) {
	s := NewPipeline("marker", WithBlendEnabled(true), WithState(OpaqueState()), WithCullMode(wgpu.CullModeBack)).State()
	assert.False(t, s.Blended())
	assert.Equal(t, wgpu.CullModeBack, s.CullMode)

	s = NewPipeline("overlay", With2D(), WithBlendEnabled(false)).State()
	assert.False(t, s.Blended())
	assert.False(t, s.DepthTest)
}

func TestWithShadersCopiesState(t *testing.T) {
	p := NewPipeline("light", WithCullMode(wgpu.CullModeFront), WithDepthCompare(wgpu.CompareFunctionLessEqual))
	cp := p.WithShaders(nil, nil)

	assert.NotSame(t, p, cp)
	assert.Equal(t, "light", cp.PipelineKey())
	assert.Equal(t, p.State(), cp.State())
	assert.Equal(t, wgpu.CompareFunctionLessEqual, cp.State().EffectiveCompare())
	assert.Nil(t, cp.RenderPipeline())
	assert.NotPanics(t, cp.Release)
}
