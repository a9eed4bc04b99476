package pipeline

import (
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption configures a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex stage.
//
// Parameters:
//   - s: a shader of type ShaderTypeVertex
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment stage.
//
// Parameters:
//   - s: a shader of type ShaderTypeFragment
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithState replaces the whole fixed-function state. Options after it still apply.
func WithState(s State) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state = s
	}
}

// With2D switches to OverlayState for screen-space meshes.
func With2D() PipelineBuilderOption {
	return WithState(OverlayState())
}

// WithBlendEnabled turns AlphaBlend on or off, keeping the depth settings.
//
// Parameters:
//   - enabled: true to alpha blend the color target
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		if enabled {
			p.state.Blend = &AlphaBlend
		} else {
			p.state.Blend = nil
		}
	}
}

// WithCullMode sets which faces are culled.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.CullMode = mode
	}
}

// WithDepthCompare sets the depth test function, e.g. LessEqual for markers drawn on
// top of geometry at the same depth.
func WithDepthCompare(compare wgpu.CompareFunction) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.DepthCompare = compare
	}
}
