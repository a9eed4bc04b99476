package pipeline

import (
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineKey string

	// vertexShader and fragmentShader must be set before the renderer registers the pipeline.
	vertexShader, fragmentShader shader.Shader

	// renderPipeline is nil until the renderer registers the pipeline.
	renderPipeline *wgpu.RenderPipeline

	state State
}

// Pipeline describes a render pipeline: a vertex and fragment shader pair plus the
// fixed-function State it is created with. Materials name a pipeline by its key.
type Pipeline interface {
	// PipelineKey returns the key materials and scenes use to find this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified type if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the type of shader to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified type, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// RenderPipeline returns the GPU render pipeline, or nil before registration.
	RenderPipeline() *wgpu.RenderPipeline

	// State returns the depth, blend and rasterizer settings.
	State() State

	// SetRenderPipeline sets the GPU render pipeline. Called by the renderer on registration.
	//
	// Parameters:
	//   - rp: the WebGPU render pipeline to set
	SetRenderPipeline(rp *wgpu.RenderPipeline)

	// WithShaders returns a copy of this pipeline description using different shaders.
	// The copy has no GPU pipeline until it is registered. Used by shader hot reload.
	//
	// Parameters:
	//   - vertex: the replacement vertex shader, or nil to keep the current one
	//   - fragment: the replacement fragment shader, or nil to keep the current one
	//
	// Returns:
	//   - Pipeline: the new, unregistered pipeline description
	WithShaders(vertex, fragment shader.Shader) Pipeline

	// Release releases the GPU render pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a render pipeline description starting from OpaqueState.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey: pipelineKey,
		state:       OpaqueState(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) State() State {
	return p.state
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) WithShaders(vertex, fragment shader.Shader) Pipeline {
	cp := *p
	cp.renderPipeline = nil
	if vertex != nil {
		cp.vertexShader = vertex
	}
	if fragment != nil {
		cp.fragmentShader = fragment
	}
	return &cp
}

func (p *pipeline) Release() {
	if p.renderPipeline != nil {
		p.renderPipeline.Release()
		p.renderPipeline = nil
	}
}
