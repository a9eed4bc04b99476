package renderer

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

var errMissingShader = errors.New("pipeline needs a vertex and a fragment shader")

func (b *wgpuBackend) ReleasePipeline(p pipeline.Pipeline) {
	if p == nil {
		return
	}
	b.mu.Lock()
	b.retired = append(b.retired, p)
	b.mu.Unlock()
}

// releaseRetired frees the pipelines queued by ReleasePipeline. b.mu must be held.
func (b *wgpuBackend) releaseRetired() {
	for _, p := range b.retired {
		p.Release()
	}
	b.retired = nil
}

func (b *wgpuBackend) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vs, fs := p.Shader(shader.ShaderTypeVertex), p.Shader(shader.ShaderTypeFragment)
	if vs == nil || fs == nil {
		return errMissingShader
	}

	b.mu.Lock()
	format := b.format
	b.mu.Unlock()
	if format == nil {
		return errSurfaceNotConfigured
	}

	vsModule, err := b.device.CreateShaderModule(vs.Module())
	if err != nil {
		return fmt.Errorf("vertex module %s: %w", vs.Key(), err)
	}
	defer vsModule.Release()
	fsModule, err := b.device.CreateShaderModule(fs.Module())
	if err != nil {
		return fmt.Errorf("fragment module %s: %w", fs.Key(), err)
	}
	defer fsModule.Release()

	layout, err := b.pipelineLayout(p)
	if err != nil {
		return err
	}
	defer layout.Release()

	state := p.State()
	rp, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey(),
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vsModule,
			EntryPoint: vs.EntryPoint(),
			Buffers:    orderedVertexLayouts(vs.VertexLayouts()),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fsModule,
			EntryPoint: fs.EntryPoint(),
			Targets: []wgpu.ColorTargetState{{
				Format:    *format,
				Blend:     state.Blend,
				WriteMask: state.WriteMask,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  state.Topology,
			FrontFace: state.FrontFace,
			CullMode:  state.CullMode,
		},
		Multisample: wgpu.MultisampleState{Count: uint32(b.sampleCount), Mask: ^uint32(0)},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: state.DepthWrite,
			DepthCompare:      state.EffectiveCompare(),
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		return fmt.Errorf("render pipeline %s: %w", p.PipelineKey(), err)
	}
	p.SetRenderPipeline(rp)
	return nil
}

// pipelineLayout creates one bind group layout per group index up to the highest one
// either shader declares. Unused indices get an empty layout.
func (b *wgpuBackend) pipelineLayout(p pipeline.Pipeline) (*wgpu.PipelineLayout, error) {
	descs := PipelineBindGroupLayouts(p)
	groups := make([]*wgpu.BindGroupLayout, maxKey(descs)+1)
	defer func() {
		// the pipeline layout holds its own references
		for _, l := range groups {
			if l != nil {
				l.Release()
			}
		}
	}()

	for g := range groups {
		desc := descs[g]
		l, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("%s: bind group layout %d: %w", p.PipelineKey(), g, err)
		}
		groups[g] = l
	}
	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: groups,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: pipeline layout: %w", p.PipelineKey(), err)
	}
	return layout, nil
}
