package renderer

import (
	"cmp"
	"maps"
	"reflect"
	"slices"

	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// SharedStages is the visibility of every entry in a pipeline's bind group layouts.
// Camera and light bind groups are bound by several pipelines whose shaders read them
// from different stages, and a bind group is only compatible with layouts equal to its own.
const SharedStages = wgpu.ShaderStageVertex | wgpu.ShaderStageFragment

// PipelineBindGroupLayouts returns the bind group layouts a pipeline is created with:
// the vertex and fragment declarations merged per group, every entry visible to both
// stages. Bind groups bound to the pipeline must be created from these descriptors.
//
// Parameters:
//   - p: the pipeline; both shaders must be set
//
// Returns:
//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index, nil when a shader is missing
func PipelineBindGroupLayouts(p pipeline.Pipeline) map[int]wgpu.BindGroupLayoutDescriptor {
	vs := p.Shader(shader.ShaderTypeVertex)
	fs := p.Shader(shader.ShaderTypeFragment)
	if vs == nil || fs == nil {
		return nil
	}

	merged := mergeBindGroupLayouts(vs.BindGroupLayoutDescriptors(), fs.BindGroupLayoutDescriptors())
	for g, desc := range merged {
		entries := make([]wgpu.BindGroupLayoutEntry, len(desc.Entries))
		for i, e := range desc.Entries {
			e.Visibility = SharedStages
			entries[i] = e
		}
		desc.Entries = entries
		merged[g] = desc
	}
	return merged
}

// SameLayouts reports whether two pipelines bind identical group layouts and vertex
// buffer layouts. Bind groups built for one can then be bound to the other.
//
// Parameters:
//   - a: the current pipeline
//   - b: its candidate replacement
//
// Returns:
//   - bool: true when both layouts match
func SameLayouts(a, b pipeline.Pipeline) bool {
	if !reflect.DeepEqual(PipelineBindGroupLayouts(a), PipelineBindGroupLayouts(b)) {
		return false
	}
	return reflect.DeepEqual(pipelineVertexLayouts(a), pipelineVertexLayouts(b))
}

func pipelineVertexLayouts(p pipeline.Pipeline) []wgpu.VertexBufferLayout {
	vs := p.Shader(shader.ShaderTypeVertex)
	if vs == nil {
		return nil
	}
	return orderedVertexLayouts(vs.VertexLayouts())
}

// PipelineBindingRole looks a binding's role up in the pipeline's vertex shader and then
// its fragment shader.
//
// Parameters:
//   - p: the pipeline
//   - group: the bind group index
//   - binding: the binding index
//
// Returns:
//   - string: the declared role, or empty
func PipelineBindingRole(p pipeline.Pipeline, group, binding int) string {
	for _, t := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		if s := p.Shader(t); s != nil {
			if role := s.BindingRole(group, binding); role != "" {
				return role
			}
		}
	}
	return ""
}

// PipelineGroupIdentity returns the provider identity owning a group in either of the
// pipeline's shaders.
//
// Parameters:
//   - p: the pipeline
//   - group: the bind group index
//
// Returns:
//   - shader.AnnotationArg: the identity, or empty when neither shader declares one
func PipelineGroupIdentity(p pipeline.Pipeline, group int) shader.AnnotationArg {
	for _, t := range []shader.ShaderType{shader.ShaderTypeVertex, shader.ShaderTypeFragment} {
		if s := p.Shader(t); s != nil {
			if id := s.GroupIdentity(group); id != "" {
				return id
			}
		}
	}
	return ""
}

// mergeBindGroupLayouts unions per-stage layouts group by group. An entry declared by
// several stages keeps the first declaration with the visibilities ORed together.
func mergeBindGroupLayouts(stages ...map[int]wgpu.BindGroupLayoutDescriptor) map[int]wgpu.BindGroupLayoutDescriptor {
	merged := make(map[int]wgpu.BindGroupLayoutDescriptor)
	for _, stage := range stages {
		for g, desc := range stage {
			out, seen := merged[g]
			if !seen {
				out.Label = desc.Label
			}
			for _, e := range desc.Entries {
				i := slices.IndexFunc(out.Entries, func(have wgpu.BindGroupLayoutEntry) bool {
					return have.Binding == e.Binding
				})
				if i >= 0 {
					out.Entries[i].Visibility |= e.Visibility
					continue
				}
				out.Entries = append(out.Entries, e)
			}
			merged[g] = out
		}
	}
	for g, desc := range merged {
		slices.SortFunc(desc.Entries, func(a, b wgpu.BindGroupLayoutEntry) int {
			return cmp.Compare(a.Binding, b.Binding)
		})
		merged[g] = desc
	}
	return merged
}

// orderedVertexLayouts flattens per-slot layouts in slot order, since the pipeline's
// buffer index must equal the slot SetVertexBuffer binds.
func orderedVertexLayouts(layouts map[int][]wgpu.VertexBufferLayout) []wgpu.VertexBufferLayout {
	var out []wgpu.VertexBufferLayout
	for _, slot := range slices.Sorted(maps.Keys(layouts)) {
		out = append(out, layouts[slot]...)
	}
	return out
}

// maxKey returns the largest key of m, or -1 when m is empty.
func maxKey[V any](m map[int]V) int {
	if len(m) == 0 {
		return -1
	}
	return slices.Max(slices.Collect(maps.Keys(m)))
}
