package shader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// hostLayout is the size and alignment of a WGSL type in a uniform or storage buffer.
type hostLayout struct {
	size  uint64
	align uint64
}

func (l hostLayout) stride() uint64 {
	return alignUp(l.size, l.align)
}

// alignUp rounds v up to a multiple of align, a power of two.
func alignUp(v, align uint64) uint64 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}

// scalarKinds are the 32-bit component types, their short suffix (vec3f) and the vertex
// formats of their 1 to 4 component vectors.
var scalarKinds = []struct {
	name, suffix string
	formats      [4]wgpu.VertexFormat
}{
	{"f32", "f", [4]wgpu.VertexFormat{wgpu.VertexFormatFloat32, wgpu.VertexFormatFloat32x2, wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x4}},
	{"i32", "i", [4]wgpu.VertexFormat{wgpu.VertexFormatSint32, wgpu.VertexFormatSint32x2, wgpu.VertexFormatSint32x3, wgpu.VertexFormatSint32x4}},
	{"u32", "u", [4]wgpu.VertexFormat{wgpu.VertexFormatUint32, wgpu.VertexFormatUint32x2, wgpu.VertexFormatUint32x3, wgpu.VertexFormatUint32x4}},
}

// vectorNames returns both spellings of an n component vector of kind.
func vectorNames(n int, name, suffix string) [2]string {
	return [2]string{fmt.Sprintf("vec%d<%s>", n, name), fmt.Sprintf("vec%d%s", n, suffix)}
}

// primitiveLayouts holds the scalars, vectors and f32 matrices.
// https://www.w3.org/TR/WGSL/#alignment-and-size
var primitiveLayouts = func() map[string]hostLayout {
	m := map[string]hostLayout{"bool": {4, 4}}
	for _, k := range scalarKinds {
		m[k.name] = hostLayout{4, 4}
		for n := 2; n <= 4; n++ {
			l := hostLayout{uint64(4 * n), uint64(4 * n)}
			if n == 3 {
				l.align = 16
			}
			for _, name := range vectorNames(n, k.name, k.suffix) {
				m[name] = l
			}
		}
	}
	// matCxR is C columns of vecR
	for c := 2; c <= 4; c++ {
		for r := 2; r <= 4; r++ {
			col := m[fmt.Sprintf("vec%df", r)]
			l := hostLayout{uint64(c) * col.stride(), col.align}
			m[fmt.Sprintf("mat%dx%d<f32>", c, r)] = l
			m[fmt.Sprintf("mat%dx%df", c, r)] = l
		}
	}
	return m
}()

// vertexFormat is a vertex attribute format and its packed size.
type vertexFormat struct {
	format wgpu.VertexFormat
	size   uint64
}

// vertexFormats covers every type a vertex or instance input may use. Colors packed into
// a u32 are unpacked in the shader.
var vertexFormats = func() map[string]vertexFormat {
	m := make(map[string]vertexFormat)
	for _, k := range scalarKinds {
		m[k.name] = vertexFormat{k.formats[0], 4}
		for n := 2; n <= 4; n++ {
			for _, name := range vectorNames(n, k.name, k.suffix) {
				m[name] = vertexFormat{k.formats[n-1], uint64(4 * n)}
			}
		}
	}
	return m
}()

// splitArrayType splits array<T> and array<T, N>. count is 0 for runtime-sized arrays.
func splitArrayType(typeName string) (elem string, count uint64, ok bool) {
	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok || !strings.HasSuffix(inner, ">") {
		return "", 0, false
	}
	elem, n, sized := strings.Cut(strings.TrimSuffix(inner, ">"), ",")
	elem = strings.TrimSpace(elem)
	if !sized {
		return elem, 0, true
	}
	count, err := strconv.ParseUint(strings.TrimSpace(n), 10, 64)
	return elem, count, err == nil
}

// layoutResolver computes host layouts of struct types on demand, so structs may embed
// structs declared after them.
type layoutResolver struct {
	structs  map[string]wgslStruct
	resolved map[string]hostLayout
	visiting map[string]bool
}

func newLayoutResolver(structs []wgslStruct) *layoutResolver {
	r := &layoutResolver{
		structs:  make(map[string]wgslStruct, len(structs)),
		resolved: make(map[string]hostLayout),
		visiting: make(map[string]bool),
	}
	for _, s := range structs {
		r.structs[s.name] = s
	}
	return r
}

// layout resolves typeName. A runtime-sized array resolves to one element stride, which
// is the minimum binding size of a storage buffer holding it.
func (r *layoutResolver) layout(typeName string) (hostLayout, bool) {
	if l, ok := primitiveLayouts[typeName]; ok {
		return l, true
	}
	if l, ok := r.resolved[typeName]; ok {
		return l, true
	}
	if s, ok := r.structs[typeName]; ok {
		if r.visiting[typeName] {
			return hostLayout{}, false
		}
		r.visiting[typeName] = true
		l, ok := r.structLayout(s)
		delete(r.visiting, typeName)
		if ok {
			r.resolved[typeName] = l
		}
		return l, ok
	}

	elemName, count, ok := splitArrayType(typeName)
	if !ok {
		return hostLayout{}, false
	}
	elem, ok := r.layout(elemName)
	if !ok {
		return hostLayout{}, false
	}
	return hostLayout{max(count, 1) * elem.stride(), elem.align}, true
}

// structLayout places each member at the next offset aligned for it and rounds the end
// up to the widest alignment. @builtin members are not in buffers.
func (r *layoutResolver) structLayout(s wgslStruct) (hostLayout, bool) {
	var end uint64
	align := uint64(1)
	for _, f := range s.fields {
		if f.builtin {
			continue
		}
		fl, ok := r.layout(f.typeName)
		if !ok {
			return hostLayout{}, false
		}
		end = alignUp(end, fl.align) + fl.size
		align = max(align, fl.align)
	}
	return hostLayout{alignUp(end, align), align}, true
}

var textureDimensions = map[string]wgpu.TextureViewDimension{
	"texture_1d":              wgpu.TextureViewDimension1D,
	"texture_2d":              wgpu.TextureViewDimension2D,
	"texture_2d_array":        wgpu.TextureViewDimension2DArray,
	"texture_3d":              wgpu.TextureViewDimension3D,
	"texture_cube":            wgpu.TextureViewDimensionCube,
	"texture_multisampled_2d": wgpu.TextureViewDimension2D,
	"texture_depth_2d":        wgpu.TextureViewDimension2D,
}

var sampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// classifyResource builds the layout entry of one module-scope resource. Buffers are
// told apart by address space ("uniform", "storage, read_write"), handles by type.
func classifyResource(binding uint32, visibility wgpu.ShaderStage, addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	e := wgpu.BindGroupLayoutEntry{Binding: binding, Visibility: visibility}

	space, access, _ := strings.Cut(addressSpace, ",")
	switch strings.TrimSpace(space) {
	case "uniform":
		e.Buffer.Type = wgpu.BufferBindingTypeUniform
		return e
	case "storage":
		e.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.TrimSpace(access) == "read_write" {
			e.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
		return e
	}

	base, param, _ := strings.Cut(typeName, "<")
	param = strings.TrimSpace(strings.TrimSuffix(param, ">"))
	switch {
	case base == "sampler":
		e.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case base == "sampler_comparison":
		e.Sampler.Type = wgpu.SamplerBindingTypeComparison
	case strings.HasPrefix(base, "texture_depth_"):
		e.Texture.ViewDimension = textureDimensions[base]
		e.Texture.SampleType = wgpu.TextureSampleTypeDepth
	case strings.HasPrefix(base, "texture_"):
		e.Texture.ViewDimension = textureDimensions[base]
		e.Texture.Multisampled = base == "texture_multisampled_2d"
		e.Texture.SampleType = sampleTypes[param]
	}
	return e
}
