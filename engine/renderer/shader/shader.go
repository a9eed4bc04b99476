package shader

import (
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType is the pipeline stage a module is compiled for.
type ShaderType int

const (
	ShaderTypeVertex ShaderType = iota
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

type shader struct {
	key    string
	path   string
	source string // after pre-processing
	stage  ShaderType
	entry  string

	groups   map[int]wgpu.BindGroupLayoutDescriptor
	varNames map[int]map[int]string // group -> binding -> WGSL variable
	slots    map[int][]wgpu.VertexBufferLayout

	module       *wgpu.ShaderModuleDescriptor
	declarations []Annotation
}

// Shader is one pre-processed WGSL stage together with what reflection found in it:
// the entry point, the bind group layouts and, for vertex shaders, the vertex buffer
// layouts per slot. Pipelines are built from a vertex and a fragment Shader.
type Shader interface {
	// Key identifies the shader in pipelines and logs.
	Key() string
	// Path is the file the shader was read from, empty for in-memory sources. Hot
	// reload matches changed files against it.
	Path() string
	// Source is the WGSL with every @oxy annotation expanded.
	Source() string
	ShaderType() ShaderType
	// EntryPoint is the name of the @vertex or @fragment function.
	EntryPoint() string
	Module() *wgpu.ShaderModuleDescriptor

	// BindGroupLayoutDescriptor returns the reflected layout of one group. Groups the
	// shader does not use yield the zero descriptor.
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName returns the WGSL variable bound at (group, binding), or empty.
	BindGroupVarName(group, binding int) string

	// BindingRole is what a binding holds: the role named by an @oxy:provider line, or
	// the struct key of an @oxy:group line.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: e.g. "diffuse_texture" or "material_params", empty when undeclared
	BindingRole(group, binding int) string

	// GroupIdentity returns which provider fills a group: AnnotationArgCamera,
	// AnnotationArgMaterial or AnnotationArgLights. Empty when no annotation claims it.
	GroupIdentity(group int) AnnotationArg

	// VertexLayout returns the buffers reflected for one vertex buffer slot. Slot 0 is
	// the per-vertex input and slot 1 the per-instance input.
	VertexLayout(slot int) []wgpu.VertexBufferLayout
	VertexLayouts() map[int][]wgpu.VertexBufferLayout

	// Declarations lists the group and provider annotations in source order.
	Declarations() []Annotation
}

var _ Shader = &shader{}

// NewShader loads a WGSL file and panics if it cannot be read or does not compile
// through the pre-processor and reflection. Use NewShaderFromSource to get the error.
//
// Parameters:
//   - key: the shader key
//   - shaderType: the stage
//   - sourcePath: the WGSL file
//
// Returns:
//   - Shader: the loaded shader
func NewShader(key string, shaderType ShaderType, sourcePath string) Shader {
	if sourcePath == "" {
		panic(fmt.Sprintf("shader: %s has no source path", key))
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		panic(fmt.Sprintf("shader: %v", err))
	}
	s, err := NewShaderFromSource(key, shaderType, sourcePath, string(data))
	if err != nil {
		panic(fmt.Sprintf("shader: %v", err))
	}
	return s
}

// NewShaderFromSource builds a shader from WGSL held in memory. Hot reload uses it so
// that a broken edit is reported instead of taking the program down.
//
// Parameters:
//   - key: the shader key
//   - shaderType: the stage
//   - path: where source came from, or empty
//   - source: WGSL with @oxy annotations
//
// Returns:
//   - Shader: the shader
//   - error: an annotation error or a missing entry point
func NewShaderFromSource(key string, shaderType ShaderType, path, source string) (Shader, error) {
	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("pre-processing %s: %w", key, err)
	}

	refl := newReflection(processed)
	entry, _, _ := refl.entryPoint(shaderType)
	if entry == "" {
		return nil, fmt.Errorf("%s: no @%s entry point", key, shaderType)
	}

	s := &shader{
		key:          key,
		path:         path,
		source:       processed,
		stage:        shaderType,
		entry:        entry,
		slots:        map[int][]wgpu.VertexBufferLayout{},
		declarations: pp.Declarations(),
		module: &wgpu.ShaderModuleDescriptor{
			Label:          key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: processed},
		},
	}

	visibility := wgpu.ShaderStageFragment
	if shaderType == ShaderTypeVertex {
		visibility = wgpu.ShaderStageVertex
		s.slots = refl.vertexLayouts(instanceTypes)
	}
	s.groups, s.varNames = refl.bindGroups(visibility)
	return s, nil
}

func (s *shader) Key() string { return s.key }
func (s *shader) Path() string { return s.path }
func (s *shader) Source() string { return s.source }
func (s *shader) ShaderType() ShaderType { return s.stage }
func (s *shader) EntryPoint() string { return s.entry }
func (s *shader) Module() *wgpu.ShaderModuleDescriptor { return s.module }
func (s *shader) Declarations() []Annotation { return s.declarations }

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.groups[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.groups
}

func (s *shader) BindGroupVarName(group, binding int) string {
	return s.varNames[group][binding]
}

func (s *shader) VertexLayout(slot int) []wgpu.VertexBufferLayout {
	return s.slots[slot]
}

func (s *shader) VertexLayouts() map[int][]wgpu.VertexBufferLayout {
	return s.slots
}

func (s *shader) BindingRole(group, binding int) string {
	for _, decl := range s.declarations {
		if decl.Group == group && decl.Binding == binding {
			return decl.Role()
		}
	}
	return ""
}

func (s *shader) GroupIdentity(group int) AnnotationArg {
	for _, decl := range s.declarations {
		if decl.Group == group {
			if id := decl.Identity(); id != "" {
				return id
			}
		}
	}
	return ""
}
