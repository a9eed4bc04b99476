package material

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// Kind selects the shading model of a material and which uniform it owns.
type Kind int

const (
	// KindCustom blends a base and a mix texture by MixOffset.
	KindCustom Kind = iota

	// KindLit is Phong shading with diffuse and specular maps.
	KindLit

	// KindLightMarker draws flat colored light geometry.
	KindLightMarker

	// KindPointLight draws instanced geometry lit by per-instance light colors.
	KindPointLight

	// KindMesh2D draws vertex colored 2D meshes tinted by a color uniform.
	KindMesh2D
)

func (k Kind) String() string {
	switch k {
	case KindCustom:
		return "custom"
	case KindLit:
		return "lit"
	case KindLightMarker:
		return "light_marker"
	case KindPointLight:
		return "point_light"
	case KindMesh2D:
		return "mesh2d"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Binding roles. Texture and sampler roles are declared with @oxy:provider; the
// uniform roles are the struct names used in @oxy:group.
const (
	RoleBaseTexture     = "base_texture"
	RoleBaseSampler     = "base_sampler"
	RoleMixTexture      = "mix_texture"
	RoleMixSampler      = "mix_sampler"
	RoleDiffuseTexture  = "diffuse_texture"
	RoleDiffuseSampler  = "diffuse_sampler"
	RoleSpecularTexture = "specular_texture"
	RoleSpecularSampler = "specular_sampler"

	RoleMaterialParams = "material_params"
	RoleColor          = "color"
)

// TextureRoles lists every texture role with its paired sampler role.
var TextureRoles = map[string]string{
	RoleBaseTexture:     RoleBaseSampler,
	RoleMixTexture:      RoleMixSampler,
	RoleDiffuseTexture:  RoleDiffuseSampler,
	RoleSpecularTexture: RoleSpecularSampler,
}

// DefaultGroup is the bind group index materials occupy.
const DefaultGroup = 1

// ResourceInitializer is the subset of the renderer a material needs to build its bind group.
type ResourceInitializer interface {
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error
}

// BindingLayout describes the bind groups a shader declares. Satisfied by shader.Shader.
type BindingLayout interface {
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor
	BindingRole(group, binding int) string
}

// TextureSource resolves texture names to decoded pixels. Satisfied by loader.Loader.
type TextureSource interface {
	Texture(name string) (common.TextureStagingData, error)
}

// material is the implementation of the Material interface.
type material struct {
	mu *sync.Mutex

	name              string
	kind              Kind
	pipelineKey       string
	group             int
	textures          map[string]string
	sampler           common.SamplerStagingData
	specular          [4]float32
	shininess         float32
	mixOffset         float32
	color             [4]float32
	bindGroupProvider bind_group_provider.BindGroupProvider

	uniformBinding int
	initialized    bool
}

// Material defines the interface for a render material: a pipeline key, textures by
// role, a params or color uniform, and the BindGroupProvider holding its GPU resources.
//
// Surface properties are mutable so update callbacks can animate them; GPU resources
// are created once by InitGPU and the uniform is rewritten every frame via BufferWrites.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Kind returns the shading model.
	//
	// Returns:
	//   - Kind: the material kind
	Kind() Kind

	// PipelineKey retrieves the key identifying the render pipeline this material uses.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// SetPipelineKey sets the render pipeline key for this material.
	//
	// Parameters:
	//   - key: the pipeline key to associate with this material
	SetPipelineKey(key string)

	// Group returns the bind group index the material's resources are bound at.
	//
	// Returns:
	//   - int: the group index
	Group() int

	// Textures returns a copy of the texture names keyed by role.
	//
	// Returns:
	//   - map[string]string: role to texture name
	Textures() map[string]string

	// Params returns the material params uniform record.
	//
	// Returns:
	//   - GPUMaterialParams: the specular color, shininess and mix offset
	Params() GPUMaterialParams

	// Color returns the flat color uniform record.
	//
	// Returns:
	//   - GPUColor: the color
	Color() GPUColor

	// SetColor replaces the flat color.
	//
	// Parameters:
	//   - c: RGBA color
	SetColor(c [4]float32)

	// SetMixOffset replaces the base/mix blend factor, clamped to [0, 1].
	//
	// Parameters:
	//   - offset: the blend factor
	SetMixOffset(offset float32)

	// UniformData returns the bytes of the uniform this kind owns, or nil if it has none.
	//
	// Returns:
	//   - []byte: marshalled GPUMaterialParams or GPUColor
	UniformData() []byte

	// BufferWrites returns the per-frame uniform write for this material, or nil when the
	// material has no uniform or is not initialized.
	//
	// Returns:
	//   - []bind_group_provider.BufferWrite: zero or one write
	BufferWrites() []bind_group_provider.BufferWrite

	// BindGroupProvider retrieves the bind group provider holding GPU-side resources for this material.
	//
	// Returns:
	//   - bind_group_provider.BindGroupProvider: the bind group provider
	BindGroupProvider() bind_group_provider.BindGroupProvider

	// SetBindGroupProvider sets the bind group provider for this material.
	//
	// Parameters:
	//   - provider: the bind group provider containing GPU resources for this material
	SetBindGroupProvider(provider bind_group_provider.BindGroupProvider)

	// Ready reports whether InitGPU has succeeded.
	//
	// Returns:
	//   - bool: true once the bind group exists
	Ready() bool

	// InitGPU creates the textures, samplers, uniform buffer and bind group for the
	// material's group as declared by layout. Every configured texture must be loaded
	// first: while one is still decoding InitGPU creates nothing and returns an error
	// wrapping the source's not-ready error, so the caller can retry on a later frame.
	// Texture bindings with no configured texture get a 1x1 white fallback. Calling
	// InitGPU on a ready material is a no-op.
	//
	// Parameters:
	//   - gpu: the renderer
	//   - layout: the pipeline's shader, providing bind group layouts and binding roles
	//   - textures: the texture source, normally the scene's loader
	//
	// Returns:
	//   - error: a wrapped texture error, or a GPU resource creation error
	InitGPU(gpu ResourceInitializer, layout BindingLayout, textures TextureSource) error
}

var _ Material = &material{}

// NewMaterial creates a new Material of the given kind.
// Defaults: group 1, repeat/nearest sampler, specular 0.5 gray, shininess 32,
// mix offset 0.2, white color.
//
// Parameters:
//   - kind: the shading model
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(kind Kind, options ...MaterialBuilderOption) Material {
	m := &material{
		mu:             &sync.Mutex{},
		kind:           kind,
		group:          DefaultGroup,
		textures:       make(map[string]string),
		sampler:        *common.RepeatNearestSampler(),
		specular:       [4]float32{0.5, 0.5, 0.5, 1},
		shininess:      32,
		mixOffset:      0.2,
		color:          [4]float32{1, 1, 1, 1},
		uniformBinding: -1,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.name == "" {
		m.name = kind.String()
	}
	if m.bindGroupProvider == nil {
		m.bindGroupProvider = bind_group_provider.NewBindGroupProvider(m.name + "_material")
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Kind() Kind {
	return m.kind
}

func (m *material) PipelineKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pipelineKey
}

func (m *material) SetPipelineKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pipelineKey = key
}

func (m *material) Group() int {
	return m.group
}

func (m *material) Textures() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.textures))
	for role, name := range m.textures {
		out[role] = name
	}
	return out
}

func (m *material) Params() GPUMaterialParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	return GPUMaterialParams{
		Specular:  m.specular,
		Shininess: m.shininess,
		MixOffset: m.mixOffset,
	}
}

func (m *material) Color() GPUColor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return GPUColor{Color: m.color}
}

func (m *material) SetColor(c [4]float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.color = c
}

func (m *material) SetMixOffset(offset float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mixOffset = common.Clamp(offset, 0, 1)
}

func (m *material) UniformData() []byte {
	switch m.kind {
	case KindCustom, KindLit:
		p := m.Params()
		return p.Marshal()
	case KindLightMarker, KindMesh2D:
		c := m.Color()
		return c.Marshal()
	default:
		return nil
	}
}

func (m *material) BufferWrites() []bind_group_provider.BufferWrite {
	m.mu.Lock()
	binding, ok := m.uniformBinding, m.initialized
	m.mu.Unlock()
	if !ok || binding < 0 {
		return nil
	}
	data := m.UniformData()
	if data == nil {
		return nil
	}
	return []bind_group_provider.BufferWrite{bind_group_provider.Write(m.BindGroupProvider(), binding, data)}
}

func (m *material) BindGroupProvider() bind_group_provider.BindGroupProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bindGroupProvider
}

func (m *material) SetBindGroupProvider(provider bind_group_provider.BindGroupProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindGroupProvider = provider
	m.initialized = false
}

func (m *material) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

func (m *material) InitGPU(gpu ResourceInitializer, layout BindingLayout, textures TextureSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialized {
		return nil
	}

	descriptor := layout.BindGroupLayoutDescriptor(m.group)
	if len(descriptor.Entries) == 0 {
		// nothing bound at the material group
		m.initialized = true
		return nil
	}

	// Resolve every texture before touching the GPU so a pending load leaves no partial state.
	staged := make(map[string]common.TextureStagingData, len(m.textures))
	for role, name := range m.textures {
		data, err := textures.Texture(name)
		if err != nil {
			return fmt.Errorf("material %q %s: %w", m.name, role, err)
		}
		staged[role] = data
	}

	provider := m.bindGroupProvider
	uniformBinding := -1
	for _, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		role := layout.BindingRole(m.group, binding)

		switch {
		case entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
			data, ok := staged[role]
			if !ok {
				data = common.TextureStagingData{Pixels: []byte{255, 255, 255, 255}, Width: 1, Height: 1}
			}
			if err := gpu.InitTextureView(provider, binding, data); err != nil {
				return fmt.Errorf("material %q: init %s texture view: %w", m.name, role, err)
			}
		case entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			if err := gpu.InitSampler(provider, binding, m.sampler); err != nil {
				return fmt.Errorf("material %q: init %s sampler: %w", m.name, role, err)
			}
		case entry.Buffer.Type != wgpu.BufferBindingTypeUndefined:
			if role == RoleMaterialParams || role == RoleColor {
				uniformBinding = binding
			}
		}
	}

	if err := gpu.InitBindGroup(provider, descriptor, nil, nil); err != nil {
		return fmt.Errorf("material %q: init bind group: %w", m.name, err)
	}
	m.uniformBinding = uniformBinding
	m.initialized = true
	return nil
}
