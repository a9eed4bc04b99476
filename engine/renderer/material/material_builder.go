package material

import (
	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/bind_group_provider"
)

// MaterialBuilderOption is a functional option for configuring a Material.
type MaterialBuilderOption func(*material)

// WithName sets the material identifier. The kind name is used when empty.
//
// Parameters:
//   - name: the name to assign to the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithPipelineKey sets the render pipeline key for the material.
//
// Parameters:
//   - key: the pipeline key identifying which render pipeline to use
//
// Returns:
//   - MaterialBuilderOption: a function that applies the pipeline key to a material
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineKey = key
	}
}

// WithGroup overrides the bind group index (default 1).
func WithGroup(group int) MaterialBuilderOption {
	return func(m *material) {
		m.group = group
	}
}

// WithTexture binds a loader texture to a role such as RoleDiffuseTexture.
//
// Parameters:
//   - role: the binding role declared by the shader
//   - name: the texture name registered with the loader
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture to a material
func WithTexture(role, name string) MaterialBuilderOption {
	return func(m *material) {
		m.textures[role] = name
	}
}

// WithSampler replaces the sampler used for every sampler binding.
//
// Parameters:
//   - s: the sampler configuration
//
// Returns:
//   - MaterialBuilderOption: a function that applies the sampler to a material
func WithSampler(s common.SamplerStagingData) MaterialBuilderOption {
	return func(m *material) {
		m.sampler = s
	}
}

// WithSpecular sets the specular tint.
//
// Parameters:
//   - c: RGBA specular color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the specular color to a material
func WithSpecular(c [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.specular = c
	}
}

// WithShininess sets the Phong exponent. Values below 1 are raised to 1.
//
// Parameters:
//   - shininess: the exponent
//
// Returns:
//   - MaterialBuilderOption: a function that applies the shininess to a material
func WithShininess(shininess float32) MaterialBuilderOption {
	return func(m *material) {
		m.shininess = max(shininess, 1)
	}
}

// WithMixOffset sets the base/mix texture blend factor, clamped to [0, 1].
//
// Parameters:
//   - offset: the blend factor
//
// Returns:
//   - MaterialBuilderOption: a function that applies the mix offset to a material
func WithMixOffset(offset float32) MaterialBuilderOption {
	return func(m *material) {
		m.mixOffset = common.Clamp(offset, 0, 1)
	}
}

// WithColor sets the flat color for light markers and 2D meshes.
//
// Parameters:
//   - c: RGBA color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the color to a material
func WithColor(c [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.color = c
	}
}

// WithBindGroupProvider sets the bind group provider for the material.
//
// Parameters:
//   - provider: the bind group provider containing GPU resources for this material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the bind group provider to a material
func WithBindGroupProvider(provider bind_group_provider.BindGroupProvider) MaterialBuilderOption {
	return func(m *material) {
		m.bindGroupProvider = provider
	}
}
