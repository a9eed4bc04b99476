package light

import "github.com/Carmen-Shannon/oxy-materials/common"

// LightBuilderOption is a function that configures a Light instance during construction.
type LightBuilderOption func(*lightImpl)

// WithType is an option builder that sets the kind of light.
//
// Parameters:
//   - lightType: LightTypeDirectional or LightTypePoint
//
// Returns:
//   - LightBuilderOption: a function that applies the type option to a lightImpl
func WithType(lightType LightType) LightBuilderOption {
	return func(l *lightImpl) {
		l.lightType = lightType
	}
}

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - pos: the light position
//
// Returns:
//   - LightBuilderOption: a function that applies the position option to a lightImpl
func WithPosition(pos common.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = pos
	}
}

// WithAmbient is an option builder that sets the ambient RGBA term.
//
// Parameters:
//   - c: the ambient color
//
// Returns:
//   - LightBuilderOption: a function that applies the ambient option to a lightImpl
func WithAmbient(c [4]float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.ambient = c
	}
}

// WithDiffuse is an option builder that sets the diffuse RGBA term.
//
// Parameters:
//   - c: the diffuse color
//
// Returns:
//   - LightBuilderOption: a function that applies the diffuse option to a lightImpl
func WithDiffuse(c [4]float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.diffuse = c
	}
}

// WithSpecular is an option builder that sets the specular RGBA term.
//
// Parameters:
//   - c: the specular color
//
// Returns:
//   - LightBuilderOption: a function that applies the specular option to a lightImpl
func WithSpecular(c [4]float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.specular = c
	}
}

// WithAttenuation is an option builder that sets the point light falloff
// 1 / (constant + linear*d + quadratic*d*d).
//
// Parameters:
//   - constant: the constant term, clamped to at least 1e-4
//   - linear: the linear term
//   - quadratic: the quadratic term
//
// Returns:
//   - LightBuilderOption: a function that applies the attenuation option to a lightImpl
func WithAttenuation(constant, linear, quadratic float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.constant = max(constant, 1e-4)
		l.linear = linear
		l.quadratic = quadratic
	}
}

// WithEnabled is an option builder that sets the initial enabled state.
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}
