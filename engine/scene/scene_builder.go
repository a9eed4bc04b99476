package scene

import (
	"github.com/Carmen-Shannon/oxy-materials/engine/light"
	"github.com/Carmen-Shannon/oxy-materials/engine/loader"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is active for rendering.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithLoader sets the texture loader the scene polls and resolves material textures
// from. The scene closes it on Release.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLoader(l loader.Loader) SceneBuilderOption {
	return func(s *scene) {
		s.assets = l
	}
}

// WithLights adds initial lights to the scene.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.lights = append(s.lights, lights...)
	}
}

// WithUpdate registers an update callback, as OnUpdate does.
func WithUpdate(fn UpdateFunc) SceneBuilderOption {
	return func(s *scene) {
		s.updates = append(s.updates, fn)
	}
}

// WithMaxLights sets how many lights a storage light array binding is sized for.
// Defaults to DefaultMaxLights; lights beyond the limit are not uploaded.
//
// Parameters:
//   - n: the maximum light count (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaxLights(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.maxLights = n
	}
}
