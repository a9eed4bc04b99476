package light

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// The position is read as the direction towards the light.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position
	// and attenuates with distance.
	LightTypePoint
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	lightType LightType
	position  common.Vec3
	ambient   [4]float32
	diffuse   [4]float32
	specular  [4]float32
	constant  float32
	linear    float32
	quadratic float32
	enabled   bool
}

// Light defines the interface for a Phong light source in the scene.
//
// A Light is mutated by the tick goroutine (for example MoveLight) and read by the
// render goroutine when marshalling its GPU records, so every accessor is locked.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional or point)
	Type() LightType

	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - common.Vec3: position as (x, y, z)
	Position() common.Vec3

	// SetPosition moves the light.
	//
	// Parameters:
	//   - pos: the new world-space position
	SetPosition(pos common.Vec3)

	// Ambient returns the ambient RGBA term.
	Ambient() [4]float32

	// Diffuse returns the diffuse RGBA term.
	Diffuse() [4]float32

	// Specular returns the specular RGBA term.
	Specular() [4]float32

	// Attenuation returns the constant, linear and quadratic attenuation factors.
	// Directional lights report (1, 0, 0).
	//
	// Returns:
	//   - constant, linear, quadratic: the attenuation factors
	Attenuation() (constant, linear, quadratic float32)

	// Enabled returns whether this light is active for rendering.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// SetEnabled toggles the light. A disabled light marshals with zeroed colors.
	//
	// Parameters:
	//   - enabled: the new enabled state
	SetEnabled(enabled bool)

	// MoveLight animates the light along the x axis: x = sin(t).
	//
	// Parameters:
	//   - t: seconds since the scene started
	MoveLight(t float32)

	// ModelMatrix returns the translation matrix placing light geometry at the light position.
	//
	// Returns:
	//   - mgl32.Mat4: column-major model matrix
	ModelMatrix() mgl32.Mat4

	// Uniform returns the GPULight record for the light uniform.
	//
	// Returns:
	//   - GPULight: the marshal-ready record
	Uniform() GPULight

	// PointUniform returns the attenuated GPUPointLight record.
	//
	// Returns:
	//   - GPUPointLight: the marshal-ready record
	PointUniform() GPUPointLight

	// Instance returns the per-instance record used to draw the light's marker geometry.
	//
	// Returns:
	//   - GPUPointLightInstance: the marshal-ready record
	Instance() GPUPointLightInstance
}

var _ Light = &lightImpl{}

// NewLight creates a new Light. Defaults: point light at (0, 1, 2), ambient 0.1,
// diffuse 1.0, specular 0.5 (all alpha 1), attenuation (1, 0.09, 0.032), enabled.
//
// Parameters:
//   - options: variadic LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: the configured light
func NewLight(options ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:        &sync.Mutex{},
		lightType: LightTypePoint,
		position:  common.Vec3{0, 1, 2},
		ambient:   [4]float32{0.1, 0.1, 0.1, 1},
		diffuse:   [4]float32{1, 1, 1, 1},
		specular:  [4]float32{0.5, 0.5, 0.5, 1},
		constant:  1,
		linear:    0.09,
		quadratic: 0.032,
		enabled:   true,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lightType
}

func (l *lightImpl) Position() common.Vec3 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) SetPosition(pos common.Vec3) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = pos
}

func (l *lightImpl) Ambient() [4]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ambient
}

func (l *lightImpl) Diffuse() [4]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.diffuse
}

func (l *lightImpl) Specular() [4]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.specular
}

func (l *lightImpl) Attenuation() (float32, float32, float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lightType == LightTypeDirectional {
		return 1, 0, 0
	}
	return l.constant, l.linear, l.quadratic
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

func (l *lightImpl) MoveLight(t float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position[0] = math32.Sin(t)
}

func (l *lightImpl) ModelMatrix() mgl32.Mat4 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return mgl32.Translate3D(l.position[0], l.position[1], l.position[2])
}

func (l *lightImpl) Uniform() GPULight {
	l.mu.Lock()
	defer l.mu.Unlock()
	ambient, diffuse, specular := l.colors()
	var w float32
	if l.lightType == LightTypePoint {
		w = 1
	}
	return GPULight{
		Position: [4]float32{l.position[0], l.position[1], l.position[2], w},
		Ambient:  ambient,
		Diffuse:  diffuse,
		Specular: specular,
	}
}

func (l *lightImpl) PointUniform() GPUPointLight {
	l.mu.Lock()
	defer l.mu.Unlock()
	ambient, diffuse, specular := l.colors()
	return GPUPointLight{
		Position:  l.position,
		Constant:  l.constant,
		Linear:    l.linear,
		Quadratic: l.quadratic,
		Ambient:   ambient,
		Diffuse:   diffuse,
		Specular:  specular,
	}
}

func (l *lightImpl) Instance() GPUPointLightInstance {
	model := l.ModelMatrix()
	l.mu.Lock()
	defer l.mu.Unlock()
	ambient, diffuse, specular := l.colors()
	return GPUPointLightInstance{
		Model:    model,
		Ambient:  ambient,
		Diffuse:  diffuse,
		Specular: specular,
	}
}

// colors returns the color terms, zeroed when the light is disabled. Caller holds mu.
func (l *lightImpl) colors() (ambient, diffuse, specular [4]float32) {
	if !l.enabled {
		return
	}
	return l.ambient, l.diffuse, l.specular
}
