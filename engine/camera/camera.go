package camera

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/bind_group_provider"
	"github.com/chewxy/math32"
)

const (
	// MinFov and MaxFov bound the vertical field of view in degrees.
	MinFov float32 = 1.0
	MaxFov float32 = 45.0
	// DefaultPitchLimit keeps pitch away from the poles where look-at degenerates.
	DefaultPitchLimit float32 = 89.0
)

// nextID numbers cameras so each one's uniform provider gets a distinct label.
var nextID atomic.Uint64

type freeCamera struct {
	mu sync.RWMutex

	position common.Vec3
	up       common.Vec3
	// yaw and pitch are stored in radians; the builder options take degrees.
	yaw, pitch float32
	pitchLimit float32 // radians, 0 means unbounded

	fov        float32 // degrees
	aspect     float32
	near, far  float32
	view, proj [16]float32
	controller FlyController
	gpuUniform bind_group_provider.BindGroupProvider
}

// Camera is a free-fly perspective camera described by a position and yaw/pitch look angles.
// The tick goroutine mutates it and the render side reads it through Snapshot, so every
// method is safe for concurrent use.
type Camera interface {
	Position() common.Vec3
	// Yaw is the horizontal look angle in radians.
	Yaw() float32
	// Pitch is the vertical look angle in radians, within the pitch limit.
	Pitch() float32
	Up() common.Vec3
	// Fov is the vertical field of view in degrees, within [MinFov, MaxFov].
	Fov() float32
	Aspect() float32
	Near() float32
	Far() float32

	// Direction returns the unit facing vector
	// normalize(cos(yaw)cos(pitch), sin(pitch), sin(yaw)cos(pitch)).
	Direction() common.Vec3

	// Right returns normalize(cross(direction, up)).
	Right() common.Vec3

	// Translate moves the eye by delta. A zero delta is a no-op and does not rebuild
	// the matrices.
	Translate(delta common.Vec3)

	// Rotate adds to yaw and pitch, then clamps pitch to the pitch limit if one is set.
	//
	// Parameters:
	//   - yawDelta: radians to add to yaw
	//   - pitchDelta: radians to add to pitch
	Rotate(yawDelta, pitchDelta float32)

	// Zoom subtracts amount degrees from the field of view and clamps it. Negative
	// amounts zoom out.
	Zoom(amount float32)

	// ViewMatrix is look-at(position, position+direction, up), column-major.
	ViewMatrix() [16]float32

	// ProjectionMatrix is the right-handed perspective matrix for the current fov,
	// aspect and clip planes, column-major with clip depth in [0, 1].
	ProjectionMatrix() [16]float32

	// SetAspect updates width / height, usually after a resize. Values <= 0 are ignored.
	SetAspect(aspect float32)

	// Snapshot copies the whole camera state under one lock, so the values are
	// consistent with each other and never alias the live camera.
	//
	// Returns:
	//   - Snapshot: position, look angles, lens and both matrices
	Snapshot() Snapshot

	Controller() FlyController
	SetController(ctrl FlyController)

	// BindGroupProvider holds the GPU uniform buffer the scene writes the snapshot into.
	BindGroupProvider() bind_group_provider.BindGroupProvider
	SetBindGroupProvider(p bind_group_provider.BindGroupProvider)
}

var _ Camera = &freeCamera{}

// NewCamera creates a camera. The defaults put the eye at (0, 0, 3) looking down -Z
// with a 45 degree field of view and pitch bounded at DefaultPitchLimit.
//
// Parameters:
//   - options: builder options, applied in order
//
// Returns:
//   - Camera: the camera with its matrices computed
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &freeCamera{
		position:   common.Vec3{0, 0, 3},
		up:         common.Vec3{0, 1, 0},
		yaw:        common.Radians(-90),
		pitchLimit: common.Radians(DefaultPitchLimit),
		fov:        MaxFov,
		aspect:     800.0 / 600.0,
		near:       0.1,
		far:        100.0,
	}
	for _, apply := range options {
		apply(c)
	}
	if c.gpuUniform == nil {
		label := fmt.Sprintf("camera_%d", nextID.Add(1)-1)
		c.gpuUniform = bind_group_provider.NewBindGroupProvider(label)
	}
	c.pitch = c.clampPitch(c.pitch)
	c.rebuild()
	return c
}

func (c *freeCamera) Position() common.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.position
}

func (c *freeCamera) Yaw() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.yaw
}

func (c *freeCamera) Pitch() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pitch
}

func (c *freeCamera) Up() common.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.up
}

func (c *freeCamera) Fov() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fov
}

func (c *freeCamera) Aspect() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.aspect
}

func (c *freeCamera) Near() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.near
}

func (c *freeCamera) Far() float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.far
}

func (c *freeCamera) Direction() common.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return direction(c.yaw, c.pitch)
}

func (c *freeCamera) Right() common.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return direction(c.yaw, c.pitch).Cross(c.up).Normalize()
}

func (c *freeCamera) Translate(delta common.Vec3) {
	if delta.IsZero() {
		return
	}
	c.mu.Lock()
	c.position = c.position.Add(delta)
	c.rebuild()
	c.mu.Unlock()
}

func (c *freeCamera) Rotate(yawDelta, pitchDelta float32) {
	if yawDelta == 0 && pitchDelta == 0 {
		return
	}
	c.mu.Lock()
	c.yaw += yawDelta
	c.pitch = c.clampPitch(c.pitch + pitchDelta)
	c.rebuild()
	c.mu.Unlock()
}

func (c *freeCamera) Zoom(amount float32) {
	if amount == 0 {
		return
	}
	c.mu.Lock()
	c.fov = common.Clamp(c.fov-amount, MinFov, MaxFov)
	c.rebuild()
	c.mu.Unlock()
}

func (c *freeCamera) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	c.aspect = aspect
	c.rebuild()
	c.mu.Unlock()
}

func (c *freeCamera) ViewMatrix() [16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

func (c *freeCamera) ProjectionMatrix() [16]float32 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proj
}

func (c *freeCamera) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Position:  c.position,
		Direction: direction(c.yaw, c.pitch),
		Yaw:       c.yaw,
		Pitch:     c.pitch,
		Fov:       c.fov,
		Aspect:    c.aspect,
		Near:      c.near,
		Far:       c.far,
		View:      c.view,
		Proj:      c.proj,
	}
}

func (c *freeCamera) Controller() FlyController {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.controller
}

func (c *freeCamera) SetController(ctrl FlyController) {
	c.mu.Lock()
	c.controller = ctrl
	c.mu.Unlock()
}

func (c *freeCamera) BindGroupProvider() bind_group_provider.BindGroupProvider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gpuUniform
}

func (c *freeCamera) SetBindGroupProvider(p bind_group_provider.BindGroupProvider) {
	c.mu.Lock()
	c.gpuUniform = p
	c.mu.Unlock()
}

// direction converts yaw and pitch in radians to a unit facing vector.
func direction(yaw, pitch float32) common.Vec3 {
	sy, cy := math32.Sincos(yaw)
	sp, cp := math32.Sincos(pitch)
	return common.Vec3{cy * cp, sp, sy * cp}.Normalize()
}

// clampPitch applies the pitch limit. c.mu must be held.
func (c *freeCamera) clampPitch(pitch float32) float32 {
	if c.pitchLimit <= 0 {
		return pitch
	}
	return common.Clamp(pitch, -c.pitchLimit, c.pitchLimit)
}

// rebuild recomputes the view and projection matrices. c.mu must be held for writing.
func (c *freeCamera) rebuild() {
	eye := c.position
	common.LookAt(c.view[:], eye, eye.Add(direction(c.yaw, c.pitch)), c.up)
	common.Perspective(c.proj[:], common.Radians(c.fov), c.aspect, c.near, c.far)
}
