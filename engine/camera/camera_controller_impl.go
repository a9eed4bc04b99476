package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/Carmen-Shannon/oxy-materials/engine/input"
)

type flyControllerImpl struct {
	mu *sync.Mutex

	moveSpeed       float32
	lookSensitivity float32
	zoomSensitivity float32
	invertY         bool
	enabled         bool

	keyForward uint32
	keyLeft    uint32
	keyBack    uint32
	keyRight   uint32
}

// Compile-time interface compliance check
var _ FlyController = &flyControllerImpl{}

// NewFlyController creates a FlyController bound to WASD with a move speed of
// 2.5 units/s, look sensitivity 2.0 and zoom sensitivity 100.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - FlyController: the newly created controller
func NewFlyController(options ...FlyControllerOption) FlyController {
	fc := &flyControllerImpl{
		mu:              &sync.Mutex{},
		moveSpeed:       2.5,
		lookSensitivity: 2.0,
		zoomSensitivity: 100.0,
		enabled:         true,
		keyForward:      common.KeyW,
		keyLeft:         common.KeyA,
		keyBack:         common.KeyS,
		keyRight:        common.KeyD,
	}
	for _, option := range options {
		option(fc)
	}
	return fc
}

func (fc *flyControllerImpl) Apply(cam Camera, frame input.Frame, dt float32) {
	fc.mu.Lock()
	if !fc.enabled || dt <= 0 || cam == nil {
		fc.mu.Unlock()
		return
	}
	speed := fc.moveSpeed * dt
	look := fc.lookSensitivity * dt
	zoom := fc.zoomSensitivity * dt
	invert := fc.invertY
	fwd, left, back, right := fc.keyForward, fc.keyLeft, fc.keyBack, fc.keyRight
	fc.mu.Unlock()

	var delta common.Vec3
	dir := cam.Direction()
	rightAxis := cam.Right()
	if frame.Held(fwd) {
		delta = delta.Add(dir.Scale(speed))
	}
	if frame.Held(back) {
		delta = delta.Sub(dir.Scale(speed))
	}
	if frame.Held(left) {
		delta = delta.Sub(rightAxis.Scale(speed))
	}
	if frame.Held(right) {
		delta = delta.Add(rightAxis.Scale(speed))
	}
	cam.Translate(delta)

	// Screen y grows downward, so positive dy looks down.
	dy := -frame.MouseDY
	if invert {
		dy = -dy
	}
	cam.Rotate(common.Radians(frame.MouseDX)*look, common.Radians(dy)*look)

	cam.Zoom(frame.ScrollY * zoom)
}

func (fc *flyControllerImpl) MoveSpeed() float32 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.moveSpeed
}

func (fc *flyControllerImpl) SetMoveSpeed(speed float32) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.moveSpeed = speed
}

func (fc *flyControllerImpl) LookSensitivity() float32 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.lookSensitivity
}

func (fc *flyControllerImpl) ZoomSensitivity() float32 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.zoomSensitivity
}

func (fc *flyControllerImpl) Enabled() bool {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.enabled
}

func (fc *flyControllerImpl) SetEnabled(enabled bool) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.enabled = enabled
}
