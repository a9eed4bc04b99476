package camera

import "github.com/Carmen-Shannon/oxy-materials/engine/input"

// FlyController turns one tick of aggregated input into camera motion.
// WASD translates along the facing and right vectors, mouse motion rotates
// and scroll zooms. Every delta is scaled by the tick's elapsed time once.
type FlyController interface {
	// Apply mutates the camera from one drained input frame.
	// Does nothing when the controller is disabled or dt is not positive.
	//
	// Parameters:
	//   - cam: the camera to move
	//   - frame: the input accumulated since the previous tick
	//   - dt: elapsed tick time in seconds
	Apply(cam Camera, frame input.Frame, dt float32)

	// MoveSpeed returns the translation speed in world units per second.
	MoveSpeed() float32

	// SetMoveSpeed sets the translation speed in world units per second.
	//
	// Parameters:
	//   - speed: world units per second
	SetMoveSpeed(speed float32)

	// LookSensitivity returns the multiplier applied to mouse deltas.
	LookSensitivity() float32

	// ZoomSensitivity returns the multiplier applied to scroll deltas.
	ZoomSensitivity() float32

	// Enabled reports whether Apply moves the camera.
	Enabled() bool

	// SetEnabled turns the controller on or off.
	//
	// Parameters:
	//   - enabled: false makes Apply a no-op
	SetEnabled(enabled bool)
}
