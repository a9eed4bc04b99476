package camera

// FlyControllerOption is a functional option for configuring a FlyController.
type FlyControllerOption func(*flyControllerImpl)

// WithMoveSpeed sets the translation speed.
//
// Parameters:
//   - speed: world units per second
//
// Returns:
//   - FlyControllerOption: functional option to set the move speed
func WithMoveSpeed(speed float32) FlyControllerOption {
	return func(fc *flyControllerImpl) {
		fc.moveSpeed = speed
	}
}

// WithLookSensitivity sets the mouse-look multiplier.
// Mouse deltas are read as degrees, multiplied by this value and by dt.
//
// Parameters:
//   - sensitivity: multiplier for mouse movement
//
// Returns:
//   - FlyControllerOption: functional option to set the look sensitivity
func WithLookSensitivity(sensitivity float32) FlyControllerOption {
	return func(fc *flyControllerImpl) {
		fc.lookSensitivity = sensitivity
	}
}

// WithZoomSensitivity sets the scroll multiplier.
//
// Parameters:
//   - sensitivity: degrees of field of view per scroll unit per second
//
// Returns:
//   - FlyControllerOption: functional option to set the zoom sensitivity
func WithZoomSensitivity(sensitivity float32) FlyControllerOption {
	return func(fc *flyControllerImpl) {
		fc.zoomSensitivity = sensitivity
	}
}

// WithKeyMap replaces the movement keys.
//
// Parameters:
//   - forward, left, back, right: key codes (see common.Key*)
//
// Returns:
//   - FlyControllerOption: functional option to set the movement keys
func WithKeyMap(forward, left, back, right uint32) FlyControllerOption {
	return func(fc *flyControllerImpl) {
		fc.keyForward = forward
		fc.keyLeft = left
		fc.keyBack = back
		fc.keyRight = right
	}
}

// WithInvertY flips the vertical look direction.
func WithInvertY(invert bool) FlyControllerOption {
	return func(fc *flyControllerImpl) {
		fc.invertY = invert
	}
}
