package camera

import (
	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/bind_group_provider"
)

// CameraBuilderOption configures a camera in NewCamera. Angles are given in degrees.
type CameraBuilderOption func(*freeCamera)

// WithPosition places the eye.
func WithPosition(x, y, z float32) CameraBuilderOption {
	return func(c *freeCamera) {
		c.position = common.Vec3{x, y, z}
	}
}

// WithYaw sets the horizontal look angle. -90 looks down -Z.
func WithYaw(degrees float32) CameraBuilderOption {
	return func(c *freeCamera) {
		c.yaw = common.Radians(degrees)
	}
}

// WithPitch sets the vertical look angle, positive up. NewCamera clamps it to the
// pitch limit after all options ran, so the order of WithPitch and WithPitchLimit
// does not matter.
//
// Parameters:
//   - degrees: the pitch
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithPitch(degrees float32) CameraBuilderOption {
	return func(c *freeCamera) {
		c.pitch = common.Radians(degrees)
	}
}

func WithUp(x, y, z float32) CameraBuilderOption {
	return func(c *freeCamera) {
		c.up = common.Vec3{x, y, z}
	}
}

// WithFov sets the vertical field of view, clamped to [MinFov, MaxFov].
func WithFov(degrees float32) CameraBuilderOption {
	return func(c *freeCamera) {
		c.fov = common.Clamp(degrees, MinFov, MaxFov)
	}
}

// WithAspect sets width / height. The engine overwrites it on every resize.
func WithAspect(ratio float32) CameraBuilderOption {
	return func(c *freeCamera) {
		if ratio > 0 {
			c.aspect = ratio
		}
	}
}

// WithClipPlanes sets the near and far plane distances.
//
// Parameters:
//   - near: distance to the near plane, must be > 0
//   - far: distance to the far plane, must be > near
//
// Returns:
//   - CameraBuilderOption: option function to apply
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *freeCamera) {
		c.near, c.far = near, far
	}
}

func WithNear(near float32) CameraBuilderOption {
	return func(c *freeCamera) { c.near = near }
}

func WithFar(far float32) CameraBuilderOption {
	return func(c *freeCamera) { c.far = far }
}

// WithPitchLimit bounds |pitch|. 0 removes the bound and lets the camera roll over
// the poles.
func WithPitchLimit(degrees float32) CameraBuilderOption {
	return func(c *freeCamera) {
		c.pitchLimit = common.Radians(degrees)
	}
}

// WithController attaches the fly controller the engine applies each tick.
func WithController(ctrl FlyController) CameraBuilderOption {
	return func(c *freeCamera) {
		c.controller = ctrl
	}
}

// WithBindGroupProvider replaces the generated provider that holds the camera uniform.
func WithBindGroupProvider(p bind_group_provider.BindGroupProvider) CameraBuilderOption {
	return func(c *freeCamera) {
		c.gpuUniform = p
	}
}
