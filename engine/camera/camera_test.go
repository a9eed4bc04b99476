package camera

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/Carmen-Shannon/oxy-materials/engine/input"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-5

func assertMatInDelta(t *testing.T, want, got [16]float32) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], eps, "element %d", i)
	}
}

func TestDefaults(t *testing.T) {
	cam := NewCamera()
	assert.Equal(t, common.Vec3{0, 0, 3}, cam.Position())
	assert.InDelta(t, common.Radians(-90), cam.Yaw(), eps)
	assert.Zero(t, cam.Pitch())
	assert.Equal(t, common.Vec3{0, 1, 0}, cam.Up())
	assert.Equal(t, float32(45), cam.Fov())
	assert.InDelta(t, 800.0/600.0, cam.Aspect(), eps)
	assert.Equal(t, float32(0.1), cam.Near())
	assert.Equal(t, float32(100), cam.Far())
	require.NotNil(t, cam.BindGroupProvider())
}

func TestDirectionIsUnitLength(t *testing.T) {
	steps := 64
	for i := 0; i <= steps; i++ {
		yaw := -math.Pi + 2*math.Pi*float64(i)/float64(steps)
		for j := 0; j <= steps; j++ {
			pitch := -math.Pi + 2*math.Pi*float64(j)/float64(steps)
			d := direction(float32(yaw), float32(pitch))
			require.InDelta(t, 1, d.Len(), eps, "yaw=%v pitch=%v", yaw, pitch)
		}
	}
}

func TestDirectionThroughCameraWithoutPitchLimit(t *testing.T) {
	cam := NewCamera(WithPitchLimit(0))
	for i := 0; i < 50; i++ {
		cam.Rotate(0.37, -0.23)
		assert.InDelta(t, 1, cam.Direction().Len(), eps)
		assert.InDelta(t, 1, cam.Right().Len(), eps)
	}
}

func TestDefaultDirectionLooksDownNegativeZ(t *testing.T) {
	d := NewCamera().Direction()
	assert.InDelta(t, 0, d[0], eps)
	assert.InDelta(t, 0, d[1], eps)
	assert.InDelta(t, -1, d[2], eps)

	r := NewCamera().Right()
	assert.InDelta(t, 1, r[0], eps)
	assert.InDelta(t, 0, r[1], eps)
	assert.InDelta(t, 0, r[2], eps)
}

func TestZoomClampsFov(t *testing.T) {
	cam := NewCamera(WithFov(45))
	cam.Zoom(1000)
	assert.Equal(t, float32(1), cam.Fov())

	cam.Zoom(-1000)
	assert.Equal(t, float32(45), cam.Fov())

	cam.Zoom(10)
	assert.Equal(t, float32(35), cam.Fov())

	for _, amount := range []float32{3, -7, 50, -2, 0.5, -100, 44, 1e6, -1e6} {
		cam.Zoom(amount)
		fov := cam.Fov()
		assert.GreaterOrEqual(t, fov, MinFov)
		assert.LessOrEqual(t, fov, MaxFov)
	}
}

func TestWithFovIsClamped(t *testing.T) {
	assert.Equal(t, MaxFov, NewCamera(WithFov(90)).Fov())
	assert.Equal(t, MinFov, NewCamera(WithFov(0)).Fov())
}

func TestTranslate(t *testing.T) {
	cam := NewCamera()
	cam.Translate(common.Vec3{1, -2, 0.5})
	assert.Equal(t, common.Vec3{1, -2, 3.5}, cam.Position())

	before := cam.ViewMatrix()
	cam.Translate(common.Vec3{})
	assert.Equal(t, common.Vec3{1, -2, 3.5}, cam.Position())
	assert.Equal(t, before, cam.ViewMatrix())
}

func TestRotateZeroIsNoOp(t *testing.T) {
	cam := NewCamera(WithYaw(-30), WithPitch(12))
	yaw, pitch := cam.Yaw(), cam.Pitch()
	cam.Rotate(0, 0)
	assert.Equal(t, yaw, cam.Yaw())
	assert.Equal(t, pitch, cam.Pitch())
}

func TestRotateClampsPitch(t *testing.T) {
	cam := NewCamera()
	cam.Rotate(0, 10)
	assert.InDelta(t, common.Radians(DefaultPitchLimit), cam.Pitch(), eps)
	cam.Rotate(0, -20)
	assert.InDelta(t, -common.Radians(DefaultPitchLimit), cam.Pitch(), eps)

	free := NewCamera(WithPitchLimit(0))
	free.Rotate(0, 10)
	assert.InDelta(t, 10, free.Pitch(), eps)
}

func TestViewMatrixMatchesLookAt(t *testing.T) {
	cam := NewCamera(WithPosition(0, 0, 3), WithYaw(-90), WithPitch(0), WithUp(0, 1, 0))
	dir := cam.Direction()

	ref := mgl32.LookAtV(
		mgl32.Vec3{0, 0, 3},
		mgl32.Vec3{0, 0, 3}.Add(mgl32.Vec3(dir)),
		mgl32.Vec3{0, 1, 0},
	)
	assertMatInDelta(t, ref, cam.ViewMatrix())

	// Looking down -Z from z=3 is the identity rotation with a -3 z translation.
	hand := [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, -3, 1,
	}
	assertMatInDelta(t, hand, cam.ViewMatrix())
}

func TestProjectionMatrixMatchesReference(t *testing.T) {
	cam := NewCamera(WithFov(45), WithAspect(800.0/600.0), WithNear(0.1), WithFar(100))

	f := 1 / math.Tan(45*math.Pi/180/2)
	aspect := 800.0 / 600.0
	near, far := 0.1, 100.0
	want := [16]float32{
		float32(f / aspect), 0, 0, 0,
		0, float32(f), 0, 0,
		0, 0, float32(far / (near - far)), -1,
		0, 0, float32(near * far / (near - far)), 0,
	}
	assertMatInDelta(t, want, cam.ProjectionMatrix())
}

func TestSetAspectUpdatesProjection(t *testing.T) {
	cam := NewCamera()
	cam.SetAspect(2)
	p := cam.ProjectionMatrix()
	assert.InDelta(t, p[5]/2, p[0], eps)

	cam.SetAspect(0)
	assert.Equal(t, float32(2), cam.Aspect())
}

func TestSnapshotIsDetached(t *testing.T) {
	cam := NewCamera()
	snap := cam.Snapshot()
	cam.Translate(common.Vec3{5, 0, 0})
	cam.Zoom(10)

	assert.Equal(t, common.Vec3{0, 0, 3}, snap.Position)
	assert.Equal(t, float32(45), snap.Fov)
	assert.NotEqual(t, snap.View, cam.ViewMatrix())
	assert.NotEqual(t, snap.Proj, cam.ProjectionMatrix())
}

func TestCameraUniformMarshal(t *testing.T) {
	cam := NewCamera(WithPosition(1, 2, 3))
	u := cam.Snapshot().Uniform()
	require.Equal(t, 144, u.Size())

	buf := u.Marshal()
	require.Len(t, buf, 144)

	view := cam.ViewMatrix()
	proj := cam.ProjectionMatrix()
	for i := 0; i < 16; i++ {
		assert.Equal(t, math.Float32bits(view[i]), binary.LittleEndian.Uint32(buf[i*4:]))
		assert.Equal(t, math.Float32bits(proj[i]), binary.LittleEndian.Uint32(buf[64+i*4:]))
	}
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[128:])))
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[132:])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[136:])))
	assert.Zero(t, binary.LittleEndian.Uint32(buf[140:]))
}

func TestUniformSourceMatchesLayout(t *testing.T) {
	assert.Contains(t, GPUCameraUniformSource, "struct CameraUniform")
	assert.Contains(t, GPUCameraUniformSource, "view: mat4x4<f32>")
	assert.Contains(t, GPUCameraUniformSource, "proj: mat4x4<f32>")
}

func held(keys ...uint32) input.Frame {
	f := input.Frame{Keys: map[uint32]struct{}{}}
	for _, k := range keys {
		f.Keys[k] = struct{}{}
	}
	return f
}

func TestControllerNoInputLeavesCameraUntouched(t *testing.T) {
	cam := NewCamera()
	ctrl := NewFlyController()
	before := cam.Snapshot()

	ctrl.Apply(cam, input.Frame{}, 1.0/60)
	assert.Equal(t, before, cam.Snapshot())
}

func TestControllerForwardAndStrafe(t *testing.T) {
	cam := NewCamera()
	ctrl := NewFlyController()

	ctrl.Apply(cam, held(common.KeyW), 0.5)
	p := cam.Position()
	assert.InDelta(t, 0, p[0], eps)
	assert.InDelta(t, 3-1.25, p[2], eps)

	ctrl.Apply(cam, held(common.KeyD), 0.5)
	p = cam.Position()
	assert.InDelta(t, 1.25, p[0], eps)

	ctrl.Apply(cam, held(common.KeyA, common.KeyD), 0.5)
	assert.InDelta(t, 1.25, cam.Position()[0], eps)

	ctrl.Apply(cam, held(common.KeyS), 0.5)
	assert.InDelta(t, 3, cam.Position()[2], eps)
}

func TestControllerLookAndZoomScaleByDt(t *testing.T) {
	cam := NewCamera()
	ctrl := NewFlyController()
	yaw := cam.Yaw()

	ctrl.Apply(cam, input.Frame{MouseDX: 10, MouseDY: 5}, 0.1)
	assert.InDelta(t, yaw+common.Radians(10)*2*0.1, cam.Yaw(), eps)
	assert.InDelta(t, -common.Radians(5)*2*0.1, cam.Pitch(), eps)

	ctrl.Apply(cam, input.Frame{ScrollY: 1}, 0.01)
	assert.InDelta(t, 44, cam.Fov(), 1e-4)
}

func TestControllerDisabledAndBadDt(t *testing.T) {
	cam := NewCamera()
	ctrl := NewFlyController(WithMoveSpeed(10))
	before := cam.Position()

	ctrl.Apply(cam, held(common.KeyW), 0)
	ctrl.Apply(cam, held(common.KeyW), -1)
	ctrl.SetEnabled(false)
	assert.False(t, ctrl.Enabled())
	ctrl.Apply(cam, held(common.KeyW), 1)
	assert.Equal(t, before, cam.Position())
}

func TestControllerOptions(t *testing.T) {
	ctrl := NewFlyController(
		WithMoveSpeed(5),
		WithLookSensitivity(1),
		WithZoomSensitivity(10),
		WithKeyMap(common.KeyE, common.KeyQ, common.KeyR, common.KeySpace),
		WithInvertY(true),
	)
	assert.Equal(t, float32(5), ctrl.MoveSpeed())
	assert.Equal(t, float32(1), ctrl.LookSensitivity())
	assert.Equal(t, float32(10), ctrl.ZoomSensitivity())

	cam := NewCamera(WithController(ctrl))
	require.Equal(t, ctrl, cam.Controller())

	ctrl.Apply(cam, held(common.KeyW), 1)
	assert.Equal(t, common.Vec3{0, 0, 3}, cam.Position())

	ctrl.Apply(cam, held(common.KeyE), 0.2)
	assert.InDelta(t, 2, cam.Position()[2], eps)

	ctrl.Apply(cam, input.Frame{MouseDY: 10}, 1)
	assert.Greater(t, cam.Pitch(), float32(0))

	ctrl.SetMoveSpeed(1)
	assert.Equal(t, float32(1), ctrl.MoveSpeed())
}
