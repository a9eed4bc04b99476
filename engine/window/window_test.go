package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/stretchr/testify/assert"
)

func TestCursorTrackerSkipsFirstEvent(t *testing.T) {
	var c cursorTracker

	_, _, ok := c.delta(100, 50)
	assert.False(t, ok)

	dx, dy, ok := c.delta(110, 45)
	assert.True(t, ok)
	assert.Equal(t, float32(10), dx)
	assert.Equal(t, float32(-5), dy)

	dx, dy, ok = c.delta(110, 45)
	assert.True(t, ok)
	assert.Zero(t, dx)
	assert.Zero(t, dy)
}

func TestCursorTrackerReset(t *testing.T) {
	var c cursorTracker
	c.delta(0, 0)
	c.delta(5, 5)

	// capturing the cursor warps it; the jump must not turn into a look delta
	c.reset()
	_, _, ok := c.delta(400, 300)
	assert.False(t, ok)

	dx, dy, ok := c.delta(401, 299)
	assert.True(t, ok)
	assert.Equal(t, float32(1), dx)
	assert.Equal(t, float32(-1), dy)
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{resizable: true}
	for _, opt := range []WindowBuilderOption{
		WithTitle("lit"),
		WithWidth(1024),
		WithHeight(768),
		WithSizeLimits(320, 240, 1920, 1080),
		WithResizable(false),
		WithCursorCaptured(true),
		WithCloseKey(common.KeyQ),
	} {
		opt(w)
	}

	assert.Equal(t, "lit", w.title)
	assert.Equal(t, 1024, w.Width())
	assert.Equal(t, 768, w.Height())
	assert.Equal(t, sizeLimits{320, 240, 1920, 1080}, w.limits)
	assert.False(t, w.resizable)
	assert.True(t, w.CursorCaptured())
	assert.Equal(t, uint32(common.KeyQ), w.closeKey)
}

func TestHandleKeyRoutesAndSwallowsCloseKey(t *testing.T) {
	w := &engineWindow{closeKey: common.KeyEsc}
	var down, up []uint32
	w.SetKeyDownCallback(func(k uint32) { down = append(down, k) })
	w.SetKeyUpCallback(func(k uint32) { up = append(up, k) })

	assert.False(t, w.handleKey(common.KeyW, true))
	assert.False(t, w.handleKey(common.KeyW, false))
	assert.True(t, w.handleKey(common.KeyEsc, true))
	assert.False(t, w.handleKey(common.KeyEsc, false))

	assert.Equal(t, []uint32{common.KeyW}, down)
	assert.Equal(t, []uint32{common.KeyW}, up)

	w.closeKey = 0
	assert.False(t, w.handleKey(common.KeyEsc, true))
	assert.Equal(t, []uint32{common.KeyW, common.KeyEsc}, down)
}

func TestHandleCursorSkipsFirstAndStillEvents(t *testing.T) {
	w := &engineWindow{}
	var deltas [][2]float32
	w.SetMouseDeltaCallback(func(dx, dy float32) { deltas = append(deltas, [2]float32{dx, dy}) })

	w.handleCursor(10, 10)
	w.handleCursor(10, 10)
	w.handleCursor(13, 8)
	assert.Equal(t, [][2]float32{{3, -2}}, deltas)
}

func TestHandleResizeIgnoresMinimize(t *testing.T) {
	w := &engineWindow{width: 800, height: 600}
	var calls int
	w.SetResizeCallback(func(int, int) { calls++ })

	w.handleResize(0, 0)
	assert.Equal(t, 800, w.Width())
	assert.Zero(t, calls)

	w.handleResize(1280, 720)
	assert.Equal(t, 1280, w.Width())
	assert.Equal(t, 720, w.Height())
	assert.Equal(t, 1, calls)
}

func TestUninitializedWindow(t *testing.T) {
	w := &engineWindow{}
	assert.False(t, w.IsRunning())
	assert.Nil(t, w.SurfaceDescriptor())
	assert.ErrorIs(t, w.Close(), errNoWindow)
	assert.NotPanics(t, w.ProcessMessages)

	// no platform window: capture only flips the flag
	w.SetCursorCaptured(true)
	assert.True(t, w.CursorCaptured())
}
