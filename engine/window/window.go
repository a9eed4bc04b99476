// Package window opens the GLFW window the renderer presents to and turns its raw events
// into the key, mouse delta and scroll callbacks the engine feeds into the input
// accumulator.
package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/Carmen-Shannon/oxy-materials/engine/logger"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window is a platform window plus its input callbacks. All callbacks run on the thread
// that called NewWindow and ProcessMessages.
type Window interface {
	// SetUpdateCallback sets the function called once per message loop iteration.
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called with the new framebuffer size in pixels.
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the function called with the vertical wheel offset.
	// Positive values scroll up.
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the function called on key press and key repeat.
	//
	// Parameters:
	//   - callback: receives the key code, see common.Key*
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the function called on key release.
	//
	// Parameters:
	//   - callback: receives the key code, see common.Key*
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseDeltaCallback sets the function called with cursor motion since the previous
	// cursor event. The first event after creation or a capture change only records the
	// position.
	//
	// Parameters:
	//   - callback: receives the x and y motion in screen pixels
	SetMouseDeltaCallback(callback func(dx, dy float32))

	// SetCursorCaptured hides the cursor and locks it to the window, or releases it.
	SetCursorCaptured(captured bool)

	// CursorCaptured reports whether the cursor is captured.
	CursorCaptured() bool

	// SurfaceDescriptor returns the descriptor the renderer creates its surface from.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform surface descriptor, or nil before the window exists
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is open.
	IsRunning() bool

	// Close destroys the window and terminates GLFW.
	//
	// Returns:
	//   - error: if the window was never created
	Close() error

	// ProcessMessages polls events until the window closes, calling the update callback
	// after each poll. It must run on the thread that created the window.
	ProcessMessages()

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// sizeLimits bounds interactive resizing; values <= 0 are unbounded.
type sizeLimits struct {
	minWidth, minHeight int
	maxWidth, maxHeight int
}

// callbacks are the functions registered through the Set*Callback methods.
type callbacks struct {
	update     func()
	resize     func(width, height int)
	scroll     func(delta float32)
	keyDown    func(keyCode uint32)
	keyUp      func(keyCode uint32)
	mouseDelta func(dx, dy float32)
}

type engineWindow struct {
	title         string
	width, height int
	limits        sizeLimits
	resizable     bool
	closeKey      uint32

	// platform is the *glfwWindow once the window exists.
	platform any

	on     callbacks
	cursor cursorTracker

	cursorCaptured bool
}

var _ Window = &engineWindow{}

// NewWindow creates and shows the window. GLFW requires the calling goroutine to stay on
// the main OS thread, so NewWindow locks it.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:     "oxy-materials",
		width:     800,
		height:    600,
		limits:    sizeLimits{minWidth: 320, minHeight: 240},
		resizable: true,
		closeKey:  common.KeyEsc,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("failed to create platform window: %v", err))
	}
	if w.cursorCaptured {
		platformSetCursorCaptured(w, true)
	}
	logger.Component("window").Info("window created", "title", w.title, "width", w.width, "height", w.height)
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) { w.on.update = callback }

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) { w.on.resize = callback }

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) { w.on.scroll = callback }

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) { w.on.keyDown = callback }

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) { w.on.keyUp = callback }

func (w *engineWindow) SetMouseDeltaCallback(callback func(dx, dy float32)) {
	w.on.mouseDelta = callback
}

func (w *engineWindow) SetCursorCaptured(captured bool) {
	w.cursorCaptured = captured
	// GLFW warps the cursor when the mode changes
	w.cursor.reset()
	platformSetCursorCaptured(w, captured)
}

func (w *engineWindow) CursorCaptured() bool {
	return w.cursorCaptured
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for platformProcessMessages(w) {
		if w.on.update != nil {
			w.on.update()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// handleKey routes a key event. It returns true when the event was the close key.
func (w *engineWindow) handleKey(key uint32, pressed bool) bool {
	if w.closeKey != 0 && key == w.closeKey {
		return pressed
	}
	switch {
	case pressed && w.on.keyDown != nil:
		w.on.keyDown(key)
	case !pressed && w.on.keyUp != nil:
		w.on.keyUp(key)
	}
	return false
}

// handleCursor turns an absolute cursor position into a mouse delta callback.
func (w *engineWindow) handleCursor(x, y float64) {
	dx, dy, ok := w.cursor.delta(x, y)
	if !ok || (dx == 0 && dy == 0) || w.on.mouseDelta == nil {
		return
	}
	w.on.mouseDelta(dx, dy)
}

// handleResize stores the framebuffer size. Minimized windows report 0x0 and are ignored
// so the renderer never configures an empty surface.
func (w *engineWindow) handleResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	w.width, w.height = width, height
	if w.on.resize != nil {
		w.on.resize(width, height)
	}
}

// cursorTracker converts absolute cursor positions into per-event deltas.
type cursorTracker struct {
	lastX, lastY float64
	seen         bool
}

// delta records (x, y) and returns the motion since the previous position.
// ok is false for the first position, which has nothing to diff against.
func (c *cursorTracker) delta(x, y float64) (dx, dy float32, ok bool) {
	if !c.seen {
		c.lastX, c.lastY, c.seen = x, y, true
		return 0, 0, false
	}
	dx, dy = float32(x-c.lastX), float32(y-c.lastY)
	c.lastX, c.lastY = x, y
	return dx, dy, true
}

func (c *cursorTracker) reset() {
	c.seen = false
}
