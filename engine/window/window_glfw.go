package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-materials/engine/logger"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var errNoWindow = errors.New("window is not initialized")

type glfwWindow struct {
	window  *glfw.Window
	running bool
}

func glfwBool(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func glfwLimit(v int) int {
	if v <= 0 {
		return glfw.DontCare
	}
	return v
}

// newPlatformWindow creates a GLFW window without a client API, since wgpu drives the
// surface, and installs the input callbacks.
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initializing GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfwBool(w.resizable))

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("creating GLFW window: %w", err)
	}
	l := w.limits
	win.SetSizeLimits(glfwLimit(l.minWidth), glfwLimit(l.minHeight), glfwLimit(l.maxWidth), glfwLimit(l.maxHeight))

	gw := &glfwWindow{window: win, running: true}
	w.platform = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyUnknown {
			return
		}
		if w.handleKey(uint32(key), action != glfw.Release) {
			logger.Component("window").Info("close key pressed")
			gw.running = false
			win.SetShouldClose(true)
		}
	})
	win.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		if w.on.scroll != nil {
			w.on.scroll(float32(yoff))
		}
	})
	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		w.handleCursor(x, y)
	})
	// framebuffer size, not window size: they differ on high-DPI displays and the
	// surface is configured in pixels
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.handleResize(width, height)
	})

	w.width, w.height = win.GetFramebufferSize()
	return nil
}

func platformWindow(w *engineWindow) *glfwWindow {
	gw, _ := w.platform.(*glfwWindow)
	return gw
}

func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	gw := platformWindow(w)
	if gw == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

func platformIsRunningCheck(w *engineWindow) bool {
	gw := platformWindow(w)
	return gw != nil && gw.running && !gw.window.ShouldClose()
}

func platformCloseWindow(w *engineWindow) error {
	gw := platformWindow(w)
	if gw == nil {
		return errNoWindow
	}
	gw.running = false
	gw.window.Destroy()
	glfw.Terminate()
	w.platform = nil
	return nil
}

// platformProcessMessages polls without blocking; rendering runs on its own goroutine.
func platformProcessMessages(w *engineWindow) bool {
	if platformWindow(w) == nil {
		return false
	}
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}

// platformSetCursorCaptured switches between the disabled cursor mode, which hides the
// cursor and reports unbounded motion, and the normal mode.
func platformSetCursorCaptured(w *engineWindow, captured bool) {
	gw := platformWindow(w)
	if gw == nil {
		return
	}
	if !captured {
		gw.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		return
	}
	gw.window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	if glfw.RawMouseMotionSupported() {
		gw.window.SetInputMode(glfw.RawMouseMotion, glfw.True)
	}
}
