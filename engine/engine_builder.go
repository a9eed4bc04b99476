package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-materials/engine/input"
	"github.com/Carmen-Shannon/oxy-materials/engine/scene"
	"github.com/Carmen-Shannon/oxy-materials/engine/window"
)

// EngineBuilderOption configures an Engine before it runs.
type EngineBuilderOption func(*engine)

// DefaultTickRate is the simulation rate used when none, or a non-positive one, is given.
const DefaultTickRate = 60.0

// period converts a rate in hertz to the time between events. Rates <= 0 give 0.
func period(hz float64) time.Duration {
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}

// WithProfiling logs frame and tick rates once per second on the "profiler" component.
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profiling.Store(enabled)
	}
}

// WithTickRate sets how often input is applied to the cameras and scenes update.
//
// Parameters:
//   - hz: ticks per second, DefaultTickRate when <= 0
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(hz float64) EngineBuilderOption {
	return func(e *engine) {
		if hz <= 0 {
			hz = DefaultTickRate
		}
		e.tickPeriod.Store(int64(period(hz)))
	}
}

// WithRenderFrameLimit caps the render loop. 0 leaves it uncapped, in which case the
// present mode alone paces it.
//
// Parameters:
//   - hz: maximum frames per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(hz float64) EngineBuilderOption {
	return func(e *engine) {
		e.frameLimit.Store(int64(period(hz)))
	}
}

// WithWindow sets the window whose message loop Run drives. NewEngine installs its own
// input and resize callbacks on it.
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithRenderer sets the renderer the render loop begins, draws and presents frames on.
//
// Parameters:
//   - r: normally a renderer.Renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r FrameRenderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithInput replaces the input accumulator, e.g. to feed recorded input in tests.
func WithInput(acc input.Accumulator) EngineBuilderOption {
	return func(e *engine) {
		e.input = acc
	}
}

// WithScene registers s at key. Lower keys render first, so overlays use higher keys.
//
// Parameters:
//   - key: the draw order key
//   - s: the scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}
