package engine

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-materials/engine/camera"
	"github.com/Carmen-Shannon/oxy-materials/engine/input"
	"github.com/Carmen-Shannon/oxy-materials/engine/logger"
	"github.com/Carmen-Shannon/oxy-materials/engine/profiler"
	"github.com/Carmen-Shannon/oxy-materials/engine/scene"
	"github.com/Carmen-Shannon/oxy-materials/engine/window"
)

// FrameRenderer is the part of the renderer the engine drives once per frame.
// Satisfied by renderer.Renderer.
type FrameRenderer interface {
	BeginFrame() error
	EndFrame()
	Present()
	Resize(width, height int)
}

type engine struct {
	window   window.Window
	renderer FrameRenderer
	input    input.Accumulator

	running     atomic.Bool
	quit        chan struct{}
	quitOnce    sync.Once
	wg          sync.WaitGroup
	rateChanged chan struct{}

	// nanoseconds, read by the loops while setters may run on any goroutine
	tickPeriod atomic.Int64
	frameLimit atomic.Int64

	profiler  *profiler.Profiler
	profiling atomic.Bool

	onTick  func(dt float32)
	onFrame func(dt float32)

	scenesMu *sync.RWMutex
	scenes   map[int]scene.Scene
}

// Engine runs a fixed-rate tick loop and a render loop over a set of layered scenes.
//
// A tick drains the input accumulator, hands the frame to the fly controller of every
// distinct active camera, then updates the scenes. A render frame prepares every active
// scene, records all of them into one pass in key order and presents it.
type Engine interface {
	// Window returns the window the engine was built with, or nil.
	Window() window.Window

	// Input returns the accumulator the window callbacks feed.
	Input() input.Accumulator

	EnableProfiler()
	DisableProfiler()

	// SetTickRate changes the tick rate, also while running.
	//
	// Parameters:
	//   - hz: ticks per second, DefaultTickRate when <= 0
	SetTickRate(hz float64)

	// SetTickCallback registers fn to run after the scenes update each tick. Set it
	// before Run.
	SetTickCallback(fn func(dt float32))

	// SetRenderCallback registers fn to run after each frame is presented. Set it
	// before Run.
	SetRenderCallback(fn func(dt float32))

	// SetRenderFrameLimit caps the render loop. 0 uncaps it.
	//
	// Parameters:
	//   - hz: maximum frames per second
	SetRenderFrameLimit(hz float64)

	// AddScene registers s at key, replacing any scene already there. Lower keys draw
	// first so higher keys composite on top.
	AddScene(key int, s scene.Scene)

	RemoveScene(key int)

	// Scene returns the scene at key or nil.
	Scene(key int) scene.Scene

	// Scenes returns a copy of the registry.
	Scenes() map[int]scene.Scene

	// Run starts the tick and render loops and pumps window events on the calling
	// goroutine, which must be the main thread. It returns once the window closes or
	// Quit is called and both loops have stopped.
	Run()

	// Quit stops both loops and closes the window. Safe to call more than once.
	Quit()
}

// NewEngine builds an engine and routes the window's key, cursor, scroll and resize
// callbacks into it.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - Engine: the engine, not yet running
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		quit:        make(chan struct{}),
		rateChanged: make(chan struct{}, 1),
		scenesMu:    &sync.RWMutex{},
		scenes:      make(map[int]scene.Scene),
		profiler:    profiler.NewProfiler(time.Second),
	}
	e.tickPeriod.Store(int64(period(DefaultTickRate)))

	for _, opt := range options {
		opt(e)
	}
	if e.input == nil {
		e.input = input.NewAccumulator()
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.resize)
		e.window.SetKeyDownCallback(e.input.KeyDown)
		e.window.SetKeyUpCallback(e.input.KeyUp)
		e.window.SetMouseDeltaCallback(e.input.MouseMove)
		e.window.SetScrollCallback(e.input.Scroll)
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Input() input.Accumulator {
	return e.input
}

func (e *engine) Run() {
	e.running.Store(true)
	e.wg.Add(2)
	go e.tickLoop()
	go e.renderLoop()

	if e.window != nil {
		e.window.ProcessMessages()
	}
	e.stop()
	e.wg.Wait()
	logger.Component("engine").Info("stopped")
}

func (e *engine) Quit() {
	e.stop()
	if e.window != nil && e.window.IsRunning() {
		_ = e.window.Close()
	}
}

func (e *engine) stop() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quit)
	})
}

// resize reconfigures the surface and the aspect ratio of every scene camera.
// Minimized windows report zero sizes, which are ignored.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if e.renderer != nil {
		e.renderer.Resize(width, height)
	}
	aspect := float32(width) / float32(height)
	for _, s := range e.sortedScenes(false) {
		s.Camera().SetAspect(aspect)
	}
	logger.Component("engine").Debug("resized", "width", width, "height", height)
}

// sortedScenes returns the registered scenes in ascending key order.
func (e *engine) sortedScenes(activeOnly bool) []scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()

	keys := slices.Sorted(maps.Keys(e.scenes))
	out := make([]scene.Scene, 0, len(keys))
	for _, k := range keys {
		s := e.scenes[k]
		if activeOnly && !s.Active() {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (e *engine) tickLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(time.Duration(e.tickPeriod.Load()))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-e.quit:
			return
		case <-e.rateChanged:
			ticker.Reset(time.Duration(e.tickPeriod.Load()))
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			e.tick(dt)
		}
	}
}

// tick applies one tick's accumulated input to each active scene's camera exactly once,
// then updates the scenes and fires the tick callback.
func (e *engine) tick(dt float32) {
	frame := e.input.Drain()
	scenes := e.sortedScenes(true)

	applied := make(map[camera.Camera]bool, len(scenes))
	for _, s := range scenes {
		cam := s.Camera()
		if applied[cam] {
			continue
		}
		applied[cam] = true
		if ctrl := cam.Controller(); ctrl != nil {
			ctrl.Apply(cam, frame, dt)
		}
	}

	for _, s := range scenes {
		s.Update(dt)
	}

	if e.onTick != nil {
		e.onTick(dt)
	}
	if e.profiling.Load() {
		e.profiler.Tick()
	}
}

// renderLoop draws frames until quit. A panic while drawing is logged and stops the
// engine instead of taking the process down with a half-released GPU.
func (e *engine) renderLoop() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Component("engine").Error("render loop panicked", "panic", fmt.Sprint(r))
			e.Quit()
		}
	}()

	last := time.Now()
	for {
		select {
		case <-e.quit:
			return
		default:
		}

		start := time.Now()
		dt := float32(start.Sub(last).Seconds())
		last = start
		e.renderFrame(dt)

		if limit := time.Duration(e.frameLimit.Load()); limit > 0 {
			if wait := limit - time.Since(start); wait > 0 {
				time.Sleep(wait)
			}
		}
	}
}

// renderFrame records every active scene into a single render pass, in ascending key
// order so later scenes composite over earlier ones.
func (e *engine) renderFrame(dt float32) {
	log := logger.Component("engine")
	scenes := e.sortedScenes(true)

	skipped := false
	if len(scenes) > 0 && e.renderer != nil {
		for _, s := range scenes {
			if err := s.PrepareFrame(); err != nil {
				log.Error("prepare frame failed", "scene", s.Name(), "error", err)
			}
		}

		if err := e.renderer.BeginFrame(); err != nil {
			log.Debug("frame skipped", "error", err)
			skipped = true
		} else {
			for _, s := range scenes {
				if err := s.DrawCalls(); err != nil {
					log.Error("draw calls failed", "scene", s.Name(), "error", err)
				}
			}
			e.renderer.EndFrame()
			e.renderer.Present()
		}
	}

	if e.onFrame != nil {
		e.onFrame(dt)
	}
	if e.profiling.Load() {
		e.profiler.Frame(skipped)
	}
}

func (e *engine) EnableProfiler() {
	e.profiling.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profiling.Store(false)
}

func (e *engine) SetTickRate(hz float64) {
	if hz <= 0 {
		hz = DefaultTickRate
	}
	e.tickPeriod.Store(int64(period(hz)))
	select {
	case e.rateChanged <- struct{}{}:
	default:
	}
}

func (e *engine) SetTickCallback(fn func(dt float32)) {
	e.onTick = fn
}

func (e *engine) SetRenderCallback(fn func(dt float32)) {
	e.onFrame = fn
}

func (e *engine) SetRenderFrameLimit(hz float64) {
	e.frameLimit.Store(int64(period(hz)))
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.scenesMu.Lock()
	defer e.scenesMu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.scenesMu.RLock()
	defer e.scenesMu.RUnlock()
	return maps.Clone(e.scenes)
}
