// Package app wires a config into the window, renderer, engine and camera every example
// program needs, so an example only describes its pipelines, materials and scene.
package app

import (
	"flag"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-materials/config"
	"github.com/Carmen-Shannon/oxy-materials/engine"
	"github.com/Carmen-Shannon/oxy-materials/engine/camera"
	"github.com/Carmen-Shannon/oxy-materials/engine/loader"
	"github.com/Carmen-Shannon/oxy-materials/engine/logger"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/hotreload"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-materials/engine/scene"
	"github.com/Carmen-Shannon/oxy-materials/engine/window"
)

// App holds the long-lived pieces of an example program.
type App struct {
	Config   config.Config
	Window   window.Window
	Renderer renderer.Renderer
	Engine   engine.Engine
	Camera   camera.Camera

	scenes   []scene.Scene
	reloader hotreload.Reloader
}

// ParseFlags reads the -config flag. Without it the defaults are returned.
//
// Parameters:
//   - name: the program name used in usage output
//   - args: the arguments after the program name
//
// Returns:
//   - config.Config: the validated config
//   - error: a flag, read, decode or validation error
func ParseFlags(name string, args []string) (config.Config, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("config", "", "path to a TOML config file")
	title := fs.String("title", "", "window title override")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg := config.Default()
	if *path != "" {
		loaded, err := config.Load(*path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	if *title != "" {
		cfg.Window.Title = *title
	}
	return cfg, nil
}

// New installs the configured logger, then creates the window, the renderer with the
// given pipelines registered, the camera and the engine. It panics when the window or
// GPU cannot be created, like the constructors it calls.
//
// Parameters:
//   - cfg: a validated config
//   - pipelines: the render pipelines the program's materials use
//
// Returns:
//   - *App: the wired application
func New(cfg config.Config, pipelines ...pipeline.Pipeline) *App {
	logger.SetLogger(slog.New(cfg.Log.Handler(os.Stderr)))

	w := window.NewWindow(cfg.WindowOptions()...)

	rendererOpts := append(cfg.RendererOptions(), renderer.WithPipelines(pipelines...))
	r := renderer.NewRenderer(renderer.BackendTypeWGPU, w, rendererOpts...)

	engineOpts := append(cfg.EngineOptions(), engine.WithWindow(w), engine.WithRenderer(r))
	return &App{
		Config:   cfg,
		Window:   w,
		Renderer: r,
		Engine:   engine.NewEngine(engineOpts...),
		Camera:   camera.NewCamera(cfg.CameraOptions()...),
	}
}

// NewScene creates an active scene on the app camera and registers it above the scenes
// created before it. The scene's loader starts decoding the named textures at once.
//
// Parameters:
//   - name: the scene name
//   - textures: texture names from the config's assets section
//   - opts: extra scene options
//
// Returns:
//   - scene.Scene: the registered scene
func (a *App) NewScene(name string, textures []string, opts ...scene.SceneBuilderOption) scene.Scene {
	var ld loader.Loader
	if len(textures) == 0 {
		ld = loader.NewLoader()
	} else {
		ld = loader.NewLoader(a.Config.LoaderOptions(textures...)...)
	}
	all := append([]scene.SceneBuilderOption{scene.WithActive(true), scene.WithLoader(ld)}, opts...)
	s := scene.NewScene(name, a.Camera, a.Renderer, all...)
	a.Engine.AddScene(len(a.scenes), s)
	a.scenes = append(a.scenes, s)
	return s
}

// Run starts shader hot reload when the config enables it and blocks until the window
// closes. Every scene and the renderer are released on return.
func (a *App) Run() {
	log := logger.Component("app")
	if a.Config.Render.HotReload {
		rl, err := hotreload.NewReloader(a.Renderer)
		if err != nil {
			log.Warn("shader hot reload disabled", "error", err)
		} else {
			a.reloader = rl
		}
	}

	log.Info("running", "title", a.Config.Window.Title, "scenes", len(a.scenes))
	a.Engine.Run()

	if a.reloader != nil {
		if err := a.reloader.Close(); err != nil {
			log.Warn("closing shader watcher", "error", err)
		}
	}
	for _, s := range a.scenes {
		s.Release()
	}
	a.Renderer.Release()
}

// Fatal logs err through the slog default logger and exits. The package logger is
// silent until New installs one, so setup errors go to slog directly.
func Fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
