// Package config loads the example programs' settings from TOML.
//
// Default returns the values the examples were tuned with. Load overlays a file on top
// of them, so a config file only needs the keys it changes. The *Options helpers turn a
// validated Config into builder options for the window, camera, controller, renderer
// and engine.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-materials/engine"
	"github.com/Carmen-Shannon/oxy-materials/engine/camera"
	"github.com/Carmen-Shannon/oxy-materials/engine/loader"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer"
	"github.com/Carmen-Shannon/oxy-materials/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/image/colornames"
)

// Config is the root of a config file.
type Config struct {
	Window   Window   `toml:"window"`
	Camera   Camera   `toml:"camera"`
	Controls Controls `toml:"controls"`
	Render   Render   `toml:"render"`
	Assets   Assets   `toml:"assets"`
	Log      Log      `toml:"log"`
}

// Window configures the application window.
type Window struct {
	Title          string `toml:"title"`
	Width          int    `toml:"width"`
	Height         int    `toml:"height"`
	CursorCaptured bool   `toml:"cursor_captured"`
	Resizable      bool   `toml:"resizable"`
}

// Camera configures the initial camera. Angles are in degrees.
type Camera struct {
	Position   [3]float32 `toml:"position"`
	Yaw        float32    `toml:"yaw"`
	Pitch      float32    `toml:"pitch"`
	Fov        float32    `toml:"fov"`
	Near       float32    `toml:"near"`
	Far        float32    `toml:"far"`
	PitchLimit float32    `toml:"pitch_limit"` // 0 disables the clamp
}

// Controls configures the fly controller.
type Controls struct {
	Speed           float32 `toml:"speed"`
	LookSensitivity float32 `toml:"look_sensitivity"`
	ZoomSensitivity float32 `toml:"zoom_sensitivity"`
}

// Render configures the renderer and the engine loops.
type Render struct {
	// ClearColor is a CSS color name or #rrggbb / #rrggbbaa.
	ClearColor  string  `toml:"clear_color"`
	MSAA        int     `toml:"msaa"`         // 1 or 4
	PresentMode string  `toml:"present_mode"` // "vsync" or "uncapped"
	TickRate    float64 `toml:"tick_rate"`
	FrameLimit  float64 `toml:"frame_limit"` // 0 uncaps the render loop
	HotReload   bool    `toml:"hot_reload"`
	Profiling   bool    `toml:"profiling"`
	// Software requests the fallback adapter.
	Software bool `toml:"software"`
}

// Assets lists the textures to load, by name.
type Assets struct {
	Root     string            `toml:"root"`
	Textures map[string]string `toml:"textures"`
}

// Log configures the slog handler the examples install.
type Log struct {
	Level  string `toml:"level"`  // debug, info, warn or error
	Format string `toml:"format"` // text or json
}

// Default returns the settings the examples use without a config file.
func Default() Config {
	return Config{
		Window: Window{
			Title:          "oxy-materials",
			Width:          800,
			Height:         600,
			CursorCaptured: true,
			Resizable:      true,
		},
		Camera: Camera{
			Position:   [3]float32{0, 0, 3},
			Yaw:        -90,
			Pitch:      0,
			Fov:        45,
			Near:       0.1,
			Far:        100,
			PitchLimit: camera.DefaultPitchLimit,
		},
		Controls: Controls{
			Speed:           2.5,
			LookSensitivity: 2.0,
			ZoomSensitivity: 100,
		},
		Render: Render{
			ClearColor:  "#1a1a1a",
			MSAA:        4,
			PresentMode: "vsync",
			TickRate:    60,
		},
		Assets: Assets{
			Root: "examples/assets",
			Textures: map[string]string{
				"container":           "textures/container.png",
				"awesomeface":         "textures/awesomeface.png",
				"container2":          "textures/container2.png",
				"container2_specular": "textures/container2_specular.png",
			},
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a TOML file over the defaults and validates the result. Unknown keys
// are an error so typos do not silently fall back to defaults.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the merged settings
//   - error: a read, decode or validation error
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the merged settings
//   - error: a decode or validation error
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Config{}, fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every value is in range.
//
// Returns:
//   - error: all problems joined, or nil
func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	if c.Camera.Fov < camera.MinFov || c.Camera.Fov > camera.MaxFov {
		errs = append(errs, fmt.Errorf("camera.fov %v outside [%v, %v]", c.Camera.Fov, camera.MinFov, camera.MaxFov))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera near %v / far %v: need 0 < near < far", c.Camera.Near, c.Camera.Far))
	}
	if c.Camera.PitchLimit < 0 || c.Camera.PitchLimit >= 90 {
		errs = append(errs, fmt.Errorf("camera.pitch_limit %v outside [0, 90)", c.Camera.PitchLimit))
	}
	if c.Controls.Speed < 0 || c.Controls.LookSensitivity < 0 || c.Controls.ZoomSensitivity < 0 {
		errs = append(errs, errors.New("controls must not be negative"))
	}
	if _, err := ParseColor(c.Render.ClearColor); err != nil {
		errs = append(errs, fmt.Errorf("render.clear_color: %w", err))
	}
	if c.Render.MSAA != 1 && c.Render.MSAA != 4 {
		errs = append(errs, fmt.Errorf("render.msaa %d must be 1 or 4", c.Render.MSAA))
	}
	if _, err := parsePresentMode(c.Render.PresentMode); err != nil {
		errs = append(errs, err)
	}
	if c.Render.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("render.tick_rate %v must be positive", c.Render.TickRate))
	}
	if c.Render.FrameLimit < 0 {
		errs = append(errs, fmt.Errorf("render.frame_limit %v must not be negative", c.Render.FrameLimit))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ParseColor resolves a CSS color name (golang.org/x/image/colornames) or a
// #rrggbb / #rrggbbaa hex string.
//
// Parameters:
//   - s: the color
//
// Returns:
//   - wgpu.Color: the color with channels in [0, 1]
//   - error: if s is neither a known name nor valid hex
func ParseColor(s string) (wgpu.Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := colornames.Map[s]; ok {
		return wgpu.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255, A: float64(c.A) / 255}, nil
	}

	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return wgpu.Color{}, fmt.Errorf("unknown color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return wgpu.Color{}, fmt.Errorf("bad hex color %q", s)
	}
	channel := func(shift uint) float64 { return float64((v>>shift)&0xff) / 255 }
	return wgpu.Color{R: channel(24), G: channel(16), B: channel(8), A: channel(0)}, nil
}

func parsePresentMode(s string) (renderer.PresentMode, error) {
	switch strings.ToLower(s) {
	case "vsync", "":
		return renderer.PresentModeVSync, nil
	case "uncapped", "immediate":
		return renderer.PresentModeUncapped, nil
	default:
		return 0, fmt.Errorf("render.present_mode %q must be vsync or uncapped", s)
	}
}

// SlogLevel parses Level with slog's own level names.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(l.Level))
	return level, err
}

// Handler builds the slog handler for the config, writing to w.
func (l Log) Handler(w io.Writer) slog.Handler {
	level, _ := l.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// WindowOptions returns the window builder options for the config.
func (c Config) WindowOptions() []window.WindowBuilderOption {
	return []window.WindowBuilderOption{
		window.WithTitle(c.Window.Title),
		window.WithWidth(c.Window.Width),
		window.WithHeight(c.Window.Height),
		window.WithCursorCaptured(c.Window.CursorCaptured),
		window.WithResizable(c.Window.Resizable),
	}
}

// CameraOptions returns the camera builder options for the config, including a fly
// controller built from the controls section. The aspect ratio follows the window size.
func (c Config) CameraOptions() []camera.CameraBuilderOption {
	p := c.Camera.Position
	return []camera.CameraBuilderOption{
		camera.WithPosition(p[0], p[1], p[2]),
		camera.WithYaw(c.Camera.Yaw),
		camera.WithPitchLimit(c.Camera.PitchLimit),
		camera.WithPitch(c.Camera.Pitch),
		camera.WithFov(c.Camera.Fov),
		camera.WithClipPlanes(c.Camera.Near, c.Camera.Far),
		camera.WithAspect(float32(c.Window.Width) / float32(c.Window.Height)),
		camera.WithController(camera.NewFlyController(
			camera.WithMoveSpeed(c.Controls.Speed),
			camera.WithLookSensitivity(c.Controls.LookSensitivity),
			camera.WithZoomSensitivity(c.Controls.ZoomSensitivity),
		)),
	}
}

// RendererOptions returns the renderer builder options for the config. The config
// must have passed Validate.
func (c Config) RendererOptions() []renderer.RendererBuilderOption {
	clear, _ := ParseColor(c.Render.ClearColor)
	mode, _ := parsePresentMode(c.Render.PresentMode)
	return []renderer.RendererBuilderOption{
		renderer.WithClearColor(clear),
		renderer.WithMSAA(renderer.MSAASampleCount(c.Render.MSAA)),
		renderer.WithPresentMode(mode),
		renderer.WithForceSoftwareRenderer(c.Render.Software),
	}
}

// EngineOptions returns the engine builder options for the loop settings.
func (c Config) EngineOptions() []engine.EngineBuilderOption {
	return []engine.EngineBuilderOption{
		engine.WithTickRate(c.Render.TickRate),
		engine.WithRenderFrameLimit(c.Render.FrameLimit),
		engine.WithProfiling(c.Render.Profiling),
	}
}

// LoaderOptions returns loader options registering the named textures, or every
// configured texture when no names are given. Paths resolve against Assets.Root and
// unknown names are skipped.
func (c Config) LoaderOptions(names ...string) []loader.LoaderBuilderOption {
	if len(names) == 0 {
		for name := range c.Assets.Textures {
			names = append(names, name)
		}
	}
	opts := make([]loader.LoaderBuilderOption, 0, len(names))
	for _, name := range names {
		if path, ok := c.Assets.Textures[name]; ok {
			opts = append(opts, loader.WithTexture(name, c.AssetPath(path)))
		}
	}
	return opts
}

// AssetPath resolves a path relative to Assets.Root. Absolute paths are returned as is.
func (c Config) AssetPath(path string) string {
	if c.Assets.Root == "" || strings.HasPrefix(path, "/") {
		return path
	}
	return strings.TrimSuffix(c.Assets.Root, "/") + "/" + path
}
