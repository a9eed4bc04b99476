package renderer

import (
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption configures NewRenderer. Options that need the device are held
// until the backend exists.
type RendererBuilderOption func(*renderer)

// WithPipeline registers p once the device is ready. Materials refer to it by key.
func WithPipeline(p pipeline.Pipeline) RendererBuilderOption {
	return WithPipelines(p)
}

// WithPipelines registers several pipelines in order. Nil entries are kept so that
// registration reports them.
//
// Parameters:
//   - ps: the pipelines
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithPipelines(ps ...pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.setup.pipelines = append(r.setup.pipelines, ps...)
	}
}

// WithPresentMode chooses between vsync (Fifo) and uncapped (Immediate, falling back to
// Mailbox or Fifo when the surface lacks it).
//
// Parameters:
//   - mode: PresentModeVSync or PresentModeUncapped
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.setup.presentMode = &mode
	}
}

// WithMSAA sets the sample count of the color and depth targets. MSAA4x is the default.
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.setup.msaa = count
	}
}

// WithClearColor sets the color the frame's render pass clears to.
//
// Parameters:
//   - c: the clear color, components in [0, 1]
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithClearColor(c wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.setup.clearColor = &c
	}
}

// WithForceSoftwareRenderer requests the fallback (CPU) adapter, e.g. lavapipe in CI or
// on machines without a usable GPU driver.
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.setup.software = force
	}
}
