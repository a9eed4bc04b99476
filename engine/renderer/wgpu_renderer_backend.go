package renderer

import (
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-materials/engine/logger"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// defaultClearColor is the dark gray the frame clears to unless WithClearColor is used.
var defaultClearColor = wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0}

const depthFormat = wgpu.TextureFormatDepth24Plus

// attachment is a render target texture and its view.
type attachment struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

func newAttachment(device *wgpu.Device, label string, format wgpu.TextureFormat, width, height int, samples uint32) (*attachment, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("viewing %s: %w", label, err)
	}
	return &attachment{texture: tex, view: view}, nil
}

func (a *attachment) release() {
	if a == nil {
		return
	}
	a.view.Release()
	a.texture.Release()
}

// frame is the state held between BeginFrame and Present.
type frame struct {
	surface *wgpu.Texture
	view    *wgpu.TextureView
	encoder *wgpu.CommandEncoder
	pass    *wgpu.RenderPassEncoder
}

type wgpuBackend struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	// set by ConfigureSurface; nil format means not configured yet
	format *wgpu.TextureFormat
	msaa   *attachment
	depth  *attachment

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount
	clearColor  wgpu.Color

	frame frame
	// retired holds replaced pipelines until the frame that may draw with them is presented
	retired []pipeline.Pipeline
}

var _ RendererBackend = &wgpuBackend{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, software bool, sampleCount MSAASampleCount) RendererBackend {
	// a surface must be driven from the thread that created it
	runtime.LockOSThread()

	b := &wgpuBackend{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		sampleCount: sampleCount,
		clearColor:  defaultClearColor,
	}
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: software,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(fmt.Errorf("requesting adapter: %w", err))
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "oxy-materials device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: wgpu.DefaultLimits()},
	})
	if err != nil {
		panic(fmt.Errorf("requesting device: %w", err))
	}
	b.device = device
	b.queue = device.GetQueue()

	logger.Component("renderer").Info("device ready", "software", software, "msaa", uint32(sampleCount))
	return b
}

func (b *wgpuBackend) ConfigureSurface(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	log := logger.Component("renderer")

	b.mu.Lock()
	defer b.mu.Unlock()

	caps := b.surface.GetCapabilities(b.adapter)
	format := caps.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: pickPresentMode(b.presentMode, caps.PresentModes),
		AlphaMode:   caps.AlphaModes[0],
	})

	b.releaseTargets()
	samples := uint32(b.sampleCount)
	var err error
	if samples > 1 {
		// drawn at samples per pixel, resolved into the surface texture
		if b.msaa, err = newAttachment(b.device, "msaa target", format, width, height, samples); err != nil {
			log.Error("surface not configured", "error", err)
			return
		}
	}
	// depth sample count must match the color target
	if b.depth, err = newAttachment(b.device, "depth target", depthFormat, width, height, samples); err != nil {
		b.releaseTargets()
		log.Error("surface not configured", "error", err)
		return
	}
	b.format = &format
	log.Debug("surface configured", "width", width, "height", height)
}

// releaseTargets frees the size dependent attachments. Callers hold b.mu.
func (b *wgpuBackend) releaseTargets() {
	b.msaa.release()
	b.depth.release()
	b.msaa, b.depth = nil, nil
}

func (b *wgpuBackend) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.presentMode = toWGPUPresentMode(mode)
}

func (b *wgpuBackend) SetClearColor(c wgpu.Color) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearColor = c
}

func (b *wgpuBackend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseRetired()
	b.releaseTargets()
	b.format = nil
	if b.queue != nil {
		b.queue.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
	b.queue, b.device, b.adapter, b.surface, b.instance = nil, nil, nil, nil, nil
}

func toWGPUPresentMode(mode PresentMode) wgpu.PresentMode {
	if mode == PresentModeVSync {
		return wgpu.PresentModeFifo
	}
	return wgpu.PresentModeImmediate
}

// pickPresentMode returns want when the surface supports it. Immediate falls back to
// Mailbox, and anything else to Fifo, which every surface supports.
func pickPresentMode(want wgpu.PresentMode, supported []wgpu.PresentMode) wgpu.PresentMode {
	if slices.Contains(supported, want) {
		return want
	}
	if want == wgpu.PresentModeImmediate && slices.Contains(supported, wgpu.PresentModeMailbox) {
		return wgpu.PresentModeMailbox
	}
	return wgpu.PresentModeFifo
}
