// Package renderer owns the GPU device, the surface and the render pipelines, and records
// one render pass per frame from the draw calls scenes issue.
package renderer

import (
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/Carmen-Shannon/oxy-materials/engine/logger"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrNilPipeline is returned when a nil pipeline is registered.
	ErrNilPipeline = errors.New("nil pipeline")

	// ErrUnknownPipeline is returned by DrawCall for a key that was never registered.
	ErrUnknownPipeline = errors.New("unknown pipeline")
)

// Surface is the part of a window the renderer draws into. Satisfied by window.Window.
type Surface interface {
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
	Width() int
	Height() int
}

// setup is what the builder options collect before the device exists.
type setup struct {
	software    bool
	presentMode *PresentMode
	msaa        MSAASampleCount
	clearColor  *wgpu.Color
	pipelines   []pipeline.Pipeline
}

type renderer struct {
	// mu guards pipelines; hot reload swaps entries while the render goroutine draws.
	mu        *sync.Mutex
	pipelines map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend
	setup       setup
}

// Renderer draws scenes through WebGPU.
//
// Pipelines are registered once by key and looked up on every draw. GPU resources live on
// BindGroupProviders, which the Init* methods fill. A frame is BeginFrame, any number of
// DrawCalls, EndFrame and Present.
type Renderer interface {
	// Pipeline returns the registered pipeline for key, or nil.
	Pipeline(key string) pipeline.Pipeline

	// Pipelines returns a copy of the registered pipelines by key.
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines builds the GPU pipeline of each p and registers it under its key.
	// Keys already registered are left alone. Registration stops at the first failure.
	//
	// Parameters:
	//   - pipelines: the pipelines to build
	//
	// Returns:
	//   - error: ErrNilPipeline or the backend's build error
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// ReplacePipeline builds p and swaps it in under its key, releasing the previous
	// pipeline. A failed build leaves the registered pipeline drawing.
	ReplacePipeline(p pipeline.Pipeline) error

	// Resize reconfigures the surface and its depth and MSAA targets.
	Resize(width, height int)

	// SetPresentMode takes effect on the next Resize.
	SetPresentMode(mode PresentMode)

	SetClearColor(c wgpu.Color)

	// InitMeshBuffers uploads a mesh onto provider. Without indexData the mesh is drawn
	// non-indexed over vertexCount vertices.
	//
	// Parameters:
	//   - provider: receives the buffers and counts
	//   - vertexData: packed vertices
	//   - vertexCount: number of vertices
	//   - indexData: packed uint32 indices, may be empty
	//   - indexCount: number of indices
	//
	// Returns:
	//   - error: buffer creation failure
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error

	// InitInstanceBuffer creates provider's instance buffer, bound at InstanceSlot, and
	// uploads count records.
	InitInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, count int) error

	// WriteInstanceBuffer uploads count records, growing the buffer when they do not fit.
	WriteInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, count int) error

	// InitBindGroup creates the missing buffers of descriptor and the bind group itself.
	// Texture views and samplers must already be on provider.
	//
	// Parameters:
	//   - provider: holds existing resources and receives the new ones
	//   - descriptor: the group's layout
	//   - bufferUsageOverrides: extra usage flags by binding, may be nil
	//   - bufferSizeOverrides: buffer sizes by binding replacing MinBindingSize, may be nil
	//
	// Returns:
	//   - error: buffer, layout or bind group creation failure
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// InitTextureView uploads decoded pixels and stores the view at bindingKey.
	InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error

	// InitSampler creates a sampler and stores it at bindingKey.
	InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error

	// WriteBuffers queues buffer uploads for the next submit.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the next surface texture and opens the frame's render pass.
	BeginFrame() error

	// DrawCall records one draw into the open pass.
	//
	// Parameters:
	//   - pipelineKey: a registered pipeline
	//   - meshProvider: vertex and index buffers
	//   - instanceProvider: instance buffer, or nil
	//   - instanceCount: instances to draw
	//   - bindGroups: set at group indices 0..n-1
	//
	// Returns:
	//   - error: ErrUnknownPipeline
	DrawCall(pipelineKey string, meshProvider, instanceProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame closes the pass and submits it.
	EndFrame()

	// Present shows the frame. Call once per frame after EndFrame.
	Present()

	// Release releases every pipeline and the device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer requests an adapter and device for surface, configures the surface and
// builds the pipelines given through options. It panics when no device can be created
// or a pipeline fails to build, the same way NewWindow panics without a window.
//
// Parameters:
//   - backendType: BackendTypeWGPU
//   - surface: usually the window
//   - options: functional options
//
// Returns:
//   - Renderer: the ready renderer
func NewRenderer(backendType RendererBackendType, surface Surface, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:          &sync.Mutex{},
		pipelines:   make(map[string]pipeline.Pipeline),
		backendType: backendType,
		setup:       setup{msaa: MSAA4x},
	}
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(surface.SurfaceDescriptor(), r.setup.software, r.setup.msaa)
	}

	if r.setup.presentMode != nil {
		r.backend.SetPresentMode(*r.setup.presentMode)
	}
	if r.setup.clearColor != nil {
		r.backend.SetClearColor(*r.setup.clearColor)
	}
	r.backend.ConfigureSurface(surface.Width(), surface.Height())

	if err := r.RegisterPipelines(r.setup.pipelines...); err != nil {
		panic(err)
	}
	r.setup.pipelines = nil
	return r
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) SetClearColor(c wgpu.Color) {
	r.backend.SetClearColor(c)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelines[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.pipelines)
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range pipelines {
		if p == nil {
			return fmt.Errorf("registering pipeline %d: %w", i, ErrNilPipeline)
		}
		key := p.PipelineKey()
		if _, ok := r.pipelines[key]; ok {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return fmt.Errorf("registering pipeline %q: %w", key, err)
		}
		r.pipelines[key] = p
		logger.Component("renderer").Debug("pipeline registered", "key", key)
	}
	return nil
}

func (r *renderer) ReplacePipeline(p pipeline.Pipeline) error {
	if p == nil {
		return ErrNilPipeline
	}
	key := p.PipelineKey()
	// built outside the lock so drawing continues while the driver compiles
	if err := r.backend.RegisterRenderPipeline(p); err != nil {
		return fmt.Errorf("replacing pipeline %q: %w", key, err)
	}

	r.mu.Lock()
	old := r.pipelines[key]
	r.pipelines[key] = p
	r.mu.Unlock()

	if old != nil && old != p {
		r.backend.ReleasePipeline(old)
	}
	logger.Component("renderer").Info("pipeline replaced", "key", key)
	return nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, vertexCount, indexData, indexCount)
}

func (r *renderer) InitInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, count int) error {
	return r.backend.WriteInstanceBuffer(provider, data, count)
}

func (r *renderer) WriteInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, count int) error {
	return r.backend.WriteInstanceBuffer(provider, data, count)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	return r.backend.InitTextureView(provider, bindingKey, stagingData)
}

func (r *renderer) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, samplerStagingData common.SamplerStagingData) error {
	return r.backend.InitSampler(provider, bindingKey, samplerStagingData)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider, instanceProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return fmt.Errorf("draw with %q: %w", pipelineKey, ErrUnknownPipeline)
	}
	r.backend.DrawCall(p, meshProvider, instanceProvider, instanceCount, bindGroups)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for key, p := range r.pipelines {
		p.Release()
		delete(r.pipelines, key)
	}
	r.mu.Unlock()
	r.backend.Release()
}
