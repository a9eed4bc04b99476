package renderer

import (
	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType selects the GPU API behind a Renderer. WebGPU is the only one.
type RendererBackendType int

const (
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode is the swapchain presentation policy.
type PresentMode int

const (
	// PresentModeVSync waits for vertical blank: no tearing, frame rate capped at the
	// display refresh.
	PresentModeVSync PresentMode = iota
	// PresentModeUncapped presents at once, falling back to VSync where the surface
	// offers neither immediate nor mailbox presentation.
	PresentModeUncapped
)

// MSAASampleCount is the sample count of the color and depth targets. WebGPU only
// guarantees 1 and 4.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
)

// InstanceSlot is the vertex buffer slot per-instance data is bound to.
const InstanceSlot = 1

// RendererBackend owns the device and every GPU object. Loading and drawing happen on
// different goroutines, so implementations must be safe for concurrent use.
type RendererBackend interface {
	// ConfigureSurface (re)builds the swapchain and the MSAA and depth targets.
	// Zero sizes, reported while minimized, are ignored.
	ConfigureSurface(width, height int)
	// SetPresentMode applies on the next ConfigureSurface.
	SetPresentMode(mode PresentMode)
	SetClearColor(c wgpu.Color)

	// RegisterRenderPipeline compiles both shader modules, builds the layout from their
	// reflected bind groups and hands the GPU pipeline to p.SetRenderPipeline.
	RegisterRenderPipeline(p pipeline.Pipeline) error

	// ReleasePipeline retires a replaced pipeline. Its GPU pipeline is freed after the
	// next Present, since a draw recorded in the current frame may still use it.
	ReleasePipeline(p pipeline.Pipeline)

	// InitMeshBuffers uploads a mesh once and records its buffers and counts on mesh.
	// indexData may be empty, in which case draws use vertexCount.
	//
	// Parameters:
	//   - mesh: the provider receiving the buffers
	//   - vertexData: marshalled vertices
	//   - vertexCount: number of vertices
	//   - indexData: little-endian uint32 indices, or nil
	//   - indexCount: number of indices
	//
	// Returns:
	//   - error: when a buffer cannot be created
	InitMeshBuffers(mesh bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error

	// WriteInstanceBuffer uploads count instance records, replacing the buffer with a
	// larger one when data no longer fits.
	WriteInstanceBuffer(mesh bind_group_provider.BindGroupProvider, data []byte, count int) error

	// InitBindGroup creates the buffers the provider lacks for the layout's buffer
	// entries, then the bind group itself. Both override maps are keyed by binding and
	// may be nil.
	//
	// Parameters:
	//   - provider: the provider the group belongs to
	//   - layout: the reflected layout
	//   - usage: usage flags ORed into a binding's buffer
	//   - sizes: buffer sizes that replace the layout's MinBindingSize
	//
	// Returns:
	//   - error: when a buffer or the group cannot be created
	InitBindGroup(provider bind_group_provider.BindGroupProvider, layout wgpu.BindGroupLayoutDescriptor, usage map[int]wgpu.BufferUsage, sizes map[int]uint64) error

	// InitTextureView uploads decoded RGBA pixels as an sRGB texture and keeps its view
	// at binding.
	InitTextureView(provider bind_group_provider.BindGroupProvider, binding int, pixels common.TextureStagingData) error

	// InitSampler creates a sampler at binding. Zero fields take linear filtering and
	// repeat addressing.
	InitSampler(provider bind_group_provider.BindGroupProvider, binding int, sampler common.SamplerStagingData) error

	// WriteBuffers queues the writes. A write to bind_group_provider.InstanceBinding
	// targets the provider's instance buffer.
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginFrame acquires the swapchain texture and opens the frame's render pass.
	BeginFrame() error

	// DrawCall records one draw into the open pass: pipeline, bind groups 0..n-1 from
	// groups, the mesh at slot 0 and the instance buffer at InstanceSlot when
	// instances is non-nil.
	//
	// Parameters:
	//   - p: a registered pipeline
	//   - mesh: provider holding the vertex and optional index buffer
	//   - instances: provider holding the instance buffer, or nil
	//   - instanceCount: how many instances to draw
	//   - groups: one provider per bind group index
	DrawCall(p pipeline.Pipeline, mesh, instances bind_group_provider.BindGroupProvider, instanceCount uint32, groups []bind_group_provider.BindGroupProvider)

	// EndFrame closes the pass and submits it.
	EndFrame()
	Present()

	// Release frees the render targets, the device and the surface.
	Release()
}
