// Package bind_group_provider holds the GPU handles behind one logical resource set: a
// camera uniform, a material's textures and parameters, a scene's light buffers, or a
// mesh with its instance buffer.
package bind_group_provider

import (
	"slices"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// slot is the resource bound at one binding index. Exactly one field is set.
type slot struct {
	buffer  *wgpu.Buffer
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

func (s *slot) release() {
	if s.buffer != nil {
		s.buffer.Release()
	}
	if s.view != nil {
		s.view.Release()
	}
	if s.sampler != nil {
		s.sampler.Release()
	}
}

// mesh holds the vertex stage buffers drawn with a provider.
type mesh struct {
	vertex, index, instance *wgpu.Buffer
	vertexCount, indexCount int
	instanceCount           int
}

type bindGroupProvider struct {
	mu    *sync.RWMutex
	label string

	bindGroup       *wgpu.BindGroup
	bindGroupLayout *wgpu.BindGroupLayout
	slots           map[int]*slot

	mesh mesh
}

// BindGroupProvider is filled in by the renderer and read back for draw calls.
//
// Components (camera, material, scene lights, models) each own one:
//  1. the component creates it with a unique label
//  2. the scene asks the renderer to create the bind group, mesh or instance buffers
//  3. per-frame data reaches it through BufferWrite
//  4. the renderer binds BindGroup, VertexBuffer and InstanceBuffer while drawing
//
// Methods are safe for concurrent use. Setters replacing a handle release the old one.
type BindGroupProvider interface {
	// Label returns the label GPU objects created for this provider are named after.
	Label() string

	// Ready reports whether the bind group exists.
	//
	// Returns:
	//   - bool: true once the renderer created the bind group
	Ready() bool

	// BindGroup returns the bind group, or nil before it is created.
	BindGroup() *wgpu.BindGroup

	// SetBindGroup stores the bind group.
	SetBindGroup(bg *wgpu.BindGroup)

	// BindGroupLayout returns the layout the bind group was created with, or nil.
	BindGroupLayout() *wgpu.BindGroupLayout

	// SetBindGroupLayout stores the layout.
	SetBindGroupLayout(bgl *wgpu.BindGroupLayout)

	// Buffer returns the uniform or storage buffer at binding, or nil.
	//
	// Parameters:
	//   - binding: the @binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding int) *wgpu.Buffer

	// SetBuffer stores the buffer at binding.
	SetBuffer(binding int, buf *wgpu.Buffer)

	// TextureView returns the texture view at binding, or nil.
	TextureView(binding int) *wgpu.TextureView

	// SetTextureView stores the texture view at binding.
	SetTextureView(binding int, tv *wgpu.TextureView)

	// Sampler returns the sampler at binding, or nil.
	Sampler(binding int) *wgpu.Sampler

	// SetSampler stores the sampler at binding.
	SetSampler(binding int, s *wgpu.Sampler)

	// Bindings lists the binding indices holding a resource, ascending.
	//
	// Returns:
	//   - []int: the binding indices
	Bindings() []int

	// SetMesh stores the vertex and optional index buffer of a mesh.
	//
	// Parameters:
	//   - vertex: the vertex buffer
	//   - index: the uint32 index buffer, nil for non-indexed meshes
	//   - vertexCount: vertices drawn when index is nil
	//   - indexCount: indices drawn when index is set
	SetMesh(vertex, index *wgpu.Buffer, vertexCount, indexCount int)

	// VertexBuffer returns the mesh vertex buffer, or nil.
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the mesh index buffer, or nil for non-indexed meshes.
	IndexBuffer() *wgpu.Buffer

	// VertexCount returns the number of vertices in the mesh.
	VertexCount() int

	// IndexCount returns the number of indices in the mesh.
	IndexCount() int

	// InstanceBuffer returns the per-instance vertex buffer bound at the instance slot.
	InstanceBuffer() *wgpu.Buffer

	// SetInstanceBuffer stores the instance buffer.
	SetInstanceBuffer(buf *wgpu.Buffer)

	// InstanceCount returns the number of instances drawn.
	InstanceCount() int

	// SetInstanceCount sets the number of instances drawn.
	SetInstanceCount(count int)

	// Release releases every GPU handle and zeroes the counts. The provider can be
	// filled again afterwards.
	Release()
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - label: prefix for the labels of the GPU objects created for it
//   - options: presets for the draw counts
//
// Returns:
//   - BindGroupProvider: the provider
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		mu:    &sync.RWMutex{},
		label: label,
		slots: make(map[int]*slot),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bindGroup != nil
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bindGroup
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) BindGroupLayout() *wgpu.BindGroupLayout {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bindGroupLayout
}

func (p *bindGroupProvider) SetBindGroupLayout(bgl *wgpu.BindGroupLayout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bindGroupLayout = bgl
}

// get returns the slot at binding; the caller holds the read lock.
func (p *bindGroupProvider) get(binding int) slot {
	if s, ok := p.slots[binding]; ok {
		return *s
	}
	return slot{}
}

// put replaces the slot at binding, releasing whatever it held before unless it is the
// same handle; the caller holds the write lock.
func (p *bindGroupProvider) put(binding int, next slot) {
	if old, ok := p.slots[binding]; ok && *old != next {
		old.release()
	}
	p.slots[binding] = &next
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.get(binding).buffer
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.put(binding, slot{buffer: buf})
}

func (p *bindGroupProvider) TextureView(binding int) *wgpu.TextureView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.get(binding).view
}

func (p *bindGroupProvider) SetTextureView(binding int, tv *wgpu.TextureView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.put(binding, slot{view: tv})
}

func (p *bindGroupProvider) Sampler(binding int) *wgpu.Sampler {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.get(binding).sampler
}

func (p *bindGroupProvider) SetSampler(binding int, s *wgpu.Sampler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.put(binding, slot{sampler: s})
}

func (p *bindGroupProvider) Bindings() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]int, 0, len(p.slots))
	for b := range p.slots {
		out = append(out, b)
	}
	slices.Sort(out)
	return out
}

func (p *bindGroupProvider) SetMesh(vertex, index *wgpu.Buffer, vertexCount, indexCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mesh.vertex != nil && p.mesh.vertex != vertex {
		p.mesh.vertex.Release()
	}
	if p.mesh.index != nil && p.mesh.index != index {
		p.mesh.index.Release()
	}
	p.mesh.vertex, p.mesh.index = vertex, index
	p.mesh.vertexCount, p.mesh.indexCount = vertexCount, indexCount
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mesh.vertex
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mesh.index
}

func (p *bindGroupProvider) VertexCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mesh.vertexCount
}

func (p *bindGroupProvider) IndexCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mesh.indexCount
}

func (p *bindGroupProvider) InstanceBuffer() *wgpu.Buffer {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mesh.instance
}

func (p *bindGroupProvider) SetInstanceBuffer(buf *wgpu.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mesh.instance != nil && p.mesh.instance != buf {
		p.mesh.instance.Release()
	}
	p.mesh.instance = buf
}

func (p *bindGroupProvider) InstanceCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.mesh.instanceCount
}

func (p *bindGroupProvider) SetInstanceCount(count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mesh.instanceCount = count
}

func (p *bindGroupProvider) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for b, s := range p.slots {
		s.release()
		delete(p.slots, b)
	}
	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
	for _, buf := range []*wgpu.Buffer{p.mesh.vertex, p.mesh.index, p.mesh.instance} {
		if buf != nil {
			buf.Release()
		}
	}
	p.mesh = mesh{}
}
