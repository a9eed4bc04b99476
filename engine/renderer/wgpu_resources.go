package renderer

import (
	"cmp"
	"fmt"

	"github.com/Carmen-Shannon/oxy-materials/common"
	"github.com/Carmen-Shannon/oxy-materials/engine/logger"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/bind_group_provider"
	"github.com/cogentcore/webgpu/wgpu"
)

// minInstanceBuffer is the smallest instance buffer allocated.
const minInstanceBuffer = 256

func (b *wgpuBackend) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData []byte, vertexCount int, indexData []byte, indexCount int) error {
	if len(vertexData) == 0 {
		return fmt.Errorf("%s: mesh has no vertex data", provider.Label())
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vertices, err := b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    provider.Label() + " vertices",
		Contents: vertexData,
		Usage:    wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%s: vertex buffer: %w", provider.Label(), err)
	}

	var indices *wgpu.Buffer
	if len(indexData) > 0 {
		indices, err = b.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    provider.Label() + " indices",
			Contents: indexData,
			Usage:    wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			vertices.Release()
			return fmt.Errorf("%s: index buffer: %w", provider.Label(), err)
		}
	}
	provider.SetMesh(vertices, indices, vertexCount, indexCount)
	return nil
}

func (b *wgpuBackend) WriteInstanceBuffer(provider bind_group_provider.BindGroupProvider, data []byte, count int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(data) == 0 {
		provider.SetInstanceCount(0)
		return nil
	}

	buf := provider.InstanceBuffer()
	if buf == nil || buf.GetSize() < uint64(len(data)) {
		grown, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: provider.Label() + " instances",
			Size:  instanceBufferSize(uint64(len(data))),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("%s: instance buffer: %w", provider.Label(), err)
		}
		// releases the old buffer
		provider.SetInstanceBuffer(grown)
		buf = grown
	}
	b.queue.WriteBuffer(buf, 0, data)
	provider.SetInstanceCount(count)
	return nil
}

func (b *wgpuBackend) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	if len(descriptor.Entries) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	layout := provider.BindGroupLayout()
	if layout == nil {
		var err error
		if layout, err = b.device.CreateBindGroupLayout(&descriptor); err != nil {
			return fmt.Errorf("%s: bind group layout: %w", provider.Label(), err)
		}
		provider.SetBindGroupLayout(layout)
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(descriptor.Entries))
	for _, le := range descriptor.Entries {
		e, err := b.bindGroupEntry(provider, le, bufferUsageOverrides, bufferSizeOverrides)
		if err != nil {
			return err
		}
		entries = append(entries, e)
	}

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label(),
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("%s: bind group: %w", provider.Label(), err)
	}
	provider.SetBindGroup(bg)
	return nil
}

// bindGroupEntry resolves one layout entry against provider. Textures and samplers must
// already be there; missing buffers are created from the entry. Callers hold b.mu.
func (b *wgpuBackend) bindGroupEntry(provider bind_group_provider.BindGroupProvider, le wgpu.BindGroupLayoutEntry, usages map[int]wgpu.BufferUsage, sizes map[int]uint64) (wgpu.BindGroupEntry, error) {
	binding := int(le.Binding)
	e := wgpu.BindGroupEntry{Binding: le.Binding}

	switch {
	case le.Texture.SampleType != wgpu.TextureSampleTypeUndefined:
		if e.TextureView = provider.TextureView(binding); e.TextureView == nil {
			return e, fmt.Errorf("%s: binding %d has no texture view", provider.Label(), binding)
		}
	case le.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
		if e.Sampler = provider.Sampler(binding); e.Sampler == nil {
			return e, fmt.Errorf("%s: binding %d has no sampler", provider.Label(), binding)
		}
	default:
		buf := provider.Buffer(binding)
		if buf == nil {
			size, ok := sizes[binding]
			if !ok {
				size = le.Buffer.MinBindingSize
			}
			var err error
			buf, err = b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("%s binding %d", provider.Label(), binding),
				Size:  size,
				Usage: bufferUsage(le.Buffer.Type) | usages[binding],
			})
			if err != nil {
				return e, fmt.Errorf("%s: buffer %d: %w", provider.Label(), binding, err)
			}
			provider.SetBuffer(binding, buf)
		}
		e.Buffer, e.Size = buf, wgpu.WholeSize
	}
	return e, nil
}

// InitTextureView uploads RGBA8 sRGB pixels the way cogentcore's gpu.Texture does.
func (b *wgpuBackend) InitTextureView(provider bind_group_provider.BindGroupProvider, bindingKey int, stagingData common.TextureStagingData) error {
	w, h := stagingData.Width, stagingData.Height
	if w == 0 || h == 0 {
		return fmt.Errorf("%s: texture %d has zero size", provider.Label(), bindingKey)
	}
	if want := int(w * h * 4); len(stagingData.Pixels) != want {
		return fmt.Errorf("%s: texture %d has %d bytes, want %d", provider.Label(), bindingKey, len(stagingData.Pixels), want)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	size := wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         fmt.Sprintf("%s texture %d", provider.Label(), bindingKey),
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("%s: texture %d: %w", provider.Label(), bindingKey, err)
	}
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, Aspect: wgpu.TextureAspectAll},
		stagingData.Pixels,
		&wgpu.TextureDataLayout{BytesPerRow: 4 * w, RowsPerImage: h},
		&size,
	)

	// the view keeps the texture alive
	view, err := tex.CreateView(nil)
	tex.Release()
	if err != nil {
		return fmt.Errorf("%s: texture %d view: %w", provider.Label(), bindingKey, err)
	}
	provider.SetTextureView(bindingKey, view)
	return nil
}

// InitSampler fills zero fields with repeat addressing, linear filtering and no anisotropy.
func (b *wgpuBackend) InitSampler(provider bind_group_provider.BindGroupProvider, bindingKey int, sd common.SamplerStagingData) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	s, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         fmt.Sprintf("%s sampler %d", provider.Label(), bindingKey),
		AddressModeU:  cmp.Or(sd.AddressModeU, wgpu.AddressModeRepeat),
		AddressModeV:  cmp.Or(sd.AddressModeV, wgpu.AddressModeRepeat),
		AddressModeW:  cmp.Or(sd.AddressModeW, wgpu.AddressModeRepeat),
		MagFilter:     cmp.Or(sd.MagFilter, wgpu.FilterModeLinear),
		MinFilter:     cmp.Or(sd.MinFilter, wgpu.FilterModeLinear),
		MipmapFilter:  cmp.Or(sd.MipmapFilter, wgpu.MipmapFilterModeLinear),
		LodMinClamp:   sd.LodMinClamp,
		LodMaxClamp:   cmp.Or(sd.LodMaxClamp, 32.0),
		MaxAnisotropy: cmp.Or(sd.MaxAnisotropy, 1),
	})
	if err != nil {
		return fmt.Errorf("%s: sampler %d: %w", provider.Label(), bindingKey, err)
	}
	provider.SetSampler(bindingKey, s)
	return nil
}

func (b *wgpuBackend) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		if len(w.Data) == 0 {
			continue
		}
		buf := w.Provider.InstanceBuffer()
		if w.Binding != bind_group_provider.InstanceBinding {
			buf = w.Provider.Buffer(w.Binding)
		}
		if buf == nil {
			continue
		}
		if w.Offset+uint64(len(w.Data)) > buf.GetSize() {
			logger.Component("renderer").Warn("buffer write out of range",
				"provider", w.Provider.Label(), "binding", w.Binding, "offset", w.Offset, "bytes", len(w.Data))
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

// bufferUsage is the usage a buffer needs to back a binding of type t and take writes.
func bufferUsage(t wgpu.BufferBindingType) wgpu.BufferUsage {
	switch t {
	case wgpu.BufferBindingTypeUniform:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	case wgpu.BufferBindingTypeStorage, wgpu.BufferBindingTypeReadOnlyStorage:
		return wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	}
	return wgpu.BufferUsageCopyDst
}

// instanceBufferSize rounds n up to a power of two, at least minInstanceBuffer, so a
// growing instance count reallocates rarely.
func instanceBufferSize(n uint64) uint64 {
	size := uint64(minInstanceBuffer)
	for size < n {
		size <<= 1
	}
	return size
}
