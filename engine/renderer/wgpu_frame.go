package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-materials/engine/logger"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-materials/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	errSurfaceNotConfigured = errors.New("surface not configured")

	// acquiring a second surface texture before presenting the first fails in wgpu-native
	errFramePending = errors.New("previous frame not presented")
)

// passDescriptor clears the color and depth targets. With MSAA the pass draws into the
// multisampled target and resolves into view; the multisampled samples are discarded.
func (b *wgpuBackend) passDescriptor(view *wgpu.TextureView) *wgpu.RenderPassDescriptor {
	color := wgpu.RenderPassColorAttachment{
		View:       view,
		LoadOp:     wgpu.LoadOpClear,
		StoreOp:    wgpu.StoreOpStore,
		ClearValue: b.clearColor,
	}
	if b.msaa != nil {
		color.View = b.msaa.view
		color.ResolveTarget = view
		color.StoreOp = wgpu.StoreOpDiscard
	}
	return &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{color},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depth.view,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (b *wgpuBackend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.format == nil || b.depth == nil {
		return errSurfaceNotConfigured
	}
	if b.frame.surface != nil {
		return errFramePending
	}

	tex, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	f := frame{surface: tex}
	if f.view, err = tex.CreateView(nil); err != nil {
		f.release()
		return err
	}
	if f.encoder, err = b.device.CreateCommandEncoder(nil); err != nil {
		f.release()
		return err
	}
	f.pass = f.encoder.BeginRenderPass(b.passDescriptor(f.view))
	b.frame = f
	return nil
}

func (b *wgpuBackend) DrawCall(p pipeline.Pipeline, meshProvider, instanceProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pass := b.frame.pass
	rp := p.RenderPipeline()
	vertices := meshProvider.VertexBuffer()
	if pass == nil || rp == nil || vertices == nil || instanceCount == 0 {
		return
	}

	pass.SetPipeline(rp)
	for i, bg := range bindGroups {
		if bg != nil && bg.BindGroup() != nil {
			pass.SetBindGroup(uint32(i), bg.BindGroup(), nil)
		}
	}
	pass.SetVertexBuffer(0, vertices, 0, wgpu.WholeSize)
	if instanceProvider != nil {
		if instances := instanceProvider.InstanceBuffer(); instances != nil {
			pass.SetVertexBuffer(InstanceSlot, instances, 0, wgpu.WholeSize)
		}
	}

	if indices := meshProvider.IndexBuffer(); indices != nil {
		pass.SetIndexBuffer(indices, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
		pass.DrawIndexed(uint32(meshProvider.IndexCount()), instanceCount, 0, 0, 0)
		return
	}
	pass.Draw(uint32(meshProvider.VertexCount()), instanceCount, 0, 0)
}

func (b *wgpuBackend) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	f := &b.frame
	if f.pass == nil {
		return
	}
	f.pass.End()
	f.pass.Release()
	f.pass = nil

	cmd, err := f.encoder.Finish(nil)
	f.encoder.Release()
	f.encoder = nil
	if err != nil {
		// nothing to present; drop the surface texture so the next frame can acquire one
		logger.Component("renderer").Error("finishing frame", "error", err)
		f.release()
		return
	}
	b.queue.Submit(cmd)
	cmd.Release()
}

func (b *wgpuBackend) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()
	defer b.releaseRetired()

	if b.frame.surface == nil {
		return
	}
	b.surface.Present()
	b.frame.release()
}

// release frees whatever the frame still holds and clears it.
func (f *frame) release() {
	if f.pass != nil {
		f.pass.Release()
	}
	if f.encoder != nil {
		f.encoder.Release()
	}
	if f.view != nil {
		f.view.Release()
	}
	if f.surface != nil {
		f.surface.Release()
	}
	*f = frame{}
}
