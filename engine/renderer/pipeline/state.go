package pipeline

import "github.com/cogentcore/webgpu/wgpu"

// AlphaBlend is straight alpha blending over the color target.
var AlphaBlend = wgpu.BlendState{
	Color: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorSrcAlpha,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
	Alpha: wgpu.BlendComponent{
		SrcFactor: wgpu.BlendFactorOne,
		DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
		Operation: wgpu.BlendOperationAdd,
	},
}

// State is the fixed-function part of a render pipeline.
type State struct {
	DepthTest    bool
	DepthWrite   bool
	DepthCompare wgpu.CompareFunction
	// Blend is nil for opaque pipelines.
	Blend     *wgpu.BlendState
	CullMode  wgpu.CullMode
	Topology  wgpu.PrimitiveTopology
	FrontFace wgpu.FrontFace
	WriteMask wgpu.ColorWriteMask
}

// OpaqueState is used by lit and unlit 3D materials: depth tested and written with Less,
// no blending, both faces drawn.
func OpaqueState() State {
	return State{
		DepthTest:    true,
		DepthWrite:   true,
		DepthCompare: wgpu.CompareFunctionLess,
		CullMode:     wgpu.CullModeNone,
		Topology:     wgpu.PrimitiveTopologyTriangleList,
		FrontFace:    wgpu.FrontFaceCCW,
		WriteMask:    wgpu.ColorWriteMaskAll,
	}
}

// OverlayState is used by 2D meshes drawn in clip space over the scene: no depth,
// alpha blended, back faces culled.
func OverlayState() State {
	s := OpaqueState()
	s.DepthTest = false
	s.DepthWrite = false
	s.Blend = &AlphaBlend
	s.CullMode = wgpu.CullModeBack
	return s
}

// Blended reports whether the color target blends.
func (s State) Blended() bool {
	return s.Blend != nil
}

// EffectiveCompare is the compare function the depth stencil state uses. A pipeline with
// the depth test off still needs a depth attachment in the shared pass, so it always passes.
func (s State) EffectiveCompare() wgpu.CompareFunction {
	if !s.DepthTest {
		return wgpu.CompareFunctionAlways
	}
	return s.DepthCompare
}
