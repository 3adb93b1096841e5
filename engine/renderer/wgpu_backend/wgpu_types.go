package wgpu_backend

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how frames are delivered to the display.
type PresentMode int

const (
	// PresentModeVSync waits for the vertical blank (Fifo).
	PresentModeVSync PresentMode = iota
	// PresentModeUncapped presents immediately and may tear.
	PresentModeUncapped
)

// MSAASampleCount is the number of samples per pixel of the main render pass.
type MSAASampleCount uint32

const (
	MSAAOff MSAASampleCount = 1
	MSAA4x  MSAASampleCount = 4
	MSAA8x  MSAASampleCount = 8
	MSAA16x MSAASampleCount = 16
)

func (m MSAASampleCount) valid() bool {
	return m == MSAAOff || m == MSAA4x || m == MSAA8x || m == MSAA16x
}

func wgpuPresentMode(mode PresentMode) wgpu.PresentMode {
	switch mode {
	case PresentModeVSync:
		return wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		return wgpu.PresentModeImmediate
	}
}

func wgpuShaderStage(s shader.Stage) wgpu.ShaderStage {
	var out wgpu.ShaderStage
	if s&shader.StageVertex != 0 {
		out |= wgpu.ShaderStageVertex
	}
	if s&shader.StageFragment != 0 {
		out |= wgpu.ShaderStageFragment
	}
	return out
}

func wgpuVertexFormat(f shader.VertexFormat) (wgpu.VertexFormat, error) {
	switch f {
	case shader.VertexFormatFloat32:
		return wgpu.VertexFormatFloat32, nil
	case shader.VertexFormatFloat32x2:
		return wgpu.VertexFormatFloat32x2, nil
	case shader.VertexFormatFloat32x3:
		return wgpu.VertexFormatFloat32x3, nil
	case shader.VertexFormatFloat32x4:
		return wgpu.VertexFormatFloat32x4, nil
	case shader.VertexFormatSint32:
		return wgpu.VertexFormatSint32, nil
	case shader.VertexFormatSint32x2:
		return wgpu.VertexFormatSint32x2, nil
	case shader.VertexFormatSint32x3:
		return wgpu.VertexFormatSint32x3, nil
	case shader.VertexFormatSint32x4:
		return wgpu.VertexFormatSint32x4, nil
	case shader.VertexFormatUint32:
		return wgpu.VertexFormatUint32, nil
	case shader.VertexFormatUint32x2:
		return wgpu.VertexFormatUint32x2, nil
	case shader.VertexFormatUint32x3:
		return wgpu.VertexFormatUint32x3, nil
	case shader.VertexFormatUint32x4:
		return wgpu.VertexFormatUint32x4, nil
	default:
		return 0, fmt.Errorf("unsupported vertex format %d", f)
	}
}

// vertexBufferLayout converts a reflected layout into the single per-vertex buffer layout at slot 0.
func vertexBufferLayout(layout shader.VertexLayout) ([]wgpu.VertexBufferLayout, error) {
	if len(layout.Attributes) == 0 {
		return nil, nil
	}
	attrs := make([]wgpu.VertexAttribute, 0, len(layout.Attributes))
	for _, a := range layout.Attributes {
		format, err := wgpuVertexFormat(a.Format)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", a.Name, err)
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         format,
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		})
	}
	return []wgpu.VertexBufferLayout{{
		ArrayStride: layout.Stride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}}, nil
}

func wgpuViewDimension(d shader.TextureDimension) wgpu.TextureViewDimension {
	switch d {
	case shader.TextureDimension1D:
		return wgpu.TextureViewDimension1D
	case shader.TextureDimension2DArray:
		return wgpu.TextureViewDimension2DArray
	case shader.TextureDimension3D:
		return wgpu.TextureViewDimension3D
	case shader.TextureDimensionCube:
		return wgpu.TextureViewDimensionCube
	case shader.TextureDimensionCubeArray:
		return wgpu.TextureViewDimensionCubeArray
	default:
		return wgpu.TextureViewDimension2D
	}
}

func wgpuSampleType(t shader.SampleType) wgpu.TextureSampleType {
	switch t {
	case shader.SampleTypeSint:
		return wgpu.TextureSampleTypeSint
	case shader.SampleTypeUint:
		return wgpu.TextureSampleTypeUint
	case shader.SampleTypeDepth:
		return wgpu.TextureSampleTypeDepth
	default:
		return wgpu.TextureSampleTypeFloat
	}
}

// bindGroupLayoutEntry converts one reflected binding into its layout entry.
func bindGroupLayoutEntry(b shader.Binding) (wgpu.BindGroupLayoutEntry, error) {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    b.Binding,
		Visibility: wgpuShaderStage(b.Visibility),
	}
	switch b.Kind {
	case shader.BindingKindUniform:
		entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform, MinBindingSize: b.MinBindingSize}
	case shader.BindingKindReadOnlyStorage:
		entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage, MinBindingSize: b.MinBindingSize}
	case shader.BindingKindStorage:
		entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage, MinBindingSize: b.MinBindingSize}
	case shader.BindingKindTexture:
		entry.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpuSampleType(b.SampleType),
			ViewDimension: wgpuViewDimension(b.TextureDimension),
			Multisampled:  b.Multisampled,
		}
	case shader.BindingKindSampler:
		entry.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
	case shader.BindingKindComparisonSampler:
		entry.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeComparison}
	default:
		return entry, fmt.Errorf("binding %d (%s) has no kind", b.Binding, b.Name)
	}
	return entry, nil
}

func wgpuCullMode(m pipeline.CullMode) wgpu.CullMode {
	switch m {
	case pipeline.CullModeFront:
		return wgpu.CullModeFront
	case pipeline.CullModeBack:
		return wgpu.CullModeBack
	default:
		return wgpu.CullModeNone
	}
}

func wgpuFrontFace(f pipeline.FrontFace) wgpu.FrontFace {
	if f == pipeline.FrontFaceCW {
		return wgpu.FrontFaceCW
	}
	return wgpu.FrontFaceCCW
}

func wgpuAddressMode(m common.AddressMode) wgpu.AddressMode {
	switch m {
	case common.AddressModeClampToEdge:
		return wgpu.AddressModeClampToEdge
	case common.AddressModeMirrorRepeat:
		return wgpu.AddressModeMirrorRepeat
	default:
		return wgpu.AddressModeRepeat
	}
}

func wgpuFilterMode(m common.FilterMode) wgpu.FilterMode {
	if m == common.FilterModeNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func wgpuMipmapFilterMode(m common.FilterMode) wgpu.MipmapFilterMode {
	if m == common.FilterModeNearest {
		return wgpu.MipmapFilterModeNearest
	}
	return wgpu.MipmapFilterModeLinear
}

// colorTarget describes the single color attachment a pipeline writes, blended when the pipeline asks for it.
func colorTarget(format wgpu.TextureFormat, p pipeline.Pipeline) wgpu.ColorTargetState {
	target := wgpu.ColorTargetState{
		Format:    format,
		WriteMask: wgpu.ColorWriteMaskAll,
	}
	if p.BlendEnabled() {
		blend := alphaBlending
		target.Blend = &blend
	}
	return target
}

func primitiveState(p pipeline.Pipeline) wgpu.PrimitiveState {
	return wgpu.PrimitiveState{
		Topology:  wgpu.PrimitiveTopologyTriangleList,
		FrontFace: wgpuFrontFace(p.FrontFace()),
		CullMode:  wgpuCullMode(p.CullMode()),
	}
}

// alphaBlending is standard non-premultiplied "over" blending.
var alphaBlending = wgpu.BlendState{
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
