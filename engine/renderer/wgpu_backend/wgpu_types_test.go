package wgpu_backend

import (
	"bytes"
	"os"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVertexBufferLayout(t *testing.T) {
	layouts, err := vertexBufferLayout(shader.VertexLayout{
		Stride: 32,
		Attributes: []shader.VertexAttribute{
			{Location: 0, Name: "position", Format: shader.VertexFormatFloat32x3, Offset: 0},
			{Location: 1, Name: "uv", Format: shader.VertexFormatFloat32x2, Offset: 12},
			{Location: 2, Name: "normal", Format: shader.VertexFormatFloat32x3, Offset: 20},
		},
	})
	require.NoError(t, err)
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(32), layouts[0].ArrayStride)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layouts[0].Attributes[1].Format)
	assert.Equal(t, uint32(2), layouts[0].Attributes[2].ShaderLocation)

	none, err := vertexBufferLayout(shader.VertexLayout{})
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = vertexBufferLayout(shader.VertexLayout{Attributes: []shader.VertexAttribute{{Name: "bad"}}})
	assert.ErrorContains(t, err, "bad")
}

func TestBindGroupLayoutEntry(t *testing.T) {
	entry, err := bindGroupLayoutEntry(shader.Binding{
		Binding:        0,
		Kind:           shader.BindingKindUniform,
		Visibility:     shader.StageVertex | shader.StageFragment,
		MinBindingSize: light.GPULightPropertiesSize,
	})
	require.NoError(t, err)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, entry.Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, entry.Buffer.Type)
	assert.Equal(t, uint64(light.GPULightPropertiesSize), entry.Buffer.MinBindingSize)

	entry, err = bindGroupLayoutEntry(shader.Binding{
		Binding:          1,
		Kind:             shader.BindingKindTexture,
		Visibility:       shader.StageFragment,
		TextureDimension: shader.TextureDimension2D,
		SampleType:       shader.SampleTypeFloat,
	})
	require.NoError(t, err)
	assert.Equal(t, wgpu.TextureViewDimension2D, entry.Texture.ViewDimension)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, entry.Texture.SampleType)

	_, err = bindGroupLayoutEntry(shader.Binding{Name: "mystery"})
	assert.Error(t, err)
}

func TestPadded(t *testing.T) {
	assert.Len(t, padded(make([]byte, 8)), 8)
	out := padded([]byte{1, 2, 3, 4, 5})
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 0, 0, 0}, out)
}

func TestMSAAValidity(t *testing.T) {
	assert.True(t, MSAA4x.valid())
	assert.False(t, MSAASampleCount(2).valid())
	assert.Equal(t, wgpu.PresentModeFifo, wgpuPresentMode(PresentModeVSync))
	assert.Equal(t, wgpu.PresentModeImmediate, wgpuPresentMode(PresentModeUncapped))
}

type drawCall struct{ indices, instances uint32 }

type fakeRecorder struct {
	draws     []drawCall
	pipelines int
}

func (f *fakeRecorder) SetPipeline(*wgpu.RenderPipeline) { f.pipelines++ }
func (f *fakeRecorder) SetBindGroup(uint32, *wgpu.BindGroup, []uint32) {}
func (f *fakeRecorder) SetVertexBuffer(uint32, *wgpu.Buffer, uint64, uint64) {}
func (f *fakeRecorder) SetIndexBuffer(*wgpu.Buffer, wgpu.IndexFormat, uint64, uint64) {}
func (f *fakeRecorder) DrawIndexed(indexCount, instanceCount uint32) {
	f.draws = append(f.draws, drawCall{indexCount, instanceCount})
}

func TestEncoderRecordsOnPassAndBundle(t *testing.T) {
	// Both GPU encoders must satisfy the shared command set despite their differing DrawIndexed signatures.
	recorders := []recorder{passRecorder{}, bundleRecorder{}}
	assert.Len(t, recorders, 2)

	fake := &fakeRecorder{}
	enc := &encoder{rec: fake}
	enc.SetPipeline(nil)
	enc.DrawIndexed(36, 1)
	enc.DrawIndexed(18, 3)

	assert.Zero(t, fake.pipelines)
	assert.Equal(t, []drawCall{{36, 1}, {18, 3}}, fake.draws)
}

func TestNewBackendAppliesOptions(t *testing.T) {
	def, err := newBackend()
	require.NoError(t, err)
	assert.Equal(t, wgpu.PresentModeFifo, def.presentMode)
	assert.Equal(t, MSAA4x, def.sampleCount)
	assert.Equal(t, wgpu.Color{A: 1}, def.clearColor)
	assert.False(t, def.forceFallback)

	b, err := newBackend(
		WithPresentMode(PresentModeUncapped),
		WithMSAA(MSAA8x),
		WithClearColor(0.1, 0.2, 0.3, 1),
		WithForceSoftwareRenderer(true),
	)
	require.NoError(t, err)
	assert.Equal(t, wgpu.PresentModeImmediate, b.presentMode)
	assert.Equal(t, MSAA8x, b.sampleCount)
	assert.Equal(t, wgpu.Color{R: 0.1, G: 0.2, B: 0.3, A: 1}, b.clearColor)
	assert.True(t, b.forceFallback)
}

func TestNewBackendRejectsSampleCount(t *testing.T) {
	var logs bytes.Buffer
	logging.SetSink(&logs)
	defer logging.SetSink(os.Stdout)

	_, err := newBackend(WithMSAA(2), WithLogger(logging.New("gpu")))
	assert.ErrorIs(t, err, common.ErrDeviceCreateFailure)
	assert.Contains(t, logs.String(), "[gpu] [ERROR]")
	assert.Contains(t, logs.String(), "rejected msaa sample count 2")
}

const plainVertex = `struct VertexInput {
    @location(0) position: vec3<f32>,
};

@vertex
fn vs_main(input: VertexInput) -> @builtin(position) vec4<f32> {
    return vec4<f32>(input.position, 1.0);
}
`

const plainFragment = `@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`

func TestPipelineFixedFunctionMapping(t *testing.T) {
	vs, err := shader.NewShader("plain.vert", shader.StageVertex, plainVertex)
	require.NoError(t, err)
	fs, err := shader.NewShader("plain.frag", shader.StageFragment, plainFragment)
	require.NoError(t, err)

	opaque, err := pipeline.NewPipeline("opaque", pipeline.WithVertexShader(vs), pipeline.WithFragmentShader(fs))
	require.NoError(t, err)
	target := colorTarget(wgpu.TextureFormatBGRA8Unorm, opaque)
	assert.Equal(t, wgpu.TextureFormatBGRA8Unorm, target.Format)
	assert.Nil(t, target.Blend)
	prim := primitiveState(opaque)
	assert.Equal(t, wgpu.FrontFaceCCW, prim.FrontFace)
	assert.Equal(t, wgpu.CullModeNone, prim.CullMode)

	blended, err := pipeline.NewPipeline("blended",
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithBlendEnabled(true),
		pipeline.WithFrontFace(pipeline.FrontFaceCW),
		pipeline.WithCullMode(pipeline.CullModeBack),
	)
	require.NoError(t, err)
	target = colorTarget(wgpu.TextureFormatBGRA8Unorm, blended)
	require.NotNil(t, target.Blend)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, target.Blend.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, target.Blend.Color.DstFactor)
	prim = primitiveState(blended)
	assert.Equal(t, wgpu.FrontFaceCW, prim.FrontFace)
	assert.Equal(t, wgpu.CullModeBack, prim.CullMode)
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, prim.Topology)
}
