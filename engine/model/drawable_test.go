package model_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ deferred.Target = model.NewDrawable()

const colorVertex = `//@oxy:include constants
//@oxy:group 0 0 uniform constants constants

struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) color: vec3<f32>,
};

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) color: vec3<f32>,
};

@vertex
fn vs_main(input: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = constants.projection * constants.view * constants.model * vec4<f32>(input.position, 1.0);
    out.color = input.color;
    return out;
}
`

const colorFragment = `@fragment
fn fs_main(@location(0) color: vec3<f32>) -> @location(0) vec4<f32> {
    return vec4<f32>(color, 1.0);
}
`

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestConstantsLayout(t *testing.T) {
	c := model.GPUConstants{Model: common.Identity(), View: common.Translation(1, 2, 3), Projection: common.Identity()}
	c.Projection[15] = 7
	buf := c.Marshal()
	require.Len(t, buf, model.GPUConstantsSize)
	assert.Equal(t, float32(1), f32At(buf, 0))
	assert.Equal(t, float32(2), f32At(buf, 64+13*4))
	assert.Equal(t, float32(7), f32At(buf, 128+15*4))

	var ic model.GPUInstancedConstants
	ic.Models[2] = common.Translation(6, 0, 0)
	ic.View[0] = 5
	ic.Projection[0] = 9
	ibuf := ic.Marshal()
	require.Len(t, ibuf, model.GPUInstancedConstantsSize)
	assert.Equal(t, float32(6), f32At(ibuf, 2*64+12*4))
	assert.Equal(t, float32(5), f32At(ibuf, 192))
	assert.Equal(t, float32(9), f32At(ibuf, 256))
}

func TestRegistryMatchesLayout(t *testing.T) {
	pp := shader.NewPreProcessor(model.Registry()...)
	assert.Equal(t, []string{"constants", "instanced_constants", "light_properties"}, pp.Keys())

	vs, err := shader.NewShader("color.vert", shader.StageVertex, colorVertex, shader.WithPreProcessor(pp))
	require.NoError(t, err)
	b, ok := vs.Binding(0, 0)
	require.True(t, ok)
	assert.Equal(t, uint64(model.GPUConstantsSize), b.MinBindingSize)

	layout, ok := vs.VertexLayout()
	require.True(t, ok)
	assert.Equal(t, uint64(model.GPUColorVertexSize), layout.Stride)
}

func newColorPipeline(t *testing.T) pipeline.Pipeline {
	t.Helper()
	pp := shader.NewPreProcessor(model.Registry()...)
	vs, err := shader.NewShader("color.vert", shader.StageVertex, colorVertex, shader.WithPreProcessor(pp))
	require.NoError(t, err)
	fs, err := shader.NewShader("color.frag", shader.StageFragment, colorFragment)
	require.NoError(t, err)
	p, err := pipeline.NewPipeline("color", pipeline.WithVertexShader(vs), pipeline.WithFragmentShader(fs))
	require.NoError(t, err)
	return p
}

func TestDrawableLifecycle(t *testing.T) {
	backend := renderertest.NewBackend()
	r := renderer.NewRenderer(backend)
	p := newColorPipeline(t)
	require.NoError(t, r.RegisterPipelines(p))

	d := model.NewDrawable(model.WithName("cube"))
	assert.False(t, d.Ready())
	assert.Equal(t, uint32(1), d.Instances())

	enc, err := r.BeginFrame()
	require.NoError(t, err)
	d.Encode(enc)
	assert.Empty(t, backend.Ops("SetPipeline", "DrawIndexed"), "not ready drawables record nothing")

	mesh, err := r.InitMesh("cube", make([]byte, 8*model.GPUColorVertexSize), make([]byte, 36*4), 36)
	require.NoError(t, err)
	cb, err := r.InitUniform("cube constants", model.GPUConstantsSize)
	require.NoError(t, err)
	bg, err := r.InitBindGroup("color", 0, renderer.BindGroupEntry{Binding: 0, Buffer: cb})
	require.NoError(t, err)

	d.SetMesh(mesh)
	assert.False(t, d.Ready())
	d.SetPipeline(p)
	d.SetConstantBuffer(cb)
	d.SetBindGroup(0, bg)
	assert.True(t, d.Ready())

	backend.Reset()
	d.Encode(enc)
	ops := backend.Calls()
	require.Len(t, ops, 5)
	assert.Equal(t, "SetPipeline color", ops[0].String())
	assert.Equal(t, "SetBindGroup color group 0 0", ops[1].String())
	assert.Equal(t, "DrawIndexed 36 1", ops[4].String())
	require.NoError(t, r.EndFrame())

	d.Release()
	assert.False(t, d.Ready())
	assert.Equal(t, 0, backend.Live("buffer"))
	assert.Equal(t, 0, backend.Live("bindgroup"))
	d.Release()
}

func TestDrawablePayloadIsCopied(t *testing.T) {
	d := model.NewDrawable(model.WithName("water tower"))
	src := []byte{1, 2, 3, 4}
	d.SetPayload(src)
	src[0] = 9

	got := d.Payload()
	assert.Equal(t, []byte{1, 2, 3, 4}, got)
	got[1] = 9
	assert.Equal(t, []byte{1, 2, 3, 4}, d.Payload())
}

func TestDrawableOwnership(t *testing.T) {
	backend := renderertest.NewBackend()
	r := renderer.NewRenderer(backend)
	p := newColorPipeline(t)
	require.NoError(t, r.RegisterPipelines(p))

	tex, err := r.InitTexture("grass", common.TextureStagingData{Pixels: make([]byte, 4), Width: 1, Height: 1})
	require.NoError(t, err)
	cb, err := r.InitUniform("floor constants", model.GPUConstantsSize)
	require.NoError(t, err)
	first, err := r.InitBindGroup("color", 0, renderer.BindGroupEntry{Binding: 0, Buffer: cb})
	require.NoError(t, err)
	second, err := r.InitBindGroup("color", 0, renderer.BindGroupEntry{Binding: 0, Buffer: cb})
	require.NoError(t, err)
	mesh, err := r.InitMesh("floor", make([]byte, 4*model.GPUColorVertexSize), make([]byte, 6*4), 6)
	require.NoError(t, err)

	d := model.NewDrawable(
		model.WithName("floor"),
		model.WithMesh(mesh),
		model.WithPipeline(p),
		model.WithConstantBuffer(cb),
		model.WithBindGroup(0, first),
		model.WithTexture(tex),
		model.WithInstances(0),
	)
	assert.Equal(t, uint32(1), d.Instances())
	assert.Same(t, mesh, d.Mesh())
	assert.True(t, d.Ready())

	d.SetBindGroup(0, second)
	assert.Equal(t, 1, backend.Live("bindgroup"), "replaced group is released")
	assert.Same(t, second, d.BindGroup(0))
	assert.Nil(t, d.BindGroup(2))

	d.Release()
	assert.Equal(t, 0, backend.Live("texture"))
	assert.Equal(t, 0, backend.Live("bindgroup"))
	assert.Equal(t, 0, backend.Live("buffer"))
}
