package renderer_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vertexSource = `struct Constants { model: mat4x4<f32>, view: mat4x4<f32>, projection: mat4x4<f32>, };
@group(0) @binding(0) var<uniform> constants: Constants;
struct VertexInput { @location(0) position: vec3<f32>, @location(1) uv: vec2<f32>, @location(2) normal: vec3<f32>, };
@vertex
fn vs_main(input: VertexInput) -> @builtin(position) vec4<f32> {
    return constants.projection * constants.view * constants.model * vec4<f32>(input.position, 1.0);
}
`

const fragmentSource = `@group(1) @binding(0) var diffuse: texture_2d<f32>;
@group(1) @binding(1) var diffuse_sampler: sampler;
@fragment
fn fs_main() -> @location(0) vec4<f32> { return textureSample(diffuse, diffuse_sampler, vec2<f32>(0.0)); }
`

func newTexturedPipeline(t *testing.T) pipeline.Pipeline {
	t.Helper()
	vs, err := shader.NewShader("textured.vert", shader.StageVertex, vertexSource)
	require.NoError(t, err)
	fs, err := shader.NewShader("textured.frag", shader.StageFragment, fragmentSource)
	require.NoError(t, err)
	p, err := pipeline.NewPipeline("textured", pipeline.WithVertexShader(vs), pipeline.WithFragmentShader(fs))
	require.NoError(t, err)
	return p
}

func TestRegisterPipelinesCachesOnce(t *testing.T) {
	var logs bytes.Buffer
	logging.SetSink(&logs)
	defer logging.SetSink(os.Stdout)
	logging.SetLevel(logging.Debug, "gpu-cache")

	backend := renderertest.NewBackend()
	r := renderer.NewRenderer(backend, renderer.WithLogger(logging.New("gpu-cache")))
	p := newTexturedPipeline(t)

	require.NoError(t, r.RegisterPipelines(p))
	require.NoError(t, r.RegisterPipelines(p))

	assert.Len(t, backend.Ops("CreateRenderPipeline"), 1)
	assert.Same(t, p, r.Pipeline("textured"))
	assert.Equal(t, "textured", p.Handle())
	assert.Nil(t, r.Pipeline("missing"))

	cache := r.Pipelines()
	delete(cache, "textured")
	assert.NotNil(t, r.Pipeline("textured"))
	assert.Contains(t, logs.String(), "[gpu-cache] [DEBUG]")
	assert.Equal(t, 1, strings.Count(logs.String(), "registered pipeline textured"))
}

func TestRegisterPipelinesWrapsBackendFailure(t *testing.T) {
	backend := renderertest.NewBackend()
	backend.FailPipeline = "textured"
	r := renderer.NewRenderer(backend)

	err := r.RegisterPipelines(newTexturedPipeline(t))
	assert.ErrorIs(t, err, common.ErrDeviceCreateFailure)
	assert.Nil(t, r.Pipeline("textured"))
}

func TestInitMeshAndUniform(t *testing.T) {
	backend := renderertest.NewBackend()
	r := renderer.NewRenderer(backend)

	mesh, err := r.InitMesh("cube", make([]byte, 96), make([]byte, 12), 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), mesh.IndexCount)
	assert.Equal(t, uint64(96), mesh.VertexBuffer.Size())
	assert.Equal(t, 2, backend.Live("buffer"))

	mesh.Release()
	mesh.Release()
	assert.Equal(t, 0, backend.Live("buffer"))

	_, err = r.InitMesh("empty", nil, make([]byte, 12), 3)
	assert.ErrorIs(t, err, common.ErrDeviceCreateFailure)
	_, err = r.InitMesh("short", make([]byte, 12), make([]byte, 8), 3)
	assert.ErrorIs(t, err, common.ErrDeviceCreateFailure)

	backend.FailCreate = "indices"
	_, err = r.InitMesh("floor", make([]byte, 12), make([]byte, 12), 3)
	assert.ErrorIs(t, err, common.ErrDeviceCreateFailure)
	assert.Equal(t, 0, backend.Live("buffer"), "vertex buffer released after index failure")

	u, err := r.InitUniform("constants", 192)
	require.NoError(t, err)
	require.NoError(t, r.WriteBuffer(u, make([]byte, 192)))
	assert.Error(t, r.WriteBuffer(u, make([]byte, 193)))
	assert.Error(t, r.WriteBuffer(nil, nil))
}

func TestInitBindGroupChecksLayout(t *testing.T) {
	backend := renderertest.NewBackend()
	r := renderer.NewRenderer(backend)
	require.NoError(t, r.RegisterPipelines(newTexturedPipeline(t)))

	small, err := r.InitUniform("small", 64)
	require.NoError(t, err)
	constants, err := r.InitUniform("constants", 192)
	require.NoError(t, err)
	tex, err := r.InitTexture("grass", common.TextureStagingData{Pixels: make([]byte, 16), Width: 2, Height: 2})
	require.NoError(t, err)
	samp, err := r.InitSampler("linear", common.SamplerStagingData{})
	require.NoError(t, err)

	_, err = r.InitBindGroup("textured", 0, renderer.BindGroupEntry{Binding: 0, Buffer: small})
	assert.ErrorContains(t, err, "need 192")

	_, err = r.InitBindGroup("textured", 1, renderer.BindGroupEntry{Binding: 0, Texture: tex})
	assert.Error(t, err)

	_, err = r.InitBindGroup("textured", 1,
		renderer.BindGroupEntry{Binding: 0, Sampler: samp},
		renderer.BindGroupEntry{Binding: 1, Texture: tex})
	assert.Error(t, err)

	_, err = r.InitBindGroup("textured", 3, renderer.BindGroupEntry{Binding: 0, Buffer: constants})
	assert.ErrorContains(t, err, "not used")

	_, err = r.InitBindGroup("missing", 0)
	assert.Error(t, err)

	bg, err := r.InitBindGroup("textured", 1,
		renderer.BindGroupEntry{Binding: 0, Texture: tex},
		renderer.BindGroupEntry{Binding: 1, Sampler: samp})
	require.NoError(t, err)
	assert.Equal(t, "textured group 1", bg.Label())

	_, err = r.InitBindGroup("textured", 0, renderer.BindGroupEntry{Binding: 0, Buffer: constants})
	require.NoError(t, err)
	assert.Equal(t, 2, backend.Live("bindgroup"))

	_, err = r.InitTexture("bad", common.TextureStagingData{Width: 4, Height: 4})
	assert.ErrorIs(t, err, common.ErrDeviceCreateFailure)
}

func TestFrameLifecycle(t *testing.T) {
	backend := renderertest.NewBackend()
	r := renderer.NewRenderer(backend)

	assert.ErrorIs(t, r.EndFrame(), renderer.ErrNoFrame)

	enc, err := r.BeginFrame()
	require.NoError(t, err)
	enc.DrawIndexed(3, 1)
	_, err = r.BeginFrame()
	assert.ErrorIs(t, err, renderer.ErrFrameInProgress)
	require.NoError(t, r.EndFrame())
	assert.Equal(t, 1, backend.Frames())

	assert.Error(t, r.Execute(nil))

	r.Resize(0, 10)
	r.Resize(800, 600)
	w, h := backend.Size()
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)
	assert.Len(t, backend.Ops("Resize"), 1)

	r.Release()
	assert.Len(t, backend.Ops("Release"), 1)
}
