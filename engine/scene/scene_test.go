package scene_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"testing"
	"testing/fstest"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/input"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangleOBJ = `# one textured triangle
v 0 0 0
v 1 0 0
v 0 1 0
vt 0 0
vt 1 0
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
`

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// testAssets holds every model and texture the scene loads. Textures are PNG data under the DDS names.
func testAssets(t *testing.T) fstest.MapFS {
	t.Helper()
	tex := pngBytes(t)
	assets := fstest.MapFS{}
	for _, name := range []string{"Alientree.obj", "SkyboxCube.obj", "FloorPlane.obj", "WaterTower.obj"} {
		assets[name] = &fstest.MapFile{Data: []byte(triangleOBJ)}
	}
	for _, name := range []string{"AlienTree.dds", "OutputCube.dds", "grass_seamless.dds", "watertower_diffuse.dds"} {
		assets[name] = &fstest.MapFile{Data: tex}
	}
	return assets
}

// gatedFS blocks opening one file until gate is closed.
type gatedFS struct {
	fs.FS
	name string
	gate chan struct{}
}

func (g gatedFS) Open(name string) (fs.File, error) {
	if name == g.name {
		<-g.gate
	}
	return g.FS.Open(name)
}

type harness struct {
	backend *renderertest.Backend
	scene   scene.Scene
}

func newHarness(t *testing.T, assets fs.FS, options ...scene.SceneBuilderOption) harness {
	t.Helper()
	backend := renderertest.NewBackend()
	g := resource.NewGraph(resource.WithWorkers(4), resource.WithQueueSize(32))
	t.Cleanup(g.Close)
	opts := append([]scene.SceneBuilderOption{scene.WithAssets(assets), scene.WithGraph(g)}, options...)
	s := scene.NewScene(renderer.NewRenderer(backend), opts...)
	t.Cleanup(s.ReleaseDeviceDependentResources)
	return harness{backend: backend, scene: s}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func (h harness) load(t *testing.T) {
	t.Helper()
	require.NoError(t, h.scene.CreateDeviceDependentResources(waitCtx(t)))
	require.NoError(t, h.scene.Wait(waitCtx(t)))
	require.True(t, h.scene.Ready())
}

func frameOps(b *renderertest.Backend) []renderertest.Call {
	return b.Ops("BeginFrame", "SetPipeline", "DrawIndexed", "ExecuteCommandList", "EndFrame")
}

func TestRenderDrawsNothingUntilLoaded(t *testing.T) {
	gate := make(chan struct{})
	h := newHarness(t, gatedFS{FS: testAssets(t), name: "FloorPlane.obj", gate: gate})

	h.scene.Update(1.0 / 60)
	require.NoError(t, h.scene.Render())
	assert.Empty(t, h.backend.Calls(), "no load started")

	require.NoError(t, h.scene.CreateDeviceDependentResources(waitCtx(t)))
	for i := 0; i < 5; i++ {
		h.scene.Update(1.0 / 60)
		require.NoError(t, h.scene.Render())
	}
	assert.False(t, h.scene.Ready())
	assert.Empty(t, frameOps(h.backend), "frames while loading record nothing")
	assert.Zero(t, h.backend.Frames())

	close(gate)
	require.NoError(t, h.scene.Wait(waitCtx(t)))
	assert.True(t, h.scene.Ready())
	for _, name := range []string{scene.DrawableSkybox, scene.DrawableCube, scene.DrawablePyramid, scene.DrawableAlienTree, scene.DrawableWaterTower, scene.DrawableFloor} {
		assert.True(t, h.scene.Drawable(name).Ready(), name)
	}
}

func TestRenderOrder(t *testing.T) {
	h := newHarness(t, testAssets(t))
	h.load(t)

	h.backend.Reset()
	h.scene.Update(1.0 / 60)
	require.NoError(t, h.scene.Render())

	var got []string
	for _, c := range frameOps(h.backend) {
		got = append(got, c.String())
	}
	assert.Equal(t, []string{
		"BeginFrame",
		"SetPipeline skybox",
		"DrawIndexed 3 1",
		"SetPipeline color",
		"DrawIndexed 36 1",
		"SetPipeline color_instanced",
		"DrawIndexed 18 3",
		"SetPipeline textured",
		"DrawIndexed 3 1",
		"ExecuteCommandList water tower 6",
		"SetPipeline textured (deferred)",
		"DrawIndexed 3 1 (deferred)",
		"SetPipeline lit",
		"DrawIndexed 3 1",
		"EndFrame",
	}, got)
	assert.Equal(t, 1, h.backend.Frames())
	assert.Zero(t, h.backend.Live("context"))

	var binds []string
	for _, c := range h.backend.Ops("SetBindGroup") {
		binds = append(binds, c.String())
	}
	assert.Contains(t, binds, "SetBindGroup lit group 2 2", "floor binds the lights")
	assert.Contains(t, binds, "SetBindGroup textured group 1 1 (deferred)")

	var writes []string
	for _, c := range h.backend.Ops("WriteBuffer") {
		writes = append(writes, c.String())
	}
	assert.Equal(t, "WriteBuffer light properties 0 416", writes[0])
	assert.Contains(t, writes, "WriteBuffer pyramid constants 0 320")
	assert.Contains(t, writes, "WriteBuffer water tower constants 0 192")
}

func TestLoadFailureKeepsSceneDark(t *testing.T) {
	assets := testAssets(t)
	delete(assets, "grass_seamless.dds")
	h := newHarness(t, assets)

	require.NoError(t, h.scene.CreateDeviceDependentResources(waitCtx(t)))
	err := h.scene.Wait(waitCtx(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrResourceNotFound)
	var taskErr *resource.TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Equal(t, "texture/grass_seamless.dds", taskErr.Task)

	assert.False(t, h.scene.Ready())
	h.backend.Reset()
	h.scene.Update(1.0 / 60)
	require.NoError(t, h.scene.Render())
	assert.Empty(t, frameOps(h.backend))
}

func TestWaitWithoutLoad(t *testing.T) {
	h := newHarness(t, testAssets(t))
	assert.ErrorIs(t, h.scene.Wait(waitCtx(t)), scene.ErrNotReady)
}

func TestReleaseAndRebuild(t *testing.T) {
	h := newHarness(t, testAssets(t))
	h.load(t)
	assert.Positive(t, h.backend.Live("texture"))

	h.scene.ReleaseDeviceDependentResources()
	assert.False(t, h.scene.Ready())
	for _, kind := range []string{"buffer", "texture", "sampler", "bindgroup", "context"} {
		assert.Zero(t, h.backend.Live(kind), kind)
	}
	assert.False(t, h.scene.Drawable(scene.DrawableFloor).Ready())

	h.backend.Reset()
	h.scene.Update(1.0 / 60)
	require.NoError(t, h.scene.Render())
	assert.Empty(t, frameOps(h.backend))

	h.load(t)
	assert.Equal(t, 4, h.backend.Live("texture"))
	assert.Equal(t, 1, h.backend.Live("sampler"))
	assert.Empty(t, h.backend.Ops("CreateRenderPipeline"), "pipelines stay cached across device resources")
	h.scene.Update(1.0 / 60)
	require.NoError(t, h.scene.Render())
	assert.Equal(t, 1, h.backend.Frames())
}

func TestDeferredFailureEndsFrame(t *testing.T) {
	h := newHarness(t, testAssets(t))
	h.load(t)

	h.backend.FailCreate = "water tower"
	h.scene.Update(1.0 / 60)
	err := h.scene.Render()
	require.Error(t, err)
	assert.ErrorContains(t, err, "create context")
	assert.Equal(t, 1, h.backend.Frames(), "frame is ended after a failed draw")

	h.backend.FailCreate = ""
	require.NoError(t, h.scene.Render())
	assert.Equal(t, 2, h.backend.Frames())
}

func TestUpdatePlacesObjects(t *testing.T) {
	h := newHarness(t, testAssets(t), scene.WithDegreesPerSecond(90))
	s := h.scene

	s.Update(1)
	st := s.State()
	assert.InDelta(t, math32.Pi/2, st.Angle, 1e-5)
	rot := common.RotationY(st.Angle)
	assert.InDeltaSlice(t, rot[:], st.Cube[:], 1e-6)
	assert.Equal(t, common.Vec3{-5, -2, 0}, st.AlienTree.Position())
	assert.Equal(t, common.Vec3{-10, -2, 8}, st.WaterTower.Position())
	assert.Equal(t, st.AlienTree, st.Floor)
	assert.Equal(t, s.Camera().Position(), st.Skybox.Position())
	assert.Equal(t, common.Vec3{6, 0, 0}, st.Pyramids[2].Position())

	view, ok := st.Camera.Inverse()
	require.True(t, ok)
	assert.InDeltaSlice(t, view[:], st.View[:], 1e-4)

	s.Update(1)
	assert.InDelta(t, math32.Pi, s.State().Angle, 1e-5)

	assert.Len(t, s.Drawable(scene.DrawableCube).Payload(), 192)
	assert.Len(t, s.Drawable(scene.DrawablePyramid).Payload(), 320)
	assert.Equal(t, uint32(3), s.Drawable(scene.DrawablePyramid).Instances())
}

func TestUpdateAdvancesLights(t *testing.T) {
	h := newHarness(t, testAssets(t))
	s := h.scene
	rig := s.Lights()
	start := rig.Directional.Position()

	s.Update(1.0 / 60)
	moved := rig.Directional.Position()
	assert.InDelta(t, 1, math32.Abs(moved[0]-start[0]), 1e-6)
	assert.InDelta(t, moved[0], s.State().Lights.Lights[0].Position[0], 1e-6)

	dir := rig.Point.Direction()
	want := rig.Point.Position().Neg().Normalize()
	assert.InDeltaSlice(t, want[:], dir[:], 1e-6)
	assert.Equal(t, s.Camera().Position()[0], s.State().Lights.EyePosition[0])
}

func TestInputAppliedBeforeLights(t *testing.T) {
	h := newHarness(t, testAssets(t))
	s := h.scene

	startZ := s.State().Lights.Lights[2].Position[2]

	var state input.State
	state.Keys[common.KeyNumpad8] = true
	s.SetInput(state)
	s.Update(1.0 / 60)
	assert.InDelta(t, startZ+1, s.State().Lights.Lights[2].Position[2], 1e-6)
}

func TestTrackingOverridesRotation(t *testing.T) {
	h := newHarness(t, testAssets(t))
	s := h.scene
	s.CreateWindowSizeDependentResources(800, 600)

	s.TrackingUpdate(100)
	s.Update(0.5)
	before := s.State().Angle

	s.StartTracking()
	assert.True(t, s.IsTracking())
	s.TrackingUpdate(100)
	s.Update(0.5)
	assert.InDelta(t, math32.Pi/2, s.State().Angle, 1e-5)
	assert.True(t, s.State().Tracking)

	s.StopTracking()
	s.Update(0.5)
	assert.InDelta(t, 3*before, s.State().Angle, 1e-5, "timed rotation resumes from total time")
}

func TestPortraitDoublesFov(t *testing.T) {
	h := newHarness(t, testAssets(t))
	s := h.scene

	s.CreateWindowSizeDependentResources(600, 800)
	want := common.Perspective(common.DegToRad(140), 0.75, 0.01, 100)
	got := s.State().Projection
	assert.InDeltaSlice(t, want[:], got[:], 1e-5)
}

func TestEmbeddedShadersBuild(t *testing.T) {
	names, err := fs.Glob(scene.Shaders(), "*.wgsl")
	require.NoError(t, err)
	assert.Len(t, names, 9)
}

func TestSceneUsesSuppliedWorkerAndLogger(t *testing.T) {
	var logs bytes.Buffer
	logging.SetSink(&logs)
	defer logging.SetSink(os.Stdout)

	backend := renderertest.NewBackend()
	r := renderer.NewRenderer(backend)
	var recorded []string
	w := deferred.NewWorker(r, deferred.WithBeforeFinish(func(j *deferred.Job) {
		recorded = append(recorded, j.Target.Name())
	}))
	g := resource.NewGraph()
	t.Cleanup(g.Close)
	s := scene.NewScene(r,
		scene.WithAssets(testAssets(t)),
		scene.WithGraph(g),
		scene.WithWorker(w),
		scene.WithLogger(logging.New("stage")),
	)
	harness{backend: backend, scene: s}.load(t)

	s.Update(1.0 / 60)
	require.NoError(t, s.Render())
	require.NoError(t, s.Render())
	s.ReleaseDeviceDependentResources()

	assert.Equal(t, []string{"water tower", "water tower"}, recorded)
	assert.Contains(t, logs.String(), "[stage] [INFO]")
	assert.Contains(t, logs.String(), "device resources released")
}

func TestViewFollowsCameraAtRender(t *testing.T) {
	h := newHarness(t, testAssets(t))
	h.load(t)
	s := h.scene

	s.Update(1.0 / 60)
	require.NoError(t, s.Render())
	before := s.State().View
	eye := s.Camera().Position()
	payload := s.Drawable(scene.DrawableCube).Payload()

	var state input.State
	state.Keys[common.KeyW] = true
	s.SetInput(state)
	s.Update(1)
	moved := s.State()
	require.NotEqual(t, eye, s.Camera().Position(), "camera moved")
	assert.Equal(t, before, moved.View, "update leaves the view alone")
	assert.Equal(t, payload, s.Drawable(scene.DrawableCube).Payload())

	require.NoError(t, s.Render())
	want, ok := moved.Camera.Inverse()
	require.True(t, ok)
	got := s.State().View
	assert.InDeltaSlice(t, want[:], got[:], 1e-5)
	assert.NotEqual(t, before, got)
	assert.NotEqual(t, payload, s.Drawable(scene.DrawableCube).Payload())
}
