package engine

import (
	"fmt"
	"os"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/config"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/wgpu_backend"
	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
)

// NewFromConfig builds the window, the WebGPU renderer and the scene described by cfg and returns an engine that
// drives them. The calling goroutine is locked to its OS thread and must be the one that calls Run.
//
// Parameters:
//   - cfg: the validated settings
//   - options: extra engine options, applied after the ones derived from cfg
//
// Returns:
//   - Engine: the engine
//   - error: if the log level is unknown or the GPU backend cannot be created
func NewFromConfig(cfg config.Config, options ...EngineBuilderOption) (Engine, error) {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logging.SetLevel(level, "")

	w, err := window.NewWindow(windowOptions(cfg.Window)...)
	if err != nil {
		return nil, err
	}

	size := w.Size()
	backend, err := wgpu_backend.NewBackend(w.SurfaceDescriptor(), size.Width, size.Height, backendOptions(cfg.Window)...)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("gpu backend: %w", err)
	}
	r := renderer.NewRenderer(backend)

	s, graph := newConfiguredScene(cfg, r)
	opts := []EngineBuilderOption{
		WithWindow(w),
		WithRenderer(r),
		WithScene(s),
		WithGraph(graph),
	}
	return NewEngine(append(opts, options...)...)
}

// windowOptions maps the window settings onto window options.
func windowOptions(wc config.WindowConfig) []window.WindowBuilderOption {
	return []window.WindowBuilderOption{
		window.WithTitle(wc.Title),
		window.WithSize(wc.Width, wc.Height),
		window.WithSizeLimits(
			window.Size{Width: wc.MinSize[0], Height: wc.MinSize[1]},
			window.Size{Width: wc.MaxSize[0], Height: wc.MaxSize[1]},
		),
	}
}

// backendOptions maps the window settings onto GPU backend options.
func backendOptions(wc config.WindowConfig) []wgpu_backend.BackendBuilderOption {
	presentMode := wgpu_backend.PresentModeUncapped
	if wc.VSync {
		presentMode = wgpu_backend.PresentModeVSync
	}
	c := wc.ClearColor
	return []wgpu_backend.BackendBuilderOption{
		wgpu_backend.WithPresentMode(presentMode),
		wgpu_backend.WithMSAA(wgpu_backend.MSAASampleCount(wc.MSAA)),
		wgpu_backend.WithClearColor(c[0], c[1], c[2], c[3]),
		wgpu_backend.WithForceSoftwareRenderer(wc.SoftwareRenderer),
	}
}

// newConfiguredScene creates the scene with the camera, light rig, load graph and asset layers from cfg.
func newConfiguredScene(cfg config.Config, r renderer.Renderer) (scene.Scene, resource.Graph) {
	cc := cfg.Camera
	cam := camera.NewCamera(
		camera.WithFov(common.DegToRad(cc.FovDegrees)),
		camera.WithAspect(float32(cfg.Window.Width)/float32(cfg.Window.Height)),
		camera.WithClipPlanes(cc.Near, cc.Far),
		camera.WithLookAt(common.Vec3(cc.Eye), common.Vec3(cc.At), common.Vec3{0, 1, 0}),
		camera.WithController(camera.NewFlyController(
			camera.WithMoveSpeed(cc.MoveSpeed),
			camera.WithRotateSpeed(cc.RotateSpeed),
		)),
	)

	lc := cfg.Lights
	rig := light.NewRig(
		light.WithAmbient(lc.Ambient),
		light.WithBound(lc.Bound),
		light.WithAttenuation(light.Attenuation{
			SpotAngle: common.DegToRad(lc.Attenuation.SpotAngleDegrees),
			Constant:  lc.Attenuation.Constant,
			Linear:    lc.Attenuation.Linear,
			Quadratic: lc.Attenuation.Quadratic,
		}),
		light.WithDirectional(lc.Directional.Color, common.Vec3(lc.Directional.Position), lc.Directional.Step, false),
		light.WithPoint(lc.Point.Color, common.Vec3(lc.Point.Position), lc.Point.Step, false),
		light.WithSpot(lc.Spot.Color, common.Vec3(lc.Spot.Position), lc.Spot.Step),
	)

	graph := resource.NewGraph(
		resource.WithWorkers(cfg.Loader.Workers),
		resource.WithQueueSize(cfg.Loader.QueueSize),
	)

	opts := []scene.SceneBuilderOption{
		scene.WithCamera(cam),
		scene.WithLights(rig),
		scene.WithGraph(graph),
		scene.WithDegreesPerSecond(cc.DegreesPerSecond),
		scene.WithAssets(os.DirFS(cfg.Assets.Root)),
	}
	if cfg.Assets.ShaderDir != "" {
		opts = append(opts, scene.WithShaders(os.DirFS(cfg.Assets.ShaderDir)))
	}
	return scene.NewScene(r, opts...), graph
}
