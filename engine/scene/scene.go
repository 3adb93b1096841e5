// Package scene owns the demo scene: its drawables, the load graph that builds them, the per-frame state and the
// frame submission order.
package scene

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/input"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/loader"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
	"github.com/chewxy/math32"
)

// ErrNotReady is returned by Wait when the load graph was never started.
var ErrNotReady = errors.New("scene not ready")

// ErrReleased is returned by load tasks that outlive the device generation they were created for.
var ErrReleased = errors.New("scene resources released")

//go:embed shaders/*.wgsl
var embeddedShaders embed.FS

// Shaders returns the built-in WGSL sources, keyed by file name.
//
// Returns:
//   - fs.FS: the embedded shader files
func Shaders() fs.FS {
	sub, err := fs.Sub(embeddedShaders, "shaders")
	if err != nil {
		panic(err)
	}
	return sub
}

// releaser is any GPU object the scene holds until teardown.
type releaser interface {
	Release()
}

// scene is the implementation of the Scene interface.
type scene struct {
	// mu guards the frame state, the input snapshot and the owned resources.
	mu *sync.Mutex
	// life is held for read by running load tasks and for write by ReleaseDeviceDependentResources.
	life *sync.RWMutex

	log logging.Logger

	renderer     renderer.Renderer
	graph        resource.Graph
	worker       deferred.Worker
	assets       *resource.Store
	shaders      *resource.Store
	assetLayers  []fs.FS
	shaderLayers []fs.FS
	loader       loader.Loader
	preProcessor shader.PreProcessor

	camera camera.Camera
	rig    *light.Rig

	drawables map[string]model.Drawable
	owned     []releaser

	lightBuffer renderer.Buffer
	generation  uint64

	degreesPerSecond float32
	outputWidth      float32
	tracking         bool
	input            input.State
	state            State
}

// Scene is the demo scene. CreateDeviceDependentResources starts an asynchronous load; until every load task has
// finished Render draws nothing. Update and Render are called from the frame goroutine, Update first.
type Scene interface {
	// CreateDeviceDependentResources builds the load graph for the current device and starts it. It returns as soon
	// as the graph is scheduled; use Ready or Wait to observe completion.
	//
	// Parameters:
	//   - ctx: bounds the load; cancelling it stops scheduling and fails the run
	//
	// Returns:
	//   - error: if the graph is invalid or already running
	CreateDeviceDependentResources(ctx context.Context) error

	// CreateWindowSizeDependentResources rebuilds the projection for a new output size. The field of view doubles
	// when the output is taller than it is wide.
	//
	// Parameters:
	//   - width: the output width in pixels
	//   - height: the output height in pixels
	CreateWindowSizeDependentResources(width, height int)

	// ReleaseDeviceDependentResources stops any running load, waits for in-flight tasks, and frees every GPU object
	// the scene and its drawables own. Readiness is cleared until the next CreateDeviceDependentResources.
	ReleaseDeviceDependentResources()

	// Ready reports whether every load task has completed successfully.
	//
	// Returns:
	//   - bool: true once the scene can be drawn
	Ready() bool

	// Wait blocks until the load finishes or ctx is done.
	//
	// Parameters:
	//   - ctx: bounds the wait
	//
	// Returns:
	//   - error: the first load failure, ctx.Err(), or ErrNotReady if no load was started
	Wait(ctx context.Context) error

	// SetInput stores the input snapshot the next Update consumes.
	//
	// Parameters:
	//   - state: this frame's keyboard and pointer state
	SetInput(state input.State)

	// Update advances the scene by one frame: input, cube rotation, object transforms and lights.
	//
	// Parameters:
	//   - elapsed: seconds since the previous Update
	Update(elapsed float64)

	// Render recomputes the view as the inverse of the camera matrix, rewrites every drawable's constants and
	// submits one frame in the fixed draw order. The water tower is recorded on a deferred worker and executed in
	// its slot. While not ready Render returns nil without touching the renderer.
	//
	// Returns:
	//   - error: a frame, upload or deferred recording failure; the frame is ended before returning
	Render() error

	// StartTracking hands the cube rotation to TrackingUpdate.
	StartTracking()

	// TrackingUpdate rotates the cube by 4π·x/width radians, where width is the output width.
	//
	// Parameters:
	//   - x: the pointer x position in pixels
	TrackingUpdate(x float32)

	// StopTracking resumes the timed rotation.
	StopTracking()

	// IsTracking reports whether the pointer drives the cube.
	IsTracking() bool

	// State returns a copy of the current frame state.
	State() State

	// Drawable retrieves a drawable by name.
	//
	// Parameters:
	//   - name: one of the Drawable* names
	//
	// Returns:
	//   - model.Drawable: the drawable, or nil
	Drawable(name string) model.Drawable

	// Camera returns the scene camera.
	Camera() camera.Camera

	// Lights returns the light rig.
	Lights() *light.Rig
}

var _ Scene = &scene{}

// NewScene creates the scene over a renderer. Assets default to the working directory and shaders to the embedded
// set; camera and lights default to the fixed demo setup.
//
// Parameters:
//   - r: the renderer every GPU object is created through
//   - options: functional options to configure the scene
//
// Returns:
//   - Scene: the new scene, not yet loaded
func NewScene(r renderer.Renderer, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:               &sync.Mutex{},
		life:             &sync.RWMutex{},
		log:              logging.New("scene"),
		renderer:         r,
		degreesPerSecond: 45,
		drawables:        make(map[string]model.Drawable, len(drawOrder)),
	}
	for _, option := range options {
		option(s)
	}

	if s.graph == nil {
		s.graph = resource.NewGraph()
	}
	if s.worker == nil {
		s.worker = deferred.NewWorker(r)
	}
	if s.camera == nil {
		s.camera = camera.NewCamera(camera.WithController(camera.NewFlyController()))
	}
	if s.rig == nil {
		s.rig = light.NewRig()
	}
	if len(s.assetLayers) == 0 {
		s.assetLayers = []fs.FS{os.DirFS(".")}
	}
	s.assets = resource.NewStore(s.assetLayers...)
	s.shaders = resource.NewStore(append(s.shaderLayers, Shaders())...)
	s.loader = loader.NewLoader(loader.WithFS(s.assets))
	s.preProcessor = shader.NewPreProcessor(model.Registry()...)

	for _, name := range drawOrder {
		instances := uint32(1)
		if name == DrawablePyramid {
			instances = model.NumPyramidInstances
		}
		s.drawables[name] = model.NewDrawable(model.WithName(name), model.WithInstances(instances))
	}

	s.state.Projection = s.camera.ProjectionMatrix()
	s.rebuild(false)
	s.refreshView()
	return s
}

func (s *scene) CreateDeviceDependentResources(ctx context.Context) error {
	s.life.RLock()
	gen := s.generation
	s.life.RUnlock()

	tasks := s.tasks(gen)
	for _, t := range tasks {
		if err := s.graph.Add(t); err != nil {
			return fmt.Errorf("scene: %w", err)
		}
	}
	if err := s.graph.Start(ctx); err != nil {
		s.graph.Reset()
		return fmt.Errorf("scene: %w", err)
	}
	s.log.Infof("loading %d resources", len(tasks))
	return nil
}

func (s *scene) CreateWindowSizeDependentResources(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	s.camera.SetAspect(float32(width) / float32(height))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputWidth = float32(width)
	s.state.Projection = s.camera.ProjectionMatrix()
}

func (s *scene) ReleaseDeviceDependentResources() {
	s.graph.Reset()

	s.life.Lock()
	defer s.life.Unlock()
	s.generation++

	for _, d := range s.drawables {
		d.Release()
	}

	s.mu.Lock()
	owned := s.owned
	s.owned = nil
	s.lightBuffer = nil
	s.mu.Unlock()
	for _, r := range owned {
		r.Release()
	}
	s.log.Info("device resources released")
}

func (s *scene) Ready() bool {
	return s.graph.Ready()
}

func (s *scene) Wait(ctx context.Context) error {
	if err := s.graph.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if s.graph.Err() == nil {
			return fmt.Errorf("%w: %w", ErrNotReady, err)
		}
		return err
	}
	return nil
}

func (s *scene) SetInput(state input.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = state
}

func (s *scene) Update(elapsed float64) {
	s.mu.Lock()
	in := s.input
	s.mu.Unlock()

	s.camera.Update(in, float32(elapsed))
	s.rig.HandleInput(in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Elapsed += elapsed
	if !s.tracking {
		s.state.Angle = common.WrapAngle(common.DegToRad(s.degreesPerSecond) * float32(s.state.Elapsed))
	}
	s.rebuild(true)
}

// rebuild recomputes transforms and lights. advance steps the animated lights. The view and the drawable payloads
// are left to refreshView. Caller must hold the mutex.
func (s *scene) rebuild(advance bool) {
	eye := s.camera.Position()
	s.state.place(eye)
	if advance {
		s.rig.Update()
	}
	s.rig.SetEye(eye)
	s.state.Lights = s.rig.Properties()

	s.state.Camera = s.camera.World()
	s.state.Projection = s.camera.ProjectionMatrix()
	s.state.Tracking = s.tracking
}

// refreshView sets the view to the inverse of the camera matrix and rewrites every drawable payload. A singular
// camera matrix keeps the previous view. Caller must hold the mutex.
func (s *scene) refreshView() {
	if view, ok := s.state.Camera.Inverse(); ok {
		s.state.View = view
	}
	for _, name := range drawOrder {
		s.drawables[name].SetPayload(s.state.payload(name))
	}
}

func (s *scene) Render() error {
	if !s.Ready() {
		return nil
	}

	s.mu.Lock()
	s.refreshView()
	lights := s.state.Lights
	lightBuffer := s.lightBuffer
	s.mu.Unlock()

	enc, err := s.renderer.BeginFrame()
	if err != nil {
		return fmt.Errorf("render: begin frame: %w", err)
	}
	err = s.draw(enc, lightBuffer, lights.Marshal())
	if endErr := s.renderer.EndFrame(); endErr != nil {
		err = errors.Join(err, fmt.Errorf("render: end frame: %w", endErr))
	}
	return err
}

// draw records every drawable of the frame in order.
func (s *scene) draw(enc renderer.CommandEncoder, lightBuffer renderer.Buffer, lights []byte) error {
	if err := s.renderer.WriteBuffer(lightBuffer, lights); err != nil {
		return fmt.Errorf("render: lights: %w", err)
	}
	for _, name := range drawOrder {
		d := s.drawables[name]
		if name == DrawableWaterTower {
			if err := s.worker.Draw(d, d.Payload()); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			continue
		}
		if err := s.renderer.WriteBuffer(d.ConstantBuffer(), d.Payload()); err != nil {
			return fmt.Errorf("render: %s constants: %w", name, err)
		}
		d.Encode(enc)
	}
	return nil
}

func (s *scene) StartTracking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking = true
}

func (s *scene) TrackingUpdate(x float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.tracking || s.outputWidth <= 0 {
		return
	}
	s.state.Angle = common.WrapAngle(4 * math32.Pi * x / s.outputWidth)
}

func (s *scene) StopTracking() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking = false
}

func (s *scene) IsTracking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracking
}

func (s *scene) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *scene) Drawable(name string) model.Drawable {
	return s.drawables[name]
}

func (s *scene) Camera() camera.Camera {
	return s.camera
}

func (s *scene) Lights() *light.Rig {
	return s.rig
}

// own records a GPU object the scene frees on release.
func (s *scene) own(r releaser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owned = append(s.owned, r)
}

// disown hands an owned object over to a drawable.
func (s *scene) disown(r releaser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.Index(s.owned, r); i >= 0 {
		s.owned = slices.Delete(s.owned, i, i+1)
	}
}
