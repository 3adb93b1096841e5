package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/input"
)

type cameraImpl struct {
	mu *sync.Mutex

	fov    float32
	aspect float32
	near   float32
	far    float32

	eye, at, up common.Vec3

	world            common.Mat4
	projectionMatrix common.Mat4

	controller CameraController
}

// Camera holds the camera-to-world matrix and the perspective projection.
// The view matrix is always the inverse of the camera-to-world matrix.
type Camera interface {
	// Fov returns the configured vertical field of view in radians, before any portrait adjustment.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// World returns the camera-to-world matrix.
	//
	// Returns:
	//   - common.Mat4: the camera matrix
	World() common.Mat4

	// SetWorld replaces the camera-to-world matrix.
	//
	// Parameters:
	//   - world: the new camera matrix
	SetWorld(world common.Mat4)

	// Position returns the camera's world-space translation.
	//
	// Returns:
	//   - common.Vec3: the eye position
	Position() common.Vec3

	// ViewMatrix returns inverse(World()).
	//
	// Returns:
	//   - common.Mat4: the view matrix
	ViewMatrix() common.Mat4

	// ProjectionMatrix returns the current projection matrix.
	//
	// Returns:
	//   - common.Mat4: the projection matrix
	ProjectionMatrix() common.Mat4

	// SetAspect sets the aspect ratio and rebuilds the projection. When the aspect is below 1 the
	// field of view is doubled for portrait output.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// Reset rebuilds the camera matrix from the configured eye, target and up vectors.
	Reset()

	// Controller returns the attached CameraController, or nil.
	Controller() CameraController

	// SetController attaches a CameraController to the camera.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)

	// Update runs the attached controller against the input snapshot. Does nothing without a controller.
	//
	// Parameters:
	//   - state: this frame's input
	//   - dt: seconds since the previous frame
	Update(state input.State, dt float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera looking from eye (5, 10, -12) toward (0, -0.1, 0) with a 70 degree field of view.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		fov:    common.DegToRad(70),
		aspect: 1,
		near:   0.01,
		far:    100,
		eye:    common.Vec3{5, 10, -12},
		at:     common.Vec3{0, -0.1, 0},
		up:     common.Vec3{0, 1, 0},
	}
	for _, option := range options {
		option(c)
	}
	c.resetWorld()
	c.updateProjection()
	return c
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) World() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.world
}

func (c *cameraImpl) SetWorld(world common.Mat4) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.world = world
}

func (c *cameraImpl) Position() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.world.Position()
}

func (c *cameraImpl) ViewMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	view, _ := c.world.Inverse()
	return view
}

func (c *cameraImpl) ProjectionMatrix() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateProjection()
}

func (c *cameraImpl) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetWorld()
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
}

func (c *cameraImpl) Update(state input.State, dt float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	c.world = c.controller.Apply(c.world, state, dt)
}

// resetWorld sets the camera matrix to inverse(LookAt(eye, at, up)).
// Caller must hold the mutex.
func (c *cameraImpl) resetWorld() {
	world, ok := common.LookAt(c.eye, c.at, c.up).Inverse()
	if !ok {
		world = common.Translation(c.eye[0], c.eye[1], c.eye[2])
	}
	c.world = world
}

// updateProjection rebuilds the projection matrix. Caller must hold the mutex.
func (c *cameraImpl) updateProjection() {
	fov := c.fov
	if c.aspect < 1 {
		fov *= 2
	}
	c.projectionMatrix = common.Perspective(fov, c.aspect, c.near, c.far)
}
