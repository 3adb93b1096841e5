package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/input"
)

// CameraController turns input into a new camera-to-world matrix.
type CameraController interface {
	// Apply returns world moved and rotated according to the input snapshot.
	//
	// Parameters:
	//   - world: the current camera-to-world matrix
	//   - state: this frame's input
	//   - dt: seconds since the previous frame
	//
	// Returns:
	//   - common.Mat4: the updated camera-to-world matrix
	Apply(world common.Mat4, state input.State, dt float32) common.Mat4

	// MoveSpeed returns the translation speed in world units per second.
	MoveSpeed() float32

	// RotateSpeed returns the rotation speed in radians per pixel per second.
	RotateSpeed() float32
}

// flyController moves the camera in its own local space.
// W/S move forward/back, A/D left/right, Space/X up/down. Dragging with the right button held pitches
// about the camera's local X axis and yaws about the world Y axis, keeping the camera position.
type flyController struct {
	mu          *sync.Mutex
	moveSpeed   float32
	rotateSpeed float32
}

var _ CameraController = &flyController{}

// NewFlyController creates a fly controller moving at 1 unit/s and rotating at 0.75.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewFlyController(options ...CameraControllerOption) CameraController {
	fc := &flyController{
		mu:          &sync.Mutex{},
		moveSpeed:   1,
		rotateSpeed: 0.75,
	}
	for _, option := range options {
		option(fc)
	}
	return fc
}

func (fc *flyController) MoveSpeed() float32 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.moveSpeed
}

func (fc *flyController) RotateSpeed() float32 {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.rotateSpeed
}

func (fc *flyController) Apply(world common.Mat4, state input.State, dt float32) common.Mat4 {
	fc.mu.Lock()
	step := fc.moveSpeed * dt
	turn := fc.rotateSpeed * dt
	fc.mu.Unlock()

	// Camera space is right-handed: forward is -Z.
	var local common.Vec3
	if state.Down(common.KeyW) {
		local[2] -= step
	}
	if state.Down(common.KeyS) {
		local[2] += step
	}
	if state.Down(common.KeyA) {
		local[0] -= step
	}
	if state.Down(common.KeyD) {
		local[0] += step
	}
	if state.Down(common.KeyX) {
		local[1] -= step
	}
	if state.Down(common.KeySpace) {
		local[1] += step
	}
	if local != (common.Vec3{}) {
		world = world.Mul(common.Translation(local[0], local[1], local[2]))
	}

	if state.Pointer.RightButton {
		dx, dy := state.PointerDelta()
		if dx != 0 || dy != 0 {
			pos := world.Position()
			rotated := world.WithPosition(common.Vec3{})
			rotated = common.RotationY(-dx * turn).Mul(rotated).Mul(common.RotationX(-dy * turn))
			world = rotated.WithPosition(pos)
		}
	}
	return world
}
