package scene

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
)

// Drawable names, also used as GPU object labels.
const (
	DrawableSkybox     = "skybox"
	DrawableCube       = "cube"
	DrawablePyramid    = "pyramid"
	DrawableAlienTree  = "alien tree"
	DrawableWaterTower = "water tower"
	DrawableFloor      = "floor"
)

// drawOrder is the fixed submission order of a frame.
var drawOrder = []string{
	DrawableSkybox,
	DrawableCube,
	DrawablePyramid,
	DrawableAlienTree,
	DrawableWaterTower,
	DrawableFloor,
}

// Fixed placement of the static objects.
var (
	alienTreePosition  = common.Vec3{-5, -2, 0}
	waterTowerPosition = common.Vec3{-10, -2, 8}
	pyramidPositions   = [model.NumPyramidInstances]common.Vec3{{2, 0, 0}, {4, 0, 0}, {6, 0, 0}}
)

// State is the per-frame scene state. Update rebuilds it from scratch every frame; Render derives the view from the
// camera matrix and reads the rest.
type State struct {
	// Elapsed is the total simulated time in seconds.
	Elapsed float64
	// Angle is the cube's rotation about Y in radians, in [0, 2π).
	Angle float32
	// Tracking is set while the pointer drives the cube rotation.
	Tracking bool

	// Camera is the camera's world matrix; View is its inverse as of the last Render.
	Camera     common.Mat4
	View       common.Mat4
	Projection common.Mat4

	Skybox     common.Mat4
	Cube       common.Mat4
	Pyramids   [model.NumPyramidInstances]common.Mat4
	AlienTree  common.Mat4
	WaterTower common.Mat4
	Floor      common.Mat4

	// Lights is the light uniform contents for this frame.
	Lights light.GPULightProperties
}

// Model returns the model matrix of a single-instance drawable, or identity for unknown names and the pyramid.
//
// Parameters:
//   - name: the drawable name
//
// Returns:
//   - common.Mat4: the model matrix
func (s *State) Model(name string) common.Mat4 {
	switch name {
	case DrawableSkybox:
		return s.Skybox
	case DrawableCube:
		return s.Cube
	case DrawableAlienTree:
		return s.AlienTree
	case DrawableWaterTower:
		return s.WaterTower
	case DrawableFloor:
		return s.Floor
	default:
		return common.Identity()
	}
}

// payload marshals the constant buffer contents of a drawable for this frame.
func (s *State) payload(name string) []byte {
	if name == DrawablePyramid {
		c := model.GPUInstancedConstants{Models: s.Pyramids, View: s.View, Projection: s.Projection}
		return c.Marshal()
	}
	c := model.GPUConstants{Model: s.Model(name), View: s.View, Projection: s.Projection}
	return c.Marshal()
}

// place recomputes every object transform. The skybox follows the eye.
func (s *State) place(eye common.Vec3) {
	s.Cube = common.RotationY(s.Angle)
	s.AlienTree = common.Translation(alienTreePosition[0], alienTreePosition[1], alienTreePosition[2])
	s.WaterTower = common.Translation(waterTowerPosition[0], waterTowerPosition[1], waterTowerPosition[2])
	s.Floor = s.AlienTree
	s.Skybox = common.Translation(eye[0], eye[1], eye[2])
	for i, p := range pyramidPositions {
		s.Pyramids[i] = common.Translation(p[0], p[1], p[2])
	}
}
