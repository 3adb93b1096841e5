package scene

import (
	"io/fs"

	"github.com/Carmen-Shannon/oxy-scene/engine/camera"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithAssets adds file systems the models and textures are read from, highest priority first.
//
// Parameters:
//   - layers: the asset file systems
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAssets(layers ...fs.FS) SceneBuilderOption {
	return func(s *scene) {
		s.assetLayers = append(s.assetLayers, layers...)
	}
}

// WithShaders adds file systems searched for WGSL sources ahead of the embedded set, so a directory can override
// single shaders by file name.
//
// Parameters:
//   - layers: the shader file systems
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithShaders(layers ...fs.FS) SceneBuilderOption {
	return func(s *scene) {
		s.shaderLayers = append(s.shaderLayers, layers...)
	}
}

// WithCamera replaces the default camera.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCamera(c camera.Camera) SceneBuilderOption {
	return func(s *scene) {
		s.camera = c
	}
}

// WithLights replaces the default light rig.
//
// Parameters:
//   - rig: the light rig
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(rig *light.Rig) SceneBuilderOption {
	return func(s *scene) {
		s.rig = rig
	}
}

// WithGraph sets the load graph. The scene adds its tasks on CreateDeviceDependentResources.
func WithGraph(g resource.Graph) SceneBuilderOption {
	return func(s *scene) {
		s.graph = g
	}
}

// WithWorker sets the deferred worker that records the water tower.
func WithWorker(w deferred.Worker) SceneBuilderOption {
	return func(s *scene) {
		s.worker = w
	}
}

// WithDegreesPerSecond sets the cube's timed rotation speed. Defaults to 45.
//
// Parameters:
//   - degrees: the rotation speed in degrees per second
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDegreesPerSecond(degrees float32) SceneBuilderOption {
	return func(s *scene) {
		s.degreesPerSecond = degrees
	}
}

// WithLogger sets the logger used by the scene.
func WithLogger(log logging.Logger) SceneBuilderOption {
	return func(s *scene) {
		s.log = log
	}
}
