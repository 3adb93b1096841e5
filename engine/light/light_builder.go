package light

import "github.com/Carmen-Shannon/oxy-scene/common"

// RigBuilderOption is a function that configures a Rig during construction.
type RigBuilderOption func(*Rig)

// WithAmbient sets the global ambient color.
//
// Parameters:
//   - color: RGBA ambient color
//
// Returns:
//   - RigBuilderOption: a function that applies the ambient color
func WithAmbient(color [4]float32) RigBuilderOption {
	return func(r *Rig) {
		r.ambient = color
	}
}

// WithBound sets the x limit both oscillating lights turn around at.
//
// Parameters:
//   - bound: the lights travel within [-bound, bound]
//
// Returns:
//   - RigBuilderOption: a function that applies the bound
func WithBound(bound float32) RigBuilderOption {
	return func(r *Rig) {
		r.bound = bound
	}
}

// WithAttenuation overrides the attenuation of all three lights.
func WithAttenuation(a Attenuation) RigBuilderOption {
	return func(r *Rig) {
		r.attenuation = a
	}
}

// WithDirectional configures the directional light.
//
// Parameters:
//   - color: RGBA color
//   - start: starting position
//   - step: x distance per update
//   - rising: true to start moving toward +x
//
// Returns:
//   - RigBuilderOption: a function that applies the settings
func WithDirectional(color [4]float32, start common.Vec3, step float32, rising bool) RigBuilderOption {
	return func(r *Rig) {
		r.dirColor, r.dirStart, r.dirStep, r.dirRising = color, start, step, rising
	}
}

// WithPoint configures the point light. See WithDirectional for the parameters.
func WithPoint(color [4]float32, start common.Vec3, step float32, rising bool) RigBuilderOption {
	return func(r *Rig) {
		r.pointColor, r.pointStart, r.pointStep, r.pointRising = color, start, step, rising
	}
}

// WithSpot configures the spot light.
//
// Parameters:
//   - color: RGBA color
//   - home: starting position, restored by the L key
//   - step: distance per frame while a numpad movement key is held
//
// Returns:
//   - RigBuilderOption: a function that applies the settings
func WithSpot(color [4]float32, home common.Vec3, step float32) RigBuilderOption {
	return func(r *Rig) {
		r.spotColor, r.spotStart, r.spotStep = color, home, step
	}
}
