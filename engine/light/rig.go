package light

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/input"
)

// ConeStep is how far numpad 7/9 move the spot cone axis per frame.
const ConeStep = 0.1

// Rig is the fixed three-light setup: a directional and a point light that ping-pong along x, and a spot light
// driven by the numpad. It is owned by the scene and mutated only from Update.
type Rig struct {
	Directional *Directional
	Point       *Point
	Spot        *Spot

	ambient     [4]float32
	eye         common.Vec3
	attenuation Attenuation

	bound                           float32
	dirColor, pointColor, spotColor [4]float32
	dirStart, pointStart, spotStart common.Vec3
	dirStep, pointStep, spotStep    float32
	dirRising, pointRising          bool
}

// NewRig creates the rig. Both oscillating lights start at (2, 1, 5) heading toward -x, and the spot light
// starts at (0, 2, 0).
//
// Parameters:
//   - options: functional options to configure the rig
//
// Returns:
//   - *Rig: the light rig
func NewRig(options ...RigBuilderOption) *Rig {
	r := &Rig{
		attenuation: DefaultAttenuation,
		bound:       20,
		dirColor:    [4]float32{0.333333, 0.419608, 0.184314, 1},
		pointColor:  [4]float32{1, 1, 0, 1},
		spotColor:   [4]float32{1, 0.549020, 0, 1},
		dirStart:    common.Vec3{2, 1, 5},
		pointStart:  common.Vec3{2, 1, 5},
		spotStart:   common.Vec3{0, 2, 0},
		dirStep:     1,
		pointStep:   0.25,
		spotStep:    1,
	}
	for _, opt := range options {
		opt(r)
	}

	r.Directional = NewDirectional(r.dirColor, r.dirStart, r.dirStep, r.bound)
	r.Directional.Motion.Rising = r.dirRising
	r.Point = NewPoint(r.pointColor, r.pointStart, r.pointStep, r.bound)
	r.Point.Motion.Rising = r.pointRising
	r.Spot = NewSpot(r.spotColor, r.spotStart)
	for _, l := range []*base{&r.Directional.base, &r.Point.base, &r.Spot.base} {
		l.attenuation = r.attenuation
	}
	return r
}

// Lights returns the three lights in GPU order: directional, point, spot.
func (r *Rig) Lights() [NumLights]Light {
	return [NumLights]Light{r.Directional, r.Point, r.Spot}
}

// Update advances the oscillating lights one step and recomputes every direction.
func (r *Rig) Update() {
	r.Directional.Advance()
	r.Point.Advance()
	r.Spot.SetPosition(r.Spot.Position())
}

// HandleInput applies the spot light controls: numpad 8/5 move along ±z, 4/6 along ∓x, 7/9 tilt the cone
// axis and L returns the light home.
//
// Parameters:
//   - state: this frame's input
func (r *Rig) HandleInput(state input.State) {
	var dx, dz float32
	if state.Down(common.KeyNumpad8) {
		dz += r.spotStep
	}
	if state.Down(common.KeyNumpad5) {
		dz -= r.spotStep
	}
	if state.Down(common.KeyNumpad4) {
		dx -= r.spotStep
	}
	if state.Down(common.KeyNumpad6) {
		dx += r.spotStep
	}
	if dx != 0 || dz != 0 {
		r.Spot.Move(dx, dz)
	}
	if state.Down(common.KeyNumpad7) {
		r.Spot.ConeAngle[2] -= ConeStep
	}
	if state.Down(common.KeyNumpad9) {
		r.Spot.ConeAngle[2] += ConeStep
	}
	if state.Down(common.KeyL) {
		r.Spot.Reset()
	}
}

// SetEye records the camera position written into the light properties.
func (r *Rig) SetEye(eye common.Vec3) {
	r.eye = eye
}

// Properties returns the light uniform buffer contents.
//
// Returns:
//   - GPULightProperties: eye position, ambient color and the three lights
func (r *Rig) Properties() GPULightProperties {
	p := GPULightProperties{
		EyePosition:   [4]float32{r.eye[0], r.eye[1], r.eye[2], 1},
		GlobalAmbient: r.ambient,
	}
	for i, l := range r.Lights() {
		p.Lights[i] = l.GPU()
	}
	return p
}
