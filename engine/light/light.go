package light

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/chewxy/math32"
)

// LightType identifies the kind of light source. The values are written to the GPU as-is.
type LightType int

const (
	// LightTypeDirectional lights every fragment along a single direction.
	LightTypeDirectional LightType = iota

	// LightTypePoint emits in all directions from a position with distance attenuation.
	LightTypePoint

	// LightTypeSpot emits in a cone from a position.
	LightTypeSpot
)

// String returns the light type name.
func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "directional"
	case LightTypePoint:
		return "point"
	case LightTypeSpot:
		return "spot"
	}
	return "unknown"
}

// Attenuation is the falloff shared by every light in the rig.
type Attenuation struct {
	// SpotAngle is in radians.
	SpotAngle float32
	Constant  float32
	Linear    float32
	Quadratic float32
}

// DefaultAttenuation is a 45 degree spot angle with constant 1 and linear 0.08 falloff.
var DefaultAttenuation = Attenuation{
	SpotAngle: 45 * math32.Pi / 180,
	Constant:  1,
	Linear:    0.08,
	Quadratic: 0,
}

// Light is a light source in the rig. It is implemented by *Directional, *Point and *Spot; use a type switch
// to reach variant-specific fields.
//
// Every light points at the world origin: its direction is normalize(-position), recomputed whenever the
// position changes.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type
	Type() LightType

	// Position returns the world-space position of the light.
	//
	// Returns:
	//   - common.Vec3: the position
	Position() common.Vec3

	// Direction returns normalize(-Position()).
	//
	// Returns:
	//   - common.Vec3: the unit direction, or zero when the light sits at the origin
	Direction() common.Vec3

	// Color returns the RGBA color of the light.
	//
	// Returns:
	//   - [4]float32: color as (r, g, b, a)
	Color() [4]float32

	// Attenuation returns the light's falloff parameters.
	Attenuation() Attenuation

	// Enabled returns whether this light contributes to shading.
	Enabled() bool

	// SetPosition moves the light and recomputes its direction.
	//
	// Parameters:
	//   - p: the new world-space position
	SetPosition(p common.Vec3)

	// SetEnabled enables or disables the light.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// GPU returns the light in its uniform buffer layout.
	//
	// Returns:
	//   - GPULight: the GPU representation
	GPU() GPULight
}

// base holds the fields every light variant shares.
type base struct {
	position    common.Vec3
	direction   common.Vec3
	color       [4]float32
	attenuation Attenuation
	enabled     bool
}

func newBase(color [4]float32, position common.Vec3) base {
	b := base{color: color, attenuation: DefaultAttenuation, enabled: true}
	b.SetPosition(position)
	return b
}

func (b *base) Position() common.Vec3 { return b.position }
func (b *base) Direction() common.Vec3 { return b.direction }
func (b *base) Color() [4]float32 { return b.color }
func (b *base) Attenuation() Attenuation { return b.attenuation }
func (b *base) Enabled() bool { return b.enabled }
func (b *base) SetEnabled(enabled bool) { b.enabled = enabled }

func (b *base) SetPosition(p common.Vec3) {
	b.position = p
	b.direction = p.Neg().Normalize()
}

func (b *base) gpu(t LightType) GPULight {
	g := GPULight{
		Position:    [4]float32{b.position[0], b.position[1], b.position[2], 1},
		Direction:   [4]float32{b.direction[0], b.direction[1], b.direction[2], 0},
		Color:       b.color,
		Attenuation: [4]float32{b.attenuation.SpotAngle, b.attenuation.Constant, b.attenuation.Linear, b.attenuation.Quadratic},
	}
	g.TypeEnabled[0] = float32(t)
	if b.enabled {
		g.TypeEnabled[1] = 1
	}
	return g
}

// Directional is a light whose x position ping-pongs along an Oscillator.
type Directional struct {
	base
	Motion *Oscillator
}

var _ Light = &Directional{}

// NewDirectional creates an enabled directional light.
//
// Parameters:
//   - color: the RGBA color
//   - position: the starting position; the oscillator is seeded from its x component
//   - step: the x distance travelled each update
//   - bound: the oscillation limit, the light travels within [-bound, bound]
//
// Returns:
//   - *Directional: the light
func NewDirectional(color [4]float32, position common.Vec3, step, bound float32) *Directional {
	return &Directional{
		base:   newBase(color, position),
		Motion: &Oscillator{Value: position[0], Step: step, Bound: bound},
	}
}

func (d *Directional) Type() LightType { return LightTypeDirectional }
func (d *Directional) GPU() GPULight { return d.gpu(LightTypeDirectional) }

// Advance moves the light one oscillator step along x.
func (d *Directional) Advance() {
	p := d.position
	p[0] = d.Motion.Tick()
	d.SetPosition(p)
}

// Point is a light whose x position ping-pongs along an Oscillator.
type Point struct {
	base
	Motion *Oscillator
}

var _ Light = &Point{}

// NewPoint creates an enabled point light. See NewDirectional for the parameters.
func NewPoint(color [4]float32, position common.Vec3, step, bound float32) *Point {
	return &Point{
		base:   newBase(color, position),
		Motion: &Oscillator{Value: position[0], Step: step, Bound: bound},
	}
}

func (p *Point) Type() LightType { return LightTypePoint }
func (p *Point) GPU() GPULight { return p.gpu(LightTypePoint) }

// Advance moves the light one oscillator step along x.
func (p *Point) Advance() {
	pos := p.position
	pos[0] = p.Motion.Tick()
	p.SetPosition(pos)
}

// Spot is a cone light moved only by input.
type Spot struct {
	base
	// Radius is the reach of the cone.
	Radius float32
	// InnerCone and OuterCone are the cone falloff ratios.
	InnerCone float32
	OuterCone float32
	// ConeAngle is the cone axis as a homogeneous vector.
	ConeAngle [4]float32

	home common.Vec3
}

var _ Light = &Spot{}

// NewSpot creates an enabled spot light with radius 10, cone ratios 0.8/0.45 and cone axis (0, -1, -1).
//
// Parameters:
//   - color: the RGBA color
//   - position: the starting position, also used by Reset
//
// Returns:
//   - *Spot: the light
func NewSpot(color [4]float32, position common.Vec3) *Spot {
	return &Spot{
		base:      newBase(color, position),
		Radius:    10,
		InnerCone: 0.8,
		OuterCone: 0.45,
		ConeAngle: [4]float32{0, -1, -1, 0},
		home:      position,
	}
}

func (s *Spot) Type() LightType { return LightTypeSpot }

func (s *Spot) GPU() GPULight {
	g := s.gpu(LightTypeSpot)
	g.Radius[0] = s.Radius
	g.ConeRatio = [4]float32{s.InnerCone, s.OuterCone, 0, 0}
	g.ConeAngle = s.ConeAngle
	return g
}

// Move translates the light by (dx, 0, dz).
func (s *Spot) Move(dx, dz float32) {
	p := s.position
	p[0] += dx
	p[2] += dz
	s.SetPosition(p)
}

// Reset returns the light to its starting position.
func (s *Spot) Reset() {
	s.SetPosition(s.home)
}
