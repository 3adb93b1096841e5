package light

import (
	"encoding/binary"
	"math"
)

// NumLights is the fixed size of the light array in the uniform buffer.
const NumLights = 3

// GPULightSize and GPULightPropertiesSize are the uniform buffer sizes in bytes.
const (
	GPULightSize           = 8 * 16
	GPULightPropertiesSize = 2*16 + NumLights*GPULightSize
)

// GPULightSource is the WGSL definition matching GPULight and GPULightProperties.
const GPULightSource = `struct Light {
    position: vec4<f32>,
    direction: vec4<f32>,
    radius: vec4<f32>,
    color: vec4<f32>,
    attenuation: vec4<f32>,
    type_enabled: vec4<f32>,
    cone_ratio: vec4<f32>,
    cone_angle: vec4<f32>,
};

struct LightProperties {
    eye_position: vec4<f32>,
    global_ambient: vec4<f32>,
    lights: array<Light, 3>,
};
`

// GPULight is one light in the uniform buffer. Every field is a vec4 so the layout needs no padding.
// Size: 128 bytes.
type GPULight struct {
	Position    [4]float32 // offset   0
	Direction   [4]float32 // offset  16
	Radius      [4]float32 // offset  32: x = spot radius
	Color       [4]float32 // offset  48
	Attenuation [4]float32 // offset  64: spot angle, constant, linear, quadratic
	TypeEnabled [4]float32 // offset  80: x = LightType, y = 1 if enabled
	ConeRatio   [4]float32 // offset  96: x = inner, y = outer
	ConeAngle   [4]float32 // offset 112
}

// Marshal serializes the light for GPU upload.
//
// Returns:
//   - []byte: 128-byte buffer
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, GPULightSize)
	g.marshalInto(buf)
	return buf
}

func (g *GPULight) marshalInto(buf []byte) {
	fields := [8]*[4]float32{
		&g.Position, &g.Direction, &g.Radius, &g.Color,
		&g.Attenuation, &g.TypeEnabled, &g.ConeRatio, &g.ConeAngle,
	}
	for i, f := range fields {
		putVec4(buf[i*16:], *f)
	}
}

// GPULightProperties is the light uniform buffer bound by the lit pixel shader.
// Size: 416 bytes.
type GPULightProperties struct {
	EyePosition   [4]float32          // offset  0
	GlobalAmbient [4]float32          // offset 16
	Lights        [NumLights]GPULight // offset 32
}

// Marshal serializes the properties for GPU upload.
//
// Returns:
//   - []byte: 416-byte buffer
func (g *GPULightProperties) Marshal() []byte {
	buf := make([]byte, GPULightPropertiesSize)
	putVec4(buf[0:], g.EyePosition)
	putVec4(buf[16:], g.GlobalAmbient)
	for i := range g.Lights {
		off := 32 + i*GPULightSize
		g.Lights[i].marshalInto(buf[off : off+GPULightSize])
	}
	return buf
}

func putVec4(buf []byte, v [4]float32) {
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v[i]))
	}
}
