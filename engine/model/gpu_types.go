package model

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/light"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
)

// NumPyramidInstances is the number of model matrices in GPUInstancedConstants.
const NumPyramidInstances = 3

// Buffer and vertex sizes in bytes.
const (
	GPUConstantsSize          = 3 * 64
	GPUInstancedConstantsSize = (NumPyramidInstances + 2) * 64
	GPUColorVertexSize        = 24
)

// GPUConstantsSource is the WGSL definition matching GPUConstants.
const GPUConstantsSource = `struct Constants {
    model: mat4x4<f32>,
    view: mat4x4<f32>,
    projection: mat4x4<f32>,
};
`

// GPUInstancedConstantsSource is the WGSL definition matching GPUInstancedConstants.
const GPUInstancedConstantsSource = `struct InstancedConstants {
    models: array<mat4x4<f32>, 3>,
    view: mat4x4<f32>,
    projection: mat4x4<f32>,
};
`

// Registry returns the structs the scene shaders include by key.
//
// Returns:
//   - []shader.RegistryEntry: constants, instanced_constants and light_properties
func Registry() []shader.RegistryEntry {
	return []shader.RegistryEntry{
		{Key: "constants", Source: GPUConstantsSource, Type: "Constants"},
		{Key: "instanced_constants", Source: GPUInstancedConstantsSource, Type: "InstancedConstants"},
		{Key: "light_properties", Source: light.GPULightSource, Type: "LightProperties"},
	}
}

// GPUConstants is the per-drawable constant buffer: column-major model, view and projection matrices.
// Size: 192 bytes.
type GPUConstants struct {
	Model      common.Mat4 // offset   0
	View       common.Mat4 // offset  64
	Projection common.Mat4 // offset 128
}

// Marshal serializes the constants for GPU upload.
//
// Returns:
//   - []byte: 192-byte buffer
func (g *GPUConstants) Marshal() []byte {
	buf := make([]byte, GPUConstantsSize)
	putMat4(buf[0:], g.Model)
	putMat4(buf[64:], g.View)
	putMat4(buf[128:], g.Projection)
	return buf
}

// GPUInstancedConstants is the constant buffer of an instanced draw: one model matrix per instance.
// Size: 320 bytes.
type GPUInstancedConstants struct {
	Models     [NumPyramidInstances]common.Mat4 // offset   0
	View       common.Mat4                      // offset 192
	Projection common.Mat4                      // offset 256
}

// Marshal serializes the constants for GPU upload.
//
// Returns:
//   - []byte: 320-byte buffer
func (g *GPUInstancedConstants) Marshal() []byte {
	buf := make([]byte, GPUInstancedConstantsSize)
	for i, m := range g.Models {
		putMat4(buf[i*64:], m)
	}
	putMat4(buf[NumPyramidInstances*64:], g.View)
	putMat4(buf[(NumPyramidInstances+1)*64:], g.Projection)
	return buf
}

// GPUColorVertex is a position + color vertex of the procedural cube and pyramid. Stride 24 bytes.
type GPUColorVertex struct {
	Position [3]float32
	Color    [3]float32
}

func putMat4(buf []byte, m common.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
