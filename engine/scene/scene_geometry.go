package scene

import (
	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/model"
)

// colorMesh is procedural geometry with position + color vertices.
type colorMesh struct {
	vertices []model.GPUColorVertex
	indices  []uint32
}

func (m colorMesh) vertexBytes() []byte { return common.SliceToBytes(m.vertices) }
func (m colorMesh) indexBytes() []byte  { return common.SliceToBytes(m.indices) }
func (m colorMesh) indexCount() uint32  { return uint32(len(m.indices)) }

// cubeMesh is a unit cube centred on the origin, colored by corner position.
var cubeMesh = colorMesh{
	vertices: []model.GPUColorVertex{
		{Position: [3]float32{-0.5, -0.5, -0.5}, Color: [3]float32{0, 0, 0}},
		{Position: [3]float32{-0.5, -0.5, 0.5}, Color: [3]float32{0, 0, 1}},
		{Position: [3]float32{-0.5, 0.5, -0.5}, Color: [3]float32{0, 1, 0}},
		{Position: [3]float32{-0.5, 0.5, 0.5}, Color: [3]float32{0, 1, 1}},
		{Position: [3]float32{0.5, -0.5, -0.5}, Color: [3]float32{1, 0, 0}},
		{Position: [3]float32{0.5, -0.5, 0.5}, Color: [3]float32{1, 0, 1}},
		{Position: [3]float32{0.5, 0.5, -0.5}, Color: [3]float32{1, 1, 0}},
		{Position: [3]float32{0.5, 0.5, 0.5}, Color: [3]float32{1, 1, 1}},
	},
	indices: []uint32{
		0, 2, 1, 1, 2, 3, // -x
		4, 5, 6, 5, 7, 6, // +x
		0, 1, 5, 0, 5, 4, // -y
		2, 6, 7, 2, 7, 3, // +y
		0, 4, 6, 0, 6, 2, // -z
		1, 3, 7, 1, 7, 5, // +z
	},
}

// pyramidMesh is a square-based pyramid with its apex at +Y.
var pyramidMesh = colorMesh{
	vertices: []model.GPUColorVertex{
		{Position: [3]float32{0, 0.5, 0}, Color: [3]float32{1, 1, 1}},
		{Position: [3]float32{-0.5, -0.5, -0.5}, Color: [3]float32{1, 0, 0}},
		{Position: [3]float32{0.5, -0.5, -0.5}, Color: [3]float32{0, 1, 0}},
		{Position: [3]float32{0.5, -0.5, 0.5}, Color: [3]float32{0, 0, 1}},
		{Position: [3]float32{-0.5, -0.5, 0.5}, Color: [3]float32{1, 1, 0}},
	},
	indices: []uint32{
		0, 1, 2,
		0, 2, 3,
		0, 3, 4,
		0, 4, 1,
		1, 3, 2,
		1, 4, 3,
	},
}
