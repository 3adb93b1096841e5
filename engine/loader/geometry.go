package loader

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

// Vertex is one face-vertex of a loaded model. The layout matches the loaded-model vertex shader input:
// position at offset 0, uv at 12, normal at 20. Stride 32 bytes.
type Vertex struct {
	Position [3]float32
	UV       [2]float32
	Normal   [3]float32
}

// VertexStride is the size of Vertex in bytes.
const VertexStride = uint64(unsafe.Sizeof(Vertex{}))

// Geometry is CPU-side indexed triangle data ready for upload.
type Geometry struct {
	Vertices []Vertex
	Indices  []uint32
}

// IndexCount returns the number of indices.
func (g *Geometry) IndexCount() uint32 {
	return uint32(len(g.Indices))
}

// VertexBytes returns the vertex data as a byte view for GPU upload. The slice aliases g.Vertices.
func (g *Geometry) VertexBytes() []byte {
	return common.SliceToBytes(g.Vertices)
}

// IndexBytes returns the index data as a byte view for GPU upload. The slice aliases g.Indices.
func (g *Geometry) IndexBytes() []byte {
	return common.SliceToBytes(g.Indices)
}
