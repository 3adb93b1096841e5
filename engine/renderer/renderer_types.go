package renderer

import "github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"

// Buffer is a GPU buffer owned by a backend.
type Buffer interface {
	Label() string
	Size() uint64
	Release()
}

// Texture is a sampled 2D texture owned by a backend.
type Texture interface {
	Label() string
	Width() uint32
	Height() uint32
	Release()
}

// Sampler is a texture sampler owned by a backend.
type Sampler interface {
	Label() string
	Release()
}

// BindGroup is a set of resources bound to one @group slot of a pipeline.
type BindGroup interface {
	Label() string
	Release()
}

// CommandList is a recorded, immutable sequence of draw commands produced by a DeferredContext.
type CommandList interface {
	Release()
}

// BufferUsage says how a buffer is bound.
type BufferUsage int

const (
	BufferUsageVertex BufferUsage = iota
	BufferUsageIndex
	BufferUsageUniform
)

func (u BufferUsage) String() string {
	switch u {
	case BufferUsageVertex:
		return "vertex"
	case BufferUsageIndex:
		return "index"
	case BufferUsageUniform:
		return "uniform"
	default:
		return "unknown"
	}
}

// BindGroupEntry binds one resource. Exactly one of Buffer, Texture or Sampler is set.
type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
	Texture Texture
	Sampler Sampler
}

// Mesh is an indexed triangle list uploaded to the GPU. Indices are uint32.
type Mesh struct {
	VertexBuffer Buffer
	IndexBuffer  Buffer
	IndexCount   uint32
}

// Release frees both buffers. It is safe to call on a nil or partially built mesh.
func (m *Mesh) Release() {
	if m == nil {
		return
	}
	if m.VertexBuffer != nil {
		m.VertexBuffer.Release()
		m.VertexBuffer = nil
	}
	if m.IndexBuffer != nil {
		m.IndexBuffer.Release()
		m.IndexBuffer = nil
	}
	m.IndexCount = 0
}

// CommandEncoder records draw commands. The immediate encoder returned by BeginFrame writes straight into the
// frame's render pass; a DeferredContext records into a CommandList instead.
type CommandEncoder interface {
	// SetPipeline binds a pipeline whose handle was created by the same backend.
	SetPipeline(p pipeline.Pipeline)

	// SetBindGroup binds bg at the @group index.
	SetBindGroup(index uint32, bg BindGroup)

	// SetVertexBuffer binds b at vertex slot 0.
	SetVertexBuffer(b Buffer)

	// SetIndexBuffer binds b as a uint32 index buffer.
	SetIndexBuffer(b Buffer)

	// DrawIndexed draws indexCount indices starting at 0, instanceCount times.
	DrawIndexed(indexCount, instanceCount uint32)
}

// DeferredContext is a CommandEncoder that can be driven from a goroutine other than the one running the frame.
// Finish turns what was recorded into a CommandList which the frame goroutine then executes.
type DeferredContext interface {
	CommandEncoder

	// Finish closes the context and returns the recorded commands. The context cannot be reused.
	//
	// Returns:
	//   - CommandList: the recorded commands
	//   - error: if the backend rejects the recording
	Finish() (CommandList, error)

	// Release frees the context. Calling it after Finish is a no-op.
	Release()
}
