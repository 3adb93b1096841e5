package renderer

import (
	"errors"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
)

var (
	// ErrNoFrame is returned by frame operations called outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("no frame in progress")

	// ErrFrameInProgress is returned by BeginFrame when the previous frame was not ended.
	ErrFrameInProgress = errors.New("frame already in progress")
)

// RendererBackend is the GPU API behind a Renderer. Resource creation may be called from any goroutine; the
// Renderer serializes it. A frame is BeginFrame, draws on the returned encoder and ExecuteCommandList calls, then
// EndFrame, all on one goroutine.
type RendererBackend interface {
	// CreateBuffer creates a buffer, initialized with data when data is non-nil.
	//
	// Parameters:
	//   - label: a debug label
	//   - usage: how the buffer is bound
	//   - size: size in bytes; at least len(data)
	//   - data: initial contents, or nil
	//
	// Returns:
	//   - Buffer: the buffer
	//   - error: if creation fails
	CreateBuffer(label string, usage BufferUsage, size uint64, data []byte) (Buffer, error)

	// WriteBuffer queues a write of data into b at offset.
	//
	// Returns:
	//   - error: if the write does not fit or b is not from this backend
	WriteBuffer(b Buffer, offset uint64, data []byte) error

	// CreateTexture uploads RGBA8 pixels as a sampled sRGB texture.
	CreateTexture(label string, data common.TextureStagingData) (Texture, error)

	// CreateSampler creates a sampler; zero fields use linear filtering with repeat addressing.
	CreateSampler(label string, data common.SamplerStagingData) (Sampler, error)

	// CreateRenderPipeline builds the GPU pipeline described by p and stores it with p.SetHandle.
	CreateRenderPipeline(p pipeline.Pipeline) error

	// CreateBindGroup creates a bind group matching p's layout for group.
	CreateBindGroup(p pipeline.Pipeline, group uint32, label string, entries []BindGroupEntry) (BindGroup, error)

	// BeginFrame acquires the next surface image and opens the frame's render pass, cleared to the clear color.
	//
	// Returns:
	//   - CommandEncoder: records into the frame's render pass
	//   - error: ErrFrameInProgress or a surface error
	BeginFrame() (CommandEncoder, error)

	// CreateDeferredContext opens a recording whose commands can be executed inside the current or a later frame.
	CreateDeferredContext(label string) (DeferredContext, error)

	// ExecuteCommandList replays list into the current frame's render pass.
	//
	// Returns:
	//   - error: ErrNoFrame outside a frame
	ExecuteCommandList(list CommandList) error

	// EndFrame closes the render pass, submits it and presents the surface.
	//
	// Returns:
	//   - error: ErrNoFrame outside a frame, or a submission error
	EndFrame() error

	// Resize reconfigures the surface and its attachments.
	Resize(width, height int)

	// Release frees the device and surface.
	Release()
}
