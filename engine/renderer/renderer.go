package renderer

import (
	"fmt"
	"maps"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	// mu guards the pipeline cache.
	mu *sync.Mutex
	// gpu serializes resource creation on the backend.
	gpu *sync.Mutex

	log logging.Logger

	pipelineCache map[string]pipeline.Pipeline

	backend RendererBackend
}

// Renderer is the high-level rendering API used by the scene. It caches pipelines by key, validates bind groups
// against pipeline layouts, and forwards everything else to a RendererBackend. Resource creation is safe to call
// from load workers concurrently.
type Renderer interface {
	// Pipeline retrieves a registered pipeline.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Pipeline: the pipeline, or nil if not registered
	Pipeline(key string) pipeline.Pipeline

	// Pipelines returns a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: pipelines keyed by pipeline key
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines creates GPU objects for the given pipelines and caches them by key. Keys already registered
	// are skipped.
	//
	// Parameters:
	//   - pipelines: the pipelines to register
	//
	// Returns:
	//   - error: wrapping common.ErrDeviceCreateFailure if the backend rejects a pipeline
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// InitMesh uploads vertex and index data.
	//
	// Parameters:
	//   - label: a debug label
	//   - vertexData: packed vertices
	//   - indexData: packed uint32 indices
	//   - indexCount: number of indices in indexData
	//
	// Returns:
	//   - *Mesh: the uploaded mesh
	//   - error: wrapping common.ErrDeviceCreateFailure on failure
	InitMesh(label string, vertexData, indexData []byte, indexCount uint32) (*Mesh, error)

	// InitUniform creates a zeroed uniform buffer.
	//
	// Parameters:
	//   - label: a debug label
	//   - size: size in bytes
	//
	// Returns:
	//   - Buffer: the buffer
	//   - error: wrapping common.ErrDeviceCreateFailure on failure
	InitUniform(label string, size uint64) (Buffer, error)

	// WriteBuffer writes data at the start of b.
	WriteBuffer(b Buffer, data []byte) error

	// InitTexture uploads decoded pixels.
	InitTexture(label string, data common.TextureStagingData) (Texture, error)

	// InitSampler creates a sampler.
	InitSampler(label string, data common.SamplerStagingData) (Sampler, error)

	// InitBindGroup creates a bind group for one group of a registered pipeline. Every binding the pipeline declares
	// in the group needs an entry of the matching kind, and buffers must be at least the binding's size.
	//
	// Parameters:
	//   - pipelineKey: the registered pipeline
	//   - group: the @group index
	//   - entries: one entry per binding
	//
	// Returns:
	//   - BindGroup: the bind group
	//   - error: if the pipeline is unknown, an entry does not match, or the backend fails
	InitBindGroup(pipelineKey string, group uint32, entries ...BindGroupEntry) (BindGroup, error)

	// BeginFrame starts a frame and returns the encoder for immediate draws.
	BeginFrame() (CommandEncoder, error)

	// NewDeferredContext opens a recording that may be driven from another goroutine.
	NewDeferredContext(label string) (DeferredContext, error)

	// Execute replays a finished CommandList into the current frame.
	Execute(list CommandList) error

	// EndFrame submits and presents the frame.
	EndFrame() error

	// Resize reconfigures the backend surface.
	Resize(width, height int)

	// Release drops all cached pipelines and releases the backend.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a Renderer over a backend.
//
// Parameters:
//   - backend: the GPU backend
//   - options: functional options to configure the Renderer
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(backend RendererBackend, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		gpu:           &sync.Mutex{},
		log:           logging.New("renderer"),
		pipelineCache: make(map[string]pipeline.Pipeline),
		backend:       backend,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return maps.Clone(r.pipelineCache)
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	for _, p := range pipelines {
		key := p.Key()
		r.mu.Lock()
		_, exists := r.pipelineCache[key]
		r.mu.Unlock()
		if exists {
			continue
		}

		r.gpu.Lock()
		err := r.backend.CreateRenderPipeline(p)
		r.gpu.Unlock()
		if err != nil {
			return fmt.Errorf("%w: pipeline %s: %w", common.ErrDeviceCreateFailure, key, err)
		}

		r.mu.Lock()
		r.pipelineCache[key] = p
		r.mu.Unlock()
		r.log.Debugf("registered pipeline %s", key)
	}
	return nil
}

func (r *renderer) InitMesh(label string, vertexData, indexData []byte, indexCount uint32) (*Mesh, error) {
	if len(vertexData) == 0 || len(indexData) == 0 {
		return nil, fmt.Errorf("%w: mesh %s: empty vertex or index data", common.ErrDeviceCreateFailure, label)
	}
	if uint64(indexCount)*4 > uint64(len(indexData)) {
		return nil, fmt.Errorf("%w: mesh %s: %d indices exceed %d bytes", common.ErrDeviceCreateFailure, label, indexCount, len(indexData))
	}

	r.gpu.Lock()
	defer r.gpu.Unlock()

	vb, err := r.backend.CreateBuffer(label+" vertices", BufferUsageVertex, uint64(len(vertexData)), vertexData)
	if err != nil {
		return nil, fmt.Errorf("%w: mesh %s: %w", common.ErrDeviceCreateFailure, label, err)
	}
	ib, err := r.backend.CreateBuffer(label+" indices", BufferUsageIndex, uint64(len(indexData)), indexData)
	if err != nil {
		vb.Release()
		return nil, fmt.Errorf("%w: mesh %s: %w", common.ErrDeviceCreateFailure, label, err)
	}
	return &Mesh{VertexBuffer: vb, IndexBuffer: ib, IndexCount: indexCount}, nil
}

func (r *renderer) InitUniform(label string, size uint64) (Buffer, error) {
	r.gpu.Lock()
	defer r.gpu.Unlock()

	b, err := r.backend.CreateBuffer(label, BufferUsageUniform, size, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: uniform %s: %w", common.ErrDeviceCreateFailure, label, err)
	}
	return b, nil
}

func (r *renderer) WriteBuffer(b Buffer, data []byte) error {
	if b == nil {
		return fmt.Errorf("write buffer: nil buffer")
	}
	if uint64(len(data)) > b.Size() {
		return fmt.Errorf("write buffer %s: %d bytes exceed size %d", b.Label(), len(data), b.Size())
	}
	r.gpu.Lock()
	defer r.gpu.Unlock()
	return r.backend.WriteBuffer(b, 0, data)
}

func (r *renderer) InitTexture(label string, data common.TextureStagingData) (Texture, error) {
	if data.Width == 0 || data.Height == 0 || len(data.Pixels) < int(data.Width*data.Height*4) {
		return nil, fmt.Errorf("%w: texture %s: %dx%d with %d bytes", common.ErrDeviceCreateFailure, label, data.Width, data.Height, len(data.Pixels))
	}
	r.gpu.Lock()
	defer r.gpu.Unlock()

	t, err := r.backend.CreateTexture(label, data)
	if err != nil {
		return nil, fmt.Errorf("%w: texture %s: %w", common.ErrDeviceCreateFailure, label, err)
	}
	return t, nil
}

func (r *renderer) InitSampler(label string, data common.SamplerStagingData) (Sampler, error) {
	r.gpu.Lock()
	defer r.gpu.Unlock()

	s, err := r.backend.CreateSampler(label, data)
	if err != nil {
		return nil, fmt.Errorf("%w: sampler %s: %w", common.ErrDeviceCreateFailure, label, err)
	}
	return s, nil
}

func (r *renderer) InitBindGroup(pipelineKey string, group uint32, entries ...BindGroupEntry) (BindGroup, error) {
	p := r.Pipeline(pipelineKey)
	if p == nil {
		return nil, fmt.Errorf("bind group: pipeline %q not registered", pipelineKey)
	}
	if err := checkEntries(p.GroupBindings(group), entries); err != nil {
		return nil, fmt.Errorf("bind group %s/%d: %w", pipelineKey, group, err)
	}

	r.gpu.Lock()
	defer r.gpu.Unlock()

	label := fmt.Sprintf("%s group %d", pipelineKey, group)
	bg, err := r.backend.CreateBindGroup(p, group, label, entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", common.ErrDeviceCreateFailure, label, err)
	}
	return bg, nil
}

// checkEntries matches entries one to one against a group's declared bindings.
func checkEntries(declared []shader.Binding, entries []BindGroupEntry) error {
	if len(declared) == 0 {
		return fmt.Errorf("group not used by pipeline")
	}
	byBinding := make(map[uint32]BindGroupEntry, len(entries))
	for _, e := range entries {
		if _, dup := byBinding[e.Binding]; dup {
			return fmt.Errorf("binding %d given twice", e.Binding)
		}
		byBinding[e.Binding] = e
	}
	if len(byBinding) != len(declared) {
		return fmt.Errorf("%d entries for %d bindings", len(byBinding), len(declared))
	}

	for _, d := range declared {
		e, ok := byBinding[d.Binding]
		if !ok {
			return fmt.Errorf("binding %d (%s) has no entry", d.Binding, d.Name)
		}
		switch {
		case d.Kind.IsBuffer():
			if e.Buffer == nil {
				return fmt.Errorf("binding %d (%s) needs a buffer", d.Binding, d.Name)
			}
			if e.Buffer.Size() < d.MinBindingSize {
				return fmt.Errorf("binding %d (%s): buffer of %d bytes, need %d", d.Binding, d.Name, e.Buffer.Size(), d.MinBindingSize)
			}
		case d.Kind == shader.BindingKindTexture:
			if e.Texture == nil {
				return fmt.Errorf("binding %d (%s) needs a texture", d.Binding, d.Name)
			}
		case d.Kind == shader.BindingKindSampler || d.Kind == shader.BindingKindComparisonSampler:
			if e.Sampler == nil {
				return fmt.Errorf("binding %d (%s) needs a sampler", d.Binding, d.Name)
			}
		}
	}
	return nil
}

func (r *renderer) BeginFrame() (CommandEncoder, error) {
	return r.backend.BeginFrame()
}

func (r *renderer) NewDeferredContext(label string) (DeferredContext, error) {
	r.gpu.Lock()
	defer r.gpu.Unlock()
	return r.backend.CreateDeferredContext(label)
}

func (r *renderer) Execute(list CommandList) error {
	if list == nil {
		return fmt.Errorf("execute: nil command list")
	}
	return r.backend.ExecuteCommandList(list)
}

func (r *renderer) EndFrame() error {
	return r.backend.EndFrame()
}

func (r *renderer) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.gpu.Lock()
	defer r.gpu.Unlock()
	r.backend.Resize(width, height)
}

func (r *renderer) Release() {
	r.mu.Lock()
	for _, p := range r.pipelineCache {
		p.SetHandle(nil)
	}
	r.pipelineCache = make(map[string]pipeline.Pipeline)
	r.mu.Unlock()

	r.gpu.Lock()
	defer r.gpu.Unlock()
	r.backend.Release()
}
