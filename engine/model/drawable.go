// Package model holds the scene's drawables: GPU meshes with their pipeline, bind groups and per-frame constants.
package model

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
)

// drawable is the implementation of the Drawable interface.
type drawable struct {
	mu *sync.RWMutex

	name           string
	mesh           *renderer.Mesh
	pipeline       pipeline.Pipeline
	constantBuffer renderer.Buffer
	bindGroups     map[uint32]renderer.BindGroup
	textures       []renderer.Texture
	instances      uint32
	payload        []byte
}

// Drawable is one renderable object. Load tasks fill in its GPU objects from worker goroutines; the frame goroutine
// updates its payload and records it. It is never drawn until Ready.
type Drawable interface {
	// Name retrieves the drawable identifier.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Ready reports whether the mesh and pipeline are both set.
	//
	// Returns:
	//   - bool: true once the drawable can be recorded
	Ready() bool

	// Mesh retrieves the uploaded mesh, nil until set.
	//
	// Returns:
	//   - *renderer.Mesh: the mesh
	Mesh() *renderer.Mesh

	// Pipeline retrieves the pipeline, nil until set.
	//
	// Returns:
	//   - pipeline.Pipeline: the pipeline
	Pipeline() pipeline.Pipeline

	// ConstantBuffer retrieves the uniform buffer the payload is written into.
	//
	// Returns:
	//   - renderer.Buffer: the constant buffer, nil until set
	ConstantBuffer() renderer.Buffer

	// BindGroup retrieves the bind group set at a group index.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - renderer.BindGroup: the bind group, or nil
	BindGroup(group uint32) renderer.BindGroup

	// Instances returns the instance count of the draw, at least 1.
	//
	// Returns:
	//   - uint32: the instance count
	Instances() uint32

	// Payload returns a copy of the constant buffer contents for this frame.
	//
	// Returns:
	//   - []byte: the payload copy
	Payload() []byte

	// SetPayload replaces the constant buffer contents. The drawable keeps its own copy.
	//
	// Parameters:
	//   - payload: the marshalled constants
	SetPayload(payload []byte)

	// SetMesh sets the uploaded mesh. The drawable takes ownership.
	//
	// Parameters:
	//   - mesh: the mesh
	SetMesh(mesh *renderer.Mesh)

	// SetPipeline sets the pipeline. Pipelines are owned by the renderer.
	//
	// Parameters:
	//   - p: the pipeline
	SetPipeline(p pipeline.Pipeline)

	// SetConstantBuffer sets the constant buffer. The drawable takes ownership.
	//
	// Parameters:
	//   - b: the uniform buffer
	SetConstantBuffer(b renderer.Buffer)

	// SetBindGroup sets the bind group for a group index, releasing any group it replaces. The drawable takes
	// ownership of the bind group, not of the resources it references.
	//
	// Parameters:
	//   - group: the @group index
	//   - bg: the bind group
	SetBindGroup(group uint32, bg renderer.BindGroup)

	// AddTexture hands a texture to the drawable to release on teardown.
	//
	// Parameters:
	//   - t: the texture
	AddTexture(t renderer.Texture)

	// Encode binds the pipeline, every bind group in group order, and the mesh, then issues one indexed draw.
	// It records nothing when the drawable is not ready.
	//
	// Parameters:
	//   - enc: the encoder to record into
	Encode(enc renderer.CommandEncoder)

	// Release frees every GPU object the drawable owns and returns it to the not-ready state.
	Release()
}

var _ Drawable = &drawable{}

// NewDrawable creates a new Drawable with the specified options applied.
//
// Parameters:
//   - options: a variadic list of DrawableBuilderOption functions to configure the Drawable
//
// Returns:
//   - Drawable: a new Drawable configured with the provided options
func NewDrawable(options ...DrawableBuilderOption) Drawable {
	d := &drawable{
		mu:         &sync.RWMutex{},
		bindGroups: make(map[uint32]renderer.BindGroup),
		instances:  1,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

func (d *drawable) Name() string {
	return d.name
}

func (d *drawable) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mesh != nil && d.mesh.VertexBuffer != nil && d.pipeline != nil
}

func (d *drawable) Mesh() *renderer.Mesh {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mesh
}

func (d *drawable) Pipeline() pipeline.Pipeline {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pipeline
}

func (d *drawable) ConstantBuffer() renderer.Buffer {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.constantBuffer
}

func (d *drawable) BindGroup(group uint32) renderer.BindGroup {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.bindGroups[group]
}

func (d *drawable) Instances() uint32 {
	return d.instances
}

func (d *drawable) Payload() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]byte(nil), d.payload...)
}

func (d *drawable) SetPayload(payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payload = append(d.payload[:0], payload...)
}

func (d *drawable) SetMesh(mesh *renderer.Mesh) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.mesh != nil && d.mesh != mesh {
		d.mesh.Release()
	}
	d.mesh = mesh
}

func (d *drawable) SetPipeline(p pipeline.Pipeline) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pipeline = p
}

func (d *drawable) SetConstantBuffer(b renderer.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.constantBuffer != nil && d.constantBuffer != b {
		d.constantBuffer.Release()
	}
	d.constantBuffer = b
}

func (d *drawable) SetBindGroup(group uint32, bg renderer.BindGroup) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if old, ok := d.bindGroups[group]; ok && old != bg {
		old.Release()
	}
	d.bindGroups[group] = bg
}

func (d *drawable) AddTexture(t renderer.Texture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.textures = append(d.textures, t)
}

func (d *drawable) Encode(enc renderer.CommandEncoder) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.mesh == nil || d.mesh.VertexBuffer == nil || d.pipeline == nil {
		return
	}

	enc.SetPipeline(d.pipeline)
	groups := make([]uint32, 0, len(d.bindGroups))
	for g := range d.bindGroups {
		groups = append(groups, g)
	}
	slices.Sort(groups)
	for _, g := range groups {
		enc.SetBindGroup(g, d.bindGroups[g])
	}
	enc.SetVertexBuffer(d.mesh.VertexBuffer)
	enc.SetIndexBuffer(d.mesh.IndexBuffer)
	enc.DrawIndexed(d.mesh.IndexCount, d.instances)
}

func (d *drawable) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for g, bg := range d.bindGroups {
		bg.Release()
		delete(d.bindGroups, g)
	}
	for _, t := range d.textures {
		t.Release()
	}
	d.textures = nil
	if d.constantBuffer != nil {
		d.constantBuffer.Release()
		d.constantBuffer = nil
	}
	d.mesh.Release()
	d.mesh = nil
	d.pipeline = nil
}
