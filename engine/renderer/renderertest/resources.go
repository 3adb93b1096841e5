package renderertest

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
)

// Buffer is a host-memory buffer.
type Buffer struct {
	owner    *Backend
	label    string
	usage    renderer.BufferUsage
	data     []byte
	released bool
}

func (b *Buffer) Label() string { return b.label }
func (b *Buffer) Size() uint64  { return uint64(len(b.data)) }

// Usage returns the usage the buffer was created with.
func (b *Buffer) Usage() renderer.BufferUsage { return b.usage }

// Bytes returns a copy of the buffer's contents.
func (b *Buffer) Bytes() []byte {
	b.owner.mu.Lock()
	defer b.owner.mu.Unlock()
	return append([]byte(nil), b.data...)
}

// Released reports whether Release was called.
func (b *Buffer) Released() bool {
	b.owner.mu.Lock()
	defer b.owner.mu.Unlock()
	return b.released
}

func (b *Buffer) Release() {
	b.owner.mu.Lock()
	already := b.released
	b.released = true
	b.owner.mu.Unlock()
	if !already {
		b.owner.released("buffer")
	}
}

// Texture is a texture placeholder remembering its size.
type Texture struct {
	owner         *Backend
	label         string
	width, height uint32
	once          sync.Once
}

func (t *Texture) Label() string  { return t.label }
func (t *Texture) Width() uint32  { return t.width }
func (t *Texture) Height() uint32 { return t.height }
func (t *Texture) Release()       { t.once.Do(func() { t.owner.released("texture") }) }

// Sampler is a sampler placeholder keeping its configuration.
type Sampler struct {
	owner  *Backend
	label  string
	Config common.SamplerStagingData
	once   sync.Once
}

func (s *Sampler) Label() string { return s.label }
func (s *Sampler) Release()      { s.once.Do(func() { s.owner.released("sampler") }) }

// BindGroup keeps the entries it was created with.
type BindGroup struct {
	owner   *Backend
	label   string
	Entries []renderer.BindGroupEntry
	once    sync.Once
}

func (g *BindGroup) Label() string { return g.label }
func (g *BindGroup) Release()      { g.once.Do(func() { g.owner.released("bindgroup") }) }

// CommandList holds the commands recorded by a DeferredContext.
type CommandList struct {
	owner    *Backend
	label    string
	Commands []Call
}

func (l *CommandList) Release() {}

// encoder records draw commands, either straight into the backend or into a pending list.
type encoder struct {
	owner    *Backend
	deferred bool
	pending  []Call
}

func (e *encoder) add(c Call) {
	if e.deferred {
		c.Deferred = true
		e.pending = append(e.pending, c)
		return
	}
	e.owner.record(c)
}

func (e *encoder) SetPipeline(p pipeline.Pipeline) {
	e.add(Call{Op: "SetPipeline", Target: p.Key()})
}

func (e *encoder) SetBindGroup(index uint32, bg renderer.BindGroup) {
	e.add(Call{Op: "SetBindGroup", Target: bg.Label(), Args: []uint64{uint64(index)}})
}

func (e *encoder) SetVertexBuffer(b renderer.Buffer) {
	e.add(Call{Op: "SetVertexBuffer", Target: b.Label()})
}

func (e *encoder) SetIndexBuffer(b renderer.Buffer) {
	e.add(Call{Op: "SetIndexBuffer", Target: b.Label()})
}

func (e *encoder) DrawIndexed(indexCount, instanceCount uint32) {
	e.add(Call{Op: "DrawIndexed", Args: []uint64{uint64(indexCount), uint64(instanceCount)}})
}

// DeferredContext records into a CommandList.
type DeferredContext struct {
	encoder
	label    string
	finished bool
	once     sync.Once
}

var _ renderer.DeferredContext = &DeferredContext{}

func (d *DeferredContext) Finish() (renderer.CommandList, error) {
	if d.finished {
		return nil, errors.New("deferred context already finished")
	}
	d.finished = true
	d.Release()
	return &CommandList{owner: d.owner, label: d.label, Commands: d.pending}, nil
}

func (d *DeferredContext) Release() {
	d.once.Do(func() { d.owner.released("context") })
}
