// Package renderertest provides an in-memory RendererBackend that records every call, for tests that exercise
// rendering code without a GPU.
package renderertest

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
)

// Call is one recorded backend or encoder call.
type Call struct {
	// Op is the method name, e.g. "DrawIndexed" or "ExecuteCommandList".
	Op string
	// Target names what the call acted on: a label, pipeline key or list label.
	Target string
	// Args holds numeric arguments such as a group index or index and instance counts.
	Args []uint64
	// Deferred is set for commands replayed from a command list.
	Deferred bool
}

func (c Call) String() string {
	var sb strings.Builder
	sb.WriteString(c.Op)
	if c.Target != "" {
		sb.WriteString(" " + c.Target)
	}
	for _, a := range c.Args {
		fmt.Fprintf(&sb, " %d", a)
	}
	if c.Deferred {
		sb.WriteString(" (deferred)")
	}
	return sb.String()
}

// Backend is a recording renderer.RendererBackend. Set the Fail* fields to inject errors.
type Backend struct {
	mu *sync.Mutex

	calls   []Call
	inFrame bool
	frames  int
	live    map[string]int

	// FailCreate makes every resource creation whose label contains the substring fail.
	FailCreate string
	// FailPipeline makes CreateRenderPipeline fail for this pipeline key.
	FailPipeline string

	width, height int
}

var _ renderer.RendererBackend = &Backend{}

// NewBackend creates an empty recording backend.
func NewBackend() *Backend {
	return &Backend{
		mu:   &sync.Mutex{},
		live: make(map[string]int),
	}
}

// Calls returns a copy of everything recorded so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Ops returns the recorded calls whose Op is one of ops, in order.
func (b *Backend) Ops(ops ...string) []Call {
	want := make(map[string]bool, len(ops))
	for _, op := range ops {
		want[op] = true
	}
	var out []Call
	for _, c := range b.Calls() {
		if want[c.Op] {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets recorded calls but keeps resource accounting.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// Frames returns the number of completed frames.
func (b *Backend) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

// Live returns the number of created and not yet released resources of a kind: "buffer", "texture", "sampler",
// "bindgroup" or "context".
func (b *Backend) Live(kind string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live[kind]
}

// Size returns the last size passed to Resize.
func (b *Backend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *Backend) record(c Call) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, c)
}

func (b *Backend) created(kind, label string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailCreate != "" && strings.Contains(label, b.FailCreate) {
		return errors.New("injected failure")
	}
	b.live[kind]++
	return nil
}

func (b *Backend) released(kind string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live[kind]--
}

func (b *Backend) CreateBuffer(label string, usage renderer.BufferUsage, size uint64, data []byte) (renderer.Buffer, error) {
	if uint64(len(data)) > size {
		return nil, fmt.Errorf("buffer %s: %d bytes of data exceed size %d", label, len(data), size)
	}
	if err := b.created("buffer", label); err != nil {
		return nil, err
	}
	b.record(Call{Op: "CreateBuffer", Target: label, Args: []uint64{uint64(usage), size}})
	buf := &Buffer{owner: b, label: label, usage: usage, data: make([]byte, size)}
	copy(buf.data, data)
	return buf, nil
}

func (b *Backend) WriteBuffer(rb renderer.Buffer, offset uint64, data []byte) error {
	buf, ok := rb.(*Buffer)
	if !ok || buf.owner != b {
		return errors.New("buffer not created by this backend")
	}
	if offset+uint64(len(data)) > uint64(len(buf.data)) {
		return fmt.Errorf("write of %d bytes at %d overflows %s", len(data), offset, buf.label)
	}
	b.mu.Lock()
	copy(buf.data[offset:], data)
	b.mu.Unlock()
	b.record(Call{Op: "WriteBuffer", Target: buf.label, Args: []uint64{offset, uint64(len(data))}})
	return nil
}

func (b *Backend) CreateTexture(label string, data common.TextureStagingData) (renderer.Texture, error) {
	if err := b.created("texture", label); err != nil {
		return nil, err
	}
	b.record(Call{Op: "CreateTexture", Target: label, Args: []uint64{uint64(data.Width), uint64(data.Height)}})
	return &Texture{owner: b, label: label, width: data.Width, height: data.Height}, nil
}

func (b *Backend) CreateSampler(label string, data common.SamplerStagingData) (renderer.Sampler, error) {
	if err := b.created("sampler", label); err != nil {
		return nil, err
	}
	b.record(Call{Op: "CreateSampler", Target: label})
	return &Sampler{owner: b, label: label, Config: data}, nil
}

func (b *Backend) CreateRenderPipeline(p pipeline.Pipeline) error {
	if b.FailPipeline != "" && p.Key() == b.FailPipeline {
		return errors.New("injected pipeline failure")
	}
	b.record(Call{Op: "CreateRenderPipeline", Target: p.Key()})
	p.SetHandle(p.Key())
	return nil
}

func (b *Backend) CreateBindGroup(p pipeline.Pipeline, group uint32, label string, entries []renderer.BindGroupEntry) (renderer.BindGroup, error) {
	if err := b.created("bindgroup", label); err != nil {
		return nil, err
	}
	b.record(Call{Op: "CreateBindGroup", Target: label, Args: []uint64{uint64(group), uint64(len(entries))}})
	return &BindGroup{owner: b, label: label, Entries: append([]renderer.BindGroupEntry(nil), entries...)}, nil
}

func (b *Backend) BeginFrame() (renderer.CommandEncoder, error) {
	b.mu.Lock()
	if b.inFrame {
		b.mu.Unlock()
		return nil, renderer.ErrFrameInProgress
	}
	b.inFrame = true
	b.mu.Unlock()
	b.record(Call{Op: "BeginFrame"})
	return &encoder{owner: b}, nil
}

func (b *Backend) CreateDeferredContext(label string) (renderer.DeferredContext, error) {
	if err := b.created("context", label); err != nil {
		return nil, err
	}
	b.record(Call{Op: "CreateDeferredContext", Target: label})
	return &DeferredContext{encoder: encoder{owner: b, deferred: true}, label: label}, nil
}

func (b *Backend) ExecuteCommandList(list renderer.CommandList) error {
	cl, ok := list.(*CommandList)
	if !ok || cl.owner != b {
		return errors.New("command list not created by this backend")
	}
	b.mu.Lock()
	inFrame := b.inFrame
	b.mu.Unlock()
	if !inFrame {
		return renderer.ErrNoFrame
	}
	b.record(Call{Op: "ExecuteCommandList", Target: cl.label, Args: []uint64{uint64(len(cl.Commands))}})
	for _, c := range cl.Commands {
		b.record(c)
	}
	return nil
}

func (b *Backend) EndFrame() error {
	b.mu.Lock()
	if !b.inFrame {
		b.mu.Unlock()
		return renderer.ErrNoFrame
	}
	b.inFrame = false
	b.frames++
	b.mu.Unlock()
	b.record(Call{Op: "EndFrame"})
	return nil
}

func (b *Backend) Resize(width, height int) {
	b.mu.Lock()
	b.width, b.height = width, height
	b.mu.Unlock()
	b.record(Call{Op: "Resize", Args: []uint64{uint64(width), uint64(height)}})
}

func (b *Backend) Release() {
	b.record(Call{Op: "Release"})
}
