package wgpu_backend

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

var errForeignResource = errors.New("resource not created by the wgpu backend")

type gpuBuffer struct {
	label string
	size  uint64
	buf   *wgpu.Buffer
	once  sync.Once
}

func (b *gpuBuffer) Label() string { return b.label }
func (b *gpuBuffer) Size() uint64  { return b.size }
func (b *gpuBuffer) Release()      { b.once.Do(b.buf.Release) }

type gpuTexture struct {
	label         string
	width, height uint32
	tex           *wgpu.Texture
	view          *wgpu.TextureView
	once          sync.Once
}

func (t *gpuTexture) Label() string  { return t.label }
func (t *gpuTexture) Width() uint32  { return t.width }
func (t *gpuTexture) Height() uint32 { return t.height }

func (t *gpuTexture) Release() {
	t.once.Do(func() {
		t.view.Release()
		t.tex.Release()
	})
}

type gpuSampler struct {
	label string
	samp  *wgpu.Sampler
	once  sync.Once
}

func (s *gpuSampler) Label() string { return s.label }
func (s *gpuSampler) Release()      { s.once.Do(s.samp.Release) }

type gpuBindGroup struct {
	label string
	group *wgpu.BindGroup
	once  sync.Once
}

func (g *gpuBindGroup) Label() string { return g.label }
func (g *gpuBindGroup) Release()      { g.once.Do(g.group.Release) }

// renderPipeline is the handle stored on a pipeline.Pipeline.
type renderPipeline struct {
	pipeline *wgpu.RenderPipeline
	layouts  map[uint32]*wgpu.BindGroupLayout
	layout   *wgpu.PipelineLayout
}

func (p *renderPipeline) release() {
	p.pipeline.Release()
	p.layout.Release()
	for _, l := range p.layouts {
		l.Release()
	}
}

func pipelineHandle(p pipeline.Pipeline) (*renderPipeline, bool) {
	if p == nil {
		return nil, false
	}
	h, ok := p.Handle().(*renderPipeline)
	return h, ok && h != nil
}

// recorder is the subset of commands shared by a render pass and a render bundle encoder.
// DrawIndexed always starts at the first index, vertex and instance.
type recorder interface {
	SetPipeline(p *wgpu.RenderPipeline)
	SetBindGroup(groupIndex uint32, group *wgpu.BindGroup, dynamicOffsets []uint32)
	SetVertexBuffer(slot uint32, buffer *wgpu.Buffer, offset uint64, size uint64)
	SetIndexBuffer(buffer *wgpu.Buffer, format wgpu.IndexFormat, offset uint64, size uint64)
	DrawIndexed(indexCount, instanceCount uint32)
}

// passRecorder records straight into the frame's render pass.
type passRecorder struct {
	*wgpu.RenderPassEncoder
}

func (r passRecorder) DrawIndexed(indexCount, instanceCount uint32) {
	r.RenderPassEncoder.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

// bundleRecorder records into a render bundle. Its baseVertex is unsigned, unlike the pass encoder's.
type bundleRecorder struct {
	*wgpu.RenderBundleEncoder
}

func (r bundleRecorder) DrawIndexed(indexCount, instanceCount uint32) {
	r.RenderBundleEncoder.DrawIndexed(indexCount, instanceCount, 0, 0, 0)
}

var (
	_ recorder = passRecorder{}
	_ recorder = bundleRecorder{}
)

// encoder adapts a recorder to renderer.CommandEncoder. Handles from another backend are ignored.
type encoder struct {
	rec recorder
}

func (e *encoder) SetPipeline(p pipeline.Pipeline) {
	if h, ok := pipelineHandle(p); ok {
		e.rec.SetPipeline(h.pipeline)
	}
}

func (e *encoder) SetBindGroup(index uint32, bg renderer.BindGroup) {
	if g, ok := bg.(*gpuBindGroup); ok {
		e.rec.SetBindGroup(index, g.group, nil)
	}
}

func (e *encoder) SetVertexBuffer(b renderer.Buffer) {
	if buf, ok := b.(*gpuBuffer); ok {
		e.rec.SetVertexBuffer(0, buf.buf, 0, wgpu.WholeSize)
	}
}

func (e *encoder) SetIndexBuffer(b renderer.Buffer) {
	if buf, ok := b.(*gpuBuffer); ok {
		e.rec.SetIndexBuffer(buf.buf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	}
}

func (e *encoder) DrawIndexed(indexCount, instanceCount uint32) {
	e.rec.DrawIndexed(indexCount, instanceCount)
}

// bundleContext records into a render bundle whose attachment formats match the main pass.
type bundleContext struct {
	encoder
	label    string
	bundle   *wgpu.RenderBundleEncoder
	finished bool
	once     sync.Once
}

var _ renderer.DeferredContext = &bundleContext{}

func (c *bundleContext) Finish() (renderer.CommandList, error) {
	if c.finished {
		return nil, errors.New("render bundle already finished")
	}
	c.finished = true
	bundle := c.bundle.Finish(&wgpu.RenderBundleDescriptor{Label: c.label})
	c.Release()
	if bundle == nil {
		return nil, errors.New("render bundle " + c.label + " could not be finished")
	}
	return &bundleList{bundle: bundle}, nil
}

func (c *bundleContext) Release() {
	c.once.Do(c.bundle.Release)
}

type bundleList struct {
	bundle *wgpu.RenderBundle
	once   sync.Once
}

func (l *bundleList) Release() { l.once.Do(l.bundle.Release) }
