// Package wgpu_backend implements renderer.RendererBackend on WebGPU. Deferred contexts are render bundles recorded
// against the main pass's attachment formats, so a bundle finished on a worker goroutine can be executed inside the
// frame's render pass.
package wgpu_backend

import (
	"cmp"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

type backend struct {
	mu  *sync.Mutex
	log logging.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	sampleCount   MSAASampleCount
	forceFallback bool
	clearColor    wgpu.Color

	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	pipelines []*renderPipeline

	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ renderer.RendererBackend = &backend{}

// newBackend applies options over the defaults and checks them. No GPU object is created.
func newBackend(options ...BackendBuilderOption) (*backend, error) {
	b := &backend{
		mu:          &sync.Mutex{},
		log:         logging.New("wgpu"),
		presentMode: wgpu.PresentModeFifo,
		sampleCount: MSAA4x,
		clearColor:  wgpu.Color{R: 0, G: 0, B: 0, A: 1},
	}
	for _, option := range options {
		option(b)
	}
	if !b.sampleCount.valid() {
		b.log.Errorf("rejected msaa sample count %d", b.sampleCount)
		return nil, fmt.Errorf("%w: unsupported msaa sample count %d", common.ErrDeviceCreateFailure, b.sampleCount)
	}
	return b, nil
}

// NewBackend creates the WebGPU instance, adapter, device and surface and configures the surface at the given size.
// It locks the calling goroutine to its OS thread; call it from the goroutine that owns the window.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor from the window
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - options: functional options to configure the backend
//
// Returns:
//   - renderer.RendererBackend: the backend
//   - error: wrapping common.ErrDeviceCreateFailure if no adapter or device is available
func NewBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, options ...BackendBuilderOption) (renderer.RendererBackend, error) {
	b, err := newBackend(options...)
	if err != nil {
		return nil, err
	}
	runtime.LockOSThread()

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallback,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: request adapter: %w", common.ErrDeviceCreateFailure, err)
	}
	b.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Scene Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: request device: %w", common.ErrDeviceCreateFailure, err)
	}
	b.device = device
	b.queue = device.GetQueue()

	if err := b.configureSurface(width, height); err != nil {
		return nil, err
	}
	b.log.Infof("device ready: %dx%d, format %v, msaa %d", width, height, b.surfaceFormat, b.sampleCount)
	return b, nil
}

// configureSurface (re)creates the swapchain configuration and the size dependent attachments. Callers hold mu or
// own b exclusively.
func (b *backend) configureSurface(width, height int) error {
	capabilities := b.surface.GetCapabilities(b.adapter)
	if len(capabilities.Formats) == 0 || len(capabilities.AlphaModes) == 0 {
		return fmt.Errorf("%w: surface reports no formats", common.ErrDeviceCreateFailure)
	}
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	b.releaseAttachments()
	count := uint32(b.sampleCount)
	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}

	if count > 1 {
		tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:         "MSAA Texture",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        b.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("%w: msaa texture: %w", common.ErrDeviceCreateFailure, err)
		}
		view, err := tex.CreateView(nil)
		if err != nil {
			tex.Release()
			return fmt.Errorf("%w: msaa view: %w", common.ErrDeviceCreateFailure, err)
		}
		b.msaaTexture, b.msaaTextureView = tex, view
	}

	depth, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("%w: depth texture: %w", common.ErrDeviceCreateFailure, err)
	}
	depthView, err := depth.CreateView(nil)
	if err != nil {
		depth.Release()
		return fmt.Errorf("%w: depth view: %w", common.ErrDeviceCreateFailure, err)
	}
	b.depthTexture, b.depthTextureView = depth, depthView

	// With MSAA the pass draws into the MSAA view and resolves into the swapchain image set per frame.
	storeOp := wgpu.StoreOpStore
	if count > 1 {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       b.msaaTextureView,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    storeOp,
			ClearValue: b.clearColor,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
	return nil
}

func (b *backend) releaseAttachments() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTexture.Release()
		b.msaaTextureView, b.msaaTexture = nil, nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTexture.Release()
		b.depthTextureView, b.depthTexture = nil, nil
	}
}

func (b *backend) CreateBuffer(label string, usage renderer.BufferUsage, size uint64, data []byte) (renderer.Buffer, error) {
	if uint64(len(data)) > size {
		return nil, fmt.Errorf("buffer %s: %d bytes of data exceed size %d", label, len(data), size)
	}
	var flags wgpu.BufferUsage
	switch usage {
	case renderer.BufferUsageVertex:
		flags = wgpu.BufferUsageVertex
	case renderer.BufferUsageIndex:
		flags = wgpu.BufferUsageIndex
	case renderer.BufferUsageUniform:
		flags = wgpu.BufferUsageUniform
	default:
		return nil, fmt.Errorf("buffer %s: unknown usage %v", label, usage)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Buffer sizes must be a multiple of 4 for queue writes.
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  (size + 3) &^ 3,
		Usage: flags | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		b.queue.WriteBuffer(buf, 0, padded(data))
	}
	return &gpuBuffer{label: label, size: size, buf: buf}, nil
}

func (b *backend) WriteBuffer(rb renderer.Buffer, offset uint64, data []byte) error {
	buf, ok := rb.(*gpuBuffer)
	if !ok {
		return errForeignResource
	}
	if offset+uint64(len(data)) > buf.size {
		return fmt.Errorf("write of %d bytes at %d overflows %s", len(data), offset, buf.label)
	}
	if offset%4 != 0 {
		return fmt.Errorf("write to %s at unaligned offset %d", buf.label, offset)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queue.WriteBuffer(buf.buf, offset, padded(data))
	return nil
}

// padded returns data extended with zeros to a multiple of 4 bytes.
func padded(data []byte) []byte {
	if len(data)%4 == 0 {
		return data
	}
	out := make([]byte, (len(data)+3)&^3)
	copy(out, data)
	return out
}

func (b *backend) CreateTexture(label string, data common.TextureStagingData) (renderer.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	size := wgpu.Extent3D{Width: data.Width, Height: data.Height, DepthOrArrayLayers: 1}
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		Size:          size,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  data.Width * 4,
			RowsPerImage: data.Height,
		},
		&size,
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &gpuTexture{label: label, width: data.Width, height: data.Height, tex: tex, view: view}, nil
}

func (b *backend) CreateSampler(label string, data common.SamplerStagingData) (renderer.Sampler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	samp, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         label,
		AddressModeU:  wgpuAddressMode(data.AddressModeU),
		AddressModeV:  wgpuAddressMode(data.AddressModeV),
		AddressModeW:  wgpuAddressMode(data.AddressModeW),
		MagFilter:     wgpuFilterMode(data.MagFilter),
		MinFilter:     wgpuFilterMode(data.MinFilter),
		MipmapFilter:  wgpuMipmapFilterMode(data.MipmapFilter),
		LodMinClamp:   data.LodMinClamp,
		LodMaxClamp:   cmp.Or(data.LodMaxClamp, 32.0),
		MaxAnisotropy: cmp.Or(data.MaxAnisotropy, 1),
	})
	if err != nil {
		return nil, err
	}
	return &gpuSampler{label: label, samp: samp}, nil
}

func (b *backend) CreateRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.StageVertex)
	fragmentShader := p.Shader(shader.StageFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}
	layout, _ := p.VertexLayout()
	buffers, err := vertexBufferLayout(layout)
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", p.Key(), err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	vs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          vertexShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: vertexShader.Source()},
	})
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          fragmentShader.Key(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: fragmentShader.Source()},
	})
	if err != nil {
		return err
	}
	defer fs.Release()

	handle := &renderPipeline{layouts: make(map[uint32]*wgpu.BindGroupLayout)}
	groups := p.Groups()
	var maxGroup uint32
	if len(groups) > 0 {
		maxGroup = slices.Max(groups) + 1
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup)
	for g := range maxGroup {
		// Unused group slots still need an (empty) layout.
		entries := make([]wgpu.BindGroupLayoutEntry, 0)
		for _, binding := range p.GroupBindings(g) {
			entry, err := bindGroupLayoutEntry(binding)
			if err != nil {
				return fmt.Errorf("pipeline %s group %d: %w", p.Key(), g, err)
			}
			entries = append(entries, entry)
		}
		bgl, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s group %d", p.Key(), g),
			Entries: entries,
		})
		if err != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		bindGroupLayouts[g] = bgl
		handle.layouts[g] = bgl
	}

	handle.layout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Key(),
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}

	depthCompare := wgpu.CompareFunctionLess
	if !p.DepthTestEnabled() {
		depthCompare = wgpu.CompareFunctionAlways
	}

	handle.pipeline, err = b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.Key() + " Render Pipeline",
		Layout: handle.layout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{colorTarget(b.surfaceFormat, p)},
		},
		Primitive: primitiveState(p),
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: p.DepthWriteEnabled(),
			DepthCompare:      depthCompare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
	})
	if err != nil {
		handle.layout.Release()
		for _, l := range handle.layouts {
			l.Release()
		}
		return err
	}

	b.pipelines = append(b.pipelines, handle)
	p.SetHandle(handle)
	return nil
}

func (b *backend) CreateBindGroup(p pipeline.Pipeline, group uint32, label string, entries []renderer.BindGroupEntry) (renderer.BindGroup, error) {
	handle, ok := pipelineHandle(p)
	if !ok {
		return nil, fmt.Errorf("pipeline %s has not been created", p.Key())
	}
	layout, ok := handle.layouts[group]
	if !ok {
		return nil, fmt.Errorf("pipeline %s has no group %d", p.Key(), group)
	}

	gpuEntries := make([]wgpu.BindGroupEntry, 0, len(entries))
	for _, e := range entries {
		entry := wgpu.BindGroupEntry{Binding: e.Binding}
		switch {
		case e.Buffer != nil:
			buf, ok := e.Buffer.(*gpuBuffer)
			if !ok {
				return nil, errForeignResource
			}
			entry.Buffer, entry.Offset, entry.Size = buf.buf, 0, wgpu.WholeSize
		case e.Texture != nil:
			tex, ok := e.Texture.(*gpuTexture)
			if !ok {
				return nil, errForeignResource
			}
			entry.TextureView = tex.view
		case e.Sampler != nil:
			samp, ok := e.Sampler.(*gpuSampler)
			if !ok {
				return nil, errForeignResource
			}
			entry.Sampler = samp.samp
		default:
			return nil, fmt.Errorf("binding %d has no resource", e.Binding)
		}
		gpuEntries = append(gpuEntries, entry)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: gpuEntries,
	})
	if err != nil {
		return nil, err
	}
	return &gpuBindGroup{label: label, group: bg}, nil
}

func (b *backend) BeginFrame() (renderer.CommandEncoder, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface != nil {
		return nil, renderer.ErrFrameInProgress
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}
	enc, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return nil, err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}

	b.frameEncoder = enc
	b.framePass = enc.BeginRenderPass(b.renderPassDescriptor)
	b.frameSurface = surfaceTexture
	b.frameView = view
	return &encoder{rec: passRecorder{b.framePass}}, nil
}

func (b *backend) CreateDeferredContext(label string) (renderer.DeferredContext, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	enc, err := b.device.CreateRenderBundleEncoder(&wgpu.RenderBundleEncoderDescriptor{
		Label:              label,
		ColorFormats:       []wgpu.TextureFormat{b.surfaceFormat},
		DepthStencilFormat: depthFormat,
		SampleCount:        uint32(b.sampleCount),
	})
	if err != nil {
		return nil, err
	}
	return &bundleContext{encoder: encoder{rec: bundleRecorder{enc}}, label: label, bundle: enc}, nil
}

func (b *backend) ExecuteCommandList(list renderer.CommandList) error {
	l, ok := list.(*bundleList)
	if !ok {
		return errForeignResource
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.framePass == nil {
		return renderer.ErrNoFrame
	}
	b.framePass.ExecuteBundles(l.bundle)
	return nil
}

func (b *backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return renderer.ErrNoFrame
	}
	defer b.clearFrame()

	b.framePass.End()
	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish frame: %w", err)
	}
	defer commandBuffer.Release()

	b.queue.Submit(commandBuffer)
	b.surface.Present()
	return nil
}

func (b *backend) clearFrame() {
	b.framePass.Release()
	b.frameEncoder.Release()
	b.frameView.Release()
	b.frameSurface.Release()
	b.framePass, b.frameEncoder, b.frameView, b.frameSurface = nil, nil, nil, nil
}

func (b *backend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.configureSurface(width, height); err != nil {
		b.log.Errorf("resize to %dx%d: %v", width, height, err)
	}
}

func (b *backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass != nil {
		b.framePass.End()
		b.clearFrame()
	}
	for _, p := range b.pipelines {
		p.release()
	}
	b.pipelines = nil
	b.releaseAttachments()
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}
