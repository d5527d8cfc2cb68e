package wgpubackend

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

var (
	// ErrNoFrame is reported when a verb needs a render pass outside BeginFrame/EndFrame.
	ErrNoFrame = errors.New("wgpubackend: no frame in progress")

	// ErrFrameHeld is returned by BeginFrame while the previous surface image is still held.
	ErrFrameHeld = errors.New("wgpubackend: previous frame not yet presented")

	// ErrGLSLProgram is reported when a GLSL program is bound on the WebGPU backend.
	ErrGLSLProgram = errors.New("wgpubackend: GLSL programs are not supported")

	// ErrStorageBinding is reported for programs declaring storage buffers, which no verb can fill.
	ErrStorageBinding = errors.New("wgpubackend: storage bindings are not supported")
)

const (
	depthFormat   = wgpu.TextureFormatDepth24Plus
	colorFormat   = wgpu.TextureFormatRGBA8UnormSrgb
	defaultRing   = 4 << 20
	visibleStages = wgpu.ShaderStageVertex | wgpu.ShaderStageFragment
)

// Backend issues frame verbs through a WebGPU device. Render passes open lazily on the first
// draw after a target bind or clear, and pipelines are cached by the full set of state that
// WebGPU bakes into a render pipeline. Uniform values are staged into one ring buffer per
// frame and addressed with dynamic offsets.
type Backend struct {
	mu  *sync.Mutex
	log *zap.Logger

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	width, height int
	presentMode   PresentMode
	sampleCount   uint32
	forceFallback bool
	msaaView      *wgpu.TextureView
	depthView     *wgpu.TextureView

	encoder     *wgpu.CommandEncoder
	pass        *wgpu.RenderPassEncoder
	surfaceTex  *wgpu.Texture
	surfaceView *wgpu.TextureView

	target     *backend.Target
	clearMask  state.ClearMask
	clearColor []mgl32.Vec4
	clearDepth float32
	viewport   common.Rect
	scissor    state.Scissor

	depth       state.DepthTest
	depthWrite  bool
	blend       state.Blend
	cull        gputypes.CullMode
	drawBuffers state.DrawBuffers
	program     program.Program
	source      vertex.Source
	units       map[uint32]texture.Texture
	pushed      *state.Uniforms

	programs   map[uint64]*programState
	pipelines  map[pipelineKey]*wgpu.RenderPipeline
	bindGroups map[bindGroupKey]*wgpu.BindGroup
	sources    map[uint64]*sourceState
	textures   map[uint64]*textureState
	fallback   texture.Texture

	sampler        *wgpu.Sampler
	compareSampler *wgpu.Sampler

	ring        *wgpu.Buffer
	ringSize    uint64
	staging     []byte
	clipCorrect map[string]bool
	dropped     int
	err         error
}

var (
	_ backend.FrameBackend = &Backend{}
	_ backend.Resizer      = &Backend{}
	_ backend.Releaser     = &Backend{}
)

// New creates a WebGPU device for the given window surface and configures the surface.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor of the window
//   - opts: variadic list of BackendBuilderOption functions
//
// Returns:
//   - *Backend: the backend
//   - error: if no adapter or device could be acquired
func New(surfaceDescriptor *wgpu.SurfaceDescriptor, opts ...BackendBuilderOption) (*Backend, error) {
	runtime.LockOSThread()
	b := &Backend{
		mu:          &sync.Mutex{},
		log:         common.Logger().Named("wgpubackend"),
		sampleCount: 1,
		ringSize:    defaultRing,
		depthWrite:  true,
		drawBuffers: state.DrawBuffersFirst,
		units:       make(map[uint32]texture.Texture),
		pushed:      state.NewUniforms(0),
		programs:    make(map[uint64]*programState),
		pipelines:   make(map[pipelineKey]*wgpu.RenderPipeline),
		bindGroups:  make(map[bindGroupKey]*wgpu.BindGroup),
		sources:     make(map[uint64]*sourceState),
		textures:    make(map[uint64]*textureState),
		fallback:    texture.Fallback(),
		clipCorrect: map[string]bool{"u_view_proj": true, "u_proj": true},
	}
	for _, opt := range opts {
		opt(b)
	}

	b.instance = wgpu.CreateInstance(nil)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)
	adapter, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: b.forceFallback,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: request adapter: %w", err)
	}
	b.adapter = adapter

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label:          "oxy-frame device",
		RequiredLimits: &wgpu.RequiredLimits{Limits: limits},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: request device: %w", err)
	}
	b.device = device
	b.queue = device.GetQueue()

	b.ring, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "uniform ring",
		Size:  b.ringSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: uniform ring: %w", err)
	}
	b.sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "default sampler",
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: sampler: %w", err)
	}
	b.compareSampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "comparison sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
		Compare:       wgpu.CompareFunctionLessEqual,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: comparison sampler: %w", err)
	}

	if err := b.configure(); err != nil {
		return nil, err
	}
	b.log.Info("WebGPU backend ready",
		zap.Int("width", b.width), zap.Int("height", b.height),
		zap.Uint32("samples", b.sampleCount))
	return b, nil
}

// Err returns the first error raised while issuing verbs. Verbs cannot return errors, so they
// are logged and kept here.
func (b *Backend) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Dropped returns how many draws were refused because the uniform ring was full.
func (b *Backend) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

func (b *Backend) fail(err error) {
	b.log.Error("verb failed", zap.Error(err))
	if b.err == nil {
		b.err = err
	}
}

// configure sizes the surface and its MSAA and depth attachments.
func (b *Backend) configure() error {
	if b.width <= 0 || b.height <= 0 {
		return nil
	}
	caps := b.surface.GetCapabilities(b.adapter)
	if len(caps.Formats) == 0 {
		return fmt.Errorf("wgpubackend: surface reports no formats")
	}
	b.surfaceFormat = caps.Formats[0]
	mode := wgpu.PresentModeImmediate
	if b.presentMode == PresentModeVSync {
		mode = wgpu.PresentModeFifo
	}
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(b.width),
		Height:      uint32(b.height),
		PresentMode: mode,
		AlphaMode:   caps.AlphaModes[0],
	})

	if b.msaaView != nil {
		b.msaaView.Release()
		b.msaaView = nil
	}
	if b.depthView != nil {
		b.depthView.Release()
	}
	var err error
	if b.sampleCount > 1 {
		if b.msaaView, err = b.attachment("msaa", b.surfaceFormat, b.sampleCount, wgpu.TextureUsageRenderAttachment); err != nil {
			return err
		}
	}
	b.depthView, err = b.attachment("depth", depthFormat, b.sampleCount, wgpu.TextureUsageRenderAttachment)
	return err
}

func (b *Backend) attachment(label string, format wgpu.TextureFormat, samples uint32, usage wgpu.TextureUsage) (*wgpu.TextureView, error) {
	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(b.width),
			Height:             uint32(b.height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   samples,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: %s attachment: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: %s view: %w", label, err)
	}
	return view, nil
}

func (b *Backend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if width == b.width && height == b.height {
		return
	}
	b.width, b.height = width, height
	if err := b.configure(); err != nil {
		b.fail(err)
	}
}

func (b *Backend) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surfaceTex != nil {
		return ErrFrameHeld
	}
	tex, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("wgpubackend: acquire surface: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("wgpubackend: surface view: %w", err)
	}
	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		tex.Release()
		return fmt.Errorf("wgpubackend: command encoder: %w", err)
	}
	b.surfaceTex, b.surfaceView, b.encoder = tex, view, encoder
	b.staging = b.staging[:0]
	b.target = nil
	b.clearMask = 0
	return nil
}

// EndFrame closes the open pass, uploads the frame's uniforms, submits and presents.
func (b *Backend) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder == nil {
		return ErrNoFrame
	}
	// A frame with no draws still honours its clear.
	if b.clearMask != 0 {
		b.ensurePass()
	}
	b.endPass()
	defer b.releaseFrame()

	if n := alignUp(uint64(len(b.staging)), 4); n > 0 {
		b.staging = append(b.staging, make([]byte, n-uint64(len(b.staging)))...)
		b.queue.WriteBuffer(b.ring, 0, b.staging)
	}
	cmd, err := b.encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("wgpubackend: finish frame: %w", err)
	}
	b.queue.Submit(cmd)
	cmd.Release()
	b.surface.Present()
	return nil
}

func (b *Backend) releaseFrame() {
	b.encoder.Release()
	b.surfaceView.Release()
	b.surfaceTex.Release()
	b.encoder, b.surfaceView, b.surfaceTex = nil, nil, nil
}

func (b *Backend) endPass() {
	if b.pass == nil {
		return
	}
	b.pass.End()
	b.pass.Release()
	b.pass = nil
}

func (b *Backend) BindTarget(t *backend.Target) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endPass()
	b.target = t
	b.clearMask = 0
}

func (b *Backend) SetViewport(r common.Rect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewport = r
	if b.pass != nil {
		b.applyViewport()
	}
}

// Clear records a clear for the next pass. Clears become load operations, so an open pass is
// ended and the next draw opens a fresh one.
func (b *Backend) Clear(mask state.ClearMask, colors []mgl32.Vec4, depth float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endPass()
	b.clearMask = mask
	b.clearColor = append(b.clearColor[:0], colors...)
	b.clearDepth = depth
}

func (b *Backend) SetDrawBuffers(mask state.DrawBuffers) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.drawBuffers = mask
}

func (b *Backend) SetDepthTest(d state.DepthTest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.depth = d
}

func (b *Backend) SetDepthWrite(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.depthWrite = enabled
}

func (b *Backend) SetBlend(bl state.Blend) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blend = bl
}

func (b *Backend) SetCullMode(mode gputypes.CullMode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cull = mode
}

func (b *Backend) BindProgram(p program.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.program = p
	b.pushed = state.NewUniforms(len(p.Uniforms()))
}

func (b *Backend) BindTexture(unit uint32, t texture.Texture) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.units[unit] = t
}

func (b *Backend) FallbackTexture() texture.Texture {
	return b.fallback
}

func (b *Backend) BindVertexSource(s vertex.Source) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.source = s
}

func (b *Backend) UnbindVertexSource(vertex.Source) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.source = nil
}

func (b *Backend) SetScissor(s state.Scissor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.scissor = s
	if b.pass != nil {
		b.applyScissor()
	}
}

func (b *Backend) PushUniforms(u *state.Uniforms) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pushed.Merge(u)
}

func (b *Backend) Draw(topo gputypes.PrimitiveTopology, r state.VertexRange, indexed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.program == nil || b.source == nil {
		b.fail(fmt.Errorf("wgpubackend: draw without program or vertex source"))
		return
	}
	if !b.ensurePass() {
		return
	}
	ps, err := b.loadProgram(b.program)
	if err != nil {
		b.fail(err)
		return
	}
	src, err := b.loadSource(b.source)
	if err != nil {
		b.fail(err)
		return
	}
	pipeline, err := b.pipeline(ps, src, topo)
	if err != nil {
		b.fail(err)
		return
	}

	offsets, ok := b.stageUniforms(ps)
	if !ok {
		return
	}
	b.pass.SetPipeline(pipeline)
	for g := range ps.layouts {
		group, err := b.bindGroup(ps, uint32(g))
		if err != nil {
			b.fail(err)
			return
		}
		b.pass.SetBindGroup(uint32(g), group, offsets[g])
	}
	b.pass.SetVertexBuffer(0, src.vertices, 0, wgpu.WholeSize)
	if indexed && src.indices != nil {
		b.pass.SetIndexBuffer(src.indices, src.indexFormat, 0, wgpu.WholeSize)
		b.pass.DrawIndexed(r.Count, 1, r.Start, r.BaseVertex, 0)
		return
	}
	b.pass.Draw(r.Count, 1, r.Start, 0)
}

// stageUniforms packs every uniform buffer of the bound program into the frame's staging
// area and returns the dynamic offsets per bind group in binding order. It refuses the draw
// when the ring is full.
func (b *Backend) stageUniforms(ps *programState) ([][]uint32, bool) {
	offsets := make([][]uint32, len(ps.layouts))
	for _, ub := range ps.uniforms {
		size := alignUp(max(ub.Size, 16), 16)
		off := alignUp(uint64(len(b.staging)), uniformAlign)
		if off+size > b.ringSize {
			b.dropped++
			b.log.Warn("uniform ring full, draw dropped",
				zap.String("program", b.program.Name()),
				zap.Uint64("capacity", b.ringSize))
			return nil, false
		}
		if grow := int(off+size) - len(b.staging); grow > 0 {
			b.staging = append(b.staging, make([]byte, grow)...)
		}
		packBlock(b.staging[off:off+size], ub, b.pushed, b.clipCorrect)
		offsets[ub.Group] = append(offsets[ub.Group], uint32(off))
	}
	return offsets, true
}

// ensurePass opens a render pass on the bound target if none is open.
func (b *Backend) ensurePass() bool {
	if b.pass != nil {
		return true
	}
	if b.encoder == nil {
		b.fail(ErrNoFrame)
		return false
	}
	desc, err := b.passDescriptor()
	if err != nil {
		b.fail(err)
		return false
	}
	b.pass = b.encoder.BeginRenderPass(desc)
	b.clearMask = 0
	b.applyViewport()
	b.applyScissor()
	return true
}

func (b *Backend) passDescriptor() (*wgpu.RenderPassDescriptor, error) {
	load := func(bit state.ClearMask) wgpu.LoadOp {
		if b.clearMask&bit != 0 {
			return wgpu.LoadOpClear
		}
		return wgpu.LoadOpLoad
	}
	clear := func(i int) wgpu.Color {
		if len(b.clearColor) == 0 {
			return wgpu.Color{}
		}
		c := b.clearColor[min(i, len(b.clearColor)-1)]
		return wgpu.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])}
	}
	depthAttachment := func(view *wgpu.TextureView) *wgpu.RenderPassDepthStencilAttachment {
		return &wgpu.RenderPassDepthStencilAttachment{
			View:            view,
			DepthLoadOp:     load(state.ClearDepth),
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: b.clearDepth,
		}
	}

	if b.target == nil {
		color := wgpu.RenderPassColorAttachment{
			View:       b.surfaceView,
			LoadOp:     load(state.ClearColor),
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clear(0),
		}
		if b.msaaView != nil {
			color.View, color.ResolveTarget = b.msaaView, b.surfaceView
		}
		return &wgpu.RenderPassDescriptor{
			ColorAttachments:       []wgpu.RenderPassColorAttachment{color},
			DepthStencilAttachment: depthAttachment(b.depthView),
		}, nil
	}

	desc := &wgpu.RenderPassDescriptor{Label: b.target.Label}
	for i, c := range b.target.Colors {
		ts, err := b.loadTexture(c, false)
		if err != nil {
			return nil, err
		}
		desc.ColorAttachments = append(desc.ColorAttachments, wgpu.RenderPassColorAttachment{
			View:       ts.view,
			LoadOp:     load(state.ClearColor),
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: clear(i),
		})
	}
	if b.target.Depth != nil {
		ts, err := b.loadTexture(b.target.Depth, true)
		if err != nil {
			return nil, err
		}
		desc.DepthStencilAttachment = depthAttachment(ts.view)
	}
	return desc, nil
}

// targetSize returns the pixel size of the bound target.
func (b *Backend) targetSize() (int32, int32) {
	switch {
	case b.target == nil:
		return int32(b.width), int32(b.height)
	case len(b.target.Colors) > 0:
		return int32(b.target.Colors[0].Width()), int32(b.target.Colors[0].Height())
	case b.target.Depth != nil:
		return int32(b.target.Depth.Width()), int32(b.target.Depth.Height())
	}
	return 0, 0
}

// applyViewport maps the lower-left origin viewport onto WebGPU's top-left framebuffer space.
func (b *Backend) applyViewport() {
	w, h := b.targetSize()
	r := clampRect(b.viewport, w, h)
	if r.Empty() {
		return
	}
	b.pass.SetViewport(float32(r.X), float32(h-r.Y-r.Height), float32(r.Width), float32(r.Height), 0, 1)
}

func (b *Backend) applyScissor() {
	w, h := b.targetSize()
	r := common.Rect{Width: w, Height: h}
	if b.scissor.Enabled {
		r = clampRect(b.scissor.Rect, w, h)
	}
	b.pass.SetScissorRect(uint32(r.X), uint32(h-r.Y-r.Height), uint32(r.Width), uint32(r.Height))
}

// clampRect limits r to a w by h framebuffer. An empty r covers the whole framebuffer.
func clampRect(r common.Rect, w, h int32) common.Rect {
	if r.Empty() {
		return common.Rect{Width: w, Height: h}
	}
	x0, y0 := max(r.X, 0), max(r.Y, 0)
	x1, y1 := min(r.X+r.Width, w), min(r.Y+r.Height, h)
	if x1 <= x0 || y1 <= y0 {
		return common.Rect{}
	}
	return common.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.endPass()
	if b.encoder != nil {
		b.releaseFrame()
	}
	for _, p := range b.pipelines {
		p.Release()
	}
	for _, g := range b.bindGroups {
		g.Release()
	}
	for _, ps := range b.programs {
		ps.release()
	}
	for _, s := range b.sources {
		s.release()
	}
	for _, t := range b.textures {
		t.release()
	}
	clear(b.pipelines)
	clear(b.bindGroups)
	clear(b.programs)
	clear(b.sources)
	clear(b.textures)
	if b.msaaView != nil {
		b.msaaView.Release()
	}
	if b.depthView != nil {
		b.depthView.Release()
	}
	b.sampler.Release()
	b.compareSampler.Release()
	b.ring.Release()
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}
