package wgpubackend

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gogpu/gputypes"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

// programState holds the device objects built from one revision of a program.
type programState struct {
	revision uint64
	vertex   *wgpu.ShaderModule
	fragment *wgpu.ShaderModule
	layouts  []*wgpu.BindGroupLayout
	layout   *wgpu.PipelineLayout
	// groups lists each bind group's bindings in binding order.
	groups   [][]program.Binding
	uniforms []program.Binding
	// units maps a texture binding to the texture unit it reads, in reflection order.
	units map[[2]uint32]uint32
}

func (ps *programState) release() {
	if ps.layout != nil {
		ps.layout.Release()
	}
	for _, l := range ps.layouts {
		l.Release()
	}
	ps.vertex.Release()
	if ps.fragment != ps.vertex {
		ps.fragment.Release()
	}
}

// sourceState holds the buffers uploaded for a vertex source.
type sourceState struct {
	vertices    *wgpu.Buffer
	indices     *wgpu.Buffer
	indexFormat wgpu.IndexFormat
	layout      wgpu.VertexBufferLayout
	signature   string
}

func (s *sourceState) release() {
	s.vertices.Release()
	if s.indices != nil {
		s.indices.Release()
	}
}

type textureState struct {
	tex  *wgpu.Texture
	view *wgpu.TextureView
}

func (t *textureState) release() {
	t.view.Release()
	t.tex.Release()
}

// pipelineKey is every piece of state a render pipeline bakes in.
type pipelineKey struct {
	program     uint64
	revision    uint64
	target      *backend.Target
	blend       state.Blend
	depth       state.DepthTest
	depthWrite  bool
	cull        gputypes.CullMode
	drawBuffers state.DrawBuffers
	topology    gputypes.PrimitiveTopology
	stripIndex  wgpu.IndexFormat
	source      string
}

type bindGroupKey struct {
	program  uint64
	revision uint64
	group    uint32
	textures string
}

// loadProgram returns the device objects for p, rebuilding them when p has been reloaded.
// A rebuild that fails keeps the previous revision in use.
func (b *Backend) loadProgram(p program.Program) (*programState, error) {
	old, ok := b.programs[p.ID()]
	if ok && old.revision == p.Revision() {
		return old, nil
	}
	ps, err := b.buildProgram(p)
	if err != nil {
		if ok {
			b.log.Warn("program rebuild failed, keeping previous revision",
				zap.String("program", p.Name()), zap.Error(err))
			return old, nil
		}
		return nil, err
	}
	if ok {
		b.purgeProgram(p.ID())
		old.release()
	}
	b.programs[p.ID()] = ps
	b.log.Debug("program built", zap.String("program", p.Name()), zap.Uint64("revision", ps.revision))
	return ps, nil
}

// purgeProgram drops cached pipelines and bind groups of every revision of a program.
func (b *Backend) purgeProgram(id uint64) {
	for k, p := range b.pipelines {
		if k.program == id {
			p.Release()
			delete(b.pipelines, k)
		}
	}
	for k, g := range b.bindGroups {
		if k.program == id {
			g.Release()
			delete(b.bindGroups, k)
		}
	}
}

func (b *Backend) buildProgram(p program.Program) (*programState, error) {
	if p.Language() != program.LanguageWGSL {
		return nil, fmt.Errorf("%w: %s", ErrGLSLProgram, p.Name())
	}
	if len(p.StorageBuffers()) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrStorageBinding, p.Name())
	}
	ps := &programState{revision: p.Revision(), units: make(map[[2]uint32]uint32)}

	vsrc, fsrc := p.Source(program.StageVertex), p.Source(program.StageFragment)
	var err error
	if ps.vertex, err = b.shaderModule(p.Name()+" vertex", vsrc); err != nil {
		return nil, err
	}
	ps.fragment = ps.vertex
	if fsrc != "" && fsrc != vsrc {
		if ps.fragment, err = b.shaderModule(p.Name()+" fragment", fsrc); err != nil {
			ps.vertex.Release()
			return nil, err
		}
	}

	for i, s := range p.Samplers() {
		ps.units[[2]uint32{s.Group, s.Binding}] = uint32(i)
	}
	bindings := slices.Clone(p.Bindings())
	slices.SortFunc(bindings, func(a, c program.Binding) int {
		return cmp.Or(cmp.Compare(a.Group, c.Group), cmp.Compare(a.Binding, c.Binding))
	})
	for _, bd := range bindings {
		for int(bd.Group) >= len(ps.groups) {
			ps.groups = append(ps.groups, nil)
		}
		ps.groups[bd.Group] = append(ps.groups[bd.Group], bd)
		if bd.Kind == program.BindingUniform {
			ps.uniforms = append(ps.uniforms, bd)
		}
	}

	for g, group := range ps.groups {
		entries := make([]wgpu.BindGroupLayoutEntry, 0, len(group))
		for _, bd := range group {
			entry, err := layoutEntry(bd)
			if err != nil {
				ps.release()
				return nil, fmt.Errorf("wgpubackend: program %s: %w", p.Name(), err)
			}
			entries = append(entries, entry)
		}
		layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label:   p.Name() + " group " + strconv.Itoa(g),
			Entries: entries,
		})
		if err != nil {
			ps.release()
			return nil, fmt.Errorf("wgpubackend: program %s: bind group layout %d: %w", p.Name(), g, err)
		}
		ps.layouts = append(ps.layouts, layout)
	}
	ps.layout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.Name() + " layout",
		BindGroupLayouts: ps.layouts,
	})
	if err != nil {
		ps.release()
		return nil, fmt.Errorf("wgpubackend: program %s: pipeline layout: %w", p.Name(), err)
	}
	return ps, nil
}

func (b *Backend) shaderModule(label, code string) (*wgpu.ShaderModule, error) {
	m, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: code},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: shader %s: %w", label, err)
	}
	return m, nil
}

// layoutEntry describes one reflected binding. Uniform buffers take dynamic offsets into the
// frame's uniform ring.
func layoutEntry(bd program.Binding) (wgpu.BindGroupLayoutEntry, error) {
	e := wgpu.BindGroupLayoutEntry{Binding: bd.Binding, Visibility: visibleStages}
	switch bd.Kind {
	case program.BindingUniform:
		e.Buffer = wgpu.BufferBindingLayout{
			Type:             wgpu.BufferBindingTypeUniform,
			HasDynamicOffset: true,
			MinBindingSize:   alignUp(max(bd.Size, 16), 16),
		}
	case program.BindingTexture:
		e.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeFloat,
			ViewDimension: wgpu.TextureViewDimension2D,
		}
	case program.BindingDepthTexture:
		e.Texture = wgpu.TextureBindingLayout{
			SampleType:    wgpu.TextureSampleTypeDepth,
			ViewDimension: wgpu.TextureViewDimension2D,
		}
	case program.BindingSampler:
		e.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
	case program.BindingComparisonSampler:
		e.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeComparison}
	default:
		return e, fmt.Errorf("binding %s (%d/%d): unsupported kind %d", bd.Name, bd.Group, bd.Binding, bd.Kind)
	}
	return e, nil
}

// bindGroup returns the bind group for group g of the bound program and its textures.
func (b *Backend) bindGroup(ps *programState, g uint32) (*wgpu.BindGroup, error) {
	group := ps.groups[g]
	key := bindGroupKey{program: b.program.ID(), revision: ps.revision, group: g}
	var ids []byte
	for _, bd := range group {
		if bd.Kind == program.BindingTexture || bd.Kind == program.BindingDepthTexture {
			ids = strconv.AppendUint(ids, b.unitTexture(ps, bd).ID(), 16)
			ids = append(ids, ',')
		}
	}
	key.textures = string(ids)
	if bg, ok := b.bindGroups[key]; ok {
		return bg, nil
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(group))
	for _, bd := range group {
		e := wgpu.BindGroupEntry{Binding: bd.Binding}
		switch bd.Kind {
		case program.BindingUniform:
			e.Buffer, e.Size = b.ring, alignUp(max(bd.Size, 16), 16)
		case program.BindingTexture, program.BindingDepthTexture:
			ts, err := b.loadTexture(b.unitTexture(ps, bd), bd.Kind == program.BindingDepthTexture)
			if err != nil {
				return nil, err
			}
			e.TextureView = ts.view
		case program.BindingSampler:
			e.Sampler = b.sampler
		case program.BindingComparisonSampler:
			e.Sampler = b.compareSampler
		}
		entries = append(entries, e)
	}
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   b.program.Name() + " group " + strconv.Itoa(int(g)),
		Layout:  ps.layouts[g],
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: program %s: bind group %d: %w", b.program.Name(), g, err)
	}
	b.bindGroups[key] = bg
	return bg, nil
}

// unitTexture returns the texture bound to the unit a texture binding reads, or the fallback.
func (b *Backend) unitTexture(ps *programState, bd program.Binding) texture.Texture {
	if t, ok := b.units[ps.units[[2]uint32{bd.Group, bd.Binding}]]; ok && t != nil {
		return t
	}
	return b.fallback
}

func (b *Backend) loadSource(s vertex.Source) (*sourceState, error) {
	if ss, ok := b.sources[s.ID()]; ok {
		return ss, nil
	}
	ss := &sourceState{
		indexFormat: indexFormat(s.IndexFormat()),
		signature:   strconv.FormatUint(uint64(s.Stride()), 10),
		layout: wgpu.VertexBufferLayout{
			ArrayStride: uint64(s.Stride()),
			StepMode:    wgpu.VertexStepModeVertex,
		},
	}
	for _, a := range s.Layout() {
		ss.layout.Attributes = append(ss.layout.Attributes, wgpu.VertexAttribute{
			Format:         vertexFormat(a.Format),
			Offset:         uint64(a.Offset),
			ShaderLocation: a.Location,
		})
		ss.signature += fmt.Sprintf(";%d:%d@%d", a.Location, a.Format, a.Offset)
	}
	var err error
	if ss.vertices, err = b.upload(s.Label()+" vertices", s.Vertices(), wgpu.BufferUsageVertex); err != nil {
		return nil, err
	}
	if s.Indexed() {
		if ss.indices, err = b.upload(s.Label()+" indices", s.Indices(), wgpu.BufferUsageIndex); err != nil {
			ss.vertices.Release()
			return nil, err
		}
	}
	b.sources[s.ID()] = ss
	return ss, nil
}

// upload creates a buffer holding data, padded to the 4 byte copy alignment.
func (b *Backend) upload(label string, data []byte, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	size := alignUp(max(uint64(len(data)), 4), 4)
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: buffer %s: %w", label, err)
	}
	if uint64(len(data)) < size {
		padded := make([]byte, size)
		copy(padded, data)
		data = padded
	}
	b.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// loadTexture returns the device texture for t, creating it on first use. Colour textures can
// be sampled and rendered into. Pixel rows are uploaded in stored order, so texture
// coordinates address the same texels as on the GL backend.
func (b *Backend) loadTexture(t texture.Texture, depth bool) (*textureState, error) {
	if ts, ok := b.textures[t.ID()]; ok {
		return ts, nil
	}
	w, h := uint32(max(t.Width(), 1)), uint32(max(t.Height(), 1))
	desc := &wgpu.TextureDescriptor{
		Label:     t.Label(),
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst | wgpu.TextureUsageRenderAttachment,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              w,
			Height:             h,
			DepthOrArrayLayers: 1,
		},
		Format:        colorFormat,
		MipLevelCount: 1,
		SampleCount:   1,
	}
	if depth {
		desc.Format = depthFormat
		desc.Usage = wgpu.TextureUsageTextureBinding | wgpu.TextureUsageRenderAttachment
	}
	tex, err := b.device.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: texture %s: %w", t.Label(), err)
	}
	if px := t.Pixels(); !depth && uint64(len(px)) == uint64(w)*uint64(h)*4 {
		b.queue.WriteTexture(
			&wgpu.ImageCopyTexture{
				Texture:  tex,
				MipLevel: 0,
				Origin:   wgpu.Origin3D{},
				Aspect:   wgpu.TextureAspectAll,
			},
			px,
			&wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  w * 4,
				RowsPerImage: h,
			},
			&wgpu.Extent3D{
				Width:              w,
				Height:             h,
				DepthOrArrayLayers: 1,
			},
		)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("wgpubackend: texture view %s: %w", t.Label(), err)
	}
	ts := &textureState{tex: tex, view: view}
	b.textures[t.ID()] = ts
	return ts, nil
}

// pipeline returns the render pipeline for the current state, creating it on a cache miss.
func (b *Backend) pipeline(ps *programState, src *sourceState, topo gputypes.PrimitiveTopology) (*wgpu.RenderPipeline, error) {
	key := pipelineKey{
		program:     b.program.ID(),
		revision:    ps.revision,
		target:      b.target,
		blend:       b.blend,
		depth:       b.depth,
		depthWrite:  b.depthWrite,
		cull:        b.cull,
		drawBuffers: b.drawBuffers,
		topology:    topo,
		source:      src.signature,
	}
	if isStrip(topo) {
		key.stripIndex = src.indexFormat
	}
	if p, ok := b.pipelines[key]; ok {
		return p, nil
	}

	samples := uint32(1)
	var formats []wgpu.TextureFormat
	hasDepth := true
	if b.target == nil {
		samples = b.sampleCount
		formats = []wgpu.TextureFormat{b.surfaceFormat}
	} else {
		formats = make([]wgpu.TextureFormat, len(b.target.Colors))
		for i := range formats {
			formats[i] = colorFormat
		}
		hasDepth = b.target.Depth != nil
	}
	targets := make([]wgpu.ColorTargetState, len(formats))
	for i, f := range formats {
		mask := wgpu.ColorWriteMaskNone
		if b.drawBuffers.Enabled(i) {
			mask = wgpu.ColorWriteMaskAll
		}
		targets[i] = wgpu.ColorTargetState{Format: f, Blend: blendState(b.blend), WriteMask: mask}
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  b.program.Name() + " pipeline",
		Layout: ps.layout,
		Vertex: wgpu.VertexState{
			Module:     ps.vertex,
			EntryPoint: b.program.EntryPoint(program.StageVertex),
			Buffers:    []wgpu.VertexBufferLayout{src.layout},
		},
		Fragment: &wgpu.FragmentState{
			Module:     ps.fragment,
			EntryPoint: b.program.EntryPoint(program.StageFragment),
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:         topology(topo),
			StripIndexFormat: key.stripIndex,
			FrontFace:        wgpu.FrontFaceCCW,
			CullMode:         cullMode(b.cull),
		},
		Multisample: wgpu.MultisampleState{
			Count: samples,
			Mask:  0xFFFFFFFF,
		},
	}
	if hasDepth {
		compare := wgpu.CompareFunctionAlways
		if b.depth.Enabled {
			compare = compareFunction(b.depth.Func)
		}
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: b.depthWrite && b.depth.Enabled,
			DepthCompare:      compare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}
	p, err := b.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("wgpubackend: pipeline %s: %w", b.program.Name(), err)
	}
	b.pipelines[key] = p
	b.log.Debug("pipeline cache miss", zap.String("program", b.program.Name()), zap.Int("cached", len(b.pipelines)))
	return p, nil
}
