package glbackend

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"
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

// ErrWGSLProgram is reported when a WGSL program is bound on the GL backend.
var ErrWGSLProgram = errors.New("glbackend: WGSL programs are not supported")

// glProgram is a linked program and its uniform location cache.
type glProgram struct {
	handle    uint32
	revision  uint64
	locations map[string]int32
}

// glSource is the vertex array and buffers created for a vertex source.
type glSource struct {
	vao, vbo, ebo uint32
	indexType     uint32
	indexSize     uint32
}

// glTarget is a framebuffer object and how many colour attachments it carries.
type glTarget struct {
	fbo    uint32
	colors int
}

// Backend issues frame verbs through an OpenGL 4.1 core context. Device objects are created
// lazily the first time a resource is bound and cached by resource ID. Every method must be
// called on the thread that owns the context.
type Backend struct {
	log *zap.Logger

	width, height int
	skipInit      bool

	programs map[uint64]*glProgram
	sources  map[uint64]*glSource
	textures map[uint64]uint32
	targets  map[*backend.Target]*glTarget

	fallback    texture.Texture
	bound       *glProgram
	boundTarget *glTarget
	boundSource *glSource
	depthWrite  bool
	err         error
}

var (
	_ backend.Backend  = &Backend{}
	_ backend.Resizer  = &Backend{}
	_ backend.Releaser = &Backend{}
)

// New loads GL function pointers for the current context and returns a Backend.
//
// Parameters:
//   - opts: variadic list of BackendBuilderOption functions
//
// Returns:
//   - *Backend: the backend
//   - error: if GL could not be initialised
func New(opts ...BackendBuilderOption) (*Backend, error) {
	runtime.LockOSThread()
	b := &Backend{
		log:        common.Logger().Named("glbackend"),
		programs:   make(map[uint64]*glProgram),
		sources:    make(map[uint64]*glSource),
		textures:   make(map[uint64]uint32),
		targets:    make(map[*backend.Target]*glTarget),
		fallback:   texture.Fallback(),
		depthWrite: true,
	}
	for _, opt := range opts {
		opt(b)
	}
	if !b.skipInit {
		if err := gl.Init(); err != nil {
			return nil, fmt.Errorf("glbackend: init: %w", err)
		}
	}
	b.log.Info("OpenGL backend ready", zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))))
	gl.FrontFace(gl.CCW)
	return b, nil
}

// Err returns the first error raised while issuing verbs, such as a shader that failed to
// compile. Verbs cannot return errors, so they are logged and kept here.
func (b *Backend) Err() error {
	return b.err
}

func (b *Backend) fail(err error) {
	b.log.Error("verb failed", zap.Error(err))
	if b.err == nil {
		b.err = err
	}
}

func (b *Backend) Resize(width, height int) {
	b.width, b.height = width, height
}

func (b *Backend) BindTarget(t *backend.Target) {
	if t == nil {
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
		b.boundTarget = nil
		return
	}
	gt, ok := b.targets[t]
	if !ok {
		var err error
		if gt, err = b.createTarget(t); err != nil {
			b.fail(err)
			return
		}
		b.targets[t] = gt
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, gt.fbo)
	b.boundTarget = gt
}

func (b *Backend) createTarget(t *backend.Target) (*glTarget, error) {
	gt := &glTarget{colors: len(t.Colors)}
	gl.GenFramebuffers(1, &gt.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, gt.fbo)
	buffers := make([]uint32, len(t.Colors))
	for i, c := range t.Colors {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0+uint32(i), gl.TEXTURE_2D, b.texture(c), 0)
		buffers[i] = gl.COLOR_ATTACHMENT0 + uint32(i)
	}
	if t.Depth != nil {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, b.depthTexture(t.Depth), 0)
	}
	if len(buffers) > 0 {
		gl.DrawBuffers(int32(len(buffers)), &buffers[0])
	} else {
		gl.DrawBuffer(gl.NONE)
	}
	if status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER); status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &gt.fbo)
		return nil, fmt.Errorf("glbackend: target %q incomplete: 0x%x", t.Label, status)
	}
	return gt, nil
}

func (b *Backend) SetViewport(r common.Rect) {
	if r.Empty() {
		r = common.Rect{Width: int32(b.width), Height: int32(b.height)}
	}
	gl.Viewport(r.X, r.Y, r.Width, r.Height)
}

func (b *Backend) Clear(mask state.ClearMask, colors []mgl32.Vec4, depth float32) {
	if mask&state.ClearColor != 0 && len(colors) > 0 {
		n := 1
		if b.boundTarget != nil {
			n = max(b.boundTarget.colors, 1)
		}
		for i := range n {
			c := colors[min(i, len(colors)-1)]
			gl.ClearBufferfv(gl.COLOR, int32(i), &c[0])
		}
	}
	if mask&state.ClearDepth != 0 {
		// Depth clears honour the write mask, so open it for the clear.
		gl.DepthMask(true)
		gl.ClearBufferfv(gl.DEPTH, 0, &depth)
		gl.DepthMask(b.depthWrite)
	}
	if mask&state.ClearStencil != 0 {
		var zero int32
		gl.ClearBufferiv(gl.STENCIL, 0, &zero)
	}
}

func (b *Backend) SetDrawBuffers(mask state.DrawBuffers) {
	n := 1
	if b.boundTarget != nil {
		n = max(b.boundTarget.colors, 1)
	}
	for i := range n {
		on := mask.Enabled(i)
		gl.ColorMaski(uint32(i), on, on, on, on)
	}
}

func (b *Backend) SetDepthTest(d state.DepthTest) {
	if !d.Enabled {
		gl.Disable(gl.DEPTH_TEST)
		return
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(compareFunc(d.Func))
}

func (b *Backend) SetDepthWrite(enabled bool) {
	b.depthWrite = enabled
	gl.DepthMask(enabled)
}

func (b *Backend) SetBlend(bl state.Blend) {
	if !bl.Enabled {
		gl.Disable(gl.BLEND)
		return
	}
	gl.Enable(gl.BLEND)
	gl.BlendFuncSeparate(blendFactor(bl.SrcRGB), blendFactor(bl.DstRGB), blendFactor(bl.SrcAlpha), blendFactor(bl.DstAlpha))
	gl.BlendEquationSeparate(blendOp(bl.OpRGB), blendOp(bl.OpAlpha))
}

func (b *Backend) SetCullMode(mode gputypes.CullMode) {
	face := cullFace(mode)
	if face == 0 {
		gl.Disable(gl.CULL_FACE)
		return
	}
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(face)
}

func (b *Backend) BindProgram(p program.Program) {
	gp, ok := b.programs[p.ID()]
	if !ok || gp.revision != p.Revision() {
		next, err := b.link(p)
		if err != nil {
			b.fail(err)
			// keep the previous build bound if a reload broke the program
			if !ok {
				b.bound = nil
				gl.UseProgram(0)
				return
			}
		} else {
			if ok {
				gl.DeleteProgram(gp.handle)
			}
			gp = next
			b.programs[p.ID()] = gp
		}
	}
	gl.UseProgram(gp.handle)
	b.bound = gp
}

func (b *Backend) link(p program.Program) (*glProgram, error) {
	if p.Language() != program.LanguageGLSL {
		return nil, fmt.Errorf("%w: %s", ErrWGSLProgram, p.Name())
	}
	handle, err := newProgram(p.Source(program.StageVertex), p.Source(program.StageFragment))
	if err != nil {
		return nil, fmt.Errorf("glbackend: program %s: %w", p.Name(), err)
	}
	gp := &glProgram{handle: handle, revision: p.Revision(), locations: make(map[string]int32)}
	gl.UseProgram(handle)
	for _, s := range p.Samplers() {
		if loc := gp.location(s.Name); loc >= 0 {
			gl.Uniform1i(loc, int32(s.Binding))
		}
	}
	b.log.Debug("program linked", zap.String("program", p.Name()), zap.Uint64("revision", p.Revision()))
	return gp, nil
}

func (gp *glProgram) location(name string) int32 {
	if loc, ok := gp.locations[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(gp.handle, gl.Str(name+"\x00"))
	gp.locations[name] = loc
	return loc
}

func newProgram(vertSrc, fragSrc string) (uint32, error) {
	vert, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex: %w", err)
	}
	frag, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return 0, fmt.Errorf("fragment: %w", err)
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vert)
	gl.AttachShader(prog, frag)
	gl.LinkProgram(prog)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(log))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link failed: %v", log)
	}
	return prog, nil
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		log := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile failed: %v", log)
	}
	return shader, nil
}

func (b *Backend) BindTexture(unit uint32, t texture.Texture) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, b.texture(t))
}

// texture returns the GL name for t, uploading it on first use.
func (b *Backend) texture(t texture.Texture) uint32 {
	if id, ok := b.textures[t.ID()]; ok {
		return id
	}
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	var pixels unsafe.Pointer
	if px := t.Pixels(); len(px) > 0 {
		pixels = gl.Ptr(px)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.SRGB8_ALPHA8, int32(t.Width()), int32(t.Height()), 0, gl.RGBA, gl.UNSIGNED_BYTE, pixels)
	wrap := int32(gl.CLAMP_TO_EDGE)
	if t.Repeat() {
		wrap = gl.REPEAT
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	if t.Mipmapped() {
		gl.GenerateMipmap(gl.TEXTURE_2D)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	}
	b.textures[t.ID()] = id
	return id
}

// depthTexture allocates t as a depth attachment on first use.
func (b *Backend) depthTexture(t texture.Texture) uint32 {
	if id, ok := b.textures[t.ID()]; ok {
		return id
	}
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.DEPTH_COMPONENT24, int32(t.Width()), int32(t.Height()), 0, gl.DEPTH_COMPONENT, gl.FLOAT, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	b.textures[t.ID()] = id
	return id
}

func (b *Backend) FallbackTexture() texture.Texture {
	return b.fallback
}

func (b *Backend) BindVertexSource(s vertex.Source) {
	gs, ok := b.sources[s.ID()]
	if !ok {
		gs = b.createSource(s)
		b.sources[s.ID()] = gs
	}
	gl.BindVertexArray(gs.vao)
	b.boundSource = gs
}

func (b *Backend) createSource(s vertex.Source) *glSource {
	gs := &glSource{}
	gl.GenVertexArrays(1, &gs.vao)
	gl.BindVertexArray(gs.vao)

	verts := s.Vertices()
	gl.GenBuffers(1, &gs.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gs.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts), gl.Ptr(verts), gl.STATIC_DRAW)
	for _, a := range s.Layout() {
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointerWithOffset(a.Location, int32(a.Format.Components()), gl.FLOAT, false, int32(s.Stride()), uintptr(a.Offset))
	}

	if s.Indexed() {
		idx := s.Indices()
		gl.GenBuffers(1, &gs.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gs.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(idx), gl.Ptr(idx), gl.STATIC_DRAW)
		gs.indexType, gs.indexSize = indexType(s.IndexFormat())
	}
	return gs
}

func (b *Backend) UnbindVertexSource(vertex.Source) {
	gl.BindVertexArray(0)
	b.boundSource = nil
}

func (b *Backend) SetScissor(s state.Scissor) {
	if !s.Enabled {
		gl.Disable(gl.SCISSOR_TEST)
		return
	}
	gl.Enable(gl.SCISSOR_TEST)
	gl.Scissor(s.Rect.X, s.Rect.Y, s.Rect.Width, s.Rect.Height)
}

func (b *Backend) PushUniforms(u *state.Uniforms) {
	if b.bound == nil {
		return
	}
	u.Each(func(name string, value any) {
		loc := b.bound.location(name)
		if loc < 0 {
			return
		}
		switch v := value.(type) {
		case float32:
			gl.Uniform1f(loc, v)
		case int32:
			gl.Uniform1i(loc, v)
		case uint32:
			gl.Uniform1ui(loc, v)
		case bool:
			var i int32
			if v {
				i = 1
			}
			gl.Uniform1i(loc, i)
		case mgl32.Vec2:
			gl.Uniform2fv(loc, 1, &v[0])
		case mgl32.Vec3:
			gl.Uniform3fv(loc, 1, &v[0])
		case mgl32.Vec4:
			gl.Uniform4fv(loc, 1, &v[0])
		case mgl32.Mat3:
			gl.UniformMatrix3fv(loc, 1, false, &v[0])
		case mgl32.Mat4:
			gl.UniformMatrix4fv(loc, 1, false, &v[0])
		case []float32:
			if len(v) > 0 {
				gl.Uniform1fv(loc, int32(len(v)), &v[0])
			}
		case []mgl32.Vec4:
			if len(v) > 0 {
				gl.Uniform4fv(loc, int32(len(v)), &v[0][0])
			}
		case []mgl32.Mat4:
			if len(v) > 0 {
				gl.UniformMatrix4fv(loc, int32(len(v)), false, &v[0][0])
			}
		}
	})
}

func (b *Backend) Draw(topology gputypes.PrimitiveTopology, r state.VertexRange, indexed bool) {
	mode := primitiveMode(topology)
	if !indexed {
		gl.DrawArrays(mode, int32(r.Start)+r.BaseVertex, int32(r.Count))
		return
	}
	gs := b.boundSource
	if gs == nil || gs.ebo == 0 {
		return
	}
	gl.DrawElementsBaseVertexWithOffset(mode, int32(r.Count), gs.indexType, uintptr(r.Start*gs.indexSize), r.BaseVertex)
}

// Release deletes every device object the backend created.
func (b *Backend) Release() {
	for _, p := range b.programs {
		gl.DeleteProgram(p.handle)
	}
	for _, s := range b.sources {
		gl.DeleteVertexArrays(1, &s.vao)
		gl.DeleteBuffers(1, &s.vbo)
		if s.ebo != 0 {
			gl.DeleteBuffers(1, &s.ebo)
		}
	}
	for _, id := range b.textures {
		gl.DeleteTextures(1, &id)
	}
	for _, t := range b.targets {
		gl.DeleteFramebuffers(1, &t.fbo)
	}
	clear(b.programs)
	clear(b.sources)
	clear(b.textures)
	clear(b.targets)
}
