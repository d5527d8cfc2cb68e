package backend

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

// Target is a set of attachments rendered into. A nil *Target is the window surface.
type Target struct {
	Label  string
	Colors []texture.Texture
	Depth  texture.Texture
}

// Backend is the set of hardware verbs a command tree is applied through. Every call is made
// on the goroutine that owns the graphics context, in traversal order, and implementations
// translate them directly into graphics API state changes.
//
// Resources passed to a Backend are borrowed. Implementations may create and cache device
// objects for them keyed by ID but must not assume they outlive the frame's caller.
type Backend interface {
	// BindTarget selects the attachments subsequent draws render into.
	//
	// Parameters:
	//   - t: the render target, or nil for the window surface
	BindTarget(t *Target)

	// SetViewport sets the pixel rectangle draws map to.
	SetViewport(r common.Rect)

	// Clear clears the selected attachments of the bound target.
	//
	// Parameters:
	//   - mask: which attachments to clear
	//   - colors: one clear colour per colour attachment; the last entry repeats
	//   - depth: the depth clear value
	Clear(mask state.ClearMask, colors []mgl32.Vec4, depth float32)

	// SetDrawBuffers selects which colour attachments receive writes.
	SetDrawBuffers(mask state.DrawBuffers)

	// SetDepthTest enables or disables depth testing and sets the comparison.
	SetDepthTest(d state.DepthTest)

	// SetDepthWrite enables or disables depth buffer writes.
	SetDepthWrite(enabled bool)

	// SetBlend configures colour blending.
	SetBlend(b state.Blend)

	// SetCullMode selects which faces are culled.
	SetCullMode(mode gputypes.CullMode)

	// BindProgram makes p the active shader program.
	BindProgram(p program.Program)

	// BindTexture binds t to a texture unit.
	//
	// Parameters:
	//   - unit: the texture unit
	//   - t: the texture, never nil
	BindTexture(unit uint32, t texture.Texture)

	// FallbackTexture returns the 1x1 texture bound in place of missing textures.
	FallbackTexture() texture.Texture

	// BindVertexSource binds vertex input state for s.
	BindVertexSource(s vertex.Source)

	// UnbindVertexSource releases the vertex input state bound for s.
	UnbindVertexSource(s vertex.Source)

	// SetScissor enables or disables the scissor test.
	SetScissor(s state.Scissor)

	// PushUniforms uploads uniform values to the bound program. Later pushes override earlier
	// ones for the same name until the next program bind.
	PushUniforms(u *state.Uniforms)

	// Draw issues a draw call over r of the bound vertex source.
	//
	// Parameters:
	//   - topology: the primitive topology
	//   - r: the vertex or index range and base vertex
	//   - indexed: true to draw through the index buffer
	Draw(topology gputypes.PrimitiveTopology, r state.VertexRange, indexed bool)
}

// FrameBackend is implemented by backends that bracket each frame, such as a WebGPU backend
// acquiring a swapchain image and submitting a command encoder.
type FrameBackend interface {
	Backend

	// BeginFrame prepares for the first verb of a frame.
	//
	// Returns:
	//   - error: if no frame could be acquired; the frame should be skipped
	BeginFrame() error

	// EndFrame submits the frame's work and presents it.
	EndFrame() error
}

// Resizer is implemented by backends whose surface must be reconfigured on resize.
type Resizer interface {
	Resize(width, height int)
}

// Releaser is implemented by backends that own device objects.
type Releaser interface {
	Release()
}
