package backend

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

// Verb names one Backend method.
type Verb string

const (
	VerbBindTarget         Verb = "BindTarget"
	VerbSetViewport        Verb = "SetViewport"
	VerbClear              Verb = "Clear"
	VerbSetDrawBuffers     Verb = "SetDrawBuffers"
	VerbSetDepthTest       Verb = "SetDepthTest"
	VerbSetDepthWrite      Verb = "SetDepthWrite"
	VerbSetBlend           Verb = "SetBlend"
	VerbSetCullMode        Verb = "SetCullMode"
	VerbBindProgram        Verb = "BindProgram"
	VerbBindTexture        Verb = "BindTexture"
	VerbBindVertexSource   Verb = "BindVertexSource"
	VerbUnbindVertexSource Verb = "UnbindVertexSource"
	VerbSetScissor         Verb = "SetScissor"
	VerbPushUniforms       Verb = "PushUniforms"
	VerbDraw               Verb = "Draw"
)

// Call is one recorded verb with its arguments captured by value.
type Call struct {
	Verb Verb
	Args []any
}

// String renders the call on one line.
func (c Call) String() string {
	parts := make([]string, 0, len(c.Args))
	for _, a := range c.Args {
		parts = append(parts, formatArg(a))
	}
	return fmt.Sprintf("%s(%s)", c.Verb, strings.Join(parts, ", "))
}

// Recorder is a Backend that stores the verb stream instead of touching a device. It encodes
// a frame in an API-agnostic form for tests and the framedump tool.
type Recorder struct {
	calls []Call
}

var _ Backend = &Recorder{}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Calls returns the recorded stream.
func (r *Recorder) Calls() []Call {
	return r.calls
}

// Verbs returns the verb of every recorded call in order.
func (r *Recorder) Verbs() []Verb {
	out := make([]Verb, len(r.calls))
	for i, c := range r.calls {
		out[i] = c.Verb
	}
	return out
}

// Filter returns the recorded calls whose verb is one of verbs.
func (r *Recorder) Filter(verbs ...Verb) []Call {
	var out []Call
	for _, c := range r.calls {
		for _, v := range verbs {
			if c.Verb == v {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Reset discards the recorded stream.
func (r *Recorder) Reset() {
	r.calls = r.calls[:0]
}

// WriteTo writes one numbered call per line.
func (r *Recorder) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, c := range r.calls {
		n, err := fmt.Fprintf(w, "%4d  %s\n", i, c)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (r *Recorder) record(v Verb, args ...any) {
	r.calls = append(r.calls, Call{Verb: v, Args: args})
}

func (r *Recorder) BindTarget(t *Target) {
	r.record(VerbBindTarget, t)
}

func (r *Recorder) SetViewport(rect common.Rect) {
	r.record(VerbSetViewport, rect)
}

func (r *Recorder) Clear(mask state.ClearMask, colors []mgl32.Vec4, depth float32) {
	r.record(VerbClear, mask, append([]mgl32.Vec4(nil), colors...), depth)
}

func (r *Recorder) SetDrawBuffers(mask state.DrawBuffers) {
	r.record(VerbSetDrawBuffers, mask)
}

func (r *Recorder) SetDepthTest(d state.DepthTest) {
	r.record(VerbSetDepthTest, d)
}

func (r *Recorder) SetDepthWrite(enabled bool) {
	r.record(VerbSetDepthWrite, enabled)
}

func (r *Recorder) SetBlend(b state.Blend) {
	r.record(VerbSetBlend, b)
}

func (r *Recorder) SetCullMode(mode gputypes.CullMode) {
	r.record(VerbSetCullMode, mode)
}

func (r *Recorder) BindProgram(p program.Program) {
	r.record(VerbBindProgram, p)
}

func (r *Recorder) BindTexture(unit uint32, t texture.Texture) {
	r.record(VerbBindTexture, unit, t)
}

func (r *Recorder) FallbackTexture() texture.Texture {
	return texture.Fallback()
}

func (r *Recorder) BindVertexSource(s vertex.Source) {
	r.record(VerbBindVertexSource, s)
}

func (r *Recorder) UnbindVertexSource(s vertex.Source) {
	r.record(VerbUnbindVertexSource, s)
}

func (r *Recorder) SetScissor(s state.Scissor) {
	r.record(VerbSetScissor, s)
}

func (r *Recorder) PushUniforms(u *state.Uniforms) {
	r.record(VerbPushUniforms, u.Clone())
}

func (r *Recorder) Draw(topology gputypes.PrimitiveTopology, rng state.VertexRange, indexed bool) {
	r.record(VerbDraw, topology, rng, indexed)
}

// formatArg renders resources by name and identity rather than by pointer.
func formatArg(a any) string {
	switch v := a.(type) {
	case nil:
		return "nil"
	case *Target:
		if v == nil {
			return "surface"
		}
		return "target:" + v.Label
	case program.Program:
		return fmt.Sprintf("program:%s#%d", v.Name(), v.ID())
	case texture.Texture:
		return fmt.Sprintf("texture:%s#%d", v.Label(), v.ID())
	case vertex.Source:
		return fmt.Sprintf("source:%s#%d", v.Label(), v.ID())
	case *state.Uniforms:
		names := make([]string, 0, v.Len())
		v.Each(func(name string, _ any) { names = append(names, name) })
		return "{" + strings.Join(names, " ") + "}"
	case state.Blend:
		if !v.Enabled {
			return "blend:off"
		}
		return fmt.Sprintf("blend:%d,%d,%d,%d", v.SrcRGB, v.DstRGB, v.SrcAlpha, v.DstAlpha)
	case state.DepthTest:
		if !v.Enabled {
			return "depth:off"
		}
		return fmt.Sprintf("depth:%d", v.Func)
	default:
		return fmt.Sprintf("%v", v)
	}
}
