package backend

import (
	"maps"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

// Stats summarises the verbs issued while applying one or more frames.
type Stats struct {
	// Calls counts every verb by name.
	Calls map[Verb]int
	// Draws is the number of draw calls issued.
	Draws int
	// Skipped is the number of draws dropped for an empty range.
	Skipped int
	// Elements is the total index or vertex count drawn.
	Elements uint64
}

// StateChanges returns the number of non-draw verbs issued.
func (s Stats) StateChanges() int {
	n := 0
	for v, c := range s.Calls {
		if v != VerbDraw {
			n += c
		}
	}
	return n
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	if s.Calls == nil {
		s.Calls = make(map[Verb]int, len(o.Calls))
	}
	for v, c := range o.Calls {
		s.Calls[v] += c
	}
	s.Draws += o.Draws
	s.Skipped += o.Skipped
	s.Elements += o.Elements
}

// Counter forwards every verb to an inner backend and counts it.
type Counter struct {
	inner Backend
	stats Stats
}

var _ Backend = &Counter{}

// NewCounter wraps b.
func NewCounter(b Backend) *Counter {
	return &Counter{inner: b, stats: Stats{Calls: make(map[Verb]int)}}
}

// Stats returns a copy of the counts gathered so far.
func (c *Counter) Stats() Stats {
	s := c.stats
	s.Calls = maps.Clone(c.stats.Calls)
	return s
}

// Skip records a draw that was dropped without reaching the backend.
func (c *Counter) Skip() {
	c.stats.Skipped++
}

func (c *Counter) BindTarget(t *Target) {
	c.stats.Calls[VerbBindTarget]++
	c.inner.BindTarget(t)
}

func (c *Counter) SetViewport(r common.Rect) {
	c.stats.Calls[VerbSetViewport]++
	c.inner.SetViewport(r)
}

func (c *Counter) Clear(mask state.ClearMask, colors []mgl32.Vec4, depth float32) {
	c.stats.Calls[VerbClear]++
	c.inner.Clear(mask, colors, depth)
}

func (c *Counter) SetDrawBuffers(mask state.DrawBuffers) {
	c.stats.Calls[VerbSetDrawBuffers]++
	c.inner.SetDrawBuffers(mask)
}

func (c *Counter) SetDepthTest(d state.DepthTest) {
	c.stats.Calls[VerbSetDepthTest]++
	c.inner.SetDepthTest(d)
}

func (c *Counter) SetDepthWrite(enabled bool) {
	c.stats.Calls[VerbSetDepthWrite]++
	c.inner.SetDepthWrite(enabled)
}

func (c *Counter) SetBlend(b state.Blend) {
	c.stats.Calls[VerbSetBlend]++
	c.inner.SetBlend(b)
}

func (c *Counter) SetCullMode(mode gputypes.CullMode) {
	c.stats.Calls[VerbSetCullMode]++
	c.inner.SetCullMode(mode)
}

func (c *Counter) BindProgram(p program.Program) {
	c.stats.Calls[VerbBindProgram]++
	c.inner.BindProgram(p)
}

func (c *Counter) BindTexture(unit uint32, t texture.Texture) {
	c.stats.Calls[VerbBindTexture]++
	c.inner.BindTexture(unit, t)
}

func (c *Counter) FallbackTexture() texture.Texture {
	return c.inner.FallbackTexture()
}

func (c *Counter) BindVertexSource(s vertex.Source) {
	c.stats.Calls[VerbBindVertexSource]++
	c.inner.BindVertexSource(s)
}

func (c *Counter) UnbindVertexSource(s vertex.Source) {
	c.stats.Calls[VerbUnbindVertexSource]++
	c.inner.UnbindVertexSource(s)
}

func (c *Counter) SetScissor(s state.Scissor) {
	c.stats.Calls[VerbSetScissor]++
	c.inner.SetScissor(s)
}

func (c *Counter) PushUniforms(u *state.Uniforms) {
	c.stats.Calls[VerbPushUniforms]++
	c.inner.PushUniforms(u)
}

func (c *Counter) Draw(topology gputypes.PrimitiveTopology, r state.VertexRange, indexed bool) {
	c.stats.Calls[VerbDraw]++
	c.stats.Draws++
	c.stats.Elements += uint64(r.Count)
	c.inner.Draw(topology, r, indexed)
}
