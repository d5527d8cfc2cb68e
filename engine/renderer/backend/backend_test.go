package backend

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
)

func TestRecorderCapturesUniformsByValue(t *testing.T) {
	r := NewRecorder()
	u := state.NewUniforms(1)
	u.Set("u_tint", mgl32.Vec4{1, 0, 0, 1})
	r.PushUniforms(u)
	u.Set("u_tint", mgl32.Vec4{0, 0, 1, 1})

	calls := r.Filter(VerbPushUniforms)
	require.Len(t, calls, 1)
	got, _ := calls[0].Args[0].(*state.Uniforms).Get("u_tint")
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, got)
}

func TestRecorderWriteTo(t *testing.T) {
	r := NewRecorder()
	r.BindTarget(nil)
	r.SetViewport(common.Rect{Width: 640, Height: 480})
	r.SetDepthTest(state.DepthTest{})
	r.Draw(gputypes.PrimitiveTopologyTriangleList, state.VertexRange{Count: 3}, false)

	var buf bytes.Buffer
	_, err := r.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "BindTarget(surface)")
	assert.Contains(t, out, "SetDepthTest(depth:off)")
	assert.Equal(t, []Verb{VerbBindTarget, VerbSetViewport, VerbSetDepthTest, VerbDraw}, r.Verbs())

	r.Reset()
	assert.Empty(t, r.Calls())
}

func TestCounterForwardsAndCounts(t *testing.T) {
	rec := NewRecorder()
	c := NewCounter(rec)

	c.SetBlend(state.BlendAdditive)
	c.SetBlend(state.BlendOpaque)
	c.Draw(gputypes.PrimitiveTopologyTriangleList, state.VertexRange{Count: 36}, true)
	c.Draw(gputypes.PrimitiveTopologyTriangleList, state.VertexRange{Count: 6}, true)
	c.Skip()
	assert.Same(t, rec.FallbackTexture(), c.FallbackTexture())

	s := c.Stats()
	assert.Equal(t, 2, s.Calls[VerbSetBlend])
	assert.Equal(t, 2, s.Draws)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, uint64(42), s.Elements)
	assert.Equal(t, 2, s.StateChanges())
	assert.Len(t, rec.Calls(), 4)

	var total Stats
	total.Add(s)
	total.Add(s)
	assert.Equal(t, 4, total.Draws)
	assert.Equal(t, 4, total.Calls[VerbSetBlend])
}
