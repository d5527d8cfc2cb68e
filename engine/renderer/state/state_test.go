package state

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/texture"
)

func TestBlendCompare(t *testing.T) {
	assert.Zero(t, BlendAdditive.Compare(BlendAdditive))
	assert.NotZero(t, BlendOpaque.Compare(BlendAdditive))
	assert.Equal(t, -BlendOpaque.Compare(BlendAdditive), BlendAdditive.Compare(BlendOpaque))

	disabled := BlendAdditive
	disabled.Enabled = false
	assert.Equal(t, -1, disabled.Compare(BlendAdditive), "enabled flag is the last tie breaker")
}

func TestDepthTestCompare(t *testing.T) {
	on := DepthTest{Enabled: true, Func: gputypes.CompareFunctionLess}
	off := DepthTest{Enabled: false, Func: gputypes.CompareFunctionLess}
	equal := DepthTest{Enabled: true, Func: gputypes.CompareFunctionEqual}

	assert.Equal(t, -1, on.Compare(off), "enabled sorts first")
	assert.Equal(t, 1, off.Compare(equal))
	assert.Equal(t, -1, on.Compare(equal), "then by function")
	assert.Zero(t, on.Compare(on))
}

func TestFlipCull(t *testing.T) {
	assert.Equal(t, gputypes.CullModeFront, FlipCull(gputypes.CullModeBack))
	assert.Equal(t, gputypes.CullModeBack, FlipCull(gputypes.CullModeFront))
	assert.Equal(t, gputypes.CullModeNone, FlipCull(gputypes.CullModeNone))
}

func TestCompareTextures(t *testing.T) {
	a := texture.NewTexture(1, 1, nil)
	b := texture.NewTexture(1, 1, nil)

	assert.Zero(t, CompareTextures(nil, nil))
	assert.Zero(t, CompareTextures(
		[]TextureBinding{{Unit: 0, Texture: a}},
		[]TextureBinding{{Unit: 0, Texture: a}},
	))
	assert.Equal(t, -1, CompareTextures(
		[]TextureBinding{{Unit: 0, Texture: a}},
		[]TextureBinding{{Unit: 0, Texture: a}, {Unit: 1, Texture: b}},
	), "prefix sorts first")
	assert.Equal(t, -1, CompareTextures(
		[]TextureBinding{{Unit: 0, Texture: nil}},
		[]TextureBinding{{Unit: 0, Texture: a}},
	), "nil texture has the lowest identity")
	assert.Equal(t, -1, CompareTextures(
		[]TextureBinding{{Unit: 0, Texture: b}},
		[]TextureBinding{{Unit: 1, Texture: a}},
	), "unit compares before texture")
}

func TestDrawBuffers(t *testing.T) {
	assert.Equal(t, DrawBuffers(0b111), DrawBuffersAll(3))
	assert.True(t, DrawBuffersFirst.Enabled(0))
	assert.False(t, DrawBuffersNone.Enabled(0))
}

func TestUniformsCloneIsByValue(t *testing.T) {
	u := NewUniforms(2)
	u.Set("u_color", mgl32.Vec4{1, 0, 0, 1})
	u.Set("u_weights", []float32{1, 2})

	c := u.Clone()
	u.Set("u_color", mgl32.Vec4{0, 1, 0, 1})
	w, _ := u.Get("u_weights")
	w.([]float32)[0] = 9

	got, ok := c.Get("u_color")
	assert.True(t, ok)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, got)
	gw, _ := c.Get("u_weights")
	assert.Equal(t, []float32{1, 2}, gw)
}

func TestUniformsOrderAndMerge(t *testing.T) {
	u := NewUniforms(0)
	u.Set("a", float32(1))
	u.Set("b", float32(2))
	u.Set("a", float32(3))

	o := NewUniforms(0)
	o.Set("b", float32(5))
	o.Set("c", float32(6))
	u.Merge(o)

	var names []string
	var values []any
	u.Each(func(name string, value any) {
		names = append(names, name)
		values = append(values, value)
	})
	assert.Equal(t, []string{"a", "b", "c"}, names)
	assert.Equal(t, []any{float32(3), float32(5), float32(6)}, values)
	assert.Zero(t, (*Uniforms)(nil).Len())
}
