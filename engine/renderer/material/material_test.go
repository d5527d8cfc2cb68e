package material

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/texture"
)

func TestNewMaterialDefaults(t *testing.T) {
	m := NewMaterial(WithName("stone"))

	assert.True(t, m.DepthTestEnabled())
	assert.True(t, m.DepthWriteEnabled())
	assert.True(t, m.Lit())
	assert.Equal(t, LayerOpaque, m.Layer())
	assert.Equal(t, gputypes.CullModeBack, m.CullMode())
	assert.Equal(t, state.BlendOpaque, m.Blend())
	assert.Empty(t, m.Textures())

	c, ok := m.Uniforms().Get("u_base_color")
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, c)
}

func TestMaterialTexturesKeepUnitGaps(t *testing.T) {
	normal := texture.NewTexture(1, 1, nil)
	m := NewMaterial(WithNormalTexture(normal), WithTexture(5, nil))

	assert.Equal(t, []state.TextureBinding{
		{Unit: UnitDiffuse, Texture: nil},
		{Unit: UnitNormal, Texture: normal},
		{Unit: 5, Texture: nil},
	}, m.Textures())
}

func TestWithLayer(t *testing.T) {
	sky := NewMaterial(WithLayer(LayerSky))
	assert.False(t, sky.DepthWriteEnabled())
	assert.False(t, sky.Lit())

	glass := NewMaterial(WithLayer(LayerTransparent))
	assert.Equal(t, state.BlendAlpha, glass.Blend())

	additive := NewMaterial(WithBlend(state.BlendAdditive), WithLayer(LayerTransparent))
	assert.Equal(t, state.BlendAdditive, additive.Blend())
}

func TestSetUniformUpdatesDefaults(t *testing.T) {
	m := NewMaterial()
	snapshot := m.Uniforms().Clone()

	m.SetUniform("u_base_color", mgl32.Vec4{1, 0, 0, 1})
	m.SetUniform("u_time", float32(2))

	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, m.BaseColor())
	v, _ := m.Uniforms().Get("u_time")
	assert.Equal(t, float32(2), v)

	old, _ := snapshot.Get("u_base_color")
	assert.Equal(t, mgl32.Vec4{1, 1, 1, 1}, old, "clones do not observe later writes")
}
