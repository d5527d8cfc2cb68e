package light

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
)

func TestWorldAABB(t *testing.T) {
	point := NewLight(LightTypePoint, WithPosition(mgl32.Vec3{1, 2, 3}), WithRange(2))
	box := point.WorldAABB()
	assert.Equal(t, mgl32.Vec3{-1, 0, 1}, box.Min)
	assert.Equal(t, mgl32.Vec3{3, 4, 5}, box.Max)

	sun := NewLight(LightTypeDirectional)
	assert.True(t, sun.WorldAABB().IsInfinite())

	point.SetEnabled(false)
	assert.True(t, point.WorldAABB().IsEmpty())
}

func TestSetupShaderParams(t *testing.T) {
	l := NewLight(LightTypeSpot,
		WithPosition(mgl32.Vec3{0, 3, 4}),
		WithColor(mgl32.Vec3{1, 0.5, 0}),
		WithIntensity(2),
		WithSpotCone(0, 60),
	)
	u := state.NewUniforms(0)
	l.SetupShaderParams(mgl32.Vec3{}, u)

	color, ok := u.Get("u_light_color")
	assert.True(t, ok)
	assert.Equal(t, mgl32.Vec3{2, 1, 0}, color)

	cone, _ := u.Get("u_light_cone")
	assert.InDelta(t, 1, cone.(mgl32.Vec2)[0], 1e-6)
	assert.InDelta(t, 0.5, cone.(mgl32.Vec2)[1], 1e-6)

	dist, _ := u.Get("u_light_distance")
	assert.InDelta(t, 5, dist, 1e-5)

	typ, _ := u.Get("u_light_type")
	assert.Equal(t, int32(LightTypeSpot), typ)
}

func TestDirectionNormalized(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithDirection(mgl32.Vec3{0, -4, 0}))
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, l.Direction())

	l.SetDirection(mgl32.Vec3{3, 0, 0})
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, l.Direction())

	// a zero vector has no direction to keep
	l.SetDirection(mgl32.Vec3{})
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, l.Direction())
}

func TestBuilderValidation(t *testing.T) {
	assert.PanicsWithValue(t, "light: negative range -1", func() { WithRange(-1) })

	l := NewLight(LightTypeSpot, WithSpotCone(60, 0), WithIntensity(-2))
	assert.InDelta(t, 1, l.InnerCone(), 1e-6)
	assert.InDelta(t, 0.5, l.OuterCone(), 1e-6)
	assert.Zero(t, l.Intensity())

	l.SetRange(4)
	assert.Equal(t, float32(4), l.Range())
	assert.Panics(t, func() { l.SetRange(-4) })
}

func TestTileCounts(t *testing.T) {
	x, y := TileCounts(1920, 1080, 0)
	assert.Equal(t, 120, x)
	assert.Equal(t, 68, y)

	x, y = TileCounts(100, 0, 32)
	assert.Equal(t, 4, x)
	assert.Equal(t, 0, y)
}
