package game_object

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/Carmen-Shannon/oxy-frame/engine/light"
	"github.com/Carmen-Shannon/oxy-frame/engine/model"
)

func TestUpdateTracksPreviousWorld(t *testing.T) {
	obj := NewGameObject(
		WithModel(model.NewModel(model.Cube(2))),
		WithPosition(mgl32.Vec3{1, 0, 0}),
	)
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), obj.World())
	assert.Equal(t, mgl32.Vec3{0, -1, -1}, obj.WorldBounds().Min)

	assert.True(t, obj.Update(0.016))
	assert.False(t, obj.Update(0.016))

	obj.SetPosition(mgl32.Vec3{3, 0, 0})
	assert.True(t, obj.Update(0.016))
	assert.Equal(t, mgl32.Translate3D(1, 0, 0), obj.PrevWorld())
	assert.Equal(t, mgl32.Translate3D(3, 0, 0), obj.World())
	assert.Equal(t, float32(4), obj.WorldBounds().Max.X())
}

func TestRotationSpeedAdvances(t *testing.T) {
	obj := NewGameObject(WithRotationSpeed(mgl32.Vec3{0, 1, 0}))
	obj.Update(0.5)
	obj.Update(0.5)
	assert.InDelta(t, 1, obj.Rotation().Y(), 1e-6)
	assert.True(t, obj.WorldBounds().IsEmpty())
}

func TestAttachedLightFollows(t *testing.T) {
	l := light.NewLight(light.LightTypePoint)
	obj := NewGameObject(WithLight(l), WithPosition(mgl32.Vec3{0, 4, 0}))
	obj.Update(0)
	assert.Equal(t, mgl32.Vec3{0, 4, 0}, l.Position())

	obj.SetEnabled(false)
	assert.False(t, obj.Enabled())
}
