package game_object

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-frame/engine/light"
	"github.com/Carmen-Shannon/oxy-frame/engine/model"
)

// GameObjectBuilderOption is a function that configures a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithEnabled is an option builder that sets whether the object is enabled for rendering.
//
// Parameters:
//   - enabled: true to enable the object
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the enabled option
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.enabled.Store(enabled)
	}
}

// WithModel is an option builder that sets the Model of the object.
//
// Parameters:
//   - m: the model to draw
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the model option
func WithModel(m model.Model) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.mdl = m
	}
}

// WithPosition is an option builder that sets the world-space position.
func WithPosition(p mgl32.Vec3) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.position = p
	}
}

// WithScale is an option builder that sets the per-axis scale.
func WithScale(s mgl32.Vec3) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.scale = s
	}
}

// WithRotation is an option builder that sets the Euler rotation in radians.
func WithRotation(r mgl32.Vec3) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.rotation = r
	}
}

// WithRotationSpeed is an option builder that sets the rotation change per second.
//
// Parameters:
//   - r: radians per second around each axis
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the rotation speed option
func WithRotationSpeed(r mgl32.Vec3) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.rotationSpeed = r
	}
}

// WithLight is an option builder that attaches a light following the object.
func WithLight(l light.Light) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.attachedLight = l
	}
}
