package light

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightBuilderOption configures a light in NewLight.
type LightBuilderOption func(*lightImpl)

// WithPosition sets the world-space origin of a point or spot light.
func WithPosition(p mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.position = p
	}
}

// WithDirection sets the direction light travels in. A zero vector keeps the default of
// straight down.
func WithDirection(d mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		if d.Len() > 0 {
			l.direction = d.Normalize()
		}
	}
}

// WithColor sets the linear RGB colour.
func WithColor(c mgl32.Vec3) LightBuilderOption {
	return func(l *lightImpl) {
		l.color = c
	}
}

// WithIntensity scales the colour. Negative values are raised to zero.
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *lightImpl) {
		l.intensity = max(intensity, 0)
	}
}

// WithRange sets the distance at which a point or spot light fades to nothing. It also sizes
// the light's world AABB, so it decides which geometry gets a light pass.
//
// Parameters:
//   - lightRange: the falloff distance, not negative
//
// Returns:
//   - LightBuilderOption: a function that applies the range to a light
func WithRange(lightRange float32) LightBuilderOption {
	if lightRange < 0 {
		panic(fmt.Sprintf("light: negative range %g", lightRange))
	}
	return func(l *lightImpl) {
		l.lightRange = lightRange
	}
}

// WithSpotCone sets a spot light's full-intensity and cut-off half-angles in degrees. They are
// stored as cosines, as the shaders compare against them. Swapped arguments are reordered.
func WithSpotCone(innerDeg, outerDeg float32) LightBuilderOption {
	if innerDeg > outerDeg {
		innerDeg, outerDeg = outerDeg, innerDeg
	}
	return func(l *lightImpl) {
		l.innerCone = cosDeg(innerDeg)
		l.outerCone = cosDeg(outerDeg)
	}
}

// WithEnabled sets whether the scene submits the light.
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *lightImpl) {
		l.enabled = enabled
	}
}

func cosDeg(deg float32) float32 {
	return math32.Cos(mgl32.DegToRad(deg))
}
