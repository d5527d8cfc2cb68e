package light

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon. Affects all fragments
	// uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Attenuates with distance up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	// Attenuates with both distance and angle from the cone axis, controlled by inner and
	// outer cone angles.
	LightTypeSpot
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType  LightType
	position   mgl32.Vec3
	direction  mgl32.Vec3
	color      mgl32.Vec3
	intensity  float32
	lightRange float32
	innerCone  float32 // stored as cos(angle in radians)
	outerCone  float32 // stored as cos(angle in radians)
	enabled    bool
}

// Light defines the interface for a light source in the scene.
//
// All light types share this interface; type-specific properties (e.g. cone angles for
// spot lights) are ignored when not applicable. A light only touches the geometry its
// world bounds overlap: each light gets its own additive pass over those batches.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional, point, or spot)
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - mgl32.Vec3: the position
	Position() mgl32.Vec3

	// Direction returns the normalized direction of the light.
	// For directional lights this is the light direction. For spot lights this
	// is the cone axis. Meaningless for point lights.
	//
	// Returns:
	//   - mgl32.Vec3: the normalized direction
	Direction() mgl32.Vec3

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - mgl32.Vec3: color as (r, g, b)
	Color() mgl32.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Range returns the maximum attenuation distance for point and spot lights.
	// Beyond this distance the light contributes zero energy.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// InnerCone returns the cosine of the inner cone half-angle for spot lights.
	//
	// Returns:
	//   - float32: cos(inner half-angle)
	InnerCone() float32

	// OuterCone returns the cosine of the outer cone half-angle for spot lights.
	//
	// Returns:
	//   - float32: cos(outer half-angle)
	OuterCone() float32

	// Enabled returns whether this light is active for rendering.
	// A disabled light has empty bounds and lights nothing.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// WorldAABB returns the world-space box the light can affect. Directional lights are
	// unbounded; point and spot lights are bounded by their range.
	//
	// Returns:
	//   - common.AABB: the affected region
	WorldAABB() common.AABB

	// SetupShaderParams writes the light's uniforms into out.
	//
	// Parameters:
	//   - eye: the camera position
	//   - out: the uniform set of the draw being lit
	SetupShaderParams(eye mgl32.Vec3, out *state.Uniforms)

	// SetPosition sets the world-space position of the light.
	SetPosition(p mgl32.Vec3)

	// SetDirection sets the direction of the light and normalizes it. A zero vector is ignored.
	SetDirection(d mgl32.Vec3)

	// SetColor sets the RGB color of the light.
	SetColor(c mgl32.Vec3)

	// SetIntensity sets the scalar intensity multiplier.
	SetIntensity(intensity float32)

	// SetRange sets the maximum attenuation distance.
	SetRange(lightRange float32)

	// SetSpotCone sets the inner and outer cone half-angles for spot lights.
	// Angles are specified in degrees and stored internally as cosines.
	//
	// Parameters:
	//   - innerDeg: inner cone half-angle in degrees
	//   - outerDeg: outer cone half-angle in degrees
	SetSpotCone(innerDeg, outerDeg float32)

	// SetEnabled enables or disables the light for rendering.
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:  lightType,
		direction:  mgl32.Vec3{0, -1, 0},
		color:      mgl32.Vec3{1, 1, 1},
		intensity:  1.0,
		lightRange: 10.0,
		innerCone:  0.9063, // cos(25°)
		outerCone:  0.8192, // cos(35°)
		enabled:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Position() mgl32.Vec3 {
	return l.position
}

func (l *lightImpl) Direction() mgl32.Vec3 {
	return l.direction
}

func (l *lightImpl) Color() mgl32.Vec3 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) InnerCone() float32 {
	return l.innerCone
}

func (l *lightImpl) OuterCone() float32 {
	return l.outerCone
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) WorldAABB() common.AABB {
	if !l.enabled {
		return common.EmptyAABB()
	}
	if l.lightType == LightTypeDirectional {
		return common.InfiniteAABB()
	}
	r := mgl32.Vec3{l.lightRange, l.lightRange, l.lightRange}
	return common.NewAABB(l.position.Sub(r), l.position.Add(r))
}

func (l *lightImpl) SetupShaderParams(eye mgl32.Vec3, out *state.Uniforms) {
	out.Set("u_light_type", int32(l.lightType))
	out.Set("u_light_pos", l.position)
	out.Set("u_light_dir", l.direction)
	out.Set("u_light_color", l.color.Mul(l.intensity))
	out.Set("u_light_range", l.lightRange)
	out.Set("u_light_cone", mgl32.Vec2{l.innerCone, l.outerCone})
	if l.lightType != LightTypeDirectional {
		out.Set("u_light_distance", l.position.Sub(eye).Len())
	}
}

func (l *lightImpl) SetPosition(p mgl32.Vec3) {
	l.position = p
}

func (l *lightImpl) SetDirection(d mgl32.Vec3) {
	WithDirection(d)(l)
}

func (l *lightImpl) SetColor(c mgl32.Vec3) {
	l.color = c
}

func (l *lightImpl) SetIntensity(intensity float32) {
	WithIntensity(intensity)(l)
}

func (l *lightImpl) SetRange(lightRange float32) {
	WithRange(lightRange)(l)
}

func (l *lightImpl) SetSpotCone(innerDeg, outerDeg float32) {
	WithSpotCone(innerDeg, outerDeg)(l)
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}
