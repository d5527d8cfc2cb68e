package material

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/texture"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo/diffuse RGBA color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(color mgl32.Vec4) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = color
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = roughness
	}
}

// WithDiffuseTexture binds the albedo map to UnitDiffuse.
func WithDiffuseTexture(tex texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.diffuseTexture = tex
	}
}

// WithNormalTexture binds the normal map to UnitNormal.
func WithNormalTexture(tex texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.normalTexture = tex
	}
}

// WithMetallicRoughnessTexture binds the metallic-roughness map to UnitMetallicRoughness.
func WithMetallicRoughnessTexture(tex texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.metallicRoughnessTexture = tex
	}
}

// WithTexture appends an additional binding after the standard maps.
//
// Parameters:
//   - unit: the texture unit, which must be above the standard units in use
//   - tex: the texture, or nil to bind the fallback
//
// Returns:
//   - MaterialBuilderOption: a function that applies the binding to a material
func WithTexture(unit uint32, tex texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.extraTextures = append(m.extraTextures, state.TextureBinding{Unit: unit, Texture: tex})
	}
}

// WithProgram is an option builder that sets the shader program.
func WithProgram(p program.Program) MaterialBuilderOption {
	return func(m *material) {
		m.program = p
	}
}

// WithDepth sets the depth test and depth write flags.
//
// Parameters:
//   - test: whether fragments are depth tested
//   - write: whether fragments write depth
//
// Returns:
//   - MaterialBuilderOption: a function that applies the depth state to a material
func WithDepth(test, write bool) MaterialBuilderOption {
	return func(m *material) {
		m.depthTest = test
		m.depthWrite = write
	}
}

// WithCullMode sets the face culling mode.
func WithCullMode(mode gputypes.CullMode) MaterialBuilderOption {
	return func(m *material) {
		m.cullMode = mode
	}
}

// WithBlend sets the colour blend descriptor.
func WithBlend(b state.Blend) MaterialBuilderOption {
	return func(m *material) {
		m.blend = b
	}
}

// WithLit selects whether the material receives additive light passes.
func WithLit(lit bool) MaterialBuilderOption {
	return func(m *material) {
		m.lit = lit
	}
}

// WithLayer sets the geometry sub-range. Sky and transparent layers default to no depth write,
// which a later WithDepth may override.
//
// Parameters:
//   - layer: the layer to draw in
//
// Returns:
//   - MaterialBuilderOption: a function that applies the layer to a material
func WithLayer(layer Layer) MaterialBuilderOption {
	return func(m *material) {
		m.layer = layer
		switch layer {
		case LayerSky:
			m.depthWrite = false
			m.lit = false
			m.cullMode = gputypes.CullModeNone
		case LayerTransparent:
			m.depthWrite = false
			m.lit = false
			if !m.blend.Enabled {
				m.blend = state.BlendAlpha
			}
		}
	}
}

// WithUniform sets a default uniform value.
func WithUniform(name string, value any) MaterialBuilderOption {
	return func(m *material) {
		m.defaults.Set(name, value)
	}
}
