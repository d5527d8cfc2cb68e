package material

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/texture"
)

// Layer classifies a material into the sub-range of the geometry stage that draws it.
type Layer int

const (
	// LayerOpaque draws in the base pass and, when lit, in every overlapping light pass.
	LayerOpaque Layer = iota

	// LayerSky draws after all opaque passes with depth writes disabled.
	LayerSky

	// LayerTransparent draws last, in submission order, with the material's blend.
	LayerTransparent
)

// Texture units assigned to the standard material maps.
const (
	UnitDiffuse uint32 = iota
	UnitNormal
	UnitMetallicRoughness
)

// material is the implementation of the Material interface.
type material struct {
	name                     string
	baseColor                mgl32.Vec4
	metallic                 float32
	roughness                float32
	diffuseTexture           texture.Texture
	normalTexture            texture.Texture
	metallicRoughnessTexture texture.Texture
	extraTextures            []state.TextureBinding
	program                  program.Program
	depthTest                bool
	depthWrite               bool
	cullMode                 gputypes.CullMode
	blend                    state.Blend
	lit                      bool
	layer                    Layer
	defaults                 *state.Uniforms
}

// Material defines the render state and default shader inputs of a surface.
//
// Render state (depth test, depth write, cull mode, blend, program, textures) is read by the
// frame compiler to key command tree nodes. Defaults are mutable so engine code can animate a
// material between frames; a draw captures a copy of the defaults when it is inserted, so later
// mutation in the same frame does not affect already-compiled draws.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo/diffuse RGBA color of the material.
	//
	// Returns:
	//   - mgl32.Vec4: the base color as RGBA values
	BaseColor() mgl32.Vec4

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor of the material.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// DepthTestEnabled reports whether fragments are depth tested.
	DepthTestEnabled() bool

	// DepthWriteEnabled reports whether fragments write depth.
	DepthWriteEnabled() bool

	// CullMode returns the face culling mode before any per-draw flip.
	CullMode() gputypes.CullMode

	// Blend returns the colour blend descriptor.
	Blend() state.Blend

	// Program returns the shader program used to draw the material.
	Program() program.Program

	// Textures returns the texture bindings in unit order. Units without a texture carry a nil
	// Texture so the fallback is bound in their place.
	//
	// Returns:
	//   - []state.TextureBinding: the ordered binding list
	Textures() []state.TextureBinding

	// Lit reports whether the material receives additive light passes.
	Lit() bool

	// Layer returns the geometry sub-range the material draws in.
	Layer() Layer

	// Uniforms returns the live default uniform set. Callers that retain values must Clone it.
	//
	// Returns:
	//   - *state.Uniforms: the material's default uniforms
	Uniforms() *state.Uniforms

	// SetUniform assigns a default uniform value.
	//
	// Parameters:
	//   - name: the uniform name
	//   - value: a value type accepted by state.Uniform
	SetUniform(name string, value any)

	// SetProgram swaps the shader program, e.g. after a variant is selected.
	//
	// Parameters:
	//   - p: the new program
	SetProgram(p program.Program)
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
// The default state is an opaque, lit, depth-tested and depth-writing, back-face culled surface.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		baseColor:  mgl32.Vec4{1, 1, 1, 1},
		metallic:   0.0,
		roughness:  1.0,
		depthTest:  true,
		depthWrite: true,
		cullMode:   gputypes.CullModeBack,
		blend:      state.BlendOpaque,
		lit:        true,
		layer:      LayerOpaque,
		defaults:   state.NewUniforms(4),
	}
	for _, opt := range options {
		opt(m)
	}
	m.defaults.Set("u_base_color", m.baseColor)
	m.defaults.Set("u_metallic", m.metallic)
	m.defaults.Set("u_roughness", m.roughness)
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() mgl32.Vec4 {
	return m.baseColor
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) Roughness() float32 {
	return m.roughness
}

func (m *material) DepthTestEnabled() bool {
	return m.depthTest
}

func (m *material) DepthWriteEnabled() bool {
	return m.depthWrite
}

func (m *material) CullMode() gputypes.CullMode {
	return m.cullMode
}

func (m *material) Blend() state.Blend {
	return m.blend
}

func (m *material) Program() program.Program {
	return m.program
}

func (m *material) Textures() []state.TextureBinding {
	maps := []texture.Texture{m.diffuseTexture, m.normalTexture, m.metallicRoughnessTexture}
	last := -1
	for i, t := range maps {
		if t != nil {
			last = i
		}
	}
	out := make([]state.TextureBinding, 0, last+1+len(m.extraTextures))
	for i := 0; i <= last; i++ {
		out = append(out, state.TextureBinding{Unit: uint32(i), Texture: maps[i]})
	}
	return append(out, m.extraTextures...)
}

func (m *material) Lit() bool {
	return m.lit
}

func (m *material) Layer() Layer {
	return m.layer
}

func (m *material) Uniforms() *state.Uniforms {
	return m.defaults
}

func (m *material) SetUniform(name string, value any) {
	switch name {
	case "u_base_color":
		if c, ok := value.(mgl32.Vec4); ok {
			m.baseColor = c
		}
	case "u_metallic":
		if f, ok := value.(float32); ok {
			m.metallic = f
		}
	case "u_roughness":
		if f, ok := value.(float32); ok {
			m.roughness = f
		}
	}
	m.defaults.Set(name, value)
}

func (m *material) SetProgram(p program.Program) {
	m.program = p
}
