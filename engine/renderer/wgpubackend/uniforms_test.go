package wgpubackend

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
)

const paramsWGSL = `
struct Params {
    u_view_proj: mat4x4<f32>,
    u_tint: vec3<f32>,
    u_light_count: i32,
    u_normal: mat3x3<f32>,
};

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<uniform> u_exposure: f32;

@vertex
fn vs_main(@location(0) p: vec3<f32>) -> @builtin(position) vec4<f32> {
    return params.u_view_proj * vec4<f32>(p, u_exposure);
}
`

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(0), alignUp(0, uniformAlign))
	assert.Equal(t, uint64(256), alignUp(1, uniformAlign))
	assert.Equal(t, uint64(256), alignUp(256, uniformAlign))
	assert.Equal(t, uint64(512), alignUp(257, uniformAlign))
}

func TestPackBlockUsesReflectedOffsets(t *testing.T) {
	refl := program.ReflectWGSL(paramsWGSL)
	require.Len(t, refl.Bindings, 2)
	params := refl.Bindings[0]
	require.Len(t, params.Fields, 4)

	u := state.NewUniforms(4)
	u.Set("u_tint", mgl32.Vec3{0.25, 0.5, 0.75})
	u.Set("u_light_count", int32(3))
	u.Set("u_normal", mgl32.Ident3())

	buf := make([]byte, params.Size)
	packBlock(buf, params, u, nil)

	tint := params.Fields[1].Offset
	assert.Equal(t, uint64(64), tint)
	assert.Equal(t, float32(0.5), f32At(buf, int(tint)+4))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(buf[params.Fields[2].Offset:]))

	// mat3 columns are padded to 16 bytes
	normal := int(params.Fields[3].Offset)
	assert.Equal(t, float32(1), f32At(buf, normal))
	assert.Equal(t, float32(1), f32At(buf, normal+16+4))
	assert.Equal(t, float32(1), f32At(buf, normal+32+8))

	// missing uniforms leave their bytes untouched
	assert.Equal(t, float32(0), f32At(buf, 0))
}

func TestPackBlockLooseUniform(t *testing.T) {
	refl := program.ReflectWGSL(paramsWGSL)
	exposure := refl.Bindings[1]
	require.Empty(t, exposure.Fields)

	u := state.NewUniforms(1)
	u.Set("u_exposure", float32(2.5))
	buf := make([]byte, 16)
	packBlock(buf, exposure, u, nil)
	assert.Equal(t, float32(2.5), f32At(buf, 0))
}

func TestPackBlockClipCorrection(t *testing.T) {
	refl := program.ReflectWGSL(paramsWGSL)
	params := refl.Bindings[0]

	proj := mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 100)
	u := state.NewUniforms(1)
	u.Set("u_view_proj", proj)

	buf := make([]byte, params.Size)
	packBlock(buf, params, u, map[string]bool{"u_view_proj": true})

	// a point on the near plane lands at depth 0 rather than -1
	var m mgl32.Mat4
	for i := range m {
		m[i] = f32At(buf, i*4)
	}
	clip := m.Mul4x1(mgl32.Vec4{0, 0, -0.1, 1})
	assert.InDelta(t, 0, clip.Z()/clip.W(), 1e-5)
	far := m.Mul4x1(mgl32.Vec4{0, 0, -100, 1})
	assert.InDelta(t, 1, far.Z()/far.W(), 1e-4)
}

func TestPackValueArrays(t *testing.T) {
	buf := make([]byte, 64)
	packValue(buf, []float32{1, 2}, 64)
	assert.Equal(t, float32(1), f32At(buf, 0))
	assert.Equal(t, float32(2), f32At(buf, 16))

	small := make([]byte, 8)
	packValue(small, mgl32.Vec4{1, 2, 3, 4}, 8)
	assert.Equal(t, float32(2), f32At(small, 4))
}
