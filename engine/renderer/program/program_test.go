package program

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const litWGSL = `
struct Params {
    u_view_proj: mat4x4<f32>,
    u_model: mat4x4<f32>,
    u_ambient: vec3<f32>,
    u_light_range: f32,
    u_eye: vec3<f32>,
};

struct Light { pos: vec4<f32>, color: vec4<f32> };

struct VertexInput {
    @location(0) position: vec3<f32>,
    @location(1) normal: vec3<f32>,
};

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) normal: vec3<f32>,
};

@group(0) @binding(0) var<uniform> params: Params;
@group(0) @binding(1) var<storage, read> lights: array<Light>;
@group(1) @binding(1) var albedo_sampler: sampler;
@group(1) @binding(0) var albedo: texture_2d<f32>;

/* block comment @group(9) @binding(9) var<uniform> ghost: Params; */
@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = params.u_view_proj * params.u_model * vec4<f32>(in.position, 1.0);
    out.normal = in.normal;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(albedo, albedo_sampler, vec2<f32>(0.0)) * vec4<f32>(params.u_ambient, 1.0);
}
`

func TestReflectWGSL(t *testing.T) {
	r := ReflectWGSL(litWGSL)

	require.Len(t, r.Bindings, 4)
	assert.Equal(t, "params", r.Bindings[0].Name)
	assert.Equal(t, BindingUniform, r.Bindings[0].Kind)
	assert.Equal(t, BindingReadOnlyStorage, r.Bindings[1].Kind)
	assert.Equal(t, uint64(32), r.Bindings[1].Size, "runtime arrays report one element")
	assert.Equal(t, "albedo", r.Bindings[2].Name, "sorted by group then binding")
	assert.Equal(t, BindingTexture, r.Bindings[2].Kind)
	assert.Equal(t, BindingSampler, r.Bindings[3].Kind)

	params := r.Bindings[0]
	assert.Equal(t, uint64(160), params.Size)
	require.Len(t, params.Fields, 5)
	offsets := map[string]uint64{}
	for _, f := range params.Fields {
		offsets[f.Name] = f.Offset
	}
	assert.Equal(t, map[string]uint64{
		"u_view_proj":   0,
		"u_model":       64,
		"u_ambient":     128,
		"u_light_range": 140,
		"u_eye":         144,
	}, offsets)

	assert.Equal(t, []string{"u_view_proj", "u_model", "u_ambient", "u_light_range", "u_eye"}, r.Uniforms)
	assert.Equal(t, "vs_main", r.EntryPoints[StageVertex])
	assert.Equal(t, "fs_main", r.EntryPoints[StageFragment])
	assert.Equal(t, []Output{{Location: 0, Type: "vec4<f32>"}}, r.Outputs)
}

func TestReflectWGSLStructOutputs(t *testing.T) {
	src := `
struct GBuffer {
    @location(1) normal: vec4<f32>,
    @location(0) albedo: vec4<f32>,
};
@fragment
fn fs(@builtin(position) p: vec4<f32>) -> GBuffer {
    var g: GBuffer;
    return g;
}
`
	r := ReflectWGSL(src)
	require.Len(t, r.Outputs, 2)
	assert.Equal(t, "albedo", r.Outputs[0].Name)
	assert.Equal(t, "normal", r.Outputs[1].Name)
}

func TestReflectGLSL(t *testing.T) {
	vs := `#version 410 core
layout(location = 0) in vec3 a_position;
uniform mat4 u_view_proj;
uniform mat4 u_model; // world
void main() { gl_Position = u_view_proj * u_model * vec4(a_position, 1.0); }
`
	fs := `#version 410 core
uniform sampler2D u_albedo;
uniform vec3 u_ambient;
uniform mat4 u_model;
layout(std430, binding = 2) readonly buffer Lights { vec4 data[]; };
layout(location = 0) out vec4 frag_color;
out vec4 frag_normal;
void main() { frag_color = texture(u_albedo, vec2(0.0)) * vec4(u_ambient, 1.0); }
`
	r := ReflectGLSL(vs, fs)
	assert.Equal(t, []string{"u_view_proj", "u_model", "u_ambient"}, r.Uniforms)
	require.Len(t, r.Bindings, 2)
	assert.Equal(t, Binding{Binding: 0, Name: "u_albedo", Kind: BindingTexture, TypeName: "sampler2D"}, r.Bindings[0])
	assert.Equal(t, BindingReadOnlyStorage, r.Bindings[1].Kind)
	assert.Equal(t, uint32(2), r.Bindings[1].Binding)
	assert.Equal(t, []Output{
		{Location: 0, Name: "frag_color", Type: "vec4"},
		{Location: 1, Name: "frag_normal", Type: "vec4"},
	}, r.Outputs)
}

func TestNewProgram(t *testing.T) {
	a := NewProgram("lit", WithWGSL(litWGSL), WithUniforms("u_extra"))
	b := NewProgram("lit2", WithWGSL(litWGSL))

	assert.Greater(t, b.ID(), a.ID())
	assert.True(t, a.HasUniform("u_model"))
	assert.True(t, a.HasUniform("u_extra"))
	assert.False(t, b.HasUniform("u_extra"))
	assert.Len(t, a.Samplers(), 1)
	assert.Len(t, a.StorageBuffers(), 1)
	block, ok := a.UniformBlock()
	require.True(t, ok)
	assert.Equal(t, "params", block.Name)
	assert.Equal(t, "fs_main", a.EntryPoint(StageFragment))

	assert.PanicsWithValue(t, "program: no source provided", func() { NewProgram("empty") })
}

func TestProgramReload(t *testing.T) {
	p := NewProgram("p", WithGLSL("uniform float u_a;", "out vec4 c;"))
	require.Equal(t, []string{"u_a"}, p.Uniforms())

	require.NoError(t, p.Reload(map[Stage]string{
		StageVertex:   "uniform float u_b;",
		StageFragment: "out vec4 c;",
	}))
	assert.Equal(t, []string{"u_b"}, p.Uniforms())
	assert.Equal(t, uint64(1), p.Revision())
	assert.Error(t, p.Reload(nil))
}

func TestWatcherQueuesReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lit.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(litWGSL), 0o644))

	ops := make(chan func(), 8)
	w, err := NewWatcher(func(op func()) { ops <- op })
	require.NoError(t, err)
	defer w.Close()

	p := NewProgram("lit", WithWGSL(litWGSL))
	require.NoError(t, w.Watch(p, map[Stage]string{StageVertex: path}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	const edited = `
@group(0) @binding(0) var<uniform> u_tint: vec4<f32>;
@vertex fn vs() -> @builtin(position) vec4<f32> { return u_tint; }
@fragment fn fs() -> @location(0) vec4<f32> { return u_tint; }
`
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	deadline := time.After(5 * time.Second)
	for p.Source(StageFragment) != edited {
		select {
		case op := <-ops:
			op()
		case <-deadline:
			t.Fatal("no reload queued")
		}
	}
	assert.Equal(t, []string{"u_tint"}, p.Uniforms())
	assert.Equal(t, edited, p.Source(StageFragment))
}
