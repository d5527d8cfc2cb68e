package demo

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/scene"
)

func TestBuiltinProgramsReflect(t *testing.T) {
	for _, lang := range []program.Language{program.LanguageWGSL, program.LanguageGLSL} {
		p := BuiltinPrograms(lang)
		require.NotNil(t, p.Lit)
		require.NotNil(t, p.Depth)
		assert.Equal(t, lang, p.Lit.Language())
		assert.True(t, p.Lit.HasUniform("u_light_type"))
	}
}

func TestShaderFiles(t *testing.T) {
	assert.Equal(t, map[program.Stage]string{program.StageVertex: "lit.wgsl"}, ShaderFiles("lit", program.LanguageWGSL))
	assert.Equal(t, map[program.Stage]string{
		program.StageVertex:   "depth.vert",
		program.StageFragment: "depth.frag",
	}, ShaderFiles("depth", program.LanguageGLSL))
}

func TestLoadProgramsMissingFile(t *testing.T) {
	fsys := fstest.MapFS{"lit.wgsl": {Data: []byte("@vertex fn vs_main() {}")}}
	_, err := LoadPrograms(fsys, program.LanguageWGSL)
	assert.ErrorContains(t, err, "depth")
}

func TestSceneRendersLitPasses(t *testing.T) {
	progs := BuiltinPrograms(program.LanguageWGSL)
	s := NewScene(progs, 4.0/3.0,
		WithGrid(2),
		WithPointLights(2),
		WithPanes(1),
		WithSceneOptions(scene.WithComputeWorkers(1)),
	)
	// ground, four cubes, one pane
	assert.Equal(t, 6, s.Count())
	assert.Len(t, s.Lights(), 3)

	rec := backend.NewRecorder()
	viewport := common.Rect{Width: 640, Height: 480}
	r := renderer.NewRenderer(rec, renderer.WithViewport(viewport), renderer.WithDepthPrePass(progs.Depth))

	s.Prepare(0.016)
	stats, err := r.RenderFrame(s.BuildFrameList(viewport))
	require.NoError(t, err)
	// at least the pre-pass, the base pass and the sun pass of every visible object
	assert.Greater(t, stats.Draws, 6)
	assert.NotEmpty(t, rec.Filter(backend.VerbSetBlend))
}

func TestSeedIsDeterministic(t *testing.T) {
	progs := BuiltinPrograms(program.LanguageGLSL)
	a := NewScene(progs, 1, WithGrid(1), WithPointLights(3), WithPanes(0), WithSeed(7))
	b := NewScene(progs, 1, WithGrid(1), WithPointLights(3), WithPanes(0), WithSeed(7))
	require.Len(t, a.Lights(), 4)
	for i := range a.Lights() {
		assert.Equal(t, a.Lights()[i].Position(), b.Lights()[i].Position())
		assert.Equal(t, a.Lights()[i].Color(), b.Lights()[i].Color())
	}
}
