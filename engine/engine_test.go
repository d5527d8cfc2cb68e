package engine

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/camera"
	"github.com/Carmen-Shannon/oxy-frame/engine/game_object"
	"github.com/Carmen-Shannon/oxy-frame/engine/model"
	"github.com/Carmen-Shannon/oxy-frame/engine/profiler"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/scene"
)

const flatShader = `
@group(0) @binding(0) var<uniform> u_view_proj: mat4x4<f32>;
@group(0) @binding(1) var<uniform> u_model: mat4x4<f32>;

@vertex
fn vs_main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
    return u_view_proj * u_model * vec4<f32>(pos, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0);
}
`

func newTestEngine(t *testing.T, opts ...EngineBuilderOption) (Engine, *backend.Recorder) {
	t.Helper()
	rec := backend.NewRecorder()
	r := renderer.NewRenderer(rec, renderer.WithViewport(common.Rect{Width: 320, Height: 240}))
	return NewEngine(r, opts...), rec
}

func cubeScene(name string, positions ...mgl32.Vec3) scene.Scene {
	mat := material.NewMaterial(material.WithProgram(program.NewProgram("flat", program.WithWGSL(flatShader))))
	s := scene.NewScene(name, camera.NewCamera(), scene.WithComputeWorkers(1))
	for _, p := range positions {
		s.Add(game_object.NewGameObject(
			game_object.WithModel(model.NewModel(model.Cube(1), model.WithMaterial(mat))),
			game_object.WithPosition(p),
		))
	}
	return s
}

func TestNewEnginePanicsWithoutRenderer(t *testing.T) {
	assert.PanicsWithValue(t, "engine: NewEngine requires a non-nil renderer", func() { NewEngine(nil) })
}

func TestWithSceneRejectsNil(t *testing.T) {
	assert.PanicsWithValue(t, "engine: WithScene requires a non-nil scene", func() { WithScene(0, nil) })
}

func TestStepWithoutSceneDoesNothing(t *testing.T) {
	e, rec := newTestEngine(t)
	stats, err := e.Step(0.016)
	require.NoError(t, err)
	assert.Zero(t, stats.Draws)
	assert.Empty(t, rec.Calls())
}

func TestStepRendersActiveScene(t *testing.T) {
	var seen []backend.Stats
	e, _ := newTestEngine(t, WithScene(0, cubeScene("main", mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 5})))
	e.SetRenderCallback(func(_ float32, s backend.Stats) { seen = append(seen, s) })

	stats, err := e.Step(0.016)
	require.NoError(t, err)
	// the cube behind the camera is culled
	assert.Equal(t, 1, stats.Draws)
	require.Len(t, seen, 1)
	assert.Equal(t, stats.Draws, seen[0].Draws)
	assert.Equal(t, uint64(1), e.Renderer().Frames())
}

func TestActiveSceneSelection(t *testing.T) {
	e, _ := newTestEngine(t)
	a := cubeScene("a", mgl32.Vec3{0, 0, -5})
	b := cubeScene("b", mgl32.Vec3{0, 0, -5}, mgl32.Vec3{1, 0, -5})

	e.AddScene(1, a)
	e.AddScene(2, b)
	assert.Equal(t, a, e.ActiveScene())
	assert.Len(t, e.Scenes(), 2)

	assert.False(t, e.SetActiveScene(7))
	require.True(t, e.SetActiveScene(2))
	stats, err := e.Step(0)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Draws)

	e.RemoveScene(2)
	assert.Nil(t, e.ActiveScene())
	assert.Nil(t, e.Scene(2))
}

func TestProfilerTicksWhenEnabled(t *testing.T) {
	p := profiler.NewProfiler(profiler.WithInterval(time.Nanosecond), profiler.WithMemoryStats(false))
	e, _ := newTestEngine(t,
		WithProfiler(p),
		WithScene(0, cubeScene("main", mgl32.Vec3{0, 0, -5})),
	)

	_, err := e.Step(0.016)
	require.NoError(t, err)
	assert.Zero(t, p.Last().Frames)

	e.EnableProfiler()
	time.Sleep(time.Millisecond)
	_, err = e.Step(0.016)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Last().Frames)
	assert.Equal(t, 1, p.Last().Draws)
}

func TestRunRequiresWindow(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.ErrorIs(t, e.Run(), ErrNoWindow)
	e.Quit()
	e.Quit()
}

func TestKeyShortcuts(t *testing.T) {
	e, _ := newTestEngine(t)
	a := cubeScene("a", mgl32.Vec3{0, 0, -5})
	b := scene.NewScene("b", camera.NewCamera(camera.WithController(camera.NewOrbitController(camera.WithRadius(10)))),
		scene.WithComputeWorkers(1))
	e.AddScene(1, a)
	e.AddScene(2, b)
	impl := e.(*engine)

	impl.keyDown(common.Key2)
	assert.Equal(t, b, e.ActiveScene())

	impl.keyDown(common.KeyC)
	assert.True(t, b.CullingDisabled())
	impl.keyDown(common.KeyC)
	assert.False(t, b.CullingDisabled())

	impl.keyDown(common.KeyP)
	assert.True(t, impl.profilingEnabled)
	impl.keyDown(common.KeyP)
	assert.False(t, impl.profilingEnabled)

	ctrl := b.Camera().Controller()
	before := ctrl.Target()
	impl.keyDown(common.KeyW)
	moved := ctrl.Target().Sub(before)
	assert.InDelta(t, 0.5, moved.Len(), 1e-4)
	assert.InDelta(t, 0, moved.Y(), 1e-6)

	impl.keyDown(common.KeyA)
	impl.keyDown(common.KeyD)
	assert.InDelta(t, 0.5, ctrl.Target().Sub(before).Len(), 1e-4)

	impl.keyDown(common.KeyEscape)
	select {
	case <-impl.quitChannel:
	default:
		t.Fatal("escape did not signal quit")
	}
}
