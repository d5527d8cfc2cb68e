package renderer

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
	"github.com/Carmen-Shannon/oxy-frame/engine/model"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
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

var screen = common.Rect{Width: 320, Height: 240}

func newCubeList(t *testing.T, n int) *frame.FrameList {
	t.Helper()
	mat := material.NewMaterial(material.WithProgram(program.NewProgram("flat", program.WithWGSL(flatShader))))
	cube := model.NewModel(model.Cube(1), model.WithMaterial(mat))
	fl := frame.NewFrameList(mgl32.Vec3{}, mgl32.Ident4())
	for i := range n {
		sub := cube.Submeshes()[0]
		fl.AddGeometry(mgl32.Translate3D(float32(i), 0, 0), cube.Bounds(), mat, cube.Source(), sub.Range,
			gputypes.PrimitiveTopologyTriangleList, 0, state.Scissor{})
	}
	return fl
}

// framedRecorder records verbs and brackets frames, optionally failing to begin.
type framedRecorder struct {
	*backend.Recorder
	begins, ends int
	beginErr     error
	resized      [2]int
}

func (f *framedRecorder) BeginFrame() error {
	f.begins++
	return f.beginErr
}

func (f *framedRecorder) EndFrame() error {
	f.ends++
	return nil
}

func (f *framedRecorder) Resize(width, height int) {
	f.resized = [2]int{width, height}
}

func TestNewRendererPanicsWithoutBackend(t *testing.T) {
	assert.PanicsWithValue(t, "renderer: NewRenderer requires a non-nil backend", func() { NewRenderer(nil) })
}

func TestStageOrder(t *testing.T) {
	tests := []struct {
		name string
		opts []RendererBuilderOption
		want []string
	}{
		{"default", nil, []string{"geometry"}},
		{"prepass", []RendererBuilderOption{WithDepthPrePass(program.NewProgram("depth", program.WithWGSL(flatShader)))},
			[]string{"depth-prepass", "geometry"}},
		{"clustered prepass", []RendererBuilderOption{
			WithDepthPrePass(program.NewProgram("depth", program.WithWGSL(flatShader))),
			WithClustering(),
		}, []string{"cluster", "depth-prepass", "geometry"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(backend.NewRecorder(), tt.opts...)
			var got []string
			for _, s := range r.Pipeline().Stages() {
				got = append(got, s.Name())
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderEmptyFrameClears(t *testing.T) {
	rec := backend.NewRecorder()
	r := NewRenderer(rec, WithViewport(screen), WithClearColor(mgl32.Vec4{0.2, 0.2, 0.2, 1}))

	stats, err := r.RenderFrame(frame.NewFrameList(mgl32.Vec3{}, mgl32.Ident4()))
	require.NoError(t, err)
	assert.Equal(t, []backend.Verb{backend.VerbBindTarget, backend.VerbSetViewport, backend.VerbClear}, rec.Verbs())
	assert.Equal(t, screen, rec.Calls()[1].Args[0])
	assert.Equal(t, 0, stats.Draws)
	assert.Equal(t, 3, stats.StateChanges())
}

func TestRenderFrameAccumulatesStats(t *testing.T) {
	rec := backend.NewRecorder()
	r := NewRenderer(rec, WithViewport(screen), WithKeepTree(true))

	for range 2 {
		stats, err := r.RenderFrame(newCubeList(t, 3))
		require.NoError(t, err)
		assert.Equal(t, 3, stats.Draws)
		assert.Equal(t, uint64(108), stats.Elements)
	}
	assert.Equal(t, uint64(2), r.Frames())
	assert.Equal(t, 6, r.TotalStats().Draws)
	assert.Equal(t, 3, r.LastStats().Draws)
	require.NotNil(t, r.LastTree())
	assert.Equal(t, 3, r.LastTree().DrawCount())
	assert.Len(t, rec.Filter(backend.VerbClear), 2)
}

func TestEnqueueRunsBeforeNextFrame(t *testing.T) {
	r := NewRenderer(backend.NewRecorder(), WithViewport(screen))
	var order []string
	r.Enqueue(func() { order = append(order, "a") })
	r.Enqueue(func() {
		order = append(order, "b")
		r.Enqueue(func() { order = append(order, "c") })
	})

	_, err := r.RenderFrame(newCubeList(t, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, order)

	_, err = r.RenderFrame(newCubeList(t, 1))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestFrameBackendBracketsFrames(t *testing.T) {
	fr := &framedRecorder{Recorder: backend.NewRecorder()}
	r := NewRenderer(fr)

	_, err := r.RenderFrame(newCubeList(t, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, fr.begins)
	assert.Equal(t, 1, fr.ends)

	fr.beginErr = errors.New("surface lost")
	_, err = r.RenderFrame(newCubeList(t, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, fr.beginErr)
	assert.Equal(t, 1, fr.ends, "a skipped frame is not ended")
	assert.Equal(t, uint64(1), r.Frames())
}

func TestResize(t *testing.T) {
	fr := &framedRecorder{Recorder: backend.NewRecorder()}
	r := NewRenderer(fr)
	r.Resize(800, 600)
	assert.Equal(t, [2]int{800, 600}, fr.resized)
	assert.Equal(t, common.Rect{Width: 800, Height: 600}, r.Viewport())
}

func TestFrameListViewportWins(t *testing.T) {
	rec := backend.NewRecorder()
	r := NewRenderer(rec, WithViewport(screen))
	small := common.Rect{Width: 64, Height: 64}

	fl := frame.NewFrameList(mgl32.Vec3{}, mgl32.Ident4(), frame.WithListViewport(small))
	_, err := r.RenderFrame(fl)
	require.NoError(t, err)
	assert.Equal(t, small, rec.Filter(backend.VerbSetViewport)[0].Args[0])
}
