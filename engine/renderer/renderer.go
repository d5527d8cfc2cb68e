package renderer

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backend  backend.Backend
	pipeline *frame.Pipeline
	target   *backend.Target

	clearColor mgl32.Vec4
	clearDepth float32
	viewport   common.Rect

	// ops are run on the graphics thread at the start of the next frame.
	ops []func()

	frames   uint64
	total    backend.Stats
	last     backend.Stats
	lastTree *frame.CommandTree
	keepTree bool

	// Pre-creation config collected from builder options
	stages    []frame.Stage
	prepass   *frame.DepthPrePass
	clusterer *frame.ClusterStage
}

// Renderer turns frame lists into backend verbs.
//
// Each RenderFrame builds a fresh CommandTree, runs the configured stages over the frame list
// to fill it, and applies it to the backend. The renderer owns no device resources; those
// belong to the backend it wraps. All methods except Enqueue must be called from the goroutine
// that owns the graphics context.
type Renderer interface {
	// Backend returns the backend verbs are issued through.
	Backend() backend.Backend

	// Pipeline returns the stage pipeline frames are compiled with.
	Pipeline() *frame.Pipeline

	// SetPipeline replaces the stage pipeline.
	//
	// Parameters:
	//   - p: the new pipeline, must not be nil
	SetPipeline(p *frame.Pipeline)

	// ClusterStage returns the clustered light stage, or nil when clustering is not enabled.
	ClusterStage() *frame.ClusterStage

	// ClearColor returns the colour the surface is cleared to each frame.
	ClearColor() mgl32.Vec4

	// SetClearColor sets the colour the surface is cleared to each frame.
	SetClearColor(c mgl32.Vec4)

	// Viewport returns the default viewport used when a frame list carries none.
	Viewport() common.Rect

	// Resize updates the default viewport and reconfigures the backend surface if it
	// supports resizing.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// Enqueue schedules op to run on the graphics thread before the next frame is compiled.
	// Safe to call from any goroutine.
	//
	// Parameters:
	//   - op: the operation to run
	Enqueue(op func())

	// RenderFrame compiles and applies one frame.
	//
	// Parameters:
	//   - fl: the frame's geometry and lights
	//
	// Returns:
	//   - backend.Stats: the verbs issued for the frame
	//   - error: if the backend could not begin or end the frame
	RenderFrame(fl *frame.FrameList) (backend.Stats, error)

	// Frames returns the number of frames rendered.
	Frames() uint64

	// LastStats returns the stats of the most recent frame.
	LastStats() backend.Stats

	// TotalStats returns the stats accumulated over every frame.
	TotalStats() backend.Stats

	// LastTree returns the command tree of the most recent frame when tree retention is
	// enabled with WithKeepTree, or nil.
	LastTree() *frame.CommandTree
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer issuing verbs through b.
//
// Without stage options the pipeline is a single GeometryStage. WithClustering prepends a
// ClusterStage and WithDepthPrePass inserts a depth pre-pass ahead of the configured stages.
//
// Parameters:
//   - b: the backend to render through, must not be nil
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the new renderer
func NewRenderer(b backend.Backend, options ...RendererBuilderOption) Renderer {
	if b == nil {
		panic("renderer: NewRenderer requires a non-nil backend")
	}
	r := &renderer{
		mu:         &sync.Mutex{},
		backend:    b,
		clearColor: mgl32.Vec4{0, 0, 0, 1},
		clearDepth: 1,
	}
	for _, opt := range options {
		opt(r)
	}

	stages := make([]frame.Stage, 0, len(r.stages)+2)
	if r.clusterer != nil {
		stages = append(stages, r.clusterer)
	}
	if r.prepass != nil {
		stages = append(stages, r.prepass)
	}
	if len(r.stages) == 0 {
		r.stages = []frame.Stage{frame.NewGeometryStage()}
	}
	stages = append(stages, r.stages...)
	r.pipeline = frame.NewPipeline(stages...)

	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	common.Logger().Named("renderer").Info("renderer created",
		zap.String("backend", fmt.Sprintf("%T", b)), zap.Strings("stages", names))
	return r
}

func (r *renderer) Backend() backend.Backend {
	return r.backend
}

func (r *renderer) Pipeline() *frame.Pipeline {
	return r.pipeline
}

func (r *renderer) SetPipeline(p *frame.Pipeline) {
	if p == nil {
		panic("renderer: nil pipeline")
	}
	r.pipeline = p
}

func (r *renderer) ClusterStage() *frame.ClusterStage {
	return r.clusterer
}

func (r *renderer) ClearColor() mgl32.Vec4 {
	return r.clearColor
}

func (r *renderer) SetClearColor(c mgl32.Vec4) {
	r.clearColor = c
}

func (r *renderer) Viewport() common.Rect {
	return r.viewport
}

func (r *renderer) Resize(width, height int) {
	r.viewport = common.Rect{Width: int32(width), Height: int32(height)}
	if rs, ok := r.backend.(backend.Resizer); ok {
		rs.Resize(width, height)
	}
}

func (r *renderer) Enqueue(op func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

// drain runs and clears the pending operations. Ops enqueued while draining run next frame.
func (r *renderer) drain() {
	r.mu.Lock()
	ops := r.ops
	r.ops = nil
	r.mu.Unlock()
	for _, op := range ops {
		op()
	}
}

func (r *renderer) RenderFrame(fl *frame.FrameList) (backend.Stats, error) {
	r.drain()

	fb, framed := r.backend.(backend.FrameBackend)
	if framed {
		if err := fb.BeginFrame(); err != nil {
			return backend.Stats{}, fmt.Errorf("renderer: begin frame: %w", err)
		}
	}

	viewport := fl.Viewport()
	if viewport.Empty() {
		viewport = r.viewport
	}
	tree := frame.NewCommandTree(
		frame.WithViewport(viewport),
		frame.WithClear(state.ClearColor|state.ClearDepth, []mgl32.Vec4{r.clearColor}, r.clearDepth),
		frame.WithTarget(r.target),
	)
	r.pipeline.Compile(fl, tree)

	var stats backend.Stats
	if tree.Empty() {
		// An empty tree issues nothing, but the surface still needs clearing.
		c := backend.NewCounter(r.backend)
		c.BindTarget(r.target)
		c.SetViewport(viewport)
		c.Clear(state.ClearColor|state.ClearDepth, []mgl32.Vec4{r.clearColor}, r.clearDepth)
		stats = c.Stats()
	} else {
		stats = tree.Apply(r.backend)
	}

	if framed {
		if err := fb.EndFrame(); err != nil {
			return stats, fmt.Errorf("renderer: end frame: %w", err)
		}
	}

	r.frames++
	r.last = stats
	r.total.Add(stats)
	if r.keepTree {
		r.lastTree = tree
	}
	return stats, nil
}

func (r *renderer) Frames() uint64 {
	return r.frames
}

func (r *renderer) LastStats() backend.Stats {
	return r.last
}

func (r *renderer) TotalStats() backend.Stats {
	return r.total
}

func (r *renderer) LastTree() *frame.CommandTree {
	return r.lastTree
}
