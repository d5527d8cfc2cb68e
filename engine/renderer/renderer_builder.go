package renderer

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithStages sets the stages frames are compiled with, replacing the default GeometryStage.
//
// Parameters:
//   - stages: the stages in execution order
//
// Returns:
//   - RendererBuilderOption: a function that applies the stages option to a renderer
func WithStages(stages ...frame.Stage) RendererBuilderOption {
	return func(r *renderer) {
		r.stages = append(r.stages, stages...)
	}
}

// WithDepthPrePass inserts a depth-only pass ahead of the other stages, drawn with p.
//
// Parameters:
//   - p: the program used for the depth-only draws
//
// Returns:
//   - RendererBuilderOption: a function that applies the pre-pass option to a renderer
func WithDepthPrePass(p program.Program) RendererBuilderOption {
	return func(r *renderer) {
		r.prepass = frame.NewDepthPrePass(p)
	}
}

// WithClustering runs a ClusterStage first so later stages see the clustered light grid.
//
// Parameters:
//   - opts: options for the cluster stage
//
// Returns:
//   - RendererBuilderOption: a function that applies the clustering option to a renderer
func WithClustering(opts ...frame.ClusterStageBuilderOption) RendererBuilderOption {
	return func(r *renderer) {
		r.clusterer = frame.NewClusterStage(opts...)
	}
}

// WithClearColor sets the colour the surface is cleared to each frame. Defaults to opaque black.
func WithClearColor(c mgl32.Vec4) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = c
	}
}

// WithViewport sets the default viewport.
func WithViewport(v common.Rect) RendererBuilderOption {
	return func(r *renderer) {
		r.viewport = v
	}
}

// WithTarget renders into t instead of the window surface.
func WithTarget(t *backend.Target) RendererBuilderOption {
	return func(r *renderer) {
		r.target = t
	}
}

// WithKeepTree retains each frame's command tree for inspection through LastTree.
func WithKeepTree(keep bool) RendererBuilderOption {
	return func(r *renderer) {
		r.keepTree = keep
	}
}
