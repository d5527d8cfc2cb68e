package frame

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
)

// TreeBuilderOption is a function that configures the root of a CommandTree.
type TreeBuilderOption func(*CommandTree)

// WithViewport sets the viewport applied when the root is bound.
//
// Parameters:
//   - r: the viewport rectangle in pixels
//
// Returns:
//   - TreeBuilderOption: a function that applies the viewport to a tree
func WithViewport(r common.Rect) TreeBuilderOption {
	return func(t *CommandTree) {
		t.viewport = r
	}
}

// WithClear requests a clear of the bound target before the first pass.
//
// Parameters:
//   - mask: which attachments to clear
//   - colors: clear colour per colour attachment
//   - depth: depth clear value
//
// Returns:
//   - TreeBuilderOption: a function that applies the clear to a tree
func WithClear(mask state.ClearMask, colors []mgl32.Vec4, depth float32) TreeBuilderOption {
	return func(t *CommandTree) {
		t.clearMask = mask
		t.clearColor = colors
		t.clearDepth = depth
	}
}

// WithTarget renders into t instead of the window surface.
func WithTarget(t *backend.Target) TreeBuilderOption {
	return func(ct *CommandTree) {
		ct.target = t
	}
}
