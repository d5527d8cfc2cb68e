package frame

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

// Layer is the geometry sub-range a batch draws in.
type Layer = material.Layer

// GeometryBatch is one submitted draw request. It is immutable once added to a FrameList and
// lives only for that frame.
type GeometryBatch struct {
	Model     mgl32.Mat4
	PrevModel mgl32.Mat4
	// Bounds is the world-space bounding box used for light overlap tests.
	Bounds   common.AABB
	Material material.Material
	Source   vertex.Source
	Range    state.VertexRange
	Topology gputypes.PrimitiveTopology
	// Depth is a render-order hint. Lower values draw first within equal depth-test state.
	Depth    float32
	Scissor  state.Scissor
	FlipCull bool
	// Layer overrides the material's layer when not opaque.
	Layer Layer
}

// layer resolves the batch's effective layer.
func (b *GeometryBatch) layer() Layer {
	if b.Layer != material.LayerOpaque {
		return b.Layer
	}
	return b.Material.Layer()
}

// lit reports whether the batch receives light passes.
func (b *GeometryBatch) lit() bool {
	return b.Material.Lit() && b.layer() == material.LayerOpaque
}
