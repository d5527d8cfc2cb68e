package frame

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

// FrameListBuilderOption is a function that configures a FrameList during construction.
type FrameListBuilderOption func(*FrameList)

// WithCamera supplies the separate view and projection matrices. Stages that work in view
// space, such as light clustering, need them; the combined matrix is recomputed from them.
//
// Parameters:
//   - view: the world-to-view matrix
//   - proj: the projection matrix
//
// Returns:
//   - FrameListBuilderOption: a function that applies the matrices to a frame list
func WithCamera(view, proj mgl32.Mat4) FrameListBuilderOption {
	return func(fl *FrameList) {
		fl.view = view
		fl.proj = proj
		fl.viewProj = proj.Mul4(view)
	}
}

// WithAmbient sets the ambient term pushed as u_ambient.
func WithAmbient(ambient mgl32.Vec3) FrameListBuilderOption {
	return func(fl *FrameList) {
		fl.ambient = ambient
	}
}

// WithListViewport sets the output rectangle the frame renders to.
func WithListViewport(r common.Rect) FrameListBuilderOption {
	return func(fl *FrameList) {
		fl.viewport = r
	}
}

// WithCapacity preallocates room for n batches.
func WithCapacity(n int) FrameListBuilderOption {
	return func(fl *FrameList) {
		fl.batches = make([]GeometryBatch, 0, n)
	}
}
