package frame

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

// Light is a light source as the frame compiler sees it.
type Light interface {
	// WorldAABB returns the world-space region the light can affect.
	WorldAABB() common.AABB

	// SetupShaderParams writes the light's uniform block into out.
	//
	// Parameters:
	//   - eye: the camera position, for lights that shade in view-relative terms
	//   - out: the uniform set of the draw being lit
	SetupShaderParams(eye mgl32.Vec3, out *state.Uniforms)
}

// FrameList holds one frame's visible geometry and lights in submission order, plus the camera
// terms every draw needs. It is filled by the scene, compiled by stages into a CommandTree and
// dropped after the tree is applied.
type FrameList struct {
	eye      mgl32.Vec3
	view     mgl32.Mat4
	proj     mgl32.Mat4
	viewProj mgl32.Mat4
	ambient  mgl32.Vec3
	viewport common.Rect

	batches []GeometryBatch
	lights  []Light
	globals *state.Uniforms

	depthPrimed bool
}

// NewFrameList creates an empty frame list for one camera.
//
// Parameters:
//   - eye: world-space camera position
//   - viewProj: the combined projection * view matrix
//   - opts: variadic list of FrameListBuilderOption functions
//
// Returns:
//   - *FrameList: the empty frame list
func NewFrameList(eye mgl32.Vec3, viewProj mgl32.Mat4, opts ...FrameListBuilderOption) *FrameList {
	fl := &FrameList{
		eye:      eye,
		view:     mgl32.Ident4(),
		proj:     viewProj,
		viewProj: viewProj,
		ambient:  mgl32.Vec3{0.1, 0.1, 0.1},
		globals:  state.NewUniforms(4),
	}
	for _, opt := range opts {
		opt(fl)
	}
	return fl
}

// AddGeometry appends a batch. Call order is the draw order tie-break for equal state.
//
// Parameters:
//   - model: the world transform
//   - bounds: the world-space bounding box
//   - mat: the material
//   - src: the vertex source
//   - rng: the slice of src to draw
//   - topology: the primitive topology
//   - depth: the render-order hint
//   - scissor: an optional scissor rectangle
//
// Returns:
//   - int: the batch's index in the list
func (fl *FrameList) AddGeometry(model mgl32.Mat4, bounds common.AABB, mat material.Material, src vertex.Source,
	rng state.VertexRange, topology gputypes.PrimitiveTopology, depth float32, scissor state.Scissor) int {
	return fl.AddBatch(GeometryBatch{
		Model:     model,
		PrevModel: model,
		Bounds:    bounds,
		Material:  mat,
		Source:    src,
		Range:     rng,
		Topology:  topology,
		Depth:     depth,
		Scissor:   scissor,
		FlipCull:  model.Det() < 0,
	})
}

// AddBatch appends a fully specified batch. A zero PrevModel is replaced with Model.
func (fl *FrameList) AddBatch(b GeometryBatch) int {
	if b.Material == nil {
		panic("frame: batch with nil material")
	}
	if b.PrevModel == (mgl32.Mat4{}) {
		b.PrevModel = b.Model
	}
	fl.batches = append(fl.batches, b)
	return len(fl.batches) - 1
}

// AddLight appends a light. Light order fixes light pass order.
func (fl *FrameList) AddLight(l Light) {
	fl.lights = append(fl.lights, l)
}

// Geometry returns the batches in submission order.
func (fl *FrameList) Geometry() []GeometryBatch {
	return fl.batches
}

// Lights returns the lights in submission order.
func (fl *FrameList) Lights() []Light {
	return fl.lights
}

// Len returns the number of batches.
func (fl *FrameList) Len() int {
	return len(fl.batches)
}

// Eye returns the camera position.
func (fl *FrameList) Eye() mgl32.Vec3 {
	return fl.eye
}

// View returns the view matrix, identity if the list was built from a combined matrix only.
func (fl *FrameList) View() mgl32.Mat4 {
	return fl.view
}

// Projection returns the projection matrix.
func (fl *FrameList) Projection() mgl32.Mat4 {
	return fl.proj
}

// ViewProjection returns projection * view.
func (fl *FrameList) ViewProjection() mgl32.Mat4 {
	return fl.viewProj
}

// Viewport returns the output rectangle.
func (fl *FrameList) Viewport() common.Rect {
	return fl.viewport
}

// Globals returns uniforms published by earlier stages. They are layered into every draw's
// per-draw uniforms at insertion.
func (fl *FrameList) Globals() *state.Uniforms {
	return fl.globals
}

// DepthPrimed reports whether a stage has already written opaque depth this frame.
func (fl *FrameList) DepthPrimed() bool {
	return fl.depthPrimed
}

// SetDepthPrimed marks opaque depth as written.
func (fl *FrameList) SetDepthPrimed(primed bool) {
	fl.depthPrimed = primed
}

// Compile inserts the base pass at pass 0 and one additive pass per light at passes 1..N,
// then returns N+1, the next free pass.
//
// Every batch draws in the base pass with its material's blend and depth state. Each light
// then re-draws the lit batches whose bounds overlap its own with an equal depth test and
// ONE, ONE blending, so the light's contribution accumulates on the base colour without
// rewriting depth.
//
// Parameters:
//   - tree: the tree to insert into
//
// Returns:
//   - int: the next free pass index
func (fl *FrameList) Compile(tree *CommandTree) int {
	for i := range fl.batches {
		fl.insertBase(tree, 0, i, fl.baseDepthFunc())
	}
	return fl.compileLights(tree, 1, fl.batches)
}

// baseDepthFunc is LESS, or LESS_EQUAL once a pre-pass has laid down the same depth.
func (fl *FrameList) baseDepthFunc() gputypes.CompareFunction {
	if fl.depthPrimed {
		return gputypes.CompareFunctionLessEqual
	}
	return gputypes.CompareFunctionLess
}

// compileLights inserts one additive pass per light starting at pass first and returns the
// next free pass.
func (fl *FrameList) compileLights(tree *CommandTree, first int, batches []GeometryBatch) int {
	pass := first
	for _, l := range fl.lights {
		bounds := l.WorldAABB()
		for i := range batches {
			b := &batches[i]
			if !b.lit() || !b.Bounds.Overlaps(bounds) {
				continue
			}
			params := fl.autoUniforms(b)
			l.SetupShaderParams(fl.eye, params)
			tree.Insert(&DrawCommand{
				Pass:        pass,
				DrawBuffers: state.DrawBuffersFirst,
				Material:    b.Material,
				DepthFunc:   gputypes.CompareFunctionEqual,
				Depth:       b.Depth,
				Blend:       state.BlendAdditive,
				FlipCull:    b.FlipCull,
				Source:      b.Source,
				Topology:    b.Topology,
				Range:       b.Range,
				Scissor:     b.Scissor,
				Uniforms:    params,
				DepthWrite:  DepthWriteOff,
			})
		}
		pass++
	}
	return pass
}

// insertBase inserts batch i with its material's own blend and depth write.
func (fl *FrameList) insertBase(tree *CommandTree, pass, i int, depthFunc gputypes.CompareFunction) DrawHandle {
	b := &fl.batches[i]
	return tree.Insert(&DrawCommand{
		Pass:        pass,
		DrawBuffers: state.DrawBuffersFirst,
		Material:    b.Material,
		DepthFunc:   depthFunc,
		Depth:       b.Depth,
		Blend:       b.Material.Blend(),
		FlipCull:    b.FlipCull,
		Source:      b.Source,
		Topology:    b.Topology,
		Range:       b.Range,
		Scissor:     b.Scissor,
		Uniforms:    fl.autoUniforms(b),
	})
}

// autoUniforms computes the camera and transform uniforms of a batch, layered over globals.
func (fl *FrameList) autoUniforms(b *GeometryBatch) *state.Uniforms {
	u := fl.globals.Clone()
	u.Set("u_view_proj", fl.viewProj)
	u.Set("u_model", b.Model)
	u.Set("u_prev_model", b.PrevModel)
	u.Set("u_ambient", fl.ambient)
	u.Set("u_eye", fl.eye)
	return u
}
