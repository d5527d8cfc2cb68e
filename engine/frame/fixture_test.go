package frame

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

const testShader = `
struct Frame {
    view_proj: mat4x4<f32>,
    model: mat4x4<f32>,
};
@group(0) @binding(0) var<uniform> frame: Frame;

@vertex
fn vs_main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
    return frame.view_proj * frame.model * vec4<f32>(pos, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 1.0, 1.0, 1.0);
}
`

func newTestProgram(name string) program.Program {
	return program.NewProgram(name, program.WithWGSL(testShader))
}

func newTestSource(label string) vertex.Source {
	verts := make([]byte, 0, 36)
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		verts = binary.LittleEndian.AppendUint32(verts, math.Float32bits(f))
	}
	return vertex.NewSource(verts, 12,
		[]vertex.Attribute{{Location: 0, Format: vertex.Float32x3}},
		vertex.WithLabel(label),
		vertex.WithIndices16([]uint16{0, 1, 2}),
	)
}

// box returns a unit cube AABB centred on x along the X axis.
func box(x float32) common.AABB {
	return common.NewAABB(mgl32.Vec3{x - 0.5, -0.5, -0.5}, mgl32.Vec3{x + 0.5, 0.5, 0.5})
}

func fullRange() state.VertexRange {
	return state.VertexRange{Count: 3}
}

// stubLight is a light with fixed bounds that tags each lit draw with its name.
type stubLight struct {
	name   string
	bounds common.AABB
}

func (l stubLight) WorldAABB() common.AABB {
	return l.bounds
}

func (l stubLight) SetupShaderParams(_ mgl32.Vec3, out *state.Uniforms) {
	out.Set("u_light_name", l.name)
}

// scene is the shared fixture: one material, program, and source used by every batch.
type scene struct {
	prog program.Program
	mat  material.Material
	src  vertex.Source
}

func newScene() *scene {
	p := newTestProgram("lit")
	return &scene{
		prog: p,
		mat:  material.NewMaterial(material.WithName("shared"), material.WithProgram(p)),
		src:  newTestSource("tri"),
	}
}

func (s *scene) add(fl *FrameList, x float32) int {
	return fl.AddGeometry(mgl32.Translate3D(x, 0, 0), box(x), s.mat, s.src, fullRange(),
		gputypes.PrimitiveTopologyTriangleList, 0, state.Scissor{})
}

// apply applies tree to a fresh recorder and returns it with the stats.
func apply(t *testing.T, tree *CommandTree) (*backend.Recorder, backend.Stats) {
	t.Helper()
	rec := backend.NewRecorder()
	stats := tree.Apply(rec)
	require.NotNil(t, stats.Calls)
	return rec, stats
}

// collect returns every node visited by Walk in order.
func collect(tree *CommandTree) []NodeInfo {
	var out []NodeInfo
	tree.Walk(func(info NodeInfo) bool {
		out = append(out, info)
		return true
	})
	return out
}

// drawsUnder returns the draw indices below the idx-th Pass node in walk order.
func drawsUnder(nodes []NodeInfo, pass int) []int {
	var out []int
	seen := -1
	for _, n := range nodes {
		if n.Kind == KindPass {
			seen++
		}
		if seen == pass && n.Kind == KindDraw {
			out = append(out, n.DrawIndex)
		}
	}
	return out
}

// countKind counts nodes of kind below the idx-th Pass node.
func countKind(nodes []NodeInfo, pass int, kind NodeKind) int {
	count := 0
	seen := -1
	for _, n := range nodes {
		if n.Kind == KindPass {
			seen++
		}
		if seen == pass && n.Kind == kind {
			count++
		}
	}
	return count
}
