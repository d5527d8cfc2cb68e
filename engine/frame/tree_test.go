package frame

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/texture"
)

func baseCommand(s *scene) *DrawCommand {
	return &DrawCommand{
		DrawBuffers: state.DrawBuffersFirst,
		Material:    s.mat,
		DepthFunc:   gputypes.CompareFunctionLess,
		Blend:       state.BlendOpaque,
		Source:      s.src,
		Topology:    gputypes.PrimitiveTopologyTriangleList,
		Range:       fullRange(),
	}
}

func TestInsertSharesStateChain(t *testing.T) {
	s := newScene()
	tree := NewCommandTree()

	a := baseCommand(s)
	a.Uniforms = state.NewUniforms(1)
	a.Uniforms.Set("u_tint", mgl32.Vec4{1, 0, 0, 1})
	b := baseCommand(s)
	b.Scissor = state.Scissor{Enabled: true, Rect: common.Rect{Width: 10, Height: 10}}

	ha := tree.Insert(a)
	hb := tree.Insert(b)

	assert.Equal(t, 0, ha.Index())
	assert.Equal(t, 1, hb.Index())
	// root, eight state levels, two draws
	assert.Equal(t, 11, tree.Len())
	assert.Equal(t, 2, tree.DrawCount())

	nodes := collect(tree)
	require.Len(t, nodes, 11)
	for i, kind := range []NodeKind{KindRoot, KindPass, KindDepthTest, KindDepth, KindBlend, KindCullFace, KindProgram, KindTextures, KindVertexSource} {
		assert.Equal(t, kind, nodes[i].Kind)
		assert.Equal(t, i, nodes[i].Level)
	}
	assert.Equal(t, 2, nodes[8].Children)
	assert.Equal(t, []int{0, 1}, []int{nodes[9].DrawIndex, nodes[10].DrawIndex})
}

func TestApplyStateChangeMinimality(t *testing.T) {
	s := newScene()
	tree := NewCommandTree()
	const n = 5
	for range n {
		tree.Insert(baseCommand(s))
	}

	_, stats := apply(t, tree)

	for _, v := range []backend.Verb{
		backend.VerbBindTarget, backend.VerbSetViewport, backend.VerbSetDrawBuffers,
		backend.VerbSetDepthTest, backend.VerbSetBlend, backend.VerbSetCullMode,
		backend.VerbBindProgram, backend.VerbBindVertexSource, backend.VerbUnbindVertexSource,
	} {
		assert.Equal(t, 1, stats.Calls[v], "verb %s", v)
	}
	assert.Equal(t, n, stats.Draws)
	assert.Equal(t, n, stats.Calls[backend.VerbDraw])
	assert.Zero(t, stats.Calls[backend.VerbSetScissor])
	assert.Zero(t, stats.Calls[backend.VerbSetDepthWrite])
	assert.Zero(t, stats.Calls[backend.VerbClear])
	assert.Equal(t, uint64(3*n), stats.Elements)
}

func TestApplyOrdersEqualStateBySubmission(t *testing.T) {
	s := newScene()
	tree := NewCommandTree()
	for i := range 4 {
		cmd := baseCommand(s)
		cmd.Range = state.VertexRange{Start: uint32(i * 3), Count: 3}
		tree.Insert(cmd)
	}

	rec, _ := apply(t, tree)
	draws := rec.Filter(backend.VerbDraw)
	require.Len(t, draws, 4)
	for i, d := range draws {
		assert.Equal(t, uint32(i*3), d.Args[1].(state.VertexRange).Start)
	}
}

func TestApplySortsByFacet(t *testing.T) {
	s := newScene()
	noDepth := material.NewMaterial(material.WithProgram(s.prog), material.WithDepth(false, false))
	tree := NewCommandTree()

	late := baseCommand(s)
	late.Pass = 2
	tree.Insert(late)

	disabled := baseCommand(s)
	disabled.Material = noDepth
	tree.Insert(disabled)

	deep := baseCommand(s)
	deep.Depth = 5
	tree.Insert(deep)

	shallow := baseCommand(s)
	shallow.Depth = -1
	tree.Insert(shallow)

	var order []int
	tree.Walk(func(info NodeInfo) bool {
		if info.Kind == KindDraw {
			order = append(order, info.DrawIndex)
		}
		return true
	})
	// pass 0 first; within it depth test enabled before disabled, then depth ascending
	assert.Equal(t, []int{3, 2, 1, 0}, order)
}

func TestApplyEmptyTreeIssuesNothing(t *testing.T) {
	rec := backend.NewRecorder()
	stats := NewCommandTree(WithClear(state.ClearColor, []mgl32.Vec4{{0, 0, 0, 1}}, 1)).Apply(rec)

	assert.Empty(t, rec.Calls())
	assert.Zero(t, stats.Draws)
	assert.Zero(t, stats.StateChanges())
}

func TestApplyRootClearsAndBindsViewport(t *testing.T) {
	s := newScene()
	vp := common.Rect{Width: 640, Height: 480}
	color := mgl32.Vec4{0.1, 0.2, 0.3, 1}
	tree := NewCommandTree(WithViewport(vp), WithClear(state.ClearColor|state.ClearDepth, []mgl32.Vec4{color}, 1))
	tree.Insert(baseCommand(s))

	rec, _ := apply(t, tree)
	calls := rec.Calls()
	require.GreaterOrEqual(t, len(calls), 3)
	assert.Equal(t, backend.VerbBindTarget, calls[0].Verb)
	assert.Equal(t, backend.VerbSetViewport, calls[1].Verb)
	assert.Equal(t, vp, calls[1].Args[0])
	assert.Equal(t, backend.VerbClear, calls[2].Verb)
	assert.Equal(t, []mgl32.Vec4{color}, calls[2].Args[1])
}

func TestZeroCountRangeIsSkipped(t *testing.T) {
	s := newScene()
	tree := NewCommandTree()
	empty := baseCommand(s)
	empty.Range = state.VertexRange{Start: 3}
	tree.Insert(empty)
	tree.Insert(baseCommand(s))

	assert.Equal(t, 2, tree.DrawCount())
	rec, stats := apply(t, tree)

	assert.Len(t, rec.Filter(backend.VerbDraw), 1)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Draws)
	assert.Len(t, rec.Filter(backend.VerbBindProgram), 1)
}

func TestDrawCapturesUniformsByValue(t *testing.T) {
	s := newScene()
	s.mat.SetUniform("u_metallic", float32(0.25))
	tree := NewCommandTree()

	cmd := baseCommand(s)
	cmd.Uniforms = state.NewUniforms(1)
	cmd.Uniforms.Set("u_model", mgl32.Ident4())
	tree.Insert(cmd)

	s.mat.SetUniform("u_metallic", float32(0.75))
	cmd.Uniforms.Set("u_model", mgl32.Translate3D(1, 2, 3))

	rec, _ := apply(t, tree)
	pushes := rec.Filter(backend.VerbPushUniforms)
	require.Len(t, pushes, 2)

	defaults := pushes[0].Args[0].(*state.Uniforms)
	metallic, ok := defaults.Get("u_metallic")
	require.True(t, ok)
	assert.Equal(t, float32(0.25), metallic)

	params := pushes[1].Args[0].(*state.Uniforms)
	model, ok := params.Get("u_model")
	require.True(t, ok)
	assert.Equal(t, mgl32.Ident4(), model)
}

func TestApplyTracksDepthWriteAndScissor(t *testing.T) {
	s := newScene()
	tree := NewCommandTree()

	off := baseCommand(s)
	off.DepthWrite = DepthWriteOff
	off.Scissor = state.Scissor{Enabled: true, Rect: common.Rect{X: 1, Y: 2, Width: 3, Height: 4}}
	tree.Insert(off)

	alsoOff := baseCommand(s)
	alsoOff.DepthWrite = DepthWriteOff
	alsoOff.Scissor = off.Scissor
	tree.Insert(alsoOff)

	// a disabled scissor with a stale rect is the same as no scissor
	on := baseCommand(s)
	on.Scissor = state.Scissor{Rect: common.Rect{Width: 99}}
	tree.Insert(on)

	rec, _ := apply(t, tree)

	var writes []any
	for _, c := range rec.Filter(backend.VerbSetDepthWrite) {
		writes = append(writes, c.Args[0])
	}
	assert.Equal(t, []any{false, true}, writes)

	scissors := rec.Filter(backend.VerbSetScissor)
	require.Len(t, scissors, 2)
	assert.True(t, scissors[0].Args[0].(state.Scissor).Enabled)
	assert.False(t, scissors[1].Args[0].(state.Scissor).Enabled)
}

func TestApplyRestoresDynamicStateAtEnd(t *testing.T) {
	s := newScene()
	tree := NewCommandTree()
	cmd := baseCommand(s)
	cmd.DepthWrite = DepthWriteOff
	cmd.Scissor = state.Scissor{Enabled: true, Rect: common.Rect{Width: 8, Height: 8}}
	tree.Insert(cmd)

	rec, _ := apply(t, tree)
	verbs := rec.Verbs()
	require.GreaterOrEqual(t, len(verbs), 2)
	assert.Equal(t, backend.VerbSetDepthWrite, verbs[len(verbs)-2])
	assert.Equal(t, backend.VerbSetScissor, verbs[len(verbs)-1])
}

func TestApplyBindsFallbackForNilTexture(t *testing.T) {
	s := newScene()
	normal := texture.NewTexture(1, 1, []byte{128, 128, 255, 255}, texture.WithLabel("normal"))
	mat := material.NewMaterial(material.WithProgram(s.prog), material.WithNormalTexture(normal))
	tree := NewCommandTree()
	cmd := baseCommand(s)
	cmd.Material = mat
	tree.Insert(cmd)

	rec, _ := apply(t, tree)
	binds := rec.Filter(backend.VerbBindTexture)
	require.Len(t, binds, 2)
	assert.Equal(t, material.UnitDiffuse, binds[0].Args[0])
	assert.Equal(t, texture.Fallback().ID(), binds[0].Args[1].(texture.Texture).ID())
	assert.Equal(t, material.UnitNormal, binds[1].Args[0])
	assert.Equal(t, normal.ID(), binds[1].Args[1].(texture.Texture).ID())
}

func TestFlipCullInvertsMaterialMode(t *testing.T) {
	s := newScene()
	tree := NewCommandTree()
	cmd := baseCommand(s)
	cmd.FlipCull = true
	tree.Insert(cmd)

	rec, _ := apply(t, tree)
	culls := rec.Filter(backend.VerbSetCullMode)
	require.Len(t, culls, 1)
	assert.Equal(t, gputypes.CullModeFront, culls[0].Args[0])
}

func TestProgramOverrideKeysTree(t *testing.T) {
	s := newScene()
	other := newTestProgram("depth-only")
	tree := NewCommandTree()
	tree.Insert(baseCommand(s))
	cmd := baseCommand(s)
	cmd.Program = other
	tree.Insert(cmd)

	rec, _ := apply(t, tree)
	programs := rec.Filter(backend.VerbBindProgram)
	require.Len(t, programs, 2)
	// creation order is identity order
	assert.Equal(t, s.prog.ID(), programs[0].Args[0].(interface{ ID() uint64 }).ID())
	assert.Equal(t, other.ID(), programs[1].Args[0].(interface{ ID() uint64 }).ID())
}

func TestCommandTreePanics(t *testing.T) {
	s := newScene()

	t.Run("nil source", func(t *testing.T) {
		cmd := baseCommand(s)
		cmd.Source = nil
		assert.PanicsWithValue(t, "frame: insert with nil vertex source", func() {
			NewCommandTree().Insert(cmd)
		})
	})

	t.Run("nil material", func(t *testing.T) {
		cmd := baseCommand(s)
		cmd.Material = nil
		assert.PanicsWithValue(t, "frame: insert with nil material", func() {
			NewCommandTree().Insert(cmd)
		})
	})

	t.Run("no program", func(t *testing.T) {
		cmd := baseCommand(s)
		cmd.Material = material.NewMaterial()
		assert.PanicsWithValue(t, "frame: insert with no shader program", func() {
			NewCommandTree().Insert(cmd)
		})
	})

	t.Run("apply twice", func(t *testing.T) {
		tree := NewCommandTree()
		tree.Insert(baseCommand(s))
		tree.Apply(backend.NewRecorder())
		assert.PanicsWithValue(t, "frame: command tree applied twice", func() {
			tree.Apply(backend.NewRecorder())
		})
	})

	t.Run("insert after apply", func(t *testing.T) {
		tree := NewCommandTree()
		tree.Apply(backend.NewRecorder())
		assert.PanicsWithValue(t, "frame: insert into an applied command tree", func() {
			tree.Insert(baseCommand(s))
		})
	})
}

func TestDumpOutlinesTree(t *testing.T) {
	s := newScene()
	tree := NewCommandTree(WithViewport(common.Rect{Width: 4, Height: 2}))
	tree.Insert(baseCommand(s))

	dump := tree.Dump()
	assert.Contains(t, dump, "Root viewport=4x2")
	assert.Contains(t, dump, "  Pass pass=0")
	assert.Contains(t, dump, "VertexSource tri#")
	assert.Contains(t, dump, "Draw #0 range=0+3")
}
