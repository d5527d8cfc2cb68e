package frame

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

// NodeKind is the facet a command tree level represents. Levels below the root appear in
// this order on every path.
type NodeKind uint8

const (
	KindRoot NodeKind = iota
	KindPass
	KindDepthTest
	KindDepth
	KindBlend
	KindCullFace
	KindProgram
	KindTextures
	KindVertexSource
	KindDraw
)

var kindNames = [...]string{"Root", "Pass", "DepthTest", "Depth", "Blend", "CullFace", "Program", "Textures", "VertexSource", "Draw"}

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("NodeKind(%d)", k)
}

// DepthWriteMode selects where a draw's depth-write flag comes from.
type DepthWriteMode uint8

const (
	// DepthWriteMaterial uses the material's flag.
	DepthWriteMaterial DepthWriteMode = iota
	// DepthWriteOff forces depth writes off, as light and sky passes require.
	DepthWriteOff
	// DepthWriteOn forces depth writes on, as the depth pre-pass requires.
	DepthWriteOn
)

// DrawCommand is the full state key plus per-draw data of one insertion.
type DrawCommand struct {
	Pass        int
	DrawBuffers state.DrawBuffers
	Material    material.Material
	DepthFunc   gputypes.CompareFunction
	Depth       float32
	Blend       state.Blend
	FlipCull    bool
	// Program overrides the material's program when set.
	Program program.Program
	// Textures overrides the material's bindings when non-nil. An empty non-nil slice binds nothing.
	Textures   []state.TextureBinding
	Source     vertex.Source
	Topology   gputypes.PrimitiveTopology
	Range      state.VertexRange
	Scissor    state.Scissor
	Uniforms   *state.Uniforms
	DepthWrite DepthWriteMode
}

// DrawHandle identifies one inserted draw for diagnostics.
type DrawHandle struct {
	index int
	node  int32
}

// Index returns the draw's submission ordinal within its tree.
func (h DrawHandle) Index() int {
	return h.index
}

// node is one arena slot. Exactly one payload field is meaningful, selected by kind.
type node struct {
	kind     NodeKind
	children []int32

	pass        int
	drawBuffers state.DrawBuffers
	depthTest   state.DepthTest
	depth       float32
	blend       state.Blend
	cull        gputypes.CullMode
	program     program.Program
	textures    []state.TextureBinding
	source      vertex.Source
	leaf        int32
}

// drawLeaf is the per-draw data captured by value at insertion.
type drawLeaf struct {
	index      int
	defaults   *state.Uniforms
	params     *state.Uniforms
	scissor    state.Scissor
	topology   gputypes.PrimitiveTopology
	rng        state.VertexRange
	depthWrite bool
	indexed    bool
}

// CommandTree sorts one frame's draws by GPU state. Each level below the root keys one facet
// and keeps its children ordered, so equal state prefixes share a single node and a depth-first
// walk issues every shared state change once. A tree is built and applied once, then dropped.
type CommandTree struct {
	nodes   []node
	leaves  []drawLeaf
	applied bool

	target     *backend.Target
	viewport   common.Rect
	clearMask  state.ClearMask
	clearColor []mgl32.Vec4
	clearDepth float32
}

// NewCommandTree creates an empty tree. Root configuration comes from options.
//
// Parameters:
//   - opts: variadic list of TreeBuilderOption functions
//
// Returns:
//   - *CommandTree: the empty tree
func NewCommandTree(opts ...TreeBuilderOption) *CommandTree {
	t := &CommandTree{
		nodes:      make([]node, 1, 64),
		clearDepth: 1,
	}
	t.nodes[0].kind = KindRoot
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Insert adds one draw under the chain of state nodes keyed by cmd, creating only the nodes
// that do not exist yet. Every call creates a new Draw leaf; draws are never merged.
// The material's default uniforms and cmd.Uniforms are copied, so later changes to either
// do not affect this draw.
//
// Parameters:
//   - cmd: the state key and per-draw data
//
// Returns:
//   - DrawHandle: the handle of the new leaf
func (t *CommandTree) Insert(cmd *DrawCommand) DrawHandle {
	if t.applied {
		panic("frame: insert into an applied command tree")
	}
	if cmd.Source == nil {
		panic("frame: insert with nil vertex source")
	}
	if cmd.Material == nil {
		panic("frame: insert with nil material")
	}
	prog := cmd.Program
	if prog == nil {
		prog = cmd.Material.Program()
	}
	if prog == nil {
		panic("frame: insert with no shader program")
	}
	textures := cmd.Textures
	if textures == nil {
		textures = cmd.Material.Textures()
	}
	cull := cmd.Material.CullMode()
	if cmd.FlipCull {
		cull = state.FlipCull(cull)
	}

	n := int32(0)
	n = t.child(n, &node{kind: KindPass, pass: cmd.Pass, drawBuffers: cmd.DrawBuffers})
	n = t.child(n, &node{kind: KindDepthTest, depthTest: state.DepthTest{Enabled: cmd.Material.DepthTestEnabled(), Func: cmd.DepthFunc}})
	n = t.child(n, &node{kind: KindDepth, depth: cmd.Depth})
	n = t.child(n, &node{kind: KindBlend, blend: cmd.Blend})
	n = t.child(n, &node{kind: KindCullFace, cull: cull})
	n = t.child(n, &node{kind: KindProgram, program: prog})
	n = t.child(n, &node{kind: KindTextures, textures: slices.Clone(textures)})
	n = t.child(n, &node{kind: KindVertexSource, source: cmd.Source})

	depthWrite := cmd.Material.DepthWriteEnabled()
	switch cmd.DepthWrite {
	case DepthWriteOff:
		depthWrite = false
	case DepthWriteOn:
		depthWrite = true
	}

	scissor := cmd.Scissor
	if !scissor.Enabled {
		scissor = state.Scissor{}
	}

	leaf := drawLeaf{
		index:      len(t.leaves),
		defaults:   cmd.Material.Uniforms().Clone(),
		params:     cmd.Uniforms.Clone(),
		scissor:    scissor,
		topology:   cmd.Topology,
		rng:        cmd.Range,
		depthWrite: depthWrite,
		indexed:    cmd.Source.Indexed(),
	}
	t.leaves = append(t.leaves, leaf)

	// draw indices grow monotonically, so appending keeps the VertexSource children ordered
	id := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{kind: KindDraw, leaf: int32(leaf.index)})
	t.nodes[n].children = append(t.nodes[n].children, id)

	return DrawHandle{index: leaf.index, node: id}
}

// child finds the child of parent equal to key or inserts key at its ordered position.
func (t *CommandTree) child(parent int32, key *node) int32 {
	kids := t.nodes[parent].children
	i := sort.Search(len(kids), func(i int) bool {
		return compareNodes(&t.nodes[kids[i]], key) >= 0
	})
	if i < len(kids) && compareNodes(&t.nodes[kids[i]], key) == 0 {
		return kids[i]
	}
	id := int32(len(t.nodes))
	t.nodes = append(t.nodes, *key)
	t.nodes[parent].children = slices.Insert(t.nodes[parent].children, i, id)
	return id
}

// compareNodes orders two sibling nodes of the same kind by their facet key.
func compareNodes(a, b *node) int {
	if a.kind != b.kind {
		panic(fmt.Sprintf("frame: facet order violated: %s under %s level", b.kind, a.kind))
	}
	switch a.kind {
	case KindPass:
		if c := cmp.Compare(a.pass, b.pass); c != 0 {
			return c
		}
		return cmp.Compare(a.drawBuffers, b.drawBuffers)
	case KindDepthTest:
		return a.depthTest.Compare(b.depthTest)
	case KindDepth:
		return cmp.Compare(a.depth, b.depth)
	case KindBlend:
		return a.blend.Compare(b.blend)
	case KindCullFace:
		return cmp.Compare(a.cull, b.cull)
	case KindProgram:
		return cmp.Compare(a.program.ID(), b.program.ID())
	case KindTextures:
		return state.CompareTextures(a.textures, b.textures)
	case KindVertexSource:
		return cmp.Compare(a.source.ID(), b.source.ID())
	default:
		panic(fmt.Sprintf("frame: no ordering for %s nodes", a.kind))
	}
}

// Apply walks the tree depth first and issues its state changes and draws through b.
// An empty tree issues nothing. Draws with an empty range are skipped and counted.
// Depth writes are assumed enabled and scissoring disabled on entry, and both are left
// that way on return.
//
// Parameters:
//   - b: the backend to issue verbs through
//
// Returns:
//   - backend.Stats: the verbs issued and draws skipped
func (t *CommandTree) Apply(b backend.Backend) backend.Stats {
	if t.applied {
		panic("frame: command tree applied twice")
	}
	t.applied = true

	c := backend.NewCounter(b)
	if len(t.nodes[0].children) == 0 {
		return c.Stats()
	}

	c.BindTarget(t.target)
	c.SetViewport(t.viewport)
	if t.clearMask != 0 {
		c.Clear(t.clearMask, t.clearColor, t.clearDepth)
	}

	a := applier{tree: t, b: c, depthWrite: true}
	for _, id := range t.nodes[0].children {
		a.visit(id)
	}
	if !a.depthWrite {
		c.SetDepthWrite(true)
	}
	if a.scissor.Enabled {
		c.SetScissor(state.Scissor{})
	}
	return c.Stats()
}

// applier carries the dynamic draw state tracked during one Apply.
type applier struct {
	tree       *CommandTree
	b          *backend.Counter
	depthWrite bool
	scissor    state.Scissor
}

func (a *applier) visit(id int32) {
	n := &a.tree.nodes[id]
	switch n.kind {
	case KindPass:
		a.b.SetDrawBuffers(n.drawBuffers)
	case KindDepthTest:
		a.b.SetDepthTest(n.depthTest)
	case KindDepth:
		// ordering only
	case KindBlend:
		a.b.SetBlend(n.blend)
	case KindCullFace:
		a.b.SetCullMode(n.cull)
	case KindProgram:
		a.b.BindProgram(n.program)
	case KindTextures:
		for _, tb := range n.textures {
			tex := tb.Texture
			if tex == nil {
				tex = a.b.FallbackTexture()
			}
			a.b.BindTexture(tb.Unit, tex)
		}
	case KindVertexSource:
		a.b.BindVertexSource(n.source)
		for _, c := range n.children {
			a.visit(c)
		}
		a.b.UnbindVertexSource(n.source)
		return
	case KindDraw:
		a.draw(&a.tree.leaves[n.leaf])
		return
	}
	for _, c := range n.children {
		a.visit(c)
	}
}

func (a *applier) draw(l *drawLeaf) {
	if l.rng.Empty() {
		a.b.Skip()
		return
	}
	if l.scissor != a.scissor {
		a.b.SetScissor(l.scissor)
		a.scissor = l.scissor
	}
	if l.depthWrite != a.depthWrite {
		a.b.SetDepthWrite(l.depthWrite)
		a.depthWrite = l.depthWrite
	}
	if l.defaults.Len() > 0 {
		a.b.PushUniforms(l.defaults)
	}
	if l.params.Len() > 0 {
		a.b.PushUniforms(l.params)
	}
	a.b.Draw(l.topology, l.rng, l.indexed)
}

// Len returns the number of nodes including the root and draw leaves.
func (t *CommandTree) Len() int {
	return len(t.nodes)
}

// DrawCount returns the number of inserted draws.
func (t *CommandTree) DrawCount() int {
	return len(t.leaves)
}

// Empty reports whether nothing has been inserted.
func (t *CommandTree) Empty() bool {
	return len(t.leaves) == 0
}
