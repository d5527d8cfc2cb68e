package frame

import (
	"fmt"
	"strings"
)

// NodeInfo describes one node visited by Walk.
type NodeInfo struct {
	Kind NodeKind
	// Level is the distance from the root.
	Level int
	// Key renders the node's facet value.
	Key string
	// Children is the number of direct children.
	Children int
	// DrawIndex is the submission ordinal of a Draw node, -1 otherwise.
	DrawIndex int
}

// Walk visits every node in apply order. Returning false from fn skips the node's subtree.
func (t *CommandTree) Walk(fn func(NodeInfo) bool) {
	t.walk(0, 0, fn)
}

func (t *CommandTree) walk(id int32, level int, fn func(NodeInfo) bool) {
	n := &t.nodes[id]
	info := NodeInfo{
		Kind:      n.kind,
		Level:     level,
		Key:       t.describe(n),
		Children:  len(n.children),
		DrawIndex: -1,
	}
	if n.kind == KindDraw {
		info.DrawIndex = t.leaves[n.leaf].index
	}
	if !fn(info) {
		return
	}
	for _, c := range n.children {
		t.walk(c, level+1, fn)
	}
}

// Dump renders the tree as an indented outline.
func (t *CommandTree) Dump() string {
	var sb strings.Builder
	t.Walk(func(info NodeInfo) bool {
		fmt.Fprintf(&sb, "%s%s %s\n", strings.Repeat("  ", info.Level), info.Kind, info.Key)
		return true
	})
	return sb.String()
}

func (t *CommandTree) describe(n *node) string {
	switch n.kind {
	case KindRoot:
		return fmt.Sprintf("viewport=%dx%d clear=%d", t.viewport.Width, t.viewport.Height, t.clearMask)
	case KindPass:
		return fmt.Sprintf("pass=%d buffers=%#x", n.pass, uint32(n.drawBuffers))
	case KindDepthTest:
		return fmt.Sprintf("enabled=%t func=%d", n.depthTest.Enabled, n.depthTest.Func)
	case KindDepth:
		return fmt.Sprintf("%g", n.depth)
	case KindBlend:
		b := n.blend
		return fmt.Sprintf("enabled=%t %d,%d,%d,%d", b.Enabled, b.SrcRGB, b.DstRGB, b.SrcAlpha, b.DstAlpha)
	case KindCullFace:
		return fmt.Sprintf("%d", n.cull)
	case KindProgram:
		return fmt.Sprintf("%s#%d", n.program.Name(), n.program.ID())
	case KindTextures:
		parts := make([]string, len(n.textures))
		for i, tb := range n.textures {
			id := uint64(0)
			if tb.Texture != nil {
				id = tb.Texture.ID()
			}
			parts[i] = fmt.Sprintf("%d:%d", tb.Unit, id)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindVertexSource:
		return fmt.Sprintf("%s#%d", n.source.Label(), n.source.ID())
	case KindDraw:
		l := t.leaves[n.leaf]
		return fmt.Sprintf("#%d range=%d+%d", l.index, l.rng.Start, l.rng.Count)
	}
	return ""
}
