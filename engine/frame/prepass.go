package frame

import (
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
)

// DepthPrePass writes opaque depth with colour writes masked off, so the following base
// pass shades each pixel once with a LESS_EQUAL test.
type DepthPrePass struct {
	program program.Program
}

var _ Stage = &DepthPrePass{}

// NewDepthPrePass creates the stage. A nil program draws with each material's own program.
func NewDepthPrePass(p program.Program) *DepthPrePass {
	return &DepthPrePass{program: p}
}

func (d *DepthPrePass) Name() string {
	return "depth-prepass"
}

func (d *DepthPrePass) Compile(fl *FrameList, tree *CommandTree, passStart int) int {
	for i := range fl.batches {
		b := &fl.batches[i]
		if b.layer() != material.LayerOpaque || !b.Material.DepthTestEnabled() || !b.Material.DepthWriteEnabled() {
			continue
		}
		tree.Insert(&DrawCommand{
			Pass:        passStart,
			DrawBuffers: state.DrawBuffersNone,
			Material:    b.Material,
			DepthFunc:   gputypes.CompareFunctionLess,
			Depth:       b.Depth,
			Blend:       state.BlendOpaque,
			FlipCull:    b.FlipCull,
			Program:     d.program,
			Textures:    []state.TextureBinding{},
			Source:      b.Source,
			Topology:    b.Topology,
			Range:       b.Range,
			Scissor:     b.Scissor,
			Uniforms:    fl.autoUniforms(b),
			DepthWrite:  DepthWriteOn,
		})
	}
	fl.depthPrimed = true
	return passStart + 1
}
