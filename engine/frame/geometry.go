package frame

import (
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
)

// GeometryStage draws the frame's visible geometry in layer order: the opaque base pass, one
// additive pass per light, then sky, then transparent geometry. It claims at least 3+N passes
// for N lights, including passes that end up empty.
//
// Transparent draws are ordered by submission. Within one pass the submission ordinal is the
// depth key, which sorts above every facet except the depth test, so a change of depth test
// between consecutive transparent batches opens a new pass.
type GeometryStage struct {
	// maxOrdinal caps the transparent draws sharing one pass; zero means maxExactOrdinal.
	maxOrdinal int
}

var _ Stage = &GeometryStage{}

// NewGeometryStage creates the stage.
func NewGeometryStage() *GeometryStage {
	return &GeometryStage{}
}

// maxExactOrdinal is the first integer a float32 depth key cannot tell from its successor.
const maxExactOrdinal = 1 << 24

func (g *GeometryStage) Name() string {
	return "geometry"
}

func (g *GeometryStage) Compile(fl *FrameList, tree *CommandTree, passStart int) int {
	for i := range fl.batches {
		if fl.batches[i].layer() == material.LayerOpaque {
			fl.insertBase(tree, passStart, i, fl.baseDepthFunc())
		}
	}
	pass := fl.compileLights(tree, passStart+1, fl.batches)

	sky := pass
	transparent := pass + 1
	ordinal := 0
	var lastTest state.DepthTest
	limit := g.maxOrdinal
	if limit <= 0 {
		limit = maxExactOrdinal
	}
	for i := range fl.batches {
		b := &fl.batches[i]
		switch b.layer() {
		case material.LayerSky:
			tree.Insert(&DrawCommand{
				Pass:        sky,
				DrawBuffers: state.DrawBuffersFirst,
				Material:    b.Material,
				DepthFunc:   gputypes.CompareFunctionLessEqual,
				Depth:       b.Depth,
				Blend:       b.Material.Blend(),
				FlipCull:    b.FlipCull,
				Source:      b.Source,
				Topology:    b.Topology,
				Range:       b.Range,
				Scissor:     b.Scissor,
				Uniforms:    fl.autoUniforms(b),
				DepthWrite:  DepthWriteOff,
			})
		case material.LayerTransparent:
			test := state.DepthTest{Enabled: b.Material.DepthTestEnabled(), Func: fl.baseDepthFunc()}
			if ordinal > 0 && (test != lastTest || ordinal == limit) {
				transparent++
				ordinal = 0
			}
			lastTest = test
			tree.Insert(&DrawCommand{
				Pass:        transparent,
				DrawBuffers: state.DrawBuffersFirst,
				Material:    b.Material,
				DepthFunc:   test.Func,
				Depth:       float32(ordinal),
				Blend:       b.Material.Blend(),
				FlipCull:    b.FlipCull,
				Source:      b.Source,
				Topology:    b.Topology,
				Range:       b.Range,
				Scissor:     b.Scissor,
				Uniforms:    fl.autoUniforms(b),
				DepthWrite:  DepthWriteOff,
			})
			ordinal++
		}
	}
	return transparent + 1
}

