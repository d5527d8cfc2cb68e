package state

import (
	"cmp"

	"github.com/gogpu/gputypes"
)

// Blend describes the fixed-function blend equation for colour writes.
// A disabled Blend writes source colour straight through; the factor fields are ignored by
// backends but still take part in ordering so equal descriptors always share a tree node.
type Blend struct {
	Enabled  bool
	SrcRGB   gputypes.BlendFactor
	DstRGB   gputypes.BlendFactor
	SrcAlpha gputypes.BlendFactor
	DstAlpha gputypes.BlendFactor
	OpRGB    gputypes.BlendOperation
	OpAlpha  gputypes.BlendOperation
}

// BlendOpaque disables blending.
var BlendOpaque = Blend{
	SrcRGB:   gputypes.BlendFactorOne,
	DstRGB:   gputypes.BlendFactorZero,
	SrcAlpha: gputypes.BlendFactorOne,
	DstAlpha: gputypes.BlendFactorZero,
	OpRGB:    gputypes.BlendOperationAdd,
	OpAlpha:  gputypes.BlendOperationAdd,
}

// BlendAdditive accumulates source onto destination with ONE, ONE on colour and alpha.
// Light passes use it to sum each light's contribution.
var BlendAdditive = Blend{
	Enabled:  true,
	SrcRGB:   gputypes.BlendFactorOne,
	DstRGB:   gputypes.BlendFactorOne,
	SrcAlpha: gputypes.BlendFactorOne,
	DstAlpha: gputypes.BlendFactorOne,
	OpRGB:    gputypes.BlendOperationAdd,
	OpAlpha:  gputypes.BlendOperationAdd,
}

// BlendAlpha is conventional non-premultiplied alpha blending.
var BlendAlpha = Blend{
	Enabled:  true,
	SrcRGB:   gputypes.BlendFactorSrcAlpha,
	DstRGB:   gputypes.BlendFactorOneMinusSrcAlpha,
	SrcAlpha: gputypes.BlendFactorOne,
	DstAlpha: gputypes.BlendFactorOneMinusSrcAlpha,
	OpRGB:    gputypes.BlendOperationAdd,
	OpAlpha:  gputypes.BlendOperationAdd,
}

// Compare orders blend descriptors lexicographically over (srcRGB, dstRGB, srcAlpha, dstAlpha),
// then the operations, then the enabled flag.
//
// Parameters:
//   - o: the descriptor to compare against
//
// Returns:
//   - int: -1, 0 or +1
func (b Blend) Compare(o Blend) int {
	if c := cmp.Compare(b.SrcRGB, o.SrcRGB); c != 0 {
		return c
	}
	if c := cmp.Compare(b.DstRGB, o.DstRGB); c != 0 {
		return c
	}
	if c := cmp.Compare(b.SrcAlpha, o.SrcAlpha); c != 0 {
		return c
	}
	if c := cmp.Compare(b.DstAlpha, o.DstAlpha); c != 0 {
		return c
	}
	if c := cmp.Compare(b.OpRGB, o.OpRGB); c != 0 {
		return c
	}
	if c := cmp.Compare(b.OpAlpha, o.OpAlpha); c != 0 {
		return c
	}
	return compareBool(b.Enabled, o.Enabled)
}

// compareBool orders false before true.
func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
