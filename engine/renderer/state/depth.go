package state

import (
	"cmp"

	"github.com/gogpu/gputypes"
)

// DepthTest is the depth comparison facet. When Enabled is false, Func is carried only to keep
// the key total.
type DepthTest struct {
	Enabled bool
	Func    gputypes.CompareFunction
}

// Compare orders enabled tests before disabled ones so early-Z capable draws batch first,
// then by comparison function.
func (d DepthTest) Compare(o DepthTest) int {
	if c := compareBool(o.Enabled, d.Enabled); c != 0 {
		return c
	}
	return cmp.Compare(d.Func, o.Func)
}

// FlipCull swaps front and back face culling. Used for mirrored transforms whose negative
// determinant inverts winding.
func FlipCull(mode gputypes.CullMode) gputypes.CullMode {
	switch mode {
	case gputypes.CullModeFront:
		return gputypes.CullModeBack
	case gputypes.CullModeBack:
		return gputypes.CullModeFront
	default:
		return mode
	}
}
