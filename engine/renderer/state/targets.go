package state

import (
	"github.com/Carmen-Shannon/oxy-frame/common"
)

// DrawBuffers selects which colour attachments of the bound target receive writes.
// Bit i enables attachment i. Zero masks every colour write, as a depth-only pass does.
type DrawBuffers uint32

// DrawBuffersNone disables all colour writes.
const DrawBuffersNone DrawBuffers = 0

// DrawBuffersFirst enables attachment 0 only.
const DrawBuffersFirst DrawBuffers = 1

// DrawBuffersAll returns a mask enabling the first n attachments.
func DrawBuffersAll(n int) DrawBuffers {
	if n >= 32 {
		return ^DrawBuffers(0)
	}
	return DrawBuffers(1)<<n - 1
}

// Enabled reports whether attachment i is written.
func (d DrawBuffers) Enabled(i int) bool {
	return d&(1<<i) != 0
}

// ClearMask selects the attachments cleared when a target is bound.
type ClearMask uint8

const (
	ClearColor ClearMask = 1 << iota
	ClearDepth
	ClearStencil
)

// Scissor is an optional scissor rectangle. The zero value is disabled.
type Scissor struct {
	Enabled bool
	Rect    common.Rect
}

// VertexRange selects a slice of a vertex source. Start and Count are in indices for indexed
// sources and in vertices otherwise. BaseVertex is added to every fetched index.
type VertexRange struct {
	Start      uint32
	Count      uint32
	BaseVertex int32
}

// Empty reports whether the range draws nothing.
func (r VertexRange) Empty() bool {
	return r.Count == 0
}
