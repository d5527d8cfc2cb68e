package model

import (
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
)

// Submesh is one drawable slice of a model's shared vertex source.
type Submesh struct {
	// Name is the submesh identifier.
	Name string

	// Range is the index (or vertex) span drawn.
	Range state.VertexRange

	// Material is the material the span draws with. Nil falls back to the model's default.
	Material material.Material

	// Topology is the primitive topology of the span.
	Topology gputypes.PrimitiveTopology

	// Bounds is the model-space bounding box of the span.
	Bounds common.AABB
}

// MeshData is CPU-side mesh data before it is wrapped in a vertex source.
type MeshData struct {
	// Vertices are the mesh vertices.
	Vertices []GPUVertex

	// Indices are the triangle indices.
	Indices []uint32
}

// Bounds returns the model-space box around the mesh.
func (m MeshData) Bounds() common.AABB {
	return ComputeBounds(m.Vertices)
}

// SpanBounds returns the box around the vertices referenced by indices[start:start+count].
func (m MeshData) SpanBounds(start, count uint32) common.AABB {
	box := common.EmptyAABB()
	end := min(int(start+count), len(m.Indices))
	for _, idx := range m.Indices[min(int(start), end):end] {
		if int(idx) < len(m.Vertices) {
			box = box.Extend(m.Vertices[idx].Position)
		}
	}
	return box
}
