package model

import (
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

// model is the implementation of the Model interface.
type model struct {
	name           string
	source         vertex.Source
	submeshes      []Submesh
	material       material.Material
	topology       gputypes.PrimitiveTopology
	bounds         common.AABB
	boundingRadius float32
}

// Model defines the interface for a drawable mesh.
// A Model holds one vertex source shared by all of its submeshes; each submesh is a range
// of that source with its own material, so a scene object submits one batch per submesh.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Source returns the vertex source holding the model's vertices and indices.
	//
	// Returns:
	//   - vertex.Source: the shared vertex source
	Source() vertex.Source

	// Submeshes returns the drawable spans. A model built without explicit submeshes has
	// one submesh covering every index.
	//
	// Returns:
	//   - []Submesh: the spans in draw order
	Submeshes() []Submesh

	// Material returns the default material used by submeshes without their own.
	Material() material.Material

	// SetMaterial replaces the default material.
	SetMaterial(m material.Material)

	// Bounds returns the model-space bounding box.
	//
	// Returns:
	//   - common.AABB: the box around every vertex
	Bounds() common.AABB

	// BoundingRadius returns the bounding sphere radius around the model origin.
	BoundingRadius() float32
}

var _ Model = &model{}

// NewModel wraps mesh data in a vertex source and builds the submesh table.
//
// Parameters:
//   - mesh: the vertices and indices
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: the new model
func NewModel(mesh MeshData, options ...ModelBuilderOption) Model {
	if len(mesh.Vertices) == 0 {
		panic("model: mesh has no vertices")
	}
	m := &model{
		name:           "model",
		topology:       gputypes.PrimitiveTopologyTriangleList,
		bounds:         mesh.Bounds(),
		boundingRadius: ComputeBoundingRadius(mesh.Vertices),
	}
	b := &modelBuild{model: m, mesh: mesh}
	for _, option := range options {
		option(b)
	}

	opts := []vertex.SourceBuilderOption{vertex.WithLabel(m.name)}
	if len(mesh.Indices) > 0 {
		opts = append(opts, vertex.WithIndices32(mesh.Indices))
	}
	m.source = vertex.NewSource(MarshalVertices(mesh.Vertices), GPUVertexStride, GPUVertexLayout, opts...)

	if len(m.submeshes) == 0 {
		count := m.source.IndexCount()
		if !m.source.Indexed() {
			count = m.source.VertexCount()
		}
		m.submeshes = []Submesh{{
			Name:     m.name,
			Range:    state.VertexRange{Count: count},
			Topology: m.topology,
			Bounds:   m.bounds,
		}}
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Source() vertex.Source {
	return m.source
}

func (m *model) Submeshes() []Submesh {
	return m.submeshes
}

func (m *model) Material() material.Material {
	return m.material
}

func (m *model) SetMaterial(mat material.Material) {
	m.material = mat
}

func (m *model) Bounds() common.AABB {
	return m.bounds
}

func (m *model) BoundingRadius() float32 {
	return m.boundingRadius
}
