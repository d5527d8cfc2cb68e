package model

import (
	"github.com/gogpu/gputypes"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
)

// modelBuild carries the mesh alongside the model so options can derive submesh bounds.
type modelBuild struct {
	*model
	mesh MeshData
}

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*modelBuild)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(b *modelBuild) {
		b.name = name
	}
}

// WithMaterial is an option builder that sets the default material of the Model.
//
// Parameters:
//   - mat: the material used by submeshes that do not carry their own
//
// Returns:
//   - ModelBuilderOption: a function that applies the material option to a model
func WithMaterial(mat material.Material) ModelBuilderOption {
	return func(b *modelBuild) {
		b.material = mat
	}
}

// WithTopology is an option builder that sets the primitive topology of the default submesh.
func WithTopology(topology gputypes.PrimitiveTopology) ModelBuilderOption {
	return func(b *modelBuild) {
		b.topology = topology
	}
}

// WithSubmesh is an option builder that adds a span of the index buffer as its own submesh.
// Its bounds are computed from the vertices the span references.
//
// Parameters:
//   - name: the submesh identifier
//   - start: first index of the span
//   - count: number of indices in the span
//   - mat: the span's material, nil to use the model default
//
// Returns:
//   - ModelBuilderOption: a function that appends the submesh to a model
func WithSubmesh(name string, start, count uint32, mat material.Material) ModelBuilderOption {
	return func(b *modelBuild) {
		b.submeshes = append(b.submeshes, Submesh{
			Name:     name,
			Range:    state.VertexRange{Start: start, Count: count},
			Material: mat,
			Topology: b.topology,
			Bounds:   b.mesh.SpanBounds(start, count),
		})
	}
}
