package model

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
)

func TestGPUVertexMarshal(t *testing.T) {
	v := GPUVertex{
		Position: mgl32.Vec3{1, 2, 3},
		Tangent:  mgl32.Vec4{0, 0, 0, -1},
	}
	buf := v.Marshal()
	require.Len(t, buf, GPUVertexStride)
	assert.Equal(t, GPUVertexStride, v.Size())
	assert.Equal(t, float32(2), math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8])))
	assert.Equal(t, float32(-1), math.Float32frombits(binary.LittleEndian.Uint32(buf[60:64])))
}

func TestCubeModel(t *testing.T) {
	mat := material.NewMaterial(material.WithName("crate"))
	m := NewModel(Cube(2), WithName("cube"), WithMaterial(mat))

	assert.Equal(t, "cube", m.Name())
	assert.Equal(t, mgl32.Vec3{-1, -1, -1}, m.Bounds().Min)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, m.Bounds().Max)
	assert.InDelta(t, math.Sqrt(3), m.BoundingRadius(), 1e-5)

	src := m.Source()
	assert.Equal(t, uint32(24), src.VertexCount())
	assert.Equal(t, uint32(36), src.IndexCount())
	assert.Equal(t, uint32(GPUVertexStride), src.Stride())

	subs := m.Submeshes()
	require.Len(t, subs, 1)
	assert.Equal(t, uint32(36), subs[0].Range.Count)
	assert.Nil(t, subs[0].Material)
	assert.Equal(t, mat, m.Material())
}

func TestSubmeshBounds(t *testing.T) {
	m := NewModel(Cube(2), WithSubmesh("front", 0, 6, nil), WithSubmesh("back", 6, 6, nil))
	subs := m.Submeshes()
	require.Len(t, subs, 2)
	assert.Equal(t, float32(1), subs[0].Bounds.Min.Z())
	assert.Equal(t, float32(-1), subs[1].Bounds.Max.Z())
}

func TestSphereAndPlane(t *testing.T) {
	s := Sphere(2, 8, 4)
	assert.Len(t, s.Vertices, 9*5)
	assert.Len(t, s.Indices, 8*4*6)
	assert.InDelta(t, 2, ComputeBoundingRadius(s.Vertices), 1e-5)

	p := Plane(4)
	assert.Equal(t, float32(0), p.Bounds().Max.Y())
	assert.Equal(t, float32(2), p.Bounds().Max.X())

	assert.Panics(t, func() { NewModel(MeshData{}) })
}
