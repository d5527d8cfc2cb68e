package model

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/vertex"
)

// GPUVertexStride is the size of one marshaled GPUVertex in bytes.
const GPUVertexStride = 64

// GPUVertexLayout describes GPUVertex to the backends: position at location 0, normal at 1,
// texture coordinate at 2, colour at 3 and tangent at 4.
var GPUVertexLayout = []vertex.Attribute{
	{Location: 0, Format: vertex.Float32x3, Offset: 0},
	{Location: 1, Format: vertex.Float32x3, Offset: 12},
	{Location: 2, Format: vertex.Float32x2, Offset: 24},
	{Location: 3, Format: vertex.Float32x4, Offset: 32},
	{Location: 4, Format: vertex.Float32x4, Offset: 48},
}

// GPUVertex is the GPU-aligned representation of a single mesh vertex.
// Size: 64 bytes (std430 aligned, no padding required).
type GPUVertex struct {
	Position mgl32.Vec3 // offset  0: vertex position in model space (12 bytes)
	Normal   mgl32.Vec3 // offset 12: vertex normal for lighting (12 bytes)
	TexCoord mgl32.Vec2 // offset 24: UV texture coordinate (8 bytes)
	Color    mgl32.Vec4 // offset 32: per-vertex RGBA color (16 bytes)
	Tangent  mgl32.Vec4 // offset 48: tangent vector (xyz) + handedness (w) for normal mapping (16 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 64-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	return g.appendTo(make([]byte, 0, GPUVertexStride))
}

func (g *GPUVertex) appendTo(buf []byte) []byte {
	for _, f := range g.Position {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range g.Normal {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range g.TexCoord {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range g.Color {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	for _, f := range g.Tangent {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}

// MarshalVertices serializes vertices back to back.
func MarshalVertices(vertices []GPUVertex) []byte {
	buf := make([]byte, 0, len(vertices)*GPUVertexStride)
	for i := range vertices {
		buf = vertices[i].appendTo(buf)
	}
	return buf
}

// ComputeBounds returns the model-space box around the positions of vertices.
//
// Parameters:
//   - vertices: the vertex data to bound
//
// Returns:
//   - common.AABB: the bounds, empty if there are no vertices
func ComputeBounds(vertices []GPUVertex) common.AABB {
	box := common.EmptyAABB()
	for i := range vertices {
		box = box.Extend(vertices[i].Position)
	}
	return box
}

// ComputeBoundingRadius calculates the bounding sphere radius from vertex positions.
// The radius is the maximum distance from the origin across all vertices.
func ComputeBoundingRadius(vertices []GPUVertex) float32 {
	var maxDistSq float32
	for _, v := range vertices {
		if d := v.Position.Dot(v.Position); d > maxDistSq {
			maxDistSq = d
		}
	}
	return float32(math.Sqrt(float64(maxDistSq)))
}
