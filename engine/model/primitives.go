package model

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

var white = mgl32.Vec4{1, 1, 1, 1}

// Cube returns a cube of edge size centred on the origin, four vertices per face so each
// face has a flat normal.
func Cube(size float32) MeshData {
	h := size / 2
	faces := []struct {
		normal, u, v mgl32.Vec3
	}{
		{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
		{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, -1}},
		{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}},
	}
	var mesh MeshData
	for _, f := range faces {
		base := uint32(len(mesh.Vertices))
		for _, c := range [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
			pos := f.normal.Add(f.u.Mul(c[0])).Add(f.v.Mul(c[1])).Mul(h)
			mesh.Vertices = append(mesh.Vertices, GPUVertex{
				Position: pos,
				Normal:   f.normal,
				TexCoord: mgl32.Vec2{(c[0] + 1) / 2, (1 - c[1]) / 2},
				Color:    white,
				Tangent:  f.u.Vec4(1),
			})
		}
		mesh.Indices = append(mesh.Indices, base, base+1, base+2, base, base+2, base+3)
	}
	return mesh
}

// Plane returns a size × size quad in the XZ plane facing +Y.
func Plane(size float32) MeshData {
	h := size / 2
	normal := mgl32.Vec3{0, 1, 0}
	tangent := mgl32.Vec4{1, 0, 0, 1}
	return MeshData{
		Vertices: []GPUVertex{
			{Position: mgl32.Vec3{-h, 0, h}, Normal: normal, TexCoord: mgl32.Vec2{0, 1}, Color: white, Tangent: tangent},
			{Position: mgl32.Vec3{h, 0, h}, Normal: normal, TexCoord: mgl32.Vec2{1, 1}, Color: white, Tangent: tangent},
			{Position: mgl32.Vec3{h, 0, -h}, Normal: normal, TexCoord: mgl32.Vec2{1, 0}, Color: white, Tangent: tangent},
			{Position: mgl32.Vec3{-h, 0, -h}, Normal: normal, TexCoord: mgl32.Vec2{0, 0}, Color: white, Tangent: tangent},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// Sphere returns a UV sphere. Segments and rings below 3 and 2 are raised to those minimums.
func Sphere(radius float32, segments, rings int) MeshData {
	segments = max(segments, 3)
	rings = max(rings, 2)
	var mesh MeshData
	for r := 0; r <= rings; r++ {
		phi := math32.Pi * float32(r) / float32(rings)
		for s := 0; s <= segments; s++ {
			theta := 2 * math32.Pi * float32(s) / float32(segments)
			n := mgl32.Vec3{
				math32.Sin(phi) * math32.Cos(theta),
				math32.Cos(phi),
				math32.Sin(phi) * math32.Sin(theta),
			}
			mesh.Vertices = append(mesh.Vertices, GPUVertex{
				Position: n.Mul(radius),
				Normal:   n,
				TexCoord: mgl32.Vec2{float32(s) / float32(segments), float32(r) / float32(rings)},
				Color:    white,
				Tangent:  mgl32.Vec4{-math32.Sin(theta), 0, math32.Cos(theta), 1},
			})
		}
	}
	stride := uint32(segments + 1)
	for r := range uint32(rings) {
		for s := range uint32(segments) {
			a := r*stride + s
			b := a + stride
			mesh.Indices = append(mesh.Indices, a, b, a+1, a+1, b, b+1)
		}
	}
	return mesh
}
