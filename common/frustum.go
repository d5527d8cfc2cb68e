package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// SignedDistance returns the distance from p to the plane, positive on the inside.
func (p Plane) SignedDistance(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) + p.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustum extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix with OpenGL clip depth [-1, 1],
// which is what mgl32.Perspective produces.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Parameters:
//   - viewProj: the column-major view-projection matrix
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj mgl32.Mat4) Frustum {
	var f Frustum

	r0 := viewProj.Row(0)
	r1 := viewProj.Row(1)
	r2 := viewProj.Row(2)
	r3 := viewProj.Row(3)

	f.Planes[FrustumLeft] = planeFromRow(r3.Add(r0))
	f.Planes[FrustumRight] = planeFromRow(r3.Sub(r0))
	f.Planes[FrustumBottom] = planeFromRow(r3.Add(r1))
	f.Planes[FrustumTop] = planeFromRow(r3.Sub(r1))
	f.Planes[FrustumNear] = planeFromRow(r3.Add(r2))
	f.Planes[FrustumFar] = planeFromRow(r3.Sub(r2))

	return f
}

// planeFromRow builds a normalized plane from a combined matrix row.
func planeFromRow(row mgl32.Vec4) Plane {
	p := Plane{Normal: row.Vec3(), Distance: row[3]}
	if length := p.Normal.Len(); length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
	return p
}

// IntersectsAABB tests a box against the frustum using the positive-vertex rejection test.
// The test is conservative: boxes near frustum corners may be reported as visible.
//
// Parameters:
//   - box: the world-space bounding box
//
// Returns:
//   - bool: false only if the box lies entirely outside one plane
func (f Frustum) IntersectsAABB(box AABB) bool {
	if box.IsEmpty() {
		return false
	}
	if box.IsInfinite() {
		return true
	}
	for _, p := range f.Planes {
		var v mgl32.Vec3
		for i := range 3 {
			if p.Normal[i] >= 0 {
				v[i] = box.Max[i]
			} else {
				v[i] = box.Min[i]
			}
		}
		if p.SignedDistance(v) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p lies inside all six planes.
func (f Frustum) ContainsPoint(p mgl32.Vec3) bool {
	for _, pl := range f.Planes {
		if pl.SignedDistance(p) < 0 {
			return false
		}
	}
	return true
}
