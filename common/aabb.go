package common

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box in world or local space.
// A box with any Min component greater than its Max component is empty.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// NewAABB creates an AABB from two corners, ordering the components so that Min <= Max.
//
// Parameters:
//   - a: the first corner
//   - b: the opposite corner
//
// Returns:
//   - AABB: the box spanning both corners
func NewAABB(a, b mgl32.Vec3) AABB {
	return AABB{
		Min: mgl32.Vec3{math32.Min(a[0], b[0]), math32.Min(a[1], b[1]), math32.Min(a[2], b[2])},
		Max: mgl32.Vec3{math32.Max(a[0], b[0]), math32.Max(a[1], b[1]), math32.Max(a[2], b[2])},
	}
}

// EmptyAABB returns an inverted box that acts as the identity for Union and Extend.
func EmptyAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// InfiniteAABB returns a box covering all of space. Directional lights report this bound.
func InfiniteAABB() AABB {
	inf := math32.Inf(1)
	return AABB{
		Min: mgl32.Vec3{-inf, -inf, -inf},
		Max: mgl32.Vec3{inf, inf, inf},
	}
}

// IsEmpty reports whether the box contains no points.
func (a AABB) IsEmpty() bool {
	return a.Min[0] > a.Max[0] || a.Min[1] > a.Max[1] || a.Min[2] > a.Max[2]
}

// IsInfinite reports whether any extent of the box is unbounded.
func (a AABB) IsInfinite() bool {
	for i := range 3 {
		if math32.IsInf(a.Min[i], 0) || math32.IsInf(a.Max[i], 0) {
			return true
		}
	}
	return false
}

// Overlaps reports whether two boxes share at least one point. Touching faces count as overlap.
//
// Parameters:
//   - b: the box to test against
//
// Returns:
//   - bool: true if the boxes intersect
func (a AABB) Overlaps(b AABB) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return false
	}
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1] &&
		a.Min[2] <= b.Max[2] && a.Max[2] >= b.Min[2]
}

// Contains reports whether the point lies inside or on the box.
func (a AABB) Contains(p mgl32.Vec3) bool {
	return p[0] >= a.Min[0] && p[0] <= a.Max[0] &&
		p[1] >= a.Min[1] && p[1] <= a.Max[1] &&
		p[2] >= a.Min[2] && p[2] <= a.Max[2]
}

// Union returns the smallest box containing both a and b.
func (a AABB) Union(b AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{math32.Min(a.Min[0], b.Min[0]), math32.Min(a.Min[1], b.Min[1]), math32.Min(a.Min[2], b.Min[2])},
		Max: mgl32.Vec3{math32.Max(a.Max[0], b.Max[0]), math32.Max(a.Max[1], b.Max[1]), math32.Max(a.Max[2], b.Max[2])},
	}
}

// Extend returns the box grown to include p.
func (a AABB) Extend(p mgl32.Vec3) AABB {
	return a.Union(AABB{Min: p, Max: p})
}

// Center returns the midpoint of the box.
func (a AABB) Center() mgl32.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

// Extents returns the half-size of the box along each axis.
func (a AABB) Extents() mgl32.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

// Transform returns the world-space box enclosing this box after applying m.
// Uses Arvo's method so the result stays tight for rotations and scales.
//
// Parameters:
//   - m: the affine transform to apply
//
// Returns:
//   - AABB: the transformed bounding box
func (a AABB) Transform(m mgl32.Mat4) AABB {
	if a.IsEmpty() || a.IsInfinite() {
		return a
	}
	out := AABB{
		Min: mgl32.Vec3{m[12], m[13], m[14]},
		Max: mgl32.Vec3{m[12], m[13], m[14]},
	}
	for col := range 3 {
		for row := range 3 {
			e := m.At(row, col)
			lo := e * a.Min[col]
			hi := e * a.Max[col]
			if lo > hi {
				lo, hi = hi, lo
			}
			out.Min[row] += lo
			out.Max[row] += hi
		}
	}
	return out
}

// Ray is a half-line with an origin and a direction. Dir does not need to be normalized,
// hit distances are expressed in units of Dir's length.
type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
}

// At returns the point at parameter t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// IntersectRay performs a slab test of the ray against the box.
//
// Parameters:
//   - r: the ray to test
//
// Returns:
//   - float32: the entry distance along the ray (0 when the origin is inside)
//   - bool: true if the ray hits the box in front of its origin
func (a AABB) IntersectRay(r Ray) (float32, bool) {
	if a.IsEmpty() {
		return 0, false
	}
	tmin := float32(0)
	tmax := math32.Inf(1)
	for i := range 3 {
		if r.Dir[i] == 0 {
			if r.Origin[i] < a.Min[i] || r.Origin[i] > a.Max[i] {
				return 0, false
			}
			continue
		}
		inv := 1 / r.Dir[i]
		t0 := (a.Min[i] - r.Origin[i]) * inv
		t1 := (a.Max[i] - r.Origin[i]) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tmin = math32.Max(tmin, t0)
		tmax = math32.Min(tmax, t1)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
