package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Coalesce returns the first of values that is not the zero value of T, or the zero value
// when all of them are. Used to layer configured settings over defaults.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// BuildModelMatrix composes a model matrix as T * Rz * Ry * Rx * S.
//
// Parameters:
//   - pos: world-space translation
//   - rot: Euler rotation in radians (x, y, z)
//   - scale: per-axis scale
//
// Returns:
//   - mgl32.Mat4: the composed model matrix
func BuildModelMatrix(pos, rot, scale mgl32.Vec3) mgl32.Mat4 {
	t := mgl32.Translate3D(pos[0], pos[1], pos[2])
	r := mgl32.HomogRotate3DZ(rot[2]).Mul4(mgl32.HomogRotate3DY(rot[1])).Mul4(mgl32.HomogRotate3DX(rot[0]))
	s := mgl32.Scale3D(scale[0], scale[1], scale[2])
	return t.Mul4(r).Mul4(s)
}

// DepthZeroToOne remaps OpenGL clip depth [-1, 1] to the [0, 1] range WebGPU expects.
// Premultiply a GL-convention projection by this matrix before handing it to a WebGPU shader.
var DepthZeroToOne = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}
