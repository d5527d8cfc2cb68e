package wgpubackend

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/state"
)

// uniformAlign is the dynamic offset alignment every adapter guarantees.
const uniformAlign = 256

func alignUp(v, a uint64) uint64 {
	return (v + a - 1) &^ (a - 1)
}

// packBlock writes the uniforms a buffer binding declares into dst, which must be at least
// b.Size bytes. A binding without fields is a single value named after the binding. Names in
// correct hold projection matrices that need their clip depth range remapped. Missing
// uniforms leave their bytes untouched.
func packBlock(dst []byte, b program.Binding, u *state.Uniforms, correct map[string]bool) {
	if len(b.Fields) == 0 {
		if v, ok := u.Get(b.Name); ok {
			packValue(dst, fixClip(b.Name, v, correct), b.Size)
		}
		return
	}
	for _, f := range b.Fields {
		v, ok := u.Get(f.Name)
		if !ok || f.Offset+f.Size > uint64(len(dst)) {
			continue
		}
		packValue(dst[f.Offset:], fixClip(f.Name, v, correct), f.Size)
	}
}

func fixClip(name string, v any, correct map[string]bool) any {
	if m, ok := v.(mgl32.Mat4); ok && correct[name] {
		return common.DepthZeroToOne.Mul4(m)
	}
	return v
}

// packValue encodes v little-endian into dst, writing at most size bytes. Mat3 columns are
// padded to vec4 as WGSL lays them out.
func packValue(dst []byte, v any, size uint64) {
	put := func(i int, f float32) {
		if uint64(i*4+4) <= size && i*4+4 <= len(dst) {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
		}
	}
	switch t := v.(type) {
	case float32:
		put(0, t)
	case int32:
		if size >= 4 && len(dst) >= 4 {
			binary.LittleEndian.PutUint32(dst, uint32(t))
		}
	case uint32:
		if size >= 4 && len(dst) >= 4 {
			binary.LittleEndian.PutUint32(dst, t)
		}
	case mgl32.Vec2:
		for i, f := range t {
			put(i, f)
		}
	case mgl32.Vec3:
		for i, f := range t {
			put(i, f)
		}
	case mgl32.Vec4:
		for i, f := range t {
			put(i, f)
		}
	case mgl32.Mat3:
		for col := range 3 {
			for row := range 3 {
				put(col*4+row, t[col*3+row])
			}
		}
	case mgl32.Mat4:
		for i, f := range t {
			put(i, f)
		}
	case []float32:
		// array<f32, N> has a 16 byte stride in uniform space
		for i, f := range t {
			put(i*4, f)
		}
	case []mgl32.Vec4:
		for i, vec := range t {
			for j, f := range vec {
				put(i*4+j, f)
			}
		}
	case []mgl32.Mat4:
		for i, m := range t {
			for j, f := range m {
				put(i*16+j, f)
			}
		}
	}
}
