package common

import "github.com/chewxy/math32"

// MipLevel estimates the mip level needed to sample a texture of the given size at a screen
// footprint covering texelsPerPixel texels per pixel. The result is floor(log2(texelsPerPixel))
// clamped to [0, maxLevel] where maxLevel is the last level of a full chain for size.
// Exact powers of two resolve to their exponent; Frexp is used so no float rounding can
// push 2^k down to k-1.
//
// Parameters:
//   - size: the largest texture dimension in texels
//   - texelsPerPixel: the number of texels that map onto one pixel
//
// Returns:
//   - int: the selected mip level
func MipLevel(size int, texelsPerPixel float32) int {
	maxLevel := MipCount(size) - 1
	if texelsPerPixel <= 1 || math32.IsNaN(texelsPerPixel) {
		return 0
	}
	if math32.IsInf(texelsPerPixel, 1) {
		return maxLevel
	}
	_, exp := math32.Frexp(texelsPerPixel)
	// texelsPerPixel = frac * 2^exp with frac in [0.5, 1)
	return min(max(exp-1, 0), maxLevel)
}

// MipCount returns the number of levels in a full mip chain for a texture whose largest
// dimension is size.
func MipCount(size int) int {
	if size <= 1 {
		return 1
	}
	n := 1
	for size > 1 {
		size >>= 1
		n++
	}
	return n
}
