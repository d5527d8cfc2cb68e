package state

import (
	"cmp"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/texture"
)

// TextureBinding binds a texture to a sampler unit. A nil Texture binds the fallback texture.
type TextureBinding struct {
	Unit    uint32
	Texture texture.Texture
}

// textureID returns the identity of the bound texture, 0 for nil.
func (t TextureBinding) textureID() uint64 {
	if t.Texture == nil {
		return 0
	}
	return t.Texture.ID()
}

// Compare orders by unit then texture identity.
func (t TextureBinding) Compare(o TextureBinding) int {
	if c := cmp.Compare(t.Unit, o.Unit); c != 0 {
		return c
	}
	return cmp.Compare(t.textureID(), o.textureID())
}

// CompareTextures orders binding lists lexicographically element by element, with a shorter
// list sorting first when it is a prefix of the other.
//
// Parameters:
//   - a: the first binding list
//   - b: the second binding list
//
// Returns:
//   - int: -1, 0 or +1
func CompareTextures(a, b []TextureBinding) int {
	for i := range min(len(a), len(b)) {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}
