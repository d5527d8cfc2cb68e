package texture

import (
	"sync"
	"sync/atomic"
)

// nextID hands out creation-ordered texture identities. Zero is reserved for "no texture".
var nextID atomic.Uint64

// texture is the implementation of the Texture interface.
type texture struct {
	id        uint64
	label     string
	width     int
	height    int
	pixels    []byte
	mipmapped bool
	repeat    bool
}

// Texture is a CPU-side description of a 2D RGBA8 image. Backends upload it lazily the first
// time it is bound and cache the device object by ID, so the same Texture may be shared across
// materials and frames. The renderer core never releases textures.
type Texture interface {
	// ID returns the creation-ordered identity of the texture. Never zero.
	//
	// Returns:
	//   - uint64: the texture identity
	ID() uint64

	// Label returns a debug name.
	Label() string

	// Width returns the image width in texels.
	Width() int

	// Height returns the image height in texels.
	Height() int

	// Pixels returns tightly packed RGBA8 rows, bottom row first.
	//
	// Returns:
	//   - []byte: width*height*4 bytes, or nil for an uninitialised render texture
	Pixels() []byte

	// Mipmapped reports whether the backend should generate a full mip chain.
	Mipmapped() bool

	// Repeat reports whether texture coordinates wrap instead of clamping.
	Repeat() bool
}

var _ Texture = &texture{}

// NewTexture creates a texture from RGBA8 pixel data.
//
// Parameters:
//   - width: image width in texels (must be > 0)
//   - height: image height in texels (must be > 0)
//   - pixels: width*height*4 bytes, or nil to allocate on the device only
//   - opts: variadic list of TextureBuilderOption functions
//
// Returns:
//   - Texture: the new texture
func NewTexture(width, height int, pixels []byte, opts ...TextureBuilderOption) Texture {
	if width <= 0 || height <= 0 {
		panic("texture: dimensions must be positive")
	}
	if pixels != nil && len(pixels) != width*height*4 {
		panic("texture: pixel data does not match dimensions")
	}
	t := &texture{
		id:     nextID.Add(1),
		width:  width,
		height: height,
		pixels: pixels,
		repeat: true,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var (
	fallbackOnce sync.Once
	fallback     Texture
)

// Fallback returns the shared 1x1 opaque white texture bound in place of missing textures so
// samplers never read an undefined unit.
func Fallback() Texture {
	fallbackOnce.Do(func() {
		fallback = NewTexture(1, 1, []byte{255, 255, 255, 255}, WithLabel("fallback"), WithRepeat(false))
	})
	return fallback
}

func (t *texture) ID() uint64 {
	return t.id
}

func (t *texture) Label() string {
	return t.label
}

func (t *texture) Width() int {
	return t.width
}

func (t *texture) Height() int {
	return t.height
}

func (t *texture) Pixels() []byte {
	return t.pixels
}

func (t *texture) Mipmapped() bool {
	return t.mipmapped
}

func (t *texture) Repeat() bool {
	return t.repeat
}
