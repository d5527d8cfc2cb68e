package texture

// TextureBuilderOption is a function that configures a Texture during construction.
type TextureBuilderOption func(*texture)

// WithLabel sets the debug name of the texture.
func WithLabel(label string) TextureBuilderOption {
	return func(t *texture) {
		t.label = label
	}
}

// WithMipmaps requests a generated mip chain.
func WithMipmaps(enabled bool) TextureBuilderOption {
	return func(t *texture) {
		t.mipmapped = enabled
	}
}

// WithRepeat selects wrapping (true) or clamp-to-edge (false) addressing.
func WithRepeat(repeat bool) TextureBuilderOption {
	return func(t *texture) {
		t.repeat = repeat
	}
}
