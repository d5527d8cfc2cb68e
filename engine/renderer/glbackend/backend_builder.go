package glbackend

// BackendBuilderOption is a function that configures a Backend during construction.
type BackendBuilderOption func(*Backend)

// WithSurfaceSize sets the size of the default framebuffer used before the first Resize.
//
// Parameters:
//   - width: the framebuffer width in pixels
//   - height: the framebuffer height in pixels
//
// Returns:
//   - BackendBuilderOption: a function that applies the size option to a backend
func WithSurfaceSize(width, height int) BackendBuilderOption {
	return func(b *Backend) {
		b.width, b.height = width, height
	}
}

// WithSkipInit skips loading GL function pointers. Use when the caller has already called
// gl.Init for the current context.
func WithSkipInit(skip bool) BackendBuilderOption {
	return func(b *Backend) {
		b.skipInit = skip
	}
}
