package wgpubackend

// PresentMode controls how frames are delivered to the display.
type PresentMode int

const (
	// PresentModeUncapped presents immediately and may tear.
	PresentModeUncapped PresentMode = iota

	// PresentModeVSync waits for vertical blank.
	PresentModeVSync
)

// BackendBuilderOption is a function that configures a Backend during construction.
type BackendBuilderOption func(*Backend)

// WithSurfaceSize sets the initial surface size.
//
// Parameters:
//   - width: the surface width in pixels
//   - height: the surface height in pixels
//
// Returns:
//   - BackendBuilderOption: a function that applies the size option to a backend
func WithSurfaceSize(width, height int) BackendBuilderOption {
	return func(b *Backend) {
		b.width, b.height = width, height
	}
}

// WithPresentMode sets the surface present mode.
func WithPresentMode(mode PresentMode) BackendBuilderOption {
	return func(b *Backend) {
		b.presentMode = mode
	}
}

// WithSampleCount sets the MSAA sample count of the window surface. Values below 2 disable MSAA.
func WithSampleCount(count uint32) BackendBuilderOption {
	return func(b *Backend) {
		b.sampleCount = max(count, 1)
	}
}

// WithFallbackAdapter forces the software adapter.
func WithFallbackAdapter(force bool) BackendBuilderOption {
	return func(b *Backend) {
		b.forceFallback = force
	}
}

// WithUniformCapacity sets the size in bytes of the per-frame uniform ring. Draws whose
// uniforms do not fit are dropped with a warning.
//
// Parameters:
//   - size: the ring size in bytes, rounded up to 256
//
// Returns:
//   - BackendBuilderOption: a function that applies the capacity option to a backend
func WithUniformCapacity(size uint64) BackendBuilderOption {
	return func(b *Backend) {
		b.ringSize = alignUp(max(size, uniformAlign), uniformAlign)
	}
}

// WithClipCorrection names the Mat4 uniforms that carry a GL style projection. Their clip depth
// is remapped from [-1, 1] to [0, 1] when packed. Replaces the default of "u_view_proj" and
// "u_proj".
func WithClipCorrection(names ...string) BackendBuilderOption {
	return func(b *Backend) {
		b.clipCorrect = make(map[string]bool, len(names))
		for _, n := range names {
			b.clipCorrect[n] = true
		}
	}
}
