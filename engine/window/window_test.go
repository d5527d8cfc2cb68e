package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCursorToNDC(t *testing.T) {
	tests := []struct {
		name   string
		x, y   int32
		wx, wy float32
	}{
		{"centre", 399, 299, -0.00125, 0.0016667},
		{"top left", 0, 0, -0.99875, 0.9983333},
		{"bottom right", 799, 599, 0.99875, -0.9983333},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := CursorToNDC(tt.x, tt.y, 800, 600)
			assert.InDelta(t, tt.wx, x, 1e-4)
			assert.InDelta(t, tt.wy, y, 1e-4)
		})
	}
}

func TestCursorToNDCDegenerate(t *testing.T) {
	x, y := CursorToNDC(10, 10, 0, 600)
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestBuilderOptions(t *testing.T) {
	w := &engineWindow{width: 1280, height: 720}
	for _, opt := range []WindowBuilderOption{
		WithTitle("demo"),
		WithSize(640, 0),
		WithGraphicsAPI(APIOpenGL),
		WithVSync(false),
		WithSizeLimits(100, 100, 2000, 1000),
	} {
		opt(w)
	}
	assert.Equal(t, "demo", w.title)
	assert.Equal(t, 640, w.width)
	assert.Equal(t, 720, w.height)
	assert.Equal(t, APIOpenGL, w.api)
	assert.False(t, w.vsync)
	assert.Equal(t, 2000, w.maxWidth)
	assert.Nil(t, w.SurfaceDescriptor())
}
