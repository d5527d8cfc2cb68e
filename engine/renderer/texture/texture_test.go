package texture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTextureIdentity(t *testing.T) {
	a := NewTexture(2, 2, make([]byte, 16))
	b := NewTexture(2, 2, nil, WithLabel("target"))

	assert.NotZero(t, a.ID())
	assert.Greater(t, b.ID(), a.ID())
	assert.Equal(t, "target", b.Label())
	assert.True(t, a.Repeat())
}

func TestNewTexturePanics(t *testing.T) {
	assert.PanicsWithValue(t, "texture: dimensions must be positive", func() { NewTexture(0, 1, nil) })
	assert.PanicsWithValue(t, "texture: pixel data does not match dimensions", func() { NewTexture(2, 2, []byte{1}) })
}

func TestFallbackIsSharedWhitePixel(t *testing.T) {
	f := Fallback()
	assert.Same(t, f, Fallback())
	assert.Equal(t, 1, f.Width())
	assert.Equal(t, []byte{255, 255, 255, 255}, f.Pixels())
	assert.False(t, f.Repeat())
}
