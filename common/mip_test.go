package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMipLevel(t *testing.T) {
	tests := []struct {
		name string
		size int
		tpp  float32
		want int
	}{
		{"magnified", 256, 0.5, 0},
		{"one to one", 256, 1, 0},
		{"just under two", 256, 1.99, 0},
		{"exact two", 256, 2, 1},
		{"exact power of two", 256, 8, 3},
		{"between powers", 256, 11, 3},
		{"clamped to chain", 16, 1024, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MipLevel(tt.size, tt.tpp))
		})
	}
}

func TestMipCount(t *testing.T) {
	assert.Equal(t, 1, MipCount(1))
	assert.Equal(t, 2, MipCount(2))
	assert.Equal(t, 9, MipCount(256))
	assert.Equal(t, 9, MipCount(300))
}
