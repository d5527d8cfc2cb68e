package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyDigit(t *testing.T) {
	n, ok := Key0.Digit()
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	n, ok = Key7.Digit()
	assert.True(t, ok)
	assert.Equal(t, 7, n)

	_, ok = KeyA.Digit()
	assert.False(t, ok)
	_, ok = KeySpace.Digit()
	assert.False(t, ok)
}
