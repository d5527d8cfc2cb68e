package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

func TestSlotAllocatorLowestFirst(t *testing.T) {
	a := NewSlotAllocator("lights", 70)
	for i := range 70 {
		s, ok := a.Acquire()
		require.True(t, ok)
		assert.Equal(t, Slot(i), s)
	}
	assert.Equal(t, 70, a.InUse())

	a.Release(65)
	a.Release(3)
	s, ok := a.Acquire()
	require.True(t, ok)
	assert.Equal(t, Slot(3), s)
	s, ok = a.Acquire()
	require.True(t, ok)
	assert.Equal(t, Slot(65), s)
}

func TestSlotAllocatorExhaustionWarnsOnce(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	common.SetLogger(zap.New(core))
	t.Cleanup(func() { common.SetLogger(nil) })

	a := NewSlotAllocator("lights", 2)
	a.Acquire()
	a.Acquire()

	for range 3 {
		s, ok := a.Acquire()
		assert.False(t, ok)
		assert.Equal(t, NoSlot, s)
	}
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "slot capacity exhausted", entry.Message)
	assert.Equal(t, "lights", entry.ContextMap()["allocator"])

	a.Release(0)
	_, ok := a.Acquire()
	assert.True(t, ok)
	_, ok = a.Acquire()
	assert.False(t, ok)
	assert.Equal(t, 2, logs.Len())
}

func TestSlotAllocatorMisuse(t *testing.T) {
	a := NewSlotAllocator("x", 4)
	assert.Panics(t, func() { a.Release(0) })
	assert.Panics(t, func() { a.Release(4) })
	assert.Panics(t, func() { NewSlotAllocator("zero", 0) })

	a.Acquire()
	a.Acquire()
	a.ReleaseAll()
	assert.Zero(t, a.InUse())
	assert.Equal(t, 4, a.Capacity())
}
