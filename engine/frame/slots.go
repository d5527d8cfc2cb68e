package frame

import (
	"fmt"
	"math/bits"

	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

// Slot is an opaque index handed out by a SlotAllocator.
type Slot int32

// NoSlot is returned alongside false when no slot is free.
const NoSlot Slot = -1

// SlotAllocator hands out indices into a fixed-capacity table, lowest free index first.
// Running out is not an error: Acquire refuses, logs a warning once, and the caller carries
// on without the slot. The warning re-arms after the next release.
type SlotAllocator struct {
	name     string
	capacity int
	used     []uint64
	inUse    int
	warned   bool
}

// NewSlotAllocator creates an allocator with capacity slots.
//
// Parameters:
//   - name: a label used in log output
//   - capacity: the number of slots, must be positive
//
// Returns:
//   - *SlotAllocator: the allocator with every slot free
func NewSlotAllocator(name string, capacity int) *SlotAllocator {
	if capacity <= 0 {
		panic("frame: slot allocator capacity must be positive")
	}
	return &SlotAllocator{
		name:     name,
		capacity: capacity,
		used:     make([]uint64, (capacity+63)/64),
	}
}

// Acquire claims the lowest free slot.
//
// Returns:
//   - Slot: the claimed slot, or NoSlot
//   - bool: false if the allocator is exhausted
func (a *SlotAllocator) Acquire() (Slot, bool) {
	for w, word := range a.used {
		if word == ^uint64(0) {
			continue
		}
		i := w*64 + bits.TrailingZeros64(^word)
		if i >= a.capacity {
			break
		}
		a.used[w] |= 1 << (i % 64)
		a.inUse++
		return Slot(i), true
	}
	if !a.warned {
		a.warned = true
		common.Logger().Named("frame").Warn("slot capacity exhausted",
			zap.String("allocator", a.name),
			zap.Int("capacity", a.capacity))
	}
	return NoSlot, false
}

// Release returns s to the free list. Releasing a free or out-of-range slot panics.
func (a *SlotAllocator) Release(s Slot) {
	i := int(s)
	if i < 0 || i >= a.capacity {
		panic(fmt.Sprintf("frame: release of slot %d outside %s capacity %d", i, a.name, a.capacity))
	}
	mask := uint64(1) << (i % 64)
	if a.used[i/64]&mask == 0 {
		panic(fmt.Sprintf("frame: slot %d of %s released twice", i, a.name))
	}
	a.used[i/64] &^= mask
	a.inUse--
	a.warned = false
}

// ReleaseAll frees every slot.
func (a *SlotAllocator) ReleaseAll() {
	clear(a.used)
	a.inUse = 0
	a.warned = false
}

// InUse returns the number of claimed slots.
func (a *SlotAllocator) InUse() int {
	return a.inUse
}

// Capacity returns the total number of slots.
func (a *SlotAllocator) Capacity() int {
	return a.capacity
}
