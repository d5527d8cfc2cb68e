package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

func unitBox(x, y, z float32) common.AABB {
	c := mgl32.Vec3{x, y, z}
	h := mgl32.Vec3{0.5, 0.5, 0.5}
	return common.NewAABB(c.Sub(h), c.Add(h))
}

// rowOfBoxes places n unit boxes along -Z starting at z=-2, two units apart.
func rowOfBoxes(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{Handle: uint64(i + 1), Bounds: unitBox(0, 0, -2-2*float32(i))}
	}
	return items
}

func TestBVHEmpty(t *testing.T) {
	b := BuildBVH(nil)
	assert.Equal(t, 0, b.Len())
	assert.True(t, b.Bounds().IsEmpty())

	_, ok := b.Raycast(common.Ray{Dir: mgl32.Vec3{0, 0, -1}}, 100)
	assert.False(t, ok)
	b.QueryFrustum(common.ExtractFrustum(mgl32.Ident4()), func(Item) { t.Fatal("unexpected item") })
}

func TestBVHDropsEmptyBounds(t *testing.T) {
	b := BuildBVH([]Item{{Handle: 1, Bounds: common.EmptyAABB()}, {Handle: 2, Bounds: unitBox(0, 0, 0)}})
	assert.Equal(t, 1, b.Len())
}

func TestBVHQueryFrustum(t *testing.T) {
	items := rowOfBoxes(20)
	// Same boxes behind the camera.
	for i := range 5 {
		items = append(items, Item{Handle: uint64(100 + i), Bounds: unitBox(0, 0, 5+2*float32(i))})
	}
	b := BuildBVH(items)
	require.Equal(t, 25, b.Len())

	proj := mgl32.Perspective(mgl32.DegToRad(60), 1, 0.1, 15)
	var got []uint64
	b.QueryFrustum(common.ExtractFrustum(proj), func(it Item) { got = append(got, it.Handle) })

	// Boxes at z=-2..-14 fit inside a far plane of 15; the one at -16 lies past it.
	assert.ElementsMatch(t, []uint64{1, 2, 3, 4, 5, 6, 7}, got)
}

func TestBVHRaycastNearest(t *testing.T) {
	items := rowOfBoxes(16)
	items = append(items, Item{Handle: 99, Bounds: unitBox(3, 0, -2)})
	b := BuildBVH(items)

	hit, ok := b.Raycast(common.Ray{Dir: mgl32.Vec3{0, 0, -1}}, 100)
	require.True(t, ok)
	assert.Equal(t, uint64(1), hit.Item.Handle)
	assert.InDelta(t, 1.5, hit.Distance, 1e-5)

	hit, ok = b.Raycast(common.Ray{Origin: mgl32.Vec3{3, 0, 0}, Dir: mgl32.Vec3{0, 0, -1}}, 100)
	require.True(t, ok)
	assert.Equal(t, uint64(99), hit.Item.Handle)

	_, ok = b.Raycast(common.Ray{Dir: mgl32.Vec3{0, 0, -1}}, 1)
	assert.False(t, ok, "hit beyond max distance")

	_, ok = b.Raycast(common.Ray{Dir: mgl32.Vec3{0, 1, 0}}, 100)
	assert.False(t, ok)
}

func TestBVHBuildIsDeterministic(t *testing.T) {
	order := func() []uint64 {
		var got []uint64
		BuildBVH(rowOfBoxes(12)).QueryFrustum(
			common.ExtractFrustum(mgl32.Perspective(mgl32.DegToRad(90), 1, 0.1, 100)),
			func(it Item) { got = append(got, it.Handle) })
		return got
	}
	assert.Equal(t, order(), order())
}
