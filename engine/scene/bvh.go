package scene

import (
	"slices"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

// leafSize is the largest number of items stored in a leaf before it is split.
const leafSize = 4

// Item is a culling entry: an opaque handle, its world bounds and an optional payload.
type Item struct {
	Handle uint64
	Bounds common.AABB
	Data   any
}

// Hit is the nearest ray hit returned by Raycast.
type Hit struct {
	Item     Item
	Distance float32
}

// bvhNode is a flattened tree node. Interior nodes have count == 0 and store the
// index of their right child in right; the left child always follows the parent.
// Leaves reference items[start:start+count].
type bvhNode struct {
	bounds common.AABB
	right  int
	start  int
	count  int
}

// BVH is a static median-split bounding volume hierarchy over scene items.
// It is rebuilt wholesale when the scene changes and is safe for concurrent queries
// once built.
type BVH struct {
	nodes []bvhNode
	items []Item
}

// BuildBVH builds a hierarchy over the given items. Items with empty bounds are dropped.
//
// Parameters:
//   - items: the items to index, copied by the builder
//
// Returns:
//   - *BVH: the built hierarchy
func BuildBVH(items []Item) *BVH {
	b := &BVH{items: make([]Item, 0, len(items))}
	for _, it := range items {
		if !it.Bounds.IsEmpty() {
			b.items = append(b.items, it)
		}
	}
	if len(b.items) == 0 {
		return b
	}
	b.nodes = make([]bvhNode, 0, 2*len(b.items)/leafSize+1)
	b.build(0, len(b.items))
	return b
}

func (b *BVH) build(start, end int) int {
	idx := len(b.nodes)
	bounds := common.EmptyAABB()
	centroids := common.EmptyAABB()
	for _, it := range b.items[start:end] {
		bounds = bounds.Union(it.Bounds)
		centroids = centroids.Extend(centroidOf(it.Bounds))
	}
	b.nodes = append(b.nodes, bvhNode{bounds: bounds})

	if end-start <= leafSize {
		b.nodes[idx].start = start
		b.nodes[idx].count = end - start
		return idx
	}

	axis := 0
	ext := centroids.Max.Sub(centroids.Min)
	if ext[1] > ext[axis] {
		axis = 1
	}
	if ext[2] > ext[axis] {
		axis = 2
	}
	span := b.items[start:end]
	slices.SortStableFunc(span, func(a, c Item) int {
		ca, cc := centroidOf(a.Bounds)[axis], centroidOf(c.Bounds)[axis]
		switch {
		case ca < cc:
			return -1
		case ca > cc:
			return 1
		}
		return 0
	})
	mid := start + (end-start)/2

	b.build(start, mid)
	right := b.build(mid, end)
	b.nodes[idx].right = right
	return idx
}

// centroidOf returns the box centre, clamping infinite extents so directional
// bounds still sort deterministically.
func centroidOf(a common.AABB) mgl32.Vec3 {
	c := a.Center()
	for i := range 3 {
		if math32.IsNaN(c[i]) || math32.IsInf(c[i], 0) {
			c[i] = 0
		}
	}
	return c
}

// Len returns the number of indexed items.
func (b *BVH) Len() int {
	return len(b.items)
}

// Bounds returns the union of all indexed item bounds.
func (b *BVH) Bounds() common.AABB {
	if len(b.nodes) == 0 {
		return common.EmptyAABB()
	}
	return b.nodes[0].bounds
}

// QueryFrustum calls fn for every item whose bounds intersect the frustum. Items are
// visited in tree order, which is deterministic for a given build input.
//
// Parameters:
//   - f: the frustum to test against
//   - fn: called once per intersecting item
func (b *BVH) QueryFrustum(f common.Frustum, fn func(Item)) {
	if len(b.nodes) == 0 {
		return
	}
	stack := make([]int, 0, 32)
	stack = append(stack, 0)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &b.nodes[i]
		if !f.IntersectsAABB(n.bounds) {
			continue
		}
		if n.count > 0 {
			for _, it := range b.items[n.start : n.start+n.count] {
				if f.IntersectsAABB(it.Bounds) {
					fn(it)
				}
			}
			continue
		}
		stack = append(stack, n.right, i+1)
	}
}

// Raycast returns the nearest item hit by the ray closer than maxDist. Children are
// visited nearest first and subtrees whose entry distance is not closer than the
// best hit so far are skipped.
//
// Parameters:
//   - ray: the ray to cast
//   - maxDist: the exclusive distance limit along the ray
//
// Returns:
//   - Hit: the nearest hit
//   - bool: false if nothing was hit
func (b *BVH) Raycast(ray common.Ray, maxDist float32) (Hit, bool) {
	if len(b.nodes) == 0 {
		return Hit{}, false
	}
	best := Hit{Distance: maxDist}
	found := false
	b.raycast(0, ray, &best, &found)
	return best, found
}

func (b *BVH) raycast(i int, ray common.Ray, best *Hit, found *bool) {
	n := &b.nodes[i]
	if n.count > 0 {
		for _, it := range b.items[n.start : n.start+n.count] {
			if t, ok := it.Bounds.IntersectRay(ray); ok && t < best.Distance {
				*best = Hit{Item: it, Distance: t}
				*found = true
			}
		}
		return
	}
	l, r := i+1, n.right
	tl, okl := b.nodes[l].bounds.IntersectRay(ray)
	tr, okr := b.nodes[r].bounds.IntersectRay(ray)
	if okr && (!okl || tr < tl) {
		l, r = r, l
		tl, tr = tr, tl
		okl, okr = okr, okl
	}
	if okl && tl < best.Distance {
		b.raycast(l, ray, best, found)
	}
	if okr && tr < best.Distance {
		b.raycast(r, ray, best, found)
	}
}
