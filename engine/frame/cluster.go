package frame

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/light"
)

// ClusterTable is the per-frame light index table of a clustered grid. Cluster c owns
// Indices[Offsets[c] : Offsets[c]+Counts[c]], each entry a light slot.
type ClusterTable struct {
	Offsets []uint32
	Counts  []uint32
	Indices []uint32
	// Refused counts light-to-cluster assignments dropped for lack of capacity.
	Refused int
}

// Assigned returns the number of light indices written to the table.
func (t *ClusterTable) Assigned() int {
	return len(t.Indices)
}

// Occupied returns the number of clusters listing at least one light.
func (t *ClusterTable) Occupied() int {
	n := 0
	for _, c := range t.Counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// Lights returns the light slots listed by cluster c.
func (t *ClusterTable) Lights(c int) []uint32 {
	return t.Indices[t.Offsets[c] : t.Offsets[c]+t.Counts[c]]
}

// ClusterStage partitions the view frustum into tiles × exponential depth slices and assigns
// each light to the clusters its bounds overlap. The cluster boxes only depend on the
// projection and viewport, so they are rebuilt when either changes and reused otherwise.
// The stage claims no pass; it publishes the grid as globals for the stages after it.
type ClusterStage struct {
	tileSize       int
	slices         int
	maxPerCluster  int
	indexCapacity  int
	lights         *SlotAllocator
	grid           [3]int
	near, far      float32
	cachedProj     mgl32.Mat4
	cachedViewport common.Rect
	clusters       []common.AABB
	table          ClusterTable
	rebuilds       int
	valid          bool
}

var _ Stage = &ClusterStage{}

// NewClusterStage creates the stage with the default grid and capacities.
//
// Parameters:
//   - opts: variadic list of ClusterStageBuilderOption functions
//
// Returns:
//   - *ClusterStage: the configured stage
func NewClusterStage(opts ...ClusterStageBuilderOption) *ClusterStage {
	c := &ClusterStage{
		tileSize:      light.TileSize,
		slices:        light.DepthSlices,
		maxPerCluster: light.MaxLightsPerTile,
		indexCapacity: 1 << 16,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.lights == nil {
		c.lights = NewSlotAllocator("cluster-lights", light.MaxLights)
	}
	return c
}

func (c *ClusterStage) Name() string {
	return "cluster"
}

// Table returns the table filled by the latest Compile.
func (c *ClusterStage) Table() *ClusterTable {
	return &c.table
}

// Grid returns the tile and slice counts of the current grid.
func (c *ClusterStage) Grid() (x, y, z int) {
	return c.grid[0], c.grid[1], c.grid[2]
}

// Rebuilds returns how many times the cluster boxes have been recomputed.
func (c *ClusterStage) Rebuilds() int {
	return c.rebuilds
}

// Clusters returns the view-space box of every cluster, x fastest then y then slice.
func (c *ClusterStage) Clusters() []common.AABB {
	return c.clusters
}

func (c *ClusterStage) Compile(fl *FrameList, tree *CommandTree, passStart int) int {
	proj := fl.Projection()
	if !c.valid || !proj.ApproxEqual(c.cachedProj) || fl.Viewport() != c.cachedViewport {
		if !c.rebuild(proj, fl.Viewport()) {
			return passStart
		}
	}
	c.assign(fl)

	g := fl.Globals()
	g.Set("u_cluster_grid", mgl32.Vec4{float32(c.grid[0]), float32(c.grid[1]), float32(c.grid[2]), float32(c.tileSize)})
	g.Set("u_cluster_depth", mgl32.Vec2{c.near, c.far})
	g.Set("u_light_count", int32(c.lights.InUse()))
	return passStart
}

// rebuild recomputes the cluster boxes for a perspective projection. It reports false and
// invalidates the grid when the projection has no finite depth range.
func (c *ClusterStage) rebuild(proj mgl32.Mat4, viewport common.Rect) bool {
	c.valid = false
	c.clusters = c.clusters[:0]
	near, far, ok := perspectiveDepth(proj)
	if !ok {
		common.Logger().Named("frame").Debug("cluster grid skipped for non-perspective projection")
		return false
	}

	tx, ty := light.TileCounts(int(viewport.Width), int(viewport.Height), c.tileSize)
	c.grid = [3]int{max(tx, 1), max(ty, 1), c.slices}
	c.near, c.far = near, far

	sx := proj.At(0, 0)
	sy := proj.At(1, 1)
	ox := proj.At(0, 2)
	oy := proj.At(1, 2)
	ratio := far / near
	for z := range c.grid[2] {
		d0 := near * math32.Pow(ratio, float32(z)/float32(c.grid[2]))
		d1 := near * math32.Pow(ratio, float32(z+1)/float32(c.grid[2]))
		for y := range c.grid[1] {
			ny0 := -1 + 2*float32(y)/float32(c.grid[1])
			ny1 := -1 + 2*float32(y+1)/float32(c.grid[1])
			for x := range c.grid[0] {
				nx0 := -1 + 2*float32(x)/float32(c.grid[0])
				nx1 := -1 + 2*float32(x+1)/float32(c.grid[0])
				box := common.EmptyAABB()
				for _, d := range [2]float32{d0, d1} {
					for _, nx := range [2]float32{nx0, nx1} {
						for _, ny := range [2]float32{ny0, ny1} {
							box = box.Extend(mgl32.Vec3{(nx + ox) * d / sx, (ny + oy) * d / sy, -d})
						}
					}
				}
				c.clusters = append(c.clusters, box)
			}
		}
	}

	c.cachedProj = proj
	c.cachedViewport = viewport
	c.rebuilds++
	c.valid = true
	return true
}

// assign fills the light index table for this frame's lights.
func (c *ClusterStage) assign(fl *FrameList) {
	c.lights.ReleaseAll()
	view := fl.View()

	type slotted struct {
		slot   Slot
		bounds common.AABB
	}
	lights := make([]slotted, 0, len(fl.Lights()))
	for _, l := range fl.Lights() {
		s, ok := c.lights.Acquire()
		if !ok {
			break
		}
		lights = append(lights, slotted{slot: s, bounds: l.WorldAABB().Transform(view)})
	}

	n := len(c.clusters)
	t := &c.table
	t.Offsets = resize(t.Offsets, n)
	t.Counts = resize(t.Counts, n)
	t.Indices = t.Indices[:0]
	t.Refused = 0
	for i, box := range c.clusters {
		t.Offsets[i] = uint32(len(t.Indices))
		t.Counts[i] = 0
		for _, l := range lights {
			if !box.Overlaps(l.bounds) {
				continue
			}
			if int(t.Counts[i]) >= c.maxPerCluster || len(t.Indices) >= c.indexCapacity {
				t.Refused++
				continue
			}
			t.Indices = append(t.Indices, uint32(l.slot))
			t.Counts[i]++
		}
	}
	if t.Refused > 0 {
		common.Logger().Named("frame").Warn("cluster light table full",
			zap.Int("refused", t.Refused),
			zap.Int("capacity", c.indexCapacity),
			zap.Int("per_cluster", c.maxPerCluster))
	}
}

// perspectiveDepth recovers the near and far planes of an OpenGL-style perspective matrix.
func perspectiveDepth(p mgl32.Mat4) (near, far float32, ok bool) {
	if p.At(3, 2) != -1 || p.At(3, 3) != 0 {
		return 0, 0, false
	}
	a, b := p.At(2, 2), p.At(2, 3)
	near = b / (a - 1)
	far = b / (a + 1)
	if near <= 0 || far <= near || math32.IsInf(far, 0) || math32.IsNaN(far) {
		return 0, 0, false
	}
	return near, far, true
}

func resize(s []uint32, n int) []uint32 {
	if cap(s) < n {
		return make([]uint32, n)
	}
	return s[:n]
}
