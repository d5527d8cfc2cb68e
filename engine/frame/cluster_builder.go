package frame

// ClusterStageBuilderOption is a function that configures a ClusterStage during construction.
type ClusterStageBuilderOption func(*ClusterStage)

// WithTileSize sets the tile edge in pixels.
func WithTileSize(px int) ClusterStageBuilderOption {
	return func(c *ClusterStage) {
		if px > 0 {
			c.tileSize = px
		}
	}
}

// WithDepthSlices sets the number of exponential depth slices.
func WithDepthSlices(n int) ClusterStageBuilderOption {
	return func(c *ClusterStage) {
		if n > 0 {
			c.slices = n
		}
	}
}

// WithMaxLightsPerCluster caps how many lights one cluster lists.
func WithMaxLightsPerCluster(n int) ClusterStageBuilderOption {
	return func(c *ClusterStage) {
		if n > 0 {
			c.maxPerCluster = n
		}
	}
}

// WithIndexCapacity sets the total size of the light index table.
func WithIndexCapacity(n int) ClusterStageBuilderOption {
	return func(c *ClusterStage) {
		if n > 0 {
			c.indexCapacity = n
		}
	}
}

// WithLightSlots sets how many lights the grid can index per frame.
func WithLightSlots(n int) ClusterStageBuilderOption {
	return func(c *ClusterStage) {
		if n > 0 {
			c.lights = NewSlotAllocator("cluster-lights", n)
		}
	}
}
