package demo

import "github.com/Carmen-Shannon/oxy-frame/engine/scene"

// DemoBuilderOption is a function that configures the demo scene layout.
type DemoBuilderOption func(*demo)

// WithGrid sets the number of cubes along each side of the grid.
func WithGrid(n int) DemoBuilderOption {
	return func(d *demo) {
		d.grid = max(n, 0)
	}
}

// WithSpacing sets the distance between neighbouring cube centres.
func WithSpacing(spacing float32) DemoBuilderOption {
	return func(d *demo) {
		if spacing > 0 {
			d.spacing = spacing
		}
	}
}

// WithPointLights sets the number of randomly placed point lights.
func WithPointLights(n int) DemoBuilderOption {
	return func(d *demo) {
		d.pointLights = max(n, 0)
	}
}

// WithPanes sets the number of translucent panes.
func WithPanes(n int) DemoBuilderOption {
	return func(d *demo) {
		d.panes = max(n, 0)
	}
}

// WithSeed sets the seed for colours and light placement.
func WithSeed(seed uint64) DemoBuilderOption {
	return func(d *demo) {
		d.seed = seed
	}
}

// WithSceneOptions passes options through to scene.NewScene.
func WithSceneOptions(opts ...scene.SceneBuilderOption) DemoBuilderOption {
	return func(d *demo) {
		d.sceneOpts = append(d.sceneOpts, opts...)
	}
}
