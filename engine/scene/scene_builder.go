package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-frame/engine/game_object"
)

// sceneBuild carries construction-only settings alongside the scene.
type sceneBuild struct {
	*scene
	lightCapacity *int
}

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *sceneBuild)

// WithObjects adds initial objects to the scene.
// Objects without IDs will be assigned new IDs.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...game_object.GameObject) SceneBuilderOption {
	return func(s *sceneBuild) {
		for _, obj := range objects {
			if obj.ID() == 0 {
				obj.SetID(s.nextID)
				s.nextID++
			} else if obj.ID() >= s.nextID {
				s.nextID = obj.ID() + 1
			}
			s.registry[obj.ID()] = obj
		}
	}
}

// WithComputeWorkers sets the number of worker goroutines used by Prepare.
// Defaults to runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of compute workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComputeWorkers(n int) SceneBuilderOption {
	return func(s *sceneBuild) {
		if n < 1 {
			n = 1
		}
		s.computeWorkers = n
	}
}

// WithCullingDisabled disables frustum culling for the scene. By default culling is enabled.
//
// Parameters:
//   - disabled: true to disable frustum culling
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullingDisabled(disabled bool) SceneBuilderOption {
	return func(s *sceneBuild) {
		s.cullingDisabled = disabled
	}
}

// WithLightCapacity sets how many lights the scene can hold. Defaults to light.MaxLights.
func WithLightCapacity(n int) SceneBuilderOption {
	return func(s *sceneBuild) {
		*s.lightCapacity = n
	}
}

// WithAmbientColor sets the ambient light color.
func WithAmbientColor(color mgl32.Vec3) SceneBuilderOption {
	return func(s *sceneBuild) {
		s.ambientColor = color
	}
}

// WithPickDistance sets the farthest distance Pick will report a hit at. Defaults to 1000.
func WithPickDistance(d float32) SceneBuilderOption {
	return func(s *sceneBuild) {
		s.pickDistance = d
	}
}
