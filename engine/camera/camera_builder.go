package camera

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraBuilderOption configures a camera in NewCamera.
type CameraBuilderOption func(*cameraImpl)

// WithUp sets the world up vector used to build the view matrix.
func WithUp(up mgl32.Vec3) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = up
	}
}

// WithFov sets the vertical field of view in radians. Ignored by orthographic cameras.
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithAspect sets width / height of the output the camera renders to.
func WithAspect(aspect float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.aspect = aspect
	}
}

// WithClip sets the near and far plane distances.
//
// Parameters:
//   - near: distance to the near plane, greater than zero
//   - far: distance to the far plane, greater than near
//
// Returns:
//   - CameraBuilderOption: a function that applies the clip range to a camera
func WithClip(near, far float32) CameraBuilderOption {
	if near <= 0 || far <= near {
		panic(fmt.Sprintf("camera: invalid clip range [%g, %g]", near, far))
	}
	return func(c *cameraImpl) {
		c.near, c.far = near, far
	}
}

// WithOrthographic switches the camera to an orthographic projection showing height world
// units vertically. Zero keeps the perspective projection.
func WithOrthographic(height float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.orthoHeight = max(height, 0)
	}
}

// WithController attaches the controller the view matrix follows.
func WithController(ctrl CameraController) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.controller = ctrl
	}
}
