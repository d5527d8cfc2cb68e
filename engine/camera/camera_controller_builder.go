package camera

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// CameraControllerOption configures an orbit controller in NewOrbitController.
type CameraControllerOption func(*cameraControllerImpl)

// WithRadius sets the starting distance from the target. It is clamped to the radius bounds.
func WithRadius(radius float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.radius = radius
	}
}

// WithAzimuth sets the starting angle around +Y in radians. Zero looks down -Z from +Z.
func WithAzimuth(azimuth float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.azimuth = azimuth
	}
}

// WithElevation sets the starting angle above the horizontal plane in radians.
func WithElevation(elevation float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.elevation = elevation
	}
}

// WithTarget sets the point the controller orbits and looks at.
func WithTarget(t mgl32.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.target = t
	}
}

// WithRadiusBounds limits the orbit radius that Zoom and SetRadius can reach.
//
// Parameters:
//   - lo: the smallest radius, greater than zero
//   - hi: the largest radius, not below lo
//
// Returns:
//   - CameraControllerOption: a function that applies the bounds to a controller
func WithRadiusBounds(lo, hi float32) CameraControllerOption {
	if lo <= 0 || hi < lo {
		panic(fmt.Sprintf("camera: invalid radius bounds [%g, %g]", lo, hi))
	}
	return func(cc *cameraControllerImpl) {
		cc.minRadius, cc.maxRadius = lo, hi
	}
}

// WithElevationBounds limits the elevation Orbit can reach, in radians.
func WithElevationBounds(lo, hi float32) CameraControllerOption {
	if hi < lo {
		panic(fmt.Sprintf("camera: invalid elevation bounds [%g, %g]", lo, hi))
	}
	return func(cc *cameraControllerImpl) {
		cc.minElevation, cc.maxElevation = lo, hi
	}
}

// WithZoomSpeed sets how far one unit of Zoom delta moves the camera. Non-positive values
// keep the default.
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		if speed > 0 {
			cc.zoomSpeed = speed
		}
	}
}
