package camera

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

type cameraImpl struct {
	mu *sync.Mutex

	up mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32
	// orthoHeight selects an orthographic projection of that many world units vertically
	// when positive.
	orthoHeight float32

	eye            mgl32.Vec3
	view           mgl32.Mat4
	projection     mgl32.Mat4
	viewProjection mgl32.Mat4

	controller CameraController
}

// Camera defines the interface for the camera system.
// The camera holds perspective settings and computes view/projection matrices
// from an attached CameraController each frame via Update().
// Matrices follow the OpenGL clip convention (depth in [-1, 1]); backends with a
// [0, 1] depth range remap them at upload.
type Camera interface {
	// Up returns the camera's up vector.
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// Eye returns the world-space camera position.
	//
	// Returns:
	//   - mgl32.Vec3: the position taken from the controller at the last update
	Eye() mgl32.Vec3

	// View returns the current world-to-view matrix.
	View() mgl32.Mat4

	// Projection returns the current projection matrix.
	Projection() mgl32.Mat4

	// ViewProjection returns projection * view.
	ViewProjection() mgl32.Mat4

	// Frustum returns the world-space view frustum for culling.
	//
	// Returns:
	//   - common.Frustum: the six inward-facing planes
	Frustum() common.Frustum

	// Ray returns the world-space ray through a point in normalized device coordinates.
	//
	// Parameters:
	//   - ndcX, ndcY: the point, each in [-1, 1] with +y up
	//
	// Returns:
	//   - common.Ray: a ray from the near plane with a unit direction
	Ray(ndcX, ndcY float32) common.Ray

	// Controller returns the attached CameraController.
	// Returns nil if no controller is attached.
	Controller() CameraController

	// Update reads position/target from controller and recomputes matrices.
	// Should be called once per frame. If no controller is attached, this method does nothing.
	Update()

	// SetUp sets the camera's up vector.
	SetUp(up mgl32.Vec3)

	// SetFov sets the field of view in radians and recomputes matrices.
	SetFov(fov float32)

	// SetAspect sets the aspect ratio (width / height) and recomputes matrices.
	SetAspect(aspect float32)

	// SetNear sets the near clipping plane distance and recomputes matrices.
	SetNear(near float32)

	// SetFar sets the far clipping plane distance and recomputes matrices.
	SetFar(far float32)

	// Orthographic reports whether the camera uses an orthographic projection.
	Orthographic() bool

	// SetOrthographic switches to an orthographic projection height world units tall, or back
	// to perspective when height is zero.
	SetOrthographic(height float32)

	// SetController attaches a CameraController to the camera.
	SetController(ctrl CameraController)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings.
// A controller must be attached via SetController or WithController option
// before position/target data is available.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:             &sync.Mutex{},
		up:             mgl32.Vec3{0, 1, 0},
		fov:            mgl32.DegToRad(45),
		aspect:         1.0,
		near:           0.1,
		far:            100.0,
		view:           mgl32.Ident4(),
		projection:     mgl32.Ident4(),
		viewProjection: mgl32.Ident4(),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Eye() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye
}

func (c *cameraImpl) View() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) Projection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projection
}

func (c *cameraImpl) ViewProjection() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjection
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.ExtractFrustum(c.viewProjection)
}

func (c *cameraImpl) Ray(ndcX, ndcY float32) common.Ray {
	c.mu.Lock()
	defer c.mu.Unlock()
	inv := c.viewProjection.Inv()
	near := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, -1}, inv)
	far := mgl32.TransformCoordinate(mgl32.Vec3{ndcX, ndcY, 1}, inv)
	return common.Ray{Origin: near, Dir: far.Sub(near).Normalize()}
}

func (c *cameraImpl) SetUp(up mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = up
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetNear(near float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.updateMatrices()
}

func (c *cameraImpl) SetFar(far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	c.updateMatrices()
}

func (c *cameraImpl) Orthographic() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orthoHeight > 0
}

func (c *cameraImpl) SetOrthographic(height float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orthoHeight = max(height, 0)
	c.updateMatrices()
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

// updateMatrices recalculates the projection and, when a controller is attached, the view.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.orthoHeight > 0 {
		hh := c.orthoHeight / 2
		hw := hh * c.aspect
		c.projection = mgl32.Ortho(-hw, hw, -hh, hh, c.near, c.far)
	} else {
		c.projection = mgl32.Perspective(c.fov, c.aspect, c.near, c.far)
	}
	if c.controller != nil {
		c.eye = c.controller.Position()
		c.view = mgl32.LookAtV(c.eye, c.controller.Target(), c.up)
	}
	c.viewProjection = c.projection.Mul4(c.view)
}
