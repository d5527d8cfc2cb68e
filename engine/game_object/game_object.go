package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/light"
	"github.com/Carmen-Shannon/oxy-frame/engine/model"
)

type gameObject struct {
	mu *sync.Mutex

	id            uint64
	enabled       atomic.Bool
	mdl           model.Model
	attachedLight light.Light

	position      mgl32.Vec3
	rotation      mgl32.Vec3
	scale         mgl32.Vec3
	rotationSpeed mgl32.Vec3

	world     mgl32.Mat4
	prevWorld mgl32.Mat4
	bounds    common.AABB
	dirty     bool
}

// GameObject defines the interface for a scene entity: a model placed in the world by a
// position, Euler rotation, and scale.
//
// The world matrix and bounds are derived state refreshed by Update once per frame, which
// also keeps the previous frame's matrix for motion vectors. Update may run concurrently
// for different objects.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID, zero until the object is added to a scene
	ID() uint64

	// Enabled returns whether this object is enabled for rendering.
	Enabled() bool

	// Model returns the Model associated with this object, or nil if not set.
	Model() model.Model

	// Position returns the world-space position.
	Position() mgl32.Vec3

	// Rotation returns the Euler rotation in radians, applied X then Y then Z.
	Rotation() mgl32.Vec3

	// RotationSpeed returns the rotation change per second that Update applies.
	RotationSpeed() mgl32.Vec3

	// Scale returns the per-axis scale.
	Scale() mgl32.Vec3

	// World returns the model-to-world matrix computed by the last Update.
	World() mgl32.Mat4

	// PrevWorld returns the model-to-world matrix of the frame before the last Update.
	PrevWorld() mgl32.Mat4

	// WorldBounds returns the world-space box around the model as of the last Update.
	//
	// Returns:
	//   - common.AABB: the bounds, empty if the object has no model
	WorldBounds() common.AABB

	// Update advances the rotation by deltaTime and recomputes the world matrix and bounds.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	//
	// Returns:
	//   - bool: true if the world matrix changed
	Update(deltaTime float32) bool

	// SetID sets the object's unique identifier.
	SetID(id uint64)

	// SetEnabled sets whether the object is enabled for rendering.
	SetEnabled(enabled bool)

	// SetModel assigns a Model to this object.
	SetModel(m model.Model)

	// SetPosition sets the world-space position.
	SetPosition(p mgl32.Vec3)

	// SetRotation sets the Euler rotation in radians.
	SetRotation(r mgl32.Vec3)

	// SetRotationSpeed sets the rotation change per second.
	SetRotationSpeed(r mgl32.Vec3)

	// SetScale sets the per-axis scale.
	SetScale(s mgl32.Vec3)

	// Light returns the light attached to this object, or nil.
	Light() light.Light

	// SetLight attaches a light that follows the object's position.
	SetLight(l light.Light)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new GameObject at the origin with unit scale.
//
// Parameters:
//   - options: variadic list of GameObjectBuilderOption functions
//
// Returns:
//   - GameObject: the new object, enabled by default
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	g := &gameObject{
		mu:     &sync.Mutex{},
		scale:  mgl32.Vec3{1, 1, 1},
		bounds: common.EmptyAABB(),
		dirty:  true,
	}
	g.enabled.Store(true)
	for _, option := range options {
		option(g)
	}
	g.world = common.BuildModelMatrix(g.position, g.rotation, g.scale)
	g.prevWorld = g.world
	g.refreshBounds()
	return g
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Model() model.Model {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mdl
}

func (g *gameObject) Position() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.position
}

func (g *gameObject) Rotation() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rotation
}

func (g *gameObject) RotationSpeed() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rotationSpeed
}

func (g *gameObject) Scale() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scale
}

func (g *gameObject) World() mgl32.Mat4 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.world
}

func (g *gameObject) PrevWorld() mgl32.Mat4 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prevWorld
}

func (g *gameObject) WorldBounds() common.AABB {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bounds
}

func (g *gameObject) Update(deltaTime float32) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prevWorld = g.world
	if g.rotationSpeed != (mgl32.Vec3{}) {
		g.rotation = g.rotation.Add(g.rotationSpeed.Mul(deltaTime))
		g.dirty = true
	}
	if !g.dirty {
		return false
	}
	g.dirty = false
	g.world = common.BuildModelMatrix(g.position, g.rotation, g.scale)
	g.refreshBounds()
	if g.attachedLight != nil {
		g.attachedLight.SetPosition(g.position)
	}
	return true
}

// refreshBounds recomputes the world bounds. Caller must hold the mutex.
func (g *gameObject) refreshBounds() {
	if g.mdl == nil {
		g.bounds = common.EmptyAABB()
		return
	}
	g.bounds = g.mdl.Bounds().Transform(g.world)
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetModel(m model.Model) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mdl = m
	g.dirty = true
}

func (g *gameObject) SetPosition(p mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = p
	g.dirty = true
}

func (g *gameObject) SetRotation(r mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation = r
	g.dirty = true
}

func (g *gameObject) SetRotationSpeed(r mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotationSpeed = r
}

func (g *gameObject) SetScale(s mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = s
	g.dirty = true
}

func (g *gameObject) Light() light.Light {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attachedLight
}

func (g *gameObject) SetLight(l light.Light) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attachedLight = l
	g.dirty = true
}
