package scene

import (
	"cmp"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/camera"
	"github.com/Carmen-Shannon/oxy-frame/engine/frame"
	"github.com/Carmen-Shannon/oxy-frame/engine/game_object"
	"github.com/Carmen-Shannon/oxy-frame/engine/light"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
)

// Scene manages a registry of GameObjects and lights viewed through a Camera.
// Each frame the owner calls Prepare to refresh transforms, then BuildFrameList to cull
// the registry against the camera frustum and emit the surviving geometry and lights.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Count returns the number of GameObjects in the registry.
	Count() int

	// Add registers a GameObject and assigns it an ID if it has none. A light attached to
	// the object is registered as well.
	//
	// Parameters:
	//   - obj: the GameObject to add
	//
	// Returns:
	//   - uint64: the assigned object ID
	Add(obj game_object.GameObject) uint64

	// Get retrieves a GameObject by its ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's unique ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes a GameObject from the registry by ID, detaching its light.
	//
	// Parameters:
	//   - id: the object's unique ID
	Remove(id uint64)

	// Clear removes all objects and lights from the scene.
	Clear()

	// AddLight registers a light and reserves it a light slot.
	//
	// Parameters:
	//   - l: the Light to add
	//
	// Returns:
	//   - bool: false if every slot is taken, in which case the light is not added
	AddLight(l light.Light) bool

	// RemoveLight removes a light and frees its slot.
	//
	// Parameters:
	//   - l: the Light to remove
	RemoveLight(l light.Light)

	// Lights returns all registered lights in slot order.
	Lights() []light.Light

	// AmbientColor returns the scene's ambient light color.
	AmbientColor() mgl32.Vec3

	// SetAmbientColor sets the scene's ambient light color.
	SetAmbientColor(color mgl32.Vec3)

	// CullingDisabled returns whether frustum culling is skipped when building frame lists.
	CullingDisabled() bool

	// SetCullingDisabled enables or disables frustum culling.
	SetCullingDisabled(disabled bool)

	// Prepare updates the camera and refreshes every enabled object's transform in parallel
	// on the scene's worker pool, then rebuilds the culling hierarchy if anything moved.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the last frame in seconds
	Prepare(deltaTime float32)

	// BuildFrameList culls the registry against the camera and returns a frame list holding
	// one batch per visible submesh and every light that reaches the view.
	//
	// Parameters:
	//   - viewport: the pixel rectangle the frame renders into
	//
	// Returns:
	//   - *frame.FrameList: the assembled frame list
	BuildFrameList(viewport common.Rect) *frame.FrameList

	// Pick casts a ray through a point in normalized device coordinates and returns the
	// nearest object whose world bounds it hits.
	//
	// Parameters:
	//   - ndcX: horizontal coordinate in [-1, 1]
	//   - ndcY: vertical coordinate in [-1, 1]
	//
	// Returns:
	//   - game_object.GameObject: the hit object
	//   - float32: the distance along the ray
	//   - bool: false if nothing was hit
	Pick(ndcX, ndcY float32) (game_object.GameObject, float32, bool)

	// Culler returns the culling hierarchy as of the last Prepare.
	Culler() *BVH
}

type scene struct {
	mu *sync.RWMutex

	name string
	cam  camera.Camera

	registry map[uint64]game_object.GameObject
	nextID   uint64

	cullingDisabled bool
	bvh             *BVH
	bvhDirty        bool
	pickDistance    float32

	lights       []light.Light
	lightSlots   map[light.Light]frame.Slot
	slots        *frame.SlotAllocator
	lightObjects map[uint64]light.Light
	ambientColor mgl32.Vec3

	// computePool runs the per-object transform refresh. Workers persist across frames.
	computePool    worker.DynamicWorkerPool
	computeWorkers int
}

var _ Scene = &scene{}

// NewScene creates a new Scene viewed through the given camera. Panics if cam is nil.
//
// Parameters:
//   - name: the name of the scene
//   - cam: the camera to attach (must not be nil)
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	if cam == nil {
		panic("scene: NewScene requires a non-nil Camera")
	}

	s := &scene{
		mu:             &sync.RWMutex{},
		name:           name,
		cam:            cam,
		registry:       make(map[uint64]game_object.GameObject),
		nextID:         1,
		bvh:            BuildBVH(nil),
		bvhDirty:       true,
		pickDistance:   1000,
		lightSlots:     make(map[light.Light]frame.Slot),
		lightObjects:   make(map[uint64]light.Light),
		ambientColor:   mgl32.Vec3{0.1, 0.1, 0.1},
		computeWorkers: max(runtime.NumCPU()-1, 1),
	}
	lightCapacity := light.MaxLights

	for _, option := range options {
		option(&sceneBuild{scene: s, lightCapacity: &lightCapacity})
	}

	s.slots = frame.NewSlotAllocator("scene-lights", lightCapacity)
	s.computePool = worker.NewDynamicWorkerPool(s.computeWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Camera() camera.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(obj)
}

func (s *scene) addLocked(obj game_object.GameObject) uint64 {
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
		s.nextID++
	} else if obj.ID() >= s.nextID {
		s.nextID = obj.ID() + 1
	}
	s.registry[obj.ID()] = obj
	s.bvhDirty = true
	if l := obj.Light(); l != nil {
		if s.addLightLocked(l) {
			s.lightObjects[obj.ID()] = l
		}
	}
	return obj.ID()
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registry[id]; !ok {
		return
	}
	delete(s.registry, id)
	if l, ok := s.lightObjects[id]; ok {
		s.removeLightLocked(l)
		delete(s.lightObjects, id)
	}
	s.bvhDirty = true
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.registry)
	clear(s.lightObjects)
	clear(s.lightSlots)
	s.lights = s.lights[:0]
	s.slots.ReleaseAll()
	s.bvh = BuildBVH(nil)
	s.bvhDirty = false
}

func (s *scene) AddLight(l light.Light) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLightLocked(l)
}

func (s *scene) addLightLocked(l light.Light) bool {
	if _, ok := s.lightSlots[l]; ok {
		return true
	}
	slot, ok := s.slots.Acquire()
	if !ok {
		return false
	}
	s.lightSlots[l] = slot
	s.lights = append(s.lights, l)
	slices.SortFunc(s.lights, func(a, b light.Light) int {
		return cmp.Compare(s.lightSlots[a], s.lightSlots[b])
	})
	return true
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLightLocked(l)
}

func (s *scene) removeLightLocked(l light.Light) {
	slot, ok := s.lightSlots[l]
	if !ok {
		return
	}
	s.slots.Release(slot)
	delete(s.lightSlots, l)
	s.lights = slices.DeleteFunc(s.lights, func(x light.Light) bool { return x == l })
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *scene) AmbientColor() mgl32.Vec3 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ambientColor
}

func (s *scene) SetAmbientColor(color mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ambientColor = color
}

func (s *scene) CullingDisabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cullingDisabled
}

func (s *scene) SetCullingDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cullingDisabled = disabled
}

func (s *scene) Culler() *BVH {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bvh
}

func (s *scene) Prepare(deltaTime float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cam.Update()

	// A WaitGroup gives the per-frame barrier; the pool's own Wait blocks until workers
	// idle out, which is too slow for a frame.
	var wg sync.WaitGroup
	var moved sync.Map
	taskID := 0
	for id, obj := range s.registry {
		if !obj.Enabled() {
			continue
		}
		wg.Add(1)
		objCap := obj
		idCap := id
		s.computePool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				if objCap.Update(deltaTime) {
					moved.Store(idCap, struct{}{})
				}
				return nil, nil
			},
		})
		taskID++
	}
	wg.Wait()

	moved.Range(func(_, _ any) bool {
		s.bvhDirty = true
		return false
	})
	if s.bvhDirty {
		s.rebuildLocked()
	}
}

// rebuildLocked rebuilds the culling hierarchy from enabled objects. Caller must hold the lock.
func (s *scene) rebuildLocked() {
	items := make([]Item, 0, len(s.registry))
	for id, obj := range s.registry {
		if !obj.Enabled() || obj.Model() == nil {
			continue
		}
		items = append(items, Item{Handle: id, Bounds: obj.WorldBounds(), Data: obj})
	}
	slices.SortFunc(items, func(a, b Item) int { return cmp.Compare(a.Handle, b.Handle) })
	s.bvh = BuildBVH(items)
	s.bvhDirty = false
	common.Logger().Named("scene").Debug("culling hierarchy rebuilt",
		zap.String("scene", s.name), zap.Int("items", s.bvh.Len()))
}

func (s *scene) BuildFrameList(viewport common.Rect) *frame.FrameList {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view, proj := s.cam.View(), s.cam.Projection()
	eye := s.cam.Eye()
	fl := frame.NewFrameList(eye, proj.Mul4(view),
		frame.WithCamera(view, proj),
		frame.WithAmbient(s.ambientColor),
		frame.WithListViewport(viewport),
		frame.WithCapacity(len(s.registry)),
	)

	var visible []game_object.GameObject
	if s.cullingDisabled {
		for _, obj := range s.registry {
			if obj.Enabled() && obj.Model() != nil {
				visible = append(visible, obj)
			}
		}
	} else {
		s.bvh.QueryFrustum(s.cam.Frustum(), func(it Item) {
			obj := it.Data.(game_object.GameObject)
			if obj.Enabled() {
				visible = append(visible, obj)
			}
		})
	}
	slices.SortFunc(visible, func(a, b game_object.GameObject) int { return cmp.Compare(a.ID(), b.ID()) })

	var transparent []frame.GeometryBatch
	for _, obj := range visible {
		mdl := obj.Model()
		world, prev := obj.World(), obj.PrevWorld()
		dist := obj.WorldBounds().Center().Sub(eye).Len()
		for _, sub := range mdl.Submeshes() {
			mat := sub.Material
			if mat == nil {
				mat = mdl.Material()
			}
			if mat == nil || sub.Range.Count == 0 {
				continue
			}
			b := frame.GeometryBatch{
				Model:     world,
				PrevModel: prev,
				Bounds:    sub.Bounds.Transform(world),
				Material:  mat,
				Source:    mdl.Source(),
				Range:     sub.Range,
				Topology:  sub.Topology,
				Depth:     dist,
				FlipCull:  world.Det() < 0,
			}
			if mat.Layer() == material.LayerTransparent {
				transparent = append(transparent, b)
				continue
			}
			fl.AddBatch(b)
		}
	}
	// Transparent geometry draws in submission order, so submit it back to front.
	slices.SortStableFunc(transparent, func(a, b frame.GeometryBatch) int { return cmp.Compare(b.Depth, a.Depth) })
	for _, b := range transparent {
		fl.AddBatch(b)
	}

	frustum := s.cam.Frustum()
	for _, l := range s.lights {
		if !l.Enabled() {
			continue
		}
		bounds := l.WorldAABB()
		if !s.cullingDisabled && !bounds.IsInfinite() && !frustum.IntersectsAABB(bounds) {
			continue
		}
		fl.AddLight(l)
	}
	return fl
}

func (s *scene) Pick(ndcX, ndcY float32) (game_object.GameObject, float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hit, ok := s.bvh.Raycast(s.cam.Ray(ndcX, ndcY), s.pickDistance)
	if !ok {
		return nil, 0, false
	}
	return hit.Item.Data.(game_object.GameObject), hit.Distance, true
}
