package engine

import (
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/game_object"
	"github.com/Carmen-Shannon/oxy-frame/engine/profiler"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-frame/engine/scene"
	"github.com/Carmen-Shannon/oxy-frame/engine/window"
)

// ErrNoWindow is returned by Run when the engine was built without a window.
var ErrNoWindow = errors.New("engine: no window")

// orbitSpeed is radians of camera orbit per pixel of middle-button drag.
const orbitSpeed = 0.005

// panStep is the fraction of the orbit radius a pan key moves the camera target.
const panStep = 0.05

// Engine drives the frame loop: each frame the active scene is prepared, culled into a frame
// list and handed to the renderer, which compiles and applies it on the graphics thread.
// Game logic runs on a separate fixed-rate tick.
type Engine interface {
	// Window returns the window, or nil for a headless engine.
	Window() window.Window

	// Renderer returns the renderer frames are drawn with.
	Renderer() renderer.Renderer

	// Profiler returns the frame statistics profiler.
	Profiler() *profiler.Profiler

	// EnableProfiler enables periodic frame statistics logging.
	EnableProfiler()

	// DisableProfiler disables frame statistics logging.
	DisableProfiler()

	// SetTickRate sets the game logic tick rate in ticks per second. Values <= 0 mean 60.
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each tick with the delta time in seconds.
	// It runs on the tick goroutine, not the graphics thread.
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame with the
	// delta time in seconds and the frame's statistics.
	SetRenderCallback(callback func(deltaTime float32, stats backend.Stats))

	// SetPickCallback registers the function called when a left click hits an object of the
	// active scene.
	//
	// Parameters:
	//   - callback: function receiving the hit object and its distance from the camera
	SetPickCallback(callback func(obj game_object.GameObject, distance float32))

	// SetRenderFrameLimit caps the render rate in frames per second. Pass 0 to uncap.
	SetRenderFrameLimit(fps float64)

	// AddScene registers a scene under key. The first scene added becomes active.
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene under key.
	RemoveScene(key int)

	// Scene returns the scene under key, or nil.
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes keyed by key.
	Scenes() map[int]scene.Scene

	// SetActiveScene selects the scene rendered each frame.
	//
	// Returns:
	//   - bool: false if no scene is registered under key
	SetActiveScene(key int) bool

	// ActiveScene returns the scene rendered each frame, or nil.
	ActiveScene() scene.Scene

	// Step renders one frame of the active scene. Run calls it from the window loop; headless
	// callers may drive it directly.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	//
	// Returns:
	//   - backend.Stats: the frame's statistics
	//   - error: if the backend could not begin or end the frame
	Step(deltaTime float32) (backend.Stats, error)

	// Run starts the tick goroutine and the window loop, blocking until the window closes.
	Run() error

	// Quit stops the tick goroutine and closes the window loop. Safe to call repeatedly.
	Quit()
}

type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration
	running         bool
	wg              sync.WaitGroup
	quitChannel     chan struct{}
	quitOnce        sync.Once

	window   window.Window
	renderer renderer.Renderer
	log      *zap.Logger

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate   time.Duration
	renderFrameLimit time.Duration
	tickCallback     func(deltaTime float32)
	renderCallback   func(deltaTime float32, stats backend.Stats)
	pickCallback     func(obj game_object.GameObject, distance float32)

	scenes map[int]scene.Scene
	active int
	// hasActive is false until a scene has been selected.
	hasActive bool

	orbiting   bool
	lastCursor [2]int32
}

var _ Engine = &engine{}

// NewEngine creates an Engine around a renderer. When a window is supplied its resize, scroll
// and mouse callbacks are wired to the renderer and the active scene's camera.
//
// Parameters:
//   - r: the renderer frames are drawn with
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(r renderer.Renderer, options ...EngineBuilderOption) Engine {
	if r == nil {
		panic("engine: NewEngine requires a non-nil renderer")
	}
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		scenes:          make(map[int]scene.Scene),
		renderer:        r,
		log:             common.Logger().Named("engine"),
		engineTickRate:  time.Second / 60,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}
	if e.window != nil {
		e.wireWindow()
	}
	return e
}

func (e *engine) wireWindow() {
	e.window.SetResizeCallback(e.resize)
	e.window.SetKeyDownCallback(func(code uint32) { e.keyDown(common.Key(code)) })
	e.window.SetScrollCallback(func(delta float32) {
		if s := e.ActiveScene(); s != nil {
			if ctrl := s.Camera().Controller(); ctrl != nil {
				ctrl.Zoom(delta)
			}
		}
	})
	e.window.SetMouseButtonCallback(func(button window.MouseButton, pressed bool, x, y int32) {
		switch button {
		case window.MouseButtonMiddle:
			e.orbiting = pressed
			e.lastCursor = [2]int32{x, y}
		case window.MouseButtonLeft:
			if pressed {
				nx, ny := window.CursorToNDC(x, y, e.window.Width(), e.window.Height())
				e.pick(nx, ny)
			}
		}
	})
	e.window.SetMouseMoveCallback(func(x, y int32) {
		if !e.orbiting {
			return
		}
		dx, dy := x-e.lastCursor[0], y-e.lastCursor[1]
		e.lastCursor = [2]int32{x, y}
		if s := e.ActiveScene(); s != nil {
			if ctrl := s.Camera().Controller(); ctrl != nil {
				ctrl.Orbit(-float32(dx)*orbitSpeed, float32(dy)*orbitSpeed)
			}
		}
	})
	e.resize(e.window.Width(), e.window.Height())
}

// keyDown handles the built-in shortcuts. Escape quits, P toggles the profiler, C toggles
// frustum culling on the active scene, W/A/S/D pan the active camera and a digit key selects
// the scene stored under that key.
func (e *engine) keyDown(k common.Key) {
	if n, ok := k.Digit(); ok {
		e.SetActiveScene(n)
		return
	}
	switch k {
	case common.KeyEscape:
		e.Quit()
	case common.KeyP:
		e.profilingEnabled = !e.profilingEnabled
	case common.KeyC:
		if s := e.ActiveScene(); s != nil {
			s.SetCullingDisabled(!s.CullingDisabled())
			e.log.Info("culling toggled", zap.Bool("disabled", s.CullingDisabled()))
		}
	case common.KeyW, common.KeyA, common.KeyS, common.KeyD:
		e.pan(k)
	}
}

// pan moves the active camera's orbit target across the ground plane, relative to where the
// camera faces. The step scales with the orbit radius.
func (e *engine) pan(k common.Key) {
	s := e.ActiveScene()
	if s == nil {
		return
	}
	ctrl := s.Camera().Controller()
	if ctrl == nil {
		return
	}
	forward := ctrl.Target().Sub(ctrl.Position())
	forward[1] = 0
	if forward.Len() < 1e-6 {
		return
	}
	forward = forward.Normalize()
	right := forward.Cross(mgl32.Vec3{0, 1, 0})
	step := ctrl.Radius() * panStep

	var d mgl32.Vec3
	switch k {
	case common.KeyW:
		d = forward
	case common.KeyS:
		d = forward.Mul(-1)
	case common.KeyD:
		d = right
	case common.KeyA:
		d = right.Mul(-1)
	}
	ctrl.SetTarget(ctrl.Target().Add(d.Mul(step)))
}

// resize forwards a framebuffer size to the renderer and every scene camera.
func (e *engine) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.renderer.Resize(width, height)
	for _, s := range e.Scenes() {
		s.Camera().SetAspect(float32(width) / float32(height))
	}
}

func (e *engine) pick(ndcX, ndcY float32) {
	s := e.ActiveScene()
	if s == nil {
		return
	}
	obj, dist, ok := s.Pick(ndcX, ndcY)
	if !ok {
		return
	}
	e.log.Debug("picked", zap.Uint64("object", obj.ID()), zap.Float32("distance", dist))
	if e.pickCallback != nil {
		e.pickCallback(obj, dist)
	}
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) Step(dt float32) (backend.Stats, error) {
	s := e.ActiveScene()
	if s == nil {
		return backend.Stats{}, nil
	}
	s.Prepare(dt)
	fl := s.BuildFrameList(e.renderer.Viewport())
	stats, err := e.renderer.RenderFrame(fl)
	if err != nil {
		return stats, err
	}
	if e.window != nil {
		e.window.SwapBuffers()
	}
	if e.profilingEnabled {
		e.profiler.Tick(stats)
	}
	if e.renderCallback != nil {
		e.renderCallback(dt, stats)
	}
	return stats, nil
}

func (e *engine) Run() error {
	if e.window == nil {
		return ErrNoWindow
	}
	e.mu.Lock()
	e.running = true
	e.mu.Unlock()

	e.wg.Add(1)
	go e.handleEngine()

	lastRender := time.Now()
	e.window.SetUpdateCallback(func() {
		select {
		case <-e.quitChannel:
			_ = e.window.Close()
			return
		default:
		}
		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if _, err := e.Step(dt); err != nil {
			// A frame the surface could not provide is skipped, not fatal.
			e.log.Warn("frame skipped", zap.Error(err))
		}
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	})
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	if rl, ok := e.renderer.Backend().(backend.Releaser); ok {
		rl.Release()
	}
	if e.window.IsRunning() {
		if err := e.window.Close(); err != nil {
			return fmt.Errorf("engine: close window: %w", err)
		}
	}
	return nil
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
		close(e.quitChannel)
	})
}

// handleEngine runs the fixed-rate tick loop in its own goroutine. It listens for dynamic
// rate changes on tickRateChannel and exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate takes effect immediately when the engine is running.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if !running {
		e.engineTickRate = newRate
		return
	}
	// Replace any pending update so the latest rate wins.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32, stats backend.Stats)) {
	e.renderCallback = callback
}

func (e *engine) SetPickCallback(callback func(obj game_object.GameObject, distance float32)) {
	e.pickCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
	if !e.hasActive {
		e.active, e.hasActive = key, true
	}
	if e.window != nil && e.window.Height() > 0 {
		s.Camera().SetAspect(float32(e.window.Width()) / float32(e.window.Height()))
	}
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
	if e.hasActive && e.active == key {
		e.hasActive = false
	}
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return maps.Clone(e.scenes)
}

func (e *engine) SetActiveScene(key int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.scenes[key]; !ok {
		return false
	}
	e.active, e.hasActive = key, true
	return true
}

func (e *engine) ActiveScene() scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasActive {
		return nil
	}
	return e.scenes[e.active]
}
