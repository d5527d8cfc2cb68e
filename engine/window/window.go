package window

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// GraphicsAPI selects what the window's surface is created for.
type GraphicsAPI int

const (
	// APIWebGPU creates a window without a client API for a WebGPU surface.
	APIWebGPU GraphicsAPI = iota

	// APIOpenGL creates a window with a current OpenGL 4.1 core context.
	APIOpenGL
)

// MouseButton identifies a mouse button in button callbacks.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonRight
	MouseButtonMiddle
)

// Window provides platform windowing and input event handling.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press and repeat events.
	SetKeyDownCallback(callback func(keyCode uint32))

	// SetKeyUpCallback sets the callback for key release events.
	SetKeyUpCallback(callback func(keyCode uint32))

	// SetMouseButtonCallback sets the callback for mouse button presses and releases.
	//
	// Parameters:
	//   - callback: function receiving the button, whether it was pressed, and the cursor
	//     position in window pixels with the origin at the top left
	SetMouseButtonCallback(callback func(button MouseButton, pressed bool, x, y int32))

	// SetMouseMoveCallback sets the callback for mouse movement.
	SetMouseMoveCallback(callback func(x, y int32))

	// API returns the graphics API the window was created for.
	API() GraphicsAPI

	// SurfaceDescriptor returns a platform surface descriptor for creating a WebGPU surface,
	// or nil for an OpenGL window.
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// SwapBuffers presents the back buffer of an OpenGL window. It does nothing for WebGPU
	// windows, which present through their surface.
	SwapBuffers()

	// IsRunning returns true if the window is still active.
	IsRunning() bool

	// Close closes the window and releases platform resources.
	Close() error

	// ProcessMessages runs the window message loop, calling the update callback each
	// iteration. Blocks until the window is closed.
	ProcessMessages()

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

type engineWindow struct {
	title string

	maxWidth, maxHeight int
	minWidth, minHeight int
	width, height       int

	api   GraphicsAPI
	vsync bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate      func()
	onResize      func(width, height int)
	onScroll      func(delta float32)
	onKeyDown     func(keyCode uint32)
	onKeyUp       func(keyCode uint32)
	onMouseButton func(button MouseButton, pressed bool, x, y int32)
	onMouseMove   func(x, y int32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a Window. Applies default values first, then each option in
// order. Must be called from the main goroutine.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
//   - error: if the platform window or its context could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy-frame",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 200,
		width:     1280,
		height:    720,
		vsync:     true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	return w, nil
}

// CursorToNDC converts a cursor position in window pixels, origin top left, to normalised
// device coordinates in [-1, 1] with y up.
//
// Parameters:
//   - x, y: the cursor position in pixels
//   - width, height: the framebuffer size in pixels
//
// Returns:
//   - float32, float32: the NDC position
func CursorToNDC(x, y int32, width, height int) (float32, float32) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	nx := (float32(x)+0.5)/float32(width)*2 - 1
	ny := 1 - (float32(y)+0.5)/float32(height)*2
	return nx, ny
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(keyCode uint32)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetMouseButtonCallback(callback func(button MouseButton, pressed bool, x, y int32)) {
	w.onMouseButton = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y int32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) API() GraphicsAPI {
	return w.api
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.api != APIWebGPU {
		return nil
	}
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) SwapBuffers() {
	if w.api == APIOpenGL {
		platformSwapBuffers(w)
	}
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if succ := platformProcessMessages(w); !succ {
			break
		}

		if w.onUpdate != nil {
			w.onUpdate()
		}

		runtime.Gosched()
	}
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
