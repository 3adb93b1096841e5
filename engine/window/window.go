// Package window hosts the scene in a GLFW window: it feeds keyboard and pointer events into an input.Tracker,
// reports framebuffer resizes and hands the WebGPU backend a surface descriptor.
package window

import (
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-scene/engine/input"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/cogentcore/webgpu/wgpu"
)

// Size is a width and height in pixels.
type Size struct {
	Width, Height int
}

// Window is the platform window the engine renders into.
type Window interface {
	// SetUpdateCallback sets the function called once per message loop iteration, on the window goroutine.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer size changes.
	//
	// Parameters:
	//   - callback: function receiving the new framebuffer width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// BindInput routes key, button and cursor events into tracker.
	// The tracker is reset when the window loses focus so no key stays held.
	//
	// Parameters:
	//   - tracker: the input tracker that accumulates events between frames
	BindInput(tracker *input.Tracker)

	// SurfaceDescriptor returns a platform-appropriate descriptor for creating the WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor, or nil once the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is open and no close was requested.
	IsRunning() bool

	// RequestClose asks the message loop to stop after its current iteration. Safe from any goroutine.
	RequestClose()

	// Close destroys the window. Call it after ProcessMessages has returned.
	//
	// Returns:
	//   - error: if the window was already closed
	Close() error

	// ProcessMessages polls window events until the user closes the window or RequestClose is called.
	// Must run on the goroutine that created the window.
	ProcessMessages()

	// Size returns the current framebuffer size.
	//
	// Returns:
	//   - Size: width and height in pixels
	Size() Size
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	mu *sync.Mutex

	log   logging.Logger
	title string

	size    Size
	minSize Size
	maxSize Size

	// platform holds the GLFW state once the window is spawned.
	platform *glfwWindow

	closeRequested bool

	onUpdate func()
	onResize func(width, height int)
	tracker  *input.Tracker
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. It locks the calling goroutine to its OS thread, which must then run
// ProcessMessages.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the spawned window
//   - error: if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := newEngineWindow(options...)
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	w.log.Infof("opened %q at %dx%d", w.title, w.size.Width, w.size.Height)
	return w, nil
}

// newEngineWindow applies options over the defaults without touching the platform. The size limits are clamped so
// the initial size lies within them.
func newEngineWindow(options ...WindowBuilderOption) *engineWindow {
	w := &engineWindow{
		mu:      &sync.Mutex{},
		log:     logging.New("window"),
		title:   "oxy-scene",
		size:    Size{Width: 1280, Height: 720},
		minSize: Size{Width: 320, Height: 200},
		maxSize: Size{Width: 3840, Height: 2160},
	}
	for _, opt := range options {
		opt(w)
	}
	w.size.Width = min(max(w.size.Width, w.minSize.Width), w.maxSize.Width)
	w.size.Height = min(max(w.size.Height, w.minSize.Height), w.maxSize.Height)
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) BindInput(tracker *input.Tracker) {
	w.tracker = tracker
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) IsRunning() bool {
	w.mu.Lock()
	requested := w.closeRequested
	w.mu.Unlock()
	return !requested && w.platform != nil && w.platform.open()
}

func (w *engineWindow) RequestClose() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeRequested = true
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return errClosed
	}
	w.platform.destroy()
	w.platform = nil
	w.log.Info("closed")
	return nil
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		w.platform.poll()
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Size() Size {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// resized records a framebuffer size change and forwards it.
func (w *engineWindow) resized(width, height int) {
	w.mu.Lock()
	w.size = Size{Width: width, Height: height}
	w.mu.Unlock()
	w.log.Debugf("resized to %dx%d", width, height)
	if w.onResize != nil && width > 0 && height > 0 {
		w.onResize(width, height)
	}
}
