package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/Carmen-Shannon/oxy-scene/engine/input"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var errClosed = errors.New("window is closed")

// glfwWindow is the spawned GLFW window.
type glfwWindow struct {
	window *glfw.Window
}

// newPlatformWindow creates the GLFW window without a client API and installs the event callbacks.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("%w: glfw init: %w", common.ErrDeviceCreateFailure, err)
	}

	// WebGPU owns the surface, so no OpenGL context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.size.Width, w.size.Height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("%w: glfw window: %w", common.ErrDeviceCreateFailure, err)
	}
	win.SetSizeLimits(w.minSize.Width, w.minSize.Height, w.maxSize.Width, w.maxSize.Height)
	w.platform = &glfwWindow{window: win}

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.RequestClose()
			return
		}
		code, ok := virtualKey(key)
		if !ok || w.tracker == nil {
			return
		}
		switch action {
		case glfw.Press, glfw.Repeat:
			w.tracker.KeyDown(code)
		case glfw.Release:
			w.tracker.KeyUp(code)
		}
	})

	win.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		if w.tracker == nil || action == glfw.Repeat {
			return
		}
		b, ok := mouseButton(button)
		if !ok {
			return
		}
		x, y := win.GetCursorPos()
		w.tracker.MouseButton(b, action == glfw.Press, int32(x), int32(y))
	})

	win.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		if w.tracker != nil {
			w.tracker.MouseMove(int32(x), int32(y))
		}
	})

	win.SetFocusCallback(func(_ *glfw.Window, focused bool) {
		if !focused && w.tracker != nil {
			w.tracker.Reset()
		}
	})

	// Framebuffer size, not window size: they differ on high-DPI displays and the surface needs pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.size = Size{Width: fbWidth, Height: fbHeight}
	return nil
}

func mouseButton(button glfw.MouseButton) (input.MouseButton, bool) {
	switch button {
	case glfw.MouseButtonLeft:
		return input.MouseButtonLeft, true
	case glfw.MouseButtonRight:
		return input.MouseButtonRight, true
	case glfw.MouseButtonMiddle:
		return input.MouseButtonMiddle, true
	}
	return 0, false
}

// surfaceDescriptor builds the per-platform descriptor through the wgpuglfw bridge.
func (g *glfwWindow) surfaceDescriptor() *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(g.window)
}

func (g *glfwWindow) open() bool {
	return !g.window.ShouldClose()
}

func (g *glfwWindow) poll() {
	glfw.PollEvents()
}

func (g *glfwWindow) destroy() {
	g.window.Destroy()
	glfw.Terminate()
}
