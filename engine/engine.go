package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/input"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/resource"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/Carmen-Shannon/oxy-scene/engine/window"
)

// engine implements the Engine interface.
// Coordinates the window thread and the frame goroutine.
type engine struct {
	mu *sync.Mutex
	wg sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	// resizeChannel carries the latest window size to the frame goroutine.
	resizeChannel chan [2]int

	log logging.Logger

	window   window.Window
	renderer renderer.Renderer
	scene    scene.Scene
	graph    resource.Graph // closed when Run returns, if set
	tracker  *input.Tracker

	profiler         *profiler.Profiler
	profilingEnabled bool

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	lastFrame        time.Time

	err error
}

// Engine drives the scene: it starts the scene load, then runs a frame loop that feeds input to the scene, updates
// it and renders it, while the window message loop runs on the calling goroutine.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance, nil for a headless engine
	Window() window.Window

	// Renderer returns the renderer the scene draws through.
	Renderer() renderer.Renderer

	// Scene returns the scene.
	Scene() scene.Scene

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the scene load and the frame loop, then processes window messages until the window closes or
	// Quit is called. Device resources are released before Run returns.
	//
	// Parameters:
	//   - ctx: bounds the scene load
	//
	// Returns:
	//   - error: the error that stopped the frame loop, or nil on a normal close
	Run(ctx context.Context) error

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Err returns the error that stopped the frame loop, if any.
	Err() error
}

var _ Engine = &engine{}

// NewEngine creates a new Engine instance with the provided options.
// A scene is required; the tracker and profiler default to fresh instances.
//
// Parameters:
//   - options: functional options for engine configuration (window, renderer, scene, profiling, etc.)
//
// Returns:
//   - Engine: the newly created engine
//   - error: if no scene was provided
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:            &sync.Mutex{},
		quitChannel:   make(chan struct{}),
		resizeChannel: make(chan [2]int, 1),
		log:           logging.New("engine"),
		tracker:       input.NewTracker(),
		profiler:      profiler.NewProfiler(),
	}
	for _, opt := range options {
		opt(e)
	}
	if e.scene == nil {
		return nil, fmt.Errorf("engine: a scene is required")
	}

	if e.window != nil {
		e.window.BindInput(e.tracker)
		e.window.SetResizeCallback(e.requestResize)
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				e.window.RequestClose()
			default:
			}
		})
		size := e.window.Size()
		e.scene.CreateWindowSizeDependentResources(size.Width, size.Height)
	}
	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) Run(ctx context.Context) error {
	loadCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := e.scene.CreateDeviceDependentResources(loadCtx); err != nil {
		return err
	}
	e.wg.Add(1)
	go e.watchLoad(loadCtx)

	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	} else {
		<-e.quitChannel
	}
	cancel()
	e.wg.Wait()

	e.scene.ReleaseDeviceDependentResources()
	if e.graph != nil {
		e.graph.Close()
	}
	if e.renderer != nil {
		e.renderer.Release()
	}
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			e.log.Warningf("close window: %v", err)
		}
	}
	return e.Err()
}

// watchLoad logs when the scene becomes ready and stops the engine if the load fails.
func (e *engine) watchLoad(ctx context.Context) {
	defer e.wg.Done()
	if err := e.scene.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			e.fail(fmt.Errorf("load: %w", err))
		}
		return
	}
	e.log.Info("scene ready")
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// fail records the first fatal error and stops the engine.
func (e *engine) fail(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
	e.log.Errorf("stopping: %v", err)
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// requestResize hands a new window size to the frame goroutine, replacing any size not yet applied.
func (e *engine) requestResize(width, height int) {
	size := [2]int{width, height}
	select {
	case e.resizeChannel <- size:
	default:
		select {
		case <-e.resizeChannel:
		default:
		}
		e.resizeChannel <- size
	}
}

// handle launches the frame goroutine, tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.lastFrame = time.Now()
	e.wg.Add(1)
	go e.handleRender()
}

// handleRender runs the uncapped (or frame-limited) frame loop in its own goroutine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.fail(fmt.Errorf("frame goroutine panic: %v", r))
		}
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			start := time.Now()
			if err := e.frame(start); err != nil {
				e.fail(err)
				return
			}

			if e.renderFrameLimit > 0 {
				if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// frame runs one iteration of the loop: pending resize, input, Update, Render, profiler.
//
// Parameters:
//   - now: the frame start time
//
// Returns:
//   - error: the render error, if any
func (e *engine) frame(now time.Time) error {
	select {
	case size := <-e.resizeChannel:
		if e.renderer != nil {
			e.renderer.Resize(size[0], size[1])
		}
		e.scene.CreateWindowSizeDependentResources(size[0], size[1])
	default:
	}

	dt := now.Sub(e.lastFrame).Seconds()
	e.lastFrame = now

	state := e.tracker.Snapshot()
	e.track(state)
	e.scene.SetInput(state)
	e.scene.Update(dt)
	if err := e.scene.Render(); err != nil {
		return err
	}

	if e.profilingEnabled && e.profiler != nil {
		e.profiler.Tick()
	}
	return nil
}

// track lets a held left button drive the cube rotation by the pointer x position.
func (e *engine) track(state input.State) {
	pressed := state.HasPointer && state.Pointer.LeftButton
	switch {
	case pressed && !e.scene.IsTracking():
		e.scene.StartTracking()
	case !pressed && e.scene.IsTracking():
		e.scene.StopTracking()
	}
	if pressed {
		e.scene.TrackingUpdate(state.Pointer.X)
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
