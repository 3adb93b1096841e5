package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/input"
	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/Carmen-Shannon/oxy-scene/engine/profiler"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer"
	"github.com/Carmen-Shannon/oxy-scene/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-scene/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScene records what the frame loop asks of it. Methods the engine never calls panic via the nil embed.
type fakeScene struct {
	scene.Scene

	mu        sync.Mutex
	width     int
	height    int
	updates   int
	renders   int
	tracking  bool
	trackX    float32
	released  bool
	renderErr error
	waitErr   error
}

func (f *fakeScene) CreateDeviceDependentResources(context.Context) error { return nil }

func (f *fakeScene) CreateWindowSizeDependentResources(width, height int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.width, f.height = width, height
}

func (f *fakeScene) ReleaseDeviceDependentResources() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
}

func (f *fakeScene) Wait(ctx context.Context) error {
	if f.waitErr != nil {
		return f.waitErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeScene) SetInput(input.State) {}

func (f *fakeScene) Update(float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates++
}

func (f *fakeScene) Render() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renders++
	return f.renderErr
}

func (f *fakeScene) StartTracking() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracking = true
}

func (f *fakeScene) TrackingUpdate(x float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trackX = x
}

func (f *fakeScene) StopTracking() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tracking = false
}

func (f *fakeScene) IsTracking() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tracking
}

func (f *fakeScene) renderCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renders
}

func newTestEngine(t *testing.T, s *fakeScene, options ...EngineBuilderOption) (*engine, *renderertest.Backend) {
	t.Helper()
	backend := renderertest.NewBackend()
	e, err := NewEngine(append([]EngineBuilderOption{
		WithScene(s),
		WithRenderer(renderer.NewRenderer(backend)),
	}, options...)...)
	require.NoError(t, err)
	return e.(*engine), backend
}

func TestNewEngineRequiresScene(t *testing.T) {
	_, err := NewEngine()
	assert.Error(t, err)
}

func TestFrameAppliesLatestResize(t *testing.T) {
	s := &fakeScene{}
	e, backend := newTestEngine(t, s)

	e.requestResize(800, 600)
	e.requestResize(640, 480)
	require.NoError(t, e.frame(time.Now()))

	w, h := backend.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
	assert.Equal(t, 640, s.width)
	assert.Equal(t, 480, s.height)
	assert.Equal(t, 1, s.updates)
	assert.Equal(t, 1, s.renders)
}

func TestFrameLeftButtonTracksPointer(t *testing.T) {
	s := &fakeScene{}
	tracker := input.NewTracker()
	e, _ := newTestEngine(t, s, WithTracker(tracker))

	tracker.MouseButton(input.MouseButtonLeft, true, 120, 40)
	require.NoError(t, e.frame(time.Now()))
	assert.True(t, s.IsTracking())
	assert.Equal(t, float32(120), s.trackX)

	tracker.MouseMove(300, 40)
	require.NoError(t, e.frame(time.Now()))
	assert.Equal(t, float32(300), s.trackX)

	tracker.MouseButton(input.MouseButtonLeft, false, 300, 40)
	require.NoError(t, e.frame(time.Now()))
	assert.False(t, s.IsTracking())

	tracker.MouseButton(input.MouseButtonRight, true, 10, 10)
	require.NoError(t, e.frame(time.Now()))
	assert.False(t, s.IsTracking())
}

func TestFrameReturnsRenderError(t *testing.T) {
	boom := errors.New("device lost")
	e, _ := newTestEngine(t, &fakeScene{renderErr: boom})
	assert.ErrorIs(t, e.frame(time.Now()), boom)
}

func TestRunHeadlessUntilQuit(t *testing.T) {
	s := &fakeScene{}
	e, _ := newTestEngine(t, s, WithRenderFrameLimit(500))

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	assert.Eventually(t, func() bool { return s.renderCount() >= 3 }, 2*time.Second, 5*time.Millisecond)
	e.Quit()
	e.Quit()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
	assert.True(t, s.released)
}

func TestRunStopsOnRenderError(t *testing.T) {
	var logs bytes.Buffer
	logging.SetSink(&logs)
	defer logging.SetSink(os.Stdout)

	boom := errors.New("device lost")
	s := &fakeScene{renderErr: boom}
	e, _ := newTestEngine(t, s, WithLogger(logging.New("loop")))

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, e.Err(), boom)
	assert.True(t, s.released)
	assert.Contains(t, logs.String(), "[loop] [ERROR]")
	assert.Contains(t, logs.String(), "stopping: device lost")
}

func TestRunStopsOnLoadFailure(t *testing.T) {
	loadErr := errors.New("texture missing")
	s := &fakeScene{waitErr: loadErr}
	e, _ := newTestEngine(t, s)

	err := e.Run(context.Background())
	assert.ErrorIs(t, err, loadErr)
	assert.ErrorContains(t, err, "load")
}

func TestFrameTicksInjectedProfiler(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time {
		now = now.Add(50 * time.Millisecond)
		return now
	}
	p := profiler.NewProfiler(profiler.WithClock(clock), profiler.WithInterval(100*time.Millisecond))
	e, _ := newTestEngine(t, &fakeScene{}, WithProfiler(p), WithProfiling(true))

	require.NoError(t, e.frame(time.Now()))
	assert.Zero(t, p.Last().FPS)
	require.NoError(t, e.frame(time.Now()))
	assert.InDelta(t, 20, p.Last().FPS, 1e-9)

	e.DisableProfiler()
	for range 4 {
		require.NoError(t, e.frame(time.Now()))
	}
	assert.InDelta(t, 20, p.Last().FPS, 1e-9, "a disabled profiler is not ticked")
}

func TestSetRenderFrameLimit(t *testing.T) {
	e, _ := newTestEngine(t, &fakeScene{})
	e.SetRenderFrameLimit(50)
	assert.Equal(t, 20*time.Millisecond, e.renderFrameLimit)
	e.SetRenderFrameLimit(0)
	assert.Zero(t, e.renderFrameLimit)
}
