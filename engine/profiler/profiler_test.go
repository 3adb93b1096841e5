package profiler

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestProfilerReportsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	logging.SetSink(&buf)
	defer logging.SetSink(os.Stdout)

	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(time.Second))

	for i := 0; i < 59; i++ {
		clock.advance(16 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	clock.advance(56 * time.Millisecond)
	require.True(t, p.Tick())

	s := p.Last()
	assert.InDelta(t, 60, s.FPS, 0.01)
	assert.Equal(t, 56*time.Millisecond, s.WorstFrame)
	assert.Equal(t, time.Second/60, s.AvgFrame)
	assert.Contains(t, buf.String(), "[profiler] [INFO]")
	assert.Contains(t, buf.String(), "FPS: 60.00")

	clock.advance(16 * time.Millisecond)
	assert.False(t, p.Tick())
}

func TestProfilerWritesToInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logging.SetSink(&buf)
	defer logging.SetSink(os.Stdout)

	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(WithClock(clock.now), WithInterval(100*time.Millisecond), WithLogger(logging.New("frames")))

	clock.advance(100 * time.Millisecond)
	require.True(t, p.Tick())
	assert.Contains(t, buf.String(), "[frames] [INFO]")
	assert.NotContains(t, buf.String(), "[profiler]")
}
