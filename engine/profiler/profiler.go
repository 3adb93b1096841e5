package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/engine/logging"
)

// Stats is one reporting window of frame and memory statistics.
type Stats struct {
	FPS          float64
	AvgFrame     time.Duration
	WorstFrame   time.Duration
	HeapMB       float64
	AllocRateMB  float64
	GCCount      uint32
	MaxGCPauseUs uint64
	SysMB        float64
}

// Profiler tracks frame rate and memory statistics, logging them once per interval.
type Profiler struct {
	log            logging.Logger
	now            func() time.Time
	updateInterval time.Duration

	frameCount     int
	windowStart    time.Time
	lastFrame      time.Time
	worstFrame     time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
}

// NewProfiler creates a Profiler. The interval defaults to one second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		log:            logging.New("profiler"),
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	p.windowStart = p.now()
	p.lastFrame = p.windowStart
	return p
}

// Tick records one frame. When the interval has elapsed it computes a Stats window and logs it at Info.
//
// Returns:
//   - bool: true if stats were logged this tick
func (p *Profiler) Tick() bool {
	current := p.now()
	if dt := current.Sub(p.lastFrame); dt > p.worstFrame {
		p.worstFrame = dt
	}
	p.lastFrame = current
	p.frameCount++

	elapsed := current.Sub(p.windowStart)
	if elapsed < p.updateInterval {
		return false
	}

	p.last = p.collect(elapsed)
	p.log.Infof("FPS: %.2f | Frame: %s avg, %s worst | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max pause: %d µs) | Sys: %.2f MB",
		p.last.FPS, p.last.AvgFrame, p.last.WorstFrame, p.last.HeapMB, p.last.AllocRateMB, p.last.GCCount, p.last.MaxGCPauseUs, p.last.SysMB)

	p.frameCount = 0
	p.worstFrame = 0
	p.windowStart = current
	return true
}

// Last returns the most recently logged window.
func (p *Profiler) Last() Stats {
	return p.last
}

func (p *Profiler) collect(elapsed time.Duration) Stats {
	runtime.ReadMemStats(&p.memStats)

	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		AvgFrame:    elapsed / time.Duration(p.frameCount),
		WorstFrame:  p.worstFrame,
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
	}

	// PauseNs is a ring of the last 256 pauses.
	start := p.lastGCCount
	if s.GCCount-start > 256 {
		start = s.GCCount - 256
	}
	for i := start; i < s.GCCount; i++ {
		if pause := p.memStats.PauseNs[i%256] / 1000; pause > s.MaxGCPauseUs {
			s.MaxGCPauseUs = pause
		}
	}

	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return s
}
