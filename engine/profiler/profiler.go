// Package profiler logs render and simulation rates for the engine loops.
package profiler

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-materials/engine/logger"
)

// Stats summarizes one reporting interval.
type Stats struct {
	FPS float64
	// TPS is simulation ticks per second.
	TPS float64
	// AvgFrame and WorstFrame are measured between consecutive Frame calls.
	AvgFrame   time.Duration
	WorstFrame time.Duration
	// Skipped counts frames where no surface texture was available.
	Skipped int
	HeapMB  float64
	NumGC   uint32
}

// Profiler collects frame times from the render goroutine and tick counts from the
// simulation goroutine, and logs Stats on the "profiler" component once per interval.
type Profiler struct {
	mu       *sync.Mutex
	now      func() time.Time
	interval time.Duration

	start      time.Time
	lastFrame  time.Time
	frames     int
	skipped    int
	worstFrame time.Duration
	ticks      atomic.Int64
}

// NewProfiler creates a Profiler reporting every interval. Intervals <= 0 default
// to 1 second.
//
// Parameters:
//   - interval: how often stats are logged
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(interval time.Duration) *Profiler {
	return newProfiler(interval, time.Now)
}

func newProfiler(interval time.Duration, now func() time.Time) *Profiler {
	if interval <= 0 {
		interval = time.Second
	}
	t := now()
	return &Profiler{
		mu:        &sync.Mutex{},
		now:       now,
		interval:  interval,
		start:     t,
		lastFrame: t,
	}
}

// Tick counts one simulation tick. Safe to call from another goroutine than Frame.
func (p *Profiler) Tick() {
	p.ticks.Add(1)
}

// Frame records one render loop iteration and reports the interval's stats once it
// has elapsed.
//
// Parameters:
//   - skipped: true when the frame was not presented
//
// Returns:
//   - Stats: the finished interval's stats, zero when the interval is still running
//   - bool: true if the interval ended and the stats were logged
func (p *Profiler) Frame(skipped bool) (Stats, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.now()
	p.worstFrame = max(p.worstFrame, t.Sub(p.lastFrame))
	p.lastFrame = t
	p.frames++
	if skipped {
		p.skipped++
	}

	elapsed := t.Sub(p.start)
	if elapsed < p.interval {
		return Stats{}, false
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	secs := elapsed.Seconds()
	stats := Stats{
		FPS:        float64(p.frames) / secs,
		TPS:        float64(p.ticks.Swap(0)) / secs,
		AvgFrame:   elapsed / time.Duration(p.frames),
		WorstFrame: p.worstFrame,
		Skipped:    p.skipped,
		HeapMB:     float64(mem.HeapAlloc) / (1 << 20),
		NumGC:      mem.NumGC,
	}

	logger.Component("profiler").Info("frame stats",
		"fps", stats.FPS,
		"tps", stats.TPS,
		"avg_frame", stats.AvgFrame,
		"worst_frame", stats.WorstFrame,
		"skipped", stats.Skipped,
		"heap_mb", stats.HeapMB,
		"gc", stats.NumGC,
	)

	p.start = t
	p.frames = 0
	p.skipped = 0
	p.worstFrame = 0
	return stats, true
}
