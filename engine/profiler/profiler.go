// Package profiler reports frame rate, flock step time and heap usage to the log and to
// Prometheus.
package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Stats summarises one reporting interval.
type Stats struct {
	FPS         float64
	AdvanceMean time.Duration
	AdvanceMax  time.Duration
	HeapBytes   uint64
	GCCycles    uint32
}

// Profiler aggregates per-frame measurements and reports them once per interval. It is driven by
// the frame loop and is not safe for concurrent use.
type Profiler struct {
	logger   *zap.Logger
	interval time.Duration
	now      func() time.Time

	start      time.Time
	frames     int
	advances   int
	advanceSum time.Duration
	advanceMax time.Duration
}

// NewProfiler creates a profiler reporting once a second.
//
// Parameters:
//   - options: WithLogger, WithInterval
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:   zap.NewNop(),
		interval: time.Second,
		now:      time.Now,
	}
	for _, option := range options {
		option(p)
	}
	p.start = p.now()
	return p
}

// ObserveAdvance records the duration of one flock step.
func (p *Profiler) ObserveAdvance(d time.Duration) {
	advanceDuration.Observe(d.Seconds())
	p.advances++
	p.advanceSum += d
	p.advanceMax = max(p.advanceMax, d)
}

// Tick counts a frame. Once the interval has elapsed it publishes and logs the interval's stats
// and starts a new interval.
//
// Returns:
//   - Stats: the interval's stats, zero when nothing was reported
//   - bool: true if stats were reported
func (p *Profiler) Tick() (Stats, bool) {
	p.frames++
	now := p.now()
	elapsed := now.Sub(p.start)
	if elapsed < p.interval {
		return Stats{}, false
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	stats := Stats{
		FPS:        float64(p.frames) / elapsed.Seconds(),
		AdvanceMax: p.advanceMax,
		HeapBytes:  mem.HeapAlloc,
		GCCycles:   mem.NumGC,
	}
	if p.advances > 0 {
		stats.AdvanceMean = p.advanceSum / time.Duration(p.advances)
	}

	framesPerSecond.Set(stats.FPS)
	heapBytes.Set(float64(stats.HeapBytes))
	gcCycles.Set(float64(stats.GCCycles))

	p.logger.Info("frame stats",
		zap.Float64("fps", stats.FPS),
		zap.Duration("advance_mean", stats.AdvanceMean),
		zap.Duration("advance_max", stats.AdvanceMax),
		zap.Float64("heap_mb", float64(stats.HeapBytes)/(1<<20)),
		zap.Uint32("gc_cycles", stats.GCCycles))

	p.start = now
	p.frames, p.advances = 0, 0
	p.advanceSum, p.advanceMax = 0, 0
	return stats, true
}
