package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the log at a configurable interval. Timestamps are injected
// by the caller so the profiler can be driven deterministically in tests.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	lastFPS        float64
	logStats       bool
	onFPS          func(fps float64)
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second and stat logging is enabled.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		frameCount:     0,
		updateInterval: time.Second,
		memStats:       runtime.MemStats{},
		logStats:       true,
	}
}

// SetLogStats enables or disables logging of performance statistics.
// FPS tracking continues either way; only the log output is suppressed.
//
// Parameters:
//   - enabled: true to log stats when the update interval elapses
func (p *Profiler) SetLogStats(enabled bool) {
	p.logStats = enabled
}

// SetFPSCallback registers a function invoked with the fresh FPS measurement
// each time the update interval elapses. Pass nil to clear.
//
// Parameters:
//   - callback: function receiving the measured FPS
func (p *Profiler) SetFPSCallback(callback func(fps float64)) {
	p.onFPS = callback
}

// LastFPS returns the frames-per-second measured over the most recently
// completed update interval. Returns 0 before the first interval elapses.
//
// Returns:
//   - float64: the most recent FPS measurement
func (p *Profiler) LastFPS() float64 {
	return p.lastFPS
}

// Reset discards the in-progress measurement window. Call after a pause or a
// scene change so stale frame counts do not skew the next FPS reading.
func (p *Profiler) Reset() {
	p.frameCount = 0
	p.lastTime = time.Time{}
}

// Tick should be called once per frame with the frame's timestamp.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Parameters:
//   - now: the timestamp of the current frame
//
// Returns:
//   - bool: true if the update interval elapsed and stats were refreshed this tick
func (p *Profiler) Tick(now time.Time) bool {
	if p.lastTime.IsZero() {
		p.lastTime = now
	}

	p.frameCount++
	elapsed := now.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	p.lastFPS = float64(p.frameCount) / elapsed.Seconds()
	if p.onFPS != nil {
		p.onFPS(p.lastFPS)
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: Bytes of allocated heap objects (live memory)
	// TotalAlloc: Cumulative bytes allocated for heap objects (increases forever, tracks churn)
	// Sys: Total bytes of memory obtained from the OS (actual process footprint)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	// Calculate allocation rate (MB/sec)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	// Calculate GC pause stats (last pause and max recent pause)
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		// Find max pause since last tick
		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	if p.logStats {
		log.Printf("[Profiler] FPS: %.2f | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
			p.lastFPS, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)
	}

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
