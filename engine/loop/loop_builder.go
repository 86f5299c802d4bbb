package loop

import (
	"time"

	"github.com/Carmen-Shannon/lifegrid/engine/profiler"
)

// FrameLoopOption is a functional option used to configure a FrameLoop during
// construction.
type FrameLoopOption func(*frameLoop)

// WithGridSize sets the initial grid dimension used when Start creates the
// first session. Non-positive values are ignored.
//
// Parameters:
//   - gridSize: the initial grid dimension
//
// Returns:
//   - FrameLoopOption: a function that sets the initial grid size
func WithGridSize(gridSize int) FrameLoopOption {
	return func(l *frameLoop) {
		if gridSize > 0 {
			l.gridSize = gridSize
		}
	}
}

// WithInterval sets the simulation advance interval. Values below MinInterval
// are clamped.
//
// Parameters:
//   - interval: the advance interval
//
// Returns:
//   - FrameLoopOption: a function that sets the advance interval
func WithInterval(interval time.Duration) FrameLoopOption {
	return func(l *frameLoop) {
		l.interval = max(interval, MinInterval)
	}
}

// WithProfiler attaches a profiler that is ticked once per frame.
//
// Parameters:
//   - p: the profiler to drive
//
// Returns:
//   - FrameLoopOption: a function that attaches the profiler
func WithProfiler(p *profiler.Profiler) FrameLoopOption {
	return func(l *frameLoop) {
		l.profiler = p
	}
}
