package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfilerTick(t *testing.T) {
	t.Run("no stats before interval elapses", func(t *testing.T) {
		p := NewProfiler()
		p.SetLogStats(false)

		start := time.Unix(0, 0)
		for i := 0; i < 30; i++ {
			refreshed := p.Tick(start.Add(time.Duration(i) * 16 * time.Millisecond))
			assert.False(t, refreshed)
		}
		assert.Zero(t, p.LastFPS())
	})

	t.Run("fps measured over the elapsed window", func(t *testing.T) {
		p := NewProfiler()
		p.SetLogStats(false)

		start := time.Unix(0, 0)
		var refreshed bool
		// 60 frames spread over exactly one second, plus the frame that crosses the boundary.
		for i := 0; i <= 60; i++ {
			refreshed = p.Tick(start.Add(time.Duration(i) * time.Second / 60))
		}
		require.True(t, refreshed)
		assert.InDelta(t, 61.0, p.LastFPS(), 1.5)
	})

	t.Run("window resets after each refresh", func(t *testing.T) {
		p := NewProfiler()
		p.SetLogStats(false)

		start := time.Unix(0, 0)
		p.Tick(start)
		require.True(t, p.Tick(start.Add(time.Second)))
		firstFPS := p.LastFPS()

		// A slower second window should produce a lower measurement.
		require.True(t, p.Tick(start.Add(3*time.Second)))
		assert.Less(t, p.LastFPS(), firstFPS)
	})

	t.Run("fps callback fires on each refresh", func(t *testing.T) {
		p := NewProfiler()
		p.SetLogStats(false)

		var reported []float64
		p.SetFPSCallback(func(fps float64) {
			reported = append(reported, fps)
		})

		start := time.Unix(0, 0)
		p.Tick(start)
		p.Tick(start.Add(500 * time.Millisecond))
		assert.Empty(t, reported)

		p.Tick(start.Add(time.Second))
		require.Len(t, reported, 1)
		assert.Equal(t, p.LastFPS(), reported[0])
	})

	t.Run("reset discards the in-progress window", func(t *testing.T) {
		p := NewProfiler()
		p.SetLogStats(false)

		start := time.Unix(0, 0)
		p.Tick(start)
		p.Tick(start.Add(900 * time.Millisecond))
		p.Reset()

		// The next tick starts a fresh window rather than crossing the old one.
		refreshed := p.Tick(start.Add(time.Second))
		assert.False(t, refreshed)
		assert.Zero(t, p.LastFPS())
	})
}
