package engine

import "time"

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithGridSize sets the initial grid dimension. Values are clamped to the
// engine's grid size bounds.
//
// Parameters:
//   - size: the initial grid dimension
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithGridSize(size int) EngineBuilderOption {
	return func(e *engine) {
		e.gridSize = min(max(size, MinGridSize), MaxGridSize)
	}
}

// WithInterval sets the initial simulation advance interval. Values are
// clamped to the engine's interval bounds.
//
// Parameters:
//   - interval: the initial advance interval
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithInterval(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.interval = clampInterval(interval)
	}
}
