package session

// SessionOption is a functional option used to configure a session during
// construction.
type SessionOption func(*session)

// WithComputePipelineKey overrides the cache key used to look up the
// simulation compute pipeline.
//
// Parameters:
//   - key: the pipeline cache key
//
// Returns:
//   - SessionOption: a function that sets the compute pipeline key
func WithComputePipelineKey(key string) SessionOption {
	return func(s *session) {
		if key != "" {
			s.computeKey = key
		}
	}
}

// WithRenderPipelineKey overrides the cache key used to look up the cell
// render pipeline.
//
// Parameters:
//   - key: the pipeline cache key
//
// Returns:
//   - SessionOption: a function that sets the render pipeline key
func WithRenderPipelineKey(key string) SessionOption {
	return func(s *session) {
		if key != "" {
			s.renderKey = key
		}
	}
}

// WithFillProbability sets the chance that a cell starts alive when the
// session is seeded.
//
// Parameters:
//   - p: the fill probability, clamped to [0, 1] by the grid
//
// Returns:
//   - SessionOption: a function that sets the fill probability
func WithFillProbability(p float64) SessionOption {
	return func(s *session) {
		s.fillProbability = p
	}
}

// WithSeedFunc overrides the seed source used on each Reseed. The default
// derives a seed from the wall clock; tests can inject a fixed seed for
// reproducible grids.
//
// Parameters:
//   - seedFunc: a function returning the seed for the next reseed
//
// Returns:
//   - SessionOption: a function that sets the seed source
func WithSeedFunc(seedFunc func() int64) SessionOption {
	return func(s *session) {
		if seedFunc != nil {
			s.seedFunc = seedFunc
		}
	}
}
