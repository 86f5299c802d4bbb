// Package sim holds the CPU-side state of a toroidal cellular automaton grid:
// seeding, the reference update rule, and conversion to GPU-uploadable bytes.
package sim

import (
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// DefaultFillProbability is the chance that a cell starts alive when a grid is randomized.
const DefaultFillProbability = 0.4

// seedStripRows is the fixed strip height for parallel seeding. Keeping it
// constant (rather than derived from worker count) makes the fill identical
// for a given seed on any machine.
const seedStripRows = 16

// seedPool manages a bounded set of reusable goroutines for parallel grid seeding.
// Initialized lazily on the first Randomize call and reused for every grid after that.
var (
	seedPool     worker.DynamicWorkerPool
	seedPoolOnce sync.Once
)

func getSeedPool() worker.DynamicWorkerPool {
	seedPoolOnce.Do(func() {
		workers := max(runtime.NumCPU()-1, 1)
		seedPool = worker.NewDynamicWorkerPool(workers, 256, 1*time.Second)
	})
	return seedPool
}

// grid is the implementation of the Grid interface.
type grid struct {
	size            int
	cells           []uint32
	fillProbability float64
}

// Grid represents a square toroidal cell grid. Cells are stored row-major as uint32
// values (0 dead, 1 alive) so the backing slice can be uploaded to a GPU storage
// buffer without conversion.
type Grid interface {
	// Size returns the grid dimension N (the grid is N x N cells).
	//
	// Returns:
	//   - int: the grid dimension
	Size() int

	// CellCount returns the total number of cells (Size squared).
	//
	// Returns:
	//   - int: the total cell count
	CellCount() int

	// Cells returns the backing cell slice in row-major order.
	// The slice is live; mutations are visible to the Grid.
	//
	// Returns:
	//   - []uint32: the cell states, 0 dead or 1 alive
	Cells() []uint32

	// At returns the state of the cell at column x, row y.
	// Coordinates wrap toroidally, so negative and out-of-range values are valid.
	//
	// Parameters:
	//   - x: the column
	//   - y: the row
	//
	// Returns:
	//   - uint32: 0 if the cell is dead, 1 if alive
	At(x, y int) uint32

	// Set assigns the state of the cell at column x, row y.
	// Coordinates wrap toroidally.
	//
	// Parameters:
	//   - x: the column
	//   - y: the row
	//   - state: 0 for dead, nonzero for alive
	Set(x, y int, state uint32)

	// Randomize fills the grid with random cell states using the configured fill
	// probability. Rows are seeded in parallel strips; each strip derives its own
	// RNG from the base seed, so the result is deterministic for a given seed and
	// grid size regardless of worker scheduling.
	//
	// Parameters:
	//   - seed: the base seed for the random fill
	Randomize(seed int64)

	// Step advances the grid by one generation of the standard B3/S23 rule on the
	// CPU. Each live cell survives with 2 or 3 live neighbors; each dead cell
	// becomes alive with exactly 3 live neighbors. Neighborhoods wrap toroidally.
	Step()
}

var _ Grid = &grid{}

// NewGrid creates a new Grid with the given dimension. All cells start dead.
//
// Parameters:
//   - size: the grid dimension N (must be positive; the grid is N x N)
//   - options: functional options to configure the grid
//
// Returns:
//   - Grid: the newly created grid
func NewGrid(size int, options ...GridOption) Grid {
	if size <= 0 {
		panic("sim: grid size must be positive")
	}
	g := &grid{
		size:            size,
		cells:           make([]uint32, size*size),
		fillProbability: DefaultFillProbability,
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// GridOption is a functional option used to configure a Grid during construction.
type GridOption func(*grid)

// WithFillProbability sets the chance that a cell starts alive when the grid is
// randomized. Values are clamped to [0, 1].
//
// Parameters:
//   - p: the fill probability
//
// Returns:
//   - GridOption: a function that sets the fill probability for the grid
func WithFillProbability(p float64) GridOption {
	return func(g *grid) {
		g.fillProbability = min(max(p, 0), 1)
	}
}

func (g *grid) Size() int {
	return g.size
}

func (g *grid) CellCount() int {
	return g.size * g.size
}

func (g *grid) Cells() []uint32 {
	return g.cells
}

func (g *grid) At(x, y int) uint32 {
	return g.cells[g.index(x, y)]
}

func (g *grid) Set(x, y int, state uint32) {
	if state != 0 {
		state = 1
	}
	g.cells[g.index(x, y)] = state
}

// index maps wrapped coordinates to a row-major slice offset.
func (g *grid) index(x, y int) int {
	x = ((x % g.size) + g.size) % g.size
	y = ((y % g.size) + g.size) % g.size
	return y*g.size + x
}

func (g *grid) Randomize(seed int64) {
	strips := (g.size + seedStripRows - 1) / seedStripRows
	if strips == 1 {
		g.fillStrip(seed, 0, g.size)
		return
	}

	pool := getSeedPool()

	// A WaitGroup provides barrier sync since pool.Wait() blocks until workers
	// idle-exit, which is unsuitable for call-and-return workloads.
	var wg sync.WaitGroup
	for i := range strips {
		start := i * seedStripRows
		end := min(start+seedStripRows, g.size)

		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				g.fillStrip(seed, start, end)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// fillStrip fills rows [start, end) with a strip-local RNG derived from the
// base seed and the strip's start row, so the result is independent of which
// worker runs which strip.
func (g *grid) fillStrip(seed int64, start, end int) {
	rng := rand.New(rand.NewSource(seed + int64(start)))
	for y := start; y < end; y++ {
		row := g.cells[y*g.size : (y+1)*g.size]
		for x := range row {
			if rng.Float64() < g.fillProbability {
				row[x] = 1
			} else {
				row[x] = 0
			}
		}
	}
}

func (g *grid) Step() {
	next := make([]uint32, len(g.cells))
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			neighbors := g.liveNeighbors(x, y)
			idx := y*g.size + x
			switch {
			case neighbors == 3:
				next[idx] = 1
			case neighbors == 2:
				next[idx] = g.cells[idx]
			default:
				next[idx] = 0
			}
		}
	}
	g.cells = next
}

// liveNeighbors counts the live cells in the 8-cell toroidal neighborhood of (x, y).
func (g *grid) liveNeighbors(x, y int) int {
	count := 0
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			count += int(g.At(x+dx, y+dy))
		}
	}
	return count
}
