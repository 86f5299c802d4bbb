package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridStartsDead(t *testing.T) {
	g := NewGrid(8)
	require.Equal(t, 8, g.Size())
	require.Equal(t, 64, g.CellCount())
	for _, c := range g.Cells() {
		assert.Equal(t, uint32(0), c)
	}
}

func TestNewGridPanicsOnInvalidSize(t *testing.T) {
	assert.Panics(t, func() { NewGrid(0) })
	assert.Panics(t, func() { NewGrid(-4) })
}

func TestSetAndAtWrapToroidally(t *testing.T) {
	g := NewGrid(4)
	g.Set(0, 0, 1)

	assert.Equal(t, uint32(1), g.At(0, 0))
	assert.Equal(t, uint32(1), g.At(4, 4))
	assert.Equal(t, uint32(1), g.At(-4, -4))
	assert.Equal(t, uint32(0), g.At(1, 0))

	g.Set(-1, -1, 7)
	assert.Equal(t, uint32(1), g.At(3, 3), "nonzero states normalize to 1")
}

func TestBlinkerOscillates(t *testing.T) {
	g := NewGrid(5)
	// Horizontal blinker centered at (2, 2).
	g.Set(1, 2, 1)
	g.Set(2, 2, 1)
	g.Set(3, 2, 1)

	g.Step()

	// One generation later it is vertical.
	assert.Equal(t, uint32(1), g.At(2, 1))
	assert.Equal(t, uint32(1), g.At(2, 2))
	assert.Equal(t, uint32(1), g.At(2, 3))
	assert.Equal(t, uint32(0), g.At(1, 2))
	assert.Equal(t, uint32(0), g.At(3, 2))

	g.Step()

	// And horizontal again.
	assert.Equal(t, uint32(1), g.At(1, 2))
	assert.Equal(t, uint32(1), g.At(2, 2))
	assert.Equal(t, uint32(1), g.At(3, 2))
	assert.Equal(t, uint32(0), g.At(2, 1))
	assert.Equal(t, uint32(0), g.At(2, 3))
}

func TestBlockIsStill(t *testing.T) {
	g := NewGrid(4)
	g.Set(1, 1, 1)
	g.Set(2, 1, 1)
	g.Set(1, 2, 1)
	g.Set(2, 2, 1)

	before := append([]uint32(nil), g.Cells()...)
	g.Step()
	assert.Equal(t, before, g.Cells())
}

func TestStepWrapsAcrossEdges(t *testing.T) {
	g := NewGrid(5)
	// Blinker straddling the horizontal seam: cells in row 0 at columns 4, 0, 1.
	g.Set(4, 0, 1)
	g.Set(0, 0, 1)
	g.Set(1, 0, 1)

	g.Step()

	// It flips to vertical around column 0, wrapping to the bottom row.
	assert.Equal(t, uint32(1), g.At(0, 4))
	assert.Equal(t, uint32(1), g.At(0, 0))
	assert.Equal(t, uint32(1), g.At(0, 1))
	assert.Equal(t, uint32(0), g.At(4, 0))
	assert.Equal(t, uint32(0), g.At(1, 0))
}

func TestRandomizeIsDeterministicPerSeed(t *testing.T) {
	a := NewGrid(32)
	b := NewGrid(32)
	a.Randomize(42)
	b.Randomize(42)
	assert.Equal(t, a.Cells(), b.Cells())

	c := NewGrid(32)
	c.Randomize(43)
	assert.NotEqual(t, a.Cells(), c.Cells())
}

func TestRandomizeRespectsFillProbability(t *testing.T) {
	g := NewGrid(128, WithFillProbability(0.4))
	g.Randomize(7)

	alive := 0
	for _, c := range g.Cells() {
		if c == 1 {
			alive++
		}
	}
	ratio := float64(alive) / float64(g.CellCount())
	assert.InDelta(t, 0.4, ratio, 0.05)
}

func TestRandomizeExtremeProbabilities(t *testing.T) {
	empty := NewGrid(16, WithFillProbability(0))
	empty.Randomize(1)
	for _, c := range empty.Cells() {
		require.Equal(t, uint32(0), c)
	}

	full := NewGrid(16, WithFillProbability(1))
	full.Randomize(1)
	for _, c := range full.Cells() {
		require.Equal(t, uint32(1), c)
	}
}

func TestFillProbabilityClamped(t *testing.T) {
	g := NewGrid(16, WithFillProbability(2.5))
	g.Randomize(9)
	for _, c := range g.Cells() {
		require.Equal(t, uint32(1), c)
	}
}
