package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 5, Coalesce(0, 0, 5, 7))
	assert.Equal(t, "a", Coalesce("", "a"))
	assert.Zero(t, Coalesce(0, 0))
	assert.Zero(t, Coalesce[int]())
}

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]uint32(nil)))
	assert.Nil(t, SliceToBytes([]uint32{}))

	data := []uint32{1, 0, 1}
	b := SliceToBytes(data)
	require.Len(t, b, 12)

	// Little-endian view shares memory with the source slice.
	assert.Equal(t, byte(1), b[0])
	assert.Equal(t, byte(0), b[4])
	assert.Equal(t, byte(1), b[8])

	data[1] = 2
	assert.Equal(t, byte(2), b[4])
}

func TestSliceToBytesFloat32(t *testing.T) {
	b := SliceToBytes([]float32{1.0, 2.0})
	require.Len(t, b, 8)
	// IEEE 754: 1.0f = 0x3F800000
	assert.Equal(t, byte(0x3F), b[3])
}
