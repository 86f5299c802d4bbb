package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBindGroupProviderDefaults(t *testing.T) {
	p := NewBindGroupProvider("test-provider")

	assert.Equal(t, "test-provider", p.Label())
	assert.Nil(t, p.BindGroup())
	assert.Nil(t, p.BindGroupLayout())
	assert.Empty(t, p.Buffers())
	assert.False(t, p.SharedBuffers())
	assert.Equal(t, 1, p.InstanceCount())
	assert.Zero(t, p.IndexCount())
}

func TestBufferBookkeeping(t *testing.T) {
	buf0 := &wgpu.Buffer{}
	buf1 := &wgpu.Buffer{}
	p := NewBindGroupProvider("buffers",
		WithBuffer(0, buf0),
	)
	p.SetBuffer(2, buf1)

	assert.Same(t, buf0, p.Buffer(0))
	assert.Same(t, buf1, p.Buffer(2))
	assert.Nil(t, p.Buffer(1))
	require.Len(t, p.Buffers(), 2)

	replacement := map[int]*wgpu.Buffer{5: buf0}
	p.SetBuffers(replacement)
	assert.Same(t, buf0, p.Buffer(5))
	assert.Nil(t, p.Buffer(0))
}

func TestWithBuffersCopiesEntries(t *testing.T) {
	buf := &wgpu.Buffer{}
	p := NewBindGroupProvider("multi", WithBuffers(map[int]*wgpu.Buffer{
		0: buf,
		3: buf,
	}))
	assert.Same(t, buf, p.Buffer(0))
	assert.Same(t, buf, p.Buffer(3))
}

func TestInstanceAndIndexCounts(t *testing.T) {
	p := NewBindGroupProvider("counts", WithInstanceCount(4096))
	assert.Equal(t, 4096, p.InstanceCount())

	p.SetInstanceCount(64)
	assert.Equal(t, 64, p.InstanceCount())

	p.SetIndexCount(6)
	assert.Equal(t, 6, p.IndexCount())
}

func TestSharedBuffersReleaseDetachesWithoutFreeing(t *testing.T) {
	// Shared buffers are owned by the session, not the provider. Release must
	// drop the references without calling into the GPU, so an unreleased dummy
	// buffer is safe here.
	buf := &wgpu.Buffer{}
	p := NewBindGroupProvider("shared",
		WithSharedBuffers(),
		WithBuffer(0, buf),
		WithBuffer(1, buf),
	)
	require.True(t, p.SharedBuffers())

	p.Release()
	assert.Empty(t, p.Buffers())
}

func TestReleaseEmptyProviderIsSafe(t *testing.T) {
	p := NewBindGroupProvider("empty")
	assert.NotPanics(t, func() { p.Release() })
}
