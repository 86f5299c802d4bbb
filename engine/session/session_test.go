package session

import (
	"testing"

	"github.com/Carmen-Shannon/lifegrid/engine/renderer"
	"github.com/Carmen-Shannon/lifegrid/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lifegrid/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lifegrid/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testComputeSource = `
@group(0) @binding(0) var<uniform> grid: vec2f;
@group(0) @binding(1) var<storage> cellStateIn: array<u32>;
@group(0) @binding(2) var<storage, read_write> cellStateOut: array<u32>;

@compute @workgroup_size(8, 8)
fn computeMain(@builtin(global_invocation_id) cell: vec3u) {
    cellStateOut[0] = cellStateIn[0];
}
`

const testVertexSource = `
struct VertexInput {
    @location(0) pos: vec2f,
};

@group(0) @binding(0) var<uniform> grid: vec2f;
@group(0) @binding(1) var<storage> cellState: array<u32>;

@vertex
fn vertexMain(input: VertexInput) -> @builtin(position) vec4f {
    return vec4f(input.pos, 0.0, 1.0);
}
`

const testFragmentSource = `
@group(0) @binding(0) var<uniform> grid: vec2f;
@group(0) @binding(2) var<uniform> time: f32;

@fragment
fn fragmentMain() -> @location(0) vec4f {
    return vec4f(time, grid.x, 0.0, 1.0);
}
`

type createdBuffer struct {
	label  string
	size   uint64
	usage  wgpu.BufferUsage
	buffer *wgpu.Buffer
}

type recordedWrite struct {
	provider bind_group_provider.BindGroupProvider
	binding  int
	data     []byte
}

type recordedDispatch struct {
	key            string
	provider       bind_group_provider.BindGroupProvider
	workGroupCount [3]uint32
}

type recordedDraw struct {
	key           string
	mesh          bind_group_provider.BindGroupProvider
	instanceCount uint32
	bindGroups    []bind_group_provider.BindGroupProvider
}

// fakeRenderer satisfies enough of the Renderer interface to observe the GPU
// calls a session makes without a device.
type fakeRenderer struct {
	pipelines map[string]pipeline.Pipeline

	created    []createdBuffer
	bindGroups []bind_group_provider.BindGroupProvider
	meshes     []bind_group_provider.BindGroupProvider
	writes     []recordedWrite
	dispatches []recordedDispatch
	draws      []recordedDraw

	beginTicks, endTicks, presents int
}

var _ renderer.Renderer = &fakeRenderer{}

func (f *fakeRenderer) Pipeline(key string) pipeline.Pipeline { return f.pipelines[key] }
func (f *fakeRenderer) Pipelines() map[string]pipeline.Pipeline {
	return f.pipelines
}
func (f *fakeRenderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	for _, p := range pipelines {
		f.pipelines[p.PipelineKey()] = p
	}
	return nil
}
func (f *fakeRenderer) SetPipeline(key string, p pipeline.Pipeline) { f.pipelines[key] = p }
func (f *fakeRenderer) SetPipelines(pipelines map[string]pipeline.Pipeline) {
	f.pipelines = pipelines
}
func (f *fakeRenderer) Resize(width, height int) {}

func (f *fakeRenderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, indexCount int) error {
	provider.SetIndexCount(indexCount)
	f.meshes = append(f.meshes, provider)
	return nil
}

func (f *fakeRenderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	f.bindGroups = append(f.bindGroups, provider)
	return nil
}

func (f *fakeRenderer) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf := &wgpu.Buffer{}
	f.created = append(f.created, createdBuffer{label, size, usage, buf})
	return buf, nil
}

func (f *fakeRenderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	for _, w := range writes {
		data := append([]byte(nil), w.Data...)
		f.writes = append(f.writes, recordedWrite{w.Provider, w.Binding, data})
	}
}

func (f *fakeRenderer) BeginTick() error { f.beginTicks++; return nil }

func (f *fakeRenderer) DispatchCompute(pipelineKey string, computeProvider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) {
	f.dispatches = append(f.dispatches, recordedDispatch{pipelineKey, computeProvider, workGroupCount})
}

func (f *fakeRenderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	f.draws = append(f.draws, recordedDraw{pipelineKey, meshProvider, instanceCount, bindGroups})
	return nil
}

func (f *fakeRenderer) EndTick() { f.endTicks++ }
func (f *fakeRenderer) Present() { f.presents++ }

func (f *fakeRenderer) SetPresentMode(mode renderer.PresentMode) {}

func newFakeRenderer(t *testing.T) *fakeRenderer {
	t.Helper()
	f := &fakeRenderer{pipelines: make(map[string]pipeline.Pipeline)}

	computeShader := shader.NewShader("life_compute", shader.ShaderTypeCompute, testComputeSource)
	vertexShader := shader.NewShader("cell_vert", shader.ShaderTypeVertex, testVertexSource)
	fragmentShader := shader.NewShader("cell_frag", shader.ShaderTypeFragment, testFragmentSource)

	f.pipelines[ComputePipelineKey] = pipeline.NewPipeline(ComputePipelineKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(computeShader))
	f.pipelines[RenderPipelineKey] = pipeline.NewPipeline(RenderPipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vertexShader),
		pipeline.WithFragmentShader(fragmentShader))
	return f
}

func TestNewSessionCreatesBuffers(t *testing.T) {
	f := newFakeRenderer(t)
	_, err := NewSession(f, 64)
	require.NoError(t, err)

	require.Len(t, f.created, 4)
	cells0, cells1 := f.created[0], f.created[1]
	assert.Equal(t, uint64(64*64*4), cells0.size)
	assert.Equal(t, cells0.size, cells1.size)
	assert.NotSame(t, cells0.buffer, cells1.buffer)
	assert.Equal(t, wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst, cells0.usage)

	gridBuf := f.created[2]
	assert.Equal(t, uint64(8), gridBuf.size)
	assert.Equal(t, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst, gridBuf.usage)

	timeBuf := f.created[3]
	assert.Equal(t, uint64(4), timeBuf.size)

	// The grid dimensions are uploaded once at construction.
	require.NotEmpty(t, f.writes)
	assert.Equal(t, 0, f.writes[0].binding)
	assert.Len(t, f.writes[0].data, 8)
}

func TestPingPongProvidersDoNotAlias(t *testing.T) {
	f := newFakeRenderer(t)
	_, err := NewSession(f, 32)
	require.NoError(t, err)

	// Bind groups are created in parity order: compute then render for each d.
	require.Len(t, f.bindGroups, 4)
	compute0, render0 := f.bindGroups[0], f.bindGroups[1]
	compute1, render1 := f.bindGroups[2], f.bindGroups[3]

	cells0 := f.created[0].buffer
	cells1 := f.created[1].buffer
	gridBuf := f.created[2].buffer
	timeBuf := f.created[3].buffer

	// Parity d reads cells[d] and writes cells[1-d]; the two directions never
	// share a source and destination.
	assert.Same(t, cells0, compute0.Buffer(1))
	assert.Same(t, cells1, compute0.Buffer(2))
	assert.Same(t, cells1, compute1.Buffer(1))
	assert.Same(t, cells0, compute1.Buffer(2))
	assert.NotSame(t, compute0.Buffer(1), compute0.Buffer(2))

	// Each render parity reads the buffer its compute parity reads.
	assert.Same(t, cells0, render0.Buffer(1))
	assert.Same(t, cells1, render1.Buffer(1))

	for _, p := range f.bindGroups {
		assert.Same(t, gridBuf, p.Buffer(0))
		assert.True(t, p.SharedBuffers())
	}
	assert.Same(t, timeBuf, render0.Buffer(2))
	assert.Same(t, timeBuf, render1.Buffer(2))
}

func TestAdvanceDispatchesCeilDividedWorkgroups(t *testing.T) {
	f := newFakeRenderer(t)
	s, err := NewSession(f, 100)
	require.NoError(t, err)

	s.Advance(0)
	s.Advance(1)

	require.Len(t, f.dispatches, 2)
	// 100 cells per axis at @workgroup_size(8, 8) needs 13 workgroups per axis.
	assert.Equal(t, [3]uint32{13, 13, 1}, f.dispatches[0].workGroupCount)
	assert.Equal(t, ComputePipelineKey, f.dispatches[0].key)
	assert.NotSame(t, f.dispatches[0].provider, f.dispatches[1].provider)
	assert.Same(t, f.bindGroups[0], f.dispatches[0].provider)
	assert.Same(t, f.bindGroups[2], f.dispatches[1].provider)
}

func TestDrawWritesTimeAndDrawsAllInstances(t *testing.T) {
	f := newFakeRenderer(t)
	s, err := NewSession(f, 16)
	require.NoError(t, err)

	s.Draw(1, 2.5)

	require.Len(t, f.draws, 1)
	draw := f.draws[0]
	assert.Equal(t, RenderPipelineKey, draw.key)
	assert.Equal(t, uint32(16*16), draw.instanceCount)
	require.Len(t, draw.bindGroups, 1)
	assert.Same(t, f.bindGroups[3], draw.bindGroups[0], "parity 1 draws with render provider 1")
	assert.Equal(t, 6, draw.mesh.IndexCount(), "two-triangle quad")

	last := f.writes[len(f.writes)-1]
	assert.Equal(t, bindingTime, last.binding)
	assert.Len(t, last.data, 4)
}

func TestReseedUploadsSameGenerationToBothBuffers(t *testing.T) {
	f := newFakeRenderer(t)
	s, err := NewSession(f, 32, WithSeedFunc(func() int64 { return 1234 }))
	require.NoError(t, err)

	before := len(f.writes)
	require.NoError(t, s.Reseed())

	writes := f.writes[before:]
	require.Len(t, writes, 2)
	assert.Equal(t, bindingCells, writes[0].binding)
	assert.Equal(t, bindingNext, writes[1].binding)
	assert.Len(t, writes[0].data, 32*32*4)
	assert.Equal(t, writes[0].data, writes[1].data, "both parities start from one generation")

	alive := 0
	for i := 0; i < len(writes[0].data); i += 4 {
		if writes[0].data[i] == 1 {
			alive++
		}
	}
	assert.Greater(t, alive, 0, "seeded grid contains live cells")
	assert.Less(t, alive, 32*32)
}

func TestTickLifecycleForwardsToRenderer(t *testing.T) {
	f := newFakeRenderer(t)
	s, err := NewSession(f, 8)
	require.NoError(t, err)

	require.NoError(t, s.BeginTick())
	s.EndTick()
	s.Present()
	assert.Equal(t, 1, f.beginTicks)
	assert.Equal(t, 1, f.endTicks)
	assert.Equal(t, 1, f.presents)
	assert.Equal(t, 8, s.GridSize())
}

func TestNewSessionValidation(t *testing.T) {
	f := newFakeRenderer(t)

	_, err := NewSession(f, 0)
	assert.Error(t, err)

	delete(f.pipelines, ComputePipelineKey)
	_, err = NewSession(f, 16)
	assert.ErrorContains(t, err, "not registered")
}
