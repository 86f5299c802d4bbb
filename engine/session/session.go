// Package session owns the GPU resources for one grid size: the ping-pong cell
// state buffers, the uniform buffers, the quad mesh, and the bind groups wiring
// them to the registered compute and render pipelines.
package session

import (
	"fmt"
	"time"

	"github.com/Carmen-Shannon/lifegrid/common"
	"github.com/Carmen-Shannon/lifegrid/engine/loop"
	"github.com/Carmen-Shannon/lifegrid/engine/renderer"
	"github.com/Carmen-Shannon/lifegrid/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/lifegrid/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lifegrid/engine/renderer/shader"
	"github.com/Carmen-Shannon/lifegrid/sim"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// ComputePipelineKey is the default cache key for the simulation compute pipeline.
	ComputePipelineKey = "life-compute"
	// RenderPipelineKey is the default cache key for the cell render pipeline.
	RenderPipelineKey = "cell-render"
)

// Bind group binding indices shared by the compute and render layouts.
const (
	bindingGrid  = 0
	bindingCells = 1
	bindingNext  = 2
	bindingTime  = 2
)

// quadVertices is a unit cell quad, slightly inset so neighboring cells read as
// distinct squares. Two floats per vertex, matching the vertex shader's
// @location(0) vec2f input.
var quadVertices = []float32{
	-0.8, -0.8,
	0.8, -0.8,
	0.8, 0.8,
	-0.8, 0.8,
}

var quadIndices = []uint32{0, 1, 2, 0, 2, 3}

// session is the implementation of the loop.Session interface.
type session struct {
	rend     renderer.Renderer
	grid     sim.Grid
	gridSize int

	computeKey string
	renderKey  string

	fillProbability float64
	seedFunc        func() int64

	workGroupCount [3]uint32

	cells      [2]*wgpu.Buffer
	gridBuffer *wgpu.Buffer
	timeBuffer *wgpu.Buffer

	// computeProviders[d] reads generation state from cells[d] and writes the
	// next generation to cells[1-d]. renderProviders[d] reads cells[d].
	computeProviders [2]bind_group_provider.BindGroupProvider
	renderProviders  [2]bind_group_provider.BindGroupProvider
	meshProvider     bind_group_provider.BindGroupProvider
}

var _ loop.Session = &session{}

// NewSession creates the GPU resources for an N x N cell grid: two cell state
// buffers for ping-pong simulation, the grid and time uniforms, the cell quad
// mesh, and one bind group per buffer parity for both the compute and render
// pipelines. The pipelines must already be registered on the renderer.
//
// Parameters:
//   - rend: the renderer whose registered pipelines the session binds against
//   - gridSize: the grid dimension N (must be positive)
//   - options: functional options to configure the session
//
// Returns:
//   - loop.Session: the newly created session
//   - error: an error if a pipeline is missing or buffer creation fails
func NewSession(rend renderer.Renderer, gridSize int, options ...SessionOption) (loop.Session, error) {
	if gridSize <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %d", gridSize)
	}

	s := &session{
		rend:            rend,
		gridSize:        gridSize,
		computeKey:      ComputePipelineKey,
		renderKey:       RenderPipelineKey,
		fillProbability: sim.DefaultFillProbability,
		seedFunc:        func() int64 { return time.Now().UnixNano() },
	}
	for _, opt := range options {
		opt(s)
	}

	s.grid = sim.NewGrid(gridSize, sim.WithFillProbability(s.fillProbability))

	computePipeline := rend.Pipeline(s.computeKey)
	if computePipeline == nil {
		return nil, fmt.Errorf("compute pipeline %q not registered", s.computeKey)
	}
	renderPipeline := rend.Pipeline(s.renderKey)
	if renderPipeline == nil {
		return nil, fmt.Errorf("render pipeline %q not registered", s.renderKey)
	}

	computeShader := computePipeline.Shader(shader.ShaderTypeCompute)
	wg := computeShader.WorkgroupSize()
	s.workGroupCount = [3]uint32{
		ceilDiv(uint32(gridSize), wg[0]),
		ceilDiv(uint32(gridSize), wg[1]),
		1,
	}

	if err := s.initBuffers(); err != nil {
		s.Release()
		return nil, err
	}
	if err := s.initBindGroups(computeShader, renderPipeline); err != nil {
		s.Release()
		return nil, err
	}
	if err := s.initMesh(); err != nil {
		s.Release()
		return nil, err
	}

	// The grid dimensions never change for the life of the session.
	dims := []float32{float32(gridSize), float32(gridSize)}
	s.rend.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: s.computeProviders[0],
		Binding:  bindingGrid,
		Data:     common.SliceToBytes(dims),
	}})

	return s, nil
}

// initBuffers creates the buffers shared across the session's bind groups.
func (s *session) initBuffers() error {
	cellBytes := uint64(s.gridSize) * uint64(s.gridSize) * 4

	for i := range s.cells {
		buf, err := s.rend.CreateBuffer(
			fmt.Sprintf("cell-state-%d", i),
			cellBytes,
			wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst,
		)
		if err != nil {
			return fmt.Errorf("failed to create cell state buffer %d: %w", i, err)
		}
		s.cells[i] = buf
	}

	gridBuf, err := s.rend.CreateBuffer("grid-dimensions", 8, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("failed to create grid uniform buffer: %w", err)
	}
	s.gridBuffer = gridBuf

	timeBuf, err := s.rend.CreateBuffer("elapsed-time", 4, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	if err != nil {
		return fmt.Errorf("failed to create time uniform buffer: %w", err)
	}
	s.timeBuffer = timeBuf
	return nil
}

// initBindGroups builds one compute and one render bind group per buffer parity.
// All buffers are created up front and marked shared so provider release does
// not free them out from under the sibling parity's bind group.
func (s *session) initBindGroups(computeShader shader.Shader, renderPipeline pipeline.Pipeline) error {
	computeDesc := computeShader.BindGroupLayoutDescriptor(0)

	vertexShader := renderPipeline.Shader(shader.ShaderTypeVertex)
	fragmentShader := renderPipeline.Shader(shader.ShaderTypeFragment)
	renderDesc := renderer.MergeBindGroupLayouts(
		vertexShader.BindGroupLayoutDescriptors(),
		fragmentShader.BindGroupLayoutDescriptors(),
	)[0]

	for d := range 2 {
		compute := bind_group_provider.NewBindGroupProvider(
			fmt.Sprintf("life-compute-%d", d),
			bind_group_provider.WithSharedBuffers(),
			bind_group_provider.WithBuffer(bindingGrid, s.gridBuffer),
			bind_group_provider.WithBuffer(bindingCells, s.cells[d]),
			bind_group_provider.WithBuffer(bindingNext, s.cells[1-d]),
		)
		if err := s.rend.InitBindGroup(compute, computeDesc, nil, nil); err != nil {
			return fmt.Errorf("failed to create compute bind group %d: %w", d, err)
		}
		s.computeProviders[d] = compute

		render := bind_group_provider.NewBindGroupProvider(
			fmt.Sprintf("cell-render-%d", d),
			bind_group_provider.WithSharedBuffers(),
			bind_group_provider.WithBuffer(bindingGrid, s.gridBuffer),
			bind_group_provider.WithBuffer(bindingCells, s.cells[d]),
			bind_group_provider.WithBuffer(bindingTime, s.timeBuffer),
		)
		if err := s.rend.InitBindGroup(render, renderDesc, nil, nil); err != nil {
			return fmt.Errorf("failed to create render bind group %d: %w", d, err)
		}
		s.renderProviders[d] = render
	}
	return nil
}

// initMesh uploads the instanced cell quad.
func (s *session) initMesh() error {
	mesh := bind_group_provider.NewBindGroupProvider(
		"cell-quad",
		bind_group_provider.WithInstanceCount(s.gridSize*s.gridSize),
	)
	if err := s.rend.InitMeshBuffers(
		mesh,
		common.SliceToBytes(quadVertices),
		common.SliceToBytes(quadIndices),
		len(quadIndices),
	); err != nil {
		return fmt.Errorf("failed to create cell quad mesh: %w", err)
	}
	s.meshProvider = mesh
	return nil
}

func (s *session) GridSize() int {
	return s.gridSize
}

func (s *session) BeginTick() error {
	return s.rend.BeginTick()
}

func (s *session) Advance(direction int) {
	s.rend.DispatchCompute(s.computeKey, s.computeProviders[direction&1], s.workGroupCount)
}

func (s *session) Draw(direction int, elapsedSeconds float32) {
	s.rend.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: s.renderProviders[direction&1],
		Binding:  bindingTime,
		Data:     common.SliceToBytes([]float32{elapsedSeconds}),
	}})

	// DrawCall only fails when the pipeline key is missing from the cache, which
	// NewSession already validated.
	_ = s.rend.DrawCall(
		s.renderKey,
		s.meshProvider,
		uint32(s.gridSize*s.gridSize),
		[]bind_group_provider.BindGroupProvider{s.renderProviders[direction&1]},
	)
}

func (s *session) EndTick() {
	s.rend.EndTick()
}

func (s *session) Present() {
	s.rend.Present()
}

func (s *session) Reseed() error {
	s.grid.Randomize(s.seedFunc())

	// Both parities start from the same generation so the first advance reads
	// valid state regardless of direction.
	data := common.SliceToBytes(s.grid.Cells())
	s.rend.WriteBuffers([]bind_group_provider.BufferWrite{
		{Provider: s.computeProviders[0], Binding: bindingCells, Data: data},
		{Provider: s.computeProviders[0], Binding: bindingNext, Data: data},
	})
	return nil
}

func (s *session) Release() {
	for d := range 2 {
		if s.computeProviders[d] != nil {
			s.computeProviders[d].Release()
			s.computeProviders[d] = nil
		}
		if s.renderProviders[d] != nil {
			s.renderProviders[d].Release()
			s.renderProviders[d] = nil
		}
	}
	if s.meshProvider != nil {
		s.meshProvider.Release()
		s.meshProvider = nil
	}
	for i, buf := range s.cells {
		if buf != nil {
			buf.Release()
			s.cells[i] = nil
		}
	}
	if s.gridBuffer != nil {
		s.gridBuffer.Release()
		s.gridBuffer = nil
	}
	if s.timeBuffer != nil {
		s.timeBuffer.Release()
		s.timeBuffer = nil
	}
}

// ceilDiv divides a by b rounding up. b of zero is treated as one.
func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		b = 1
	}
	return (a + b - 1) / b
}
