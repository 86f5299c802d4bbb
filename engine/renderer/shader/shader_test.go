package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const computeSource = `
@group(0) @binding(0) var<uniform> grid: vec2f;
@group(0) @binding(1) var<storage> cellStateIn: array<u32>;
@group(0) @binding(2) var<storage, read_write> cellStateOut: array<u32>;

fn cellIndex(cell: vec2u) -> u32 {
    return (cell.y % u32(grid.y)) * u32(grid.x) + (cell.x % u32(grid.x));
}

@compute @workgroup_size(8, 8)
fn computeMain(@builtin(global_invocation_id) cell: vec3u) {
    cellStateOut[cellIndex(cell.xy)] = cellStateIn[cellIndex(cell.xy)];
}
`

const vertexSource = `
struct VertexInput {
    @location(0) pos: vec2f,
};

struct VertexOutput {
    @builtin(position) pos: vec4f,
    @location(0) cell: vec2f,
};

@group(0) @binding(0) var<uniform> grid: vec2f;
@group(0) @binding(1) var<storage> cellState: array<u32>;

@vertex
fn vertexMain(input: VertexInput, @builtin(instance_index) instance: u32) -> VertexOutput {
    var output: VertexOutput;
    output.pos = vec4f(input.pos, 0.0, 1.0);
    output.cell = vec2f(0.0, 0.0);
    return output;
}
`

const fragmentSource = `
@group(0) @binding(0) var<uniform> grid: vec2f;
@group(0) @binding(2) var<uniform> time: f32;

@fragment
fn fragmentMain(@location(0) cell: vec2f) -> @location(0) vec4f {
    return vec4f(cell / grid, time, 1.0);
}
`

func TestComputeShaderParsing(t *testing.T) {
	s := NewShader("life", ShaderTypeCompute, computeSource)

	assert.Equal(t, "life", s.Key())
	assert.Equal(t, ShaderTypeCompute, s.ShaderType())
	assert.Equal(t, "computeMain", s.EntryPoint())
	assert.Equal(t, [3]uint32{8, 8, 1}, s.WorkgroupSize())
	require.NotNil(t, s.Module())

	desc := s.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 3)

	uniform := desc.Entries[0]
	assert.Equal(t, uint32(0), uniform.Binding)
	assert.Equal(t, wgpu.ShaderStageCompute, uniform.Visibility)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, uniform.Buffer.Type)
	assert.Equal(t, uint64(8), uniform.Buffer.MinBindingSize, "vec2f uniform is 8 bytes")

	in := desc.Entries[1]
	assert.Equal(t, wgpu.BufferBindingTypeReadOnlyStorage, in.Buffer.Type)
	assert.Equal(t, uint64(4), in.Buffer.MinBindingSize, "runtime array reports element stride")

	out := desc.Entries[2]
	assert.Equal(t, wgpu.BufferBindingTypeStorage, out.Buffer.Type)
}

func TestComputeShaderVarNames(t *testing.T) {
	s := NewShader("life", ShaderTypeCompute, computeSource)

	assert.Equal(t, "grid", s.BindGroupVarName(0, 0))
	assert.Equal(t, "cellStateIn", s.BindGroupVarName(0, 1))
	assert.Equal(t, "cellStateOut", s.BindGroupVarName(0, 2))
	assert.Empty(t, s.BindGroupVarName(1, 0))

	binding, ok := s.BindGroupFromVarName(0, "cellStateOut")
	require.True(t, ok)
	assert.Equal(t, 2, binding)

	_, ok = s.BindGroupFromVarName(0, "missing")
	assert.False(t, ok)
}

func TestVertexShaderParsing(t *testing.T) {
	s := NewShader("cell_vert", ShaderTypeVertex, vertexSource)

	assert.Equal(t, "vertexMain", s.EntryPoint())

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1, "only the builtin-free input struct produces a layout")

	layout := layouts[0]
	require.Len(t, layout, 1)
	assert.Equal(t, uint64(8), layout[0].ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, layout[0].StepMode)
	require.Len(t, layout[0].Attributes, 1)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layout[0].Attributes[0].Format)
	assert.Equal(t, uint32(0), layout[0].Attributes[0].ShaderLocation)

	desc := s.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 2)
	for _, e := range desc.Entries {
		assert.Equal(t, wgpu.ShaderStageVertex, e.Visibility)
	}
}

func TestFragmentShaderParsing(t *testing.T) {
	s := NewShader("cell_frag", ShaderTypeFragment, fragmentSource)

	assert.Equal(t, "fragmentMain", s.EntryPoint())
	assert.Empty(t, s.VertexLayouts(), "fragment shaders carry no vertex layouts")

	desc := s.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 2)
	assert.Equal(t, uint32(0), desc.Entries[0].Binding)
	assert.Equal(t, uint32(2), desc.Entries[1].Binding)
	for _, e := range desc.Entries {
		assert.Equal(t, wgpu.ShaderStageFragment, e.Visibility)
		assert.Equal(t, wgpu.BufferBindingTypeUniform, e.Buffer.Type)
	}
	assert.Equal(t, uint64(4), desc.Entries[1].Buffer.MinBindingSize, "f32 uniform is 4 bytes")
}

func TestStructUniformSizeUsesWGSLAlignment(t *testing.T) {
	source := `
struct Params {
    scale: f32,
    offset: vec2f,
};

@group(0) @binding(0) var<uniform> params: Params;

@compute @workgroup_size(1)
fn main() {}
`
	s := NewShader("params", ShaderTypeCompute, source)
	desc := s.BindGroupLayoutDescriptor(0)
	require.Len(t, desc.Entries, 1)
	// f32 at offset 0, vec2f aligned to 8, struct size rounded to its alignment.
	assert.Equal(t, uint64(16), desc.Entries[0].Buffer.MinBindingSize)
}

func TestWorkgroupSizeDefaultsToOne(t *testing.T) {
	source := `
@compute @workgroup_size(64)
fn main() {}
`
	s := NewShader("wg", ShaderTypeCompute, source)
	assert.Equal(t, [3]uint32{64, 1, 1}, s.WorkgroupSize())
}

func TestCommentedDeclarationsIgnored(t *testing.T) {
	source := `
// @group(0) @binding(7) var<uniform> ghost: vec2f;
/* @group(1) @binding(0) var<storage> alsoGhost: array<u32>; */
@group(0) @binding(0) var<uniform> real: f32;

@compute @workgroup_size(1)
fn main() {}
`
	s := NewShader("comments", ShaderTypeCompute, source)
	descs := s.BindGroupLayoutDescriptors()
	require.Len(t, descs, 1)
	require.Len(t, descs[0].Entries, 1)
	assert.Equal(t, "real", s.BindGroupVarName(0, 0))
}

func TestNewShaderPanicsOnEmptySource(t *testing.T) {
	assert.Panics(t, func() { NewShader("empty", ShaderTypeCompute, "") })
}
