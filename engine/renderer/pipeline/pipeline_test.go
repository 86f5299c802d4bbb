package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/lifegrid/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testComputeSource = `
@group(0) @binding(0) var<storage, read_write> data: array<u32>;

@compute @workgroup_size(8, 8)
fn main() {}
`

const testVertexSource = `
struct VertexInput {
    @location(0) pos: vec2f,
};

@vertex
fn vertexMain(input: VertexInput) -> @builtin(position) vec4f {
    return vec4f(input.pos, 0.0, 1.0);
}
`

const testFragmentSource = `
@fragment
fn fragmentMain() -> @location(0) vec4f {
    return vec4f(1.0);
}
`

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("render", PipelineTypeRender)

	assert.Equal(t, "render", p.PipelineKey())
	assert.Equal(t, PipelineTypeRender, p.Type())
	assert.False(t, p.BlendEnabled())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	require.NotNil(t, p.BlendState())
	assert.Nil(t, p.Pipeline(), "no GPU pipeline before registration")
}

func TestPipelineShaderAccessors(t *testing.T) {
	computeShader := shader.NewShader("c", shader.ShaderTypeCompute, testComputeSource)
	vertexShader := shader.NewShader("v", shader.ShaderTypeVertex, testVertexSource)
	fragmentShader := shader.NewShader("f", shader.ShaderTypeFragment, testFragmentSource)

	render := NewPipeline("render", PipelineTypeRender,
		WithVertexShader(vertexShader),
		WithFragmentShader(fragmentShader),
	)
	assert.Same(t, vertexShader, render.Shader(shader.ShaderTypeVertex))
	assert.Same(t, fragmentShader, render.Shader(shader.ShaderTypeFragment))
	assert.Nil(t, render.Shader(shader.ShaderTypeCompute))

	compute := NewPipeline("compute", PipelineTypeCompute,
		WithComputeShader(computeShader),
	)
	assert.Same(t, computeShader, compute.Shader(shader.ShaderTypeCompute))
	assert.Equal(t, [3]uint32{8, 8, 1}, compute.Shader(shader.ShaderTypeCompute).WorkgroupSize())
}

func TestPipelineOptions(t *testing.T) {
	blend := &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
	}
	p := NewPipeline("custom", PipelineTypeRender,
		WithBlendEnabled(true),
		WithCullMode(wgpu.CullModeBack),
		WithTopology(wgpu.PrimitiveTopologyTriangleStrip),
		WithFrontFace(wgpu.FrontFaceCW),
		WithWriteMask(wgpu.ColorWriteMaskRed),
		WithBlendState(blend),
	)

	assert.True(t, p.BlendEnabled())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleStrip, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCW, p.FrontFace())
	assert.Equal(t, wgpu.ColorWriteMaskRed, p.WriteMask())
	assert.Same(t, blend, p.BlendState())
}
