package main

import (
	"embed"
	"flag"
	"fmt"
	"log"

	"github.com/Carmen-Shannon/lifegrid/engine"
	"github.com/Carmen-Shannon/lifegrid/engine/loop"
	"github.com/Carmen-Shannon/lifegrid/engine/renderer"
	"github.com/Carmen-Shannon/lifegrid/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/lifegrid/engine/renderer/shader"
	"github.com/Carmen-Shannon/lifegrid/engine/session"
	"github.com/Carmen-Shannon/lifegrid/engine/window"
	"github.com/Carmen-Shannon/lifegrid/sim"
)

//go:embed assets/shaders/*.wgsl
var shaderAssets embed.FS

func main() {
	gridSize := flag.Int("grid", 64, "grid dimension (cells per side)")
	interval := flag.Duration("interval", loop.DefaultInterval, "simulation advance interval")
	fill := flag.Float64("fill", sim.DefaultFillProbability, "probability a cell starts alive")
	profile := flag.Bool("profile", false, "log FPS and memory stats")
	uncapped := flag.Bool("uncapped", false, "present frames without waiting for vsync")
	software := flag.Bool("software", false, "force the software fallback GPU adapter")
	flag.Parse()

	win := window.NewWindow(
		window.WithTitle("Life Grid"),
		window.WithWidth(800),
		window.WithHeight(800),
	)

	rendererOptions := []renderer.RendererBuilderOption{}
	if *uncapped {
		rendererOptions = append(rendererOptions, renderer.WithPresentMode(renderer.PresentModeUncapped))
	}
	if *software {
		rendererOptions = append(rendererOptions, renderer.WithForceSoftwareRenderer(true))
	}

	rend, err := renderer.NewRenderer(renderer.BackendTypeWGPU, win, rendererOptions...)
	if err != nil {
		log.Fatalf("[Main] failed to create renderer: %v", err)
	}

	computeShader := shader.NewShader("life_compute", shader.ShaderTypeCompute, mustLoadShader("life-compute.wgsl"))
	vertexShader := shader.NewShader("cell_vert", shader.ShaderTypeVertex, mustLoadShader("cell-vert.wgsl"))
	fragmentShader := shader.NewShader("cell_frag", shader.ShaderTypeFragment, mustLoadShader("cell-frag.wgsl"))

	if err := rend.RegisterPipelines(
		pipeline.NewPipeline(session.ComputePipelineKey, pipeline.PipelineTypeCompute,
			pipeline.WithComputeShader(computeShader),
		),
		pipeline.NewPipeline(session.RenderPipelineKey, pipeline.PipelineTypeRender,
			pipeline.WithVertexShader(vertexShader),
			pipeline.WithFragmentShader(fragmentShader),
		),
	); err != nil {
		log.Fatalf("[Main] failed to register pipelines: %v", err)
	}

	factory := func(n int) (loop.Session, error) {
		return session.NewSession(rend, n, session.WithFillProbability(*fill))
	}

	eng := engine.NewEngine(win, rend, factory,
		engine.WithProfiling(*profile),
		engine.WithGridSize(*gridSize),
		engine.WithInterval(*interval),
	)

	log.Printf("[Main] %dx%d grid, advancing every %v", eng.Loop().GridSize(), eng.Loop().GridSize(), eng.Loop().Interval())
	log.Println("[Main] keys: R = reseed, Space/P = pause, Up/Down = speed, Left/Right = grid size, Esc = quit")

	if err := eng.Run(); err != nil {
		log.Fatalf("[Main] engine failed: %v", err)
	}
}

// mustLoadShader reads an embedded WGSL source file by name.
func mustLoadShader(name string) string {
	data, err := shaderAssets.ReadFile(fmt.Sprintf("assets/shaders/%s", name))
	if err != nil {
		log.Fatalf("[Main] failed to load shader %s: %v", name, err)
	}
	return string(data)
}
