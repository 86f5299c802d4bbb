package engine

import (
	"fmt"
	"log"
	"time"

	"github.com/Carmen-Shannon/lifegrid/common"
	"github.com/Carmen-Shannon/lifegrid/engine/loop"
	"github.com/Carmen-Shannon/lifegrid/engine/profiler"
	"github.com/Carmen-Shannon/lifegrid/engine/renderer"
	"github.com/Carmen-Shannon/lifegrid/engine/window"
)

// Grid dimension bounds for interactive resizing.
const (
	MinGridSize = 16
	MaxGridSize = 512
)

// Advance interval bounds for interactive speed changes.
const (
	MinAdjustInterval = 10 * time.Millisecond
	MaxAdjustInterval = 1600 * time.Millisecond
)

// gridResizeDebounce throttles grid size changes from held arrow keys so a
// key repeat burst does not queue a cascade of expensive session rebuilds.
const gridResizeDebounce = 300 * time.Millisecond

// engine implements the Engine interface.
// Binds window input and lifecycle events to the frame loop. Everything runs
// on the window's message loop thread, which GLFW requires to be the main
// thread, so there is no cross-goroutine coordination here.
type engine struct {
	window   window.Window
	renderer renderer.Renderer
	loop     loop.FrameLoop

	profiler         *profiler.Profiler
	profilingEnabled bool

	factory  loop.SessionFactory
	gridSize int
	interval time.Duration

	lastGridResize time.Time
}

// Engine is the main entry point for the simulation.
// It owns the frame loop and translates window events into loop requests.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Loop returns the frame loop driving the simulation.
	//
	// Returns:
	//   - loop.FrameLoop: the frame loop instance
	Loop() loop.FrameLoop

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// Run starts the frame loop and blocks in the window message loop until the
	// window closes. The loop is stopped and its GPU resources released before
	// Run returns.
	//
	// Returns:
	//   - error: an error if the frame loop could not be started
	Run() error

	// Quit asks the window to close, which unwinds Run.
	// Safe to call multiple times.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine wired to the given window, renderer, and
// session factory. The engine builds its own frame loop and profiler, installs
// the window resize and key callbacks, and is ready to Run.
//
// Parameters:
//   - win: the window providing the surface and input events
//   - rend: the renderer the session factory draws with
//   - factory: creates a session for each grid size the loop runs
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(win window.Window, rend renderer.Renderer, factory loop.SessionFactory, options ...EngineBuilderOption) Engine {
	e := &engine{
		window:   win,
		renderer: rend,
		factory:  factory,
		profiler: profiler.NewProfiler(),
		gridSize: 64,
		interval: loop.DefaultInterval,
	}

	for _, opt := range options {
		opt(e)
	}

	e.loop = loop.NewFrameLoop(
		factory,
		loop.WithGridSize(e.gridSize),
		loop.WithInterval(e.interval),
		loop.WithProfiler(e.profiler),
	)
	e.profiler.SetLogStats(e.profilingEnabled)

	// The FPS callback fires from loop.Tick, which runs on the message loop
	// thread, so updating the title here is safe.
	baseTitle := win.Title()
	e.profiler.SetFPSCallback(func(fps float64) {
		e.window.SetTitle(fmt.Sprintf("%s - %.0f FPS", baseTitle, fps))
	})

	e.window.SetResizeCallback(func(width, height int) {
		e.renderer.Resize(width, height)
		// A drag-resize stalls the message loop, so the in-flight FPS window is
		// not representative.
		e.profiler.Reset()
	})
	e.window.SetKeyDownCallback(e.handleKeyDown)

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Loop() loop.FrameLoop {
	return e.loop
}

func (e *engine) Run() error {
	if err := e.loop.Start(); err != nil {
		return fmt.Errorf("failed to start frame loop: %w", err)
	}

	e.window.SetUpdateCallback(func() {
		if err := e.loop.Tick(time.Now()); err != nil {
			log.Printf("[Engine] tick failed: %v", err)
			// A failed resize leaves the loop running on the old grid. Anything
			// that stopped the loop (lost surface, lost device) is terminal, so
			// shut the window down instead of logging every frame.
			if e.loop.State() == loop.StateStopped {
				e.window.RequestClose()
			}
		}
	})

	e.window.ProcessMessages()
	e.loop.Stop()
	return nil
}

func (e *engine) Quit() {
	e.window.RequestClose()
}

// handleKeyDown maps key presses to loop requests:
//
//	R            reseed the grid
//	Space / P    pause or resume the simulation
//	Up / Down    halve or double the advance interval
//	Left / Right halve or double the grid dimension
func (e *engine) handleKeyDown(keyCode uint32) {
	switch keyCode {
	case common.KeyR:
		e.loop.RequestReset()
	case common.KeySpace, common.KeyP:
		e.loop.SetPaused(!e.loop.Paused())
	case common.KeyUp:
		e.loop.SetInterval(clampInterval(e.loop.Interval() / 2))
	case common.KeyDown:
		e.loop.SetInterval(clampInterval(e.loop.Interval() * 2))
	case common.KeyLeft:
		e.requestGridResize(e.loop.GridSize() / 2)
	case common.KeyRight:
		e.requestGridResize(e.loop.GridSize() * 2)
	}
}

// requestGridResize latches a debounced, clamped grid size change.
func (e *engine) requestGridResize(size int) {
	now := time.Now()
	if now.Sub(e.lastGridResize) < gridResizeDebounce {
		return
	}
	e.lastGridResize = now
	e.loop.RequestResize(min(max(size, MinGridSize), MaxGridSize))
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
	e.profiler.SetLogStats(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
	e.profiler.SetLogStats(false)
}

func clampInterval(d time.Duration) time.Duration {
	return min(max(d, MinAdjustInterval), MaxAdjustInterval)
}
