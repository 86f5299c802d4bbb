// Package loop drives the per-frame lifecycle of a double-buffered simulation:
// interval-gated buffer parity flips, per-tick kernel dispatch and draw, and
// latched resize/reset requests applied only at tick boundaries.
package loop

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/lifegrid/engine/profiler"
)

// State describes the lifecycle phase of a FrameLoop.
type State int

const (
	// StateIdle is the initial state before Start is called.
	StateIdle State = iota
	// StateRunning means the loop is actively ticking.
	StateRunning
	// StateResizing is the transient state while a latched resize is being applied.
	StateResizing
	// StateStopped means the loop has released its session and will not tick again.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateResizing:
		return "Resizing"
	case StateStopped:
		return "Stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultInterval is the simulation advance interval used when none is configured.
const DefaultInterval = 100 * time.Millisecond

// MinInterval is the floor applied to configured advance intervals.
const MinInterval = time.Millisecond

// Session is the per-grid rendering context a FrameLoop drives. A session owns
// the ping-pong cell buffers for one grid size; changing the grid size means
// releasing the session and creating a new one.
type Session interface {
	// GridSize returns the dimension N of the session's N x N cell grid.
	//
	// Returns:
	//   - int: the grid dimension
	GridSize() int

	// BeginTick acquires the resources for one frame. Every successful BeginTick
	// must be paired with EndTick and Present.
	//
	// Returns:
	//   - error: an error if the frame could not be started
	BeginTick() error

	// Advance encodes one simulation step reading generation state from the cell
	// buffer selected by direction and writing the next generation to the other.
	//
	// Parameters:
	//   - direction: the parity index of the source cell buffer (0 or 1)
	Advance(direction int)

	// Draw encodes the render pass for the current frame, reading cell state from
	// the buffer selected by direction.
	//
	// Parameters:
	//   - direction: the parity index of the cell buffer to render (0 or 1)
	//   - elapsedSeconds: seconds since the loop started, for time-driven shading
	Draw(direction int, elapsedSeconds float32)

	// EndTick submits all work encoded since BeginTick in a single submission.
	EndTick()

	// Present presents the frame acquired by BeginTick.
	Present()

	// Reseed refills both cell buffers with a fresh random generation.
	//
	// Returns:
	//   - error: an error if the upload failed
	Reseed() error

	// Release frees the session's GPU resources.
	Release()
}

// SessionFactory creates a Session for the given grid dimension.
type SessionFactory func(gridSize int) (Session, error)

// frameLoop is the implementation of the FrameLoop interface.
type frameLoop struct {
	mu sync.Mutex

	factory  SessionFactory
	session  Session
	profiler *profiler.Profiler

	state    State
	gridSize int
	interval time.Duration

	// direction is the parity of the cell buffer holding the visible generation.
	// Compute always writes the sibling buffer, so flipping direction is what
	// promotes a computed generation to visible.
	direction int

	paused  bool
	started bool
	// restartRhythm re-anchors lastAdvance on the next tick without touching
	// startTime, so the elapsed-time uniform stays continuous across interval
	// changes, resume, and reset.
	restartRhythm bool
	startTime     time.Time
	lastAdvance   time.Time

	pendingSize  int
	pendingReset bool
}

// FrameLoop coordinates the simulation and rendering of one grid across frames.
// It is driven externally: the caller invokes Tick once per frame with the
// current timestamp, and the loop decides whether the generation advances.
type FrameLoop interface {
	// Start creates the initial session, seeds it, and transitions the loop to
	// StateRunning.
	//
	// Returns:
	//   - error: an error if the session could not be created or seeded
	Start() error

	// Tick runs one frame: applies latched resize/reset requests, flips the
	// visible buffer parity once if at least one interval has elapsed, then
	// dispatches the simulation kernel and draws the visible buffer in one
	// submission. Tick is a no-op unless the loop is running. A failed resize
	// returns an error but leaves the loop running on the old grid; a frame
	// acquisition failure is terminal and stops the loop.
	//
	// Parameters:
	//   - now: the current timestamp
	//
	// Returns:
	//   - error: an error if the frame could not be processed
	Tick(now time.Time) error

	// Stop releases the session and transitions the loop to StateStopped.
	Stop()

	// State returns the loop's current lifecycle state.
	//
	// Returns:
	//   - State: the current state
	State() State

	// Direction returns the parity of the cell buffer holding the visible
	// generation.
	//
	// Returns:
	//   - int: the current buffer parity (0 or 1)
	Direction() int

	// Interval returns the current simulation advance interval.
	//
	// Returns:
	//   - time.Duration: the advance interval
	Interval() time.Duration

	// SetInterval changes the simulation advance interval. Values below
	// MinInterval are clamped. The advance rhythm restarts from the next tick.
	//
	// Parameters:
	//   - interval: the new advance interval
	SetInterval(interval time.Duration)

	// Paused reports whether generation advances are suspended.
	//
	// Returns:
	//   - bool: true if the simulation is paused
	Paused() bool

	// SetPaused suspends or resumes generation advances. Frames are still drawn
	// while paused. Resuming restarts the advance rhythm from the next tick.
	//
	// Parameters:
	//   - paused: true to suspend advances, false to resume
	SetPaused(paused bool)

	// GridSize returns the dimension of the current grid.
	//
	// Returns:
	//   - int: the grid dimension
	GridSize() int

	// RequestResize latches a grid size change to be applied at the next tick
	// boundary. The current frame is never interrupted mid-encode.
	//
	// Parameters:
	//   - gridSize: the new grid dimension (ignored if not positive)
	RequestResize(gridSize int)

	// RequestReset latches a reseed of the current grid to be applied at the
	// next tick boundary.
	RequestReset()
}

var _ FrameLoop = &frameLoop{}

// NewFrameLoop creates a FrameLoop that builds sessions with the given factory.
//
// Parameters:
//   - factory: the session factory invoked on Start and on each applied resize
//   - options: functional options to configure the loop
//
// Returns:
//   - FrameLoop: the newly created loop in StateIdle
func NewFrameLoop(factory SessionFactory, options ...FrameLoopOption) FrameLoop {
	if factory == nil {
		panic("loop: session factory must not be nil")
	}
	l := &frameLoop{
		factory:  factory,
		state:    StateIdle,
		gridSize: 64,
		interval: DefaultInterval,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

func (l *frameLoop) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateIdle {
		return fmt.Errorf("loop already started")
	}
	session, err := l.factory(l.gridSize)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	if err := session.Reseed(); err != nil {
		session.Release()
		return fmt.Errorf("failed to seed session: %w", err)
	}
	l.session = session
	l.direction = 0
	l.started = false
	l.state = StateRunning
	return nil
}

func (l *frameLoop) Tick(now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != StateRunning {
		return nil
	}

	if err := l.applyPending(); err != nil {
		return err
	}

	if !l.started {
		l.started = true
		l.startTime = now
		l.lastAdvance = now
	}
	if l.restartRhythm {
		l.restartRhythm = false
		l.lastAdvance = now
	}

	// At most one parity flip per tick. Catch-up preserves the flip rhythm by
	// moving lastAdvance in whole intervals rather than snapping to now.
	if elapsed := now.Sub(l.lastAdvance); !l.paused && elapsed >= l.interval {
		steps := elapsed / l.interval
		l.lastAdvance = l.lastAdvance.Add(steps * l.interval)
		l.direction ^= 1
	}

	if err := l.session.BeginTick(); err != nil {
		l.stopLocked()
		return fmt.Errorf("failed to begin tick: %w", err)
	}
	// Compute reads the visible buffer and writes its sibling, so the render
	// pass never touches the buffer this tick's dispatch writes. The generation
	// it produces becomes visible on the next flip.
	if !l.paused {
		l.session.Advance(l.direction)
	}
	l.session.Draw(l.direction, float32(now.Sub(l.startTime).Seconds()))
	l.session.EndTick()
	l.session.Present()

	if l.profiler != nil {
		l.profiler.Tick(now)
	}
	return nil
}

// applyPending applies latched resize/reset requests at the tick boundary.
// Callers must hold l.mu.
func (l *frameLoop) applyPending() error {
	// A resize to the current size still rebuilds: resize means reallocation
	// and a fresh random draw, never a content-preserving no-op.
	if l.pendingSize > 0 {
		l.state = StateResizing
		size := l.pendingSize
		session, err := l.factory(size)
		if err != nil {
			l.state = StateRunning
			l.pendingSize = 0
			return fmt.Errorf("failed to resize grid to %d: %w", size, err)
		}
		if err := session.Reseed(); err != nil {
			session.Release()
			l.state = StateRunning
			l.pendingSize = 0
			return fmt.Errorf("failed to seed resized grid: %w", err)
		}
		l.session.Release()
		l.session = session
		l.gridSize = size
		l.direction = 0
		l.started = false
		l.pendingSize = 0
		l.pendingReset = false
		l.state = StateRunning
		if l.profiler != nil {
			l.profiler.Reset()
		}
		return nil
	}

	if l.pendingReset {
		l.pendingReset = false
		if err := l.session.Reseed(); err != nil {
			return fmt.Errorf("failed to reseed grid: %w", err)
		}
		l.direction = 0
		l.restartRhythm = true
	}
	return nil
}

func (l *frameLoop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == StateStopped {
		return
	}
	l.stopLocked()
}

// stopLocked releases the session and halts the loop. Callers must hold l.mu.
func (l *frameLoop) stopLocked() {
	if l.session != nil {
		l.session.Release()
		l.session = nil
	}
	l.state = StateStopped
}

func (l *frameLoop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *frameLoop) Direction() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *frameLoop) Interval() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.interval
}

func (l *frameLoop) SetInterval(interval time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.interval = max(interval, MinInterval)
	l.restartRhythm = true
}

func (l *frameLoop) Paused() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.paused
}

func (l *frameLoop) SetPaused(paused bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.paused == paused {
		return
	}
	l.paused = paused
	if !paused {
		l.restartRhythm = true
	}
}

func (l *frameLoop) GridSize() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gridSize
}

func (l *frameLoop) RequestResize(gridSize int) {
	if gridSize <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pendingSize = gridSize
}

func (l *frameLoop) RequestReset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pendingReset = true
}
