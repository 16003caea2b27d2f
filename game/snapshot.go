package game

import (
	"sync"

	"github.com/pthm-cable/flappyfly/components"
)

// FlyState is the presentation view of one live fly.
type FlyState struct {
	Slot int // Controller index
	X, Y float64
	Tilt float64
}

// Snapshot is an immutable copy of the episode after a step. Slices are
// freshly allocated and never touched by the episode again.
type Snapshot struct {
	Tick       int
	Generation int
	Mode       Mode
	Score      int
	Alive      int
	Total      int
	Reference  int // Index of the reference pair used this tick, -1 if none
	Done       bool

	Collisions  int // Cumulative eliminations by sweeper hit
	OutOfBounds int // Cumulative eliminations by floor or ceiling

	Flies    []FlyState
	Sweepers []components.Sweeper
	Ground   components.Ground
}

func (e *Episode) snapshot(ref int) Snapshot {
	s := Snapshot{
		Tick:        e.tick,
		Generation:  e.gen,
		Mode:        e.mode,
		Score:       e.score,
		Alive:       len(e.live),
		Total:       e.total,
		Reference:   ref,
		Done:        e.Done(),
		Collisions:  e.collisions,
		OutOfBounds: e.outOfBounds,
		Flies:       make([]FlyState, len(e.live)),
		Sweepers:    append([]components.Sweeper(nil), e.pairs...),
		Ground:      e.ground,
	}
	for i, p := range e.live {
		s.Flies[i] = FlyState{Slot: p.slot, X: p.fly.X, Y: p.fly.Y, Tilt: p.fly.Tilt}
	}
	return s
}

// State returns a snapshot of the current state without stepping, for
// drawing the first frame.
func (e *Episode) State() Snapshot {
	ref := -1
	if len(e.live) > 0 {
		ref = e.lane.Reference(e.live[0].fly.X)
	}
	return e.snapshot(ref)
}

// Presenter receives a snapshot after every step. Present runs on the
// simulation goroutine; the next step waits for it to return.
type Presenter interface {
	Present(s Snapshot)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(s Snapshot)

// Present calls f(s).
func (f PresenterFunc) Present(s Snapshot) {
	f(s)
}

// LatestSink keeps only the most recent snapshot. The simulation side calls
// Present and never waits; a render loop on another goroutine calls Latest.
type LatestSink struct {
	mu   sync.Mutex
	snap Snapshot
	seq  uint64
}

// Present stores s, replacing any snapshot not yet read.
func (l *LatestSink) Present(s Snapshot) {
	l.mu.Lock()
	l.snap = s
	l.seq++
	l.mu.Unlock()
}

// Latest returns the newest snapshot and a sequence number that increases
// with every Present. seq is 0 until the first Present.
func (l *LatestSink) Latest() (s Snapshot, seq uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap, l.seq
}
