// Package game runs flappy fly episodes: the fixed-order step function,
// scoring and termination, for one keyboard player or a population of
// externally supplied controllers.
package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/pthm-cable/flappyfly/components"
	"github.com/pthm-cable/flappyfly/config"
	"github.com/pthm-cable/flappyfly/systems"
)

// Errors returned by episode construction and Step.
var (
	ErrNoControllers = errors.New("no controllers")
	ErrNilDecider    = errors.New("nil decider")
	ErrNilFitness    = errors.New("nil fitness accumulator")
	ErrSharedFitness = errors.New("fitness accumulator shared between controllers")
	ErrEpisodeOver   = errors.New("episode over")
	ErrInvariant     = errors.New("episode invariant violated")
)

// Mode selects single-player or population rules.
type Mode uint8

const (
	ModeSingle Mode = iota
	ModePopulation
)

func (m Mode) String() string {
	switch m {
	case ModeSingle:
		return "single"
	case ModePopulation:
		return "population"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// Options are the per-episode settings owned by the caller.
type Options struct {
	Seed       int64            // Sweeper height RNG seed
	Generation int              // Shown in snapshots, never advanced by the episode
	Sprites    *systems.Sprites // nil builds them from the config
	MaxTicks   int              // Tick budget for EvaluatePopulation (0 = none)
}

// pilot is one live fly bound to its controller. Keeping the three
// together in a single element means removal can never misalign them.
type pilot struct {
	fly  components.Fly
	ctrl Controller
	slot int // Index in the controller list the episode was built from
}

// Episode is the state of one run from spawn to the last elimination.
// It is not safe for concurrent use; Step must finish before the next call.
type Episode struct {
	cfg    *config.Config
	mode   Mode
	gen    int
	kin    systems.Kinematics
	lane   *systems.Lane
	oracle *systems.Oracle
	ground components.Ground

	live  []pilot
	total int
	hits  []bool
	pairs []components.Sweeper

	tick        int
	score       int
	collisions  int
	outOfBounds int
	err         error
}

// NewSingle creates a single-player episode driven by d.
func NewSingle(cfg *config.Config, d Decider, opts Options) (*Episode, error) {
	if d == nil {
		return nil, ErrNilDecider
	}
	return newEpisode(cfg, ModeSingle, []Controller{{Decider: d}}, opts)
}

// NewPopulation creates a population episode with one fly per controller.
// Each controller needs its own fitness accumulator.
func NewPopulation(cfg *config.Config, controllers []Controller, opts Options) (*Episode, error) {
	if len(controllers) == 0 {
		return nil, ErrNoControllers
	}
	seen := make(map[*float64]int, len(controllers))
	for i, c := range controllers {
		if c.Decider == nil {
			return nil, fmt.Errorf("controller %d: %w", i, ErrNilDecider)
		}
		if c.Fitness == nil {
			return nil, fmt.Errorf("controller %d: %w", i, ErrNilFitness)
		}
		if j, ok := seen[c.Fitness]; ok {
			return nil, fmt.Errorf("controllers %d and %d: %w", j, i, ErrSharedFitness)
		}
		seen[c.Fitness] = i
	}
	return newEpisode(cfg, ModePopulation, controllers, opts)
}

func newEpisode(cfg *config.Config, mode Mode, controllers []Controller, opts Options) (*Episode, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var sprites systems.Sprites
	if opts.Sprites != nil {
		sprites = *opts.Sprites
	} else {
		s, err := systems.LoadSprites(cfg)
		if err != nil {
			return nil, fmt.Errorf("loading sprites: %w", err)
		}
		sprites = s
	}

	e := &Episode{
		cfg:    cfg,
		mode:   mode,
		gen:    opts.Generation,
		kin:    systems.NewKinematics(cfg.Fly),
		lane:   systems.NewLane(cfg, rand.New(rand.NewSource(opts.Seed))),
		oracle: systems.NewOracle(cfg, sprites),
		ground: systems.NewGround(cfg.Ground),
		live:   make([]pilot, len(controllers)),
		total:  len(controllers),
		hits:   make([]bool, len(controllers)),
	}
	for i, c := range controllers {
		e.live[i] = pilot{
			fly:  e.kin.Spawn(cfg.Fly.StartX, cfg.Fly.StartY),
			ctrl: c,
			slot: i,
		}
	}
	e.lane.Spawn(cfg.Sweeper.FirstX)
	e.pairs = e.lane.AppendTo(e.pairs)
	return e, nil
}

// Step advances the episode by one tick and returns the resulting snapshot.
// Once the episode is over it returns ErrEpisodeOver; after an invariant
// fault it keeps returning that fault.
func (e *Episode) Step() (Snapshot, error) {
	if e.err != nil {
		return Snapshot{}, e.err
	}
	if len(e.live) == 0 {
		return Snapshot{}, ErrEpisodeOver
	}
	if err := e.check(); err != nil {
		return Snapshot{}, e.fault(err)
	}

	// Reference pair, chosen before anything moves
	ref := e.lane.Reference(e.live[0].fly.X)
	var pair components.Sweeper
	if ref >= 0 {
		pair = e.lane.At(ref)
	}

	for i := range e.live {
		p := &e.live[i]
		if p.ctrl.Fitness != nil {
			*p.ctrl.Fitness += e.cfg.Fitness.Survival
		}
		e.kin.Advance(&p.fly)
		if wantsJump(p.ctrl.Decider.Decide(observe(p.fly, pair, ref >= 0)), e.cfg.Decision) {
			e.kin.Jump(&p.fly)
		}
	}

	systems.AdvanceGround(&e.ground, e.cfg.Ground.Velocity)
	e.lane.Advance()
	e.pairs = e.lane.AppendTo(e.pairs[:0])

	e.detectCollisions()
	e.collisions += e.eliminate(e.cfg.Fitness.CollisionPenalty)

	if len(e.live) > 0 {
		// Every live fly shares the lead's x, so one check covers them all
		for n := e.lane.MarkPassed(e.live[0].fly.X); n > 0; n-- {
			e.score++
			for i := range e.live {
				if f := e.live[i].ctrl.Fitness; f != nil {
					*f += e.cfg.Fitness.PassBonus
				}
			}
			e.lane.Respawn()
		}
	}

	e.lane.Retire()
	e.pairs = e.lane.AppendTo(e.pairs[:0])

	for i := range e.live {
		e.hits[i] = e.oracle.OutOfBounds(e.live[i].fly)
	}
	e.outOfBounds += e.eliminate(0)

	e.tick++
	if err := e.check(); err != nil {
		return Snapshot{}, e.fault(err)
	}
	return e.snapshot(ref), nil
}

// eliminate removes every pilot flagged in hits, subtracting penalty from
// its accumulator, and compacts the live set in order. hits is cleared.
func (e *Episode) eliminate(penalty float64) int {
	kept := e.live[:0]
	removed := 0
	for i, p := range e.live {
		if !e.hits[i] {
			kept = append(kept, p)
			continue
		}
		e.hits[i] = false
		removed++
		if p.ctrl.Fitness != nil {
			*p.ctrl.Fitness -= penalty
		}
	}
	clear(e.live[len(kept):])
	e.live = kept
	return removed
}

// check verifies the live set and lane invariants.
func (e *Episode) check() error {
	if len(e.live) > e.total {
		return fmt.Errorf("%d live flies from %d controllers", len(e.live), e.total)
	}
	prev := -1
	for i, p := range e.live {
		if p.slot <= prev {
			return fmt.Errorf("live set out of order at %d (slot %d after %d)", i, p.slot, prev)
		}
		prev = p.slot
		if p.ctrl.Decider == nil {
			return fmt.Errorf("slot %d: %w", p.slot, ErrNilDecider)
		}
		if e.mode == ModePopulation && p.ctrl.Fitness == nil {
			return fmt.Errorf("slot %d: %w", p.slot, ErrNilFitness)
		}
	}
	if !e.lane.Sorted() {
		return errors.New("sweepers not in ascending x order")
	}
	return nil
}

func (e *Episode) fault(err error) error {
	e.err = fmt.Errorf("%w: tick %d: %w", ErrInvariant, e.tick, err)
	return e.err
}

// Done reports whether the episode has ended, by elimination or fault.
func (e *Episode) Done() bool {
	return e.err != nil || len(e.live) == 0
}

// Err returns the invariant fault that ended the episode, if any.
func (e *Episode) Err() error {
	return e.err
}

// Score returns the number of pairs passed so far.
func (e *Episode) Score() int {
	return e.score
}

// Tick returns the number of completed steps.
func (e *Episode) Tick() int {
	return e.tick
}

// Alive returns the number of live flies.
func (e *Episode) Alive() int {
	return len(e.live)
}

// Mode returns the episode's rule set.
func (e *Episode) Mode() Mode {
	return e.mode
}

// Generation returns the generation the episode was created for.
func (e *Episode) Generation() int {
	return e.gen
}
