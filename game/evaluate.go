package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/pthm-cable/flappyfly/config"
)

// Result is what an optimizer reads back after a population episode.
type Result struct {
	Fitness     []float64 // One per decider, in input order
	Score       int
	Ticks       int
	Collisions  int
	OutOfBounds int
	Capped      bool // Stopped by opts.MaxTicks with flies still alive
}

// EvaluatePopulation runs one population episode with a fresh, zeroed
// accumulator per decider and returns the final fitness values. A positive
// opts.MaxTicks stops the episode early without error. sink may be nil.
func EvaluatePopulation(ctx context.Context, cfg *config.Config, deciders []Decider, opts Options, sink Presenter) (Result, error) {
	fitness := make([]float64, len(deciders))
	controllers := make([]Controller, len(deciders))
	for i, d := range deciders {
		controllers[i] = Controller{Decider: d, Fitness: &fitness[i]}
	}

	ep, err := NewPopulation(cfg, controllers, opts)
	if err != nil {
		return Result{}, err
	}

	runCtx := ctx
	var cancel context.CancelFunc = func() {}
	if opts.MaxTicks > 0 {
		runCtx, cancel = context.WithCancel(ctx)
		inner := sink
		sink = PresenterFunc(func(s Snapshot) {
			if inner != nil {
				inner.Present(s)
			}
			if s.Tick >= opts.MaxTicks {
				cancel()
			}
		})
	}
	defer cancel()

	res := Result{Fitness: fitness}
	err = Run(runCtx, ep, sink)
	res.Score = ep.Score()
	res.Ticks = ep.Tick()
	res.Collisions = ep.collisions
	res.OutOfBounds = ep.outOfBounds

	if errors.Is(err, context.Canceled) && ctx.Err() == nil {
		// Our own tick cap, not the caller's cancellation
		res.Capped = true
		err = nil
	}
	if err != nil {
		return res, fmt.Errorf("generation %d: %w", opts.Generation, err)
	}
	return res, nil
}
