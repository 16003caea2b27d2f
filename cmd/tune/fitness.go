package main

import (
	"context"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/flappyfly/config"
	"github.com/pthm-cable/flappyfly/game"
	"github.com/pthm-cable/flappyfly/systems"
)

// FitnessEvaluator scores a controller over a fixed set of sweeper seeds.
type FitnessEvaluator struct {
	params   *ParamVector
	cfg      *config.Config
	sprites  systems.Sprites
	maxTicks int
	seeds    []int64

	mu        sync.Mutex
	lastScore float64 // Mean score of the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, cfg *config.Config, maxTicks int, seeds []int64) (*FitnessEvaluator, error) {
	sprites, err := systems.LoadSprites(cfg)
	if err != nil {
		return nil, err
	}
	return &FitnessEvaluator{
		params:   params,
		cfg:      cfg,
		sprites:  sprites,
		maxTicks: maxTicks,
		seeds:    seeds,
	}, nil
}

// LastScore returns the mean episode score from the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore
}

// Evaluate returns the negated mean fitness of raw over every seed, so
// lower is better. Seeds run in parallel.
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, raw []float64) (float64, error) {
	ctrl := NewLinearController(raw, float64(fe.cfg.Screen.Height))

	fitness := make([]float64, len(fe.seeds))
	scores := make([]int, len(fe.seeds))
	g, gctx := errgroup.WithContext(ctx)
	for i, seed := range fe.seeds {
		g.Go(func() error {
			res, err := game.EvaluatePopulation(gctx, fe.cfg, []game.Decider{ctrl}, game.Options{
				Seed:     seed,
				Sprites:  &fe.sprites,
				MaxTicks: fe.maxTicks,
			}, nil)
			if err != nil {
				return err
			}
			fitness[i] = res.Fitness[0]
			scores[i] = res.Score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return math.Inf(1), err
	}

	var total, score float64
	for i := range fitness {
		total += fitness[i]
		score += float64(scores[i])
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastScore = score / n
	fe.mu.Unlock()
	return -total / n, nil
}
