// Package trainer drives an evolution run: each generation's brains are
// scored in one fresh population episode, the result is recorded and the
// next generation is bred.
package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/flappyfly/config"
	"github.com/pthm-cable/flappyfly/game"
	"github.com/pthm-cable/flappyfly/neural"
	"github.com/pthm-cable/flappyfly/systems"
	"github.com/pthm-cable/flappyfly/telemetry"
)

// Options configures a run. Zero values fall back to the config.
type Options struct {
	Seed        int64         // Seeds breeding and every episode's sweeper heights
	Generations int           // 0 = cfg.Evolution.Generations
	MaxTicks    int           // 0 = cfg.Evolution.MaxTicks
	NEAT        *neat.Options // nil = neural.DefaultNEATOptions
	Output      *telemetry.OutputManager
	Sink        game.Presenter // Receives every snapshot; may be nil
	LogStats    bool           // Log a line every cfg.Telemetry.LogEvery generations
}

// Status is what a viewer reads about the run. Values are immutable once
// published.
type Status struct {
	Generation      int                   // Generation being evaluated
	Colors          []neural.SpeciesColor // Per controller slot of that generation
	Last            telemetry.GenerationStats
	Species         neural.SpeciesStats
	TopSpecies      []SpeciesSummary
	Champion        *genetics.Genome // Fittest genome so far, nil before the first generation ends
	ChampionFitness float64
	Done            bool
}

// SpeciesSummary is a copy of one species' standing after a generation.
type SpeciesSummary struct {
	ID          int
	Size        int
	Age         int
	BestFitness float64
	Color       neural.SpeciesColor
}

// Trainer runs generations of a neural population against the game.
type Trainer struct {
	cfg     *config.Config
	opts    Options
	pop     *neural.Population
	sprites systems.Sprites

	hof       *telemetry.HallOfFame
	bookmarks *telemetry.BookmarkDetector
	perf      *telemetry.PerfCollector

	status  atomic.Pointer[Status]
	started time.Time
}

// New creates a trainer and seeds its population.
func New(cfg *config.Config, opts Options) (*Trainer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalid)
	}
	if opts.Generations <= 0 {
		opts.Generations = cfg.Evolution.Generations
	}
	if opts.MaxTicks <= 0 {
		opts.MaxTicks = cfg.Evolution.MaxTicks
	}

	pop, err := neural.NewPopulation(cfg, opts.NEAT, rand.New(rand.NewSource(opts.Seed)))
	if err != nil {
		return nil, fmt.Errorf("creating population: %w", err)
	}
	sprites, err := systems.LoadSprites(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading sprites: %w", err)
	}

	t := &Trainer{
		cfg:       cfg,
		opts:      opts,
		pop:       pop,
		sprites:   sprites,
		hof:       telemetry.NewHallOfFame(cfg.Telemetry.HallOfFameSize),
		bookmarks: telemetry.NewBookmarkDetector(cfg.Telemetry.BookmarkHistory),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
	}
	t.status.Store(&Status{Generation: pop.Generation()})
	return t, nil
}

// Generations is the number of generations Run evaluates, after config
// fallbacks.
func (t *Trainer) Generations() int { return t.opts.Generations }

// MaxTicks is the per-episode tick cap after config fallbacks.
func (t *Trainer) MaxTicks() int { return t.opts.MaxTicks }

// Status returns the latest published status. It is safe to call from
// any goroutine.
func (t *Trainer) Status() *Status {
	return t.status.Load()
}

// Population returns the population being trained. Not safe to use while
// Run is in progress.
func (t *Trainer) Population() *neural.Population {
	return t.pop
}

// HallOfFame returns the run's hall of fame.
func (t *Trainer) HallOfFame() *telemetry.HallOfFame {
	return t.hof
}

// Run evaluates and breeds opts.Generations generations. Cancelling ctx
// stops the current episode before its next step; Run then returns the
// context's error. The hall of fame is written on every return.
func (t *Trainer) Run(ctx context.Context) error {
	t.started = time.Now()
	defer t.finish()

	for i := 0; i < t.opts.Generations; i++ {
		if err := t.generation(ctx, i == t.opts.Generations-1); err != nil {
			return err
		}
	}
	return nil
}

// generation runs one evaluate, record, breed cycle. The last generation
// is not bred so the population keeps its evaluated genomes.
func (t *Trainer) generation(ctx context.Context, last bool) error {
	gen := t.pop.Generation()
	t.publishStart(gen)

	t.perf.Begin()
	t.perf.Phase(telemetry.PhaseEvaluate)

	var res game.Result
	_, err := t.pop.Evaluate(ctx, func(ctx context.Context, generation int, deciders []game.Decider) ([]float64, error) {
		var err error
		res, err = game.EvaluatePopulation(ctx, t.cfg, deciders, t.episodeOptions(generation), t.opts.Sink)
		return res.Fitness, err
	})
	if err != nil {
		return err
	}

	t.perf.Phase(telemetry.PhaseTelemetry)
	stats := t.record(gen, res)

	if !last {
		t.perf.Phase(telemetry.PhaseBreed)
		if err := t.pop.Advance(); err != nil {
			return fmt.Errorf("breeding generation %d: %w", gen, err)
		}
	}
	t.perf.End()

	if err := t.opts.Output.WritePerf(t.perf.Stats(), gen); err != nil {
		slog.Error("failed to write perf", "error", err)
	}
	t.publishEnd(stats)
	return nil
}

// episodeOptions gives every generation its own reproducible sweeper
// sequence.
func (t *Trainer) episodeOptions(generation int) game.Options {
	return game.Options{
		Seed:       t.opts.Seed + int64(generation),
		Generation: generation,
		Sprites:    &t.sprites,
		MaxTicks:   t.opts.MaxTicks,
	}
}

// record computes the generation's stats and feeds the hall of fame,
// bookmarks and output files.
func (t *Trainer) record(gen int, res game.Result) telemetry.GenerationStats {
	stats := telemetry.ComputeGenerationStats(gen, res)
	stats.Species = len(t.pop.Species().Species)
	_, stats.BestEver = t.pop.Best()
	stats.WallClockSec = time.Since(t.started).Seconds()

	if len(res.Fitness) > 0 {
		top := argmax(res.Fitness)
		if _, err := t.hof.Consider(t.pop.Genomes()[top], gen, res.Fitness[top], res.Score); err != nil {
			slog.Error("failed to record champion", "generation", gen, "error", err)
		}
	}

	if t.opts.LogStats && t.cfg.Telemetry.LogEvery > 0 && gen%t.cfg.Telemetry.LogEvery == 0 {
		slog.Info("generation", "stats", stats)
	}
	if err := t.opts.Output.WriteGeneration(stats); err != nil {
		slog.Error("failed to write generation", "error", err)
	}

	for _, bm := range t.bookmarks.Check(stats) {
		if t.opts.LogStats {
			bm.LogBookmark()
		}
		if err := t.opts.Output.WriteBookmark(bm); err != nil {
			slog.Error("failed to write bookmark", "error", err)
		}
	}
	return stats
}

func (t *Trainer) publishStart(gen int) {
	prev := t.status.Load()
	colors := make([]neural.SpeciesColor, t.pop.Size())
	for i := range colors {
		colors[i] = t.pop.SpeciesColor(i)
	}
	next := *prev
	next.Generation = gen
	next.Colors = colors
	next.Species = t.pop.Species().GetStats()
	t.status.Store(&next)
}

func (t *Trainer) publishEnd(stats telemetry.GenerationStats) {
	next := *t.status.Load()
	next.Last = stats
	next.Champion, next.ChampionFitness = t.pop.Best()
	next.Species = t.pop.Species().GetStats()
	next.TopSpecies = nil
	for _, sp := range t.pop.Species().GetTopSpecies(5) {
		next.TopSpecies = append(next.TopSpecies, SpeciesSummary{
			ID:          sp.ID,
			Size:        len(sp.Members),
			Age:         sp.Age,
			BestFitness: sp.BestFitness,
			Color:       sp.Color,
		})
	}
	t.status.Store(&next)
}

// finish writes the hall of fame and marks the run done.
func (t *Trainer) finish() {
	if err := t.opts.Output.WriteHallOfFame(t.hof); err != nil {
		slog.Error("failed to write hall of fame", "error", err)
	}
	next := *t.status.Load()
	next.Done = true
	t.status.Store(&next)
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
