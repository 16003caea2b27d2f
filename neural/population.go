package neural

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/flappyfly/config"
	"github.com/pthm-cable/flappyfly/game"
)

var (
	ErrNotEvaluated = errors.New("population has not been evaluated")
	ErrFitnessCount = errors.New("fitness count does not match population size")
)

// Evaluator scores one generation: one fitness per decider, same order.
type Evaluator func(ctx context.Context, generation int, deciders []game.Decider) ([]float64, error)

// Population is a generational NEAT population of brain genomes. The game
// never sees it; it only receives the deciders and returns fitness.
type Population struct {
	cfg     *config.Config
	opts    neat.Options
	rng     *rand.Rand
	ids     *GenomeIDGenerator
	species *SpeciesManager

	generation int
	genomes    []*genetics.Genome
	speciesOf  []int
	fitness    []float64
	evaluated  bool

	best        *genetics.Genome
	bestFitness float64
}

// NewPopulation seeds a population of cfg.Evolution.PopulationSize minimal
// genomes. opts may be nil for DefaultNEATOptions; its PopSize and
// SurvivalThresh are taken from cfg.
func NewPopulation(cfg *config.Config, opts *neat.Options, rng *rand.Rand) (*Population, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", config.ErrInvalid)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = DefaultNEATOptions()
	}

	p := &Population{
		cfg:         cfg,
		opts:        *opts,
		rng:         rng,
		ids:         NewGenomeIDGenerator(),
		generation:  1,
		bestFitness: math.Inf(-1),
	}
	p.opts.PopSize = cfg.Evolution.PopulationSize
	p.opts.SurvivalThresh = cfg.Evolution.SurvivalFraction
	p.species = NewSpeciesManager(&p.opts)

	p.genomes = make([]*genetics.Genome, cfg.Evolution.PopulationSize)
	for i := range p.genomes {
		p.genomes[i] = CreateBrainGenome(p.ids.NextID(), cfg.Evolution.ConnectionProb, rng)
	}
	p.fitness = make([]float64, len(p.genomes))
	p.speciesOf = p.species.Speciate(p.genomes)
	return p, nil
}

// Generation returns the current generation, starting at 1.
func (p *Population) Generation() int {
	return p.generation
}

// Size returns the number of genomes per generation.
func (p *Population) Size() int {
	return len(p.genomes)
}

// Genomes returns the current generation's genomes.
func (p *Population) Genomes() []*genetics.Genome {
	return p.genomes
}

// Species returns the species manager.
func (p *Population) Species() *SpeciesManager {
	return p.species
}

// SpeciesColor returns the tint for genome i of the current generation.
func (p *Population) SpeciesColor(i int) SpeciesColor {
	return p.species.GetSpeciesColor(p.speciesOf[i])
}

// Deciders builds one brain per genome, in population order.
func (p *Population) Deciders() ([]game.Decider, error) {
	deciders := make([]game.Decider, len(p.genomes))
	for i, genome := range p.genomes {
		brain, err := NewBrain(genome, float64(p.cfg.Screen.Height))
		if err != nil {
			return nil, fmt.Errorf("genome %d: %w", genome.Id, err)
		}
		deciders[i] = brain
	}
	return deciders, nil
}

// SetFitness records the current generation's fitness, one value per
// genome in population order.
func (p *Population) SetFitness(fitness []float64) error {
	if len(fitness) != len(p.genomes) {
		return fmt.Errorf("%w: got %d, want %d", ErrFitnessCount, len(fitness), len(p.genomes))
	}
	copy(p.fitness, fitness)
	p.evaluated = true

	i := argmax(fitness)
	if fitness[i] > p.bestFitness {
		best, err := CloneGenome(p.genomes[i], p.genomes[i].Id)
		if err != nil {
			return err
		}
		p.best, p.bestFitness = best, fitness[i]
	}
	return nil
}

// Evaluate builds the deciders, scores them with eval and records the
// result.
func (p *Population) Evaluate(ctx context.Context, eval Evaluator) ([]float64, error) {
	deciders, err := p.Deciders()
	if err != nil {
		return nil, err
	}
	fitness, err := eval(ctx, p.generation, deciders)
	if err != nil {
		return nil, err
	}
	return fitness, p.SetFitness(fitness)
}

// Best returns a copy of the fittest genome seen so far and its fitness.
// The genome is nil before the first evaluation.
func (p *Population) Best() (*genetics.Genome, float64) {
	return p.best, p.bestFitness
}

// Advance breeds the next generation from the evaluated one. Elites are
// copied unchanged; the remaining slots are shared between species in
// proportion to their mean fitness and filled from each species' top
// SurvivalThresh fraction.
func (p *Population) Advance() error {
	if !p.evaluated {
		return ErrNotEvaluated
	}

	p.species.Record(p.fitness)
	p.species.RemoveStaleSpecies(p.speciesOf[argmax(p.fitness)])

	order := p.ranked(nil)
	next := make([]*genetics.Genome, 0, len(p.genomes))
	for _, i := range order[:p.cfg.Evolution.Elites] {
		elite, err := CloneGenome(p.genomes[i], p.ids.NextID())
		if err != nil {
			return err
		}
		next = append(next, elite)
	}

	quotas := p.quotas(len(p.genomes) - len(next))
	for k, sp := range p.species.Species {
		parents := p.ranked(sp.Members)
		keep := int(math.Ceil(p.opts.SurvivalThresh * float64(len(parents))))
		parents = parents[:max(keep, 1)]

		for n := 0; n < quotas[k]; n++ {
			child, err := p.offspring(parents)
			if err != nil {
				return fmt.Errorf("species %d: %w", sp.ID, err)
			}
			next = append(next, child)
		}
	}

	p.genomes = next
	p.generation++
	clear(p.fitness)
	p.evaluated = false
	p.speciesOf = p.species.Speciate(p.genomes)
	return nil
}

// ranked returns indices (all genomes when nil) by descending fitness,
// ties broken by index.
func (p *Population) ranked(indices []int) []int {
	if indices == nil {
		indices = make([]int, len(p.genomes))
		for i := range indices {
			indices[i] = i
		}
	} else {
		indices = slices.Clone(indices)
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return p.fitness[indices[a]] > p.fitness[indices[b]]
	})
	return indices
}

// quotas splits n offspring between the live species by mean fitness,
// shifted so the worst genome counts as zero. Rounding leftovers go to the
// strongest species first.
func (p *Population) quotas(n int) []int {
	species := p.species.Species
	floor := slices.Min(p.fitness)

	shares := make([]float64, len(species))
	total := 0.0
	for k, sp := range species {
		sum := 0.0
		for _, m := range sp.Members {
			sum += p.fitness[m] - floor
		}
		shares[k] = sum/float64(len(sp.Members)) + 1e-9
		total += shares[k]
	}

	q := make([]int, len(species))
	assigned := 0
	for k := range q {
		q[k] = int(float64(n) * shares[k] / total)
		assigned += q[k]
	}

	order := make([]int, len(species))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool { return shares[order[a]] > shares[order[b]] })
	for i := 0; assigned < n; i++ {
		q[order[i%len(order)]]++
		assigned++
	}
	return q
}

// offspring makes one child from parents, by mutation alone or by
// crossover followed (unless MateOnlyProb hits) by mutation.
func (p *Population) offspring(parents []int) (*genetics.Genome, error) {
	a := parents[p.rng.Intn(len(parents))]

	if len(parents) == 1 || p.rng.Float64() < p.opts.MutateOnlyProb {
		child, err := CloneGenome(p.genomes[a], p.ids.NextID())
		if err != nil {
			return nil, err
		}
		_, err = MutateBrainGenome(child, &p.opts, p.ids, p.rng)
		return child, err
	}

	b := parents[p.rng.Intn(len(parents))]
	child, err := CrossoverGenomes(p.genomes[a], p.genomes[b], p.fitness[a], p.fitness[b], p.ids.NextID(), p.rng)
	if err != nil {
		return nil, err
	}
	if p.rng.Float64() >= p.opts.MateOnlyProb {
		if _, err := MutateBrainGenome(child, &p.opts, p.ids, p.rng); err != nil {
			return nil, err
		}
	}
	return child, nil
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
