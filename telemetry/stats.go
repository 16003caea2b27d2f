package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/flappyfly/game"
)

// GenerationStats summarizes one evaluated generation.
type GenerationStats struct {
	Generation int `csv:"generation"`
	Population int `csv:"population"`

	// Episode outcome
	Score       int  `csv:"score"`
	Ticks       int  `csv:"ticks"`
	Collisions  int  `csv:"collisions"`
	OutOfBounds int  `csv:"out_of_bounds"`
	Capped      bool `csv:"capped"`

	// Fitness distribution
	FitnessMax  float64 `csv:"fitness_max"`
	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`
	FitnessP10  float64 `csv:"fitness_p10"`
	FitnessP50  float64 `csv:"fitness_p50"`
	FitnessP90  float64 `csv:"fitness_p90"`

	Species      int     `csv:"species"`
	BestEver     float64 `csv:"best_ever"`
	WallClockSec float64 `csv:"wall_clock_sec"`
}

// Percentile returns the p-th empirical quantile of sorted, or 0 when it
// is empty. p is clamped to [0, 1].
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = min(max(p, 0), 1)
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeGenerationStats builds the stats row for one generation from the
// episode result. Species, BestEver and WallClockSec are left for the
// caller.
func ComputeGenerationStats(generation int, res game.Result) GenerationStats {
	s := GenerationStats{
		Generation:  generation,
		Population:  len(res.Fitness),
		Score:       res.Score,
		Ticks:       res.Ticks,
		Collisions:  res.Collisions,
		OutOfBounds: res.OutOfBounds,
		Capped:      res.Capped,
	}
	if len(res.Fitness) == 0 {
		return s
	}

	sorted := make([]float64, len(res.Fitness))
	copy(sorted, res.Fitness)
	sort.Float64s(sorted)

	s.FitnessMax = sorted[len(sorted)-1]
	if len(sorted) > 1 {
		s.FitnessMean, s.FitnessStd = stat.MeanStdDev(sorted, nil)
	} else {
		s.FitnessMean = sorted[0]
	}
	s.FitnessP10 = Percentile(sorted, 0.10)
	s.FitnessP50 = Percentile(sorted, 0.50)
	s.FitnessP90 = Percentile(sorted, 0.90)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("population", s.Population),
		slog.Int("score", s.Score),
		slog.Int("ticks", s.Ticks),
		slog.Int("collisions", s.Collisions),
		slog.Int("out_of_bounds", s.OutOfBounds),
		slog.Bool("capped", s.Capped),
		slog.Float64("fitness_max", s.FitnessMax),
		slog.Float64("fitness_mean", s.FitnessMean),
		slog.Float64("fitness_std", s.FitnessStd),
		slog.Float64("fitness_p50", s.FitnessP50),
		slog.Int("species", s.Species),
		slog.Float64("best_ever", s.BestEver),
	)
}

// EpisodeStats records one single-fly episode, played or replayed.
type EpisodeStats struct {
	Controller  string `csv:"controller"` // "keyboard" or "champion"
	Seed        int64  `csv:"seed"`
	Score       int    `csv:"score"`
	Ticks       int    `csv:"ticks"`
	Collision   bool   `csv:"collision"`
	OutOfBounds bool   `csv:"out_of_bounds"`
}

// NewEpisodeStats builds the record from an episode's final snapshot.
func NewEpisodeStats(controller string, seed int64, final game.Snapshot) EpisodeStats {
	return EpisodeStats{
		Controller:  controller,
		Seed:        seed,
		Score:       final.Score,
		Ticks:       final.Tick,
		Collision:   final.Collisions > 0,
		OutOfBounds: final.OutOfBounds > 0,
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (e EpisodeStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("controller", e.Controller),
		slog.Int64("seed", e.Seed),
		slog.Int("score", e.Score),
		slog.Int("ticks", e.Ticks),
		slog.Bool("collision", e.Collision),
		slog.Bool("out_of_bounds", e.OutOfBounds),
	)
}
