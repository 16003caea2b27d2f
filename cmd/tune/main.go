// Command tune searches the weights of a linear flappy fly controller
// with CMA-ES. It gives a hand-made baseline to compare evolved brains
// against.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/flappyfly/config"
)

// EvalRow is one line of tune_log.csv.
type EvalRow struct {
	Eval      int     `csv:"eval"`
	Fitness   float64 `csv:"fitness"`
	MeanScore float64 `csv:"mean_score"`
	Bias      float64 `csv:"bias"`
	Y         float64 `csv:"y"`
	TopGap    float64 `csv:"top_gap"`
	BottomGap float64 `csv:"bottom_gap"`
}

// BestWeights is written to best_weights.yaml when the search ends.
type BestWeights struct {
	Fitness   float64 `yaml:"fitness"`
	Bias      float64 `yaml:"bias"`
	Y         float64 `yaml:"y"`
	TopGap    float64 `yaml:"top_gap"`
	BottomGap float64 `yaml:"bottom_gap"`
}

// formatDuration formats a duration as HhMMmSSs or MmSSs.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	maxTicks := flag.Int("max-ticks", 5000, "Tick budget per episode")
	seeds := flag.Int("seeds", 5, "Number of sweeper seeds per evaluation")
	maxEvals := flag.Int("max-evals", 300, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if *outputDir == "" {
		slog.Error("-output is required")
		os.Exit(1)
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, config.Cfg(), *maxTicks, *seeds, *maxEvals, *population, *outputDir); err != nil {
		slog.Error("tune failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, maxTicks, seedCount, maxEvals, population int, outputDir string) error {
	params := NewParamVector()

	evalSeeds := make([]int64, seedCount)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}
	evaluator, err := NewFitnessEvaluator(params, cfg, maxTicks, evalSeeds)
	if err != nil {
		return err
	}

	logFile, err := os.Create(filepath.Join(outputDir, "tune_log.csv"))
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()

	dim := params.Dim()
	popSize := population
	if popSize == 0 {
		popSize = 4 + int(3*math.Log(float64(dim)))
	}

	evalCount := 0
	bestFitness := math.Inf(1)
	var bestParams []float64
	var evalErr error
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if evalErr != nil {
				return math.Inf(1)
			}
			raw := params.Denormalize(x)
			fitness, err := evaluator.Evaluate(ctx, raw)
			if err != nil {
				evalErr = err
				return math.Inf(1)
			}
			evalCount++
			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = raw
			}

			row := EvalRow{
				Eval:      evalCount,
				Fitness:   fitness,
				MeanScore: evaluator.LastScore(),
				Bias:      raw[0],
				Y:         raw[1],
				TopGap:    raw[2],
				BottomGap: raw[3],
			}
			if evalCount == 1 {
				err = gocsv.Marshal([]EvalRow{row}, logFile)
			} else {
				err = gocsv.MarshalWithoutHeaders([]EvalRow{row}, logFile)
			}
			if err != nil {
				slog.Error("failed to write log row", "error", err)
			}

			elapsed := time.Since(startTime)
			remaining := time.Duration(maxEvals-evalCount) * (elapsed / time.Duration(evalCount))
			slog.Info("eval",
				"n", evalCount,
				"fitness", fitness,
				"mean_score", row.MeanScore,
				"best", bestFitness,
				"elapsed", formatDuration(elapsed),
				"eta", formatDuration(remaining),
			)
			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // Seeds are already evaluated in parallel
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	slog.Info("starting CMA-ES",
		"params", dim,
		"population", popSize,
		"max_evals", maxEvals,
		"seeds", seedCount,
		"max_ticks", maxTicks,
	)
	result, err := optimize.Minimize(problem, params.Normalize(params.DefaultVector()), settings, method)
	if err != nil {
		slog.Info("optimization ended", "reason", err)
	}
	if evalErr != nil {
		return evalErr
	}
	if bestParams == nil && result != nil {
		bestParams = params.Denormalize(result.X)
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluations completed")
	}

	slog.Info("optimization complete",
		"evals", evalCount,
		"duration", formatDuration(time.Since(startTime)),
		"best_fitness", bestFitness,
	)

	best := BestWeights{
		Fitness:   bestFitness,
		Bias:      bestParams[0],
		Y:         bestParams[1],
		TopGap:    bestParams[2],
		BottomGap: bestParams[3],
	}
	data, err := yaml.Marshal(best)
	if err != nil {
		return fmt.Errorf("marshaling best weights: %w", err)
	}
	path := filepath.Join(outputDir, "best_weights.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing best weights: %w", err)
	}
	slog.Info("best weights saved", "path", path)
	return nil
}
