// Command flappyfly plays Flappy Fly by keyboard, evolves NEAT brains to
// play it, or replays an evolved champion.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yaricom/goNEAT/v4/neat"

	"github.com/pthm-cable/flappyfly/config"
	"github.com/pthm-cable/flappyfly/neural"
)

// appOptions are the command line settings shared by every mode.
type appOptions struct {
	seed        int64
	headless    bool
	logStats    bool
	generations int
	maxTicks    int
	outputDir   string
	hallPath    string
	neat        *neat.Options
}

func main() {
	// CLI flags
	mode := flag.String("mode", "evolve", "play, evolve or champion")
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output generation stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config and hall of fame (empty = config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	generations := flag.Int("generations", 0, "Generations to evolve (0 = config)")
	maxTicks := flag.Int("max-ticks", 0, "Tick budget per episode (0 = config)")
	hallPath := flag.String("hall", "", "hall_of_fame.json to replay in champion mode")
	neatPath := flag.String("neat", "", "goNEAT options YAML (empty = config or built-in)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := appOptions{
		seed:        rngSeed,
		headless:    *headless,
		logStats:    *logStats,
		generations: *generations,
		maxTicks:    *maxTicks,
		outputDir:   *outputDir,
		hallPath:    *hallPath,
	}
	if opts.outputDir == "" {
		opts.outputDir = cfg.Telemetry.OutputDir
	}

	neatFile := *neatPath
	if neatFile == "" {
		neatFile = cfg.Evolution.NEATOptionsFile
	}
	if neatFile != "" {
		no, err := neural.LoadNEATOptions(neatFile)
		if err != nil {
			slog.Error("failed to load NEAT options", "path", neatFile, "error", err)
			os.Exit(1)
		}
		opts.neat = no
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch *mode {
	case "play":
		err = runPlay(ctx, cfg, opts)
	case "evolve":
		err = runEvolve(ctx, cfg, opts)
	case "champion":
		err = runChampion(ctx, cfg, opts)
	default:
		err = fmt.Errorf("unknown mode %q", *mode)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "mode", *mode, "error", err)
		os.Exit(1)
	}
}
