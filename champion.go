package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/flappyfly/config"
	"github.com/pthm-cable/flappyfly/game"
	"github.com/pthm-cable/flappyfly/inspector"
	"github.com/pthm-cable/flappyfly/neural"
	"github.com/pthm-cable/flappyfly/systems"
	"github.com/pthm-cable/flappyfly/telemetry"
	"github.com/pthm-cable/flappyfly/ui"
)

// runChampion replays the best genome of a saved hall of fame in a
// single-fly episode.
func runChampion(ctx context.Context, cfg *config.Config, opts appOptions) error {
	path := opts.hallPath
	if path == "" {
		if opts.outputDir == "" {
			return errors.New("champion mode needs -hall or an output directory")
		}
		path = filepath.Join(opts.outputDir, "hall_of_fame.json")
	}
	hof, err := telemetry.LoadHallOfFameFromFile(path)
	if err != nil {
		return err
	}
	genome, entry, err := hof.Champion()
	if err != nil {
		return err
	}
	brain, err := neural.NewBrain(genome, float64(cfg.Screen.Height))
	if err != nil {
		return err
	}
	sprites, err := systems.LoadSprites(cfg)
	if err != nil {
		return err
	}
	ep, err := game.NewSingle(cfg, brain, game.Options{Seed: opts.seed, Generation: entry.Generation, Sprites: &sprites})
	if err != nil {
		return err
	}
	slog.Info("replaying champion",
		"path", path,
		"generation", entry.Generation,
		"fitness", entry.Fitness,
		"nodes", brain.NodeCount(),
		"links", brain.LinkCount(),
	)

	out, err := telemetry.NewOutputManager(opts.outputDir)
	if err != nil {
		return err
	}
	defer out.Close()

	var final game.Snapshot
	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	sink := budgetSink(cancel, opts.maxTicks, game.PresenterFunc(func(s game.Snapshot) {
		final = s
	}))

	if opts.headless {
		err = game.Run(runCtx, ep, sink)
	} else {
		err = watchChampion(runCtx, cfg, opts, ep, sprites, genome, entry.Fitness, sink)
	}
	if errors.Is(context.Cause(runCtx), errTickBudget) {
		slog.Info("max ticks reached", "tick", final.Tick)
		err = nil
	}

	stats := telemetry.NewEpisodeStats("champion", opts.seed, final)
	slog.Info("champion episode", "episode", stats)
	if werr := out.WriteEpisode(stats); werr != nil {
		slog.Error("failed to write episode", "error", werr)
	}
	return err
}

// errTickBudget ends a replay that reached -max-ticks.
var errTickBudget = errors.New("tick budget reached")

// budgetSink forwards to inner and cancels the run once maxTicks steps
// have been presented. maxTicks <= 0 never cancels.
func budgetSink(cancel context.CancelCauseFunc, maxTicks int, inner game.Presenter) game.Presenter {
	return game.PresenterFunc(func(s game.Snapshot) {
		inner.Present(s)
		if maxTicks > 0 && s.Tick >= maxTicks {
			cancel(errTickBudget)
		}
	})
}

// watchChampion draws the replay, stepping the episode from the render
// loop at a speed set by the controls panel.
func watchChampion(ctx context.Context, cfg *config.Config, opts appOptions, ep *game.Episode, sprites systems.Sprites, genome *genetics.Genome, fitness float64, sink game.Presenter) error {
	w := openWindow(cfg, sprites, opts.seed)
	defer w.close()

	controls := ui.NewControlsPanel(10, 70, 220)
	network := inspector.NewInspector(w.width)
	network.SetGenome(genome, fitness)
	w.overlays.SetEnabled(ui.OverlayNetwork, true)

	snap := ep.State()
	w.scene.Update(snap, true)
	for !rl.WindowShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.perf.Begin()
		w.handleInput()
		network.SetScreenWidth(w.width)
		if rl.IsKeyPressed(rl.KeySpace) {
			controls.TogglePause()
		}

		state := controls.State()
		fresh := false
		w.perf.Phase(telemetry.PhaseStep)
		for i := 0; i < stepsPerFrame(state) && !ep.Done() && ctx.Err() == nil; i++ {
			var err error
			if snap, err = ep.Step(); err != nil {
				return err
			}
			sink.Present(snap)
			fresh = true
		}
		w.scene.Update(snap, fresh)

		w.perf.Phase(telemetry.PhaseDraw)
		rl.BeginDrawing()
		w.drawWorld(snap, nil)
		w.hud.Draw(w.hudData(snap, speedLabel(state.Speed, state.Unlimited), state.Paused))
		if ep.Done() {
			w.hud.DrawLost(snap.Score, w.width, w.height)
		}
		if w.overlays.IsEnabled(ui.OverlayNetwork) {
			network.Draw()
		}
		w.drawPerf()
		state = controls.Draw(w.overlays)
		w.hud.DrawControls(w.height, fmt.Sprintf("Champion of generation %d  [SPACE] Pause  [N] Network  [B/R/G] Debug", ep.Generation()))
		rl.EndDrawing()

		w.perf.End()
		w.perf.RecordFrame()
		if state.Quit {
			return nil
		}
	}
	return nil
}

// stepsPerFrame converts the speed slider into episode steps per frame.
// Speeds below 1 still step once a frame.
func stepsPerFrame(state ui.ControlsState) int {
	switch {
	case state.Paused:
		return 0
	case state.Unlimited:
		return 64
	default:
		return max(int(state.Speed), 1)
	}
}
