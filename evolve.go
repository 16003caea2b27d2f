package main

import (
	"context"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappyfly/config"
	"github.com/pthm-cable/flappyfly/game"
	"github.com/pthm-cable/flappyfly/inspector"
	"github.com/pthm-cable/flappyfly/neural"
	"github.com/pthm-cable/flappyfly/renderer"
	"github.com/pthm-cable/flappyfly/systems"
	"github.com/pthm-cable/flappyfly/telemetry"
	"github.com/pthm-cable/flappyfly/trainer"
	"github.com/pthm-cable/flappyfly/ui"
)

// runEvolve trains a population. Headless runs go flat out; windowed runs
// train on a second goroutine, paced so the episodes can be watched.
func runEvolve(ctx context.Context, cfg *config.Config, opts appOptions) error {
	out, err := telemetry.NewOutputManager(opts.outputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	topts := trainer.Options{
		Seed:        opts.seed,
		Generations: opts.generations,
		MaxTicks:    opts.maxTicks,
		NEAT:        opts.neat,
		Output:      out,
		LogStats:    opts.logStats || opts.headless,
	}

	if opts.headless {
		tr, err := trainer.New(cfg, topts)
		if err != nil {
			return err
		}
		slog.Info("starting headless evolution",
			"seed", opts.seed,
			"generations", tr.Generations(),
			"max_ticks", tr.MaxTicks(),
			"output_dir", out.Dir(),
		)
		err = tr.Run(ctx)
		logChampion(tr)
		return err
	}

	sprites, err := systems.LoadSprites(cfg)
	if err != nil {
		return err
	}
	w := openWindow(cfg, sprites, opts.seed)
	defer w.close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sink game.LatestSink
	pace := trainer.NewPace(runCtx, &sink, float64(cfg.Screen.TargetFPS))
	topts.Sink = pace
	tr, err := trainer.New(cfg, topts)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- tr.Run(runCtx)
	}()

	controls := ui.NewControlsPanel(10, 70, 220)
	training := ui.NewTrainingPanel(240, 10, 300)
	champion := inspector.NewInspector(w.width)
	w.perfPanel.SetPosition(240, 10)
	w.overlays.SetEnabled(ui.OverlaySpeciesColors, true)
	w.overlays.SetEnabled(ui.OverlayTraining, true)

	var (
		lastSeq  uint64
		runErr   error
		finished bool
	)
	for !rl.WindowShouldClose() && ctx.Err() == nil {
		w.perf.Begin()
		w.handleInput()
		champion.SetScreenWidth(w.width)
		if rl.IsKeyPressed(rl.KeySpace) {
			controls.TogglePause()
		}
		if rl.IsKeyPressed(rl.KeyH) {
			controls.Toggle()
		}

		if !finished {
			select {
			case runErr = <-done:
				finished = true
			default:
			}
		}

		snap, seq := sink.Latest()
		w.scene.Update(snap, seq != lastSeq)
		lastSeq = seq

		status := tr.Status()
		champion.SetGenome(status.Champion, status.ChampionFitness)
		var tint renderer.TintFunc
		if w.overlays.IsEnabled(ui.OverlaySpeciesColors) {
			tint = slotTint(status.Colors)
		}

		w.perf.Phase(telemetry.PhaseDraw)
		rl.BeginDrawing()
		w.drawWorld(snap, tint)
		state := controls.State()
		w.hud.Draw(w.hudData(snap, speedLabel(state.Speed, state.Unlimited), state.Paused))
		if w.overlays.IsEnabled(ui.OverlayTraining) {
			training.Draw(trainingData(status))
		}
		w.drawPerf()
		if w.overlays.IsEnabled(ui.OverlayNetwork) {
			champion.Draw()
		}
		state = controls.Draw(w.overlays)
		if finished {
			ui.DrawCentered("Evolution finished", w.width/2, w.height/3, 40, rl.White)
		}
		w.hud.DrawControls(w.height, "[SPACE] Pause  [H] Controls  [C/E] Visual  [T/F/N] Panels  [B/R/G] Debug  [Wheel] Zoom")
		rl.EndDrawing()

		pace.SetPaused(state.Paused)
		if state.Unlimited {
			pace.SetSpeed(0)
		} else {
			pace.SetSpeed(float64(state.Speed))
		}

		w.perf.End()
		w.perf.RecordFrame()
		if state.Quit {
			break
		}
	}

	cancel()
	if !finished {
		runErr = <-done
	}
	logChampion(tr)
	return runErr
}

// slotTint colors each controller slot by its genome's species.
func slotTint(colors []neural.SpeciesColor) renderer.TintFunc {
	return func(slot int) rl.Color {
		if slot < 0 || slot >= len(colors) {
			return rl.White
		}
		c := colors[slot]
		return rl.Color{R: c.R, G: c.G, B: c.B, A: 255}
	}
}

func trainingData(st *trainer.Status) ui.TrainingPanelData {
	d := ui.TrainingPanelData{
		Generation:   st.Generation,
		Last:         st.Last,
		SpeciesCount: st.Species.Count,
		Champion:     st.ChampionFitness,
		Done:         st.Done,
	}
	for _, sp := range st.TopSpecies {
		d.TopSpecies = append(d.TopSpecies, ui.SpeciesInfo{
			ID:      sp.ID,
			Size:    sp.Size,
			Age:     sp.Age,
			BestFit: sp.BestFitness,
			Color:   rl.Color{R: sp.Color.R, G: sp.Color.G, B: sp.Color.B, A: 255},
		})
	}
	return d
}

// logChampion reports the best genome of a finished or stopped run.
func logChampion(tr *trainer.Trainer) {
	st := tr.Status()
	if st.Champion == nil {
		slog.Info("run ended without a champion")
		return
	}
	slog.Info("champion",
		"genome", st.Champion.Id,
		"fitness", st.ChampionFitness,
		"generation", st.Last.Generation,
		"hall_of_fame", tr.HallOfFame().Size(),
	)
}
