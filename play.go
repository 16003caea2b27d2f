package main

import (
	"context"
	"errors"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappyfly/config"
	"github.com/pthm-cable/flappyfly/game"
	"github.com/pthm-cable/flappyfly/systems"
	"github.com/pthm-cable/flappyfly/telemetry"
	"github.com/pthm-cable/flappyfly/ui"
)

// runPlay runs keyboard episodes until the window closes. Each episode
// opens with a countdown and ends with the lost overlay, then restarts.
func runPlay(ctx context.Context, cfg *config.Config, opts appOptions) error {
	if opts.headless {
		return errors.New("play mode needs a window")
	}

	sprites, err := systems.LoadSprites(cfg)
	if err != nil {
		return err
	}
	out, err := telemetry.NewOutputManager(opts.outputDir)
	if err != nil {
		return err
	}
	defer out.Close()

	w := openWindow(cfg, sprites, opts.seed)
	defer w.close()

	var latch game.KeyLatch
	episode := int64(0)
	start := func() (*game.Episode, error) {
		episode++
		return game.NewSingle(cfg, &latch, game.Options{Seed: opts.seed + episode, Sprites: &sprites})
	}

	ep, err := start()
	if err != nil {
		return err
	}
	flow := ui.NewPlayFlow(cfg.Screen.TargetFPS)
	snap := ep.State()
	w.scene.Update(snap, true)
	paused := false

	for !rl.WindowShouldClose() {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.perf.Begin()
		w.handleInput()
		if rl.IsKeyPressed(rl.KeyP) {
			paused = !paused
		}

		fresh := false
		if !paused {
			if flow.Stepping() {
				// A press is consumed by this frame's step
				if rl.IsKeyPressed(rl.KeySpace) || rl.IsKeyPressed(rl.KeyUp) || rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
					latch.Press()
				}
				w.perf.Phase(telemetry.PhaseStep)
				if snap, err = ep.Step(); err != nil {
					return err
				}
				fresh = true
				if snap.Done {
					stats := telemetry.NewEpisodeStats("keyboard", opts.seed+episode, snap)
					slog.Info("episode over", "episode", stats)
					if err := out.WriteEpisode(stats); err != nil {
						slog.Error("failed to write episode", "error", err)
					}
				}
			}
			if flow.Update(ep.Done()) {
				if ep, err = start(); err != nil {
					return err
				}
				snap, fresh = ep.State(), true
			}
		}
		w.scene.Update(snap, fresh)

		w.perf.Phase(telemetry.PhaseDraw)
		rl.BeginDrawing()
		w.drawWorld(snap, nil)
		w.hud.Draw(w.hudData(snap, "1x", paused))
		switch flow.Phase() {
		case ui.PhaseCountdown:
			w.hud.DrawCountdown(flow.Countdown(), w.width, w.height)
		case ui.PhaseLost:
			w.hud.DrawLost(snap.Score, w.width, w.height)
		}
		w.drawPerf()
		w.hud.DrawControls(w.height, "[SPACE] Flap  [P] Pause  [F] Perf  [B/R/G] Debug  [Wheel] Zoom  [F11] Fullscreen")
		rl.EndDrawing()

		w.perf.End()
		w.perf.RecordFrame()
	}
	return nil
}
