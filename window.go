package main

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappyfly/camera"
	"github.com/pthm-cable/flappyfly/config"
	"github.com/pthm-cable/flappyfly/game"
	"github.com/pthm-cable/flappyfly/renderer"
	"github.com/pthm-cable/flappyfly/systems"
	"github.com/pthm-cable/flappyfly/telemetry"
	"github.com/pthm-cable/flappyfly/ui"
)

// window holds the raylib side shared by every windowed mode.
type window struct {
	cfg       *config.Config
	cam       *camera.Camera
	scene     *renderer.Scene
	hud       *ui.HUD
	overlays  *ui.OverlayRegistry
	perf      *telemetry.PerfCollector
	perfPanel *ui.PerfPanel
	width     int32
	height    int32
}

// openWindow creates the window and everything that needs a GL context.
func openWindow(cfg *config.Config, sprites systems.Sprites, seed int64) *window {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	w := &window{
		cfg:       cfg,
		cam:       camera.New(float32(cfg.Screen.Width), float32(cfg.Screen.Height), float32(cfg.Screen.Width), float32(cfg.Screen.Height)),
		scene:     renderer.NewScene(cfg, sprites, seed),
		hud:       ui.NewHUD(),
		overlays:  ui.NewOverlayRegistry(),
		perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		perfPanel: ui.NewPerfPanel(10, 70, 260),
		width:     int32(cfg.Screen.Width),
		height:    int32(cfg.Screen.Height),
	}
	w.overlays.SetEnabled(ui.OverlayParticles, true)
	return w
}

// close releases textures and the window.
func (w *window) close() {
	w.scene.Unload()
	rl.CloseWindow()
}

// handleInput processes window, camera and overlay keys.
func (w *window) handleInput() {
	if rl.IsWindowResized() {
		w.width = int32(rl.GetScreenWidth())
		w.height = int32(rl.GetScreenHeight())
		w.cam.Resize(float32(w.width), float32(w.height))
	}

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	// Camera: wheel zooms, right drag pans, Home resets
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		w.cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		w.cam.Pan(-d.X, -d.Y)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		w.cam.Reset()
	}

	w.overlays.PollKeys()
}

// sceneOptions maps the overlay toggles onto scene layers.
func (w *window) sceneOptions() renderer.SceneOptions {
	return renderer.SceneOptions{
		Particles: w.overlays.IsEnabled(ui.OverlayParticles),
		Hitboxes:  w.overlays.IsEnabled(ui.OverlayHitboxes),
		Reference: w.overlays.IsEnabled(ui.OverlayReference),
		Gaps:      w.overlays.IsEnabled(ui.OverlayGaps),
	}
}

// drawWorld draws s through the camera. The caller is inside
// BeginDrawing.
func (w *window) drawWorld(s game.Snapshot, tint renderer.TintFunc) {
	rl.ClearBackground(rl.Black)
	rl.BeginMode2D(rl.Camera2D{
		Offset: rl.Vector2{X: float32(w.width) / 2, Y: float32(w.height) / 2},
		Target: rl.Vector2{X: w.cam.X, Y: w.cam.Y},
		Zoom:   w.cam.Scale(),
	})
	w.scene.Draw(s, tint, w.sceneOptions())
	rl.EndMode2D()
}

// hudData fills the counters every mode shows.
func (w *window) hudData(s game.Snapshot, speed string, paused bool) ui.HUDData {
	return ui.HUDData{
		Score:        s.Score,
		Generation:   s.Generation,
		Alive:        s.Alive,
		Total:        s.Total,
		Population:   s.Mode == game.ModePopulation,
		FPS:          rl.GetFPS(),
		Speed:        speed,
		Paused:       paused,
		ScreenWidth:  w.width,
		ScreenHeight: w.height,
	}
}

// drawPerf draws the perf panel when enabled.
func (w *window) drawPerf() {
	if w.overlays.IsEnabled(ui.OverlayPerf) {
		w.perfPanel.Draw(w.perf.Stats())
	}
}

func speedLabel(speed float32, unlimited bool) string {
	if unlimited {
		return "max"
	}
	return fmt.Sprintf("%.2gx", speed)
}
