package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappyfly/telemetry"
)

// HUDData holds everything the in-play HUD shows.
type HUDData struct {
	Score        int
	Generation   int
	Alive        int
	Total        int
	Population   bool // Show the generation and alive counters
	FPS          int32
	Speed        string
	Paused       bool
	ScreenWidth  int32
	ScreenHeight int32
}

// GenerationLabel converts an episode's generation number into the count
// of generations completed before it, which is what the HUD shows.
func GenerationLabel(generation int) int {
	return max(generation, 1) - 1
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the score and counters.
func (h *HUD) Draw(data HUDData) {
	th := h.renderer.Theme
	score := fmt.Sprintf("%d", data.Score)
	w := rl.MeasureText(score, th.ScoreSize)
	rl.DrawText(score, data.ScreenWidth-w-22, 22, th.ScoreSize, th.ScoreShadow)
	rl.DrawText(score, data.ScreenWidth-w-20, 20, th.ScoreSize, rl.White)

	if data.Population {
		rl.DrawText(fmt.Sprintf("Gens: %d", GenerationLabel(data.Generation)), 10, 10, th.CounterSize, rl.White)
		rl.DrawText(fmt.Sprintf("Alive: %d/%d", data.Alive, data.Total), 10, 10+th.CounterSize+5, th.CounterSize, rl.White)
	}

	status := fmt.Sprintf("FPS: %d | Speed: %s", data.FPS, data.Speed)
	if data.Paused {
		status += " | PAUSED"
	}
	rl.DrawText(status, 10, data.ScreenHeight-45, th.HeaderFontSize, th.LabelColor)
}

// DrawCountdown draws the pre-play countdown digit.
func (h *HUD) DrawCountdown(remaining int, screenWidth, screenHeight int32) {
	if remaining <= 0 {
		return
	}
	th := h.renderer.Theme
	DrawCentered(fmt.Sprintf("%d", remaining), screenWidth/2, screenHeight/3, th.CountdownSize, rl.White)
	DrawCentered("Press SPACE to flap", screenWidth/2, screenHeight/3+th.CountdownSize+10, th.CounterSize, th.ValueColor)
}

// DrawLost draws the end-of-episode overlay.
func (h *HUD) DrawLost(score int, screenWidth, screenHeight int32) {
	th := h.renderer.Theme
	rl.DrawRectangle(0, 0, screenWidth, screenHeight, th.Dim)
	DrawCentered("YOU LOST", screenWidth/2, screenHeight/3, 60, th.LostColor)
	DrawCentered(fmt.Sprintf("Score: %d", score), screenWidth/2, screenHeight/3+70, 24, rl.White)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders frame and phase timings.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	padding := r.Theme.Padding
	phases := telemetry.Phases

	r.DrawPanel(p.x, p.y, p.width, int32(len(phases)+4)*r.Theme.LineHeight+padding*2)
	x := p.x + padding
	y := r.DrawSectionHeader(x, p.y+padding, "Performance")

	y = r.DrawLabelValue(x, y, "Frame", fmt.Sprintf("%s (%.0f fps)", stats.Frame.Round(time.Microsecond), stats.FPS))
	y = r.DrawLabelValue(x, y, "Work", fmt.Sprintf("%s avg, %s p95", stats.Avg.Round(time.Microsecond), stats.P95.Round(time.Microsecond)))
	y = r.DrawLabelValue(x, y, "Rate", fmt.Sprintf("%.0f/s", stats.Rate))

	for _, phase := range phases {
		pct := stats.PhasePct[phase]
		color := rl.LightGray
		if pct > 60 {
			color = rl.Red
		} else if pct > 30 {
			color = rl.Orange
		}
		rl.DrawText(
			fmt.Sprintf("%-10s %8s %5.1f%%", phase, stats.PhaseAvg[phase].Round(time.Microsecond), pct),
			x, y, r.Theme.FontSize, color,
		)
		y += r.Theme.LineHeight
	}
}

// TrainingPanelData holds data for the evolution stats panel.
type TrainingPanelData struct {
	Generation   int
	Last         telemetry.GenerationStats
	SpeciesCount int
	Champion     float64
	TopSpecies   []SpeciesInfo
	Done         bool
}

// SpeciesInfo holds info about a single species.
type SpeciesInfo struct {
	ID      int
	Size    int
	Age     int
	BestFit float64
	Color   rl.Color
}

// TrainingPanel renders the evolution statistics.
type TrainingPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewTrainingPanel creates a new training panel.
func NewTrainingPanel(x, y, width int32) *TrainingPanel {
	return &TrainingPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (n *TrainingPanel) SetPosition(x, y int32) {
	n.x = x
	n.y = y
}

// Draw renders the training panel.
func (n *TrainingPanel) Draw(data TrainingPanelData) {
	r := n.renderer
	padding := r.Theme.Padding
	lines := int32(9 + len(data.TopSpecies))
	r.DrawPanel(n.x, n.y, n.width, lines*r.Theme.LineHeight+padding*2)

	x := n.x + padding
	y := r.DrawSectionHeader(x, n.y+padding, "Evolution")

	state := fmt.Sprintf("%d", data.Generation)
	if data.Done {
		state += " (done)"
	}
	y = r.DrawLabelValue(x, y, "Generation", state)
	y = r.DrawLabelValue(x, y, "Species", fmt.Sprintf("%d", data.SpeciesCount))
	y = r.DrawLabelValue(x, y, "Champion", fmt.Sprintf("%.1f", data.Champion))

	if data.Last.Generation > 0 {
		y = r.DrawLabelValue(x, y, "Last max", fmt.Sprintf("%.1f", data.Last.FitnessMax))
		y = r.DrawLabelValue(x, y, "Last mean", fmt.Sprintf("%.1f", data.Last.FitnessMean))
		y = r.DrawLabelValue(x, y, "Score", fmt.Sprintf("%d in %d ticks", data.Last.Score, data.Last.Ticks))
	}

	if len(data.TopSpecies) > 0 {
		y = r.DrawSectionHeader(x, y+4, "Top Species")
		for _, sp := range data.TopSpecies {
			y = r.DrawColorSwatch(x, y, sp.Color,
				fmt.Sprintf("#%d: %d members (age %d, fit %.0f)", sp.ID, sp.Size, sp.Age, sp.BestFit))
		}
	}
}
