package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Speed slider range, as a multiple of real time.
const (
	MinSpeed float32 = 0.25
	MaxSpeed float32 = 16
)

// ControlsState is the outcome of one frame of the controls panel.
type ControlsState struct {
	Paused    bool
	Speed     float32 // Multiple of real time; MaxSpeed means unthrottled
	Quit      bool
	Unlimited bool // Speed slider is at its maximum
}

// ControlsPanel renders the run controls and the overlay legend.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
	state    ControlsState
}

// NewControlsPanel creates a new controls panel at speed 1.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
		state:    ControlsState{Speed: 1},
	}
}

// SetVisible shows or hides the panel.
func (c *ControlsPanel) SetVisible(visible bool) {
	c.visible = visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// TogglePause flips the paused state, for keyboard shortcuts.
func (c *ControlsPanel) TogglePause() {
	c.state.Paused = !c.state.Paused
}

// State returns the current controls state without drawing.
func (c *ControlsPanel) State() ControlsState {
	return c.state
}

// Draw renders the panel and applies any button or slider changes.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) ControlsState {
	c.state.Quit = false
	if !c.visible {
		return c.state
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight

	items := 0
	for _, cat := range overlays.Categories() {
		items += len(overlays.ByCategory(cat)) + 1
	}
	panelHeight := int32(items)*lineHeight + padding*4 + 70
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	y := c.y + padding
	inner := float32(c.width - padding*2)
	half := (inner - float32(padding)) / 2

	label := "Pause"
	if c.state.Paused {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: float32(c.x + padding), Y: float32(y), Width: half, Height: 22}, label) {
		c.state.Paused = !c.state.Paused
	}
	if gui.Button(rl.Rectangle{X: float32(c.x+padding) + half + float32(padding), Y: float32(y), Width: half, Height: 22}, "Quit") {
		c.state.Quit = true
	}
	y += 30

	speedText := fmt.Sprintf("%.2gx", c.state.Speed)
	if c.state.Unlimited {
		speedText = "max"
	}
	rl.DrawText("Speed "+speedText, c.x+padding, y, r.Theme.FontSize, r.Theme.LabelColor)
	y += lineHeight
	c.state.Speed = gui.SliderBar(
		rl.Rectangle{X: float32(c.x + padding), Y: float32(y), Width: inner, Height: 14},
		"", "",
		c.state.Speed, MinSpeed, MaxSpeed,
	)
	c.state.Unlimited = c.state.Speed >= MaxSpeed
	y += 24

	for _, category := range overlays.Categories() {
		rl.DrawText(categoryLabel(category), c.x+padding, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
		y += lineHeight
		for _, desc := range overlays.ByCategory(category) {
			c.drawToggle(c.x+padding, y, desc, overlays.IsEnabled(desc.ID), c.width-padding*2)
			y += lineHeight
		}
		y += 4
	}
	return c.state
}

// drawToggle draws a single overlay toggle line.
func (c *ControlsPanel) drawToggle(x, y int32, desc OverlayDescriptor, enabled bool, width int32) {
	r := c.renderer

	statusColor := rl.Color{R: 80, G: 80, B: 80, A: 255}
	if enabled {
		statusColor = rl.Color{R: 100, G: 200, B: 100, A: 255}
	}
	rl.DrawRectangle(x, y+2, 8, 8, statusColor)

	nameColor := r.Theme.LabelColor
	if enabled {
		nameColor = rl.White
	}
	rl.DrawText(desc.Name, x+14, y, r.Theme.FontSize, nameColor)

	if desc.KeyLabel != "" {
		keyText := fmt.Sprintf("[%s]", desc.KeyLabel)
		keyWidth := rl.MeasureText(keyText, r.Theme.FontSize)
		rl.DrawText(keyText, x+width-keyWidth, y, r.Theme.FontSize, rl.Color{R: 150, G: 150, B: 150, A: 255})
	}
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "visual":
		return "Visual"
	case "panels":
		return "Panels"
	case "debug":
		return "Debug"
	default:
		return cat
	}
}
