// Package inspector draws the topology of a NEAT genome, used to show the
// champion of an evolution run.
package inspector

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// Panel dimensions
const (
	PanelWidth    = 320
	PanelPadding  = 10
	HeaderHeight  = 30
	DiagramHeight = 200
)

// Panel colors
var (
	ColorPanelBg     = rl.Color{R: 30, G: 30, B: 35, A: 240}
	ColorPanelHeader = rl.Color{R: 45, G: 45, B: 55, A: 255}
	ColorPanelBorder = rl.Color{R: 70, G: 70, B: 80, A: 255}
	ColorHeaderText  = rl.Color{R: 255, G: 255, B: 255, A: 255}
)

// Summary counts a genome's structure.
type Summary struct {
	Nodes    int
	Hidden   int
	Links    int
	Disabled int
}

// Summarize counts nodes and links in a layout.
func Summarize(l Layout) Summary {
	s := Summary{Nodes: len(l.Nodes)}
	for _, n := range l.Nodes {
		if n.Kind == KindHidden {
			s.Hidden++
		}
	}
	for _, e := range l.Edges {
		if e.Enabled {
			s.Links++
		} else {
			s.Disabled++
		}
	}
	return s
}

// Inspector shows one genome and its fitness in a side panel.
type Inspector struct {
	genome  *genetics.Genome
	fitness float64
	layout  Layout
	summary Summary
	panelX  int32
	panelY  int32
}

// NewInspector creates an inspector docked to the right of the screen.
func NewInspector(screenWidth int32) *Inspector {
	ins := &Inspector{}
	ins.SetScreenWidth(screenWidth)
	return ins
}

// SetScreenWidth re-docks the panel after a resize.
func (ins *Inspector) SetScreenWidth(screenWidth int32) {
	ins.panelX = screenWidth - PanelWidth - 10
	ins.panelY = 10
}

// SetGenome changes the genome shown. The layout is rebuilt only when the
// genome changes.
func (ins *Inspector) SetGenome(genome *genetics.Genome, fitness float64) {
	ins.fitness = fitness
	if genome == ins.genome {
		return
	}
	ins.genome = genome
	ins.layout = BuildLayout(genome, PanelWidth-2*PanelPadding-60, DiagramHeight)
	ins.summary = Summarize(ins.layout)
}

// Genome returns the genome shown, or nil.
func (ins *Inspector) Genome() *genetics.Genome {
	return ins.genome
}

// Summary returns the structure counts of the genome shown.
func (ins *Inspector) Summary() Summary {
	return ins.summary
}

// Draw renders the panel.
func (ins *Inspector) Draw() {
	panelHeight := int32(HeaderHeight + PanelPadding*3 + 3*18 + DiagramHeight)

	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, panelHeight, ColorPanelBg)
	rl.DrawRectangleLinesEx(
		rl.Rectangle{X: float32(ins.panelX), Y: float32(ins.panelY), Width: PanelWidth, Height: float32(panelHeight)},
		1,
		ColorPanelBorder,
	)
	rl.DrawRectangle(ins.panelX, ins.panelY, PanelWidth, HeaderHeight, ColorPanelHeader)
	rl.DrawText("CHAMPION", ins.panelX+PanelPadding, ins.panelY+7, 16, ColorHeaderText)

	x := ins.panelX + PanelPadding
	y := ins.panelY + HeaderHeight + PanelPadding
	if ins.genome == nil {
		rl.DrawText("Waiting for the first generation", x, y, 12, ColorLabelDim)
		return
	}

	s := ins.summary
	rl.DrawText(fmt.Sprintf("Genome %d  Fitness %.1f", ins.genome.Id, ins.fitness), x, y, 14, ColorHeaderText)
	y += 18
	rl.DrawText(fmt.Sprintf("Nodes: %d (%d hidden)", s.Nodes, s.Hidden), x, y, 12, rl.LightGray)
	y += 18
	rl.DrawText(fmt.Sprintf("Links: %d enabled, %d disabled", s.Links, s.Disabled), x, y, 12, rl.LightGray)
	y += 18

	rl.DrawLine(x, y, ins.panelX+PanelWidth-PanelPadding, y, ColorPanelBorder)
	y += PanelPadding

	// Leave room on the left for sensor labels
	DrawNetworkDiagram(x+40, y, ins.layout)
}
