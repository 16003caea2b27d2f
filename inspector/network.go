package inspector

import (
	"math"
	"sort"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"github.com/yaricom/goNEAT/v4/neat/network"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Sensor labels in node ID order: the bias node, then the observation.
var InputLabels = []string{"Bias", "Y", "Top", "Bottom"}

// OutputLabels names the output nodes in ID order.
var OutputLabels = []string{"Jump"}

// Diagram colors.
var (
	ColorNodeSensor   = rl.Color{R: 90, G: 160, B: 220, A: 255}
	ColorNodeHidden   = rl.Color{R: 160, G: 160, B: 160, A: 255}
	ColorNodeOutput   = rl.Color{R: 230, G: 180, B: 60, A: 255}
	ColorEdgePositive = rl.Color{R: 200, G: 80, B: 80, A: 100}
	ColorEdgeNegative = rl.Color{R: 80, G: 80, B: 200, A: 100}
	ColorEdgeDisabled = rl.Color{R: 90, G: 90, B: 90, A: 60}
	ColorLabelDim     = rl.Color{R: 120, G: 120, B: 120, A: 255}
)

// NodeKind is a node's role in the diagram.
type NodeKind int

const (
	KindSensor NodeKind = iota
	KindHidden
	KindOutput
)

// NodeLayout is one node's place in the diagram.
type NodeLayout struct {
	ID    int
	Kind  NodeKind
	Label string
	Layer int
	X, Y  float32 // Relative to the diagram's top left corner
}

// EdgeLayout is one gene drawn between two nodes, by index into Nodes.
type EdgeLayout struct {
	From, To int
	Weight   float64
	Enabled  bool
}

// Layout places a genome's nodes in columns by their depth from the
// sensors. Sensors sit in the first column and outputs in the last.
type Layout struct {
	Nodes  []NodeLayout
	Edges  []EdgeLayout
	Layers int
}

// BuildLayout lays out genome within a width x height box. A nil genome
// gives an empty layout.
func BuildLayout(genome *genetics.Genome, width, height float32) Layout {
	if genome == nil || len(genome.Nodes) == 0 {
		return Layout{}
	}

	index := make(map[int]int, len(genome.Nodes))
	for i, n := range genome.Nodes {
		index[n.Id] = i
	}

	depth := nodeDepths(genome, index)

	outputLayer := 1
	for i, n := range genome.Nodes {
		if kindOf(n) == KindHidden {
			outputLayer = max(outputLayer, max(depth[i], 1)+1)
		}
	}

	layout := Layout{Layers: outputLayer + 1}
	columns := make([][]int, layout.Layers)
	sensors, outputs := 0, 0
	for i, n := range genome.Nodes {
		nl := NodeLayout{ID: n.Id, Kind: kindOf(n)}
		switch nl.Kind {
		case KindSensor:
			nl.Layer = 0
			nl.Label = label(InputLabels, sensors)
			sensors++
		case KindOutput:
			nl.Layer = outputLayer
			nl.Label = label(OutputLabels, outputs)
			outputs++
		default:
			nl.Layer = min(max(depth[i], 1), outputLayer-1)
		}
		layout.Nodes = append(layout.Nodes, nl)
		columns[nl.Layer] = append(columns[nl.Layer], i)
	}

	colWidth := width / float32(layout.Layers)
	for layer, members := range columns {
		sort.SliceStable(members, func(a, b int) bool {
			return layout.Nodes[members[a]].ID < layout.Nodes[members[b]].ID
		})
		spacing := height / float32(len(members)+1)
		for row, i := range members {
			layout.Nodes[i].X = colWidth*float32(layer) + colWidth/2
			layout.Nodes[i].Y = spacing * float32(row+1)
		}
	}

	for _, g := range genome.Genes {
		from, okFrom := index[g.Link.InNode.Id]
		to, okTo := index[g.Link.OutNode.Id]
		if !okFrom || !okTo {
			continue
		}
		layout.Edges = append(layout.Edges, EdgeLayout{
			From:    from,
			To:      to,
			Weight:  g.Link.ConnectionWeight,
			Enabled: g.IsEnabled,
		})
	}
	return layout
}

// nodeDepths returns each node's longest enabled path from a sensor,
// indexed like genome.Nodes. Nodes are visited in topological order; a
// genome with a cycle falls back to bounded relaxation.
func nodeDepths(genome *genetics.Genome, index map[int]int) []int {
	depth := make([]int, len(genome.Nodes))
	g := simple.NewDirectedGraph()
	for i := range genome.Nodes {
		g.AddNode(simple.Node(i))
	}

	var edges [][2]int
	for _, gene := range genome.Genes {
		if !gene.IsEnabled {
			continue
		}
		from, okFrom := index[gene.Link.InNode.Id]
		to, okTo := index[gene.Link.OutNode.Id]
		if !okFrom || !okTo || from == to || kindOf(genome.Nodes[to]) == KindSensor {
			continue
		}
		edges = append(edges, [2]int{from, to})
		g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
	}

	order, err := topo.Sort(g)
	if err != nil {
		for range depth {
			changed := false
			for _, e := range edges {
				if d := depth[e[0]] + 1; d > depth[e[1]] {
					depth[e[1]] = d
					changed = true
				}
			}
			if !changed {
				break
			}
		}
		return depth
	}

	for _, n := range order {
		from := int(n.ID())
		succ := g.From(n.ID())
		for succ.Next() {
			to := int(succ.Node().ID())
			depth[to] = max(depth[to], depth[from]+1)
		}
	}
	return depth
}

func kindOf(n *network.NNode) NodeKind {
	switch n.NeuronType {
	case network.InputNeuron, network.BiasNeuron:
		return KindSensor
	case network.OutputNeuron:
		return KindOutput
	default:
		return KindHidden
	}
}

func label(labels []string, i int) string {
	if i < len(labels) {
		return labels[i]
	}
	return ""
}

// DrawNetworkDiagram renders a layout at (x, y).
func DrawNetworkDiagram(x, y int32, layout Layout) {
	if len(layout.Nodes) == 0 {
		rl.DrawText("No network data", x+10, y+10, 14, ColorLabelDim)
		return
	}

	pos := func(i int) rl.Vector2 {
		n := layout.Nodes[i]
		return rl.Vector2{X: float32(x) + n.X, Y: float32(y) + n.Y}
	}

	for _, e := range layout.Edges {
		drawEdge(pos(e.From), pos(e.To), e)
	}

	const radius = 6
	for i, n := range layout.Nodes {
		p := pos(i)
		rl.DrawCircleV(p, radius, nodeColor(n.Kind))
		rl.DrawCircleLinesV(p, radius, rl.Color{R: 100, G: 100, B: 100, A: 255})
		if n.Label == "" {
			continue
		}
		if n.Layer == 0 {
			w := rl.MeasureText(n.Label, 10)
			rl.DrawText(n.Label, int32(p.X)-radius-w-4, int32(p.Y)-5, 10, ColorLabelDim)
		} else {
			rl.DrawText(n.Label, int32(p.X)+radius+4, int32(p.Y)-5, 10, ColorLabelDim)
		}
	}
}

func nodeColor(k NodeKind) rl.Color {
	switch k {
	case KindSensor:
		return ColorNodeSensor
	case KindOutput:
		return ColorNodeOutput
	default:
		return ColorNodeHidden
	}
}

// drawEdge renders a connection, thicker and more opaque for heavier
// weights.
func drawEdge(from, to rl.Vector2, e EdgeLayout) {
	if !e.Enabled {
		rl.DrawLineEx(from, to, 0.5, ColorEdgeDisabled)
		return
	}
	w := math.Abs(e.Weight)
	thickness := float32(min(max(w*1.5, 0.5), 3))

	color := ColorEdgePositive
	if e.Weight < 0 {
		color = ColorEdgeNegative
	}
	color.A = uint8(min(40+w*40, 150))
	rl.DrawLineEx(from, to, thickness, color)
}
