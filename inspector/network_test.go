package inspector

import (
	"math/rand"
	"testing"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/pthm-cable/flappyfly/neural"
)

// chainGenome builds bias, three inputs, two hidden nodes in series and
// one output: input 2 -> hidden 6 -> hidden 7 -> output 5.
func chainGenome() *genetics.Genome {
	nodes := []*network.NNode{
		network.NewNNode(1, network.BiasNeuron),
		network.NewNNode(2, network.InputNeuron),
		network.NewNNode(3, network.InputNeuron),
		network.NewNNode(4, network.InputNeuron),
		network.NewNNode(5, network.OutputNeuron),
		network.NewNNode(6, network.HiddenNeuron),
		network.NewNNode(7, network.HiddenNeuron),
	}
	genes := []*genetics.Gene{
		genetics.NewGeneWithTrait(nil, 1.0, nodes[1], nodes[5], false, 1, 0),
		genetics.NewGeneWithTrait(nil, -0.5, nodes[5], nodes[6], false, 2, 0),
		genetics.NewGeneWithTrait(nil, 2.0, nodes[6], nodes[4], false, 3, 0),
		genetics.NewGeneWithTrait(nil, 0.3, nodes[0], nodes[4], false, 4, 0),
	}
	genes[3].IsEnabled = false
	return genetics.NewGenome(1, nil, nodes, genes)
}

func TestBuildLayoutLayers(t *testing.T) {
	l := BuildLayout(chainGenome(), 300, 200)

	if l.Layers != 4 {
		t.Fatalf("layers = %d, want 4", l.Layers)
	}
	want := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 6: 1, 7: 2, 5: 3}
	for _, n := range l.Nodes {
		if n.Layer != want[n.ID] {
			t.Errorf("node %d layer = %d, want %d", n.ID, n.Layer, want[n.ID])
		}
		if n.X < 0 || n.X > 300 || n.Y <= 0 || n.Y >= 200 {
			t.Errorf("node %d at (%f, %f) outside the box", n.ID, n.X, n.Y)
		}
	}
}

func TestBuildLayoutLabels(t *testing.T) {
	l := BuildLayout(chainGenome(), 300, 200)
	labels := map[int]string{}
	for _, n := range l.Nodes {
		labels[n.ID] = n.Label
	}
	want := map[int]string{1: "Bias", 2: "Y", 3: "Top", 4: "Bottom", 5: "Jump", 6: "", 7: ""}
	for id, w := range want {
		if labels[id] != w {
			t.Errorf("node %d label = %q, want %q", id, labels[id], w)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(BuildLayout(chainGenome(), 300, 200))
	if s.Nodes != 7 || s.Hidden != 2 || s.Links != 3 || s.Disabled != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestBuildLayoutMinimalGenome(t *testing.T) {
	g := neural.CreateBrainGenome(1, 1.0, rand.New(rand.NewSource(1)))
	l := BuildLayout(g, 200, 100)

	// No hidden nodes: a sensor column and an output column
	if l.Layers != 2 {
		t.Errorf("layers = %d, want 2", l.Layers)
	}
	if len(l.Edges) != neural.BrainInputs+1 {
		t.Errorf("%d edges, want %d", len(l.Edges), neural.BrainInputs+1)
	}
}

func TestBuildLayoutNil(t *testing.T) {
	if l := BuildLayout(nil, 100, 100); len(l.Nodes) != 0 || l.Layers != 0 {
		t.Errorf("nil genome layout = %+v", l)
	}
}

func TestInspectorCachesLayout(t *testing.T) {
	ins := NewInspector(1200)
	g := chainGenome()
	ins.SetGenome(g, 10)
	first := ins.Summary()

	ins.SetGenome(g, 20)
	if ins.Summary() != first || ins.Genome() != g {
		t.Error("same genome should keep its layout")
	}
	ins.SetGenome(nil, 0)
	if ins.Summary().Nodes != 0 {
		t.Error("nil genome should clear the layout")
	}
}

func TestBuildLayoutCycleFallsBack(t *testing.T) {
	g := chainGenome()
	back := genetics.NewGeneWithTrait(nil, 1.0, g.Nodes[6], g.Nodes[5], false, 5, 0)
	g.Genes = append(g.Genes, back)

	l := BuildLayout(g, 300, 200)
	for _, n := range l.Nodes {
		switch n.Kind {
		case KindOutput:
			if n.Layer != l.Layers-1 {
				t.Errorf("output layer = %d, want %d", n.Layer, l.Layers-1)
			}
		case KindHidden:
			if n.Layer < 1 || n.Layer > l.Layers-2 {
				t.Errorf("hidden node %d in layer %d of %d", n.ID, n.Layer, l.Layers)
			}
		}
		if n.X < 0 || n.X > 300 || n.Y <= 0 || n.Y >= 200 {
			t.Errorf("node %d at (%f, %f) outside the box", n.ID, n.X, n.Y)
		}
	}
}
