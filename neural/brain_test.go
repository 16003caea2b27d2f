package neural

import (
	"math"
	"math/rand"
	"testing"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/pthm-cable/flappyfly/game"
)

// fullGenome returns a fully connected genome whose links carry weights in
// (bias, y, top, bottom) order.
func fullGenome(t testing.TB, weights [BrainInputs + 1]float64) *genetics.Genome {
	t.Helper()
	genome := CreateBrainGenome(1, 1.0, rand.New(rand.NewSource(1)))
	if len(genome.Genes) != len(weights) {
		t.Fatalf("expected %d genes, got %d", len(weights), len(genome.Genes))
	}
	for i, w := range weights {
		genome.Genes[i].Link.ConnectionWeight = w
	}
	return genome
}

func TestCreateBrainGenome(t *testing.T) {
	genome := CreateBrainGenome(7, 0.5, rand.New(rand.NewSource(42)))

	if genome.Id != 7 {
		t.Errorf("expected genome ID 7, got %d", genome.Id)
	}

	// Bias + inputs + outputs
	expectedNodes := 1 + BrainInputs + BrainOutputs
	if len(genome.Nodes) != expectedNodes {
		t.Errorf("expected %d nodes, got %d", expectedNodes, len(genome.Nodes))
	}
	if genome.Nodes[0].NeuronType != network.BiasNeuron {
		t.Errorf("first node should be the bias, got type %v", genome.Nodes[0].NeuronType)
	}
	if len(genome.Genes) == 0 {
		t.Error("expected at least 1 gene, got 0")
	}

	t.Logf("Created genome with %d nodes and %d genes", len(genome.Nodes), len(genome.Genes))
}

func TestCreateBrainGenomeNeverEmpty(t *testing.T) {
	genome := CreateBrainGenome(1, 0, rand.New(rand.NewSource(1)))
	if len(genome.Genes) != 1 {
		t.Fatalf("expected a single fallback gene, got %d", len(genome.Genes))
	}
	if _, err := NewBrain(genome, 600); err != nil {
		t.Fatalf("NewBrain failed: %v", err)
	}
}

func TestCreateBrainGenomeIsSeedDeterministic(t *testing.T) {
	a := CreateBrainGenome(1, 0.5, rand.New(rand.NewSource(9)))
	b := CreateBrainGenome(1, 0.5, rand.New(rand.NewSource(9)))
	if len(a.Genes) != len(b.Genes) {
		t.Fatalf("gene counts differ: %d vs %d", len(a.Genes), len(b.Genes))
	}
	for i := range a.Genes {
		if a.Genes[i].Link.ConnectionWeight != b.Genes[i].Link.ConnectionWeight {
			t.Errorf("gene %d weight differs", i)
		}
	}
}

func TestBrainDecide(t *testing.T) {
	tests := []struct {
		name    string
		weights [BrainInputs + 1]float64
		obs     game.Observation
		check   func(out float64) bool
	}{
		{
			name:  "zero weights sit at the midpoint",
			obs:   game.Observation{Y: 300, TopGap: 50, BottomGap: 150},
			check: func(out float64) bool { return math.Abs(out-0.5) < 1e-9 },
		},
		{
			name:    "low fly with positive y weight",
			weights: [BrainInputs + 1]float64{0, 1, 0, 0},
			obs:     game.Observation{Y: 500},
			check:   func(out float64) bool { return out > 0.9 && out < 1 },
		},
		{
			name:    "negative bias",
			weights: [BrainInputs + 1]float64{-2, 0, 0, 0},
			obs:     game.Observation{Y: 500},
			check:   func(out float64) bool { return out > 0 && out < 0.01 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			brain, err := NewBrain(fullGenome(t, tt.weights), 600)
			if err != nil {
				t.Fatalf("NewBrain failed: %v", err)
			}
			if out := brain.Decide(tt.obs); !tt.check(out) {
				t.Errorf("Decide(%+v) = %v", tt.obs, out)
			}
		})
	}
}

func TestBrainDecideIsStateless(t *testing.T) {
	brain, err := NewBrain(fullGenome(t, [BrainInputs + 1]float64{0.3, -1.2, 0.8, 0.5}), 600)
	if err != nil {
		t.Fatalf("NewBrain failed: %v", err)
	}
	obs := game.Observation{Y: 350, TopGap: 40, BottomGap: 160}
	first := brain.Decide(obs)
	brain.Decide(game.Observation{Y: 10, TopGap: 400})
	if again := brain.Decide(obs); math.Abs(first-again) > 1e-12 {
		t.Errorf("same observation gave %v then %v", first, again)
	}
}

func TestBrainThinkWrongInputCount(t *testing.T) {
	brain, err := NewBrain(fullGenome(t, [BrainInputs + 1]float64{}), 600)
	if err != nil {
		t.Fatalf("NewBrain failed: %v", err)
	}
	if _, err := brain.Think(make([]float64, BrainInputs+1)); err == nil {
		t.Error("expected error for wrong input count, got nil")
	}
}

func TestBrainCounts(t *testing.T) {
	brain, err := NewBrain(fullGenome(t, [BrainInputs + 1]float64{}), 600)
	if err != nil {
		t.Fatalf("NewBrain failed: %v", err)
	}
	if brain.NodeCount() != BrainInputs+1+BrainOutputs {
		t.Errorf("expected %d nodes, got %d", BrainInputs+1+BrainOutputs, brain.NodeCount())
	}
	if brain.LinkCount() != BrainInputs+1 {
		t.Errorf("expected %d links, got %d", BrainInputs+1, brain.LinkCount())
	}
}

func TestDefaultNEATOptions(t *testing.T) {
	opts := DefaultNEATOptions()

	if opts.MutateAddNodeProb <= 0 || opts.MutateAddLinkProb <= 0 || opts.MutateLinkWeightsProb <= 0 {
		t.Error("mutation rates should be positive")
	}
	if opts.CompatThreshold <= 0 {
		t.Error("CompatThreshold should be positive")
	}

	t.Logf("NEAT options: add_node=%.2f, add_link=%.2f, compat=%.2f",
		opts.MutateAddNodeProb, opts.MutateAddLinkProb, opts.CompatThreshold)
}

func BenchmarkBrainDecide(b *testing.B) {
	brain, err := NewBrain(CreateBrainGenome(1, 1.0, rand.New(rand.NewSource(1))), 600)
	if err != nil {
		b.Fatalf("NewBrain failed: %v", err)
	}
	obs := game.Observation{Y: 350, TopGap: 40, BottomGap: 160}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		brain.Decide(obs)
	}
}
