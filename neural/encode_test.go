package neural

import (
	"encoding/json"
	"math/rand"
	"strings"
	"testing"

	"github.com/pthm-cable/flappyfly/game"
)

// TestEncodedGenomeDecidesIdentically saves an evolved genome through JSON
// and checks the reloaded brain makes the same decisions.
func TestEncodedGenomeDecidesIdentically(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	idGen := NewGenomeIDGenerator()
	opts := DefaultNEATOptions()
	opts.MutateAddNodeProb = 0.5
	opts.MutateAddLinkProb = 0.5

	genome := CreateBrainGenome(1, 1.0, rng)
	for i := 0; i < 30; i++ {
		if _, err := MutateBrainGenome(genome, opts, idGen, rng); err != nil {
			t.Fatalf("MutateBrainGenome: %v", err)
		}
	}

	rec, err := EncodeGenome(genome)
	if err != nil {
		t.Fatalf("EncodeGenome: %v", err)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back GenomeRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	decoded, err := back.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want, err := NewBrain(genome, 600)
	if err != nil {
		t.Fatalf("NewBrain(original): %v", err)
	}
	got, err := NewBrain(decoded, 600)
	if err != nil {
		t.Fatalf("NewBrain(decoded): %v", err)
	}

	for i := 0; i < 20; i++ {
		obs := game.Observation{Y: rng.Float64() * 700, TopGap: rng.Float64() * 300, BottomGap: rng.Float64() * 300}
		if a, b := want.Decide(obs), got.Decide(obs); a != b {
			t.Errorf("Decide(%+v): original %v, decoded %v", obs, a, b)
		}
	}
}

func TestDecodeRejectsBrokenRecords(t *testing.T) {
	tests := []struct {
		name string
		rec  GenomeRecord
		want string
	}{
		{
			name: "unknown kind",
			rec:  GenomeRecord{Nodes: []NodeRecord{{ID: 1, Kind: "sensor", Activation: "linear"}}},
			want: "unknown kind",
		},
		{
			name: "unknown activation",
			rec:  GenomeRecord{Nodes: []NodeRecord{{ID: 1, Kind: "input", Activation: "relu6"}}},
			want: "unknown activation",
		},
		{
			name: "dangling gene",
			rec: GenomeRecord{
				Nodes: []NodeRecord{{ID: 1, Kind: "input", Activation: "linear"}},
				Genes: []GeneRecord{{In: 1, Out: 2, Innovation: 1}},
			},
			want: "missing node",
		},
		{
			name: "duplicate node",
			rec: GenomeRecord{Nodes: []NodeRecord{
				{ID: 1, Kind: "input", Activation: "linear"},
				{ID: 1, Kind: "output", Activation: "linear"},
			}},
			want: "duplicate node",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.rec.Decode()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Decode() err = %v, want %q", err, tt.want)
			}
		})
	}
}
