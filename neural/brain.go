package neural

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"

	"github.com/pthm-cable/flappyfly/game"
)

// Brain wraps a goNEAT network as a fly's decision function.
type Brain struct {
	Genome  *genetics.Genome
	network *network.Network
	scale   float64   // Observations are divided by this
	sensors []float64 // bias followed by BrainInputs values
}

// NewBrain builds the phenotype for genome. scale normalizes observations
// and is usually the screen height; values <= 0 leave them raw.
func NewBrain(genome *genetics.Genome, scale float64) (*Brain, error) {
	phenotype, err := genome.Genesis(genome.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to build network from genome: %w", err)
	}
	if scale <= 0 {
		scale = 1
	}

	return &Brain{
		Genome:  genome,
		network: phenotype,
		scale:   scale,
		sensors: make([]float64, BrainInputs+1),
	}, nil
}

// Think runs the network on BrainInputs values and returns its outputs.
func (b *Brain) Think(inputs []float64) ([]float64, error) {
	if len(inputs) != BrainInputs {
		return nil, fmt.Errorf("expected %d inputs, got %d", BrainInputs, len(inputs))
	}

	b.sensors[0] = 1
	copy(b.sensors[1:], inputs)
	if err := b.network.LoadSensors(b.sensors); err != nil {
		return nil, fmt.Errorf("failed to load sensors: %w", err)
	}

	depth, err := b.network.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = 5 // Fallback for simple networks
	}
	for i := 0; i < depth; i++ {
		if _, err := b.network.Activate(); err != nil {
			return nil, fmt.Errorf("activation failed: %w", err)
		}
	}

	outputs := b.network.ReadOutputs()

	// Each tick is evaluated from a clean network
	if _, err := b.network.Flush(); err != nil {
		return nil, fmt.Errorf("flush failed: %w", err)
	}
	return outputs, nil
}

// Decide implements game.Decider. A network that fails to activate
// answers NaN, which the episode treats as no jump.
func (b *Brain) Decide(obs game.Observation) float64 {
	out, err := b.Think([]float64{obs.Y / b.scale, obs.TopGap / b.scale, obs.BottomGap / b.scale})
	if err != nil || len(out) == 0 {
		return math.NaN()
	}
	return out[0]
}

// NodeCount returns the number of nodes in the network.
func (b *Brain) NodeCount() int {
	return b.network.NodeCount()
}

// LinkCount returns the number of links (connections) in the network.
func (b *Brain) LinkCount() int {
	return b.network.LinkCount()
}

// CreateBrainGenome creates a brain genome with a bias node, BrainInputs
// inputs and BrainOutputs outputs. Each sensor-to-output link exists with
// probability connectionProb; at least one always does.
func CreateBrainGenome(id int, connectionProb float64, rng *rand.Rand) *genetics.Genome {
	nodes := make([]*network.NNode, 0, BrainInputs+1+BrainOutputs)

	bias := network.NewNNode(1, network.BiasNeuron)
	bias.ActivationType = neatmath.LinearActivation
	nodes = append(nodes, bias)

	// Input nodes (IDs 2 to BrainInputs+1)
	for i := 1; i <= BrainInputs; i++ {
		node := network.NewNNode(i+1, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, node)
	}

	sensors := len(nodes)
	for i := 1; i <= BrainOutputs; i++ {
		node := network.NewNNode(sensors+i, network.OutputNeuron)
		node.ActivationType = neatmath.SigmoidSteepenedActivation
		nodes = append(nodes, node)
	}

	genes := make([]*genetics.Gene, 0, sensors*BrainOutputs)
	innovNum := int64(1)
	for i := 0; i < sensors; i++ {
		for j := 0; j < BrainOutputs; j++ {
			// Innovation numbers are positional so equal links line up in crossover
			currentInnov := innovNum
			innovNum++

			if rng.Float64() < connectionProb {
				genes = append(genes, genetics.NewGeneWithTrait(
					nil,
					rng.Float64()*4-2,
					nodes[i],
					nodes[sensors+j],
					false,
					currentInnov,
					0,
				))
			}
		}
	}

	if len(genes) == 0 {
		genes = append(genes, genetics.NewGeneWithTrait(nil, rng.Float64()*2-1, nodes[0], nodes[sensors], false, 1, 0))
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}
