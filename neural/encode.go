package neural

import (
	"fmt"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// GenomeRecord is a portable form of a brain genome, used to save
// champions and load them back for play.
type GenomeRecord struct {
	ID    int          `json:"id"`
	Nodes []NodeRecord `json:"nodes"`
	Genes []GeneRecord `json:"genes"`
}

// NodeRecord is one genome node.
type NodeRecord struct {
	ID         int    `json:"id"`
	Kind       string `json:"kind"`       // bias, input, hidden or output
	Activation string `json:"activation"` // see activationNames
}

// GeneRecord is one connection gene.
type GeneRecord struct {
	In         int     `json:"in"`
	Out        int     `json:"out"`
	Weight     float64 `json:"weight"`
	Enabled    bool    `json:"enabled"`
	Innovation int64   `json:"innovation"`
}

var activationNames = []struct {
	name string
	typ  neatmath.NodeActivationType
}{
	{"sigmoid_steepened", neatmath.SigmoidSteepenedActivation},
	{"tanh", neatmath.TanhActivation},
	{"linear", neatmath.LinearActivation},
}

func activationName(typ neatmath.NodeActivationType) (string, error) {
	for _, a := range activationNames {
		if a.typ == typ {
			return a.name, nil
		}
	}
	return "", fmt.Errorf("unsupported activation %v", typ)
}

func activationType(name string) (neatmath.NodeActivationType, error) {
	for _, a := range activationNames {
		if a.name == name {
			return a.typ, nil
		}
	}
	return 0, fmt.Errorf("unknown activation %q", name)
}

func nodeKind(node *network.NNode) (string, error) {
	switch node.NeuronType {
	case network.BiasNeuron:
		return "bias", nil
	case network.InputNeuron:
		return "input", nil
	case network.HiddenNeuron:
		return "hidden", nil
	case network.OutputNeuron:
		return "output", nil
	}
	return "", fmt.Errorf("node %d: unsupported neuron type %v", node.Id, node.NeuronType)
}

func newNodeOfKind(id int, kind string) (*network.NNode, error) {
	switch kind {
	case "bias":
		return network.NewNNode(id, network.BiasNeuron), nil
	case "input":
		return network.NewNNode(id, network.InputNeuron), nil
	case "hidden":
		return network.NewNNode(id, network.HiddenNeuron), nil
	case "output":
		return network.NewNNode(id, network.OutputNeuron), nil
	}
	return nil, fmt.Errorf("node %d: unknown kind %q", id, kind)
}

// EncodeGenome converts genome to a GenomeRecord.
func EncodeGenome(genome *genetics.Genome) (GenomeRecord, error) {
	if genome == nil {
		return GenomeRecord{}, errNilGenome
	}

	rec := GenomeRecord{
		ID:    genome.Id,
		Nodes: make([]NodeRecord, 0, len(genome.Nodes)),
		Genes: make([]GeneRecord, 0, len(genome.Genes)),
	}
	for _, node := range genome.Nodes {
		kind, err := nodeKind(node)
		if err != nil {
			return GenomeRecord{}, err
		}
		act, err := activationName(node.ActivationType)
		if err != nil {
			return GenomeRecord{}, fmt.Errorf("node %d: %w", node.Id, err)
		}
		rec.Nodes = append(rec.Nodes, NodeRecord{ID: node.Id, Kind: kind, Activation: act})
	}
	for _, gene := range genome.Genes {
		rec.Genes = append(rec.Genes, GeneRecord{
			In:         gene.Link.InNode.Id,
			Out:        gene.Link.OutNode.Id,
			Weight:     gene.Link.ConnectionWeight,
			Enabled:    gene.IsEnabled,
			Innovation: gene.InnovationNum,
		})
	}
	return rec, nil
}

// Decode rebuilds the genome described by r.
func (r GenomeRecord) Decode() (*genetics.Genome, error) {
	nodes := make([]*network.NNode, 0, len(r.Nodes))
	byID := make(map[int]*network.NNode, len(r.Nodes))
	for _, n := range r.Nodes {
		if _, dup := byID[n.ID]; dup {
			return nil, fmt.Errorf("duplicate node %d", n.ID)
		}
		node, err := newNodeOfKind(n.ID, n.Kind)
		if err != nil {
			return nil, err
		}
		if node.ActivationType, err = activationType(n.Activation); err != nil {
			return nil, fmt.Errorf("node %d: %w", n.ID, err)
		}
		byID[n.ID] = node
		nodes = append(nodes, node)
	}

	genes := make([]*genetics.Gene, 0, len(r.Genes))
	for _, g := range r.Genes {
		in, out := byID[g.In], byID[g.Out]
		if in == nil || out == nil {
			return nil, fmt.Errorf("gene %d: link %d -> %d references a missing node", g.Innovation, g.In, g.Out)
		}
		gene := genetics.NewGeneWithTrait(nil, g.Weight, in, out, false, g.Innovation, 0)
		gene.IsEnabled = g.Enabled
		genes = append(genes, gene)
	}

	return genetics.NewGenome(r.ID, nil, nodes, genes), nil
}
