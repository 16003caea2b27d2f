package neural

import (
	"os"

	"github.com/yaricom/goNEAT/v4/neat"
	"gopkg.in/yaml.v3"
)

// BrainInputs is the number of observation inputs (y, top gap, bottom gap).
// The network carries one bias sensor on top of these.
const BrainInputs = 3

// BrainOutputs is the number of outputs from the brain network.
const BrainOutputs = 1

// DefaultNEATOptions returns NEAT options tuned for flappy fly.
// PopSize and SurvivalThresh are overwritten from the game config by
// NewPopulation.
func DefaultNEATOptions() *neat.Options {
	return &neat.Options{
		// Weight mutation
		WeightMutPower: 1.5,

		// Structural mutation rates
		MutateAddNodeProb:      0.03,
		MutateAddLinkProb:      0.08,
		MutateToggleEnableProb: 0.01,

		MutateLinkWeightsProb: 0.8,
		MutateOnlyProb:        0.25,

		MateOnlyProb: 0.2,

		// Speciation
		CompatThreshold: 3.0,
		DisjointCoeff:   1.0,
		ExcessCoeff:     1.0,
		MutdiffCoeff:    0.4,

		DropOffAge:     15,
		SurvivalThresh: 0.2,

		PopSize: 50,
	}
}

// LoadNEATOptions reads a YAML file over DefaultNEATOptions. Keys use
// goNEAT's own option names; missing keys keep their defaults.
func LoadNEATOptions(path string) (*neat.Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	opts := DefaultNEATOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, err
	}
	return opts, nil
}
