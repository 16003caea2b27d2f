package main

import (
	"math"

	"github.com/pthm-cable/flappyfly/game"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting value
}

// ParamVector holds the weights of a linear controller.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the bias and one weight per observation input.
// Inputs are divided by the screen height, so weights of a few units are
// enough to cross the jump threshold.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "bias", Min: -5, Max: 5, Default: 0},
			{Name: "y", Min: -10, Max: 10, Default: 1},
			{Name: "top_gap", Min: -10, Max: 10, Default: -1},
			{Name: "bottom_gap", Min: -10, Max: 10, Default: 1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the starting values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to the [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to clamped raw values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = min(max(spec.Min+normalized[i]*(spec.Max-spec.Min), spec.Min), spec.Max)
	}
	return raw
}

// LinearController jumps when tanh of a weighted sum of the observation
// crosses the decision threshold.
type LinearController struct {
	Bias, Y, Top, Bottom float64
	Scale                float64 // Observations are divided by this
}

// NewLinearController builds a controller from raw parameter values in
// ParamVector order.
func NewLinearController(raw []float64, scale float64) LinearController {
	if scale <= 0 {
		scale = 1
	}
	return LinearController{Bias: raw[0], Y: raw[1], Top: raw[2], Bottom: raw[3], Scale: scale}
}

// Decide implements game.Decider.
func (c LinearController) Decide(obs game.Observation) float64 {
	v := c.Bias + (c.Y*obs.Y+c.Top*obs.TopGap+c.Bottom*obs.BottomGap)/c.Scale
	return math.Tanh(v)
}
