package game

import (
	"math"
	"sync/atomic"

	"github.com/pthm-cable/flappyfly/components"
	"github.com/pthm-cable/flappyfly/config"
)

// Observation is what a decision function sees each tick.
type Observation struct {
	Y         float64 // Fly y
	TopGap    float64 // |y - gap top| of the reference pair
	BottomGap float64 // |y - gap bottom| of the reference pair
}

// Inputs returns the observation as a flat vector in (y, top, bottom) order.
func (o Observation) Inputs() []float64 {
	return []float64{o.Y, o.TopGap, o.BottomGap}
}

// observe builds the observation of f against pair. With no pair in the
// lane both distances are zero.
func observe(f components.Fly, pair components.Sweeper, ok bool) Observation {
	if !ok {
		return Observation{Y: f.Y}
	}
	return Observation{
		Y:         f.Y,
		TopGap:    math.Abs(f.Y - pair.Height),
		BottomGap: math.Abs(f.Y - pair.Bottom),
	}
}

// Decider maps an observation to a scalar action. Values above the
// configured threshold mean jump.
type Decider interface {
	Decide(obs Observation) float64
}

// DeciderFunc adapts a function to Decider.
type DeciderFunc func(obs Observation) float64

// Decide calls f(obs).
func (f DeciderFunc) Decide(obs Observation) float64 {
	return f(obs)
}

// Controller binds a decision function to its fitness accumulator. The
// accumulator is owned by the caller and outlives the fly.
type Controller struct {
	Decider Decider
	Fitness *float64
}

// KeyLatch is an edge-triggered decider for keyboard play. Press may be
// called from the input loop; the next Decide consumes it.
type KeyLatch struct {
	pressed atomic.Bool
}

// Press records a key-down edge.
func (k *KeyLatch) Press() {
	k.pressed.Store(true)
}

// Decide returns 1 once per recorded press and 0 otherwise.
func (k *KeyLatch) Decide(Observation) float64 {
	if k.pressed.Swap(false) {
		return 1
	}
	return 0
}

// wantsJump applies the decision contract. Non-finite and out-of-range
// values never jump.
func wantsJump(v float64, d config.DecisionConfig) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if v < d.Min || v > d.Max {
		return false
	}
	return v > d.Threshold
}
