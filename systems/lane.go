package systems

import (
	"math/rand"

	"github.com/pthm-cable/flappyfly/components"
	"github.com/pthm-cable/flappyfly/config"
)

// Lane owns the ordered sweeper sequence. Insertion order is spawn order
// is left-to-right order; every mutation keeps X ascending.
type Lane struct {
	cfg      config.SweeperConfig
	width    float64
	respawnX float64
	rng      *rand.Rand
	sweepers []components.Sweeper
	nextID   uint32
}

// NewLane creates an empty lane. Call Spawn to place the first pair.
func NewLane(cfg *config.Config, rng *rand.Rand) *Lane {
	return &Lane{
		cfg:      cfg.Sweeper,
		width:    cfg.SweeperRight(),
		respawnX: cfg.RespawnX(),
		rng:      rng,
		sweepers: make([]components.Sweeper, 0, 4),
	}
}

// Spawn appends a pair at x with a gap top drawn uniformly from
// [min_height, max_height).
func (l *Lane) Spawn(x float64) components.Sweeper {
	h := l.cfg.MinHeight + l.rng.Intn(l.cfg.MaxHeight-l.cfg.MinHeight)
	return l.Place(x, float64(h))
}

// Respawn spawns a pair at the right edge of the playfield.
func (l *Lane) Respawn() components.Sweeper {
	return l.Spawn(l.respawnX)
}

// Place appends a pair at x with an explicit gap top. A pair is never
// placed left of the current rightmost pair.
func (l *Lane) Place(x, height float64) components.Sweeper {
	if n := len(l.sweepers); n > 0 && x < l.sweepers[n-1].X {
		x = l.sweepers[n-1].X
	}
	l.nextID++
	s := components.Sweeper{
		ID:     l.nextID,
		X:      x,
		Height: height,
		Top:    height - float64(l.cfg.Height),
		Bottom: height + l.cfg.Gap,
	}
	l.sweepers = append(l.sweepers, s)
	return s
}

// Advance scrolls every pair left by the lane velocity.
func (l *Lane) Advance() {
	for i := range l.sweepers {
		l.sweepers[i].X -= l.cfg.Velocity
	}
}

// MarkPassed flags every unpassed pair whose x is left of refX and returns
// how many flipped this call. Each pair flips at most once.
func (l *Lane) MarkPassed(refX float64) int {
	n := 0
	for i := range l.sweepers {
		s := &l.sweepers[i]
		if !s.Passed && s.X < refX {
			s.Passed = true
			n++
		}
	}
	return n
}

// Retire removes pairs whose right edge has scrolled past x=0 and returns
// how many were removed. Surviving pairs keep their order.
func (l *Lane) Retire() int {
	kept := l.sweepers[:0]
	for _, s := range l.sweepers {
		if s.Right(l.width) < 0 {
			continue
		}
		kept = append(kept, s)
	}
	removed := len(l.sweepers) - len(kept)
	l.sweepers = kept
	return removed
}

// Reference returns the index of the pair a fly at leadX should look at:
// the first pair, or the second once leadX is past the first pair's right
// edge. Returns -1 for an empty lane.
func (l *Lane) Reference(leadX float64) int {
	switch {
	case len(l.sweepers) == 0:
		return -1
	case len(l.sweepers) > 1 && leadX > l.sweepers[0].Right(l.width):
		return 1
	default:
		return 0
	}
}

// Len returns the number of pairs in the lane.
func (l *Lane) Len() int {
	return len(l.sweepers)
}

// At returns the pair at index i.
func (l *Lane) At(i int) components.Sweeper {
	return l.sweepers[i]
}

// Width returns the pair width used for right-edge checks.
func (l *Lane) Width() float64 {
	return l.width
}

// Sorted reports whether the sequence is in ascending x order.
func (l *Lane) Sorted() bool {
	for i := 1; i < len(l.sweepers); i++ {
		if l.sweepers[i].X < l.sweepers[i-1].X {
			return false
		}
	}
	return true
}

// AppendTo appends a copy of every pair to dst.
func (l *Lane) AppendTo(dst []components.Sweeper) []components.Sweeper {
	return append(dst, l.sweepers...)
}

// AdvanceGround scrolls both ground tiles, leapfrogging a tile that has
// fully left the screen to the right of the other one.
func AdvanceGround(g *components.Ground, velocity float64) {
	g.X1 -= velocity
	g.X2 -= velocity

	if g.X1+g.Width < 0 {
		g.X1 = g.X2 + g.Width
	}
	if g.X2+g.Width < 0 {
		g.X2 = g.X1 + g.Width
	}
}

// NewGround returns a ground strip at level y with two adjacent tiles.
func NewGround(cfg config.GroundConfig) components.Ground {
	return components.Ground{Y: cfg.Level, X1: 0, X2: cfg.TileWidth, Width: cfg.TileWidth}
}
