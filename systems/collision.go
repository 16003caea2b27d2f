package systems

import (
	"math"

	"github.com/pthm-cable/flappyfly/components"
	"github.com/pthm-cable/flappyfly/config"
)

// Oracle answers collision and bounds questions. It holds no per-tick state:
// every answer is a function of the sprites, the config and its arguments.
type Oracle struct {
	fly       *Silhouette
	top       *Mask
	bottom    *Mask
	ground    float64
	bottomOff float64 // Fly height minus the floor forgiveness
	ceiling   float64
}

// NewOracle creates an oracle from the sprites and elimination margins.
func NewOracle(cfg *config.Config, sprites Sprites) *Oracle {
	return &Oracle{
		fly:       NewSilhouette(sprites.Fly),
		top:       sprites.Sweeper.FlipVertical(),
		bottom:    sprites.Sweeper,
		ground:    cfg.Ground.Level,
		bottomOff: cfg.FlyBottomSlop(),
		ceiling:   cfg.Bounds.Ceiling,
	}
}

// FlyMask returns the fly mask at tilt and its top-left corner on screen.
// The rotated mask is centred where the unrotated sprite's centre is.
func (o *Oracle) FlyMask(f components.Fly) (m *Mask, x, y int) {
	base := o.fly.Base()
	m = o.fly.Rotated(f.Tilt)
	x = int(math.RoundToEven(f.X)) + base.W/2 - m.W/2
	y = int(math.RoundToEven(f.Y)) + base.H/2 - m.H/2
	return m, x, y
}

// Collides reports a pixel overlap between the fly and either piece of s.
func (o *Oracle) Collides(f components.Fly, s components.Sweeper) bool {
	m, fx, fy := o.FlyMask(f)
	sx := int(math.RoundToEven(s.X))

	// Cheap reject on x before touching any bits
	if sx >= fx+m.W || sx+o.bottom.W <= fx {
		return false
	}

	if m.Overlap(o.bottom, sx-fx, int(math.RoundToEven(s.Bottom))-fy) {
		return true
	}
	return m.Overlap(o.top, sx-fx, int(math.RoundToEven(s.Top))-fy)
}

// OutOfBounds reports whether the fly touched the ground (less the
// forgiveness margin) or rose above the ceiling.
func (o *Oracle) OutOfBounds(f components.Fly) bool {
	return f.Y+o.bottomOff >= o.ground || f.Y < o.ceiling
}
