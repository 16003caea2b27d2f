// Package systems contains the per-tick rules of the simulation: fly
// kinematics, the sweeper lane, silhouette masks and collision checks.
package systems

import (
	"github.com/pthm-cable/flappyfly/components"
	"github.com/pthm-cable/flappyfly/config"
)

// Kinematics integrates fly motion. The model is arcade, not physical:
// displacement restarts from the jump impulse every jump.
type Kinematics struct {
	cfg config.FlyConfig
}

// NewKinematics creates a kinematics system for the given fly parameters.
func NewKinematics(cfg config.FlyConfig) Kinematics {
	return Kinematics{cfg: cfg}
}

// Spawn returns a live fly at rest at (x, y).
func (k Kinematics) Spawn(x, y float64) components.Fly {
	return components.Fly{X: x, Y: y, JumpY: y, Alive: true}
}

// Jump applies the jump impulse and resets the tilt reference height.
func (k Kinematics) Jump(f *components.Fly) {
	f.Velocity = k.cfg.JumpVelocity
	f.TickCount = 0
	f.JumpY = f.Y
}

// Advance moves the fly one tick and returns the displacement applied.
func (k Kinematics) Advance(f *components.Fly) float64 {
	f.TickCount++
	t := float64(f.TickCount)
	d := f.Velocity*t + 0.5*k.cfg.Gravity*t*t

	// Upper bound first, then the lift exaggeration
	if d >= k.cfg.TerminalDisplacement {
		d = k.cfg.TerminalDisplacement
	}
	if d < 0 {
		d -= k.cfg.LiftBoost
	}

	f.Y += d

	if d < 0 || f.Y < f.JumpY+k.cfg.TiltHoldMargin {
		if f.Tilt < k.cfg.MaxTilt {
			f.Tilt = k.cfg.MaxTilt
		}
	} else if f.Tilt > k.cfg.MinTilt {
		f.Tilt -= k.cfg.RotationVelocity
		if f.Tilt < k.cfg.MinTilt {
			f.Tilt = k.cfg.MinTilt
		}
	}

	return d
}
