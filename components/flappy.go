// Package components defines the plain data types the simulation operates on.
package components

// Fly is one simulated agent. Screen coordinates: y grows downward.
type Fly struct {
	X, Y      float64
	Velocity  float64 // Set on jump; displacement integrates from it using TickCount
	Tilt      float64 // Degrees, positive = nose up
	TickCount int     // Ticks since the last jump (or spawn)
	JumpY     float64 // Y at the last jump, the reference height for tilt
	Alive     bool
}

// Sweeper is an obstacle pair: a top piece hanging down to Height and a
// bottom piece starting Gap below it.
type Sweeper struct {
	ID     uint32
	X      float64
	Height float64 // Gap top
	Top    float64 // Y origin of the top piece (Height - piece height)
	Bottom float64 // Y origin of the bottom piece (Height + gap)
	Passed bool
}

// Right returns the x of the pair's right edge for a piece of the given width.
func (s Sweeper) Right(width float64) float64 {
	return s.X + width
}

// Ground is the two-tile floor strip scrolling with the sweepers.
type Ground struct {
	Y      float64
	X1, X2 float64
	Width  float64
}
