package trainer

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/flappyfly/game"
)

// pausePoll is how often a paused Pace checks for resume or cancellation.
const pausePoll = 20 * time.Millisecond

// Pace throttles a watched run. It forwards each snapshot to its inner
// sink, then holds the simulation until the next tick is due or while
// paused. The hold happens between steps, on the driver's goroutine; the
// episode itself never waits on drawing. Speed and pause may be changed
// from any goroutine.
type Pace struct {
	ctx   context.Context
	inner game.Presenter
	rate  float64 // Ticks per second at speed 1

	speed  atomic.Uint64 // float64 bits; 0 = unthrottled
	paused atomic.Bool
	last   time.Time
}

// NewPace creates a pace at speed 1 for a run at rate ticks per second.
// Waits end early once ctx is done.
func NewPace(ctx context.Context, inner game.Presenter, rate float64) *Pace {
	p := &Pace{ctx: ctx, inner: inner, rate: rate}
	p.SetSpeed(1)
	return p
}

// SetSpeed sets the speed multiplier. Zero or less runs unthrottled.
func (p *Pace) SetSpeed(s float64) {
	p.speed.Store(math.Float64bits(max(s, 0)))
}

// Speed returns the speed multiplier.
func (p *Pace) Speed() float64 {
	return math.Float64frombits(p.speed.Load())
}

// SetPaused pauses or resumes the run.
func (p *Pace) SetPaused(paused bool) {
	p.paused.Store(paused)
}

// Paused reports whether the run is paused.
func (p *Pace) Paused() bool {
	return p.paused.Load()
}

// Present forwards s and waits for the next tick slot.
func (p *Pace) Present(s game.Snapshot) {
	if p.inner != nil {
		p.inner.Present(s)
	}
	p.wait()
}

func (p *Pace) wait() {
	for p.paused.Load() && p.ctx.Err() == nil {
		p.sleep(pausePoll)
	}

	speed := p.Speed()
	if speed <= 0 || p.rate <= 0 {
		p.last = time.Now()
		return
	}
	interval := time.Duration(float64(time.Second) / (p.rate * speed))
	if !p.last.IsZero() {
		p.sleep(time.Until(p.last.Add(interval)))
	}
	p.last = time.Now()
}

func (p *Pace) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-p.ctx.Done():
	}
}
