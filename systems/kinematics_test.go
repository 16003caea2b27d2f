package systems

import (
	"math"
	"testing"

	"github.com/pthm-cable/flappyfly/config"
)

func TestAdvanceFromRest(t *testing.T) {
	k := NewKinematics(config.Default().Fly)
	f := k.Spawn(230, 350)

	want := []struct {
		d, y, tilt float64
	}{
		{1.5, 351.5, 25},
		{6, 357.5, 25},
		{13.5, 371, 25},
		{16, 387, 25}, // clamped: 24 -> 16
		{16, 403, 5},  // past jump height + 50, tilt starts to decay
		{16, 419, -15},
		{16, 435, -35},
		{16, 451, -55},
		{16, 467, -75},
		{16, 483, -90}, // -95 clamped to the floor
		{16, 499, -90},
	}

	for i, w := range want {
		d := k.Advance(&f)
		if d != w.d || f.Y != w.y || f.Tilt != w.tilt {
			t.Fatalf("tick %d: d=%v y=%v tilt=%v, want d=%v y=%v tilt=%v", i+1, d, f.Y, f.Tilt, w.d, w.y, w.tilt)
		}
		if f.TickCount != i+1 {
			t.Fatalf("tick %d: TickCount = %d", i+1, f.TickCount)
		}
	}
}

func TestJumpTrajectory(t *testing.T) {
	k := NewKinematics(config.Default().Fly)
	f := k.Spawn(230, 387)
	f.Tilt = -55
	k.Jump(&f)

	if f.Velocity != -10.5 || f.TickCount != 0 || f.JumpY != 387 {
		t.Fatalf("after jump: v=%v tc=%d jumpY=%v", f.Velocity, f.TickCount, f.JumpY)
	}

	// Negative displacements get the extra -2 lift
	wantY := []float64{376, 359, 339, 319, 302, 291, 291, 303}
	for i, y := range wantY {
		k.Advance(&f)
		if f.Y != y {
			t.Fatalf("tick %d after jump: y = %v, want %v", i+1, f.Y, y)
		}
		if f.Tilt != 25 {
			t.Fatalf("tick %d after jump: tilt = %v, want 25", i+1, f.Tilt)
		}
	}
}

func TestDisplacementNeverExceedsTerminal(t *testing.T) {
	k := NewKinematics(config.Default().Fly)
	f := k.Spawn(230, 350)

	for tick := 0; tick < 500; tick++ {
		// Jump on an irregular schedule to cover every phase of the arc
		if tick%7 == 0 || tick%11 == 0 {
			k.Jump(&f)
		}
		d := k.Advance(&f)
		if d > 16 {
			t.Fatalf("tick %d: displacement %v exceeds 16", tick, d)
		}
		if f.Tilt > 25 || f.Tilt < -90 {
			t.Fatalf("tick %d: tilt %v outside [-90, 25]", tick, f.Tilt)
		}
		if math.IsNaN(f.Y) {
			t.Fatalf("tick %d: NaN y", tick)
		}
	}
}

func TestTiltSnapsOnlyUpward(t *testing.T) {
	cfg := config.Default().Fly
	cfg.MaxTilt = 25
	k := NewKinematics(cfg)

	// A tilt already above max is left alone while rising
	f := k.Spawn(0, 300)
	f.Tilt = 40
	k.Jump(&f)
	k.Advance(&f)
	if f.Tilt != 40 {
		t.Errorf("tilt = %v, want 40 kept", f.Tilt)
	}
}
