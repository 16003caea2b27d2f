package ui

import "testing"

func TestPlayFlowCountdown(t *testing.T) {
	f := NewPlayFlow(10)
	if f.Phase() != PhaseCountdown || f.Stepping() {
		t.Fatalf("new flow phase = %v", f.Phase())
	}

	seen := map[int]int{}
	for i := 0; i < 30; i++ {
		seen[f.Countdown()]++
		f.Update(false)
	}
	for _, d := range []int{3, 2, 1} {
		if seen[d] != 10 {
			t.Errorf("digit %d shown %d frames, want 10", d, seen[d])
		}
	}
	if f.Phase() != PhasePlaying || !f.Stepping() {
		t.Errorf("phase after countdown = %v, want playing", f.Phase())
	}
	if f.Countdown() != 0 {
		t.Errorf("Countdown while playing = %d", f.Countdown())
	}
}

func TestPlayFlowLostThenRestart(t *testing.T) {
	f := NewPlayFlow(4)
	for f.Phase() == PhaseCountdown {
		f.Update(false)
	}

	for i := 0; i < 20; i++ {
		if f.Update(false) {
			t.Fatal("restart while playing")
		}
	}
	f.Update(true)
	if f.Phase() != PhaseLost {
		t.Fatalf("phase = %v, want lost", f.Phase())
	}

	frames := 0
	for !f.Update(true) {
		frames++
		if frames > 100 {
			t.Fatal("lost overlay never released")
		}
	}
	if frames+1 != LostHoldSeconds*4 {
		t.Errorf("lost held %d frames, want %d", frames+1, LostHoldSeconds*4)
	}
	if f.Phase() != PhaseCountdown {
		t.Errorf("phase after restart = %v, want countdown", f.Phase())
	}
}

func TestPlayFlowZeroFPS(t *testing.T) {
	f := NewPlayFlow(0)
	for i := 0; i < CountdownSeconds; i++ {
		f.Update(false)
	}
	if f.Phase() != PhasePlaying {
		t.Errorf("phase = %v, want playing", f.Phase())
	}
}

func TestGenerationLabel(t *testing.T) {
	tests := []struct {
		gen  int
		want int
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{50, 49},
	}
	for _, tc := range tests {
		if got := GenerationLabel(tc.gen); got != tc.want {
			t.Errorf("GenerationLabel(%d) = %d, want %d", tc.gen, got, tc.want)
		}
	}
}
