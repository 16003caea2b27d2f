package systems

import (
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func randomMask(rng *rand.Rand, w, h int, density float64) *Mask {
	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if rng.Float64() < density {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

func bruteOverlap(a, b *Mask, dx, dy int) bool {
	for y := 0; y < a.H; y++ {
		for x := 0; x < a.W; x++ {
			if a.At(x, y) && b.At(x-dx, y-dy) {
				return true
			}
		}
	}
	return false
}

func TestSetAtCount(t *testing.T) {
	m := NewMask(130, 3)
	m.Set(0, 0, true)
	m.Set(63, 1, true)
	m.Set(64, 1, true)
	m.Set(129, 2, true)
	m.Set(130, 2, true) // out of range, ignored
	m.Set(-1, 0, true)

	if m.Count() != 4 {
		t.Fatalf("Count = %d, want 4", m.Count())
	}
	for _, p := range [][2]int{{0, 0}, {63, 1}, {64, 1}, {129, 2}} {
		if !m.At(p[0], p[1]) {
			t.Errorf("At(%d, %d) = false", p[0], p[1])
		}
	}
	if m.At(130, 2) || m.At(-1, 0) {
		t.Error("out of range pixel reads as set")
	}

	m.Set(64, 1, false)
	if m.At(64, 1) || m.Count() != 3 {
		t.Error("clear failed")
	}
}

// TestOverlapMatchesBruteForce checks the word-packed overlap against a
// pixel-by-pixel reference over offsets crossing every word boundary.
func TestOverlapMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	sizes := [][2]int{{7, 5}, {68, 48}, {104, 20}, {130, 9}}

	for _, sa := range sizes {
		for _, sb := range sizes {
			a := randomMask(rng, sa[0], sa[1], 0.02)
			b := randomMask(rng, sb[0], sb[1], 0.02)
			for dy := -sb[1] - 1; dy <= sa[1]+1; dy += 2 {
				for dx := -sb[0] - 2; dx <= sa[0]+2; dx++ {
					got := a.Overlap(b, dx, dy)
					want := bruteOverlap(a, b, dx, dy)
					if got != want {
						t.Fatalf("%dx%d vs %dx%d at (%d,%d): got %v, want %v",
							sa[0], sa[1], sb[0], sb[1], dx, dy, got, want)
					}
				}
			}
		}
	}
}

func TestOverlapSinglePixels(t *testing.T) {
	a := NewMask(100, 1)
	a.Set(70, 0, true)
	b := NewMask(10, 1)
	b.Set(3, 0, true)

	tests := []struct {
		dx   int
		want bool
	}{
		{67, true},
		{66, false},
		{68, false},
		{-3, false},
	}
	for _, tt := range tests {
		if got := a.Overlap(b, tt.dx, 0); got != tt.want {
			t.Errorf("Overlap dx=%d = %v, want %v", tt.dx, got, tt.want)
		}
	}
}

func TestFlipVertical(t *testing.T) {
	m := NewMask(10, 4)
	m.Set(5, 0, true)
	f := m.FlipVertical()
	if !f.At(5, 3) || f.Count() != 1 {
		t.Errorf("flip misplaced pixel")
	}
	if !m.At(5, 0) {
		t.Error("flip modified the source")
	}
}

func TestRotate(t *testing.T) {
	m := NewMask(3, 2)
	m.Set(0, 0, true)

	tests := []struct {
		deg          float64
		w, h         int
		wantX, wantY int
	}{
		{0, 3, 2, 0, 0},
		{90, 2, 3, 0, 2},  // top-left corner swings to bottom-left
		{180, 3, 2, 2, 1}, // opposite corner
	}
	for _, tt := range tests {
		r := m.Rotate(tt.deg)
		if r.W != tt.w || r.H != tt.h {
			t.Errorf("Rotate(%v) size %dx%d, want %dx%d", tt.deg, r.W, r.H, tt.w, tt.h)
			continue
		}
		if !r.At(tt.wantX, tt.wantY) || r.Count() != 1 {
			t.Errorf("Rotate(%v) pixel not at (%d,%d)", tt.deg, tt.wantX, tt.wantY)
		}
	}

	r := m.Rotate(0)
	r.Set(2, 1, true)
	if m.At(2, 1) {
		t.Error("Rotate(0) aliased the source")
	}
}

func TestRotatedFlyEnlarges(t *testing.T) {
	fly := DefaultFlySilhouette(68, 48)
	r := fly.Rotate(25)
	if r.W <= fly.W || r.H <= fly.H {
		t.Errorf("rotated size %dx%d not larger than %dx%d", r.W, r.H, fly.W, fly.H)
	}
	// Nearest-neighbour keeps the area roughly intact
	if c0, c1 := fly.Count(), r.Count(); c1 < c0*9/10 || c1 > c0*11/10 {
		t.Errorf("rotated area %d drifted from %d", c1, c0)
	}
}

func TestDefaultSilhouettes(t *testing.T) {
	fly := DefaultFlySilhouette(68, 48)
	if got, want := fly.Bounds(), image.Rect(1, 1, 67, 47); got != want {
		t.Errorf("fly bounds = %v, want %v", got, want)
	}

	sw := DefaultSweeperSilhouette(104, 640)
	if got := sw.Count(); got != 40*104+600*92 {
		t.Errorf("sweeper count = %d", got)
	}
	if !sw.At(0, 0) || sw.At(0, 40) || !sw.At(6, 40) {
		t.Error("sweeper lip/shaft shape wrong")
	}
}

func TestMaskFromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{A: 128})
	img.SetNRGBA(1, 0, color.NRGBA{A: 127})

	m := MaskFromImage(img, alphaThreshold)
	if !m.At(0, 0) || m.At(1, 0) {
		t.Errorf("alpha threshold: got %v %v", m.At(0, 0), m.At(1, 0))
	}
}

func TestLoadSilhouette(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "half.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	m, err := LoadSilhouette(path, 8, 8, DefaultFlySilhouette)
	if err != nil {
		t.Fatalf("LoadSilhouette: %v", err)
	}
	if m.W != 8 || m.H != 8 || m.Count() != 32 {
		t.Errorf("scaled mask %dx%d count %d, want 8x8 count 32", m.W, m.H, m.Count())
	}

	if _, err := LoadSilhouette(filepath.Join(t.TempDir(), "missing.png"), 8, 8, DefaultFlySilhouette); err == nil {
		t.Error("expected error for missing file")
	}

	m, err = LoadSilhouette("", 68, 48, DefaultFlySilhouette)
	if err != nil || m.W != 68 {
		t.Errorf("fallback: %v, %v", m, err)
	}
}

func TestSilhouetteCacheConcurrent(t *testing.T) {
	s := NewSilhouette(DefaultFlySilhouette(68, 48))
	done := make(chan *Mask, 8)
	for i := 0; i < 8; i++ {
		go func() { done <- s.Rotated(-35) }()
	}
	first := <-done
	for i := 1; i < 8; i++ {
		m := <-done
		if m.W != first.W || m.H != first.H || m.Count() != first.Count() {
			t.Fatal("concurrent rotations disagree")
		}
	}
	if s.Rotated(0) != s.Base() {
		t.Error("zero rotation should return the base mask")
	}
}
