package systems

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"

	"github.com/pthm-cable/flappyfly/config"
)

// alphaThreshold matches the usual sprite-mask cutoff: alpha > 127 is solid.
const alphaThreshold = 127

// Sprites holds the silhouettes collision and rendering share.
type Sprites struct {
	Fly     *Mask
	Sweeper *Mask // Bottom piece, opening at the top; the top piece is its mirror
}

// LoadSprites builds sprites from the configured PNG paths, falling back to
// the built-in shapes for empty paths.
func LoadSprites(cfg *config.Config) (Sprites, error) {
	fly, err := LoadSilhouette(cfg.Fly.Silhouette, cfg.Fly.Width, cfg.Fly.Height, DefaultFlySilhouette)
	if err != nil {
		return Sprites{}, fmt.Errorf("fly silhouette: %w", err)
	}
	sweeper, err := LoadSilhouette(cfg.Sweeper.Silhouette, cfg.Sweeper.Width, cfg.Sweeper.Height, DefaultSweeperSilhouette)
	if err != nil {
		return Sprites{}, fmt.Errorf("sweeper silhouette: %w", err)
	}
	return Sprites{Fly: fly, Sweeper: sweeper}, nil
}

// LoadSilhouette decodes a PNG, scales it to w x h and masks its alpha.
// An empty path returns fallback(w, h).
func LoadSilhouette(path string, w, h int, fallback func(w, h int) *Mask) (*Mask, error) {
	if path == "" {
		return fallback(w, h), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return scaleMask(MaskFromImage(img, alphaThreshold), w, h), nil
}

// scaleMask resamples m to w x h nearest-neighbour.
func scaleMask(m *Mask, w, h int) *Mask {
	if m.W == w && m.H == h {
		return m
	}
	out := NewMask(w, h)
	if m.W == 0 || m.H == 0 {
		return out
	}
	for y := 0; y < h; y++ {
		sy := y * m.H / h
		for x := 0; x < w; x++ {
			if m.At(x*m.W/w, sy) {
				out.Set(x, y, true)
			}
		}
	}
	return out
}

// DefaultFlySilhouette is an elliptical body with a wing bump on top.
func DefaultFlySilhouette(w, h int) *Mask {
	m := NewMask(w, h)
	cx, cy := float64(w)/2, float64(h)*0.6
	rx, ry := float64(w)/2-1, float64(h)*0.4-1
	wx, wy := float64(w)*0.4, float64(h)*0.3
	wrx, wry := float64(w)*0.22, float64(h)*0.3-1
	for y := 0; y < h; y++ {
		py := float64(y) + 0.5
		for x := 0; x < w; x++ {
			px := float64(x) + 0.5
			bx, by := (px-cx)/rx, (py-cy)/ry
			gx, gy := (px-wx)/wrx, (py-wy)/wry
			if bx*bx+by*by <= 1 || gx*gx+gy*gy <= 1 {
				m.Set(x, y, true)
			}
		}
	}
	return m
}

// DefaultSweeperSilhouette is a shaft with a wider lip at the top edge.
func DefaultSweeperSilhouette(w, h int) *Mask {
	m := NewMask(w, h)
	lip := min(h, 40)
	inset := w / 16
	for y := 0; y < h; y++ {
		x0, x1 := inset, w-inset
		if y < lip {
			x0, x1 = 0, w
		}
		for x := x0; x < x1; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

// Silhouette caches rotations of a base mask. Rotation results depend only
// on the base mask and the angle, so the cache never changes an answer.
type Silhouette struct {
	base *Mask
	mu   sync.RWMutex
	rot  map[float64]*Mask
}

// NewSilhouette wraps a base mask.
func NewSilhouette(base *Mask) *Silhouette {
	return &Silhouette{base: base, rot: map[float64]*Mask{0: base}}
}

// Base returns the unrotated mask.
func (s *Silhouette) Base() *Mask {
	return s.base
}

// Rotated returns the mask rotated by deg degrees. Safe for concurrent use.
func (s *Silhouette) Rotated(deg float64) *Mask {
	s.mu.RLock()
	m, ok := s.rot[deg]
	s.mu.RUnlock()
	if ok {
		return m
	}

	m = s.base.Rotate(deg)
	s.mu.Lock()
	if existing, ok := s.rot[deg]; ok {
		m = existing
	} else {
		s.rot[deg] = m
	}
	s.mu.Unlock()
	return m
}

// Bounds returns the rectangle of set pixels, for tests and debugging.
func (m *Mask) Bounds() image.Rectangle {
	r := image.Rectangle{}
	first := true
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if !m.At(x, y) {
				continue
			}
			p := image.Rect(x, y, x+1, y+1)
			if first {
				r, first = p, false
			} else {
				r = r.Union(p)
			}
		}
	}
	return r
}
