package systems

import (
	"image"
	"math"
)

// Mask is a 1-bit silhouette, packed 64 columns per word, row-major.
// Bits past W in a row's last word are always zero.
type Mask struct {
	W, H   int
	stride int
	bits   []uint64
}

// NewMask creates an empty w x h mask.
func NewMask(w, h int) *Mask {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	stride := (w + 63) >> 6
	return &Mask{W: w, H: h, stride: stride, bits: make([]uint64, stride*h)}
}

// Set sets or clears the pixel at (x, y). Out-of-range writes are ignored.
func (m *Mask) Set(x, y int, on bool) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	i := y*m.stride + x>>6
	bit := uint64(1) << uint(x&63)
	if on {
		m.bits[i] |= bit
	} else {
		m.bits[i] &^= bit
	}
}

// At reports whether the pixel at (x, y) is set.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.bits[y*m.stride+x>>6]&(uint64(1)<<uint(x&63)) != 0
}

// Count returns the number of set pixels.
func (m *Mask) Count() int {
	n := 0
	for _, w := range m.bits {
		for ; w != 0; w &= w - 1 {
			n++
		}
	}
	return n
}

// window returns 64 bits of row y starting at column x; bit i is column x+i.
// Columns outside the mask read as zero.
func (m *Mask) window(y, x int) uint64 {
	if y < 0 || y >= m.H || x >= m.W || x <= -64 {
		return 0
	}
	if x < 0 {
		return m.window(y, 0) << uint(-x)
	}
	row := m.bits[y*m.stride : (y+1)*m.stride]
	wi, sh := x>>6, uint(x&63)
	w := row[wi] >> sh
	if sh != 0 && wi+1 < len(row) {
		w |= row[wi+1] << (64 - sh)
	}
	return w
}

// Overlap reports whether m and o share a set pixel when o's origin sits at
// (dx, dy) in m's coordinates.
func (m *Mask) Overlap(o *Mask, dx, dy int) bool {
	y0 := max(0, dy)
	y1 := min(m.H, dy+o.H)
	x0 := max(0, dx)
	x1 := min(m.W, dx+o.W)
	if y0 >= y1 || x0 >= x1 {
		return false
	}

	w0, w1 := x0>>6, (x1-1)>>6
	for y := y0; y < y1; y++ {
		row := m.bits[y*m.stride : (y+1)*m.stride]
		for wi := w0; wi <= w1; wi++ {
			if row[wi] == 0 {
				continue
			}
			if row[wi]&o.window(y-dy, wi<<6-dx) != 0 {
				return true
			}
		}
	}
	return false
}

// FlipVertical returns a copy of m mirrored top to bottom.
func (m *Mask) FlipVertical() *Mask {
	out := NewMask(m.W, m.H)
	for y := 0; y < m.H; y++ {
		copy(out.bits[(m.H-1-y)*m.stride:(m.H-y)*m.stride], m.bits[y*m.stride:(y+1)*m.stride])
	}
	return out
}

// Rotate returns m rotated counter-clockwise by deg degrees about its centre.
// The result is enlarged to hold the whole rotated shape and sampled
// nearest-neighbour, matching how sprites are blitted rotated-about-centre.
func (m *Mask) Rotate(deg float64) *Mask {
	if deg == 0 {
		out := NewMask(m.W, m.H)
		copy(out.bits, m.bits)
		return out
	}

	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	w, h := float64(m.W), float64(m.H)
	rw := int(math.Ceil(math.Abs(w*cos) + math.Abs(h*sin) - 1e-9))
	rh := int(math.Ceil(math.Abs(w*sin) + math.Abs(h*cos) - 1e-9))
	out := NewMask(rw, rh)

	cx, cy := float64(rw)/2, float64(rh)/2
	for py := 0; py < rh; py++ {
		ry := float64(py) + 0.5 - cy
		for px := 0; px < rw; px++ {
			rx := float64(px) + 0.5 - cx
			// Inverse of the y-down counter-clockwise rotation
			sx := rx*cos - ry*sin + w/2
			sy := rx*sin + ry*cos + h/2
			if m.At(int(math.Floor(sx)), int(math.Floor(sy))) {
				out.Set(px, py, true)
			}
		}
	}
	return out
}

// MaskFromImage builds a mask from an image's alpha channel; pixels with
// alpha above threshold are set.
func MaskFromImage(img image.Image, threshold uint8) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	t := uint32(threshold) * 0x101
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if a > t {
				m.Set(x-b.Min.X, y-b.Min.Y, true)
			}
		}
	}
	return m
}
