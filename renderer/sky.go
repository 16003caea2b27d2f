package renderer

import (
	"image/color"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// CloudParams controls the fractal noise behind the clouds.
type CloudParams struct {
	Scale      float64 // Base noise frequency across the texture width
	Octaves    int
	Lacunarity float64
	Gain       float64
	Cover      float64 // Noise level below which the sky is clear
}

// DefaultCloudParams returns soft, sparse clouds.
func DefaultCloudParams() CloudParams {
	return CloudParams{
		Scale:      3.0,
		Octaves:    4,
		Lacunarity: 2.0,
		Gain:       0.5,
		Cover:      0.55,
	}
}

// CloudField samples fbm simplex noise over a w x h grid, normalized to
// [0, 1]. The field wraps horizontally so the texture tiles when scrolled.
func CloudField(w, h int, seed int64, p CloudParams) []float32 {
	noise := opensimplex.NewNormalized(seed)
	field := make([]float32, w*h)
	if w == 0 || h == 0 {
		return field
	}

	// Sample x on a circle so the left and right edges meet
	radius := p.Scale / (2 * math.Pi)
	aspect := float64(h) / float64(w)
	for y := 0; y < h; y++ {
		fy := float64(y) / float64(h) * p.Scale * aspect
		for x := 0; x < w; x++ {
			theta := float64(x) / float64(w) * 2 * math.Pi
			cx, cz := math.Cos(theta)*radius, math.Sin(theta)*radius

			var sum, norm float64
			amp, freq := 1.0, 1.0
			for o := 0; o < p.Octaves; o++ {
				sum += amp * noise.Eval3(cx*freq, fy*freq, cz*freq)
				norm += amp
				amp *= p.Gain
				freq *= p.Lacunarity
			}
			if norm > 0 {
				sum /= norm
			}
			field[y*w+x] = float32(sum)
		}
	}
	return field
}

// SkyPixels shades a cloud field over a vertical sky gradient.
func SkyPixels(field []float32, w, h int, cover float64) []color.RGBA {
	top := [3]float64{78, 192, 202}
	bottom := [3]float64{200, 236, 240}

	pixels := make([]color.RGBA, w*h)
	for y := 0; y < h; y++ {
		t := float64(y) / float64(max(h-1, 1))
		var base [3]float64
		for i := range base {
			base[i] = top[i] + (bottom[i]-top[i])*t
		}
		for x := 0; x < w; x++ {
			v := float64(field[y*w+x])
			c := base
			if v > cover {
				// Blend towards white above the cover level
				a := math.Min((v-cover)/(1-cover)*1.6, 1)
				for i := range c {
					c[i] += (250 - c[i]) * a
				}
			}
			pixels[y*w+x] = color.RGBA{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2]), A: 255}
		}
	}
	return pixels
}

// SkyRenderer draws a scrolling cloud backdrop.
type SkyRenderer struct {
	texture     rl.Texture2D
	w, h        int
	seed        int64
	params      CloudParams
	parallax    float32 // Fraction of the ground speed the clouds move at
	initialized bool
}

// NewSkyRenderer creates a sky of w x h pixels.
func NewSkyRenderer(w, h int, seed int64) *SkyRenderer {
	return &SkyRenderer{
		w:        w,
		h:        h,
		seed:     seed,
		params:   DefaultCloudParams(),
		parallax: 0.2,
	}
}

// Init builds the texture (must be called after the raylib window is created).
func (s *SkyRenderer) Init() {
	if s.initialized {
		return
	}
	field := CloudField(s.w, s.h, s.seed, s.params)
	s.texture = textureFromPixels(s.w, s.h, SkyPixels(field, s.w, s.h, s.params.Cover))
	s.initialized = true
}

// Draw renders the sky scrolled by the ground's travelled distance.
func (s *SkyRenderer) Draw(travelled float32) {
	if !s.initialized {
		s.Init()
	}
	w := float32(s.w)
	offset := float32(math.Mod(float64(travelled*s.parallax), float64(w)))
	src := rl.Rectangle{X: 0, Y: 0, Width: w, Height: float32(s.h)}
	for _, x := range []float32{-offset, w - offset} {
		rl.DrawTextureRec(s.texture, src, rl.Vector2{X: x, Y: 0}, rl.White)
	}
}

// Unload frees resources.
func (s *SkyRenderer) Unload() {
	if s.initialized {
		rl.UnloadTexture(s.texture)
		s.initialized = false
	}
}
