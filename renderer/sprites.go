// Package renderer draws episode snapshots with raylib.
package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappyfly/systems"
)

// Sprite colors. Flies are drawn white and tinted at draw time.
var (
	flyFill       = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	flyEdge       = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	sweeperFill   = color.RGBA{R: 115, G: 191, B: 46, A: 255}
	sweeperEdge   = color.RGBA{R: 84, G: 56, B: 71, A: 255}
	groundTop     = color.RGBA{R: 115, G: 191, B: 46, A: 255}
	groundStripeA = color.RGBA{R: 222, G: 216, B: 149, A: 255}
	groundStripeB = color.RGBA{R: 208, G: 196, B: 126, A: 255}
)

// MaskPixels converts a mask into row-major RGBA pixels. Set pixels on the
// mask boundary get edge, interior ones fill; unset pixels are transparent.
func MaskPixels(m *systems.Mask, fill, edge color.RGBA) []color.RGBA {
	pixels := make([]color.RGBA, m.W*m.H)
	for y := 0; y < m.H; y++ {
		for x := 0; x < m.W; x++ {
			if !m.At(x, y) {
				continue
			}
			c := fill
			if !m.At(x-1, y) || !m.At(x+1, y) || !m.At(x, y-1) || !m.At(x, y+1) {
				c = edge
			}
			pixels[y*m.W+x] = c
		}
	}
	return pixels
}

// GroundPixels draws one ground tile: a grass lip over diagonal stripes.
func GroundPixels(w, h int) []color.RGBA {
	const lip = 12
	const stripe = 14

	pixels := make([]color.RGBA, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := groundStripeA
			switch {
			case y < lip:
				c = groundTop
			case ((x+y)/stripe)%2 == 1:
				c = groundStripeB
			}
			pixels[y*w+x] = c
		}
	}
	return pixels
}

// textureFromPixels uploads w x h pixels to a new texture. Requires a
// window.
func textureFromPixels(w, h int, pixels []color.RGBA) rl.Texture2D {
	img := rl.GenImageColor(w, h, rl.Blank)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	rl.UpdateTexture(tex, pixels)
	return tex
}

// SpriteSet holds the textures drawn for flies, sweepers and the ground.
// They are built from the same masks the collision oracle uses, so what is
// drawn is what collides.
type SpriteSet struct {
	Fly     rl.Texture2D
	Sweeper rl.Texture2D // Bottom piece; the top piece is drawn flipped
	Ground  rl.Texture2D
}

// NewSpriteSet uploads the sprite textures. Requires a window.
func NewSpriteSet(sprites systems.Sprites, groundW, groundH int) *SpriteSet {
	return &SpriteSet{
		Fly:     textureFromPixels(sprites.Fly.W, sprites.Fly.H, MaskPixels(sprites.Fly, flyFill, flyEdge)),
		Sweeper: textureFromPixels(sprites.Sweeper.W, sprites.Sweeper.H, MaskPixels(sprites.Sweeper, sweeperFill, sweeperEdge)),
		Ground:  textureFromPixels(groundW, groundH, GroundPixels(groundW, groundH)),
	}
}

// Unload frees the textures.
func (s *SpriteSet) Unload() {
	rl.UnloadTexture(s.Fly)
	rl.UnloadTexture(s.Sweeper)
	rl.UnloadTexture(s.Ground)
}
