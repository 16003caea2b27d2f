package renderer

import (
	"math/rand"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flappyfly/components"
	"github.com/pthm-cable/flappyfly/config"
	"github.com/pthm-cable/flappyfly/game"
	"github.com/pthm-cable/flappyfly/systems"
)

// SceneOptions selects the optional layers drawn by Scene.
type SceneOptions struct {
	Particles bool // Elimination bursts
	Hitboxes  bool // Rotated fly mask bounds
	Reference bool // Highlight the reference pair's gap
	Gaps      bool // Lines from the lead fly to the reference gap edges
}

// TintFunc returns the draw color of the fly in controller slot.
type TintFunc func(slot int) rl.Color

// Scene draws snapshots of one playfield. It owns the textures and
// presentation-only state such as particles; nothing it does reaches back
// into the episode.
type Scene struct {
	cfg       *config.Config
	sprites   *SpriteSet
	sky       *SkyRenderer
	oracle    *systems.Oracle
	particles *systems.ParticleSystem
	pdraw     *ParticleRenderer

	flyW, flyH float32
	pieceW     float32
	pieceH     float32
	travelled  float32 // Ground distance scrolled, for the sky parallax
	prev       game.Snapshot
	havePrev   bool
}

// NewScene builds the scene's textures. Requires a window.
func NewScene(cfg *config.Config, sprites systems.Sprites, seed int64) *Scene {
	groundH := max(cfg.Screen.Height-int(cfg.Ground.Level), 1)
	return &Scene{
		cfg:       cfg,
		sprites:   NewSpriteSet(sprites, int(cfg.Ground.TileWidth), groundH),
		sky:       NewSkyRenderer(cfg.Screen.Width, int(cfg.Ground.Level), seed),
		oracle:    systems.NewOracle(cfg, sprites),
		particles: systems.NewParticleSystem(600, rand.New(rand.NewSource(seed))),
		pdraw:     NewParticleRenderer(),
		flyW:      float32(sprites.Fly.W),
		flyH:      float32(sprites.Fly.H),
		pieceW:    float32(sprites.Sweeper.W),
		pieceH:    float32(sprites.Sweeper.H),
	}
}

// Update advances presentation state for one frame. fresh reports whether
// s is a snapshot not seen before.
func (sc *Scene) Update(s game.Snapshot, fresh bool) {
	sc.particles.Update()
	if !fresh {
		return
	}

	if sc.havePrev && sc.prev.Generation == s.Generation && s.Tick > sc.prev.Tick {
		for _, f := range Eliminated(sc.prev.Flies, s.Flies) {
			ptype := systems.ParticleFeather
			if sc.oracle.OutOfBounds(components.Fly{X: f.X, Y: f.Y, Tilt: f.Tilt}) {
				ptype = systems.ParticleDust
			}
			sc.particles.EmitBurst(float32(f.X)+sc.flyW/2, float32(f.Y)+sc.flyH/2, ptype)
		}
		sc.travelled += float32(s.Tick-sc.prev.Tick) * float32(sc.cfg.Ground.Velocity)
	} else {
		sc.particles.Clear()
	}
	sc.prev = s
	sc.havePrev = true
}

// Draw renders s in playfield coordinates. The caller sets up the camera.
func (sc *Scene) Draw(s game.Snapshot, tint TintFunc, opts SceneOptions) {
	sc.sky.Draw(sc.travelled)

	for _, p := range s.Sweepers {
		sc.drawSweeper(p)
	}
	if opts.Reference && s.Reference >= 0 && s.Reference < len(s.Sweepers) {
		p := s.Sweepers[s.Reference]
		rl.DrawRectangleLinesEx(
			rl.Rectangle{X: float32(p.X), Y: float32(p.Height), Width: sc.pieceW, Height: float32(p.Bottom - p.Height)},
			2, rl.Yellow,
		)
	}

	g := s.Ground
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(sc.sprites.Ground.Width), Height: float32(sc.sprites.Ground.Height)}
	rl.DrawTextureRec(sc.sprites.Ground, src, rl.Vector2{X: float32(g.X1), Y: float32(g.Y)}, rl.White)
	rl.DrawTextureRec(sc.sprites.Ground, src, rl.Vector2{X: float32(g.X2), Y: float32(g.Y)}, rl.White)

	if opts.Particles {
		sc.pdraw.Draw(sc.particles.Particles)
	}

	// Draw back to front so the lead slot ends on top
	for i := len(s.Flies) - 1; i >= 0; i-- {
		f := s.Flies[i]
		color := rl.White
		if tint != nil {
			color = tint(f.Slot)
		}
		sc.drawFly(f, color)
		if opts.Hitboxes {
			m, x, y := sc.oracle.FlyMask(components.Fly{X: f.X, Y: f.Y, Tilt: f.Tilt})
			rl.DrawRectangleLines(int32(x), int32(y), int32(m.W), int32(m.H), rl.Red)
		}
	}

	if opts.Gaps && len(s.Flies) > 0 && s.Reference >= 0 && s.Reference < len(s.Sweepers) {
		lead := s.Flies[0]
		p := s.Sweepers[s.Reference]
		from := rl.Vector2{X: float32(lead.X) + sc.flyW/2, Y: float32(lead.Y)}
		rl.DrawLineEx(from, rl.Vector2{X: float32(p.X), Y: float32(p.Height)}, 2, rl.Orange)
		rl.DrawLineEx(from, rl.Vector2{X: float32(p.X), Y: float32(p.Bottom)}, 2, rl.SkyBlue)
	}
}

// drawSweeper draws the bottom piece upright and the top piece mirrored.
func (sc *Scene) drawSweeper(p components.Sweeper) {
	tex := sc.sprites.Sweeper
	src := rl.Rectangle{X: 0, Y: 0, Width: sc.pieceW, Height: sc.pieceH}
	rl.DrawTextureRec(tex, src, rl.Vector2{X: float32(p.X), Y: float32(p.Bottom)}, rl.White)

	// Negative source height flips the texture vertically
	flipped := rl.Rectangle{X: 0, Y: 0, Width: sc.pieceW, Height: -sc.pieceH}
	rl.DrawTextureRec(tex, flipped, rl.Vector2{X: float32(p.X), Y: float32(p.Top)}, rl.White)
}

// drawFly draws the fly rotated about its centre. Positive tilt is nose up,
// which is counter-clockwise on a y-down screen.
func (sc *Scene) drawFly(f game.FlyState, tint rl.Color) {
	tex := sc.sprites.Fly
	src := rl.Rectangle{X: 0, Y: 0, Width: sc.flyW, Height: sc.flyH}
	dst := rl.Rectangle{
		X:      float32(f.X) + sc.flyW/2,
		Y:      float32(f.Y) + sc.flyH/2,
		Width:  sc.flyW,
		Height: sc.flyH,
	}
	origin := rl.Vector2{X: sc.flyW / 2, Y: sc.flyH / 2}
	rl.DrawTexturePro(tex, src, dst, origin, float32(-f.Tilt), tint)
}

// Unload frees the scene's textures.
func (sc *Scene) Unload() {
	sc.sprites.Unload()
	sc.sky.Unload()
}

// Eliminated returns the flies in prev whose slot is missing from cur.
// Both lists are in ascending slot order, as episodes keep them.
func Eliminated(prev, cur []game.FlyState) []game.FlyState {
	var out []game.FlyState
	j := 0
	for _, f := range prev {
		for j < len(cur) && cur[j].Slot < f.Slot {
			j++
		}
		if j < len(cur) && cur[j].Slot == f.Slot {
			continue
		}
		out = append(out, f)
	}
	return out
}
