package systems

import (
	"math"
	"math/rand"
)

// ParticleType identifies the type of effect particle.
type ParticleType uint8

const (
	ParticleFeather ParticleType = iota // Fly hit a sweeper
	ParticleDust                        // Fly hit the ground or left the screen
)

// EffectParticle is a short-lived presentation particle. Particles never
// feed back into the episode.
type EffectParticle struct {
	X, Y       float32
	VelX, VelY float32
	Life       int32
	MaxLife    int32
	Type       ParticleType
	Size       float32
}

// ParticleSystem manages elimination bursts.
type ParticleSystem struct {
	Particles    []EffectParticle
	maxParticles int
	rng          *rand.Rand
}

// NewParticleSystem creates a particle system holding at most maxParticles.
func NewParticleSystem(maxParticles int, rng *rand.Rand) *ParticleSystem {
	if maxParticles < 1 {
		maxParticles = 500
	}
	return &ParticleSystem{
		Particles:    make([]EffectParticle, 0, maxParticles),
		maxParticles: maxParticles,
		rng:          rng,
	}
}

// Update ages, moves and drops particles.
func (s *ParticleSystem) Update() {
	alive := 0
	for i := range s.Particles {
		p := &s.Particles[i]

		p.Life--
		if p.Life <= 0 {
			continue
		}

		switch p.Type {
		case ParticleFeather:
			// Feathers drift down slowly
			p.VelY += 0.05
			p.VelX *= 0.92
		case ParticleDust:
			p.VelY += 0.15
			p.VelX *= 0.85
		}
		p.VelY *= 0.95

		p.X += p.VelX
		p.Y += p.VelY

		s.Particles[alive] = s.Particles[i]
		alive++
	}
	s.Particles = s.Particles[:alive]
}

// EmitBurst emits a radial burst of 8-14 particles at (x, y).
func (s *ParticleSystem) EmitBurst(x, y float32, ptype ParticleType) {
	count := 8 + s.rng.Intn(7)
	for i := 0; i < count; i++ {
		s.emit(x, y, ptype)
	}
}

func (s *ParticleSystem) emit(x, y float32, ptype ParticleType) {
	if len(s.Particles) >= s.maxParticles {
		return
	}

	angle := s.rng.Float64() * 2 * math.Pi
	speed := 1 + s.rng.Float32()*2
	var life int32
	var size float32
	switch ptype {
	case ParticleFeather:
		life = 30 + s.rng.Int31n(30)
		size = 3 + s.rng.Float32()*2
	default:
		// Dust kicks upward
		angle = math.Pi + s.rng.Float64()*math.Pi
		life = 15 + s.rng.Int31n(15)
		size = 2 + s.rng.Float32()
	}

	s.Particles = append(s.Particles, EffectParticle{
		X:       x + (s.rng.Float32()-0.5)*6,
		Y:       y + (s.rng.Float32()-0.5)*6,
		VelX:    float32(math.Cos(angle)) * speed,
		VelY:    float32(math.Sin(angle)) * speed,
		Life:    life,
		MaxLife: life,
		Type:    ptype,
		Size:    size,
	})
}

// Count returns the current number of active particles.
func (s *ParticleSystem) Count() int {
	return len(s.Particles)
}

// Clear drops every particle.
func (s *ParticleSystem) Clear() {
	s.Particles = s.Particles[:0]
}
