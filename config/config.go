// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Fly       FlyConfig       `yaml:"fly"`
	Sweeper   SweeperConfig   `yaml:"sweeper"`
	Ground    GroundConfig    `yaml:"ground"`
	Bounds    BoundsConfig    `yaml:"bounds"`
	Fitness   FitnessConfig   `yaml:"fitness"`
	Decision  DecisionConfig  `yaml:"decision"`
	Evolution EvolutionConfig `yaml:"evolution"`
	Parallel  ParallelConfig  `yaml:"parallel"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

}

// ScreenConfig holds display settings. Width is also the playfield width
// used for respawning sweepers.
type ScreenConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// FlyConfig holds agent kinematics and sprite parameters.
type FlyConfig struct {
	StartX               float64 `yaml:"start_x"`
	StartY               float64 `yaml:"start_y"`
	Width                int     `yaml:"width"`
	Height               int     `yaml:"height"`
	JumpVelocity         float64 `yaml:"jump_velocity"`         // Impulse applied on jump (negative = up)
	Gravity              float64 `yaml:"gravity"`               // Displacement = v*t + 0.5*gravity*t^2
	TerminalDisplacement float64 `yaml:"terminal_displacement"` // Max downward displacement per tick
	LiftBoost            float64 `yaml:"lift_boost"`            // Extra upward displacement when rising
	MaxTilt              float64 `yaml:"max_tilt"`              // Degrees, nose up
	MinTilt              float64 `yaml:"min_tilt"`              // Degrees, nose down
	RotationVelocity     float64 `yaml:"rotation_velocity"`     // Degrees per tick of nose-down decay
	TiltHoldMargin       float64 `yaml:"tilt_hold_margin"`      // Hold max tilt until this far below the jump height
	Silhouette           string  `yaml:"silhouette"`            // Optional PNG; empty = built-in shape
}

// SweeperConfig holds obstacle pair parameters.
type SweeperConfig struct {
	Gap        float64 `yaml:"gap"`
	Velocity   float64 `yaml:"velocity"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	MinHeight  int     `yaml:"min_height"` // Gap top drawn from [min_height, max_height)
	MaxHeight  int     `yaml:"max_height"`
	FirstX     float64 `yaml:"first_x"`   // X of the pair present at episode start
	RespawnX   float64 `yaml:"respawn_x"` // X of pairs spawned after a pass (0 = screen width)
	Silhouette string  `yaml:"silhouette"`
}

// GroundConfig holds the scrolling ground strip parameters.
type GroundConfig struct {
	Level     float64 `yaml:"level"`
	TileWidth float64 `yaml:"tile_width"`
	Velocity  float64 `yaml:"velocity"`
}

// BoundsConfig holds elimination margins.
type BoundsConfig struct {
	FloorMargin float64 `yaml:"floor_margin"` // Forgiveness above the ground
	Ceiling     float64 `yaml:"ceiling"`      // Fly y below this is out of bounds
}

// FitnessConfig holds population-mode fitness rules.
type FitnessConfig struct {
	Survival         float64 `yaml:"survival"`          // Per tick alive
	PassBonus        float64 `yaml:"pass_bonus"`        // Broadcast to every live controller per pass
	CollisionPenalty float64 `yaml:"collision_penalty"` // Subtracted on sweeper hit
}

// DecisionConfig holds the decision function contract.
type DecisionConfig struct {
	Threshold float64 `yaml:"threshold"` // Jump iff output > threshold
	Min       float64 `yaml:"min"`       // Outputs outside [min, max] are ignored
	Max       float64 `yaml:"max"`
}

// EvolutionConfig holds the external optimization driver settings.
type EvolutionConfig struct {
	PopulationSize   int     `yaml:"population_size"`
	Generations      int     `yaml:"generations"`
	MaxTicks         int     `yaml:"max_ticks"`         // Per-episode budget (0 = unlimited)
	SurvivalFraction float64 `yaml:"survival_fraction"` // Top fraction kept as parents
	Elites           int     `yaml:"elites"`            // Copied unchanged into the next generation
	ConnectionProb   float64 `yaml:"connection_prob"`   // Initial input->output link probability
	NEATOptionsFile  string  `yaml:"neat_options_file"` // Optional goNEAT YAML options
}

// ParallelConfig controls the parallel collision phase.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold"` // Minimum live flies before going parallel (0 = never)
}

// TelemetryConfig holds output settings.
type TelemetryConfig struct {
	OutputDir       string `yaml:"output_dir"`
	LogEvery        int    `yaml:"log_every"`        // Generations between slog lines
	HallOfFameSize  int    `yaml:"hall_of_fame_size"`
	BookmarkHistory int    `yaml:"bookmark_history"` // Generations of history for bookmark detection
	PerfWindow      int    `yaml:"perf_window"`      // Frames averaged by the perf collector
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults. Panics if they do not parse,
// which would be a build defect.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse is Load for an in-memory document.
func Parse(data []byte) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Unmarshal into same struct - only overwrites fields present in data
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the simulation cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Screen.Width <= 0 || c.Screen.Height <= 0:
		return fmt.Errorf("%w: screen size %dx%d", ErrInvalid, c.Screen.Width, c.Screen.Height)
	case c.Fly.Width <= 0 || c.Fly.Height <= 0:
		return fmt.Errorf("%w: fly size %dx%d", ErrInvalid, c.Fly.Width, c.Fly.Height)
	case c.Sweeper.Width <= 0 || c.Sweeper.Height <= 0:
		return fmt.Errorf("%w: sweeper size %dx%d", ErrInvalid, c.Sweeper.Width, c.Sweeper.Height)
	case c.Sweeper.Gap <= 0:
		return fmt.Errorf("%w: sweeper gap %v", ErrInvalid, c.Sweeper.Gap)
	case c.Sweeper.MinHeight >= c.Sweeper.MaxHeight:
		return fmt.Errorf("%w: sweeper height range [%d, %d)", ErrInvalid, c.Sweeper.MinHeight, c.Sweeper.MaxHeight)
	case c.Sweeper.Velocity <= 0:
		return fmt.Errorf("%w: sweeper velocity %v", ErrInvalid, c.Sweeper.Velocity)
	case c.Fly.TerminalDisplacement <= 0:
		return fmt.Errorf("%w: terminal displacement %v", ErrInvalid, c.Fly.TerminalDisplacement)
	case c.Fly.MinTilt > c.Fly.MaxTilt:
		return fmt.Errorf("%w: tilt range [%v, %v]", ErrInvalid, c.Fly.MinTilt, c.Fly.MaxTilt)
	case c.Ground.TileWidth <= 0:
		return fmt.Errorf("%w: ground tile width %v", ErrInvalid, c.Ground.TileWidth)
	case c.Decision.Min >= c.Decision.Max:
		return fmt.Errorf("%w: decision range [%v, %v]", ErrInvalid, c.Decision.Min, c.Decision.Max)
	case c.Decision.Threshold < c.Decision.Min || c.Decision.Threshold >= c.Decision.Max:
		return fmt.Errorf("%w: decision threshold %v outside [%v, %v)", ErrInvalid, c.Decision.Threshold, c.Decision.Min, c.Decision.Max)
	case c.Evolution.PopulationSize < 1:
		return fmt.Errorf("%w: population size %d", ErrInvalid, c.Evolution.PopulationSize)
	case c.Evolution.SurvivalFraction <= 0 || c.Evolution.SurvivalFraction > 1:
		return fmt.Errorf("%w: survival fraction %v", ErrInvalid, c.Evolution.SurvivalFraction)
	case c.Evolution.Elites < 0 || c.Evolution.Elites > c.Evolution.PopulationSize:
		return fmt.Errorf("%w: elites %d", ErrInvalid, c.Evolution.Elites)
	case c.Parallel.Workers < 0 || c.Parallel.Threshold < 0:
		return fmt.Errorf("%w: parallel workers/threshold", ErrInvalid)
	}
	return nil
}

// Values below are derived from the raw fields on every call, so a Config
// changed in code never carries stale numbers into an episode.

// RespawnX is where new sweeper pairs appear: Sweeper.RespawnX, or the
// screen's right edge when that is zero.
func (c *Config) RespawnX() float64 {
	if c.Sweeper.RespawnX != 0 {
		return c.Sweeper.RespawnX
	}
	return float64(c.Screen.Width)
}

// SweeperRight is the offset of a pair's right edge from its x.
func (c *Config) SweeperRight() float64 {
	return float64(c.Sweeper.Width)
}

// FlyBottomSlop is the fly height less the floor forgiveness.
func (c *Config) FlyBottomSlop() float64 {
	return float64(c.Fly.Height) - c.Bounds.FloorMargin
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
