package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsMatchReferenceConstants(t *testing.T) {
	cfg := Default()

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"jump velocity", cfg.Fly.JumpVelocity, -10.5},
		{"gravity", cfg.Fly.Gravity, 3},
		{"terminal displacement", cfg.Fly.TerminalDisplacement, 16},
		{"gap", cfg.Sweeper.Gap, 200},
		{"scroll velocity", cfg.Sweeper.Velocity, 5},
		{"ground level", cfg.Ground.Level, 730},
		{"floor margin", cfg.Bounds.FloorMargin, 10},
		{"ceiling", cfg.Bounds.Ceiling, -50},
		{"target fps", float64(cfg.Screen.TargetFPS), 30},
		{"first sweeper x", cfg.Sweeper.FirstX, 700},
		{"survival fitness", cfg.Fitness.Survival, 0.1},
		{"pass bonus", cfg.Fitness.PassBonus, 5},
		{"collision penalty", cfg.Fitness.CollisionPenalty, 1},
		{"decision threshold", cfg.Decision.Threshold, 0.5},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	if x := cfg.RespawnX(); x != 600 {
		t.Errorf("respawn x = %v, want screen width 600", x)
	}
	if slop := cfg.FlyBottomSlop(); slop != 38 {
		t.Errorf("fly bottom slop = %v, want 38", slop)
	}
}

func TestDerivedValuesFollowOverrides(t *testing.T) {
	cfg := Default()
	cfg.Screen.Width = 900
	cfg.Fly.Height = 100
	cfg.Sweeper.Width = 120

	if x := cfg.RespawnX(); x != 900 {
		t.Errorf("respawn x = %v, want 900", x)
	}
	if slop := cfg.FlyBottomSlop(); slop != 90 {
		t.Errorf("fly bottom slop = %v, want 90", slop)
	}
	if r := cfg.SweeperRight(); r != 120 {
		t.Errorf("sweeper right = %v, want 120", r)
	}

	cfg.Sweeper.RespawnX = 650
	if x := cfg.RespawnX(); x != 650 {
		t.Errorf("explicit respawn x = %v, want 650", x)
	}
}

func TestParseOverridesOnlyPresentKeys(t *testing.T) {
	cfg, err := Parse([]byte("sweeper:\n  gap: 150\nfitness:\n  pass_bonus: 10\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Sweeper.Gap != 150 {
		t.Errorf("gap = %v, want 150", cfg.Sweeper.Gap)
	}
	if cfg.Fitness.PassBonus != 10 {
		t.Errorf("pass bonus = %v, want 10", cfg.Fitness.PassBonus)
	}
	// Untouched keys keep defaults
	if cfg.Sweeper.Velocity != 5 {
		t.Errorf("velocity = %v, want default 5", cfg.Sweeper.Velocity)
	}
	if cfg.Fitness.Survival != 0.1 {
		t.Errorf("survival = %v, want default 0.1", cfg.Fitness.Survival)
	}
}

func TestValidateRejectsMalformedConfig(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"zero gap", "sweeper:\n  gap: 0\n"},
		{"empty height range", "sweeper:\n  min_height: 300\n  max_height: 300\n"},
		{"empty decision range", "decision:\n  min: 1\n  max: 0\n"},
		{"no population", "evolution:\n  population_size: 0\n"},
		{"too many elites", "evolution:\n  population_size: 2\n  elites: 3\n"},
		{"negative fly size", "fly:\n  width: -1\n"},
		{"inverted tilt", "fly:\n  min_tilt: 30\n  max_tilt: 25\n"},
		{"threshold at max", "decision:\n  threshold: 1\n"},
		{"threshold below min", "decision:\n  threshold: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("Parse(%q) error = %v, want ErrInvalid", tt.doc, err)
			}
		})
	}
}

func TestLoadAndWriteYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.yaml")
	if err := os.WriteFile(in, []byte("ground:\n  level: 700\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(in)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Ground.Level != 700 {
		t.Fatalf("ground level = %v, want 700", cfg.Ground.Level)
	}

	out := filepath.Join(dir, "out.yaml")
	if err := cfg.WriteYAML(out); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	again, err := Load(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Ground.Level != 700 || again.Sweeper.Gap != cfg.Sweeper.Gap {
		t.Errorf("reloaded config differs: level=%v gap=%v", again.Ground.Level, again.Sweeper.Gap)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
