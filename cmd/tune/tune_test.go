package main

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/pthm-cable/flappyfly/config"
	"github.com/pthm-cable/flappyfly/game"
)

func TestNormalizeRoundTrip(t *testing.T) {
	pv := NewParamVector()
	raw := pv.DefaultVector()
	back := pv.Denormalize(pv.Normalize(raw))
	for i := range raw {
		if math.Abs(back[i]-raw[i]) > 1e-9 {
			t.Errorf("param %s: %f -> %f", pv.Specs[i].Name, raw[i], back[i])
		}
	}
}

func TestDenormalizeClamps(t *testing.T) {
	pv := NewParamVector()
	raw := pv.Denormalize([]float64{-1, 2, 0.5, 0})
	for i, spec := range pv.Specs {
		if raw[i] < spec.Min || raw[i] > spec.Max {
			t.Errorf("%s = %f outside [%f, %f]", spec.Name, raw[i], spec.Min, spec.Max)
		}
	}
	if raw[0] != pv.Specs[0].Min || raw[1] != pv.Specs[1].Max {
		t.Errorf("out of range values should clamp to the bounds, got %v", raw)
	}
}

func TestLinearControllerRange(t *testing.T) {
	c := NewLinearController([]float64{5, 10, -10, 10}, 800)
	for _, obs := range []game.Observation{
		{Y: 0},
		{Y: 700, TopGap: 500, BottomGap: 0},
		{Y: 100, TopGap: 0, BottomGap: 200},
	} {
		v := c.Decide(obs)
		if v < -1 || v > 1 || math.IsNaN(v) {
			t.Errorf("Decide(%+v) = %f outside [-1, 1]", obs, v)
		}
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	cfg := config.Default()
	fe, err := NewFitnessEvaluator(NewParamVector(), cfg, 300, []int64{1, 2})
	if err != nil {
		t.Fatalf("NewFitnessEvaluator: %v", err)
	}

	raw := NewParamVector().DefaultVector()
	a, err := fe.Evaluate(context.Background(), raw)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	b, err := fe.Evaluate(context.Background(), raw)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if a != b {
		t.Errorf("same weights scored %f then %f", a, b)
	}
	if math.IsInf(a, 0) || math.IsNaN(a) {
		t.Errorf("fitness = %f", a)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"59s", "0m59s"},
		{"61s", "1m01s"},
		{"3h2m1s", "3h02m01s"},
	}
	for _, tc := range tests {
		d, err := time.ParseDuration(tc.in)
		if err != nil {
			t.Fatalf("ParseDuration(%s): %v", tc.in, err)
		}
		if got := formatDuration(d); got != tc.want {
			t.Errorf("formatDuration(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}
