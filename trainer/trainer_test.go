package trainer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/flappyfly/config"
	"github.com/pthm-cable/flappyfly/game"
	"github.com/pthm-cable/flappyfly/telemetry"
)

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Evolution.PopulationSize = 8
	cfg.Evolution.Generations = 3
	cfg.Evolution.MaxTicks = 200
	return cfg
}

func TestTrainerRun(t *testing.T) {
	dir := t.TempDir()
	out, err := telemetry.NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	var presented int
	tr, err := New(smallConfig(), Options{
		Seed:   7,
		Output: out,
		Sink:   game.PresenterFunc(func(game.Snapshot) { presented++ }),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := tr.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st := tr.Status()
	if !st.Done {
		t.Error("status not marked done")
	}
	if st.Last.Generation != 3 {
		t.Errorf("last generation = %d, want 3", st.Last.Generation)
	}
	if st.Champion == nil {
		t.Error("no champion after a run")
	}
	if len(st.Colors) != 8 {
		t.Errorf("%d slot colors, want 8", len(st.Colors))
	}
	// The final generation is not bred
	if g := tr.Population().Generation(); g != 3 {
		t.Errorf("population generation = %d, want 3", g)
	}
	if presented == 0 {
		t.Error("sink never received a snapshot")
	}

	f, err := os.Open(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatalf("open generations.csv: %v", err)
	}
	defer f.Close()
	var rows []telemetry.GenerationStats
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		t.Fatalf("UnmarshalFile: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("%d generation rows, want 3", len(rows))
	}
	for i, r := range rows {
		if r.Generation != i+1 || r.Population != 8 {
			t.Errorf("row %d = generation %d population %d", i, r.Generation, r.Population)
		}
		if r.Ticks > 200 {
			t.Errorf("row %d ran %d ticks past the 200 tick cap", i, r.Ticks)
		}
	}

	hof, err := telemetry.LoadHallOfFameFromFile(filepath.Join(dir, "hall_of_fame.json"))
	if err != nil {
		t.Fatalf("LoadHallOfFameFromFile: %v", err)
	}
	if hof.Size() == 0 {
		t.Error("hall of fame is empty")
	}
}

func TestTrainerIsSeedDeterministic(t *testing.T) {
	run := func() telemetry.GenerationStats {
		tr, err := New(smallConfig(), Options{Seed: 11})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		if err := tr.Run(context.Background()); err != nil {
			t.Fatalf("Run: %v", err)
		}
		return tr.Status().Last
	}

	a, b := run(), run()
	if a.FitnessMax != b.FitnessMax || a.FitnessMean != b.FitnessMean || a.Score != b.Score || a.Ticks != b.Ticks {
		t.Errorf("runs differ:\n%+v\n%+v", a, b)
	}
}

func TestTrainerCancelled(t *testing.T) {
	tr, err := New(smallConfig(), Options{Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = tr.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run after cancel = %v, want context.Canceled", err)
	}
	if !tr.Status().Done {
		t.Error("cancelled run not marked done")
	}
}

func TestTrainerBudgetFallsBackToConfig(t *testing.T) {
	cfg := smallConfig()
	tr, err := New(cfg, Options{Seed: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Generations() != 3 || tr.MaxTicks() != 200 {
		t.Errorf("budget = %d generations, %d ticks, want 3 and 200", tr.Generations(), tr.MaxTicks())
	}

	tr, err = New(cfg, Options{Seed: 1, Generations: 5, MaxTicks: 50})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Generations() != 5 || tr.MaxTicks() != 50 {
		t.Errorf("budget = %d generations, %d ticks, want 5 and 50", tr.Generations(), tr.MaxTicks())
	}
}

func TestTrainerRejectsNilConfig(t *testing.T) {
	if _, err := New(nil, Options{}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("New(nil) = %v, want ErrInvalid", err)
	}
}

func TestPaceUnthrottled(t *testing.T) {
	p := NewPace(context.Background(), nil, 30)
	p.SetSpeed(0)

	start := time.Now()
	for i := 0; i < 100; i++ {
		p.Present(game.Snapshot{Tick: i})
	}
	if d := time.Since(start); d > 500*time.Millisecond {
		t.Errorf("unthrottled presents took %v", d)
	}
}

func TestPaceThrottles(t *testing.T) {
	// 200 ticks per second: 11 presents span at least 10 intervals of 5ms
	p := NewPace(context.Background(), nil, 200)

	start := time.Now()
	for i := 0; i < 11; i++ {
		p.Present(game.Snapshot{Tick: i})
	}
	if d := time.Since(start); d < 45*time.Millisecond {
		t.Errorf("throttled presents took only %v", d)
	}
}

func TestPacePausedUnblocksOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var got int
	p := NewPace(ctx, game.PresenterFunc(func(s game.Snapshot) { got = s.Tick }), 30)
	p.SetPaused(true)

	done := make(chan struct{})
	go func() {
		p.Present(game.Snapshot{Tick: 5})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("paused Present returned before cancel")
	case <-time.After(50 * time.Millisecond):
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("paused Present did not return after cancel")
	}
	if got != 5 {
		t.Errorf("inner sink got tick %d, want 5", got)
	}
}
