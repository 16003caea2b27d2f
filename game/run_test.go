package game

import (
	"context"
	"errors"
	"testing"

	"github.com/pthm-cable/flappyfly/config"
)

// hover jumps whenever the fly sinks below level.
func hover(level float64) Decider {
	return DeciderFunc(func(o Observation) float64 {
		if o.Y > level {
			return 1
		}
		return 0
	})
}

func TestRunStopsOnCancel(t *testing.T) {
	ep, err := NewSingle(config.Default(), never(), Options{})
	if err != nil {
		t.Fatalf("NewSingle: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Run(ctx, ep, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if ep.Tick() != 0 {
		t.Errorf("stepped %d times after cancellation", ep.Tick())
	}
}

func TestRunCancelMidEpisode(t *testing.T) {
	ep, err := NewSingle(config.Default(), never(), Options{})
	if err != nil {
		t.Fatalf("NewSingle: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var seen []int
	sink := PresenterFunc(func(s Snapshot) {
		seen = append(seen, s.Tick)
		if s.Tick == 5 {
			cancel()
		}
	})

	if err := Run(ctx, ep, sink); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run err = %v, want context.Canceled", err)
	}
	if ep.Tick() != 5 || len(seen) != 5 {
		t.Errorf("tick=%d presented=%d, want 5 and 5", ep.Tick(), len(seen))
	}
}

func TestRunToCompletion(t *testing.T) {
	ep, err := NewSingle(config.Default(), never(), Options{})
	if err != nil {
		t.Fatalf("NewSingle: %v", err)
	}
	var last Snapshot
	if err := Run(context.Background(), ep, PresenterFunc(func(s Snapshot) { last = s })); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !last.Done || last.Tick != 24 {
		t.Errorf("last snapshot tick %d done %v", last.Tick, last.Done)
	}
}

func TestEvaluatePopulation(t *testing.T) {
	res, err := EvaluatePopulation(context.Background(), config.Default(),
		[]Decider{never(), never(), never()}, Options{Seed: 3}, nil)
	if err != nil {
		t.Fatalf("EvaluatePopulation: %v", err)
	}
	if len(res.Fitness) != 3 || res.Ticks != 24 || res.OutOfBounds != 3 || res.Capped {
		t.Errorf("result = %+v", res)
	}
}

func TestEvaluatePopulationTickCap(t *testing.T) {
	deciders := []Decider{hover(300), hover(350)}
	res, err := EvaluatePopulation(context.Background(), config.Default(), deciders, Options{Seed: 3, MaxTicks: 10}, nil)
	if err != nil {
		t.Fatalf("EvaluatePopulation: %v", err)
	}
	if res.Ticks != 10 || !res.Capped {
		t.Errorf("ticks=%d capped=%v, want 10 and true", res.Ticks, res.Capped)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := EvaluatePopulation(ctx, config.Default(), deciders, Options{MaxTicks: 10}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("caller cancellation err = %v, want context.Canceled", err)
	}
}

func TestEvaluatePopulationRejectsNil(t *testing.T) {
	_, err := EvaluatePopulation(context.Background(), config.Default(), []Decider{never(), nil}, Options{}, nil)
	if !errors.Is(err, ErrNilDecider) {
		t.Errorf("err = %v, want ErrNilDecider", err)
	}
}

// TestParallelCollisionsMatchSequential evaluates the same population with
// the collision phase forced parallel and forced sequential.
func TestParallelCollisionsMatchSequential(t *testing.T) {
	deciders := make([]Decider, 64)
	for i := range deciders {
		deciders[i] = hover(220 + 4*float64(i))
	}

	eval := func(workers int) Result {
		cfg := config.Default()
		cfg.Parallel.Threshold = 1
		cfg.Parallel.Workers = workers
		res, err := EvaluatePopulation(context.Background(), cfg, deciders, Options{Seed: 11, MaxTicks: 600}, nil)
		if err != nil {
			t.Fatalf("workers=%d: %v", workers, err)
		}
		return res
	}

	seq, par := eval(1), eval(4)
	if seq.Ticks != par.Ticks || seq.Score != par.Score || seq.Collisions != par.Collisions || seq.OutOfBounds != par.OutOfBounds {
		t.Fatalf("sequential %+v != parallel %+v", seq, par)
	}
	for i := range seq.Fitness {
		if seq.Fitness[i] != par.Fitness[i] {
			t.Errorf("fitness[%d]: sequential %v, parallel %v", i, seq.Fitness[i], par.Fitness[i])
		}
	}
}

func TestLatestSink(t *testing.T) {
	var l LatestSink
	if _, seq := l.Latest(); seq != 0 {
		t.Fatalf("empty sink seq = %d", seq)
	}
	l.Present(Snapshot{Tick: 1})
	l.Present(Snapshot{Tick: 2})
	s, seq := l.Latest()
	if s.Tick != 2 || seq != 2 {
		t.Errorf("latest tick=%d seq=%d, want 2 and 2", s.Tick, seq)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	ep, err := NewSingle(config.Default(), never(), Options{})
	if err != nil {
		t.Fatalf("NewSingle: %v", err)
	}
	first := mustStep(t, ep)
	x := first.Sweepers[0].X
	mustStep(t, ep)
	if first.Sweepers[0].X != x {
		t.Error("snapshot sweepers changed after the next step")
	}

	if s := ep.State(); s.Tick != 2 || s.Alive != 1 {
		t.Errorf("State() = tick %d alive %d", s.Tick, s.Alive)
	}
}
