package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollectorPhases(t *testing.T) {
	pc := NewPerfCollector(10)
	for i := 0; i < 5; i++ {
		pc.Begin()
		pc.Phase(PhaseStep)
		time.Sleep(100 * time.Microsecond)
		pc.Phase(PhaseDraw)
		time.Sleep(200 * time.Microsecond)
		pc.End()
	}

	stats := pc.Stats()
	if stats.Avg <= 0 {
		t.Fatal("expected a positive average")
	}
	for _, name := range []string{PhaseStep, PhaseDraw} {
		if stats.PhaseAvg[name] <= 0 {
			t.Errorf("phase %s not tracked", name)
		}
	}
	if stats.Min > stats.P95 || stats.P95 > stats.Max {
		t.Errorf("min %v, p95 %v, max %v out of order", stats.Min, stats.P95, stats.Max)
	}
}

func TestPerfCollectorRingWraps(t *testing.T) {
	pc := NewPerfCollector(5)
	for i := 0; i < 12; i++ {
		pc.Begin()
		pc.Phase(PhaseEvaluate)
		pc.End()
	}
	if pc.count != 5 {
		t.Errorf("count = %d, want 5", pc.count)
	}
	if pc.next != 12%5 {
		t.Errorf("next = %d, want %d", pc.next, 12%5)
	}
	if pc.Stats().Rate <= 0 {
		t.Error("expected a positive rate")
	}
}

func TestPerfCollectorPhaseShare(t *testing.T) {
	pc := NewPerfCollector(10)
	for i := 0; i < 5; i++ {
		pc.Begin()
		pc.Phase(PhaseBreed)
		time.Sleep(100 * time.Microsecond)
		pc.Phase(PhaseEvaluate)
		time.Sleep(2 * time.Millisecond)
		pc.End()
	}

	stats := pc.Stats()
	if stats.PhasePct[PhaseEvaluate] <= stats.PhasePct[PhaseBreed] {
		t.Errorf("evaluate %.1f%% should outweigh breed %.1f%%",
			stats.PhasePct[PhaseEvaluate], stats.PhasePct[PhaseBreed])
	}
	if total := stats.PhasePct[PhaseEvaluate] + stats.PhasePct[PhaseBreed]; total > 100.5 {
		t.Errorf("phase shares sum to %.1f%%", total)
	}
}

func TestPerfCollectorEmpty(t *testing.T) {
	stats := NewPerfCollector(0).Stats()
	if stats.Avg != 0 || stats.Rate != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
	if stats.PhaseAvg == nil || stats.PhasePct == nil {
		t.Error("maps should never be nil")
	}
}

func TestPerfCollectorFrames(t *testing.T) {
	pc := NewPerfCollector(10)
	pc.RecordFrame()
	if pc.Stats().FPS != 0 {
		t.Error("a single frame has no rate")
	}
	time.Sleep(10 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.Frame < 10*time.Millisecond {
		t.Errorf("frame = %v, want at least 10ms", stats.Frame)
	}
	if stats.FPS <= 0 || stats.FPS > 100 {
		t.Errorf("fps = %.1f, want (0, 100]", stats.FPS)
	}
}

func TestPerfStatsRow(t *testing.T) {
	stats := PerfStats{
		Avg:      1500 * time.Microsecond,
		PhasePct: map[string]float64{PhaseEvaluate: 90, PhaseBreed: 10},
	}
	row := stats.Row(7)
	if row.Generation != 7 || row.AvgUS != 1500 || row.EvaluatePct != 90 || row.BreedPct != 10 || row.StepPct != 0 {
		t.Errorf("Row = %+v", row)
	}
}
