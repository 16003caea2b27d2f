package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names. Play and champion mode time step and draw per frame;
// training times evaluate, breed and telemetry per generation.
const (
	PhaseStep      = "step"
	PhaseDraw      = "draw"
	PhaseEvaluate  = "evaluate"
	PhaseBreed     = "breed"
	PhaseTelemetry = "telemetry"
)

// Phases lists the phase names in display order.
var Phases = []string{PhaseStep, PhaseDraw, PhaseEvaluate, PhaseBreed, PhaseTelemetry}

// perfSample is one timed unit of work: a frame or a generation.
type perfSample struct {
	total  time.Duration
	phases map[string]time.Duration
}

// PerfCollector times frames or generations over a ring of recent samples.
// It is not safe for concurrent use.
type PerfCollector struct {
	ring  []perfSample
	next  int
	count int

	start      time.Time
	phaseStart time.Time
	phase      string
	current    map[string]time.Duration

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector keeps the last window samples. A window below one
// falls back to 60.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{ring: make([]perfSample, window)}
}

// Begin starts a sample.
func (p *PerfCollector) Begin() {
	p.start = time.Now()
	p.current = make(map[string]time.Duration, len(Phases))
	p.phase = ""
}

// Phase closes the running phase, if any, and opens name.
func (p *PerfCollector) Phase(name string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = name
}

// End closes the sample and stores it in the ring.
func (p *PerfCollector) End() {
	now := time.Now()
	p.closePhase(now)
	p.ring[p.next] = perfSample{total: now.Sub(p.start), phases: p.current}
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase != "" && p.current != nil {
		p.current[p.phase] += now.Sub(p.phaseStart)
	}
}

// RecordFrame marks a presented frame. Frame timing is tracked apart from
// samples so a window that does no timed work still reports its FPS.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats aggregates the samples in the ring.
type PerfStats struct {
	Avg time.Duration
	Min time.Duration
	Max time.Duration
	P95 time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64 // Share of Avg, 0..100

	Rate float64 // Samples per second at the average duration

	Frame time.Duration
	FPS   float64
}

// Stats aggregates the current window. Maps are never nil.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
		Frame:    p.frame,
	}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return s
	}

	totals := make([]float64, p.count)
	sums := make(map[string]time.Duration)
	for i, smp := range p.ring[:p.count] {
		totals[i] = float64(smp.total)
		for name, d := range smp.phases {
			sums[name] += d
		}
	}
	slices.Sort(totals)

	s.Avg = time.Duration(stat.Mean(totals, nil))
	s.Min = time.Duration(totals[0])
	s.Max = time.Duration(totals[len(totals)-1])
	s.P95 = time.Duration(stat.Quantile(0.95, stat.Empirical, totals, nil))
	if s.Avg > 0 {
		s.Rate = float64(time.Second) / float64(s.Avg)
	}
	for name, sum := range sums {
		avg := sum / time.Duration(p.count)
		s.PhaseAvg[name] = avg
		if s.Avg > 0 {
			s.PhasePct[name] = float64(avg) / float64(s.Avg) * 100
		}
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_us", s.Avg.Microseconds()),
		slog.Int64("p95_us", s.P95.Microseconds()),
		slog.Int64("max_us", s.Max.Microseconds()),
		slog.Float64("rate", s.Rate),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, name := range Phases {
		if pct, ok := s.PhasePct[name]; ok {
			attrs = append(attrs, slog.Float64(name+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfRow is one perf.csv row.
type PerfRow struct {
	Generation   int     `csv:"generation"`
	AvgUS        int64   `csv:"avg_us"`
	MinUS        int64   `csv:"min_us"`
	MaxUS        int64   `csv:"max_us"`
	P95US        int64   `csv:"p95_us"`
	Rate         float64 `csv:"rate"`
	StepPct      float64 `csv:"step_pct"`
	DrawPct      float64 `csv:"draw_pct"`
	EvaluatePct  float64 `csv:"evaluate_pct"`
	BreedPct     float64 `csv:"breed_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// Row flattens s for perf.csv.
func (s PerfStats) Row(generation int) PerfRow {
	return PerfRow{
		Generation:   generation,
		AvgUS:        s.Avg.Microseconds(),
		MinUS:        s.Min.Microseconds(),
		MaxUS:        s.Max.Microseconds(),
		P95US:        s.P95.Microseconds(),
		Rate:         s.Rate,
		StepPct:      s.PhasePct[PhaseStep],
		DrawPct:      s.PhasePct[PhaseDraw],
		EvaluatePct:  s.PhasePct[PhaseEvaluate],
		BreedPct:     s.PhasePct[PhaseBreed],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
