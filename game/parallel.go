package game

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// detectCollisions fills e.hits for every live pilot that overlaps any
// pair. Each worker writes a disjoint range of hits and reads only the
// pair snapshot and the oracle, so the reduction is just the slice itself.
func (e *Episode) detectCollisions() {
	n := len(e.live)
	workers := e.workers()
	if workers <= 1 || e.cfg.Parallel.Threshold <= 0 || n < e.cfg.Parallel.Threshold {
		e.collideRange(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			e.collideRange(start, end)
			return nil
		})
	}
	_ = g.Wait() // Workers never fail
}

// collideRange checks pilots [start, end) against every pair, pairs outer.
func (e *Episode) collideRange(start, end int) {
	for _, s := range e.pairs {
		for i := start; i < end; i++ {
			if e.hits[i] {
				continue
			}
			e.hits[i] = e.oracle.Collides(e.live[i].fly, s)
		}
	}
}

func (e *Episode) workers() int {
	if w := e.cfg.Parallel.Workers; w > 0 {
		return w
	}
	return runtime.GOMAXPROCS(0)
}
