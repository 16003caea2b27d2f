package game

import "context"

// Run steps ep until it ends, handing every snapshot to sink (which may be
// nil). ctx is checked before each step, so cancellation never interrupts a
// step half way; Run then returns ctx.Err().
func Run(ctx context.Context, ep *Episode, sink Presenter) error {
	for !ep.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap, err := ep.Step()
		if err != nil {
			return err
		}
		if sink != nil {
			sink.Present(snap)
		}
	}
	return ep.Err()
}
