package ui

// Phase is a stage of an interactive single-fly episode.
type Phase int

const (
	PhaseCountdown Phase = iota
	PhasePlaying
	PhaseLost
)

func (p Phase) String() string {
	switch p {
	case PhaseCountdown:
		return "countdown"
	case PhasePlaying:
		return "playing"
	case PhaseLost:
		return "lost"
	default:
		return "unknown"
	}
}

// Frame budgets of the countdown and the lost overlay, in seconds.
const (
	CountdownSeconds = 3
	LostHoldSeconds  = 5
)

// PlayFlow sequences countdown, play and the lost overlay by frame count.
// The episode only steps while the flow is in PhasePlaying.
type PlayFlow struct {
	fps    int
	phase  Phase
	frames int
}

// NewPlayFlow starts a flow in its countdown at fps frames per second.
func NewPlayFlow(fps int) *PlayFlow {
	return &PlayFlow{fps: max(fps, 1)}
}

// Phase returns the current phase.
func (f *PlayFlow) Phase() Phase {
	return f.phase
}

// Stepping reports whether the episode should step this frame.
func (f *PlayFlow) Stepping() bool {
	return f.phase == PhasePlaying
}

// Countdown returns the digit to show, 3 down to 1, or 0 outside the
// countdown.
func (f *PlayFlow) Countdown() int {
	if f.phase != PhaseCountdown {
		return 0
	}
	return CountdownSeconds - f.frames/f.fps
}

// Update advances the flow by one frame. episodeDone is the episode's state
// after this frame's step. It returns true when the lost overlay has been
// held long enough and the caller should start a new episode; the flow is
// then back in its countdown.
func (f *PlayFlow) Update(episodeDone bool) (restart bool) {
	switch f.phase {
	case PhaseCountdown:
		f.frames++
		if f.frames >= CountdownSeconds*f.fps {
			f.phase, f.frames = PhasePlaying, 0
		}
	case PhasePlaying:
		if episodeDone {
			f.phase, f.frames = PhaseLost, 0
		}
	case PhaseLost:
		f.frames++
		if f.frames >= LostHoldSeconds*f.fps {
			f.phase, f.frames = PhaseCountdown, 0
			return true
		}
	}
	return false
}
