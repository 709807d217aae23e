package core

// RampState implements the linear value-ramp state machine of §4.2.
// Zero value is a valid idle ramp at 0.
type RampState struct {
	Current         float64
	Target          float64
	step            float64
	FramesRemaining int
}

// Idle reports whether the ramp has reached its target.
func (r *RampState) Idle() bool { return r.FramesRemaining == 0 }

// Set starts (or restarts) a ramp toward target over n frames. n == 0
// snaps immediately, matching the idle(current) -> set(target,0) ->
// idle(target) transition. Setting while already ramping restarts the
// ramp from the current interpolated value, not the original start.
func (r *RampState) Set(target float64, n int) {
	if n <= 0 {
		r.Current = target
		r.Target = target
		r.step = 0
		r.FramesRemaining = 0
		return
	}
	r.Target = target
	r.step = (target - r.Current) / float64(n)
	r.FramesRemaining = n
}

// Advance moves the ramp forward by exactly one sample. Evaluator calls
// this for every ramped value endpoint before any node in the sample is
// processed, so that "the value observed downstream at sample t is
// exactly current at the start of that sample" (§4.2) holds.
func (r *RampState) Advance() {
	if r.FramesRemaining == 0 {
		return
	}
	r.FramesRemaining--
	if r.FramesRemaining == 0 {
		r.Current = r.Target
		r.step = 0
		return
	}
	r.Current += r.step
}

// valueSlot is the storage for one Value endpoint: its ramp state, plus
// (for an input) the single connected source, if any, whose current value
// is copied in every sample rather than ramped locally.
type valueSlot struct {
	ramp       RampState
	source     EndpointKey
	hasSource  bool
	defaultRmp int // default ramp length slot; no setter reads it (SetValue snaps, SetValueWithRamp takes an explicit length)
}
