// Copyright 2018 The ZikiChomgo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package static is the compile-time-monomorphised counterpart to core's
// dynamic Graph (§6.4(b)). Where core builds an arena-backed, generically
// scheduled graph at runtime, a static graph is a hand-written Go type
// whose field layout and call order ARE the schedule: no arena lookups,
// no topological sort, no boxed Node interface dispatch — every node is a
// concrete field and Process is a fixed sequence of direct calls.
//
// The contract the two realizations share (ramping semantics, fan-in
// summation, feedback-via-delay ordering) is identical; static.Voice and
// core's equivalent dynamic wiring are exercised against the same
// expected outputs in static_test.go, whose
// TestStaticMatchesDynamicDelayFeedback compares them sample by sample.
package static

import "github.com/synthgraph/core"

// Gain is a monomorphised single-input, single-output multiply-by-
// constant stage, the static analogue of core.Transform composed with a
// constant-multiply TransformFunc.
type Gain struct {
	Amount float64
}

func (g *Gain) Step(in float64) float64 { return in * g.Amount }

// DelayLine is the static analogue of core.Delay: a fixed-size ring
// buffer read-before-write, so a static graph can hand-wire a feedback
// loop exactly like the dynamic Delay node authorizes for a dynamic one.
type DelayLine struct {
	ring []float64
	pos  int
}

// NewDelayLine sizes the ring for seconds of delay at sampleRate.
func NewDelayLine(sampleRate, seconds float64) *DelayLine {
	n := int(sampleRate*seconds + 0.5)
	if n < 1 {
		n = 1
	}
	return &DelayLine{ring: make([]float64, n)}
}

func (d *DelayLine) Step(in float64) float64 {
	out := d.ring[d.pos]
	d.ring[d.pos] = in
	d.pos++
	if d.pos == len(d.ring) {
		d.pos = 0
	}
	return out
}

// Voice is a hand-compiled monophonic voice: the input, scaled by the
// feedback coefficient, goes through a delay line whose output is added
// back to the input ahead of a gain stage. The delay is fed from the
// input, not from the gain's output, so there is no cycle. There is no
// runtime scheduling — Step's call order is the entire schedule.
type Voice struct {
	Cutoff core.RampState
	Gain   Gain
	Delay  *DelayLine
	fbGain float64
}

// NewVoice builds a static voice at sampleRate with a feedback coefficient
// and a fixed delay length.
func NewVoice(sampleRate, gain, feedback, delaySeconds float64) *Voice {
	return &Voice{
		Gain:   Gain{Amount: gain},
		Delay:  NewDelayLine(sampleRate, delaySeconds),
		fbGain: feedback,
	}
}

// SetCutoff starts (or snaps) a ramp on the voice's cutoff parameter,
// mirroring core.Graph.SetValueWithRamp's n==0-snaps / n>0-ramps contract
// exactly (§4.2) — the two realizations must agree on this regardless of
// which one a given build links against.
func (v *Voice) SetCutoff(target float64, frames int) { v.Cutoff.Set(target, frames) }

// Step advances the voice by exactly one sample: ramp, delay, gain, in
// that fixed order.
func (v *Voice) Step(in float64) float64 {
	v.Cutoff.Advance()
	fb := v.Delay.Step(in * v.fbGain)
	out := v.Gain.Step(in + fb)
	return out
}
