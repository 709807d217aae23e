package core

// Delay is the one stream node type that is allowed to sit on a cycle: it
// always reads its own ring buffer before writing to it, and Graph.Process
// publishes that read value before any node runs, so every node reads an
// output exactly the ring length behind Delay's input, regardless of
// scheduling order (§4.4, §9). Its length is fixed at Init time from a
// duration in seconds (NewDelay) or a sample count (NewDelaySamples), so
// Process never allocates.
type Delay struct {
	seconds     float64
	sampleCount int // >0 when built via NewDelaySamples; takes precedence over seconds
	ring        []float64
	pos         int
}

// NewDelay builds a delay line of the given length in seconds. The ring
// buffer itself is sized in Init, once the sample rate is known.
func NewDelay(seconds float64) *Delay {
	if seconds < 0 {
		panic("core: delay length must be non-negative")
	}
	return &Delay{seconds: seconds}
}

// NewDelaySamples builds a delay line of an exact, sample-rate-independent
// length, for callers that think in samples rather than seconds (spec.md
// §8 Scenario S3 phrases its delay length this way: "D.delay_samples =
// 2").
func NewDelaySamples(n int) *Delay {
	if n < 1 {
		panic("core: delay length must be at least one sample")
	}
	return &Delay{sampleCount: n}
}

func (d *Delay) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{
		NewEndpointDescriptor("in", Stream, In),
		NewEndpointDescriptor("out", Stream, Out),
	}
}

func (d *Delay) Init(sampleRate float64) {
	n := d.sampleCount
	if n == 0 {
		n = int(d.seconds*sampleRate + 0.5)
	}
	if n < 1 {
		n = 1
	}
	d.ring = make([]float64, n)
	d.pos = 0
}

func (d *Delay) Process(ctx *ProcessContext) error {
	out := d.ring[d.pos]
	d.ring[d.pos] = ctx.StreamIn(0)
	d.pos++
	if d.pos == len(d.ring) {
		d.pos = 0
	}
	ctx.SetStreamOut(1, out)
	return nil
}

// AllowsFeedback authorizes the scheduler to cut edges leaving this node
// when computing a topological order, since its output is always one (or
// more) samples behind its input.
func (d *Delay) AllowsFeedback() bool { return true }
