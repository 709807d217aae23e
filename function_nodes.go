package core

// function_nodes.go collects the small stateless/near-stateless utility
// nodes every non-trivial graph ends up wiring in: unary and n-ary stream
// combinators, and the two adapters that let a Value and a Stream
// endpoint talk to each other despite §3's rule that the two kinds never
// connect directly.

// TransformFunc maps one input sample to one output sample.
type TransformFunc func(x float64) float64

// Transform applies fn to its single stream input, sample by sample.
type Transform struct {
	fn TransformFunc
}

func NewTransform(fn TransformFunc) *Transform { return &Transform{fn: fn} }

func (t *Transform) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{
		NewEndpointDescriptor("in", Stream, In),
		NewEndpointDescriptor("out", Stream, Out),
	}
}

func (t *Transform) Init(float64) {}

func (t *Transform) Process(ctx *ProcessContext) error {
	ctx.SetStreamOut(1, t.fn(ctx.StreamIn(0)))
	return nil
}

// CombineFunc folds a fixed-size window of input samples into one output
// sample.
type CombineFunc func(xs []float64) float64

// Combine applies fn across n stream inputs every sample. It is the
// general n-ary building block Add and Multiply specialize.
type Combine struct {
	n   int
	fn  CombineFunc
	buf []float64 // reused scratch, sized once in Init-adjacent NewCombine; never grown in Process
}

func NewCombine(n int, fn CombineFunc) *Combine {
	return &Combine{n: n, fn: fn, buf: make([]float64, n)}
}

func (c *Combine) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{
		NewArrayEndpointDescriptor("in", Stream, In, c.n),
		NewEndpointDescriptor("out", Stream, Out),
	}
}

func (c *Combine) Init(float64) {}

func (c *Combine) Process(ctx *ProcessContext) error {
	for i := 0; i < c.n; i++ {
		c.buf[i] = ctx.StreamInAt(0, i)
	}
	ctx.SetStreamOut(1, c.fn(c.buf))
	return nil
}

// Add sums n stream inputs.
func Add(n int) *Combine {
	return NewCombine(n, func(xs []float64) float64 {
		var sum float64
		for _, x := range xs {
			sum += x
		}
		return sum
	})
}

// Multiply is a ring modulator / amplitude-modulation building block: the
// product of n stream inputs.
func Multiply(n int) *Combine {
	return NewCombine(n, func(xs []float64) float64 {
		prod := 1.0
		for _, x := range xs {
			prod *= x
		}
		return prod
	})
}

// ValueParam is a host-settable Value source: the node form of a bare
// graph-level parameter, whose output is driven only by SetValue /
// SetValueWithRamp (§4.2). Every synth-level "cutoff", "gain", or
// "detune" knob is one of these.
type ValueParam struct {
	initial float64
}

func NewValueParam(initial float64) *ValueParam { return &ValueParam{initial: initial} }

func (p *ValueParam) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{NewEndpointDescriptor("value", Value, Out)}
}

func (p *ValueParam) Init(float64) {}

// SeedValues snaps this node's single Value output to its construction-
// time initial value (§4.2) the moment it is added to a Graph, so the
// first Process call observes initial rather than the zero value a bare
// RampState starts with.
func (p *ValueParam) SeedValues() map[int]float64 {
	return map[int]float64{0: p.initial}
}

func (p *ValueParam) Process(ctx *ProcessContext) error {
	return nil
}

// ValueAsStream adapts a Value endpoint into a Stream: its single stream
// output republishes the (ramped) value every sample, so a control-rate
// parameter can feed an audio-rate input (a sub-graph's "cutoff" driving
// a filter's stream-typed modulation input, for instance). This is the
// explicit adapter §3 requires in place of an implicit Stream<->Value
// connection.
type ValueAsStream struct{}

func NewValueAsStream() *ValueAsStream { return &ValueAsStream{} }

func (a *ValueAsStream) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{
		NewEndpointDescriptor("in", Value, In),
		NewEndpointDescriptor("out", Stream, Out),
	}
}

func (a *ValueAsStream) Init(float64) {}

func (a *ValueAsStream) Process(ctx *ProcessContext) error {
	ctx.SetStreamOut(1, ctx.ValueIn(0))
	return nil
}

// StreamAsValue adapts the other direction: it samples a stream input
// once per sample into a Value output with no ramping of its own (the
// stream is assumed already smooth, e.g. an envelope follower's output).
type StreamAsValue struct{}

func NewStreamAsValue() *StreamAsValue { return &StreamAsValue{} }

func (a *StreamAsValue) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{
		NewEndpointDescriptor("in", Stream, In),
		NewEndpointDescriptor("out", Value, Out),
	}
}

func (a *StreamAsValue) Init(float64) {}

func (a *StreamAsValue) Process(ctx *ProcessContext) error {
	ctx.SetValueOut(1, ctx.StreamIn(0))
	return nil
}
