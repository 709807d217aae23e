package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// constNode emits a fixed stream value every sample; used as a source in
// tests that only care about downstream wiring, not signal generation.
type constNode struct{ v float64 }

func (c *constNode) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{NewEndpointDescriptor("out", Stream, Out)}
}
func (c *constNode) Init(float64) {}
func (c *constNode) Process(ctx *ProcessContext) error {
	ctx.SetStreamOut(0, c.v)
	return nil
}

func TestConnectAndProcessStream(t *testing.T) {
	g := New(48000)
	src := g.AddNode(&constNode{v: 2})
	dst := g.AddNode(NewTransform(func(x float64) float64 { return x * 3 }))

	require.NoError(t, g.Connect(src.StreamOut(0), dst.StreamIn(0)))
	require.NoError(t, g.Process())

	v, err := outputOf(g, dst.StreamOut(1))
	require.NoError(t, err)
	require.Equal(t, 6.0, v)
}

func outputOf(g *Graph, s StreamOutput) (float64, error) {
	slot, ok := g.streams[s.Key()]
	if !ok {
		return 0, &EndpointNotFoundError{Key: s.Key()}
	}
	return slot.value, nil
}

func TestFanInSumsStreams(t *testing.T) {
	g := New(48000)
	a := g.AddNode(&constNode{v: 1})
	b := g.AddNode(&constNode{v: 2})
	dst := g.AddNode(NewTransform(func(x float64) float64 { return x }))

	require.NoError(t, g.Connect(a.StreamOut(0), dst.StreamIn(0)))
	require.NoError(t, g.Connect(b.StreamOut(0), dst.StreamIn(0)))
	require.NoError(t, g.Process())

	v, err := outputOf(g, dst.StreamOut(1))
	require.NoError(t, err)
	require.Equal(t, 3.0, v)
}

func TestFanInBoundExceeded(t *testing.T) {
	g := New(48000)
	dst := g.AddNode(NewTransform(func(x float64) float64 { return x }))
	for i := 0; i < MaxFanIn; i++ {
		src := g.AddNode(&constNode{v: 1})
		require.NoError(t, g.Connect(src.StreamOut(0), dst.StreamIn(0)))
	}
	overflow := g.AddNode(&constNode{v: 1})
	err := g.Connect(overflow.StreamOut(0), dst.StreamIn(0))
	require.Error(t, err)
	var fv *FanInViolation
	require.ErrorAs(t, err, &fv)
}

func TestValueFanInRejectsSecondSource(t *testing.T) {
	g := New(48000)
	a := g.AddNode(NewValueParam(0))
	b := g.AddNode(NewValueParam(0))
	dst := g.AddNode(NewValueAsStream())

	require.NoError(t, g.Connect(a.ValueOut(0), dst.ValueIn(0)))
	err := g.Connect(b.ValueOut(0), dst.ValueIn(0))
	require.Error(t, err)
}

func TestCycleWithoutFeedbackNodeIsRejected(t *testing.T) {
	g := New(48000)
	a := g.AddNode(NewTransform(func(x float64) float64 { return x }))
	b := g.AddNode(NewTransform(func(x float64) float64 { return x }))

	require.NoError(t, g.Connect(a.StreamOut(1), b.StreamIn(0)))
	require.NoError(t, g.Connect(b.StreamOut(1), a.StreamIn(0)))

	err := g.Validate()
	require.Error(t, err)
	var cyc *CycleDetected
	require.ErrorAs(t, err, &cyc)
}

func TestCycleThroughDelayIsAccepted(t *testing.T) {
	g := New(48000)
	a := g.AddNode(NewTransform(func(x float64) float64 { return x + 1 }))
	d := g.AddNode(NewDelay(0))

	require.NoError(t, g.Connect(a.StreamOut(1), d.StreamIn(0)))
	require.NoError(t, g.Connect(d.StreamOut(1), a.StreamIn(0)))

	require.NoError(t, g.Validate())
	require.NoError(t, g.Run(4))
}

func TestSetValueWithRampAndGetValue(t *testing.T) {
	g := New(48000)
	p := g.AddNode(NewValueParam(0))
	out := p.ValueOut(0)

	require.NoError(t, g.SetValueWithRamp(out, 10, 10))
	for i := 0; i < 10; i++ {
		require.NoError(t, g.Process())
	}
	v, err := g.GetValue(out)
	require.NoError(t, err)
	require.Equal(t, 10.0, v)
}

func TestSetValueRejectsConnectedInput(t *testing.T) {
	g := New(48000)
	p := g.AddNode(NewValueParam(0))
	dst := g.AddNode(NewValueAsStream())
	require.NoError(t, g.Connect(p.ValueOut(0), dst.ValueIn(0)))

	err := g.SetValue(dst.ValueIn(0), 5)
	require.Error(t, err)
}
