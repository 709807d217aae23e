package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// passthroughNode re-emits every event it receives on "in" to "out",
// ported from oscen-lib's event_passthrough.rs.
type passthroughNode struct {
	received []EventInstance
}

func (p *passthroughNode) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{
		NewEndpointDescriptor("in", Event, In),
		NewEndpointDescriptor("out", Event, Out),
	}
}
func (p *passthroughNode) Init(float64) {}
func (p *passthroughNode) Process(ctx *ProcessContext) error { return nil }
func (p *passthroughNode) HandleEvent(ctx *ProcessContext, inputIndex int, ev EventInstance) {
	p.received = append(p.received, ev)
	ctx.EmitEvent(1, ev.FrameOffset, ev.Payload)
}

func TestEventPassthroughAndQueueEvent(t *testing.T) {
	g := New(48000)
	n := &passthroughNode{}
	h := g.AddNode(n)

	require.True(t, g.QueueEvent(h.EventIn(0), 3, ScalarPayload(42)))
	require.NoError(t, g.Process())

	require.Len(t, n.received, 1)
	require.Equal(t, uint32(3), n.received[0].FrameOffset)
	sv, ok := n.received[0].Payload.Scalar()
	require.True(t, ok)
	require.Equal(t, 42.0, sv)

	out := g.DrainEvents(h.EventOut(1))
	require.Len(t, out, 1)
}

func TestEventFanOutToMultipleDestinations(t *testing.T) {
	g := New(48000)
	src := g.AddNode(&passthroughNode{})
	a := &passthroughNode{}
	b := &passthroughNode{}
	ha := g.AddNode(a)
	hb := g.AddNode(b)

	require.NoError(t, g.Connect(src.EventOut(1), ha.EventIn(0)))
	require.NoError(t, g.Connect(src.EventOut(1), hb.EventIn(0)))
	require.True(t, g.QueueEvent(src.EventIn(0), 0, ScalarPayload(1)))
	require.NoError(t, g.Process())

	require.Len(t, a.received, 1)
	require.Len(t, b.received, 1)
}

func TestEventBufferOverflowIsDropped(t *testing.T) {
	before := EventOverflowCount()
	var buf eventBuf
	for i := 0; i < MaxEventsPerBuffer; i++ {
		require.True(t, buf.push(scalarEvent(0, float64(i))))
	}
	require.False(t, buf.push(scalarEvent(0, 999)))
	require.Equal(t, before+1, EventOverflowCount())
}

func TestArrayEventDeliveryByIndex(t *testing.T) {
	g := New(48000)
	src := g.AddNode(&indexedEmitter{target: 1})

	group := &groupTarget{}
	hg := g.AddNode(group)

	require.NoError(t, g.Connect(src.EventOut(0), hg.EventIn(0)))
	require.NoError(t, g.Process())

	require.Equal(t, 1, group.counts[1])
	require.Equal(t, 0, group.counts[0])
	require.Equal(t, 0, group.counts[2])
}

// indexedEmitter emits one event per sample targeted at a fixed array
// element via EmitEventIndexed.
type indexedEmitter struct{ target int }

func (e *indexedEmitter) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{NewEndpointDescriptor("out", Event, Out)}
}
func (e *indexedEmitter) Init(float64) {}
func (e *indexedEmitter) Process(ctx *ProcessContext) error {
	ctx.EmitEventIndexed(0, e.target, 0, ScalarPayload(1))
	return nil
}

// groupTarget has one array-arity event input, used to exercise
// EventInstance.ArrayIndex-based runtime targeting of array destinations.
type groupTarget struct {
	counts [3]int
}

func (g *groupTarget) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{NewArrayEndpointDescriptor("in", Event, In, 3)}
}
func (g *groupTarget) Init(float64) {}
func (g *groupTarget) Process(ctx *ProcessContext) error {
	for elem := 0; elem < len(g.counts); elem++ {
		g.counts[elem] += len(ctx.EventsInAt(0, elem))
	}
	return nil
}
