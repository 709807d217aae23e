package core

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// MaxEventsPerBuffer bounds every per-sample, per-endpoint event queue:
// the pre-sample host queue on a graph-level input, a node's per-output
// emission buffer, and the delivered buffer on an event input. Exceeding
// it drops the event and increments eventOverflows rather than allocating
// room for it (§4.3 "Capacity").
const MaxEventsPerBuffer = 64

// EventMessage is an opaque, downcastable structured event payload (e.g. a
// parsed MIDI message). Receivers identify the concrete type with a type
// switch or assertion; EventMessage itself carries no behavior.
type EventMessage interface {
	eventMessage()
}

// PayloadKind distinguishes the two Payload shapes.
type PayloadKind int

const (
	PayloadScalar PayloadKind = iota
	PayloadObject
)

// Payload is a tagged union: a cheap Scalar copied by value (velocity,
// gate-value style signalling), or an Object handle shared immutably
// across fan-out (structured messages such as parsed MIDI notes). A
// Payload is never mutated after it is emitted — fan-out duplicates the
// Payload value, never the Object it may point to.
type Payload struct {
	kind   PayloadKind
	scalar float64
	object EventMessage
}

func ScalarPayload(v float64) Payload { return Payload{kind: PayloadScalar, scalar: v} }
func ObjectPayload(m EventMessage) Payload {
	return Payload{kind: PayloadObject, object: m}
}

func (p Payload) Kind() PayloadKind { return p.kind }
func (p Payload) Scalar() (float64, bool) {
	if p.kind != PayloadScalar {
		return 0, false
	}
	return p.scalar, true
}
func (p Payload) Object() (EventMessage, bool) {
	if p.kind != PayloadObject {
		return nil, false
	}
	return p.object, true
}

// EventInstance is one timed event. It is ephemeral: delivered during the
// sample it arrives and discarded (or, for an Object payload, only the
// shared handle is discarded — the message itself may still be referenced
// by a downstream handler that kept it).
type EventInstance struct {
	FrameOffset uint32
	Payload     Payload
	// ArrayIndex selects one member of an array-arity destination
	// endpoint; -1 means "no index" (broadcast to every member), per the
	// §4.3 / §4.6 fan-out rule for arrays.
	ArrayIndex int
}

func scalarEvent(frameOffset uint32, v float64) EventInstance {
	return EventInstance{FrameOffset: frameOffset, Payload: ScalarPayload(v), ArrayIndex: -1}
}

// eventBuf is a bounded, non-allocating event queue shared by host-queued
// inputs, node emission outputs, and delivered input buffers.
type eventBuf struct {
	items [MaxEventsPerBuffer]EventInstance
	n     int
}

func (b *eventBuf) clear() { b.n = 0 }

func (b *eventBuf) push(ev EventInstance) bool {
	if b.n >= MaxEventsPerBuffer {
		eventOverflows.Inc()
		eventOverflowCount.Add(1)
		return false
	}
	b.items[b.n] = ev
	b.n++
	return true
}

func (b *eventBuf) slice() []EventInstance { return b.items[:b.n] }

// eventSlot is the storage for one Event endpoint.
type eventSlot struct {
	buf eventBuf
}

// eventOverflows is the §7 "monotonic counter" for dropped overflow
// events. It is a prometheus counter rather than a plain uint64 because
// Inc() is lock-free and allocation-free, so it is safe to call from
// inside process() — unlike a logger, which is not.
var eventOverflows = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "synthgraph_event_overflows_total",
	Help: "Events dropped because a bounded event buffer was full.",
})

// eventOverflowCount mirrors eventOverflows in an atomic, directly
// readable form: reading a prometheus Counter back out requires decoding
// a protobuf Metric, overkill for a value tests and diagnostics just want
// to compare against zero.
var eventOverflowCount atomic.Uint64

func init() {
	prometheus.MustRegister(eventOverflows)
}

// EventOverflowCount returns the number of events dropped for capacity
// reasons since process start. Exposed for diagnostics and tests; not
// part of the realtime path.
func EventOverflowCount() uint64 {
	return eventOverflowCount.Load()
}
