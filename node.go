package core

// Node is the contract every processing node implements (§6.2). A node
// declares a fixed endpoint list, does one-time setup in Init (which may
// allocate), and is stepped once per sample by Process (which must not).
type Node interface {
	// Descriptors returns the node's static, ordered endpoint list. The
	// order is the addressing order: AddNode's returned Handle indexes
	// endpoints positionally against this slice.
	Descriptors() []EndpointDescriptor

	// Init performs one-time, sample-rate-dependent setup (e.g. sizing a
	// delay line's ring buffer). Unlike Process, Init may allocate.
	Init(sampleRate float64)

	// Process is the per-sample step. It must read inputs and write
	// outputs only through ctx and must not allocate.
	Process(ctx *ProcessContext) error
}

// FeedbackNode is implemented by delay-like nodes that introduce at least
// one sample of lag between some input and some output, which is what
// authorizes the scheduler to let them sit on a cycle (§4.4, §9). A node
// that does not implement this interface is treated as AllowsFeedback() ==
// false, its default per §6.2.
type FeedbackNode interface {
	AllowsFeedback() bool
}

func allowsFeedback(n Node) bool {
	if fb, ok := n.(FeedbackNode); ok {
		return fb.AllowsFeedback()
	}
	return false
}

// EventHandler is implemented by nodes that want a callback per queued
// event on an event input, invoked before Process in the same sample
// (§4.5 step d). Nodes that only care about the raw per-sample event
// slice (via ProcessContext.EventsIn) can skip this interface entirely.
type EventHandler interface {
	HandleEvent(ctx *ProcessContext, inputIndex int, ev EventInstance)
}

// ValueSeeder is implemented by nodes that need their own Value output
// endpoints to start at a construction-time default rather than at the
// zero value, per §4.2 ("a Value endpoint has a current value" from
// construction). AddNode calls SeedValues once, right after Init, and
// snaps each named endpoint's RampState to the returned value with no
// ramp in progress. The map is keyed by descriptor index, the same
// indexing every other endpoint accessor uses.
type ValueSeeder interface {
	SeedValues() map[int]float64
}

// Handle is the generic endpoint-handle bundle AddNode returns: a NodeKey
// plus one EndpointKey per declared descriptor, in descriptor order. There
// are no per-node endpoint wrapper types: callers address a node's
// endpoints by index through Handle's typed accessors, or by name through
// ByName/Lookup. Handle is the uniform, reflection-free substitute for
// oscen's macro-generated per-node Endpoints type.
type Handle struct {
	Node  NodeKey
	descs []EndpointDescriptor
	eps   []EndpointKey
}

// Endpoint returns the i'th declared endpoint's key, in descriptor order.
func (h Handle) Endpoint(i int) EndpointKey { return h.eps[i] }

// ByName looks up a declared endpoint by its descriptor name. Names exist
// only for diagnostics and sub-graph wiring (§4.1); everything else
// addresses endpoints by index.
func (h Handle) ByName(name string) (EndpointKey, error) {
	for i, d := range h.descs {
		if d.Name == name {
			return h.eps[i], nil
		}
	}
	return EndpointKey{}, &EndpointNameNotFound{Name: name}
}

// Lookup finds a declared endpoint by name and returns both its
// descriptor and key, letting a caller that only has a name (e.g. a
// declarative builder) recover the Endpoint kind/direction needed to wrap
// the key with Wrap.
func (h Handle) Lookup(name string) (EndpointDescriptor, EndpointKey, error) {
	for i, d := range h.descs {
		if d.Name == name {
			return d, h.eps[i], nil
		}
	}
	return EndpointDescriptor{}, EndpointKey{}, &EndpointNameNotFound{Name: name}
}

// Wrap builds the typed Endpoint handle matching d's kind/direction
// around k, the inverse of Endpoint.Key/kindOf/dirOf. It is exported for
// callers (such as package decl) that resolve endpoints dynamically by
// name rather than through Handle's typed accessors.
func Wrap(d EndpointDescriptor, k EndpointKey) Endpoint {
	switch d.Kind {
	case Stream:
		if d.Direction == Out {
			return StreamOutput{key: k}
		}
		return StreamInput{key: k}
	case Value:
		if d.Direction == Out {
			return ValueOutput{key: k}
		}
		return ValueInput{key: k}
	default:
		if d.Direction == Out {
			return EventOutput{key: k}
		}
		return EventInput{key: k}
	}
}

func (h Handle) StreamOut(i int) StreamOutput { return StreamOutput{key: h.eps[i]} }
func (h Handle) StreamIn(i int) StreamInput   { return StreamInput{key: h.eps[i]} }
func (h Handle) ValueOut(i int) ValueOutput   { return ValueOutput{key: h.eps[i]} }
func (h Handle) ValueIn(i int) ValueInput     { return ValueInput{key: h.eps[i]} }
func (h Handle) EventOut(i int) EventOutput   { return EventOutput{key: h.eps[i]} }
func (h Handle) EventIn(i int) EventInput     { return EventInput{key: h.eps[i]} }

// ProcessContext is the per-sample handle a node's Process (and, for
// EventHandler implementers, HandleEvent) receives. It is scoped to one
// node for one sample and is never retained past the call.
type ProcessContext struct {
	g    *Graph
	node NodeKey
	eps  []EndpointKey
}

func (c *ProcessContext) StreamIn(i int) float64 {
	s := c.g.streamSlotAt(c.eps[i])
	return s.value
}

func (c *ProcessContext) SetStreamOut(i int, v float64) {
	s := c.g.streamSlotAt(c.eps[i])
	s.value = v
}

func (c *ProcessContext) ValueIn(i int) float64 {
	v := c.g.valueSlotAt(c.eps[i])
	return v.ramp.Current
}

func (c *ProcessContext) SetValueOut(i int, v float64) {
	s := c.g.valueSlotAt(c.eps[i])
	s.ramp.Set(v, 0)
}

// EventsIn returns the events delivered to input i this sample. The slice
// is only valid for the duration of the current Process/HandleEvent call.
func (c *ProcessContext) EventsIn(i int) []EventInstance {
	e := c.g.eventSlotAt(c.eps[i])
	return e.buf.slice()
}

// EmitEvent appends an event to output i's emission buffer, broadcasting
// to every connected destination (and to every element if the destination
// is an array, §4.3).
func (c *ProcessContext) EmitEvent(i int, frameOffset uint32, payload Payload) {
	e := c.g.eventSlotAt(c.eps[i])
	e.buf.push(EventInstance{FrameOffset: frameOffset, Payload: payload, ArrayIndex: -1})
}

// EmitEventIndexed is EmitEvent, but the event is delivered only to the
// arrayIndex'th element of an array-arity destination (§4.3, §4.6).
func (c *ProcessContext) EmitEventIndexed(i int, arrayIndex int, frameOffset uint32, payload Payload) {
	e := c.g.eventSlotAt(c.eps[i])
	e.buf.push(EventInstance{FrameOffset: frameOffset, Payload: payload, ArrayIndex: arrayIndex})
}

// NodeKey returns the node this context was built for, useful for
// diagnostics inside a shared handler.
func (c *ProcessContext) NodeKey() NodeKey { return c.node }

// The *At variants index into an array-arity endpoint's elem'th member
// (§4.6); elem 0 on a scalar descriptor is equivalent to the non-At form.

func (c *ProcessContext) StreamInAt(i, elem int) float64 {
	k, err := c.g.arrayElement(c.eps[i], elem)
	if err != nil {
		return 0
	}
	return c.g.streamSlotAt(k).value
}

func (c *ProcessContext) SetStreamOutAt(i, elem int, v float64) {
	k, err := c.g.arrayElement(c.eps[i], elem)
	if err != nil {
		return
	}
	c.g.streamSlotAt(k).value = v
}

func (c *ProcessContext) ValueInAt(i, elem int) float64 {
	k, err := c.g.arrayElement(c.eps[i], elem)
	if err != nil {
		return 0
	}
	return c.g.valueSlotAt(k).ramp.Current
}

func (c *ProcessContext) EventsInAt(i, elem int) []EventInstance {
	k, err := c.g.arrayElement(c.eps[i], elem)
	if err != nil {
		return nil
	}
	return c.g.eventSlotAt(k).buf.slice()
}

func (c *ProcessContext) EmitEventAt(i, elem int, frameOffset uint32, payload Payload) {
	k, err := c.g.arrayElement(c.eps[i], elem)
	if err != nil {
		return
	}
	c.g.eventSlotAt(k).buf.push(EventInstance{FrameOffset: frameOffset, Payload: payload, ArrayIndex: -1})
}
