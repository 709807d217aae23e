package core

// subgraph.go implements §4.6: a fully built Graph can be wrapped as a
// single Node in an outer Graph, and a factory of such graphs can be
// replicated into an array-arity node — the mechanism behind "one voice
// topology, N independent instances" polyphony, composed with
// VoiceAllocator rather than duplicated by hand.

// SubGraphPort declares one endpoint an inner Graph exposes to whatever
// wraps it. Name must match a real endpoint inside inner (resolved once,
// at NewSubGraph time, via Inner); Kind/Dir describe it from the outer
// node's point of view, which is identical to the inner endpoint's own
// kind/direction.
type SubGraphPort struct {
	Name  string
	Kind  EndpointKind
	Dir   Direction
	Inner EndpointKey
}

// SubGraph adapts one fully wired Graph into a Node: each sample, it
// copies the outer node's inputs into the inner graph, steps the inner
// graph exactly once, and copies the inner graph's exposed outputs back
// out. Nesting is uniform — an inner Graph may itself contain SubGraph
// nodes.
type SubGraph struct {
	inner *Graph
	ports []SubGraphPort
}

// NewSubGraph wraps inner, exposing exactly the endpoints named in ports.
func NewSubGraph(inner *Graph, ports []SubGraphPort) *SubGraph {
	return &SubGraph{inner: inner, ports: ports}
}

func (s *SubGraph) Descriptors() []EndpointDescriptor {
	descs := make([]EndpointDescriptor, len(s.ports))
	for i, p := range s.ports {
		descs[i] = NewEndpointDescriptor(p.Name, p.Kind, p.Dir)
	}
	return descs
}

func (s *SubGraph) Init(sampleRate float64) {
	if s.inner.SampleRate() != sampleRate {
		s.inner.log.Warn().
			Float64("outer_rate", sampleRate).
			Float64("inner_rate", s.inner.SampleRate()).
			Msg("sub-graph sample rate does not match its host graph")
	}
}

func setInnerValue(inner *Graph, k EndpointKey, v float64) {
	slot := inner.valueSlotAt(k)
	slot.ramp.Current, slot.ramp.Target, slot.ramp.FramesRemaining = v, v, 0
}

func (s *SubGraph) Process(ctx *ProcessContext) error {
	for i, p := range s.ports {
		if p.Dir != In {
			continue
		}
		switch p.Kind {
		case Stream:
			s.inner.streamSlotAt(p.Inner).value = ctx.StreamIn(i)
		case Value:
			setInnerValue(s.inner, p.Inner, ctx.ValueIn(i))
		case Event:
			buf := s.inner.eventSlotAt(p.Inner)
			for _, ev := range ctx.EventsIn(i) {
				buf.buf.push(ev)
			}
		}
	}
	if err := s.inner.Process(); err != nil {
		return err
	}
	for i, p := range s.ports {
		if p.Dir != Out {
			continue
		}
		switch p.Kind {
		case Stream:
			ctx.SetStreamOut(i, s.inner.streamSlotAt(p.Inner).value)
		case Value:
			ctx.SetValueOut(i, s.inner.valueSlotAt(p.Inner).ramp.Current)
		case Event:
			for _, ev := range s.inner.eventSlotAt(p.Inner).buf.slice() {
				ctx.EmitEvent(i, ev.FrameOffset, ev.Payload)
			}
		}
	}
	return nil
}

// AllowsFeedback is false: any feedback permission an inner topology
// needs is resolved entirely inside the inner graph's own schedule, which
// runs to completion before this node's outputs are published.
func (s *SubGraph) AllowsFeedback() bool { return false }

// SubGraphArray replicates a SubGraph factory into NumVoices independent
// instances, each with its own inner Graph (and therefore its own node
// state — oscillator phase, envelope stage, and so on), exposed to the
// outer graph as array-arity endpoints (§4.6 "arrays of sub-graphs").
// VoiceAllocator's voice_N event outputs are the typical source wired
// into this node's corresponding array element.
type SubGraphArray struct {
	instances []*SubGraph
	ports     []SubGraphPort
}

// NewSubGraphArray calls factory n times, once per voice, and exposes the
// ports the first call returns (every instance is expected to declare an
// identical port schema).
func NewSubGraphArray(n int, factory func(voice int) (*Graph, []SubGraphPort)) *SubGraphArray {
	instances := make([]*SubGraph, n)
	var ports []SubGraphPort
	for i := 0; i < n; i++ {
		inner, p := factory(i)
		instances[i] = NewSubGraph(inner, p)
		if i == 0 {
			ports = p
		}
	}
	return &SubGraphArray{instances: instances, ports: ports}
}

func (s *SubGraphArray) Descriptors() []EndpointDescriptor {
	descs := make([]EndpointDescriptor, len(s.ports))
	for i, p := range s.ports {
		descs[i] = NewArrayEndpointDescriptor(p.Name, p.Kind, p.Dir, len(s.instances))
	}
	return descs
}

func (s *SubGraphArray) Init(sampleRate float64) {
	for _, inst := range s.instances {
		inst.Init(sampleRate)
	}
}

func (s *SubGraphArray) Process(ctx *ProcessContext) error {
	for elem, inst := range s.instances {
		for i, p := range inst.ports {
			if p.Dir != In {
				continue
			}
			switch p.Kind {
			case Stream:
				inst.inner.streamSlotAt(p.Inner).value = ctx.StreamInAt(i, elem)
			case Value:
				setInnerValue(inst.inner, p.Inner, ctx.ValueInAt(i, elem))
			case Event:
				buf := inst.inner.eventSlotAt(p.Inner)
				for _, ev := range ctx.EventsInAt(i, elem) {
					buf.buf.push(ev)
				}
			}
		}
		if err := inst.inner.Process(); err != nil {
			return err
		}
		for i, p := range inst.ports {
			if p.Dir != Out {
				continue
			}
			switch p.Kind {
			case Stream:
				ctx.SetStreamOutAt(i, elem, inst.inner.streamSlotAt(p.Inner).value)
			case Value:
				k, err := ctx.g.arrayElement(ctx.eps[i], elem)
				if err == nil {
					ctx.g.valueSlotAt(k).ramp.Set(inst.inner.valueSlotAt(p.Inner).ramp.Current, 0)
				}
			case Event:
				for _, ev := range inst.inner.eventSlotAt(p.Inner).buf.slice() {
					ctx.EmitEventAt(i, elem, ev.FrameOffset, ev.Payload)
				}
			}
		}
	}
	return nil
}

func (s *SubGraphArray) AllowsFeedback() bool { return false }
