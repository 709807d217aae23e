package core

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// nodeEntry is the Graph's internal bookkeeping record for one added node.
type nodeEntry struct {
	node  Node
	descs []EndpointDescriptor
	eps   []EndpointKey // one base key per descriptor, in descriptor order
}

// Graph is a realtime-safe, per-sample data-flow graph of Nodes connected
// by Stream, Value, and Event endpoints (§3, §4). Every method that
// mutates topology (AddNode, RemoveNode, Connect, Disconnect) is expected
// to run on the same thread that drives Process — the audio callback
// thread, per §5 — except QueueEvent, which is the one documented
// cross-thread-safe entry point.
type Graph struct {
	ID         uuid.UUID
	sampleRate float64
	log        zerolog.Logger

	nodes     arena[nodeEntry]
	endpoints arena[endpoint]

	streams map[EndpointKey]*streamSlot
	values  map[EndpointKey]*valueSlot
	events  map[EndpointKey]*eventSlot

	conns *connTable

	hostQueues map[EndpointKey]*hostQueue

	order []NodeKey
	dirty bool

	lastErr error
}

// New creates an empty Graph running at sampleRate Hz.
func New(sampleRate float64) *Graph {
	id := uuid.New()
	return &Graph{
		ID:         id,
		sampleRate: sampleRate,
		log:        log.With().Str("graph", id.String()).Logger(),
		streams:    make(map[EndpointKey]*streamSlot),
		values:     make(map[EndpointKey]*valueSlot),
		events:     make(map[EndpointKey]*eventSlot),
		conns:      newConnTable(),
		hostQueues: make(map[EndpointKey]*hostQueue),
	}
}

// SampleRate returns the rate the graph was constructed with.
func (g *Graph) SampleRate() float64 { return g.sampleRate }

// addEndpointGroup materializes one descriptor's endpoint(s): one concrete
// endpoint entry per array element (a scalar descriptor is a group of
// one), each with its own kind-specific storage slot, all sharing a
// single siblings slice (§ endpoint.go).
func (g *Graph) addEndpointGroup(owner NodeKey, d EndpointDescriptor) EndpointKey {
	n := d.Arity.N
	keys := make([]EndpointKey, n)
	for i := 0; i < n; i++ {
		ak := g.endpoints.insert(endpoint{owner: owner, kind: d.Kind, dir: d.Direction, arity: d.Arity, name: d.Name})
		k := EndpointKey{ak}
		keys[i] = k
		switch d.Kind {
		case Stream:
			g.streams[k] = &streamSlot{}
		case Value:
			g.values[k] = &valueSlot{}
		case Event:
			g.events[k] = &eventSlot{}
			if d.Direction == In {
				g.hostQueues[k] = newHostQueue()
			}
		}
	}
	for i, k := range keys {
		ep, _ := g.endpoints.get(k.k)
		ep.arrayIndex = i
		ep.siblings = keys
	}
	return keys[0]
}

// AddNode adds n to the graph, allocating its declared endpoints and
// calling n.Init(sampleRate) once. The returned Handle addresses n's
// endpoints positionally against n.Descriptors().
func (g *Graph) AddNode(n Node) Handle {
	ak := g.nodes.insert(nodeEntry{})
	key := NodeKey{ak}
	descs := n.Descriptors()
	eps := make([]EndpointKey, len(descs))
	for i, d := range descs {
		eps[i] = g.addEndpointGroup(key, d)
	}
	entry, _ := g.nodes.get(ak)
	entry.node = n
	entry.descs = descs
	entry.eps = eps
	n.Init(g.sampleRate)
	if seeder, ok := n.(ValueSeeder); ok {
		for i, v := range seeder.SeedValues() {
			if i < 0 || i >= len(eps) || descs[i].Kind != Value {
				continue
			}
			g.snapValue(eps[i], v)
		}
	}
	g.dirty = true
	return Handle{Node: key, descs: descs, eps: eps}
}

// snapValue sets a Value endpoint's RampState to v with no ramp in
// progress, bypassing the "driven by a connection" guard SetValueWithRamp
// enforces for host callers — AddNode calls this before any connection to
// ep can exist.
func (g *Graph) snapValue(ep EndpointKey, v float64) {
	slot, ok := g.values[ep]
	if !ok {
		return
	}
	slot.ramp.Current, slot.ramp.Target, slot.ramp.FramesRemaining = v, v, 0
}

// RemoveNode deletes a node and every endpoint, connection, and host queue
// it owns.
func (g *Graph) RemoveNode(k NodeKey) error {
	entry, ok := g.nodes.get(k.k)
	if !ok {
		return &NodeNotFoundError{Key: k}
	}
	for _, base := range entry.eps {
		ep, ok := g.endpoints.get(base.k)
		if !ok {
			continue
		}
		for _, sib := range ep.siblings {
			g.disconnectAll(sib)
			delete(g.streams, sib)
			delete(g.values, sib)
			delete(g.events, sib)
			delete(g.hostQueues, sib)
			g.endpoints.remove(sib.k)
		}
	}
	g.nodes.remove(k.k)
	g.dirty = true
	return nil
}

func (g *Graph) disconnectAll(ep EndpointKey) {
	e, ok := g.endpoints.get(ep.k)
	if !ok {
		return
	}
	for _, dst := range g.conns.destinationsOf(ep) {
		g.disconnectPair(ep, dst, e.kind)
	}
	for _, src := range g.conns.sourcesOf(ep) {
		g.disconnectPair(src, ep, e.kind)
	}
}

// arrayElement resolves the i'th member of the array-arity group base
// belongs to; base itself is returned when i == 0 and base is scalar.
func (g *Graph) arrayElement(base EndpointKey, i int) (EndpointKey, error) {
	ep, ok := g.endpoints.get(base.k)
	if !ok {
		return EndpointKey{}, &EndpointNotFoundError{Key: base}
	}
	if i < 0 || i >= len(ep.siblings) {
		return EndpointKey{}, &ArrayIndexOutOfRange{Key: base, Index: i, N: len(ep.siblings)}
	}
	return ep.siblings[i], nil
}

func (g *Graph) streamSlotAt(k EndpointKey) *streamSlot { return g.streams[k] }
func (g *Graph) valueSlotAt(k EndpointKey) *valueSlot    { return g.values[k] }
func (g *Graph) eventSlotAt(k EndpointKey) *eventSlot    { return g.events[k] }

// Connect wires src's output to dst's input (§4.1, §4.6). Both must share
// an EndpointKind; array-arity endpoints are expanded per the broadcast
// rule for Stream and Value, or left as one group-level connection for
// Event (whose runtime fan-out resolves array destinations per-event via
// EventInstance.ArrayIndex — see fanOutEvents).
func (g *Graph) Connect(src, dst Endpoint) error {
	if src.dirOf() != Out {
		return fmt.Errorf("core: Connect source must be an output endpoint")
	}
	if dst.dirOf() != In {
		return fmt.Errorf("core: Connect destination must be an input endpoint")
	}
	if src.kindOf() != dst.kindOf() {
		return &KindMismatchError{Src: src.kindOf(), Dst: dst.kindOf()}
	}
	kind := src.kindOf()
	if kind == Event {
		return g.connectPair(src.Key(), dst.Key(), kind)
	}
	pairs, err := connectArrays(g, src.Key(), dst.Key())
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if err := g.connectPair(p[0], p[1], kind); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) connectPair(src, dst EndpointKey, kind EndpointKind) error {
	if g.conns.fanOut[src] >= MaxFanOut {
		return &FanOutViolation{Src: src, Bound: MaxFanOut}
	}
	switch kind {
	case Stream:
		slot, ok := g.streams[dst]
		if !ok {
			return &EndpointNotFoundError{Key: dst}
		}
		if err := slot.in.add(src); err != nil {
			return err
		}
	case Value:
		slot, ok := g.values[dst]
		if !ok {
			return &EndpointNotFoundError{Key: dst}
		}
		if slot.hasSource {
			return &FanInViolation{Dst: dst, Bound: 1}
		}
		slot.hasSource = true
		slot.source = src
	case Event:
		if _, ok := g.events[dst]; !ok {
			return &EndpointNotFoundError{Key: dst}
		}
	}
	g.conns.add(connection{src: src, dst: dst, kind: kind})
	g.dirty = true
	return nil
}

// Disconnect removes a previously made Connect, expanding arrays the same
// way Connect did so the caller can pass the same two handles back.
func (g *Graph) Disconnect(src, dst Endpoint) error {
	if src.kindOf() != dst.kindOf() {
		return &KindMismatchError{Src: src.kindOf(), Dst: dst.kindOf()}
	}
	kind := src.kindOf()
	if kind == Event {
		return g.disconnectPair(src.Key(), dst.Key(), kind)
	}
	pairs, err := connectArrays(g, src.Key(), dst.Key())
	if err != nil {
		return err
	}
	for _, p := range pairs {
		g.disconnectPair(p[0], p[1], kind)
	}
	return nil
}

func (g *Graph) disconnectPair(src, dst EndpointKey, kind EndpointKind) error {
	if !g.conns.remove(src, dst) {
		return fmt.Errorf("core: no connection from %s to %s", src, dst)
	}
	switch kind {
	case Stream:
		if slot, ok := g.streams[dst]; ok {
			if slot.in.remove(src) && slot.in.n == 0 {
				slot.value = 0
			}
		}
	case Value:
		if slot, ok := g.values[dst]; ok && slot.hasSource && slot.source == src {
			slot.hasSource = false
			slot.source = EndpointKey{}
		}
	}
	g.dirty = true
	return nil
}

// Validate rebuilds the topological schedule, returning a *CycleDetected
// if the current wiring has a cycle not broken by a feedback-permitting
// node. Process calls this automatically whenever the graph is dirty.
func (g *Graph) Validate() error {
	order, err := rebuildTopology(g)
	if err != nil {
		return err
	}
	g.order = order
	g.dirty = false
	return nil
}

// valueKindCheck validates ep is a Value endpoint before a Set/Get call
// touches its valueSlot.
func (g *Graph) valueKindCheck(ep Endpoint) error {
	if ep.kindOf() != Value {
		return &KindMismatchError{Src: ep.kindOf(), Dst: Value}
	}
	return nil
}

// SetValue snaps a Value endpoint to v immediately (§4.2's n==0 case).
func (g *Graph) SetValue(ep Endpoint, v float64) error {
	return g.SetValueWithRamp(ep, v, 0)
}

// SetValueWithRamp starts a linear ramp from the endpoint's current value
// to v over frames samples (0 snaps immediately). Setting an endpoint
// that mirrors a connected source is rejected: the connection, not the
// host, owns that endpoint's value.
func (g *Graph) SetValueWithRamp(ep Endpoint, v float64, frames int) error {
	if err := g.valueKindCheck(ep); err != nil {
		return err
	}
	slot, ok := g.values[ep.Key()]
	if !ok {
		return &EndpointNotFoundError{Key: ep.Key()}
	}
	if slot.hasSource {
		return fmt.Errorf("core: %s is driven by a connection, cannot be set directly", ep.Key())
	}
	slot.ramp.Set(v, frames)
	return nil
}

// PeekStream reads a Stream endpoint's value as of the most recent
// Process call, for metering and diagnostics (it is not part of the
// realtime node-to-node data path — nodes read stream inputs only via
// ProcessContext).
func (g *Graph) PeekStream(ep Endpoint) (float64, error) {
	if ep.kindOf() != Stream {
		return 0, &KindMismatchError{Src: ep.kindOf(), Dst: Stream}
	}
	slot, ok := g.streams[ep.Key()]
	if !ok {
		return 0, &EndpointNotFoundError{Key: ep.Key()}
	}
	return slot.value, nil
}

// GetValue reads a Value endpoint's current (already-ramped) value.
func (g *Graph) GetValue(ep Endpoint) (float64, error) {
	if err := g.valueKindCheck(ep); err != nil {
		return 0, err
	}
	slot, ok := g.values[ep.Key()]
	if !ok {
		return 0, &EndpointNotFoundError{Key: ep.Key()}
	}
	return slot.ramp.Current, nil
}

// QueueEvent stages an event for delivery to an Event input at the start
// of the next Process call. It is the one Graph method safe to call from
// a goroutine other than the one driving Process (§5); it holds the
// endpoint's queue mutex only for the push, and reports false if the
// endpoint's bounded staging queue is full or the endpoint does not exist.
func (g *Graph) QueueEvent(ep EventInput, frameOffset uint32, payload Payload) bool {
	hq, ok := g.hostQueues[ep.Key()]
	if !ok {
		return false
	}
	return hq.push(EventInstance{FrameOffset: frameOffset, Payload: payload, ArrayIndex: -1})
}

// DrainEvents reads and clears the events a terminal (unconnected,
// host-facing) Event output emitted during the most recent Process call.
func (g *Graph) DrainEvents(ep EventOutput) []EventInstance {
	slot, ok := g.events[ep.Key()]
	if !ok {
		return nil
	}
	out := append([]EventInstance(nil), slot.buf.slice()...)
	slot.buf.clear()
	return out
}

// advanceValues moves every independent ramp forward one sample, then
// mirrors every connection-driven Value input/output from its source, in
// that order, so a mirrored endpoint is never one sample stale (§4.2).
func (g *Graph) advanceValues() {
	for _, slot := range g.values {
		if !slot.hasSource {
			slot.ramp.Advance()
		}
	}
	for _, slot := range g.values {
		if slot.hasSource {
			if src, ok := g.values[slot.source]; ok {
				slot.ramp.Current = src.ramp.Current
			}
		}
	}
}

// gatherStreamInputs sums each connected Stream input's sources and
// refreshes each connection-driven Value input from its source, so the
// node sees what its predecessors published earlier in this sample. A
// Stream input with no connection keeps whatever was written into it
// directly (a SubGraph feeding its inner graph); it is zero otherwise.
func (g *Graph) gatherStreamInputs(entry *nodeEntry) {
	for i, d := range entry.descs {
		if d.Direction != In || (d.Kind != Stream && d.Kind != Value) {
			continue
		}
		ep, ok := g.endpoints.get(entry.eps[i].k)
		if !ok {
			continue
		}
		for _, sib := range ep.siblings {
			if d.Kind == Value {
				if vs := g.values[sib]; vs.hasSource {
					if src, ok := g.values[vs.source]; ok {
						vs.ramp.Current = src.ramp.Current
					}
				}
				continue
			}
			slot := g.streams[sib]
			if slot.in.n == 0 {
				continue
			}
			var sum float64
			for j := 0; j < slot.in.n; j++ {
				sum += g.streams[slot.in.sources[j]].value
			}
			slot.value = sum
		}
	}
}

func (g *Graph) dispatchEvents(entry *nodeEntry, ctx *ProcessContext) {
	eh, ok := entry.node.(EventHandler)
	if !ok {
		return
	}
	for i, d := range entry.descs {
		if d.Kind != Event || d.Direction != In {
			continue
		}
		ep, ok := g.endpoints.get(entry.eps[i].k)
		if !ok {
			continue
		}
		for _, sib := range ep.siblings {
			for _, ev := range g.events[sib].buf.slice() {
				eh.HandleEvent(ctx, i, ev)
			}
		}
	}
}

func (g *Graph) fanOutEvents(entry *nodeEntry) {
	for i, d := range entry.descs {
		if d.Kind != Event || d.Direction != Out {
			continue
		}
		ep, ok := g.endpoints.get(entry.eps[i].k)
		if !ok {
			continue
		}
		for _, sib := range ep.siblings {
			events := g.events[sib].buf.slice()
			if len(events) == 0 {
				continue
			}
			for _, dst := range g.conns.destinationsOf(sib) {
				g.deliverTo(dst, events)
			}
		}
	}
}

func (g *Graph) deliverTo(dst EndpointKey, events []EventInstance) {
	dstEp, ok := g.endpoints.get(dst.k)
	if !ok {
		return
	}
	dstBuf := g.events[dst]
	if len(dstEp.siblings) <= 1 {
		for _, ev := range events {
			dstBuf.buf.push(ev)
		}
		return
	}
	for _, ev := range events {
		if ev.ArrayIndex < 0 {
			for _, m := range dstEp.siblings {
				g.events[m].buf.push(ev)
			}
		} else if ev.ArrayIndex < len(dstEp.siblings) {
			g.events[dstEp.siblings[ev.ArrayIndex]].buf.push(ev)
		}
	}
}

func (g *Graph) clearEventInputs(entry *nodeEntry) {
	for i, d := range entry.descs {
		if d.Kind != Event || d.Direction != In {
			continue
		}
		ep, ok := g.endpoints.get(entry.eps[i].k)
		if !ok {
			continue
		}
		for _, sib := range ep.siblings {
			g.events[sib].buf.clear()
		}
	}
}

// clearEventOutputs discards the previous sample's emitted events. It runs
// at the start of Process, after any DrainEvents call the host made in
// between, so a terminal output stays readable until the next Process.
func (g *Graph) clearEventOutputs() {
	g.nodes.each(func(_ arenaKey, entry *nodeEntry) {
		for i, d := range entry.descs {
			if d.Kind != Event || d.Direction != Out {
				continue
			}
			ep, ok := g.endpoints.get(entry.eps[i].k)
			if !ok {
				continue
			}
			for _, sib := range ep.siblings {
				g.events[sib].buf.clear()
			}
		}
	})
}

func (g *Graph) silence(entry *nodeEntry) {
	for i, d := range entry.descs {
		if d.Direction != Out {
			continue
		}
		ep, ok := g.endpoints.get(entry.eps[i].k)
		if !ok {
			continue
		}
		for _, sib := range ep.siblings {
			switch d.Kind {
			case Stream:
				g.streams[sib].value = 0
			case Value:
				s := g.values[sib]
				s.ramp.Current, s.ramp.Target, s.ramp.FramesRemaining = 0, 0, 0
			}
		}
	}
}

// Process advances the graph by exactly one sample: it rebuilds the
// schedule if dirty, drains host-queued events, publishes every Delay's
// output for this sample (so a node scheduled ahead of a Delay on a cycle
// reads the same value as one scheduled after it), then walks every node
// in topological order performing gather / dispatch / step / fan-out for
// each (§4.5). A node whose Process call returns an error has its stream
// and value outputs forced to silence for this sample; the error is
// reported back but does not stop the remaining nodes from running.
func (g *Graph) Process() error {
	if g.dirty {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	g.clearEventOutputs()
	g.drainHostQueues()
	g.advanceValues()
	for _, nk := range g.order {
		if entry, ok := g.nodes.get(nk.k); ok {
			if d, ok := entry.node.(*Delay); ok {
				g.streams[entry.eps[1]].value = d.ring[d.pos]
			}
		}
	}

	g.lastErr = nil
	for _, nk := range g.order {
		entry, ok := g.nodes.get(nk.k)
		if !ok {
			continue
		}
		g.gatherStreamInputs(entry)
		ctx := &ProcessContext{g: g, node: nk, eps: entry.eps}
		g.dispatchEvents(entry, ctx)
		if err := entry.node.Process(ctx); err != nil {
			g.lastErr = &ProcessError{Node: nk, Err: err}
			g.silence(entry)
			g.clearEventInputs(entry)
			continue
		}
		g.fanOutEvents(entry)
		g.clearEventInputs(entry)
	}
	return g.lastErr
}

// Run advances the graph for frames samples, stopping at the first error.
func (g *Graph) Run(frames int) error {
	for i := 0; i < frames; i++ {
		if err := g.Process(); err != nil {
			return err
		}
	}
	return nil
}
