package core

// EndpointKind distinguishes the three edge types the core moves data
// along: Stream (per-sample audio), Value (slowly varying, ramped
// control), and Event (discrete timed payloads).
type EndpointKind int

const (
	Stream EndpointKind = iota
	Value
	Event
)

func (k EndpointKind) String() string {
	switch k {
	case Stream:
		return "stream"
	case Value:
		return "value"
	case Event:
		return "event"
	default:
		return "unknown"
	}
}

// Direction is In for a node's inputs, Out for its outputs.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// Arity describes whether an endpoint is a single scalar slot or a fixed-
// size array of slots (multichannel streams, or arrays of sub-graphs).
type Arity struct {
	N int // 1 for Scalar; > 1 for Array(N)
}

// Scalar is the Arity of an ordinary single-slot endpoint.
var Scalar = Arity{N: 1}

// ArrayArity builds the Arity of a fixed-size array endpoint.
func ArrayArity(n int) Arity {
	if n < 1 {
		panic("core: array arity must be >= 1")
	}
	return Arity{N: n}
}

func (a Arity) IsArray() bool { return a.N > 1 }

// EndpointDescriptor is a node's static declaration of one endpoint: name
// (used only for diagnostics and sub-graph wiring, never as the runtime
// address), kind, direction, and arity.
type EndpointDescriptor struct {
	Name      string
	Kind      EndpointKind
	Direction Direction
	Arity     Arity
}

func NewEndpointDescriptor(name string, kind EndpointKind, dir Direction) EndpointDescriptor {
	return EndpointDescriptor{Name: name, Kind: kind, Direction: dir, Arity: Scalar}
}

func NewArrayEndpointDescriptor(name string, kind EndpointKind, dir Direction, n int) EndpointDescriptor {
	return EndpointDescriptor{Name: name, Kind: kind, Direction: dir, Arity: ArrayArity(n)}
}

// endpoint is the Graph's internal bookkeeping record for one endpoint
// slot, independent of its kind-specific storage (see streamSlot,
// valueSlot, eventSlot in block.go / ramp.go / event.go).
//
// An array-arity descriptor (Arity.N > 1) is materialized at AddNode time
// as N independent scalar endpoint entries — one streamSlot/valueSlot/
// eventSlot each, so the evaluator never branches on arity. All N entries
// share the same siblings slice (index i holds the i'th element's key),
// which is what arrayElement resolves against; a plain scalar endpoint's
// siblings is a length-1 slice containing only itself.
type endpoint struct {
	owner      NodeKey
	kind       EndpointKind
	dir        Direction
	arity      Arity // arity of the whole group this endpoint belongs to
	name       string
	arrayIndex int            // this endpoint's position within siblings
	siblings   []EndpointKey
}

// Endpoint is implemented by every typed endpoint handle (StreamInput,
// StreamOutput, ValueInput, ValueOutput, EventInput, EventOutput). The
// unexported method seals it to this package's handle types.
type Endpoint interface {
	Key() EndpointKey
	kindOf() EndpointKind
	dirOf() Direction
}

type StreamInput struct{ key EndpointKey }
type StreamOutput struct{ key EndpointKey }
type ValueInput struct{ key EndpointKey }
type ValueOutput struct{ key EndpointKey }
type EventInput struct{ key EndpointKey }
type EventOutput struct{ key EndpointKey }

func (e StreamInput) Key() EndpointKey  { return e.key }
func (e StreamOutput) Key() EndpointKey { return e.key }
func (e ValueInput) Key() EndpointKey   { return e.key }
func (e ValueOutput) Key() EndpointKey  { return e.key }
func (e EventInput) Key() EndpointKey   { return e.key }
func (e EventOutput) Key() EndpointKey  { return e.key }

func (e StreamInput) kindOf() EndpointKind  { return Stream }
func (e StreamOutput) kindOf() EndpointKind { return Stream }
func (e ValueInput) kindOf() EndpointKind   { return Value }
func (e ValueOutput) kindOf() EndpointKind  { return Value }
func (e EventInput) kindOf() EndpointKind   { return Event }
func (e EventOutput) kindOf() EndpointKind  { return Event }

func (e StreamInput) dirOf() Direction  { return In }
func (e StreamOutput) dirOf() Direction { return Out }
func (e ValueInput) dirOf() Direction   { return In }
func (e ValueOutput) dirOf() Direction  { return Out }
func (e EventInput) dirOf() Direction   { return In }
func (e EventOutput) dirOf() Direction  { return Out }

// At indexes a single element out of an array-arity endpoint, e.g. a
// voice allocator's per-voice event outputs or a sub-graph array's
// per-instance stream outputs.
func (e StreamOutput) At(g *Graph, i int) (StreamOutput, error) {
	k, err := g.arrayElement(e.key, i)
	return StreamOutput{key: k}, err
}

func (e StreamInput) At(g *Graph, i int) (StreamInput, error) {
	k, err := g.arrayElement(e.key, i)
	return StreamInput{key: k}, err
}

func (e EventOutput) At(g *Graph, i int) (EventOutput, error) {
	k, err := g.arrayElement(e.key, i)
	return EventOutput{key: k}, err
}

func (e EventInput) At(g *Graph, i int) (EventInput, error) {
	k, err := g.arrayElement(e.key, i)
	return EventInput{key: k}, err
}
