package core

import "fmt"

// NodeKey is an opaque, stable identity for a node added to a Graph. It
// stays valid from AddNode until RemoveNode; reusing it afterwards is
// rejected by the arena's generation check.
type NodeKey struct{ k arenaKey }

func (n NodeKey) String() string { return fmt.Sprintf("node#%d.%d", n.k.idx, n.k.gen) }

// EndpointKey is an opaque identity for one input or output slot on a
// node. Its lifetime is tied to the owning node: removing the node
// invalidates every EndpointKey it declared.
type EndpointKey struct{ k arenaKey }

func (e EndpointKey) String() string { return fmt.Sprintf("ep#%d.%d", e.k.idx, e.k.gen) }

// zeroEndpointKey is never a valid key returned by a Graph; used as a
// sentinel for "unset" endpoint fields.
var zeroEndpointKey = EndpointKey{}

func (e EndpointKey) isZero() bool { return e == zeroEndpointKey }
