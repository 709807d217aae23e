// Copyright 2018 The ZikiChomgo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package core

import (
	"fmt"
	"strings"
)

// KindMismatchError is returned by Connect when the source and destination
// endpoint kinds are incompatible and no adapter exists.
type KindMismatchError struct {
	Src, Dst EndpointKind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("kind mismatch: cannot connect %s output to %s input", e.Src, e.Dst)
}

// NodeNotFoundError is returned when an operation names a NodeKey that has
// been removed (or never existed).
type NodeNotFoundError struct {
	Key NodeKey
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node not found: %s", e.Key)
}

// EndpointNotFoundError is the endpoint-level analogue of NodeNotFoundError,
// surfaced when an EndpointKey no longer resolves (its owning node was
// removed, or it is a zero-value key).
type EndpointNotFoundError struct {
	Key EndpointKey
}

func (e *EndpointNotFoundError) Error() string {
	return fmt.Sprintf("endpoint not found: %s", e.Key)
}

// FanInViolation is returned when a connection would give a single-source
// input (a Value input, or a Stream input already at its fan-in bound) more
// than one incoming source.
type FanInViolation struct {
	Dst   EndpointKey
	Bound int
}

func (e *FanInViolation) Error() string {
	return fmt.Sprintf("fan-in violation on %s: bound is %d", e.Dst, e.Bound)
}

// FanOutViolation is returned when a connection would exceed the
// compile-time cap on destinations driven by a single output.
type FanOutViolation struct {
	Src   EndpointKey
	Bound int
}

func (e *FanOutViolation) Error() string {
	return fmt.Sprintf("fan-out violation on %s: bound is %d", e.Src, e.Bound)
}

// EndpointNameNotFound is returned by name-based lookups (chiefly sub-graph
// wiring) when the declared name doesn't exist on the node or graph.
type EndpointNameNotFound struct {
	Name string
}

func (e *EndpointNameNotFound) Error() string {
	return fmt.Sprintf("endpoint name not found: %q", e.Name)
}

// CycleDetected is returned by validate (and therefore by the next
// Process) when the topology has a cycle not broken by a feedback-
// permitting node.
type CycleDetected struct {
	Path []NodeKey
}

func (e *CycleDetected) Error() string {
	parts := make([]string, len(e.Path))
	for i, n := range e.Path {
		parts[i] = n.String()
	}
	return fmt.Sprintf("cycle detected: %s", strings.Join(parts, " -> "))
}

// ProcessError wraps a failure reported by a node's Process call.
// Graph.Process returns it from the same call, after forcing the failing
// node's stream and value outputs to zero for that sample and running the
// remaining nodes; outputs of other nodes, including the graph's terminal
// outputs, are not forced to silence.
type ProcessError struct {
	Node NodeKey
	Err  error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("process error in %s: %v", e.Node, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// ArrayIndexOutOfRange is returned by Endpoint.At when the requested
// element index falls outside an array-arity endpoint's declared size.
type ArrayIndexOutOfRange struct {
	Key   EndpointKey
	Index int
	N     int
}

func (e *ArrayIndexOutOfRange) Error() string {
	return fmt.Sprintf("array index %d out of range for %s (size %d)", e.Index, e.Key, e.N)
}

// AmbiguousBroadcastError is returned by sub-graph array wiring (§4.6, §9)
// when neither the scalar-broadcast nor the element-wise rule applies: an
// array source of different length than the destination array, with no
// explicit reduction.
type AmbiguousBroadcastError struct {
	SrcLen, DstLen int
}

func (e *AmbiguousBroadcastError) Error() string {
	return fmt.Sprintf("ambiguous array wiring: source length %d does not broadcast to or match destination length %d", e.SrcLen, e.DstLen)
}
