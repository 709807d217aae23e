// Copyright 2018 The ZikiChomgo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package decl is a small declarative builder over core.Graph, the Go
// substitute for the named-node/named-wire part of oscen-lib's graph!
// macro (§6.4(a)): instead of macro-expanded struct literals wiring
// connections with a ">>" operator, a Builder records named nodes and
// named connections and resolves them into real core.Graph calls in one
// Build pass, so a synth's topology can be written as a flat declaration
// instead of procedural AddNode/Connect calls.
//
// This is a subset of §6.4(a)'s full grammar: it has no graph-level
// input/output port declarations (defaults, range, curve, ramp_frames),
// no [Ctor; N] array-node construction syntax, and Wire connects two
// named ports directly rather than parsing stream-arithmetic expressions
// ("a*b -> c"). Build only ever targets core.Graph — there is no path
// from a Builder to package static's compile-time realization.
package decl

import (
	"fmt"

	"github.com/synthgraph/core"
)

// NodeRef names a node added to a Builder, used to address its endpoints
// in later Wire calls without holding onto the core.Handle directly.
type NodeRef string

// PortRef addresses one endpoint on a declared node by name.
type PortRef struct {
	Node NodeRef
	Port string
}

// P is shorthand for constructing a PortRef: P("osc", "out").
func P(node NodeRef, port string) PortRef { return PortRef{Node: node, Port: port} }

type wireSpec struct {
	src, dst PortRef
}

// Builder accumulates named nodes and named wiring before producing a
// wired core.Graph in one Build call.
type Builder struct {
	sampleRate float64
	order      []NodeRef
	dup        map[NodeRef]bool
	nodes      map[NodeRef]core.Node
	wires      []wireSpec
}

// New starts a declaration for a graph that will run at sampleRate.
func New(sampleRate float64) *Builder {
	return &Builder{sampleRate: sampleRate, nodes: make(map[NodeRef]core.Node), dup: make(map[NodeRef]bool)}
}

// Add declares a node under name. Declaring the same name twice is a
// builder-time error surfaced from Build.
func (b *Builder) Add(name NodeRef, n core.Node) *Builder {
	if _, exists := b.nodes[name]; exists {
		b.dup[name] = true
		return b
	}
	b.nodes[name] = n
	b.order = append(b.order, name)
	return b
}

// Wire declares a connection to be made once both endpoints' nodes exist,
// the Go-idiomatic stand-in for oscen's "a >> b" connection syntax.
func (b *Builder) Wire(src, dst PortRef) *Builder {
	b.wires = append(b.wires, wireSpec{src: src, dst: dst})
	return b
}

// Build adds every declared node to a fresh core.Graph in declaration
// order, then makes every declared Wire connection, resolving port names
// via core.Handle.Lookup. It returns the graph and a name -> Handle map so
// callers can keep driving the graph (SetValue, QueueEvent, ...) by name.
func (b *Builder) Build() (*core.Graph, map[NodeRef]core.Handle, error) {
	for name := range b.dup {
		return nil, nil, fmt.Errorf("decl: node %q declared more than once", name)
	}
	g := core.New(b.sampleRate)
	handles := make(map[NodeRef]core.Handle, len(b.order))
	for _, name := range b.order {
		handles[name] = g.AddNode(b.nodes[name])
	}
	for _, w := range b.wires {
		if err := b.wire(g, handles, w); err != nil {
			return nil, nil, err
		}
	}
	return g, handles, nil
}

func (b *Builder) wire(g *core.Graph, handles map[NodeRef]core.Handle, w wireSpec) error {
	srcH, ok := handles[w.src.Node]
	if !ok {
		return fmt.Errorf("decl: wire references undeclared node %q", w.src.Node)
	}
	dstH, ok := handles[w.dst.Node]
	if !ok {
		return fmt.Errorf("decl: wire references undeclared node %q", w.dst.Node)
	}
	srcDesc, srcKey, err := srcH.Lookup(w.src.Port)
	if err != nil {
		return fmt.Errorf("decl: %s.%s: %w", w.src.Node, w.src.Port, err)
	}
	dstDesc, dstKey, err := dstH.Lookup(w.dst.Port)
	if err != nil {
		return fmt.Errorf("decl: %s.%s: %w", w.dst.Node, w.dst.Port, err)
	}
	srcEp := core.Wrap(srcDesc, srcKey)
	dstEp := core.Wrap(dstDesc, dstKey)
	if err := g.Connect(srcEp, dstEp); err != nil {
		return fmt.Errorf("decl: wiring %s.%s -> %s.%s: %w", w.src.Node, w.src.Port, w.dst.Node, w.dst.Port, err)
	}
	return nil
}
