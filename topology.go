package core

// topology.go ports oscen-lib's graph/topology.rs: it first checks the
// *original*, uncut graph against the feedback rule (Tarjan SCCs; a cycle
// that does not pass through at least one feedback-permitting node is a
// genuine error, not a schedulable feedback loop), then cuts every edge
// leaving a feedback-permitting node (so a delay-style node never has to
// wait on its own cycle) and orders the result with Kahn's algorithm,
// which also reports any cycle the cut did not break (§4.4, §9).

// nodeGraph is the node-level adjacency derived from the current
// connection table: an edge u -> v exists whenever some connection's
// source endpoint is owned by u and its destination endpoint is owned by
// v. Multiple endpoint-level connections between the same node pair
// collapse to one node-level edge.
type nodeGraph struct {
	order []NodeKey
	adj   map[NodeKey][]NodeKey
}

func buildNodeGraph(g *Graph, cutFeedback bool) *nodeGraph {
	ng := &nodeGraph{adj: make(map[NodeKey][]NodeKey)}
	g.nodes.each(func(k arenaKey, _ *nodeEntry) {
		ng.order = append(ng.order, NodeKey{k})
	})
	seen := make(map[[2]NodeKey]bool)
	for _, c := range g.conns.conns {
		if c == (connection{}) {
			continue
		}
		srcEp, ok := g.endpoints.get(c.src.k)
		if !ok {
			continue
		}
		dstEp, ok := g.endpoints.get(c.dst.k)
		if !ok {
			continue
		}
		if cutFeedback {
			if entry, ok := g.nodes.get(srcEp.owner.k); ok && allowsFeedback(entry.node) {
				continue
			}
		}
		u, v := srcEp.owner, dstEp.owner
		key := [2]NodeKey{u, v}
		if seen[key] {
			continue
		}
		seen[key] = true
		ng.adj[u] = append(ng.adj[u], v)
	}
	return ng
}

// stronglyConnectedComponents runs Tarjan's algorithm, returning components
// in no particular order. A component of size 1 whose node has no self-
// edge is not a cycle.
func (ng *nodeGraph) stronglyConnectedComponents() [][]NodeKey {
	index := make(map[NodeKey]int)
	low := make(map[NodeKey]int)
	onStack := make(map[NodeKey]bool)
	var stack []NodeKey
	var comps [][]NodeKey
	counter := 0

	var strongconnect func(v NodeKey)
	strongconnect = func(v NodeKey) {
		index[v] = counter
		low[v] = counter
		counter++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range ng.adj[v] {
			if _, ok := index[w]; !ok {
				strongconnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if index[w] < low[v] {
					low[v] = index[w]
				}
			}
		}

		if low[v] == index[v] {
			var comp []NodeKey
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			comps = append(comps, comp)
		}
	}

	for _, v := range ng.order {
		if _, ok := index[v]; !ok {
			strongconnect(v)
		}
	}
	return comps
}

func (ng *nodeGraph) hasSelfEdge(v NodeKey) bool {
	for _, w := range ng.adj[v] {
		if w == v {
			return true
		}
	}
	return false
}

// verifyCyclesHaveFeedback checks every non-trivial SCC of the original
// (uncut) node graph contains at least one feedback-permitting node.
func verifyCyclesHaveFeedback(g *Graph, ng *nodeGraph) error {
	for _, comp := range ng.stronglyConnectedComponents() {
		isCycle := len(comp) > 1
		if len(comp) == 1 && ng.hasSelfEdge(comp[0]) {
			isCycle = true
		}
		if !isCycle {
			continue
		}
		ok := false
		for _, n := range comp {
			if entry, found := g.nodes.get(n.k); found && allowsFeedback(entry.node) {
				ok = true
				break
			}
		}
		if !ok {
			return &CycleDetected{Path: comp}
		}
	}
	return nil
}

// topologicalSort computes a Kahn's-algorithm order over the feedback-cut
// node graph. Ties (nodes with no remaining dependency at the same time)
// are broken by the order they became ready, starting from the node
// arena's slot order (insertion order until a removed node's slot is
// reused), which keeps Process scheduling deterministic run to run for a
// fixed graph shape.
func topologicalSort(cut *nodeGraph) ([]NodeKey, error) {
	indeg := make(map[NodeKey]int, len(cut.order))
	for _, v := range cut.order {
		indeg[v] = 0
	}
	for _, vs := range cut.adj {
		for _, v := range vs {
			indeg[v]++
		}
	}

	var ready []NodeKey
	for _, v := range cut.order {
		if indeg[v] == 0 {
			ready = append(ready, v)
		}
	}

	order := make([]NodeKey, 0, len(cut.order))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, w := range cut.adj[n] {
			indeg[w]--
			if indeg[w] == 0 {
				ready = append(ready, w)
			}
		}
	}

	if len(order) != len(cut.order) {
		var remaining []NodeKey
		for _, v := range cut.order {
			if indeg[v] > 0 {
				remaining = append(remaining, v)
			}
		}
		return nil, &CycleDetected{Path: remaining}
	}
	return order, nil
}

// rebuildTopology is the single entry point Graph.Validate / Process call
// after any topology-changing mutation: it verifies the feedback rule
// against the full graph, then computes and caches a schedule from the
// feedback-cut graph.
func rebuildTopology(g *Graph) ([]NodeKey, error) {
	full := buildNodeGraph(g, false)
	if err := verifyCyclesHaveFeedback(g, full); err != nil {
		return nil, err
	}
	cut := buildNodeGraph(g, true)
	return topologicalSort(cut)
}
