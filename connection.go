package core

// MaxFanOut bounds how many destinations a single output endpoint may
// drive. Unlike MaxFanIn this is not a per-sample summation limit — it
// exists only so connection tables stay fixed-size-friendly and so a
// mis-wired graph fails fast at Connect time rather than degrading
// silently (§4.3 "Capacity", §9).
const MaxFanOut = 64

// connection is one concrete src -> dst edge; kind matches the endpoint
// kind on both of its ends (mixed-kind connections never reach this table
// — Connect rejects them with KindMismatchError; ValueAsStream and
// StreamAsValue in function_nodes.go are the explicit adapters).
type connection struct {
	src, dst EndpointKey
	kind     EndpointKind
}

// connTable holds every concrete (post array-expansion) connection in the
// graph, plus reverse indexes used by the evaluator's gather phase and by
// Disconnect.
type connTable struct {
	conns   []connection
	bySrc   map[EndpointKey][]int
	byDst   map[EndpointKey][]int
	fanOut  map[EndpointKey]int
}

func newConnTable() *connTable {
	return &connTable{
		bySrc:  make(map[EndpointKey][]int),
		byDst:  make(map[EndpointKey][]int),
		fanOut: make(map[EndpointKey]int),
	}
}

func (t *connTable) add(c connection) int {
	idx := len(t.conns)
	t.conns = append(t.conns, c)
	t.bySrc[c.src] = append(t.bySrc[c.src], idx)
	t.byDst[c.dst] = append(t.byDst[c.dst], idx)
	t.fanOut[c.src]++
	return idx
}

// remove deletes the connection between src and dst, if one exists,
// reporting whether it found one. Indexes already issued to other callers
// are not renumbered; remove rewrites bySrc/byDst/fanOut in place instead
// of compacting conns, which keeps removal O(fan) rather than O(total).
func (t *connTable) remove(src, dst EndpointKey) bool {
	idxs := t.byDst[dst]
	for pos, idx := range idxs {
		c := t.conns[idx]
		if c.src != src {
			continue
		}
		t.conns[idx] = connection{}
		t.byDst[dst] = append(idxs[:pos], idxs[pos+1:]...)
		t.removeFromSrc(src, idx)
		t.fanOut[src]--
		return true
	}
	return false
}

func (t *connTable) removeFromSrc(src EndpointKey, idx int) {
	list := t.bySrc[src]
	for i, v := range list {
		if v == idx {
			t.bySrc[src] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func (t *connTable) sourcesOf(dst EndpointKey) []EndpointKey {
	idxs := t.byDst[dst]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]EndpointKey, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, t.conns[idx].src)
	}
	return out
}

func (t *connTable) destinationsOf(src EndpointKey) []EndpointKey {
	idxs := t.bySrc[src]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]EndpointKey, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, t.conns[idx].dst)
	}
	return out
}

// connectArrays expands a connection request between two possibly-array
// endpoints into zero or more concrete scalar connections, applying the
// sub-graph broadcast rule (§4.6, §9):
//
//   - scalar -> scalar: one connection.
//   - scalar -> array:  the scalar source is broadcast to every element.
//   - array  -> array of equal length: connected element-wise.
//   - array  -> scalar, or arrays of unequal length: ambiguous, rejected.
//
// It returns the list of concrete (src, dst) scalar pairs to wire; the
// caller (Graph.Connect) is responsible for the kind/fan-in/fan-out checks
// on each pair.
func connectArrays(g *Graph, srcBase, dstBase EndpointKey) ([][2]EndpointKey, error) {
	srcEp, ok := g.endpoints.get(srcBase.k)
	if !ok {
		return nil, &EndpointNotFoundError{Key: srcBase}
	}
	dstEp, ok := g.endpoints.get(dstBase.k)
	if !ok {
		return nil, &EndpointNotFoundError{Key: dstBase}
	}

	srcN, dstN := len(srcEp.siblings), len(dstEp.siblings)

	switch {
	case srcN == 1 && dstN == 1:
		return [][2]EndpointKey{{srcBase, dstBase}}, nil

	case srcN == 1 && dstN > 1:
		pairs := make([][2]EndpointKey, dstN)
		for i, d := range dstEp.siblings {
			pairs[i] = [2]EndpointKey{srcBase, d}
		}
		return pairs, nil

	case srcN > 1 && dstN > 1 && srcN == dstN:
		pairs := make([][2]EndpointKey, srcN)
		for i := range srcEp.siblings {
			pairs[i] = [2]EndpointKey{srcEp.siblings[i], dstEp.siblings[i]}
		}
		return pairs, nil

	default:
		return nil, &AmbiguousBroadcastError{SrcLen: srcN, DstLen: dstN}
	}
}
