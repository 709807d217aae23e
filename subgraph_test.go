package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// buildSimpleVoice builds a minimal inner graph (a gain stage) exposing
// "in"/"out" stream ports, standing in for oscen-lib's nested_graph_test.rs
// SimpleVoice.
func buildSimpleVoice(sampleRate float64, gain float64) (*Graph, []SubGraphPort) {
	inner := New(sampleRate)
	h := inner.AddNode(NewTransform(func(x float64) float64 { return x * gain }))
	return inner, []SubGraphPort{
		{Name: "in", Kind: Stream, Dir: In, Inner: h.Endpoint(0)},
		{Name: "out", Kind: Stream, Dir: Out, Inner: h.Endpoint(1)},
	}
}

func TestSubGraphWrapsInnerGraph(t *testing.T) {
	outer := New(48000)
	inner, ports := buildSimpleVoice(48000, 2)
	sub := outer.AddNode(NewSubGraph(inner, ports))
	src := outer.AddNode(&constNode{v: 3})

	require.NoError(t, outer.Connect(src.StreamOut(0), sub.StreamIn(0)))
	require.NoError(t, outer.Process())

	v, err := outputOf(outer, sub.StreamOut(1))
	require.NoError(t, err)
	require.Equal(t, 6.0, v)
}

func TestSubGraphArrayGivesEachVoiceIndependentState(t *testing.T) {
	outer := New(48000)
	arr := outer.AddNode(NewSubGraphArray(3, func(voice int) (*Graph, []SubGraphPort) {
		return buildSimpleVoice(48000, float64(voice+1))
	}))
	for i := 0; i < 3; i++ {
		src := outer.AddNode(&constNode{v: 1})
		in, err := arr.StreamIn(0).At(outer, i)
		require.NoError(t, err)
		require.NoError(t, outer.Connect(src.StreamOut(0), in))
	}
	require.NoError(t, outer.Process())

	for i := 0; i < 3; i++ {
		out, err := arr.StreamOut(1).At(outer, i)
		require.NoError(t, err)
		v, err := outputOf(outer, out)
		require.NoError(t, err)
		require.Equal(t, float64(i+1), v)
	}
}

func TestNestedSubGraphOfSubGraphs(t *testing.T) {
	// A DualVoiceSynth-style two-level nest: an inner graph that itself
	// wraps two SimpleVoice sub-graphs, summed.
	buildDual := func(sampleRate float64) (*Graph, []SubGraphPort) {
		mid := New(sampleRate)
		v1, p1 := buildSimpleVoice(sampleRate, 1)
		v2, p2 := buildSimpleVoice(sampleRate, 2)
		h1 := mid.AddNode(NewSubGraph(v1, p1))
		h2 := mid.AddNode(NewSubGraph(v2, p2))
		sum := mid.AddNode(Add(2))
		in0, _ := sum.StreamIn(0).At(mid, 0)
		in1, _ := sum.StreamIn(0).At(mid, 1)
		_ = mid.Connect(h1.StreamOut(1), in0)
		_ = mid.Connect(h2.StreamOut(1), in1)
		return mid, []SubGraphPort{
			{Name: "in1", Kind: Stream, Dir: In, Inner: h1.Endpoint(0)},
			{Name: "in2", Kind: Stream, Dir: In, Inner: h2.Endpoint(0)},
			{Name: "out", Kind: Stream, Dir: Out, Inner: sum.Endpoint(1)},
		}
	}

	outer := New(48000)
	inner, ports := buildDual(48000)
	dual := outer.AddNode(NewSubGraph(inner, ports))
	a := outer.AddNode(&constNode{v: 1})
	b := outer.AddNode(&constNode{v: 1})

	require.NoError(t, outer.Connect(a.StreamOut(0), dual.StreamIn(0)))
	require.NoError(t, outer.Connect(b.StreamOut(0), dual.StreamIn(1)))
	require.NoError(t, outer.Process())

	v, err := outputOf(outer, dual.StreamOut(2))
	require.NoError(t, err)
	require.Equal(t, 3.0, v) // 1*1 + 1*2
}
