package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArrayElementOutOfRange(t *testing.T) {
	g := New(48000)
	add := g.AddNode(Add(2))
	_, err := add.StreamIn(0).At(g, 5)
	require.Error(t, err)
	var oor *ArrayIndexOutOfRange
	require.ErrorAs(t, err, &oor)
}

func TestScalarEndpointArityIsOne(t *testing.T) {
	require.False(t, Scalar.IsArray())
	require.True(t, ArrayArity(4).IsArray())
}

func TestKindMismatchOnConnect(t *testing.T) {
	g := New(48000)
	a := g.AddNode(&constNode{v: 1})
	p := g.AddNode(NewValueAsStream())
	err := g.Connect(a.StreamOut(0), p.ValueIn(0))
	require.Error(t, err)
	var km *KindMismatchError
	require.ErrorAs(t, err, &km)
}

func TestDirectionMismatchOnConnect(t *testing.T) {
	g := New(48000)
	a := g.AddNode(&constNode{v: 1})
	b := g.AddNode(NewTransform(func(x float64) float64 { return x }))
	err := g.Connect(a.StreamOut(0), b.StreamOut(1))
	require.Error(t, err)
}

func TestHandleByName(t *testing.T) {
	g := New(48000)
	h := g.AddNode(NewDelay(0))
	k, err := h.ByName("in")
	require.NoError(t, err)
	require.Equal(t, h.Endpoint(0), k)

	_, err = h.ByName("missing")
	require.Error(t, err)
}
