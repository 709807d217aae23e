package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddCombinesAllInputs(t *testing.T) {
	g := New(48000)
	add := g.AddNode(Add(3))
	for i, v := range []float64{1, 2, 3} {
		src := g.AddNode(&constNode{v: v})
		in, err := add.StreamIn(0).At(g, i)
		require.NoError(t, err)
		require.NoError(t, g.Connect(src.StreamOut(0), in))
	}
	require.NoError(t, g.Process())
	v, err := outputOf(g, add.StreamOut(1))
	require.NoError(t, err)
	require.Equal(t, 6.0, v)
}

func TestMultiplyIsProduct(t *testing.T) {
	g := New(48000)
	mul := g.AddNode(Multiply(2))
	a := g.AddNode(&constNode{v: 3})
	b := g.AddNode(&constNode{v: 4})
	in0, _ := mul.StreamIn(0).At(g, 0)
	in1, _ := mul.StreamIn(0).At(g, 1)
	require.NoError(t, g.Connect(a.StreamOut(0), in0))
	require.NoError(t, g.Connect(b.StreamOut(0), in1))
	require.NoError(t, g.Process())
	v, err := outputOf(g, mul.StreamOut(1))
	require.NoError(t, err)
	require.Equal(t, 12.0, v)
}

func TestValueParamSeedsInitialValue(t *testing.T) {
	g := New(48000)
	p := g.AddNode(NewValueParam(440))

	v, err := g.GetValue(p.ValueOut(0))
	require.NoError(t, err)
	require.Equal(t, 440.0, v)

	a := g.AddNode(NewValueAsStream())
	require.NoError(t, g.Connect(p.ValueOut(0), a.ValueIn(0)))
	require.NoError(t, g.Process())

	out, err := outputOf(g, a.StreamOut(1))
	require.NoError(t, err)
	require.Equal(t, 440.0, out)
}

func TestValueAsStreamRepublishesRampedValue(t *testing.T) {
	g := New(48000)
	p := g.AddNode(NewValueParam(0))
	a := g.AddNode(NewValueAsStream())
	require.NoError(t, g.Connect(p.ValueOut(0), a.ValueIn(0)))

	require.NoError(t, g.SetValue(p.ValueOut(0), 5))
	require.NoError(t, g.Process())

	v, err := outputOf(g, a.StreamOut(1))
	require.NoError(t, err)
	require.Equal(t, 5.0, v)
}

func TestStreamAsValueSamplesStream(t *testing.T) {
	g := New(48000)
	src := g.AddNode(&constNode{v: 7})
	s := g.AddNode(NewStreamAsValue())
	require.NoError(t, g.Connect(src.StreamOut(0), s.StreamIn(0)))
	require.NoError(t, g.Process())

	v, err := g.GetValue(s.ValueOut(1))
	require.NoError(t, err)
	require.Equal(t, 7.0, v)
}
