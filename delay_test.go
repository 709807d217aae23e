package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sequenceNode emits the next value from a fixed sequence each sample,
// standing in for spec.md §8 Scenario S3's "oscillator stub producing the
// sequence 1,2,3,4".
type sequenceNode struct {
	vals []float64
	i    int
}

func (s *sequenceNode) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{NewEndpointDescriptor("out", Stream, Out)}
}
func (s *sequenceNode) Init(float64) {}
func (s *sequenceNode) Process(ctx *ProcessContext) error {
	var v float64
	if s.i < len(s.vals) {
		v = s.vals[s.i]
	}
	s.i++
	ctx.SetStreamOut(0, v)
	return nil
}

// TestDelaySamplesMatchesScenarioS3 is spec.md §8 Scenario S3 verbatim: a
// 2-sample delay fed the sequence 1,2,3,4 must read 0,0,1,2,3 at its
// output across 5 samples.
func TestDelaySamplesMatchesScenarioS3(t *testing.T) {
	g := New(48000)
	src := g.AddNode(&sequenceNode{vals: []float64{1, 2, 3, 4}})
	d := g.AddNode(NewDelaySamples(2))
	require.NoError(t, g.Connect(src.StreamOut(0), d.StreamIn(0)))

	want := []float64{0, 0, 1, 2, 3}
	got := make([]float64, 0, len(want))
	for range want {
		require.NoError(t, g.Process())
		v, err := outputOf(g, d.StreamOut(1))
		require.NoError(t, err)
		got = append(got, v)
	}
	require.Equal(t, want, got)
}

func TestNewDelaySamplesRejectsNonPositive(t *testing.T) {
	require.Panics(t, func() { NewDelaySamples(0) })
}
