package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type midiCollector struct {
	messages []MidiMessage
	noteOns  []NoteOn
	noteOffs []NoteOff
}

func (m *midiCollector) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{
		NewEndpointDescriptor("message", Event, In),
		NewEndpointDescriptor("note_on", Event, In),
		NewEndpointDescriptor("note_off", Event, In),
	}
}
func (m *midiCollector) Init(float64) {}
func (m *midiCollector) Process(ctx *ProcessContext) error { return nil }
func (m *midiCollector) HandleEvent(ctx *ProcessContext, inputIndex int, ev EventInstance) {
	obj, ok := ev.Payload.Object()
	if !ok {
		return
	}
	switch inputIndex {
	case 0:
		m.messages = append(m.messages, obj.(MidiMessage))
	case 1:
		m.noteOns = append(m.noteOns, obj.(NoteOn))
	case 2:
		m.noteOffs = append(m.noteOffs, obj.(NoteOff))
	}
}

func TestMidiParserNoteOnNoteOff(t *testing.T) {
	g := New(48000)
	parser := g.AddNode(NewMidiParser())
	coll := &midiCollector{}
	hc := g.AddNode(coll)

	require.NoError(t, g.Connect(parser.EventOut(3), hc.EventIn(0)))
	require.NoError(t, g.Connect(parser.EventOut(4), hc.EventIn(1)))
	require.NoError(t, g.Connect(parser.EventOut(5), hc.EventIn(2)))

	PushRaw(g, parser, 0, 0x90, 60, 100)
	require.NoError(t, g.Process())
	require.Len(t, coll.messages, 1)
	require.Equal(t, MidiNoteOn, coll.messages[0].Status)
	require.Equal(t, []NoteOn{{Note: 60, Velocity: 100}}, coll.noteOns)

	PushRaw(g, parser, 0, 0x80, 60, 0)
	require.NoError(t, g.Process())
	require.Equal(t, []NoteOff{{Note: 60}}, coll.noteOffs)
}

func TestMidiNoteOnVelocityZeroIsNoteOff(t *testing.T) {
	g := New(48000)
	parser := g.AddNode(NewMidiParser())
	coll := &midiCollector{}
	hc := g.AddNode(coll)
	require.NoError(t, g.Connect(parser.EventOut(5), hc.EventIn(2)))

	PushRaw(g, parser, 0, 0x90, 60, 0)
	require.NoError(t, g.Process())
	require.Equal(t, []NoteOff{{Note: 60}}, coll.noteOffs)
}

// TestMidiDrivenVoiceAllocatorCarriesVelocity is spec.md §8 Scenario S4: a
// raw note-on (0x90, 60, 100) queued into a MidiParser wired straight into
// a 4-voice VoiceAllocator must land, after one Process call, as a
// structured NoteOn{note:60, velocity:100} on voice 0's event output —
// not a bare note-number Scalar.
func TestMidiDrivenVoiceAllocatorCarriesVelocity(t *testing.T) {
	g := New(48000)
	parser := g.AddNode(NewMidiParser())
	alloc := g.AddNode(NewVoiceAllocator(4))
	require.NoError(t, g.Connect(parser.EventOut(4), alloc.EventIn(0)))
	require.NoError(t, g.Connect(parser.EventOut(5), alloc.EventIn(1)))

	voice0 := &passthroughNode{}
	hv0 := g.AddNode(voice0)
	require.NoError(t, g.Connect(alloc.EventOut(2), hv0.EventIn(0)))

	PushRaw(g, parser, 0, 0x90, 60, 100)
	require.NoError(t, g.Process())

	require.Len(t, voice0.received, 1)
	obj, ok := voice0.received[0].Payload.Object()
	require.True(t, ok)
	require.Equal(t, NoteOn{Note: 60, Velocity: 100}, obj.(NoteOn))
}
