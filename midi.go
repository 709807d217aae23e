package core

// MidiMessage is the parsed form of a channel voice message: the
// EventMessage object payload MidiParser emits on its "message" output,
// and the concrete type HandleEvent callers type-switch on downstream
// (§ oscen-lib/src/midi.rs, reworked away from its rack/midir device
// binding — that part is host I/O, out of scope here — and down to pure
// byte parsing).
type MidiMessage struct {
	Status  MidiStatus
	Channel uint8
	Data1   uint8
	Data2   uint8
}

func (MidiMessage) eventMessage() {}

// NoteOn is the structured event MidiParser emits on its "note_on" output
// (§6.3): a channel voice message with status 0x90 and a non-zero
// velocity. It carries velocity through to whatever reads the typed
// output, unlike a bare note-number Scalar.
type NoteOn struct {
	Note     float64
	Velocity float64
}

func (NoteOn) eventMessage() {}

// NoteOff is the structured event MidiParser emits on its "note_off"
// output (§6.3): either a real 0x80 status message, or a 0x90 message
// with velocity 0 (the MIDI convention for a note-off).
type NoteOff struct {
	Note float64
}

func (NoteOff) eventMessage() {}

// ControlChange is the structured event MidiParser emits on its
// "control_change" output (§6.3).
type ControlChange struct {
	CC    float64
	Value float64
}

func (ControlChange) eventMessage() {}

// MidiStatus is the parsed channel-voice message type (the high nibble of
// a MIDI status byte).
type MidiStatus int

const (
	MidiNoteOff MidiStatus = iota
	MidiNoteOn
	MidiControlChange
	MidiPitchBend
	MidiUnknown
)

// MidiParser turns a stream of raw 3-byte channel voice messages, queued
// via QueueEvent on its raw_status / raw_data1 / raw_data2 inputs (one
// Scalar per byte — see PushRaw), into structured MidiMessage
// events on its "message" output, and a typed pair of note_on / note_off
// outputs (NoteOn{note, velocity} / NoteOff{note}, §6.3) for direct
// VoiceAllocator wiring.
type MidiParser struct{}

func NewMidiParser() *MidiParser { return &MidiParser{} }

func (m *MidiParser) Descriptors() []EndpointDescriptor {
	return []EndpointDescriptor{
		NewEndpointDescriptor("raw_status", Event, In),
		NewEndpointDescriptor("raw_data1", Event, In),
		NewEndpointDescriptor("raw_data2", Event, In),
		NewEndpointDescriptor("message", Event, Out),
		NewEndpointDescriptor("note_on", Event, Out),
		NewEndpointDescriptor("note_off", Event, Out),
		NewEndpointDescriptor("control_change", Event, Out),
	}
}

func (m *MidiParser) Init(float64) {}

func (m *MidiParser) Process(ctx *ProcessContext) error {
	status := ctx.EventsIn(0)
	d1 := ctx.EventsIn(1)
	d2 := ctx.EventsIn(2)
	n := len(status)
	if len(d1) < n {
		n = len(d1)
	}
	if len(d2) < n {
		n = len(d2)
	}
	for i := 0; i < n; i++ {
		sv, ok := status[i].Payload.Scalar()
		if !ok {
			continue
		}
		d1v, _ := d1[i].Payload.Scalar()
		d2v, _ := d2[i].Payload.Scalar()
		raw := uint8(sv)
		msg := parseMidiByte(raw, uint8(d1v), uint8(d2v))
		off := status[i].FrameOffset

		ctx.EmitEvent(3, off, ObjectPayload(msg))
		switch msg.Status {
		case MidiNoteOn:
			if msg.Data2 == 0 {
				ctx.EmitEvent(5, off, ObjectPayload(NoteOff{Note: float64(msg.Data1)}))
			} else {
				ctx.EmitEvent(4, off, ObjectPayload(NoteOn{Note: float64(msg.Data1), Velocity: float64(msg.Data2)}))
			}
		case MidiNoteOff:
			ctx.EmitEvent(5, off, ObjectPayload(NoteOff{Note: float64(msg.Data1)}))
		case MidiControlChange:
			ctx.EmitEvent(6, off, ObjectPayload(ControlChange{CC: float64(msg.Data1), Value: float64(msg.Data2)}))
		}
	}
	return nil
}

func parseMidiByte(status, d1, d2 uint8) MidiMessage {
	channel := status & 0x0f
	kind := status & 0xf0
	m := MidiMessage{Channel: channel, Data1: d1, Data2: d2}
	switch kind {
	case 0x80:
		m.Status = MidiNoteOff
	case 0x90:
		m.Status = MidiNoteOn
	case 0xb0:
		m.Status = MidiControlChange
	case 0xe0:
		m.Status = MidiPitchBend
	default:
		m.Status = MidiUnknown
	}
	return m
}

// PushRaw queues one 3-byte channel voice message onto a MidiParser's
// "raw_*" inputs via the graph's host queue, the allocation-free
// equivalent of feeding one midir callback's bytes to the original
// listen_midi loop.
func PushRaw(g *Graph, ep Handle, frameOffset uint32, status, data1, data2 byte) {
	g.QueueEvent(ep.EventIn(0), frameOffset, ScalarPayload(float64(status)))
	g.QueueEvent(ep.EventIn(1), frameOffset, ScalarPayload(float64(data1)))
	g.QueueEvent(ep.EventIn(2), frameOffset, ScalarPayload(float64(data2)))
}
