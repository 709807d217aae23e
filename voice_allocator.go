package core

// VoiceAllocator ports oscen-lib's voice_allocator.rs: note_on/note_off
// event inputs drive round-robin allocation across a fixed voice count,
// falling back to stealing the oldest active voice, with per-voice
// scalar Event outputs (voice_0, voice_1, ...) rather than one array
// output — matching the original's ENDPOINT_DESCRIPTORS, which declares
// each voice as its own named endpoint so a downstream patch can wire
// voice_2 on its own without touching the others.
type VoiceAllocator struct {
	voices []voiceSlot
	age    uint64
}

type voiceSlot struct {
	active bool
	note   float64
	age    uint64
}

// NewVoiceAllocator builds an allocator for a fixed polyphony count.
func NewVoiceAllocator(numVoices int) *VoiceAllocator {
	if numVoices < 1 {
		panic("core: voice allocator requires at least one voice")
	}
	return &VoiceAllocator{voices: make([]voiceSlot, numVoices)}
}

func (v *VoiceAllocator) Descriptors() []EndpointDescriptor {
	descs := []EndpointDescriptor{
		NewEndpointDescriptor("note_on", Event, In),
		NewEndpointDescriptor("note_off", Event, In),
	}
	for i := range v.voices {
		descs = append(descs, NewEndpointDescriptor(voiceName(i), Event, Out))
	}
	return descs
}

func voiceName(i int) string {
	const letters = "0123456789"
	if i < 10 {
		return "voice_" + string(letters[i])
	}
	// Polyphony beyond 10 voices is uncommon for this allocator's typical
	// use but not forbidden; fall back to a simple decimal formatter.
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{letters[i%10]}, digits...)
		i /= 10
	}
	return "voice_" + string(digits)
}

func (v *VoiceAllocator) Init(float64) {}

// allocateVoice finds the first inactive voice, or steals the oldest
// active one if all voices are busy (§ oscen voice_allocator.rs
// allocate_voice).
func (v *VoiceAllocator) allocateVoice(note float64) int {
	for i := range v.voices {
		if !v.voices[i].active {
			return i
		}
	}
	oldest := 0
	for i := 1; i < len(v.voices); i++ {
		if v.voices[i].age < v.voices[oldest].age {
			oldest = i
		}
	}
	return oldest
}

func (v *VoiceAllocator) findVoiceForNote(note float64) (int, bool) {
	for i := range v.voices {
		if v.voices[i].active && v.voices[i].note == note {
			return i, true
		}
	}
	return -1, false
}

// noteOf recovers the note number from either a bare Scalar (the
// minimal wiring direct-from-host tests use) or a structured NoteOn/
// NoteOff payload (what MidiParser's typed outputs emit, §6.3), so a
// VoiceAllocator accepts both without caring which produced the event.
func noteOf(p Payload) (float64, bool) {
	if note, ok := p.Scalar(); ok {
		return note, true
	}
	if obj, ok := p.Object(); ok {
		switch m := obj.(type) {
		case NoteOn:
			return m.Note, true
		case NoteOff:
			return m.Note, true
		}
	}
	return 0, false
}

func (v *VoiceAllocator) HandleEvent(ctx *ProcessContext, inputIndex int, ev EventInstance) {
	switch inputIndex {
	case 0: // note_on
		note, ok := noteOf(ev.Payload)
		if !ok {
			return
		}
		idx := v.allocateVoice(note)
		v.age++
		v.voices[idx] = voiceSlot{active: true, note: note, age: v.age}
		// Forward the event's own payload unchanged so a structured
		// NoteOn{note,velocity} reaches the voice's output intact (§6.3,
		// §8 S4) instead of being collapsed to a bare note number.
		ctx.EmitEvent(2+idx, ev.FrameOffset, ev.Payload)
	case 1: // note_off
		note, ok := noteOf(ev.Payload)
		if !ok {
			return
		}
		if idx, found := v.findVoiceForNote(note); found {
			v.voices[idx].active = false
			ctx.EmitEvent(2+idx, ev.FrameOffset, ev.Payload)
		}
	}
}

func (v *VoiceAllocator) Process(ctx *ProcessContext) error { return nil }

// AllowsFeedback is false: voice allocation is a pure event router, not a
// lag-introducing node, so it must never sit on an unbroken cycle.
func (v *VoiceAllocator) AllowsFeedback() bool { return false }
