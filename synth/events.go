package synth

import "sort"

// EventKind is the type of a block event.
type EventKind int

const (
	EventNoteOn EventKind = iota
	EventNoteOff
	EventAllNotesOff
)

// Event is a MIDI-style note event at a block-relative frame offset.
type Event struct {
	Offset   int
	Kind     EventKind
	Note     int
	Velocity int // 0..127; a note-on with velocity 0 is a note-off
}

// NoteOnAt builds a note-on event.
func NoteOnAt(offset, note, velocity int) Event {
	return Event{Offset: offset, Kind: EventNoteOn, Note: note, Velocity: velocity}
}

// NoteOffAt builds a note-off event.
func NoteOffAt(offset, note int) Event {
	return Event{Offset: offset, Kind: EventNoteOff, Note: note}
}

// SortEvents orders events by offset, keeping the arrival order of events at
// the same offset. Hosts call it before handing a block to Process.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Offset < events[j].Offset
	})
}

// FromMIDI decodes a channel voice message into an event; ok is false for
// anything other than note-on, note-off and all-notes-off.
func FromMIDI(offset int, status, data1, data2 byte) (ev Event, ok bool) {
	switch status & 0xF0 {
	case 0x90:
		return NoteOnAt(offset, int(data1&0x7F), int(data2&0x7F)), true
	case 0x80:
		return NoteOffAt(offset, int(data1&0x7F)), true
	case 0xB0:
		// CC 120 all sound off, CC 123 all notes off.
		if data1 == 120 || data1 == 123 {
			return Event{Offset: offset, Kind: EventAllNotesOff, Note: int(data1)}, true
		}
	}
	return Event{}, false
}
