package main

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/cwbudde/algo-synth/synth"
)

type recordSink struct{ events []synth.Event }

func (r *recordSink) Send(ev synth.Event) bool {
	r.events = append(r.events, ev)
	return true
}

func TestConsoleCommands(t *testing.T) {
	params := synth.NewParams()
	rec := &recordSink{}
	var out bytes.Buffer
	c := &console{params: params, out: rec, w: &out}

	script := "on 60 90\non A4\noff 60\nset cutoffHigh 30000\nset wave saw\npanic\nbogus\nquit\non 72\n"
	if err := c.run(strings.NewReader(script)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rec.events) != 4 {
		t.Fatalf("expected 4 events before quit, got %d", len(rec.events))
	}
	if e := rec.events[0]; e.Kind != synth.EventNoteOn || e.Note != 60 || e.Velocity != 90 {
		t.Fatalf("first event: %+v", e)
	}
	if e := rec.events[1]; e.Note != 69 || e.Velocity != 100 {
		t.Fatalf("named note: %+v", e)
	}
	if rec.events[2].Kind != synth.EventNoteOff || rec.events[3].Kind != synth.EventAllNotesOff {
		t.Fatalf("unexpected kinds: %+v", rec.events)
	}
	if params.Get(synth.ParamCutoffHigh) != 20000 || params.Get(synth.ParamWave) != 3 {
		t.Fatalf("set not applied: %+v", params.Snapshot())
	}
	if !strings.Contains(out.String(), `unknown command "bogus"`) {
		t.Fatalf("missing error output: %q", out.String())
	}
}

func TestEngineReaderRendersQueuedNotes(t *testing.T) {
	cfg := synth.DefaultConfig()
	cfg.MaxBlockSize = 128
	s, err := synth.New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Params().Set(synth.ParamAttack, 0)
	r := newEngineReader(s, 8)

	silent := make([]byte, 512*8)
	if n, _ := r.Read(silent); n != len(silent) {
		t.Fatalf("short read %d", n)
	}
	for _, b := range silent {
		if b != 0 {
			t.Fatalf("expected silence before any note")
		}
	}

	if !r.Send(synth.NoteOnAt(123, 93, 127)) {
		t.Fatalf("send failed")
	}
	buf := make([]byte, 1024*8+3)
	n, _ := r.Read(buf)
	if n != 1024*8 {
		t.Fatalf("expected whole frames, got %d bytes", n)
	}
	var peak float64
	for i := 0; i < n; i += 4 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(buf[i:]))
		peak = math.Max(peak, math.Abs(float64(v)))
	}
	if peak == 0 {
		t.Fatalf("expected sound after note-on")
	}
	if r.Frames() != 512+1024 {
		t.Fatalf("frame counter: %d", r.Frames())
	}
}

func TestSendDropsWhenQueueFull(t *testing.T) {
	s, err := synth.New(synth.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := newEngineReader(s, 2)
	r.Send(synth.NoteOnAt(0, 60, 100))
	r.Send(synth.NoteOnAt(0, 61, 100))
	if r.Send(synth.NoteOnAt(0, 62, 100)) {
		t.Fatalf("expected full queue to drop")
	}
}

func TestEngineReaderLargeReadDoesNotAllocate(t *testing.T) {
	s, err := synth.New(synth.DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r := newEngineReader(s, 8)
	r.Send(synth.NoteOnAt(0, 81, 100))

	// Several times the preallocated chunk.
	const frames = readChunkFrames*3 + 17
	buf := make([]byte, frames*channels*4)
	if n, _ := r.Read(buf); n != len(buf) {
		t.Fatalf("short read %d of %d", n, len(buf))
	}
	allocs := testing.AllocsPerRun(10, func() {
		r.Read(buf)
	})
	if allocs != 0 {
		t.Fatalf("Read allocated %.1f times", allocs)
	}
	var tail float64
	for i := len(buf) - 256*4; i < len(buf); i += 4 {
		v := math.Float32frombits(binary.LittleEndian.Uint32(buf[i:]))
		tail = math.Max(tail, math.Abs(float64(v)))
	}
	if tail == 0 {
		t.Fatalf("expected the last chunk to carry the sounding note")
	}
}
