package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
)

// sink receives note events for the audio thread.
type sink interface {
	Send(ev synth.Event) bool
}

// console reads text commands:
//
//	on <note> [velocity]   off <note>   panic
//	set <key> <value>      preset <file.json>
//	params                 quit
type console struct {
	params *synth.Params
	out    sink
	w      io.Writer
}

var errQuit = errors.New("quit")

func (c *console) run(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if err := c.exec(sc.Text()); err != nil {
			if err == errQuit {
				return nil
			}
			fmt.Fprintf(c.w, "error: %v\n", err)
		}
	}
	return sc.Err()
}

func (c *console) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch strings.ToLower(fields[0]) {
	case "on":
		if len(fields) < 2 {
			return fmt.Errorf("usage: on <note> [velocity]")
		}
		note, err := wavio.ParseNote(fields[1])
		if err != nil {
			return err
		}
		vel := 100
		if len(fields) > 2 {
			if vel, err = strconv.Atoi(fields[2]); err != nil || vel < 0 || vel > 127 {
				return fmt.Errorf("invalid velocity %q", fields[2])
			}
		}
		c.send(synth.NoteOnAt(0, note, vel))
	case "off":
		if len(fields) < 2 {
			return fmt.Errorf("usage: off <note>")
		}
		note, err := wavio.ParseNote(fields[1])
		if err != nil {
			return err
		}
		c.send(synth.NoteOffAt(0, note))
	case "panic":
		c.send(synth.Event{Kind: synth.EventAllNotesOff})
	case "set":
		if len(fields) != 3 {
			return fmt.Errorf("usage: set <key> <value>")
		}
		var v any = fields[2]
		if f, err := strconv.ParseFloat(fields[2], 64); err == nil {
			v = f
		}
		r := preset.ApplyMap(c.params, map[string]any{fields[1]: v})
		if len(r.Ignored) > 0 {
			return fmt.Errorf("unknown key or value: %s", line)
		}
		id, _ := synth.Lookup(fields[1])
		fmt.Fprintf(c.w, "%s = %g\n", fields[1], c.params.Get(id))
	case "preset":
		if len(fields) != 2 {
			return fmt.Errorf("usage: preset <file.json>")
		}
		f, err := preset.LoadJSON(fields[1])
		if err != nil {
			return err
		}
		r := f.Apply(c.params)
		fmt.Fprintf(c.w, "loaded %q: %d set, %d clamped, %d ignored\n", f.Name, len(r.Applied), len(r.Clamped), len(r.Ignored))
	case "params":
		for _, s := range synth.Specs() {
			fmt.Fprintf(c.w, "%-13s %g\n", s.Key, c.params.Get(s.ID))
		}
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
	return nil
}

func (c *console) send(ev synth.Event) {
	if !c.out.Send(ev) {
		fmt.Fprintln(c.w, "event queue full, dropped")
	}
}
