package main

import (
	"fmt"

	"github.com/cwbudde/algo-synth/synth"
	"github.com/rakyll/portmidi"
)

// ccMap binds MIDI controllers to parameters through their normalised range.
var ccMap = map[int64]synth.ParamID{
	1:  synth.ParamTremoloDepth,
	7:  synth.ParamGain,
	71: synth.ParamCutoffLow,
	74: synth.ParamCutoffHigh,
	73: synth.ParamAttack,
	72: synth.ParamRelease,
}

type midiInput struct {
	stream *portmidi.Stream
	done   chan struct{}
}

func listMIDIInputs() {
	for i := 0; i < portmidi.CountDevices(); i++ {
		info := portmidi.Info(portmidi.DeviceID(i))
		if info != nil && info.IsInputAvailable {
			fmt.Printf("  %d: %s (%s)\n", i, info.Name, info.Interface)
		}
	}
}

func openMIDI(device int, params *synth.Params, out sink) (*midiInput, error) {
	id := portmidi.DefaultInputDeviceID()
	if device >= 0 {
		id = portmidi.DeviceID(device)
	}
	if id < 0 {
		return nil, fmt.Errorf("no MIDI input device")
	}
	in, err := portmidi.NewInputStream(id, 1024)
	if err != nil {
		return nil, err
	}
	m := &midiInput{stream: in, done: make(chan struct{})}
	go m.run(params, out)
	return m, nil
}

func (m *midiInput) run(params *synth.Params, out sink) {
	ch := m.stream.Listen()
	for {
		select {
		case <-m.done:
			return
		case ev := <-ch:
			handleMIDI(ev, params, out)
		}
	}
}

func handleMIDI(ev portmidi.Event, params *synth.Params, out sink) {
	if ev.Status&0xF0 == 0xB0 {
		if id, ok := ccMap[ev.Data1]; ok {
			params.SetNormalized(id, float32(ev.Data2)/127)
			return
		}
	}
	if e, ok := synth.FromMIDI(0, byte(ev.Status), byte(ev.Data1), byte(ev.Data2)); ok {
		out.Send(e)
	}
}

func (m *midiInput) Close() error {
	close(m.done)
	return m.stream.Close()
}
