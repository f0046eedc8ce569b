package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
	"github.com/rakyll/portmidi"
)

func main() {
	sampleRate := flag.Int("sample-rate", 48000, "Output sample rate in Hz")
	blockSize := flag.Int("block", 512, "Maximum render block size in frames")
	bufferFrames := flag.Int("buffer", 1024, "Device buffer size in frames (0 = driver default)")
	voices := flag.Int("voices", 10, "Polyphony")
	taps := flag.Int("taps", 101, "FIR band filter tap count")
	presetPath := flag.String("preset", "", "Preset JSON file to load at start")
	useMIDI := flag.Bool("midi", true, "Read notes from a MIDI input device")
	midiDevice := flag.Int("midi-device", -1, "MIDI input device id (-1 = default)")
	listMIDI := flag.Bool("list-midi", false, "List MIDI input devices and exit")
	flag.Parse()

	if *useMIDI || *listMIDI {
		if err := portmidi.Initialize(); err != nil {
			die("portmidi: %v", err)
		}
		defer portmidi.Terminate()
	}
	if *listMIDI {
		listMIDIInputs()
		return
	}

	params := synth.NewParams()
	if *presetPath != "" {
		f, err := preset.LoadJSON(*presetPath)
		if err != nil {
			die("loading preset %q: %v", *presetPath, err)
		}
		f.Apply(params)
	}

	cfg := synth.DefaultConfig()
	cfg.SampleRate = *sampleRate
	cfg.MaxBlockSize = *blockSize
	cfg.Voices = *voices
	cfg.FilterTaps = *taps
	cfg.Channels = channels
	s, err := synth.New(cfg, params)
	if err != nil {
		die("creating synth: %v", err)
	}

	reader := newEngineReader(s, 256)
	out, err := newOtoOutput(cfg.SampleRate, reader, *bufferFrames)
	if err != nil {
		die("audio output: %v", err)
	}
	defer out.Close()
	out.Start()

	if *useMIDI {
		in, err := openMIDI(*midiDevice, params, reader)
		if err != nil {
			fmt.Fprintf(os.Stderr, "MIDI input disabled: %v\n", err)
		} else {
			defer in.Close()
			fmt.Println("Listening for MIDI input")
		}
	}

	fmt.Printf("Playing at %d Hz, %d voices. Commands: on/off/panic/set/preset/params/quit\n", cfg.SampleRate, cfg.Voices)
	c := &console{params: params, out: reader, w: os.Stdout}
	if err := c.run(os.Stdin); err != nil {
		die("console: %v", err)
	}
	fmt.Printf("Rendered %d frames, %d voice steals\n", reader.Frames(), s.Steals())
}
