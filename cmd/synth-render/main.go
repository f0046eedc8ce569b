package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
)

type setFlags []string

func (s *setFlags) String() string     { return strings.Join(*s, ",") }
func (s *setFlags) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	notesRaw := flag.String("notes", "69", "Comma separated MIDI notes or names (e.g. 60,E4,G4)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (1-127)")
	stagger := flag.Float64("stagger", 0, "Seconds between successive note onsets")
	hold := flag.Float64("hold", 1.0, "Seconds each note is held before note-off")
	decayDBFS := flag.Float64("decay-dbfs", -90, "Stop once block RMS after the last note-off falls below this dBFS")
	maxDuration := flag.Float64("max-duration", 20.0, "Maximum render duration in seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	blockSize := flag.Int("block", 256, "Render block size in frames")
	voices := flag.Int("voices", 10, "Polyphony")
	taps := flag.Int("taps", 101, "FIR band filter tap count")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	var sets setFlags
	flag.Var(&sets, "set", "Parameter override key=value, repeatable (e.g. -set wave=saw -set attack=5)")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	notes, err := wavio.ParseNotes(*notesRaw)
	if err != nil {
		die("invalid -notes: %v", err)
	}
	if *velocity < 1 || *velocity > 127 {
		die("-velocity must be in 1..127")
	}

	params := synth.NewParams()
	if *presetPath != "" {
		f, err := preset.LoadJSON(*presetPath)
		if err != nil {
			die("loading preset %q: %v", *presetPath, err)
		}
		report(fmt.Sprintf("preset %q", f.Name), f.Apply(params))
	}
	if len(sets) > 0 {
		values, err := parseSets(sets)
		if err != nil {
			die("invalid -set: %v", err)
		}
		report("overrides", preset.ApplyMap(params, values))
	}

	cfg := synth.DefaultConfig()
	cfg.SampleRate = *sampleRate
	cfg.MaxBlockSize = *blockSize
	cfg.Voices = *voices
	cfg.FilterTaps = *taps
	s, err := synth.New(cfg, params)
	if err != nil {
		die("creating synth: %v", err)
	}

	sched := schedule(notes, *velocity, *stagger, *hold, *sampleRate)
	lastOff := sched[len(sched)-1].Offset
	maxFrames := int(*maxDuration * float64(*sampleRate))
	if maxFrames < lastOff+1 {
		maxFrames = lastOff + 1
	}
	threshold := math.Pow(10, *decayDBFS/20)

	fmt.Printf("Rendering %d note(s) at %d Hz, block %d, %d voices, %d taps -> %s\n",
		len(notes), cfg.SampleRate, cfg.MaxBlockSize, cfg.Voices, cfg.FilterTaps, *output)

	out := make([][]float32, cfg.Channels)
	for ch := range out {
		out[ch] = make([]float32, cfg.MaxBlockSize)
	}
	block := make([]synth.Event, 0, len(sched))
	samples := make([]float32, 0, maxFrames*cfg.Channels)
	next := 0
	rendered := 0
	for rendered < maxFrames {
		n := min(cfg.MaxBlockSize, maxFrames-rendered)

		block = block[:0]
		for next < len(sched) && sched[next].Offset < rendered+n {
			ev := sched[next]
			ev.Offset -= rendered
			block = append(block, ev)
			next++
		}
		s.Process(out, 0, n, block)
		for i := 0; i < n; i++ {
			for ch := range out {
				samples = append(samples, out[ch][i])
			}
		}
		rendered += n

		if rendered > lastOff && s.ActiveVoices() == 0 && blockRMS(out, n) < threshold {
			break
		}
	}

	if err := wavio.WriteInterleaved(*output, samples, cfg.Channels, cfg.SampleRate); err != nil {
		die("writing %s: %v", *output, err)
	}
	fmt.Printf("Wrote %s (%d frames, %.3fs, peak %.3f, %d steals)\n",
		*output, rendered, float64(rendered)/float64(cfg.SampleRate), wavio.Peak(samples), s.Steals())
}

// schedule lays out note-on/off events in absolute frames, sorted.
func schedule(notes []int, velocity int, stagger, hold float64, sampleRate int) []synth.Event {
	events := make([]synth.Event, 0, 2*len(notes))
	for i, n := range notes {
		on := int(float64(i) * stagger * float64(sampleRate))
		off := on + int(hold*float64(sampleRate))
		events = append(events, synth.NoteOnAt(on, n, velocity), synth.NoteOffAt(off, n))
	}
	synth.SortEvents(events)
	return events
}

func parseSets(sets []string) (map[string]any, error) {
	values := make(map[string]any, len(sets))
	for _, kv := range sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("%q is not key=value", kv)
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			values[k] = f
		} else {
			values[k] = v
		}
	}
	return values, nil
}

func report(what string, r preset.ApplyReport) {
	fmt.Printf("Applied %s: %d set, %d clamped", what, len(r.Applied), len(r.Clamped))
	if len(r.Clamped) > 0 {
		fmt.Printf(" (%s)", strings.Join(r.Clamped, ", "))
	}
	if len(r.Ignored) > 0 {
		fmt.Printf(", ignored %s", strings.Join(r.Ignored, ", "))
	}
	fmt.Println()
}

func blockRMS(out [][]float32, n int) float64 {
	var sum float64
	for _, ch := range out {
		for _, s := range ch[:n] {
			v := float64(s)
			sum += v * v
		}
	}
	return math.Sqrt(sum / float64(n*len(out)))
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
