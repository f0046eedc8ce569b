package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	referencePath := flag.String("reference", "", "Reference WAV path")
	candidatePath := flag.String("candidate", "", "Candidate WAV path; if empty, render one from the synth")
	presetPath := flag.String("preset", "", "Preset JSON for the rendered candidate")
	note := flag.Int("note", 69, "MIDI note for the rendered candidate")
	velocity := flag.Int("velocity", 100, "MIDI velocity for the rendered candidate")
	hold := flag.Float64("hold", 1.0, "Seconds before note-off for the rendered candidate")
	duration := flag.Float64("duration", 3.0, "Rendered candidate length in seconds")
	sampleRate := flag.Int("sample-rate", 48000, "Analysis sample rate in Hz")
	writeCandidate := flag.String("write-candidate", "", "Optional path to write the rendered candidate WAV")
	bands := flag.Bool("bands", false, "Print per-window band levels")
	jsonOut := flag.Bool("json", false, "Print metrics as JSON")
	flag.Parse()

	if *referencePath == "" {
		die("-reference is required")
	}
	ref, err := loadMono(*referencePath, *sampleRate)
	if err != nil {
		die("failed to read reference: %v", err)
	}

	var cand []float64
	if *candidatePath != "" {
		if cand, err = loadMono(*candidatePath, *sampleRate); err != nil {
			die("failed to read candidate: %v", err)
		}
	} else {
		params := synth.NewParams()
		if *presetPath != "" {
			f, err := preset.LoadJSON(*presetPath)
			if err != nil {
				die("failed to load preset: %v", err)
			}
			f.Apply(params)
		}
		stereo, err := renderCandidate(params, *note, *velocity, *hold, *duration, *sampleRate)
		if err != nil {
			die("failed to render candidate: %v", err)
		}
		cand = wavio.Downmix(stereo, 2)
		if *writeCandidate != "" {
			if err := wavio.WriteInterleaved(*writeCandidate, stereo, 2, *sampleRate); err != nil {
				die("failed to write candidate wav: %v", err)
			}
		}
	}

	metrics := analysis.Compare(ref, cand, *sampleRate)
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(metrics); err != nil {
			die("json encode failed: %v", err)
		}
		return
	}

	fmt.Printf("Reference frames: %d\n", metrics.ReferenceFrames)
	fmt.Printf("Candidate frames: %d\n", metrics.CandidateFrames)
	fmt.Printf("Aligned frames:   %d\n", metrics.AlignedFrames)
	fmt.Printf("Lag:              %d samples (%.3f ms)\n", metrics.LagSamples, 1000.0*float64(metrics.LagSamples)/float64(metrics.SampleRate))
	fmt.Println()
	fmt.Printf("Time RMSE:        %.6f\n", metrics.TimeRMSE)
	fmt.Printf("Envelope RMSE:    %.2f dB\n", metrics.EnvelopeRMSEDB)
	fmt.Printf("Spectral RMSE:    %.2f dB\n", metrics.SpectralRMSEDB)
	fmt.Printf("Band RMSE:        %.2f dB\n", metrics.BandRMSEDB)
	fmt.Printf("Centroid diff:    %.1f Hz\n", metrics.CentroidDiffHz)
	fmt.Printf("Attack:           ref=%.1f ms  cand=%.1f ms\n", metrics.RefAttackMS, metrics.CandAttackMS)
	fmt.Printf("Score:            %.4f  (0 best, 1 worst)\n", metrics.Score)
	fmt.Printf("Similarity:       %.2f%%\n", metrics.Similarity*100.0)

	if *bands {
		fmt.Println()
		for _, row := range compareWindows(ref, cand, *sampleRate, defaultWindows) {
			fmt.Printf("--- %s ---\n", row.window.name)
			for i, b := range analysis.DefaultBands {
				d := row.cand[i] - row.ref[i]
				marker := ""
				if d > 15 || d < -15 {
					marker = " <<<"
				}
				fmt.Printf("  %-8s ref=%6.1fdB  cand=%6.1fdB  diff=%+5.1fdB%s\n", b.Name, row.ref[i], row.cand[i], d, marker)
			}
		}
	}
}

func loadMono(path string, sampleRate int) ([]float64, error) {
	x, sr, err := wavio.ReadMono(path)
	if err != nil {
		return nil, err
	}
	return wavio.Resample(x, sr, sampleRate)
}

func renderCandidate(params *synth.Params, note, velocity int, hold, duration float64, sampleRate int) ([]float32, error) {
	cfg := synth.DefaultConfig()
	cfg.SampleRate = sampleRate
	s, err := synth.New(cfg, params)
	if err != nil {
		return nil, err
	}
	total := int(duration * float64(sampleRate))
	if total < 1 {
		return nil, fmt.Errorf("duration %.3fs too short", duration)
	}
	offAt := int(hold * float64(sampleRate))
	out := make([]float32, total*cfg.Channels)
	events := []synth.Event{synth.NoteOnAt(0, note, velocity)}
	if offAt < total {
		events = append(events, synth.NoteOffAt(offAt, note))
	}
	s.ProcessInterleaved(out, events)
	return out, nil
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
