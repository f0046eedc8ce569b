package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	referencePath := flag.String("reference", "reference/a4.wav", "Reference WAV path")
	presetPath := flag.String("preset", "", "Base preset JSON path (defaults when empty)")
	outputPreset := flag.String("output-preset", "out/fitted.json", "Path to write the best fitted preset JSON")
	outputRender := flag.String("output-render", "", "Optional path for a WAV render of the best candidate")
	reportPath := flag.String("report", "", "Optional report JSON path (default: <output-preset>.report.json)")
	optimize := flag.String("optimize", "tone,envelope", "Comma-separated knob groups: tone, envelope, tremolo, timing")
	noteRaw := flag.String("note", "A4", "MIDI note to fit (number or name)")
	velocity := flag.Int("velocity", 100, "MIDI velocity for rendering during fit")
	hold := flag.Float64("hold", 1.0, "Seconds the note is held before note-off")
	sampleRate := flag.Int("sample-rate", 48000, "Render/analysis sample rate")
	blockSize := flag.Int("render-block-size", 256, "Render block size for candidate evaluation")
	minDuration := flag.Float64("min-duration", 0.5, "Minimum render duration in seconds")
	maxDuration := flag.Float64("max-duration", 10.0, "Maximum render duration in seconds")
	decayDBFS := flag.Float64("decay-dbfs", -80.0, "Auto-stop threshold in dBFS after note-off")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 60.0, "Optimization time budget in seconds")
	maxEvals := flag.Int("max-evals", 2000, "Maximum objective evaluations")
	reportEvery := flag.Int("report-every", 20, "Print progress every N evaluations")
	topK := flag.Int("top-k", 5, "How many top candidates to keep in the report")
	workers := flag.String("workers", "1", "Parallel workers running independent Mayfly rounds (number or 'auto')")
	mayflyVariant := flag.String("mayfly-variant", "desma", "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	mayflyPop := flag.Int("mayfly-pop", 10, "Male and female population size per Mayfly run")
	mayflyRoundEvals := flag.Int("mayfly-round-evals", 240, "Target eval budget per Mayfly round")
	flag.Parse()

	groups, err := parseOptimizeGroups(*optimize)
	if err != nil {
		die("invalid --optimize: %v", err)
	}
	note, err := wavio.ParseNote(*noteRaw)
	if err != nil {
		die("invalid --note: %v", err)
	}
	if *velocity < 1 || *velocity > 127 {
		die("velocity must be in 1..127")
	}
	if *maxEvals < 1 {
		die("max-evals must be >= 1")
	}
	if *timeBudget <= 0 {
		die("time-budget must be > 0")
	}
	*reportEvery = max(*reportEvery, 1)
	*mayflyPop = max(*mayflyPop, 2)
	*mayflyRoundEvals = max(*mayflyRoundEvals, *mayflyPop*2)
	*topK = max(*topK, 1)
	parsedWorkers, err := wavio.ParseWorkers(*workers)
	if err != nil {
		die("invalid workers value: %v", err)
	}

	base := synth.NewParams()
	if *presetPath != "" {
		f, err := preset.LoadJSON(*presetPath)
		if err != nil {
			die("failed to load preset: %v", err)
		}
		f.Apply(base)
	}

	refRaw, refSR, err := wavio.ReadMono(*referencePath)
	if err != nil {
		die("failed to read reference: %v", err)
	}
	ref, err := wavio.Resample(refRaw, refSR, *sampleRate)
	if err != nil {
		die("failed to resample reference: %v", err)
	}

	defs, initCand := initCandidate(base, *hold, groups)
	cfg := &optimizationConfig{
		reference:     ref,
		baseParams:    base,
		defs:          defs,
		initCandidate: initCand,
		note:          note,
		velocity:      *velocity,
		baseHold:      *hold,
		render: renderSettings{
			sampleRate:  *sampleRate,
			blockSize:   *blockSize,
			minDuration: *minDuration,
			maxDuration: *maxDuration,
			decayDBFS:   *decayDBFS,
			holdBlocks:  6,
		},
		seed:             *seed,
		timeBudget:       *timeBudget,
		maxEvals:         *maxEvals,
		reportEvery:      *reportEvery,
		mayflyVariant:    strings.ToLower(*mayflyVariant),
		mayflyPop:        *mayflyPop,
		mayflyRoundEvals: *mayflyRoundEvals,
		workers:          parsedWorkers,
		topK:             *topK,
	}

	fmt.Printf("Fitting %d knob(s) to %s (note %d, %d Hz, variant %s)\n", len(defs), *referencePath, note, *sampleRate, cfg.mayflyVariant)
	result, err := runOptimization(cfg)
	if err != nil {
		die("optimization failed: %v", err)
	}

	name := strings.TrimSuffix(filepath.Base(*referencePath), filepath.Ext(*referencePath)) + " (fitted)"
	paths := outputPaths{
		reference: *referencePath,
		preset:    *presetPath,
		outPreset: *outputPreset,
		outRender: *outputRender,
		report:    *reportPath,
	}
	if err := writeOutputs(paths, cfg, result, name); err != nil {
		die("failed to write outputs: %v", err)
	}

	fmt.Printf("Done evals=%d elapsed=%.1fs best_score=%.4f best_similarity=%.2f%% variant=%s\n",
		result.evals, result.elapsed, result.bestMetrics.Score, result.bestMetrics.Similarity*100.0, cfg.mayflyVariant)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
