package main

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/internal/fit"
	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/preset"
)

type runReport struct {
	ReferencePath  string             `json:"reference_path"`
	PresetPath     string             `json:"preset_path,omitempty"`
	OutputPreset   string             `json:"output_preset"`
	OutputRender   string             `json:"output_render,omitempty"`
	SampleRate     int                `json:"sample_rate"`
	Note           int                `json:"note"`
	Velocity       int                `json:"velocity"`
	HoldSec        float64            `json:"hold_seconds"`
	DurationSec    float64            `json:"elapsed_seconds"`
	Evaluations    int                `json:"evaluations"`
	MayflyVariant  string             `json:"mayfly_variant"`
	BestScore      float64            `json:"best_score"`
	BestSimilarity float64            `json:"best_similarity"`
	BestMetrics    analysis.Metrics   `json:"best_metrics"`
	BestKnobs      map[string]float64 `json:"best_knobs"`
	TopCandidates  []fit.Entry        `json:"top_candidates,omitempty"`
}

type outputPaths struct {
	reference string
	preset    string
	outPreset string
	outRender string
	report    string
}

func writeOutputs(paths outputPaths, cfg *optimizationConfig, res *optimizationResult, name string) error {
	if paths.outPreset == "" {
		return errors.New("empty output preset path")
	}
	if err := os.MkdirAll(filepath.Dir(paths.outPreset), 0o755); err != nil {
		return err
	}
	if err := preset.SaveJSON(paths.outPreset, preset.FromParams(name, res.bestParams)); err != nil {
		return err
	}

	if paths.outRender != "" {
		_, stereo, err := renderNote(res.bestParams, cfg.note, cfg.velocity, res.bestHold, cfg.render)
		if err != nil {
			return err
		}
		if err := wavio.WriteInterleaved(paths.outRender, stereo, 2, cfg.render.sampleRate); err != nil {
			return err
		}
	}

	knobs := make(map[string]float64, len(cfg.defs))
	for i, d := range cfg.defs {
		knobs[d.Name] = res.best.Vals[i]
	}
	rep := runReport{
		ReferencePath:  paths.reference,
		PresetPath:     paths.preset,
		OutputPreset:   paths.outPreset,
		OutputRender:   paths.outRender,
		SampleRate:     cfg.render.sampleRate,
		Note:           cfg.note,
		Velocity:       cfg.velocity,
		HoldSec:        res.bestHold,
		DurationSec:    res.elapsed,
		Evaluations:    res.evals,
		MayflyVariant:  cfg.mayflyVariant,
		BestScore:      res.bestMetrics.Score,
		BestSimilarity: res.bestMetrics.Similarity,
		BestMetrics:    sanitizeMetrics(res.bestMetrics),
		BestKnobs:      knobs,
		TopCandidates:  res.top,
	}
	reportPath := paths.report
	if reportPath == "" {
		reportPath = paths.outPreset + ".report.json"
	}
	return writeJSON(reportPath, rep)
}

// sanitizeMetrics replaces values JSON cannot encode.
func sanitizeMetrics(m analysis.Metrics) analysis.Metrics {
	fix := func(v *float64) {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
	}
	fix(&m.TimeRMSE)
	fix(&m.EnvelopeRMSEDB)
	fix(&m.SpectralRMSEDB)
	fix(&m.BandRMSEDB)
	fix(&m.CentroidDiffHz)
	fix(&m.AttackDiffMS)
	return m
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
