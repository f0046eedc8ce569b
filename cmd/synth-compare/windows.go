package main

import (
	"math"

	"github.com/cwbudde/algo-synth/analysis"
)

type timeWindow struct {
	name    string
	startMS float64
	endMS   float64
}

var defaultWindows = []timeWindow{
	{"attack (0-20ms)", 0, 20},
	{"early (20-100ms)", 20, 100},
	{"body (100-500ms)", 100, 500},
	{"decay (0.5-2s)", 500, 2000},
	{"late (2-4s)", 2000, 4000},
}

type windowBands struct {
	window    timeWindow
	ref, cand []float64 // dB per analysis.DefaultBands entry
}

// compareWindows returns absolute band levels of both signals for each time
// window that overlaps them. Both signals are expected to be aligned.
func compareWindows(ref, cand []float64, sampleRate int, windows []timeWindow) []windowBands {
	n := min(len(ref), len(cand))
	var out []windowBands
	for _, w := range windows {
		start := int(w.startMS / 1000 * float64(sampleRate))
		end := min(int(w.endMS/1000*float64(sampleRate)), n)
		if start >= end {
			continue
		}
		size := 4096
		for size > 256 && size > end-start {
			size /= 2
		}
		rs, err := analysis.AverageSpectrum(ref[start:end], sampleRate, size)
		if err != nil {
			continue
		}
		cs, err := analysis.AverageSpectrum(cand[start:end], sampleRate, size)
		if err != nil {
			continue
		}
		out = append(out, windowBands{
			window: w,
			ref:    bandDB(rs),
			cand:   bandDB(cs),
		})
	}
	return out
}

func bandDB(s *analysis.Spectrum) []float64 {
	e := s.BandEnergy(analysis.DefaultBands)
	for i, v := range e {
		e[i] = 10 * math.Log10(math.Max(v, 1e-24))
	}
	return e
}
