package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-synth/synth"
)

type knobDef struct {
	Name  string
	Min   float64
	Max   float64
	IsInt bool
	Skew  float64
}

type candidate struct {
	Vals []float64
}

// holdKnob is the note length in seconds; it is not a synth parameter.
const holdKnob = "hold"

var optimizeGroups = map[string][]string{
	"tone":     {"wave", "cutoffLow", "cutoffHigh"},
	"envelope": {"attack", "decay", "sustain", "release"},
	"tremolo":  {"tremoloOn", "tremoloWave", "tremoloFreq", "tremoloDepth"},
	"timing":   {holdKnob},
}

var groupOrder = []string{"tone", "envelope", "tremolo", "timing"}

// parseOptimizeGroups parses a comma-separated string of group names.
func parseOptimizeGroups(raw string) (map[string]bool, error) {
	groups := make(map[string]bool)
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := optimizeGroups[s]; !ok {
			return nil, fmt.Errorf("unknown optimize group %q (valid: %s)", s, strings.Join(groupOrder, ", "))
		}
		groups[s] = true
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("no optimize groups specified")
	}
	return groups, nil
}

// initCandidate builds the knob list for the active groups, starting at the
// values of base.
func initCandidate(base *synth.Params, baseHold float64, groups map[string]bool) ([]knobDef, candidate) {
	defs := make([]knobDef, 0, 12)
	vals := make([]float64, 0, 12)
	for _, g := range groupOrder {
		if !groups[g] {
			continue
		}
		for _, key := range optimizeGroups[g] {
			if key == holdKnob {
				defs = append(defs, knobDef{Name: holdKnob, Min: 0.05, Max: 5, Skew: 1})
				vals = append(vals, clamp(baseHold, 0.05, 5))
				continue
			}
			id, _ := synth.Lookup(key)
			s := id.Spec()
			defs = append(defs, knobDef{
				Name:  s.Key,
				Min:   float64(s.Min),
				Max:   float64(s.Max),
				IsInt: s.Kind != synth.KindFloat,
				Skew:  float64(s.Skew),
			})
			vals = append(vals, float64(base.Get(id)))
		}
	}
	return defs, candidate{Vals: vals}
}

// fromNormalized maps an optimiser position in [0,1]^n to knob values. Skewed
// knobs use the same curve as the control surface.
func fromNormalized(pos []float64, defs []knobDef) candidate {
	vals := make([]float64, len(defs))
	for i, d := range defs {
		p := clamp(pos[i], 0, 1)
		if d.Skew > 0 && d.Skew != 1 && p > 0 {
			p = math.Pow(p, 1/d.Skew)
		}
		v := d.Min + (d.Max-d.Min)*p
		if d.IsInt {
			v = math.Round(v)
		}
		vals[i] = clamp(v, d.Min, d.Max)
	}
	return candidate{Vals: vals}
}

func toNormalized(c candidate, defs []knobDef) []float64 {
	pos := make([]float64, len(defs))
	for i, d := range defs {
		if d.Max <= d.Min {
			continue
		}
		p := clamp((c.Vals[i]-d.Min)/(d.Max-d.Min), 0, 1)
		if d.Skew > 0 && d.Skew != 1 && p > 0 {
			p = math.Pow(p, d.Skew)
		}
		pos[i] = p
	}
	return pos
}

// applyCandidate copies base and writes the candidate's knobs onto the copy.
// It returns the hold time to render with.
func applyCandidate(base *synth.Params, baseHold float64, defs []knobDef, c candidate) (*synth.Params, float64) {
	p := cloneParams(base)
	hold := baseHold
	for i, d := range defs {
		if d.Name == holdKnob {
			hold = c.Vals[i]
			continue
		}
		if id, ok := synth.Lookup(d.Name); ok {
			p.Set(id, float32(c.Vals[i]))
		}
	}
	// Keep the band ordered so a candidate cannot silence itself.
	lo, hi := p.Get(synth.ParamCutoffLow), p.Get(synth.ParamCutoffHigh)
	if lo > hi {
		p.Set(synth.ParamCutoffLow, hi)
		p.Set(synth.ParamCutoffHigh, lo)
	}
	return p, hold
}

func cloneParams(src *synth.Params) *synth.Params {
	dst := synth.NewParams()
	if src == nil {
		return dst
	}
	for _, s := range synth.Specs() {
		dst.Set(s.ID, src.Get(s.ID))
	}
	return dst
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
