package preset

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-synth/dsp"
	"github.com/cwbudde/algo-synth/synth"
)

// File is the JSON schema for synth presets:
//
//	{"name": "Warm Pad", "params": {"gain": 0, "wave": 2, "tremoloOn": 1, ...}}
//
// Params is a flat key->value map keyed by the parameter keys of the synth
// package. Values are numbers, booleans for toggles, or waveform names.
type File struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params"`
}

// ApplyReport lists what happened to each key of a batch.
type ApplyReport struct {
	Applied []string // written as given
	Clamped []string // written after clamping to the parameter range
	Ignored []string // unknown key or unusable value
}

// Changed reports whether any parameter was written.
func (r ApplyReport) Changed() bool { return len(r.Applied)+len(r.Clamped) > 0 }

// ParseJSON decodes a preset document.
func ParseJSON(b []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	if f.Params == nil {
		return nil, fmt.Errorf("preset has no params object")
	}
	return &f, nil
}

// LoadJSON reads and decodes a preset file. Nothing is applied.
func LoadJSON(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := ParseJSON(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// SaveJSON writes f as indented JSON.
func SaveJSON(path string, f *File) error {
	if f == nil {
		return fmt.Errorf("nil preset")
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// FromParams captures every current value of p. Toggles are stored as 0/1.
func FromParams(name string, p *synth.Params) *File {
	f := &File{Name: name, Params: make(map[string]any, len(synth.Specs()))}
	for _, s := range synth.Specs() {
		f.Params[s.Key] = float64(p.Get(s.ID))
	}
	return f
}

// Apply writes the preset's params onto dst. See ApplyMap.
func (f *File) Apply(dst *synth.Params) ApplyReport {
	if f == nil {
		return ApplyReport{}
	}
	return ApplyMap(dst, f.Params)
}

// ApplyMap writes a batch of key->value pairs. Out-of-range values are
// clamped, unknown keys and unusable values are skipped; one bad entry never
// stops the rest. Keys are applied in sorted order.
func ApplyMap(dst *synth.Params, values map[string]any) ApplyReport {
	var r ApplyReport
	if dst == nil {
		return r
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		id, ok := synth.Lookup(k)
		if !ok {
			r.Ignored = append(r.Ignored, k)
			continue
		}
		v, ok := toFloat(id.Spec(), values[k])
		if !ok {
			r.Ignored = append(r.Ignored, k)
			continue
		}
		stored, ok := dst.Set(id, v)
		switch {
		case !ok:
			r.Ignored = append(r.Ignored, k)
		case stored != v:
			r.Clamped = append(r.Clamped, k)
		default:
			r.Applied = append(r.Applied, k)
		}
	}
	return r
}

func toFloat(spec synth.ParamSpec, v any) (float32, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case bool:
		if x {
			f = 1
		}
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			f = n
			break
		}
		if spec.Kind == synth.KindChoice {
			w, err := dsp.ParseWaveform(s)
			if err != nil {
				return 0, false
			}
			f = float64(w)
			break
		}
		if spec.Kind == synth.KindToggle {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return 0, false
			}
			if b {
				f = 1
			}
			break
		}
		return 0, false
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	if math.IsInf(f, 0) {
		f = math.Copysign(math.MaxFloat32, f)
	}
	return float32(f), true
}
