package synth

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp"
)

// ParamID identifies one control value.
type ParamID int

const (
	ParamWave ParamID = iota
	ParamGain
	ParamCutoffLow
	ParamCutoffHigh
	ParamAttack
	ParamDecay
	ParamSustain
	ParamRelease
	ParamTremoloOn
	ParamTremoloWave
	ParamTremoloFreq
	ParamTremoloDepth
	numParams
)

// ParamKind tells how a stored value is interpreted.
type ParamKind int

const (
	KindFloat ParamKind = iota
	KindChoice
	KindToggle
)

// ParamSpec describes one parameter's key, range and default.
type ParamSpec struct {
	ID      ParamID
	Key     string
	Kind    ParamKind
	Min     float32
	Max     float32
	Default float32
	// Skew shapes the normalised mapping: value = Min + (Max-Min)*p^(1/Skew).
	// 1 is linear.
	Skew float32
}

var paramSpecs = [numParams]ParamSpec{
	ParamWave:         {ID: ParamWave, Key: "wave", Kind: KindChoice, Min: 0, Max: dsp.NumWaveforms - 1, Default: 0, Skew: 1},
	ParamGain:         {ID: ParamGain, Key: "gain", Min: -24, Max: 24, Default: 0, Skew: 1},
	ParamCutoffLow:    {ID: ParamCutoffLow, Key: "cutoffLow", Min: 20, Max: 20000, Default: 1000, Skew: 1},
	ParamCutoffHigh:   {ID: ParamCutoffHigh, Key: "cutoffHigh", Min: 20, Max: 20000, Default: 8000, Skew: 1},
	ParamAttack:       {ID: ParamAttack, Key: "attack", Min: 0, Max: 5000, Default: 100, Skew: 0.5},
	ParamDecay:        {ID: ParamDecay, Key: "decay", Min: 0, Max: 5000, Default: 500, Skew: 0.5},
	ParamSustain:      {ID: ParamSustain, Key: "sustain", Min: 0, Max: 1, Default: 0.8, Skew: 1},
	ParamRelease:      {ID: ParamRelease, Key: "release", Min: 0, Max: 5000, Default: 100, Skew: 0.5},
	ParamTremoloOn:    {ID: ParamTremoloOn, Key: "tremoloOn", Kind: KindToggle, Min: 0, Max: 1, Default: 0, Skew: 1},
	ParamTremoloWave:  {ID: ParamTremoloWave, Key: "tremoloWave", Kind: KindChoice, Min: 0, Max: dsp.NumWaveforms - 1, Default: 0, Skew: 1},
	ParamTremoloFreq:  {ID: ParamTremoloFreq, Key: "tremoloFreq", Min: 0.1, Max: 20, Default: 5, Skew: 1},
	ParamTremoloDepth: {ID: ParamTremoloDepth, Key: "tremoloDepth", Min: 0, Max: 1, Default: 0.5, Skew: 1},
}

var paramByKey = func() map[string]ParamID {
	m := make(map[string]ParamID, numParams)
	for _, s := range paramSpecs {
		m[s.Key] = s.ID
	}
	return m
}()

// Specs returns the parameter table in ID order.
func Specs() []ParamSpec {
	out := make([]ParamSpec, numParams)
	copy(out, paramSpecs[:])
	return out
}

// Lookup resolves a control-surface key such as "cutoffLow".
func Lookup(key string) (ParamID, bool) {
	id, ok := paramByKey[key]
	return id, ok
}

// Spec returns the description of id.
func (id ParamID) Spec() ParamSpec { return paramSpecs[id] }

func (id ParamID) String() string {
	if id < 0 || id >= numParams {
		return "unknown"
	}
	return paramSpecs[id].Key
}

// Clamp limits v to the parameter range. Choices snap to the nearest index
// and toggles to 0 or 1.
func (s ParamSpec) Clamp(v float32) float32 {
	switch s.Kind {
	case KindChoice:
		v = float32(math.Round(float64(v)))
	case KindToggle:
		if v >= 0.5 {
			return 1
		}
		return 0
	}
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// FromNormalized maps p in [0,1] to the parameter range.
func (s ParamSpec) FromNormalized(p float32) float32 {
	p = clampf(p, 0, 1)
	if s.Skew != 1 && s.Skew > 0 && p > 0 {
		p = float32(math.Exp(math.Log(float64(p)) / float64(s.Skew)))
	}
	return s.Clamp(s.Min + (s.Max-s.Min)*p)
}

// ToNormalized maps a value in range to [0,1].
func (s ParamSpec) ToNormalized(v float32) float32 {
	if s.Max <= s.Min {
		return 0
	}
	p := clampf((s.Clamp(v)-s.Min)/(s.Max-s.Min), 0, 1)
	if s.Skew != 1 && s.Skew > 0 && p > 0 {
		p = float32(math.Pow(float64(p), float64(s.Skew)))
	}
	return p
}

// Params is the live parameter table. Every value is an independent atomic
// float32, written by the control side and read by the audio callback
// without locks. There is no cross-parameter atomicity.
type Params struct {
	values [numParams]atomic.Uint32
}

// NewParams creates a table holding the defaults.
func NewParams() *Params {
	p := &Params{}
	p.Reset()
	return p
}

// Reset restores every default.
func (p *Params) Reset() {
	for i := range paramSpecs {
		p.values[i].Store(math.Float32bits(paramSpecs[i].Default))
	}
}

// Set stores v clamped to the range of id and returns the stored value.
// NaN is ignored and reported with ok=false.
func (p *Params) Set(id ParamID, v float32) (stored float32, ok bool) {
	if id < 0 || id >= numParams || math.IsNaN(float64(v)) {
		return 0, false
	}
	stored = paramSpecs[id].Clamp(v)
	p.values[id].Store(math.Float32bits(stored))
	return stored, true
}

// SetBool writes a toggle.
func (p *Params) SetBool(id ParamID, on bool) {
	v := float32(0)
	if on {
		v = 1
	}
	p.Set(id, v)
}

// SetNormalized writes a value from a [0,1] control position.
func (p *Params) SetNormalized(id ParamID, norm float32) (float32, bool) {
	if id < 0 || id >= numParams || math.IsNaN(float64(norm)) {
		return 0, false
	}
	return p.Set(id, paramSpecs[id].FromNormalized(norm))
}

// Get returns the current value of id.
func (p *Params) Get(id ParamID) float32 {
	if id < 0 || id >= numParams {
		return 0
	}
	return math.Float32frombits(p.values[id].Load())
}

// Normalized returns the [0,1] control position of id.
func (p *Params) Normalized(id ParamID) float32 {
	if id < 0 || id >= numParams {
		return 0
	}
	return paramSpecs[id].ToNormalized(p.Get(id))
}

// Snapshot is a typed copy of the table taken once per block.
type Snapshot struct {
	Wave         dsp.Waveform
	GainDB       float32
	CutoffLow    float32
	CutoffHigh   float32
	AttackMS     float32
	DecayMS      float32
	Sustain      float32
	ReleaseMS    float32
	TremoloOn    bool
	TremoloWave  dsp.Waveform
	TremoloFreq  float32
	TremoloDepth float32
}

// Snapshot reads every parameter once.
func (p *Params) Snapshot() Snapshot {
	return Snapshot{
		Wave:         dsp.WaveformFromIndex(int(p.Get(ParamWave))),
		GainDB:       p.Get(ParamGain),
		CutoffLow:    p.Get(ParamCutoffLow),
		CutoffHigh:   p.Get(ParamCutoffHigh),
		AttackMS:     p.Get(ParamAttack),
		DecayMS:      p.Get(ParamDecay),
		Sustain:      p.Get(ParamSustain),
		ReleaseMS:    p.Get(ParamRelease),
		TremoloOn:    p.Get(ParamTremoloOn) >= 0.5,
		TremoloWave:  dsp.WaveformFromIndex(int(p.Get(ParamTremoloWave))),
		TremoloFreq:  p.Get(ParamTremoloFreq),
		TremoloDepth: p.Get(ParamTremoloDepth),
	}
}

// Gain returns the master gain as a linear factor.
func (s Snapshot) Gain() float32 {
	return dbToGain(s.GainDB)
}
