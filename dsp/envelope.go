package dsp

import "math"

// EnvelopeStage is the ADSR state.
type EnvelopeStage int

const (
	StageIdle EnvelopeStage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
)

func (s EnvelopeStage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	}
	return "unknown"
}

// Envelope is an ADSR amplitude generator driven by a gate.
//
// Attack is a linear ramp to 1. Decay and release are exponential: after the
// configured time the remaining distance to the target is 1% of where it
// started. A gate rising during release restarts the attack from the
// current level.
type Envelope struct {
	sampleRate float64

	attackMS  float64
	decayMS   float64
	releaseMS float64
	sustain   float64

	// Kept in float64: near the sustain level a float32 decay step rounds
	// to zero and the stage never advances.
	attackStep  float64
	decayCoef   float64
	releaseCoef float64

	stage EnvelopeStage
	level float64
}

// NewEnvelope creates an idle envelope with the default 100/500/0.8/100 shape.
func NewEnvelope(sampleRate float64) *Envelope {
	e := &Envelope{sampleRate: sampleRate, sustain: 0.8}
	e.attackMS = 100
	e.decayMS = 500
	e.releaseMS = 100
	e.recompute()
	return e
}

// SetSampleRate changes the rate and recomputes the per-sample coefficients.
func (e *Envelope) SetSampleRate(sampleRate float64) {
	e.sampleRate = sampleRate
	e.recompute()
}

// SetAttackMS sets the attack time.
func (e *Envelope) SetAttackMS(ms float64) {
	e.attackMS = math.Max(ms, 0)
	e.attackStep = rampStep(e.attackMS, e.sampleRate)
}

// SetDecayMS sets the decay time.
func (e *Envelope) SetDecayMS(ms float64) {
	e.decayMS = math.Max(ms, 0)
	e.decayCoef = expCoef(e.decayMS, e.sampleRate)
}

// SetSustain sets the sustain level, clamped to [0,1].
func (e *Envelope) SetSustain(level float64) {
	e.sustain = math.Min(math.Max(level, 0), 1)
}

// SetReleaseMS sets the release time.
func (e *Envelope) SetReleaseMS(ms float64) {
	e.releaseMS = math.Max(ms, 0)
	e.releaseCoef = expCoef(e.releaseMS, e.sampleRate)
}

func (e *Envelope) recompute() {
	e.attackStep = rampStep(e.attackMS, e.sampleRate)
	e.decayCoef = expCoef(e.decayMS, e.sampleRate)
	e.releaseCoef = expCoef(e.releaseMS, e.sampleRate)
}

func rampStep(ms float64, sampleRate float64) float64 {
	n := ms * 0.001 * sampleRate
	if n <= 1 {
		return 1
	}
	return 1 / n
}

func expCoef(ms float64, sampleRate float64) float64 {
	n := ms * 0.001 * sampleRate
	if n <= 1 {
		return 0
	}
	return math.Pow(0.01, 1/n)
}

// Stage returns the current stage.
func (e *Envelope) Stage() EnvelopeStage { return e.stage }

// Level returns the last output value.
func (e *Envelope) Level() float32 { return float32(e.level) }

// Active reports whether the envelope still produces output.
func (e *Envelope) Active() bool { return e.stage != StageIdle }

// Trigger restarts the attack from the current level.
func (e *Envelope) Trigger() {
	e.stage = StageAttack
}

// Reset forces the envelope to idle at zero.
func (e *Envelope) Reset() {
	e.stage = StageIdle
	e.level = 0
}

// Process advances one sample with the given gate and returns the level in [0,1].
func (e *Envelope) Process(gate bool) float32 {
	if gate {
		if e.stage == StageIdle || e.stage == StageRelease {
			e.stage = StageAttack
		}
	} else if e.stage == StageAttack || e.stage == StageDecay || e.stage == StageSustain {
		e.stage = StageRelease
	}

	switch e.stage {
	case StageAttack:
		e.level += e.attackStep
		if e.level >= 1 {
			e.level = 1
			e.stage = StageDecay
		}
	case StageDecay:
		prev := e.level
		e.level = e.sustain + (e.level-e.sustain)*e.decayCoef
		if math.Abs(e.level-e.sustain) <= SilenceThreshold || e.level == prev {
			e.level = e.sustain
			e.stage = StageSustain
		}
	case StageSustain:
		e.level = e.sustain
	case StageRelease:
		e.level *= e.releaseCoef
		if e.level < SilenceThreshold {
			e.level = 0
			e.stage = StageIdle
		}
	}
	return float32(e.level)
}
