package dsp

import (
	"fmt"
	"math"
	"strings"
)

// Waveform selects the oscillator shape. The numeric values match the
// control surface choice indices.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
)

// NumWaveforms is the number of selectable waveforms.
const NumWaveforms = 4

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	case Sawtooth:
		return "sawtooth"
	default:
		return fmt.Sprintf("waveform(%d)", int(w))
	}
}

// WaveformFromIndex maps a choice index to a waveform; unknown indices give Sine.
func WaveformFromIndex(i int) Waveform {
	if i < 0 || i >= NumWaveforms {
		return Sine
	}
	return Waveform(i)
}

// ParseWaveform accepts a waveform name ("saw" is an alias for sawtooth).
func ParseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine", "sin":
		return Sine, nil
	case "square", "sqr":
		return Square, nil
	case "triangle", "tri":
		return Triangle, nil
	case "sawtooth", "saw":
		return Sawtooth, nil
	}
	return Sine, fmt.Errorf("unknown waveform %q", name)
}

// Oscillator is a phase accumulator shared by all four waveforms, so switching
// shape keeps the phase continuous.
type Oscillator struct {
	sampleRate float64
	phase      float64 // [0,1)
}

// NewOscillator creates an oscillator at phase zero.
func NewOscillator(sampleRate float64) *Oscillator {
	return &Oscillator{sampleRate: sampleRate}
}

// SetSampleRate changes the rate used to advance the phase.
func (o *Oscillator) SetSampleRate(sampleRate float64) {
	o.sampleRate = sampleRate
}

// Phase returns the current normalised phase.
func (o *Oscillator) Phase() float64 { return o.phase }

// Reset sets the phase back to zero.
func (o *Oscillator) Reset() { o.phase = 0 }

// Next returns the current sample of w at freqHz and advances the phase.
func (o *Oscillator) Next(w Waveform, freqHz float64) float32 {
	out := shape(w, o.phase)
	if o.sampleRate > 0 {
		o.phase += freqHz / o.sampleRate
		if o.phase >= 1 || o.phase < 0 {
			o.phase -= math.Floor(o.phase)
		}
	}
	return out
}

func shape(w Waveform, p float64) float32 {
	switch w {
	case Square:
		if p < 0.5 {
			return 1
		}
		return -1
	case Triangle:
		if p < 0.5 {
			return float32(4*p - 1)
		}
		return float32(3 - 4*p)
	case Sawtooth:
		return float32(2*p - 1)
	default:
		return float32(math.Sin(2 * math.Pi * p))
	}
}
