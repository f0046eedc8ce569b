package synth

import (
	"github.com/cwbudde/algo-synth/dsp"
)

// Tremolo is the global amplitude LFO. One instance per engine computes a
// gain per frame for the whole block; all voices read the same buffer, so
// the modulation stays in phase across voices.
type Tremolo struct {
	osc dsp.Oscillator
	buf []float32
}

// NewTremolo allocates a buffer for blocks of up to maxBlock frames.
func NewTremolo(sampleRate float64, maxBlock int) *Tremolo {
	t := &Tremolo{}
	t.Prepare(sampleRate, maxBlock)
	return t
}

// Prepare resizes the buffer and resets the phase.
func (t *Tremolo) Prepare(sampleRate float64, maxBlock int) {
	t.osc.SetSampleRate(sampleRate)
	t.osc.Reset()
	if cap(t.buf) < maxBlock {
		t.buf = make([]float32, maxBlock)
	}
	t.buf = t.buf[:maxBlock]
	for i := range t.buf {
		t.buf[i] = 1
	}
}

// Render fills and returns the first n gains (n is capped at the prepared
// block size). With tremolo off every gain is 1 and the phase does not move.
func (t *Tremolo) Render(n int, snap *Snapshot) []float32 {
	if n > len(t.buf) {
		n = len(t.buf)
	}
	out := t.buf[:n]
	if !snap.TremoloOn {
		for i := range out {
			out[i] = 1
		}
		return out
	}

	depth := float64(clampf(snap.TremoloDepth, 0, 1))
	freq := float64(snap.TremoloFreq)
	for i := range out {
		w := float64(t.osc.Next(snap.TremoloWave, freq))
		out[i] = float32(1 - 0.5*depth + 0.5*depth*w)
	}
	return out
}

// Buffer returns the gains computed by the last Render, full prepared length.
func (t *Tremolo) Buffer() []float32 { return t.buf }
