package synth

import (
	"github.com/cwbudde/algo-synth/dsp"
)

// voiceHeadroom scales note velocity into the voice level.
const voiceHeadroom = 0.15

// Voice renders one note: oscillator -> band filter -> envelope -> tremolo.
type Voice struct {
	sampleRate float64

	osc    dsp.Oscillator
	env    *dsp.Envelope
	filter *dsp.BandFilter

	note   int
	freq   float64
	level  float32
	gate   bool
	active bool
	age    uint64 // note-on order, larger is newer
}

// NewVoice creates a free voice with a filter of the given tap count.
func NewVoice(sampleRate float64, filterTaps int) (*Voice, error) {
	v := &Voice{note: -1}
	if err := v.Prepare(sampleRate, filterTaps); err != nil {
		return nil, err
	}
	return v, nil
}

// Prepare rebuilds the filter for a new sample rate and hard-stops the voice.
// It allocates and must not run concurrently with rendering.
func (v *Voice) Prepare(sampleRate float64, filterTaps int) error {
	if v.filter == nil {
		f, err := dsp.NewBandFilter(filterTaps, sampleRate)
		if err != nil {
			return err
		}
		v.filter = f
	} else if err := v.filter.Configure(filterTaps, sampleRate); err != nil {
		return err
	}
	if v.env == nil {
		v.env = dsp.NewEnvelope(sampleRate)
	} else {
		v.env.SetSampleRate(sampleRate)
	}
	v.sampleRate = sampleRate
	v.osc.SetSampleRate(sampleRate)
	v.Stop()
	return nil
}

// Assign starts note with velocity in [0,1] using the filter and envelope
// settings of snap. The envelope restarts from its current level, so a
// stolen or re-struck voice does not click. Assign does not allocate.
func (v *Voice) Assign(note int, velocity float32, snap *Snapshot, age uint64) {
	v.note = note
	v.freq = float64(midiNoteToFreq(note))
	v.level = clampf(velocity, 0, 1) * voiceHeadroom
	v.age = age

	low, high := float64(snap.CutoffLow), float64(snap.CutoffHigh)
	nyq := 0.5 * v.sampleRate
	if low >= nyq {
		low = 0.99 * nyq
	}
	if high >= nyq {
		high = 0.99 * nyq
	}
	// A rejected cutoff keeps the previous coefficients.
	_ = v.filter.SetCutoffs(low, high)

	v.env.SetAttackMS(float64(snap.AttackMS))
	v.env.SetDecayMS(float64(snap.DecayMS))
	v.env.SetSustain(float64(snap.Sustain))
	v.env.SetReleaseMS(float64(snap.ReleaseMS))

	v.env.Trigger()
	v.gate = true
	v.active = true
}

// Release drops the gate. Without tail-off the voice is freed immediately.
func (v *Voice) Release(allowTailOff bool) {
	v.gate = false
	if !allowTailOff {
		v.Stop()
	}
}

// Stop frees the voice at once and clears its filter and envelope state.
func (v *Voice) Stop() {
	v.gate = false
	v.active = false
	v.note = -1
	if v.env != nil {
		v.env.Reset()
	}
	if v.filter != nil {
		v.filter.Reset()
	}
}

// Active reports whether the voice is producing output.
func (v *Voice) Active() bool { return v.active }

// Held reports whether the note is still down.
func (v *Voice) Held() bool { return v.active && v.gate }

// Note returns the sounding note, or -1 when free.
func (v *Voice) Note() int { return v.note }

// Frequency returns the oscillator frequency in Hz.
func (v *Voice) Frequency() float64 { return v.freq }

// Level returns the velocity-scaled level.
func (v *Voice) Level() float32 { return v.level }

// Age returns the note-on counter value the voice was assigned with.
func (v *Voice) Age() uint64 { return v.age }

// EnvelopeStage exposes the envelope state.
func (v *Voice) EnvelopeStage() dsp.EnvelopeStage { return v.env.Stage() }

// RenderInto adds frames [start, start+n) of this voice into every channel
// of out. lfo[k] is the tremolo gain for frame start+k. The voice frees
// itself once released and silent.
func (v *Voice) RenderInto(out [][]float32, start, n int, lfo []float32, wave dsp.Waveform) {
	if !v.active {
		return
	}
	if !v.gate && !v.env.Active() {
		v.Stop()
		return
	}

	for k := 0; k < n; k++ {
		e := v.env.Process(v.gate)
		x := v.osc.Next(wave, v.freq)
		y := v.filter.ProcessSample(x)
		s := y * v.level * e * lfo[k]
		for ch := range out {
			out[ch][start+k] += s
		}
		if !v.gate && !v.env.Active() {
			v.Stop()
			return
		}
	}
}
