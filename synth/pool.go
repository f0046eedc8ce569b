package synth

import (
	"github.com/cwbudde/algo-synth/dsp"
)

// VoicePool is a fixed set of voices.
//
// Allocation picks the free voice with the lowest index. When every voice is
// busy one is stolen: the oldest voice whose key is already released, or
// failing that the oldest held voice. Age is the note-on order, so there are
// no ties.
type VoicePool struct {
	voices  []*Voice
	counter uint64
	steals  int
}

// NewVoicePool creates count voices.
func NewVoicePool(count int, sampleRate float64, filterTaps int) (*VoicePool, error) {
	p := &VoicePool{voices: make([]*Voice, 0, count)}
	for i := 0; i < count; i++ {
		v, err := NewVoice(sampleRate, filterTaps)
		if err != nil {
			return nil, err
		}
		p.voices = append(p.voices, v)
	}
	return p, nil
}

// Prepare reconfigures every voice for a new sample rate.
func (p *VoicePool) Prepare(sampleRate float64, filterTaps int) error {
	for _, v := range p.voices {
		if err := v.Prepare(sampleRate, filterTaps); err != nil {
			return err
		}
	}
	return nil
}

// NoteOn assigns note to a voice and reports whether a sounding voice had to
// be stolen. Voices still holding the same note are released first.
func (p *VoicePool) NoteOn(note int, velocity float32, snap *Snapshot) (stolen bool) {
	for _, v := range p.voices {
		if v.Held() && v.note == note {
			v.Release(true)
		}
	}

	v := p.freeVoice()
	if v == nil {
		v = p.victim()
		stolen = true
		p.steals++
	}
	p.counter++
	v.Assign(note, velocity, snap, p.counter)
	return stolen
}

// NoteOff releases every held voice playing note.
func (p *VoicePool) NoteOff(note int, allowTailOff bool) {
	for _, v := range p.voices {
		if v.Held() && v.note == note {
			v.Release(allowTailOff)
		}
	}
}

// AllNotesOff releases every voice.
func (p *VoicePool) AllNotesOff(allowTailOff bool) {
	for _, v := range p.voices {
		if v.active {
			v.Release(allowTailOff)
		}
	}
}

// Render adds every active voice into out without clearing it first.
func (p *VoicePool) Render(out [][]float32, start, n int, lfo []float32, wave dsp.Waveform) {
	for _, v := range p.voices {
		v.RenderInto(out, start, n, lfo, wave)
	}
}

func (p *VoicePool) freeVoice() *Voice {
	for _, v := range p.voices {
		if !v.active {
			return v
		}
	}
	return nil
}

func (p *VoicePool) victim() *Voice {
	var oldestReleased, oldestHeld *Voice
	for _, v := range p.voices {
		if v.gate {
			if oldestHeld == nil || v.age < oldestHeld.age {
				oldestHeld = v
			}
			continue
		}
		if oldestReleased == nil || v.age < oldestReleased.age {
			oldestReleased = v
		}
	}
	if oldestReleased != nil {
		return oldestReleased
	}
	return oldestHeld
}

// Voices returns the pool's voices.
func (p *VoicePool) Voices() []*Voice { return p.voices }

// ActiveCount returns the number of sounding voices.
func (p *VoicePool) ActiveCount() int {
	n := 0
	for _, v := range p.voices {
		if v.active {
			n++
		}
	}
	return n
}

// Steals returns how many note-ons had to steal a voice.
func (p *VoicePool) Steals() int { return p.steals }
