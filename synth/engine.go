package synth

import (
	"fmt"
)

// Config fixes the engine's sizes. Changing any of them goes through Prepare
// or a new engine.
type Config struct {
	SampleRate   int
	MaxBlockSize int
	Voices       int
	FilterTaps   int
	Channels     int
}

// DefaultConfig returns 48 kHz, 512-frame blocks, 10 voices, 101 taps, stereo.
func DefaultConfig() Config {
	return Config{
		SampleRate:   48000,
		MaxBlockSize: 512,
		Voices:       10,
		FilterTaps:   101,
		Channels:     2,
	}
}

// Validate checks ranges and returns a descriptive error.
func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 384000 {
		return fmt.Errorf("sample rate must be in [8000,384000], got %d", c.SampleRate)
	}
	if c.MaxBlockSize < 1 {
		return fmt.Errorf("max block size must be >= 1, got %d", c.MaxBlockSize)
	}
	if c.Voices < 1 {
		return fmt.Errorf("voices must be >= 1, got %d", c.Voices)
	}
	if c.FilterTaps < 3 {
		return fmt.Errorf("filter taps must be >= 3, got %d", c.FilterTaps)
	}
	if c.Channels < 1 {
		return fmt.Errorf("channels must be >= 1, got %d", c.Channels)
	}
	return nil
}

// Synth is the polyphonic engine. Process is the audio callback: it must be
// called from a single goroutine and never blocks or allocates. Parameters
// may be written from any goroutine through Params.
type Synth struct {
	cfg     Config
	params  *Params
	pool    *VoicePool
	tremolo *Tremolo

	snap   Snapshot
	planar [][]float32
}

// New creates an engine. A nil params gets a fresh default table.
func New(cfg Config, params *Params) (*Synth, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if params == nil {
		params = NewParams()
	}
	pool, err := NewVoicePool(cfg.Voices, float64(cfg.SampleRate), cfg.FilterTaps)
	if err != nil {
		return nil, err
	}
	s := &Synth{
		cfg:     cfg,
		params:  params,
		pool:    pool,
		tremolo: NewTremolo(float64(cfg.SampleRate), cfg.MaxBlockSize),
	}
	s.allocPlanar()
	s.snap = params.Snapshot()
	return s, nil
}

func (s *Synth) allocPlanar() {
	s.planar = make([][]float32, s.cfg.Channels)
	for ch := range s.planar {
		s.planar[ch] = make([]float32, s.cfg.MaxBlockSize)
	}
}

// Prepare switches sample rate and block size. Every voice's filter is
// rebuilt and all notes stop. It must not overlap with Process.
func (s *Synth) Prepare(sampleRate int, maxBlockSize int) error {
	next := s.cfg
	next.SampleRate = sampleRate
	next.MaxBlockSize = maxBlockSize
	if err := next.Validate(); err != nil {
		return err
	}
	if err := s.pool.Prepare(float64(sampleRate), next.FilterTaps); err != nil {
		return err
	}
	s.cfg = next
	s.tremolo.Prepare(float64(sampleRate), maxBlockSize)
	s.allocPlanar()
	return nil
}

// Config returns the active configuration.
func (s *Synth) Config() Config { return s.cfg }

// Params returns the live parameter table.
func (s *Synth) Params() *Params { return s.params }

// Pool exposes the voice pool.
func (s *Synth) Pool() *VoicePool { return s.pool }

// NoteOn starts a note immediately (velocity 0..127). Call it from the
// rendering goroutine only; it reports whether a voice was stolen.
func (s *Synth) NoteOn(note int, velocity int) bool {
	if velocity <= 0 {
		s.pool.NoteOff(note, true)
		return false
	}
	s.snap = s.params.Snapshot()
	return s.pool.NoteOn(note, float32(velocity)/127, &s.snap)
}

// NoteOff releases a note with tail-off.
func (s *Synth) NoteOff(note int) {
	s.pool.NoteOff(note, true)
}

// AllNotesOff releases every voice; without tail-off they stop at once.
func (s *Synth) AllNotesOff(allowTailOff bool) {
	s.pool.AllNotesOff(allowTailOff)
}

func (s *Synth) apply(ev *Event) {
	switch ev.Kind {
	case EventNoteOn:
		if ev.Note < 0 || ev.Note > 127 {
			return
		}
		if ev.Velocity <= 0 {
			s.pool.NoteOff(ev.Note, true)
			return
		}
		s.pool.NoteOn(ev.Note, float32(ev.Velocity)/127, &s.snap)
	case EventNoteOff:
		s.pool.NoteOff(ev.Note, true)
	case EventAllNotesOff:
		s.pool.AllNotesOff(true)
	}
}

// Process clears out[ch][start:start+frames], renders every voice into it
// and applies the master gain. events are applied in offset order at their
// frame; offsets at or beyond frames take effect after the block.
func (s *Synth) Process(out [][]float32, start, frames int, events []Event) {
	for _, ch := range out {
		if avail := len(ch) - start; avail < frames {
			frames = avail
		}
	}
	if frames <= 0 {
		for i := range events {
			s.apply(&events[i])
		}
		return
	}
	s.process(out, start, frames, events, 0, true)
}

// process renders frames into out. Event offsets are taken relative to shift.
// When final is false, events past the block are left for the caller and the
// number of applied events is returned.
func (s *Synth) process(out [][]float32, start, frames int, events []Event, shift int, final bool) int {
	s.snap = s.params.Snapshot()
	for _, ch := range out {
		clear(ch[start : start+frames])
	}

	ei := 0
	done := 0
	for done < frames {
		n := frames - done
		if n > s.cfg.MaxBlockSize {
			n = s.cfg.MaxBlockSize
		}
		lfo := s.tremolo.Render(n, &s.snap)

		pos := 0
		for pos < n {
			for ei < len(events) && events[ei].Offset-shift <= done+pos {
				s.apply(&events[ei])
				ei++
			}
			next := n
			if ei < len(events) {
				if off := events[ei].Offset - shift - done; off < next {
					next = off
				}
			}
			s.pool.Render(out, start+done+pos, next-pos, lfo[pos:next], s.snap.Wave)
			pos = next
		}
		done += n
	}

	if final {
		for ; ei < len(events); ei++ {
			s.apply(&events[ei])
		}
	}

	gain := s.snap.Gain()
	for _, ch := range out {
		seg := ch[start : start+frames]
		for i := range seg {
			seg[i] *= gain
		}
	}
	return ei
}

// ProcessInterleaved renders len(dst)/Channels frames into dst as
// interleaved samples, using internal planar scratch. Samples past the last
// whole frame are zeroed. It does not allocate.
func (s *Synth) ProcessInterleaved(dst []float32, events []Event) {
	chans := s.cfg.Channels
	frames := len(dst) / chans
	clear(dst[frames*chans:])
	if frames == 0 {
		for i := range events {
			s.apply(&events[i])
		}
		return
	}
	ei := 0
	for done := 0; done < frames; {
		n := frames - done
		if n > s.cfg.MaxBlockSize {
			n = s.cfg.MaxBlockSize
		}
		last := done+n >= frames
		ei += s.process(s.planar, 0, n, events[ei:], done, last)
		for ch := 0; ch < chans; ch++ {
			src := s.planar[ch]
			for i := 0; i < n; i++ {
				dst[(done+i)*chans+ch] = src[i]
			}
		}
		done += n
	}
}

// ActiveVoices returns the number of sounding voices.
func (s *Synth) ActiveVoices() int { return s.pool.ActiveCount() }

// Steals returns the number of voice-stealing events so far.
func (s *Synth) Steals() int { return s.pool.Steals() }
