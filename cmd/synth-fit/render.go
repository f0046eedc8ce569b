package main

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/synth"
)

type renderSettings struct {
	sampleRate  int
	blockSize   int
	minDuration float64
	maxDuration float64
	decayDBFS   float64
	holdBlocks  int
}

// renderNote plays one note for hold seconds and keeps rendering until the
// release has decayed below the threshold. It returns the mono downmix and
// the interleaved stereo render.
func renderNote(params *synth.Params, note, velocity int, hold float64, rs renderSettings) ([]float64, []float32, error) {
	if params == nil {
		return nil, nil, errors.New("nil params")
	}
	cfg := synth.DefaultConfig()
	cfg.SampleRate = rs.sampleRate
	cfg.MaxBlockSize = max(rs.blockSize, 16)
	s, err := synth.New(cfg, params)
	if err != nil {
		return nil, nil, err
	}

	minFrames := int(float64(rs.sampleRate) * math.Max(rs.minDuration, 0))
	maxFrames := int(float64(rs.sampleRate) * math.Max(rs.maxDuration, rs.minDuration))
	if maxFrames < 1 {
		return nil, nil, errors.New("max duration too small")
	}
	offAt := int(float64(rs.sampleRate) * math.Max(hold, 0))
	threshold := math.Pow(10, rs.decayDBFS/20)
	holdBlocks := max(rs.holdBlocks, 1)

	block := make([]float32, cfg.MaxBlockSize*cfg.Channels)
	stereo := make([]float32, 0, maxFrames*cfg.Channels)
	events := make([]synth.Event, 0, 2)
	events = append(events, synth.NoteOnAt(0, note, velocity))

	rendered := 0
	below := 0
	released := false
	for rendered < maxFrames {
		n := min(cfg.MaxBlockSize, maxFrames-rendered)
		if !released && offAt < rendered+n {
			events = append(events, synth.NoteOffAt(max(offAt-rendered, 0), note))
			released = true
		}
		buf := block[:n*cfg.Channels]
		s.ProcessInterleaved(buf, events)
		events = events[:0]
		stereo = append(stereo, buf...)
		rendered += n

		if rendered >= minFrames && released {
			if rms(buf) < threshold {
				below++
				if below >= holdBlocks {
					break
				}
			} else {
				below = 0
			}
		}
	}
	return wavio.Downmix(stereo, cfg.Channels), stereo, nil
}

func rms(x []float32) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, s := range x {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}
