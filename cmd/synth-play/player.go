package main

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/cwbudde/algo-synth/synth"
	"github.com/ebitengine/oto/v3"
)

const (
	channels        = 2
	readChunkFrames = 2048
)

// engineReader feeds oto with interleaved float32 frames. Note events arrive
// on a buffered channel and are applied at the start of the next callback.
type engineReader struct {
	engine  atomic.Pointer[synth.Synth]
	events  chan synth.Event
	pending []synth.Event
	buf     []float32
	frames  atomic.Int64
}

func newEngineReader(s *synth.Synth, queue int) *engineReader {
	r := &engineReader{
		events:  make(chan synth.Event, queue),
		pending: make([]synth.Event, 0, queue),
		buf:     make([]float32, readChunkFrames*channels),
	}
	r.engine.Store(s)
	return r
}

// Send queues an event without blocking. It reports false when the queue is
// full and the event was dropped.
func (r *engineReader) Send(ev synth.Event) bool {
	ev.Offset = 0
	select {
	case r.events <- ev:
		return true
	default:
		return false
	}
}

// Read renders whole frames into p in chunks of the preallocated buffer, so
// a large device request never allocates on the audio thread.
func (r *engineReader) Read(p []byte) (int, error) {
	frames := len(p) / (4 * channels)
	if frames == 0 {
		return 0, nil
	}
	s := r.engine.Load()
	r.pending = r.pending[:0]
	if s != nil {
	drain:
		for len(r.pending) < cap(r.pending) {
			select {
			case ev := <-r.events:
				r.pending = append(r.pending, ev)
			default:
				break drain
			}
		}
	}

	chunk := len(r.buf) / channels
	events := r.pending
	for done := 0; done < frames; {
		n := min(chunk, frames-done)
		samples := r.buf[:n*channels]
		if s == nil {
			clear(samples)
		} else {
			s.ProcessInterleaved(samples, events)
			events = nil
		}
		for i, v := range samples {
			if v > 1 {
				samples[i] = 1
			} else if v < -1 {
				samples[i] = -1
			}
		}
		copy(p[done*channels*4:], unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), len(samples)*4))
		done += n
	}
	r.frames.Add(int64(frames))
	return frames * channels * 4, nil
}

// Frames returns how many frames have been rendered.
func (r *engineReader) Frames() int64 { return r.frames.Load() }

type otoOutput struct {
	ctx    *oto.Context
	player *oto.Player
	mu     sync.Mutex
}

func newOtoOutput(sampleRate int, reader *engineReader, bufferFrames int) (*otoOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
	}
	if bufferFrames > 0 {
		op.BufferSize = secondsFor(bufferFrames, sampleRate)
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	return &otoOutput{ctx: ctx, player: ctx.NewPlayer(reader)}, nil
}

func (o *otoOutput) Start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player != nil {
		o.player.Play()
	}
}

func (o *otoOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	return err
}
