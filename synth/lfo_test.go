package synth

import (
	"testing"

	"github.com/cwbudde/algo-synth/dsp"
)

func TestTremoloOffIsUnity(t *testing.T) {
	tr := NewTremolo(testSampleRate, 256)
	snap := NewParams().Snapshot()
	snap.TremoloOn = false
	snap.TremoloDepth = 1
	for _, g := range tr.Render(256, &snap) {
		if g != 1 {
			t.Fatalf("expected unity gain with tremolo off, got %f", g)
		}
	}
	if tr.osc.Phase() != 0 {
		t.Fatalf("phase advanced while off: %f", tr.osc.Phase())
	}
}

func TestTremoloZeroDepthIsUnity(t *testing.T) {
	tr := NewTremolo(testSampleRate, 256)
	snap := NewParams().Snapshot()
	snap.TremoloOn = true
	snap.TremoloDepth = 0
	for _, g := range tr.Render(256, &snap) {
		if g != 1 {
			t.Fatalf("expected unity gain at depth 0, got %f", g)
		}
	}
}

func TestTremoloGainBounded(t *testing.T) {
	for w := 0; w < dsp.NumWaveforms; w++ {
		tr := NewTremolo(testSampleRate, 512)
		snap := NewParams().Snapshot()
		snap.TremoloOn = true
		snap.TremoloDepth = 1
		snap.TremoloFreq = 20
		snap.TremoloWave = dsp.Waveform(w)

		lo, hi := float32(2), float32(-1)
		for block := 0; block < 20; block++ {
			for _, g := range tr.Render(512, &snap) {
				if g < -1e-6 || g > 1+1e-6 {
					t.Fatalf("%v: gain %f out of [0,1]", snap.TremoloWave, g)
				}
				if g < lo {
					lo = g
				}
				if g > hi {
					hi = g
				}
			}
		}
		if hi-lo < 0.9 {
			t.Fatalf("%v: full depth should swing the gain, got [%f,%f]", snap.TremoloWave, lo, hi)
		}
	}
}

func TestTremoloRenderCapsAtBlockSize(t *testing.T) {
	tr := NewTremolo(testSampleRate, 64)
	snap := NewParams().Snapshot()
	if got := len(tr.Render(1000, &snap)); got != 64 {
		t.Fatalf("expected 64 gains, got %d", got)
	}
	tr.Prepare(testSampleRate, 128)
	if got := len(tr.Buffer()); got != 128 {
		t.Fatalf("expected buffer of 128 after Prepare, got %d", got)
	}
}
