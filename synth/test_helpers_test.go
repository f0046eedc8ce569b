package synth

import (
	"math"
	"math/cmplx"
	"testing"

	algofft "github.com/cwbudde/algo-fft"
)

const testSampleRate = 48000

func newTestSynth(t *testing.T, mutate func(*Config)) *Synth {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func newBuffers(channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, frames)
	}
	return out
}

// renderFrames runs Process in blocks of block frames and returns channel 0.
func renderFrames(s *Synth, frames, block int) []float32 {
	out := newBuffers(s.Config().Channels, block)
	mono := make([]float32, 0, frames)
	for len(mono) < frames {
		n := block
		if rem := frames - len(mono); rem < n {
			n = rem
		}
		s.Process(out, 0, n, nil)
		mono = append(mono, out[0][:n]...)
	}
	return mono
}

func windowRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func peakAbs(samples []float32) float64 {
	m := 0.0
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > m {
			m = a
		}
	}
	return m
}

func maxAbsDiff(a []float32, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	max := 0.0
	for i := 0; i < n; i++ {
		d := math.Abs(float64(a[i] - b[i]))
		if d > max {
			max = d
		}
	}
	return max
}

// dominantFrequency returns the frequency of the strongest FFT bin of the
// first fftSize samples, refined by parabolic interpolation.
func dominantFrequency(t *testing.T, samples []float32, sampleRate int, fftSize int) float64 {
	t.Helper()
	if len(samples) < fftSize {
		t.Fatalf("need %d samples, have %d", fftSize, len(samples))
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		t.Fatalf("NewPlanReal64: %v", err)
	}
	in := make([]float64, fftSize)
	for i := range in {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
		in[i] = float64(samples[i]) * w
	}
	spec := make([]complex128, fftSize/2+1)
	plan.Forward(spec, in)

	best := 1
	for k := 2; k < len(spec)-1; k++ {
		if cmplx.Abs(spec[k]) > cmplx.Abs(spec[best]) {
			best = k
		}
	}
	a := cmplx.Abs(spec[best-1])
	b := cmplx.Abs(spec[best])
	c := cmplx.Abs(spec[best+1])
	shift := 0.0
	if den := a - 2*b + c; den != 0 {
		shift = 0.5 * (a - c) / den
	}
	return (float64(best) + shift) * float64(sampleRate) / float64(fftSize)
}
