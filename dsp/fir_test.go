package dsp

import (
	"errors"
	"fmt"
	"math"
	"testing"

	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
	algofft "github.com/cwbudde/algo-fft"
)

func TestLowpassCoefficientsAreSymmetric(t *testing.T) {
	for _, taps := range []int{3, 4, 17, 64, 101} {
		for _, sr := range []float64{44100, 48000} {
			for _, fc := range []float64{20, 440, 1000, 8000, 20000} {
				t.Run(fmt.Sprintf("taps%d_sr%.0f_fc%.0f", taps, sr, fc), func(t *testing.T) {
					c := make([]float32, taps)
					if err := DesignLowpass(c, fc, sr); err != nil {
						t.Fatalf("DesignLowpass: %v", err)
					}
					for n := 0; n < taps; n++ {
						if d := math.Abs(float64(c[n] - c[taps-1-n])); d > 1e-6 {
							t.Fatalf("asymmetric at %d: %g vs %g", n, c[n], c[taps-1-n])
						}
					}
				})
			}
		}
	}
}

func TestLowpassDCGainNearUnity(t *testing.T) {
	c := make([]float32, 101)
	if err := DesignLowpass(c, 8000, 48000); err != nil {
		t.Fatalf("DesignLowpass: %v", err)
	}
	var sum float64
	for _, v := range c {
		sum += float64(v)
	}
	if math.Abs(sum-1) > 0.02 {
		t.Fatalf("expected DC gain near 1, got %f", sum)
	}
}

func TestBandCoefficientsAreLowpassDifference(t *testing.T) {
	f, err := NewBandFilter(101, 48000)
	if err != nil {
		t.Fatalf("NewBandFilter: %v", err)
	}
	if err := f.SetCutoffs(1000, 8000); err != nil {
		t.Fatalf("SetCutoffs: %v", err)
	}
	low := make([]float32, 101)
	high := make([]float32, 101)
	_ = DesignLowpass(low, 1000, 48000)
	_ = DesignLowpass(high, 8000, 48000)

	got := f.Coefficients()
	for n := range got {
		if want := high[n] - low[n]; got[n] != want {
			t.Fatalf("coeff %d: got=%g want=%g", n, got[n], want)
		}
	}
}

func TestEqualCutoffsCollapseBand(t *testing.T) {
	f, err := NewBandFilter(101, 48000)
	if err != nil {
		t.Fatalf("NewBandFilter: %v", err)
	}
	if err := f.SetCutoffs(2500, 2500); err != nil {
		t.Fatalf("SetCutoffs: %v", err)
	}
	for n, c := range f.Coefficients() {
		if math.Abs(float64(c)) > 1e-7 {
			t.Fatalf("expected collapsed band, coeff %d = %g", n, c)
		}
	}
}

func TestConfigureRejectsBadInput(t *testing.T) {
	if _, err := NewBandFilter(2, 48000); !errors.Is(err, ErrInvalidTapCount) {
		t.Fatalf("expected ErrInvalidTapCount, got %v", err)
	}
	if _, err := NewBandFilter(101, 0); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("expected ErrInvalidSampleRate, got %v", err)
	}

	f, err := NewBandFilter(31, 48000)
	if err != nil {
		t.Fatalf("NewBandFilter: %v", err)
	}
	before := f.Coefficients()
	for _, tc := range [][2]float64{{0, 1000}, {1000, 24000}, {-5, 100}, {100, math.NaN()}} {
		if err := f.SetCutoffs(tc[0], tc[1]); !errors.Is(err, ErrInvalidCutoff) {
			t.Fatalf("cutoffs %v: expected ErrInvalidCutoff, got %v", tc, err)
		}
	}
	after := f.Coefficients()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("rejected cutoff change modified coefficient %d", i)
		}
	}
}

func TestBandFilterAttenuatesBelowBand(t *testing.T) {
	const (
		sr = 48000.0
		n  = 1000
	)
	f, err := NewBandFilter(101, sr)
	if err != nil {
		t.Fatalf("NewBandFilter: %v", err)
	}
	if err := f.SetCutoffs(1000, 8000); err != nil {
		t.Fatalf("SetCutoffs: %v", err)
	}

	in := make([]float32, n)
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 440 * float64(i) / sr))
	}
	out := make([]float32, 0, n)
	for _, x := range in {
		out = append(out, f.ProcessSample(x))
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: in=%d out=%d", len(in), len(out))
	}
	inE, outE := energy(in), energy(out)
	if outE >= 0.1*inE {
		t.Fatalf("expected band filter to attenuate 440 Hz: in=%f out=%f", inE, outE)
	}
}

func TestBandFilterPassesInsideBand(t *testing.T) {
	const sr = 48000.0
	f, err := NewBandFilter(101, sr)
	if err != nil {
		t.Fatalf("NewBandFilter: %v", err)
	}
	if err := f.SetCutoffs(1000, 8000); err != nil {
		t.Fatalf("SetCutoffs: %v", err)
	}
	in := make([]float32, 4800)
	out := make([]float32, len(in))
	for i := range in {
		in[i] = float32(math.Sin(2 * math.Pi * 3000 * float64(i) / sr))
		out[i] = f.ProcessSample(in[i])
	}
	// Skip the filter warm-up.
	ratio := math.Sqrt(energy(out[200:]) / energy(in[200:]))
	if ratio < 0.9 || ratio > 1.1 {
		t.Fatalf("expected near-unity passband gain at 3 kHz, got %f", ratio)
	}
}

func TestBandFilterMatchesFFTConvolution(t *testing.T) {
	f, err := NewBandFilter(101, 48000)
	if err != nil {
		t.Fatalf("NewBandFilter: %v", err)
	}
	if err := f.SetCutoffs(300, 5000); err != nil {
		t.Fatalf("SetCutoffs: %v", err)
	}
	in := noise(512, 3)
	coeffs := f.Coefficients()

	want := make([]float32, len(in)+len(coeffs)-1)
	if err := algofft.ConvolveReal(want, in, coeffs); err != nil {
		t.Fatalf("ConvolveReal: %v", err)
	}
	for i, x := range in {
		y := f.ProcessSample(x)
		if d := math.Abs(float64(y - want[i])); d > 1e-4 {
			t.Fatalf("sample %d: fir=%f fft=%f", i, y, want[i])
		}
	}
}

func TestBandFilterMatchesOverlapAdd(t *testing.T) {
	const blockSize = 128
	f, err := NewBandFilter(63, 44100)
	if err != nil {
		t.Fatalf("NewBandFilter: %v", err)
	}
	if err := f.SetCutoffs(200, 12000); err != nil {
		t.Fatalf("SetCutoffs: %v", err)
	}
	coeffs := f.Coefficients()
	kernel := make([]float64, len(coeffs))
	for i, c := range coeffs {
		kernel[i] = float64(c)
	}
	ola, err := dspconv.NewOverlapAdd(kernel, blockSize)
	if err != nil {
		t.Fatalf("NewOverlapAdd: %v", err)
	}

	in := noise(blockSize*8, 11)
	in64 := make([]float64, len(in))
	for i, x := range in {
		in64[i] = float64(x)
	}
	want, err := ola.Process(in64)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	for i, x := range in {
		y := f.ProcessSample(x)
		if d := math.Abs(float64(y) - want[i]); d > 1e-4 {
			t.Fatalf("sample %d: fir=%f ola=%f", i, y, want[i])
		}
	}
}

func TestResetClearsHistory(t *testing.T) {
	f, err := NewBandFilter(15, 48000)
	if err != nil {
		t.Fatalf("NewBandFilter: %v", err)
	}
	_ = f.SetCutoffs(500, 4000)
	f.ProcessSample(1)
	f.ProcessSample(-0.5)
	f.Reset()
	for i := 0; i < 30; i++ {
		if y := f.ProcessSample(0); y != 0 {
			t.Fatalf("expected silence after reset, got %g at %d", y, i)
		}
	}
}

func TestProcessSampleDoesNotAllocate(t *testing.T) {
	f, err := NewBandFilter(101, 48000)
	if err != nil {
		t.Fatalf("NewBandFilter: %v", err)
	}
	x := float32(0.25)
	allocs := testing.AllocsPerRun(1000, func() {
		x = -x
		f.ProcessSample(x)
	})
	if allocs != 0 {
		t.Fatalf("ProcessSample allocated %.1f times per call", allocs)
	}
	allocs = testing.AllocsPerRun(50, func() {
		_ = f.SetCutoffs(800, 6000)
	})
	if allocs != 0 {
		t.Fatalf("SetCutoffs allocated %.1f times per call", allocs)
	}
}

func TestConfigureKeepsCutoffsAcrossSampleRates(t *testing.T) {
	f, err := NewBandFilter(101, 48000)
	if err != nil {
		t.Fatalf("NewBandFilter: %v", err)
	}
	_ = f.SetCutoffs(1000, 8000)
	if err := f.Configure(101, 44100); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	lo, hi := f.Cutoffs()
	if lo != 1000 || hi != 8000 {
		t.Fatalf("expected cutoffs preserved, got %f/%f", lo, hi)
	}

	// 8 kHz no longer fits under nyquist at 11025 Hz.
	if err := f.Configure(33, 11025); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if _, hi := f.Cutoffs(); hi >= 11025/2 {
		t.Fatalf("expected high cutoff re-clamped below nyquist, got %f", hi)
	}
	if f.Taps() != 33 {
		t.Fatalf("expected 33 taps, got %d", f.Taps())
	}
}

func energy(x []float32) float64 {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	return sum
}

func noise(n int, seed uint32) []float32 {
	out := make([]float32, n)
	s := seed*2654435761 + 1
	for i := range out {
		s ^= s << 13
		s ^= s >> 17
		s ^= s << 5
		out[i] = float32(s)/float32(math.MaxUint32)*2 - 1
	}
	return out
}
