package dsp

import (
	"fmt"
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

// DesignLowpass fills dst with a Hamming-windowed ideal-sinc lowpass response
// for cutoffHz at sampleRate. len(dst) is the tap count.
func DesignLowpass(dst []float32, cutoffHz float64, sampleRate float64) error {
	taps := len(dst)
	if taps < 3 {
		return ErrInvalidTapCount
	}
	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	if !(cutoffHz > 0 && cutoffHz < 0.5*sampleRate) {
		return fmt.Errorf("%w: %g Hz at %g Hz", ErrInvalidCutoff, cutoffHz, sampleRate)
	}

	fc := cutoffHz / sampleRate
	m := float64(taps - 1)
	for n := 0; n < taps; n++ {
		// Half-integer offsets for even tap counts keep the response symmetric.
		k := float64(n) - 0.5*m
		ideal := 2.0 * fc
		if k != 0 {
			ideal = math.Sin(2.0*math.Pi*fc*k) / (math.Pi * k)
		}
		w := 0.54 - 0.46*math.Cos(2.0*math.Pi*float64(n)/m)
		dst[n] = float32(ideal * w)
	}
	return nil
}

// BandFilter is a direct-form FIR whose taps are the difference of two
// lowpass designs (high cutoff minus low cutoff), giving a band response.
type BandFilter struct {
	sampleRate float64
	cutoffLow  float64
	cutoffHigh float64

	coeffs  []float32
	history []float32
	cursor  int

	// Design scratch so SetCutoffs does not allocate.
	lowTaps  []float32
	highTaps []float32
}

// NewBandFilter creates a configured filter with its cutoffs at the band edges
// of the audible range clipped to nyquist.
func NewBandFilter(taps int, sampleRate float64) (*BandFilter, error) {
	f := &BandFilter{}
	if err := f.Configure(taps, sampleRate); err != nil {
		return nil, err
	}
	return f, nil
}

// Configure (re)allocates coefficient and history buffers. The previous
// cutoffs are re-applied when they still fit below the new nyquist.
func (f *BandFilter) Configure(taps int, sampleRate float64) error {
	if taps < 3 {
		return fmt.Errorf("%w: got %d", ErrInvalidTapCount, taps)
	}
	if sampleRate <= 0 {
		return ErrInvalidSampleRate
	}
	f.sampleRate = sampleRate
	f.coeffs = make([]float32, taps)
	f.history = make([]float32, taps)
	f.lowTaps = make([]float32, taps)
	f.highTaps = make([]float32, taps)
	f.cursor = 0

	low, high := f.cutoffLow, f.cutoffHigh
	nyq := 0.5 * sampleRate
	if !(low > 0 && low < nyq) {
		low = math.Min(20, 0.25*nyq)
	}
	if !(high > 0 && high < nyq) {
		high = math.Min(20000, 0.9*nyq)
	}
	return f.SetCutoffs(low, high)
}

// SetCutoffs recomputes the band coefficients. It is meant for note-on or
// parameter-change granularity, never per sample. It does not allocate.
func (f *BandFilter) SetCutoffs(lowHz, highHz float64) error {
	if len(f.coeffs) == 0 {
		return ErrInvalidTapCount
	}
	if err := DesignLowpass(f.lowTaps, lowHz, f.sampleRate); err != nil {
		return err
	}
	if err := DesignLowpass(f.highTaps, highHz, f.sampleRate); err != nil {
		return err
	}
	for n := range f.coeffs {
		f.coeffs[n] = f.highTaps[n] - f.lowTaps[n]
	}
	f.cutoffLow = lowHz
	f.cutoffHigh = highHz
	return nil
}

// ProcessSample pushes x into the history and returns the filtered sample.
func (f *BandFilter) ProcessSample(x float32) float32 {
	taps := len(f.coeffs)
	f.history[f.cursor] = x

	// Walk the history backwards from the newest sample in two straight runs
	// instead of wrapping the index every tap.
	var y float32
	i := 0
	for j := f.cursor; j >= 0; j-- {
		y += f.coeffs[i] * f.history[j]
		i++
	}
	for j := taps - 1; i < taps; j-- {
		y += f.coeffs[i] * f.history[j]
		i++
	}

	f.cursor++
	if f.cursor == taps {
		f.cursor = 0
	}
	return float32(dspcore.FlushDenormals(float64(y)))
}

// Reset clears the sample history.
func (f *BandFilter) Reset() {
	for i := range f.history {
		f.history[i] = 0
	}
	f.cursor = 0
}

// Taps returns the tap count.
func (f *BandFilter) Taps() int { return len(f.coeffs) }

// Cutoffs returns the current low and high cutoff in Hz.
func (f *BandFilter) Cutoffs() (float64, float64) { return f.cutoffLow, f.cutoffHigh }

// Coefficients returns a copy of the band coefficients.
func (f *BandFilter) Coefficients() []float32 {
	out := make([]float32, len(f.coeffs))
	copy(out, f.coeffs)
	return out
}
