package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Band is a frequency range in Hz, [LowHz, HighHz).
type Band struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// DefaultBands splits the audible range the way the fitting tools report it.
var DefaultBands = []Band{
	{"sub", 20, 100},
	{"bass", 100, 300},
	{"low-mid", 300, 1000},
	{"mid", 1000, 3000},
	{"hi-mid", 3000, 6000},
	{"high", 6000, 12000},
	{"air", 12000, 20000},
}

// Spectrum is the averaged magnitude spectrum of a signal.
type Spectrum struct {
	SampleRate int
	FFTSize    int
	Mag        []float64 // bins 0..FFTSize/2
}

// BinHz returns the bin spacing.
func (s *Spectrum) BinHz() float64 { return float64(s.SampleRate) / float64(s.FFTSize) }

// AverageSpectrum averages Hann-windowed real FFT magnitudes over frames of
// fftSize with 50% overlap. A signal shorter than one frame is zero padded.
func AverageSpectrum(x []float64, sampleRate int, fftSize int) (*Spectrum, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	if fftSize < 16 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("fft size must be a power of two >= 16, got %d", fftSize)
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("fft plan: %w", err)
	}

	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
	}
	buf := make([]float64, fftSize)
	spec := make([]complex128, fftSize/2+1)
	out := &Spectrum{SampleRate: sampleRate, FFTSize: fftSize, Mag: make([]float64, fftSize/2+1)}

	hop := fftSize / 2
	frames := 0
	for pos := 0; pos == 0 || pos+fftSize <= len(x); pos += hop {
		for i := range buf {
			v := 0.0
			if pos+i < len(x) {
				v = x[pos+i]
			}
			buf[i] = v * hann[i]
		}
		plan.Forward(spec, buf)
		for k := range spec {
			out.Mag[k] += cmplx.Abs(spec[k])
		}
		frames++
	}
	for k := range out.Mag {
		out.Mag[k] /= float64(frames)
	}
	return out, nil
}

// BandEnergy returns the summed squared magnitude inside each band.
func (s *Spectrum) BandEnergy(bands []Band) []float64 {
	out := make([]float64, len(bands))
	binHz := s.BinHz()
	for i, b := range bands {
		lo := int(math.Ceil(b.LowHz / binHz))
		hi := int(math.Ceil(b.HighHz / binHz))
		if lo < 1 {
			lo = 1
		}
		if hi > len(s.Mag) {
			hi = len(s.Mag)
		}
		for k := lo; k < hi; k++ {
			out[i] += s.Mag[k] * s.Mag[k]
		}
	}
	return out
}

// BandEnergyDB is BandEnergy in dB relative to the loudest band.
func (s *Spectrum) BandEnergyDB(bands []Band) []float64 {
	e := s.BandEnergy(bands)
	peak := 0.0
	for _, v := range e {
		peak = math.Max(peak, v)
	}
	out := make([]float64, len(e))
	for i, v := range e {
		if peak <= 0 {
			out[i] = -240
			continue
		}
		out[i] = 10 * math.Log10(math.Max(v/peak, 1e-24))
	}
	return out
}

// Centroid returns the magnitude-weighted mean frequency.
func (s *Spectrum) Centroid() float64 {
	binHz := s.BinHz()
	var num, den float64
	for k := 1; k < len(s.Mag); k++ {
		num += float64(k) * binHz * s.Mag[k]
		den += s.Mag[k]
	}
	if den == 0 {
		return 0
	}
	return num / den
}

// Peak returns the frequency of the strongest bin with parabolic refinement.
func (s *Spectrum) Peak() float64 {
	best := 1
	for k := 2; k < len(s.Mag)-1; k++ {
		if s.Mag[k] > s.Mag[best] {
			best = k
		}
	}
	shift := 0.0
	if best > 0 && best < len(s.Mag)-1 {
		a, b, c := s.Mag[best-1], s.Mag[best], s.Mag[best+1]
		if den := a - 2*b + c; den != 0 {
			shift = 0.5 * (a - c) / den
		}
	}
	return (float64(best) + shift) * s.BinHz()
}
