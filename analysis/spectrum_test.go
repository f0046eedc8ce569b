package analysis

import (
	"math"
	"testing"
)

func sine(sr int, freq float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / float64(sr))
	}
	return out
}

func TestAverageSpectrumPeak(t *testing.T) {
	s, err := AverageSpectrum(sine(48000, 1000, 48000), 48000, 4096)
	if err != nil {
		t.Fatalf("AverageSpectrum: %v", err)
	}
	if got := s.Peak(); math.Abs(got-1000) > 3 {
		t.Fatalf("peak: got %.2f Hz", got)
	}
	if c := s.Centroid(); math.Abs(c-1000) > 100 {
		t.Fatalf("centroid of a pure tone: got %.1f Hz", c)
	}
}

func TestAverageSpectrumRejectsBadSize(t *testing.T) {
	if _, err := AverageSpectrum(nil, 48000, 1000); err == nil {
		t.Fatalf("expected error for non power-of-two size")
	}
	if _, err := AverageSpectrum(nil, 0, 1024); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestBandEnergyLocatesTone(t *testing.T) {
	x := sine(48000, 2000, 32768)
	s, err := AverageSpectrum(x, 48000, 4096)
	if err != nil {
		t.Fatalf("AverageSpectrum: %v", err)
	}
	db := s.BandEnergyDB(DefaultBands)
	mid := -1
	for i, b := range DefaultBands {
		if b.Name == "mid" {
			mid = i
		}
	}
	if db[mid] != 0 {
		t.Fatalf("expected mid band to be loudest, got %v", db)
	}
	for i, v := range db {
		if i != mid && v > -40 {
			t.Fatalf("band %s only %.1f dB below the tone band", DefaultBands[i].Name, v)
		}
	}
}

func TestShortSignalIsZeroPadded(t *testing.T) {
	s, err := AverageSpectrum(sine(48000, 500, 1000), 48000, 2048)
	if err != nil {
		t.Fatalf("AverageSpectrum: %v", err)
	}
	if s.Peak() < 400 || s.Peak() > 600 {
		t.Fatalf("peak of padded frame: %.1f", s.Peak())
	}
}
