// Package dsp holds the per-voice signal primitives: a windowed-sinc FIR band
// filter, an ADSR envelope and a phase-accumulating oscillator.
//
// Everything that runs per sample works on pre-allocated state and never
// allocates; allocation and validation happen in the configure/set calls.
package dsp

import "errors"

var (
	// ErrInvalidTapCount is returned when a filter is configured with fewer than 3 taps.
	ErrInvalidTapCount = errors.New("dsp: tap count must be >= 3")
	// ErrInvalidSampleRate is returned for non-positive sample rates.
	ErrInvalidSampleRate = errors.New("dsp: sample rate must be > 0")
	// ErrInvalidCutoff is returned for cutoffs outside (0, sampleRate/2).
	ErrInvalidCutoff = errors.New("dsp: cutoff must be inside (0, nyquist)")
)

// SilenceThreshold is the level below which a releasing envelope is considered finished.
const SilenceThreshold = 1e-4
