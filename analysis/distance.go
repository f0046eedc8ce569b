package analysis

import (
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

// Metrics contains distance and similarity measurements between a reference
// recording and a synth render.
type Metrics struct {
	SampleRate int `json:"sample_rate"`

	ReferenceFrames int `json:"reference_frames"`
	CandidateFrames int `json:"candidate_frames"`
	AlignedFrames   int `json:"aligned_frames"`
	LagSamples      int `json:"lag_samples"`

	TimeRMSE       float64 `json:"time_rmse"`
	EnvelopeRMSEDB float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB float64 `json:"spectral_rmse_db"`
	BandRMSEDB     float64 `json:"band_rmse_db"`
	CentroidDiffHz float64 `json:"centroid_diff_hz"`
	RefAttackMS    float64 `json:"ref_attack_ms"`
	CandAttackMS   float64 `json:"cand_attack_ms"`
	AttackDiffMS   float64 `json:"attack_diff_ms"`

	Score      float64 `json:"score"`
	Similarity float64 `json:"similarity"`
}

const (
	envFrame     = 256
	envHop       = 128
	spectrumSize = 4096
)

// Compare returns objective distance metrics and a combined score in [0,1],
// 0 meaning identical.
func Compare(reference []float64, candidate []float64, sampleRate int) Metrics {
	m := Metrics{
		SampleRate:      sampleRate,
		ReferenceFrames: len(reference),
		CandidateFrames: len(candidate),
		Score:           1,
	}
	if sampleRate <= 0 || len(reference) == 0 || len(candidate) == 0 {
		return m
	}

	ref := trimLeadingSilence(reference, 1e-6)
	cand := trimLeadingSilence(candidate, 1e-6)
	if len(ref) == 0 || len(cand) == 0 {
		return m
	}
	ref = normalizeRMS(ref, 0.1)
	cand = normalizeRMS(cand, 0.1)

	maxLag := sampleRate / 20
	maxLag = min(maxLag, len(ref)-1, len(cand)-1)
	maxLag = max(maxLag, 1)
	lag := estimateLag(ref, cand, maxLag)
	m.LagSamples = lag

	refA, candA := alignByLag(ref, cand, lag)
	n := min(len(refA), len(candA), sampleRate*12)
	if n < envFrame*2 {
		return m
	}
	refA = refA[:n]
	candA = candA[:n]
	m.AlignedFrames = n

	m.TimeRMSE = rmse(refA, candA)

	refEnv := rmsEnvelope(refA, envFrame, envHop)
	candEnv := rmsEnvelope(candA, envFrame, envHop)
	if envN := min(len(refEnv), len(candEnv)); envN > 0 {
		diff := make([]float64, envN)
		for i := range diff {
			diff[i] = linToDB(refEnv[i]) - linToDB(candEnv[i])
		}
		m.EnvelopeRMSEDB = rms1(diff)
	}
	hopMS := 1000 * float64(envHop) / float64(sampleRate)
	m.RefAttackMS = attackTime(refEnv) * hopMS
	m.CandAttackMS = attackTime(candEnv) * hopMS
	m.AttackDiffMS = math.Abs(m.RefAttackMS - m.CandAttackMS)

	size := spectrumSize
	for size > n && size > 512 {
		size /= 2
	}
	refSpec, errR := AverageSpectrum(refA, sampleRate, size)
	candSpec, errC := AverageSpectrum(candA, sampleRate, size)
	if errR == nil && errC == nil {
		m.SpectralRMSEDB = spectralRMSEDB(refSpec, candSpec)
		m.BandRMSEDB = bandRMSEDB(refSpec, candSpec)
		m.CentroidDiffHz = math.Abs(refSpec.Centroid() - candSpec.Centroid())
	}

	timeNorm := clamp01(m.TimeRMSE / 0.25)
	envNorm := clamp01(m.EnvelopeRMSEDB / 30.0)
	specNorm := clamp01(m.SpectralRMSEDB / 30.0)
	bandNorm := clamp01(m.BandRMSEDB / 30.0)
	attNorm := clamp01(m.AttackDiffMS / 500.0)
	m.Score = clamp01(0.15*timeNorm + 0.25*envNorm + 0.25*specNorm + 0.20*bandNorm + 0.15*attNorm)
	m.Similarity = clamp01(math.Exp(-4.0 * m.Score))
	return m
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i := 0; i < len(x); i++ {
		if math.Abs(x[i]) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	if len(x) == 0 {
		return x
	}
	r := rms1(x)
	if r <= 1e-12 {
		return append([]float64(nil), x...)
	}
	g := target / r
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] * g
	}
	return out
}

// estimateLag returns the shift in [-maxLag, maxLag] maximising
// sum ref[i+lag]*cand[i]. The correlation is computed with one FFT size
// covering both signals; the inverse transform reuses the forward plan via
// conjugation.
func estimateLag(ref []float64, cand []float64, maxLag int) int {
	if len(ref) == 0 || len(cand) == 0 {
		return 0
	}
	n := 1
	for n < len(ref)+len(cand) {
		n <<= 1
	}
	plan, err := algofft.NewPlan64(n)
	if err != nil {
		return estimateLagExhaustive(ref, cand, maxLag)
	}

	a := make([]complex128, n)
	b := make([]complex128, n)
	for i, v := range ref {
		a[i] = complex(v, 0)
	}
	for i, v := range cand {
		b[i] = complex(v, 0)
	}
	fa := make([]complex128, n)
	fb := make([]complex128, n)
	if plan.Forward(fa, a) != nil || plan.Forward(fb, b) != nil {
		return estimateLagExhaustive(ref, cand, maxLag)
	}
	for k := range fa {
		// conj(A*conj(B)) for the conjugation trick below.
		p := fa[k] * complex(real(fb[k]), -imag(fb[k]))
		a[k] = complex(real(p), -imag(p))
	}
	if plan.Forward(b, a) != nil {
		return estimateLagExhaustive(ref, cand, maxLag)
	}

	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		idx := lag
		if idx < 0 {
			idx += n
		}
		if s := real(b[idx]); s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func estimateLagExhaustive(ref []float64, cand []float64, maxLag int) int {
	bestLag := 0
	best := math.Inf(-1)
	for lag := -maxLag; lag <= maxLag; lag++ {
		if s := dotAtLag(ref, cand, lag); s > best {
			best = s
			bestLag = lag
		}
	}
	return bestLag
}

func dotAtLag(a []float64, b []float64, lag int) float64 {
	ai, bi := 0, 0
	if lag >= 0 {
		ai = lag
	} else {
		bi = -lag
	}
	n := min(len(a)-ai, len(b)-bi)
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[ai+i] * b[bi+i]
	}
	return sum
}

func alignByLag(ref []float64, cand []float64, lag int) ([]float64, []float64) {
	if lag >= 0 {
		if lag >= len(ref) {
			return nil, nil
		}
		return ref[lag:], cand
	}
	o := -lag
	if o >= len(cand) {
		return nil, nil
	}
	return ref, cand[o:]
}

func rmse(a []float64, b []float64) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64, frame int, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = rms1(x[start : start+frame])
	}
	return out
}

// attackTime returns the envelope index where the level first reaches 90%
// of its peak.
func attackTime(env []float64) float64 {
	peak := 0.0
	for _, v := range env {
		peak = math.Max(peak, v)
	}
	if peak == 0 {
		return 0
	}
	for i, v := range env {
		if v >= 0.9*peak {
			return float64(i)
		}
	}
	return 0
}

// spectralRMSEDB compares log magnitudes over the bins within 60 dB of the
// reference peak.
func spectralRMSEDB(a, b *Spectrum) float64 {
	n := min(len(a.Mag), len(b.Mag))
	peak := 0.0
	for k := 1; k < n; k++ {
		peak = math.Max(peak, a.Mag[k])
	}
	floor := linToDB(peak) - 60
	var sum float64
	count := 0
	for k := 1; k < n; k++ {
		da := linToDB(a.Mag[k])
		if da < floor {
			continue
		}
		d := da - linToDB(b.Mag[k])
		sum += d * d
		count++
	}
	if count == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(count))
}

func bandRMSEDB(a, b *Spectrum) float64 {
	ea := a.BandEnergyDB(DefaultBands)
	eb := b.BandEnergyDB(DefaultBands)
	diff := make([]float64, len(ea))
	for i := range ea {
		diff[i] = math.Max(ea[i], -80) - math.Max(eb[i], -80)
	}
	return rms1(diff)
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
