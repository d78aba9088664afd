package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	algofft "github.com/cwbudde/algo-fft"
)

// ErrTooShort reports signals with too little overlapping audio to compare.
var ErrTooShort = errors.New("signals too short to compare")

const (
	minCompareSamples = 512
	envelopeFrame     = 256
	envelopeHop       = 128
	spectrumSize      = 4096
	pitchSize         = 8192
	maxCompareSeconds = 12
)

// Comparison holds distance measurements between a reference take and a
// candidate rendering of the same hand-frame script.
type Comparison struct {
	SampleRate int `json:"sample_rate"`

	ReferenceSamples int `json:"reference_samples"`
	CandidateSamples int `json:"candidate_samples"`
	AlignedSamples   int `json:"aligned_samples"`
	LagSamples       int `json:"lag_samples"` // > 0 when the candidate starts late

	TimeRMSE        float64 `json:"time_rmse"`
	EnvelopeRMSEDB  float64 `json:"envelope_rmse_db"`
	SpectralRMSEDB  float64 `json:"spectral_rmse_db"`
	PitchErrorCents float64 `json:"pitch_error_cents"`

	Score      float64 `json:"score"`      // 0 = identical, 1 = unrelated
	Similarity float64 `json:"similarity"` // exp(-4·score)
}

// CompareTakes aligns candidate to reference and measures how far apart they are.
func CompareTakes(reference, candidate []float64, sampleRate int) (Comparison, error) {
	c := Comparison{
		SampleRate:       sampleRate,
		ReferenceSamples: len(reference),
		CandidateSamples: len(candidate),
	}
	if sampleRate <= 0 {
		return c, fmt.Errorf("sample rate must be > 0, got %d", sampleRate)
	}

	ref := normalizeRMS(trimLeadingSilence(reference, 1e-6), 0.1)
	cand := normalizeRMS(trimLeadingSilence(candidate, 1e-6), 0.1)
	if len(ref) < minCompareSamples || len(cand) < minCompareSamples {
		return c, ErrTooShort
	}
	limit := sampleRate * maxCompareSeconds
	if len(ref) > limit {
		ref = ref[:limit]
	}
	if len(cand) > limit {
		cand = cand[:limit]
	}

	maxLag := min(sampleRate/2, len(ref)-1, len(cand)-1)
	lag, err := estimateLag(ref, cand, maxLag)
	if err != nil {
		return c, err
	}
	c.LagSamples = lag
	if lag > 0 {
		cand = cand[lag:]
	} else {
		ref = ref[-lag:]
	}
	n := min(len(ref), len(cand))
	if n < minCompareSamples {
		return c, ErrTooShort
	}
	ref, cand = ref[:n], cand[:n]
	c.AlignedSamples = n

	c.TimeRMSE = rmse(ref, cand)
	c.EnvelopeRMSEDB = envelopeDistanceDB(ref, cand)
	if c.SpectralRMSEDB, err = spectralDistanceDB(ref, cand); err != nil {
		return c, err
	}

	w := min(n, pitchSize)
	fr := DominantFrequency(ref[:w], sampleRate)
	fc := DominantFrequency(cand[:w], sampleRate)
	if fr > 0 && fc > 0 {
		c.PitchErrorCents = 1200 * math.Log2(fc/fr)
	}

	timeNorm := dspcore.Clamp(c.TimeRMSE/0.25, 0, 1)
	envNorm := dspcore.Clamp(c.EnvelopeRMSEDB/30, 0, 1)
	specNorm := dspcore.Clamp(c.SpectralRMSEDB/30, 0, 1)
	pitchNorm := dspcore.Clamp(math.Abs(c.PitchErrorCents)/100, 0, 1)
	c.Score = dspcore.Clamp(0.25*timeNorm + 0.2*envNorm + 0.25*specNorm + 0.3*pitchNorm, 0, 1)
	c.Similarity = math.Exp(-4 * c.Score)
	return c, nil
}

func trimLeadingSilence(x []float64, threshold float64) []float64 {
	for i, v := range x {
		if math.Abs(v) > threshold {
			return x[i:]
		}
	}
	return nil
}

func normalizeRMS(x []float64, target float64) []float64 {
	out := make([]float64, len(x))
	r := rms64(x)
	if r <= 1e-12 {
		copy(out, x)
		return out
	}
	g := target / r
	for i, v := range x {
		out[i] = v * g
	}
	return out
}

// estimateLag finds the shift d in [-maxLag, maxLag] maximizing
// Σ ref[i]·cand[i+d], computed as a full FFT convolution of ref with the
// reversed candidate.
func estimateLag(ref, cand []float64, maxLag int) (int, error) {
	a := make([]float32, len(ref))
	for i, v := range ref {
		a[i] = float32(v)
	}
	b := make([]float32, len(cand))
	for i, v := range cand {
		b[len(cand)-1-i] = float32(v)
	}
	corr := make([]float32, len(a)+len(b)-1)
	if err := algofft.ConvolveReal(corr, a, b); err != nil {
		return 0, fmt.Errorf("cross-correlation: %w", err)
	}

	// corr[k] = Σ ref[i]·cand[i+d] with d = len(cand)-1-k.
	best, bestLag := float32(math.Inf(-1)), 0
	for d := -maxLag; d <= maxLag; d++ {
		k := len(cand) - 1 - d
		if k < 0 || k >= len(corr) {
			continue
		}
		if corr[k] > best {
			best, bestLag = corr[k], d
		}
	}
	return bestLag, nil
}

func rmse(a, b []float64) float64 {
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

func rms64(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func rmsEnvelope(x []float64) []float64 {
	if len(x) < envelopeFrame {
		return nil
	}
	out := make([]float64, 1+(len(x)-envelopeFrame)/envelopeHop)
	for i := range out {
		start := i * envelopeHop
		out[i] = rms64(x[start : start+envelopeFrame])
	}
	return out
}

func envelopeDistanceDB(a, b []float64) float64 {
	ea, eb := rmsEnvelope(a), rmsEnvelope(b)
	n := min(len(ea), len(eb))
	if n == 0 {
		return 0
	}
	diff := make([]float64, n)
	for i := range diff {
		diff[i] = linToDB(ea[i]) - linToDB(eb[i])
	}
	return rms64(diff)
}

// spectralDistanceDB is the RMS dB difference of Hann-windowed magnitude
// spectra over the first spectrumSize aligned samples.
func spectralDistanceDB(a, b []float64) (float64, error) {
	n := spectrumSize
	if len(a) < n || len(b) < n {
		n = minCompareSamples
	}
	plan, err := algofft.NewPlanReal64(n)
	if err != nil {
		return 0, fmt.Errorf("fft plan: %w", err)
	}

	aw := make([]float64, n)
	bw := make([]float64, n)
	for i := 0; i < n; i++ {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		aw[i] = a[i] * w
		bw[i] = b[i] * w
	}
	sa := make([]complex128, n/2+1)
	sb := make([]complex128, n/2+1)
	plan.Forward(sa, aw)
	plan.Forward(sb, bw)

	var sum float64
	bins := n / 2
	for k := 1; k < bins; k++ {
		d := linToDB(cmplx.Abs(sa[k])) - linToDB(cmplx.Abs(sb[k]))
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1)), nil
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20 * math.Log10(x)
}
