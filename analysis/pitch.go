package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// DominantFrequency returns the frequency of the strongest spectral peak above DC,
// refined by parabolic interpolation of neighbouring bin magnitudes.
func DominantFrequency(samples []float64, sampleRate int) float64 {
	n := len(samples)
	if n < 4 || sampleRate <= 0 {
		return 0
	}
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, samples)

	best := 1
	bestMag := 0.0
	for k := 1; k < len(coeffs); k++ {
		if mag := cmplx.Abs(coeffs[k]); mag > bestMag {
			bestMag = mag
			best = k
		}
	}
	if bestMag == 0 {
		return 0
	}

	bin := float64(best)
	if best > 1 && best < len(coeffs)-1 {
		a := cmplx.Abs(coeffs[best-1])
		b := bestMag
		c := cmplx.Abs(coeffs[best+1])
		if den := a - 2*b + c; den != 0 {
			bin += 0.5 * (a - c) / den
		}
	}
	return bin * float64(sampleRate) / float64(n)
}

// HarmonicMagnitude returns the normalized spectral magnitude nearest to freqHz.
func HarmonicMagnitude(samples []float64, sampleRate int, freqHz float64) float64 {
	n := len(samples)
	if n == 0 || sampleRate <= 0 {
		return 0
	}
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, samples)
	k := int(math.Round(freqHz * float64(n) / float64(sampleRate)))
	if k < 0 || k >= len(coeffs) {
		return 0
	}
	return 2 * cmplx.Abs(coeffs[k]) / float64(n)
}

// ZeroCrossingFrequency estimates the fundamental from the zero-crossing rate,
// skipping the first tenth of the block.
func ZeroCrossingFrequency(samples []float32, sampleRate int) float64 {
	startIdx := len(samples) / 10
	crossings := 0
	for i := startIdx + 1; i < len(samples); i++ {
		if (samples[i-1] < 0 && samples[i] >= 0) || (samples[i-1] >= 0 && samples[i] < 0) {
			crossings++
		}
	}
	if crossings == 0 || sampleRate <= 0 {
		return 0
	}
	duration := float64(len(samples)-startIdx) / float64(sampleRate)
	return float64(crossings) / (2.0 * duration)
}
