package analysis

import "math"

// MinDBFS is the floor reported for silence, keeping levels finite for display and JSON.
const MinDBFS = -120.0

// RMS returns the root-mean-square level of a block.
func RMS(samples []float32) float64 {
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

// Peak returns the largest absolute sample value.
func Peak(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		v := math.Abs(float64(s))
		if v > peak {
			peak = v
		}
	}
	return peak
}

// DBFS converts a linear amplitude to dB full scale, floored at MinDBFS.
func DBFS(linear float64) float64 {
	if !(linear > 0) {
		return MinDBFS
	}
	db := 20 * math.Log10(linear)
	if db < MinDBFS {
		return MinDBFS
	}
	return db
}

// AllFinite reports whether no sample is NaN or ±Inf.
func AllFinite(samples []float32) bool {
	for _, s := range samples {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
