// Package estimator smooths noisy normalized positions with a constant-velocity
// state estimator (a two-state, one-observation Kalman filter).
//
// The update equations are written out in closed form for the fixed 2×2 case,
// so no matrix inversion is ever performed.
package estimator

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

const (
	DefaultInitialPosition     = 0.5
	DefaultProcessVariance     = 0.0001
	DefaultMeasurementVariance = 0.001
)

// Config holds the noise model of an Estimator.
type Config struct {
	ProcessVariance     float64
	MeasurementVariance float64
}

// Option mutates a Config.
type Option func(*Config)

// WithProcessVariance sets how much the position is expected to change between frames.
func WithProcessVariance(v float64) Option {
	return func(cfg *Config) {
		if v >= 0 {
			cfg.ProcessVariance = v
		}
	}
}

// WithMeasurementVariance sets the expected measurement noise.
func WithMeasurementVariance(v float64) Option {
	return func(cfg *Config) {
		if v >= 0 {
			cfg.MeasurementVariance = v
		}
	}
}

// Estimator tracks [position, velocity] for one scalar axis.
type Estimator struct {
	pos, vel float64
	// error covariance, row-major
	p00, p01, p10, p11 float64
	q, r               float64
}

// New creates an estimator at the given initial position with zero velocity.
func New(initial float64, opts ...Option) *Estimator {
	cfg := Config{
		ProcessVariance:     DefaultProcessVariance,
		MeasurementVariance: DefaultMeasurementVariance,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	e := &Estimator{q: cfg.ProcessVariance, r: cfg.MeasurementVariance}
	e.Reset(initial)
	return e
}

// Reset restores the initial position, zero velocity and identity covariance.
func (e *Estimator) Reset(position float64) {
	e.pos = position
	e.vel = 0
	e.p00, e.p01, e.p10, e.p11 = 1, 0, 0, 1
}

// Predict advances the state by one frame: position += velocity, P = F P Fᵀ + Q.
func (e *Estimator) Predict() {
	e.pos += e.vel

	p00 := e.p00 + e.p01 + e.p10 + e.p11 + e.q
	p01 := e.p01 + e.p11
	p10 := e.p10 + e.p11
	p11 := e.p11 + e.q
	e.p00, e.p01, e.p10, e.p11 = p00, p01, p10, p11
}

// Update corrects the predicted state with a position measurement clamped to [0,1].
// It reports false and leaves the prediction untouched when the innovation
// variance is degenerate.
func (e *Estimator) Update(measurement float64) bool {
	z := dspcore.Clamp(measurement, 0, 1)

	s := e.p00 + e.r
	if !(s > 0) || math.IsInf(s, 0) {
		return false
	}
	k0 := e.p00 / s
	k1 := e.p10 / s

	innovation := z - e.pos
	e.pos += k0 * innovation
	e.vel += k1 * innovation

	p00 := (1 - k0) * e.p00
	p01 := (1 - k0) * e.p01
	p10 := e.p10 - k1*e.p00
	p11 := e.p11 - k1*e.p01
	e.p00, e.p01, e.p10, e.p11 = p00, p01, p10, p11
	return true
}

// Filter runs one predict/update cycle and returns the position clamped to [0,1].
func (e *Estimator) Filter(measurement float64) float64 {
	e.Predict()
	e.Update(measurement)
	return dspcore.Clamp(e.pos, 0, 1)
}

// State returns the unclamped internal position and velocity.
func (e *Estimator) State() (position, velocity float64) {
	return e.pos, e.vel
}

// SetState overwrites position and velocity, keeping the covariance.
func (e *Estimator) SetState(position, velocity float64) {
	e.pos = position
	e.vel = velocity
}

// Covariance returns the error covariance matrix in row-major order.
func (e *Estimator) Covariance() [4]float64 {
	return [4]float64{e.p00, e.p01, e.p10, e.p11}
}

// SetCovariance overwrites the error covariance matrix (row-major).
func (e *Estimator) SetCovariance(p [4]float64) {
	e.p00, e.p01, e.p10, e.p11 = p[0], p[1], p[2], p[3]
}
