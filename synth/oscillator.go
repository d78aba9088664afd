package synth

import "math"

const twoPi = 2 * math.Pi

// Oscillator is a phase-accumulating carrier with an LFO for vibrato.
//
// Both phases are advanced sample by sample and kept in [0, 2π), so the state
// carried from one call to the next is exactly the running value: generating
// M samples in one call or in several smaller calls yields identical phases.
type Oscillator struct {
	sampleRate float64

	VibratoRate  float64
	VibratoDepth float64
	Wave         WaveType

	harmonics    []float64
	harmonicsSum float64

	carrierPhase float64
	lfoPhase     float64
}

// NewOscillator creates a sine oscillator with the default harmonic series and vibrato.
func NewOscillator(sampleRate float64) *Oscillator {
	o := &Oscillator{
		sampleRate:   sampleRate,
		VibratoRate:  DefaultVibratoRate,
		VibratoDepth: DefaultVibratoDepth,
		Wave:         Sine,
	}
	o.SetHarmonics([]float64{1.0, 0.5, 0.25, 0.125})
	return o
}

// SetHarmonics sets the additive amplitudes of harmonics 1..n used by Sine.
func (o *Oscillator) SetHarmonics(amps []float64) {
	o.harmonics = append(o.harmonics[:0], amps...)
	o.harmonicsSum = 0
	for _, a := range o.harmonics {
		o.harmonicsSum += a
	}
}

// Harmonics returns a copy of the harmonic amplitudes.
func (o *Oscillator) Harmonics() []float64 {
	return append([]float64(nil), o.harmonics...)
}

// Phases returns the carrier and LFO phase accumulators.
func (o *Oscillator) Phases() (carrier, lfo float64) {
	return o.carrierPhase, o.lfoPhase
}

// ResetPhase zeroes both accumulators.
func (o *Oscillator) ResetPhase() {
	o.carrierPhase = 0
	o.lfoPhase = 0
}

func wrapPhase(p float64) float64 {
	if p >= twoPi {
		p -= twoPi
		if p >= twoPi {
			p = math.Mod(p, twoPi)
		}
	} else if p < 0 {
		p = math.Mod(p, twoPi) + twoPi
		if p >= twoPi {
			p = 0
		}
	}
	return p
}

// Generate fills dst with len(dst) samples at frequencyHz. It does not allocate.
func (o *Oscillator) Generate(dst []float64, frequencyHz float64) {
	lfoInc := twoPi * o.VibratoRate / o.sampleRate
	carrierScale := twoPi * frequencyHz / o.sampleRate
	depth := o.VibratoDepth

	lfo := o.lfoPhase
	phase := o.carrierPhase
	for i := range dst {
		lfo = wrapPhase(lfo + lfoInc)
		inc := carrierScale * (1 + depth*math.Sin(lfo))
		phase = wrapPhase(phase + inc)
		dst[i] = o.shape(phase)
	}
	o.lfoPhase = lfo
	o.carrierPhase = phase
}

// GenerateWave returns n new samples at frequencyHz.
func (o *Oscillator) GenerateWave(frequencyHz float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	o.Generate(out, frequencyHz)
	return out
}

// shape evaluates the selected waveform at phase; every shape stays in [-1, 1].
func (o *Oscillator) shape(phase float64) float64 {
	switch o.Wave {
	case Square:
		s := math.Sin(phase)
		switch {
		case s > 0:
			return 1
		case s < 0:
			return -1
		}
		return 0
	case Saw:
		return sawAt(phase)
	case Triangle:
		return 2*math.Abs(sawAt(phase)) - 1
	default:
		if o.harmonicsSum <= 0 {
			return math.Sin(phase)
		}
		var sum float64
		for k, amp := range o.harmonics {
			if amp == 0 {
				continue
			}
			sum += amp * math.Sin(float64(k+1)*phase)
		}
		return sum / o.harmonicsSum
	}
}

// sawAt is a linear ramp in [-1, 1) over one cycle, centred on phase 0.
func sawAt(phase float64) float64 {
	x := phase / twoPi
	return 2 * (x - math.Floor(x+0.5))
}
