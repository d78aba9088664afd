package synth

import "fmt"

const (
	DefaultSampleRate    = 44100
	DefaultMinFrequency  = 200.0
	DefaultMaxFrequency  = 2000.0
	DefaultBufferSize    = 1024
	DefaultFrequency     = 440.0
	DefaultVibratoRate   = 5.0
	DefaultVibratoDepth  = 0.05
	DefaultDelaySeconds  = 0.2
	DefaultDelayFeedback = 0.4
	DefaultDelayMix      = 0.3
	DefaultOutputGain    = 0.3

	MaxVibratoDepth = 0.2

	frequencyHistorySize = 5
	volumeHistorySize    = 3
)

// Params holds construction-time synthesizer settings.
type Params struct {
	SampleRate   int
	MinFrequency float64
	MaxFrequency float64
	WaveType     WaveType
	BufferSize   int // samples per output chunk

	VibratoRate  float64 // Hz
	VibratoDepth float64 // fraction of the carrier frequency
	Harmonics    []float64

	ReverbEnabled bool
	DelaySeconds  float64
	DelayFeedback float64
	DelayMix      float64

	// OutputGain is applied last to leave headroom against clipping.
	OutputGain float64
}

// NewDefaultParams creates default parameters.
func NewDefaultParams() *Params {
	return &Params{
		SampleRate:    DefaultSampleRate,
		MinFrequency:  DefaultMinFrequency,
		MaxFrequency:  DefaultMaxFrequency,
		WaveType:      Sine,
		BufferSize:    DefaultBufferSize,
		VibratoRate:   DefaultVibratoRate,
		VibratoDepth:  DefaultVibratoDepth,
		Harmonics:     []float64{1.0, 0.5, 0.25, 0.125},
		ReverbEnabled: true,
		DelaySeconds:  DefaultDelaySeconds,
		DelayFeedback: DefaultDelayFeedback,
		DelayMix:      DefaultDelayMix,
		OutputGain:    DefaultOutputGain,
	}
}

// Validate rejects settings the synthesizer cannot be built with. Runtime
// effect values (vibrato depth, delay) are clamped later instead.
func (p *Params) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil params", ErrInvalidParams)
	}
	if p.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0, got %d", ErrInvalidParams, p.SampleRate)
	}
	if p.BufferSize <= 0 {
		return fmt.Errorf("%w: buffer size must be > 0, got %d", ErrInvalidParams, p.BufferSize)
	}
	if p.MinFrequency <= 0 || p.MaxFrequency <= p.MinFrequency {
		return fmt.Errorf("%w: frequency range must satisfy 0 < min < max, got [%g, %g]", ErrInvalidParams, p.MinFrequency, p.MaxFrequency)
	}
	if !p.WaveType.Valid() {
		return fmt.Errorf("%w: %w: %d", ErrInvalidParams, ErrUnknownWaveType, int(p.WaveType))
	}
	if p.VibratoRate < 0 {
		return fmt.Errorf("%w: vibrato rate must be >= 0, got %g", ErrInvalidParams, p.VibratoRate)
	}
	for i, a := range p.Harmonics {
		if a < 0 {
			return fmt.Errorf("%w: harmonics[%d] must be >= 0, got %g", ErrInvalidParams, i, a)
		}
	}
	if p.OutputGain < 0 {
		return fmt.Errorf("%w: output gain must be >= 0, got %g", ErrInvalidParams, p.OutputGain)
	}
	return nil
}

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	c := *p
	c.Harmonics = append([]float64(nil), p.Harmonics...)
	return &c
}
