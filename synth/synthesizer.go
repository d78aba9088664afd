package synth

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-theremin/analysis"
	"github.com/cwbudde/algo-theremin/dsp"
	"github.com/cwbudde/algo-theremin/output"
)

// Synthesizer maps hand positions to a continuous tone and renders it on demand
// for an output stream.
//
// Two contexts use it concurrently: a control side calling UpdatePosition,
// UpdateParameters and Info at frame rate, and the stream calling Process once
// per chunk. Shared state sits behind mu, which is only ever held for bounded
// work (scalar copies, history updates, one delay pass over a chunk).
type Synthesizer struct {
	params  *Params
	device  output.Device
	logger  *slog.Logger
	logMin  float64
	logMax  float64
	outGain float32

	mu            sync.Mutex
	frequency     float64
	volume        float64
	vibratoDepth  float64
	waveType      WaveType
	reverbEnabled bool
	freqHistory   *History
	volHistory    *History
	delay         *dsp.FeedbackDelay

	// owned by the Process path
	osc     *Oscillator
	scratch []float64

	ctl     sync.Mutex // serializes Start/Stop/Cleanup
	stream  output.Stream
	cleaned bool
	running atomic.Bool
	level   atomic.Uint64 // math.Float64bits of the last chunk's peak in dBFS
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Synthesizer) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a stopped synthesizer. A nil params uses NewDefaultParams. device
// may be nil when the caller drives Process directly; Start then fails.
func New(params *Params, device output.Device, opts ...Option) (*Synthesizer, error) {
	if params == nil {
		params = NewDefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	p := params.Clone()

	s := &Synthesizer{
		params:        p,
		device:        device,
		logger:        slog.New(slog.DiscardHandler),
		logMin:        math.Log(p.MinFrequency),
		logMax:        math.Log(p.MaxFrequency),
		outGain:       float32(p.OutputGain),
		frequency:     DefaultFrequency,
		vibratoDepth:  dspcore.Clamp(p.VibratoDepth, 0, MaxVibratoDepth),
		waveType:      p.WaveType,
		reverbEnabled: p.ReverbEnabled,
		freqHistory:   NewHistory(frequencyHistorySize),
		volHistory:    NewHistory(volumeHistorySize),
		delay:         dsp.NewFeedbackDelay(p.SampleRate, p.DelaySeconds, p.DelayFeedback, p.DelayMix),
		osc:           NewOscillator(float64(p.SampleRate)),
		scratch:       make([]float64, p.BufferSize),
	}
	s.delay.Reserve(p.BufferSize)
	s.osc.VibratoRate = p.VibratoRate
	s.osc.SetHarmonics(p.Harmonics)
	s.level.Store(math.Float64bits(analysis.MinDBFS))
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Params returns a copy of the construction-time parameters.
func (s *Synthesizer) Params() *Params {
	return s.params.Clone()
}

// Start opens the output stream. It is a no-op while running. On failure the
// synthesizer stays stopped, the returned error wraps ErrStreamOpen, and Start
// may be retried.
func (s *Synthesizer) Start() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	if s.running.Load() {
		return nil
	}
	if s.device == nil {
		return fmt.Errorf("%w: %w", ErrStreamOpen, output.ErrUnavailable)
	}
	stream, err := s.device.Open(s, output.StreamConfig{
		SampleRate: s.params.SampleRate,
		ChunkSize:  s.params.BufferSize,
	})
	if err != nil {
		s.logger.Error("audio stream open failed", slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrStreamOpen, err)
	}
	s.stream = stream
	s.running.Store(true)
	s.logger.Info("synthesizer started",
		slog.Int("sample_rate", s.params.SampleRate),
		slog.Int("buffer_size", s.params.BufferSize),
		slog.String("wave", s.WaveType().String()))
	return nil
}

// Stop halts the stream. It is safe to call when already stopped.
func (s *Synthesizer) Stop() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()
	return s.stopLocked()
}

func (s *Synthesizer) stopLocked() error {
	s.running.Store(false)
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream = nil
	if err != nil {
		s.logger.Warn("audio stream close failed", slog.Any("error", err))
		return fmt.Errorf("close audio stream: %w", err)
	}
	s.logger.Info("synthesizer stopped")
	return nil
}

// Cleanup stops the stream and releases the output device. It is idempotent.
func (s *Synthesizer) Cleanup() error {
	s.ctl.Lock()
	defer s.ctl.Unlock()

	stopErr := s.stopLocked()
	if s.cleaned {
		return stopErr
	}
	s.cleaned = true
	if s.device != nil {
		if err := s.device.Close(); err != nil {
			return fmt.Errorf("close audio device: %w", err)
		}
	}
	return stopErr
}

// Running reports whether the output stream is open.
func (s *Synthesizer) Running() bool {
	return s.running.Load()
}

func (s *Synthesizer) mapFrequency(normalized float64) float64 {
	return math.Exp(s.logMin + normalized*(s.logMax-s.logMin))
}

func mapVolume(x float64) float64 {
	return math.Pow(dspcore.Clamp(x, 0, 1), 1.5)
}

// UpdatePosition applies one frame of hand positions. rightY (0 = top) sets the
// pitch on a logarithmic scale and leftX sets the volume. A missing rightY
// keeps the current pitch; a missing leftX silences the output and clears the
// volume history. NaN or infinite coordinates count as missing.
func (s *Synthesizer) UpdatePosition(rightY, leftX *float64) {
	if rightY != nil && !isFinite(*rightY) {
		rightY = nil
	}
	if leftX != nil && !isFinite(*leftX) {
		leftX = nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rightY != nil {
		s.freqHistory.Push(s.mapFrequency(1 - *rightY))
		s.frequency = s.freqHistory.Mean()
	}
	if leftX != nil {
		s.volHistory.Push(mapVolume(*leftX))
		s.volume = s.volHistory.Mean()
	} else {
		s.volume = 0
		s.volHistory.Clear()
	}
}

// ParameterUpdate carries optional effect changes; nil fields are left as they are.
type ParameterUpdate struct {
	VibratoDepth  *float64 `json:"vibrato_depth,omitempty"`
	DelaySeconds  *float64 `json:"delay_seconds,omitempty"`
	DelayFeedback *float64 `json:"delay_feedback,omitempty"`
	DelayMix      *float64 `json:"delay_mix,omitempty"`
	ReverbEnabled *bool    `json:"reverb_enabled,omitempty"`
}

// UpdateParameters applies effect changes, clamping out-of-range values. The
// delay buffer is only reallocated when the delay time moves by more than
// dsp.ResizeThreshold.
func (s *Synthesizer) UpdateParameters(u ParameterUpdate) {
	resized := false
	var seconds float64
	var samples int

	s.mu.Lock()
	if u.VibratoDepth != nil {
		s.vibratoDepth = dspcore.Clamp(*u.VibratoDepth, 0, MaxVibratoDepth)
	}
	if u.DelaySeconds != nil && s.delay.SetDelay(*u.DelaySeconds) {
		resized = true
		seconds, samples = s.delay.Seconds(), s.delay.Len()
	}
	if u.DelayFeedback != nil {
		s.delay.SetFeedback(*u.DelayFeedback)
	}
	if u.DelayMix != nil {
		s.delay.SetMix(*u.DelayMix)
	}
	if u.ReverbEnabled != nil {
		s.reverbEnabled = *u.ReverbEnabled
	}
	s.mu.Unlock()

	if resized {
		s.logger.Debug("delay resized", slog.Float64("seconds", seconds), slog.Int("samples", samples))
	}
}

// SetWaveType switches the waveform; invalid values are ignored.
func (s *Synthesizer) SetWaveType(w WaveType) {
	if !w.Valid() {
		return
	}
	s.mu.Lock()
	s.waveType = w
	s.mu.Unlock()
}

// NextWaveType advances to the next waveform and returns it.
func (s *Synthesizer) NextWaveType() WaveType {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waveType = s.waveType.Next()
	return s.waveType
}

// WaveType returns the current waveform.
func (s *Synthesizer) WaveType() WaveType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waveType
}

// Process renders one chunk into dst. It is the stream's pull callback: it
// never blocks on anything but the bounded parameter lock, does not allocate
// for chunks up to the configured buffer size, and emits silence instead of
// failing.
func (s *Synthesizer) Process(dst []float32) {
	defer func() {
		if r := recover(); r != nil {
			silence(dst)
			s.level.Store(math.Float64bits(analysis.MinDBFS))
		}
	}()

	s.mu.Lock()
	frequency := s.frequency
	volume := s.volume
	depth := s.vibratoDepth
	wave := s.waveType
	reverb := s.reverbEnabled
	s.mu.Unlock()

	n := len(dst)
	if n > len(s.scratch) {
		s.scratch = make([]float64, n)
	}
	samples := s.scratch[:n]
	s.osc.VibratoDepth = depth
	s.osc.Wave = wave
	s.osc.Generate(samples, frequency)

	for i, v := range samples {
		dst[i] = float32(v * volume)
	}

	if reverb {
		s.applyDelay(dst)
	}

	for i := range dst {
		dst[i] *= s.outGain
	}

	if !analysis.AllFinite(dst) {
		// Non-finite values would otherwise persist in the phase accumulators
		// and the feedback buffer.
		s.osc.ResetPhase()
		s.mu.Lock()
		s.delay.Reset()
		s.mu.Unlock()
		silence(dst)
		s.level.Store(math.Float64bits(analysis.MinDBFS))
		return
	}
	s.level.Store(math.Float64bits(analysis.DBFS(analysis.Peak(dst))))
}

// applyDelay runs the delay under mu: UpdateParameters may swap its buffer.
func (s *Synthesizer) applyDelay(dst []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay.Process(dst, dst)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func silence(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
}

// CurrentNoteName returns the note nearest to the current frequency.
func (s *Synthesizer) CurrentNoteName() string {
	s.mu.Lock()
	f := s.frequency
	s.mu.Unlock()
	return NoteName(f)
}

// Frequency returns the current smoothed frequency in Hz.
func (s *Synthesizer) Frequency() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frequency
}

// Volume returns the current smoothed volume in [0,1].
func (s *Synthesizer) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Info is a display snapshot of the synthesizer state.
type Info struct {
	Frequency     float64 `json:"frequency"`
	Volume        float64 `json:"volume"` // percent
	Note          string  `json:"note"`
	IsPlaying     bool    `json:"is_playing"`
	VibratoDepth  float64 `json:"vibrato_depth"`
	DelaySeconds  float64 `json:"delay_seconds"`
	DelayFeedback float64 `json:"delay_feedback"`
	DelayMix      float64 `json:"delay_mix"`
	ReverbEnabled bool    `json:"reverb_enabled"`
	WaveType      string  `json:"wave_type"`
	OutputLevel   float64 `json:"output_level_dbfs"`
}

// Info returns a snapshot for display. It has no side effects.
func (s *Synthesizer) Info() Info {
	s.mu.Lock()
	info := Info{
		Frequency:     s.frequency,
		Volume:        s.volume * 100,
		VibratoDepth:  s.vibratoDepth,
		DelaySeconds:  s.delay.Seconds(),
		DelayFeedback: s.delay.Feedback(),
		DelayMix:      s.delay.Mix(),
		ReverbEnabled: s.reverbEnabled,
		WaveType:      s.waveType.String(),
	}
	s.mu.Unlock()

	info.Note = NoteName(info.Frequency)
	info.IsPlaying = s.running.Load()
	info.OutputLevel = math.Float64frombits(s.level.Load())
	return info
}

// GuideNotes lists the natural notes reachable with the configured frequency range.
func (s *Synthesizer) GuideNotes() []GuideNote {
	return GuideNotes(s.params.MinFrequency, s.params.MaxFrequency)
}
