package tracking

import (
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/algo-theremin/estimator"
	"github.com/cwbudde/algo-theremin/synth"
)

// Controller is the part of the synthesizer a Session drives.
type Controller interface {
	UpdatePosition(rightY, leftX *float64)
	UpdateParameters(u synth.ParameterUpdate)
	NextWaveType() synth.WaveType
}

// FrameReport describes what one processed frame did.
type FrameReport struct {
	Frame       uint64         `json:"frame"`
	Controls    Controls       `json:"controls"`
	WaveChanged bool           `json:"wave_changed"`
	WaveType    synth.WaveType `json:"wave_type"`
	FPS         float64        `json:"fps"`
}

// Session owns the per-run tracking state: position estimators, the gesture
// edge detector and the frame-rate meter. It is safe for concurrent use.
type Session struct {
	ctl    Controller
	mapper Mapper
	logger *slog.Logger

	mu        sync.Mutex
	smooth    bool
	right     *estimator.Estimator
	left      *estimator.Pair
	hadRight  bool
	hadLeftX  bool
	hadLeftY  bool
	gestureOn bool
	frames    uint64
	fps       FPSMeter
}

// SessionOption configures a Session.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	mapper    Mapper
	smooth    bool
	estimator []estimator.Option
	logger    *slog.Logger
}

// WithMapper replaces the default gesture mapping.
func WithMapper(m Mapper) SessionOption {
	return func(c *sessionConfig) { c.mapper = m }
}

// WithSmoothing enables or disables the position estimators.
func WithSmoothing(enabled bool) SessionOption {
	return func(c *sessionConfig) { c.smooth = enabled }
}

// WithEstimatorOptions sets the noise model of the position estimators.
func WithEstimatorOptions(opts ...estimator.Option) SessionOption {
	return func(c *sessionConfig) { c.estimator = append(c.estimator, opts...) }
}

// WithSessionLogger sets the logger for waveform changes and hand events.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(c *sessionConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewSession creates a session driving ctl. Smoothing is on by default.
func NewSession(ctl Controller, opts ...SessionOption) *Session {
	cfg := sessionConfig{
		mapper: NewDefaultMapper(),
		smooth: true,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Session{
		ctl:    ctl,
		mapper: cfg.mapper,
		logger: cfg.logger,
		smooth: cfg.smooth,
		right:  estimator.New(estimator.DefaultInitialPosition, cfg.estimator...),
		left:   estimator.NewPair(estimator.DefaultInitialPosition, estimator.DefaultInitialPosition, cfg.estimator...),
	}
}

// Process applies one frame to the controller. processTime is how long the
// frame took to produce and feeds the frame-rate average. Concurrent calls are
// serialized so the controller sees frames in the order they were smoothed.
func (s *Session) Process(frame HandFrame, processTime time.Duration) FrameReport {
	frame = frame.Sanitized()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames++
	report := FrameReport{Frame: s.frames, FPS: s.fps.Add(processTime)}

	if s.smooth {
		frame.RightHandY = s.smoothAxis(s.right, frame.RightHandY, &s.hadRight)
		frame.LeftHandX = s.smoothAxis(s.left.X, frame.LeftHandX, &s.hadLeftX)
		frame.LeftHandY = s.smoothAxis(s.left.Y, frame.LeftHandY, &s.hadLeftY)
	}
	rising := frame.WaveGesture && !s.gestureOn
	s.gestureOn = frame.WaveGesture

	report.Controls = s.mapper.Map(frame)
	s.ctl.UpdatePosition(report.Controls.RightY, report.Controls.LeftX)
	s.ctl.UpdateParameters(report.Controls.Update)
	if rising {
		report.WaveChanged = true
		report.WaveType = s.ctl.NextWaveType()
		s.logger.Info("waveform changed", slog.String("wave", report.WaveType.String()))
	}
	return report
}

// smoothAxis filters v, restarting the estimator from the measurement when
// the hand reappears after having been lost.
func (s *Session) smoothAxis(e *estimator.Estimator, v *float64, had *bool) *float64 {
	if v == nil {
		*had = false
		return nil
	}
	if !*had {
		e.Reset(*v)
		*had = true
	}
	return float(e.Filter(*v))
}

// LeftState returns the left-hand estimator state.
func (s *Session) LeftState() estimator.PairState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.left.State()
}

// RightState returns the right-hand estimator position and velocity.
func (s *Session) RightState() (position, velocity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.right.State()
}

// FPS returns the average frame rate so far.
func (s *Session) FPS() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fps.Average()
}

// Frames returns the number of processed frames.
func (s *Session) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
