package output

import (
	"fmt"
	"sync"

	"github.com/cwbudde/algo-theremin/internal/wavio"
)

// Recorder is a Device that pulls chunks on demand and keeps them in memory.
// It renders faster than real time and is used for offline rendering.
type Recorder struct {
	mu         sync.Mutex
	src        Source
	cfg        StreamConfig
	chunk      []float32
	samples    []float32
	sampleRate int
	closed     bool
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Open attaches src. Only one stream may be open at a time.
func (r *Recorder) Open(src Source, cfg StreamConfig) (Stream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if r.src != nil {
		return nil, ErrBusy
	}
	if cfg.SampleRate <= 0 || cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("invalid stream config %+v", cfg)
	}
	if r.sampleRate != 0 && r.sampleRate != cfg.SampleRate {
		return nil, fmt.Errorf("recorder holds %d Hz audio, requested %d Hz", r.sampleRate, cfg.SampleRate)
	}
	r.src = src
	r.cfg = cfg
	r.sampleRate = cfg.SampleRate
	if len(r.chunk) != cfg.ChunkSize {
		r.chunk = make([]float32, cfg.ChunkSize)
	}
	return &recorderStream{r: r}, nil
}

// Pull requests n chunks from the open stream and appends them to the recording.
// It returns the number of chunks pulled, which is 0 when no stream is open.
func (r *Recorder) Pull(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.src == nil {
		return 0
	}
	for i := 0; i < n; i++ {
		r.src.Process(r.chunk)
		r.samples = append(r.samples, r.chunk...)
	}
	return n
}

// Samples returns a copy of everything recorded so far.
func (r *Recorder) Samples() []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float32, len(r.samples))
	copy(out, r.samples)
	return out
}

// SampleRate returns the rate of the recorded audio, or 0 before the first Open.
func (r *Recorder) SampleRate() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sampleRate
}

// WriteWAV writes the recording as 16-bit mono PCM.
func (r *Recorder) WriteWAV(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sampleRate == 0 {
		return fmt.Errorf("nothing recorded")
	}
	return wavio.WriteMonoWAV(path, r.samples, r.sampleRate)
}

// Close detaches any open stream and rejects further Opens. Recorded audio is kept.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.src = nil
	return nil
}

type recorderStream struct {
	r *Recorder
}

func (s *recorderStream) Close() error {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.r.src = nil
	return nil
}
