//go:build !headless

package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoDevice plays streams on the system audio output through oto.
//
// oto allows a single context per process, so the context is created lazily on
// the first Open and reused by later streams at the same sample rate.
//
// oto marks its context as created even when creation fails, so a backend init
// failure is permanent for the process: every later Open returns the original
// error wrapped in ErrUnavailable instead of retrying.
type OtoDevice struct {
	mu         sync.Mutex
	ctx        *oto.Context
	initErr    error
	sampleRate int
	suspended  bool
	closed     bool

	newContext func(*oto.NewContextOptions) (*oto.Context, error)
}

// NewOtoDevice returns a device; no system resources are acquired until Open.
func NewOtoDevice() (*OtoDevice, error) {
	return &OtoDevice{newContext: newOtoContext}, nil
}

func newOtoContext(op *oto.NewContextOptions) (*oto.Context, error) {
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ctx, nil
}

func (d *OtoDevice) ensureContext(cfg StreamConfig) error {
	if d.ctx != nil {
		if d.sampleRate != cfg.SampleRate {
			return fmt.Errorf("oto context already running at %d Hz, requested %d Hz", d.sampleRate, cfg.SampleRate)
		}
		if d.suspended {
			if err := d.ctx.Resume(); err != nil {
				return fmt.Errorf("resume oto context: %w", err)
			}
			d.suspended = false
		}
		return nil
	}
	if d.initErr != nil {
		return d.initErr
	}

	chunk := time.Duration(float64(cfg.ChunkSize) / float64(cfg.SampleRate) * float64(time.Second))
	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   chunk,
	}
	ctx, err := d.newContext(op)
	if err != nil {
		d.initErr = fmt.Errorf("%w: oto init failed, restart the process to retry: %w", ErrUnavailable, err)
		return d.initErr
	}
	d.ctx = ctx
	d.sampleRate = cfg.SampleRate
	return nil
}

// Open starts a player pulling from src.
func (d *OtoDevice) Open(src Source, cfg StreamConfig) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if cfg.SampleRate <= 0 || cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("invalid stream config %+v", cfg)
	}
	if err := d.ensureContext(cfg); err != nil {
		return nil, err
	}

	player := d.ctx.NewPlayer(newSourceReader(src, cfg.ChunkSize))
	player.SetBufferSize(cfg.ChunkSize * 4)
	player.Play()
	return &otoStream{player: player}, nil
}

// Close suspends the shared context. The device cannot be reopened afterwards.
func (d *OtoDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	if d.ctx != nil && !d.suspended {
		d.suspended = true
		return d.ctx.Suspend()
	}
	return nil
}

type otoStream struct {
	once   sync.Once
	player *oto.Player
	err    error
}

func (s *otoStream) Close() error {
	s.once.Do(func() {
		s.player.Pause()
		s.err = s.player.Close()
	})
	return s.err
}
