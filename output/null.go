package output

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// NullDevice pulls chunks at the real-time chunk cadence and discards them.
// It stands in for audio hardware on machines without any.
type NullDevice struct {
	mu     sync.Mutex
	closed bool
	pulled atomic.Uint64
}

// NewNullDevice returns a device with no backing hardware.
func NewNullDevice() *NullDevice {
	return &NullDevice{}
}

// Open starts a goroutine that calls src.Process once per chunk period.
func (d *NullDevice) Open(src Source, cfg StreamConfig) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if cfg.SampleRate <= 0 || cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("invalid stream config %+v", cfg)
	}

	period := time.Duration(float64(cfg.ChunkSize) / float64(cfg.SampleRate) * float64(time.Second))
	s := &nullStream{done: make(chan struct{})}
	buf := make([]float32, cfg.ChunkSize)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				src.Process(buf)
				d.pulled.Add(1)
			}
		}
	}()
	return s, nil
}

// Pulled returns the number of chunks consumed across all streams.
func (d *NullDevice) Pulled() uint64 {
	return d.pulled.Load()
}

// Close marks the device closed; open streams keep running until closed.
func (d *NullDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

type nullStream struct {
	once sync.Once
	done chan struct{}
	wg   sync.WaitGroup
}

func (s *nullStream) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}
