package output

import (
	"encoding/binary"
	"math"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-theremin/internal/wavio"
)

type rampSource struct {
	next  float32
	calls atomic.Int64
}

func (s *rampSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = s.next
		s.next += 0.001
	}
	s.calls.Add(1)
}

func TestSourceReaderEncodesFloat32LE(t *testing.T) {
	src := &rampSource{next: 0.25}
	r := newSourceReader(src, 4)
	p := make([]byte, 16)
	n, err := r.Read(p)
	require.NoError(t, err)
	require.Equal(t, 16, n)

	for i := 0; i < 4; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		assert.InDelta(t, 0.25+0.001*float64(i), float64(got), 1e-6)
	}
}

func TestSourceReaderGrowsForLargerRequests(t *testing.T) {
	r := newSourceReader(&rampSource{}, 2)
	n, err := r.Read(make([]byte, 64))
	require.NoError(t, err)
	assert.Equal(t, 64, n)

	n, err = r.Read(make([]byte, 3))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNullDevicePullsUntilClosed(t *testing.T) {
	d := NewNullDevice()
	src := &rampSource{}
	s, err := d.Open(src, StreamConfig{SampleRate: 48000, ChunkSize: 48})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return src.calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	after := src.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, src.calls.Load(), "no pulls after Close")
	assert.Equal(t, uint64(after), d.Pulled())

	require.NoError(t, d.Close())
	_, err = d.Open(src, StreamConfig{SampleRate: 48000, ChunkSize: 48})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNullDeviceRejectsInvalidConfig(t *testing.T) {
	_, err := NewNullDevice().Open(&rampSource{}, StreamConfig{})
	assert.Error(t, err)
}

func TestRecorderPullsOnDemand(t *testing.T) {
	rec := NewRecorder()
	assert.Equal(t, 0, rec.Pull(1), "no stream open")

	src := &rampSource{}
	s, err := rec.Open(src, StreamConfig{SampleRate: 8000, ChunkSize: 10})
	require.NoError(t, err)

	_, err = rec.Open(src, StreamConfig{SampleRate: 8000, ChunkSize: 10})
	assert.ErrorIs(t, err, ErrBusy)

	assert.Equal(t, 3, rec.Pull(3))
	samples := rec.Samples()
	require.Len(t, samples, 30)
	assert.InDelta(t, 0.029, float64(samples[29]), 1e-6)

	require.NoError(t, s.Close())
	assert.Equal(t, 0, rec.Pull(1))

	path := filepath.Join(t.TempDir(), "rec.wav")
	require.NoError(t, rec.WriteWAV(path))
	got, rate, err := wavio.ReadWAVMono(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, rate)
	assert.Len(t, got, 30)

	require.NoError(t, rec.Close())
	_, err = rec.Open(src, StreamConfig{SampleRate: 8000, ChunkSize: 10})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRecorderRejectsRateChange(t *testing.T) {
	rec := NewRecorder()
	s, err := rec.Open(&rampSource{}, StreamConfig{SampleRate: 8000, ChunkSize: 10})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	_, err = rec.Open(&rampSource{}, StreamConfig{SampleRate: 44100, ChunkSize: 10})
	assert.Error(t, err)
}

func TestRecorderWriteWAVWithoutAudio(t *testing.T) {
	assert.Error(t, NewRecorder().WriteWAV(filepath.Join(t.TempDir(), "x.wav")))
}
