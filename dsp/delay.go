package dsp

import (
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
)

const (
	// MaxDelaySeconds is the longest supported delay time.
	MaxDelaySeconds = 2.0
	// ResizeThreshold is the minimum change in delay time that reallocates the buffer.
	ResizeThreshold = 0.01
)

// FeedbackDelay implements a circular-buffer echo mixed with the dry signal.
//
// Output and feedback use independent gains: the value written back into the
// buffer is dry + delayed*feedback, while the value returned is dry + delayed*mix.
// FeedbackDelay is not safe for concurrent use; callers serialize Process and
// SetDelay themselves.
type FeedbackDelay struct {
	sampleRate int
	seconds    float64
	feedback   float32
	mix        float32

	buffer  []float32
	cursor  int
	delayed []float32 // per-chunk read scratch
}

// NewFeedbackDelay creates a delay of the given length in seconds.
func NewFeedbackDelay(sampleRate int, seconds, feedback, mix float64) *FeedbackDelay {
	d := &FeedbackDelay{
		sampleRate: sampleRate,
		feedback:   float32(dspcore.Clamp(feedback, 0, 1)),
		mix:        float32(dspcore.Clamp(mix, 0, 1)),
	}
	d.seconds = dspcore.Clamp(seconds, 0, MaxDelaySeconds)
	d.buffer = make([]float32, d.lengthFor(d.seconds))
	return d
}

// Reserve pre-allocates read scratch for chunks up to n samples.
func (d *FeedbackDelay) Reserve(n int) {
	if n > cap(d.delayed) {
		d.delayed = make([]float32, n)
	}
}

func (d *FeedbackDelay) lengthFor(seconds float64) int {
	return int(math.Round(float64(d.sampleRate) * seconds))
}

// Process runs one chunk through the delay. dst and dry may alias.
//
// All delayed samples of the chunk are read before any are written back, so a
// buffer shorter than the chunk wraps correctly: every index is reduced modulo
// the buffer length per sample, and later writes to a repeated index win.
func (d *FeedbackDelay) Process(dst, dry []float32) {
	n := len(dry)
	if len(dst) < n {
		n = len(dst)
	}
	size := len(d.buffer)
	if size == 0 {
		copy(dst[:n], dry[:n])
		return
	}
	if n > cap(d.delayed) {
		d.delayed = make([]float32, n)
	}
	delayed := d.delayed[:n]

	idx := d.cursor
	for i := 0; i < n; i++ {
		delayed[i] = d.buffer[idx]
		idx++
		if idx == size {
			idx = 0
		}
	}

	idx = d.cursor
	for i := 0; i < n; i++ {
		in := dry[i]
		back := in + delayed[i]*d.feedback
		d.buffer[idx] = float32(dspcore.FlushDenormals(float64(back)))
		dst[i] = in + delayed[i]*d.mix
		idx++
		if idx == size {
			idx = 0
		}
	}
	d.cursor = (d.cursor + n) % size
}

// SetDelay changes the delay time. The buffer is reallocated, zeroed and its
// cursor reset only when the clamped value moves by more than ResizeThreshold;
// it reports whether that happened.
func (d *FeedbackDelay) SetDelay(seconds float64) bool {
	seconds = dspcore.Clamp(seconds, 0, MaxDelaySeconds)
	if math.Abs(seconds-d.seconds) <= ResizeThreshold {
		return false
	}
	d.seconds = seconds
	d.buffer = make([]float32, d.lengthFor(seconds))
	d.cursor = 0
	return true
}

// SetFeedback sets the gain of the delayed signal written back into the buffer.
func (d *FeedbackDelay) SetFeedback(feedback float64) {
	d.feedback = float32(dspcore.Clamp(feedback, 0, 1))
}

// SetMix sets the gain of the delayed signal added to the output.
func (d *FeedbackDelay) SetMix(mix float64) {
	d.mix = float32(dspcore.Clamp(mix, 0, 1))
}

// Seconds returns the current delay time.
func (d *FeedbackDelay) Seconds() float64 { return d.seconds }

// Feedback returns the feedback gain.
func (d *FeedbackDelay) Feedback() float64 { return float64(d.feedback) }

// Mix returns the wet mix gain.
func (d *FeedbackDelay) Mix() float64 { return float64(d.mix) }

// Len returns the buffer length in samples.
func (d *FeedbackDelay) Len() int { return len(d.buffer) }

// Cursor returns the current write position.
func (d *FeedbackDelay) Cursor() int { return d.cursor }

// Buffer returns the live delay buffer. Callers must not modify it.
func (d *FeedbackDelay) Buffer() []float32 { return d.buffer }

// Reset clears the delay line without reallocating.
func (d *FeedbackDelay) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.cursor = 0
}
