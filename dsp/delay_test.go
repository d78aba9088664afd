package dsp

import (
	"math"
	"math/rand"
	"testing"

	algofft "github.com/cwbudde/algo-fft"
)

func processInChunks(d *FeedbackDelay, in []float32, chunk int) []float32 {
	out := make([]float32, len(in))
	for start := 0; start < len(in); start += chunk {
		end := start + chunk
		if end > len(in) {
			end = len(in)
		}
		d.Process(out[start:end], in[start:end])
	}
	return out
}

func TestFeedbackDelayImpulse(t *testing.T) {
	const sampleRate = 44100
	d := NewFeedbackDelay(sampleRate, 0.2, 0.4, 0.3)
	delaySamples := int(math.Round(0.2 * sampleRate))
	if d.Len() != delaySamples {
		t.Fatalf("buffer length: got=%d want=%d", d.Len(), delaySamples)
	}

	in := make([]float32, delaySamples+1)
	in[0] = 1
	out := processInChunks(d, in, 1024)

	if out[0] != 1 {
		t.Fatalf("dry impulse should pass unchanged, got %f", out[0])
	}
	for i := 1; i < delaySamples; i++ {
		if out[i] != 0 {
			t.Fatalf("expected silence before the echo, got %f at %d", out[i], i)
		}
	}
	if want := float32(0.3); out[delaySamples] != want {
		t.Fatalf("mix path: got=%f want=%f", out[delaySamples], want)
	}
	if want := float32(0.4); d.Buffer()[0] != want {
		t.Fatalf("feedback path: got=%f want=%f", d.Buffer()[0], want)
	}
}

func TestFeedbackDelaySecondEchoDecays(t *testing.T) {
	d := NewFeedbackDelay(1000, 0.05, 0.5, 1.0)
	in := make([]float32, 2*50+1)
	in[0] = 1
	out := processInChunks(d, in, 16)
	if math.Abs(float64(out[50]-1.0)) > 1e-7 {
		t.Fatalf("first echo: got %f", out[50])
	}
	if math.Abs(float64(out[100]-0.5)) > 1e-7 {
		t.Fatalf("second echo: got %f", out[100])
	}
}

func TestFeedbackDelayWrapsWithinChunk(t *testing.T) {
	// 3-sample buffer, 8-sample chunk: indices wrap several times in one call.
	d := NewFeedbackDelay(100, 0.03, 0.5, 0.5)
	if d.Len() != 3 {
		t.Fatalf("expected 3-sample buffer, got %d", d.Len())
	}

	dry := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	out := make([]float32, len(dry))
	d.Process(out, dry)
	for i := range dry {
		if out[i] != dry[i] {
			t.Fatalf("first chunk reads an empty buffer: out[%d]=%f", i, out[i])
		}
	}
	// Last write to a repeated index wins.
	want := []float32{7, 8, 6}
	for i, w := range want {
		if d.Buffer()[i] != w {
			t.Fatalf("buffer[%d]: got=%f want=%f", i, d.Buffer()[i], w)
		}
	}
	if d.Cursor() != 8%3 {
		t.Fatalf("cursor: got=%d want=%d", d.Cursor(), 8%3)
	}

	out = out[:2]
	d.Process(out, []float32{0, 0})
	if out[0] != 3 || out[1] != 3.5 {
		t.Fatalf("second chunk: got %v want [3 3.5]", out)
	}
}

func TestFeedbackDelayResizeHysteresis(t *testing.T) {
	d := NewFeedbackDelay(44100, 0.2, 0.4, 0.3)
	d.Process(make([]float32, 100), onesLike(100))
	before := d.Len()
	cursor := d.Cursor()

	if d.SetDelay(0.205) {
		t.Fatalf("change within threshold must not resize")
	}
	if d.Len() != before || d.Cursor() != cursor || d.Buffer()[0] != 1 {
		t.Fatalf("buffer changed after sub-threshold update")
	}

	if !d.SetDelay(0.25) {
		t.Fatalf("change beyond threshold must resize")
	}
	if d.Len() != 11025 || d.Cursor() != 0 {
		t.Fatalf("resize: len=%d cursor=%d", d.Len(), d.Cursor())
	}
	for i, v := range d.Buffer() {
		if v != 0 {
			t.Fatalf("resized buffer not zeroed at %d: %f", i, v)
		}
	}
}

func TestFeedbackDelayClampsSettings(t *testing.T) {
	d := NewFeedbackDelay(1000, 5, 2, -1)
	if d.Seconds() != MaxDelaySeconds || d.Len() != 2000 {
		t.Fatalf("seconds not clamped: %f len=%d", d.Seconds(), d.Len())
	}
	if d.Feedback() != 1 || d.Mix() != 0 {
		t.Fatalf("gains not clamped: fb=%f mix=%f", d.Feedback(), d.Mix())
	}
}

func TestFeedbackDelayZeroLengthPassesThrough(t *testing.T) {
	d := NewFeedbackDelay(44100, 0.2, 0.4, 0.3)
	d.SetDelay(0)
	if d.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d", d.Len())
	}
	dry := []float32{0.1, -0.2, 0.3}
	out := make([]float32, 3)
	d.Process(out, dry)
	for i := range dry {
		if out[i] != dry[i] {
			t.Fatalf("passthrough mismatch at %d", i)
		}
	}
}

func TestFeedbackDelayMatchesConvolution(t *testing.T) {
	const (
		sampleRate = 1000
		seconds    = 0.01
		feedback   = 0.5
		mix        = 0.25
		n          = 200
	)
	d := NewFeedbackDelay(sampleRate, seconds, feedback, mix)
	L := d.Len()

	rng := rand.New(rand.NewSource(7))
	in := make([]float32, n)
	for i := range in {
		in[i] = float32(rng.Float64()*2 - 1)
	}
	got := processInChunks(d, in, 7)

	h := make([]float32, n)
	h[0] = 1
	gain := float32(mix)
	for k := L; k < n; k += L {
		h[k] = gain
		gain *= feedback
	}
	ref := make([]float32, len(in)+len(h)-1)
	if err := algofft.ConvolveReal(ref, in, h); err != nil {
		t.Fatalf("ConvolveReal: %v", err)
	}
	for i := range got {
		if math.Abs(float64(got[i]-ref[i])) > 1e-4 {
			t.Fatalf("sample %d: delay=%f convolution=%f", i, got[i], ref[i])
		}
	}
}

func TestFeedbackDelayResetClears(t *testing.T) {
	d := NewFeedbackDelay(1000, 0.01, 0.5, 0.5)
	d.Process(make([]float32, 5), onesLike(5))
	d.Reset()
	if d.Cursor() != 0 {
		t.Fatalf("cursor not reset")
	}
	for i, v := range d.Buffer() {
		if v != 0 {
			t.Fatalf("buffer[%d]=%f after reset", i, v)
		}
	}
}

func onesLike(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
