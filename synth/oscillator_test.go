package synth

import (
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-theremin/analysis"
)

// TestPhaseContinuityAcrossChunks verifies that chunking does not change the
// phase accumulators or the generated samples.
func TestPhaseContinuityAcrossChunks(t *testing.T) {
	chunkings := [][]int{
		{4410},
		{1, 4409},
		{1024, 1024, 1024, 1024, 314},
		{7, 333, 2048, 1, 1, 2020},
		{4409, 1},
	}
	for _, wave := range WaveTypes() {
		for _, freq := range []float64{200, 440, 1987.3} {
			whole := NewOscillator(44100)
			whole.Wave = wave
			want := whole.GenerateWave(freq, 4410)
			wantCarrier, wantLFO := whole.Phases()

			for _, sizes := range chunkings {
				t.Run(fmt.Sprintf("%s/%.0f/%v", wave, freq, sizes), func(t *testing.T) {
					o := NewOscillator(44100)
					o.Wave = wave
					got := make([]float64, 0, 4410)
					for _, n := range sizes {
						got = append(got, o.GenerateWave(freq, n)...)
					}
					carrier, lfo := o.Phases()
					if carrier != wantCarrier || lfo != wantLFO {
						t.Fatalf("phase mismatch: carrier %v vs %v, lfo %v vs %v", carrier, wantCarrier, lfo, wantLFO)
					}
					for i := range want {
						if got[i] != want[i] {
							t.Fatalf("sample %d differs: %v vs %v", i, got[i], want[i])
						}
					}
				})
			}
		}
	}
}

func TestPhasesStayWrapped(t *testing.T) {
	o := NewOscillator(44100)
	for i := 0; i < 50; i++ {
		o.GenerateWave(1999, 1024)
		carrier, lfo := o.Phases()
		if carrier < 0 || carrier >= 2*math.Pi || lfo < 0 || lfo >= 2*math.Pi {
			t.Fatalf("phase out of range: carrier=%f lfo=%f", carrier, lfo)
		}
	}
}

func TestCarrierPhaseMatchesClosedFormWithoutVibrato(t *testing.T) {
	const sampleRate = 44100.0
	o := NewOscillator(sampleRate)
	o.VibratoDepth = 0
	for i := 0; i < 10; i++ {
		o.GenerateWave(440, 1024)
	}
	total := 440.0 / sampleRate * 10240 * 2 * math.Pi
	want := math.Mod(total, 2*math.Pi)
	got, _ := o.Phases()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("carrier phase: got=%.12f want=%.12f", got, want)
	}
}

func TestLFOPhaseAdvancesAtVibratoRate(t *testing.T) {
	o := NewOscillator(1000)
	o.VibratoRate = 5
	o.GenerateWave(100, 50) // a quarter of an LFO cycle
	_, lfo := o.Phases()
	if math.Abs(lfo-math.Pi/2) > 1e-12 {
		t.Fatalf("lfo phase: got=%f want=%f", lfo, math.Pi/2)
	}
}

func TestWaveformBounds(t *testing.T) {
	harmonicSets := [][]float64{
		{1.0, 0.5, 0.25, 0.125},
		{1},
		{0, 0, 1},
		{1, 1, 1, 1, 1, 1, 1, 1},
		{},
	}
	for _, wave := range WaveTypes() {
		for _, h := range harmonicSets {
			for _, freq := range []float64{20, 200, 440, 2000, 9000} {
				o := NewOscillator(44100)
				o.Wave = wave
				o.VibratoDepth = MaxVibratoDepth
				o.SetHarmonics(h)
				for _, v := range o.GenerateWave(freq, 8192) {
					if v < -1 || v > 1 || math.IsNaN(v) {
						t.Fatalf("%s harmonics=%v freq=%.0f: sample %f out of [-1,1]", wave, h, freq, v)
					}
				}
			}
		}
	}
}

func TestWaveformShapes(t *testing.T) {
	o := NewOscillator(44100)
	tests := []struct {
		wave  WaveType
		phase float64
		want  float64
	}{
		{Square, math.Pi / 2, 1},
		{Square, 3 * math.Pi / 2, -1},
		{Square, 0, 0},
		{Saw, 0, 0},
		{Saw, math.Pi / 2, 0.5},
		{Saw, math.Pi, -1},
		{Saw, 3 * math.Pi / 2, -0.5},
		{Triangle, 0, -1},
		{Triangle, math.Pi / 2, 0},
		{Triangle, math.Pi, 1},
		{Triangle, 3 * math.Pi / 2, 0},
	}
	for _, tt := range tests {
		o.Wave = tt.wave
		if got := o.shape(tt.phase); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s at %.3f: got=%f want=%f", tt.wave, tt.phase, got, tt.want)
		}
	}
}

func TestSineHarmonicMix(t *testing.T) {
	const sampleRate = 44100
	o := NewOscillator(sampleRate)
	o.VibratoDepth = 0
	sig := o.GenerateWave(441, sampleRate)

	sum := 1.0 + 0.5 + 0.25 + 0.125
	for k, amp := range []float64{1.0, 0.5, 0.25, 0.125} {
		f := 441 * float64(k+1)
		got := analysis.HarmonicMagnitude(sig, sampleRate, f)
		want := amp / sum
		if math.Abs(got-want) > 1e-3 {
			t.Fatalf("harmonic %d: got=%f want=%f", k+1, got, want)
		}
	}
}

func TestGeneratedPitch(t *testing.T) {
	const sampleRate = 44100
	for _, wave := range WaveTypes() {
		o := NewOscillator(sampleRate)
		o.Wave = wave
		o.VibratoDepth = 0
		sig := o.GenerateWave(523.25, 16384)
		got := analysis.DominantFrequency(sig, sampleRate)
		if math.Abs(got-523.25) > 3 {
			t.Errorf("%s: dominant frequency %.2f, want 523.25", wave, got)
		}
	}
}

func TestZeroHarmonicsFallsBackToSine(t *testing.T) {
	o := NewOscillator(44100)
	o.VibratoDepth = 0
	o.SetHarmonics([]float64{0, 0})
	got := o.GenerateWave(441, 10)
	for i, v := range got {
		want := math.Sin(2 * math.Pi * 441 * float64(i+1) / 44100)
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("sample %d: got=%f want=%f", i, v, want)
		}
	}
}

func TestGenerateWaveEmpty(t *testing.T) {
	o := NewOscillator(44100)
	if out := o.GenerateWave(440, 0); out != nil {
		t.Fatalf("expected nil for zero samples")
	}
	if c, l := o.Phases(); c != 0 || l != 0 {
		t.Fatalf("phases moved on empty request")
	}
}
