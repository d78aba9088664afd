package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-theremin/analysis"
	"github.com/cwbudde/algo-theremin/internal/wavio"
	"github.com/cwbudde/algo-theremin/output"
	"github.com/cwbudde/algo-theremin/synth"
	"github.com/cwbudde/algo-theremin/tracking"
)

const pitchWindow = 4096

var (
	renderOutput   string
	renderFrames   string
	renderFPS      float64
	renderDuration float64
	renderLeftX    float64
	renderRef      string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a HandFrame script to a WAV file",
	Long: `Render offline, faster than real time. Frames come from a JSON-lines file
(--frames) or, without one, from a scripted sweep across the pitch range.

Examples:
  theremin render --duration 4 --output sweep.wav
  theremin render --frames session.jsonl --fps 30 -o session.wav`,
	RunE: runRender,
}

func initRenderFlags() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOutput, "output", "o", "theremin.wav", "Output WAV file path")
	f.StringVar(&renderFrames, "frames", "", "HandFrame JSON-lines file (default: pitch sweep)")
	f.Float64Var(&renderFPS, "fps", 30, "Frames per second of the frame script")
	f.Float64Var(&renderDuration, "duration", 3, "Sweep duration in seconds")
	f.Float64Var(&renderLeftX, "left-x", 0.5, "Left hand x during the sweep")
	f.StringVar(&renderRef, "reference", "", "Reference WAV to compare the rendering against (optional)")
}

// renderStats summarizes a rendered take.
type renderStats struct {
	Frames    int
	Samples   int
	PeakDBFS  float64
	RMSDBFS   float64
	LastPitch float64 // dominant frequency of the final frame window, Hz
	LastNote  string
}

// render plays frames through a synthesizer attached to a Recorder and writes
// the result to path.
func render(params *synth.Params, frames []tracking.HandFrame, fps float64, smooth bool, path string, logger *slog.Logger) (renderStats, error) {
	if fps <= 0 {
		return renderStats{}, fmt.Errorf("fps must be > 0, got %g", fps)
	}
	if len(frames) == 0 {
		return renderStats{}, fmt.Errorf("no frames to render")
	}

	rec := output.NewRecorder()
	syn, err := synth.New(params, rec, synth.WithLogger(logger))
	if err != nil {
		return renderStats{}, err
	}
	defer syn.Cleanup()
	if err := syn.Start(); err != nil {
		return renderStats{}, err
	}

	sess := tracking.NewSession(syn, tracking.WithSmoothing(smooth), tracking.WithSessionLogger(logger))
	framePeriod := time.Duration(float64(time.Second) / fps)
	samplesPerFrame := float64(params.SampleRate) / fps

	pulled := 0
	for i, f := range frames {
		sess.Process(f, framePeriod)
		target := int(float64(i+1) * samplesPerFrame)
		for pulled < target {
			rec.Pull(1)
			pulled += params.BufferSize
		}
	}

	if err := rec.WriteWAV(path); err != nil {
		return renderStats{}, err
	}

	samples := rec.Samples()
	stats := renderStats{
		Frames:   len(frames),
		Samples:  len(samples),
		PeakDBFS: analysis.DBFS(analysis.Peak(samples)),
		RMSDBFS:  analysis.DBFS(analysis.RMS(samples)),
	}
	window := int(samplesPerFrame)
	if window < pitchWindow {
		window = pitchWindow
	}
	if window > len(samples) {
		window = len(samples)
	}
	if window > 0 {
		tail := make([]float64, window)
		for i, v := range samples[len(samples)-window:] {
			tail[i] = float64(v)
		}
		stats.LastPitch = analysis.DominantFrequency(tail, params.SampleRate)
		stats.LastNote = synth.NoteName(stats.LastPitch)
	}
	return stats, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	params, err := loadParams(cmd)
	if err != nil {
		return err
	}

	var frames []tracking.HandFrame
	if renderFrames != "" {
		fh, err := os.Open(renderFrames)
		if err != nil {
			return err
		}
		frames, err = readFrames(fh)
		fh.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", renderFrames, err)
		}
	} else {
		frames = sweepFrames(int(renderDuration*renderFPS), renderLeftX)
	}

	start := time.Now()
	stats, err := render(params, frames, renderFPS, !noSmoothing, renderOutput, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %d frames (%.2fs audio) in %s\n",
		stats.Frames, float64(stats.Samples)/float64(params.SampleRate), time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(cmd.OutOrStdout(), "Peak %.1f dBFS, RMS %.1f dBFS, final pitch %.1f Hz (%s)\n",
		stats.PeakDBFS, stats.RMSDBFS, stats.LastPitch, stats.LastNote)
	fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", renderOutput)

	if renderRef == "" {
		return nil
	}
	c, err := compareWithReference(renderRef, renderOutput)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reference %s: lag %d samples, pitch error %+.1f cents, spectral %.2f dB, similarity %.3f\n",
		renderRef, c.LagSamples, c.PitchErrorCents, c.SpectralRMSEDB, c.Similarity)
	return nil
}

// compareWithReference measures the rendered WAV against a reference take.
func compareWithReference(refPath, renderedPath string) (analysis.Comparison, error) {
	ref, refRate, err := wavio.ReadWAVMono(refPath)
	if err != nil {
		return analysis.Comparison{}, fmt.Errorf("read reference: %w", err)
	}
	cand, rate, err := wavio.ReadWAVMono(renderedPath)
	if err != nil {
		return analysis.Comparison{}, fmt.Errorf("read rendering: %w", err)
	}
	if refRate != rate {
		return analysis.Comparison{}, fmt.Errorf("reference is %d Hz, rendering is %d Hz", refRate, rate)
	}
	return analysis.CompareTakes(ref, cand, rate)
}
