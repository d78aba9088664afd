package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-theremin/output"
	"github.com/cwbudde/algo-theremin/preset"
	"github.com/cwbudde/algo-theremin/synth"
)

var version = "0.1.0"

var (
	presetPath   string
	verbose      bool
	waveName     string
	sampleRate   int
	bufferSize   int
	minFrequency float64
	maxFrequency float64
	noReverb     bool
	noSmoothing  bool
	nullAudio    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "theremin",
	Short: "Hand-controlled theremin synthesizer",
	Long: `theremin turns normalized hand positions into a continuous tone.

The right hand height sets the pitch on a logarithmic scale, the left hand
distance sets the volume, the right-hand pinch sets the vibrato depth and the
left hand height sets the echo time.

Hand positions arrive as JSON HandFrame objects, one per video frame, either on
stdin (play), over HTTP (serve) or from a file (render).`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(noteCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&presetPath, "preset", "p", "", "Preset JSON file (optional)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose (debug) logging")
	pf.StringVarP(&waveName, "wave", "w", "", "Waveform: sine, square, saw, triangle")
	pf.IntVar(&sampleRate, "sample-rate", synth.DefaultSampleRate, "Sample rate in Hz")
	pf.IntVar(&bufferSize, "buffer-size", synth.DefaultBufferSize, "Samples per output chunk")
	pf.Float64Var(&minFrequency, "min-freq", synth.DefaultMinFrequency, "Lowest playable frequency in Hz")
	pf.Float64Var(&maxFrequency, "max-freq", synth.DefaultMaxFrequency, "Highest playable frequency in Hz")
	pf.BoolVar(&noReverb, "no-reverb", false, "Disable the feedback delay")
	pf.BoolVar(&noSmoothing, "no-smoothing", false, "Disable position smoothing")

	playCmd.Flags().BoolVar(&nullAudio, "null-audio", false, "Discard audio instead of using the sound card")
	serveCmd.Flags().BoolVar(&nullAudio, "null-audio", false, "Discard audio instead of using the sound card")
	initRenderFlags()
	initServeFlags()
	initNoteFlags()
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadParams builds synthesizer params from the preset and any flags given
// explicitly on the command line.
func loadParams(cmd *cobra.Command) (*synth.Params, error) {
	p := synth.NewDefaultParams()
	if presetPath != "" {
		var err error
		if p, err = preset.LoadJSON(presetPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("sample-rate") {
		p.SampleRate = sampleRate
	}
	if flags.Changed("buffer-size") {
		p.BufferSize = bufferSize
	}
	if flags.Changed("min-freq") {
		p.MinFrequency = minFrequency
	}
	if flags.Changed("max-freq") {
		p.MaxFrequency = maxFrequency
	}
	if waveName != "" {
		w, err := synth.ParseWaveType(waveName)
		if err != nil {
			return nil, err
		}
		p.WaveType = w
	}
	if noReverb {
		p.ReverbEnabled = false
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// openDevice returns the sound card device, or a NullDevice when requested or
// when no audio backend is available.
func openDevice(logger *slog.Logger) output.Device {
	if nullAudio {
		return output.NewNullDevice()
	}
	dev, err := output.NewOtoDevice()
	if err != nil {
		logger.Warn("audio output unavailable, discarding audio", slog.Any("error", err))
		return output.NewNullDevice()
	}
	return dev
}

// startSynth creates and starts a synthesizer, falling back to a NullDevice if
// the sound card stream cannot be opened.
func startSynth(params *synth.Params, logger *slog.Logger) (*synth.Synthesizer, error) {
	syn, err := synth.New(params, openDevice(logger), synth.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	err = syn.Start()
	if err == nil {
		return syn, nil
	}
	if !errors.Is(err, synth.ErrStreamOpen) || nullAudio {
		_ = syn.Cleanup()
		return nil, err
	}

	logger.Warn("falling back to null audio", slog.Any("error", err))
	_ = syn.Cleanup()
	syn, err = synth.New(params, output.NewNullDevice(), synth.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := syn.Start(); err != nil {
		return nil, fmt.Errorf("start synthesizer: %w", err)
	}
	return syn, nil
}
