package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-theremin/tracking"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play live from HandFrame JSON lines on stdin",
	Long: `Read one HandFrame JSON object per line from stdin and play the result on
the sound card (or discard it with --null-audio).

Example:
  hand-detector | theremin play --wave triangle`,
	RunE: runPlay,
}

func runPlay(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	params, err := loadParams(cmd)
	if err != nil {
		return err
	}

	syn, err := startSynth(params, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := syn.Cleanup(); err != nil {
			logger.Warn("cleanup failed", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := tracking.NewSession(syn,
		tracking.WithSmoothing(!noSmoothing),
		tracking.WithSessionLogger(logger))

	frames := make(chan tracking.HandFrame)
	errCh := make(chan error, 1)
	go func() {
		defer close(frames)
		errCh <- scanFrames(cmd.InOrStdin(), func(f tracking.HandFrame) error {
			select {
			case frames <- f:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Info("interrupted")
			return nil
		case f, ok := <-frames:
			if !ok {
				if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			}
			now := time.Now()
			report := sess.Process(f, now.Sub(last))
			last = now
			if report.Frame%30 == 0 {
				info := syn.Info()
				logger.Debug("status",
					slog.String("note", info.Note),
					slog.Float64("frequency", info.Frequency),
					slog.Float64("volume", info.Volume),
					slog.Float64("fps", report.FPS),
					slog.Float64("level_dbfs", info.OutputLevel))
			}
		}
	}
}
