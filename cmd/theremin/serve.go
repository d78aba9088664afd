package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-theremin/server"
	"github.com/cwbudde/algo-theremin/tracking"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Play live from frames posted over HTTP",
	Long: `Start the synthesizer and an HTTP control surface for an external hand
detector.

Endpoints:
  GET  /healthz   liveness
  GET  /info      synthesizer state
  GET  /notes     guide notes in the playable range
  POST /frame     HandFrame JSON
  POST /params    effect parameter update
  POST /wave      {"wave":"saw"} or {"next":true}

Example:
  theremin serve --addr 127.0.0.1:8765`,
	RunE: runServe,
}

func initServeFlags() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", server.DefaultAddr, "Listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
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
	srv := server.New(server.Config{Addr: serveAddr}, syn,
		server.WithLogger(logger),
		server.WithSession(sess))
	return srv.Run(ctx)
}
