package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/clipdeck/internal/config"
	"github.com/keagan/clipdeck/internal/server"
	"github.com/keagan/clipdeck/internal/thumbnail"
	"github.com/keagan/clipdeck/pkg/util"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
		if err := util.EnsureDir(cfg.Storage.DataDir); err != nil {
			return err
		}

		a, err := newApp(log.Logger, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(log.Logger, cfg, server.Deps{
			Store:      a.store,
			Processor:  a.proc,
			Prober:     a.ffmpeg,
			Thumbnails: thumbnail.New(log.Logger, a.ffmpeg, cfg.Storage.TempDir),
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start(cfg.Server.Addr) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
}
