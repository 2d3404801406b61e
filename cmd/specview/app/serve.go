package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/spectroscrub/internal/server"
	"github.com/roman-kulish/spectroscrub/internal/spectrogram"
)

func newServeCmd(rt *runtime) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored spectrograms over HTTP",
		Long: `Serve payloads from the sqlite database on the endpoints the viewer
fetches from: /spectrogram_data/{id} and /spectrogram/{id}.

Example:
  specview serve
  specview serve --addr 127.0.0.1:9090 --db results.sqlite`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				rt.config.Server.Addr = addr
			}
			return runServe(cmd.Context(), rt)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides config")
	return cmd
}

func runServe(ctx context.Context, rt *runtime) error {
	config := rt.config
	logger := rt.logger

	store := rt.openStore()
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("closing storage", slog.Any("error", err))
		}
	}()

	srv := server.NewServer(server.Config{
		Addr:           config.Server.Addr,
		ImageWidth:     config.Server.ImageWidth,
		RateLimit:      config.Server.RateLimit,
		Burst:          config.Server.Burst,
		RequestTimeout: config.Server.RequestTimeout.Std(),
	}, store, spectrogram.NewRenderer(config.renderConfig()), logger)
	srv.Initialize()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down http server")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout.Std())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return <-serverErr
}
