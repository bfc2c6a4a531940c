package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-brief/internal/server"
	"go.uber.org/zap"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the weather HTTP server",
	Long:  `Start the HTTP server exposing /api/weather, a small web page, health checks and metrics.`,
	RunE:  runServer,
}

func runServer(cmd *cobra.Command, args []string) error {
	log.Info("Starting weather server",
		zap.String("config_path", configPath),
		zap.Bool("telemetry_enabled", cfg.Telemetry.Enabled),
		zap.Bool("api_key_configured", cfg.Weather.Configured()),
		zap.Int("server_port", cfg.Server.Port))

	srv, err := server.NewServer(cfg.Server, newAggregator(), log.Logger, tele)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			log.Error("Server error", zap.Error(err))
		}
		return err
	case <-cmd.Context().Done():
		log.Info("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("Error during server shutdown", zap.Error(err))
			return err
		}

		log.Info("Server shutdown complete")
		return nil
	}
}
