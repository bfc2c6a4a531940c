package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-brief/internal/aggregator"
	"github.com/vzahanych/weather-brief/internal/config"
	"github.com/vzahanych/weather-brief/internal/service"
	"github.com/vzahanych/weather-brief/pkg/logger"
	"github.com/vzahanych/weather-brief/pkg/telemetry"
	"go.uber.org/zap"
)

var (
	configPath string

	cfg  *config.Config
	log  *logger.Logger
	tele *telemetry.Telemetry
)

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weather-brief",
		Short: "Current weather and a five day forecast from OpenWeatherMap",
		Long: `Fetches current conditions and a simplified daily forecast for a city or a
latitude/longitude pair, served over HTTP or an interactive prompt.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeServices(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdownServices()
		},
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default: ./config.yaml)")

	cmd.AddCommand(serverCmd)
	cmd.AddCommand(promptCmd)

	return cmd
}

func Execute() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			if log != nil {
				log.Info("Received shutdown signal", zap.String("signal", sig.String()))
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return rootCmd().ExecuteContext(ctx)
}

func initializeServices(ctx context.Context) error {
	// 1. Pull .env into the environment so viper sees it
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// 2. Load config
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// 3. Initialize logger
	log, err = logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if !cfg.Weather.Configured() {
		log.Warn("WEATHER_API_KEY not set; lookups will fail until it is configured")
	}

	tele, err = telemetry.New(ctx, cfg.Telemetry, cfg.Version)
	if err != nil {
		log.Warn("Failed to initialize telemetry", zap.Error(err))
		tele = &telemetry.Telemetry{}
	}

	return nil
}

func shutdownServices() {
	if tele != nil {
		if err := tele.Shutdown(context.Background()); err != nil && log != nil {
			log.Warn("Failed to shutdown telemetry", zap.Error(err))
		}
	}
	if log != nil {
		_ = log.Sync()
	}
}

func newAggregator() *aggregator.Aggregator {
	client := service.NewOpenWeatherMapClient(cfg.Weather, log.Logger, tele)
	return aggregator.NewAggregator(cfg.Weather, client, log.Logger, tele)
}
