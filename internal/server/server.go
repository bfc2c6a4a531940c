package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-brief/internal/aggregator"
	"github.com/vzahanych/weather-brief/internal/config"
	"github.com/vzahanych/weather-brief/internal/server/handlers"
	"github.com/vzahanych/weather-brief/internal/server/middlewares"
	"github.com/vzahanych/weather-brief/internal/server/web"
	"github.com/vzahanych/weather-brief/pkg/telemetry"
	"go.uber.org/zap"
)

const (
	WeatherPath = "/api/weather"
	pageTitle   = "Weather"
)

type Server struct {
	cfg     config.ServerConfig
	engine  *gin.Engine
	server  *http.Server
	agg     *aggregator.Aggregator
	metrics *middlewares.MetricsMiddleware
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewServer(cfg config.ServerConfig, agg *aggregator.Aggregator, logger *zap.Logger, tele *telemetry.Telemetry) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	engine.SetHTMLTemplate(tmpl)

	metrics := middlewares.NewMetricsMiddleware(logger, tele)

	engine.Use(middlewares.RequestIDMiddleware(logger))
	engine.Use(middlewares.LoggingMiddleware(logger, time.RFC3339, true))
	engine.Use(middlewares.RecoveryMiddleware(logger, true))
	engine.Use(middlewares.TelemetryMiddleware(logger, tele))
	engine.Use(metrics.Handler())

	s := &Server{
		cfg:     cfg,
		engine:  engine,
		agg:     agg,
		metrics: metrics,
		logger:  logger,
		tele:    tele,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.Addr(),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return s, nil
}

func (s *Server) setupRoutes() {
	metricsHandler := handlers.NewMetricsHandler(s.logger, s.metrics)
	s.agg.SetMetricsRecorder(metricsHandler)

	weatherHandler := handlers.NewWeatherHandler(s.agg, s.logger)
	healthHandler := handlers.NewHealthHandler(s.logger, s.agg)

	s.engine.GET("/", handlers.NewIndexHandler(pageTitle, WeatherPath).Index)

	// Business endpoints
	s.engine.GET(WeatherPath, weatherHandler.GetWeather)
	s.engine.POST(WeatherPath, weatherHandler.GetWeather)

	// Health endpoints (Kubernetes friendly)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/health/live", healthHandler.Liveness)
	s.engine.GET("/health/ready", healthHandler.Readiness)

	// Monitoring endpoints
	s.engine.GET("/metrics", metricsHandler.ServeMetrics)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("Starting server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
