package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vzahanych/weather-brief/internal/config"
	"github.com/vzahanych/weather-brief/internal/service"
	"github.com/vzahanych/weather-brief/internal/weather"
	"github.com/vzahanych/weather-brief/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	EndpointCurrent  = "weather"
	EndpointForecast = "forecast"
)

// NotFoundError reports a failed current-weather lookup: the location is
// unknown or the upstream API answered with an error.
type NotFoundError struct {
	Location string
	Err      error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("weather for %q not found: %v", e.Location, e.Err)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// Details returns the upstream error body when there is one.
func (e *NotFoundError) Details() interface{} {
	var upstream *service.UpstreamError
	if errors.As(e.Err, &upstream) {
		return upstream.Details
	}
	return e.Err.Error()
}

// MetricsRecorder interface for recording metrics
type MetricsRecorder interface {
	RecordUpstreamCall(ctx context.Context, endpoint string, success bool)
}

type Aggregator struct {
	cfg     config.WeatherConfig
	client  service.WeatherClient
	logger  *zap.Logger
	tele    *telemetry.Telemetry
	metrics MetricsRecorder
	now     func() time.Time
}

func NewAggregator(cfg config.WeatherConfig, client service.WeatherClient, logger *zap.Logger, tele *telemetry.Telemetry) *Aggregator {
	return &Aggregator{
		cfg:    cfg,
		client: client,
		logger: logger,
		tele:   tele,
		now:    time.Now,
	}
}

// SetMetricsRecorder sets the metrics recorder for the aggregator
func (a *Aggregator) SetMetricsRecorder(metrics MetricsRecorder) {
	a.metrics = metrics
}

// SetClock replaces the source of the current instant used to decide which
// forecast day is "today".
func (a *Aggregator) SetClock(now func() time.Time) {
	a.now = now
}

func (a *Aggregator) Configured() bool {
	return a.cfg.Configured()
}

// GetWeatherData returns current conditions and the daily forecast for loc.
// Forecast failures never fail the request; they leave the forecast empty.
func (a *Aggregator) GetWeatherData(ctx context.Context, loc service.Location) (*weather.Result, error) {
	ctx, span := a.tele.GetTracer().Start(ctx, "aggregator.GetWeatherData")
	defer span.End()

	span.SetAttributes(attribute.String("location", loc.String()))

	cur, err := a.GetCurrentConditions(ctx, loc)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		return nil, err
	}

	forecast := a.fetchForecast(ctx, loc)

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("forecast_days", len(forecast)),
	)

	a.logger.Info("Weather data assembled",
		zap.String("location", loc.String()),
		zap.String("resolved", cur.Location),
		zap.Int("forecast_days", len(forecast)))

	return weather.NewResult(cur, forecast), nil
}

// GetCurrentConditions validates the request and performs only the
// current-weather lookup.
func (a *Aggregator) GetCurrentConditions(ctx context.Context, loc service.Location) (*weather.Current, error) {
	if !a.cfg.Configured() {
		return nil, service.ErrNotConfigured
	}
	if loc.IsZero() {
		return nil, service.ErrNoLocation
	}

	raw, err := a.client.CurrentWeather(ctx, loc)
	a.record(ctx, EndpointCurrent, err == nil)
	if err != nil {
		a.logger.Warn("Current weather lookup failed",
			zap.String("location", loc.String()),
			zap.Error(err))
		a.tele.RecordError(ctx, err, map[string]interface{}{"endpoint": EndpointCurrent})
		return nil, &NotFoundError{Location: loc.String(), Err: err}
	}

	cur, err := weather.ExtractCurrent(raw)
	if err != nil {
		a.logger.Warn("Current weather record rejected",
			zap.String("location", loc.String()),
			zap.Error(err))
		return nil, &NotFoundError{Location: loc.String(), Err: err}
	}

	return cur, nil
}

func (a *Aggregator) fetchForecast(ctx context.Context, loc service.Location) []weather.DailySummary {
	raw, err := a.client.Forecast(ctx, loc)
	a.record(ctx, EndpointForecast, err == nil)
	if err != nil {
		a.logger.Warn("Forecast unavailable, serving current conditions only",
			zap.String("location", loc.String()),
			zap.Error(err))
		return []weather.DailySummary{}
	}

	return weather.ReduceForecast(raw, a.now())
}

func (a *Aggregator) record(ctx context.Context, endpoint string, success bool) {
	if a.metrics != nil {
		a.metrics.RecordUpstreamCall(ctx, endpoint, success)
	}
}
