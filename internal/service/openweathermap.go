package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vzahanych/weather-brief/internal/config"
	"github.com/vzahanych/weather-brief/internal/weather"
	"github.com/vzahanych/weather-brief/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

type OpenWeatherMapClient struct {
	baseURL string
	apiKey  string
	units   string
	client  *http.Client
	logger  *zap.Logger
	tele    *telemetry.Telemetry
}

func NewOpenWeatherMapClient(cfg config.WeatherConfig, logger *zap.Logger, tele *telemetry.Telemetry) *OpenWeatherMapClient {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &OpenWeatherMapClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		units:   cfg.Units,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
		tele:   tele,
	}
}

func (c *OpenWeatherMapClient) Name() string {
	return "openweathermap"
}

// CurrentWeather fetches the current conditions for loc.
func (c *OpenWeatherMapClient) CurrentWeather(ctx context.Context, loc Location) (*weather.RawCurrent, error) {
	var out weather.RawCurrent
	if err := c.get(ctx, "weather", loc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecast fetches the 5-day/3-hour forecast for loc.
func (c *OpenWeatherMapClient) Forecast(ctx context.Context, loc Location) (*weather.RawForecast, error) {
	var out weather.RawForecast
	if err := c.get(ctx, "forecast", loc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *OpenWeatherMapClient) get(ctx context.Context, endpoint string, loc Location, out interface{}) error {
	ctx, span := c.tele.GetTracer().Start(ctx, "openweathermap."+endpoint)
	defer span.End()

	span.SetAttributes(
		attribute.String("service", c.Name()),
		attribute.String("endpoint", endpoint),
		attribute.String("location", loc.String()),
	)

	if c.apiKey == "" {
		span.SetAttributes(attribute.Bool("success", false))
		return ErrNotConfigured
	}
	if loc.IsZero() {
		span.SetAttributes(attribute.Bool("success", false))
		return ErrNoLocation
	}

	q := url.Values{}
	loc.apply(q)
	q.Set("appid", c.apiKey)
	if c.units != "" {
		q.Set("units", c.units)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug("Calling OpenWeatherMap",
		zap.String("endpoint", endpoint),
		zap.String("location", loc.String()))

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		c.tele.RecordError(ctx, err, map[string]interface{}{"endpoint": endpoint})
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		return fmt.Errorf("failed to read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		span.SetAttributes(attribute.Bool("success", false))
		c.logger.Warn("OpenWeatherMap returned an error",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.Duration("latency", time.Since(start)))
		return &UpstreamError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Details:    decodeDetails(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		span.SetAttributes(attribute.Bool("success", false))
		return fmt.Errorf("failed to parse %s response: %w", endpoint, err)
	}

	span.SetAttributes(attribute.Bool("success", true))
	c.logger.Debug("OpenWeatherMap call completed",
		zap.String("endpoint", endpoint),
		zap.Duration("latency", time.Since(start)))

	return nil
}

func decodeDetails(body []byte) interface{} {
	var details interface{}
	if err := json.Unmarshal(body, &details); err == nil {
		return details
	}
	return strings.TrimSpace(string(body))
}
