package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-brief/internal/aggregator"
	"github.com/vzahanych/weather-brief/internal/config"
	"github.com/vzahanych/weather-brief/internal/server"
	"github.com/vzahanych/weather-brief/internal/service"
	"github.com/vzahanych/weather-brief/internal/weather"
	"github.com/vzahanych/weather-brief/pkg/telemetry"
	"go.uber.org/zap/zaptest"
)

type stubClient struct {
	mu            sync.Mutex
	current       *weather.RawCurrent
	currentErr    error
	forecast      *weather.RawForecast
	forecastErr   error
	currentCalls  int
	forecastCalls int
	lastLocation  service.Location
}

func (s *stubClient) Name() string { return "stub" }

func (s *stubClient) CurrentWeather(ctx context.Context, loc service.Location) (*weather.RawCurrent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentCalls++
	s.lastLocation = loc
	return s.current, s.currentErr
}

func (s *stubClient) Forecast(ctx context.Context, loc service.Location) (*weather.RawForecast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forecastCalls++
	return s.forecast, s.forecastErr
}

func (s *stubClient) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentCalls + s.forecastCalls
}

func ptr(f float64) *float64 { return &f }

func newStub() *stubClient {
	current := &weather.RawCurrent{
		Cod:     200,
		Name:    "Lisbon",
		Main:    weather.RawMain{Temp: ptr(21.4), FeelsLike: ptr(20.9)},
		Weather: []weather.RawCondition{{Description: "clear sky", Icon: "01d"}},
	}
	current.Sys.Country = "PT"

	forecast := &weather.RawForecast{Cod: 200}
	start := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 40; i++ {
		forecast.List = append(forecast.List, weather.RawEntry{
			Dt:      start.Add(time.Duration(3*i) * time.Hour).Unix(),
			Main:    weather.RawMain{Temp: ptr(float64(20 + i%8))},
			Weather: []weather.RawCondition{{Description: "few clouds", Icon: "02d"}},
		})
	}
	forecast.City.Timezone = 3600

	return &stubClient{current: current, forecast: forecast}
}

func newTestServer(t *testing.T, apiKey string, client service.WeatherClient) *httptest.Server {
	logger := zaptest.NewLogger(t)
	tele := &telemetry.Telemetry{}

	agg := aggregator.NewAggregator(config.WeatherConfig{APIKey: apiKey}, client, logger, tele)
	agg.SetClock(func() time.Time { return time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC) })

	srv, err := server.NewServer(config.NewDefaultConfig().Server, agg, logger, tele)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out interface{}) *http.Response {
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestWeather_ByCity(t *testing.T) {
	stub := newStub()
	ts := newTestServer(t, "key", stub)

	var body weather.Result
	resp := getJSON(t, ts.URL+"/api/weather?city=Lisbon", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "Lisbon", body.Location)
	assert.Equal(t, "PT", body.Country)
	assert.Equal(t, 21.4, body.Current.Temp)
	require.NotNil(t, body.Current.FeelsLike)
	assert.Equal(t, "clear sky", body.Current.Desc)

	require.Len(t, body.Forecast, 4)
	assert.Equal(t, "2024-07-02", body.Forecast[0].Date)
	assert.Equal(t, "2024-07-05", body.Forecast[3].Date)

	assert.Equal(t, "Lisbon", stub.lastLocation.City)
	assert.Equal(t, 1, stub.currentCalls)
	assert.Equal(t, 1, stub.forecastCalls)
}

func TestWeather_ByCoordinates(t *testing.T) {
	stub := newStub()
	ts := newTestServer(t, "key", stub)

	resp := getJSON(t, ts.URL+"/api/weather?lat=38.72&lon=-9.14", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, stub.lastLocation.Lat)
	require.NotNil(t, stub.lastLocation.Lon)
	assert.Equal(t, 38.72, *stub.lastLocation.Lat)
	assert.Equal(t, -9.14, *stub.lastLocation.Lon)
}

func TestWeather_CityWinsOverCoordinates(t *testing.T) {
	for _, query := range []string{
		"?city=Paris&lat=999&lon=10",
		"?city=Paris&lat=north&lon=",
		"?city=Paris&lat=48.85&lon=2.35",
	} {
		stub := newStub()
		ts := newTestServer(t, "key", stub)

		resp := getJSON(t, ts.URL+"/api/weather"+query, nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode, query)
		assert.Equal(t, "Paris", stub.lastLocation.City, query)
		assert.Nil(t, stub.lastLocation.Lat, query)
		assert.Nil(t, stub.lastLocation.Lon, query)
	}
}

func TestWeather_PostJSONCityWinsOverCoordinates(t *testing.T) {
	stub := newStub()
	ts := newTestServer(t, "key", stub)

	resp, err := http.Post(ts.URL+"/api/weather", "application/json",
		bytes.NewBufferString(`{"city":"Paris","lat":999,"lon":10}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Paris", stub.lastLocation.City)
	assert.Nil(t, stub.lastLocation.Lat)
}

func TestWeather_PostJSON(t *testing.T) {
	stub := newStub()
	ts := newTestServer(t, "key", stub)

	resp, err := http.Post(ts.URL+"/api/weather", "application/json", bytes.NewBufferString(`{"city":"Lisbon"}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lisbon", stub.lastLocation.City)
}

func TestWeather_MissingLocationMakesNoUpstreamCalls(t *testing.T) {
	stub := newStub()
	ts := newTestServer(t, "key", stub)

	queries := []string{
		"", "?lat=10", "?lon=10", "?city=",
		"?lat=&lon=", "?city=&lat=&lon=", "?lat=10&lon=", "?lat=&lon=10", "?lat=%20&lon=%20",
	}
	for _, query := range queries {
		var body map[string]interface{}
		resp := getJSON(t, ts.URL+"/api/weather"+query, &body)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, query)
		assert.Equal(t, "provide 'city' or 'lat' and 'lon'", body["error"], query)
	}

	assert.Equal(t, 0, stub.calls())
}

func TestWeather_InvalidCoordinates(t *testing.T) {
	stub := newStub()
	ts := newTestServer(t, "key", stub)

	var body map[string]interface{}
	resp := getJSON(t, ts.URL+"/api/weather?lat=95&lon=10", &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_PARAMS", body["code"])

	resp = getJSON(t, ts.URL+"/api/weather?lat=north&lon=10", &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, 0, stub.calls())
}

func TestWeather_NotConfigured(t *testing.T) {
	stub := newStub()
	ts := newTestServer(t, "", stub)

	var body map[string]interface{}
	resp := getJSON(t, ts.URL+"/api/weather?city=Lisbon", &body)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "WEATHER_API_KEY not configured", body["error"])
	assert.Equal(t, 0, stub.calls())

	resp = getJSON(t, ts.URL+"/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWeather_UpstreamNotFound(t *testing.T) {
	stub := newStub()
	stub.current = nil
	stub.currentErr = &service.UpstreamError{
		Endpoint:   "weather",
		StatusCode: http.StatusNotFound,
		Details:    map[string]interface{}{"cod": "404", "message": "city not found"},
	}
	ts := newTestServer(t, "key", stub)

	var body map[string]interface{}
	resp := getJSON(t, ts.URL+"/api/weather?city=Atlantis", &body)

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "City not found or API error", body["error"])
	assert.Equal(t, map[string]interface{}{"cod": "404", "message": "city not found"}, body["details"])
	assert.Equal(t, 0, stub.forecastCalls)
}

func TestWeather_ForecastFailureStillSucceeds(t *testing.T) {
	stub := newStub()
	stub.forecast = nil
	stub.forecastErr = &service.UpstreamError{Endpoint: "forecast", StatusCode: http.StatusBadGateway}
	ts := newTestServer(t, "key", stub)

	var body map[string]interface{}
	resp := getJSON(t, ts.URL+"/api/weather?city=Lisbon", &body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Lisbon", body["location"])
	assert.Equal(t, []interface{}{}, body["forecast"])
}

func TestIndexPage(t *testing.T) {
	ts := newTestServer(t, "key", newStub())

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, "key", newStub())

	var health map[string]interface{}
	resp := getJSON(t, ts.URL+"/health", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health["status"])

	getJSON(t, ts.URL+"/api/weather?city=Lisbon", nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `weather_upstream_calls_total{endpoint="weather"} 1`)
	assert.Contains(t, out, `weather_upstream_calls_total{endpoint="forecast"} 1`)
	assert.Contains(t, out, `http_requests_total{route_status="GET /api/weather_200"} 1`)
}

func TestRequestIDIsPropagated(t *testing.T) {
	ts := newTestServer(t, "key", newStub())

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health/live", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}
