package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/vzahanych/weather-brief/internal/weather"
)

var (
	ErrNotConfigured = errors.New("WEATHER_API_KEY not configured")
	ErrNoLocation    = errors.New("provide 'city' or 'lat' and 'lon'")
)

type WeatherClient interface {
	CurrentWeather(ctx context.Context, loc Location) (*weather.RawCurrent, error)
	Forecast(ctx context.Context, loc Location) (*weather.RawForecast, error)
	Name() string
}

// Location selects a place either by city name or by coordinates. A non-empty
// City takes precedence; coordinates are only used when both are set.
type Location struct {
	City string
	Lat  *float64
	Lon  *float64
}

func CityLocation(city string) Location {
	return Location{City: city}
}

func CoordinatesLocation(lat, lon float64) Location {
	return Location{Lat: &lat, Lon: &lon}
}

func (l Location) hasCity() bool {
	return strings.TrimSpace(l.City) != ""
}

func (l Location) hasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

func (l Location) IsZero() bool {
	return !l.hasCity() && !l.hasCoordinates()
}

func (l Location) String() string {
	switch {
	case l.hasCity():
		return strings.TrimSpace(l.City)
	case l.hasCoordinates():
		return fmt.Sprintf("%s,%s", formatCoord(*l.Lat), formatCoord(*l.Lon))
	default:
		return ""
	}
}

func (l Location) apply(q url.Values) {
	switch {
	case l.hasCity():
		q.Set("q", strings.TrimSpace(l.City))
	case l.hasCoordinates():
		q.Set("lat", formatCoord(*l.Lat))
		q.Set("lon", formatCoord(*l.Lon))
	}
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// UpstreamError is a non-success HTTP response from the weather API. Details
// holds the decoded JSON body when it parses, otherwise the raw text.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Details    interface{}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: API error (status %d)", e.Endpoint, e.StatusCode)
}
