package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vzahanych/weather-brief/internal/service"
)

// WeatherRequest selects a location either by city or by a lat/lon pair. It
// binds from a JSON body on POST; GET goes through WeatherQuery.
type WeatherRequest struct {
	City string   `json:"city" validate:"omitempty,max=200"`
	Lat  *float64 `json:"lat" validate:"omitempty,latitude"`
	Lon  *float64 `json:"lon" validate:"omitempty,longitude"`
}

// WeatherQuery is the raw query string form of WeatherRequest. Empty values
// count as absent.
type WeatherQuery struct {
	City string `form:"city"`
	Lat  string `form:"lat"`
	Lon  string `form:"lon"`
}

// Request converts q into a WeatherRequest. Coordinates are only parsed when
// no city is given, since the city wins.
func (q WeatherQuery) Request() (WeatherRequest, error) {
	req := WeatherRequest{City: q.City}
	if strings.TrimSpace(q.City) != "" {
		return req, nil
	}

	var err error
	if req.Lat, err = parseCoordinate("lat", q.Lat); err != nil {
		return req, err
	}
	if req.Lon, err = parseCoordinate("lon", q.Lon); err != nil {
		return req, err
	}
	return req, nil
}

func parseCoordinate(name, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %q is not a number", name, raw)
	}
	return &v, nil
}

// normalize drops coordinates when a city is present.
func (r *WeatherRequest) normalize() {
	if strings.TrimSpace(r.City) != "" {
		r.Lat, r.Lon = nil, nil
	}
}

func (r WeatherRequest) Location() service.Location {
	return service.Location{City: r.City, Lat: r.Lat, Lon: r.Lon}
}

// ErrorResponse represents an error response with validation
type ErrorResponse struct {
	Error   string      `json:"error" validate:"required,min=1,max=500"`
	Code    string      `json:"code,omitempty" validate:"omitempty,min=1,max=50"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents health check response with validation
type HealthResponse struct {
	Status    string `json:"status" validate:"required,oneof=ok alive ready degraded unavailable"`
	Uptime    string `json:"uptime" validate:"required"`
	Timestamp string `json:"timestamp,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Upstream  string `json:"upstream,omitempty"`
}
