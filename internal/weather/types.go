package weather

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// StatusCode is the upstream "cod" field. OpenWeatherMap sends it as a number
// on success and as a string on most errors, so both are accepted.
type StatusCode int

func (s *StatusCode) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}

	raw := data
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		raw = []byte(str)
	}

	code, err := strconv.Atoi(string(raw))
	if err != nil {
		return fmt.Errorf("invalid status code %s: %w", data, err)
	}
	*s = StatusCode(code)
	return nil
}

func (s StatusCode) OK() bool {
	return s == 200
}

type RawCondition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type RawMain struct {
	Temp      *float64 `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
}

// RawCurrent is the upstream current-weather record.
type RawCurrent struct {
	Cod     StatusCode     `json:"cod"`
	Message string         `json:"message,omitempty"`
	Name    string         `json:"name"`
	Main    RawMain        `json:"main"`
	Weather []RawCondition `json:"weather"`
	Sys     struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// RawEntry is one 3-hourly forecast entry. Dt is a unix timestamp in UTC.
type RawEntry struct {
	Dt      int64          `json:"dt"`
	Main    RawMain        `json:"main"`
	Weather []RawCondition `json:"weather"`
}

func (e RawEntry) usable() bool {
	return e.Main.Temp != nil && len(e.Weather) > 0
}

// RawForecast is the upstream 5-day/3-hour forecast payload. City.Timezone
// is the location's UTC offset in seconds.
type RawForecast struct {
	Cod  StatusCode `json:"cod"`
	List []RawEntry `json:"list"`
	City struct {
		Name     string `json:"name"`
		Country  string `json:"country"`
		Timezone int    `json:"timezone"`
	} `json:"city"`
}

type Current struct {
	Temp      float64  `json:"temp"`
	FeelsLike *float64 `json:"feels_like"`
	Desc      string   `json:"desc"`
	Icon      string   `json:"icon"`

	Location string `json:"-"`
	Country  string `json:"-"`
}

type DailySummary struct {
	Date string  `json:"date"`
	Temp float64 `json:"temp"`
	Desc string  `json:"desc"`
	Icon string  `json:"icon"`
}

// Result is the normalized response served to clients.
type Result struct {
	Location string         `json:"location"`
	Country  string         `json:"country"`
	Current  *Current       `json:"current"`
	Forecast []DailySummary `json:"forecast"`
}

func NewResult(cur *Current, forecast []DailySummary) *Result {
	if forecast == nil {
		forecast = []DailySummary{}
	}
	return &Result{
		Location: cur.Location,
		Country:  cur.Country,
		Current:  cur,
		Forecast: forecast,
	}
}
