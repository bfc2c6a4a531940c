package weather

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsuccessful means the upstream record did not report success.
	ErrUnsuccessful = errors.New("upstream lookup unsuccessful")
	// ErrIncomplete means a successful record lacked required fields.
	ErrIncomplete = errors.New("upstream record incomplete")
)

// ExtractCurrent picks the fields served to clients out of a current-weather
// record.
func ExtractCurrent(raw *RawCurrent) (*Current, error) {
	if raw == nil {
		return nil, ErrUnsuccessful
	}
	if !raw.Cod.OK() {
		if raw.Message != "" {
			return nil, fmt.Errorf("%w: %d %s", ErrUnsuccessful, raw.Cod, raw.Message)
		}
		return nil, fmt.Errorf("%w: status %d", ErrUnsuccessful, raw.Cod)
	}
	if raw.Main.Temp == nil {
		return nil, fmt.Errorf("%w: missing main.temp", ErrIncomplete)
	}
	if len(raw.Weather) == 0 {
		return nil, fmt.Errorf("%w: missing weather conditions", ErrIncomplete)
	}

	return &Current{
		Temp:      *raw.Main.Temp,
		FeelsLike: raw.Main.FeelsLike,
		Desc:      raw.Weather[0].Description,
		Icon:      raw.Weather[0].Icon,
		Location:  raw.Name,
		Country:   raw.Sys.Country,
	}, nil
}
