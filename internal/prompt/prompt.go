package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vzahanych/weather-brief/internal/service"
	"github.com/vzahanych/weather-brief/internal/weather"
	"go.uber.org/zap"
)

const (
	Greeting       = "Weather Bot started! Type 'exit' to quit."
	Prompt         = "City name: "
	ExitCommand    = "exit"
	MsgMissingKey  = "Weather API key missing in .env!"
	MsgCityMissing = "City not found."
)

// CurrentSource looks up current conditions for a location.
type CurrentSource interface {
	GetCurrentConditions(ctx context.Context, loc service.Location) (*weather.Current, error)
}

type Loop struct {
	src    CurrentSource
	logger *zap.Logger
}

func New(src CurrentSource, logger *zap.Logger) *Loop {
	return &Loop{src: src, logger: logger}
}

// Run reads one city per line from in and answers on out until it reads
// "exit" (any case), in is exhausted, or ctx is cancelled.
func (l *Loop) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if _, err := fmt.Fprintln(out, Greeting); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines, scanErr := readLines(ctx, in)

	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := fmt.Fprint(out, Prompt); err != nil {
			return err
		}

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case text, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				if ctx.Err() != nil {
					return nil
				}
				return <-scanErr
			}
			line = text
		}

		city := strings.TrimSpace(line)
		if city == "" {
			continue
		}
		if strings.EqualFold(city, ExitCommand) {
			return nil
		}

		if _, err := fmt.Fprintln(out, l.answer(ctx, city)); err != nil {
			return err
		}
	}
}

// readLines scans in on its own goroutine so that a blocked read does not
// keep Run from noticing cancellation. Exactly one value is sent on the error
// channel however the goroutine ends.
func readLines(ctx context.Context, in io.Reader) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				errc <- nil
				return
			}
		}
		errc <- scanner.Err()
	}()

	return lines, errc
}

func (l *Loop) answer(ctx context.Context, city string) string {
	cur, err := l.src.GetCurrentConditions(ctx, service.CityLocation(city))
	if err != nil {
		l.logger.Debug("Lookup failed", zap.String("city", city), zap.Error(err))
		if errors.Is(err, service.ErrNotConfigured) {
			return MsgMissingKey
		}
		return MsgCityMissing
	}

	return Format(city, cur)
}

// Format renders the one-line answer for a successful lookup.
func Format(city string, cur *weather.Current) string {
	temp := strconv.FormatFloat(cur.Temp, 'f', -1, 64)
	return fmt.Sprintf("Weather in %s: %s°C, %s", city, temp, cur.Desc)
}
