package prompt

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vzahanych/weather-brief/internal/aggregator"
	"github.com/vzahanych/weather-brief/internal/config"
	"github.com/vzahanych/weather-brief/internal/service"
	"github.com/vzahanych/weather-brief/internal/weather"
	"github.com/vzahanych/weather-brief/pkg/telemetry"
	"go.uber.org/zap/zaptest"
)

type fakeClient struct {
	temps map[string]float64
	calls []string
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) CurrentWeather(ctx context.Context, loc service.Location) (*weather.RawCurrent, error) {
	f.calls = append(f.calls, loc.City)
	temp, ok := f.temps[loc.City]
	if !ok {
		return &weather.RawCurrent{Cod: 404, Message: "city not found"}, nil
	}
	return &weather.RawCurrent{
		Cod:     200,
		Name:    loc.City,
		Main:    weather.RawMain{Temp: &temp},
		Weather: []weather.RawCondition{{Description: "overcast clouds", Icon: "04d"}},
	}, nil
}

func (f *fakeClient) Forecast(ctx context.Context, loc service.Location) (*weather.RawForecast, error) {
	f.calls = append(f.calls, "forecast:"+loc.City)
	return nil, nil
}

func newLoop(t *testing.T, apiKey string, client *fakeClient) *Loop {
	logger := zaptest.NewLogger(t)
	agg := aggregator.NewAggregator(config.WeatherConfig{APIKey: apiKey}, client, logger, &telemetry.Telemetry{})
	return New(agg, logger)
}

func TestRun_AnswersUntilExit(t *testing.T) {
	client := &fakeClient{temps: map[string]float64{"Berlin": 17.5, "Cairo": 31}}
	in := strings.NewReader("Berlin\n\nAtlantis\nCairo\nExIt\nBerlin\n")
	var out bytes.Buffer

	require.NoError(t, newLoop(t, "key", client).Run(context.Background(), in, &out))

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, Greeting, lines[0])
	assert.Contains(t, out.String(), Prompt+"Weather in Berlin: 17.5°C, overcast clouds\n")
	assert.Contains(t, out.String(), Prompt+"City not found.\n")
	assert.Contains(t, out.String(), Prompt+"Weather in Cairo: 31°C, overcast clouds\n")

	assert.Equal(t, []string{"Berlin", "Atlantis", "Cairo"}, client.calls)
}

func TestRun_MissingKeyMakesNoCalls(t *testing.T) {
	client := &fakeClient{temps: map[string]float64{"Berlin": 17.5}}
	var out bytes.Buffer

	require.NoError(t, newLoop(t, "", client).Run(context.Background(), strings.NewReader("Berlin\nexit\n"), &out))

	assert.Contains(t, out.String(), MsgMissingKey)
	assert.Empty(t, client.calls)
}

func TestRun_StopsAtEOF(t *testing.T) {
	client := &fakeClient{temps: map[string]float64{"Lima": 19}}
	var out bytes.Buffer

	require.NoError(t, newLoop(t, "key", client).Run(context.Background(), strings.NewReader("Lima"), &out))

	assert.Contains(t, out.String(), "Weather in Lima: 19°C, overcast clouds")
}

func TestRun_CancelledContext(t *testing.T) {
	client := &fakeClient{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	require.NoError(t, newLoop(t, "key", client).Run(ctx, strings.NewReader("Berlin\n"), &out))

	assert.Equal(t, Greeting+"\n", out.String())
	assert.Empty(t, client.calls)
}

func TestReadLines_CancelledAlwaysReportsCompletion(t *testing.T) {
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		lines, errc := readLines(ctx, strings.NewReader("Berlin\nParis\nRome\n"))
		for range lines {
		}

		select {
		case err := <-errc:
			assert.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("reader goroutine ended without reporting")
		}
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "Weather in Oslo: -3.25°C, snow", Format("Oslo", &weather.Current{Temp: -3.25, Desc: "snow"}))
}
