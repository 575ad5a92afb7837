//go:build smoke

package openweather

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/wildfire-map-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real OpenWeatherMap API and require OPENWEATHER_API_KEY.
// Run with: go test -tags=smoke ./internal/adapter/openweather/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	key := os.Getenv("OPENWEATHER_API_KEY")
	if key == "" {
		t.Fatal("OPENWEATHER_API_KEY must be set to run smoke tests")
	}
	return NewClient(key, "https://api.openweathermap.org", 10*time.Second,
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_CurrentWeather(t *testing.T) {
	w, err := smokeClient(t).CurrentWeather(context.Background(), 38.5816, -121.4944)
	require.NoError(t, err)

	assert.Greater(t, w.Temperature, -60.0)
	assert.Less(t, w.Temperature, 60.0)
	assert.GreaterOrEqual(t, w.Humidity, 0.0)
	assert.LessOrEqual(t, w.Clouds, 100.0)
}
