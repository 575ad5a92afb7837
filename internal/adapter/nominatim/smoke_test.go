//go:build smoke

package nominatim

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/wildfire-map-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the public Nominatim instance.
// Run with: go test -tags=smoke ./internal/adapter/nominatim/ -v -count=1

func smokeClient() *Client {
	return NewClient("https://nominatim.openstreetmap.org", "wildfire-map-service/smoke-test", 1, 10*time.Second,
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestSmoke_LocationName(t *testing.T) {
	place, err := smokeClient().LocationName(context.Background(), 34.0522, -118.2437)
	require.NoError(t, err)

	assert.Equal(t, "United States", place.Country)
	assert.Equal(t, "California", place.State)
}

func TestSmoke_LocationName_Ocean(t *testing.T) {
	// Mid-Pacific returns an error payload rather than an address.
	_, err := smokeClient().LocationName(context.Background(), 0, -150)
	require.Error(t, err)
}
