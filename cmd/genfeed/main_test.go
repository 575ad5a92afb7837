package main

import (
	"bytes"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/couchcryptid/wildfire-map-service/internal/adapter/firms"
	"github.com/couchcryptid/wildfire-map-service/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFeed_ParsesAsFIRMS(t *testing.T) {
	var buf bytes.Buffer
	day := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, writeFeed(&buf, 560, rand.New(rand.NewPCG(7, 7)), clockwork.NewFakeClockAt(day)))

	locs, err := firms.ParseCSV(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, locs, 560)
	for _, l := range locs {
		assert.True(t, l.Lat >= -90 && l.Lat <= 90)
		assert.True(t, l.Lon >= -180 && l.Lon <= 180)
	}
	assert.Len(t, domain.StrideSample(locs, 280), 2)
}

func TestWriteFeed_Deterministic(t *testing.T) {
	gen := func() string {
		var buf bytes.Buffer
		require.NoError(t, writeFeed(&buf, 20, rand.New(rand.NewPCG(1, 1)), clockwork.NewFakeClock()))
		return buf.String()
	}
	assert.Equal(t, gen(), gen())
}
