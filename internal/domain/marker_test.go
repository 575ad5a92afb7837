package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateFromPair(t *testing.T) {
	c, err := CoordinateFromPair([]float64{-120.5, 38.1})
	require.NoError(t, err)
	assert.Equal(t, Coordinate{Lon: -120.5, Lat: 38.1}, c)
	assert.Equal(t, [2]float64{-120.5, 38.1}, c.Pair())

	_, err = CoordinateFromPair([]float64{10.0})
	require.Error(t, err)
}

func TestMarker_MarshalJSON(t *testing.T) {
	t.Run("bare marker omits enrichment", func(t *testing.T) {
		m := Marker{ID: "65f0c2", Location: Coordinate{Lon: -120.5, Lat: 38.1}}
		data, err := json.Marshal(m)
		require.NoError(t, err)
		assert.JSONEq(t, `{"_id":"65f0c2","location":[-120.5,38.1]}`, string(data))
		assert.False(t, m.Enriched())
	})

	t.Run("enriched marker", func(t *testing.T) {
		m := Marker{ID: "65f0c2", Location: Coordinate{Lon: -120.5, Lat: 38.1}}.WithEnrichment(Enrichment{
			Weather: Weather{Temperature: 30, Humidity: 12, WindSpeed: 5, WindDirection: 90, WindGust: 9, Rain: 0, Clouds: 0},
			Place:   Place{Country: "United States", State: "California"},
		})
		assert.True(t, m.Enriched())

		data, err := json.Marshal(m)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"_id":"65f0c2","location":[-120.5,38.1],
			"temperature":30,"humidity":12,"wind_speed":5,"wind_direction":90,
			"wind_gust":9,"rain":0,"clouds":0,
			"country":"United States","state":"California"
		}`, string(data))

		var back Marker
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, m.Location, back.Location)
		require.NotNil(t, back.State)
		assert.Equal(t, "California", *back.State)
	})
}
