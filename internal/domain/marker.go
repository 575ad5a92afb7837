package domain

import (
	"encoding/json"
	"fmt"
)

// Coordinate is a WGS-84 longitude/latitude pair.
type Coordinate struct {
	Lon float64
	Lat float64
}

// Pair returns the coordinate in storage order: [longitude, latitude].
func (c Coordinate) Pair() [2]float64 {
	return [2]float64{c.Lon, c.Lat}
}

// CoordinateFromPair builds a Coordinate from a [longitude, latitude] slice.
func CoordinateFromPair(pair []float64) (Coordinate, error) {
	if len(pair) != 2 {
		return Coordinate{}, fmt.Errorf("location must have 2 elements, got %d", len(pair))
	}
	return Coordinate{Lon: pair[0], Lat: pair[1]}, nil
}

// Weather holds the fixed set of weather attributes attached to a marker.
type Weather struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection float64 `json:"wind_direction"`
	WindGust      float64 `json:"wind_gust"`
	Rain          float64 `json:"rain"`
	Clouds        float64 `json:"clouds"`
}

// Place holds administrative names resolved for a coordinate.
type Place struct {
	Country string `json:"country"`
	State   string `json:"state"`
}

// UnknownValue is the sentinel stored when a location cannot be resolved.
const UnknownValue = "Unknown"

// UnknownPlace is substituted when reverse geocoding fails.
var UnknownPlace = Place{Country: UnknownValue, State: UnknownValue}

// Enrichment is the merged metadata written onto a stored marker.
type Enrichment struct {
	Weather Weather
	Place   Place
}

// Marker is one sampled fire detection plus optional enrichment. Weather and
// place fields stay nil until the enrichment pass has run for the marker.
type Marker struct {
	ID       string
	Location Coordinate

	Temperature   *float64
	Humidity      *float64
	WindSpeed     *float64
	WindDirection *float64
	WindGust      *float64
	Rain          *float64
	Clouds        *float64

	Country *string
	State   *string
}

// Enriched reports whether weather and place metadata have been attached.
func (m Marker) Enriched() bool {
	return m.Temperature != nil && m.Country != nil
}

// WithEnrichment returns a copy of m with every enrichment field set.
func (m Marker) WithEnrichment(e Enrichment) Marker {
	w := e.Weather
	m.Temperature = &w.Temperature
	m.Humidity = &w.Humidity
	m.WindSpeed = &w.WindSpeed
	m.WindDirection = &w.WindDirection
	m.WindGust = &w.WindGust
	m.Rain = &w.Rain
	m.Clouds = &w.Clouds
	country, state := e.Place.Country, e.Place.State
	m.Country = &country
	m.State = &state
	return m
}

// markerJSON is the wire shape served to the map client.
type markerJSON struct {
	ID            string     `json:"_id"`
	Location      [2]float64 `json:"location"`
	Temperature   *float64   `json:"temperature,omitempty"`
	Humidity      *float64   `json:"humidity,omitempty"`
	WindSpeed     *float64   `json:"wind_speed,omitempty"`
	WindDirection *float64   `json:"wind_direction,omitempty"`
	WindGust      *float64   `json:"wind_gust,omitempty"`
	Rain          *float64   `json:"rain,omitempty"`
	Clouds        *float64   `json:"clouds,omitempty"`
	Country       *string    `json:"country,omitempty"`
	State         *string    `json:"state,omitempty"`
}

// MarshalJSON encodes the marker with its location as a [lon, lat] array.
func (m Marker) MarshalJSON() ([]byte, error) {
	return json.Marshal(markerJSON{
		ID:            m.ID,
		Location:      m.Location.Pair(),
		Temperature:   m.Temperature,
		Humidity:      m.Humidity,
		WindSpeed:     m.WindSpeed,
		WindDirection: m.WindDirection,
		WindGust:      m.WindGust,
		Rain:          m.Rain,
		Clouds:        m.Clouds,
		Country:       m.Country,
		State:         m.State,
	})
}

// UnmarshalJSON decodes the wire shape produced by MarshalJSON.
func (m *Marker) UnmarshalJSON(data []byte) error {
	var v markerJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Marker{
		ID:            v.ID,
		Location:      Coordinate{Lon: v.Location[0], Lat: v.Location[1]},
		Temperature:   v.Temperature,
		Humidity:      v.Humidity,
		WindSpeed:     v.WindSpeed,
		WindDirection: v.WindDirection,
		WindGust:      v.WindGust,
		Rain:          v.Rain,
		Clouds:        v.Clouds,
		Country:       v.Country,
		State:         v.State,
	}
	return nil
}

// Credential is a registered username/password pair. Passwords are stored
// and compared as plain text.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
