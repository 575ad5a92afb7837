package domain

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
)

// WeatherSource records which lookup produced a marker's weather.
type WeatherSource string

const (
	WeatherPrimary   WeatherSource = "primary"
	WeatherRounded   WeatherSource = "rounded"
	WeatherSynthetic WeatherSource = "synthetic"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within r.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// SyntheticRanges bounds the values drawn by SyntheticWeather.
var SyntheticRanges = struct {
	Temperature   Range
	Humidity      Range
	WindSpeed     Range
	WindDirection Range
	WindGust      Range
	Rain          Range
	Clouds        Range
}{
	Temperature:   Range{Min: -10, Max: 50},
	Humidity:      Range{Min: 10, Max: 90},
	WindSpeed:     Range{Min: 0, Max: 50},
	WindDirection: Range{Min: 0, Max: 360},
	WindGust:      Range{Min: 0, Max: 50},
	Rain:          Range{Min: 0, Max: 20},
	Clouds:        Range{Min: 0, Max: 100},
}

// Rand is the subset of *rand.Rand used to synthesize weather.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.IntN(n) }

// SyntheticWeather draws every weather field independently from
// SyntheticRanges. Humidity, wind direction and cloud cover are whole
// numbers. A nil r uses the process-wide generator.
func SyntheticWeather(r Rand) Weather {
	if r == nil {
		r = globalRand{}
	}
	s := SyntheticRanges
	return Weather{
		Temperature:   uniform(r, s.Temperature),
		Humidity:      integer(r, s.Humidity),
		WindSpeed:     uniform(r, s.WindSpeed),
		WindDirection: integer(r, s.WindDirection),
		WindGust:      uniform(r, s.WindGust),
		Rain:          uniform(r, s.Rain),
		Clouds:        integer(r, s.Clouds),
	}
}

func uniform(r Rand, rg Range) float64 {
	v := rg.Min + r.Float64()*(rg.Max-rg.Min)
	return math.Round(v*100) / 100
}

func integer(r Rand, rg Range) float64 {
	return rg.Min + float64(r.IntN(int(rg.Max-rg.Min)+1))
}

// RoundCoordinate rounds both components to one decimal place.
func RoundCoordinate(c Coordinate) Coordinate {
	return Coordinate{
		Lon: math.Round(c.Lon*10) / 10,
		Lat: math.Round(c.Lat*10) / 10,
	}
}

// ResolveWeather looks up weather for c, retrying once with a rounded
// coordinate and finally falling back to synthetic values. It never fails.
func ResolveWeather(ctx context.Context, provider WeatherProvider, c Coordinate, r Rand, logger *slog.Logger) (Weather, WeatherSource) {
	if provider != nil {
		w, err := provider.CurrentWeather(ctx, c.Lat, c.Lon)
		if err == nil {
			return w, WeatherPrimary
		}
		logger.Debug("weather lookup failed, retrying rounded",
			"lat", c.Lat,
			"lon", c.Lon,
			"error", err,
		)

		rc := RoundCoordinate(c)
		w, err = provider.CurrentWeather(ctx, rc.Lat, rc.Lon)
		if err == nil {
			return w, WeatherRounded
		}
		logger.Warn("weather lookup failed, using synthetic values",
			"lat", c.Lat,
			"lon", c.Lon,
			"error", err,
		)
	}
	return SyntheticWeather(r), WeatherSynthetic
}

// ResolvePlace reverse-geocodes c, substituting UnknownPlace on failure.
// The second return value reports whether the lookup succeeded.
func ResolvePlace(ctx context.Context, resolver LocationResolver, c Coordinate, logger *slog.Logger) (Place, bool) {
	if resolver == nil {
		return UnknownPlace, false
	}
	p, err := resolver.LocationName(ctx, c.Lat, c.Lon)
	if err != nil {
		logger.Warn("location lookup failed",
			"lat", c.Lat,
			"lon", c.Lon,
			"error", err,
		)
		return UnknownPlace, false
	}
	return p, true
}
