package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultSpreadRadius is used when the model reply carries no usable number.
const DefaultSpreadRadius = 1000

// MaxSpreadRadius caps parsed radii.
const MaxSpreadRadius = math.MaxInt32

// ParseMethod records how a spread radius was read from the model reply.
type ParseMethod string

const (
	ParseStructured ParseMethod = "structured"
	ParseRegex      ParseMethod = "regex"
	ParseDefault    ParseMethod = "default"
)

var (
	digitsRe = regexp.MustCompile(`(\d+)`)

	// codeFenceRe matches a Markdown fenced block, optionally tagged "json".
	codeFenceRe = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// SpreadRequest is the input to a spread estimate. Weather holds the
// caller-supplied values with defaults already applied.
type SpreadRequest struct {
	Location Coordinate
	Weather  Weather
}

// SpreadDefaults returns the weather assumed for values the caller omits:
// 50% humidity, everything else zero.
func SpreadDefaults() Weather {
	return Weather{Humidity: 50}
}

// SpreadEstimate is the result returned to the map client.
type SpreadEstimate struct {
	Latitude     float64     `json:"latitude"`
	Longitude    float64     `json:"longitude"`
	SpreadRadius int         `json:"spread_radius"`
	Method       ParseMethod `json:"-"`
}

// BuildSpreadPrompt renders the model prompt for req.
func BuildSpreadPrompt(req SpreadRequest) string {
	w := req.Weather
	var b strings.Builder
	b.WriteString("You are a wildfire spread prediction model. Calculate a realistic spread radius in meters\n")
	fmt.Fprintf(&b, "for a wildfire at coordinates [%s, %s] with the following conditions:\n\n",
		formatNumber(req.Location.Lat), formatNumber(req.Location.Lon))
	fmt.Fprintf(&b, "- Temperature: %s°C\n", formatNumber(w.Temperature))
	fmt.Fprintf(&b, "- Humidity: %s%%\n", formatNumber(w.Humidity))
	fmt.Fprintf(&b, "- Wind speed: %s m/s\n", formatNumber(w.WindSpeed))
	fmt.Fprintf(&b, "- Wind direction: %s°\n", formatNumber(w.WindDirection))
	fmt.Fprintf(&b, "- Wind gust: %s m/s\n", formatNumber(w.WindGust))
	fmt.Fprintf(&b, "- Rainfall: %smm\n", formatNumber(w.Rain))
	fmt.Fprintf(&b, "- Cloud cover: %s%%\n\n", formatNumber(w.Clouds))
	b.WriteString("Respond with only a JSON object containing a single field 'spread_radius' with a value in meters.\n")
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseSpreadRadius interprets a model reply in three stages:
//  1. JSON: an object's "spread_radius" field (DefaultSpreadRadius when the
//     field is missing), or a bare JSON number. Markdown code fences are
//     stripped first.
//  2. The first run of decimal digits anywhere in the reply.
//  3. DefaultSpreadRadius.
func ParseSpreadRadius(reply string) (int, ParseMethod) {
	if v, ok := parseStructuredRadius(reply); ok {
		return v, ParseStructured
	}
	if m := digitsRe.FindString(reply); m != "" {
		v, err := strconv.ParseInt(m, 10, 32)
		if err != nil {
			// Only a digit run too long for int32 fails here.
			return MaxSpreadRadius, ParseRegex
		}
		return int(v), ParseRegex
	}
	return DefaultSpreadRadius, ParseDefault
}

func parseStructuredRadius(reply string) (int, bool) {
	text := strings.TrimSpace(reply)
	if m := codeFenceRe.FindStringSubmatch(text); len(m) == 2 {
		text = m[1]
	}

	var decoded any
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		return 0, false
	}

	switch v := decoded.(type) {
	case float64:
		return boundedRadius(v)
	case map[string]any:
		raw, ok := v["spread_radius"]
		if !ok {
			return DefaultSpreadRadius, true
		}
		return radiusValue(raw)
	default:
		return 0, false
	}
}

func radiusValue(raw any) (int, bool) {
	switch r := raw.(type) {
	case float64:
		return boundedRadius(r)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(r), 64)
		if err != nil {
			return 0, false
		}
		return boundedRadius(f)
	default:
		return 0, false
	}
}

// boundedRadius rounds f and caps it at MaxSpreadRadius. Negative and
// non-finite values are rejected.
func boundedRadius(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	if f >= MaxSpreadRadius {
		return MaxSpreadRadius, true
	}
	return int(math.Round(f)), true
}

// EstimateSpread prompts gen for a spread radius. Only generator failures
// are returned as errors; an unusable reply degrades to DefaultSpreadRadius.
func EstimateSpread(ctx context.Context, gen TextGenerator, req SpreadRequest) (SpreadEstimate, error) {
	reply, err := gen.Generate(ctx, BuildSpreadPrompt(req))
	if err != nil {
		return SpreadEstimate{}, fmt.Errorf("generate spread estimate: %w", err)
	}
	radius, method := ParseSpreadRadius(reply)
	return SpreadEstimate{
		Latitude:     req.Location.Lat,
		Longitude:    req.Location.Lon,
		SpreadRadius: radius,
		Method:       method,
	}, nil
}
