package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/wildfire-map-service/internal/domain"
	"github.com/couchcryptid/wildfire-map-service/internal/observability"
)

const service = "openweather"

// ErrIncompleteResponse is returned when a 200 response lacks a required field.
var ErrIncompleteResponse = errors.New("incomplete weather response")

// Client implements domain.WeatherProvider using the OpenWeatherMap
// current weather API in metric units.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// CurrentWeather returns the current conditions at lat/lon. It makes exactly
// one request; retries and fallbacks belong to the caller.
func (c *Client) CurrentWeather(ctx context.Context, lat, lon float64) (domain.Weather, error) {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"metric"},
	}
	u := c.baseURL + "/data/2.5/weather?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Weather{}, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		return domain.Weather{}, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Weather{}, fmt.Errorf("openweather API error: status %d: %s", resp.StatusCode, body)
	}

	var owm response
	if err := json.NewDecoder(resp.Body).Decode(&owm); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		return domain.Weather{}, fmt.Errorf("decode response: %w", err)
	}

	w, err := owm.toWeather()
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(service, "empty").Inc()
		return domain.Weather{}, err
	}
	c.metrics.UpstreamRequests.WithLabelValues(service, "success").Inc()
	return w, nil
}

// OpenWeatherMap API response types. Pointers distinguish missing fields
// from zero values.

type response struct {
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity *float64 `json:"humidity"`
	} `json:"main"`
	Wind *struct {
		Speed *float64 `json:"speed"`
		Deg   *float64 `json:"deg"`
		Gust  *float64 `json:"gust"`
	} `json:"wind"`
	Rain *struct {
		OneHour *float64 `json:"1h"`
	} `json:"rain"`
	Clouds *struct {
		All *float64 `json:"all"`
	} `json:"clouds"`
}

// noGust is stored when the station reports no gust.
const noGust = 0

func (r response) toWeather() (domain.Weather, error) {
	switch {
	case r.Main == nil || r.Main.Temp == nil || r.Main.Humidity == nil:
		return domain.Weather{}, fmt.Errorf("%w: main", ErrIncompleteResponse)
	case r.Wind == nil || r.Wind.Speed == nil || r.Wind.Deg == nil:
		return domain.Weather{}, fmt.Errorf("%w: wind", ErrIncompleteResponse)
	case r.Clouds == nil || r.Clouds.All == nil:
		return domain.Weather{}, fmt.Errorf("%w: clouds", ErrIncompleteResponse)
	}

	w := domain.Weather{
		Temperature:   *r.Main.Temp,
		Humidity:      *r.Main.Humidity,
		WindSpeed:     *r.Wind.Speed,
		WindDirection: *r.Wind.Deg,
		WindGust:      noGust,
		Clouds:        *r.Clouds.All,
	}
	if r.Wind.Gust != nil {
		w.WindGust = *r.Wind.Gust
	}
	if r.Rain != nil && r.Rain.OneHour != nil {
		w.Rain = *r.Rain.OneHour
	}
	return w, nil
}
