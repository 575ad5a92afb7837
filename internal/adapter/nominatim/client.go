package nominatim

import (
	"context"
	"encoding/json"
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
	"golang.org/x/time/rate"
)

const service = "nominatim"

// Client implements domain.LocationResolver using Nominatim reverse geocoding.
// Requests are throttled client-side; the public instance allows one per second.
type Client struct {
	userAgent  string
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client limited to perSecond requests.
func NewClient(baseURL, userAgent string, perSecond float64, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(rate.Limit(perSecond), 1),
		metrics: metrics,
		logger:  logger,
	}
}

// LocationName resolves lat/lon to a country and a first-level region.
// The region is the first present of state, county, province.
func (c *Client) LocationName(ctx context.Context, lat, lon float64) (domain.Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Place{}, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{
		"format":          {"jsonv2"},
		"lat":             {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":             {strconv.FormatFloat(lon, 'f', -1, 64)},
		"zoom":            {"10"},
		"accept-language": {"en"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return domain.Place{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		return domain.Place{}, fmt.Errorf("reverse geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Place{}, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var nr response
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		return domain.Place{}, fmt.Errorf("decode response: %w", err)
	}

	place, ok := nr.toPlace()
	if !ok {
		c.metrics.UpstreamRequests.WithLabelValues(service, "empty").Inc()
		if nr.Error != "" {
			return domain.Place{}, fmt.Errorf("%w: %s", domain.ErrNoResult, nr.Error)
		}
		return domain.Place{}, domain.ErrNoResult
	}
	c.metrics.UpstreamRequests.WithLabelValues(service, "success").Inc()
	return place, nil
}

// Nominatim API response types.

type response struct {
	Error   string  `json:"error"`
	Address address `json:"address"`
}

type address struct {
	Country  string `json:"country"`
	State    string `json:"state"`
	County   string `json:"county"`
	Province string `json:"province"`
}

func (r response) toPlace() (domain.Place, bool) {
	region := firstNonEmpty(r.Address.State, r.Address.County, r.Address.Province)
	if r.Error != "" || (r.Address.Country == "" && region == "") {
		return domain.Place{}, false
	}
	return domain.Place{
		Country: firstNonEmpty(r.Address.Country, domain.UnknownValue),
		State:   firstNonEmpty(region, domain.UnknownValue),
	}, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
