package firms

import (
	"context"
	"encoding/csv"
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

const service = "firms"

// Client implements domain.FireFeed using the NASA FIRMS area CSV API.
type Client struct {
	mapKey     string
	source     string
	area       string
	days       int
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Options selects which detections the feed returns.
type Options struct {
	MapKey  string
	BaseURL string
	Source  string // sensor product, e.g. VIIRS_SNPP_NRT
	Area    string // "world" or west,south,east,north
	Days    int    // 1..10
	Timeout time.Duration
}

// NewClient creates a FIRMS feed client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		mapKey:     opts.MapKey,
		source:     opts.Source,
		area:       opts.Area,
		days:       opts.Days,
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchFireLocations downloads the configured area CSV and returns one
// coordinate per record that has parseable latitude and longitude columns.
func (c *Client) FetchFireLocations(ctx context.Context) ([]domain.Coordinate, error) {
	u := fmt.Sprintf("%s/api/area/csv/%s/%s/%s/%d",
		c.baseURL, url.PathEscape(c.mapKey), url.PathEscape(c.source), url.PathEscape(c.area), c.days)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.UpstreamDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		return nil, fmt.Errorf("firms request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("firms API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	coords, err := ParseCSV(resp.Body)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		return nil, err
	}
	if len(coords) == 0 {
		c.metrics.UpstreamRequests.WithLabelValues(service, "empty").Inc()
	} else {
		c.metrics.UpstreamRequests.WithLabelValues(service, "success").Inc()
	}
	c.logger.Debug("firms feed fetched", "rows", len(coords), "source", c.source, "area", c.area)
	return coords, nil
}

// ParseCSV reads a header-tagged FIRMS CSV. Records without a parseable
// "latitude" and "longitude" are skipped. An empty body yields no coordinates.
func ParseCSV(r io.Reader) ([]domain.Coordinate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	latIdx, lonIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "latitude":
			latIdx = i
		case "longitude":
			lonIdx = i
		}
	}
	if latIdx < 0 || lonIdx < 0 {
		return nil, nil
	}

	var coords []domain.Coordinate
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return coords, fmt.Errorf("read csv record: %w", err)
		}
		if latIdx >= len(rec) || lonIdx >= len(rec) {
			continue
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(rec[latIdx]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(rec[lonIdx]), 64)
		if errLat != nil || errLon != nil {
			continue
		}
		coords = append(coords, domain.Coordinate{Lon: lon, Lat: lat})
	}
	return coords, nil
}
