package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/wildfire-map-service/internal/domain"
	"github.com/couchcryptid/wildfire-map-service/internal/observability"
	"google.golang.org/genai"
)

const service = "gemini"

// ErrMissingAPIKey is returned by Generate when the client was built without a key.
var ErrMissingAPIKey = errors.New("gemini API key not configured")

// Client implements domain.TextGenerator on top of the Gemini Developer API SDK.
type Client struct {
	models  *genai.Models
	model   string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewClient creates a Gemini client for the given model, e.g. "gemini-2.0-flash".
// An empty baseURL uses the SDK default endpoint. An empty apiKey yields a
// client whose Generate calls fail with ErrMissingAPIKey.
func NewClient(ctx context.Context, apiKey, model, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) (*Client, error) {
	c := &Client{model: model, metrics: metrics, logger: logger}
	if apiKey == "" {
		logger.Warn("gemini API key not set, spread estimates will fail")
		return c, nil
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.models = gc.Models
	return c, nil
}

// Generate sends prompt as a single user turn and returns the text of the
// first candidate, with all of its text parts concatenated.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.models == nil {
		return "", ErrMissingAPIKey
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	c.metrics.UpstreamDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(service, "error").Inc()
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	if len(resp.Candidates) == 0 {
		c.metrics.UpstreamRequests.WithLabelValues(service, "empty").Inc()
		return "", fmt.Errorf("gemini returned no candidates: %w", domain.ErrNoResult)
	}

	text := resp.Text()
	c.metrics.UpstreamRequests.WithLabelValues(service, "success").Inc()
	c.logger.Debug("gemini reply", "model", c.model, "chars", len(text))
	return text, nil
}
