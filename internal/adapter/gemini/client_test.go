package gemini

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/wildfire-map-service/internal/domain"
	"github.com/couchcryptid/wildfire-map-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey   = "test-key"
	testModel = "gemini-2.0-flash"
)

func testClient(t *testing.T, baseURL string, metrics *observability.Metrics) *Client {
	t.Helper()
	c, err := NewClient(context.Background(), testKey, testModel, baseURL, 5*time.Second, metrics,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

type generateBody struct {
	Contents []struct {
		Role  string `json:"role"`
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"contents"`
}

func TestClient_Generate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, testKey, r.Header.Get("x-goog-api-key"))

		var body generateBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		assert.Equal(t, "user", body.Contents[0].Role)
		require.Len(t, body.Contents[0].Parts, 1)
		assert.Equal(t, "estimate please", body.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"spread_radius\": "},{"text":"1800}"}]}}]}`))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	text, err := testClient(t, srv.URL, metrics).Generate(context.Background(), "estimate please")
	require.NoError(t, err)
	assert.JSONEq(t, `{"spread_radius": 1800}`, text)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues(service, "success")), 0)
}

func TestClient_Generate_NoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL, observability.NewMetricsForTesting()).Generate(context.Background(), "x")
	require.ErrorIs(t, err, domain.ErrNoResult)
}

func TestClient_Generate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`))
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	_, err := testClient(t, srv.URL, metrics).Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "API key not valid")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.UpstreamRequests.WithLabelValues(service, "error")), 0)
}

func TestClient_Generate_MissingKey(t *testing.T) {
	c, err := NewClient(context.Background(), "", testModel, "", time.Second, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "x")
	require.ErrorIs(t, err, ErrMissingAPIKey)
}
