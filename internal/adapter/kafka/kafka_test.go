package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/wildfire-map-service/internal/domain"
	"github.com/couchcryptid/wildfire-map-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafkago.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func enrichedMarker(id, country string) domain.Marker {
	m := domain.Marker{ID: id, Location: domain.Coordinate{Lon: -120.5, Lat: 38.25}}
	return m.WithEnrichment(domain.Enrichment{
		Weather: domain.Weather{Temperature: 31.5, Humidity: 12},
		Place:   domain.Place{Country: country, State: "California"},
	})
}

func newTestPublisher(w *fakeWriter, now time.Time) (*Publisher, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return &Publisher{
		writer:  w,
		clock:   clockwork.NewFakeClockAt(now),
		metrics: m,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, m
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 8, 2, 6, 0, 0, 0, time.UTC)
	msg, err := serializeToMessage(enrichedMarker("66ac1f", "United States"), "evt-1", now)
	require.NoError(t, err)

	assert.Equal(t, []byte("66ac1f"), msg.Key)
	assert.Contains(t, string(msg.Value), `"location":[-120.5,38.25]`)
	assert.Contains(t, string(msg.Value), `"_id":"66ac1f"`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "event_id", msg.Headers[0].Key)
	assert.Equal(t, []byte("evt-1"), msg.Headers[0].Value)
	assert.Equal(t, "country", msg.Headers[1].Key)
	assert.Equal(t, []byte("United States"), msg.Headers[1].Value)
	assert.Equal(t, "published_at", msg.Headers[2].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[2].Value)
}

func TestPublishMarkers_SkipsBareMarkers(t *testing.T) {
	w := &fakeWriter{}
	p, m := newTestPublisher(w, time.Now())

	markers := []domain.Marker{
		enrichedMarker("a", "Canada"),
		{ID: "b", Location: domain.Coordinate{Lon: 1, Lat: 2}},
		enrichedMarker("c", "Chile"),
	}
	require.NoError(t, p.PublishMarkers(context.Background(), markers))

	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("a"), w.msgs[0].Key)
	assert.Equal(t, []byte("c"), w.msgs[1].Key)
	_, err := uuid.ParseBytes(w.msgs[0].Headers[0].Value)
	assert.NoError(t, err, "event_id should be a UUID")
	assert.NotEqual(t, w.msgs[0].Headers[0].Value, w.msgs[1].Headers[0].Value)
	assert.InDelta(t, 2, testutil.ToFloat64(m.MarkersPublished), 0)
}

func TestPublishMarkers_NothingEnriched(t *testing.T) {
	w := &fakeWriter{err: errors.New("should not be called")}
	p, _ := newTestPublisher(w, time.Now())

	err := p.PublishMarkers(context.Background(), []domain.Marker{{ID: "b"}})
	require.NoError(t, err)
}

func TestPublishMarkers_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p, m := newTestPublisher(w, time.Now())

	err := p.PublishMarkers(context.Background(), []domain.Marker{enrichedMarker("a", "Peru")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	assert.InDelta(t, 0, testutil.ToFloat64(m.MarkersPublished), 0)
}
