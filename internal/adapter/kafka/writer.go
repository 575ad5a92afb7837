package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/wildfire-map-service/internal/domain"
	"github.com/couchcryptid/wildfire-map-service/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher produces marker events to a Kafka topic.
// It implements pipeline.MarkerPublisher.
type Publisher struct {
	writer  messageWriter
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// NewPublisher creates a Kafka producer for topic.
func NewPublisher(brokers []string, topic string, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Publisher{writer: w, clock: clock, metrics: metrics, logger: logger}
}

// PublishMarkers publishes every enriched marker in a single WriteMessages
// call. Markers without enrichment are left out.
func (p *Publisher) PublishMarkers(ctx context.Context, markers []domain.Marker) error {
	now := p.clock.Now().UTC()
	msgs := make([]kafkago.Message, 0, len(markers))
	for i := range markers {
		if !markers[i].Enriched() {
			continue
		}
		msg, err := serializeToMessage(markers[i], uuid.NewString(), now)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d markers: %w", len(msgs), err)
	}
	p.metrics.MarkersPublished.Add(float64(len(msgs)))
	p.logger.Debug("markers published", "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a marker into a Kafka message keyed by its ID.
func serializeToMessage(m domain.Marker, eventID string, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize marker: %w", err)
	}
	country := domain.UnknownValue
	if m.Country != nil {
		country = *m.Country
	}
	return kafkago.Message{
		Key:   []byte(m.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_id", Value: []byte(eventID)},
			{Key: "country", Value: []byte(country)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
