// Package app wires configuration into the stores, clients and pipeline
// shared by the service and the one-shot refresh command.
package app

import (
	"context"
	"errors"
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/wildfire-map-service/internal/adapter/firms"
	"github.com/couchcryptid/wildfire-map-service/internal/adapter/gemini"
	kafkaadapter "github.com/couchcryptid/wildfire-map-service/internal/adapter/kafka"
	mongoadapter "github.com/couchcryptid/wildfire-map-service/internal/adapter/mongo"
	"github.com/couchcryptid/wildfire-map-service/internal/adapter/nominatim"
	"github.com/couchcryptid/wildfire-map-service/internal/adapter/openweather"
	"github.com/couchcryptid/wildfire-map-service/internal/config"
	"github.com/couchcryptid/wildfire-map-service/internal/domain"
	"github.com/couchcryptid/wildfire-map-service/internal/observability"
	"github.com/couchcryptid/wildfire-map-service/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// ServiceName tags every log line emitted by the service and its commands.
const ServiceName = "wildfire-map"

// NewLogger installs the shared structured logger as the slog default and
// returns it with the service attribute attached.
func NewLogger(cfg *config.Config) *slog.Logger {
	return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat).With("service", ServiceName)
}

// App holds the long-lived collaborators. Close releases them.
type App struct {
	Store     *mongoadapter.Store
	Generator *gemini.Client
	Pipeline  *pipeline.Pipeline
	Clock     clockwork.Clock

	publisher *kafkaadapter.Publisher
	logger    *slog.Logger
}

// New connects to MongoDB and builds every upstream client from cfg.
// Missing API keys are not checked here; the dependent calls fail on use.
func New(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (*App, error) {
	client, err := mongoadapter.Connect(ctx, cfg.MongoURI, cfg.MongoTimeout)
	if err != nil {
		return nil, err
	}
	store := mongoadapter.NewStore(client, cfg.MongoDatabase, logger)
	clock := clockwork.NewRealClock()

	feed := firms.NewClient(firms.Options{
		MapKey:  cfg.FIRMSAPIKey,
		BaseURL: cfg.FIRMSBaseURL,
		Source:  cfg.FIRMSSource,
		Area:    cfg.FIRMSArea,
		Days:    cfg.FIRMSDays,
		Timeout: cfg.UpstreamTimeout,
	}, metrics, logger)
	weather := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherURL, cfg.UpstreamTimeout, metrics, logger)
	var resolver domain.LocationResolver = nominatim.NewClient(cfg.NominatimURL, cfg.NominatimAgent, cfg.NominatimRate, cfg.UpstreamTimeout, metrics, logger)
	if cfg.NominatimCache > 0 {
		cached, err := nominatim.NewCachedResolver(resolver, cfg.NominatimCache, metrics)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		resolver = cached
	}

	generator, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.UpstreamTimeout, metrics, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &App{
		Store:     store,
		Generator: generator,
		Clock:     clock,
		logger:    logger,
	}

	stages := pipeline.Stages{Feed: feed, Weather: weather, Resolver: resolver, Store: store}
	if cfg.KafkaEnabled {
		a.publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaMarkerTopic, clock, metrics, logger)
		stages.Publisher = a.publisher
		logger.Info("kafka marker publishing enabled", "topic", cfg.KafkaMarkerTopic, "brokers", cfg.KafkaBrokers)
	}

	a.Pipeline = pipeline.New(stages, pipeline.Options{
		SampleStride:     cfg.SampleStride,
		EnrichDelay:      cfg.EnrichDelay,
		ResetOnEmptyFeed: cfg.ResetOnEmptyFeed,
		AllowOverlap:     cfg.AllowOverlap,
	}, clock, logger, metrics)

	return a, nil
}

// Close flushes the publisher and disconnects from MongoDB.
func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Error("kafka publisher close error", "error", err)
			errs = append(errs, err)
		}
	}
	if err := a.Store.Close(); err != nil {
		a.logger.Error("mongo disconnect error", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
