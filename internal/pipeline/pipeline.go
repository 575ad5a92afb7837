package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/wildfire-map-service/internal/domain"
	"github.com/couchcryptid/wildfire-map-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// MarkerPublisher forwards enriched markers to downstream consumers.
type MarkerPublisher interface {
	PublishMarkers(ctx context.Context, markers []domain.Marker) error
}

// Stages are the collaborators a Pipeline drives. Publisher is optional.
type Stages struct {
	Feed      domain.FireFeed
	Weather   domain.WeatherProvider
	Resolver  domain.LocationResolver
	Store     domain.MarkerStore
	Publisher MarkerPublisher
}

// Options tune sampling, pacing and overlap handling.
type Options struct {
	SampleStride     int
	EnrichDelay      time.Duration
	ResetOnEmptyFeed bool
	AllowOverlap     bool
	// Rand drives synthetic weather. Nil uses the process-wide generator.
	Rand domain.Rand
}

// Pipeline refreshes wildfire markers from the feed and enriches them.
type Pipeline struct {
	stages  Stages
	opts    Options
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
	active  atomic.Int32
}

// New creates a Pipeline. A SampleStride below 1 keeps every row.
func New(stages Stages, opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.SampleStride < 1 {
		opts.SampleStride = 1
	}
	return &Pipeline{
		stages:  stages,
		opts:    opts,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

// RefreshMarkers replaces the stored markers with a stride sample of the
// current feed. Unless ResetOnEmptyFeed is set, an empty or failed fetch
// leaves storage untouched.
func (p *Pipeline) RefreshMarkers(ctx context.Context) RefreshReport {
	var report RefreshReport

	locs, err := p.stages.Feed.FetchFireLocations(ctx)
	if err != nil {
		p.logger.Error("fire feed fetch failed", "error", err)
		report.FetchError = err
		locs = nil
	}
	report.FeedRows = len(locs)
	p.metrics.FeedRows.Add(float64(len(locs)))

	if len(locs) == 0 {
		report.FeedEmpty = true
		p.metrics.FeedEmpty.Inc()
		if !p.opts.ResetOnEmptyFeed {
			p.logger.Info("no wildfire data fetched, keeping stored markers")
			return report
		}
	}

	deleted, err := p.stages.Store.DeleteAllMarkers(ctx)
	if err != nil {
		p.logger.Error("clear markers failed, refresh aborted", "error", err)
		report.DeleteError = err
		return report
	}
	report.Deleted = deleted

	sample := domain.StrideSample(locs, p.opts.SampleStride)
	report.Sampled = len(sample)
	for _, loc := range sample {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		if _, err := p.stages.Store.InsertMarker(ctx, loc); err != nil {
			p.logger.Warn("insert marker failed", "error", err, "lat", loc.Lat, "lon", loc.Lon)
			p.metrics.InsertErrors.Inc()
			report.InsertFailures++
			continue
		}
		report.Inserted++
	}
	p.metrics.MarkersInserted.Add(float64(report.Inserted))

	p.logger.Info("markers refreshed",
		"feed_rows", report.FeedRows,
		"deleted", report.Deleted,
		"inserted", report.Inserted,
		"insert_failures", report.InsertFailures,
	)
	return report
}

// EnrichMarkers attaches weather and place metadata to every stored marker,
// one at a time, pausing EnrichDelay between markers. Per-marker failures
// are recorded in the report and never abort the batch.
func (p *Pipeline) EnrichMarkers(ctx context.Context) EnrichReport {
	var report EnrichReport

	markers, err := p.stages.Store.ListMarkers(ctx)
	if err != nil {
		p.logger.Error("list markers failed", "error", err)
		report.ListError = err
		return report
	}

	report.Items = make([]ItemResult, 0, len(markers))
	for i, m := range markers {
		if i > 0 && !p.pause(ctx) {
			report.Cancelled = true
			break
		}
		item, enriched := p.enrichOne(ctx, m)
		report.Items = append(report.Items, item)
		if item.Status == StatusEnriched {
			report.Markers = append(report.Markers, enriched)
		}
	}

	p.logger.Info("markers enriched",
		"total", len(markers),
		"enriched", report.Enriched(),
		"skipped", report.Skipped(),
		"synthetic_weather", report.CountWeather(domain.WeatherSynthetic),
	)
	return report
}

func (p *Pipeline) enrichOne(ctx context.Context, m domain.Marker) (ItemResult, domain.Marker) {
	item := ItemResult{MarkerID: m.ID}

	weather, source := domain.ResolveWeather(ctx, p.stages.Weather, m.Location, p.opts.Rand, p.logger)
	item.WeatherSource = source
	p.metrics.WeatherSource.WithLabelValues(string(source)).Inc()

	place, resolved := domain.ResolvePlace(ctx, p.stages.Resolver, m.Location, p.logger)
	item.LocationResolved = resolved
	if resolved {
		p.metrics.LocationSource.WithLabelValues("resolved").Inc()
	} else {
		p.metrics.LocationSource.WithLabelValues("unknown").Inc()
	}

	e := domain.Enrichment{Weather: weather, Place: place}
	if err := p.stages.Store.UpdateMarkerEnrichment(ctx, m.ID, e); err != nil {
		p.logger.Warn("update marker failed", "error", err, "id", m.ID)
		item.Status = StatusSkipped
		item.Reason = err.Error()
		p.metrics.EnrichOutcomes.WithLabelValues(string(StatusSkipped)).Inc()
		return item, m
	}

	item.Status = StatusEnriched
	p.metrics.EnrichOutcomes.WithLabelValues(string(StatusEnriched)).Inc()
	return item, m.WithEnrichment(e)
}

// pause waits EnrichDelay on the pipeline clock. It returns false when ctx
// is cancelled first.
func (p *Pipeline) pause(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if p.opts.EnrichDelay <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(p.opts.EnrichDelay):
		return true
	}
}

// RunCycle refreshes then enriches the markers and publishes the enriched
// batch. When another cycle is running and overlap is disabled it returns
// domain.ErrCycleInProgress without doing any work.
func (p *Pipeline) RunCycle(ctx context.Context) (CycleReport, error) {
	return p.run(ctx, true)
}

// RunEnrichCycle is RunCycle without the refresh step.
func (p *Pipeline) RunEnrichCycle(ctx context.Context) (CycleReport, error) {
	return p.run(ctx, false)
}

func (p *Pipeline) run(ctx context.Context, refresh bool) (CycleReport, error) {
	n := p.active.Add(1)
	defer p.active.Add(-1)

	var report CycleReport
	if n > 1 {
		if !p.opts.AllowOverlap {
			p.metrics.CycleRuns.WithLabelValues("skipped").Inc()
			p.logger.Warn("refresh cycle skipped, previous cycle still running")
			return report, domain.ErrCycleInProgress
		}
		report.Overlapped = true
		p.logger.Warn("refresh cycle overlapping a running cycle", "active", n)
	}

	p.metrics.PipelineRunning.Inc()
	defer p.metrics.PipelineRunning.Dec()

	start := p.clock.Now()
	if refresh {
		report.Refresh = p.RefreshMarkers(ctx)
	}
	report.Enrich = p.EnrichMarkers(ctx)
	p.publish(ctx, report.Enrich.Markers)
	report.Duration = p.clock.Since(start)

	p.metrics.CycleDuration.Observe(report.Duration.Seconds())
	outcome := "completed"
	if report.Overlapped {
		outcome = "overlapped"
	}
	p.metrics.CycleRuns.WithLabelValues(outcome).Inc()

	if err := ctx.Err(); err != nil && (report.Refresh.Cancelled || report.Enrich.Cancelled) {
		return report, fmt.Errorf("refresh cycle interrupted: %w", err)
	}
	return report, nil
}

// publish forwards enriched markers. Failures are logged only.
func (p *Pipeline) publish(ctx context.Context, markers []domain.Marker) {
	if p.stages.Publisher == nil || len(markers) == 0 {
		return
	}
	if err := p.stages.Publisher.PublishMarkers(ctx, markers); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		p.logger.Error("publish markers failed", "error", err, "count", len(markers))
	}
}
