package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the marker pipeline.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	CycleRuns       *prometheus.CounterVec // labels: outcome={completed,skipped,overlapped}
	CycleDuration   prometheus.Histogram

	// Refresh metrics.
	FeedRows        prometheus.Counter
	MarkersInserted prometheus.Counter
	InsertErrors    prometheus.Counter
	FeedEmpty       prometheus.Counter

	// Enrichment metrics.
	EnrichOutcomes *prometheus.CounterVec // labels: outcome={enriched,skipped}
	WeatherSource  *prometheus.CounterVec // labels: source={primary,rounded,synthetic}
	LocationSource *prometheus.CounterVec // labels: source={resolved,unknown}

	// Upstream API metrics.
	UpstreamRequests *prometheus.CounterVec   // labels: service, outcome={success,error,empty}
	UpstreamDuration *prometheus.HistogramVec // labels: service
	LocationCache    *prometheus.CounterVec   // labels: result={hit,miss,evict}

	// Spread estimate metrics.
	SpreadEstimates *prometheus.CounterVec // labels: method={structured,regex,default,error}

	MarkersPublished prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PipelineRunning,
		m.CycleRuns,
		m.CycleDuration,
		m.FeedRows,
		m.MarkersInserted,
		m.InsertErrors,
		m.FeedEmpty,
		m.EnrichOutcomes,
		m.WeatherSource,
		m.LocationSource,
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.LocationCache,
		m.SpreadEstimates,
		m.MarkersPublished,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so multiple tests can
// build their own without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wildfire",
			Name:      "pipeline_running",
			Help:      "1 while a refresh/enrich cycle is in progress.",
		}),
		CycleRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "cycle_runs_total",
			Help:      "Refresh/enrich cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wildfire",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete refresh/enrich cycle.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		FeedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "feed_rows_total",
			Help:      "Fire detections read from the FIRMS feed.",
		}),
		MarkersInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "markers_inserted_total",
			Help:      "Markers stored after stride sampling.",
		}),
		InsertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "marker_insert_errors_total",
			Help:      "Marker inserts that failed.",
		}),
		FeedEmpty: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "feed_empty_total",
			Help:      "Refreshes that fetched no detections.",
		}),
		EnrichOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "enrich_markers_total",
			Help:      "Markers processed by the enrichment pass, by outcome.",
		}, []string{"outcome"}),
		WeatherSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "weather_source_total",
			Help:      "Weather attached to markers, by source.",
		}, []string{"source"}),
		LocationSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "location_source_total",
			Help:      "Location names attached to markers, by source.",
		}, []string{"source"}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "upstream_requests_total",
			Help:      "Third-party API requests by service and outcome.",
		}, []string{"service", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wildfire",
			Name:      "upstream_request_duration_seconds",
			Help:      "Third-party API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"service"}),
		LocationCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "location_cache_lookups_total",
			Help:      "Reverse-geocoding cache lookups by result.",
		}, []string{"result"}),
		SpreadEstimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "spread_estimates_total",
			Help:      "Spread radius estimates by parse method.",
		}, []string{"method"}),
		MarkersPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wildfire",
			Name:      "markers_published_total",
			Help:      "Enriched markers published to Kafka.",
		}),
	}
}
