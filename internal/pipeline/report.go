package pipeline

import (
	"time"

	"github.com/couchcryptid/wildfire-map-service/internal/domain"
)

// ItemStatus is the outcome of enriching one marker.
type ItemStatus string

const (
	StatusEnriched ItemStatus = "enriched"
	StatusSkipped  ItemStatus = "skipped"
)

// RefreshReport summarizes one RefreshMarkers call.
type RefreshReport struct {
	FeedRows       int
	FeedEmpty      bool
	FetchError     error
	DeleteError    error
	Deleted        int64
	Sampled        int
	Inserted       int
	InsertFailures int
	Cancelled      bool
}

// ItemResult records what happened to a single marker during enrichment.
type ItemResult struct {
	MarkerID         string
	Status           ItemStatus
	Reason           string
	WeatherSource    domain.WeatherSource
	LocationResolved bool
}

// EnrichReport summarizes one EnrichMarkers call.
type EnrichReport struct {
	Items     []ItemResult
	ListError error
	Cancelled bool
	// Markers holds the successfully enriched markers, as written.
	Markers []domain.Marker
}

// Enriched returns the number of markers updated in storage.
func (r EnrichReport) Enriched() int { return r.count(StatusEnriched) }

// Skipped returns the number of markers whose update failed.
func (r EnrichReport) Skipped() int { return r.count(StatusSkipped) }

func (r EnrichReport) count(s ItemStatus) int {
	n := 0
	for _, it := range r.Items {
		if it.Status == s {
			n++
		}
	}
	return n
}

// CountWeather returns how many items took their weather from source.
func (r EnrichReport) CountWeather(source domain.WeatherSource) int {
	n := 0
	for _, it := range r.Items {
		if it.WeatherSource == source {
			n++
		}
	}
	return n
}

// CycleReport combines the refresh and enrichment reports of one cycle.
type CycleReport struct {
	Refresh    RefreshReport
	Enrich     EnrichReport
	Overlapped bool
	Duration   time.Duration
}
