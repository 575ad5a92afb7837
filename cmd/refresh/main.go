// Command refresh runs a single marker refresh cycle against the configured
// MongoDB and upstream APIs, prints the cycle report, and exits.
//
// Usage:
//
//	go run ./cmd/refresh            # fetch, sample, store, enrich
//	go run ./cmd/refresh -enrich-only
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/wildfire-map-service/internal/app"
	"github.com/couchcryptid/wildfire-map-service/internal/config"
	"github.com/couchcryptid/wildfire-map-service/internal/observability"
	"github.com/couchcryptid/wildfire-map-service/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	enrichOnly := flag.Bool("enrich-only", false, "skip the feed refresh and only enrich stored markers")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, observability.NewMetrics(), logger)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // logged by Close

	var report pipeline.CycleReport
	if *enrichOnly {
		report, err = a.Pipeline.RunEnrichCycle(ctx)
	} else {
		report, err = a.Pipeline.RunCycle(ctx)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(summarize(report, !*enrichOnly)); encErr != nil {
		return encErr
	}
	return err
}

type summary struct {
	Refresh  *refreshSummary `json:"refresh,omitempty"`
	Enrich   enrichSummary   `json:"enrich"`
	Duration string          `json:"duration"`
}

type refreshSummary struct {
	FeedRows       int    `json:"feed_rows"`
	FeedEmpty      bool   `json:"feed_empty"`
	Deleted        int64  `json:"deleted"`
	Inserted       int    `json:"inserted"`
	InsertFailures int    `json:"insert_failures"`
	Error          string `json:"error,omitempty"`
}

type enrichSummary struct {
	Total      int            `json:"total"`
	Enriched   int            `json:"enriched"`
	Skipped    int            `json:"skipped"`
	Weather    map[string]int `json:"weather_sources"`
	Unresolved int            `json:"unresolved_locations"`
	Failures   []string       `json:"failures,omitempty"`
	Error      string         `json:"error,omitempty"`
}

func summarize(r pipeline.CycleReport, withRefresh bool) summary {
	s := summary{Duration: r.Duration.String()}
	if withRefresh {
		rr := r.Refresh
		s.Refresh = &refreshSummary{
			FeedRows:       rr.FeedRows,
			FeedEmpty:      rr.FeedEmpty,
			Deleted:        rr.Deleted,
			Inserted:       rr.Inserted,
			InsertFailures: rr.InsertFailures,
			Error:          errString(errorsFirst(rr.FetchError, rr.DeleteError)),
		}
	}

	er := r.Enrich
	s.Enrich = enrichSummary{
		Total:    len(er.Items),
		Enriched: er.Enriched(),
		Skipped:  er.Skipped(),
		Weather:  map[string]int{},
		Error:    errString(er.ListError),
	}
	for _, it := range er.Items {
		s.Enrich.Weather[string(it.WeatherSource)]++
		if !it.LocationResolved {
			s.Enrich.Unresolved++
		}
		if it.Status == pipeline.StatusSkipped {
			s.Enrich.Failures = append(s.Enrich.Failures, it.MarkerID+": "+it.Reason)
		}
	}
	return s
}

func errorsFirst(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
