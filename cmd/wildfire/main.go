package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/wildfire-map-service/internal/adapter/httpadapter"
	"github.com/couchcryptid/wildfire-map-service/internal/app"
	"github.com/couchcryptid/wildfire-map-service/internal/config"
	"github.com/couchcryptid/wildfire-map-service/internal/observability"
	"github.com/couchcryptid/wildfire-map-service/internal/pipeline"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, metrics, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Deps{
		Users:     a.Store,
		Markers:   a.Store,
		Generator: a.Generator,
		Ready:     a.Store,
	}, metrics, logger)
	scheduler := pipeline.NewScheduler(a.Pipeline, a.Clock, cfg.RefreshInitialDelay, cfg.RefreshInterval, logger)

	g, gctx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Start refresh scheduler.
	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("service error", "error", err)
	}
	if err := a.Close(); err != nil {
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
