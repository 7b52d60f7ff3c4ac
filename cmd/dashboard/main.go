package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/water-level-dashboard-service/internal/adapter/document"
	httpadapter "github.com/couchcryptid/water-level-dashboard-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/water-level-dashboard-service/internal/adapter/kafka"
	"github.com/couchcryptid/water-level-dashboard-service/internal/adapter/mapbox"
	"github.com/couchcryptid/water-level-dashboard-service/internal/config"
	"github.com/couchcryptid/water-level-dashboard-service/internal/dashboard"
	"github.com/couchcryptid/water-level-dashboard-service/internal/observability"
	"github.com/couchcryptid/water-level-dashboard-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	opts := dashboard.Options{
		ThresholdM:      cfg.AlertThresholdM,
		Location:        cfg.DisplayLocation,
		CorrelationSize: cfg.CorrelationCacheSize,
	}

	// Place names on the station header (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		opts.Geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	// Low-water alerts (feature-flagged via KAFKA_ALERTS_ENABLED).
	var writer *kafkaadapter.AlertWriter
	if cfg.KafkaAlertsEnabled {
		writer = kafkaadapter.NewAlertWriter(cfg, logger)
		opts.Publisher = writer
		logger.Info("kafka alert publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("kafka alert publishing disabled")
	}

	fetcher := document.NewFetcher(logger)
	stations := store.NewStationStore(cfg.StationsSource, fetcher, cfg.LoadTimeout, logger, metrics)
	readings := store.NewReadingStore(cfg.ReadingsSource, fetcher, cfg.LoadTimeout, logger, metrics)

	svc := dashboard.New(stations, readings, opts, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Load both documents. A failed load leaves that store empty and is shown
	// on the dashboard; the service keeps running.
	go func() {
		if err := svc.LoadAll(ctx); err != nil {
			logger.Warn("initial load incomplete", "error", err)
			return
		}
		logger.Info("initial load complete")
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
