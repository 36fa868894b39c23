package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/smogwatch/smog-ingest/internal/adapter/firms"
	httpadapter "github.com/smogwatch/smog-ingest/internal/adapter/http"
	kafkaadapter "github.com/smogwatch/smog-ingest/internal/adapter/kafka"
	"github.com/smogwatch/smog-ingest/internal/adapter/openmeteo"
	"github.com/smogwatch/smog-ingest/internal/adapter/openweather"
	"github.com/smogwatch/smog-ingest/internal/collector"
	"github.com/smogwatch/smog-ingest/internal/config"
	"github.com/smogwatch/smog-ingest/internal/observability"
	"github.com/smogwatch/smog-ingest/internal/pipeline"
	"github.com/smogwatch/smog-ingest/internal/registry"
	"github.com/smogwatch/smog-ingest/internal/store/postgres"
)

func main() {
	// Missing credentials are the only fatal precondition: abort before
	// any network activity.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	store, err := postgres.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	fireClient := firms.NewClient(cfg.FIRMSAPIKey, cfg.ProviderTimeout, metrics, logger)
	owmClient := openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.ProviderTimeout, metrics, logger)
	windClient := openmeteo.NewClient(cfg.WindTimeout, cfg.WindRetries, cfg.WindRetryBackoff, cfg.WindRateWait, metrics, logger)

	districtCollector := collector.New(owmClient, windClient, owmClient, metrics, logger)

	// Kafka publishing is feature-flagged via KAFKA_BROKERS.
	var publisher pipeline.CyclePublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaSinkTopic, logger)
		publisher = kafkaPublisher
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(fireClient, districtCollector, store, publisher,
		registry.Districts(), registry.MacroBBox, cfg.DistrictDelay,
		logger, metrics)

	if cfg.RunOnce {
		// Cron-style invocation: one cycle, then exit. Persistence errors
		// are logged here and retried naturally by the next scheduled run.
		if err := p.RunCycle(ctx); err != nil {
			logger.Error("cycle failed", "error", err)
		}
		closePublisher(kafkaPublisher, logger)
		return
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr,
		httpadapter.MultiCheck(p, httpadapter.CheckFunc(store.Ping)), logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start scheduled collection.
	go func() {
		if err := p.Run(ctx, cfg.CycleInterval); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closePublisher(kafkaPublisher, logger)

	logger.Info("shutdown complete")
}

func closePublisher(p *kafkaadapter.Publisher, logger *slog.Logger) {
	if p == nil {
		return
	}
	if err := p.Close(); err != nil {
		logger.Error("kafka publisher close error", "error", err)
	}
}
