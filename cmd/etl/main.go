package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/covid-case-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/covid-case-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/covid-case-etl/internal/adapter/kafka"
	"github.com/couchcryptid/covid-case-etl/internal/config"
	"github.com/couchcryptid/covid-case-etl/internal/observability"
	"github.com/couchcryptid/covid-case-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	source := csvfile.NewSource(cfg.DataPath, logger)
	transformer := pipeline.NewTransformer(nil, logger)

	// Summary publishing is feature-flagged via KAFKA_ENABLED.
	var loader pipeline.BatchLoader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loader = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	p := pipeline.New(source, transformer, loader, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, httpadapter.APIConfig{
		TopN:          cfg.TopN,
		TimelineDays:  cfg.TimelineDays,
		ViewCacheSize: cfg.ViewCacheSize,
		Metrics:       metrics,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A dataset that fails to load is fatal; there is nothing to serve.
	if _, err := p.Run(ctx); err != nil {
		logger.Error("pipeline error", "error", err)
		closeWriter(writer, logger)
		stop()
		os.Exit(1)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	closeWriter(writer, logger)

	logger.Info("shutdown complete")
}

func closeWriter(w *kafkaadapter.Writer, logger *slog.Logger) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
