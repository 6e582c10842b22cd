package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosight/gosight/tracker/internal/collector"
	"github.com/gosight/gosight/tracker/internal/config"
	"github.com/gosight/gosight/tracker/internal/logging"
	"github.com/gosight/gosight/tracker/internal/storage"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load config
	configPath := os.Getenv("CONFIG_PATH")
	cfg := config.DefaultCollector()
	if configPath != "" {
		loaded, err := config.LoadCollector(configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load config")
		}
		cfg = *loaded
	}
	logging.Setup(cfg.Log.Level)

	log.Info().Msg("Starting GoSight dev collector...")

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()
	log.Info().Str("driver", cfg.Storage.Driver).Msg("Storage initialized")

	stats := collector.NewCounter()
	sink := collector.Sinks{
		collector.LogSink{Log: log.Logger},
		collector.StoreSink{Store: store},
		stats,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tail the kafka transport topic
	var tail *collector.Tail
	if cfg.Kafka.Enabled {
		tail = collector.NewTail(cfg.Kafka, cfg.ProjectKeys, sink, log.Logger)
		go tail.Run(ctx)
		log.Info().Str("topic", cfg.Kafka.Topic).Msg("Kafka tail started")
	}

	httpHandler := collector.NewHTTPHandler(cfg.ProjectKeys, sink, cfg.Server.MaxBodySize, log.Logger)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:           collector.NewRouter(httpHandler, stats),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Server.HTTPPort).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to serve HTTP")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	if tail != nil {
		if err := tail.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Kafka tail")
		}
	}

	snap := stats.Snapshot()
	log.Info().Int("batches", snap.Batches).Int("sessions", snap.Sessions).Msg("Collector stopped")
}
