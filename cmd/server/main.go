package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/livepolls/polling-service/internal/aggregator"
	"github.com/livepolls/polling-service/internal/broker"
	"github.com/livepolls/polling-service/internal/config"
	"github.com/livepolls/polling-service/internal/httpserver"
	"github.com/livepolls/polling-service/internal/hub"
	"github.com/livepolls/polling-service/internal/store"
)

// main boots the service: config → DB → schema → broker → hub → aggregator → HTTP.
func main() {
	// Load runtime config from environment (DB_URL, KAFKA_BROKERS, ...).
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.Default().With("service", "polling-service")

	// Connect to durable storage (Postgres) using a connection pool.
	db, err := store.NewPostgresStore(cfg.DBURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Ensure required tables/indexes exist so `docker compose up --build` is enough.
	if err := db.EnsureSchema(); err != nil {
		log.Fatal(err)
	}

	// Broker write side (vote ingestion) and read side (aggregation).
	pub := broker.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	reader := broker.NewVoteReader(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID)

	h := hub.New(logger)
	agg := aggregator.New(reader, db, h, logger)

	router := httpserver.NewRouter(db, pub, h, logger)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server started", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Aggregator drains on cancel: it finishes the in-flight event, stops
	// pulling, and the reader close below persists offsets best-effort.
	g.Go(func() error {
		return agg.Run(ctx)
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}

		if err := reader.Close(); err != nil {
			logger.Error("consumer close failed", "error", err)
		}
		if err := pub.Close(); err != nil {
			logger.Error("producer close failed", "error", err)
		}
		h.CloseAll()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	logger.Info("server stopped")
}
