package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/config"
	apphttp "bilancio/internal/http"
	applog "bilancio/internal/log"
	"bilancio/internal/services"
	"bilancio/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}

	if err := repo.EnsureDefaultCategories(context.Background(), cfg.DefaultUserID); err != nil {
		logger.Error("Failed to seed default categories", "error", err, "user_id", cfg.DefaultUserID)
		os.Exit(1)
	}

	// Publisher declares the mirror queue up front so change events are
	// not lost while the worker is down.
	publisher := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)

	// The server consumes from its own queue on the fanout exchange to
	// invalidate cached snapshots.
	consumer := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPExchange+".cache_invalidation")
	defer consumer.Close()

	service := services.NewTrackerService(repo, publisher)
	defer service.Close()

	srv := apphttp.NewServer(":"+cfg.Port, service, apphttp.Options{
		DefaultUserID:      cfg.DefaultUserID,
		CacheTTL:           cfg.CacheTTL,
		CacheSize:          cfg.CacheSize,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting bilancio server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := consumer.ConsumeChanges(ctx, func(event *amqp.ChangeEvent) error {
			srv.InvalidateUser(event.UserID)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			// Keep serving without cache invalidation. TTL expiry
			// still bounds staleness.
			slog.Warn("Cache invalidation consumer stopped", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
