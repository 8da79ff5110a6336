package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/JustEmoBut/scraper-backend/config"
	"github.com/JustEmoBut/scraper-backend/internal/app"
	httpDelivery "github.com/JustEmoBut/scraper-backend/internal/delivery/http"
	"github.com/JustEmoBut/scraper-backend/internal/delivery/kafka"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := config.SetupLogger(cfg.Log)
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("store", cfg.Store.Type).
		Str("cache", cfg.Cache.Type).
		Msg("starting scraper backend v1.0.0")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to release resources")
		}
	}()

	logger.Info().
		Float64("auto_threshold", cfg.Matching.AutoThreshold).
		Float64("review_threshold", cfg.Matching.ReviewThreshold).
		Float64("cleanup_threshold", cfg.Matching.CleanupThreshold).
		Int("workers", cfg.Matching.Workers).
		Msg("matching configured")

	if cfg.Kafka.Enabled {
		refresh := kafka.NewRefreshHandler(a.Matching, a, a.Categories, logger)
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			ConsumerGroup: cfg.Kafka.GroupID,
		}, logger, refresh.Handle)
		consumer.Start(ctx)
		defer func() {
			if err := consumer.Stop(); err != nil {
				logger.Error().Err(err).Msg("failed to stop kafka consumer")
			}
		}()
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httpDelivery.NewHandler(a.Specifications, a.Matching, logger)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
