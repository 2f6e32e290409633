package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/hszk-dev/mediafeed/internal/config"
	"github.com/hszk-dev/mediafeed/internal/domain/repository"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/postgres"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/queue"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/storage"
	"github.com/hszk-dev/mediafeed/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.Server.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Initialize infrastructure clients
	pgClient, err := postgres.NewClient(ctx, postgres.DefaultClientConfig(cfg.Database.DSN()))
	if err != nil {
		return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	defer pgClient.Close()
	logger.Info("connected to PostgreSQL")

	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		Bucket:    cfg.MinIO.Bucket,
		UseSSL:    cfg.MinIO.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	logger.Info("connected to MinIO")

	queueCfg := queue.DefaultClientConfig(cfg.RabbitMQ.URL())
	queueCfg.QueueName = cfg.RabbitMQ.Queue
	queueCfg.RoutingKey = cfg.RabbitMQ.Queue
	queueCfg.Prefetch = cfg.Ingest.Prefetch
	queueCfg.MaxRetries = cfg.Ingest.MaxRetries
	queueClient, err := queue.NewClient(ctx, queueCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	mediaRepo := postgres.NewMediaRepository(pgClient.Pool())
	ingestSvc := usecase.NewIngestService(mediaRepo, storageClient)

	// Setup signal handling for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// WaitGroup to track in-flight events
	var wg sync.WaitGroup

	// In-flight events finish against a context that shutdown does not cancel.
	processCtx := context.WithoutCancel(ctx)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting ingester, consuming upload events", slog.String("queue", queueCfg.QueueName))
		err := queueClient.ConsumeMediaUploaded(ctx, func(event repository.MediaUploadedEvent) error {
			wg.Add(1)
			defer wg.Done()

			logger.Info("processing upload event",
				slog.String("event_id", event.EventID.String()),
				slog.String("object_key", event.ObjectKey),
				slog.Int("retry_count", event.RetryCount),
			)

			if err := ingestSvc.ProcessEvent(processCtx, event); err != nil {
				logger.Error("upload event processing failed",
					slog.String("event_id", event.EventID.String()),
					slog.Int("retry_count", event.RetryCount),
					slog.String("error", err.Error()),
				)
				return err
			}
			return nil
		})
		if err != nil && ctx.Err() == nil {
			errCh <- fmt.Errorf("consumer error: %w", err)
		}
	}()

	// Wait for shutdown signal or error
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down ingester", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Ingest.ShutdownTimeout)
	defer shutdownCancel()

	// Stop consuming new messages
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("all in-flight events completed")
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded, some events may not have completed")
	}

	logger.Info("ingester stopped")
	return nil
}
