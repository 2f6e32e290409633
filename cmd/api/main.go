package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/mediafeed/internal/api/handler"
	"github.com/hszk-dev/mediafeed/internal/api/middleware"
	"github.com/hszk-dev/mediafeed/internal/config"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/cache"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/postgres"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/queue"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/storage"
	"github.com/hszk-dev/mediafeed/internal/infrastructure/youtube"
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
	if err := pgClient.RegisterPoolMetrics(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("failed to register pool metrics: %w", err)
	}
	logger.Info("connected to PostgreSQL")

	storageClient, err := storage.NewClient(ctx, storage.ClientConfig{
		Endpoint:       cfg.MinIO.Endpoint,
		PublicEndpoint: cfg.MinIO.PublicEndpoint,
		AccessKey:      cfg.MinIO.AccessKey,
		SecretKey:      cfg.MinIO.SecretKey,
		Bucket:         cfg.MinIO.Bucket,
		UseSSL:         cfg.MinIO.UseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %w", err)
	}
	logger.Info("connected to MinIO", slog.String("bucket", storageClient.Bucket()))

	queueCfg := queue.DefaultClientConfig(cfg.RabbitMQ.URL())
	queueCfg.QueueName = cfg.RabbitMQ.Queue
	queueCfg.RoutingKey = cfg.RabbitMQ.Queue
	queueClient, err := queue.NewClient(ctx, queueCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	defer queueClient.Close()
	logger.Info("connected to RabbitMQ")

	readiness := map[string]handler.Pinger{
		"postgres": pgClient,
		"minio":    storageClient,
	}

	// L1 is always present; Redis adds a shared L2 when configured.
	memoryCache, err := cache.NewMemoryResultCache(cfg.Catalog.CacheMaxEntries)
	if err != nil {
		return fmt.Errorf("failed to create memory cache: %w", err)
	}
	var resultCache cache.ResultCache = memoryCache

	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		redisCache := cache.NewRedisResultCache(redisClient)
		resultCache = cache.NewTieredResultCache(memoryCache, redisCache)
		readiness["redis"] = redisCache
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis.Addr()))
	} else {
		logger.Info("redis disabled, using in-process result cache only")
	}

	provider := youtube.NewClient(youtube.ClientConfig{
		APIKey:           cfg.Provider.APIKey,
		Host:             cfg.Provider.Host,
		BaseURL:          cfg.Provider.BaseURL,
		Timeout:          cfg.Provider.Timeout,
		DefaultThumbnail: cfg.Provider.DefaultThumbnail,
	})
	if cfg.Provider.APIKey == "" {
		logger.Warn("PROVIDER_API_KEY is empty, external results will be unavailable")
	}

	// Initialize repository and services
	mediaRepo := postgres.NewMediaRepository(pgClient.Pool())
	store := usecase.NewMetadataStore(mediaRepo, storageClient, usecase.MetadataStoreConfig{
		DefaultThumbnail:  cfg.Provider.DefaultThumbnail,
		PlaybackURLExpiry: cfg.Catalog.PlaybackExpiry,
	})
	aggregationSvc := usecase.NewAggregationService(provider, store, resultCache, usecase.AggregationConfig{
		Categories:           cfg.Catalog.Categories,
		DefaultCategory:      cfg.Catalog.DefaultCategory,
		CategoryPageSize:     cfg.Catalog.CategoryPageSize,
		ListingTTL:           cfg.Catalog.ListingTTL,
		DetailTTL:            cfg.Catalog.DetailTTL,
		DefaultSearchResults: cfg.Catalog.DefaultResults,
		MaxSearchResults:     cfg.Catalog.MaxResults,
	})
	uploadSvc := usecase.NewUploadService(storageClient, queueClient, usecase.UploadServiceConfig{
		UploadURLExpiry: cfg.Upload.URLExpiry,
		MaxUploadSize:   cfg.Upload.MaxUploadSize,
		Categories:      cfg.Catalog.Categories,
	})

	limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
		Burst:    cfg.RateLimit.Burst,
	})
	if err != nil {
		return fmt.Errorf("failed to create rate limiter: %w", err)
	}

	r := setupRouter(logger, routerDeps{
		videos:    handler.NewVideoHandler(aggregationSvc),
		media:     handler.NewMediaHandler(uploadSvc),
		readiness: readiness,
		limiter:   limiter,
		origins:   cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

type routerDeps struct {
	videos    *handler.VideoHandler
	media     *handler.MediaHandler
	readiness map[string]handler.Pinger
	limiter   *middleware.RateLimiter
	origins   []string
}

func setupRouter(logger *slog.Logger, deps routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(deps.origins))

	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready(deps.readiness))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(deps.limiter.Handler)

		r.Get("/categories", deps.videos.Categories)

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", deps.videos.ListByCategory)
			r.Get("/search", deps.videos.Search)
			r.Get("/{id}", deps.videos.Get)
		})

		r.Get("/channels/{id}", deps.videos.Channel)

		r.Route("/media", func(r chi.Router) {
			r.Get("/upload-url", deps.media.UploadURL)
			r.Post("/", deps.media.Complete)
		})
	})

	return r
}
