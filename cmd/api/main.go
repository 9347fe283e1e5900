package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/imageshark/imageshark/internal/api"
	"github.com/imageshark/imageshark/internal/config"
	"github.com/imageshark/imageshark/internal/pipeline"
	"github.com/imageshark/imageshark/internal/queue"
	"github.com/imageshark/imageshark/internal/ratelimit"
	"github.com/imageshark/imageshark/internal/storage"
	"github.com/imageshark/imageshark/internal/store"
	"github.com/imageshark/imageshark/internal/telemetry"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmsgprefix)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  "imageshark-api",
		Exporter:     cfg.Trace.Exporter,
		OTLPEndpoint: cfg.Trace.OTLPEndpoint,
		OTLPInsecure: cfg.Trace.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatalf("tracing setup failed: %v", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	if err := pipeline.Startup(); err != nil {
		logger.Fatalf("pipeline startup failed: %v", err)
	}
	defer pipeline.Shutdown()

	renderer, err := pipeline.NewRenderer()
	if err != nil {
		logger.Fatalf("renderer setup failed: %v", err)
	}

	queueClient := queue.NewClient(cfg.Queue.RedisClientOpt(), cfg.Queue.Name)
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Printf("queue client close error: %v", err)
		}
	}()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Queue.RedisAddr,
		Password: cfg.Queue.RedisPassword,
		DB:       cfg.Queue.RedisDB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Printf("redis client close error: %v", err)
		}
	}()

	var artifacts store.ArtifactStore
	if redisArtifacts, err := store.NewRedisArtifactStore(redisClient, cfg.Artifacts.TTL); err != nil {
		logger.Printf("artifact store falling back to memory: %v", err)
		artifacts = store.NewMemoryArtifactStore(cfg.Artifacts.MaxEntries)
	} else {
		artifacts = redisArtifacts
	}

	var jobStore store.JobStore
	if pgStore, err := store.NewPostgresJobStore(ctx, cfg.Database.DSN); err != nil {
		logger.Printf("job store falling back to memory: %v", err)
		jobStore = store.NewMemoryJobStore()
	} else {
		defer pgStore.Close()
		jobStore = pgStore
	}

	var storageClient *storage.Client
	if client, err := storage.NewClient(storage.Config{
		Endpoint: cfg.Storage.Endpoint,
		Access:   cfg.Storage.AccessKey,
		Secret:   cfg.Storage.SecretKey,
		Bucket:   cfg.Storage.Bucket,
		UseSSL:   cfg.Storage.UseSSL,
	}); err != nil {
		logger.Printf("object storage unavailable: %v", err)
	} else {
		if err := client.EnsureBucket(ctx); err != nil {
			logger.Printf("ensure bucket failed: %v", err)
		}
		storageClient = client
	}

	var rateLimiter api.RateLimiter
	if limiter, err := ratelimit.NewRedisTokenBucket(redisClient, cfg.RateLimit.Capacity, cfg.RateLimit.Window, ""); err != nil {
		logger.Printf("rate limiter disabled: %v", err)
	} else {
		rateLimiter = limiter
	}

	opts := api.Options{
		Logger:         logger,
		Renderer:       renderer,
		Artifacts:      artifacts,
		QueueClient:    queueClient,
		JobStore:       jobStore,
		RateLimiter:    rateLimiter,
		PresignTTL:     cfg.API.PresignTTL,
		MaxUploadBytes: cfg.API.MaxUploadBytes,
	}
	if storageClient != nil {
		opts.Storage = storageClient
	}
	app := api.NewServer(opts)

	httpServer := &http.Server{
		Addr:         cfg.API.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", cfg.API.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Println("shutting down")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}
