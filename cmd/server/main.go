package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sessionhub-backend/internal/acquire"
	"sessionhub-backend/internal/config"
	"sessionhub-backend/internal/database"
	"sessionhub-backend/internal/ingest"
	"sessionhub-backend/internal/repository"
	"sessionhub-backend/internal/services"
	"sessionhub-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting SessionHub Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Client ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	contentRepo := repository.NewContentRepo(pool)
	bulkJobRepo := repository.NewBulkJobRepo(pool)

	// ──── Initialize Services ────
	ctx := context.Background()

	driveService, err := services.NewDriveService(ctx, cfg.DriveCredsFile)
	if err != nil {
		log.Fatalf("✗ Drive client initialization failed: %v", err)
	}
	log.Println("✓ Drive client initialized")

	storageSink, err := services.NewStorageSink(ctx, cfg.GCSBucket, cfg.PublicAssets, cfg.SignedURLTTL, cfg.AltSigningCredsFile)
	if err != nil {
		log.Fatalf("✗ Storage client initialization failed: %v", err)
	}
	log.Printf("✓ Storage client initialized (bucket: %s)", cfg.GCSBucket)

	youtubeService := services.NewYouTubeService()
	updater := services.NewContentStoreUpdater(contentRepo)

	// ──── Build the Acquisition Chain ────
	httpClient := &http.Client{Timeout: 5 * time.Minute}
	strategies := []acquire.Strategy{
		acquire.NewStoreExportStrategy(driveService, youtubeService),
		acquire.NewDerivedIDStrategy(driveService),
		acquire.NewAuthorizedExportStrategy(driveService),
		acquire.NewDirectFetchStrategy(httpClient, cfg.DownloadRetries),
		acquire.NewChunkedFetchStrategy(httpClient, cfg.DownloadRetries, cfg.ChunkSizeBytes),
	}
	if cfg.DriveSessionCookie != "" {
		strategies = append(strategies, acquire.NewCookieFetchStrategy(httpClient, cfg.DriveSessionCookie, cfg.DownloadRetries))
	}
	downloader := acquire.NewDownloader(strategies...)
	log.Printf("✓ Acquisition chain built (%d strategies)", len(strategies))

	// ──── Start the Worker Pool ────
	// The scheduler and pool reference each other: the scheduler enqueues
	// through the pool, the pool retires scheduler keys as tasks finish.
	var workerPool *worker.Pool
	scheduler := acquire.NewScheduler(acquire.EnqueueFunc(func(ctx context.Context, ref acquire.AssetRef) error {
		return workerPool.Enqueue(ctx, ref)
	}))
	ingest.MaxUploadSize = cfg.MaxUploadBytes
	ingestor := ingest.NewIngestor(contentRepo, bulkJobRepo, scheduler)
	workerPool = worker.NewPool(redisClient, downloader, storageSink, updater, scheduler, ingestor, cfg.WorkerCount)
	workerPool.Start()
	log.Printf("✓ Worker pool started (%d goroutines)", cfg.WorkerCount)

	// ──── Graceful Shutdown ────
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✓ SessionHub Backend ready")
	<-sigChan

	log.Println("Shutting down...")
	workerPool.Stop()
}
