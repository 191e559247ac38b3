package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	// Application
	applicationPort "github.com/pkondrashkov/gallery-api/internal/application/port"
	"github.com/pkondrashkov/gallery-api/internal/application/usecase"

	// Infrastructure
	redisCache "github.com/pkondrashkov/gallery-api/internal/infrastructure/cache/redis"
	natsInfra "github.com/pkondrashkov/gallery-api/internal/infrastructure/messaging/nats"
	wsInfra "github.com/pkondrashkov/gallery-api/internal/infrastructure/notification/websocket"
	"github.com/pkondrashkov/gallery-api/internal/infrastructure/observability/cloudwatch"
	dynamodbRepo "github.com/pkondrashkov/gallery-api/internal/infrastructure/persistence/dynamodb"
	s3storage "github.com/pkondrashkov/gallery-api/internal/infrastructure/storage/s3"

	// Interfaces
	httpInterface "github.com/pkondrashkov/gallery-api/internal/interfaces/http"
	"github.com/pkondrashkov/gallery-api/internal/interfaces/http/handler"
	"github.com/pkondrashkov/gallery-api/internal/interfaces/http/middleware"

	// Shared
	"github.com/pkondrashkov/gallery-api/pkg/config"
	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log := logger.New(os.Getenv("LOG_LEVEL"))
	log.Info("Starting Gallery API")

	// 3. CloudWatch Integration

	// CloudWatch Metrics Publisher
	var metricsPublisher applicationPort.MetricsPublisher
	if cfg.CloudWatch.MetricsEnabled {
		publisherImpl, initErr := cloudwatch.NewMetricsPublisher(context.Background(),
			cloudwatch.MetricsPublisherConfig{
				Namespace:       cfg.CloudWatch.MetricsNamespace,
				Region:          cfg.CloudWatch.Region,
				Endpoint:        cfg.CloudWatch.Endpoint,
				AccessKeyID:     cfg.CloudWatch.AccessKeyID,
				SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
				BufferSize:      cfg.CloudWatch.MetricsBufferSize,
				FlushInterval:   cfg.CloudWatch.MetricsFlushInterval,
			})
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch metrics publisher", initErr)
			os.Exit(1)
		}
		metricsPublisher = publisherImpl
		log.Info("CloudWatch metrics publisher initialized")
	} else {
		log.Warn("CloudWatch metrics publishing is disabled")
	}

	// CloudWatch Logs Publisher
	var logsPublisher applicationPort.LogPublisher
	if cfg.CloudWatch.LogsEnabled {
		publisherImpl, initErr := cloudwatch.NewLogsPublisher(context.Background(),
			cloudwatch.LogsPublisherConfig{
				LogGroupName:    cfg.CloudWatch.LogGroupName,
				LogStreamName:   cfg.CloudWatch.LogStreamName,
				Region:          cfg.CloudWatch.Region,
				Endpoint:        cfg.CloudWatch.Endpoint,
				AccessKeyID:     cfg.CloudWatch.AccessKeyID,
				SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
				BufferSize:      cfg.CloudWatch.LogsBufferSize,
				FlushInterval:   cfg.CloudWatch.LogsFlushInterval,
				AutoCreate:      true,
			})
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch logs publisher", initErr)
			os.Exit(1)
		}
		logsPublisher = publisherImpl
		log.SetLogPublisher(logsPublisher)
		log.Info("CloudWatch logs publisher initialized")
	} else {
		log.Warn("CloudWatch logs publishing is disabled")
	}

	// 4. NATS Event Publisher
	var eventPublisher applicationPort.EventPublisher
	if cfg.NATS.Enabled {
		publisherImpl, initErr := natsInfra.NewNATSPublisher(natsInfra.PublisherConfig{
			URL:           cfg.NATS.URL,
			SubjectPrefix: cfg.NATS.SubjectPrefix,
		}, log)
		if initErr != nil {
			log.Warn("Failed to connect to NATS, continuing without event publishing", "error", initErr.Error())
		} else {
			eventPublisher = publisherImpl
			defer eventPublisher.Close()
			log.Info("NATS event publisher initialized", "url", cfg.NATS.URL)
		}
	} else {
		log.Warn("NATS event publishing is disabled")
	}

	// 5. Object Storage

	var objectStorage applicationPort.ObjectStorage
	if cfg.S3.Enabled {
		storageImpl, initErr := s3storage.NewObjectStorage(context.Background(), s3storage.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			URLMode:         s3storage.URLMode(cfg.S3.URLMode),
			PresignedTTL:    cfg.S3.PresignedTTL,
		})
		if initErr != nil {
			log.Error("Failed to initialize object storage", initErr)
			os.Exit(1)
		}
		objectStorage = storageImpl
		log.Info("Object storage initialized", "bucket", cfg.S3.Bucket)
	} else {
		log.Warn("S3 storage is disabled, gallery operations will fail")
	}

	// 6. Image Metadata Index

	var imageMetadataRepo applicationPort.ImageMetadataRepository
	if cfg.Dynamo.Enabled {
		repoImpl, initErr := dynamodbRepo.NewImageMetadataRepository(context.Background(), dynamodbRepo.Config{
			TableName:       cfg.Dynamo.TableImageMetadata,
			Region:          cfg.Dynamo.Region,
			Endpoint:        cfg.Dynamo.Endpoint,
			AccessKeyID:     cfg.Dynamo.AccessKeyID,
			SecretAccessKey: cfg.Dynamo.SecretAccessKey,
			StrongReads:     cfg.Dynamo.StrongReads,
		})
		if initErr != nil {
			log.Error("Failed to initialize image metadata repository", initErr)
			os.Exit(1)
		}
		imageMetadataRepo = repoImpl
		log.Info("Image metadata repository initialized", "provider", "dynamodb")
	} else {
		log.Warn("DynamoDB image metadata index is disabled, the uploads endpoint will be unavailable")
	}

	// 7. Catalog Cache

	var catalogCache applicationPort.Cache
	if cfg.Redis.Enabled {
		cacheImpl, initErr := redisCache.NewRedisCache(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Gallery.CacheTTL,
			cfg.Redis.PoolSize,
			cfg.Redis.MinIdleConns,
			cfg.Redis.DialTimeout,
			cfg.Redis.ReadTimeout,
			cfg.Redis.WriteTimeout,
		)
		if initErr != nil {
			log.Warn("Failed to connect to Redis, continuing without catalog cache", "error", initErr.Error())
		} else {
			catalogCache = cacheImpl
			defer catalogCache.Close()
			log.Info("Redis catalog cache initialized", "host", cfg.Redis.Host)
		}
	} else {
		log.Warn("Redis catalog cache is disabled")
	}

	// 8. WebSocket Hub

	hub := wsInfra.NewHub(log)
	go hub.Run()

	// 9. Dependency Injection - Application Layer (Use Cases)

	loadCatalogUC := usecase.NewLoadImageCatalogUseCase(
		objectStorage, // Can be nil if S3 disabled
		nil,
		metricsPublisher, // Can be nil if CloudWatch disabled
		usecase.LoadImageCatalogConfig{
			PageSize:     int32(cfg.Gallery.PageSize),
			SignedURLTTL: cfg.Gallery.SignedURLTTL,
		},
		log,
	)
	loadCatalogCachedUC := usecase.NewLoadImageCatalogCachedUseCase(loadCatalogUC, catalogCache, log)

	uploadImageUC := usecase.NewUploadImageUseCase(
		objectStorage,
		imageMetadataRepo,
		eventPublisher,
		hub,
		catalogCache,
		metricsPublisher,
		usecase.UploadImageConfig{
			KeyPrefix:     cfg.Gallery.KeyPrefix,
			MaxImageBytes: cfg.Gallery.MaxImageBytes,
		},
		log,
	)

	deleteImageUC := usecase.NewDeleteImageUseCase(
		objectStorage,
		imageMetadataRepo,
		eventPublisher,
		hub,
		catalogCache,
		metricsPublisher,
		usecase.DeleteImageConfig{KeyPrefix: cfg.Gallery.KeyPrefix},
		log,
	)

	listRecentUploadsUC := usecase.NewListRecentUploadsUseCase(
		imageMetadataRepo,
		usecase.ListRecentUploadsConfig{DefaultLimit: cfg.Gallery.UploadsPageLimit},
		log,
	)

	// 10. Dependency Injection - Interfaces Layer (HTTP Handlers)

	authConfig := middleware.AuthConfig{
		Enabled:     cfg.Security.AuthEnabled,
		BearerToken: cfg.Security.AuthToken,
	}

	galleryAPIHandler := handler.NewGalleryAPIHandler(
		loadCatalogCachedUC,
		uploadImageUC,
		deleteImageUC,
		listRecentUploadsUC,
		cfg.Gallery.KeyPrefix,
		cfg.Gallery.MaxPayloadBytes,
		log,
	)
	websocketHandler := handler.NewWebSocketHandler(hub, cfg.Security.AllowedOrigins, authConfig, log)
	authAPIHandler := handler.NewAuthAPIHandler(authConfig, log)

	rateLimiter := middleware.NewIPRateLimiter(cfg.Gallery.RateLimitPerSecond, cfg.Gallery.RateLimitBurst)

	router := httpInterface.NewRouter(
		galleryAPIHandler,
		websocketHandler,
		authAPIHandler,
		rateLimiter,
		cfg.Security,
		log,
	)

	// 11. HTTP Server

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port)
		log.Info("Gallery available at http://localhost:" + cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}()

	// 12. Wait for a signal and shut down gracefully

	<-sigChan
	log.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Flush CloudWatch buffers before shutdown
	if metricsPublisher != nil {
		log.Info("Flushing CloudWatch metrics buffer...")
		if err := metricsPublisher.Flush(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch metrics", err)
		}
	}

	if logsPublisher != nil {
		log.Info("Flushing CloudWatch logs buffer...")
		if err := logsPublisher.Flush(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch logs", err)
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	log.Info("Server stopped gracefully")
}
