package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkondrashkov/gallery-api/internal/application/dto"
	"github.com/pkondrashkov/gallery-api/internal/application/port"
	"github.com/pkondrashkov/gallery-api/internal/domain/service"
	"github.com/pkondrashkov/gallery-api/internal/infrastructure/cache/redis"
	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

var (
	ErrImageTooLarge          = errors.New("image exceeds size limit")
	ErrUnsupportedContentType = errors.New("unsupported content type")
)

type UploadImageCommand struct {
	FileName    string
	ContentType string
	Data        []byte
}

type UploadImageResult struct {
	Key        string
	URL        string
	SizeBytes  int64
	UploadedAt time.Time
}

type UploadImageConfig struct {
	KeyPrefix     string
	MaxImageBytes int
}

// UploadImageUseCase stores a new image under the gallery prefix and fans the
// change out to the metadata index, the event broker, the response cache and
// connected clients. Everything after the object write is best effort.
type UploadImageUseCase struct {
	storage  port.ObjectStorage
	metadata port.ImageMetadataRepository
	events   port.EventPublisher
	notifier port.NotificationService
	cache    port.Cache
	metrics  port.MetricsPublisher
	filter   *service.ImageFilter
	config   UploadImageConfig
	logger   *logger.Logger
}

func NewUploadImageUseCase(
	storage port.ObjectStorage,
	metadata port.ImageMetadataRepository,
	events port.EventPublisher,
	notifier port.NotificationService,
	cache port.Cache,
	metrics port.MetricsPublisher,
	config UploadImageConfig,
	log *logger.Logger,
) *UploadImageUseCase {
	if config.MaxImageBytes <= 0 {
		config.MaxImageBytes = 10 * 1024 * 1024
	}
	return &UploadImageUseCase{
		storage:  storage,
		metadata: metadata,
		events:   events,
		notifier: notifier,
		cache:    cache,
		metrics:  metrics,
		filter:   service.NewImageFilter(),
		config:   config,
		logger:   log,
	}
}

func (uc *UploadImageUseCase) Execute(ctx context.Context, cmd UploadImageCommand) (*UploadImageResult, error) {
	if uc.storage == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrStorageUnavailable)
	}

	ext, ok := uc.filter.ExtensionForContentType(cmd.ContentType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, cmd.ContentType)
	}
	if len(cmd.Data) == 0 {
		return nil, fmt.Errorf("image data is empty")
	}
	if len(cmd.Data) > uc.config.MaxImageBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrImageTooLarge, len(cmd.Data))
	}

	key := uc.buildObjectKey(ext)
	url, err := uc.storage.PutObject(ctx, key, cmd.ContentType, cmd.Data)
	if err != nil {
		uc.logger.Error("Failed to upload image", err, "key", key)
		return nil, fmt.Errorf("%w: uploading %s: %v", ErrStorageUnavailable, key, err)
	}

	uploadedAt := time.Now().UTC()
	result := &UploadImageResult{
		Key:        key,
		URL:        url,
		SizeBytes:  int64(len(cmd.Data)),
		UploadedAt: uploadedAt,
	}

	uc.recordMetadata(ctx, result, cmd.ContentType)
	uc.fanOutChange(ctx, "uploaded", key, uploadedAt)
	uc.publishUploadMetrics(ctx, result.SizeBytes, uploadedAt)

	uc.logger.Info("Image uploaded",
		"key", key,
		"size_bytes", result.SizeBytes,
		"file_name", strings.TrimSpace(cmd.FileName),
	)

	return result, nil
}

func (uc *UploadImageUseCase) buildObjectKey(ext string) string {
	prefix := strings.Trim(uc.config.KeyPrefix, "/")
	if prefix == "" {
		prefix = "gallery"
	}
	return fmt.Sprintf("%s/%s.%s", prefix, uuid.NewString(), ext)
}

func (uc *UploadImageUseCase) recordMetadata(ctx context.Context, result *UploadImageResult, contentType string) {
	if uc.metadata == nil {
		return
	}
	err := uc.metadata.Put(ctx, port.ImageMetadata{
		Key:         result.Key,
		URL:         result.URL,
		ContentType: contentType,
		SizeBytes:   result.SizeBytes,
		UploadedAt:  result.UploadedAt,
	})
	if err != nil {
		uc.logger.Warn("Failed to index image metadata", "key", result.Key, "error", err.Error())
	}
}

// fanOutChange notifies every downstream consumer of a gallery mutation.
// Shared by upload and delete.
func (uc *UploadImageUseCase) fanOutChange(ctx context.Context, action, key string, at time.Time) {
	fanOutGalleryChange(ctx, galleryChangeSinks{
		events:   uc.events,
		notifier: uc.notifier,
		cache:    uc.cache,
		logger:   uc.logger,
	}, action, key, at)
}

func (uc *UploadImageUseCase) publishUploadMetrics(ctx context.Context, sizeBytes int64, at time.Time) {
	if uc.metrics == nil {
		return
	}
	err := uc.metrics.PublishBatch(ctx, []port.UsageMetric{
		{Name: "ImagesUploaded", Value: 1, Unit: "count", ObservedAt: at},
		{Name: "UploadedBytes", Value: float64(sizeBytes), Unit: "bytes", ObservedAt: at},
	})
	if err != nil {
		uc.logger.Warn("Failed to publish upload metrics", "error", err.Error())
	}
}

type galleryChangeSinks struct {
	events   port.EventPublisher
	notifier port.NotificationService
	cache    port.Cache
	logger   *logger.Logger
}

func fanOutGalleryChange(ctx context.Context, sinks galleryChangeSinks, action, key string, at time.Time) {
	event := &dto.GalleryEventDTO{
		Action: action,
		Key:    key,
		At:     at,
	}

	if sinks.events != nil {
		subject := "image." + action
		if err := sinks.events.PublishEvent(ctx, subject, event); err != nil {
			sinks.logger.Warn("Failed to publish gallery event", "subject", subject, "error", err.Error())
		}
	}

	if sinks.cache != nil {
		// A mutation under any prefix can affect multiple cached catalogs,
		// drop them all.
		if err := sinks.cache.DeletePattern(ctx, redis.CatalogCachePattern()); err != nil {
			sinks.logger.Warn("Failed to invalidate catalog cache", "error", err.Error())
		}
	}

	if sinks.notifier != nil {
		sinks.notifier.BroadcastGalleryEvent(event)
	}
}
