package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkondrashkov/gallery-api/internal/application/port"
	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

type DeleteImageCommand struct {
	Key string
}

type DeleteImageConfig struct {
	KeyPrefix string
}

// DeleteImageUseCase removes an image object and mirrors the upload fan-out:
// metadata index, event broker, cache invalidation, client broadcast.
type DeleteImageUseCase struct {
	storage  port.ObjectStorage
	metadata port.ImageMetadataRepository
	events   port.EventPublisher
	notifier port.NotificationService
	cache    port.Cache
	metrics  port.MetricsPublisher
	config   DeleteImageConfig
	logger   *logger.Logger
}

func NewDeleteImageUseCase(
	storage port.ObjectStorage,
	metadata port.ImageMetadataRepository,
	events port.EventPublisher,
	notifier port.NotificationService,
	cache port.Cache,
	metrics port.MetricsPublisher,
	config DeleteImageConfig,
	log *logger.Logger,
) *DeleteImageUseCase {
	return &DeleteImageUseCase{
		storage:  storage,
		metadata: metadata,
		events:   events,
		notifier: notifier,
		cache:    cache,
		metrics:  metrics,
		config:   config,
		logger:   log,
	}
}

func (uc *DeleteImageUseCase) Execute(ctx context.Context, cmd DeleteImageCommand) error {
	if uc.storage == nil {
		return fmt.Errorf("%w: object storage is not configured", ErrStorageUnavailable)
	}

	key := strings.TrimSpace(cmd.Key)
	if key == "" {
		return fmt.Errorf("object key is required")
	}
	if !uc.keyInGallery(key) {
		return fmt.Errorf("key is outside the gallery prefix: %s", key)
	}

	if err := uc.storage.DeleteObject(ctx, key); err != nil {
		uc.logger.Error("Failed to delete image", err, "key", key)
		return fmt.Errorf("%w: deleting %s: %v", ErrStorageUnavailable, key, err)
	}

	deletedAt := time.Now().UTC()

	if uc.metadata != nil {
		if err := uc.metadata.Delete(ctx, key); err != nil {
			uc.logger.Warn("Failed to remove image metadata", "key", key, "error", err.Error())
		}
	}

	fanOutGalleryChange(ctx, galleryChangeSinks{
		events:   uc.events,
		notifier: uc.notifier,
		cache:    uc.cache,
		logger:   uc.logger,
	}, "deleted", key, deletedAt)

	if uc.metrics != nil {
		err := uc.metrics.PublishSingle(ctx, port.UsageMetric{
			Name:       "ImagesDeleted",
			Value:      1,
			Unit:       "count",
			ObservedAt: deletedAt,
		})
		if err != nil {
			uc.logger.Warn("Failed to publish delete metric", "error", err.Error())
		}
	}

	uc.logger.Info("Image deleted", "key", key)
	return nil
}

func (uc *DeleteImageUseCase) keyInGallery(key string) bool {
	prefix := strings.Trim(uc.config.KeyPrefix, "/")
	if prefix == "" {
		prefix = "gallery"
	}
	return strings.HasPrefix(key, prefix+"/")
}
