package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkondrashkov/gallery-api/internal/application/port"
	"github.com/pkondrashkov/gallery-api/internal/domain/entity"
	"github.com/pkondrashkov/gallery-api/internal/domain/service"
	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

// ErrStorageUnavailable marks catalog loads that failed against the object
// store. Callers never receive partial results alongside it.
var ErrStorageUnavailable = errors.New("storage unavailable")

type LoadImageCatalogConfig struct {
	PageSize     int32
	SignedURLTTL time.Duration
}

// LoadImageCatalogUseCase walks an object-storage prefix page by page and
// aggregates the image objects under it into presentable records, minting a
// fresh signed URL for each.
//
// The traversal is a best-effort point-in-time view: objects added or removed
// while pages are being fetched may or may not appear in the result. That is
// inherent to paginated listing against a live bucket and is not compensated
// here.
type LoadImageCatalogUseCase struct {
	storage port.ObjectStorage
	filter  *service.ImageFilter
	metrics port.MetricsPublisher
	config  LoadImageCatalogConfig
	logger  *logger.Logger
}

func NewLoadImageCatalogUseCase(
	storage port.ObjectStorage,
	filter *service.ImageFilter,
	metrics port.MetricsPublisher,
	config LoadImageCatalogConfig,
	log *logger.Logger,
) *LoadImageCatalogUseCase {
	if config.PageSize <= 0 {
		config.PageSize = 100
	}
	if config.SignedURLTTL <= 0 {
		config.SignedURLTTL = time.Hour
	}
	if filter == nil {
		filter = service.NewImageFilter()
	}
	return &LoadImageCatalogUseCase{
		storage: storage,
		filter:  filter,
		metrics: metrics,
		config:  config,
		logger:  log,
	}
}

// Execute loads the full catalog under prefix in storage-listing order.
// Any listing or URL-resolution failure fails the whole call; records from
// pages already fetched are discarded.
func (uc *LoadImageCatalogUseCase) Execute(ctx context.Context, prefix string) ([]entity.ImageRecord, error) {
	if uc.storage == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrStorageUnavailable)
	}

	normalizedPrefix := strings.TrimSpace(prefix)
	if normalizedPrefix == "" {
		return nil, fmt.Errorf("prefix is required")
	}

	started := time.Now()
	records := make([]entity.ImageRecord, 0)
	cursor := ""
	pages := 0

	for {
		page, err := uc.storage.ListPage(ctx, normalizedPrefix, uc.config.PageSize, cursor)
		if err != nil {
			return nil, fmt.Errorf("%w: listing prefix %q: %v", ErrStorageUnavailable, normalizedPrefix, err)
		}
		pages++

		retained := make([]port.ObjectInfo, 0, len(page.Items))
		for _, item := range page.Items {
			if uc.filter.IsImageKey(item.Key) {
				retained = append(retained, item)
			}
		}

		resolved, err := uc.resolvePage(ctx, retained)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
		}
		records = append(records, resolved...)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if uc.logger != nil {
		uc.logger.Debug("Image catalog loaded",
			"prefix", normalizedPrefix,
			"pages", pages,
			"records", len(records),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	}
	uc.publishLoadMetrics(ctx, len(records), time.Since(started))

	return records, nil
}

// resolvePage mints signed URLs for every retained object concurrently and
// joins before returning, preserving the listing order of the page.
func (uc *LoadImageCatalogUseCase) resolvePage(ctx context.Context, items []port.ObjectInfo) ([]entity.ImageRecord, error) {
	resolved := make([]entity.ImageRecord, len(items))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, item := range items {
		group.Go(func() error {
			url, err := uc.storage.ResolveSignedURL(groupCtx, item.Key, uc.config.SignedURLTTL)
			if err != nil {
				return fmt.Errorf("resolving url for %s: %v", item.Key, err)
			}
			resolved[i] = entity.ImageRecord{
				Key:          item.Key,
				AccessURL:    url,
				SizeBytes:    item.SizeBytes,
				LastModified: item.LastModified,
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return resolved, nil
}

func (uc *LoadImageCatalogUseCase) publishLoadMetrics(ctx context.Context, records int, elapsed time.Duration) {
	if uc.metrics == nil {
		return
	}
	now := time.Now().UTC()
	err := uc.metrics.PublishBatch(ctx, []port.UsageMetric{
		{Name: "CatalogLoadDuration", Value: float64(elapsed.Milliseconds()), Unit: "ms", ObservedAt: now},
		{Name: "CatalogRecords", Value: float64(records), Unit: "count", ObservedAt: now},
	})
	if err != nil && uc.logger != nil {
		uc.logger.Warn("Failed to publish catalog load metrics", "error", err.Error())
	}
}
