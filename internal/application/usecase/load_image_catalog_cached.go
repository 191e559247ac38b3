package usecase

import (
	"context"

	"github.com/pkondrashkov/gallery-api/internal/application/dto"
	"github.com/pkondrashkov/gallery-api/internal/application/port"
	"github.com/pkondrashkov/gallery-api/internal/infrastructure/cache/redis"
	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

// LoadImageCatalogCachedUseCase wraps the catalog loader with a short-lived
// response cache. The loader itself stays cache-free; upload and delete
// invalidate catalog entries.
type LoadImageCatalogCachedUseCase struct {
	loader *LoadImageCatalogUseCase
	cache  port.Cache
	logger *logger.Logger
}

func NewLoadImageCatalogCachedUseCase(
	loader *LoadImageCatalogUseCase,
	cache port.Cache,
	log *logger.Logger,
) *LoadImageCatalogCachedUseCase {
	return &LoadImageCatalogCachedUseCase{
		loader: loader,
		cache:  cache,
		logger: log,
	}
}

func (uc *LoadImageCatalogCachedUseCase) Execute(ctx context.Context, prefix string) ([]dto.ImageDTO, error) {
	if uc.cache == nil {
		records, err := uc.loader.Execute(ctx, prefix)
		if err != nil {
			return nil, err
		}
		return dto.ToImageDTOs(records), nil
	}

	cacheKey := redis.CatalogCacheKey(prefix)

	var cached []dto.ImageDTO
	if err := uc.cache.Get(ctx, cacheKey, &cached); err == nil {
		uc.logger.Debug("Cache hit for image catalog", "prefix", prefix, "count", len(cached))
		return cached, nil
	}

	uc.logger.Debug("Cache miss for image catalog", "prefix", prefix)

	records, err := uc.loader.Execute(ctx, prefix)
	if err != nil {
		return nil, err
	}
	dtos := dto.ToImageDTOs(records)

	// Store asynchronously, the response does not wait for Redis.
	go func() {
		if err := uc.cache.Set(context.Background(), cacheKey, dtos); err != nil {
			uc.logger.Warn("Failed to cache image catalog", "error", err.Error())
		}
	}()

	return dtos, nil
}
