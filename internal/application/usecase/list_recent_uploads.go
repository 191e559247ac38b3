package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkondrashkov/gallery-api/internal/application/port"
	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

type ListRecentUploadsCommand struct {
	Limit  int
	Cursor string
}

type ListRecentUploadsConfig struct {
	DefaultLimit int
	MaxLimit     int
}

// ListRecentUploadsUseCase pages through the upload index, newest first.
// It is independent of the catalog loader and requires the metadata index.
type ListRecentUploadsUseCase struct {
	metadata port.ImageMetadataRepository
	config   ListRecentUploadsConfig
	logger   *logger.Logger
}

func NewListRecentUploadsUseCase(
	metadata port.ImageMetadataRepository,
	config ListRecentUploadsConfig,
	log *logger.Logger,
) *ListRecentUploadsUseCase {
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 50
	}
	if config.MaxLimit <= 0 {
		config.MaxLimit = 200
	}
	return &ListRecentUploadsUseCase{
		metadata: metadata,
		config:   config,
		logger:   log,
	}
}

func (uc *ListRecentUploadsUseCase) Execute(ctx context.Context, cmd ListRecentUploadsCommand) (port.ImageListPage, error) {
	if uc.metadata == nil {
		return port.ImageListPage{}, fmt.Errorf("image metadata index is not configured")
	}

	limit := cmd.Limit
	if limit <= 0 {
		limit = uc.config.DefaultLimit
	}
	if limit > uc.config.MaxLimit {
		limit = uc.config.MaxLimit
	}

	page, err := uc.metadata.ListRecent(ctx, port.ImageListQuery{
		Limit:  limit,
		Cursor: strings.TrimSpace(cmd.Cursor),
	})
	if err != nil {
		return port.ImageListPage{}, fmt.Errorf("failed to list recent uploads: %w", err)
	}

	uc.logger.Debug("Recent uploads listed", "count", len(page.Items), "has_next", page.NextCursor != "")
	return page, nil
}
