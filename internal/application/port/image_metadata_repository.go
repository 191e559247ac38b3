package port

import (
	"context"
	"time"
)

// ImageMetadata is the upload-index record kept alongside the object store.
type ImageMetadata struct {
	Key         string
	URL         string
	ContentType string
	SizeBytes   int64
	UploadedAt  time.Time
}

// ImageListQuery selects a page of recent uploads from the index.
type ImageListQuery struct {
	Limit  int
	Cursor string
}

// ImageListPage holds one page of index records and the cursor for the next one.
type ImageListPage struct {
	Items      []ImageMetadata
	NextCursor string
}

// ImageMetadataRepository defines the upload-index storage interface (Port).
type ImageMetadataRepository interface {
	Put(ctx context.Context, record ImageMetadata) error
	Delete(ctx context.Context, key string) error
	ListRecent(ctx context.Context, query ImageListQuery) (ImageListPage, error)
}
