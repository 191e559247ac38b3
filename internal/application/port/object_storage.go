package port

import (
	"context"
	"time"
)

// ObjectInfo describes a single object returned by a storage listing.
// SizeBytes and LastModified are zero when the backend did not report them.
type ObjectInfo struct {
	Key          string
	SizeBytes    int64
	LastModified time.Time
}

// ObjectPage is one page of a listing. An empty NextCursor means the
// traversal is complete.
type ObjectPage struct {
	Items      []ObjectInfo
	NextCursor string
}

// ObjectStorage defines the interface to the object store backing the gallery (Port).
// The cursor is opaque: callers pass back exactly what the previous page returned.
type ObjectStorage interface {
	// ListPage returns one page of objects under prefix. An empty cursor
	// requests the first page.
	ListPage(ctx context.Context, prefix string, pageSize int32, cursor string) (ObjectPage, error)

	// ResolveSignedURL mints a time-limited read URL for the object key.
	ResolveSignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)

	// PutObject stores body under key and returns a read URL for it.
	PutObject(ctx context.Context, key, contentType string, body []byte) (string, error)

	// DeleteObject removes the object. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, key string) error
}
